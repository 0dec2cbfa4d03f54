package api

import "strings"

// ContentType describes one content type (or component) known to the registry.
// The traversal engine only reads it.
type ContentType struct {
	// UID identifies the content type, e.g. "api::article.article".
	UID string `json:"uid" yaml:"uid"`
	// Kind is "collectionType", "singleType" or "component" (informational).
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`
	// Attributes maps field names to their descriptors.
	Attributes map[string]*Attribute `json:"attributes" yaml:"attributes"`
}

// Attribute returns the attribute declared for name, or nil.
// It is safe to call on a nil ContentType.
func (c *ContentType) Attribute(name string) *Attribute {
	if c == nil || c.Attributes == nil {
		return nil
	}
	return c.Attributes[name]
}

// Attribute describes a single field.
type Attribute struct {
	// Type is the raw field type ("string", "relation", "media", "component", "dynamiczone", ...).
	Type string `json:"type" yaml:"type"`
	// Relation is the relation flavor for Type == "relation" (e.g. "oneToMany", "morphToMany").
	Relation string `json:"relation,omitempty" yaml:"relation,omitempty"`
	// Target is the related content type UID for relations.
	Target string `json:"target,omitempty" yaml:"target,omitempty"`
	// Component is the component UID for Type == "component".
	Component string `json:"component,omitempty" yaml:"component,omitempty"`
	// Components lists the allowed component UIDs for Type == "dynamiczone".
	Components []string `json:"components,omitempty" yaml:"components,omitempty"`
	// Repeatable marks repeatable components (informational).
	Repeatable bool `json:"repeatable,omitempty" yaml:"repeatable,omitempty"`
}

// AttributeKind is the traversal-relevant classification of an Attribute.
type AttributeKind int

const (
	Scalar AttributeKind = iota
	Relation
	Media
	Component
	DynamicZone
)

func (k AttributeKind) String() string {
	switch k {
	case Relation:
		return "relation"
	case Media:
		return "media"
	case Component:
		return "component"
	case DynamicZone:
		return "dynamiczone"
	default:
		return "scalar"
	}
}

// Kind classifies the attribute. Unknown types are scalars.
func (a *Attribute) Kind() AttributeKind {
	if a == nil {
		return Scalar
	}
	switch a.Type {
	case "relation":
		return Relation
	case "media":
		return Media
	case "component":
		return Component
	case "dynamiczone":
		return DynamicZone
	default:
		return Scalar
	}
}

// IsMorphTo reports whether the attribute is a polymorphic relation whose
// target varies per record (morphToOne / morphToMany).
func (a *Attribute) IsMorphTo() bool {
	return a.Kind() == Relation && strings.HasPrefix(a.Relation, "morphTo")
}

// Targets returns the content type UIDs the attribute points at.
// Morph-to relations and scalars have none.
func (a *Attribute) Targets() []string {
	switch a.Kind() {
	case Relation:
		if a.Target == "" {
			return nil
		}
		return []string{a.Target}
	case Component:
		return []string{a.Component}
	case DynamicZone:
		return a.Components
	default:
		return nil
	}
}
