package traverse

import (
	"strings"

	"github.com/agentic-research/populate/internal/query"
)

// Strategy gives the walker uniform access to one node shape.
//
// Every method returns a new node; data is never modified.
type Strategy interface {
	// Transform normalizes a node on entry and returns the working copy.
	Transform(data query.Node) query.Node
	// Keys enumerates the child keys of data.
	Keys(data query.Node) []string
	// Get reads the child under key.
	Get(key string, data query.Node) (query.Node, bool)
	// Set installs value under key. A nil value deletes the key.
	Set(key string, value, data query.Node) query.Node
	// Remove deletes key and returns what is left, which may be nil.
	Remove(key string, data query.Node) query.Node
}

// PathStrategy treats a dotted path as a root segment plus a remainder:
// "a.b.c" has the single key "a" whose value is "b.c".
type PathStrategy struct{}

var _ Strategy = PathStrategy{}

func splitPath(data query.Node) (root, rest string, ok bool) {
	s, ok := query.AsString(data)
	if !ok {
		return "", "", false
	}
	root, rest, _ = strings.Cut(s, ".")
	return root, rest, true
}

// Transform trims surrounding whitespace.
func (PathStrategy) Transform(data query.Node) query.Node {
	s, ok := query.AsString(data)
	if !ok {
		return data
	}
	return query.Path(strings.TrimSpace(s))
}

// Keys returns the root segment, if any.
func (PathStrategy) Keys(data query.Node) []string {
	root, _, ok := splitPath(data)
	if !ok || root == "" {
		return nil
	}
	return []string{root}
}

// Get returns the remainder after key. A path with no remainder yields the
// empty Path.
func (PathStrategy) Get(key string, data query.Node) (query.Node, bool) {
	root, rest, ok := splitPath(data)
	if !ok || root != key {
		return nil, false
	}
	if rest == "" {
		return query.Path(""), true
	}
	return query.String(rest), true
}

// Set re-prefixes value with the root. A nil, empty or non-string value
// leaves just the root.
func (PathStrategy) Set(key string, value, data query.Node) query.Node {
	root, _, ok := splitPath(data)
	if !ok || root != key {
		return data
	}
	rest, ok := query.AsString(value)
	if !ok || rest == "" {
		return query.Path(root)
	}
	return query.Path(root + "." + rest)
}

// Remove drops the whole path when its root is key.
func (PathStrategy) Remove(key string, data query.Node) query.Node {
	root, _, ok := splitPath(data)
	if ok && root == key {
		return nil
	}
	return data
}

// MappingStrategy is plain copy-on-write mapping access.
type MappingStrategy struct{}

var _ Strategy = MappingStrategy{}

func asMapping(data query.Node) (*query.Mapping, bool) {
	m, ok := data.(*query.Mapping)
	return m, ok
}

// Transform returns a shallow copy.
func (MappingStrategy) Transform(data query.Node) query.Node {
	m, ok := asMapping(data)
	if !ok {
		return data
	}
	return m.Clone()
}

func (MappingStrategy) Keys(data query.Node) []string {
	m, _ := asMapping(data)
	return m.Keys()
}

func (MappingStrategy) Get(key string, data query.Node) (query.Node, bool) {
	m, _ := asMapping(data)
	return m.Get(key)
}

func (MappingStrategy) Set(key string, value, data query.Node) query.Node {
	m, ok := asMapping(data)
	if !ok {
		return data
	}
	if value == nil {
		return m.Without(key)
	}
	return m.With(key, value)
}

func (MappingStrategy) Remove(key string, data query.Node) query.Node {
	m, ok := asMapping(data)
	if !ok {
		return data
	}
	return m.Without(key)
}
