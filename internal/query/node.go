package query

import (
	"encoding/json"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind tags the shape of a Node.
type Kind int

const (
	KindLiteral Kind = iota
	KindWildcard
	KindPath
	KindPathList
	KindMapping
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindWildcard:
		return "wildcard"
	case KindPath:
		return "path"
	case KindPathList:
		return "path-list"
	case KindMapping:
		return "mapping"
	case KindList:
		return "list"
	default:
		return "<unknown kind>"
	}
}

// Node is one fragment of a populate query. The concrete types are Path,
// PathList, Wildcard, *Mapping, List and Literal. A nil Node means the value
// is absent (or was dropped).
//
// Nodes are immutable by convention: every operation that changes a node
// returns a new one.
type Node interface {
	Kind() Kind
	json.Marshaler
	node()
}

// WildcardToken is the literal "populate everything" value.
const WildcardToken = "*"

// Path is a dotted field path such as "author.avatar".
type Path string

func (Path) Kind() Kind { return KindPath }
func (Path) node()      {}

// MarshalJSON implements json.Marshaler.
func (p Path) MarshalJSON() ([]byte, error) { return json.Marshal(string(p)) }

// Segments splits the path on dots.
func (p Path) Segments() []string { return strings.Split(string(p), ".") }

// Wildcard is the "*" token.
type Wildcard struct{}

func (Wildcard) Kind() Kind { return KindWildcard }
func (Wildcard) node()      {}

// MarshalJSON implements json.Marshaler.
func (Wildcard) MarshalJSON() ([]byte, error) { return json.Marshal(WildcardToken) }

// PathList is an ordered list of path strings, e.g. ["author", "author.avatar"].
type PathList []string

func (PathList) Kind() Kind { return KindPathList }
func (PathList) node()      {}

// MarshalJSON implements json.Marshaler.
func (l PathList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// Nodes returns each element as its own Node.
func (l PathList) Nodes() []Node {
	out := make([]Node, len(l))
	for i, s := range l {
		out[i] = String(s)
	}
	return out
}

// List is any array that is not a plain list of strings.
type List []Node

func (List) Kind() Kind { return KindList }
func (List) node()      {}

// MarshalJSON implements json.Marshaler. Nil elements are encoded as null.
func (l List) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Node(l))
}

// Literal wraps a JSON scalar that is not a string: a bool, a json.Number or nil.
type Literal struct {
	Value any
}

func (Literal) Kind() Kind { return KindLiteral }
func (Literal) node()      {}

// MarshalJSON implements json.Marshaler.
func (l Literal) MarshalJSON() ([]byte, error) { return json.Marshal(l.Value) }

// True is the common `field: true` populate value.
var True = Literal{Value: true}

// String converts a raw string to its node form: "*" is a Wildcard, anything
// else a Path.
func String(s string) Node {
	if s == WildcardToken {
		return Wildcard{}
	}
	return Path(s)
}

// AsString reports the string form of Path and Wildcard nodes.
func AsString(n Node) (string, bool) {
	switch v := n.(type) {
	case Path:
		return string(v), true
	case Wildcard:
		return WildcardToken, true
	default:
		return "", false
	}
}

// Mapping is an insertion-ordered map from field key to sub-node.
type Mapping struct {
	m *orderedmap.OrderedMap[string, Node]
}

// Pair is a key/value entry used to build a Mapping.
type Pair struct {
	Key   string
	Value Node
}

// NewMapping builds a Mapping from pairs, in order. Later duplicates win but
// keep the position of the first occurrence.
func NewMapping(pairs ...Pair) *Mapping {
	m := &Mapping{m: orderedmap.New[string, Node]()}
	for _, p := range pairs {
		m.m.Set(p.Key, p.Value)
	}
	return m
}

func (*Mapping) Kind() Kind { return KindMapping }
func (*Mapping) node()      {}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Len()
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	keys := make([]string, 0, m.Len())
	m.Range(func(k string, _ Node) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Node, bool) {
	if m == nil || m.m == nil {
		return nil, false
	}
	return m.m.Get(key)
}

// Has reports whether key is present.
func (m *Mapping) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Range calls fn for each entry in order until fn returns false.
func (m *Mapping) Range(fn func(key string, value Node) bool) {
	if m == nil || m.m == nil {
		return
	}
	for pair := m.m.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Clone returns a shallow copy. Values are shared, which is safe because
// nodes are never modified in place.
func (m *Mapping) Clone() *Mapping {
	out := &Mapping{m: orderedmap.New[string, Node]()}
	m.Range(func(k string, v Node) bool {
		out.m.Set(k, v)
		return true
	})
	return out
}

// With returns a copy of m with key set to value. An existing key keeps its
// position; a new key is appended.
func (m *Mapping) With(key string, value Node) *Mapping {
	out := m.Clone()
	out.m.Set(key, value)
	return out
}

// Without returns a copy of m without key.
func (m *Mapping) Without(key string) *Mapping {
	out := m.Clone()
	out.m.Delete(key)
	return out
}

// Merge returns a copy of m with every entry of other set over it.
func (m *Mapping) Merge(other *Mapping) *Mapping {
	out := m.Clone()
	other.Range(func(k string, v Node) bool {
		out.m.Set(k, v)
		return true
	})
	return out
}

// MarshalJSON implements json.Marshaler, preserving key order.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	if m == nil || m.m == nil {
		return []byte("{}"), nil
	}
	return m.m.MarshalJSON()
}
