package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Parse decodes a JSON document into a Node, preserving object key order.
// Arrays made only of strings (including the empty array) become a PathList.
func Parse(data []byte) (Node, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("invalid populate json")
	}
	return decodeRaw(data)
}

// MustParse is Parse for fixtures; it panics on error.
func MustParse(s string) Node {
	n, err := Parse([]byte(s))
	if err != nil {
		panic(err)
	}
	return n
}

func decodeRaw(raw []byte) (Node, error) {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 {
		return nil, fmt.Errorf("empty json value")
	}

	switch b[0] {
	case '{':
		om := orderedmap.New[string, json.RawMessage]()
		if err := om.UnmarshalJSON(b); err != nil {
			return nil, fmt.Errorf("decode object: %w", err)
		}
		m := NewMapping()
		for pair := om.Oldest(); pair != nil; pair = pair.Next() {
			child, err := decodeRaw(pair.Value)
			if err != nil {
				return nil, fmt.Errorf("decode %q: %w", pair.Key, err)
			}
			m.m.Set(pair.Key, child)
		}
		return m, nil

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(b, &items); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
		nodes := make([]Node, len(items))
		for i, item := range items {
			child, err := decodeRaw(item)
			if err != nil {
				return nil, fmt.Errorf("decode [%d]: %w", i, err)
			}
			nodes[i] = child
		}
		return fromNodes(nodes), nil

	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil, fmt.Errorf("decode string: %w", err)
		}
		return String(s), nil

	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode scalar: %w", err)
		}
		return Literal{Value: v}, nil
	}
}

// fromNodes picks PathList when every element is a string, List otherwise.
func fromNodes(nodes []Node) Node {
	strs := make(PathList, 0, len(nodes))
	for _, n := range nodes {
		s, ok := AsString(n)
		if !ok {
			return List(nodes)
		}
		strs = append(strs, s)
	}
	return strs
}

// FromValues builds an array node from already-decoded elements, choosing
// PathList or List the same way Parse does.
func FromValues(nodes []Node) Node {
	return fromNodes(nodes)
}

// FromValue converts a generic decoded value (as produced by encoding/json
// or a JSONPath query) into a Node. Plain Go maps carry no order, so their
// keys are sorted.
func FromValue(v any) (Node, error) {
	switch val := v.(type) {
	case Node:
		return val, nil
	case nil:
		return Literal{}, nil
	case string:
		return String(val), nil
	case bool, json.Number, float64, float32, int, int64, int32, uint, uint64, uint32:
		return Literal{Value: val}, nil
	case []string:
		return append(PathList(nil), val...), nil
	case []any:
		nodes := make([]Node, len(val))
		for i, item := range val {
			n, err := FromValue(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			nodes[i] = n
		}
		return fromNodes(nodes), nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMapping()
		for _, k := range keys {
			n, err := FromValue(val[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			m.m.Set(k, n)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported populate value of type %T", v)
	}
}

// Encode renders n as compact JSON. A nil node encodes as null.
func Encode(n Node) ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	return json.Marshal(n)
}

// MustJSON is Encode for tests and log fields; it panics on error.
func MustJSON(n Node) string {
	b, err := Encode(n)
	if err != nil {
		panic(err)
	}
	return string(b)
}
