package query

import (
	"encoding/json"
	"fmt"

	"github.com/ohler55/ojg/jp"
)

// Select extracts the populate fragment addressed by a JSONPath selector from
// a larger JSON document, e.g. "$.populate" from a full query object.
// A selector matching nothing yields a nil Node; several matches are returned
// as one array node.
//
// The document goes through encoding/json first, so key order inside the
// selected fragment is sorted rather than preserved.
func Select(doc []byte, selector string) (Node, error) {
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}

	var root any
	if err := json.Unmarshal(doc, &root); err != nil {
		return nil, fmt.Errorf("parse query document: %w", err)
	}

	results := x.Get(root)
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return FromValue(results[0])
	}

	nodes := make([]Node, len(results))
	for i, r := range results {
		n, err := FromValue(r)
		if err != nil {
			return nil, fmt.Errorf("match %d: %w", i, err)
		}
		nodes[i] = n
	}
	return FromValues(nodes), nil
}
