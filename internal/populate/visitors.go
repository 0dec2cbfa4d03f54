package populate

import (
	"context"

	"github.com/agentic-research/populate/api"
	"github.com/agentic-research/populate/internal/query"
	"github.com/agentic-research/populate/internal/traverse"
)

// Compose chains visitors left to right. Each one sees the value returned by
// the previous; the chain stops as soon as a visitor removes the key.
func Compose(visitors ...traverse.Visitor) traverse.Visitor {
	return func(ctx context.Context, v *traverse.Visit) (query.Node, error) {
		cur := *v
		for _, visit := range visitors {
			if visit == nil {
				continue
			}
			next, err := visit(ctx, &cur)
			if err != nil {
				return nil, err
			}
			if next == nil {
				return nil, nil
			}
			cur.Value = next
		}
		return cur.Value, nil
	}
}

// AllowList returns a predicate accepting exactly the given UIDs.
func AllowList(uids ...string) func(string) bool {
	set := make(map[string]struct{}, len(uids))
	for _, uid := range uids {
		set[uid] = struct{}{}
	}
	return func(uid string) bool {
		_, ok := set[uid]
		return ok
	}
}

// Restrict returns a visitor that removes every branch leading to a content
// type rejected by allowed: relations, media, components, dynamic zones with
// no allowed member, and disallowed targets inside `on` fragments.
func (p *Populator) Restrict(allowed func(uid string) bool) traverse.Visitor {
	return func(_ context.Context, v *traverse.Visit) (query.Node, error) {
		attr := v.Attribute
		switch {
		case attr == nil:
			if v.Key == "on" {
				return restrictOn(v.Value, allowed), nil
			}
		case attr.Kind() == api.Media:
			if !allowed(p.mediaUID) {
				return nil, nil
			}
		case attr.Kind() == api.DynamicZone:
			for _, uid := range attr.Components {
				if allowed(uid) {
					return v.Value, nil
				}
			}
			return nil, nil
		default:
			for _, uid := range attr.Targets() {
				if !allowed(uid) {
					return nil, nil
				}
			}
		}
		return v.Value, nil
	}
}

func restrictOn(n query.Node, allowed func(string) bool) query.Node {
	m, ok := n.(*query.Mapping)
	if !ok {
		return n
	}
	out := m
	for _, uid := range m.Keys() {
		if !allowed(uid) {
			out = out.Without(uid)
		}
	}
	return out
}
