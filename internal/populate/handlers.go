package populate

import (
	"context"
	"encoding/json"

	"github.com/agentic-research/populate/api"
	"github.com/agentic-research/populate/internal/query"
	"github.com/agentic-research/populate/internal/traverse"
)

func isPathList(n query.Node) bool {
	return n.Kind() == query.KindPathList
}

func isWildcard(n query.Node) bool {
	return n.Kind() == query.KindWildcard
}

func isQueryModifier(key string, attr *api.Attribute) bool {
	if attr != nil {
		return false
	}
	switch key {
	case "sort", "filters", "fields":
		return true
	}
	return false
}

// traversePathList populates each path independently, keeping order. Dropped
// elements are not filtered out here.
func (p *Populator) traversePathList(ctx context.Context, visitor traverse.Visitor, opts traverse.Options, n query.Node, recurse traverse.RecurseFunc) (query.Node, error) {
	elems := n.(query.PathList).Nodes()
	out := make([]query.Node, len(elems))
	for i, el := range elems {
		res, err := recurse(ctx, visitor, opts, el)
		if err != nil {
			return nil, err
		}
		out[i] = res
	}
	return query.FromValues(out), nil
}

func keepWildcard(_ context.Context, _ traverse.Visitor, _ traverse.Options, n query.Node, _ traverse.RecurseFunc) (query.Node, error) {
	return n, nil
}

// onPopulate handles a nested populate directive about the current level.
func (p *Populator) onPopulate(ctx context.Context, hc *traverse.HandlerContext, recurse traverse.RecurseFunc) (query.Node, error) {
	return recurse(ctx, hc.Visitor, traverse.Options{Schema: hc.Schema, Path: hc.Path}, hc.Value)
}

// onMorphFragment fans out an `on` map, one branch per target UID.
func (p *Populator) onMorphFragment(ctx context.Context, hc *traverse.HandlerContext, recurse traverse.RecurseFunc) (query.Node, error) {
	m, ok := hc.Value.(*query.Mapping)
	if !ok {
		p.log.WithField("path", hc.Path.Raw).Debug("dropping non-mapping on fragment")
		return nil, nil
	}

	pairs := make([]query.Pair, 0, m.Len())
	for _, uid := range m.Keys() {
		schema, err := p.resolver.Resolve(ctx, uid)
		if err != nil {
			return nil, err
		}
		sub, _ := m.Get(uid)
		res, err := recurse(ctx, hc.Visitor, traverse.Options{Schema: schema, Path: hc.Path.WithUID(uid)}, sub)
		if err != nil {
			return nil, err
		}
		if res != nil {
			pairs = append(pairs, query.Pair{Key: uid, Value: res})
		}
	}
	return query.NewMapping(pairs...), nil
}

func (p *Populator) onRelation(ctx context.Context, hc *traverse.HandlerContext, recurse traverse.RecurseFunc) (query.Node, error) {
	if hc.Attribute.IsMorphTo() {
		// Only an explicit {on: {...}} fragment can be read without a target.
		m, _ := hc.Value.(*query.Mapping)
		on, _ := m.Get("on")
		if _, isMap := on.(*query.Mapping); !isMap {
			p.log.WithField("path", hc.Path.Raw).Debug("dropping morph-to relation without on fragment")
			return nil, nil
		}
		fragment := query.NewMapping(query.Pair{Key: "on", Value: on})
		return recurse(ctx, hc.Visitor, traverse.Options{Schema: hc.Schema, Path: hc.Path}, fragment)
	}
	return p.descend(ctx, hc, recurse, hc.Attribute.Target)
}

func (p *Populator) onMedia(ctx context.Context, hc *traverse.HandlerContext, recurse traverse.RecurseFunc) (query.Node, error) {
	return p.descend(ctx, hc, recurse, p.mediaUID)
}

func (p *Populator) onComponent(ctx context.Context, hc *traverse.HandlerContext, recurse traverse.RecurseFunc) (query.Node, error) {
	return p.descend(ctx, hc, recurse, hc.Attribute.Component)
}

// onDynamicZone merges the legacy syntax (fields shared by every component,
// folded through each component schema in turn) with the explicit
// {on: {componentUID: ...}} syntax.
func (p *Populator) onDynamicZone(ctx context.Context, hc *traverse.HandlerContext, recurse traverse.RecurseFunc) (query.Node, error) {
	m, ok := hc.Value.(*query.Mapping)
	if !ok {
		return recurse(ctx, hc.Visitor, traverse.Options{Schema: hc.Schema, Path: hc.Path}, hc.Value)
	}

	var props query.Node = m.Without("on")
	for _, uid := range hc.Attribute.Components {
		schema, err := p.resolver.Resolve(ctx, uid)
		if err != nil {
			return nil, err
		}
		props, err = recurse(ctx, hc.Visitor, traverse.Options{Schema: schema, Path: hc.Path}, props)
		if err != nil {
			return nil, err
		}
	}

	out := query.NewMapping()
	if pm, ok := props.(*query.Mapping); ok {
		out = out.Merge(pm)
	}

	if on, ok := m.Get("on"); ok && truthy(on) {
		fragment := query.NewMapping(query.Pair{Key: "on", Value: on})
		newOn, err := recurse(ctx, hc.Visitor, traverse.Options{Schema: hc.Schema, Path: hc.Path}, fragment)
		if err != nil {
			return nil, err
		}
		if nm, ok := newOn.(*query.Mapping); ok {
			out = out.Merge(nm)
		}
	}
	return out, nil
}

func (p *Populator) descend(ctx context.Context, hc *traverse.HandlerContext, recurse traverse.RecurseFunc, uid string) (query.Node, error) {
	schema, err := p.resolver.Resolve(ctx, uid)
	if err != nil {
		return nil, err
	}
	return recurse(ctx, hc.Visitor, traverse.Options{Schema: schema, Path: hc.Path}, hc.Value)
}

// truthy follows JSON truthiness: null, false, 0 and "" are false.
func truthy(n query.Node) bool {
	switch v := n.(type) {
	case nil:
		return false
	case query.Path:
		return v != ""
	case query.Literal:
		switch lit := v.Value.(type) {
		case nil:
			return false
		case bool:
			return lit
		case json.Number:
			f, err := lit.Float64()
			return err != nil || f != 0
		case float64:
			return lit != 0
		}
	}
	return true
}
