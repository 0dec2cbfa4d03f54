package populate

import (
	"context"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/populate/api"
	"github.com/agentic-research/populate/internal/query"
	"github.com/agentic-research/populate/internal/registry"
	"github.com/agentic-research/populate/internal/traverse"
)

// Reach returns the sorted UIDs of every content type that n can pull in when
// applied to rootUID, the root included. It is the set a caller has to check
// read permissions on before running the query.
func (p *Populator) Reach(ctx context.Context, rootUID string, n query.Node) ([]string, error) {
	var (
		mu      sync.Mutex
		ids     = registry.NewInterner()
		visited = roaring.New()
	)
	mark := func(uids ...string) {
		mu.Lock()
		defer mu.Unlock()
		for _, uid := range uids {
			if uid != "" {
				visited.Add(ids.ID(uid))
			}
		}
	}
	mark(rootUID)

	collect := func(_ context.Context, v *traverse.Visit) (query.Node, error) {
		if lit, ok := v.Value.(query.Literal); ok && lit.Value == false {
			return v.Value, nil
		}
		switch {
		case v.Attribute == nil:
			if v.Key == "on" {
				if m, ok := v.Value.(*query.Mapping); ok {
					mark(m.Keys()...)
				}
			}
		case v.Attribute.Kind() == api.Media:
			mark(p.mediaUID)
		default:
			mark(v.Attribute.Targets()...)
		}
		return v.Value, nil
	}

	if _, err := p.TraverseUID(ctx, collect, rootUID, n); err != nil {
		return nil, err
	}

	uids := make([]string, 0, visited.GetCardinality())
	it := visited.Iterator()
	for it.HasNext() {
		uids = append(uids, ids.UID(it.Next()))
	}
	sort.Strings(uids)
	return uids, nil
}
