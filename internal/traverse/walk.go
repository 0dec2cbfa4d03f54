package traverse

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/agentic-research/populate/api"
	"github.com/agentic-research/populate/internal/query"
)

// frame tracks recursion depth and the schema chain for the depth guard.
type frame struct {
	depth int
	chain []string
}

func (f frame) enter(schema *api.ContentType) frame {
	uid := "-"
	if schema != nil {
		uid = schema.UID
	}
	chain := make([]string, len(f.chain), len(f.chain)+1)
	copy(chain, f.chain)
	return frame{depth: f.depth + 1, chain: append(chain, uid)}
}

type action int

const (
	keep action = iota
	set
	remove
)

type outcome struct {
	action action
	value  query.Node
}

// Traverse walks n against opts.Schema and returns the transformed node.
// Neither n nor the schema is modified. Any error aborts the whole walk.
func (t *Traverser) Traverse(ctx context.Context, visitor Visitor, opts Options, n query.Node) (query.Node, error) {
	return t.walk(ctx, frame{}.enter(opts.Schema), visitor, opts, n)
}

func (t *Traverser) walk(ctx context.Context, f frame, visitor Visitor, opts Options, n query.Node) (query.Node, error) {
	if f.depth > t.maxDepth {
		return nil, &CyclicSchemaError{Path: opts.Path.Raw, Depth: t.maxDepth, Chain: f.chain}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if visitor == nil {
		visitor = Identity
	}
	if n == nil {
		return nil, nil
	}

	recurse := func(ctx context.Context, v Visitor, o Options, child query.Node) (query.Node, error) {
		return t.walk(ctx, f.enter(o.Schema), v, o, child)
	}

	for _, ic := range t.interceptors {
		if ic.match(n) {
			return ic.fn(ctx, visitor, opts, n, recurse)
		}
	}

	s, ok := t.strategies[n.Kind()]
	if !ok {
		switch n.Kind() {
		case query.KindWildcard, query.KindLiteral:
			return n, nil
		default:
			return nil, &ConfigurationError{Kind: n.Kind(), Path: opts.Path.Raw}
		}
	}

	work := s.Transform(n)
	keys := s.Keys(work)
	outcomes := make([]outcome, len(keys))

	if t.parallel && len(keys) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		for i, key := range keys {
			g.Go(func() error {
				o, err := t.visitKey(gctx, visitor, opts, s, work, key, recurse)
				outcomes[i] = o
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, key := range keys {
			o, err := t.visitKey(ctx, visitor, opts, s, work, key, recurse)
			if err != nil {
				return nil, err
			}
			outcomes[i] = o
		}
	}

	out := work
	for i, key := range keys {
		switch outcomes[i].action {
		case set:
			out = s.Set(key, outcomes[i].value, out)
		case remove:
			out = s.Remove(key, out)
		}
		if out == nil {
			return nil, nil
		}
	}
	return out, nil
}

// visitKey computes what happens to one key. It reads from work but never
// writes to it, so sibling keys can be evaluated concurrently.
func (t *Traverser) visitKey(ctx context.Context, visitor Visitor, opts Options, s Strategy, work query.Node, key string, recurse RecurseFunc) (outcome, error) {
	value, ok := s.Get(key, work)
	if !ok {
		return outcome{action: keep}, nil
	}

	attr := opts.Schema.Attribute(key)
	path := opts.Path.WithKey(key, attr != nil)
	log := t.log.WithFields(logrus.Fields{"path": path.Raw, "key": key})

	for _, ignored := range t.ignores {
		if ignored(key, attr) {
			log.Debug("ignored key")
			return outcome{action: remove}, nil
		}
	}

	hc := &HandlerContext{
		Visit: Visit{
			Key:       key,
			Value:     value,
			Attribute: attr,
			Schema:    opts.Schema,
			Path:      path,
			Data:      work,
		},
		Visitor: visitor,
	}

	visited, err := visitor(ctx, &hc.Visit)
	if err != nil {
		return outcome{}, err
	}
	if visited == nil {
		log.Debug("visitor removed key")
		return outcome{action: remove}, nil
	}
	hc.Value = visited

	var res query.Node
	if fn := t.handlerFor(key, attr); fn != nil {
		res, err = fn(ctx, hc, recurse)
	} else {
		res, err = recurse(ctx, visitor, Options{Schema: opts.Schema, Path: path}, visited)
	}
	if err != nil {
		return outcome{}, err
	}
	if res == nil {
		log.Debug("handler dropped key")
		return outcome{action: remove}, nil
	}
	return outcome{action: set, value: res}, nil
}

func (t *Traverser) handlerFor(key string, attr *api.Attribute) HandlerFunc {
	for _, kw := range t.keywords {
		if kw.match(key, attr) {
			return kw.fn
		}
	}
	if attr == nil {
		return nil
	}
	return t.kinds[attr.Kind()]
}
