// Package populate configures the generic traverser for populate directives:
// which relations, media, components and dynamic zones a query pulls in.
//
// The rules, in priority order:
//
//   - an array of path strings is traversed element by element;
//   - "*" is kept as is;
//   - dotted strings and mappings are walked key by key;
//   - sort, filters and fields are dropped unless they name a real field;
//   - the bare keywords populate and on recurse in place, or fan out per
//     polymorphic target;
//   - relation, media, component and dynamic zone fields descend into the
//     schema they point at.
package populate

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/agentic-research/populate/internal/query"
	"github.com/agentic-research/populate/internal/registry"
	"github.com/agentic-research/populate/internal/traverse"
)

// MediaUID is the content type every media attribute points at.
const MediaUID = "plugin::upload.file"

// Populator walks populate fragments against schemas from a Resolver.
type Populator struct {
	resolver registry.Resolver
	mediaUID string
	log      logrus.FieldLogger
	t        *traverse.Traverser
}

type config struct {
	mediaUID string
	log      logrus.FieldLogger
	topts    []traverse.Option
}

// Option configures a Populator.
type Option func(*config)

// WithMediaUID overrides the media content type UID.
func WithMediaUID(uid string) Option {
	return func(c *config) {
		if uid != "" {
			c.mediaUID = uid
		}
	}
}

// WithLogger sets the logger for both the populator and its traverser.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTraverseOptions passes options such as the depth limit to the
// underlying traverser.
func WithTraverseOptions(opts ...traverse.Option) Option {
	return func(c *config) { c.topts = append(c.topts, opts...) }
}

func New(resolver registry.Resolver, opts ...Option) *Populator {
	cfg := config{mediaUID: MediaUID, log: logrus.StandardLogger()}
	for _, o := range opts {
		o(&cfg)
	}

	p := &Populator{resolver: resolver, mediaUID: cfg.mediaUID, log: cfg.log}
	topts := append([]traverse.Option{traverse.WithLogger(cfg.log)}, cfg.topts...)
	p.t = traverse.New(topts...).
		Intercept(isPathList, p.traversePathList).
		Intercept(isWildcard, keepWildcard).
		Parse(query.KindPath, traverse.PathStrategy{}).
		Parse(query.KindMapping, traverse.MappingStrategy{}).
		Ignore(isQueryModifier).
		On(traverse.Keyword("populate"), p.onPopulate).
		On(traverse.Keyword("on"), p.onMorphFragment).
		OnRelation(p.onRelation).
		OnMedia(p.onMedia).
		OnComponent(p.onComponent).
		OnDynamicZone(p.onDynamicZone)
	return p
}

// MediaUID returns the media content type UID in use.
func (p *Populator) MediaUID() string {
	return p.mediaUID
}

// Traverse walks n starting at opts.Schema. A nil visitor keeps every value.
func (p *Populator) Traverse(ctx context.Context, visitor traverse.Visitor, opts traverse.Options, n query.Node) (query.Node, error) {
	return p.t.Traverse(ctx, visitor, opts, n)
}

// TraverseUID resolves uid and walks n from the top of that content type.
func (p *Populator) TraverseUID(ctx context.Context, visitor traverse.Visitor, uid string, n query.Node) (query.Node, error) {
	schema, err := p.resolver.Resolve(ctx, uid)
	if err != nil {
		return nil, err
	}
	return p.Traverse(ctx, visitor, traverse.Options{Schema: schema}, n)
}
