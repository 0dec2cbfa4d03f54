// Package traverse walks populate query fragments against content-type
// schemas. A Traverser is configured with ordered rule lists (interceptors,
// parsing strategies, ignore predicates, keyword handlers and attribute-kind
// handlers) and applies them uniformly at every level of a fragment.
package traverse

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/agentic-research/populate/api"
	"github.com/agentic-research/populate/internal/query"
)

// DefaultMaxDepth bounds recursion when no WithMaxDepth option is given.
const DefaultMaxDepth = 64

// Options is the per-frame traversal context.
type Options struct {
	// Schema is the content type the current node is read against. It may be
	// nil, in which case no key resolves an attribute.
	Schema *api.ContentType
	Path   Path
}

// Visit describes one key of the node being walked.
type Visit struct {
	Key       string
	Value     query.Node
	Attribute *api.Attribute // nil when the key names no schema field
	Schema    *api.ContentType
	Path      Path       // already extended by Key
	Data      query.Node // the working parent node
}

// Visitor is called once per traversable key, before dispatch. It returns the
// value to continue with; returning nil removes the key. Visitors used with
// WithParallel must be safe for concurrent use.
type Visitor func(ctx context.Context, v *Visit) (query.Node, error)

// Identity keeps every value as is.
func Identity(_ context.Context, v *Visit) (query.Node, error) {
	return v.Value, nil
}

// RecurseFunc re-enters the traversal with a new schema/path pair.
type RecurseFunc func(ctx context.Context, visitor Visitor, opts Options, n query.Node) (query.Node, error)

// InterceptFunc fully owns the transformation of a node it matched.
type InterceptFunc func(ctx context.Context, visitor Visitor, opts Options, n query.Node, recurse RecurseFunc) (query.Node, error)

// HandlerContext is passed to keyword and attribute-kind handlers.
type HandlerContext struct {
	Visit
	Visitor Visitor
}

// HandlerFunc returns the transformed child. A nil result drops the key.
type HandlerFunc func(ctx context.Context, hc *HandlerContext, recurse RecurseFunc) (query.Node, error)

// Predicate matches a key and the attribute it resolved to (possibly nil).
type Predicate func(key string, attr *api.Attribute) bool

// Keyword matches a bare keyword: the key equals name and resolves no
// attribute.
func Keyword(name string) Predicate {
	return func(key string, attr *api.Attribute) bool {
		return attr == nil && key == name
	}
}

type interceptor struct {
	match func(query.Node) bool
	fn    InterceptFunc
}

type keywordHandler struct {
	match Predicate
	fn    HandlerFunc
}

// Traverser holds the rule lists. Build it once with New and the
// registration methods, then share it; Traverse does not modify it.
type Traverser struct {
	interceptors []interceptor
	strategies   map[query.Kind]Strategy
	ignores      []Predicate
	keywords     []keywordHandler
	kinds        map[api.AttributeKind]HandlerFunc

	maxDepth int
	parallel bool
	log      logrus.FieldLogger
}

// Option configures a Traverser.
type Option func(*Traverser)

// WithMaxDepth sets the recursion limit. Values below 1 keep the default.
func WithMaxDepth(n int) Option {
	return func(t *Traverser) {
		if n > 0 {
			t.maxDepth = n
		}
	}
}

// WithParallel evaluates sibling keys concurrently. Results are merged in key
// order, so the output is the same as in sequential mode.
func WithParallel(on bool) Option {
	return func(t *Traverser) { t.parallel = on }
}

// WithLogger sets the logger used for debug tracing of drop decisions.
func WithLogger(l logrus.FieldLogger) Option {
	return func(t *Traverser) {
		if l != nil {
			t.log = l
		}
	}
}

// New returns an empty Traverser. Without registered strategies it only
// passes leaves through.
func New(opts ...Option) *Traverser {
	t := &Traverser{
		strategies: make(map[query.Kind]Strategy),
		kinds:      make(map[api.AttributeKind]HandlerFunc),
		maxDepth:   DefaultMaxDepth,
		log:        logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Intercept appends an interceptor. Interceptors are tried in registration
// order before any strategy, and the first match owns the node.
func (t *Traverser) Intercept(match func(query.Node) bool, fn InterceptFunc) *Traverser {
	t.interceptors = append(t.interceptors, interceptor{match: match, fn: fn})
	return t
}

// Parse registers the strategy for a node kind, replacing any previous one.
func (t *Traverser) Parse(kind query.Kind, s Strategy) *Traverser {
	t.strategies[kind] = s
	return t
}

// Ignore appends an ignore predicate. Matching keys are removed without
// being visited.
func (t *Traverser) Ignore(p Predicate) *Traverser {
	t.ignores = append(t.ignores, p)
	return t
}

// On appends a keyword handler. Keyword handlers take precedence over
// attribute-kind handlers; among themselves the first match wins.
func (t *Traverser) On(p Predicate, fn HandlerFunc) *Traverser {
	t.keywords = append(t.keywords, keywordHandler{match: p, fn: fn})
	return t
}

// OnRelation registers the handler for relation attributes, polymorphic or not.
func (t *Traverser) OnRelation(fn HandlerFunc) *Traverser { return t.onKind(api.Relation, fn) }

// OnMedia registers the handler for media attributes.
func (t *Traverser) OnMedia(fn HandlerFunc) *Traverser { return t.onKind(api.Media, fn) }

// OnComponent registers the handler for component attributes.
func (t *Traverser) OnComponent(fn HandlerFunc) *Traverser { return t.onKind(api.Component, fn) }

// OnDynamicZone registers the handler for dynamic zone attributes.
func (t *Traverser) OnDynamicZone(fn HandlerFunc) *Traverser { return t.onKind(api.DynamicZone, fn) }

func (t *Traverser) onKind(k api.AttributeKind, fn HandlerFunc) *Traverser {
	t.kinds[k] = fn
	return t
}
