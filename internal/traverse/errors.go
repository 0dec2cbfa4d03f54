package traverse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agentic-research/populate/internal/query"
)

var (
	// ErrNoStrategy is matched by ConfigurationError.
	ErrNoStrategy = errors.New("no parsing strategy registered")
	// ErrCyclicSchema is matched by CyclicSchemaError.
	ErrCyclicSchema = errors.New("traversal depth limit exceeded")
)

// ConfigurationError means the traverser has no strategy for a structured
// node shape it was asked to walk.
type ConfigurationError struct {
	Kind query.Kind
	Path string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s for %s node at %q", ErrNoStrategy, e.Kind, e.Path)
}

func (e *ConfigurationError) Unwrap() error { return ErrNoStrategy }

// CyclicSchemaError is returned when recursion goes deeper than the
// configured limit, which in practice means a self-referencing schema graph
// or a self-referencing query value.
type CyclicSchemaError struct {
	Path  string
	Depth int
	// Chain lists the schema UID of every frame, outermost first. Frames
	// without a schema are recorded as "-".
	Chain []string
}

func (e *CyclicSchemaError) Error() string {
	return fmt.Sprintf("%s (%d) at %q via %s", ErrCyclicSchema, e.Depth, e.Path, strings.Join(e.Chain, " > "))
}

func (e *CyclicSchemaError) Unwrap() error { return ErrCyclicSchema }
