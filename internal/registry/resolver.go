// Package registry provides content-type schemas to the traversal engine.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentic-research/populate/api"
)

// ErrUnknownSchema is matched by UnknownSchemaError.
var ErrUnknownSchema = errors.New("unknown content type")

// UnknownSchemaError reports a UID the registry cannot resolve. During a
// traversal it means the schema graph references a missing type.
type UnknownSchemaError struct {
	UID string
}

func (e *UnknownSchemaError) Error() string {
	return fmt.Sprintf("%s %q", ErrUnknownSchema, e.UID)
}

func (e *UnknownSchemaError) Unwrap() error { return ErrUnknownSchema }

// Resolver looks up content types by UID.
type Resolver interface {
	Resolve(ctx context.Context, uid string) (*api.ContentType, error)
}

// Catalog is a Resolver that can also enumerate what it holds.
type Catalog interface {
	Resolver
	UIDs(ctx context.Context) ([]string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, uid string) (*api.ContentType, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, uid string) (*api.ContentType, error) {
	return f(ctx, uid)
}
