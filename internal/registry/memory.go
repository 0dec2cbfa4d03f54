package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/agentic-research/populate/api"
)

// MemoryRegistry is an in-memory Catalog, safe for concurrent use.
type MemoryRegistry struct {
	mu    sync.RWMutex
	types map[string]*api.ContentType
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		types: make(map[string]*api.ContentType),
	}
}

// Register adds a content type. UIDs must be unique.
func (r *MemoryRegistry) Register(ct *api.ContentType) error {
	if ct == nil {
		return fmt.Errorf("cannot register nil content type")
	}
	if ct.UID == "" {
		return fmt.Errorf("content type must have a uid")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[ct.UID]; exists {
		return fmt.Errorf("content type %q already registered", ct.UID)
	}
	r.types[ct.UID] = ct
	return nil
}

// Resolve implements Resolver.
func (r *MemoryRegistry) Resolve(_ context.Context, uid string) (*api.ContentType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ct, ok := r.types[uid]
	if !ok {
		return nil, &UnknownSchemaError{UID: uid}
	}
	return ct, nil
}

// UIDs implements Catalog. The result is sorted.
func (r *MemoryRegistry) UIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	uids := make([]string, 0, len(r.types))
	for uid := range r.types {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids, nil
}

// Len returns the number of registered content types.
func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}
