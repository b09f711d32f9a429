package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RiBaSoOrg/BasketService/internal/domain"
)

// Registry errors.
var (
	// ErrTimedOut is returned by Await when no reply arrived before the deadline.
	ErrTimedOut = errors.New("catalog: lookup timed out")
	// ErrNotRegistered is returned by Await for a token that was never
	// registered or was already unregistered.
	ErrNotRegistered = errors.New("catalog: correlation token not registered")
)

// Result is the outcome carried by a catalog reply: either a resolved record
// or an explicit not-found answer.
type Result struct {
	Record   *domain.CatalogRecord
	NotFound bool
}

// Registry tracks in-flight catalog lookups by correlation token and bridges
// asynchronous replies to waiting callers. Each token owns a single-use,
// buffered wake channel so a waiting caller is suspended without polling and
// operations on distinct tokens never block one another; the token index is
// the only shared state.
type Registry struct {
	mu      sync.RWMutex
	pending map[string]chan Result
}

// NewRegistry creates an empty correlation registry.
func NewRegistry() *Registry {
	return &Registry{
		pending: make(map[string]chan Result),
	}
}

// Register generates a fresh correlation token and records it as unresolved.
// Safe to call concurrently from many in-flight lookups.
func (r *Registry) Register() string {
	token := uuid.New().String()
	ch := make(chan Result, 1)

	r.mu.Lock()
	r.pending[token] = ch
	r.mu.Unlock()

	pendingLookups.Inc()
	return token
}

// Resolve delivers a reply for the given token. Replies for unknown or
// already-unregistered tokens are silently discarded; a second reply for the
// same token is dropped (the first one wins).
func (r *Registry) Resolve(token string, res Result) {
	r.mu.RLock()
	ch, ok := r.pending[token]
	r.mu.RUnlock()

	if !ok {
		return
	}

	select {
	case ch <- res:
	default:
		// Duplicate reply; the buffered first reply stands.
	}
}

// Await blocks until the token is resolved, the timeout elapses, or the
// context is canceled. Callers must always Unregister the token afterwards,
// on every exit path.
func (r *Registry) Await(ctx context.Context, token string, timeout time.Duration) (Result, error) {
	r.mu.RLock()
	ch, ok := r.pending[token]
	r.mu.RUnlock()

	if !ok {
		return Result{}, ErrNotRegistered
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res, nil
	case <-timer.C:
		return Result{}, ErrTimedOut
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Unregister removes the token from the registry. Mandatory cleanup on every
// exit path of a lookup so the registry never grows unboundedly; calling it
// for an already-removed token is a no-op.
func (r *Registry) Unregister(token string) {
	r.mu.Lock()
	_, ok := r.pending[token]
	delete(r.pending, token)
	r.mu.Unlock()

	if ok {
		pendingLookups.Dec()
	}
}

// Len returns the number of in-flight lookups.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pending)
}
