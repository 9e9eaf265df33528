// internal/checkout/registry.go
package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultFlowTTL = 30 * time.Minute

// Registry holds the open flows of the process. Each flow owns its own state;
// the registry only maps ids to flows and evicts idle or closed ones.
type Registry struct {
	flows map[uuid.UUID]*Flow
	mtx   sync.RWMutex
	ttl   time.Duration
}

func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultFlowTTL
	}
	return &Registry{
		flows: make(map[uuid.UUID]*Flow),
		ttl:   ttl,
	}
}

// Add stores the flow and drops it once its completion event fires.
func (r *Registry) Add(flow *Flow) {
	r.mtx.Lock()
	r.flows[flow.ID()] = flow
	r.mtx.Unlock()

	flow.OnComplete(func(Completion) {
		r.Remove(flow.ID())
	})
}

// Get returns the flow only to the buyer who opened it.
func (r *Registry) Get(id, owner uuid.UUID) (*Flow, error) {
	r.mtx.RLock()
	flow, exists := r.flows[id]
	r.mtx.RUnlock()

	if !exists {
		return nil, ErrFlowNotFound
	}
	if flow.Owner() != owner {
		return nil, ErrFlowForbidden
	}
	return flow, nil
}

func (r *Registry) Remove(id uuid.UUID) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	delete(r.flows, id)
}

func (r *Registry) Len() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return len(r.flows)
}

// Sweep evicts closed flows and flows idle longer than the TTL. Flows with a
// submission in flight are kept.
func (r *Registry) Sweep(now time.Time) int {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	removed := 0
	for id, flow := range r.flows {
		view := flow.View()
		if view.Submitting {
			continue
		}
		if view.Closed || now.Sub(view.UpdatedAt) > r.ttl {
			delete(r.flows, id)
			removed++
		}
	}
	return removed
}

// Run sweeps on every tick until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}
