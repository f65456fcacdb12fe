package dispatcher

import (
	"sort"
	"sync"

	"github.com/LerianStudio/lib-events/events"
)

// registration pairs an observer with its health record and its registration
// sequence number, which keeps priority ties in registration order.
type registration struct {
	observer events.Observer
	metrics  *observerMetrics
	seq      uint64
}

// registry owns the identity-to-observer mapping. Structural changes are
// mutually exclusive with iteration; the health records themselves carry
// their own synchronization.
type registry struct {
	mu      sync.RWMutex
	entries map[string]*registration
	nextSeq uint64
}

func newRegistry() *registry {
	return &registry{entries: make(map[string]*registration)}
}

func (r *registry) add(observer events.Observer) (*registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := observer.ID()
	if _, exists := r.entries[id]; exists {
		return nil, ErrAlreadyRegistered
	}

	reg := &registration{
		observer: observer,
		metrics:  newObserverMetrics(id),
		seq:      r.nextSeq,
	}
	r.nextSeq++
	r.entries[id] = reg

	return reg, nil
}

func (r *registry) remove(id string) (*registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, exists := r.entries[id]
	if !exists {
		return nil, ErrNotFound
	}

	delete(r.entries, id)

	return reg, nil
}

func (r *registry) get(id string) (*registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, exists := r.entries[id]

	return reg, exists
}

func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

func (r *registry) countInterestedIn(eventType events.EventType) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0

	for _, reg := range r.entries {
		if reg.observer.InterestedIn(eventType) {
			count++
		}
	}

	return count
}

// eligible returns the registrations interested in eventType and currently
// healthy, in registration order.
func (r *registry) eligible(eventType events.EventType) []*registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	selected := make([]*registration, 0, len(r.entries))

	for _, reg := range r.entries {
		if reg.observer.InterestedIn(eventType) && reg.metrics.healthy() {
			selected = append(selected, reg)
		}
	}

	sortBySeq(selected)

	return selected
}

func (r *registry) snapshot() map[string]Metrics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Metrics, len(r.entries))
	for id, reg := range r.entries {
		out[id] = reg.metrics.snapshot()
	}

	return out
}

// sortBySeq restores registration order after map iteration, so the later
// stable priority sort keeps ties in registration order.
func sortBySeq(regs []*registration) {
	sort.Slice(regs, func(i, j int) bool { return regs[i].seq < regs[j].seq })
}
