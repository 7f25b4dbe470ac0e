package reminder

import (
	"iter"
	"strings"
	"sync"
)

// Channel is a registered delivery destination.
type Channel struct {
	ID   string
	Done bool
}

// Registry is the set of channels with their per-day done flag.
// Registration order is kept and used as delivery order.
//
// It is safe for concurrent use. Readers get copies, never live aliases.
type Registry struct {
	mu    sync.RWMutex
	order []string
	done  map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{done: map[string]bool{}}
}

// Add registers id. It returns false if id is empty or already registered.
func (r *Registry) Add(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.done[id]; ok {
		return false
	}
	r.done[id] = false
	r.order = append(r.order, id)
	return true
}

// Remove unregisters id. It returns false if id was not registered.
func (r *Registry) Remove(id string) bool {
	id = strings.TrimSpace(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.done[id]; !ok {
		return false
	}
	delete(r.done, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// MarkDone sets the done flag for id. Unknown ids are ignored (returns false):
// a completion signal can race with removal.
func (r *Registry) MarkDone(id string) bool {
	id = strings.TrimSpace(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.done[id]; !ok {
		return false
	}
	r.done[id] = true
	return true
}

// ResetAll clears every done flag.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	for id := range r.done {
		r.done[id] = false
	}
	r.mu.Unlock()
}

func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	_, ok := r.done[strings.TrimSpace(id)]
	r.mu.RUnlock()
	return ok
}

// Done reports the done flag of id; ok is false for unknown ids.
func (r *Registry) Done(id string) (done, ok bool) {
	r.mu.RLock()
	done, ok = r.done[strings.TrimSpace(id)]
	r.mu.RUnlock()
	return done, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	n := len(r.order)
	r.mu.RUnlock()
	return n
}

// List yields channel ids in registration order. Each iteration walks a
// fresh snapshot, so the sequence can be restarted and is unaffected by
// concurrent mutation.
func (r *Registry) List() iter.Seq[string] {
	return func(yield func(string) bool) {
		r.mu.RLock()
		ids := append([]string(nil), r.order...)
		r.mu.RUnlock()
		for _, id := range ids {
			if !yield(id) {
				return
			}
		}
	}
}

// Snapshot returns a copy of all channels in registration order.
func (r *Registry) Snapshot() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Channel, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, Channel{ID: id, Done: r.done[id]})
	}
	return out
}

// Load replaces the registry content. Duplicate and empty ids are dropped.
func (r *Registry) Load(chs []Channel) {
	order := make([]string, 0, len(chs))
	done := make(map[string]bool, len(chs))
	for _, c := range chs {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			continue
		}
		if _, dup := done[id]; dup {
			continue
		}
		done[id] = c.Done
		order = append(order, id)
	}
	r.mu.Lock()
	r.order = order
	r.done = done
	r.mu.Unlock()
}
