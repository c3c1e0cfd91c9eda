package runtime

import (
	"sort"
	"sync"
)

// Registry tracks the identifiers of live processes launched by one run. It is
// shared by every chain of the run; all operations serialize on a single
// mutex and never block beyond acquiring it.
type Registry struct {
	mu   sync.Mutex
	pids map[int]struct{}
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{pids: make(map[int]struct{})}
}

// Insert starts tracking pid. Inserting a tracked pid is a no-op.
func (r *Registry) Insert(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pids[pid] = struct{}{}
}

// Remove stops tracking pid. Removing an untracked pid is a no-op.
func (r *Registry) Remove(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pids, pid)
}

// Snapshot returns the tracked identifiers in ascending order. The result is a
// copy and may be iterated without holding the lock.
func (r *Registry) Snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Clear forgets every tracked identifier.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.pids)
}

// Drain returns the tracked identifiers and clears the registry under a single
// lock acquisition, so a pid inserted concurrently is either returned or left
// tracked for the next sweep.
func (r *Registry) Drain() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	pids := r.snapshotLocked()
	clear(r.pids)
	return pids
}

// Len returns the number of tracked identifiers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pids)
}

func (r *Registry) snapshotLocked() []int {
	pids := make([]int, 0, len(r.pids))
	for pid := range r.pids {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}
