package shell

import (
	"slices"
	"sync"
)

// Registry tracks the processes started by a Supervisor, keyed by pid. Each
// entry remembers the run that owns it so that a stale run never removes an
// entry for a recycled pid.
type Registry struct {
	mu    sync.Mutex
	procs map[int]string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{procs: make(map[int]string)}
}

// Insert tracks pid as owned by runID.
func (r *Registry) Insert(pid int, runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.procs[pid] = runID
}

// Remove stops tracking pid and reports whether it was tracked.
func (r *Registry) Remove(pid int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.procs[pid]; !ok {
		return false
	}
	delete(r.procs, pid)
	return true
}

// RemoveIf stops tracking pid only while it is still owned by runID.
func (r *Registry) RemoveIf(pid int, runID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, ok := r.procs[pid]; !ok || owner != runID {
		return false
	}
	delete(r.procs, pid)
	return true
}

// Contains reports whether pid is tracked.
func (r *Registry) Contains(pid int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.procs[pid]
	return ok
}

// RunID returns the run that owns pid.
func (r *Registry) RunID(pid int) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	runID, ok := r.procs[pid]
	return runID, ok
}

// PIDs returns the tracked pids in ascending order.
func (r *Registry) PIDs() []int {
	r.mu.Lock()
	pids := make([]int, 0, len(r.procs))
	for pid := range r.procs {
		pids = append(pids, pid)
	}
	r.mu.Unlock()

	slices.Sort(pids)
	return pids
}
