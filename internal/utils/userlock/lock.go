package userlock

import "sync"

// Registry hands out one mutex per user so that admission-check-then-mutate
// sequences for the same user are serialized while different users proceed in
// parallel. Locks are never removed; the per-user footprint is one mutex.
type Registry struct {
	locks sync.Map // userID -> *sync.Mutex
}

// NewRegistry creates an empty lock registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Lock acquires the mutex for userID and returns the unlock function.
//
//	unlock := locks.Lock(userID)
//	defer unlock()
func (r *Registry) Lock(userID string) func() {
	v, _ := r.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
