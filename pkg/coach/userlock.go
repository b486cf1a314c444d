package coach

import "sync"

// userLocks serializes message handling per user, so two rapid messages
// from the same user never interleave their state reads and writes.
// Different users proceed in parallel.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire returns the lock for a user, creating it on first use, and
// locks it. The caller must call the returned unlock function.
func (ul *userLocks) acquire(userID string) func() {
	ul.mu.Lock()
	lock, ok := ul.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		ul.locks[userID] = lock
	}
	ul.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
