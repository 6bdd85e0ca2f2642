package service

import "sync"

// keyedLocks hands out one mutex per key (client id or user id) so that two
// concurrent requests cannot interleave their load/mutate/save cycles.
// Callers that need both take the client lock first.
type keyedLocks struct {
	locks sync.Map // map[string]*sync.Mutex
}

// lockFor acquires the lock for key. Returns unlock func.
func (l *keyedLocks) lockFor(key string) func() {
	// fast path Load
	if v, ok := l.locks.Load(key); ok {
		m := v.(*sync.Mutex)
		m.Lock()
		return m.Unlock
	}

	// Otherwise create and store a new mutex (race-safe via LoadOrStore)
	actual, _ := l.locks.LoadOrStore(key, &sync.Mutex{})
	m := actual.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
