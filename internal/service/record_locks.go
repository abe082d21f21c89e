package service

import "sync"

// recordLocks hands out one mutex per record id. Entries are dropped once no
// goroutine holds or waits on them.
type recordLocks struct {
	mu    sync.Mutex
	locks map[string]*recordLock
}

type recordLock struct {
	mu   sync.Mutex
	refs int
}

func newRecordLocks() *recordLocks {
	return &recordLocks{locks: make(map[string]*recordLock)}
}

// Lock blocks until the record's mutex is held and returns its release func.
func (l *recordLocks) Lock(recordID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[recordID]
	if !ok {
		lock = &recordLock{}
		l.locks[recordID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, recordID)
		}
		l.mu.Unlock()
	}
}

func (l *recordLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
