package application

import (
	"slices"
	"sync"
)

// VenueLocks serializes mutations per venue. Every write that can change
// which slots a venue has taken holds the venue's lock from the moment it
// reads the current bookings until the write commits.
type VenueLocks struct {
	mu    sync.Mutex
	locks map[string]*venueLock
}

type venueLock struct {
	mu   sync.Mutex
	refs int
}

// NewVenueLocks returns an empty lock table.
func NewVenueLocks() *VenueLocks {
	return &VenueLocks{locks: make(map[string]*venueLock)}
}

// Lock acquires the locks for every distinct non-empty venue ID in sorted
// order and returns a function that releases them.
func (l *VenueLocks) Lock(venueIDs ...string) (unlock func()) {
	ids := make([]string, 0, len(venueIDs))
	for _, id := range venueIDs {
		if id != "" {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)

	held := make([]*venueLock, 0, len(ids))
	for _, id := range ids {
		lock := l.acquire(id)
		lock.mu.Lock()
		held = append(held, lock)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			l.release(ids[i])
		}
	}
}

func (l *VenueLocks) acquire(id string) *venueLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[id]
	if !ok {
		lock = &venueLock{}
		l.locks[id] = lock
	}
	lock.refs++
	return lock
}

func (l *VenueLocks) release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[id]
	if !ok {
		return
	}
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, id)
	}
}

func (l *VenueLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
