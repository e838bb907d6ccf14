package service

import "sync"

// trackingLocks serializes lifecycle operations per tracking number.
// Different tracking numbers proceed fully independently; entries are
// dropped once the last holder releases, so the map does not grow with
// the number of payments ever seen.
type trackingLocks struct {
	mu      sync.Mutex
	entries map[int64]*trackingLockEntry
}

type trackingLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newTrackingLocks() *trackingLocks {
	return &trackingLocks{entries: map[int64]*trackingLockEntry{}}
}

func (l *trackingLocks) lock(trackingNumber int64) (unlock func()) {
	l.mu.Lock()
	entry, ok := l.entries[trackingNumber]
	if !ok {
		entry = &trackingLockEntry{}
		l.entries[trackingNumber] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, trackingNumber)
		}
		l.mu.Unlock()
	}
}
