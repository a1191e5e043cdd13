package shm

import "sync"

// MemoryTransactor keeps the shared region as an ordinary process-local
// value behind a mutex. No persistence, no cross-process visibility; it
// exists for tests and same-process simulation of the supervisor/worker
// pair.
type MemoryTransactor struct {
	mu   sync.Mutex
	data SharedMem
}

// NewMemoryChannel returns an AppChannel over a zeroed in-process region:
// all eight mailboxes start empty.
func NewMemoryChannel(opts ...Option) *AppChannel {
	return NewAppChannel(&MemoryTransactor{}, opts...)
}

// Transaction locks, runs f, unlocks.
func (t *MemoryTransactor) Transaction(f func(*SharedMem)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f(&t.data)
}

// Close is a no-op for the in-memory backend.
func (t *MemoryTransactor) Close() error {
	return nil
}
