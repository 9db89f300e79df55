// Package lock serializes import runs. Two runs touching the same debtors
// would race on the stores' read-then-write merge, so callers take a lock
// before starting one.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrLocked is returned when another import already holds the lock.
var ErrLocked = errors.New("an import is already running")

// Locker grants exclusive access to run an import. TryLock never waits: it
// either returns a release func or ErrLocked.
type Locker interface {
	TryLock(ctx context.Context) (release func(), err error)
}

// Local is a Locker for a single process.
type Local struct {
	mu sync.Mutex
}

// NewLocal creates a process-local Locker
func NewLocal() *Local {
	return &Local{}
}

// TryLock acquires the lock if it is free
func (l *Local) TryLock(_ context.Context) (func(), error) {
	if !l.mu.TryLock() {
		return nil, ErrLocked
	}
	var once sync.Once
	return func() { once.Do(l.mu.Unlock) }, nil
}
