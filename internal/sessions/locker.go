package sessions

import (
	"context"
	"errors"
	"time"
)

// Locker provides a process-safe session lock interface. The gateway runs as
// a single process per deployment (see the concurrency model), so the only
// implementation needed is an in-memory per-session mutex.
type Locker interface {
	Lock(ctx context.Context, sessionID string) error
	Unlock(sessionID string)
}

// LocalLocker wraps SessionLocker with a context-aware interface.
type LocalLocker struct {
	inner *SessionLocker
}

// NewLocalLocker creates a LocalLocker using the default timeout.
func NewLocalLocker(timeout time.Duration) *LocalLocker {
	return &LocalLocker{inner: NewSessionLocker(timeout)}
}

// Lock acquires a local lock using the provided context.
func (l *LocalLocker) Lock(ctx context.Context, sessionID string) error {
	if l == nil || l.inner == nil {
		return errors.New("session locker unavailable")
	}
	return l.inner.LockWithContext(ctx, sessionID)
}

// Unlock releases the local lock.
func (l *LocalLocker) Unlock(sessionID string) {
	if l == nil || l.inner == nil {
		return
	}
	l.inner.Unlock(sessionID)
}
