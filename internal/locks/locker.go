// Package locks serializes check-then-act sequences per key.
package locks

import (
	"context"

	"github.com/EagleChen/mapmutex"
)

// Locker acquires an exclusive lock for key until the returned unlock is called.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LocalLocker serializes callers inside one process.
type LocalLocker struct {
	mu *mapmutex.Mutex
}

func NewLocalLocker() *LocalLocker {
	// One TryLock round backs off from 1µs by 1.5x over 20 tries (~7ms) before
	// the context is checked again.
	return &LocalLocker{mu: mapmutex.NewCustomizedMapMutex(20, 10000000, 1000, 1.5, 0.2)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	for {
		if l.mu.TryLock(key) {
			return func() { l.mu.Unlock(key) }, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}
