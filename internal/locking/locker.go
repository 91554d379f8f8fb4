// Package locking provides a keyed in-process lock with bounded wait. It
// replaces the distributed slot lock the booking path would use in a
// multi-node deployment: the engine is single-process, so a shared flag per
// key plus a short polling interval is enough, but the wait is bounded so a
// stuck holder surfaces as a busy error instead of deadlocking all future
// bookings for that slot.
package locking

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrLockNotAcquired = errors.New("slot lock not acquired")

// Keyed hands out exclusive critical sections per string key.
type Keyed struct {
	mu   sync.Mutex
	held map[string]struct{}

	wait time.Duration
	poll time.Duration
}

func NewKeyed(wait, poll time.Duration) *Keyed {
	if wait <= 0 {
		wait = 2 * time.Second
	}
	if poll <= 0 {
		poll = 10 * time.Millisecond
	}
	return &Keyed{
		held: make(map[string]struct{}),
		wait: wait,
		poll: poll,
	}
}

// WithSlotLock runs fn while holding the lock for key. It polls at a fixed
// interval until the key is free, the wait budget is spent
// (ErrLockNotAcquired) or ctx is done. The lock is released on every path.
func (k *Keyed) WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	deadline := time.Now().Add(k.wait)

	for {
		if k.tryAcquire(key) {
			break
		}
		if time.Now().After(deadline) {
			return ErrLockNotAcquired
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(k.poll):
		}
	}

	defer k.release(key)

	return fn(ctx)
}

func (k *Keyed) tryAcquire(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, busy := k.held[key]; busy {
		return false
	}
	k.held[key] = struct{}{}
	return true
}

func (k *Keyed) release(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.held, key)
}
