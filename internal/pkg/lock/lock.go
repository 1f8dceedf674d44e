// Package lock provides per-user mutual exclusion so that two updates for
// the same user never interleave their read-modify-write of the user record.
package lock

import (
	"context"
	"errors"
	"sync"
)

// userMutex is a one-slot semaphore with a count of goroutines holding or
// waiting for it. The entry is dropped once nobody references it.
type userMutex struct {
	sem  chan struct{}
	refs int
}

// UserLock hands out one lock per user ID. Entries only live while in use,
// so memory stays proportional to concurrent users, not to all users seen.
type UserLock struct {
	mu    sync.Mutex
	locks map[int64]*userMutex
}

// NewUserLock creates a new UserLock instance.
func NewUserLock() *UserLock {
	return &UserLock{locks: make(map[int64]*userMutex)}
}

// acquireRef returns the user's mutex with its reference count bumped.
func (ul *UserLock) acquireRef(userID int64) *userMutex {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	m, ok := ul.locks[userID]
	if !ok {
		m = &userMutex{sem: make(chan struct{}, 1)}
		ul.locks[userID] = m
	}
	m.refs++
	return m
}

func (ul *UserLock) releaseRef(userID int64, m *userMutex) {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	m.refs--
	if m.refs == 0 {
		delete(ul.locks, userID)
	}
}

// lock waits for the user's lock until ctx is done.
func (ul *UserLock) lock(ctx context.Context, userID int64) error {
	m := ul.acquireRef(userID)
	select {
	case m.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		ul.releaseRef(userID, m)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrLockTimeout
		}
		return ctx.Err()
	}
}

// unlock releases the lock for a user. Unlocking a user that is not locked
// is a no-op.
func (ul *UserLock) unlock(userID int64) {
	ul.mu.Lock()
	m, ok := ul.locks[userID]
	ul.mu.Unlock()
	if !ok {
		return
	}

	select {
	case <-m.sem:
		ul.releaseRef(userID, m)
	default:
	}
}

// WithLockContext executes fn while holding the user's lock. It returns
// ErrLockTimeout when ctx's deadline passes before the lock is free, and
// fn is not called.
func (ul *UserLock) WithLockContext(ctx context.Context, userID int64, fn func() error) error {
	if err := ul.lock(ctx, userID); err != nil {
		return err
	}
	defer ul.unlock(userID)
	return fn()
}
