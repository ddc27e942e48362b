// Package locker serializes operations per user.
package locker

import (
	"context"
	"errors"
	"sync"
)

// ErrLockTimeout is returned when a lock could not be taken within the wait budget.
var ErrLockTimeout = errors.New("locker: wait timeout")

// Locker hands out exclusive per-user locks. The returned unlock func is idempotent.
type Locker interface {
	Lock(ctx context.Context, userID int64) (func(), error)
}

type memEntry struct {
	ch   chan struct{}
	refs int
}

// Memory is an in-process Locker.
type Memory struct {
	mu      sync.Mutex
	entries map[int64]*memEntry
}

// NewMemory constructs an empty in-process locker.
func NewMemory() *Memory {
	return &Memory{entries: make(map[int64]*memEntry)}
}

// Lock blocks until the user's lock is free or ctx is done.
func (m *Memory) Lock(ctx context.Context, userID int64) (func(), error) {
	m.mu.Lock()
	e, ok := m.entries[userID]
	if !ok {
		e = &memEntry{ch: make(chan struct{}, 1)}
		m.entries[userID] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		m.release(userID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			m.release(userID, e)
		})
	}, nil
}

func (m *Memory) release(userID int64, e *memEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(m.entries, userID)
	}
}

// held reports the number of users with a pending or held lock.
func (m *Memory) held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
