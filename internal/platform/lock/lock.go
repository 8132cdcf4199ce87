// Package lock provides keyed mutual exclusion for read-check-write sequences
// against stores that have no transactions of their own.
package lock

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Locker acquires the lock for key, waiting until ctx is done. Further locks
// taken while this one is held must be requested with the returned context.
// The release func is safe to call more than once; nested locks are released
// before the lock that contains them.
type Locker interface {
	Lock(ctx context.Context, key string) (context.Context, func(), error)
}

type localEntry struct {
	sem  *semaphore.Weighted
	refs int
}

// Local serializes holders of the same key within one process. Different
// keys never block each other.
type Local struct {
	mu   sync.Mutex
	keys map[string]*localEntry
}

func NewLocal() *Local {
	return &Local{keys: map[string]*localEntry{}}
}

func (l *Local) Lock(ctx context.Context, key string) (context.Context, func(), error) {
	l.mu.Lock()
	entry, ok := l.keys[key]
	if !ok {
		entry = &localEntry{sem: semaphore.NewWeighted(1)}
		l.keys[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	if err := entry.sem.Acquire(ctx, 1); err != nil {
		l.forget(key, entry)
		return nil, nil, fmt.Errorf("lock %s: %w", key, err)
	}

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			entry.sem.Release(1)
			l.forget(key, entry)
		})
	}, nil
}

func (l *Local) forget(key string, entry *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.keys, key)
	}
}

// Len reports how many keys are currently tracked.
func (l *Local) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}
