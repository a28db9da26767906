package memory

import (
	"context"
	"sync"
	"time"

	"catmenu/application/ports"
	"catmenu/domain/core/valueobjects"
	pkgerrors "catmenu/pkg/errors"
)

// KeyedLocker serializes work per menu inside a single process.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[valueobjects.MenuID]*menuLock
	wait  time.Duration
}

type menuLock struct {
	ch      chan struct{}
	waiters int
}

// NewKeyedLocker creates a new KeyedLocker. A positive wait bounds how long
// Lock waits for a busy menu; otherwise only ctx bounds it.
func NewKeyedLocker(wait time.Duration) *KeyedLocker {
	return &KeyedLocker{
		locks: make(map[valueobjects.MenuID]*menuLock),
		wait:  wait,
	}
}

// Lock implements ports.MenuLocker. It waits for the menu to become free, for
// the wait to elapse or for ctx to end; the last two yield a CONFLICT error.
func (l *KeyedLocker) Lock(ctx context.Context, menuID valueobjects.MenuID) (ports.UnlockFunc, error) {
	l.mu.Lock()
	ml, ok := l.locks[menuID]
	if !ok {
		ml = &menuLock{ch: make(chan struct{}, 1)}
		l.locks[menuID] = ml
	}
	ml.waiters++
	l.mu.Unlock()

	var timeout <-chan time.Time
	if l.wait > 0 {
		timer := time.NewTimer(l.wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case ml.ch <- struct{}{}:
	case <-timeout:
		l.release(menuID, ml)
		return nil, pkgerrors.NewConflictError("menu " + menuID.String() + " is being modified by another request")
	case <-ctx.Done():
		l.release(menuID, ml)
		return nil, pkgerrors.NewConflictError("menu " + menuID.String() + " is being modified by another request").WithCause(ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-ml.ch
			l.release(menuID, ml)
		})
	}, nil
}

// release drops a waiter and forgets the lock once nobody uses it
func (l *KeyedLocker) release(menuID valueobjects.MenuID, ml *menuLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ml.waiters--
	if ml.waiters == 0 {
		delete(l.locks, menuID)
	}
}
