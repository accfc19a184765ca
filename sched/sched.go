// Package sched implements cancellable timer tasks: every Hello, Wait,
// Inactivity, Retransmit and LSA-refresh timer is a task whose owner holds
// a Handle and can cancel it. Shared by every package that owns timers
// (iface, neighbor, lsdb) so none re-derives its own scheduling.
package sched

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nereid-net/ospfd/internal/logging"
)

// Handle is a cancellable scheduled task. Cancel is idempotent and safe to
// call after the task has already fired.
type Handle struct {
	timer *time.Timer
	once  sync.Once
}

// Cancel aborts the task if it has not yet fired. This is how an
// Interface reset and LSA replacement abort a stale timer before
// scheduling a new one.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		h.timer.Stop()
	})
}

// After schedules action to run after d, isolating it from panics so a
// failing action cannot take down an unrelated goroutine or poison a lock
// held by the caller.
func After(d time.Duration, action func()) *Handle {
	h := &Handle{}
	h.timer = time.AfterFunc(d, func() {
		defer func() {
			if r := recover(); r != nil {
				logging.Root().Warnf("sched: scheduled task panicked: %v", r)
			}
		}()
		action()
	})
	return h
}

// Group collapses concurrent calls that share a key into one in-flight
// call, used to prevent an LSA refresh firing concurrently with an insert
// on the same key from observing a partially-replaced entry.
type Group struct {
	sf singleflight.Group
}

// Do runs fn, or waits for and shares the result of an in-flight call
// already running under key.
func (g *Group) Do(key string, fn func() error) error {
	_, err, _ := g.sf.Do(key, func() (any, error) {
		return nil, fn()
	})
	return err
}
