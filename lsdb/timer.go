package lsdb

import (
	"time"

	"github.com/nereid-net/ospfd/lsa"
	"github.com/nereid-net/ospfd/sched"
)

// Timer is the per-LSA aging clock. It records the instant of creation and
// schedules a refresh action to fire after a caller-chosen delay (the
// time to MaxAge, or to LsRefreshTime for a self-originated entry; see
// Area.Insert); the current age is derived from elapsed wall-clock time
// rather than updated by any ticking loop.
type Timer struct {
	createdAt time.Time
	storedAge uint16
	handle    *sched.Handle
}

// NewTimer records now and schedules action to run after secondsToMaxAge.
// Cancel the returned Timer's handle before replacing or removing its LSA.
func NewTimer(storedAge uint16, secondsToMaxAge int64, action func()) *Timer {
	t := &Timer{
		createdAt: time.Now(),
		storedAge: storedAge,
	}
	if secondsToMaxAge < 0 {
		secondsToMaxAge = 0
	}
	t.handle = sched.After(time.Duration(secondsToMaxAge)*time.Second, action)
	return t
}

// Cancel aborts the scheduled refresh action.
func (t *Timer) Cancel() {
	t.handle.Cancel()
}

// CreatedAt returns the instant this timer (and its LSA entry) was created.
func (t *Timer) CreatedAt() time.Time {
	return t.createdAt
}

// Age returns a copy of header with LSAge set to the live-derived age:
// min(storedAge + elapsed seconds, MaxAge).
func (t *Timer) Age(header lsa.Header) lsa.Header {
	elapsed := int64(time.Since(t.createdAt).Seconds())
	age := int64(t.storedAge) + elapsed
	if age > int64(lsa.MaxAge) {
		age = int64(lsa.MaxAge)
	}
	header.LSAge = uint16(age)
	return header
}

// secondsToMaxAge is the scheduling delay for a freshly stored header:
// MaxAge minus its current stored age, clamped to zero.
func secondsToMaxAge(storedAge uint16) int64 {
	if storedAge >= lsa.MaxAge {
		return 0
	}
	return int64(lsa.MaxAge - storedAge)
}
