// Package lsdb implements the hierarchical Link-State Database: per-area
// LSDBs plus one process-wide AS-external database, per-LSA aging timers,
// and the insert/get/remove operations with their MinLSArrival and
// RFC 2328 §13.1 ordering rules.
package lsdb

import (
	"net/netip"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/nereid-net/ospfd/internal/assert"
	"github.com/nereid-net/ospfd/internal/logging"
	"github.com/nereid-net/ospfd/lsa"
	"github.com/nereid-net/ospfd/sched"
)

// ErrTooSoon is returned by Insert when a replacement arrives within
// MinLSArrival seconds of the existing entry (RFC 2328 §13, step 5a).
var ErrTooSoon = errors.New("lsdb: LSA arrived within MinLSArrival")

// ErrStale is returned by Insert when the incoming header is not newer
// than the stored one.
var ErrStale = errors.New("lsdb: LSA is not newer than the stored copy")

// AddressRange is one entry of an Area's configured (prefix, mask)
// summarization ranges.
type AddressRange struct {
	Prefix    netip.Addr
	Mask      netip.Addr
	Advertise bool
}

// Area is a per-area LSDB plus its summarization configuration. No
// AS-external LSA is ever stored in the local map: type-5 LSAs live in the
// shared external database, reached through Area only when
// ExternalRoutingCapability is true. Every stored entry has a live Timer
// scheduled to fire at created_at + (MaxAge - stored_age), or at
// created_at + (LsRefreshTime - stored_age) for a self-originated entry.
type Area struct {
	AreaID                    netip.Addr
	AddressRanges             []AddressRange
	TransitCapability         bool
	ExternalRoutingCapability bool
	StubDefaultCost           uint32

	routerID netip.Addr
	external *ASExternalDB
	log      *logging.Logger

	// refreshGroup collapses a concurrent refresh-firing and an
	// in-flight Insert on the same Key into one winner: a neighbor's LS
	// Update racing a locally-firing refresh timer for the same Key must
	// not let the loser observe (or store over) a partially-replaced
	// entry.
	refreshGroup sched.Group

	hookMu   sync.RWMutex
	onAccept func(value lsa.Lsa, arrivalInterface string)

	mu      sync.RWMutex
	entries map[lsa.Key]entry
}

// NewArea constructs an empty Area sharing external with the rest of the
// ProtocolDB.
func NewArea(areaID, routerID netip.Addr, external *ASExternalDB) *Area {
	return &Area{
		AreaID:   areaID,
		routerID: routerID,
		external: external,
		log:      logging.Root().With(logging.Fields{"area": areaID.String()}),
		entries:  make(map[lsa.Key]entry),
	}
}

// routesExternal reports whether key should be looked up/stored in the
// shared AS-external database rather than this Area's local map: type-5
// LSAs are never area-scoped.
func routesExternal(key lsa.Key) bool {
	return key.Type == lsa.TypeASExternal
}

// Contains reports whether key is present: the local map first, falling
// through to the shared AS-external database only when
// ExternalRoutingCapability is true. A stub area never
// observes an AS-external key, even one held by the shared database on
// behalf of another area.
func (a *Area) Contains(key lsa.Key) bool {
	if routesExternal(key) {
		return a.ExternalRoutingCapability && a.external.contains(key)
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.entries[key]
	return ok
}

// Get returns the stored Lsa for key with its header's age computed live.
// Same local-map-then-external precedence as Contains; a
// stub area's Get on an AS-external key always misses.
func (a *Area) Get(key lsa.Key) (lsa.Lsa, bool) {
	if routesExternal(key) {
		if !a.ExternalRoutingCapability {
			return lsa.Lsa{}, false
		}
		return a.external.get(key)
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	e, ok := a.entries[key]
	if !ok {
		return lsa.Lsa{}, false
	}
	aged := e.lsa
	aged.Header = e.timer.Age(e.lsa.Header)
	return aged, true
}

// GetAllHeaders returns the live-aged headers of every LSA in this Area's
// local database, excluding entries that have reached MaxAge (they are
// awaiting flush, not valid database content). AS-external headers are not
// included; callers that need them combine this with ExternalHeaders when
// ExternalRoutingCapability is true.
func (a *Area) GetAllHeaders() []lsa.Header {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]lsa.Header, 0, len(a.entries))
	for _, e := range a.entries {
		h := e.timer.Age(e.lsa.Header)
		if h.LSAge == lsa.MaxAge {
			continue
		}
		out = append(out, h)
	}
	return out
}

// ExternalHeaders returns the shared AS-external database's live-aged
// headers. Call only when ExternalRoutingCapability is true; a stub area
// has no business flooding these.
func (a *Area) ExternalHeaders() []lsa.Header {
	return a.external.headers()
}

// Insert stores value, applying this precedence:
//  1. if an existing entry with the same Key is present and the incoming
//     header arrived within MinLSArrival seconds of it, reject with
//     ErrTooSoon;
//  2. if the incoming header is not strictly Newer than the existing one,
//     reject with ErrStale;
//  3. otherwise cancel the old entry's refresh timer and store the new
//     one, scheduling a fresh Timer.
//
// onExpire is the action to run when the new entry's age reaches MaxAge.
// Insert ignores onExpire for an LSA this router originates
// (IsSelfOriginated): those are rescheduled at LsRefreshTime instead, via
// RefreshSelfOriginated. On success, value is handed to the flood hook
// registered with SetFloodHook along with arrivalInterface (split horizon:
// the interface a network-received LSA arrived on is excluded when
// reflooding); pass "" for a locally originated or refreshed LSA, which
// has no arrival interface to exclude.
func (a *Area) Insert(value lsa.Lsa, onExpire func(), arrivalInterface string) error {
	key := value.Key()
	err := a.refreshGroup.Do(key.String(), func() error {
		if routesExternal(key) {
			return a.insertExternalLocked(value, onExpire)
		}
		return a.insertLocalLocked(value, onExpire)
	})
	if err == nil {
		a.notifyAccepted(value, arrivalInterface)
	}
	return err
}

func (a *Area) insertLocalLocked(value lsa.Lsa, onExpire func()) error {
	key := value.Key()
	a.mu.Lock()
	defer a.mu.Unlock()

	if old, ok := a.entries[key]; ok {
		if tooSoon(old.timer.CreatedAt()) {
			return ErrTooSoon
		}
		oldAged := old.lsa
		oldAged.Header = old.timer.Age(old.lsa.Header)
		if lsa.Compare(value.Header, oldAged.Header) != lsa.Newer {
			return ErrStale
		}
		old.timer.Cancel()
	}

	selfOriginated := a.IsSelfOriginated(key)
	action := onExpire
	if selfOriginated {
		action = a.refreshAction(key)
	}
	a.entries[key] = entry{
		lsa:   value,
		timer: NewTimer(value.Header.LSAge, refreshDelaySeconds(selfOriginated, value.Header.LSAge), action),
	}
	return nil
}

func (a *Area) insertExternalLocked(value lsa.Lsa, onExpire func()) error {
	key := value.Key()
	assert.Assert(a.ExternalRoutingCapability, "lsdb: AS-external LSA %s routed into stub area %s", key, a.AreaID)
	if existing, timer, ok := a.external.existingFor(key); ok {
		if tooSoon(timer.CreatedAt()) {
			return ErrTooSoon
		}
		if lsa.Compare(value.Header, existing.Header) != lsa.Newer {
			return ErrStale
		}
	}
	selfOriginated := a.IsSelfOriginated(key)
	action := onExpire
	if selfOriginated {
		action = a.refreshAction(key)
	}
	a.external.insert(key, value, action, refreshDelaySeconds(selfOriginated, value.Header.LSAge))
	return nil
}

// SetFloodHook registers the callback Insert invokes, outside any Area
// lock, after it successfully stores a newer LSA: the callback propagates
// value to this area's neighbors, excluding arrivalInterface (empty for a
// locally originated LSA). Area has no notion of interfaces or neighbors
// itself; the orchestration layer that owns both the LSDB and the
// Interface/Neighbor tables supplies the hook.
func (a *Area) SetFloodHook(hook func(value lsa.Lsa, arrivalInterface string)) {
	a.hookMu.Lock()
	defer a.hookMu.Unlock()
	a.onAccept = hook
}

func (a *Area) notifyAccepted(value lsa.Lsa, arrivalInterface string) {
	a.hookMu.RLock()
	hook := a.onAccept
	a.hookMu.RUnlock()
	if hook != nil {
		hook(value, arrivalInterface)
	}
}

// tooSoon reports whether less than MinLSArrival seconds have elapsed
// since createdAt (RFC 2328 §13, step 5a).
func tooSoon(createdAt time.Time) bool {
	return time.Since(createdAt) < time.Duration(lsa.MinLSArrival)*time.Second
}

// Remove deletes key's entry, cancelling its refresh timer.
// A stub area's Remove on an AS-external key is a no-op: it never owned
// that entry in the first place.
func (a *Area) Remove(key lsa.Key) {
	if routesExternal(key) {
		if a.ExternalRoutingCapability {
			a.external.remove(key)
		}
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if e, ok := a.entries[key]; ok {
		e.timer.Cancel()
		delete(a.entries, key)
	}
}

// IsSelfOriginated reports whether key names an LSA this router
// originates: the advertising router equals this router's ID.
func (a *Area) IsSelfOriginated(key lsa.Key) bool {
	return key.AdvertisingRouter == a.routerID
}

// refreshAction builds the Timer action Insert schedules for a
// self-originated entry: when it fires (at LsRefreshTime, not MaxAge;
// see refreshDelaySeconds), re-originate key via RefreshSelfOriginated.
// Insert re-derives this same closure on every re-origination, so each
// cycle arms the next one.
func (a *Area) refreshAction(key lsa.Key) func() {
	return func() { a.RefreshSelfOriginated(key) }
}

// refreshDelaySeconds picks the scheduling delay for a freshly stored
// header's Timer: self-originated entries refresh at LsRefreshTime, before
// MaxAge, so this router keeps its own LSAs from ever expiring; every
// other entry schedules its flush at MaxAge.
func refreshDelaySeconds(selfOriginated bool, age uint16) int64 {
	if !selfOriginated {
		return secondsToMaxAge(age)
	}
	if uint32(age) >= uint32(lsa.LsRefreshTime) {
		return 0
	}
	return int64(lsa.LsRefreshTime) - int64(age)
}

// RefreshSelfOriginated re-originates key: increments LSSequenceNumber,
// resets LSAge to zero and re-inserts, which cancels the existing Timer
// and, via Insert's self-origination check, arms a fresh one at
// LsRefreshTime. Called by the Timer action refreshAction schedules, and
// safe to call directly; a key with no stored entry is left alone.
func (a *Area) RefreshSelfOriginated(key lsa.Key) {
	current, ok := a.Get(key)
	if !ok {
		return
	}
	if current.Header.LSSequenceNumber == lsa.MaxSequenceNumber {
		a.log.Warnf("self-originated LSA %s hit MaxSequenceNumber, flushing instead of refreshing", key)
		a.flushSelfOriginated(key)
		return
	}

	current.Header.LSSequenceNumber++
	current.Header.LSAge = 0

	if err := a.Insert(current, func() {}, ""); err != nil {
		a.log.Warnf("refresh of self-originated LSA %s failed: %v", key, err)
	}
}

// flushSelfOriginated sets an entry's age to MaxAge and reinserts it so
// flooding carries the premature-aging flush on, RFC 2328 §14.1.
func (a *Area) flushSelfOriginated(key lsa.Key) {
	current, ok := a.Get(key)
	if !ok {
		return
	}
	current.Header.LSAge = lsa.MaxAge
	if routesExternal(key) {
		a.external.insert(key, current, func() {}, 0)
		a.notifyAccepted(current, "")
		return
	}
	a.mu.Lock()
	if old, ok := a.entries[key]; ok {
		old.timer.Cancel()
	}
	a.entries[key] = entry{lsa: current, timer: NewTimer(lsa.MaxAge, 0, func() {})}
	a.mu.Unlock()
	a.notifyAccepted(current, "")
}
