package lsdb

import (
	"sync"

	"github.com/nereid-net/ospfd/lsa"
)

// entry pairs a stored LSA with the Timer deriving its live age.
type entry struct {
	lsa   lsa.Lsa
	timer *Timer
}

// ASExternalDB is the single process-wide database of AS-external LSAs,
// shared by every Area whose ExternalRoutingCapability is true and
// serialized by one mutex so concurrent Areas never race on it. It is an
// owned value reachable from ProtocolDB, not package-level state.
type ASExternalDB struct {
	mu      sync.Mutex
	entries map[lsa.Key]entry
}

// NewASExternalDB constructs an empty AS-external database.
func NewASExternalDB() *ASExternalDB {
	return &ASExternalDB{entries: make(map[lsa.Key]entry)}
}

// ExternalHeaders returns the live-aged headers of every stored
// AS-external LSA, excluding MaxAge entries. Exported for spt.Recompute,
// which treats the shared database as an spt.ASExternalDatabase.
func (db *ASExternalDB) ExternalHeaders() []lsa.Header {
	return db.headers()
}

// Get returns the stored Lsa for key with its header's age computed
// live. Exported for spt.Recompute, which treats the shared database as
// an spt.ASExternalDatabase.
func (db *ASExternalDB) Get(key lsa.Key) (lsa.Lsa, bool) {
	return db.get(key)
}

func (db *ASExternalDB) contains(key lsa.Key) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, ok := db.entries[key]
	return ok
}

func (db *ASExternalDB) get(key lsa.Key) (lsa.Lsa, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	e, ok := db.entries[key]
	if !ok {
		return lsa.Lsa{}, false
	}
	aged := e.lsa
	aged.Header = e.timer.Age(e.lsa.Header)
	return aged, true
}

func (db *ASExternalDB) headers() []lsa.Header {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]lsa.Header, 0, len(db.entries))
	for _, e := range db.entries {
		h := e.timer.Age(e.lsa.Header)
		if h.LSAge == lsa.MaxAge {
			continue
		}
		out = append(out, h)
	}
	return out
}

// insert stores value under key, cancelling any previous entry's refresh
// timer before the new one is scheduled. delaySeconds is the
// caller-computed scheduling delay (Area.refreshDelaySeconds), so a
// self-originated AS-external (ASBR) LSA gets the same LsRefreshTime
// treatment as a self-originated area-scoped one.
func (db *ASExternalDB) insert(key lsa.Key, value lsa.Lsa, refresh func(), delaySeconds int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if old, ok := db.entries[key]; ok {
		old.timer.Cancel()
	}
	db.entries[key] = entry{
		lsa:   value,
		timer: NewTimer(value.Header.LSAge, delaySeconds, refresh),
	}
}

// remove deletes key's entry, cancelling its refresh timer.
func (db *ASExternalDB) remove(key lsa.Key) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if e, ok := db.entries[key]; ok {
		e.timer.Cancel()
		delete(db.entries, key)
	}
}

// existingFor returns the current entry for key, if any, for the
// staleness/MinLSArrival checks insert must perform before mutating.
func (db *ASExternalDB) existingFor(key lsa.Key) (lsa.Lsa, *Timer, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	e, ok := db.entries[key]
	if !ok {
		return lsa.Lsa{}, nil, false
	}
	aged := e.lsa
	aged.Header = e.timer.Age(e.lsa.Header)
	return aged, e.timer, true
}
