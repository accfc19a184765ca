package lsdb

import (
	"net/netip"
	"sync"

	"github.com/nereid-net/ospfd/lsa"
)

// ProtocolDB is the top-level database a running instance owns: a
// RouterID, one Area per configured area, and the single AS-external
// database shared across all of them. Lock ordering: ProtocolDB.mu guards
// only the Areas map itself (adding/removing an area); each Area and the
// shared ASExternalDB have their own locks and are never held while
// ProtocolDB.mu is held, so area lookups never block on LSDB mutation and
// vice versa.
type ProtocolDB struct {
	RouterID netip.Addr

	mu       sync.RWMutex
	areas    map[netip.Addr]*Area
	external *ASExternalDB
}

// NewProtocolDB constructs an empty database for routerID.
func NewProtocolDB(routerID netip.Addr) *ProtocolDB {
	return &ProtocolDB{
		RouterID: routerID,
		areas:    make(map[netip.Addr]*Area),
		external: NewASExternalDB(),
	}
}

// AddArea registers a new Area, constructing it with this database's
// shared AS-external store. Returns the existing Area unchanged if
// areaID is already registered.
func (p *ProtocolDB) AddArea(areaID netip.Addr, externalRoutingCapability bool, stubDefaultCost uint32) *Area {
	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.areas[areaID]; ok {
		return existing
	}
	area := NewArea(areaID, p.RouterID, p.external)
	area.ExternalRoutingCapability = externalRoutingCapability
	area.StubDefaultCost = stubDefaultCost
	p.areas[areaID] = area
	return area
}

// Area returns the Area registered for areaID, if any.
func (p *ProtocolDB) Area(areaID netip.Addr) (*Area, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	a, ok := p.areas[areaID]
	return a, ok
}

// Areas returns a snapshot slice of every registered Area. Order is
// unspecified.
func (p *ProtocolDB) Areas() []*Area {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Area, 0, len(p.areas))
	for _, a := range p.areas {
		out = append(out, a)
	}
	return out
}

// RemoveArea deregisters areaID. It does not flush that area's LSDB
// content; callers that need RFC 2328 §12.4's "area going away" handling
// drain the Area's entries via GetAllHeaders/Remove before calling this.
func (p *ProtocolDB) RemoveArea(areaID netip.Addr) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.areas, areaID)
}

// External returns the process-wide AS-external database shared by every
// registered Area. Exposed for components (spt) that
// operate on it independent of any single Area.
func (p *ProtocolDB) External() *ASExternalDB {
	return p.external
}

// AreaIDs returns the registered area IDs, for spt.Recompute iterating
// every configured area. Order is unspecified.
func (p *ProtocolDB) AreaIDs() []netip.Addr {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]netip.Addr, 0, len(p.areas))
	for id := range p.areas {
		out = append(out, id)
	}
	return out
}

// ExternalRoutingCapable reports whether areaID is registered and
// allows AS-external routes, for spt.Recompute's AS-external pass (the
// inter-area pass runs for every area regardless).
func (p *ProtocolDB) ExternalRoutingCapable(areaID netip.Addr) bool {
	area, ok := p.Area(areaID)
	return ok && area.ExternalRoutingCapability
}

// Lookup finds key in whichever database owns its type: the shared
// AS-external store for ls_type 5, or the named area's local map
// otherwise.
func (p *ProtocolDB) Lookup(areaID netip.Addr, key lsa.Key) (lsa.Lsa, bool) {
	if routesExternal(key) {
		return p.external.get(key)
	}
	area, ok := p.Area(areaID)
	if !ok {
		return lsa.Lsa{}, false
	}
	return area.Get(key)
}
