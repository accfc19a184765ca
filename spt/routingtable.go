// Package spt computes the per-area shortest-path tree and the combined
// routing table (RFC 2328 §16): Dijkstra over Router/Network-LSAs,
// inter-area Summary-LSA paths, and AS-external Type-1/Type-2 path
// processing.
package spt

import "net/netip"

// DestType distinguishes a routing entry naming a transit network from
// one naming a router.
type DestType uint8

const (
	DestNetwork DestType = iota
	DestRouter
)

// PathType orders routing entries by RFC 2328 §16.4's four path
// categories, ascending from most to least preferred.
type PathType uint8

const (
	AreaInternal PathType = iota
	AreaExternal
	AsExternalT1
	AsExternalT2
)

// Less reports whether p is strictly preferred to o.
func (p PathType) Less(o PathType) bool { return p < o }

// Key uniquely identifies an Item: (dest_id, addr_mask).
type Key struct {
	DestID   netip.Addr
	AddrMask netip.Addr
}

// LsaOrigin names the LSA a routing entry was derived from, for
// diagnostics and for recomputation to detect which entries a given LSA
// change can affect.
type LsaOrigin struct {
	LSType            uint8
	LinkStateID       netip.Addr
	AdvertisingRouter netip.Addr
}

// Item is one routing table entry.
type Item struct {
	DestType    DestType
	DestID      netip.Addr
	AddrMask    netip.Addr
	ExternalCap bool
	AreaID      netip.Addr
	PathType    PathType
	Cost        uint32
	CostT2      uint32
	LsaOrigin   LsaOrigin
	NextHop     netip.Addr
	AdRouter    netip.Addr
}

// Key returns i's uniqueness key.
func (i Item) Key() Key { return Key{DestID: i.DestID, AddrMask: i.AddrMask} }

// Less reports whether i should be preferred to o when both name the
// same Key, RFC 2328 §16.4: path-type first, then cost, then cost_t2.
func (i Item) Less(o Item) bool {
	if i.PathType != o.PathType {
		return i.PathType.Less(o.PathType)
	}
	if i.Cost != o.Cost {
		return i.Cost < o.Cost
	}
	return i.CostT2 < o.CostT2
}

// Table is the final, merged routing table: one Item per Key, the best
// among however many candidates contributed to it.
type Table struct {
	items map[Key]Item
}

// NewTable constructs an empty Table.
func NewTable() *Table {
	return &Table{items: make(map[Key]Item)}
}

// Insert adds item, replacing any existing entry under the same Key only
// if item is preferred over it (or no entry exists yet).
func (t *Table) Insert(item Item) {
	key := item.Key()
	if existing, ok := t.items[key]; ok && !item.Less(existing) {
		return
	}
	t.items[key] = item
}

// Items returns every entry in the table. Order is unspecified.
func (t *Table) Items() []Item {
	out := make([]Item, 0, len(t.items))
	for _, item := range t.items {
		out = append(out, item)
	}
	return out
}

// Lookup returns the entry for key, if any.
func (t *Table) Lookup(key Key) (Item, bool) {
	item, ok := t.items[key]
	return item, ok
}

// RouterCost looks up the cost of the DestRouter entry naming routerID,
// whatever its PathType (an AreaInternal entry from Dijkstra, or an
// AreaExternal one from a type-4 Summary-LSA), the lookup AddInterAreaPaths and
// AddASExternalPaths use to resolve "cost to this ABR/ASBR", RFC 2328
// §16.2/§16.4.
func (t *Table) RouterCost(routerID netip.Addr) (uint32, bool) {
	item, ok := t.Lookup(Key{DestID: routerID})
	if !ok || item.DestType != DestRouter {
		return 0, false
	}
	return item.Cost, true
}
