// Recompute ties BuildAreaInternalTable, AddInterAreaPaths and
// AddASExternalPaths together: run Dijkstra in every configured area,
// merge the results, then layer inter-area and AS-external paths on top.
package spt

import "net/netip"

// AreaSource is the subset of lsdb.ProtocolDB Recompute needs: the set
// of configured areas plus, for each, its database and whether it can
// see the AS-external LSA set. Kept as an interface for the same
// import-cycle reason as AreaDatabase.
type AreaSource interface {
	AreaIDs() []netip.Addr
	AreaDatabase(areaID netip.Addr) (AreaDatabase, bool)
	ExternalRoutingCapable(areaID netip.Addr) bool
	External() ASExternalDatabase
}

// Backbone is the well-known area ID 0.0.0.0, RFC 2328 §3.
var Backbone = netip.IPv4Unspecified()

// Recompute builds the full routing table for rootRouterID against src:
// an area-internal Dijkstra pass per area, an inter-area pass per area
// using that area's own internal costs to resolve ABR cost (RFC 2328
// §16.2), and one AS-external pass fed by whichever area is first found
// with ExternalRoutingCapability true (ordinarily the backbone), using
// the union of every area's DestRouter entries to resolve ASBR cost.
func Recompute(src AreaSource, rootRouterID netip.Addr) *Table {
	table := NewTable()
	perArea := make(map[netip.Addr]*Table)

	for _, areaID := range src.AreaIDs() {
		area, ok := src.AreaDatabase(areaID)
		if !ok {
			continue
		}
		items := BuildAreaInternalTable(area, areaID, rootRouterID)
		areaTable := NewTable()
		for _, item := range items {
			areaTable.Insert(item)
			table.Insert(item)
		}
		perArea[areaID] = areaTable
	}

	// Summary-LSA processing runs for every area: stub areas carry
	// Type-3 summaries and depend on them for all inter-area
	// reachability, RFC 2328 §16.2. Only the Type-5 pass below is gated
	// on external routing capability.
	for _, areaID := range src.AreaIDs() {
		area, ok := src.AreaDatabase(areaID)
		if !ok {
			continue
		}
		areaTable := perArea[areaID]
		if areaTable == nil {
			continue
		}
		AddInterAreaPaths(table, area, areaID, rootRouterID, areaTable.RouterCost)
	}

	for _, areaID := range src.AreaIDs() {
		if !src.ExternalRoutingCapable(areaID) {
			continue
		}
		AddASExternalPaths(table, src.External(), rootRouterID, table.RouterCost)
		break
	}

	return table
}
