// Inter-area path processing, RFC 2328 §16.2-§16.3: Summary-LSAs
// (ls_type 3/4) found in an area are examined against that same area's
// table of area-internal paths to area border/boundary routers, producing
// AreaExternal entries. The backbone's table is not consulted to arbitrate
// between areas.
package spt

import (
	"net/netip"

	"github.com/nereid-net/ospfd/lsa"
)

// AddInterAreaPaths examines area's Summary-LSAs (ls_type 3 for
// networks, ls_type 4 for ASBRs) and inserts the AreaExternal paths they
// describe into table (RFC 2328 §16.2). abrCost
// looks up the cost to the advertising area border router; callers pass
// that same area's own BuildAreaInternalTable.RouterCost, since a
// Summary-LSA's cost is relative to the area it was found in. RFC 2328
// §16.2's additional backbone-preference tie-break for routers attached
// to more than one area is not modeled here.
//
// Summary-LSAs self-originated by this router, and any advertising a
// metric of LSInfinity (unreachable, RFC 2328 §12.4.3), are skipped.
func AddInterAreaPaths(table *Table, area AreaDatabase, areaID netip.Addr, selfRouterID netip.Addr, abrCost func(routerID netip.Addr) (uint32, bool)) {
	for _, h := range area.GetAllHeaders() {
		if h.LSType != lsa.TypeSummaryNet && h.LSType != lsa.TypeSummaryASBR {
			continue
		}
		if h.AdvertisingRouter == selfRouterID {
			continue
		}
		full, ok := area.Get(h.Key())
		if !ok {
			continue
		}
		body, ok := full.Body.(lsa.SummaryLSA)
		if !ok || body.Metric >= lsa.Infinity {
			continue
		}

		cost, ok := abrCost(h.AdvertisingRouter)
		if !ok {
			continue
		}
		total := addSaturating(cost, body.Metric)

		item := Item{
			AreaID:    areaID,
			PathType:  AreaExternal,
			Cost:      total,
			LsaOrigin: LsaOrigin{LSType: uint8(h.LSType), LinkStateID: h.LinkStateID, AdvertisingRouter: h.AdvertisingRouter},
			AdRouter:  h.AdvertisingRouter,
		}
		if h.LSType == lsa.TypeSummaryNet {
			item.DestType = DestNetwork
			item.DestID = h.LinkStateID
			item.AddrMask = body.NetMask
		} else {
			item.DestType = DestRouter
			item.DestID = h.LinkStateID
			item.ExternalCap = true
		}
		table.Insert(item)
	}
}
