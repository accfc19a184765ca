// AS-external path processing, RFC 2328 §16.4: Type-5 LSAs are examined
// against the AS boundary routers reachable in the merged area-internal
// (+ inter-area) table, producing AsExternalT1/AsExternalT2 entries.
package spt

import (
	"net/netip"

	"github.com/nereid-net/ospfd/lsa"
)

// ASExternalDatabase is the read surface AddASExternalPaths needs from
// the shared AS-external LSA store, kept as an interface for the same
// import-cycle reason as AreaDatabase.
type ASExternalDatabase interface {
	ExternalHeaders() []lsa.Header
	Get(key lsa.Key) (lsa.Lsa, bool)
}

// AddASExternalPaths examines external's Type-5 LSAs and inserts the
// Type-1/Type-2 paths they describe into table (RFC 2328 §16.4).
// asbrCost looks up the best known cost to the
// advertising ASBR, ordinarily table.RouterCost after area-internal and
// inter-area processing have both run; an LSA whose ASBR is unreached is
// skipped. selfRouterID's own self-originated external LSAs are skipped.
//
// A non-zero ForwardingAddr in the LSA is recorded as-is on NextHop,
// matching RFC 2328 §16.4's forwarding-address indirection; resolving
// that address to a directly connected next hop is outside the LSDB/SPT
// view and is left to the caller installing routes.
func AddASExternalPaths(table *Table, external ASExternalDatabase, selfRouterID netip.Addr, asbrCost func(routerID netip.Addr) (uint32, bool)) {
	for _, h := range external.ExternalHeaders() {
		if h.AdvertisingRouter == selfRouterID {
			continue
		}
		full, ok := external.Get(h.Key())
		if !ok {
			continue
		}
		body, ok := full.Body.(lsa.ASExternalLSA)
		if !ok || body.Metric >= lsa.Infinity {
			continue
		}

		cost, ok := asbrCost(h.AdvertisingRouter)
		if !ok {
			continue
		}

		item := Item{
			DestType:  DestNetwork,
			DestID:    h.LinkStateID,
			AddrMask:  body.NetMask,
			LsaOrigin: LsaOrigin{LSType: uint8(lsa.TypeASExternal), LinkStateID: h.LinkStateID, AdvertisingRouter: h.AdvertisingRouter},
			AdRouter:  h.AdvertisingRouter,
			NextHop:   body.ForwardingAddr,
		}
		if body.Type2Metric {
			item.PathType = AsExternalT2
			item.Cost = cost
			item.CostT2 = body.Metric
		} else {
			item.PathType = AsExternalT1
			item.Cost = addSaturating(cost, body.Metric)
		}
		table.Insert(item)
	}
}
