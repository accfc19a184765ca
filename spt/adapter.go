package spt

import (
	"net/netip"

	"github.com/nereid-net/ospfd/lsdb"
)

// ProtocolDBSource adapts an *lsdb.ProtocolDB to AreaSource, the only
// place spt depends on lsdb: everything else in this package operates
// purely on the AreaDatabase/ASExternalDatabase interfaces so it can be
// unit-tested without a real database.
type ProtocolDBSource struct {
	DB *lsdb.ProtocolDB
}

func (s ProtocolDBSource) AreaIDs() []netip.Addr { return s.DB.AreaIDs() }

func (s ProtocolDBSource) AreaDatabase(areaID netip.Addr) (AreaDatabase, bool) {
	return s.DB.Area(areaID)
}

func (s ProtocolDBSource) ExternalRoutingCapable(areaID netip.Addr) bool {
	return s.DB.ExternalRoutingCapable(areaID)
}

func (s ProtocolDBSource) External() ASExternalDatabase { return s.DB.External() }
