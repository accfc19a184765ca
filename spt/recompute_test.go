package spt

import (
	"net/netip"
	"testing"

	"github.com/nereid-net/ospfd/lsa"
)

type fakeSource struct {
	areas    map[netip.Addr]*fakeArea
	extCap   map[netip.Addr]bool
	external *fakeExternal
}

func (s *fakeSource) AreaIDs() []netip.Addr {
	out := make([]netip.Addr, 0, len(s.areas))
	for id := range s.areas {
		out = append(out, id)
	}
	return out
}

func (s *fakeSource) AreaDatabase(areaID netip.Addr) (AreaDatabase, bool) {
	a, ok := s.areas[areaID]
	return a, ok
}

func (s *fakeSource) ExternalRoutingCapable(areaID netip.Addr) bool {
	return s.extCap[areaID]
}

func (s *fakeSource) External() ASExternalDatabase { return s.external }

// A stub area carries Type-3 summaries and depends on them for all
// inter-area reachability: Recompute must run the Summary-LSA pass for
// it even though it can never see Type-5 LSAs.
func TestRecomputeStubAreaGetsInterAreaRoutes(t *testing.T) {
	root := addr("1.1.1.1")
	abr := addr("2.2.2.2")
	areaID := addr("0.0.0.1")
	dest := addr("192.168.10.0")

	area := newFakeArea()
	area.add(routerHeader(root), lsa.RouterLSA{
		Links: []lsa.RouterLink{
			{ID: abr, Data: addr("10.0.0.2"), Type: lsa.LinkPointToPoint, Metric: 5},
		},
	})
	area.add(routerHeader(abr), lsa.RouterLSA{
		AreaBorder: true,
		Links: []lsa.RouterLink{
			{ID: root, Data: addr("10.0.0.1"), Type: lsa.LinkPointToPoint, Metric: 5},
		},
	})
	area.add(summaryHeader(abr, dest, lsa.TypeSummaryNet, 1), lsa.SummaryLSA{
		NetMask: addr("255.255.255.0"),
		Metric:  20,
	})

	src := &fakeSource{
		areas:    map[netip.Addr]*fakeArea{areaID: area},
		extCap:   map[netip.Addr]bool{areaID: false},
		external: newFakeExternal(),
	}

	table := Recompute(src, root)

	item, ok := table.Lookup(Key{DestID: dest, AddrMask: addr("255.255.255.0")})
	if !ok {
		t.Fatalf("stub area got no inter-area route for %s", dest)
	}
	if item.PathType != AreaExternal {
		t.Errorf("PathType = %v, want AreaExternal", item.PathType)
	}
	if item.Cost != 25 {
		t.Errorf("Cost = %d, want 25 (5 to ABR + 20 advertised)", item.Cost)
	}
}

// The Type-5 pass stays gated: the same stub source must produce no
// AS-external routes even when the shared database holds one.
func TestRecomputeStubAreaStillSkipsASExternal(t *testing.T) {
	root := addr("1.1.1.1")
	asbr := addr("2.2.2.2")
	areaID := addr("0.0.0.1")
	dest := addr("203.0.113.0")

	area := newFakeArea()
	area.add(routerHeader(root), lsa.RouterLSA{
		Links: []lsa.RouterLink{
			{ID: asbr, Data: addr("10.0.0.2"), Type: lsa.LinkPointToPoint, Metric: 5},
		},
	})
	area.add(routerHeader(asbr), lsa.RouterLSA{
		ASBoundary: true,
		Links: []lsa.RouterLink{
			{ID: root, Data: addr("10.0.0.1"), Type: lsa.LinkPointToPoint, Metric: 5},
		},
	})

	ext := newFakeExternal()
	ext.add(externalHeader(asbr, dest), lsa.ASExternalLSA{NetMask: addr("255.255.255.0"), Metric: 30})

	src := &fakeSource{
		areas:    map[netip.Addr]*fakeArea{areaID: area},
		extCap:   map[netip.Addr]bool{areaID: false},
		external: ext,
	}

	table := Recompute(src, root)

	if _, ok := table.Lookup(Key{DestID: dest, AddrMask: addr("255.255.255.0")}); ok {
		t.Errorf("stub-only source produced an AS-external route")
	}
}
