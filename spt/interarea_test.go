package spt

import (
	"net/netip"
	"testing"

	"github.com/nereid-net/ospfd/lsa"
)

func summaryHeader(adv, linkStateID netip.Addr, lsType lsa.Type, seq int32) lsa.Header {
	return lsa.Header{LSType: lsType, LinkStateID: linkStateID, AdvertisingRouter: adv, LSSequenceNumber: seq}
}

func TestAddInterAreaPathsNetworkSummary(t *testing.T) {
	self := addr("1.1.1.1")
	abr := addr("2.2.2.2")
	areaID := addr("0.0.1.1")
	dest := addr("192.168.10.0")

	area := newFakeArea()
	area.add(summaryHeader(abr, dest, lsa.TypeSummaryNet, 1), lsa.SummaryLSA{
		NetMask: addr("255.255.255.0"),
		Metric:  20,
	})

	table := NewTable()
	AddInterAreaPaths(table, area, areaID, self, func(routerID netip.Addr) (uint32, bool) {
		if routerID == abr {
			return 5, true
		}
		return 0, false
	})

	item, ok := table.Lookup(Key{DestID: dest, AddrMask: addr("255.255.255.0")})
	if !ok {
		t.Fatalf("no table entry for %s", dest)
	}
	if item.PathType != AreaExternal {
		t.Errorf("PathType = %v, want AreaExternal", item.PathType)
	}
	if item.Cost != 25 {
		t.Errorf("Cost = %d, want 25 (5 + 20)", item.Cost)
	}
}

func TestAddInterAreaPathsSkipsUnreachedABR(t *testing.T) {
	self := addr("1.1.1.1")
	abr := addr("2.2.2.2")
	areaID := addr("0.0.1.1")
	dest := addr("192.168.10.0")

	area := newFakeArea()
	area.add(summaryHeader(abr, dest, lsa.TypeSummaryNet, 1), lsa.SummaryLSA{
		NetMask: addr("255.255.255.0"),
		Metric:  20,
	})

	table := NewTable()
	AddInterAreaPaths(table, area, areaID, self, func(netip.Addr) (uint32, bool) { return 0, false })

	if _, ok := table.Lookup(Key{DestID: dest, AddrMask: addr("255.255.255.0")}); ok {
		t.Errorf("entry for unreachable ABR's summary should not have been inserted")
	}
}

func TestAddInterAreaPathsSkipsSelfOriginated(t *testing.T) {
	self := addr("1.1.1.1")
	dest := addr("192.168.10.0")
	areaID := addr("0.0.1.1")

	area := newFakeArea()
	area.add(summaryHeader(self, dest, lsa.TypeSummaryNet, 1), lsa.SummaryLSA{
		NetMask: addr("255.255.255.0"),
		Metric:  20,
	})

	table := NewTable()
	AddInterAreaPaths(table, area, areaID, self, func(netip.Addr) (uint32, bool) { return 5, true })

	if _, ok := table.Lookup(Key{DestID: dest, AddrMask: addr("255.255.255.0")}); ok {
		t.Errorf("self-originated summary should have been skipped")
	}
}

func TestAddInterAreaPathsASBRSummaryYieldsRouterEntry(t *testing.T) {
	self := addr("1.1.1.1")
	abr := addr("2.2.2.2")
	asbr := addr("3.3.3.3")
	areaID := addr("0.0.1.1")

	area := newFakeArea()
	area.add(summaryHeader(abr, asbr, lsa.TypeSummaryASBR, 1), lsa.SummaryLSA{Metric: 15})

	table := NewTable()
	AddInterAreaPaths(table, area, areaID, self, func(netip.Addr) (uint32, bool) { return 5, true })

	cost, ok := table.RouterCost(asbr)
	if !ok {
		t.Fatalf("RouterCost(%s) not found", asbr)
	}
	if cost != 20 {
		t.Errorf("RouterCost(%s) = %d, want 20 (5 + 15)", asbr, cost)
	}
}
