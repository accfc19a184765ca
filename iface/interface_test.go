package iface

import (
	"net/netip"
	"testing"
	"time"

	"github.com/nereid-net/ospfd/neighbor"
)

func testInterface() *Interface {
	return New(netip.MustParseAddr("1.1.1.1"), Config{
		Name:           "eth0",
		IPAddr:         netip.MustParseAddr("10.0.0.1"),
		IPMask:         netip.MustParseAddr("255.255.255.0"),
		AreaID:         netip.MustParseAddr("0.0.0.0"),
		NetType:        Broadcast,
		HelloInterval:  10 * time.Second,
		InfTransDelay:  1 * time.Second,
		RouterPriority: 1,
	})
}

func bringUpNeighbor(i *Interface, routerID, ip netip.Addr, priority uint8, declaresDR, declaresBDR netip.Addr) *neighbor.Neighbor {
	n := i.Neighbor(routerID, ip)
	n.HelloReceived(priority, declaresDR, declaresBDR, []netip.Addr{i.routerID}, i.routerID)
	return n
}

func TestElectDRAndBDRHighestPriorityWins(t *testing.T) {
	i := testInterface()
	i.RouterPriority = 1

	bringUpNeighbor(i, netip.MustParseAddr("2.2.2.2"), netip.MustParseAddr("10.0.0.2"), 2,
		netip.MustParseAddr("10.0.0.2"), netip.IPv4Unspecified())
	bringUpNeighbor(i, netip.MustParseAddr("3.3.3.3"), netip.MustParseAddr("10.0.0.3"), 3,
		netip.IPv4Unspecified(), netip.IPv4Unspecified())

	i.ElectDRAndBDR()

	if got := i.DR(); got != netip.MustParseAddr("10.0.0.2") {
		t.Errorf("DR = %s, want 10.0.0.2 (declared DR, highest priority among DR-declarers)", got)
	}
}

func TestElectDRAndBDRTieBrokenByRouterID(t *testing.T) {
	i := testInterface()
	i.RouterPriority = 0 // exclude self from electorate to isolate the tie-break

	bringUpNeighbor(i, netip.MustParseAddr("2.2.2.2"), netip.MustParseAddr("10.0.0.2"), 1,
		netip.IPv4Unspecified(), netip.IPv4Unspecified())
	bringUpNeighbor(i, netip.MustParseAddr("9.9.9.9"), netip.MustParseAddr("10.0.0.9"), 1,
		netip.IPv4Unspecified(), netip.IPv4Unspecified())

	i.ElectDRAndBDR()

	if got := i.BDR(); got != netip.MustParseAddr("10.0.0.9") {
		t.Errorf("BDR = %s, want 10.0.0.9 (equal priority, higher router-id wins)", got)
	}
}

func TestElectDRAndBDRExcludesPriorityZero(t *testing.T) {
	i := testInterface()
	i.RouterPriority = 0

	bringUpNeighbor(i, netip.MustParseAddr("2.2.2.2"), netip.MustParseAddr("10.0.0.2"), 0,
		netip.MustParseAddr("10.0.0.2"), netip.IPv4Unspecified())

	i.ElectDRAndBDR()

	if got := i.DR(); got != netip.IPv4Unspecified() {
		t.Errorf("DR = %s, want unspecified (sole candidate has priority 0)", got)
	}
}

// P6: re-running election with an unchanged neighbor snapshot is
// idempotent.
func TestElectDRAndBDRIdempotent(t *testing.T) {
	i := testInterface()
	bringUpNeighbor(i, netip.MustParseAddr("2.2.2.2"), netip.MustParseAddr("10.0.0.2"), 2,
		netip.MustParseAddr("10.0.0.2"), netip.IPv4Unspecified())

	first := i.ElectDRAndBDR()
	firstDR, firstBDR := i.DR(), i.BDR()

	second := i.ElectDRAndBDR()
	if second != first || i.DR() != firstDR || i.BDR() != firstBDR {
		t.Errorf("election not idempotent: first=(%s,%s,%s) second=(%s,%s,%s)",
			first, firstDR, firstBDR, second, i.DR(), i.BDR())
	}
}

func TestResetClearsNeighborsAndElection(t *testing.T) {
	i := testInterface()
	bringUpNeighbor(i, netip.MustParseAddr("2.2.2.2"), netip.MustParseAddr("10.0.0.2"), 2,
		netip.MustParseAddr("10.0.0.2"), netip.IPv4Unspecified())
	i.ElectDRAndBDR()

	i.Reset()

	if got := i.DR(); got != netip.IPv4Unspecified() {
		t.Errorf("DR after Reset = %s, want unspecified", got)
	}
	if len(i.Neighbors()) != 0 {
		t.Errorf("Neighbors() after Reset = %d, want 0", len(i.Neighbors()))
	}
}
