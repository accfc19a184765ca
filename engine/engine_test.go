package engine

import (
	"net/netip"
	"testing"
	"time"

	"github.com/nereid-net/ospfd/iface"
	"github.com/nereid-net/ospfd/lsa"
	"github.com/nereid-net/ospfd/lsdb"
	"github.com/nereid-net/ospfd/neighbor"
	"github.com/nereid-net/ospfd/netif"
	"github.com/nereid-net/ospfd/wire"
)

func testEngine(t *testing.T) (*Engine, *netif.Recorder, *iface.Interface, *lsdb.ProtocolDB) {
	t.Helper()
	routerID := netip.MustParseAddr("10.0.0.1")
	areaID := lsa.Backbone
	db := lsdb.NewProtocolDB(routerID)
	db.AddArea(areaID, true, 1)

	sock := netif.NewRecorder()
	e := New(routerID, db, sock)

	i := iface.New(routerID, iface.Config{
		Name:               "eth0",
		IPAddr:             netip.MustParseAddr("192.0.2.1"),
		IPMask:             netip.MustParseAddr("255.255.255.0"),
		AreaID:             areaID,
		NetType:            iface.P2P,
		HelloInterval:      10 * time.Second,
		RouterDeadMultiple: 4,
		RouterPriority:     1,
	})
	e.AddInterface(i, areaID)
	return e, sock, i, db
}

func helloPacket(fromRouter, areaID netip.Addr, neighbors []netip.Addr) netif.Packet {
	header := wire.Header{Version: 2, Type: wire.TypeHello, RouterID: fromRouter.As4(), AreaID: areaID.As4()}
	body := wire.Hello{
		NetworkMask:    netip.MustParseAddr("255.255.255.0"),
		HelloInterval:  10,
		RouterPriority: 1,
		Neighbors:      neighbors,
	}.Marshal()
	return netif.Packet{InterfaceName: "eth0", Src: netip.MustParseAddr("192.0.2.2"), Data: header.Marshal(body)}
}

// A peer's Hello that does not yet list us only
// reaches Init; once it lists us back, adjacency formation (ExStart plus
// a first DD send) begins on point-to-point media.
func TestEngineHelloFormsAdjacencyOnPointToPoint(t *testing.T) {
	e, sock, i, _ := testEngine(t)
	peer := netip.MustParseAddr("10.0.0.2")
	peerIP := netip.MustParseAddr("192.0.2.2")

	e.handlePacket(helloPacket(peer, lsa.Backbone, nil))

	n := i.Neighbor(peer, peerIP)
	if n.State() != neighbor.Init {
		t.Fatalf("state after first Hello = %s, want Init", n.State())
	}

	e.handlePacket(helloPacket(peer, lsa.Backbone, []netip.Addr{e.RouterID}))

	if n.State() < neighbor.ExStart {
		t.Fatalf("state after Hello listing us = %s, want >= ExStart", n.State())
	}

	foundDD := false
	for _, s := range sock.SentPackets() {
		h, _, err := wire.UnmarshalHeader(s.Data)
		if err != nil {
			t.Fatalf("sent packet did not decode: %v", err)
		}
		if h.Type == wire.TypeDD {
			foundDD = true
		}
	}
	if !foundDD {
		t.Errorf("no DD packet was sent after reaching 2-Way on point-to-point media")
	}
}

// A newer LSA accepted into an area is flooded to every
// neighbor in state >= Exchange, placed on that neighbor's
// retransmission list until acknowledged.
func TestEngineFloodsAcceptedLSAToExchangeNeighbors(t *testing.T) {
	e, sock, i, db := testEngine(t)
	peer := netip.MustParseAddr("10.0.0.3")
	peerIP := netip.MustParseAddr("192.0.2.3")

	n := i.Neighbor(peer, peerIP)
	n.BeginExStart(e.RouterID)
	n.NegotiationDone(nil, nil)
	n.ExchangeDone()
	if n.State() != neighbor.Full {
		t.Fatalf("test setup: neighbor state = %s, want Full", n.State())
	}

	area, ok := db.Area(lsa.Backbone)
	if !ok {
		t.Fatal("test setup: backbone area missing")
	}
	l := lsa.Lsa{
		Header: lsa.Header{
			LSType:            lsa.TypeRouter,
			LinkStateID:       e.RouterID,
			AdvertisingRouter: e.RouterID,
			LSSequenceNumber:  1,
			LSChecksum:        1,
		},
		Body: lsa.RouterLSA{},
	}
	if err := area.Insert(l, func() {}, ""); err != nil {
		t.Fatalf("insert: %v", err)
	}

	foundLSU := false
	for _, s := range sock.SentPackets() {
		h, _, err := wire.UnmarshalHeader(s.Data)
		if err != nil {
			t.Fatalf("sent packet did not decode: %v", err)
		}
		if h.Type == wire.TypeLSU && s.Dst == peerIP {
			foundLSU = true
		}
	}
	if !foundLSU {
		t.Errorf("no LS Update was sent to the Full neighbor after a successful Insert")
	}

	if len(n.RetransmissionList()) == 0 {
		t.Errorf("flooded LSA was not placed on the neighbor's retransmission list")
	}
}

// A neighbor below Exchange must never be flooded to.
func TestEngineDoesNotFloodToNeighborBelowExchange(t *testing.T) {
	e, sock, i, db := testEngine(t)
	peer := netip.MustParseAddr("10.0.0.4")
	peerIP := netip.MustParseAddr("192.0.2.4")
	_ = i.Neighbor(peer, peerIP) // stays Down

	area, ok := db.Area(lsa.Backbone)
	if !ok {
		t.Fatal("test setup: backbone area missing")
	}
	l := lsa.Lsa{
		Header: lsa.Header{
			LSType:            lsa.TypeRouter,
			LinkStateID:       e.RouterID,
			AdvertisingRouter: e.RouterID,
			LSSequenceNumber:  1,
			LSChecksum:        1,
		},
		Body: lsa.RouterLSA{},
	}
	if err := area.Insert(l, func() {}, ""); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if len(sock.SentPackets()) != 0 {
		t.Errorf("sent %d packets, want 0: a Down neighbor must not be flooded to", len(sock.SentPackets()))
	}
}
