package wire

import (
	"net/netip"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/nereid-net/ospfd/lsa"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		Version:  2,
		Type:     TypeHello,
		RouterID: [4]byte{10, 0, 0, 1},
		AreaID:   [4]byte{0, 0, 0, 0},
		AuType:   0,
	}
	body := []byte{1, 2, 3, 4}

	buf := h.Marshal(body)
	got, gotBody, err := UnmarshalHeader(buf)
	if err != nil {
		t.Fatalf("UnmarshalHeader: %v", err)
	}
	if got.Version != h.Version || got.Type != h.Type || got.RouterID != h.RouterID || got.AreaID != h.AreaID {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, h)
	}
	if string(gotBody) != string(body) {
		t.Errorf("body round trip = %v, want %v", gotBody, body)
	}
}

// AuthData is excluded from the checksum (it is filled in by
// authentication, a Non-goal), so corrupting only that field must not
// trip ErrBadChecksum.
func TestHeaderUnmarshalIgnoresAuthDataInChecksum(t *testing.T) {
	h := Header{Version: 2, Type: TypeHello, RouterID: [4]byte{1, 1, 1, 1}}
	buf := h.Marshal(nil)
	buf[20] ^= 0xFF

	if _, _, err := UnmarshalHeader(buf); err != nil {
		t.Fatalf("UnmarshalHeader with AuthData perturbed = %v, want nil", err)
	}
}

func TestHeaderUnmarshalRejectsCorruptBody(t *testing.T) {
	h := Header{Version: 2, Type: TypeHello, RouterID: [4]byte{1, 1, 1, 1}}
	buf := h.Marshal([]byte{1, 2, 3, 4})
	buf[headerLen] ^= 0xFF

	if _, _, err := UnmarshalHeader(buf); err != ErrBadChecksum {
		t.Fatalf("UnmarshalHeader with corrupted body = %v, want ErrBadChecksum", err)
	}
}

func TestHelloRoundTrip(t *testing.T) {
	h := Hello{
		NetworkMask:            netip.MustParseAddr("255.255.255.0"),
		HelloInterval:          10,
		Options:                0x02,
		RouterPriority:         1,
		RouterDeadInterval:     40,
		DesignatedRouter:       netip.MustParseAddr("10.0.0.1"),
		BackupDesignatedRouter: netip.MustParseAddr("10.0.0.2"),
		Neighbors: []netip.Addr{
			netip.MustParseAddr("10.0.0.2"),
			netip.MustParseAddr("10.0.0.3"),
		},
	}
	got, err := UnmarshalHello(h.Marshal())
	if err != nil {
		t.Fatalf("UnmarshalHello: %v", err)
	}
	if diff := cmp.Diff(h, got, cmpopts.EquateComparable(netip.Addr{})); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRouterLSARoundTrip(t *testing.T) {
	l := lsa.Lsa{
		Header: lsa.Header{
			LSType:            lsa.TypeRouter,
			LinkStateID:       netip.MustParseAddr("10.0.0.1"),
			AdvertisingRouter: netip.MustParseAddr("10.0.0.1"),
			LSSequenceNumber:  1,
		},
		Body: lsa.RouterLSA{
			ASBoundary: true,
			Links: []lsa.RouterLink{
				{ID: netip.MustParseAddr("10.0.0.2"), Data: netip.MustParseAddr("255.255.255.252"), Type: lsa.LinkPointToPoint, Metric: 10},
			},
		},
	}
	buf := MarshalLsa(l)
	got, err := UnmarshalLsa(buf)
	if err != nil {
		t.Fatalf("UnmarshalLsa: %v", err)
	}
	if diff := cmp.Diff(l.Body, got.Body, cmpopts.EquateComparable(netip.Addr{})); diff != "" {
		t.Errorf("body round trip mismatch (-want +got):\n%s", diff)
	}
	if got.Header.LSType != l.Header.LSType || got.Header.LinkStateID != l.Header.LinkStateID {
		t.Errorf("header round trip mismatch: got %+v", got.Header)
	}
}

func TestASExternalLSARoundTrip(t *testing.T) {
	l := lsa.Lsa{
		Header: lsa.Header{
			LSType:            lsa.TypeASExternal,
			LinkStateID:       netip.MustParseAddr("192.0.2.0"),
			AdvertisingRouter: netip.MustParseAddr("10.0.0.9"),
		},
		Body: lsa.ASExternalLSA{
			NetMask:          netip.MustParseAddr("255.255.255.0"),
			Type2Metric:      true,
			Metric:           20,
			ForwardingAddr:   netip.MustParseAddr("10.0.0.5"),
			ExternalRouteTag: 100,
		},
	}
	buf := MarshalLsa(l)
	got, err := UnmarshalLsa(buf)
	if err != nil {
		t.Fatalf("UnmarshalLsa: %v", err)
	}
	if diff := cmp.Diff(l.Body, got.Body, cmpopts.EquateComparable(netip.Addr{})); diff != "" {
		t.Errorf("body round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLSRKeyRoundTrip(t *testing.T) {
	reqs := []LSRequest{
		{LSType: lsa.TypeRouter, LinkStateID: netip.MustParseAddr("10.0.0.1"), AdvertisingRouter: netip.MustParseAddr("10.0.0.1")},
		{LSType: lsa.TypeNetwork, LinkStateID: netip.MustParseAddr("10.0.0.0"), AdvertisingRouter: netip.MustParseAddr("10.0.0.1")},
	}
	got, err := UnmarshalLSR(MarshalLSR(reqs))
	if err != nil {
		t.Fatalf("UnmarshalLSR: %v", err)
	}
	if diff := cmp.Diff(reqs, got, cmpopts.EquateComparable(netip.Addr{})); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
