// Package lsa holds the wire-independent LSA data model: keys, headers,
// their RFC 2328 §13.1 total order, and the five body shapes. Nothing here
// touches the network; wire encoding lives in package wire, which depends
// on lsa and never the reverse.
package lsa

import "net/netip"

// Lsa is a header plus a body whose shape depends on LSType.
type Lsa struct {
	Header Header
	Body   Body
}

// Key is a convenience accessor for Lsa.Header.Key().
func (l Lsa) Key() Key { return l.Header.Key() }

// Body is implemented by each of the five LSA body shapes. It exists only
// to let Lsa carry a typed payload; the core never branches on its
// concrete type except when building the SPT (package spt) or translating
// to/from wire (package wire).
type Body interface {
	lsaBody()
}

// LinkType enumerates RFC 2328 §12.4.1.1's router-link types.
type LinkType uint8

const (
	LinkPointToPoint LinkType = 1
	LinkTransit      LinkType = 2
	LinkStub         LinkType = 3
	LinkVirtual      LinkType = 4
)

// RouterLink is one entry of a RouterLSA's link list.
type RouterLink struct {
	ID     netip.Addr
	Data   netip.Addr
	Type   LinkType
	Metric uint16
}

// RouterLSA is ls_type 1: this router's adjacencies.
type RouterLSA struct {
	VirtualLinkEndpoint bool // V-bit
	ASBoundary          bool // E-bit
	AreaBorder          bool // B-bit
	Links               []RouterLink
}

func (RouterLSA) lsaBody() {}

// NetworkLSA is ls_type 2: originated by the DR for a transit network.
type NetworkLSA struct {
	NetMask         netip.Addr
	AttachedRouters []netip.Addr
}

func (NetworkLSA) lsaBody() {}

// SummaryLSA is ls_type 3 (network) or 4 (ASBR).
type SummaryLSA struct {
	NetMask netip.Addr
	Metric  uint32
}

func (SummaryLSA) lsaBody() {}

// ASExternalLSA is ls_type 5.
type ASExternalLSA struct {
	NetMask          netip.Addr
	Type2Metric      bool // E-bit: true selects Type-2 semantics
	Metric           uint32
	ForwardingAddr   netip.Addr
	ExternalRouteTag uint32
}

func (ASExternalLSA) lsaBody() {}
