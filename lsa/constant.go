package lsa

import "net/netip"

// Timing constants, RFC 2328 appendix B. MaxAge is uint16, matching the
// on-wire width of the ls_age field.
const (
	MaxAge                uint16 = 3600
	LsRefreshTime         uint16 = 1800
	MinLSInterval         uint32 = 5
	MinLSArrival          uint32 = 1
	CheckAge              uint32 = 300
	MaxAgeDiff            uint16 = 900
	Infinity              uint32 = 0xFFFFFF
	InitialSequenceNumber int32  = -0x7FFFFFFF
	MaxSequenceNumber     int32  = 0x7FFFFFFF
)

// Well-known multicast addresses and the backbone area id.
var (
	AllSPFRouters = netip.MustParseAddr("224.0.0.5")
	AllDRouters    = netip.MustParseAddr("224.0.0.6")
	Backbone       = netip.MustParseAddr("0.0.0.0")
)

// Type enumerates the LSA kinds of RFC 2328 §4.3.
type Type uint8

const (
	TypeRouter        Type = 1
	TypeNetwork       Type = 2
	TypeSummaryNet    Type = 3
	TypeSummaryASBR   Type = 4
	TypeASExternal    Type = 5
)

func (t Type) String() string {
	switch t {
	case TypeRouter:
		return "Router"
	case TypeNetwork:
		return "Network"
	case TypeSummaryNet:
		return "Summary-Network"
	case TypeSummaryASBR:
		return "Summary-ASBR"
	case TypeASExternal:
		return "AS-External"
	default:
		return "Unknown"
	}
}
