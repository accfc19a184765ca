package wire

import (
	"encoding/binary"
	"net/netip"

	"github.com/pkg/errors"

	"github.com/nereid-net/ospfd/lsa"
)

// ErrUnknownLSType is returned by UnmarshalLsa for an ls_type this codec
// does not know how to decode a body for.
var ErrUnknownLSType = errors.New("wire: unknown LSA type")

// MarshalLsa encodes a full LSA (20-byte header plus its type-specific
// body) per RFC 2328 §A.4.
func MarshalLsa(l lsa.Lsa) []byte {
	body := marshalBody(l.Body)
	header := l.Header
	header.Length = uint16(HeaderLen + len(body))
	buf := MarshalLsaHeader(header)
	return append(buf, body...)
}

// UnmarshalLsa decodes a full LSA: a 20-byte header followed by a body
// whose shape is determined by the header's LSType.
func UnmarshalLsa(buf []byte) (lsa.Lsa, error) {
	header, err := UnmarshalLsaHeader(buf)
	if err != nil {
		return lsa.Lsa{}, err
	}
	if int(header.Length) > len(buf) || int(header.Length) < HeaderLen {
		return lsa.Lsa{}, ErrTooShort
	}
	body, err := unmarshalBody(header.LSType, buf[HeaderLen:header.Length])
	if err != nil {
		return lsa.Lsa{}, err
	}
	return lsa.Lsa{Header: header, Body: body}, nil
}

func marshalBody(body lsa.Body) []byte {
	switch b := body.(type) {
	case lsa.RouterLSA:
		return marshalRouterLSA(b)
	case lsa.NetworkLSA:
		return marshalNetworkLSA(b)
	case lsa.SummaryLSA:
		return marshalSummaryLSA(b)
	case lsa.ASExternalLSA:
		return marshalASExternalLSA(b)
	default:
		return nil
	}
}

func unmarshalBody(t lsa.Type, buf []byte) (lsa.Body, error) {
	switch t {
	case lsa.TypeRouter:
		return unmarshalRouterLSA(buf)
	case lsa.TypeNetwork:
		return unmarshalNetworkLSA(buf)
	case lsa.TypeSummaryNet, lsa.TypeSummaryASBR:
		return unmarshalSummaryLSA(buf)
	case lsa.TypeASExternal:
		return unmarshalASExternalLSA(buf)
	default:
		return nil, ErrUnknownLSType
	}
}

const routerLSAFixedLen = 4
const routerLinkLen = 12

func marshalRouterLSA(b lsa.RouterLSA) []byte {
	buf := make([]byte, routerLSAFixedLen, routerLSAFixedLen+routerLinkLen*len(b.Links))
	var flags byte
	if b.VirtualLinkEndpoint {
		flags |= 0x4
	}
	if b.ASBoundary {
		flags |= 0x2
	}
	if b.AreaBorder {
		flags |= 0x1
	}
	buf[0] = 0
	buf[1] = flags
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(b.Links)))
	for _, l := range b.Links {
		link := make([]byte, routerLinkLen)
		putAddr(link[0:4], l.ID)
		putAddr(link[4:8], l.Data)
		link[8] = byte(l.Type)
		link[9] = 0 // num_tos, always 0: TOS routing is out of scope
		binary.BigEndian.PutUint16(link[10:12], l.Metric)
		buf = append(buf, link...)
	}
	return buf
}

func unmarshalRouterLSA(buf []byte) (lsa.RouterLSA, error) {
	if len(buf) < routerLSAFixedLen {
		return lsa.RouterLSA{}, ErrTooShort
	}
	flags := buf[1]
	count := binary.BigEndian.Uint16(buf[2:4])
	b := lsa.RouterLSA{
		VirtualLinkEndpoint: flags&0x4 != 0,
		ASBoundary:          flags&0x2 != 0,
		AreaBorder:          flags&0x1 != 0,
	}
	rest := buf[routerLSAFixedLen:]
	for i := 0; i < int(count); i++ {
		off := i * routerLinkLen
		if off+routerLinkLen > len(rest) {
			return lsa.RouterLSA{}, ErrTooShort
		}
		link := rest[off : off+routerLinkLen]
		b.Links = append(b.Links, lsa.RouterLink{
			ID:     addrFrom4(link[0:4]),
			Data:   addrFrom4(link[4:8]),
			Type:   lsa.LinkType(link[8]),
			Metric: binary.BigEndian.Uint16(link[10:12]),
		})
	}
	return b, nil
}

func marshalNetworkLSA(b lsa.NetworkLSA) []byte {
	buf := make([]byte, 4+4*len(b.AttachedRouters))
	putAddr(buf[0:4], b.NetMask)
	for i, r := range b.AttachedRouters {
		putAddr(buf[4+4*i:8+4*i], r)
	}
	return buf
}

func unmarshalNetworkLSA(buf []byte) (lsa.NetworkLSA, error) {
	if len(buf) < 4 {
		return lsa.NetworkLSA{}, ErrTooShort
	}
	b := lsa.NetworkLSA{NetMask: addrFrom4(buf[0:4])}
	rest := buf[4:]
	for i := 0; i+4 <= len(rest); i += 4 {
		b.AttachedRouters = append(b.AttachedRouters, addrFrom4(rest[i:i+4]))
	}
	return b, nil
}

func marshalSummaryLSA(b lsa.SummaryLSA) []byte {
	buf := make([]byte, 8)
	putAddr(buf[0:4], b.NetMask)
	binary.BigEndian.PutUint32(buf[4:8], b.Metric&0x00FFFFFF)
	return buf
}

func unmarshalSummaryLSA(buf []byte) (lsa.SummaryLSA, error) {
	if len(buf) < 8 {
		return lsa.SummaryLSA{}, ErrTooShort
	}
	return lsa.SummaryLSA{
		NetMask: addrFrom4(buf[0:4]),
		Metric:  binary.BigEndian.Uint32(buf[4:8]) & 0x00FFFFFF,
	}, nil
}

func marshalASExternalLSA(b lsa.ASExternalLSA) []byte {
	buf := make([]byte, 16)
	putAddr(buf[0:4], b.NetMask)
	metric := b.Metric & 0x00FFFFFF
	if b.Type2Metric {
		metric |= 0x80000000
	}
	binary.BigEndian.PutUint32(buf[4:8], metric)
	fwd := b.ForwardingAddr
	if !fwd.IsValid() {
		fwd = netip.IPv4Unspecified()
	}
	putAddr(buf[8:12], fwd)
	binary.BigEndian.PutUint32(buf[12:16], b.ExternalRouteTag)
	return buf
}

func unmarshalASExternalLSA(buf []byte) (lsa.ASExternalLSA, error) {
	if len(buf) < 16 {
		return lsa.ASExternalLSA{}, ErrTooShort
	}
	metricField := binary.BigEndian.Uint32(buf[4:8])
	return lsa.ASExternalLSA{
		NetMask:          addrFrom4(buf[0:4]),
		Type2Metric:      metricField&0x80000000 != 0,
		Metric:           metricField & 0x00FFFFFF,
		ForwardingAddr:   addrFrom4(buf[8:12]),
		ExternalRouteTag: binary.BigEndian.Uint32(buf[12:16]),
	}, nil
}
