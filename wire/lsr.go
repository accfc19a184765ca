package wire

import (
	"encoding/binary"
	"net/netip"

	"github.com/nereid-net/ospfd/lsa"
)

// LSRequest is one entry of an RFC 2328 §A.3.4 Link State Request
// packet: a stripped-down key (no checksum/age/length, only enough to
// name the LSA).
type LSRequest struct {
	LSType            lsa.Type
	LinkStateID       netip.Addr
	AdvertisingRouter netip.Addr
}

const lsRequestLen = 12

// MarshalLSR encodes a sequence of LSRequest entries.
func MarshalLSR(reqs []LSRequest) []byte {
	buf := make([]byte, lsRequestLen*len(reqs))
	for i, r := range reqs {
		off := i * lsRequestLen
		binary.BigEndian.PutUint32(buf[off:off+4], uint32(r.LSType))
		putAddr(buf[off+4:off+8], r.LinkStateID)
		putAddr(buf[off+8:off+12], r.AdvertisingRouter)
	}
	return buf
}

// UnmarshalLSR decodes a sequence of LSRequest entries.
func UnmarshalLSR(buf []byte) ([]LSRequest, error) {
	if len(buf)%lsRequestLen != 0 {
		return nil, ErrTooShort
	}
	out := make([]LSRequest, 0, len(buf)/lsRequestLen)
	for off := 0; off < len(buf); off += lsRequestLen {
		out = append(out, LSRequest{
			LSType:            lsa.Type(binary.BigEndian.Uint32(buf[off : off+4])),
			LinkStateID:       addrFrom4(buf[off+4 : off+8]),
			AdvertisingRouter: addrFrom4(buf[off+8 : off+12]),
		})
	}
	return out, nil
}

// Key returns the LsaKey this request names.
func (r LSRequest) Key() lsa.Key {
	return lsa.Key{Type: r.LSType, LinkStateID: r.LinkStateID, AdvertisingRouter: r.AdvertisingRouter}
}
