// Package wire encodes and decodes the OSPFv2 packet header, the five
// packet bodies (Hello, DD, LSR, LSU, LSAck) and LSA wire
// representations. The protocol core never reaches into a []byte itself;
// every send/receive path goes through this package's Marshal/Unmarshal
// pair.
package wire

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/nereid-net/ospfd/lsa"
)

// ErrTooShort is returned by any Unmarshal when the input is shorter
// than the structure being decoded requires.
var ErrTooShort = errors.New("wire: buffer too short")

// ErrBadChecksum is returned by UnmarshalHeader when the checksum fold
// does not validate.
var ErrBadChecksum = errors.New("wire: checksum mismatch")

// Type enumerates RFC 2328 §A.3.1's five OSPF packet types.
type Type uint8

const (
	TypeHello Type = 1
	TypeDD    Type = 2
	TypeLSR   Type = 3
	TypeLSU   Type = 4
	TypeLSAck Type = 5
)

// headerLen is RFC 2328 §A.3.1's fixed OSPF packet header size.
const headerLen = 24

// Header is the 24-byte OSPF packet header common to every packet type.
type Header struct {
	Version  uint8
	Type     Type
	Length   uint16
	RouterID [4]byte
	AreaID   [4]byte
	Checksum uint16
	AuType   uint16
	AuthData uint64
}

// Marshal encodes h into the first 24 bytes of a buffer sized for the
// whole packet (header + body), setting Length to len(body)+headerLen
// and the checksum over the result excluding AuthData, RFC 2328 §D.4.3.
func (h Header) Marshal(body []byte) []byte {
	buf := make([]byte, headerLen+len(body))
	buf[0] = h.Version
	buf[1] = byte(h.Type)
	binary.BigEndian.PutUint16(buf[2:4], uint16(headerLen+len(body)))
	copy(buf[4:8], h.RouterID[:])
	copy(buf[8:12], h.AreaID[:])
	// buf[12:14] checksum filled below
	binary.BigEndian.PutUint16(buf[14:16], h.AuType)
	binary.BigEndian.PutUint64(buf[16:24], h.AuthData)
	copy(buf[headerLen:], body)

	binary.BigEndian.PutUint16(buf[12:14], checksum(buf))
	return buf
}

// UnmarshalHeader decodes the 24-byte header prefix of buf and verifies
// its checksum, returning the header and the body slice that follows it.
func UnmarshalHeader(buf []byte) (Header, []byte, error) {
	if len(buf) < headerLen {
		return Header{}, nil, ErrTooShort
	}
	h := Header{
		Version:  buf[0],
		Type:     Type(buf[1]),
		Length:   binary.BigEndian.Uint16(buf[2:4]),
		Checksum: binary.BigEndian.Uint16(buf[12:14]),
		AuType:   binary.BigEndian.Uint16(buf[14:16]),
		AuthData: binary.BigEndian.Uint64(buf[16:24]),
	}
	copy(h.RouterID[:], buf[4:8])
	copy(h.AreaID[:], buf[8:12])

	if int(h.Length) > len(buf) {
		return Header{}, nil, ErrTooShort
	}
	if !verifyChecksum(buf[:h.Length]) {
		return Header{}, nil, ErrBadChecksum
	}
	return h, buf[headerLen:h.Length], nil
}

// checksum computes the standard IP checksum over buf with the checksum
// and authentication fields zeroed (RFC 2328 §D.4.3).
func checksum(buf []byte) uint16 {
	excluded := make([]byte, len(buf))
	copy(excluded, buf)
	for i := 12; i < 14; i++ {
		excluded[i] = 0
	}
	for i := 16; i < 24 && i < len(excluded); i++ {
		excluded[i] = 0
	}

	var sum uint32
	for i := 0; i+1 < len(excluded); i += 2 {
		sum += uint32(excluded[i])<<8 | uint32(excluded[i+1])
	}
	if len(excluded)%2 == 1 {
		sum += uint32(excluded[len(excluded)-1]) << 8
	}
	for sum>>16 > 0 {
		sum = (sum & 0xFFFF) + (sum >> 16)
	}
	return ^uint16(sum)
}

func verifyChecksum(buf []byte) bool {
	stored := binary.BigEndian.Uint16(buf[12:14])
	cleared := make([]byte, len(buf))
	copy(cleared, buf)
	binary.BigEndian.PutUint16(cleared[12:14], 0)
	for i := 16; i < 24 && i < len(cleared); i++ {
		cleared[i] = 0
	}
	return checksum(cleared) == stored
}

// HeaderLen is the size in bytes of an encoded LSA header, RFC 2328
// §A.4.1.
const HeaderLen = 20

// MarshalLsaHeader encodes h per RFC 2328 §A.4.1.
func MarshalLsaHeader(h lsa.Header) []byte {
	buf := make([]byte, HeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], h.LSAge)
	buf[2] = h.Options
	buf[3] = byte(h.LSType)
	id := h.LinkStateID.As4()
	copy(buf[4:8], id[:])
	adv := h.AdvertisingRouter.As4()
	copy(buf[8:12], adv[:])
	binary.BigEndian.PutUint32(buf[12:16], uint32(h.LSSequenceNumber))
	binary.BigEndian.PutUint16(buf[16:18], h.LSChecksum)
	binary.BigEndian.PutUint16(buf[18:20], h.Length)
	return buf
}

// UnmarshalLsaHeader decodes the first HeaderLen bytes of buf.
func UnmarshalLsaHeader(buf []byte) (lsa.Header, error) {
	if len(buf) < HeaderLen {
		return lsa.Header{}, ErrTooShort
	}
	return lsa.Header{
		LSAge:             binary.BigEndian.Uint16(buf[0:2]),
		Options:           buf[2],
		LSType:            lsa.Type(buf[3]),
		LinkStateID:       addrFrom4(buf[4:8]),
		AdvertisingRouter: addrFrom4(buf[8:12]),
		LSSequenceNumber:  int32(binary.BigEndian.Uint32(buf[12:16])),
		LSChecksum:        binary.BigEndian.Uint16(buf[16:18]),
		Length:            binary.BigEndian.Uint16(buf[18:20]),
	}, nil
}
