package wire

import (
	"encoding/binary"
	"net/netip"
)

// Hello is RFC 2328 §A.3.2's Hello packet body.
type Hello struct {
	NetworkMask            netip.Addr
	HelloInterval          uint16
	Options                uint8
	RouterPriority         uint8
	RouterDeadInterval     uint32
	DesignatedRouter       netip.Addr
	BackupDesignatedRouter netip.Addr
	Neighbors              []netip.Addr
}

const helloFixedLen = 20

// Marshal encodes the Hello body (everything after the 24-byte packet
// header).
func (h Hello) Marshal() []byte {
	buf := make([]byte, helloFixedLen+4*len(h.Neighbors))
	putAddr(buf[0:4], h.NetworkMask)
	binary.BigEndian.PutUint16(buf[4:6], h.HelloInterval)
	buf[6] = h.Options
	buf[7] = h.RouterPriority
	binary.BigEndian.PutUint32(buf[8:12], h.RouterDeadInterval)
	putAddr(buf[12:16], h.DesignatedRouter)
	putAddr(buf[16:20], h.BackupDesignatedRouter)
	for i, n := range h.Neighbors {
		putAddr(buf[helloFixedLen+4*i:helloFixedLen+4*i+4], n)
	}
	return buf
}

// UnmarshalHello decodes a Hello body.
func UnmarshalHello(buf []byte) (Hello, error) {
	if len(buf) < helloFixedLen {
		return Hello{}, ErrTooShort
	}
	h := Hello{
		NetworkMask:            addrFrom4(buf[0:4]),
		HelloInterval:          binary.BigEndian.Uint16(buf[4:6]),
		Options:                buf[6],
		RouterPriority:         buf[7],
		RouterDeadInterval:     binary.BigEndian.Uint32(buf[8:12]),
		DesignatedRouter:       addrFrom4(buf[12:16]),
		BackupDesignatedRouter: addrFrom4(buf[16:20]),
	}
	rest := buf[helloFixedLen:]
	for i := 0; i+4 <= len(rest); i += 4 {
		h.Neighbors = append(h.Neighbors, addrFrom4(rest[i:i+4]))
	}
	return h, nil
}
