package wire

import "encoding/binary"

// DD is RFC 2328 §A.3.3's Database Description packet body: an MTU/
// options/flags/sequence-number preamble followed by zero or more LSA
// headers.
type DD struct {
	InterfaceMTU   uint16
	Options        uint8
	Init           bool
	More           bool
	Master         bool
	SequenceNumber uint32
}

const ddFixedLen = 8

const (
	ddFlagMore   = 0x1
	ddFlagMaster = 0x2
	ddFlagInit   = 0x4
)

// Marshal encodes the DD preamble plus one 20-byte header block per
// entry in headers.
func (d DD) Marshal(headers [][]byte) []byte {
	buf := make([]byte, ddFixedLen, ddFixedLen+HeaderLen*len(headers))
	binary.BigEndian.PutUint16(buf[0:2], d.InterfaceMTU)
	buf[2] = d.Options
	var flags byte
	if d.Init {
		flags |= ddFlagInit
	}
	if d.More {
		flags |= ddFlagMore
	}
	if d.Master {
		flags |= ddFlagMaster
	}
	buf[3] = flags
	binary.BigEndian.PutUint32(buf[4:8], d.SequenceNumber)
	for _, h := range headers {
		buf = append(buf, h...)
	}
	return buf
}

// UnmarshalDDPreamble decodes the 8-byte fixed part of a DD body and
// returns it along with the remaining bytes (a sequence of 20-byte LSA
// header blocks, decoded individually with UnmarshalLsaHeader).
func UnmarshalDDPreamble(buf []byte) (DD, []byte, error) {
	if len(buf) < ddFixedLen {
		return DD{}, nil, ErrTooShort
	}
	flags := buf[3]
	d := DD{
		InterfaceMTU:   binary.BigEndian.Uint16(buf[0:2]),
		Options:        buf[2],
		Init:           flags&ddFlagInit != 0,
		More:           flags&ddFlagMore != 0,
		Master:         flags&ddFlagMaster != 0,
		SequenceNumber: binary.BigEndian.Uint32(buf[4:8]),
	}
	return d, buf[ddFixedLen:], nil
}
