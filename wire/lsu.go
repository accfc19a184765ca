package wire

import "encoding/binary"

// MarshalLSU encodes an RFC 2328 §A.3.5 Link State Update body: a
// 4-byte LSA count followed by each LSA's full wire encoding.
func MarshalLSU(lsas [][]byte) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(len(lsas)))
	for _, l := range lsas {
		buf = append(buf, l...)
	}
	return buf
}

// UnmarshalLSUCount reads the LSA count prefix, returning it and the
// remaining bytes a caller decodes one lsa.Lsa at a time via
// UnmarshalLsa (each LSA's own Length field delimits the next one).
func UnmarshalLSUCount(buf []byte) (uint32, []byte, error) {
	if len(buf) < 4 {
		return 0, nil, ErrTooShort
	}
	return binary.BigEndian.Uint32(buf[0:4]), buf[4:], nil
}
