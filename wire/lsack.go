package wire

import "github.com/nereid-net/ospfd/lsa"

// MarshalLSAck encodes an RFC 2328 §A.3.6 Link State Acknowledgment
// body: a sequence of 20-byte LSA headers, nothing else.
func MarshalLSAck(headers []lsa.Header) []byte {
	buf := make([]byte, 0, HeaderLen*len(headers))
	for _, h := range headers {
		buf = append(buf, MarshalLsaHeader(h)...)
	}
	return buf
}

// UnmarshalLSAck decodes a sequence of LSA headers.
func UnmarshalLSAck(buf []byte) ([]lsa.Header, error) {
	if len(buf)%HeaderLen != 0 {
		return nil, ErrTooShort
	}
	out := make([]lsa.Header, 0, len(buf)/HeaderLen)
	for off := 0; off < len(buf); off += HeaderLen {
		h, err := UnmarshalLsaHeader(buf[off : off+HeaderLen])
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}
