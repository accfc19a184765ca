package wire

import "net/netip"

// addrFrom4 builds a netip.Addr from a 4-byte wire field.
func addrFrom4(b []byte) netip.Addr {
	return netip.AddrFrom4([4]byte{b[0], b[1], b[2], b[3]})
}

// putAddr writes a as a 4-byte wire field; the zero Addr encodes as
// 0.0.0.0.
func putAddr(dst []byte, a netip.Addr) {
	if !a.IsValid() {
		a = netip.IPv4Unspecified()
	}
	b := a.As4()
	copy(dst, b[:])
}
