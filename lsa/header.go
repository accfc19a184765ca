package lsa

import "net/netip"

// Header is the 20-byte LSA header of RFC 2328 §A.4.1. Options, Checksum
// and Length are opaque to the database layer beyond their role in the
// §13.1 ordering; their bits are never interpreted here.
type Header struct {
	LSAge             uint16
	Options           uint8
	LSType            Type
	LinkStateID       netip.Addr
	AdvertisingRouter netip.Addr
	LSSequenceNumber  int32
	LSChecksum        uint16
	Length            uint16
}

// Key derives this header's LsaKey.
func (h Header) Key() Key { return KeyOf(h) }

// Ordering is the result of comparing two headers that share a Key
// (RFC 2328 §13.1).
type Ordering int

const (
	Older Ordering = -1
	Same  Ordering = 0
	Newer Ordering = 1
)

// Compare orders a against b following RFC 2328 §13.1:
//  1. higher sequence number wins
//  2. on tie, higher checksum wins
//  3. on tie, the one whose age equals MaxAge wins (it must be flushed)
//  4. otherwise the smaller age wins, but only if the age difference
//     exceeds MaxAgeDiff; within MaxAgeDiff the two are considered Same.
func Compare(a, b Header) Ordering {
	if a.LSSequenceNumber != b.LSSequenceNumber {
		return cmpOrdering(a.LSSequenceNumber > b.LSSequenceNumber)
	}
	if a.LSChecksum != b.LSChecksum {
		return cmpOrdering(a.LSChecksum > b.LSChecksum)
	}

	aMax := a.LSAge == MaxAge
	bMax := b.LSAge == MaxAge
	if aMax != bMax {
		return cmpOrdering(aMax)
	}

	diff := int(a.LSAge) - int(b.LSAge)
	if diff < 0 {
		diff = -diff
	}
	if diff <= int(MaxAgeDiff) {
		return Same
	}
	return cmpOrdering(a.LSAge < b.LSAge)
}

func cmpOrdering(aWins bool) Ordering {
	if aWins {
		return Newer
	}
	return Older
}
