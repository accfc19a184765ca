package lsa

import (
	"net/netip"
	"testing"
)

func header(seq int32, checksum uint16, age uint16) Header {
	return Header{
		LSAge:             age,
		LSType:            TypeRouter,
		LinkStateID:       netip.MustParseAddr("1.1.1.1"),
		AdvertisingRouter: netip.MustParseAddr("1.1.1.1"),
		LSSequenceNumber:  seq,
		LSChecksum:        checksum,
	}
}

// P1: exactly one of a<b, a=b, a>b holds, and the relation is transitive
// over a chain built from monotonically increasing sequence numbers.
func TestCompareTotalOrderAndTransitivity(t *testing.T) {
	headers := []Header{
		header(1, 100, 0),
		header(2, 100, 0),
		header(3, 50, 0),
		header(3, 100, 0),
	}

	for i, a := range headers {
		for j, b := range headers {
			ab := Compare(a, b)
			ba := Compare(b, a)
			if i == j {
				if ab != Same {
					t.Errorf("Compare(a, a) = %v, want Same", ab)
				}
				continue
			}
			if ab == Same && ba != Same {
				t.Errorf("asymmetric Same: Compare(%d,%d)=%v Compare(%d,%d)=%v", i, j, ab, j, i, ba)
			}
			if ab == Newer && ba != Older {
				t.Errorf("Compare(%d,%d)=Newer but Compare(%d,%d)!=Older (got %v)", i, j, j, i, ba)
			}
		}
	}

	// Transitivity along the strictly increasing-sequence chain.
	if Compare(headers[0], headers[1]) != Older || Compare(headers[1], headers[2]) != Older {
		t.Fatalf("chain is not increasing as constructed")
	}
	if Compare(headers[0], headers[2]) != Older {
		t.Errorf("transitivity violated: headers[0] should be Older than headers[2]")
	}
}

func TestCompareChecksumTiebreak(t *testing.T) {
	a := header(5, 200, 0)
	b := header(5, 100, 0)
	if got := Compare(a, b); got != Newer {
		t.Errorf("Compare(higher checksum, lower checksum) = %v, want Newer", got)
	}
}

func TestCompareMaxAgeWins(t *testing.T) {
	a := header(5, 100, MaxAge)
	b := header(5, 100, 10)
	if got := Compare(a, b); got != Newer {
		t.Errorf("Compare(MaxAge, fresh) = %v, want Newer (must-flush wins tie)", got)
	}
}

func TestCompareAgeWithinMaxAgeDiffIsSame(t *testing.T) {
	a := header(5, 100, 100)
	b := header(5, 100, 100+uint16(MaxAgeDiff))
	if got := Compare(a, b); got != Same {
		t.Errorf("Compare within MaxAgeDiff = %v, want Same", got)
	}
}

func TestCompareAgeBeyondMaxAgeDiffPrefersSmaller(t *testing.T) {
	a := header(5, 100, 100)
	b := header(5, 100, 100+uint16(MaxAgeDiff)+1)
	if got := Compare(a, b); got != Newer {
		t.Errorf("Compare(smaller age beyond MaxAgeDiff) = %v, want Newer", got)
	}
}
