package lsa

import "net/netip"

// Key uniquely identifies an LSA within a database: the triple
// (ls_type, link_state_id, advertising_router).
type Key struct {
	Type              Type
	LinkStateID       netip.Addr
	AdvertisingRouter netip.Addr
}

// KeyOf derives the Key of a Header.
func KeyOf(h Header) Key {
	return Key{
		Type:              h.LSType,
		LinkStateID:       h.LinkStateID,
		AdvertisingRouter: h.AdvertisingRouter,
	}
}

func (k Key) String() string {
	return k.Type.String() + " " + k.LinkStateID.String() + " adv " + k.AdvertisingRouter.String()
}
