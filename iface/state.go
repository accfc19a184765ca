// Package iface implements the Interface finite state machine of
// RFC 2328 §9: Hello scheduling, the Waiting state's Wait timer, and
// DR/BDR election over the attached Neighbor set.
package iface

// State enumerates RFC 2328 §9.1's seven interface states.
type State uint8

const (
	Down State = iota
	Loopback
	Waiting
	PointToPoint
	DR
	Backup
	DROther
)

func (s State) String() string {
	switch s {
	case Down:
		return "Down"
	case Loopback:
		return "Loopback"
	case Waiting:
		return "Waiting"
	case PointToPoint:
		return "Point-to-Point"
	case DR:
		return "DR"
	case Backup:
		return "Backup"
	case DROther:
		return "DROther"
	default:
		return "Unknown"
	}
}

// NetType enumerates RFC 2328 §9's network types.
type NetType uint8

const (
	P2P NetType = iota
	Broadcast
	NBMA
	P2MP
	Virtual
)

func (t NetType) String() string {
	switch t {
	case P2P:
		return "P2P"
	case Broadcast:
		return "Broadcast"
	case NBMA:
		return "NBMA"
	case P2MP:
		return "P2MP"
	case Virtual:
		return "Virtual"
	default:
		return "Unknown"
	}
}

// IsBroadcastMedia reports whether DR/BDR election applies to this
// network type.
func (t NetType) IsBroadcastMedia() bool {
	return t == Broadcast || t == NBMA
}
