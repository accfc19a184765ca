package iface

import (
	"net/netip"
	"sort"
	"sync"
	"time"

	"github.com/nereid-net/ospfd/internal/assert"
	"github.com/nereid-net/ospfd/internal/logging"
	"github.com/nereid-net/ospfd/neighbor"
	"github.com/nereid-net/ospfd/sched"
)

// Interface is the per-network-device FSM state. DR and BDR are always
// either the unspecified address, the address of a current neighbor, or
// IPAddr itself (this router declaring itself).
type Interface struct {
	Name               string
	IPAddr             netip.Addr
	IPMask             netip.Addr
	AreaID             netip.Addr
	NetType            NetType
	HelloInterval      time.Duration
	RouterDeadMultiple int
	InfTransDelay      time.Duration
	RouterPriority     uint8
	Cost               uint16

	routerID netip.Addr
	log      *logging.Logger

	mu         sync.RWMutex
	state      State
	dr         netip.Addr
	bdr        netip.Addr
	neighbors  map[netip.Addr]*neighbor.Neighbor
	helloTimer *sched.Handle
	waitTimer  *sched.Handle
}

// Config groups the construction-time parameters of an Interface.
type Config struct {
	Name               string
	IPAddr             netip.Addr
	IPMask             netip.Addr
	AreaID             netip.Addr
	NetType            NetType
	HelloInterval      time.Duration
	RouterDeadMultiple int
	InfTransDelay      time.Duration
	RouterPriority     uint8
	Cost               uint16
}

// New constructs an Interface in state Down, owned by routerID.
func New(routerID netip.Addr, cfg Config) *Interface {
	if cfg.RouterDeadMultiple == 0 {
		cfg.RouterDeadMultiple = 4
	}
	return &Interface{
		Name:               cfg.Name,
		IPAddr:             cfg.IPAddr,
		IPMask:             cfg.IPMask,
		AreaID:             cfg.AreaID,
		NetType:            cfg.NetType,
		HelloInterval:      cfg.HelloInterval,
		RouterDeadMultiple: cfg.RouterDeadMultiple,
		InfTransDelay:      cfg.InfTransDelay,
		RouterPriority:     cfg.RouterPriority,
		Cost:               cfg.Cost,
		routerID:           routerID,
		log:                logging.Root().With(logging.Fields{"iface": cfg.Name}),
		state:              Down,
		dr:                 netip.IPv4Unspecified(),
		bdr:                netip.IPv4Unspecified(),
		neighbors:          make(map[netip.Addr]*neighbor.Neighbor),
	}
}

// DeadInterval is RouterDeadMultiple times HelloInterval.
func (i *Interface) DeadInterval() time.Duration {
	return time.Duration(i.RouterDeadMultiple) * i.HelloInterval
}

// State returns the current FSM state.
func (i *Interface) State() State {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.state
}

// DR and BDR return the currently elected designated and backup
// designated router addresses (the unspecified address if none).
func (i *Interface) DR() netip.Addr {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.dr
}

func (i *Interface) BDR() netip.Addr {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.bdr
}

// IsDR and IsBDR report whether this router declared itself DR/BDR.
func (i *Interface) IsDR() bool  { return i.DR() == i.IPAddr }
func (i *Interface) IsBDR() bool { return i.BDR() == i.IPAddr }

// Neighbor returns the Neighbor keyed by ip, creating one in state Down
// if it does not yet exist. Neighbors come into being when a Hello from a
// new source arrives.
func (i *Interface) Neighbor(routerID, ip netip.Addr) *neighbor.Neighbor {
	i.mu.Lock()
	defer i.mu.Unlock()
	if n, ok := i.neighbors[ip]; ok {
		return n
	}
	n := neighbor.New(routerID, ip, i.DeadInterval(), i.InfTransDelay)
	i.neighbors[ip] = n
	return n
}

// RemoveNeighbor deletes ip's Neighbor, called once it reaches Down.
func (i *Interface) RemoveNeighbor(ip netip.Addr) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.neighbors, ip)
}

// Neighbors returns a snapshot of every currently tracked neighbor.
func (i *Interface) Neighbors() []*neighbor.Neighbor {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]*neighbor.Neighbor, 0, len(i.neighbors))
	for _, n := range i.neighbors {
		out = append(out, n)
	}
	return out
}

// Up drives the InterfaceUp event: P2P/P2MP/Virtual media
// go straight to Point-to-Point; broadcast media with priority 0 go to
// DROther; broadcast media with priority > 0 wait out dead_interval
// before the first election. startHello and onWaitTimer are the
// caller-supplied actions for arming the Hello and Wait timers.
func (i *Interface) Up(startHello func(), onWaitTimer func()) {
	i.mu.Lock()
	defer i.mu.Unlock()

	switch {
	case !i.NetType.IsBroadcastMedia():
		i.setState(PointToPoint)
	case i.RouterPriority == 0:
		i.setState(DROther)
	default:
		i.setState(Waiting)
		i.waitTimer = sched.After(i.DeadInterval(), onWaitTimer)
	}
	i.helloTimer = sched.After(0, startHello)
}

// Down drives the InterfaceDown event: reset and transition to Down.
func (i *Interface) Down() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.resetLocked()
	i.setState(Down)
}

// Reset cancels Hello/Wait timers and clears DR/BDR/neighbors without
// forcing a state transition. Called before a fresh election, not only on
// InterfaceDown.
func (i *Interface) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.resetLocked()
}

// RearmHelloTimer replaces the tracked Hello timer handle with h. A
// periodic Hello sender reschedules itself by calling this after every
// transmission, so resetLocked can still cancel whichever handle is
// current when the Interface goes Down.
func (i *Interface) RearmHelloTimer(h *sched.Handle) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.helloTimer = h
}

func (i *Interface) resetLocked() {
	if i.helloTimer != nil {
		i.helloTimer.Cancel()
		i.helloTimer = nil
	}
	if i.waitTimer != nil {
		i.waitTimer.Cancel()
		i.waitTimer = nil
	}
	i.dr = netip.IPv4Unspecified()
	i.bdr = netip.IPv4Unspecified()
	// Every neighbor gets the LLDown event (RFC 2328 Table 8) before
	// the map is discarded: its own inactivity/retransmit timers are
	// owned goroutines that outlive this Interface's map entry unless
	// cancelled here.
	for _, n := range i.neighbors {
		n.LLDown()
	}
	i.neighbors = make(map[netip.Addr]*neighbor.Neighbor)
}

func (i *Interface) setState(s State) {
	if i.state != s {
		i.log.Infof("state %s -> %s", i.state, s)
	}
	i.state = s
}

// candidate is one member of the electorate RFC 2328 §9.4 defines.
type candidate struct {
	routerID netip.Addr
	ip       netip.Addr
	priority uint8
	declares  netip.Addr // self-declared DR
	declaresB netip.Addr // self-declared BDR
}

// ElectDRAndBDR (re-)runs DR/BDR election per RFC 2328 §9.4 and returns
// the new State. It is idempotent: called twice with the same neighbor
// snapshot it returns the same result.
func (i *Interface) ElectDRAndBDR() State {
	i.mu.Lock()
	defer i.mu.Unlock()

	electorate := make([]candidate, 0, len(i.neighbors)+1)
	if i.RouterPriority > 0 {
		electorate = append(electorate, candidate{
			routerID:  i.routerID,
			ip:        i.IPAddr,
			priority:  i.RouterPriority,
			declares:  i.dr,
			declaresB: i.bdr,
		})
	}
	for _, n := range i.neighbors {
		if n.State() < neighbor.TwoWay {
			continue
		}
		if n.Priority() == 0 {
			continue
		}
		electorate = append(electorate, candidate{
			routerID:  n.RouterID,
			ip:        n.IP,
			priority:  n.Priority(),
			declares:  n.DR(),
			declaresB: n.BDR(),
		})
	}

	bdr := electBDR(electorate)
	dr := electDR(electorate, bdr)

	// RFC 2328 §9.4: if this router's own declaration changed, run the
	// election a second time with the updated self-candidate.
	if dr != i.dr || bdr != i.bdr {
		for idx := range electorate {
			if electorate[idx].ip == i.IPAddr {
				electorate[idx].declares = dr
				electorate[idx].declaresB = bdr
			}
		}
		bdr = electBDR(electorate)
		dr = electDR(electorate, bdr)
	}

	i.dr = dr
	i.bdr = bdr

	switch {
	case i.IPAddr == dr:
		i.setState(DR)
	case i.IPAddr == bdr:
		i.setState(Backup)
	default:
		i.setState(DROther)
	}
	return i.state
}

// electBDR considers only candidates not currently declaring themselves
// DR; among those, the ones declaring themselves BDR are preferred, and
// only if none does is the whole non-DR set used. The highest-priority
// candidate of that pool wins, ties broken by highest router-id,
// RFC 2328 §9.4.
func electBDR(electorate []candidate) netip.Addr {
	var declaringBDR, notDeclaringDR []candidate
	for _, c := range electorate {
		if c.declares == c.ip {
			continue // declares itself DR: excluded from BDR candidacy
		}
		notDeclaringDR = append(notDeclaringDR, c)
		if c.declaresB == c.ip {
			declaringBDR = append(declaringBDR, c)
		}
	}

	pool := declaringBDR
	if len(pool) == 0 {
		pool = notDeclaringDR
	}
	if len(pool) == 0 {
		return netip.IPv4Unspecified()
	}
	return highestPriority(pool).ip
}

// electDR picks the highest-priority candidate declaring itself DR, ties
// broken by highest router-id; if none, the freshly-elected BDR is
// promoted, RFC 2328 §9.4.
func electDR(electorate []candidate, bdr netip.Addr) netip.Addr {
	var declaringDR []candidate
	for _, c := range electorate {
		if c.declares == c.ip {
			declaringDR = append(declaringDR, c)
		}
	}
	if len(declaringDR) == 0 {
		return bdr
	}
	return highestPriority(declaringDR).ip
}

func highestPriority(cs []candidate) candidate {
	assert.Assert(len(cs) > 0, "highestPriority called with empty electorate")
	sort.Slice(cs, func(a, b int) bool {
		if cs[a].priority != cs[b].priority {
			return cs[a].priority > cs[b].priority
		}
		return cs[a].routerID.Compare(cs[b].routerID) > 0
	})
	return cs[0]
}
