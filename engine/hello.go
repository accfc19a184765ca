package engine

import (
	"net/netip"

	"github.com/nereid-net/ospfd/iface"
	"github.com/nereid-net/ospfd/lsa"
	"github.com/nereid-net/ospfd/neighbor"
	"github.com/nereid-net/ospfd/sched"
	"github.com/nereid-net/ospfd/wire"
)

// helloAction builds the repeating Hello-send action Interface.Up arms
// as its startHello callback: send one Hello immediately, then
// reschedule at HelloInterval via Interface.RearmHelloTimer, so
// Interface.Down/Reset can still cancel whichever handle is current.
func (e *Engine) helloAction(name string) func() {
	var action func()
	action = func() {
		i, ok := e.interfaceByName(name)
		if !ok {
			return
		}
		e.sendHello(i)
		i.RearmHelloTimer(sched.After(i.HelloInterval, action))
	}
	return action
}

func (e *Engine) sendHello(i *iface.Interface) {
	var neighbors []netip.Addr
	for _, n := range i.Neighbors() {
		if n.State() >= neighbor.Init {
			neighbors = append(neighbors, n.RouterID)
		}
	}
	body := wire.Hello{
		NetworkMask:            i.IPMask,
		HelloInterval:          uint16(i.HelloInterval.Seconds()),
		RouterPriority:         i.RouterPriority,
		RouterDeadInterval:     uint32(i.DeadInterval().Seconds()),
		DesignatedRouter:       i.DR(),
		BackupDesignatedRouter: i.BDR(),
		Neighbors:              neighbors,
	}.Marshal()

	dst := lsa.AllSPFRouters
	if i.IsDR() || i.IsBDR() {
		dst = lsa.AllDRouters
	}
	e.send(i.Name, i.AreaID, dst, wire.TypeHello, body)
}

// handleHello applies a received Hello to the originating Neighbor's FSM
// and, for broadcast media, re-runs DR/BDR election; a neighbor that just
// reached 2-Way attempts adjacency formation.
func (e *Engine) handleHello(i *iface.Interface, routerID, src netip.Addr, body []byte) {
	hello, err := wire.UnmarshalHello(body)
	if err != nil {
		e.log.Warnf("engine: %s: malformed Hello from %s: %v", i.Name, src, err)
		return
	}

	n := i.Neighbor(routerID, src)
	n.RestartInactivityTimer(func() { e.killNeighbor(i, n) })
	event := n.HelloReceived(hello.RouterPriority, hello.DesignatedRouter, hello.BackupDesignatedRouter, hello.Neighbors, e.RouterID)

	if i.NetType.IsBroadcastMedia() {
		i.ElectDRAndBDR()
	}

	if event == "2-WayReceived" && e.shouldBecomeAdjacent(i, n) {
		e.beginAdjacency(i, n)
	}
}

// shouldBecomeAdjacent reports whether this router and n should proceed
// past 2-Way to full adjacency formation, RFC 2328 §10.4: always on
// point-to-point media, and on broadcast media only with the DR/BDR or
// when this router itself is DR/BDR.
func (e *Engine) shouldBecomeAdjacent(i *iface.Interface, n *neighbor.Neighbor) bool {
	if !i.NetType.IsBroadcastMedia() {
		return true
	}
	return i.IsDR() || i.IsBDR() || n.DR() == n.IP || n.BDR() == n.IP
}

func (e *Engine) beginAdjacency(i *iface.Interface, n *neighbor.Neighbor) {
	n.BeginExStart(e.RouterID)
	e.sendDD(i, n, nil, 0)
}

func (e *Engine) killNeighbor(i *iface.Interface, n *neighbor.Neighbor) {
	n.KillNbr()
	if i.NetType.IsBroadcastMedia() {
		i.ElectDRAndBDR()
	}
}
