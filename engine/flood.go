package engine

import (
	"net/netip"

	"github.com/nereid-net/ospfd/iface"
	"github.com/nereid-net/ospfd/lsa"
	"github.com/nereid-net/ospfd/lsdb"
	"github.com/nereid-net/ospfd/neighbor"
	"github.com/nereid-net/ospfd/wire"
)

// floodHook is registered on areaID's lsdb.Area via SetFloodHook when
// AddInterface wires it up. Every Interface attached to this area, except
// arrivalInterface, gets value placed on the retransmission list of every
// Neighbor at or past Exchange and an LS Update sent immediately
// (RFC 2328 §13.3).
func (e *Engine) floodHook(areaID netip.Addr) func(lsa.Lsa, string) {
	return func(value lsa.Lsa, arrivalInterface string) {
		e.mu.RLock()
		var targets []*iface.Interface
		for name, id := range e.areaOf {
			if id != areaID || name == arrivalInterface {
				continue
			}
			if i, ok := e.interfaces[name]; ok {
				targets = append(targets, i)
			}
		}
		e.mu.RUnlock()

		for _, i := range targets {
			for _, n := range i.Neighbors() {
				if n.State() < neighbor.Exchange {
					continue
				}
				e.floodTo(i, n, value)
			}
		}
		e.notifyLSDBChange()
	}
}

func (e *Engine) floodTo(i *iface.Interface, n *neighbor.Neighbor, value lsa.Lsa) {
	n.AddRetransmit(value.Header, func() { e.sendLSUpdate(i, n, []lsa.Lsa{value}) })
	e.sendLSUpdate(i, n, []lsa.Lsa{value})
}

func (e *Engine) sendLSUpdate(i *iface.Interface, n *neighbor.Neighbor, lsas []lsa.Lsa) {
	encoded := make([][]byte, len(lsas))
	for idx, l := range lsas {
		encoded[idx] = wire.MarshalLsa(l)
	}
	e.send(i.Name, i.AreaID, n.IP, wire.TypeLSU, wire.MarshalLSU(encoded))
}

func (e *Engine) sendLSRequests(i *iface.Interface, n *neighbor.Neighbor) {
	headers := n.RequestList()
	if len(headers) == 0 {
		return
	}
	reqs := make([]wire.LSRequest, len(headers))
	for idx, h := range headers {
		reqs[idx] = wire.LSRequest{LSType: h.LSType, LinkStateID: h.LinkStateID, AdvertisingRouter: h.AdvertisingRouter}
	}
	e.send(i.Name, i.AreaID, n.IP, wire.TypeLSR, wire.MarshalLSR(reqs))
}

// onExpire is the action lsdb.Area schedules for a non-self-originated
// entry's Timer: log the expiry, then remove the LSA under the Area
// lock.
func (e *Engine) onExpire(area *lsdb.Area, key lsa.Key) func() {
	return func() {
		e.log.Infof("engine: %s reached MaxAge, flushing", key)
		area.Remove(key)
		e.notifyLSDBChange()
	}
}

// handleLSR answers a Link State Request with an LS Update carrying
// every requested LSA this router holds, or resets the adjacency via
// BadLSReq if any key is missing (RFC 2328 §10.9).
func (e *Engine) handleLSR(i *iface.Interface, routerID, src netip.Addr, body []byte) {
	n := i.Neighbor(routerID, src)
	reqs, err := wire.UnmarshalLSR(body)
	if err != nil {
		e.log.Warnf("engine: %s: malformed LSR from %s: %v", i.Name, src, err)
		return
	}
	area, ok := e.areaForInterface(i.Name)
	if !ok {
		return
	}
	var batch []lsa.Lsa
	for _, r := range reqs {
		value, ok := area.Get(r.Key())
		if !ok {
			n.BadLSReq()
			return
		}
		batch = append(batch, value)
	}
	if len(batch) > 0 {
		e.sendLSUpdate(i, n, batch)
	}
}

// handleLSU inserts every carried LSA into the owning area: a
// successful insert satisfies the neighbor's outstanding request and is
// acknowledged and (via Area's flood hook) reflooded; a stale duplicate
// is acknowledged as an implicit ack without being reinserted; a
// too-soon replacement is silently dropped.
func (e *Engine) handleLSU(i *iface.Interface, routerID, src netip.Addr, body []byte) {
	n := i.Neighbor(routerID, src)
	area, ok := e.areaForInterface(i.Name)
	if !ok {
		return
	}
	count, rest, err := wire.UnmarshalLSUCount(body)
	if err != nil {
		e.log.Warnf("engine: %s: malformed LSU from %s: %v", i.Name, src, err)
		return
	}

	var acked []lsa.Header
	for idx := uint32(0); idx < count; idx++ {
		l, err := wire.UnmarshalLsa(rest)
		if err != nil {
			e.log.Warnf("engine: %s: malformed LSA #%d from %s: %v", i.Name, idx, src, err)
			return
		}
		rest = rest[l.Header.Length:]

		if l.Key().Type == lsa.TypeASExternal && !area.ExternalRoutingCapability {
			e.log.Warnf("engine: %s: dropped AS-external LSA %s from %s, stub area", i.Name, l.Key(), src)
			continue
		}

		switch area.Insert(l, e.onExpire(area, l.Key()), i.Name) {
		case nil:
			n.SatisfyRequest(l.Key())
			acked = append(acked, l.Header)
		case lsdb.ErrStale:
			n.AckRetransmit(l.Key())
			acked = append(acked, l.Header)
		case lsdb.ErrTooSoon:
			// RFC 2328 §13 step 5a: drop silently, no ack.
		}
	}
	if len(acked) > 0 {
		e.send(i.Name, i.AreaID, n.IP, wire.TypeLSAck, wire.MarshalLSAck(acked))
	}
}

// handleLSAck clears every acknowledged key from the neighbor's
// retransmission list.
func (e *Engine) handleLSAck(i *iface.Interface, routerID, src netip.Addr, body []byte) {
	n := i.Neighbor(routerID, src)
	headers, err := wire.UnmarshalLSAck(body)
	if err != nil {
		e.log.Warnf("engine: %s: malformed LSAck from %s: %v", i.Name, src, err)
		return
	}
	for _, h := range headers {
		n.AckRetransmit(h.Key())
	}
}
