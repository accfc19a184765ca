// Package engine wires netif, wire, iface, neighbor and lsdb into the
// running protocol: the receive loop that decodes packets and drives the
// Interface/Neighbor FSMs, and the flood hook that turns a successful
// lsdb.Area.Insert into outgoing LS Updates.
package engine

import (
	"context"
	"net/netip"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nereid-net/ospfd/iface"
	"github.com/nereid-net/ospfd/internal/logging"
	"github.com/nereid-net/ospfd/lsdb"
	"github.com/nereid-net/ospfd/netif"
	"github.com/nereid-net/ospfd/wire"
)

// Engine owns the running wiring between the on-wire protocol and the
// in-memory FSMs: one Interface per configured network device, the
// shared ProtocolDB they all flood into, and the Socket they all send
// and receive through.
type Engine struct {
	RouterID netip.Addr

	db   *lsdb.ProtocolDB
	sock netif.Socket
	log  *logging.Logger

	mu         sync.RWMutex
	interfaces map[string]*iface.Interface
	areaOf     map[string]netip.Addr
	onChange   func()
}

// New constructs an Engine bound to db and sock. Call AddInterface for
// every configured interface, then Run to start sending and receiving.
func New(routerID netip.Addr, db *lsdb.ProtocolDB, sock netif.Socket) *Engine {
	return &Engine{
		RouterID:   routerID,
		db:         db,
		sock:       sock,
		log:        logging.Root(),
		interfaces: make(map[string]*iface.Interface),
		areaOf:     make(map[string]netip.Addr),
	}
}

// AddInterface registers i as attached to areaID: the receive loop will
// dispatch packets tagged with i.Name to it, and areaID's flood hook is
// set so a newer LSA accepted into that area reaches i's neighbors.
// Call before Run.
func (e *Engine) AddInterface(i *iface.Interface, areaID netip.Addr) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.interfaces[i.Name] = i
	e.areaOf[i.Name] = areaID
	if area, ok := e.db.Area(areaID); ok {
		area.SetFloodHook(e.floodHook(areaID))
	}
}

// OnLSDBChange registers fn to run after a newer LSA is accepted into
// any area this Engine floods for. cmd/ospfd wires the SPT recompute and
// route-installation pass here, so the routing table tracks topology
// changes rather than being built once at startup. fn is invoked from
// whatever goroutine performed the insert and must do its own locking.
func (e *Engine) OnLSDBChange(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = fn
}

func (e *Engine) notifyLSDBChange() {
	e.mu.RLock()
	fn := e.onChange
	e.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Interfaces returns a snapshot of every registered Interface, for the
// repl console and spt recomputation triggers.
func (e *Engine) Interfaces() []*iface.Interface {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*iface.Interface, 0, len(e.interfaces))
	for _, i := range e.interfaces {
		out = append(out, i)
	}
	return out
}

func (e *Engine) interfaceByName(name string) (*iface.Interface, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	i, ok := e.interfaces[name]
	return i, ok
}

func (e *Engine) areaForInterface(name string) (*lsdb.Area, bool) {
	e.mu.RLock()
	areaID, ok := e.areaOf[name]
	e.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.db.Area(areaID)
}

// Run starts every registered Interface's Hello timer and, under one
// errgroup.WithContext(ctx), spawns a demultiplexing receive loop plus
// one dispatch loop per Interface: each Interface's inbound
// stream is served by its own supervised goroutine so a slow or wedged
// FSM on one Interface cannot stall another's Hello or dead-interval
// processing. Run blocks until ctx is cancelled or a served goroutine
// returns an error, at which point every other goroutine is cancelled
// too (errgroup.WithContext's shared context).
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	channels := make(map[string]chan netif.Packet)
	e.mu.RLock()
	names := make([]string, 0, len(e.interfaces))
	for name := range e.interfaces {
		names = append(names, name)
		channels[name] = make(chan netif.Packet, 64)
	}
	e.mu.RUnlock()

	inbound := e.sock.Subscribe()
	g.Go(func() error {
		return e.demux(ctx, inbound, channels)
	})

	for _, name := range names {
		name, ch := name, channels[name]
		g.Go(func() error {
			return e.serveInterface(ctx, ch)
		})
		i, _ := e.interfaceByName(name)
		i.Up(e.helloAction(name), func() { i.ElectDRAndBDR() })
	}

	return g.Wait()
}

// demux reads every received Packet and routes it to the channel serving
// its InterfaceName, dropping it (with a warning) if that Interface's
// dispatch queue is full rather than blocking the shared Socket feed.
func (e *Engine) demux(ctx context.Context, inbound <-chan netif.Packet, channels map[string]chan netif.Packet) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pkt, ok := <-inbound:
			if !ok {
				return nil
			}
			ch, ok := channels[pkt.InterfaceName]
			if !ok {
				continue
			}
			select {
			case ch <- pkt:
			default:
				e.log.Warnf("engine: dropped packet on %s, dispatch queue full", pkt.InterfaceName)
			}
		}
	}
}

func (e *Engine) serveInterface(ctx context.Context, ch <-chan netif.Packet) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pkt, ok := <-ch:
			if !ok {
				return nil
			}
			e.handlePacket(pkt)
		}
	}
}

// handlePacket decodes pkt's OSPF header and dispatches its body to the
// handler for that packet type.
func (e *Engine) handlePacket(pkt netif.Packet) {
	i, ok := e.interfaceByName(pkt.InterfaceName)
	if !ok {
		return
	}
	header, body, err := wire.UnmarshalHeader(pkt.Data)
	if err != nil {
		e.log.Warnf("engine: %s: malformed packet from %s: %v", pkt.InterfaceName, pkt.Src, err)
		return
	}
	routerID := netip.AddrFrom4(header.RouterID)
	if routerID == e.RouterID {
		return // our own transmission, looped back by multicast membership
	}

	switch header.Type {
	case wire.TypeHello:
		e.handleHello(i, routerID, pkt.Src, body)
	case wire.TypeDD:
		e.handleDD(i, routerID, pkt.Src, body)
	case wire.TypeLSR:
		e.handleLSR(i, routerID, pkt.Src, body)
	case wire.TypeLSU:
		e.handleLSU(i, routerID, pkt.Src, body)
	case wire.TypeLSAck:
		e.handleLSAck(i, routerID, pkt.Src, body)
	default:
		e.log.Warnf("engine: %s: unknown packet type %d from %s", pkt.InterfaceName, header.Type, pkt.Src)
	}
}

// send encodes body under the given packet type and this Engine's
// RouterID/areaID, and hands it to the Socket for interfaceName.
func (e *Engine) send(interfaceName string, areaID, dst netip.Addr, typ wire.Type, body []byte) {
	header := wire.Header{
		Version:  2,
		Type:     typ,
		RouterID: e.RouterID.As4(),
		AreaID:   areaID.As4(),
	}
	if err := e.sock.SendTo(interfaceName, dst, header.Marshal(body)); err != nil {
		e.log.Warnf("engine: send on %s to %s failed: %v", interfaceName, dst, err)
	}
}
