// Package netif is the OS networking façade: interface enumeration, a
// raw IP-protocol-89 (OSPFIGP) socket, and per-interface receive
// fan-out. The protocol core never touches a socket directly; it calls
// Socket.SendTo and ranges over the channel Subscribe returns.
package netif

import (
	"fmt"
	"net"
	"net/netip"

	"golang.org/x/net/ipv4"

	"github.com/nereid-net/ospfd/internal/assert"
	"github.com/nereid-net/ospfd/internal/logging"
	"github.com/nereid-net/ospfd/internal/observer"
	"github.com/nereid-net/ospfd/lsa"
)

// ProtocolNumber is IANA's OSPFIGP protocol number, RFC 2328 §A.1.
const ProtocolNumber = 89

// Packet is one datagram received on a Socket, tagged with the local
// interface and peer address it arrived from.
type Packet struct {
	InterfaceName string
	Src           netip.Addr
	Data          []byte
}

// Socket is the abstract raw-IP transport the core sends/receives
// through. Tests get a Recorder; production code gets RawSocket.
type Socket interface {
	Open(interfaceName string, addr netip.Addr) error
	Close(interfaceName string) error
	SendTo(interfaceName string, dst netip.Addr, data []byte) error
	Subscribe() <-chan Packet
}

// RawSocket is the production Socket backed by one
// golang.org/x/net/ipv4.PacketConn per bound interface, all feeding one
// shared receive fan-out.
type RawSocket struct {
	log        *logging.Logger
	observable *observer.Observable[Packet]
	conns      map[string]*boundConn
}

type boundConn struct {
	pc     *ipv4.PacketConn
	iface  *net.Interface
	closed chan struct{}
}

// NewRawSocket constructs an unopened RawSocket.
func NewRawSocket() *RawSocket {
	return &RawSocket{
		log:        logging.Root(),
		observable: observer.NewObservable[Packet](),
		conns:      make(map[string]*boundConn),
	}
}

// Open binds a raw IP-protocol-89 socket to interfaceName, joins the
// AllSPFRouters and AllDRouters multicast groups, and starts its receive
// loop. Opening the same interface twice is a programmer error.
func (s *RawSocket) Open(interfaceName string, addr netip.Addr) error {
	assert.Assert(s.conns[interfaceName] == nil, "netif: %s is already open", interfaceName)

	ifi, err := net.InterfaceByName(interfaceName)
	if err != nil {
		return err
	}

	conn, err := net.ListenPacket("ip4:89", addr.String())
	if err != nil {
		return err
	}
	pc := ipv4.NewPacketConn(conn)

	for _, group := range []netip.Addr{lsa.AllSPFRouters, lsa.AllDRouters} {
		if err := pc.JoinGroup(ifi, &net.UDPAddr{IP: net.IP(group.AsSlice())}); err != nil {
			conn.Close()
			return err
		}
	}
	if err := pc.SetMulticastInterface(ifi); err != nil {
		conn.Close()
		return err
	}

	bc := &boundConn{pc: pc, iface: ifi, closed: make(chan struct{})}
	s.conns[interfaceName] = bc
	go s.readLoop(interfaceName, bc)
	return nil
}

func (s *RawSocket) readLoop(interfaceName string, bc *boundConn) {
	buf := make([]byte, 65535)
	for {
		n, cm, src, err := bc.pc.ReadFrom(buf)
		if err != nil {
			select {
			case <-bc.closed:
				return
			default:
				s.log.Warnf("netif: read on %s failed: %v", interfaceName, err)
				continue
			}
		}
		_ = cm
		addr, ok := netip.AddrFromSlice(src.(*net.IPAddr).IP.To4())
		if !ok {
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		s.observable.NotifyObservers(Packet{InterfaceName: interfaceName, Src: addr, Data: data})
	}
}

// Close shuts down the socket bound to interfaceName.
func (s *RawSocket) Close(interfaceName string) error {
	bc, ok := s.conns[interfaceName]
	if !ok {
		return nil
	}
	close(bc.closed)
	delete(s.conns, interfaceName)
	return bc.pc.Close()
}

// SendTo transmits data to dst over the socket bound to interfaceName.
func (s *RawSocket) SendTo(interfaceName string, dst netip.Addr, data []byte) error {
	bc, ok := s.conns[interfaceName]
	assert.Assert(ok, "netif: SendTo on unopened interface %s", interfaceName)
	_, err := bc.pc.WriteTo(data, nil, &net.IPAddr{IP: net.IP(dst.AsSlice())})
	return err
}

// Subscribe returns the channel every received Packet is published on.
// Backed by a 256-entry buffer; a subscriber that falls behind drops
// packets rather than stalling the receive loop.
func (s *RawSocket) Subscribe() <-chan Packet {
	ch := observer.NewChannelObserver[Packet](256)
	s.observable.AddObserver(ch)
	return ch.Chan()
}

// Interfaces lists the names of every up, non-loopback network
// interface carrying at least one address (of any family; IPv4 is not
// checked here).
func Interfaces() ([]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, ifi := range ifaces {
		if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := ifi.Addrs()
		if err != nil || len(addrs) == 0 {
			continue
		}
		names = append(names, ifi.Name)
	}
	return names, nil
}

// AddrForInterface returns the first configured IPv4 address and
// netmask for the named interface, for cmd/ospfd resolving a
// config.InterfaceConfig's address before calling Socket.Open.
func AddrForInterface(name string) (addr, mask netip.Addr, err error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return netip.Addr{}, netip.Addr{}, err
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return netip.Addr{}, netip.Addr{}, err
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		v4 := ipNet.IP.To4()
		if v4 == nil {
			continue
		}
		ip, ok := netip.AddrFromSlice(v4)
		if !ok {
			continue
		}
		m, ok := netip.AddrFromSlice(net.IP(ipNet.Mask).To4())
		if !ok {
			continue
		}
		return ip, m, nil
	}
	return netip.Addr{}, netip.Addr{}, fmt.Errorf("netif: no IPv4 address configured on %s", name)
}
