package netif

import (
	"net/netip"
	"sync"
)

// Sent is one recorded RawSocket.SendTo call.
type Sent struct {
	InterfaceName string
	Dst           netip.Addr
	Data          []byte
}

// Recorder is a Socket test double that records every SendTo call
// instead of touching a real network device, and lets tests inject
// inbound packets via Deliver.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent
	ch   chan Packet
}

// NewRecorder constructs an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{ch: make(chan Packet, 64)}
}

func (r *Recorder) Open(string, netip.Addr) error { return nil }
func (r *Recorder) Close(string) error            { return nil }

func (r *Recorder) SendTo(interfaceName string, dst netip.Addr, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	r.sent = append(r.sent, Sent{InterfaceName: interfaceName, Dst: dst, Data: cp})
	return nil
}

func (r *Recorder) Subscribe() <-chan Packet {
	return r.ch
}

// Deliver injects p as if it had been received, for tests driving a
// receive path end to end.
func (r *Recorder) Deliver(p Packet) {
	r.ch <- p
}

// SentPackets returns a snapshot of every recorded SendTo call.
func (r *Recorder) SentPackets() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}
