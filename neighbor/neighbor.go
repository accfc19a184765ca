package neighbor

import (
	"net/netip"
	"sync"
	"time"

	"github.com/nereid-net/ospfd/internal/logging"
	"github.com/nereid-net/ospfd/lsa"
	"github.com/nereid-net/ospfd/sched"
)

// Neighbor is the per-adjacency state: identity, FSM state, DD
// negotiation bookkeeping, and the three synchronization lists
// RFC 2328 §10.3 maintains. One Neighbor is owned by exactly one
// Interface; cross-Interface references never occur.
type Neighbor struct {
	RouterID netip.Addr
	IP       netip.Addr

	mu       sync.Mutex
	state    State
	priority uint8
	dr       netip.Addr
	bdr      netip.Addr
	options  uint8

	master bool
	ddSeq  uint32
	lastDD DDSummary

	lsRequestList        map[lsa.Key]lsa.Header
	dbSummaryList        []lsa.Header
	lsRetransmissionList map[lsa.Key]lsa.Header

	deadInterval time.Duration
	rxmtInterval time.Duration

	inactivityTimer *sched.Handle
	retransmitTimer *sched.Handle

	log *logging.Logger
}

// DDSummary is the subset of a received Database Description packet's
// header RFC 2328 §10.6 requires to detect a duplicate retransmission:
// the three flag bits plus the sequence number.
type DDSummary struct {
	Init, More, Master bool
	Seq                uint32
}

// Equal reports whether two DDSummary values describe the same packet,
// used to recognize a duplicate DD retransmission.
func (d DDSummary) Equal(o DDSummary) bool {
	return d.Init == o.Init && d.More == o.More && d.Master == o.Master && d.Seq == o.Seq
}

// New constructs a Neighbor in state Down for routerID seen at ip.
func New(routerID, ip netip.Addr, deadInterval, rxmtInterval time.Duration) *Neighbor {
	if rxmtInterval <= 0 {
		rxmtInterval = 5 * time.Second
	}
	return &Neighbor{
		RouterID:             routerID,
		IP:                   ip,
		state:                Down,
		lsRequestList:        make(map[lsa.Key]lsa.Header),
		lsRetransmissionList: make(map[lsa.Key]lsa.Header),
		deadInterval:         deadInterval,
		rxmtInterval:         rxmtInterval,
		log:                  logging.Root().With(logging.Fields{"neighbor": routerID.String()}),
	}
}

// State returns the current FSM state.
func (n *Neighbor) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// TransitionHook, when non-nil, observes every neighbor state change.
// Set it once at startup, before any Neighbor exists; it is invoked with
// the neighbor's lock held and must not call back into the Neighbor.
var TransitionHook func(from, to State)

func (n *Neighbor) setState(s State) {
	if n.state != s {
		n.log.Debugf("state %s -> %s", n.state, s)
		if TransitionHook != nil {
			TransitionHook(n.state, s)
		}
	}
	n.state = s
}

// Priority, DR and BDR report the neighbor's most recently advertised
// Hello fields.
func (n *Neighbor) Priority() uint8 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.priority
}

func (n *Neighbor) DR() netip.Addr {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dr
}

func (n *Neighbor) BDR() netip.Addr {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.bdr
}

// IsMaster reports whether the neighbor won DD negotiation, leaving this
// router as slave following the neighbor's sequence numbers.
func (n *Neighbor) IsMaster() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.master
}

// RestartInactivityTimer cancels any running inactivity timer and
// schedules a new one for DeadInterval seconds; onExpire is called with
// the Area/Interface locks not held, so it must acquire them itself
// before mutating shared state.
func (n *Neighbor) RestartInactivityTimer(onExpire func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.inactivityTimer != nil {
		n.inactivityTimer.Cancel()
	}
	n.inactivityTimer = sched.After(n.deadInterval, onExpire)
}

// HelloReceived applies RFC 2328 §10.5's Hello-processing rules to this
// neighbor's state: Down/Attempt -> Init unconditionally, then Init ->
// 2-Way if selfRouterID appears in neighbors; otherwise the neighbor
// stays wherever it already was (2-Way or later is unaffected by a Hello
// that still lists us). Returns the event the caller (Interface) should
// react to: "" when no event for the caller occurred (including a
// Down/Attempt -> Init transition that stops at Init), "2-WayReceived" when
// a 2-Way transition just occurred, or "1-WayReceived" when a
// previously-adjacent neighbor dropped us from its Hello.
func (n *Neighbor) HelloReceived(priority uint8, dr, bdr netip.Addr, listed []netip.Addr, selfRouterID netip.Addr) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.priority = priority
	n.dr = dr
	n.bdr = bdr

	seen := false
	for _, id := range listed {
		if id == selfRouterID {
			seen = true
			break
		}
	}

	switch {
	case n.state == Down || n.state == Attempt:
		n.setState(Init)
		fallthrough
	case n.state == Init:
		if seen {
			n.setState(TwoWay)
			return "2-WayReceived"
		}
	default:
		if !seen {
			// 1-WayReceived: fall back to 2-Way and forget the
			// synchronization in progress (RFC 2328 §10.3).
			n.setState(TwoWay)
			n.clearSyncListsLocked()
			return "1-WayReceived"
		}
	}
	return ""
}

// clearSyncListsLocked drops the request/summary/retransmission lists
// and cancels the retransmit timer. Caller holds n.mu.
func (n *Neighbor) clearSyncListsLocked() {
	n.lsRequestList = make(map[lsa.Key]lsa.Header)
	n.dbSummaryList = nil
	n.lsRetransmissionList = make(map[lsa.Key]lsa.Header)
	if n.retransmitTimer != nil {
		n.retransmitTimer.Cancel()
		n.retransmitTimer = nil
	}
}

// BeginExStart starts adjacency formation: the higher router-id is
// master and owns the DD sequence number.
func (n *Neighbor) BeginExStart(selfRouterID netip.Addr) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.setState(ExStart)
	n.master = n.RouterID.Compare(selfRouterID) > 0
	n.ddSeq++
	n.lsRequestList = make(map[lsa.Key]lsa.Header)
	n.dbSummaryList = nil
}

// NegotiationDone transitions ExStart -> Exchange once master/slave is
// resolved, seeding the db_summary_list (headers this router must tell
// the neighbor about) and ls_request_list (headers to request).
func (n *Neighbor) NegotiationDone(summary []lsa.Header, request []lsa.Header) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.setState(Exchange)
	n.dbSummaryList = summary
	n.lsRequestList = make(map[lsa.Key]lsa.Header, len(request))
	for _, h := range request {
		n.lsRequestList[h.Key()] = h
	}
}

// NextDDSeq returns the sequence number the owner must use for the next
// outgoing DD packet. The master increments before sending; the slave
// echoes the master's last-seen sequence number, RFC 2328 §10.8.
func (n *Neighbor) NextDDSeq(masterSeq uint32) uint32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.master {
		return masterSeq
	}
	n.ddSeq++
	return n.ddSeq
}

// RecordDD stores the most recently received DD summary, for duplicate
// detection on the next packet.
func (n *Neighbor) RecordDD(s DDSummary) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lastDD = s
}

// IsDuplicateDD reports whether s matches the last recorded DD, RFC 2328
// §10.6.
func (n *Neighbor) IsDuplicateDD(s DDSummary) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastDD.Equal(s)
}

// DbSummaryList returns a snapshot of the headers still owed to the
// neighbor during Exchange.
func (n *Neighbor) DbSummaryList() []lsa.Header {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]lsa.Header(nil), n.dbSummaryList...)
}

// ConsumeDbSummary removes the first count headers of the db_summary_list
// after they have been sent in a DD packet.
func (n *Neighbor) ConsumeDbSummary(count int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if count >= len(n.dbSummaryList) {
		n.dbSummaryList = nil
		return
	}
	n.dbSummaryList = n.dbSummaryList[count:]
}

// ExchangeDone transitions Exchange -> Loading if ls_request_list is
// non-empty, or directly to Full otherwise.
func (n *Neighbor) ExchangeDone() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.lsRequestList) == 0 {
		n.setState(Full)
		return
	}
	n.setState(Loading)
}

// RequestList returns a snapshot of outstanding LS Requests.
func (n *Neighbor) RequestList() []lsa.Header {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]lsa.Header, 0, len(n.lsRequestList))
	for _, h := range n.lsRequestList {
		out = append(out, h)
	}
	return out
}

// MergeRequestList adds every header not yet tracked to the outstanding
// ls_request_list, RFC 2328 §10.8 step 7: a DD packet can name LSAs this
// router still needs beyond what NegotiationDone originally seeded.
func (n *Neighbor) MergeRequestList(headers []lsa.Header) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, h := range headers {
		n.lsRequestList[h.Key()] = h
	}
}

// SatisfyRequest removes key from ls_request_list when its LSA arrives
// via LS Update; transitions Loading -> Full once the list empties.
func (n *Neighbor) SatisfyRequest(key lsa.Key) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.lsRequestList, key)
	if n.state == Loading && len(n.lsRequestList) == 0 {
		n.setState(Full)
	}
}

// AddRetransmit arms (or re-arms) the retransmission entry for h,
// scheduling resend to fire every RxmtInterval until AckRetransmit
// removes it.
func (n *Neighbor) AddRetransmit(h lsa.Header, resend func()) {
	n.mu.Lock()
	n.lsRetransmissionList[h.Key()] = h
	n.mu.Unlock()
	n.armRetransmitTimer(resend)
}

func (n *Neighbor) armRetransmitTimer(resend func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.retransmitTimer != nil {
		return
	}
	var tick func()
	tick = func() {
		n.mu.Lock()
		empty := len(n.lsRetransmissionList) == 0
		n.mu.Unlock()
		if empty {
			n.mu.Lock()
			n.retransmitTimer = nil
			n.mu.Unlock()
			return
		}
		resend()
		n.mu.Lock()
		n.retransmitTimer = sched.After(n.rxmtInterval, tick)
		n.mu.Unlock()
	}
	n.retransmitTimer = sched.After(n.rxmtInterval, tick)
}

// AckRetransmit removes key from ls_retransmission_list, whether by an
// explicit LS Ack or an implicit ack (a newer instance arriving via LS
// Update).
func (n *Neighbor) AckRetransmit(key lsa.Key) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.lsRetransmissionList, key)
}

// RetransmissionList returns a snapshot of unacknowledged LSAs.
func (n *Neighbor) RetransmissionList() []lsa.Header {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]lsa.Header, 0, len(n.lsRetransmissionList))
	for _, h := range n.lsRetransmissionList {
		out = append(out, h)
	}
	return out
}

// SeqNumberMismatch resets the adjacency to ExStart, clearing the three
// synchronization lists.
func (n *Neighbor) SeqNumberMismatch() {
	n.resetToExStart()
}

// BadLSReq resets the adjacency to ExStart, clearing the three
// synchronization lists.
func (n *Neighbor) BadLSReq() {
	n.resetToExStart()
}

func (n *Neighbor) resetToExStart() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.setState(ExStart)
	n.ddSeq++
	n.clearSyncListsLocked()
}

// LLDown drives the neighbor to Down because the underlying link or
// owning Interface went down, RFC 2328 Table 8 ("LLDown" event): same
// effect as KillNbr.
func (n *Neighbor) LLDown() {
	n.KillNbr()
}

// KillNbr drives the neighbor to Down, cancelling every owned timer and
// clearing all lists.
func (n *Neighbor) KillNbr() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.setState(Down)
	if n.inactivityTimer != nil {
		n.inactivityTimer.Cancel()
		n.inactivityTimer = nil
	}
	n.clearSyncListsLocked()
}
