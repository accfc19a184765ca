package engine

import (
	"net/netip"

	"github.com/nereid-net/ospfd/iface"
	"github.com/nereid-net/ospfd/lsa"
	"github.com/nereid-net/ospfd/neighbor"
	"github.com/nereid-net/ospfd/wire"
)

// sendDD builds and sends a Database Description packet carrying
// headers, echoing echoSeq when this router is the slave (NextDDSeq
// ignores its argument when we are master). Every header owed to the
// neighbor goes out in one DD, so More is always false; MTU-bounded
// fragmentation is not modeled.
func (e *Engine) sendDD(i *iface.Interface, n *neighbor.Neighbor, headers []lsa.Header, echoSeq uint32) {
	blocks := make([][]byte, len(headers))
	for idx, h := range headers {
		blocks[idx] = wire.MarshalLsaHeader(h)
	}
	dd := wire.DD{
		InterfaceMTU:   1500,
		Init:           n.State() == neighbor.ExStart,
		More:           false,
		Master:         !n.IsMaster(),
		SequenceNumber: n.NextDDSeq(echoSeq),
	}
	e.send(i.Name, i.AreaID, n.IP, wire.TypeDD, dd.Marshal(blocks))
}

// handleDD advances a Neighbor's Exchange-state negotiation
// (RFC 2328 §10.6/§10.8).
func (e *Engine) handleDD(i *iface.Interface, routerID, src netip.Addr, body []byte) {
	n := i.Neighbor(routerID, src)
	if n.State() < neighbor.ExStart {
		return
	}

	dd, rest, err := wire.UnmarshalDDPreamble(body)
	if err != nil {
		e.log.Warnf("engine: %s: malformed DD from %s: %v", i.Name, src, err)
		return
	}
	headers, err := decodeHeaders(rest)
	if err != nil {
		e.log.Warnf("engine: %s: malformed DD headers from %s: %v", i.Name, src, err)
		return
	}

	summary := neighbor.DDSummary{Init: dd.Init, More: dd.More, Master: dd.Master, Seq: dd.SequenceNumber}
	if n.IsDuplicateDD(summary) {
		return
	}
	n.RecordDD(summary)

	switch n.State() {
	case neighbor.ExStart:
		n.NegotiationDone(e.ownHeaders(i), e.newerThanOurs(i, headers))
		e.sendDD(i, n, n.DbSummaryList(), dd.SequenceNumber)
		n.ConsumeDbSummary(len(n.DbSummaryList()))
	case neighbor.Exchange:
		n.MergeRequestList(e.newerThanOurs(i, headers))
		if n.IsMaster() {
			// We are slave: every DD the master sends gets an echoed
			// response.
			e.sendDD(i, n, nil, dd.SequenceNumber)
		}
	default:
		return
	}

	if !dd.More {
		n.ExchangeDone()
		if n.State() == neighbor.Loading {
			e.sendLSRequests(i, n)
		}
	}
}

// ownHeaders returns the headers this router would summarize to a
// neighbor on i: the owning area's local LSDB plus, when the area is
// externally routing, the shared AS-external headers.
func (e *Engine) ownHeaders(i *iface.Interface) []lsa.Header {
	area, ok := e.areaForInterface(i.Name)
	if !ok {
		return nil
	}
	headers := area.GetAllHeaders()
	if area.ExternalRoutingCapability {
		headers = append(headers, area.ExternalHeaders()...)
	}
	return headers
}

// newerThanOurs filters headers down to those this router does not yet
// hold, or holds an older instance of, per the ordering in lsa.Compare:
// the set worth adding to a Neighbor's ls_request_list.
func (e *Engine) newerThanOurs(i *iface.Interface, headers []lsa.Header) []lsa.Header {
	area, ok := e.areaForInterface(i.Name)
	if !ok {
		return nil
	}
	var out []lsa.Header
	for _, h := range headers {
		existing, ok := area.Get(h.Key())
		if !ok || lsa.Compare(h, existing.Header) == lsa.Newer {
			out = append(out, h)
		}
	}
	return out
}

func decodeHeaders(buf []byte) ([]lsa.Header, error) {
	var out []lsa.Header
	for len(buf) > 0 {
		h, err := wire.UnmarshalLsaHeader(buf)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
		buf = buf[wire.HeaderLen:]
	}
	return out, nil
}
