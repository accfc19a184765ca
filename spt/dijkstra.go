package spt

import (
	"container/heap"
	"math"
	"net/netip"

	"github.com/nereid-net/ospfd/internal/assert"
	"github.com/nereid-net/ospfd/lsa"
)

// AreaDatabase is the subset of lsdb.Area's read surface Dijkstra needs,
// kept as an interface so spt has no import-cycle dependency on lsdb and
// so tests can feed it a bare in-memory fixture.
type AreaDatabase interface {
	GetAllHeaders() []lsa.Header
	Get(key lsa.Key) (lsa.Lsa, bool)
}

type vertexKind uint8

const (
	vRouter vertexKind = iota
	vNetwork
)

type vertexID struct {
	kind vertexKind
	addr netip.Addr
}

type vertex struct {
	id          vertexID
	dist        uint32
	nextHop     netip.Addr
	hasNext     bool
	origin      LsaOrigin
	networkMask netip.Addr
	index       int // heap index
}

type edge struct {
	to      vertexID
	cost    uint32
	viaAddr netip.Addr // candidate next-hop if this edge leaves the root
	hasVia  bool
}

type stubRoute struct {
	fromRouter netip.Addr
	network    netip.Addr
	mask       netip.Addr
	metric     uint32
}

// BuildAreaInternalTable runs Dijkstra over area's Router/Network-LSAs
// rooted at rootRouterID and returns the AreaInternal items it produces.
// Cost ties between extraction candidates prefer Network vertices over
// Router vertices. Each Item carries a single next hop, so among
// equal-cost parallel paths the first one relaxed wins rather than a
// next-hop set being accumulated.
func BuildAreaInternalTable(area AreaDatabase, areaID, rootRouterID netip.Addr) []Item {
	vertices := make(map[vertexID]*vertex)
	adjacency := make(map[vertexID][]edge)
	var stubs []stubRoute
	originOf := make(map[vertexID]LsaOrigin)
	asBoundary := make(map[vertexID]bool)
	areaBorder := make(map[vertexID]bool)

	for _, h := range area.GetAllHeaders() {
		full, ok := area.Get(h.Key())
		if !ok {
			continue
		}
		switch body := full.Body.(type) {
		case lsa.RouterLSA:
			id := vertexID{kind: vRouter, addr: h.AdvertisingRouter}
			originOf[id] = LsaOrigin{LSType: uint8(lsa.TypeRouter), LinkStateID: h.LinkStateID, AdvertisingRouter: h.AdvertisingRouter}
			asBoundary[id] = body.ASBoundary
			areaBorder[id] = body.AreaBorder
			for _, link := range body.Links {
				switch link.Type {
				case lsa.LinkPointToPoint, lsa.LinkVirtual:
					to := vertexID{kind: vRouter, addr: link.ID}
					adjacency[id] = append(adjacency[id], edge{to: to, cost: uint32(link.Metric), viaAddr: link.Data, hasVia: true})
				case lsa.LinkTransit:
					to := vertexID{kind: vNetwork, addr: link.ID}
					adjacency[id] = append(adjacency[id], edge{to: to, cost: uint32(link.Metric), viaAddr: link.Data, hasVia: true})
				case lsa.LinkStub:
					stubs = append(stubs, stubRoute{fromRouter: h.AdvertisingRouter, network: link.ID, mask: link.Data, metric: uint32(link.Metric)})
				}
			}
		case lsa.NetworkLSA:
			id := vertexID{kind: vNetwork, addr: h.LinkStateID}
			originOf[id] = LsaOrigin{LSType: uint8(lsa.TypeNetwork), LinkStateID: h.LinkStateID, AdvertisingRouter: h.AdvertisingRouter}
			vertices[id] = &vertex{id: id, networkMask: body.NetMask}
			for _, r := range body.AttachedRouters {
				to := vertexID{kind: vRouter, addr: r}
				adjacency[id] = append(adjacency[id], edge{to: to, cost: 0})
			}
		}
	}

	rootID := vertexID{kind: vRouter, addr: rootRouterID}
	if _, ok := vertices[rootID]; !ok {
		vertices[rootID] = &vertex{id: rootID}
	}
	for id := range adjacency {
		if _, ok := vertices[id]; !ok {
			vertices[id] = &vertex{id: id}
		}
	}
	// Edges may also target vertices with no outgoing adjacency (e.g. a
	// leaf router we have no Router-LSA for yet).
	for _, edges := range adjacency {
		for _, e := range edges {
			if _, ok := vertices[e.to]; !ok {
				vertices[e.to] = &vertex{id: e.to}
			}
		}
	}

	pq := make(priorityQueue, 0, len(vertices))
	for id, v := range vertices {
		v.origin = originOf[id]
		if id == rootID {
			v.dist = 0
			v.hasNext = false
		} else {
			v.dist = math.MaxUint32
		}
		pq = append(pq, v)
	}
	heap.Init(&pq)

	settled := make(map[vertexID]*vertex)
	for pq.Len() > 0 {
		u := heap.Pop(&pq).(*vertex)
		if u.dist == math.MaxUint32 {
			continue // unreachable
		}
		settled[u.id] = u

		for _, e := range adjacency[u.id] {
			v, ok := vertices[e.to]
			if !ok || containsSettled(settled, e.to) {
				continue
			}
			newDist := addSaturating(u.dist, e.cost)
			if newDist >= v.dist {
				continue
			}
			v.dist = newDist
			if u.id == rootID && e.hasVia {
				v.nextHop = e.viaAddr
				v.hasNext = true
			} else {
				v.nextHop = u.nextHop
				v.hasNext = u.hasNext
			}
			pq.fix(v)
		}
	}

	assert.IsNotNil(settled[rootID], "root vertex %s missing from its own area LSDB", rootRouterID)

	var items []Item
	for id, v := range settled {
		if id == rootID {
			continue
		}
		if v.id.kind == vNetwork {
			items = append(items, Item{
				DestType:  DestNetwork,
				DestID:    v.id.addr,
				AddrMask:  v.networkMask,
				AreaID:    areaID,
				PathType:  AreaInternal,
				Cost:      v.dist,
				LsaOrigin: v.origin,
				NextHop:   nextHopOrUnspecified(v),
				AdRouter:  v.origin.AdvertisingRouter,
			})
			continue
		}
		// Router vertices are only installed as routing entries when they
		// are area border or AS boundary routers: RFC 2328 §16.1 step (4)
		// keeps such entries around for inter-area Summary-LSA processing
		// (§16.2) and the AS-external calculation (§16.4); ordinary
		// routers have no standalone routing-table use.
		if asBoundary[id] || areaBorder[id] {
			items = append(items, Item{
				DestType:    DestRouter,
				DestID:      v.id.addr,
				AreaID:      areaID,
				ExternalCap: asBoundary[id],
				PathType:    AreaInternal,
				Cost:        v.dist,
				LsaOrigin:   v.origin,
				NextHop:     nextHopOrUnspecified(v),
				AdRouter:    v.origin.AdvertisingRouter,
			})
		}
	}
	for _, s := range stubs {
		router, ok := settled[vertexID{kind: vRouter, addr: s.fromRouter}]
		if !ok || router.dist == math.MaxUint32 {
			continue
		}
		cost := addSaturating(router.dist, s.metric)
		items = append(items, Item{
			DestType:  DestNetwork,
			DestID:    s.network,
			AddrMask:  s.mask,
			AreaID:    areaID,
			PathType:  AreaInternal,
			Cost:      cost,
			LsaOrigin: router.origin,
			NextHop:   nextHopOrUnspecified(router),
			AdRouter:  s.fromRouter,
		})
	}
	return items
}

func nextHopOrUnspecified(v *vertex) netip.Addr {
	if v.hasNext {
		return v.nextHop
	}
	return netip.IPv4Unspecified()
}

func containsSettled(settled map[vertexID]*vertex, id vertexID) bool {
	_, ok := settled[id]
	return ok
}

func addSaturating(a, b uint32) uint32 {
	if a == math.MaxUint32 {
		return math.MaxUint32
	}
	sum := uint64(a) + uint64(b)
	if sum > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(sum)
}

// priorityQueue is a container/heap min-heap over vertex.dist, with
// Network vertices sorted ahead of Router vertices on a cost tie
// (RFC 2328 §16.1 step 2c).
type priorityQueue []*vertex

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}
	return pq[i].id.kind == vNetwork && pq[j].id.kind == vRouter
}
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}
func (pq *priorityQueue) Push(x any) {
	v := x.(*vertex)
	v.index = len(*pq)
	*pq = append(*pq, v)
}
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}
func (pq *priorityQueue) fix(v *vertex) {
	heap.Fix(pq, v.index)
}
