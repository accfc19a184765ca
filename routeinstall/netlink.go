package routeinstall

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/vishvananda/netlink"

	"github.com/nereid-net/ospfd/spt"
)

// NetlinkInstaller installs routes into the host kernel via
// github.com/vishvananda/netlink.
type NetlinkInstaller struct{}

// Install adds or replaces the kernel route for item's destination via
// its next hop, resolving the outgoing link by matching next hop
// against each interface's configured subnets.
func (NetlinkInstaller) Install(item spt.Item) error {
	route, err := toNetlinkRoute(item)
	if err != nil {
		return err
	}
	return netlink.RouteReplace(route)
}

// Remove withdraws the kernel route previously installed for item.
func (NetlinkInstaller) Remove(item spt.Item) error {
	route, err := toNetlinkRoute(item)
	if err != nil {
		return err
	}
	return netlink.RouteDel(route)
}

func toNetlinkRoute(item spt.Item) (*netlink.Route, error) {
	linkIndex, err := linkIndexForNextHop(item.NextHop)
	if err != nil {
		return nil, err
	}
	ones := prefixLength(item.AddrMask)
	dst := &net.IPNet{
		IP:   net.IP(item.DestID.AsSlice()),
		Mask: net.CIDRMask(ones, 32),
	}
	return &netlink.Route{
		LinkIndex: linkIndex,
		Dst:       dst,
		Gw:        net.IP(item.NextHop.AsSlice()),
	}, nil
}

// linkIndexForNextHop finds the kernel link index whose configured
// subnet contains nextHop.
func linkIndexForNextHop(nextHop netip.Addr) (int, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return 0, err
	}
	for _, link := range links {
		addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ones, _ := a.Mask.Size()
			addr, ok := netip.AddrFromSlice(a.IP.To4())
			if !ok {
				continue
			}
			prefix := netip.PrefixFrom(addr, ones).Masked()
			if prefix.Contains(nextHop) {
				return link.Attrs().Index, nil
			}
		}
	}
	return 0, fmt.Errorf("routeinstall: no interface subnet contains next hop %s", nextHop)
}

func prefixLength(mask netip.Addr) int {
	if !mask.IsValid() {
		return 32
	}
	ones := 0
	for _, b := range mask.AsSlice() {
		for i := 7; i >= 0; i-- {
			if b&(1<<uint(i)) != 0 {
				ones++
			}
		}
	}
	return ones
}
