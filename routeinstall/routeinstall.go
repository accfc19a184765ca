// Package routeinstall translates a settled spt.Item into a kernel route
// and pushes it down (or withdraws it), resolving the outgoing interface
// by matching the item's next hop against each interface's local subnet.
package routeinstall

import (
	"github.com/nereid-net/ospfd/internal/logging"
	"github.com/nereid-net/ospfd/spt"
)

// Installer pushes spt.Table entries into the host's routing table.
// Only DestNetwork entries with a reachable NextHop are installable;
// DestRouter entries exist solely to support spt's inter-area/external
// cost lookups and are never passed here.
type Installer interface {
	Install(item spt.Item) error
	Remove(item spt.Item) error
}

// Sync reconciles the kernel routing table with table by installing
// every DestNetwork entry and removing anything previously installed
// that table no longer carries the same entry for. previous is the Item set
// installed by the prior Sync call (nil on the first call); Sync returns
// the Item set actually installed, for the caller to pass as previous
// next time.
func Sync(installer Installer, table *spt.Table, previous []spt.Item) []spt.Item {
	log := logging.Root()
	current := make(map[spt.Key]spt.Item)
	for _, item := range table.Items() {
		if item.DestType != spt.DestNetwork || !item.NextHop.IsValid() || item.NextHop.IsUnspecified() {
			continue
		}
		current[item.Key()] = item
	}

	for _, old := range previous {
		if _, stillPresent := current[old.Key()]; stillPresent {
			continue
		}
		if err := installer.Remove(old); err != nil {
			log.Warnf("routeinstall: remove %s/%s: %v", old.DestID, old.AddrMask, err)
		}
	}

	installed := make([]spt.Item, 0, len(current))
	for _, item := range current {
		if err := installer.Install(item); err != nil {
			log.Warnf("routeinstall: install %s/%s via %s: %v", item.DestID, item.AddrMask, item.NextHop, err)
			continue
		}
		installed = append(installed, item)
	}
	return installed
}
