// Package config is the daemon's provisioning data:
// router ID plus per-area and per-interface settings loaded from a
// cobra/pflag-driven CLI and handed to the daemon's wiring in
// cmd/ospfd. Nothing here touches the network or the LSDB; it is pure
// data plus the validation every field's owning package (lsdb, iface)
// would otherwise have to duplicate at startup.
package config

import (
	"net/netip"
	"time"

	"github.com/pkg/errors"

	"github.com/nereid-net/ospfd/iface"
)

// AddressRange is one configured area summarization range, mirroring
// lsdb.AddressRange so config stays independent of lsdb's package.
type AddressRange struct {
	Prefix    netip.Addr
	Mask      netip.Addr
	Advertise bool
}

// AreaConfig provisions one OSPF area.
type AreaConfig struct {
	AreaID          netip.Addr
	Stub            bool
	StubDefaultCost uint32
	Ranges          []AddressRange
}

// InterfaceConfig provisions one OSPF-enabled network interface.
type InterfaceConfig struct {
	Name                 string
	IPAddr               netip.Addr
	IPMask               netip.Addr
	AreaID               netip.Addr
	NetType              iface.NetType
	HelloInterval        time.Duration
	RouterDeadMultiplier int
	InfTransDelay        time.Duration
	RouterPriority       uint8
	Cost                 uint16
}

// ToIfaceConfig converts i to the iface.Config New expects.
func (i InterfaceConfig) ToIfaceConfig() iface.Config {
	return iface.Config{
		Name:               i.Name,
		IPAddr:             i.IPAddr,
		IPMask:             i.IPMask,
		AreaID:             i.AreaID,
		NetType:            i.NetType,
		HelloInterval:      i.HelloInterval,
		RouterDeadMultiple: i.RouterDeadMultiplier,
		InfTransDelay:      i.InfTransDelay,
		RouterPriority:     i.RouterPriority,
		Cost:               i.Cost,
	}
}

// Config is the full provisioning set for one running instance.
type Config struct {
	RouterID   netip.Addr
	Areas      []AreaConfig
	Interfaces []InterfaceConfig
}

// Validate checks cross-references config's own types can't otherwise
// enforce: every InterfaceConfig names a configured AreaConfig, and
// RouterID, area IDs and interface names are all present. Interface
// addresses and masks are not checked.
func (c Config) Validate() error {
	if !c.RouterID.IsValid() {
		return errors.New("config: RouterID is required")
	}
	areaIDs := make(map[netip.Addr]bool, len(c.Areas))
	for _, a := range c.Areas {
		if !a.AreaID.IsValid() {
			return errors.New("config: AreaConfig.AreaID is required")
		}
		areaIDs[a.AreaID] = true
	}
	for _, i := range c.Interfaces {
		if i.Name == "" {
			return errors.New("config: InterfaceConfig.Name is required")
		}
		if !areaIDs[i.AreaID] {
			return errors.Errorf("config: interface %s references unconfigured area %s", i.Name, i.AreaID)
		}
	}
	return nil
}

// InterfaceConfigFor returns the InterfaceConfig named name, if any.
func (c Config) InterfaceConfigFor(name string) (InterfaceConfig, bool) {
	for _, i := range c.Interfaces {
		if i.Name == name {
			return i, true
		}
	}
	return InterfaceConfig{}, false
}
