// Command ospfd is the daemon entrypoint: flags, config construction,
// and the wiring of netif socket, ProtocolDB, per-interface FSMs, spt
// recompute, routeinstall and finally the repl.
package main

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/nereid-net/ospfd/config"
	"github.com/nereid-net/ospfd/engine"
	"github.com/nereid-net/ospfd/iface"
	"github.com/nereid-net/ospfd/internal/logging"
	"github.com/nereid-net/ospfd/lsa"
	"github.com/nereid-net/ospfd/lsdb"
	"github.com/nereid-net/ospfd/metrics"
	"github.com/nereid-net/ospfd/neighbor"
	"github.com/nereid-net/ospfd/netif"
	"github.com/nereid-net/ospfd/repl"
	"github.com/nereid-net/ospfd/routeinstall"
	"github.com/nereid-net/ospfd/spt"
)

var (
	flagRouterID  string
	flagAreaID    string
	flagInterface string
	flagStub      bool
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ospfd",
		Short: "OSPFv2 link-state routing daemon",
		RunE:  run,
	}
	flags := cmd.Flags()
	flags.StringVar(&flagRouterID, "router-id", "", "this router's OSPF router ID (dotted-quad)")
	flags.StringVar(&flagAreaID, "area", "0.0.0.0", "area ID to attach the interface to")
	flags.StringVar(&flagInterface, "interface", "", "network interface to run OSPF on")
	flags.BoolVar(&flagStub, "stub", false, "mark the area as a stub area")
	cmd.MarkFlagRequired("router-id")
	cmd.MarkFlagRequired("interface")
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log := logging.Root()

	routerID, err := netip.ParseAddr(flagRouterID)
	if err != nil {
		return fmt.Errorf("invalid --router-id: %w", err)
	}
	areaID, err := netip.ParseAddr(flagAreaID)
	if err != nil {
		return fmt.Errorf("invalid --area: %w", err)
	}

	addr, mask, err := netif.AddrForInterface(flagInterface)
	if err != nil {
		return fmt.Errorf("resolving --interface %s: %w", flagInterface, err)
	}

	cfg := config.Config{
		RouterID: routerID,
		Areas:    []config.AreaConfig{{AreaID: areaID, Stub: flagStub}},
		Interfaces: []config.InterfaceConfig{
			{
				Name:                 flagInterface,
				IPAddr:               addr,
				IPMask:               mask,
				AreaID:               areaID,
				NetType:              iface.Broadcast,
				HelloInterval:        10 * time.Second,
				RouterDeadMultiplier: 4,
				InfTransDelay:        1 * time.Second,
				RouterPriority:       1,
				Cost:                 1,
			},
		},
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	m := metrics.New()
	m.Register(prometheus.DefaultRegisterer)
	neighbor.TransitionHook = func(_, to neighbor.State) {
		m.NeighborStateTotal.WithLabelValues(to.String()).Inc()
	}

	db := lsdb.NewProtocolDB(routerID)
	db.AddArea(areaID, !flagStub, 1)

	sock := netif.NewRawSocket()
	eng := engine.New(routerID, db, sock)

	interfaces := make(map[string]*iface.Interface)
	for _, ic := range cfg.Interfaces {
		i := iface.New(routerID, ic.ToIfaceConfig())
		interfaces[ic.Name] = i
		if err := sock.Open(ic.Name, ic.IPAddr); err != nil {
			// Bind failures at start-up are fatal.
			return fmt.Errorf("opening socket on %s: %w", ic.Name, err)
		}
		eng.AddInterface(i, ic.AreaID)
	}

	// Gauge snapshots ride along with every recompute, which fires on
	// every LSDB change; neighbor FSM progress always causes LSDB
	// traffic shortly after, so the by-state gauge tracks closely
	// enough without its own trigger.
	updateGauges := func() {
		lsTypes := []lsa.Type{lsa.TypeRouter, lsa.TypeNetwork, lsa.TypeSummaryNet, lsa.TypeSummaryASBR, lsa.TypeASExternal}
		for _, area := range db.Areas() {
			counts := make(map[lsa.Type]int, len(lsTypes))
			for _, h := range area.GetAllHeaders() {
				counts[h.LSType]++
			}
			for _, t := range lsTypes {
				m.LSDBEntries.WithLabelValues(area.AreaID.String(), t.String()).Set(float64(counts[t]))
			}
		}
		m.LSDBEntries.WithLabelValues("external", lsa.TypeASExternal.String()).Set(float64(len(db.External().ExternalHeaders())))

		byState := make(map[neighbor.State]int)
		for _, i := range interfaces {
			for _, n := range i.Neighbors() {
				byState[n.State()]++
			}
		}
		for s := neighbor.Down; s <= neighbor.Full; s++ {
			m.NeighborsByState.WithLabelValues(s.String()).Set(float64(byState[s]))
		}
	}

	installer := routeinstall.NetlinkInstaller{}
	var tableMu sync.Mutex
	var currentTable *spt.Table
	var installed []spt.Item
	recompute := func() {
		start := time.Now()
		table := spt.Recompute(spt.ProtocolDBSource{DB: db}, routerID)
		tableMu.Lock()
		currentTable = table
		installed = routeinstall.Sync(installer, table, installed)
		tableMu.Unlock()
		m.ObserveRecompute(time.Since(start), len(table.Items()))
		updateGauges()
	}
	eng.OnLSDBChange(recompute)
	recompute()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engineDone := make(chan error, 1)
	go func() { engineDone <- eng.Run(ctx) }()

	console := repl.Stdio()
	console.RegisterDefaults(db, func() []*iface.Interface {
		out := make([]*iface.Interface, 0, len(interfaces))
		for _, i := range interfaces {
			out = append(out, i)
		}
		return out
	}, func() *spt.Table {
		tableMu.Lock()
		defer tableMu.Unlock()
		return currentTable
	})
	console.InputLoop()

	cancel()
	if err := <-engineDone; err != nil && err != context.Canceled {
		log.Warnf("engine stopped: %v", err)
	}

	return nil
}
