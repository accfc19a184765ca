// Package repl is the interactive operator console: show LSDB contents,
// neighbor/interface FSM state, the computed routing table, and get/set
// the log level. A bufio.Scanner command loop over stdin, with "exit"
// and "help" handled specially and everything else dispatched by name.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mitchellh/colorstring"

	"github.com/nereid-net/ospfd/iface"
	"github.com/nereid-net/ospfd/internal/logging"
	"github.com/nereid-net/ospfd/lsdb"
	"github.com/nereid-net/ospfd/neighbor"
	"github.com/nereid-net/ospfd/spt"
)

// Command is the first whitespace-separated token of an input line.
type Command string

// Handler processes one command invocation's remaining arguments.
type Handler func(out io.Writer, args []string)

// REPL is a command-map console reading lines from in and writing
// responses to out.
type REPL struct {
	scanner  *bufio.Scanner
	out      io.Writer
	handlers map[Command]Handler
}

// New constructs a REPL reading from in (ordinarily os.Stdin) and
// writing to out (ordinarily os.Stdout), with no commands registered.
func New(in io.Reader, out io.Writer) *REPL {
	return &REPL{scanner: bufio.NewScanner(in), out: out, handlers: make(map[Command]Handler)}
}

// AddHandler registers handler under name, overwriting any previous
// registration. Commands are single-owner.
func (r *REPL) AddHandler(name string, handler Handler) {
	r.handlers[Command(name)] = handler
}

// InputLoop reads commands until stdin closes or "exit" is entered.
func (r *REPL) InputLoop() {
	fmt.Fprintln(r.out, "Ready for commands. Type 'exit' to stop, 'help' for a list of commands.")
	for {
		fmt.Fprint(r.out, "ospfd> ")
		if !r.scanner.Scan() {
			return
		}
		parts := strings.Fields(r.scanner.Text())
		if len(parts) == 0 {
			continue
		}
		name := strings.ToLower(parts[0])
		args := parts[1:]

		switch name {
		case "exit":
			return
		case "help":
			r.printHelp()
		default:
			handler, ok := r.handlers[Command(name)]
			if !ok {
				fmt.Fprintf(r.out, "no such command: %q (try 'help')\n", name)
				continue
			}
			handler(r.out, args)
		}
	}
}

func (r *REPL) printHelp() {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, string(name))
	}
	sort.Strings(names)
	fmt.Fprintln(r.out, "Available commands:")
	for _, name := range names {
		fmt.Fprintf(r.out, "  %s\n", name)
	}
}

// RegisterDefaults wires the standard lsdb/neighbors/routes/loglvl
// command set against db, interfaces and routingTable.
func (r *REPL) RegisterDefaults(db *lsdb.ProtocolDB, interfaces func() []*iface.Interface, routingTable func() *spt.Table) {
	r.AddHandler("lsdb", func(out io.Writer, args []string) { handleLSDB(out, db) })
	r.AddHandler("neighbors", func(out io.Writer, args []string) { handleNeighbors(out, interfaces()) })
	r.AddHandler("routes", func(out io.Writer, args []string) { handleRoutes(out, routingTable()) })
	r.AddHandler("loglvl", handleLogLevel)
}

func handleLSDB(out io.Writer, db *lsdb.ProtocolDB) {
	if db == nil {
		fmt.Fprintln(out, "no database available")
		return
	}
	for _, area := range db.Areas() {
		fmt.Fprintf(out, "Area %s:\n", area.AreaID)
		headers := area.GetAllHeaders()
		sort.Slice(headers, func(i, j int) bool { return headers[i].LinkStateID.Compare(headers[j].LinkStateID) < 0 })
		for _, h := range headers {
			fmt.Fprintf(out, "  type=%d id=%s adv=%s seq=%d age=%d\n", h.LSType, h.LinkStateID, h.AdvertisingRouter, h.LSSequenceNumber, h.LSAge)
		}
	}
	fmt.Fprintln(out, "AS-External:")
	for _, h := range db.External().ExternalHeaders() {
		fmt.Fprintf(out, "  id=%s adv=%s seq=%d age=%d\n", h.LinkStateID, h.AdvertisingRouter, h.LSSequenceNumber, h.LSAge)
	}
}

func handleNeighbors(out io.Writer, interfaces []*iface.Interface) {
	for _, i := range interfaces {
		fmt.Fprintf(out, "%s [%s]:\n", i.Name, colorizeIfaceState(i.State()))
		for _, n := range i.Neighbors() {
			fmt.Fprintf(out, "  %s %s\n", n.RouterID, colorizeNeighborState(n.State()))
		}
	}
}

func handleRoutes(out io.Writer, table *spt.Table) {
	if table == nil {
		fmt.Fprintln(out, "no routing table computed yet")
		return
	}
	items := table.Items()
	sort.Slice(items, func(i, j int) bool { return items[i].DestID.Compare(items[j].DestID) < 0 })
	for _, item := range items {
		fmt.Fprintf(out, "%s/%s via %s cost=%d type=%v\n", item.DestID, item.AddrMask, item.NextHop, item.Cost, item.PathType)
	}
}

func handleLogLevel(out io.Writer, args []string) {
	if len(args) == 0 {
		fmt.Fprintf(out, "current log level: %s\n", logging.Level())
		return
	}
	if len(args) > 1 {
		fmt.Fprintln(out, "usage: loglvl [panic|fatal|error|warn|info|debug|trace]")
		return
	}
	if err := logging.SetLevel(args[0]); err != nil {
		fmt.Fprintf(out, "invalid log level %q: %v\n", args[0], err)
		return
	}
	fmt.Fprintf(out, "log level set to %s\n", args[0])
}

// colorizeIfaceState and colorizeNeighborState tag each FSM state with a
// color the way an operator console benefits from at a glance, using
// github.com/mitchellh/colorstring's [color] markup.
func colorizeIfaceState(s iface.State) string {
	switch s {
	case iface.DR, iface.Backup:
		return colorstring.Color("[green]" + s.String() + "[reset]")
	case iface.Down:
		return colorstring.Color("[red]" + s.String() + "[reset]")
	default:
		return colorstring.Color("[yellow]" + s.String() + "[reset]")
	}
}

func colorizeNeighborState(s neighbor.State) string {
	switch {
	case s == neighbor.Full:
		return colorstring.Color("[green]" + s.String() + "[reset]")
	case s == neighbor.Down:
		return colorstring.Color("[red]" + s.String() + "[reset]")
	default:
		return colorstring.Color("[yellow]" + s.String() + "[reset]")
	}
}

// Stdio is the convenience REPL constructor cmd/ospfd wires up.
func Stdio() *REPL { return New(os.Stdin, os.Stdout) }
