// Package interactive provides the interactive command-line interface
// for pan-sensor.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/nghiaquy1991/PAN/internal/macsim"
	"github.com/nghiaquy1991/PAN/pkg/blacklist"
	"github.com/nghiaquy1991/PAN/pkg/join"
	"github.com/nghiaquy1991/PAN/pkg/mac"
	"github.com/nghiaquy1991/PAN/pkg/persistence"
	"github.com/nghiaquy1991/PAN/pkg/timer"
)

// Timers reports the controller's running timers.
type Timers interface {
	Active(id timer.ID) bool
	Remaining(id timer.ID) time.Duration
}

// Target is what the shell operates on.
type Target struct {
	Controller *join.Controller
	Sim        *macsim.Sim
	Blacklist  *blacklist.List
	Store      *persistence.Store
	Timers     Timers

	// Parent is the simulated coordinator used by kick and permit.
	Parent mac.ExtAddr
}

// Shell handles interactive mode for pan-sensor.
type Shell struct {
	rl  *readline.Instance
	t   Target
	out io.Writer
}

// New creates the shell. Attach must be called before Run.
func New() (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "pan> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("help"),
			readline.PcItem("status"),
			readline.PcItem("stats"),
			readline.PcItem("neighbors"),
			readline.PcItem("timers"),
			readline.PcItem("join"),
			readline.PcItem("rejoin"),
			readline.PcItem("leave"),
			readline.PcItem("poll"),
			readline.PcItem("kick"),
			readline.PcItem("losesync"),
			readline.PcItem("permit", readline.PcItem("on"), readline.PcItem("off")),
			readline.PcItem("blacklist",
				readline.PcItem("list"),
				readline.PcItem("add"),
				readline.PcItem("remove"),
			),
			readline.PcItem("fc"),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{rl: rl, out: rl.Stdout()}, nil
}

// Stdout returns a writer that coordinates with the prompt.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Stderr returns a writer that coordinates with the prompt. Use it for
// log output.
func (s *Shell) Stderr() io.Writer {
	return s.rl.Stderr()
}

// Attach sets the node the shell controls.
func (s *Shell) Attach(t Target) {
	s.t = t
}

// Run starts the command loop. Leaving the shell cancels the node.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}

		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) == 0 {
			continue
		}
		if !s.Exec(strings.ToLower(parts[0]), parts[1:]) {
			cancel()
			return
		}
	}
}

// Exec runs one command and reports whether the shell should continue.
func (s *Shell) Exec(cmd string, args []string) bool {
	switch cmd {
	case "help", "?":
		s.printHelp()
	case "status", "s":
		s.cmdStatus()
	case "stats":
		s.cmdStats()
	case "neighbors", "n":
		s.cmdNeighbors()
	case "timers", "t":
		s.cmdTimers()
	case "join":
		s.t.Controller.Join()
		fmt.Fprintln(s.out, "Joining...")
	case "rejoin":
		s.cmdRejoin()
	case "leave":
		s.t.Controller.SendDisassociationRequest()
		fmt.Fprintln(s.out, "Disassociation requested")
	case "poll":
		s.cmdPoll(args)
	case "kick":
		if err := s.t.Sim.Kick(s.t.Parent); err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
	case "losesync":
		s.t.Sim.LoseSync()
	case "permit":
		s.cmdPermit(args)
	case "blacklist", "bl":
		s.cmdBlacklist(args)
	case "fc":
		fmt.Fprintf(s.out, "Frame counter: %d\n", s.t.Sim.FrameCounter())
	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Exiting...")
		return false
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
Commands:
  status, s                 Show join state and addresses
  stats                     Show join statistics
  neighbors, n              List the neighbor hop table
  timers, t                 Show running controller timers
  join                      Start searching for a parent
  rejoin                    Rejoin the saved network
  leave                     Ask the parent to remove this node
  poll <interval>           Change the poll interval, e.g. 'poll 2s'
  kick                      Make the parent remove this node
  losesync                  Simulate loss of synchronization
  permit on|off             Let the parent accept joins or not
  blacklist list            List blacklisted coordinators
  blacklist add <addr> [r]  Blacklist a short (0x0001) or extended address
  blacklist remove <addr>   Remove an address from the blacklist
  fc                        Show the outgoing frame counter
  quit, q                   Exit`)
}

func (s *Shell) cmdStatus() {
	info := s.t.Controller.DeviceInfo()
	fmt.Fprintf(s.out, "State:        %s (previous %s)\n", info.State, info.PrevState)
	fmt.Fprintf(s.out, "Scan state:   %s\n", info.ScanState)
	fmt.Fprintf(s.out, "PAN ID:       0x%04x\n", info.PANID)
	fmt.Fprintf(s.out, "Channel:      %d\n", info.Channel)
	fmt.Fprintf(s.out, "Short addr:   0x%04x\n", info.DevShortAddr)
	fmt.Fprintf(s.out, "Ext addr:     %s\n", info.DevExtAddr)
	fmt.Fprintf(s.out, "Parent:       0x%04x %s\n", info.CoordShortAddr, info.CoordExtAddr)
	fmt.Fprintf(s.out, "Parent found: %v\n", info.ParentFound)
	fmt.Fprintf(s.out, "Poll:         %v\n", info.PollInterval)
	fmt.Fprintf(s.out, "Failures:     %d\n", info.DataFailures)
}

func (s *Shell) cmdTimers() {
	if s.t.Timers == nil {
		fmt.Fprintln(s.out, "No timer service attached")
		return
	}
	running := 0
	for _, id := range []timer.ID{join.TimerPAS, join.TimerPCS, join.TimerPoll, join.TimerScanBackoff, join.TimerFHAssoc, join.TimerPurge} {
		if !s.t.Timers.Active(id) {
			continue
		}
		fmt.Fprintf(s.out, "  %-13s %v\n", join.TimerName(id), s.t.Timers.Remaining(id).Round(time.Millisecond))
		running++
	}
	if running == 0 {
		fmt.Fprintln(s.out, "No timers running")
	}
}

func (s *Shell) cmdStats() {
	st := s.t.Controller.Stats()
	rows := []struct {
		name  string
		value uint32
	}{
		{"join attempts", st.JoinAttempts},
		{"join fails", st.JoinFails},
		{"sync loss", st.SyncLossIndications},
		{"PAS sent", st.FHPASolicitSent},
		{"PCS sent", st.FHPANConfigSolicitsSent},
		{"PA received", st.FHPAReceived},
		{"PC received", st.FHPANConfigReceived},
		{"polls", st.PollRequests},
		{"data failures", st.DataFailures},
		{"filtered async", st.FilteredAsyncIndications},
		{"blacklisted", st.BlacklistedBeacons},
		{"rejected", st.RejectedRequests},
	}
	for _, r := range rows {
		fmt.Fprintf(s.out, "  %-16s %d\n", r.name, r.value)
	}
}

func (s *Shell) cmdNeighbors() {
	entries := s.t.Controller.Neighbors()
	if len(entries) == 0 {
		fmt.Fprintln(s.out, "No neighbors")
		return
	}
	now := time.Now()
	for _, e := range entries {
		fmt.Fprintf(s.out, "  %s  plan=%d func=%d dwell=%d flags=0x%02x age=%v\n",
			e.ExtAddr, e.ChannelPlan, e.ChannelFunction, e.DwellInterval, uint8(e.Flags),
			e.Age(now).Truncate(time.Second))
	}
}

func (s *Shell) cmdRejoin() {
	info, err := s.t.Store.LoadNetwork()
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	if info == nil {
		fmt.Fprintln(s.out, "No saved network")
		return
	}
	s.t.Controller.Rejoin(info.Device, info.Parent)
	fmt.Fprintf(s.out, "Rejoining PAN 0x%04x via %s\n", info.Device.PANID, info.Parent.Device.ExtAddr)
}

func (s *Shell) cmdPoll(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: poll <interval>")
		return
	}
	d, err := time.ParseDuration(args[0])
	if err != nil || d <= 0 {
		fmt.Fprintf(s.out, "Invalid interval: %s\n", args[0])
		return
	}
	s.t.Controller.SetPollRate(d)
	fmt.Fprintf(s.out, "Poll interval set to %v\n", d)
}

func (s *Shell) cmdPermit(args []string) {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		fmt.Fprintln(s.out, "Usage: permit on|off")
		return
	}
	if err := s.t.Sim.SetPermitJoin(s.t.Parent, args[0] == "on"); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
}

func (s *Shell) cmdBlacklist(args []string) {
	if len(args) == 0 || args[0] == "list" {
		entries, err := s.t.Blacklist.Entries()
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return
		}
		if len(entries) == 0 {
			fmt.Fprintln(s.out, "Blacklist is empty")
			return
		}
		for _, e := range entries {
			fmt.Fprintf(s.out, "  %-24s %s %s\n", e.Addr, e.AddedAt.Format(time.RFC3339), e.Reason)
		}
		return
	}
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: blacklist add|remove <addr>")
		return
	}
	addr, err := ParseAddr(args[1])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	switch args[0] {
	case "add":
		err = s.t.Blacklist.Add(addr, strings.Join(args[2:], " "))
	case "remove", "rm":
		err = s.t.Blacklist.Remove(addr)
	default:
		fmt.Fprintf(s.out, "Unknown blacklist command: %s\n", args[0])
		return
	}
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "OK")
}

// ParseAddr parses a short address ("0x1234") or an extended address
// ("00:12:4b:00:00:00:00:01").
func ParseAddr(s string) (mac.Addr, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 16)
		if err != nil {
			return mac.Addr{}, fmt.Errorf("invalid short address %q", s)
		}
		return mac.ShortAddr(uint16(v)), nil
	}
	ext, err := mac.ParseExtAddr(s)
	if err != nil {
		return mac.Addr{}, err
	}
	return mac.ExtendedAddr(ext), nil
}
