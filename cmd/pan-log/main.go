// Command pan-log is a tool for viewing and analyzing join trace files.
//
// Trace files are written by pan-sensor when started with -trace-file. Each
// file holds CBOR-encoded events covering MAC primitives, timers, state
// changes and application notifications.
//
// Usage:
//
//	pan-log <command> [flags] <file.ptrace>
//
// Commands:
//
//	view     View trace file in human-readable format
//	export   Export trace file to JSON lines or CSV
//	filter   Filter trace file and write to new file
//	stats    Show statistics about the trace file
//
// Examples:
//
//	# View all events
//	pan-log view node.ptrace
//
//	# View only MAC confirms and indications
//	pan-log view -layer mac -direction in node.ptrace
//
//	# Follow the poll timer
//	pan-log view -timer POLL node.ptrace
//
//	# Export to CSV
//	pan-log export -format csv -o node.csv node.ptrace
//
//	# Keep one session and save to new file
//	pan-log filter -session 3f2a9c1e-... -o session.ptrace node.ptrace
//
//	# Show statistics
//	pan-log stats node.ptrace
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/nghiaquy1991/PAN/cmd/pan-log/commands"
	"github.com/nghiaquy1991/PAN/pkg/log"
)

const usage = `pan-log - Join Trace Analyzer

Usage:
  pan-log <command> [flags] <file.ptrace>

Commands:
  view     View trace file in human-readable format
  export   Export trace file to JSON lines or CSV
  filter   Filter trace file and write to new file
  stats    Show statistics about the trace file

Use "pan-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func newFlagSet(name, summary string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "pan-log %s - %s\n\nUsage:\n  pan-log %s [flags] <file.ptrace>\n\nFlags:\n", name, summary, name)
		fs.PrintDefaults()
	}
	return fs
}

func filterFlags(fs *flag.FlagSet) *commands.FilterOptions {
	o := &commands.FilterOptions{}
	fs.StringVar(&o.SessionID, "session", "", "Filter by session ID")
	fs.StringVar(&o.Layer, "layer", "", "Filter by layer (mac, join, app)")
	fs.StringVar(&o.Direction, "direction", "", "Filter by direction (in, out)")
	fs.StringVar(&o.Category, "category", "", "Filter by category (primitive, timer, state, error, notification)")
	fs.StringVar(&o.Primitive, "primitive", "", "Filter by primitive name (e.g. SCAN, POLL, WS_ASYNC)")
	fs.StringVar(&o.Timer, "timer", "", "Filter by timer name (e.g. PAS, PCS, POLL)")
	fs.StringVar(&o.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&o.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	return o
}

// parseArgs parses fs and returns the trace path and the built filter.
func parseArgs(fs *flag.FlagSet, opts *commands.FilterOptions, args []string) (string, log.Filter) {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}

	var filter log.Filter
	if opts != nil {
		f, err := opts.Build()
		if err != nil {
			fail(err)
		}
		filter = f
	}
	return fs.Arg(0), filter
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runView(args []string) {
	fs := newFlagSet("view", "View trace file in human-readable format")
	opts := filterFlags(fs)
	path, filter := parseArgs(fs, opts, args)

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := newFlagSet("export", "Export trace file to JSON lines or CSV")
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	opts := filterFlags(fs)
	path, filter := parseArgs(fs, opts, args)

	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fail(fmt.Errorf("failed to create output file: %w", err))
		}
		defer f.Close()
		w = f
	}

	if err := commands.RunExport(path, *format, filter, w); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := newFlagSet("filter", "Filter trace file and write to new file")
	output := fs.String("o", "", "Output file (required)")
	opts := filterFlags(fs)
	path, filter := parseArgs(fs, opts, args)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	n, err := commands.RunFilter(path, *output, filter)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Filtered %d events to %s\n", n, *output)
}

func runStats(args []string) {
	fs := newFlagSet("stats", "Show statistics about the trace file")
	path, _ := parseArgs(fs, nil, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
