// Command cm-log is a tool for viewing and analyzing consistency manager
// trace files.
//
// Trace files are written by a log.FileLogger set as Config.TraceLogger,
// for example by cm-demo or cm-scenario with the -trace flag.
//
// Usage:
//
//	cm-log <command> [flags] <file.cmlog>
//
// Commands:
//
//	view     View trace file in human-readable format
//	export   Export trace file to JSON or CSV format
//	filter   Filter trace file and write to new file
//	stats    Show statistics about the trace file
//
// Examples:
//
//	# View all events
//	cm-log view demo.cmlog
//
//	# View only deletes that were committed
//	cm-log view --kind delete --stage committed demo.cmlog
//
//	# Export to JSONL
//	cm-log export --format jsonl demo.cmlog
//
//	# Keep everything that touched model 42
//	cm-log filter --model-id 42 -o model42.cmlog demo.cmlog
//
//	# Show statistics
//	cm-log stats demo.cmlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/graphcache/consistency-go/cmd/cm-log/commands"
)

const usage = `cm-log - Consistency Manager Trace Analyzer

Usage:
  cm-log <command> [flags] <file.cmlog>

Commands:
  view     View trace file in human-readable format
  export   Export trace file to JSON or CSV format
  filter   Filter trace file and write to new file
  stats    Show statistics about the trace file

Use "cm-log <command> -help" for more information about a command.
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

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `cm-log view - View trace file in human-readable format

Usage:
  cm-log view [flags] <file.cmlog>

Flags:
`)
		fs.PrintDefaults()
	}

	kind := fs.String("kind", "", "Filter by kind (update, delete, resume, clear, barrier, gc)")
	stage := fs.String("stage", "", "Filter by stage (enqueued, committed, noop, cancelled, failed, collected)")
	modelID := fs.String("model-id", "", "Filter by model ID")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	filter := commands.ViewFilter{ModelID: *modelID}

	if *kind != "" {
		k, err := commands.ParseKindFlag(*kind)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Kind = &k
	}

	if *stage != "" {
		s, err := commands.ParseStageFlag(*stage)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Stage = &s
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `cm-log export - Export trace file to JSON or CSV format

Usage:
  cm-log export [flags] <file.cmlog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunExport(fs.Arg(0), *format, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `cm-log filter - Filter trace file and write to new file

Usage:
  cm-log filter [flags] <file.cmlog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	managerID := fs.String("manager-id", "", "Filter by manager ID")
	instructionID := fs.String("instruction-id", "", "Filter by instruction ID")
	modelID := fs.String("model-id", "", "Filter by model ID")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")
	kind := fs.String("kind", "", "Filter by kind (update, delete, resume, clear, barrier, gc)")
	stage := fs.String("stage", "", "Filter by stage (enqueued, committed, noop, cancelled, failed, collected)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	opts := commands.FilterOptions{
		Output:        *output,
		ManagerID:     *managerID,
		InstructionID: *instructionID,
		ModelID:       *modelID,
		TimeStart:     *timeStart,
		TimeEnd:       *timeEnd,
		Kind:          *kind,
		Stage:         *stage,
	}

	n, err := commands.RunFilter(fs.Arg(0), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Filtered %d events to %s\n", n, opts.Output)
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `cm-log stats - Show statistics about the trace file

Usage:
  cm-log stats <file.cmlog>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunStats(fs.Arg(0), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
