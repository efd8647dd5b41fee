// Command cm-scenario runs YAML scenarios against fresh consistency managers.
//
// Each scenario declares listeners holding model trees, then a list of
// steps (update, delete, pause, resume, gc, clear, ...) with expectations
// on what every listener was notified of.
//
// Usage:
//
//	cm-scenario [flags] [scenario-pattern]
//
// Flags:
//
//	-dir string             Path to the scenario directory (default "testdata/scenarios")
//	-files string           Comma-separated file name globs to load
//	-tags string            Run only scenarios with one of these tags
//	-exclude-tags string    Skip scenarios with any of these tags
//	-timeout duration       Per-scenario timeout (default 10s)
//	-stop-on-failure        Stop after the first failed scenario
//	-shuffle                Run scenarios in random order
//	-seed uint              Seed for -shuffle (default: time based)
//	-verbose                Enable verbose output
//	-json                   Output results as JSON
//	-junit                  Output results as JUnit XML
//	-trace string           File path for trace event logging (CBOR format)
//
// Examples:
//
//	# Run every scenario
//	cm-scenario
//
//	# Run the pause scenarios with step details
//	cm-scenario -tags pause -verbose
//
//	# Record a trace for cm-log
//	cm-scenario -trace run.cbor "SC-DEL-*"
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/graphcache/consistency-go/internal/testharness/runner"
	cmlog "github.com/graphcache/consistency-go/pkg/log"
)

var (
	dir           = flag.String("dir", "testdata/scenarios", "Path to the scenario directory")
	files         = flag.String("files", "", "Comma-separated file name globs to load")
	tags          = flag.String("tags", "", "Run only scenarios with one of these tags")
	excludeTags   = flag.String("exclude-tags", "", "Skip scenarios with any of these tags")
	timeout       = flag.Duration("timeout", 10*time.Second, "Per-scenario timeout")
	stopOnFailure = flag.Bool("stop-on-failure", false, "Stop after the first failed scenario")
	shuffle       = flag.Bool("shuffle", false, "Run scenarios in random order")
	seed          = flag.Uint64("seed", 0, "Seed for -shuffle (default: time based)")
	verbose       = flag.Bool("verbose", false, "Enable verbose output")
	jsonOut       = flag.Bool("json", false, "Output results as JSON")
	junitOut      = flag.Bool("junit", false, "Output results as JUnit XML")
	trace         = flag.String("trace", "", "File path for trace event logging (CBOR format)")
)

func main() {
	flag.Parse()

	pattern := ""
	if flag.NArg() > 0 {
		pattern = flag.Arg(0)
	}

	outputFormat := runner.FormatText
	if *jsonOut {
		outputFormat = runner.FormatJSON
	} else if *junitOut {
		outputFormat = runner.FormatJUnit
	}

	runID := uuid.NewString()

	if outputFormat == runner.FormatText {
		log.SetFlags(log.Ltime)
		if *verbose {
			log.SetFlags(log.Ltime | log.Lmicroseconds)
		}
		log.Printf("Run: %s", runID)
		log.Printf("Scenarios: %s", *dir)
		if pattern != "" {
			log.Printf("Pattern: %s", pattern)
		}
		log.Println()
	}

	var traceLogger *cmlog.FileLogger
	if *trace != "" {
		var err error
		traceLogger, err = cmlog.NewFileLogger(*trace)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create trace logger: %v\n", err)
			os.Exit(1)
		}
		if outputFormat == runner.FormatText {
			log.Printf("Trace logging to: %s", *trace)
		}
	}

	config := &runner.Config{
		Dir:                *dir,
		Files:              *files,
		Pattern:            pattern,
		Tags:               *tags,
		ExcludeTags:        *excludeTags,
		Timeout:            *timeout,
		StopOnFirstFailure: *stopOnFailure,
		Shuffle:            *shuffle,
		ShuffleSeed:        *seed,
		Verbose:            *verbose,
		Output:             os.Stdout,
		OutputFormat:       outputFormat,
		RunID:              runID,
	}
	if *verbose {
		config.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	// Only set the logger when non-nil to avoid a typed-nil interface.
	if traceLogger != nil {
		config.TraceLogger = traceLogger
	}

	r := runner.New(config)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	result, err := r.Run(ctx)
	cancel()

	if traceLogger != nil {
		traceLogger.Close()
		if n := traceLogger.Failures(); n > 0 {
			log.Printf("Warning: %d trace events could not be written", n)
		}
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if result.FailCount > 0 {
		os.Exit(1)
	}
}
