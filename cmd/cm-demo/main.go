// Command cm-demo is an interactive console over a consistency manager.
//
// It fetches a simulated stream of updates, shows it in a stream view and
// lets you open detail views on single updates. Liking or deleting an
// update in one view reaches every other view holding it.
//
// Usage:
//
//	cm-demo [flags]
//
// Flags:
//
//	-count int             Number of updates in the stream (default 20)
//	-latency duration      Simulated fetch latency (default 300ms)
//	-gc-interval duration  Periodic garbage collection interval (default 5m, 0 disables)
//	-log-level string      Log level: debug, info, warn, error (default "warn")
//	-trace string          File path for trace event logging (CBOR format)
//
// Example session:
//
//	demo> load
//	demo> open 3
//	demo> hide 3
//	demo> like 3
//	demo> show 3
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/graphcache/consistency-go/cmd/cm-demo/interactive"
	"github.com/graphcache/consistency-go/pkg/consistency"
	"github.com/graphcache/consistency-go/pkg/examples"
	cmlog "github.com/graphcache/consistency-go/pkg/log"
)

func main() {
	feedConfig := examples.DefaultFeedConfig()
	var (
		gcInterval time.Duration
		logLevel   string
		trace      string
	)

	flag.IntVar(&feedConfig.Count, "count", feedConfig.Count, "Number of updates in the stream")
	flag.DurationVar(&feedConfig.Latency, "latency", 300*time.Millisecond, "Simulated fetch latency")
	flag.DurationVar(&gcInterval, "gc-interval", consistency.DefaultGCInterval, "Periodic garbage collection interval (0 disables)")
	flag.StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	flag.StringVar(&trace, "trace", "", "File path for trace event logging (CBOR format)")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q\n", logLevel)
		os.Exit(1)
	}

	// Log output goes to stderr until the console takes over the terminal.
	out := &switchWriter{w: os.Stderr}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))

	config := consistency.DefaultConfig()
	config.GCInterval = gcInterval
	config.Logger = logger

	var traceLogger *cmlog.FileLogger
	if trace != "" {
		var err error
		traceLogger, err = cmlog.NewFileLogger(trace)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create trace logger: %v\n", err)
			os.Exit(1)
		}
		config.TraceLogger = traceLogger
	}

	loop := consistency.NewEventLoop()
	config.Dispatcher = loop
	manager := consistency.NewManagerWithConfig(config)

	console, err := interactive.New(manager, loop, examples.NewFeedWithConfig(feedConfig))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	out.set(console.Stderr())

	logger.Info("manager started", "id", manager.ID(), "gc_interval", gcInterval)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	console.Run(ctx, cancel)

	manager.Close()
	loop.Close()
	if traceLogger != nil {
		traceLogger.Close()
		if n := traceLogger.Failures(); n > 0 {
			fmt.Fprintf(os.Stderr, "Warning: %d trace events could not be written\n", n)
		}
		fmt.Fprintf(os.Stderr, "Trace written to %s (view with: cm-log view %s)\n", trace, trace)
	}
}

// switchWriter is an io.Writer whose target can change while in use.
type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *switchWriter) set(w io.Writer) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}
