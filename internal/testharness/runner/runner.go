// Package runner loads scenario files, filters them and runs them through
// the engine, writing a report in the configured format.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/graphcache/consistency-go/internal/testharness/engine"
	"github.com/graphcache/consistency-go/internal/testharness/loader"
	"github.com/graphcache/consistency-go/internal/testharness/reporter"
	"github.com/graphcache/consistency-go/pkg/log"
)

// Output formats.
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatJUnit = "junit"
)

// Config configures the scenario runner.
type Config struct {
	// Dir is the scenario directory.
	Dir string

	// Files filters which YAML files to load (comma-separated glob
	// patterns matched against the file name stem, e.g. "pause*,gc").
	Files string

	// Pattern filters scenarios by ID or name (comma-separated globs).
	Pattern string

	// Tags includes only scenarios with at least one of these tags (comma-separated).
	Tags string

	// ExcludeTags excludes scenarios with any of these tags (comma-separated).
	ExcludeTags string

	// Timeout is the default scenario timeout.
	Timeout time.Duration

	// StopOnFirstFailure stops the suite after the first failed scenario.
	StopOnFirstFailure bool

	// Verbose enables step-level output.
	Verbose bool

	// Output is where to write results.
	Output io.Writer

	// OutputFormat is "text", "json", or "junit".
	OutputFormat string

	// Shuffle randomizes scenario order. Every scenario runs on a fresh
	// manager, so order must never matter.
	Shuffle bool

	// ShuffleSeed is the seed for shuffle randomization.
	// 0 means auto-generate from current time.
	ShuffleSeed uint64

	// RunID identifies the run in the suite name. Generated when empty.
	RunID string

	// Logger receives manager diagnostics. Nil disables logging.
	Logger *slog.Logger

	// TraceLogger receives trace events from every manager.
	// Set to nil to disable tracing.
	TraceLogger log.Logger
}

// Runner runs scenario suites.
type Runner struct {
	config   *Config
	engine   *engine.Engine
	reporter reporter.Reporter
}

// New creates a runner. Unset fields get defaults.
func New(config *Config) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.RunID == "" {
		config.RunID = uuid.NewString()
	}

	ec := engine.DefaultConfig()
	ec.SuiteName = fmt.Sprintf("Consistency Scenarios (run %s)", config.RunID)
	ec.StopOnFirstFailure = config.StopOnFirstFailure
	ec.Logger = config.Logger
	ec.TraceLogger = config.TraceLogger
	if config.Timeout > 0 {
		ec.DefaultTimeout = config.Timeout
	}

	var rep reporter.Reporter
	switch config.OutputFormat {
	case FormatJSON:
		rep = reporter.NewJSONReporter(config.Output, true)
	case FormatJUnit:
		rep = reporter.NewJUnitReporter(config.Output)
	default:
		rep = reporter.NewTextReporter(config.Output, config.Verbose)
	}

	return &Runner{
		config:   config,
		engine:   engine.NewWithConfig(ec),
		reporter: rep,
	}
}

// Engine returns the underlying engine so callers can register handlers
// and checkers before Run.
func (r *Runner) Engine() *engine.Engine {
	return r.engine
}

// Run loads, filters and executes the scenarios, then reports the suite.
func (r *Runner) Run(ctx context.Context) (*engine.SuiteResult, error) {
	scenarios, err := loadScenarios(r.config.Dir, r.config.Files)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenarios: %w", err)
	}

	if r.config.Pattern != "" {
		scenarios = filterByPattern(scenarios, r.config.Pattern)
	}
	if r.config.Tags != "" {
		scenarios = filterByTags(scenarios, r.config.Tags)
	}
	if r.config.ExcludeTags != "" {
		scenarios = filterByExcludeTags(scenarios, r.config.ExcludeTags)
	}

	if len(scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios found matching filters (pattern=%q, files=%q, tags=%q, exclude-tags=%q)",
			r.config.Pattern, r.config.Files, r.config.Tags, r.config.ExcludeTags)
	}

	if r.config.Shuffle {
		seed := r.config.ShuffleSeed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		shuffle(scenarios, seed)
		if r.config.Logger != nil {
			r.config.Logger.Info("shuffled scenarios", "seed", seed)
		}
	}

	result := r.engine.RunSuite(ctx, scenarios)
	r.reporter.ReportSuite(result)
	return result, nil
}

func shuffle(scenarios []*loader.Scenario, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed))
	rng.Shuffle(len(scenarios), func(i, j int) {
		scenarios[i], scenarios[j] = scenarios[j], scenarios[i]
	})
}
