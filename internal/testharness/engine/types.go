// Package engine runs YAML scenarios against a consistency manager.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/graphcache/consistency-go/internal/testharness/loader"
	"github.com/graphcache/consistency-go/pkg/log"
)

// ScenarioResult represents the outcome of a single scenario.
type ScenarioResult struct {
	// Scenario is the scenario that was executed.
	Scenario *loader.Scenario

	// Passed indicates if all steps passed.
	Passed bool

	// Error is the error that caused failure, if any.
	Error error

	// StepResults contains results for each step.
	StepResults []*StepResult

	// ManagerID is the id of the manager the scenario ran on.
	ManagerID string

	// Duration is how long the scenario took.
	Duration time.Duration

	// StartTime when the scenario started.
	StartTime time.Time

	// EndTime when the scenario finished.
	EndTime time.Time

	// Skipped indicates if the scenario was skipped.
	Skipped bool

	// SkipReason explains why the scenario was skipped.
	SkipReason string
}

// StepResult represents the outcome of a single step.
type StepResult struct {
	// Step is the step that was executed.
	Step *loader.Step

	// StepIndex is the index of this step (0-based).
	StepIndex int

	// Passed indicates if the step passed.
	Passed bool

	// Error is the error that caused failure, if any.
	Error error

	// ExpectResults maps expectation keys to their assertion results.
	ExpectResults map[string]*ExpectResult

	// Duration is how long the step took.
	Duration time.Duration

	// Output contains the outputs produced by the step's action.
	Output map[string]any

	// Instructions lists the instructions that finished during the step,
	// in the order the manager traced them.
	Instructions []InstructionTrace

	// Deliveries lists the listeners called back during the step.
	Deliveries []Delivery

	// Errors lists the critical errors reported during the step as
	// "Reason(id)".
	Errors []string
}

// InstructionTrace is the final trace event of one instruction.
type InstructionTrace struct {
	ID    string
	Kind  log.Kind
	Stage log.Stage

	// IDs are the model identifiers the instruction carried.
	IDs []string

	Notified int
	Paused   int
	Global   int
	Dropped  int

	// Reason is set for failed instructions.
	Reason string
}

// Delivery summarises the callbacks one listener received in a step.
// Changed, Deleted, Updated and Context describe the last callback.
type Delivery struct {
	Listener string
	Calls    int

	// Updated names the batch members that changed. Batches only.
	Updated []string

	Changed []string
	Deleted []string
	Context any
}

// ExpectResult represents the result of checking an expectation.
type ExpectResult struct {
	// Key is the expectation key (e.g., "a.changed").
	Key string

	// Expected is the expected value.
	Expected any

	// Actual is the actual value.
	Actual any

	// Passed indicates if the expectation was met.
	Passed bool

	// Message describes the result.
	Message string
}

// SuiteResult represents the outcome of running several scenarios.
type SuiteResult struct {
	// SuiteName identifies the run.
	SuiteName string

	// Results contains results for each scenario.
	Results []*ScenarioResult

	// PassCount is the number of passed scenarios.
	PassCount int

	// FailCount is the number of failed scenarios.
	FailCount int

	// SkipCount is the number of skipped scenarios.
	SkipCount int

	// Duration is the total time for all scenarios.
	Duration time.Duration
}

// ActionHandler processes a scenario step action.
// Returns outputs to make available to expectations, and an error if the
// action failed.
type ActionHandler func(ctx context.Context, step *loader.Step, state *ExecutionState) (map[string]any, error)

// ExpectChecker checks an expectation against the collected outputs.
type ExpectChecker func(key string, expected any, state *ExecutionState) *ExpectResult

// EngineConfig configures the scenario engine.
type EngineConfig struct {
	// SuiteName is reported as the suite name.
	SuiteName string

	// DefaultTimeout is the default timeout for scenarios.
	DefaultTimeout time.Duration

	// StepTimeout is the default timeout for individual steps.
	StepTimeout time.Duration

	// StopOnFirstFailure stops execution after the first scenario failure.
	StopOnFirstFailure bool

	// OnScenarioComplete is called after each scenario.
	OnScenarioComplete func(*ScenarioResult)

	// Logger is handed to every manager. Nil disables logging.
	Logger *slog.Logger

	// TraceLogger is handed to every manager. Nil disables tracing.
	TraceLogger log.Logger
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *EngineConfig {
	return &EngineConfig{
		SuiteName:      "Scenarios",
		DefaultTimeout: 10 * time.Second,
		StepTimeout:    5 * time.Second,
	}
}
