package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/graphcache/consistency-go/internal/testharness/assertions"
	"github.com/graphcache/consistency-go/internal/testharness/loader"
	"github.com/graphcache/consistency-go/internal/testmodel"
	"github.com/graphcache/consistency-go/pkg/batch"
	"github.com/graphcache/consistency-go/pkg/consistency"
	"github.com/graphcache/consistency-go/pkg/log"
	"github.com/graphcache/consistency-go/pkg/model"
)

// Engine executes scenarios.
type Engine struct {
	config   *EngineConfig
	handlers map[string]ActionHandler
	checkers map[string]ExpectChecker
	mu       sync.RWMutex
}

// New creates a new engine with default configuration.
func New() *Engine {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a new engine with the given configuration.
func NewWithConfig(config *EngineConfig) *Engine {
	if config == nil {
		config = DefaultConfig()
	}

	e := &Engine{
		config:   config,
		handlers: make(map[string]ActionHandler),
		checkers: make(map[string]ExpectChecker),
	}

	e.registerDefaultHandlers()
	e.RegisterChecker(CheckerNameDefault, defaultChecker)
	e.RegisterChecker(CheckerNameModel, modelChecker)

	return e
}

// RegisterHandler registers an action handler.
func (e *Engine) RegisterHandler(action string, handler ActionHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[action] = handler
}

// RegisterChecker registers an expectation checker. It applies to the
// exact key and to every key ending in "."+key.
func (e *Engine) RegisterChecker(key string, checker ExpectChecker) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.checkers[key] = checker
}

// Run executes a single scenario on a fresh manager.
func (e *Engine) Run(ctx context.Context, sc *loader.Scenario) *ScenarioResult {
	result := &ScenarioResult{
		Scenario:  sc,
		StartTime: time.Now(),
	}
	finish := func() *ScenarioResult {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		return result
	}

	if sc.Skip {
		result.Skipped = true
		result.SkipReason = sc.SkipReason
		if result.SkipReason == "" {
			result.SkipReason = "skipped by scenario definition"
		}
		return finish()
	}

	timeout := e.config.DefaultTimeout
	if sc.Timeout != "" {
		if d, err := time.ParseDuration(sc.Timeout); err == nil {
			timeout = d
		}
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	trace := &traceRecorder{}
	manager := consistency.NewManagerWithConfig(consistency.Config{
		Dispatcher:  consistency.Inline{},
		Logger:      e.config.Logger,
		TraceLogger: log.NewMultiLogger(trace, e.config.TraceLogger),
	})
	defer manager.Close()
	result.ManagerID = manager.ID()

	state := NewExecutionState(manager)
	state.trace = trace
	if err := e.setup(sc, state); err != nil {
		result.Error = fmt.Errorf("setup failed: %w", err)
		return finish()
	}
	if err := manager.Sync(runCtx); err != nil {
		result.Error = fmt.Errorf("setup failed: %w", err)
		return finish()
	}
	trace.drain()

	result.Passed = true
	for i := range sc.Steps {
		sr := e.executeStep(runCtx, &sc.Steps[i], i, state)
		result.StepResults = append(result.StepResults, sr)
		if !sr.Passed {
			result.Passed = false
			result.Error = sr.Error
			break
		}
	}

	return finish()
}

// setup registers the declared listeners. Listeners that are members of a
// batch are only reachable through the batch.
func (e *Engine) setup(sc *loader.Scenario, state *ExecutionState) error {
	members := make(map[string]bool)
	for _, def := range sc.Listeners {
		for _, name := range def.Batch {
			members[name] = true
		}
	}

	for _, def := range sc.Listeners {
		var l consistency.Listener
		if len(def.Batch) > 0 {
			inner := make([]consistency.Listener, len(def.Batch))
			for i, name := range def.Batch {
				m, err := state.Listener(name)
				if err != nil {
					return err
				}
				inner[i] = m
			}
			b, err := batch.New(inner, state.Manager)
			if err != nil {
				return fmt.Errorf("listener %q: %w", def.Name, err)
			}
			state.addBatch(def.Name, b)
			l = b
		} else {
			tl := testmodel.NewListener(def.Model.Build())
			state.addListener(def.Name, tl)
			if !members[def.Name] {
				if err := state.Manager.AddListener(tl); err != nil {
					return fmt.Errorf("listener %q: %w", def.Name, err)
				}
			}
			l = tl
		}

		if def.Paused {
			if err := state.Manager.PauseListener(l); err != nil {
				return fmt.Errorf("listener %q: %w", def.Name, err)
			}
		}
	}

	if sc.Global {
		state.watchGlobal()
	}
	return nil
}

// executeStep executes a single step, waits for the manager to drain and
// checks the step's expectations.
func (e *Engine) executeStep(ctx context.Context, step *loader.Step, index int, state *ExecutionState) *StepResult {
	result := &StepResult{
		Step:          step,
		StepIndex:     index,
		ExpectResults: make(map[string]*ExpectResult),
		Output:        make(map[string]any),
	}

	startTime := time.Now()
	defer func() { result.Duration = time.Since(startTime) }()

	stepCtx, cancel := context.WithTimeout(ctx, e.config.StepTimeout)
	defer cancel()

	e.mu.RLock()
	handler, exists := e.handlers[step.Action]
	e.mu.RUnlock()

	if !exists {
		result.Error = fmt.Errorf("unknown action: %s", step.Action)
		return result
	}

	outputs, err := handler(stepCtx, step, state)
	if err != nil {
		result.Error = fmt.Errorf("%s: %w", step.Action, err)
		return result
	}
	if err := state.Manager.Sync(stepCtx); err != nil {
		result.Error = fmt.Errorf("%s: %w", step.Action, err)
		return result
	}

	state.collect()
	result.Instructions = state.trace.drain()
	result.Deliveries, result.Errors = state.observe()
	for k, v := range outputs {
		state.Set(k, v)
		result.Output[k] = v
	}

	result.Passed = true
	for key, expected := range step.Expect {
		er := e.checkExpectation(key, expected, state)
		result.ExpectResults[key] = er
		if !er.Passed {
			result.Passed = false
			result.Error = fmt.Errorf("expectation failed: %s - %s", key, er.Message)
		}
	}

	return result
}

// checkExpectation checks a single expectation.
func (e *Engine) checkExpectation(key string, expected any, state *ExecutionState) *ExpectResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	checker, exists := e.checkers[key]
	if !exists {
		if i := strings.LastIndexByte(key, '.'); i >= 0 {
			checker, exists = e.checkers[key[i+1:]]
		}
	}
	if !exists {
		checker = e.checkers[CheckerNameDefault]
	}
	return checker(key, expected, state)
}

// Checker registration names.
const (
	CheckerNameDefault = "default"
	CheckerNameModel   = "model"
)

// defaultChecker compares printed forms or applies an operator map.
func defaultChecker(key string, expected any, state *ExecutionState) *ExpectResult {
	actual, exists := state.Get(key)
	if !exists {
		return &ExpectResult{
			Key:      key,
			Expected: expected,
			Passed:   false,
			Message:  fmt.Sprintf("key %q not found in outputs", key),
		}
	}

	r := assertions.Evaluate(expected, actual)
	result := &ExpectResult{
		Key:      key,
		Expected: expected,
		Actual:   actual,
		Passed:   r.Passed,
		Message:  r.Message,
	}
	if r.Passed {
		result.Message = fmt.Sprintf("%s: %s", key, r.Message)
	}
	return result
}

// modelChecker decodes expected as a node spec and compares structurally.
// An expected null means the listener holds no model.
func modelChecker(key string, expected any, state *ExecutionState) *ExpectResult {
	result := &ExpectResult{Key: key, Expected: expected}

	actual, exists := state.Get(key)
	if !exists {
		result.Message = fmt.Sprintf("key %q not found in outputs", key)
		return result
	}
	result.Actual = actual

	spec, err := loader.DecodeNodeSpec(expected)
	if err != nil {
		result.Message = fmt.Sprintf("invalid expected model: %v", err)
		return result
	}

	want := spec.Build()
	result.Expected = want
	got, _ := actual.(model.Node)
	result.Passed = model.Equal(want, got)
	if result.Passed {
		result.Message = fmt.Sprintf("%s = %v", key, got)
	} else {
		result.Message = fmt.Sprintf("expected %v, got %v", want, got)
	}
	return result
}

// RunSuite executes scenarios in order.
func (e *Engine) RunSuite(ctx context.Context, scenarios []*loader.Scenario) *SuiteResult {
	result := &SuiteResult{SuiteName: e.config.SuiteName}

	startTime := time.Now()
	defer func() { result.Duration = time.Since(startTime) }()

	for _, sc := range scenarios {
		select {
		case <-ctx.Done():
			return result
		default:
		}

		sr := e.Run(ctx, sc)
		result.Results = append(result.Results, sr)

		switch {
		case sr.Skipped:
			result.SkipCount++
		case sr.Passed:
			result.PassCount++
		default:
			result.FailCount++
		}

		if e.config.OnScenarioComplete != nil {
			e.config.OnScenarioComplete(sr)
		}

		if !sr.Passed && !sr.Skipped && e.config.StopOnFirstFailure {
			break
		}
	}

	return result
}
