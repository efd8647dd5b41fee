// Package loader provides YAML scenario loading for the consistency test
// harness.
package loader

import "strconv"

// Scenario is a single scripted run against a fresh manager.
type Scenario struct {
	// ID is the unique scenario identifier (e.g., "SC-DEL-001").
	ID string `yaml:"id"`

	// Name is a human-readable name for the scenario.
	Name string `yaml:"name"`

	// Description explains what the scenario shows.
	Description string `yaml:"description"`

	// Listeners are registered before the first step, in order.
	Listeners []ListenerDef `yaml:"listeners"`

	// Global registers a global change listener.
	Global bool `yaml:"global,omitempty"`

	// Steps are the actions to execute in order.
	Steps []Step `yaml:"steps"`

	// Timeout is the maximum duration for the scenario (e.g., "5s").
	Timeout string `yaml:"timeout,omitempty"`

	// Tags for selecting scenarios.
	Tags []string `yaml:"tags,omitempty"`

	// Skip disables the scenario.
	Skip       bool   `yaml:"skip,omitempty"`
	SkipReason string `yaml:"skip_reason,omitempty"`
}

// HasTag reports whether the scenario carries tag.
func (s *Scenario) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ListenerDef declares a named listener.
type ListenerDef struct {
	// Name is how steps and expectations refer to the listener.
	Name string `yaml:"name"`

	// Model is the listener's initial model. Nil means no model.
	Model *NodeSpec `yaml:"model,omitempty"`

	// Batch lists previously declared listeners to wrap in a batch
	// listener. A batch has no model of its own.
	Batch []string `yaml:"batch,omitempty"`

	// Paused pauses the listener right after registration.
	Paused bool `yaml:"paused,omitempty"`
}

// Node kinds understood by NodeSpec.
const (
	KindTest       = "test"
	KindRequired   = "required"
	KindProjection = "projection"
	KindTombstone  = "tombstone"
)

// NodeSpec describes a model tree in YAML.
type NodeSpec struct {
	// Kind is one of test (default), required, projection or tombstone.
	Kind string `yaml:"kind,omitempty"`

	ID        string      `yaml:"id"`
	Data      int         `yaml:"data,omitempty"`
	OtherData int         `yaml:"other_data,omitempty"`
	Children  []*NodeSpec `yaml:"children,omitempty"`
	Required  *NodeSpec   `yaml:"required,omitempty"`
}

// Step is a single action in a scenario.
type Step struct {
	// Action is the action to perform (e.g., "update", "pause").
	Action string `yaml:"action"`

	// Listener names the listener the action applies to.
	Listener string `yaml:"listener,omitempty"`

	// Model is the model to update, delete or hand to a listener.
	Model *NodeSpec `yaml:"model,omitempty"`

	// Models are the roots of an update_models action.
	Models []*NodeSpec `yaml:"models,omitempty"`

	// Context is passed with the instruction.
	Context string `yaml:"context,omitempty"`

	// Expect maps output keys to expected values.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Description explains what this step does.
	Description string `yaml:"description,omitempty"`
}

// LoadError provides details about a scenario loading error.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Line is the line number where the error occurred (0 if unknown).
	Line int

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.Line > 0 {
		return e.File + ":" + strconv.Itoa(e.Line) + ": " + msg
	}
	if e.File == "" {
		return msg
	}
	return e.File + ": " + msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
