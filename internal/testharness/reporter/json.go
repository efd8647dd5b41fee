package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/graphcache/consistency-go/internal/testharness/engine"
)

// JSONReporter writes one JSON document per report.
type JSONReporter struct {
	writer io.Writer
	pretty bool
}

// NewJSONReporter creates a new JSON reporter.
func NewJSONReporter(w io.Writer, pretty bool) *JSONReporter {
	return &JSONReporter{writer: w, pretty: pretty}
}

// JSONSuite is the JSON form of a suite run.
type JSONSuite struct {
	Name      string         `json:"name"`
	Duration  string         `json:"duration"`
	Passed    int            `json:"passed"`
	Failed    int            `json:"failed"`
	Skipped   int            `json:"skipped"`
	Totals    Totals         `json:"totals"`
	Scenarios []JSONScenario `json:"scenarios"`
}

// JSONScenario is the JSON form of one scenario run.
type JSONScenario struct {
	ID         string     `json:"id"`
	Name       string     `json:"name,omitempty"`
	Status     string     `json:"status"`
	ManagerID  string     `json:"manager_id,omitempty"`
	Duration   string     `json:"duration"`
	Error      string     `json:"error,omitempty"`
	SkipReason string     `json:"skip_reason,omitempty"`
	Steps      []JSONStep `json:"steps,omitempty"`
}

// JSONStep is the JSON form of one step: what the manager did and how
// the expectations held up.
type JSONStep struct {
	Index        int               `json:"index"`
	Action       string            `json:"action"`
	Listener     string            `json:"listener,omitempty"`
	Context      string            `json:"context,omitempty"`
	Passed       bool              `json:"passed"`
	Duration     string            `json:"duration"`
	Error        string            `json:"error,omitempty"`
	Instructions []JSONInstruction `json:"instructions,omitempty"`
	Deliveries   []JSONDelivery    `json:"deliveries,omitempty"`
	Errors       []string          `json:"critical_errors,omitempty"`
	Expects      []JSONExpect      `json:"expects,omitempty"`
}

// JSONInstruction is the final trace event of an instruction.
type JSONInstruction struct {
	ID       string   `json:"id,omitempty"`
	Kind     string   `json:"kind"`
	Stage    string   `json:"stage"`
	IDs      []string `json:"ids,omitempty"`
	Notified int      `json:"notified,omitempty"`
	Paused   int      `json:"paused,omitempty"`
	Global   int      `json:"global,omitempty"`
	Dropped  int      `json:"dropped,omitempty"`
	Reason   string   `json:"reason,omitempty"`
}

// JSONDelivery is the callbacks one listener received in a step.
type JSONDelivery struct {
	Listener string   `json:"listener"`
	Calls    int      `json:"calls"`
	Updated  []string `json:"updated,omitempty"`
	Changed  []string `json:"changed"`
	Deleted  []string `json:"deleted"`
	Context  any      `json:"context,omitempty"`
}

// JSONExpect is one checked expectation. Model expectations carry both
// trees as indented lines.
type JSONExpect struct {
	Key          string   `json:"key"`
	Passed       bool     `json:"passed"`
	Message      string   `json:"message"`
	Expected     any      `json:"expected,omitempty"`
	Actual       any      `json:"actual,omitempty"`
	ExpectedTree []string `json:"expected_tree,omitempty"`
	ActualTree   []string `json:"actual_tree,omitempty"`
}

// ReportSuite writes the suite as one document.
func (r *JSONReporter) ReportSuite(result *engine.SuiteResult) {
	js := JSONSuite{
		Name:      result.SuiteName,
		Duration:  result.Duration.Round(time.Millisecond).String(),
		Passed:    result.PassCount,
		Failed:    result.FailCount,
		Skipped:   result.SkipCount,
		Totals:    totalsOf(result.Results),
		Scenarios: make([]JSONScenario, 0, len(result.Results)),
	}
	for _, sr := range result.Results {
		js.Scenarios = append(js.Scenarios, toJSONScenario(sr))
	}
	r.write(js)
}

// ReportScenario writes one scenario as a document.
func (r *JSONReporter) ReportScenario(result *engine.ScenarioResult) {
	r.write(toJSONScenario(result))
}

func toJSONScenario(result *engine.ScenarioResult) JSONScenario {
	js := JSONScenario{
		ID:         result.Scenario.ID,
		Name:       result.Scenario.Name,
		Status:     status(result),
		ManagerID:  result.ManagerID,
		Duration:   result.Duration.Round(time.Millisecond).String(),
		SkipReason: result.SkipReason,
	}
	if result.Error != nil {
		js.Error = result.Error.Error()
	}
	if !result.Skipped {
		js.SkipReason = ""
	}
	for _, sr := range result.StepResults {
		js.Steps = append(js.Steps, toJSONStep(sr))
	}
	return js
}

func toJSONStep(sr *engine.StepResult) JSONStep {
	step := JSONStep{
		Index:    sr.StepIndex,
		Action:   sr.Step.Action,
		Listener: sr.Step.Listener,
		Context:  sr.Step.Context,
		Passed:   sr.Passed,
		Duration: sr.Duration.Round(time.Millisecond).String(),
		Errors:   sr.Errors,
	}
	if sr.Error != nil {
		step.Error = sr.Error.Error()
	}

	for _, ins := range sr.Instructions {
		step.Instructions = append(step.Instructions, JSONInstruction{
			ID:       ins.ID,
			Kind:     ins.Kind.String(),
			Stage:    ins.Stage.String(),
			IDs:      ins.IDs,
			Notified: ins.Notified,
			Paused:   ins.Paused,
			Global:   ins.Global,
			Dropped:  ins.Dropped,
			Reason:   ins.Reason,
		})
	}
	for _, d := range sr.Deliveries {
		step.Deliveries = append(step.Deliveries, JSONDelivery{
			Listener: d.Listener,
			Calls:    d.Calls,
			Updated:  d.Updated,
			Changed:  nonNil(d.Changed),
			Deleted:  nonNil(d.Deleted),
			Context:  d.Context,
		})
	}

	for _, key := range sortedKeys(sr.ExpectResults) {
		er := sr.ExpectResults[key]
		je := JSONExpect{
			Key:      key,
			Passed:   er.Passed,
			Message:  er.Message,
			Expected: er.Expected,
			Actual:   er.Actual,
		}
		want, wok := asNode(er.Expected)
		got, gok := asNode(er.Actual)
		if wok && gok && (want != nil || got != nil) {
			je.ExpectedTree, je.ActualTree = treeDiff(want, got)
			je.Expected, je.Actual = nil, nil
		}
		step.Expects = append(step.Expects, je)
	}
	return step
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (r *JSONReporter) write(v any) {
	var data []byte
	var err error
	if r.pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		fmt.Fprintf(r.writer, "{\"error\": %q}\n", err.Error())
		return
	}
	fmt.Fprintln(r.writer, string(data))
}
