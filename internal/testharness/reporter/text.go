package reporter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/graphcache/consistency-go/internal/testharness/engine"
)

// TextReporter writes a plain text report. Failed scenarios always show
// their steps; verbose mode shows the steps of every scenario.
type TextReporter struct {
	writer  io.Writer
	verbose bool
}

// NewTextReporter creates a new text reporter.
func NewTextReporter(w io.Writer, verbose bool) *TextReporter {
	return &TextReporter{writer: w, verbose: verbose}
}

// ReportSuite writes every scenario followed by the run totals.
func (r *TextReporter) ReportSuite(result *engine.SuiteResult) {
	fmt.Fprintf(r.writer, "suite %s: %d scenarios in %s\n\n",
		result.SuiteName, len(result.Results), result.Duration.Round(time.Millisecond))

	for _, sr := range result.Results {
		r.ReportScenario(sr)
	}

	fmt.Fprintf(r.writer, "\n%d passed, %d failed, %d skipped\n",
		result.PassCount, result.FailCount, result.SkipCount)
	fmt.Fprintf(r.writer, "%s\n", totalsOf(result.Results))
}

// ReportScenario writes one scenario.
func (r *TextReporter) ReportScenario(result *engine.ScenarioResult) {
	sc := result.Scenario
	name := sc.ID
	if sc.Name != "" {
		name += " " + sc.Name
	}
	st := strings.ToUpper(status(result))[:4]

	if result.Skipped {
		fmt.Fprintf(r.writer, "%s %s: %s\n", st, name, result.SkipReason)
		return
	}
	fmt.Fprintf(r.writer, "%s %s (%s, manager %s)\n",
		st, name, result.Duration.Round(time.Millisecond), shortID(result.ManagerID))

	if result.Passed && !r.verbose {
		return
	}
	for _, step := range result.StepResults {
		for _, line := range stepReport(step) {
			fmt.Fprintf(r.writer, "    %s\n", line)
		}
	}
	if !result.Passed && result.Error != nil && len(result.StepResults) == 0 {
		fmt.Fprintf(r.writer, "    %v\n", result.Error)
	}
}
