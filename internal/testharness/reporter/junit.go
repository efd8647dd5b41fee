package reporter

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/graphcache/consistency-go/internal/testharness/engine"
)

// JUnitReporter writes JUnit XML for CI systems. Each scenario is a test
// case; its system-out holds the step activity and a failure holds the
// failing step.
type JUnitReporter struct {
	writer io.Writer
}

// NewJUnitReporter creates a new JUnit reporter.
func NewJUnitReporter(w io.Writer) *JUnitReporter {
	return &JUnitReporter{writer: w}
}

type junitSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Time       string          `xml:"time,attr"`
	Properties []junitProperty `xml:"properties>property,omitempty"`
	Cases      []junitCase     `xml:"testcase"`
}

type junitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Skipped   *junitSkipped `xml:"skipped"`
	Failure   *junitFailure `xml:"failure"`
	SystemOut *junitText    `xml:"system-out"`
}

type junitSkipped struct {
	Message string `xml:"message,attr"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",cdata"`
}

type junitText struct {
	Body string `xml:",cdata"`
}

// Failure types.
const (
	failureExpectation = "expectation"
	failureAction      = "action"
)

// ReportSuite writes the suite as one testsuite element.
func (r *JUnitReporter) ReportSuite(result *engine.SuiteResult) {
	suite := junitSuite{
		Name:     result.SuiteName,
		Tests:    len(result.Results),
		Failures: result.FailCount,
		Skipped:  result.SkipCount,
		Time:     seconds(result.Duration.Seconds()),
	}

	totals := totalsOf(result.Results)
	for _, stage := range sortedKeys(totals.Stages) {
		suite.Properties = append(suite.Properties, junitProperty{
			Name:  "instructions." + strings.ToLower(stage),
			Value: fmt.Sprint(totals.Stages[stage]),
		})
	}
	suite.Properties = append(suite.Properties, junitProperty{Name: "callbacks", Value: fmt.Sprint(totals.Callbacks)})
	for _, reason := range sortedKeys(totals.Errors) {
		suite.Properties = append(suite.Properties, junitProperty{
			Name:  "critical_errors." + reason,
			Value: fmt.Sprint(totals.Errors[reason]),
		})
	}

	for _, sr := range result.Results {
		suite.Cases = append(suite.Cases, toJUnitCase(sr))
	}

	data, err := xml.MarshalIndent(suite, "", "  ")
	if err != nil {
		fmt.Fprintf(r.writer, "<!-- failed to marshal: %s -->\n", err)
		return
	}
	fmt.Fprintf(r.writer, "%s%s\n", xml.Header, data)
}

// ReportScenario writes one scenario wrapped in its own testsuite.
func (r *JUnitReporter) ReportScenario(result *engine.ScenarioResult) {
	suite := &engine.SuiteResult{
		SuiteName: result.Scenario.ID,
		Results:   []*engine.ScenarioResult{result},
		Duration:  result.Duration,
	}
	switch {
	case result.Skipped:
		suite.SkipCount = 1
	case result.Passed:
		suite.PassCount = 1
	default:
		suite.FailCount = 1
	}
	r.ReportSuite(suite)
}

func toJUnitCase(result *engine.ScenarioResult) junitCase {
	sc := result.Scenario
	tc := junitCase{
		Name:      sc.Name,
		Classname: sc.ID,
		Time:      seconds(result.Duration.Seconds()),
	}
	if tc.Name == "" {
		tc.Name = sc.ID
	}

	if result.Skipped {
		tc.Skipped = &junitSkipped{Message: result.SkipReason}
		return tc
	}

	var out []string
	if result.ManagerID != "" {
		out = append(out, "manager "+result.ManagerID)
	}
	for _, step := range result.StepResults {
		out = append(out, stepTitle(step))
		out = append(out, indent(activity(step), "  ")...)
	}
	tc.SystemOut = &junitText{Body: strings.Join(out, "\n")}

	if result.Passed {
		return tc
	}
	tc.Failure = &junitFailure{Type: failureAction}
	if result.Error != nil {
		tc.Failure.Message = result.Error.Error()
	}
	if n := len(result.StepResults); n > 0 && !result.StepResults[n-1].Passed {
		last := result.StepResults[n-1]
		if len(last.ExpectResults) > 0 {
			tc.Failure.Type = failureExpectation
		}
		tc.Failure.Body = strings.Join(stepReport(last), "\n")
	}
	return tc
}

func seconds(s float64) string {
	return fmt.Sprintf("%.3f", s)
}
