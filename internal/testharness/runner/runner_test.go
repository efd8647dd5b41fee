package runner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/graphcache/consistency-go/internal/testharness/reporter"
	"github.com/graphcache/consistency-go/internal/testharness/runner"
)

const scenarioDir = "../../../testdata/scenarios"

func TestRunnerTextOutput(t *testing.T) {
	var buf bytes.Buffer
	r := runner.New(&runner.Config{
		Dir:          scenarioDir,
		Timeout:      30 * time.Second,
		Output:       &buf,
		OutputFormat: runner.FormatText,
		RunID:        "run-1",
	})

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.FailCount != 0 {
		t.Fatalf("expected all scenarios to pass:\n%s", buf.String())
	}
	if result.SuiteName != "Consistency Scenarios (run run-1)" {
		t.Errorf("unexpected suite name %q", result.SuiteName)
	}
	if !strings.Contains(buf.String(), "[PASS] SC-UPD-001") {
		t.Errorf("missing scenario line in output:\n%s", buf.String())
	}
}

func TestRunnerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	r := runner.New(&runner.Config{
		Dir:          scenarioDir,
		Tags:         "pause",
		Output:       &buf,
		OutputFormat: runner.FormatJSON,
	})

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var jr reporter.JSONSuite
	if err := json.Unmarshal(buf.Bytes(), &jr); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(jr.Scenarios) != len(result.Results) || len(jr.Scenarios) == 0 {
		t.Errorf("expected %d scenarios in report, got %d", len(result.Results), len(jr.Scenarios))
	}
	traced := 0
	for _, sc := range jr.Scenarios {
		for _, step := range sc.Steps {
			for _, ins := range step.Instructions {
				if (ins.ID == "" && ins.Kind != "GC") || ins.Stage == "ENQUEUED" {
					t.Errorf("%s step %d: unexpected instruction %+v", sc.ID, step.Index+1, ins)
				}
				traced++
			}
		}
	}
	if traced == 0 || jr.Totals.Stages["COMMITTED"] == 0 {
		t.Errorf("report carries no instruction traces: %+v", jr.Totals)
	}
	for _, sc := range jr.Scenarios {
		if !strings.HasPrefix(sc.ID, "SC-PAUSE") {
			t.Errorf("tag filter let %s through", sc.ID)
		}
		if sc.ManagerID == "" {
			t.Errorf("%s: missing manager id", sc.ID)
		}
	}
}

func TestRunnerJUnitOutput(t *testing.T) {
	var buf bytes.Buffer
	r := runner.New(&runner.Config{
		Dir:          scenarioDir,
		Pattern:      "SC-GC-*",
		Output:       &buf,
		OutputFormat: runner.FormatJUnit,
	})

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(buf.String(), `classname="SC-GC-001"`) {
		t.Errorf("missing testcase:\n%s", buf.String())
	}
}

func TestRunnerNoMatches(t *testing.T) {
	r := runner.New(&runner.Config{
		Dir:     scenarioDir,
		Pattern: "SC-NOPE-*",
		Output:  &bytes.Buffer{},
	})

	_, err := r.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "no scenarios found") {
		t.Errorf("expected no scenarios error, got %v", err)
	}
}

func TestRunnerMissingDirectory(t *testing.T) {
	r := runner.New(&runner.Config{
		Dir:    "does-not-exist",
		Output: &bytes.Buffer{},
	})

	if _, err := r.Run(context.Background()); err == nil {
		t.Error("expected load error")
	}
}

func TestRunnerShuffleIsReproducible(t *testing.T) {
	order := func() []string {
		r := runner.New(&runner.Config{
			Dir:         scenarioDir,
			Shuffle:     true,
			ShuffleSeed: 42,
			Output:      &bytes.Buffer{},
		})
		result, err := r.Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if result.FailCount != 0 {
			t.Fatalf("shuffled suite failed")
		}
		ids := make([]string, len(result.Results))
		for i, sr := range result.Results {
			ids[i] = sr.Scenario.ID
		}
		return ids
	}

	first, second := order(), order()
	if strings.Join(first, ",") != strings.Join(second, ",") {
		t.Errorf("same seed gave different orders:\n%v\n%v", first, second)
	}
}
