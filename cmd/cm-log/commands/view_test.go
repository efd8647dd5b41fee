package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/graphcache/consistency-go/pkg/log"
)

func TestFormatInstructionEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleEvents()[1])
	out := buf.String()

	for _, want := range []string{
		"2026-01-28T10:15:32.124456Z [mgr:3f2b9c4e] #1 UPDATE COMMITTED",
		"Instruction: ins-1",
		"IDs: 0, 1",
		"Listeners: 2 impacted, 2 notified",
		"Duration: 1.500ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatErrorEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleEvents()[2])
	out := buf.String()

	for _, want := range []string{"DELETE FAILED", "Reason: DeleteIDFailure", "Message: model has no identifier"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Model:") {
		t.Errorf("empty model id should not be printed:\n%s", out)
	}
}

func TestFormatGCEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleEvents()[3])
	out := buf.String()

	for _, want := range []string{"GC COLLECTED", "Trigger: LOW_MEMORY", "Buckets: 4 -> 2", "Slots pruned: 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "#") {
		t.Errorf("GC events carry no sequence:\n%s", out)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"500ns", "0.500us"},
		{"1500us", "1.500ms"},
		{"2500ms", "2.500s"},
	}
	for _, tt := range tests {
		d, err := time.ParseDuration(tt.in)
		if err != nil {
			t.Fatal(err)
		}
		if got := formatDuration(d); got != tt.want {
			t.Errorf("formatDuration(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseKindFlag(t *testing.T) {
	tests := []struct {
		in      string
		want    log.Kind
		wantErr bool
	}{
		{"update", log.KindUpdate, false},
		{"DELETE", log.KindDelete, false},
		{"Resume", log.KindResume, false},
		{"clear", log.KindClear, false},
		{"barrier", log.KindBarrier, false},
		{"gc", log.KindGC, false},
		{"bogus", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseKindFlag(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKindFlag(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseKindFlag(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseStageFlag(t *testing.T) {
	tests := []struct {
		in      string
		want    log.Stage
		wantErr bool
	}{
		{"enqueued", log.StageEnqueued, false},
		{"Committed", log.StageCommitted, false},
		{"noop", log.StageNoOp, false},
		{"cancelled", log.StageCancelled, false},
		{"failed", log.StageFailed, false},
		{"COLLECTED", log.StageCollected, false},
		{"done", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseStageFlag(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStageFlag(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseStageFlag(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRunView(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	if got := strings.Count(buf.String(), "[mgr:"); got != 4 {
		t.Errorf("expected 4 events, got %d", got)
	}
}

func TestRunViewFiltered(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	tests := []struct {
		name   string
		filter ViewFilter
		want   int
	}{
		{"kind", ViewFilter{Kind: ptr(log.KindUpdate)}, 2},
		{"stage", ViewFilter{Stage: ptr(log.StageCommitted)}, 1},
		{"model", ViewFilter{ModelID: "1"}, 2},
		{"kind and stage", ViewFilter{Kind: ptr(log.KindDelete), Stage: ptr(log.StageCommitted)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := RunView(path, tt.filter, &buf); err != nil {
				t.Fatalf("RunView failed: %v", err)
			}
			if got := strings.Count(buf.String(), "[mgr:"); got != tt.want {
				t.Errorf("expected %d events, got %d", tt.want, got)
			}
		})
	}
}

func TestRunViewMissingFile(t *testing.T) {
	if err := RunView("/nonexistent/trace.cmlog", ViewFilter{}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for missing file")
	}
}

func ptr[T any](v T) *T { return &v }
