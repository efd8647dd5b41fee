// Package commands implements the cm-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/graphcache/consistency-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Kind    *log.Kind
	Stage   *log.Stage
	ModelID string
}

func (f ViewFilter) filter() log.Filter {
	return log.Filter{Kind: f.Kind, Stage: f.Stage, ModelID: f.ModelID}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [mgr:id] #seq KIND STAGE
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [mgr:%s]", ts, shortenID(event.ManagerID))
	if event.Sequence > 0 {
		fmt.Fprintf(w, " #%d", event.Sequence)
	}
	fmt.Fprintf(w, " %s %s\n", event.Kind, event.Stage)

	if event.InstructionID != "" {
		fmt.Fprintf(w, "  Instruction: %s\n", event.InstructionID)
	}

	switch {
	case event.Instruction != nil:
		formatInstructionDetails(w, event.Instruction)
	case event.GC != nil:
		formatGCDetails(w, event.GC)
	}
	if event.Error != nil {
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenID returns the first 8 characters of an ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatInstructionDetails(w io.Writer, ins *log.InstructionEvent) {
	if len(ins.IDs) > 0 {
		fmt.Fprintf(w, "  IDs: %s", strings.Join(ins.IDs, ", "))
		if ins.Truncated {
			fmt.Fprint(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
	if ins.Impacted > 0 || ins.Notified > 0 {
		fmt.Fprintf(w, "  Listeners: %d impacted, %d notified\n", ins.Impacted, ins.Notified)
	}
	if ins.Paused > 0 {
		fmt.Fprintf(w, "  Paused: %d\n", ins.Paused)
	}
	if ins.Global > 0 {
		fmt.Fprintf(w, "  Global: %d\n", ins.Global)
	}
	if ins.Dropped > 0 {
		fmt.Fprintf(w, "  Dropped: %d\n", ins.Dropped)
	}
	if ins.ProcessingTime != nil {
		fmt.Fprintf(w, "  Duration: %s\n", formatDuration(*ins.ProcessingTime))
	}
}

func formatGCDetails(w io.Writer, gc *log.GCEvent) {
	fmt.Fprintf(w, "  Trigger: %s\n", gc.Trigger)
	fmt.Fprintf(w, "  Buckets: %d -> %d\n", gc.BucketsBefore, gc.BucketsAfter)
	if gc.SlotsPruned > 0 {
		fmt.Fprintf(w, "  Slots pruned: %d\n", gc.SlotsPruned)
	}
	if gc.PausedDropped > 0 {
		fmt.Fprintf(w, "  Paused dropped: %d\n", gc.PausedDropped)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Reason: %s\n", err.Reason)
	if err.ModelID != "" {
		fmt.Fprintf(w, "  Model: %s\n", err.ModelID)
	}
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseKindFlag parses a kind string from command-line flag (case-insensitive).
func ParseKindFlag(s string) (log.Kind, error) {
	return parseKind(s)
}

func parseKind(s string) (log.Kind, error) {
	switch strings.ToLower(s) {
	case "update":
		return log.KindUpdate, nil
	case "delete":
		return log.KindDelete, nil
	case "resume":
		return log.KindResume, nil
	case "clear":
		return log.KindClear, nil
	case "barrier":
		return log.KindBarrier, nil
	case "gc":
		return log.KindGC, nil
	default:
		return 0, fmt.Errorf("invalid kind: %s (must be update, delete, resume, clear, barrier, or gc)", s)
	}
}

// ParseStageFlag parses a stage string from command-line flag (case-insensitive).
func ParseStageFlag(s string) (log.Stage, error) {
	return parseStage(s)
}

func parseStage(s string) (log.Stage, error) {
	switch strings.ToLower(s) {
	case "enqueued":
		return log.StageEnqueued, nil
	case "committed":
		return log.StageCommitted, nil
	case "noop":
		return log.StageNoOp, nil
	case "cancelled":
		return log.StageCancelled, nil
	case "failed":
		return log.StageFailed, nil
	case "collected":
		return log.StageCollected, nil
	default:
		return 0, fmt.Errorf("invalid stage: %s (must be enqueued, committed, noop, cancelled, failed, or collected)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter.filter())
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}
