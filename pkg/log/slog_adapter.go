package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger.
// Useful for development when you want to see engine activity in console.
type SlogAdapter struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given
// slog.Logger at Debug level.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger, level: slog.LevelDebug}
}

// WithLevel returns a copy of the adapter that logs at level.
func (a *SlogAdapter) WithLevel(level slog.Level) *SlogAdapter {
	return &SlogAdapter{logger: a.logger, level: level}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("manager_id", event.ManagerID),
		slog.String("kind", event.Kind.String()),
		slog.String("stage", event.Stage.String()),
	}

	if event.InstructionID != "" {
		attrs = append(attrs, slog.String("instruction_id", event.InstructionID))
	}
	if event.Sequence != 0 {
		attrs = append(attrs, slog.Uint64("seq", event.Sequence))
	}

	// Add type-specific attributes
	switch {
	case event.Instruction != nil:
		ins := event.Instruction
		attrs = append(attrs,
			slog.Int("ids", len(ins.IDs)),
			slog.Int("impacted", ins.Impacted),
			slog.Int("notified", ins.Notified),
		)
		if ins.Paused > 0 {
			attrs = append(attrs, slog.Int("paused", ins.Paused))
		}
		if ins.Global > 0 {
			attrs = append(attrs, slog.Int("global", ins.Global))
		}
		if ins.Dropped > 0 {
			attrs = append(attrs, slog.Int("dropped", ins.Dropped))
		}
		if ins.ProcessingTime != nil {
			attrs = append(attrs, slog.Duration("processing_time", *ins.ProcessingTime))
		}
	case event.GC != nil:
		attrs = append(attrs,
			slog.String("trigger", event.GC.Trigger.String()),
			slog.Int("buckets_before", event.GC.BucketsBefore),
			slog.Int("buckets_after", event.GC.BucketsAfter),
			slog.Int("slots_pruned", event.GC.SlotsPruned),
		)
		if event.GC.PausedDropped > 0 {
			attrs = append(attrs, slog.Int("paused_dropped", event.GC.PausedDropped))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("reason", event.Error.Reason),
			slog.String("error_msg", event.Error.Message),
		)
		if event.Error.ModelID != "" {
			attrs = append(attrs, slog.String("model_id", event.Error.ModelID))
		}
	}

	a.logger.LogAttrs(context.Background(), a.level, "trace", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
