package log

import (
	"time"
)

// Event represents one trace event emitted by the engine.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ManagerID identifies the engine instance (UUID).
	ManagerID string `cbor:"2,keyasint"`

	// InstructionID identifies the instruction (UUID), empty for GC.
	InstructionID string `cbor:"3,keyasint,omitempty"`

	// Sequence is the instruction's position in the worker queue.
	Sequence uint64 `cbor:"4,keyasint,omitempty"`

	// Kind of instruction.
	Kind Kind `cbor:"5,keyasint"`

	// Stage the instruction reached.
	Stage Stage `cbor:"6,keyasint"`

	// Type-specific payload (at most one of these is set).
	Instruction *InstructionEvent `cbor:"10,keyasint,omitempty"`
	GC          *GCEvent          `cbor:"11,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"12,keyasint,omitempty"`
}

// Kind identifies the instruction type.
type Kind uint8

const (
	// KindUpdate is an update of one or more models.
	KindUpdate Kind = 0
	// KindDelete is a deletion of one model.
	KindDelete Kind = 1
	// KindResume delivers the changes a paused listener accumulated.
	KindResume Kind = 2
	// KindClear drops every listener and queued instruction.
	KindClear Kind = 3
	// KindBarrier is a synchronisation point with no effect on listeners.
	KindBarrier Kind = 4
	// KindGC is a garbage collection pass over the registry.
	KindGC Kind = 5
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	case KindResume:
		return "RESUME"
	case KindClear:
		return "CLEAR"
	case KindBarrier:
		return "BARRIER"
	case KindGC:
		return "GC"
	default:
		return "UNKNOWN"
	}
}

// Stage is the point in the instruction lifecycle an event describes.
type Stage uint8

const (
	// StageEnqueued means the instruction entered the worker queue.
	StageEnqueued Stage = 0
	// StageCommitted means notifications were delivered.
	StageCommitted Stage = 1
	// StageNoOp means no listener was affected.
	StageNoOp Stage = 2
	// StageCancelled means the instruction was dropped by a clear.
	StageCancelled Stage = 3
	// StageFailed means a critical error was reported.
	StageFailed Stage = 4
	// StageCollected means a garbage collection pass finished.
	StageCollected Stage = 5
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageEnqueued:
		return "ENQUEUED"
	case StageCommitted:
		return "COMMITTED"
	case StageNoOp:
		return "NOOP"
	case StageCancelled:
		return "CANCELLED"
	case StageFailed:
		return "FAILED"
	case StageCollected:
		return "COLLECTED"
	default:
		return "UNKNOWN"
	}
}

// InstructionEvent captures what an instruction touched.
type InstructionEvent struct {
	// IDs are the identifiers carried by the instruction (may be truncated).
	IDs []string `cbor:"1,keyasint,omitempty"`

	// Truncated indicates if IDs was truncated.
	Truncated bool `cbor:"2,keyasint,omitempty"`

	// Impacted is the number of listeners whose tree contains one of IDs.
	Impacted int `cbor:"3,keyasint,omitempty"`

	// Notified is the number of listeners that received ModelUpdated.
	Notified int `cbor:"4,keyasint,omitempty"`

	// Paused is the number of paused listeners whose pending record changed.
	Paused int `cbor:"5,keyasint,omitempty"`

	// Global is the number of global change listeners called.
	Global int `cbor:"6,keyasint,omitempty"`

	// Dropped is the number of queued instructions discarded (clear only).
	Dropped int `cbor:"7,keyasint,omitempty"`

	// ProcessingTime is the time from dequeue to commit.
	// Stored as nanoseconds.
	ProcessingTime *time.Duration `cbor:"8,keyasint,omitempty"`
}

// GCTrigger tells what started a garbage collection pass.
type GCTrigger uint8

const (
	// GCTriggerTimer is the periodic collection.
	GCTriggerTimer GCTrigger = 0
	// GCTriggerLowMemory is a collection requested by a low-memory signal.
	GCTriggerLowMemory GCTrigger = 1
	// GCTriggerManual is an explicit collection request.
	GCTriggerManual GCTrigger = 2
)

// String returns the trigger name.
func (g GCTrigger) String() string {
	switch g {
	case GCTriggerTimer:
		return "TIMER"
	case GCTriggerLowMemory:
		return "LOW_MEMORY"
	case GCTriggerManual:
		return "MANUAL"
	default:
		return "UNKNOWN"
	}
}

// GCEvent captures the outcome of a garbage collection pass.
type GCEvent struct {
	// Trigger that started the pass.
	Trigger GCTrigger `cbor:"1,keyasint"`

	// BucketsBefore is the number of registry buckets before pruning.
	BucketsBefore int `cbor:"2,keyasint"`

	// BucketsAfter is the number of registry buckets after pruning.
	BucketsAfter int `cbor:"3,keyasint"`

	// SlotsPruned is the number of dead listener slots removed.
	SlotsPruned int `cbor:"4,keyasint,omitempty"`

	// PausedDropped is the number of pending records of dead listeners removed.
	PausedDropped int `cbor:"5,keyasint,omitempty"`
}

// ErrorEventData captures a critical error.
type ErrorEventData struct {
	// Reason is the error name (e.g. "DeleteIDFailure").
	Reason string `cbor:"1,keyasint"`

	// ModelID is the identifier involved, if any.
	ModelID string `cbor:"2,keyasint,omitempty"`

	// Message is the error message.
	Message string `cbor:"3,keyasint"`
}
