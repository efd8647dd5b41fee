package engine

import (
	"sync"

	"github.com/graphcache/consistency-go/pkg/log"
)

// traceRecorder keeps the final event of every instruction until the step
// that caused it drains them. Enqueue events and barriers are dropped.
type traceRecorder struct {
	mu     sync.Mutex
	traces []InstructionTrace
}

// Log implements log.Logger.
func (r *traceRecorder) Log(event log.Event) {
	if event.Stage == log.StageEnqueued || event.Kind == log.KindBarrier {
		return
	}

	tr := InstructionTrace{
		ID:    event.InstructionID,
		Kind:  event.Kind,
		Stage: event.Stage,
	}
	if p := event.Instruction; p != nil {
		tr.IDs = p.IDs
		tr.Notified = p.Notified
		tr.Paused = p.Paused
		tr.Global = p.Global
		tr.Dropped = p.Dropped
	}
	if e := event.Error; e != nil {
		tr.Reason = e.Reason
		if e.ModelID != "" {
			tr.IDs = []string{e.ModelID}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.traces = append(r.traces, tr)
}

func (r *traceRecorder) drain() []InstructionTrace {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.traces
	r.traces = nil
	return out
}

var _ log.Logger = (*traceRecorder)(nil)
