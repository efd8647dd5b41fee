package consistency

import (
	"time"

	"github.com/graphcache/consistency-go/pkg/log"
)

// maxTracedIDs caps the identifiers carried by one trace event.
const maxTracedIDs = 32

// emit sends a trace event for ins.
func (m *Manager) emit(ins *instruction, stage log.Stage, payload *log.InstructionEvent, errData *log.ErrorEventData) {
	m.trace.Log(log.Event{
		Timestamp:     time.Now(),
		ManagerID:     m.id,
		InstructionID: ins.id,
		Sequence:      ins.seq,
		Kind:          ins.kind,
		Stage:         stage,
		Instruction:   payload,
		Error:         errData,
	})
}

// traceInstruction records the final stage of ins with its processing time.
func (m *Manager) traceInstruction(ins *instruction, stage log.Stage, payload *log.InstructionEvent) {
	if payload == nil {
		payload = &log.InstructionEvent{}
	}
	elapsed := time.Since(ins.started)
	payload.ProcessingTime = &elapsed
	m.emit(ins, stage, payload, nil)
	m.debugLog("instruction done",
		"kind", ins.kind.String(),
		"stage", stage.String(),
		"seq", ins.seq,
		"notified", payload.Notified,
		"paused", payload.Paused)
}

// tracedIDs truncates ids for a trace event.
func tracedIDs(ids []string) ([]string, bool) {
	if len(ids) <= maxTracedIDs {
		return ids, false
	}
	return ids[:maxTracedIDs], true
}
