package consistency

import (
	"github.com/graphcache/consistency-go/pkg/log"
	"github.com/graphcache/consistency-go/pkg/model"
)

// pendingRecord accumulates the changes of a paused listener.
type pendingRecord struct {
	// baseline is the model at pause time.
	baseline model.Node

	// snapshot is the latest recomputed model.
	snapshot model.Node

	updates model.ModelUpdates
	ctx     any

	// resuming is set once a resume was queued.
	resuming bool

	// repause is set when the listener was paused again while its resume
	// was still queued.
	repause bool
}

func newPendingRecord(m model.Node) *pendingRecord {
	return &pendingRecord{baseline: m, snapshot: m}
}

// absorb records one committed instruction.
func (r *pendingRecord) absorb(root model.Node, updates model.ModelUpdates, ctx any) {
	r.snapshot = root
	r.updates.Changed.Union(updates.Changed)
	r.updates.Deleted.Union(updates.Deleted)
	r.ctx = ctx
	r.normalize()
}

// normalize drops deletions of ids that came back and changes that
// cancelled out against the baseline.
func (r *pendingRecord) normalize() {
	current := model.Occurrences(r.snapshot)
	baseline := model.Occurrences(r.baseline)

	r.updates.Deleted.RemoveIf(func(id string) bool {
		_, ok := current[id]
		return ok
	})
	r.updates.Changed.RemoveIf(func(id string) bool {
		now, ok := current[id]
		if !ok || r.updates.Deleted.Has(id) {
			return true
		}
		before, existed := baseline[id]
		return existed && model.SameOccurrences(before, now)
	})
}

// PauseListener stops callbacks to l. Updates keep being computed and are
// delivered as one coalesced ModelUpdated call on ResumeListener.
// PauseListener is synchronous and idempotent. Pausing again while a resume
// is queued keeps the listener paused after that resume delivered.
func (m *Manager) PauseListener(l Listener) error {
	if l == nil {
		return ErrNilListener
	}
	if !isComparable(l) {
		return ErrNotComparable
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if rec, ok := m.paused[l]; ok {
		if rec.resuming {
			rec.repause = true
		}
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	current := l.CurrentModel()

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.paused[l]; !ok {
		m.paused[l] = newPendingRecord(current)
		m.debugLog("listener paused", "paused", len(m.paused))
	}
	return nil
}

// ResumeListener queues delivery of the changes accumulated while l was
// paused. Nothing is delivered if they cancelled out or l already holds
// the resulting model. Resuming a listener that isn't paused does nothing.
func (m *Manager) ResumeListener(l Listener) error {
	if l == nil {
		return ErrNilListener
	}
	if !isComparable(l) {
		return ErrNotComparable
	}

	m.mu.Lock()
	rec, ok := m.paused[l]
	if !ok || (rec.resuming && !rec.repause) {
		m.mu.Unlock()
		return nil
	}
	rec.resuming = true
	rec.repause = false
	m.mu.Unlock()

	return m.enqueue(&instruction{kind: log.KindResume, listener: l})
}

// IsPaused reports whether l is paused and no resume is pending.
func (m *Manager) IsPaused(l Listener) bool {
	if l == nil || !isComparable(l) {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.paused[l]
	return ok && (!rec.resuming || rec.repause)
}

// resume delivers a paused listener's coalesced changes.
func (m *Manager) resume(ins *instruction) {
	l := ins.listener

	var (
		rec       *pendingRecord
		snapshot  model.Node
		updates   model.ModelUpdates
		ctx       any
		current   model.Node
		cancelled bool
	)
	m.dispatcher.Run(func() {
		m.mu.Lock()
		if m.cancelled(ins) {
			cancelled = true
			m.mu.Unlock()
			return
		}
		rec = m.paused[l]
		if rec != nil {
			snapshot = rec.snapshot
			updates = rec.updates.Clone()
			ctx = rec.ctx
		}
		m.mu.Unlock()

		if rec != nil {
			current = l.CurrentModel()
		}
	})
	if cancelled {
		m.traceInstruction(ins, log.StageCancelled, nil)
		return
	}
	if rec == nil {
		m.traceInstruction(ins, log.StageNoOp, nil)
		return
	}

	deliver := !updates.Empty() && !sameModel(current, snapshot)
	held := current
	if deliver {
		held = snapshot
	}

	m.dispatcher.Run(func() {
		m.mu.Lock()
		if m.cancelled(ins) || m.paused[l] != rec {
			cancelled = true
			m.mu.Unlock()
			return
		}
		if rec.repause {
			m.paused[l] = newPendingRecord(held)
		} else {
			delete(m.paused, l)
		}
		if m.registry.contains(l) {
			m.registry.sync(l, model.IDs(held))
		}
		m.mu.Unlock()

		if deliver {
			l.ModelUpdated(snapshot, updates, ctx)
		}
	})

	switch {
	case cancelled:
		m.traceInstruction(ins, log.StageCancelled, nil)
	case deliver:
		m.traceInstruction(ins, log.StageCommitted, &log.InstructionEvent{
			IDs:      append(updates.Changed.Slice(), updates.Deleted.Slice()...),
			Notified: 1,
		})
	default:
		m.traceInstruction(ins, log.StageNoOp, nil)
	}
}
