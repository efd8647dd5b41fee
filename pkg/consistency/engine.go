package consistency

import (
	"github.com/graphcache/consistency-go/pkg/log"
	"github.com/graphcache/consistency-go/pkg/model"
)

// listenerWork is the state of one impacted listener during an instruction.
type listenerWork struct {
	listener Listener

	// paused listeners are rebuilt from their pending snapshot.
	paused bool

	old    model.Node
	result rebuildResult
}

type delivery struct {
	listener Listener
	root     model.Node
	updates  model.ModelUpdates
}

// table builds the identifier table of an update or delete. A delete
// without target identifier yields no table and a DeleteIDFailure.
func (m *Manager) table(ins *instruction) (*model.Table, []*CriticalError) {
	if ins.kind == log.KindUpdate {
		return model.Flatten(ins.root), nil
	}
	if ins.root == nil || ins.root.ID() == "" {
		return nil, []*CriticalError{{
			Reason: ReasonDeleteIDFailure,
			Detail: "delete target " + model.KindName(ins.root) + " has no identifier",
		}}
	}
	t := model.NewTable()
	t.MarkDeleted(ins.root.ID())
	return t, nil
}

// apply runs an update or delete through both fences.
func (m *Manager) apply(ins *instruction) {
	table, errs := m.table(ins)
	if table == nil {
		m.mu.Lock()
		handler := m.onCriticalError
		m.mu.Unlock()
		m.dispatcher.Run(func() {
			m.reportErrors(ins, errs, handler)
		})
		m.traceInstruction(ins, log.StageFailed, nil)
		return
	}

	ids, truncated := tracedIDs(table.IDs())
	payload := &log.InstructionEvent{IDs: ids, Truncated: truncated}

	m.mu.Lock()
	if m.cancelled(ins) {
		m.mu.Unlock()
		m.traceInstruction(ins, log.StageCancelled, payload)
		return
	}
	impacted := m.registry.impacted(table.IDs())
	hasGlobals := len(m.globals) > 0
	m.mu.Unlock()

	payload.Impacted = len(impacted)
	if len(impacted) == 0 && !hasGlobals {
		m.traceInstruction(ins, log.StageNoOp, payload)
		return
	}

	work := make([]*listenerWork, len(impacted))
	for i, l := range impacted {
		work[i] = &listenerWork{listener: l}
	}

	// Fence A: fetch current models.
	cancelled := false
	if len(work) > 0 {
		m.dispatcher.Run(func() {
			m.mu.Lock()
			if m.cancelled(ins) {
				cancelled = true
				m.mu.Unlock()
				return
			}
			for _, w := range work {
				if rec, ok := m.paused[w.listener]; ok {
					w.paused = true
					w.old = rec.snapshot
				}
			}
			m.mu.Unlock()

			for _, w := range work {
				if !w.paused {
					w.old = w.listener.CurrentModel()
				}
			}
		})
	}
	if cancelled {
		m.traceInstruction(ins, log.StageCancelled, payload)
		return
	}

	b := newRebuilder(table)
	for _, w := range work {
		w.result = b.rebuild(w.old)
	}

	// Fence B: validate and commit.
	m.dispatcher.Run(func() {
		for _, w := range work {
			if w.paused {
				continue
			}
			if current := w.listener.CurrentModel(); !sameModel(current, w.old) {
				w.old = current
				w.result = b.rebuild(current)
			}
		}

		m.mu.Lock()
		if m.cancelled(ins) {
			cancelled = true
			m.mu.Unlock()
			return
		}

		var deliveries []delivery
		for _, w := range work {
			if !m.registry.contains(w.listener) || w.result.unchanged {
				continue
			}
			if rec, ok := m.paused[w.listener]; ok {
				rec.absorb(w.result.root, w.result.updates, ins.ctx)
				m.registry.sync(w.listener, model.IDs(w.result.root))
				payload.Paused++
				continue
			}
			if w.paused {
				continue
			}
			m.registry.sync(w.listener, model.IDs(w.result.root))
			deliveries = append(deliveries, delivery{
				listener: w.listener,
				root:     w.result.root,
				updates:  w.result.updates,
			})
		}
		globals := make([]GlobalListener, len(m.globals))
		for i, e := range m.globals {
			globals[i] = e.listener
		}
		handler := m.onCriticalError
		m.mu.Unlock()

		for _, d := range deliveries {
			d.listener.ModelUpdated(d.root, d.updates.Clone(), ins.ctx)
		}
		payload.Notified = len(deliveries)

		for _, g := range globals {
			g.ModelsChanged(ins.root, table.Changes(), ins.ctx)
		}
		payload.Global = len(globals)

		m.reportErrors(ins, b.errors, handler)
	})

	switch {
	case cancelled:
		m.traceInstruction(ins, log.StageCancelled, payload)
	case payload.Notified+payload.Paused+payload.Global == 0:
		m.traceInstruction(ins, log.StageNoOp, payload)
	default:
		m.traceInstruction(ins, log.StageCommitted, payload)
	}
}
