package consistency

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/graphcache/consistency-go/pkg/log"
	"github.com/graphcache/consistency-go/pkg/model"
	"github.com/graphcache/consistency-go/pkg/weakref"
)

// instruction is one unit of work for the worker.
type instruction struct {
	kind log.Kind
	id   string
	seq  uint64
	gen  uint64

	// root is the incoming tree (update) or the target (delete).
	root model.Node
	ctx  any

	// listener to resume.
	listener Listener

	// done is closed when a barrier is reached.
	done chan struct{}

	// onDone runs on the delivery context when a clear completes.
	onDone  func()
	dropped int

	enqueued time.Time
	started  time.Time
}

type globalEntry struct {
	id       GlobalListenerID
	listener GlobalListener
}

// Stats is a point-in-time view of the manager's state.
type Stats struct {
	// Listeners is the number of registered listeners, dead ones included
	// until the next collection.
	Listeners int

	// Buckets is the number of identifiers with a registry bucket.
	Buckets int

	// Slots is the total number of bucket slots, dead ones included.
	Slots int

	// Paused is the number of paused listeners.
	Paused int

	// Queued is the number of instructions waiting for the worker.
	Queued int

	// GlobalListeners is the number of global change listeners.
	GlobalListeners int

	// Processed is the number of instructions the worker finished.
	Processed uint64

	// Collections is the number of garbage collection passes.
	Collections uint64
}

// Manager propagates updates and deletes to the listeners whose models
// contain the affected identifiers.
type Manager struct {
	id         string
	config     Config
	dispatcher Dispatcher
	ownLoop    *EventLoop
	logger     *slog.Logger
	trace      log.Logger

	mu         sync.Mutex
	registry   *registry
	paused     map[Listener]*pendingRecord
	globals    []globalEntry
	nextGlobal GlobalListenerID
	queue      []*instruction
	seq        uint64
	generation uint64
	gcPending  bool
	gcTrigger  log.GCTrigger
	closed     bool

	processed   uint64
	collections uint64

	// Callbacks
	onCriticalError     func(*CriticalError)
	onGarbageCollection func(GCPhase)

	wake chan struct{}
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewManager creates a manager with default configuration.
func NewManager() *Manager {
	return NewManagerWithConfig(DefaultConfig())
}

// NewManagerWithConfig creates a manager with custom configuration and
// starts its worker.
func NewManagerWithConfig(config Config) *Manager {
	if config.GCInterval < 0 {
		config.GCInterval = 0
	}

	m := &Manager{
		id:         uuid.NewString(),
		config:     config,
		dispatcher: config.Dispatcher,
		logger:     config.Logger,
		trace:      config.TraceLogger,
		registry:   newRegistry(),
		paused:     make(map[Listener]*pendingRecord),
		wake:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
	}
	if m.dispatcher == nil {
		m.ownLoop = NewEventLoop()
		m.dispatcher = m.ownLoop
	}
	if m.trace == nil {
		m.trace = log.NoopLogger{}
	}

	m.wg.Add(1)
	go m.run()

	if config.GCInterval > 0 {
		m.wg.Add(1)
		go m.gcTimer(config.GCInterval)
	}

	m.debugLog("manager started", "gc_interval", config.GCInterval)
	return m
}

// ID returns the manager's unique id, used in trace events.
func (m *Manager) ID() string {
	return m.id
}

// OnCriticalError sets the callback for critical errors. It runs on the
// delivery context.
func (m *Manager) OnCriticalError(fn func(*CriticalError)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCriticalError = fn
}

// AddListener registers l under every identifier reachable from its current
// model. Registering a listener again adds the identifiers it gained and is
// otherwise a no-op. A paused listener stays paused.
func (m *Manager) AddListener(l Listener) error {
	if l == nil {
		return ErrNilListener
	}
	if !isComparable(l) {
		return ErrNotComparable
	}

	if lv, ok := l.(weakref.Liveness); ok && !lv.Alive() {
		return nil
	}

	current := l.CurrentModel()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	h := m.registry.add(l, model.IDs(current))
	m.debugLog("listener added", "ids", h.ids.Len(), "listeners", len(m.registry.handles))
	return nil
}

// RemoveListener unregisters l and drops its pending changes if paused.
func (m *Manager) RemoveListener(l Listener) {
	if l == nil || !isComparable(l) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry.remove(l)
	delete(m.paused, l)
}

// Listeners returns the live listeners registered under id, in
// registration order.
func (m *Manager) Listeners(id string) []Listener {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.listeners(id)
}

// UpdateModel queues an update. Every identified node of root is merged
// into the listeners that contain it. A model.Tombstone inside root deletes
// its identifier. ctx is passed through to the callbacks.
func (m *Manager) UpdateModel(root model.Node, ctx any) error {
	if root == nil {
		return nil
	}
	return m.enqueue(&instruction{kind: log.KindUpdate, root: root, ctx: ctx})
}

// UpdateModels queues several independent roots as one instruction.
func (m *Manager) UpdateModels(roots []model.Node, ctx any) error {
	if len(roots) == 0 {
		return nil
	}
	return m.UpdateModel(model.NewBatch(roots...), ctx)
}

// DeleteModel queues the deletion of target's identifier. Parents that
// require target are deleted too. A target without identifier is reported
// as a DeleteIDFailure critical error.
func (m *Manager) DeleteModel(target model.Node, ctx any) error {
	return m.enqueue(&instruction{kind: log.KindDelete, root: target, ctx: ctx})
}

// AddGlobalListener registers g to receive the changes of every
// instruction. The returned id removes it again.
func (m *Manager) AddGlobalListener(g GlobalListener) GlobalListenerID {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextGlobal++
	m.globals = append(m.globals, globalEntry{id: m.nextGlobal, listener: g})
	return m.nextGlobal
}

// RemoveGlobalListener unregisters a global listener.
func (m *Manager) RemoveGlobalListener(id GlobalListenerID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.globals {
		if e.id == id {
			m.globals = append(m.globals[:i], m.globals[i+1:]...)
			return
		}
	}
}

// ClearAllAndCancel drops every queued instruction, unregisters all
// listeners and forgets all paused state. An instruction already running
// finishes without delivering anything. onDone, if not nil, runs on the
// delivery context once that instruction is done.
func (m *Manager) ClearAllAndCancel(onDone func()) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.generation++

	kept := m.queue[:0]
	dropped := 0
	for _, ins := range m.queue {
		switch ins.kind {
		case log.KindBarrier, log.KindClear:
			kept = append(kept, ins)
		default:
			dropped++
			m.emit(ins, log.StageCancelled, nil, nil)
		}
	}
	clear(m.queue[len(kept):])
	m.queue = kept

	m.registry.clear()
	m.paused = make(map[Listener]*pendingRecord)
	m.debugLog("cleared", "dropped", dropped)
	m.mu.Unlock()

	return m.enqueue(&instruction{kind: log.KindClear, onDone: onDone, dropped: dropped})
}

// Sync waits until every instruction queued before the call was committed.
func (m *Manager) Sync(ctx context.Context) error {
	done := make(chan struct{})
	if err := m.enqueue(&instruction{kind: log.KindBarrier, done: done}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-m.stop:
		return ErrClosed
	}
}

// Stats returns current counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Listeners:       len(m.registry.handles),
		Buckets:         len(m.registry.buckets),
		Slots:           m.registry.slots(),
		Paused:          len(m.paused),
		Queued:          len(m.queue),
		GlobalListeners: len(m.globals),
		Processed:       m.processed,
		Collections:     m.collections,
	}
}

// Close stops the worker and the garbage collection timer. Queued
// instructions are discarded. Close waits for a running instruction, so it
// must not be called from a callback. It is safe to call Close multiple
// times.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.queue = nil
	close(m.stop)
	m.mu.Unlock()

	m.wg.Wait()
	if m.ownLoop != nil {
		m.ownLoop.Close()
	}
	m.debugLog("manager closed")
	return nil
}

func (m *Manager) enqueue(ins *instruction) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.seq++
	ins.seq = m.seq
	ins.gen = m.generation
	ins.id = uuid.NewString()
	ins.enqueued = time.Now()
	m.queue = append(m.queue, ins)
	if ins.kind != log.KindBarrier {
		m.emit(ins, log.StageEnqueued, nil, nil)
	}
	m.mu.Unlock()

	m.signal()
	return nil
}

func (m *Manager) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// run is the worker loop. Instructions are processed in FIFO order;
// garbage collection only runs when the queue is empty.
func (m *Manager) run() {
	defer m.wg.Done()
	for {
		ins, trigger, collect, ok := m.next()
		if !ok {
			return
		}
		if collect {
			m.collect(trigger)
			continue
		}
		m.process(ins)

		m.mu.Lock()
		m.processed++
		m.mu.Unlock()
	}
}

func (m *Manager) next() (*instruction, log.GCTrigger, bool, bool) {
	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return nil, 0, false, false
		}
		if len(m.queue) > 0 {
			ins := m.queue[0]
			m.queue[0] = nil
			m.queue = m.queue[1:]
			m.mu.Unlock()
			return ins, 0, false, true
		}
		if m.gcPending {
			m.gcPending = false
			trigger := m.gcTrigger
			m.mu.Unlock()
			return nil, trigger, true, true
		}
		m.mu.Unlock()

		select {
		case <-m.wake:
		case <-m.stop:
		}
	}
}

func (m *Manager) process(ins *instruction) {
	ins.started = time.Now()
	switch ins.kind {
	case log.KindUpdate, log.KindDelete:
		m.apply(ins)
	case log.KindResume:
		m.resume(ins)
	case log.KindBarrier:
		close(ins.done)
	case log.KindClear:
		if ins.onDone != nil {
			m.dispatcher.Run(ins.onDone)
		}
		m.traceInstruction(ins, log.StageCommitted, &log.InstructionEvent{Dropped: ins.dropped})
	}
}

// cancelled reports whether a clear happened after ins was queued.
// Must be called with m.mu held.
func (m *Manager) cancelled(ins *instruction) bool {
	return ins.gen != m.generation || m.closed
}

// reportErrors delivers critical errors. Must run on the delivery context
// without m.mu held.
func (m *Manager) reportErrors(ins *instruction, errs []*CriticalError, handler func(*CriticalError)) {
	for _, err := range errs {
		if m.logger != nil {
			m.logger.Warn("critical error", "reason", string(err.Reason), "id", err.ID, "detail", err.Detail)
		}
		m.emit(ins, log.StageFailed, nil, &log.ErrorEventData{
			Reason:  string(err.Reason),
			ModelID: err.ID,
			Message: err.Error(),
		})
		if handler != nil {
			handler(err)
		}
	}
}

func (m *Manager) debugLog(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, append([]any{"manager_id", m.id}, args...)...)
	}
}

// isComparable reports whether l can be used as a map key. Only pointers
// qualify: a comparable struct type can still hold a slice in an interface
// field and panic when hashed.
func isComparable(l Listener) bool {
	return reflect.TypeOf(l).Kind() == reflect.Pointer
}
