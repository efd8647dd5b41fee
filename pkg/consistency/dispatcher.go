package consistency

import "sync"

// Dispatcher runs functions on the delivery context, the context that owns
// listener state. Run must execute fn exactly once and return after fn
// returned. Calls are serialized.
type Dispatcher interface {
	Run(fn func())
}

// Inline runs fn on the calling goroutine, which is the Manager's worker.
type Inline struct{}

// Run calls fn.
func (Inline) Run(fn func()) { fn() }

// EventLoop is a Dispatcher backed by a single goroutine that runs queued
// functions in order. It must not be used reentrantly: calling Run from a
// function already running on the loop deadlocks.
type EventLoop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool

	wake   chan struct{}
	done   chan struct{}
	exited chan struct{}
}

// NewEventLoop starts an event loop.
func NewEventLoop() *EventLoop {
	e := &EventLoop{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go e.loop()
	return e
}

func (e *EventLoop) loop() {
	defer close(e.exited)
	for {
		for {
			fn := e.pop()
			if fn == nil {
				break
			}
			fn()
			select {
			case <-e.done:
				return
			default:
			}
		}
		select {
		case <-e.wake:
		case <-e.done:
			return
		}
	}
}

func (e *EventLoop) pop() func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return nil
	}
	fn := e.queue[0]
	e.queue[0] = nil
	e.queue = e.queue[1:]
	return fn
}

func (e *EventLoop) enqueue(fn func()) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	e.queue = append(e.queue, fn)
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
	return true
}

// Run executes fn on the loop and waits for it.
// After Close, Run returns without calling fn.
func (e *EventLoop) Run(fn func()) {
	finished := make(chan struct{})
	if !e.enqueue(func() {
		defer close(finished)
		fn()
	}) {
		return
	}
	select {
	case <-finished:
	case <-e.exited:
	}
}

// Post schedules fn on the loop without waiting for it. Posted and Run
// functions execute in submission order. It reports false if the loop is
// closed.
func (e *EventLoop) Post(fn func()) bool {
	return e.enqueue(fn)
}

// Close stops the loop after the running function, if any, returned.
// Functions still queued are discarded. It is safe to call Close multiple
// times.
func (e *EventLoop) Close() {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		e.queue = nil
		close(e.done)
	}
	e.mu.Unlock()
	<-e.exited
}

var (
	_ Dispatcher = Inline{}
	_ Dispatcher = (*EventLoop)(nil)
)
