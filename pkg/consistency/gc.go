package consistency

import (
	"time"

	"github.com/graphcache/consistency-go/pkg/log"
	"github.com/graphcache/consistency-go/pkg/weakref"
)

// GCPhase tells a garbage collection hook whether a pass starts or ends.
type GCPhase uint8

const (
	GCStarted GCPhase = iota
	GCFinished
)

// String returns the phase name.
func (p GCPhase) String() string {
	switch p {
	case GCStarted:
		return "STARTED"
	case GCFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// GCResult describes one garbage collection pass.
type GCResult struct {
	Trigger       log.GCTrigger
	BucketsBefore int
	BucketsAfter  int
	SlotsPruned   int
	PausedDropped int
}

// OnGarbageCollection sets a hook called before and after every garbage
// collection pass. It runs on the goroutine doing the collection.
func (m *Manager) OnGarbageCollection(fn func(GCPhase)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onGarbageCollection = fn
}

// TriggerGarbageCollection schedules a collection for the next time the
// worker is idle.
func (m *Manager) TriggerGarbageCollection() {
	m.requestGC(log.GCTriggerManual)
}

// LowMemory signals memory pressure. A collection is scheduled for the next
// time the worker is idle.
func (m *Manager) LowMemory() {
	m.requestGC(log.GCTriggerLowMemory)
}

// CleanMemory prunes dead listener references synchronously.
func (m *Manager) CleanMemory() GCResult {
	return m.collect(log.GCTriggerManual)
}

func (m *Manager) requestGC(trigger log.GCTrigger) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if !m.gcPending || trigger > m.gcTrigger {
		m.gcTrigger = trigger
	}
	m.gcPending = true
	m.mu.Unlock()
	m.signal()
}

func (m *Manager) gcTimer(interval time.Duration) {
	defer m.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.requestGC(log.GCTriggerTimer)
		case <-m.stop:
			return
		}
	}
}

// collect prunes the registry and drops pending records of dead listeners.
func (m *Manager) collect(trigger log.GCTrigger) GCResult {
	m.mu.Lock()
	hook := m.onGarbageCollection
	m.mu.Unlock()

	if hook != nil {
		hook(GCStarted)
	}

	m.mu.Lock()
	result := GCResult{Trigger: trigger, BucketsBefore: len(m.registry.buckets)}
	result.SlotsPruned = m.registry.prune()
	for l := range m.paused {
		if lv, ok := l.(weakref.Liveness); ok && !lv.Alive() {
			delete(m.paused, l)
			result.PausedDropped++
		}
	}
	result.BucketsAfter = len(m.registry.buckets)
	m.mu.Unlock()

	m.trace.Log(log.Event{
		Timestamp: time.Now(),
		ManagerID: m.id,
		Kind:      log.KindGC,
		Stage:     log.StageCollected,
		GC: &log.GCEvent{
			Trigger:       trigger,
			BucketsBefore: result.BucketsBefore,
			BucketsAfter:  result.BucketsAfter,
			SlotsPruned:   result.SlotsPruned,
			PausedDropped: result.PausedDropped,
		},
	})
	m.debugLog("garbage collected",
		"trigger", trigger.String(),
		"buckets_before", result.BucketsBefore,
		"buckets_after", result.BucketsAfter,
		"slots_pruned", result.SlotsPruned)

	m.mu.Lock()
	m.collections++
	m.mu.Unlock()

	if hook != nil {
		hook(GCFinished)
	}
	return result
}
