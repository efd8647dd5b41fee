package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/graphcache/consistency-go/pkg/log"
)

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalEvents   int
	EventsByKind  map[log.Kind]int
	EventsByStage map[log.Stage]int
	Managers      map[string]*ManagerStats
	Errors        map[string]int
	TimeRange     struct {
		Start time.Time
		End   time.Time
	}
}

// ManagerStats holds statistics for a single manager.
type ManagerStats struct {
	FirstSeen   time.Time
	LastSeen    time.Time
	Events      int
	Notified    int
	Collections int
	Pruned      int

	// MaxProcessing is the slowest instruction seen.
	MaxProcessing time.Duration
}

// RunStats analyzes the trace file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByKind:  make(map[log.Kind]int),
		EventsByStage: make(map[log.Stage]int),
		Managers:      make(map[string]*ManagerStats),
		Errors:        make(map[string]int),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	printStats(w, stats)
	return nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByKind[event.Kind]++
	s.EventsByStage[event.Stage]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	mgr, ok := s.Managers[event.ManagerID]
	if !ok {
		mgr = &ManagerStats{
			FirstSeen: event.Timestamp,
			LastSeen:  event.Timestamp,
		}
		s.Managers[event.ManagerID] = mgr
	}
	mgr.Events++
	if event.Timestamp.After(mgr.LastSeen) {
		mgr.LastSeen = event.Timestamp
	}

	if ins := event.Instruction; ins != nil {
		mgr.Notified += ins.Notified
		if ins.ProcessingTime != nil && *ins.ProcessingTime > mgr.MaxProcessing {
			mgr.MaxProcessing = *ins.ProcessingTime
		}
	}
	if event.GC != nil {
		mgr.Collections++
		mgr.Pruned += event.GC.SlotsPruned
	}
	if event.Error != nil {
		s.Errors[event.Error.Reason]++
	}
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Consistency Manager Trace Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Kind:")
	for _, k := range []log.Kind{log.KindUpdate, log.KindDelete, log.KindResume, log.KindClear, log.KindBarrier, log.KindGC} {
		if count := stats.EventsByKind[k]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", k.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Stage:")
	for _, st := range []log.Stage{log.StageEnqueued, log.StageCommitted, log.StageNoOp, log.StageCancelled, log.StageFailed, log.StageCollected} {
		if count := stats.EventsByStage[st]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", st.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Managers: %d\n", len(stats.Managers))
	if len(stats.Managers) > 0 {
		type mgrInfo struct {
			id    string
			stats *ManagerStats
		}
		mgrs := make([]mgrInfo, 0, len(stats.Managers))
		for id, ms := range stats.Managers {
			mgrs = append(mgrs, mgrInfo{id, ms})
		}
		sort.Slice(mgrs, func(i, j int) bool {
			return mgrs[i].stats.FirstSeen.Before(mgrs[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, m := range mgrs {
			duration := m.stats.LastSeen.Sub(m.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenID(m.id), m.stats.Events, duration)
			if m.stats.Notified > 0 {
				fmt.Fprintf(w, "           Notifications: %d\n", m.stats.Notified)
			}
			if m.stats.MaxProcessing > 0 {
				fmt.Fprintf(w, "           Slowest: %s\n", formatDuration(m.stats.MaxProcessing))
			}
			if m.stats.Collections > 0 {
				fmt.Fprintf(w, "           GC: %d passes, %d slots pruned\n", m.stats.Collections, m.stats.Pruned)
			}
		}
	}

	if len(stats.Errors) > 0 {
		reasons := make([]string, 0, len(stats.Errors))
		for r := range stats.Errors {
			reasons = append(reasons, r)
		}
		sort.Strings(reasons)

		fmt.Fprintln(w)
		fmt.Fprintln(w, "Errors:")
		for _, r := range reasons {
			fmt.Fprintf(w, "  %-16s %d\n", r+":", stats.Errors[r])
		}
	}
}
