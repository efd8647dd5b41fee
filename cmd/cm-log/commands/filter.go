package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/graphcache/consistency-go/pkg/log"
)

// FilterOptions specifies filtering criteria for the filter command.
type FilterOptions struct {
	Output        string
	ManagerID     string
	InstructionID string
	ModelID       string
	TimeStart     string
	TimeEnd       string
	Kind          string
	Stage         string
}

func (o FilterOptions) filter() (log.Filter, error) {
	filter := log.Filter{
		ManagerID:     o.ManagerID,
		InstructionID: o.InstructionID,
		ModelID:       o.ModelID,
	}

	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return filter, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return filter, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	if o.Kind != "" {
		k, err := parseKind(o.Kind)
		if err != nil {
			return filter, err
		}
		filter.Kind = &k
	}

	if o.Stage != "" {
		s, err := parseStage(o.Stage)
		if err != nil {
			return filter, err
		}
		filter.Stage = &s
	}

	return filter, nil
}

// RunFilter writes the events of path that match opts to opts.Output and
// returns how many were written.
func RunFilter(path string, opts FilterOptions) (int, error) {
	filter, err := opts.filter()
	if err != nil {
		return 0, err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(opts.Output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("failed to read event: %w", err)
		}

		logger.Log(event)
		count++
	}

	if n := logger.Failures(); n > 0 {
		return count - n, fmt.Errorf("failed to write %d events", n)
	}
	return count, nil
}
