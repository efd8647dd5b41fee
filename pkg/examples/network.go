package examples

import (
	"context"
	"strconv"
	"time"

	"github.com/graphcache/consistency-go/pkg/consistency"
)

// Default feed settings.
const (
	DefaultStreamID    = "100"
	DefaultUpdateCount = 20
)

// FeedConfig configures the fake network feed.
type FeedConfig struct {
	StreamID string
	Count    int

	// Latency is the simulated round trip.
	Latency time.Duration
}

// DefaultFeedConfig returns the feed served by the sample app.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		StreamID: DefaultStreamID,
		Count:    DefaultUpdateCount,
	}
}

// Feed is a fake network source of streams.
type Feed struct {
	config FeedConfig
}

// NewFeed returns a feed with the default configuration.
func NewFeed() *Feed {
	return NewFeedWithConfig(DefaultFeedConfig())
}

// NewFeedWithConfig returns a feed. Zero fields take their defaults.
func NewFeedWithConfig(cfg FeedConfig) *Feed {
	if cfg.StreamID == "" {
		cfg.StreamID = DefaultStreamID
	}
	if cfg.Count <= 0 {
		cfg.Count = DefaultUpdateCount
	}
	return &Feed{config: cfg}
}

// Fetch returns a freshly built stream. Even-numbered updates start liked.
func (f *Feed) Fetch(ctx context.Context) (*StreamModel, error) {
	if f.config.Latency > 0 {
		timer := time.NewTimer(f.config.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	updates := make([]*UpdateModel, f.config.Count)
	for i := range updates {
		updates[i] = NewUpdate(strconv.Itoa(i), i%2 == 0)
	}
	return NewStream(f.config.StreamID, updates...), nil
}

// FetchAsync fetches in the background and runs callback on d.
// Errors, including cancellation, are passed to the callback with a nil
// stream.
func (f *Feed) FetchAsync(ctx context.Context, d consistency.Dispatcher, callback func(*StreamModel, error)) {
	go func() {
		stream, err := f.Fetch(ctx)
		d.Run(func() { callback(stream, err) })
	}()
}
