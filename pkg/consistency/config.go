package consistency

import (
	"log/slog"
	"time"

	"github.com/graphcache/consistency-go/pkg/log"
)

// DefaultGCInterval is the default time between garbage collection passes.
const DefaultGCInterval = 5 * time.Minute

// Config configures a Manager.
type Config struct {
	// GCInterval is the time between periodic garbage collection passes.
	// Zero disables the timer; TriggerGarbageCollection, LowMemory and
	// CleanMemory still work.
	GCInterval time.Duration

	// Dispatcher runs the commit fences and every callback.
	// Nil uses a private EventLoop that is closed with the Manager.
	Dispatcher Dispatcher

	// Logger for debug output (optional).
	Logger *slog.Logger

	// TraceLogger receives one event per instruction stage (optional).
	TraceLogger log.Logger
}

// DefaultConfig returns the default manager configuration.
func DefaultConfig() Config {
	return Config{
		GCInterval: DefaultGCInterval,
	}
}
