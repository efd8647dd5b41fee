// Package log provides structured trace logging for the consistency engine.
//
// This package defines the Logger interface and Event types for capturing
// what the engine does with every instruction: when it was queued, which
// listeners it reached, whether it committed, short-circuited or was
// cancelled, and what garbage collection pruned. It is separate from
// operational logging (slog) - the trace is a complete machine-readable
// record for debugging and analysis.
//
// # Basic Usage
//
// Applications configure tracing by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.TraceLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.TraceLogger, _ = log.NewFileLogger("/var/log/app/cache.cmlog")
//
//	// Both: use MultiLogger
//	cfg.TraceLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Every event names the instruction kind (update, delete, resume, clear,
// barrier, gc) and the stage it reached. Payloads:
//   - Instruction: touched ids and listener counts (InstructionEvent)
//   - Garbage collection: registry size before and after (GCEvent)
//   - Critical errors (ErrorEventData)
//
// # File Format
//
// Trace files use CBOR encoding with integer keys and the .cmlog extension.
// The cm-log CLI provides viewing, filtering, and export capabilities.
package log
