// Package observability provides structured logging, metrics and tracing
// for the navgraph router.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds transition context to a logger.
//
// Example:
//
//	enriched := EnrichLogger(logger, 7, "api")
//	enriched.Info("resolving") // includes transition_id and trigger
func EnrichLogger(logger *slog.Logger, transitionID uint64, trigger string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.Uint64("transition_id", transitionID),
		slog.String("trigger", trigger),
	)
}

// LogNavigationStart logs the start of a transition.
func LogNavigationStart(logger *slog.Logger, transitionID uint64, trigger, url string) {
	if logger == nil {
		return
	}
	logger.Info("navigation starting",
		slog.Uint64("transition_id", transitionID),
		slog.String("trigger", trigger),
		slog.String("url", url),
	)
}

// LogNavigationComplete logs a committed transition.
func LogNavigationComplete(logger *slog.Logger, transitionID uint64, url string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("navigation completed",
		slog.Uint64("transition_id", transitionID),
		slog.String("url", url),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogNavigationCancel logs a cancelled transition.
func LogNavigationCancel(logger *slog.Logger, transitionID uint64, reason string) {
	if logger == nil {
		return
	}
	logger.Info("navigation cancelled",
		slog.Uint64("transition_id", transitionID),
		slog.String("reason", reason),
	)
}

// LogNavigationError logs a failed transition.
func LogNavigationError(logger *slog.Logger, transitionID uint64, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("navigation failed",
		slog.Uint64("transition_id", transitionID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogPhase logs the start of a pipeline phase.
func LogPhase(logger *slog.Logger, transitionID uint64, phase string) {
	if logger == nil {
		return
	}
	logger.Debug("navigation phase",
		slog.Uint64("transition_id", transitionID),
		slog.String("phase", phase),
	)
}

// LogHookError logs a lifecycle hook failure.
func LogHookError(logger *slog.Logger, component, hook string, err error) {
	if logger == nil {
		return
	}
	logger.Error("lifecycle hook failed",
		slog.String("component", component),
		slog.String("hook", hook),
		slog.String("error", err.Error()),
	)
}

// LogJournalError logs a journal failure (non-fatal).
func LogJournalError(logger *slog.Logger, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("navigation journal failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// LogHookComplete logs a lifecycle hook that returned without error.
func LogHookComplete(logger *slog.Logger, component, hook string, duration time.Duration) {
	if logger == nil {
		return
	}
	logger.Debug("lifecycle hook completed",
		slog.String("component", component),
		slog.String("hook", hook),
		slog.Float64("duration_ms", float64(duration.Microseconds())/1000),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the time elapsed since
// TimedOperation was called.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	elapsed := done()
func TimedOperation() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
