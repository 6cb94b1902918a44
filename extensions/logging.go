// Package extensions provides ready-made fetch extensions for logging and
// round debugging.
package extensions

import (
	"context"
	"log/slog"
	"time"

	fetch "github.com/fetch-fn/fetch-go"
)

// LoggingExtension logs source invocations and recorded rounds.
//
// Usage:
//
//	// Text logging to stderr
//	ext := extensions.NewLoggingExtension(slog.NewTextHandler(os.Stderr, nil))
//
//	// Structured JSON logging
//	ext := extensions.NewLoggingExtension(slog.NewJSONHandler(os.Stdout, nil))
//
//	result, err := fetch.Run(ctx, program, fetch.WithExtension(ext))
type LoggingExtension struct {
	fetch.BaseExtension
	logger *slog.Logger
}

// NewLoggingExtension creates a logging extension writing through the
// given slog handler.
func NewLoggingExtension(handler slog.Handler) *LoggingExtension {
	return &LoggingExtension{
		BaseExtension: fetch.NewBaseExtension("logging"),
		logger:        slog.New(handler),
	}
}

// Wrap times each source invocation.
func (e *LoggingExtension) Wrap(ctx context.Context, next func() (any, error), op *fetch.Operation) (any, error) {
	start := time.Now()
	result, err := next()
	duration := time.Since(start)

	if err != nil {
		e.logger.ErrorContext(ctx, "source invocation failed",
			"kind", string(op.Kind),
			"source", op.Source,
			"identities", len(op.IDs),
			"duration", duration,
			"error", err,
		)
		return result, err
	}

	e.logger.DebugContext(ctx, "source invocation completed",
		"kind", string(op.Kind),
		"source", op.Source,
		"identities", len(op.IDs),
		"duration", duration,
	)
	return result, nil
}

// OnRoundEnd logs a summary of each recorded round.
func (e *LoggingExtension) OnRoundEnd(ctx context.Context, round fetch.Round) {
	e.logger.InfoContext(ctx, "round completed",
		"round", round.ID,
		"request", round.Request.String(),
		"fetched", len(round.Response),
		"cached", round.Cached,
		"duration_ms", round.Millis(),
	)
}

// OnError logs run failures.
func (e *LoggingExtension) OnError(ctx context.Context, err error) {
	e.logger.ErrorContext(ctx, "fetch execution failed", "error", err)
}
