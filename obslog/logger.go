// Package obslog provides the structured logging and metrics
// collectors shared by the coordinator and its stages. It adapts the
// teacher's plugin-facing zerolog/prometheus helpers to a pipeline-run
// context instead of a gRPC server context.
package obslog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Standard field names, kept consistent across every component that logs.
const (
	FieldRunID      = "run_id"
	FieldProvider   = "provider"
	FieldStage      = "stage"
	FieldOperation  = "operation"
	FieldDurationMs = "duration_ms"
)

// NewLogger builds a zerolog.Logger for component, writing to w (nil
// defaults to os.Stderr).
func NewLogger(component string, level zerolog.Level, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

// LogOperation returns a function that, when called, logs the elapsed
// time since LogOperation was called under FieldOperation/FieldDurationMs.
func LogOperation(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	return func() {
		logger.Info().
			Str(FieldOperation, operation).
			Int64(FieldDurationMs, time.Since(start).Milliseconds()).
			Msg("operation completed")
	}
}
