package chain

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSink is a NotificationSink that writes messages to the log. Used as
// the default when no external messenger is configured.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Compile-time interface check.
var _ NotificationSink = (*LogSink)(nil)

// Notify logs the message at info level.
func (s *LogSink) Notify(_ context.Context, message string) {
	s.logger.Info().Str("notification", message).Msg("notify")
}
