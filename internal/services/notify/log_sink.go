package notify

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipsa/internal/interfaces"
	"github.com/ternarybob/ipsa/internal/models"
)

// LogSink writes notifications to the log. Used when no bot token is configured.
type LogSink struct {
	logger arbor.ILogger
}

var _ interfaces.NotificationSink = (*LogSink)(nil)

func NewLogSink(logger arbor.ILogger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Deliver(ctx context.Context, user models.UserID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Info().Str("user", user.String()).Str("text", text).Msg("Notification")
	return nil
}
