// Package notify delivers watcher notifications to users.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipsa/internal/interfaces"
	"github.com/ternarybob/ipsa/internal/models"
)

// sender is the part of *tgbotapi.BotAPI the sink needs
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSink sends notifications as Telegram messages. The user id is the chat id.
type TelegramSink struct {
	bot    sender
	logger arbor.ILogger
}

var _ interfaces.NotificationSink = (*TelegramSink)(nil)

// NewTelegramSink authorizes the bot token and returns a sink
func NewTelegramSink(token string, debug bool, logger arbor.ILogger) (*TelegramSink, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: telegram bot token not configured", interfaces.ErrConfiguration)
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize telegram bot: %w", err)
	}
	bot.Debug = debug

	logger.Info().Str("account", bot.Self.UserName).Msg("Telegram bot authorized")

	return newTelegramSink(bot, logger), nil
}

func newTelegramSink(bot sender, logger arbor.ILogger) *TelegramSink {
	return &TelegramSink{
		bot:    bot,
		logger: logger,
	}
}

// Deliver sends text as Markdown without link previews. Text Telegram cannot
// parse as Markdown is resent as plain text.
func (s *TelegramSink) Deliver(ctx context.Context, user models.UserID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(int64(user), text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	_, err := s.bot.Send(msg)
	if err != nil && isMarkupError(err) {
		s.logger.Debug().Str("user", user.String()).Err(err).Msg("Markdown rejected, resending as plain text")
		msg.ParseMode = ""
		_, err = s.bot.Send(msg)
	}
	if err != nil {
		return fmt.Errorf("%w: telegram send to %s: %w", interfaces.ErrDelivery, user, err)
	}

	return nil
}

func isMarkupError(err error) bool {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == 400 && strings.Contains(strings.ToLower(apiErr.Message), "parse entities")
}
