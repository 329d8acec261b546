package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"matebot-telegram/internal/domain/ports/adapter"
	"matebot-telegram/internal/infra/metrics"
)

// botSender is the slice of tgbotapi.BotAPI the sender needs.
type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Compile-time check
var _ adapter.MessagePort = (*RetrySender)(nil)

// RetrySender implements adapter.MessagePort on top of the Telegram Bot API.
// It retries flood-wait errors, falls back to plain text when markdown
// entities cannot be parsed and tolerates no-op edits.
type RetrySender struct {
	api        botSender
	log        *zerolog.Logger
	maxRetries int
	// sleep is overridable in tests
	sleep func(time.Duration)
}

func NewRetrySender(api botSender, logger *zerolog.Logger) *RetrySender {
	return &RetrySender{
		api:        api,
		log:        logger,
		maxRetries: 3,
		sleep:      time.Sleep,
	}
}

func (s *RetrySender) SendMarkdown(ctx context.Context, chatID int64, text string, kb adapter.Keyboard) (int64, error) {
	build := func(parseMode string) tgbotapi.Chattable {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = parseMode
		if markup := toInlineMarkup(kb); markup != nil {
			msg.ReplyMarkup = *markup
		}
		return msg
	}
	sent, err := s.deliver(ctx, build)
	if err != nil {
		return 0, err
	}
	return int64(sent.MessageID), nil
}

func (s *RetrySender) EditMarkdown(ctx context.Context, chatID, messageID int64, text string, kb adapter.Keyboard) error {
	build := func(parseMode string) tgbotapi.Chattable {
		msg := tgbotapi.NewEditMessageText(chatID, int(messageID), text)
		msg.ParseMode = parseMode
		msg.ReplyMarkup = toInlineMarkup(kb)
		return msg
	}
	_, err := s.deliver(ctx, build)
	if err != nil && isNotModified(err) {
		return nil
	}
	return err
}

// deliver sends a message with markdown and degrades gracefully: flood-wait
// errors are retried after the announced delay, a failing entity parser
// downgrades the message to plain text exactly once.
func (s *RetrySender) deliver(ctx context.Context, build func(parseMode string) tgbotapi.Chattable) (tgbotapi.Message, error) {
	parseMode := tgbotapi.ModeMarkdown
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return tgbotapi.Message{}, err
		}
		msg, err := s.api.Send(build(parseMode))
		if err == nil {
			return msg, nil
		}
		lastErr = err

		if wait, ok := retryAfter(err); ok {
			metrics.IncSendRetry("flood_wait")
			s.log.Warn().Dur("retry_after", wait).Msg("Hit Telegram flood limit, backing off")
			s.sleep(wait)
			continue
		}
		if parseMode != "" && isEntityParseError(err) {
			metrics.IncSendRetry("parse_mode")
			s.log.Warn().Err(err).Msg("Markdown rejected, resending as plain text")
			parseMode = ""
			continue
		}
		return tgbotapi.Message{}, err
	}
	return tgbotapi.Message{}, lastErr
}

func toInlineMarkup(kb adapter.Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if len(kb) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			} else {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		rows = append(rows, buttons)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

func retryAfter(err error) (time.Duration, bool) {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.RetryAfter > 0 {
		return time.Duration(tgErr.RetryAfter) * time.Second, true
	}
	return 0, false
}

func isEntityParseError(err error) bool {
	return strings.Contains(err.Error(), "can't parse entities")
}

func isNotModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
