package telegram

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"matebot-telegram/internal/infra/logging"
	"matebot-telegram/internal/infra/metrics"
	"matebot-telegram/internal/infra/redis"
)

const (
	rateLimitPerWindow = 20
	rateLimitWindow    = time.Minute
)

// Bot polls Telegram for updates and feeds them through the router with a
// bounded worker pool.
type Bot struct {
	api     *tgbotapi.BotAPI
	router  *Router
	limiter *redis.RateLimiter
	workers int
	log     *zerolog.Logger

	cancelPolling context.CancelFunc
}

func NewBot(api *tgbotapi.BotAPI, router *Router, limiter *redis.RateLimiter, workers int, logger *zerolog.Logger) *Bot {
	if workers <= 0 {
		workers = 4
	}
	logger.Info().Str("bot", api.Self.UserName).Int("workers", workers).Msg("Connected to the Telegram Bot API")
	return &Bot{
		api:     api,
		router:  router,
		limiter: limiter,
		workers: workers,
		log:     logger,
	}
}

// StartPolling receives updates until ctx is canceled.
func (b *Bot) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	b.cancelPolling = cancel

	updateChan := make(chan tgbotapi.Update, 100)

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				select {
				case update, ok := <-updateChan:
					if !ok {
						return
					}
					b.handleUpdate(ctx, update)
				case <-ctx.Done():
					return
				}
			}
		}(i + 1)
	}

	go func() {
		defer close(updateChan)
		for {
			select {
			case update := <-updates:
				select {
				case updateChan <- update:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	<-ctx.Done()
	b.api.StopReceivingUpdates()
	wg.Wait()
	return nil
}

// StopPolling stops the polling loop gracefully.
func (b *Bot) StopPolling() {
	if b.cancelPolling != nil {
		b.cancelPolling()
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	from := update.SentFrom()
	if from == nil && update.MyChatMember != nil {
		from = &update.MyChatMember.From
	}
	if from == nil || from.IsBot {
		return
	}
	ctx = logging.WithTgID(ctx, from.ID)

	// FromChat dereferences CallbackQuery.Message without a nil check.
	switch {
	case update.MyChatMember != nil:
		ctx = logging.WithChatID(ctx, update.MyChatMember.Chat.ID)
	case update.CallbackQuery == nil || update.CallbackQuery.Message != nil:
		if chat := update.FromChat(); chat != nil {
			ctx = logging.WithChatID(ctx, chat.ID)
		}
	}

	if b.limiter != nil {
		allowed, err := b.limiter.Allow(ctx, redis.UserCommandKey(from.ID, updateKind(update)), rateLimitPerWindow, rateLimitWindow)
		if err != nil {
			// Redis trouble must not take the bot down.
			b.log.Warn().Err(err).Msg("Rate limiter unavailable, letting the update pass")
		} else if !allowed {
			metrics.IncRateLimitTriggered()
			b.log.Debug().Int64("tg_id", from.ID).Msg("Dropping update of rate-limited user")
			return
		}
	}

	if err := b.router.Route(ctx, update); err != nil {
		logging.With(ctx, b.log).Error().Err(err).Msg("Failed to handle update")
	}
}

func updateKind(update tgbotapi.Update) string {
	switch {
	case update.CallbackQuery != nil:
		return "callback"
	case update.MyChatMember != nil:
		return "chat_member"
	case update.Message != nil && update.Message.IsCommand():
		return update.Message.Command()
	default:
		return "message"
	}
}
