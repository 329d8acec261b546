package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"matebot-telegram/internal/config"
	"matebot-telegram/internal/currency"
	pg "matebot-telegram/internal/infra/db/postgres"
	"matebot-telegram/internal/infra/logging"
	"matebot-telegram/internal/infra/metrics"
	red "matebot-telegram/internal/infra/redis"
	"matebot-telegram/internal/infra/sdk"
	tele "matebot-telegram/internal/infra/telegram"
	"matebot-telegram/internal/infra/web"
	"matebot-telegram/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "", "path to the configuration file (JSON or YAML)")
	devMode := flag.Bool("dev", false, "enable developer mode (console logging, unredacted values)")
	flag.Parse()

	var paths []string
	if *cfgPath != "" {
		paths = []string{*cfgPath}
	}
	cfg, err := config.Load(*devMode, paths...)
	if err != nil {
		// No logger yet.
		println("config:", err.Error())
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	var queryLogger *zerolog.Logger
	if cfg.DatabaseDebug {
		queryLogger = logger
	}
	pool, err := pg.NewPgxPool(ctx, cfg.DatabaseURL, 10, queryLogger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Postgres")
	}
	defer pool.Close()
	if err := pg.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("Failed to apply the database schema")
	}

	// ---- Redis (optional, disables rate limiting when absent) ----
	var limiter *red.RateLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient)
	} else {
		logger.Warn().Msg("No Redis configured, rate limiting is disabled")
	}

	// ---- MateBot core API ----
	client, err := sdk.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build the core API client")
	}
	if err := client.Login(ctx); err != nil {
		logger.Fatal().Err(err).Str("server", cfg.Server).Msg("Failed to log in at the core API")
	}
	logger.Info().Int64("app_id", client.AppID()).Str("server", cfg.Server).Msg("Logged in at the core API")

	// ---- Repositories ----
	userRepo := pg.NewTelegramUserRepo(pool)
	sharedRepo := pg.NewSharedMessageRepo(pool)
	registrationRepo := pg.NewRegistrationRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Telegram ----
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the Telegram Bot API")
	}
	sender := tele.NewRetrySender(api, logger)

	// ---- Use cases ----
	formatter := currency.NewFormatter(cfg.Currency)
	renderer := usecase.NewTextRenderer(client, formatter)
	sharedUC := usecase.NewSharedMessageUseCase(sharedRepo, logger)
	broadcastUC := usecase.NewBroadcastUseCase(sharedUC, sender, cfg.AutoForward, logger)
	userUC := usecase.NewUserUseCase(userRepo, registrationRepo, client, tm, logger)

	dispatcher := usecase.NewEventDispatcher(logger)
	usecase.NewEventHandlers(client, renderer, broadcastUC, userUC, sharedUC, sender, formatter, cfg.Chats, logger).
		RegisterAll(dispatcher)

	// ---- Bot ----
	router := tele.NewRouter(userUC, client, renderer, broadcastUC, sharedUC, sender, api, logger)
	bot := tele.NewBot(api, router, limiter, cfg.Workers, logger)
	broadcastUC.SendNotification(ctx, cfg.Chats.Debugging, "Bot is up and connected to the core API.")
	go func() {
		if err := bot.StartPolling(ctx); err != nil {
			logger.Error().Err(err).Msg("Telegram polling stopped")
		}
	}()

	// ---- Callback server ----
	var server *web.Server
	if cfg.Callback.Enabled {
		server = web.NewServer(cfg.Callback, dispatcher, logger)
		go func() {
			if err := server.ListenAndServe(); err != nil {
				logger.Error().Err(err).Msg("Callback server failed")
				cancel()
			}
		}()
		if cfg.Callback.PublicURL != "" {
			if err := client.EnsureCallback(ctx, cfg.Callback.PublicURL, cfg.Callback.SharedSecret); err != nil {
				logger.Warn().Err(err).Str("public_url", cfg.Callback.PublicURL).
					Msg("Failed to register the callback URL at the core API")
			}
		}
	} else {
		logger.Warn().Msg("Callback server disabled, shared messages only update on user interaction")
	}

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigc:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown requested")
	case <-ctx.Done():
	}
	cancel()
	bot.StopPolling()
	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Callback server shutdown failed")
		}
	}
}
