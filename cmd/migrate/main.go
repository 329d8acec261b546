package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/rs/zerolog"

	"matebot-telegram/internal/config"
	pg "matebot-telegram/internal/infra/db/postgres"
	"matebot-telegram/internal/infra/logging"
	"matebot-telegram/internal/migrate"
)

// cmd/migrate performs the one-time transfer of legacy bot data into the
// current schema. It expects the legacy tables in the `original` schema and
// the backend tables in the `core` schema of the configured database.
func main() {
	ctx := context.Background()

	cfgPath := flag.String("config", "", "path to the configuration file (JSON or YAML)")
	flag.Parse()

	var paths []string
	if *cfgPath != "" {
		paths = []string{*cfgPath}
	}
	cfg, err := config.Load(false, paths...)
	if err != nil {
		println("config:", err.Error())
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging, false)

	var queryLogger *zerolog.Logger
	if cfg.DatabaseDebug {
		queryLogger = logger
	}
	pool, err := pg.NewPgxPool(ctx, cfg.DatabaseURL, 2, queryLogger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Postgres")
	}
	defer pool.Close()
	if err := pg.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("Failed to apply the database schema")
	}

	report, err := migrate.NewRunner(pool, logger).Run(ctx)
	if err != nil {
		if errors.Is(err, migrate.ErrAlreadyMigrated) {
			logger.Fatal().Err(err).Msg("Refusing to migrate twice")
		}
		logger.Fatal().Err(err).Msg("Migration failed, all changes rolled back")
	}
	logger.Info().Int("users", report.Users).Int("shared_messages", report.SharedMessages).
		Int("skipped", len(report.Skips)).Msg("Done")
}
