package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/log/zerologadapter"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
)

// NewPgxPool connects a pgx pool to the given database URL. A non-nil
// queryLogger turns on statement-level query logging.
func NewPgxPool(ctx context.Context, databaseURL string, maxConns int32, queryLogger *zerolog.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if queryLogger != nil {
		cfg.ConnConfig.Logger = zerologadapter.NewLogger(*queryLogger)
		cfg.ConnConfig.LogLevel = pgx.LogLevelDebug
	}
	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}
