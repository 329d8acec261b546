package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// schema holds the local bot tables. The MateBot core data lives in the
// backend service; only the Telegram binding tables are kept here.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS telegram_users (
		telegram_id BIGINT PRIMARY KEY,
		user_id     BIGINT NOT NULL UNIQUE,
		first_name  VARCHAR(64) NOT NULL,
		last_name   VARCHAR(64),
		username    VARCHAR(64),
		created     TIMESTAMPTZ NOT NULL DEFAULT now(),
		modified    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS shared_messages (
		id          BIGSERIAL PRIMARY KEY,
		share_type  VARCHAR(32) NOT NULL,
		share_id    BIGINT NOT NULL,
		chat_id     BIGINT NOT NULL,
		message_id  BIGINT NOT NULL,
		created     TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (share_type, share_id, chat_id, message_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_shared_messages_share
		ON shared_messages (share_type, share_id)`,
	`CREATE TABLE IF NOT EXISTS registration_processes (
		telegram_id       BIGINT PRIMARY KEY,
		application_id    BIGINT NOT NULL,
		selected_username VARCHAR(255),
		core_user_id      BIGINT,
		created           TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate creates the local tables when they are absent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
