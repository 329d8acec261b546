package migrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
)

// ErrAlreadyMigrated is returned when the target tables hold data, since a
// second run would duplicate rows.
var ErrAlreadyMigrated = errors.New("target tables already contain data")

// Report summarizes one migration run.
type Report struct {
	Users          int
	SharedMessages int
	Skips          []Skip
}

// Runner copies legacy bot state into the current schema in one transaction.
type Runner struct {
	pool *pgxpool.Pool
	log  *zerolog.Logger
}

func NewRunner(pool *pgxpool.Pool, logger *zerolog.Logger) *Runner {
	return &Runner{pool: pool, log: logger}
}

// Run performs the migration. It refuses to run against non-empty target
// tables and rolls everything back on any failure.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.ensureEmpty(ctx, tx); err != nil {
		return nil, err
	}

	legacyUsers, err := r.readLegacyUsers(ctx, tx)
	if err != nil {
		return nil, err
	}
	legacyCollectives, legacyMessages, err := r.readLegacyCollectives(ctx, tx)
	if err != nil {
		return nil, err
	}
	coreUsers, err := r.readCoreUsers(ctx, tx)
	if err != nil {
		return nil, err
	}
	communisms, err := r.readCoreCollectives(ctx, tx, "core.communisms")
	if err != nil {
		return nil, err
	}
	refunds, err := r.readCoreCollectives(ctx, tx, "core.refunds")
	if err != nil {
		return nil, err
	}

	users, userSkips := MatchUsers(legacyUsers, coreUsers)
	shared, collectiveSkips := MatchCollectives(legacyCollectives, legacyMessages, communisms, refunds)

	for _, u := range users {
		_, err := tx.Exec(ctx,
			`INSERT INTO telegram_users (telegram_id, user_id, first_name, last_name, username, created, modified)
			 VALUES ($1, $2, $3, '', $4, $5, $5)`,
			u.TelegramID, u.UserID, u.FirstName, u.Username, u.Created)
		if err != nil {
			return nil, fmt.Errorf("insert telegram user %d: %w", u.TelegramID, err)
		}
	}
	for _, m := range shared {
		_, err := tx.Exec(ctx,
			`INSERT INTO shared_messages (share_type, share_id, chat_id, message_id)
			 VALUES ($1, $2, $3, $4)`,
			m.ShareType, m.ShareID, m.ChatID, m.MessageID)
		if err != nil {
			return nil, fmt.Errorf("insert shared message for %s %d: %w", m.ShareType, m.ShareID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	report := &Report{
		Users:          len(users),
		SharedMessages: len(shared),
		Skips:          append(userSkips, collectiveSkips...),
	}
	for _, s := range report.Skips {
		r.log.Warn().Str("kind", s.Kind).Int64("legacy_id", s.LegacyID).Str("reason", s.Reason).
			Msg("Skipped legacy row")
	}
	r.log.Info().Int("users", report.Users).Int("shared_messages", report.SharedMessages).
		Int("skipped", len(report.Skips)).Msg("Migration finished")
	return report, nil
}

func (r *Runner) ensureEmpty(ctx context.Context, tx pgx.Tx) error {
	for _, table := range []string{"telegram_users", "shared_messages"} {
		var count int
		if err := tx.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, table)).Scan(&count); err != nil {
			return fmt.Errorf("count %s: %w", table, err)
		}
		if count > 0 {
			return fmt.Errorf("%s holds %d rows: %w", table, count, ErrAlreadyMigrated)
		}
	}
	return nil
}

func (r *Runner) readLegacyUsers(ctx context.Context, tx pgx.Tx) ([]LegacyUser, error) {
	rows, err := tx.Query(ctx,
		`SELECT telegram_id, COALESCE(username, ''), COALESCE(first_name, ''), created FROM original.users`)
	if err != nil {
		return nil, fmt.Errorf("read legacy users: %w", err)
	}
	defer rows.Close()

	var out []LegacyUser
	for rows.Next() {
		var u LegacyUser
		if err := rows.Scan(&u.TelegramID, &u.Username, &u.FirstName, &u.Created); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Runner) readLegacyCollectives(ctx context.Context, tx pgx.Tx) ([]LegacyCollective, []LegacyCollectiveMessage, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, active, amount, COALESCE(description, ''), communistic, created FROM original.collectives`)
	if err != nil {
		return nil, nil, fmt.Errorf("read legacy collectives: %w", err)
	}
	defer rows.Close()

	var collectives []LegacyCollective
	for rows.Next() {
		var c LegacyCollective
		if err := rows.Scan(&c.ID, &c.Active, &c.Amount, &c.Description, &c.Communistic, &c.Created); err != nil {
			return nil, nil, err
		}
		collectives = append(collectives, c)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	msgRows, err := tx.Query(ctx,
		`SELECT collective_id, chat_id, message_id FROM original.collective_messages`)
	if err != nil {
		return nil, nil, fmt.Errorf("read legacy collective messages: %w", err)
	}
	defer msgRows.Close()

	var messages []LegacyCollectiveMessage
	for msgRows.Next() {
		var m LegacyCollectiveMessage
		if err := msgRows.Scan(&m.CollectiveID, &m.ChatID, &m.MessageID); err != nil {
			return nil, nil, err
		}
		messages = append(messages, m)
	}
	return collectives, messages, msgRows.Err()
}

func (r *Runner) readCoreUsers(ctx context.Context, tx pgx.Tx) ([]CoreUser, error) {
	rows, err := tx.Query(ctx, `SELECT id, COALESCE(name, '') FROM core.users`)
	if err != nil {
		return nil, fmt.Errorf("read core users: %w", err)
	}
	defer rows.Close()

	var out []CoreUser
	for rows.Next() {
		var u CoreUser
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Runner) readCoreCollectives(ctx context.Context, tx pgx.Tx, table string) ([]CoreCollective, error) {
	rows, err := tx.Query(ctx, fmt.Sprintf(
		`SELECT id, active, amount, COALESCE(description, ''), created FROM %s`, table))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	defer rows.Close()

	var out []CoreCollective
	for rows.Next() {
		var c CoreCollective
		if err := rows.Scan(&c.ID, &c.Active, &c.Amount, &c.Description, &c.Created); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
