package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"matebot-telegram/internal/domain"
	"matebot-telegram/internal/domain/model"
	"matebot-telegram/internal/domain/ports/repository"
)

var _ repository.TelegramUserRepository = (*TelegramUserRepo)(nil)

type TelegramUserRepo struct {
	pool *pgxpool.Pool
}

func NewTelegramUserRepo(pool *pgxpool.Pool) *TelegramUserRepo {
	return &TelegramUserRepo{pool: pool}
}

const telegramUserColumns = `telegram_id, user_id, first_name, last_name, username, created, modified`

func scanTelegramUser(row pgx.Row) (*model.TelegramUser, error) {
	var u model.TelegramUser
	var lastName, username *string
	if err := row.Scan(&u.TelegramID, &u.UserID, &u.FirstName, &lastName, &username, &u.Created, &u.Modified); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if lastName != nil {
		u.LastName = *lastName
	}
	if username != nil {
		u.Username = *username
	}
	return &u, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *TelegramUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.TelegramUser) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO telegram_users (telegram_id, user_id, first_name, last_name, username)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (telegram_id) DO UPDATE SET
  user_id=$2, first_name=$3, last_name=$4, username=$5, modified=now();
`
	_, err = ex.Exec(ctx, q, u.TelegramID, u.UserID, u.FirstName, nullable(u.LastName), nullable(u.Username))
	return err
}

func (r *TelegramUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, telegramID int64) (*model.TelegramUser, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`SELECT %s FROM telegram_users WHERE telegram_id=$1;`, telegramUserColumns)
	return scanTelegramUser(ex.QueryRow(ctx, q, telegramID))
}

func (r *TelegramUserRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID int64) (*model.TelegramUser, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`SELECT %s FROM telegram_users WHERE user_id=$1;`, telegramUserColumns)
	return scanTelegramUser(ex.QueryRow(ctx, q, userID))
}

func (r *TelegramUserRepo) FindByName(ctx context.Context, tx repository.Tx, name string) ([]*model.TelegramUser, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	// Match by username, by first name, or by the full "First Last" pair.
	var first, last string
	if parts := strings.Split(name, " "); len(parts) == 2 {
		first, last = parts[0], parts[1]
	}
	q := fmt.Sprintf(`
SELECT %s FROM telegram_users
 WHERE username=$1 OR first_name=$1 OR (first_name=$2 AND last_name=$3);`, telegramUserColumns)
	rows, err := ex.Query(ctx, q, name, first, last)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.TelegramUser
	for rows.Next() {
		u, err := scanTelegramUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *TelegramUserRepo) UpdateNames(ctx context.Context, tx repository.Tx, telegramID int64, firstName, lastName, username string) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const q = `
UPDATE telegram_users SET first_name=$2, last_name=$3, username=$4, modified=now()
 WHERE telegram_id=$1;
`
	tag, err := ex.Exec(ctx, q, telegramID, firstName, nullable(lastName), nullable(username))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *TelegramUserRepo) Delete(ctx context.Context, tx repository.Tx, telegramID int64) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, `DELETE FROM telegram_users WHERE telegram_id=$1;`, telegramID)
	return err
}
