package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"matebot-telegram/internal/domain"
	"matebot-telegram/internal/domain/model"
	"matebot-telegram/internal/domain/ports/repository"
)

var _ repository.RegistrationRepository = (*RegistrationRepo)(nil)

type RegistrationRepo struct {
	pool *pgxpool.Pool
}

func NewRegistrationRepo(pool *pgxpool.Pool) *RegistrationRepo {
	return &RegistrationRepo{pool: pool}
}

func (r *RegistrationRepo) Save(ctx context.Context, tx repository.Tx, reg *model.RegistrationProcess) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO registration_processes (telegram_id, application_id, selected_username, core_user_id)
VALUES ($1,$2,$3,$4)
ON CONFLICT (telegram_id) DO UPDATE SET
  application_id=$2, selected_username=$3, core_user_id=$4;
`
	_, err = ex.Exec(ctx, q, reg.TelegramID, reg.ApplicationID, nullable(reg.SelectedUsername), reg.CoreUserID)
	return err
}

func (r *RegistrationRepo) Find(ctx context.Context, tx repository.Tx, telegramID int64) (*model.RegistrationProcess, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const q = `
SELECT telegram_id, application_id, selected_username, core_user_id, created
  FROM registration_processes WHERE telegram_id=$1;
`
	var reg model.RegistrationProcess
	var selected *string
	if err := ex.QueryRow(ctx, q, telegramID).Scan(&reg.TelegramID, &reg.ApplicationID, &selected, &reg.CoreUserID, &reg.Created); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if selected != nil {
		reg.SelectedUsername = *selected
	}
	return &reg, nil
}

func (r *RegistrationRepo) Delete(ctx context.Context, tx repository.Tx, telegramID int64) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, `DELETE FROM registration_processes WHERE telegram_id=$1;`, telegramID)
	return err
}
