package repository

import (
	"context"

	"matebot-telegram/internal/domain/model"
)

// RegistrationRepository tracks pending sign-up conversations.
type RegistrationRepository interface {
	Save(ctx context.Context, tx Tx, r *model.RegistrationProcess) error
	Find(ctx context.Context, tx Tx, telegramID int64) (*model.RegistrationProcess, error)
	Delete(ctx context.Context, tx Tx, telegramID int64) error
}
