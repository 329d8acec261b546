package repository

import (
	"context"

	"matebot-telegram/internal/domain/model"
)

// TelegramUserRepository persists the binding between Telegram accounts and
// MateBot core users.
type TelegramUserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.TelegramUser) error
	FindByTelegramID(ctx context.Context, tx Tx, telegramID int64) (*model.TelegramUser, error)
	FindByUserID(ctx context.Context, tx Tx, userID int64) (*model.TelegramUser, error)
	// FindByName returns all bindings matching the username, the first name,
	// or the full "First Last" name, deduplicated by telegram ID.
	FindByName(ctx context.Context, tx Tx, name string) ([]*model.TelegramUser, error)
	// UpdateNames refreshes the display columns of an existing binding.
	UpdateNames(ctx context.Context, tx Tx, telegramID int64, firstName, lastName, username string) error
	Delete(ctx context.Context, tx Tx, telegramID int64) error
}
