package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"matebot-telegram/internal/domain"
	"matebot-telegram/internal/domain/model"
	"matebot-telegram/internal/domain/ports/adapter"
	"matebot-telegram/internal/domain/ports/repository"
	"matebot-telegram/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase resolves Telegram accounts to MateBot core users and drives the
// sign-up flow for unknown accounts.
type UserUseCase interface {
	// PatchFromUpdate refreshes the stored display names of a known Telegram
	// account. Unknown accounts are ignored.
	PatchFromUpdate(ctx context.Context, tgID int64, firstName, lastName, username string) error
	// LookupTelegramIdentifier resolves a name as typed by a user (optionally
	// prefixed with '@') to exactly one known Telegram account.
	LookupTelegramIdentifier(ctx context.Context, identifier string) (*model.TelegramUser, error)
	// GetCoreUser returns the core user bound to a Telegram account. Accounts
	// whose alias awaits confirmation yield ErrUserNotVerified.
	GetCoreUser(ctx context.Context, tgID int64) (*model.User, error)
	FindTelegramUser(ctx context.Context, coreUserID int64) (*model.TelegramUser, error)
	// DeleteBinding drops the stored binding of a Telegram account, e.g. when
	// the core user behind it has been deleted.
	DeleteBinding(ctx context.Context, tgID int64) error

	StartRegistration(ctx context.Context, r *model.RegistrationProcess) error
	GetRegistration(ctx context.Context, tgID int64) (*model.RegistrationProcess, error)
	AbortRegistration(ctx context.Context, tgID int64) error
	// SignUpNewUser creates a fresh core user for the Telegram account and
	// binds it with an already confirmed alias.
	SignUpNewUser(ctx context.Context, tg *model.TelegramUser, displayName string) (*model.User, error)
	// SignUpAsAlias attaches the Telegram account to an existing core user as
	// an unconfirmed alias that must be confirmed from another frontend.
	SignUpAsAlias(ctx context.Context, tg *model.TelegramUser, coreUserID int64) (*model.User, error)
}

type userUC struct {
	users         repository.TelegramUserRepository
	registrations repository.RegistrationRepository
	client        adapter.MateBotClient
	tm            repository.TransactionManager
	log           *zerolog.Logger
}

func NewUserUseCase(
	users repository.TelegramUserRepository,
	registrations repository.RegistrationRepository,
	client adapter.MateBotClient,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *userUC {
	return &userUC{
		users:         users,
		registrations: registrations,
		client:        client,
		tm:            tm,
		log:           logger,
	}
}

func (uc *userUC) PatchFromUpdate(ctx context.Context, tgID int64, firstName, lastName, username string) error {
	known, err := uc.users.FindByTelegramID(ctx, repository.NoTX, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if known.FirstName == firstName && known.LastName == lastName && known.Username == username {
		return nil
	}
	uc.log.Debug().Int64("tg_id", tgID).Msg("Refreshing stored Telegram display names")
	return uc.users.UpdateNames(ctx, repository.NoTX, tgID, firstName, lastName, username)
}

func (uc *userUC) LookupTelegramIdentifier(ctx context.Context, identifier string) (*model.TelegramUser, error) {
	name := strings.TrimPrefix(strings.TrimSpace(identifier), "@")
	if name == "" {
		return nil, domain.ErrInvalidArgument
	}
	matches, err := uc.users.FindByName(ctx, repository.NoTX, name)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, domain.ErrNoUserFound
	case 1:
		return matches[0], nil
	default:
		return nil, domain.ErrAmbiguousUser
	}
}

func (uc *userUC) GetCoreUser(ctx context.Context, tgID int64) (*model.User, error) {
	defer logging.TraceDuration(uc.log, "UserUC.GetCoreUser")()

	binding, err := uc.users.FindByTelegramID(ctx, repository.NoTX, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoUserFound
		}
		return nil, err
	}
	user, err := uc.client.GetUser(ctx, binding.UserID)
	if err != nil {
		return nil, err
	}
	appID := uc.client.AppID()
	if !user.ConfirmedAliasIn(appID) {
		if user.AliasIn(appID) {
			return nil, domain.ErrUserNotVerified
		}
		// The core dropped the alias entirely, so the local binding is stale.
		uc.log.Warn().Int64("tg_id", tgID).Int64("core_user_id", user.ID).
			Msg("Dropping stale Telegram binding without core alias")
		if err := uc.users.Delete(ctx, repository.NoTX, tgID); err != nil {
			return nil, err
		}
		return nil, domain.ErrNoUserFound
	}
	return user, nil
}

func (uc *userUC) FindTelegramUser(ctx context.Context, coreUserID int64) (*model.TelegramUser, error) {
	return uc.users.FindByUserID(ctx, repository.NoTX, coreUserID)
}

func (uc *userUC) DeleteBinding(ctx context.Context, tgID int64) error {
	return uc.users.Delete(ctx, repository.NoTX, tgID)
}

func (uc *userUC) StartRegistration(ctx context.Context, r *model.RegistrationProcess) error {
	if r.Created.IsZero() {
		r.Created = time.Now()
	}
	return uc.registrations.Save(ctx, repository.NoTX, r)
}

func (uc *userUC) GetRegistration(ctx context.Context, tgID int64) (*model.RegistrationProcess, error) {
	return uc.registrations.Find(ctx, repository.NoTX, tgID)
}

func (uc *userUC) AbortRegistration(ctx context.Context, tgID int64) error {
	return uc.registrations.Delete(ctx, repository.NoTX, tgID)
}

func (uc *userUC) SignUpNewUser(ctx context.Context, tg *model.TelegramUser, displayName string) (*model.User, error) {
	defer logging.TraceDuration(uc.log, "UserUC.SignUpNewUser")()

	user, err := uc.client.CreateAppUser(ctx, displayName, tg.Username)
	if err != nil {
		return nil, err
	}
	if err := uc.bind(ctx, tg, user.ID); err != nil {
		return nil, err
	}
	uc.log.Info().Int64("tg_id", tg.TelegramID).Int64("core_user_id", user.ID).
		Msg("Signed up new core user")
	return user, nil
}

func (uc *userUC) SignUpAsAlias(ctx context.Context, tg *model.TelegramUser, coreUserID int64) (*model.User, error) {
	defer logging.TraceDuration(uc.log, "UserUC.SignUpAsAlias")()

	if _, err := uc.client.CreateAlias(ctx, coreUserID, tg.Username, false); err != nil {
		return nil, err
	}
	if err := uc.bind(ctx, tg, coreUserID); err != nil {
		return nil, err
	}
	user, err := uc.client.GetUser(ctx, coreUserID)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("tg_id", tg.TelegramID).Int64("core_user_id", coreUserID).
		Msg("Signed up Telegram account as unconfirmed alias")
	return user, nil
}

// bind stores the binding and clears any pending registration atomically.
func (uc *userUC) bind(ctx context.Context, tg *model.TelegramUser, coreUserID int64) error {
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	return uc.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		now := time.Now()
		if err := uc.users.Save(ctx, tx, &model.TelegramUser{
			TelegramID: tg.TelegramID,
			UserID:     coreUserID,
			FirstName:  tg.FirstName,
			LastName:   tg.LastName,
			Username:   tg.Username,
			Created:    now,
			Modified:   now,
		}); err != nil {
			return err
		}
		return uc.registrations.Delete(ctx, tx, tg.TelegramID)
	})
}
