package usecase

import (
	"context"

	"matebot-telegram/internal/domain/model"
	"matebot-telegram/internal/domain/ports/repository"
	"matebot-telegram/internal/infra/logging"
	"matebot-telegram/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ SharedMessageUseCase = (*sharedMessageUC)(nil)

// SharedMessageUseCase manages the registry of chat messages that mirror
// communisms, refunds, polls and alias confirmation requests.
type SharedMessageUseCase interface {
	Register(ctx context.Context, msg model.SharedMessage) (bool, error)
	List(ctx context.Context, shareType model.ShareType, shareID int64) ([]model.SharedMessage, error)
	Forget(ctx context.Context, msg model.SharedMessage) (bool, error)
	ForgetObject(ctx context.Context, shareType model.ShareType, shareID int64) (bool, error)
	// PopChat removes and returns every registered message of one chat, so
	// callers can invalidate them after the bot loses access to the chat.
	PopChat(ctx context.Context, chatID int64) ([]model.SharedMessage, error)
}

type sharedMessageUC struct {
	messages repository.SharedMessageRepository
	log      *zerolog.Logger
}

func NewSharedMessageUseCase(messages repository.SharedMessageRepository, logger *zerolog.Logger) *sharedMessageUC {
	return &sharedMessageUC{messages: messages, log: logger}
}

func (uc *sharedMessageUC) Register(ctx context.Context, msg model.SharedMessage) (bool, error) {
	defer logging.TraceDuration(uc.log, "SharedMessageUC.Register")()

	created, err := uc.messages.Add(ctx, repository.NoTX, msg)
	if err != nil {
		uc.log.Error().Err(err).Str("share_type", string(msg.ShareType)).Int64("share_id", msg.ShareID).
			Msg("Failed to register shared message")
		return false, err
	}
	if created {
		metrics.IncSharedMessageOp(string(msg.ShareType), "create")
	}
	return created, nil
}

func (uc *sharedMessageUC) List(ctx context.Context, shareType model.ShareType, shareID int64) ([]model.SharedMessage, error) {
	return uc.messages.List(ctx, repository.NoTX, shareType, shareID)
}

func (uc *sharedMessageUC) Forget(ctx context.Context, msg model.SharedMessage) (bool, error) {
	removed, err := uc.messages.Delete(ctx, repository.NoTX, msg)
	if err != nil {
		return false, err
	}
	if removed {
		metrics.IncSharedMessageOp(string(msg.ShareType), "delete")
	}
	return removed, nil
}

func (uc *sharedMessageUC) ForgetObject(ctx context.Context, shareType model.ShareType, shareID int64) (bool, error) {
	removed, err := uc.messages.DeleteAll(ctx, repository.NoTX, shareType, shareID)
	if err != nil {
		return false, err
	}
	if removed {
		metrics.IncSharedMessageOp(string(shareType), "delete")
	}
	return removed, nil
}

func (uc *sharedMessageUC) PopChat(ctx context.Context, chatID int64) ([]model.SharedMessage, error) {
	popped, err := uc.messages.PopByChat(ctx, repository.NoTX, chatID)
	if err != nil {
		uc.log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to pop shared messages of chat")
		return nil, err
	}
	for _, m := range popped {
		metrics.IncSharedMessageOp(string(m.ShareType), "delete")
	}
	return popped, nil
}
