package usecase

import (
	"context"

	"matebot-telegram/internal/config"
	"matebot-telegram/internal/domain/model"
	"matebot-telegram/internal/domain/ports/adapter"
	"matebot-telegram/internal/infra/logging"
	"matebot-telegram/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ BroadcastUseCase = (*broadcastUC)(nil)

// BroadcastUseCase distributes and synchronizes the shared messages of one
// collective operation across all chats that carry them.
type BroadcastUseCase interface {
	// SendAutoShareMessages delivers a new shared message to every configured
	// auto-forward chat that does not hold one yet and registers the sent
	// messages. It returns the number of newly delivered messages.
	SendAutoShareMessages(ctx context.Context, shareType model.ShareType, shareID int64, text string, kb adapter.Keyboard) (int, error)
	// UpdateSharedMessages edits every registered message of the object to the
	// given text and keyboard. With forget set, the registry entries are
	// dropped afterwards so closed objects stop receiving edits.
	UpdateSharedMessages(ctx context.Context, shareType model.ShareType, shareID int64, text string, kb adapter.Keyboard, forget bool) error
	// SendNotification delivers a plain message to a fixed list of chats,
	// e.g. the configured transaction or debugging channels.
	SendNotification(ctx context.Context, chats []int64, text string)
}

type broadcastUC struct {
	shared SharedMessageUseCase
	sender adapter.MessagePort
	fwd    config.AutoForwardConfig
	log    *zerolog.Logger
}

func NewBroadcastUseCase(
	shared SharedMessageUseCase,
	sender adapter.MessagePort,
	fwd config.AutoForwardConfig,
	logger *zerolog.Logger,
) *broadcastUC {
	return &broadcastUC{
		shared: shared,
		sender: sender,
		fwd:    fwd,
		log:    logger,
	}
}

func (uc *broadcastUC) SendAutoShareMessages(ctx context.Context, shareType model.ShareType, shareID int64, text string, kb adapter.Keyboard) (int, error) {
	defer logging.TraceDuration(uc.log, "BroadcastUC.SendAutoShareMessages")()

	chats, ok := uc.fwd.Chats(string(shareType))
	if !ok || len(chats) == 0 {
		return 0, nil
	}

	existing, err := uc.shared.List(ctx, shareType, shareID)
	if err != nil {
		return 0, err
	}
	occupied := make(map[int64]bool, len(existing))
	for _, m := range existing {
		occupied[m.ChatID] = true
	}

	sent := 0
	for _, chatID := range chats {
		if occupied[chatID] {
			continue
		}
		messageID, err := uc.sender.SendMarkdown(ctx, chatID, text, kb)
		if err != nil {
			uc.log.Error().Err(err).Int64("chat_id", chatID).Str("share_type", string(shareType)).
				Int64("share_id", shareID).Msg("Failed to auto-forward shared message")
			continue
		}
		if _, err := uc.shared.Register(ctx, model.SharedMessage{
			ShareType: shareType,
			ShareID:   shareID,
			ChatID:    chatID,
			MessageID: messageID,
		}); err != nil {
			return sent, err
		}
		sent++
	}
	uc.log.Debug().Str("share_type", string(shareType)).Int64("share_id", shareID).
		Int("sent", sent).Msg("Auto-forwarded shared messages")
	return sent, nil
}

func (uc *broadcastUC) UpdateSharedMessages(ctx context.Context, shareType model.ShareType, shareID int64, text string, kb adapter.Keyboard, forget bool) error {
	defer logging.TraceDuration(uc.log, "BroadcastUC.UpdateSharedMessages")()

	msgs, err := uc.shared.List(ctx, shareType, shareID)
	if err != nil {
		return err
	}
	for _, m := range msgs {
		if err := uc.sender.EditMarkdown(ctx, m.ChatID, m.MessageID, text, kb); err != nil {
			uc.log.Warn().Err(err).Int64("chat_id", m.ChatID).Int64("message_id", m.MessageID).
				Msg("Failed to edit shared message")
			continue
		}
		metrics.IncSharedMessageOp(string(shareType), "edit")
	}
	if forget {
		if _, err := uc.shared.ForgetObject(ctx, shareType, shareID); err != nil {
			return err
		}
	}
	return nil
}

func (uc *broadcastUC) SendNotification(ctx context.Context, chats []int64, text string) {
	for _, chatID := range chats {
		if _, err := uc.sender.SendMarkdown(ctx, chatID, text, nil); err != nil {
			logging.With(ctx, uc.log).Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to send notification message")
		}
	}
}
