package repository

import (
	"context"

	"matebot-telegram/internal/domain/model"
)

// SharedMessageRepository stores which chat messages mirror a collective
// operation. All rows of one (share type, share ID) pair are edited together
// when the underlying object changes.
type SharedMessageRepository interface {
	// Add inserts the tuple unless it already exists; it reports whether a
	// new row was created.
	Add(ctx context.Context, tx Tx, msg model.SharedMessage) (bool, error)
	// List returns messages filtered by share type and share ID. A zero
	// shareID means all messages of the type; an empty shareType means all
	// messages. Filtering by shareID without shareType is invalid.
	List(ctx context.Context, tx Tx, shareType model.ShareType, shareID int64) ([]model.SharedMessage, error)
	// Delete removes one exact tuple; it reports whether anything was removed.
	Delete(ctx context.Context, tx Tx, msg model.SharedMessage) (bool, error)
	// DeleteAll removes every message of a (share type, share ID) pair.
	DeleteAll(ctx context.Context, tx Tx, shareType model.ShareType, shareID int64) (bool, error)
	// PopByChat removes and returns all messages of one chat.
	PopByChat(ctx context.Context, tx Tx, chatID int64) ([]model.SharedMessage, error)
}
