package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"matebot-telegram/internal/domain"
	"matebot-telegram/internal/domain/model"
	"matebot-telegram/internal/domain/ports/repository"
)

var _ repository.SharedMessageRepository = (*SharedMessageRepo)(nil)

type SharedMessageRepo struct {
	pool *pgxpool.Pool
}

func NewSharedMessageRepo(pool *pgxpool.Pool) *SharedMessageRepo {
	return &SharedMessageRepo{pool: pool}
}

func (r *SharedMessageRepo) Add(ctx context.Context, tx repository.Tx, msg model.SharedMessage) (bool, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}
	const q = `
INSERT INTO shared_messages (share_type, share_id, chat_id, message_id)
VALUES ($1,$2,$3,$4)
ON CONFLICT (share_type, share_id, chat_id, message_id) DO NOTHING;
`
	tag, err := ex.Exec(ctx, q, string(msg.ShareType), msg.ShareID, msg.ChatID, msg.MessageID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *SharedMessageRepo) List(ctx context.Context, tx repository.Tx, shareType model.ShareType, shareID int64) ([]model.SharedMessage, error) {
	if shareType == "" && shareID != 0 {
		return nil, fmt.Errorf("%w: share type can't be unset when the share ID is set", domain.ErrInvalidArgument)
	}
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	q := `SELECT share_type, share_id, chat_id, message_id FROM shared_messages`
	var args []interface{}
	switch {
	case shareType != "" && shareID != 0:
		q += ` WHERE share_type=$1 AND share_id=$2`
		args = append(args, string(shareType), shareID)
	case shareType != "":
		q += ` WHERE share_type=$1`
		args = append(args, string(shareType))
	}
	q += ` ORDER BY id;`

	rows, err := ex.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SharedMessage
	for rows.Next() {
		var m model.SharedMessage
		var rawType string
		if err := rows.Scan(&rawType, &m.ShareID, &m.ChatID, &m.MessageID); err != nil {
			return nil, err
		}
		m.ShareType = model.ShareType(rawType)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SharedMessageRepo) Delete(ctx context.Context, tx repository.Tx, msg model.SharedMessage) (bool, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}
	const q = `
DELETE FROM shared_messages
 WHERE share_type=$1 AND share_id=$2 AND chat_id=$3 AND message_id=$4;
`
	tag, err := ex.Exec(ctx, q, string(msg.ShareType), msg.ShareID, msg.ChatID, msg.MessageID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *SharedMessageRepo) DeleteAll(ctx context.Context, tx repository.Tx, shareType model.ShareType, shareID int64) (bool, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}
	tag, err := ex.Exec(ctx, `DELETE FROM shared_messages WHERE share_type=$1 AND share_id=$2;`, string(shareType), shareID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *SharedMessageRepo) PopByChat(ctx context.Context, tx repository.Tx, chatID int64) ([]model.SharedMessage, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const q = `
DELETE FROM shared_messages WHERE chat_id=$1
RETURNING share_type, share_id, chat_id, message_id;
`
	rows, err := ex.Query(ctx, q, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SharedMessage
	for rows.Next() {
		var m model.SharedMessage
		var rawType string
		if err := rows.Scan(&rawType, &m.ShareID, &m.ChatID, &m.MessageID); err != nil {
			return nil, err
		}
		m.ShareType = model.ShareType(rawType)
		out = append(out, m)
	}
	return out, rows.Err()
}
