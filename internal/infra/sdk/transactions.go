package sdk

import (
	"context"
	"net/http"
	"net/url"

	"matebot-telegram/internal/domain/model"
)

func (c *Client) GetTransactions(ctx context.Context, memberID *int64) ([]model.Transaction, error) {
	q := url.Values{}
	setInt(q, "member_id", memberID)
	var out []model.Transaction
	if err := c.do(ctx, http.MethodGet, "/v1/transactions", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SendTransaction(ctx context.Context, senderID, receiverID, amount int64, reason string) (*model.Transaction, error) {
	body := map[string]interface{}{
		"sender":   senderID,
		"receiver": receiverID,
		"amount":   amount,
		"reason":   reason,
	}
	var out model.Transaction
	if err := c.do(ctx, http.MethodPost, "/v1/transactions/send", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetConsumables(ctx context.Context) ([]model.Consumable, error) {
	var out []model.Consumable
	if err := c.do(ctx, http.MethodGet, "/v1/consumables", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Consume(ctx context.Context, userID int64, consumable string, amount int64) (*model.Transaction, error) {
	body := map[string]interface{}{"user": userID, "consumable": consumable, "amount": amount}
	var out model.Transaction
	if err := c.do(ctx, http.MethodPost, "/v1/transactions/consume", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
