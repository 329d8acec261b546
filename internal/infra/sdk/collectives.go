package sdk

import (
	"context"
	"net/http"
	"net/url"

	"matebot-telegram/internal/domain/model"
	"matebot-telegram/internal/domain/ports/adapter"
)

func collectiveQuery(f adapter.CollectiveFilter) url.Values {
	q := url.Values{}
	setInt(q, "id", f.ID)
	setBool(q, "active", f.Active)
	setInt(q, "creator_id", f.CreatorID)
	return q
}

func (c *Client) GetCommunisms(ctx context.Context, f adapter.CollectiveFilter) ([]model.Communism, error) {
	var out []model.Communism
	if err := c.do(ctx, http.MethodGet, "/v1/communisms", collectiveQuery(f), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCommunism(ctx context.Context, creatorID, amount int64, description string) (*model.Communism, error) {
	body := map[string]interface{}{"creator": creatorID, "amount": amount, "description": description}
	var out model.Communism
	if err := c.do(ctx, http.MethodPost, "/v1/communisms", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) IncreaseParticipation(ctx context.Context, communismID, userID int64) (*model.Communism, error) {
	return c.communismAction(ctx, "/v1/communisms/increaseParticipation", communismID, userID)
}

func (c *Client) DecreaseParticipation(ctx context.Context, communismID, userID int64) (*model.Communism, error) {
	return c.communismAction(ctx, "/v1/communisms/decreaseParticipation", communismID, userID)
}

func (c *Client) CloseCommunism(ctx context.Context, communismID, issuerID int64) (*model.Communism, error) {
	return c.communismAction(ctx, "/v1/communisms/close", communismID, issuerID)
}

func (c *Client) AbortCommunism(ctx context.Context, communismID, issuerID int64) (*model.Communism, error) {
	return c.communismAction(ctx, "/v1/communisms/abort", communismID, issuerID)
}

func (c *Client) communismAction(ctx context.Context, path string, communismID, userID int64) (*model.Communism, error) {
	body := map[string]interface{}{"id": communismID, "user": userID}
	var out model.Communism
	if err := c.do(ctx, http.MethodPost, path, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetRefunds(ctx context.Context, f adapter.CollectiveFilter) ([]model.Refund, error) {
	var out []model.Refund
	if err := c.do(ctx, http.MethodGet, "/v1/refunds", collectiveQuery(f), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateRefund(ctx context.Context, creatorID, amount int64, description string) (*model.Refund, error) {
	body := map[string]interface{}{"creator": creatorID, "amount": amount, "description": description}
	var out model.Refund
	if err := c.do(ctx, http.MethodPost, "/v1/refunds", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VoteOnRefund(ctx context.Context, ballotID, userID int64, approve bool) (*model.Refund, error) {
	body := map[string]interface{}{"ballot_id": ballotID, "user": userID, "vote": approve}
	var out model.Refund
	if err := c.do(ctx, http.MethodPost, "/v1/refunds/vote", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AbortRefund(ctx context.Context, refundID, issuerID int64) (*model.Refund, error) {
	body := map[string]interface{}{"id": refundID, "issuer": issuerID}
	var out model.Refund
	if err := c.do(ctx, http.MethodPost, "/v1/refunds/abort", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPolls(ctx context.Context, f adapter.CollectiveFilter) ([]model.Poll, error) {
	var out []model.Poll
	if err := c.do(ctx, http.MethodGet, "/v1/polls", collectiveQuery(f), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreatePoll(ctx context.Context, userID, issuerID int64, variant model.PollVariant) (*model.Poll, error) {
	body := map[string]interface{}{"user": userID, "issuer": issuerID, "variant": string(variant)}
	var out model.Poll
	if err := c.do(ctx, http.MethodPost, "/v1/polls", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VoteOnPoll(ctx context.Context, ballotID, userID int64, approve bool) (*model.Poll, error) {
	body := map[string]interface{}{"ballot_id": ballotID, "user": userID, "vote": approve}
	var out model.Poll
	if err := c.do(ctx, http.MethodPost, "/v1/polls/vote", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AbortPoll(ctx context.Context, pollID, issuerID int64) (*model.Poll, error) {
	body := map[string]interface{}{"id": pollID, "issuer": issuerID}
	var out model.Poll
	if err := c.do(ctx, http.MethodPost, "/v1/polls/abort", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
