package adapter

import (
	"context"

	"matebot-telegram/internal/domain/model"
)

// UserFilter narrows GET /v1/users queries. Nil fields are not sent.
type UserFilter struct {
	ID        *int64
	Name      *string
	Active    *bool
	Community *bool
	AliasID   *int64
}

// AliasFilter narrows GET /v1/aliases queries.
type AliasFilter struct {
	ID        *int64
	Username  *string
	Confirmed *bool
	Active    *bool
}

// CollectiveFilter narrows communism/refund/poll queries.
type CollectiveFilter struct {
	ID        *int64
	Active    *bool
	CreatorID *int64
}

// MateBotClient is the typed surface of the core REST API used by the bot.
type MateBotClient interface {
	Status(ctx context.Context) (*model.Status, error)
	Settings(ctx context.Context) (*model.GeneralConfig, error)
	AppID() int64
	EnsureCallback(ctx context.Context, publicURL, sharedSecret string) error

	GetUsers(ctx context.Context, f UserFilter) ([]model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUsersByAlias(ctx context.Context, f AliasFilter) ([]model.User, error)
	GetAliases(ctx context.Context, f AliasFilter) ([]model.Alias, error)
	GetApplication(ctx context.Context, id int64) (*model.Application, error)
	CreateAppUser(ctx context.Context, name, appUsername string) (*model.User, error)
	CreateAlias(ctx context.Context, userID int64, appUsername string, confirmed bool) (*model.Alias, error)
	ConfirmAlias(ctx context.Context, aliasID int64) (*model.Alias, error)
	DeleteAlias(ctx context.Context, aliasID, issuerID int64) error

	GetCommunisms(ctx context.Context, f CollectiveFilter) ([]model.Communism, error)
	CreateCommunism(ctx context.Context, creatorID, amount int64, description string) (*model.Communism, error)
	IncreaseParticipation(ctx context.Context, communismID, userID int64) (*model.Communism, error)
	DecreaseParticipation(ctx context.Context, communismID, userID int64) (*model.Communism, error)
	CloseCommunism(ctx context.Context, communismID, issuerID int64) (*model.Communism, error)
	AbortCommunism(ctx context.Context, communismID, issuerID int64) (*model.Communism, error)

	GetRefunds(ctx context.Context, f CollectiveFilter) ([]model.Refund, error)
	CreateRefund(ctx context.Context, creatorID, amount int64, description string) (*model.Refund, error)
	VoteOnRefund(ctx context.Context, ballotID, userID int64, approve bool) (*model.Refund, error)
	AbortRefund(ctx context.Context, refundID, issuerID int64) (*model.Refund, error)

	GetPolls(ctx context.Context, f CollectiveFilter) ([]model.Poll, error)
	CreatePoll(ctx context.Context, userID, issuerID int64, variant model.PollVariant) (*model.Poll, error)
	VoteOnPoll(ctx context.Context, ballotID, userID int64, approve bool) (*model.Poll, error)
	AbortPoll(ctx context.Context, pollID, issuerID int64) (*model.Poll, error)

	GetTransactions(ctx context.Context, memberID *int64) ([]model.Transaction, error)
	SendTransaction(ctx context.Context, senderID, receiverID, amount int64, reason string) (*model.Transaction, error)
	GetConsumables(ctx context.Context) ([]model.Consumable, error)
	Consume(ctx context.Context, userID int64, consumable string, amount int64) (*model.Transaction, error)
}
