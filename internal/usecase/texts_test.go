package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"matebot-telegram/internal/config"
	"matebot-telegram/internal/currency"
	"matebot-telegram/internal/domain/model"
)

func testRenderer(client *mockClient) *TextRenderer {
	f := currency.NewFormatter(config.CurrencyConfig{Digits: 2, Factor: 100, Symbol: "€"})
	return NewTextRenderer(client, f)
}

func boolPtr(b bool) *bool { return &b }

func TestCommunismText(t *testing.T) {
	ctx := context.Background()
	client := &mockClient{
		GetUserFunc: func(_ context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Name: "alice"}, nil
		},
	}
	r := testRenderer(client)

	base := model.Communism{
		ID:          3,
		Amount:      4200,
		Description: "beer run",
		CreatorID:   1,
		Participants: []model.CommunismParticipant{
			{UserID: 1, UserName: "alice", Quantity: 2},
			{UserID: 2, UserName: "bob", Quantity: 1},
		},
	}

	t.Run("should render an active communism with participants", func(t *testing.T) {
		c := base
		c.Active = true
		text, err := r.CommunismText(ctx, &c)
		if err != nil {
			t.Fatalf("CommunismText failed: %v", err)
		}
		for _, want := range []string{
			"*Communism by alice*",
			"Reason: beer run",
			"Amount: 42.00€",
			"Joined users (3): alice (2x), bob (1x)",
			"currently active",
		} {
			if !strings.Contains(text, want) {
				t.Errorf("missing %q in:\n%s", want, text)
			}
		}
	})

	t.Run("should render a closed communism with its transactions", func(t *testing.T) {
		c := base
		c.MultiTx = &model.MultiTransaction{
			TotalAmount:  4000,
			Transactions: []model.Transaction{{ID: 1}, {ID: 2}},
		}
		text, err := r.CommunismText(ctx, &c)
		if err != nil {
			t.Fatalf("CommunismText failed: %v", err)
		}
		if !strings.Contains(text, "has been closed") {
			t.Errorf("missing closed footer in:\n%s", text)
		}
		if !strings.Contains(text, "2 transactions have been processed for a total value of 40.00€") {
			t.Errorf("missing transaction summary in:\n%s", text)
		}
	})

	t.Run("should render an aborted communism", func(t *testing.T) {
		c := base
		text, err := r.CommunismText(ctx, &c)
		if err != nil {
			t.Fatalf("CommunismText failed: %v", err)
		}
		if !strings.Contains(text, "aborted. No transactions have been processed") {
			t.Errorf("missing abort footer in:\n%s", text)
		}
	})

	t.Run("should render empty participant lists as None", func(t *testing.T) {
		c := base
		c.Active = true
		c.Participants = nil
		text, err := r.CommunismText(ctx, &c)
		if err != nil {
			t.Fatalf("CommunismText failed: %v", err)
		}
		if !strings.Contains(text, "Joined users (0): None") {
			t.Errorf("missing empty participant line in:\n%s", text)
		}
	})
}

func TestCommunismKeyboard(t *testing.T) {
	r := testRenderer(&mockClient{})

	t.Run("should offer join, leave, close and abort on active communisms", func(t *testing.T) {
		kb := r.CommunismKeyboard(&model.Communism{ID: 5, Active: true})
		if len(kb) != 2 || len(kb[0]) != 2 || len(kb[1]) != 2 {
			t.Fatalf("unexpected keyboard shape: %+v", kb)
		}
		if kb[0][0].Data != "communism join 5" || kb[1][1].Data != "communism abort 5" {
			t.Errorf("unexpected callback data: %+v", kb)
		}
	})

	t.Run("should drop the keyboard on closed communisms", func(t *testing.T) {
		if kb := r.CommunismKeyboard(&model.Communism{ID: 5}); kb != nil {
			t.Errorf("expected nil keyboard, got %+v", kb)
		}
	})
}

func TestRefundText(t *testing.T) {
	ctx := context.Background()
	r := testRenderer(&mockClient{})

	base := model.Refund{
		ID:          9,
		Amount:      1250,
		Description: "broken glass",
		Creator:     model.User{ID: 1, Name: "alice"},
		Votes: []model.Vote{
			{UserName: "bob", Vote: true},
			{UserName: "carol", Vote: false},
			{UserName: "dave", Vote: true},
		},
	}

	t.Run("should split votes into proponents and opponents", func(t *testing.T) {
		refund := base
		refund.Active = true
		text, err := r.RefundText(ctx, &refund)
		if err != nil {
			t.Fatalf("RefundText failed: %v", err)
		}
		for _, want := range []string{
			"*Refund by alice*",
			"Amount: 12.50€",
			"*Votes (3)*",
			"Proponents (2): bob, dave",
			"Opponents (1): carol",
			"currently active",
		} {
			if !strings.Contains(text, want) {
				t.Errorf("missing %q in:\n%s", want, text)
			}
		}
	})

	t.Run("should report the verdict of a closed refund", func(t *testing.T) {
		refund := base
		refund.Allowed = boolPtr(true)
		refund.Transaction = &model.Transaction{ID: 4}
		text, err := r.RefundText(ctx, &refund)
		if err != nil {
			t.Fatalf("RefundText failed: %v", err)
		}
		if !strings.Contains(text, "The request was allowed") {
			t.Errorf("missing verdict in:\n%s", text)
		}
		if !strings.Contains(text, "The transaction has been processed") {
			t.Errorf("missing transaction note in:\n%s", text)
		}
	})

	t.Run("should report an aborted refund without transactions", func(t *testing.T) {
		refund := base
		text, err := r.RefundText(ctx, &refund)
		if err != nil {
			t.Fatalf("RefundText failed: %v", err)
		}
		if !strings.Contains(text, "aborted") || !strings.Contains(text, "No transactions have been processed") {
			t.Errorf("missing abort footer in:\n%s", text)
		}
	})
}

func TestPollText(t *testing.T) {
	ctx := context.Background()
	r := testRenderer(&mockClient{})

	poll := model.Poll{
		ID:      2,
		Active:  true,
		Variant: model.PollGetInternal,
		User:    model.User{ID: 7, Name: "eve"},
		Votes:   []model.Vote{{UserName: "bob", Vote: true}},
	}

	text, err := r.PollText(ctx, &poll)
	if err != nil {
		t.Fatalf("PollText failed: %v", err)
	}
	for _, want := range []string{
		"*Membership poll for eve*",
		"Request: join the internal group",
		"Proponents (1): bob",
		"Opponents (0): None",
		"currently active",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}

	kb := r.PollKeyboard(&poll)
	if len(kb) != 2 || kb[0][0].Data != "poll approve 2" || kb[1][0].Data != "poll abort 2" {
		t.Errorf("unexpected poll keyboard: %+v", kb)
	}
}

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
