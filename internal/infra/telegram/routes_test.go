package telegram

import (
	"context"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"matebot-telegram/internal/config"
	"matebot-telegram/internal/currency"
	"matebot-telegram/internal/domain"
	"matebot-telegram/internal/domain/model"
	"matebot-telegram/internal/domain/ports/adapter"
	"matebot-telegram/internal/usecase"
)

// Mocks embed the interface so only the methods a test exercises need an
// override; calling anything else panics with a nil dereference.

type mockUsers struct {
	usecase.UserUseCase

	GetCoreUserFunc       func(ctx context.Context, tgID int64) (*model.User, error)
	PatchFromUpdateFunc   func(ctx context.Context, tgID int64, firstName, lastName, username string) error
	StartRegistrationFunc func(ctx context.Context, r *model.RegistrationProcess) error
	GetRegistrationFunc   func(ctx context.Context, tgID int64) (*model.RegistrationProcess, error)
	SignUpNewUserFunc     func(ctx context.Context, tg *model.TelegramUser, displayName string) (*model.User, error)
}

func (m *mockUsers) GetCoreUser(ctx context.Context, tgID int64) (*model.User, error) {
	return m.GetCoreUserFunc(ctx, tgID)
}

func (m *mockUsers) PatchFromUpdate(ctx context.Context, tgID int64, firstName, lastName, username string) error {
	if m.PatchFromUpdateFunc != nil {
		return m.PatchFromUpdateFunc(ctx, tgID, firstName, lastName, username)
	}
	return nil
}

func (m *mockUsers) StartRegistration(ctx context.Context, r *model.RegistrationProcess) error {
	return m.StartRegistrationFunc(ctx, r)
}

func (m *mockUsers) GetRegistration(ctx context.Context, tgID int64) (*model.RegistrationProcess, error) {
	return m.GetRegistrationFunc(ctx, tgID)
}

func (m *mockUsers) SignUpNewUser(ctx context.Context, tg *model.TelegramUser, displayName string) (*model.User, error) {
	return m.SignUpNewUserFunc(ctx, tg, displayName)
}

type mockCoreClient struct {
	adapter.MateBotClient

	IncreaseParticipationFunc func(ctx context.Context, communismID, userID int64) (*model.Communism, error)
	GetUserFunc               func(ctx context.Context, id int64) (*model.User, error)
	ConfirmAliasFunc          func(ctx context.Context, aliasID int64) (*model.Alias, error)
	DeleteAliasFunc           func(ctx context.Context, aliasID, issuerID int64) error
}

func (m *mockCoreClient) AppID() int64 { return 7 }

func (m *mockCoreClient) IncreaseParticipation(ctx context.Context, communismID, userID int64) (*model.Communism, error) {
	return m.IncreaseParticipationFunc(ctx, communismID, userID)
}

func (m *mockCoreClient) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return m.GetUserFunc(ctx, id)
}

func (m *mockCoreClient) ConfirmAlias(ctx context.Context, aliasID int64) (*model.Alias, error) {
	return m.ConfirmAliasFunc(ctx, aliasID)
}

func (m *mockCoreClient) DeleteAlias(ctx context.Context, aliasID, issuerID int64) error {
	return m.DeleteAliasFunc(ctx, aliasID, issuerID)
}

type mockBroadcast struct {
	usecase.BroadcastUseCase

	updates []struct {
		ShareType model.ShareType
		ShareID   int64
		Forget    bool
	}
}

func (m *mockBroadcast) UpdateSharedMessages(_ context.Context, shareType model.ShareType, shareID int64, _ string, _ adapter.Keyboard, forget bool) error {
	m.updates = append(m.updates, struct {
		ShareType model.ShareType
		ShareID   int64
		Forget    bool
	}{shareType, shareID, forget})
	return nil
}

type mockShared struct {
	usecase.SharedMessageUseCase

	popped    []int64
	popResult []model.SharedMessage
}

func (m *mockShared) PopChat(_ context.Context, chatID int64) ([]model.SharedMessage, error) {
	m.popped = append(m.popped, chatID)
	return m.popResult, nil
}

type mockMessagePort struct {
	sent []string
}

func (m *mockMessagePort) SendMarkdown(_ context.Context, _ int64, text string, _ adapter.Keyboard) (int64, error) {
	m.sent = append(m.sent, text)
	return 1, nil
}

func (m *mockMessagePort) EditMarkdown(context.Context, int64, int64, string, adapter.Keyboard) error {
	return nil
}

type mockAnswerer struct {
	answers []string
}

func (m *mockAnswerer) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if cb, ok := c.(tgbotapi.CallbackConfig); ok {
		m.answers = append(m.answers, cb.Text)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func newTestRouter(users *mockUsers, client *mockCoreClient, broadcast *mockBroadcast) (*Router, *mockMessagePort, *mockAnswerer) {
	logger := zerolog.Nop()
	formatter := currency.NewFormatter(config.CurrencyConfig{Digits: 2, Factor: 100, Symbol: "€"})
	renderer := usecase.NewTextRenderer(client, formatter)
	sender := &mockMessagePort{}
	answerer := &mockAnswerer{}
	return NewRouter(users, client, renderer, broadcast, &mockShared{}, sender, answerer, &logger), sender, answerer
}

func commandUpdate(tgID int64, text string) tgbotapi.Update {
	entities := []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(strings.Fields(text)[0])}}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: tgID, FirstName: "Alice", UserName: "alice"},
		Chat:     &tgbotapi.Chat{ID: tgID, Type: "private"},
		Text:     text,
		Entities: entities,
	}}
}

func callbackUpdate(tgID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cq1",
		From: &tgbotapi.User{ID: tgID, FirstName: "Alice", UserName: "alice"},
		Data: data,
	}}
}

func TestStartCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("should greet already registered users", func(t *testing.T) {
		users := &mockUsers{
			GetCoreUserFunc: func(context.Context, int64) (*model.User, error) {
				return &model.User{ID: 1, Name: "alice"}, nil
			},
		}
		router, sender, _ := newTestRouter(users, &mockCoreClient{}, &mockBroadcast{})

		if err := router.Route(ctx, commandUpdate(555, "/start")); err != nil {
			t.Fatalf("Route failed: %v", err)
		}
		if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "Welcome back, alice") {
			t.Errorf("unexpected reply: %v", sender.sent)
		}
	})

	t.Run("should begin the sign-up conversation for unknown accounts", func(t *testing.T) {
		var started *model.RegistrationProcess
		users := &mockUsers{
			GetCoreUserFunc: func(context.Context, int64) (*model.User, error) {
				return nil, domain.ErrNoUserFound
			},
			StartRegistrationFunc: func(_ context.Context, r *model.RegistrationProcess) error {
				started = r
				return nil
			},
		}
		router, sender, _ := newTestRouter(users, &mockCoreClient{}, &mockBroadcast{})

		if err := router.Route(ctx, commandUpdate(555, "/start")); err != nil {
			t.Fatalf("Route failed: %v", err)
		}
		if started == nil || started.TelegramID != 555 || started.ApplicationID != 7 {
			t.Fatalf("registration not started: %+v", started)
		}
		if started.SelectedUsername != "alice" {
			t.Errorf("expected the Telegram username to be preselected, got %q", started.SelectedUsername)
		}
		if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "create a new MateBot account") {
			t.Errorf("unexpected reply: %v", sender.sent)
		}
	})
}

func TestRegisterCallback(t *testing.T) {
	ctx := context.Background()

	t.Run("should create the account and confirm", func(t *testing.T) {
		users := &mockUsers{
			GetRegistrationFunc: func(context.Context, int64) (*model.RegistrationProcess, error) {
				return &model.RegistrationProcess{TelegramID: 555, ApplicationID: 7, SelectedUsername: "alice"}, nil
			},
			SignUpNewUserFunc: func(_ context.Context, tg *model.TelegramUser, displayName string) (*model.User, error) {
				if displayName != "alice" || tg.TelegramID != 555 {
					t.Errorf("unexpected sign-up: %q %+v", displayName, tg)
				}
				return &model.User{ID: 42, Name: "alice"}, nil
			},
		}
		router, sender, answerer := newTestRouter(users, &mockCoreClient{}, &mockBroadcast{})

		if err := router.Route(ctx, callbackUpdate(555, "register new")); err != nil {
			t.Fatalf("Route failed: %v", err)
		}
		if len(answerer.answers) != 1 || answerer.answers[0] != "Welcome!" {
			t.Errorf("unexpected callback answers: %v", answerer.answers)
		}
		if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "has been created") {
			t.Errorf("unexpected reply: %v", sender.sent)
		}
	})

	t.Run("should reject buttons without a pending sign-up", func(t *testing.T) {
		users := &mockUsers{
			GetRegistrationFunc: func(context.Context, int64) (*model.RegistrationProcess, error) {
				return nil, domain.ErrNotFound
			},
		}
		router, _, answerer := newTestRouter(users, &mockCoreClient{}, &mockBroadcast{})

		if err := router.Route(ctx, callbackUpdate(555, "register new")); err != nil {
			t.Fatalf("Route failed: %v", err)
		}
		if len(answerer.answers) != 1 || !strings.Contains(answerer.answers[0], "no sign-up in progress") {
			t.Errorf("unexpected callback answers: %v", answerer.answers)
		}
	})
}

func TestCommunismCallback(t *testing.T) {
	ctx := context.Background()

	newFixture := func(joinErr error, result *model.Communism) (*Router, *mockBroadcast, *mockAnswerer) {
		users := &mockUsers{
			GetCoreUserFunc: func(context.Context, int64) (*model.User, error) {
				return &model.User{ID: 10, Name: "alice"}, nil
			},
		}
		client := &mockCoreClient{
			IncreaseParticipationFunc: func(_ context.Context, communismID, userID int64) (*model.Communism, error) {
				if communismID != 3 || userID != 10 {
					t.Errorf("unexpected join: communism %d user %d", communismID, userID)
				}
				return result, joinErr
			},
			GetUserFunc: func(_ context.Context, id int64) (*model.User, error) {
				return &model.User{ID: id, Name: "alice"}, nil
			},
		}
		broadcast := &mockBroadcast{}
		router, _, answerer := newTestRouter(users, client, broadcast)
		return router, broadcast, answerer
	}

	t.Run("should join and refresh the shared messages", func(t *testing.T) {
		router, broadcast, answerer := newFixture(nil, &model.Communism{ID: 3, CreatorID: 1, Active: true})

		if err := router.Route(ctx, callbackUpdate(555, "communism join 3")); err != nil {
			t.Fatalf("Route failed: %v", err)
		}
		if len(broadcast.updates) != 1 {
			t.Fatalf("expected one shared message update, got %+v", broadcast.updates)
		}
		up := broadcast.updates[0]
		if up.ShareType != model.ShareTypeCommunism || up.ShareID != 3 || up.Forget {
			t.Errorf("unexpected update: %+v", up)
		}
		if len(answerer.answers) != 1 || answerer.answers[0] != "Done." {
			t.Errorf("unexpected callback answers: %v", answerer.answers)
		}
	})

	t.Run("should forget the registry entries for inactive results", func(t *testing.T) {
		router, broadcast, _ := newFixture(nil, &model.Communism{ID: 3, CreatorID: 1, Active: false})

		if err := router.Route(ctx, callbackUpdate(555, "communism join 3")); err != nil {
			t.Fatalf("Route failed: %v", err)
		}
		if len(broadcast.updates) != 1 || !broadcast.updates[0].Forget {
			t.Errorf("expected a forgetting update, got %+v", broadcast.updates)
		}
	})

	t.Run("should require a verified account", func(t *testing.T) {
		users := &mockUsers{
			GetCoreUserFunc: func(context.Context, int64) (*model.User, error) {
				return nil, domain.ErrUserNotVerified
			},
		}
		router, _, answerer := newTestRouter(users, &mockCoreClient{}, &mockBroadcast{})

		if err := router.Route(ctx, callbackUpdate(555, "communism join 3")); err != nil {
			t.Fatalf("Route failed: %v", err)
		}
		if len(answerer.answers) != 1 || !strings.Contains(answerer.answers[0], "not verified") {
			t.Errorf("unexpected callback answers: %v", answerer.answers)
		}
	})

	t.Run("should reject malformed callback data", func(t *testing.T) {
		router, _, answerer := newTestRouter(&mockUsers{}, &mockCoreClient{}, &mockBroadcast{})

		if err := router.Route(ctx, callbackUpdate(555, "communism join abc")); err != nil {
			t.Fatalf("Route failed: %v", err)
		}
		if len(answerer.answers) != 1 || answerer.answers[0] != "Invalid button." {
			t.Errorf("unexpected callback answers: %v", answerer.answers)
		}
	})
}

func TestAliasCallback(t *testing.T) {
	ctx := context.Background()

	users := func() *mockUsers {
		return &mockUsers{
			GetCoreUserFunc: func(context.Context, int64) (*model.User, error) {
				return &model.User{ID: 10, Name: "alice"}, nil
			},
		}
	}

	t.Run("should confirm the alias on accept", func(t *testing.T) {
		client := &mockCoreClient{
			ConfirmAliasFunc: func(_ context.Context, aliasID int64) (*model.Alias, error) {
				if aliasID != 5 {
					t.Errorf("expected alias 5 to be confirmed, got %d", aliasID)
				}
				return &model.Alias{ID: aliasID, Confirmed: true}, nil
			},
		}
		broadcast := &mockBroadcast{}
		router, _, answerer := newTestRouter(users(), client, broadcast)

		if err := router.Route(ctx, callbackUpdate(555, "alias accept 5")); err != nil {
			t.Fatalf("Route failed: %v", err)
		}
		if len(broadcast.updates) != 1 {
			t.Fatalf("expected one shared message update, got %+v", broadcast.updates)
		}
		up := broadcast.updates[0]
		if up.ShareType != model.ShareTypeAlias || up.ShareID != 5 || !up.Forget {
			t.Errorf("unexpected update: %+v", up)
		}
		if len(answerer.answers) != 1 || answerer.answers[0] != "Done." {
			t.Errorf("unexpected callback answers: %v", answerer.answers)
		}
	})

	t.Run("should delete the alias on deny", func(t *testing.T) {
		client := &mockCoreClient{
			DeleteAliasFunc: func(_ context.Context, aliasID, issuerID int64) error {
				if aliasID != 5 || issuerID != 10 {
					t.Errorf("unexpected deletion: alias %d issuer %d", aliasID, issuerID)
				}
				return nil
			},
		}
		broadcast := &mockBroadcast{}
		router, _, answerer := newTestRouter(users(), client, broadcast)

		if err := router.Route(ctx, callbackUpdate(555, "alias deny 5")); err != nil {
			t.Fatalf("Route failed: %v", err)
		}
		if len(broadcast.updates) != 1 || !broadcast.updates[0].Forget {
			t.Fatalf("expected a forgetting update, got %+v", broadcast.updates)
		}
		if len(answerer.answers) != 1 || answerer.answers[0] != "Done." {
			t.Errorf("unexpected callback answers: %v", answerer.answers)
		}
	})
}

func TestChatMemberUpdate(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	formatter := currency.NewFormatter(config.CurrencyConfig{Digits: 2, Factor: 100, Symbol: "€"})
	client := &mockCoreClient{}
	renderer := usecase.NewTextRenderer(client, formatter)

	memberUpdate := func(chatID int64, status string) tgbotapi.Update {
		return tgbotapi.Update{MyChatMember: &tgbotapi.ChatMemberUpdated{
			Chat:          tgbotapi.Chat{ID: chatID, Type: "group"},
			From:          tgbotapi.User{ID: 1},
			NewChatMember: tgbotapi.ChatMember{Status: status},
		}}
	}

	t.Run("should drop shared messages when the bot is kicked", func(t *testing.T) {
		shared := &mockShared{popResult: []model.SharedMessage{
			{ShareType: model.ShareTypeCommunism, ShareID: 3, ChatID: 100, MessageID: 17},
		}}
		router := NewRouter(&mockUsers{}, client, renderer, &mockBroadcast{}, shared, &mockMessagePort{}, &mockAnswerer{}, &logger)

		if err := router.Route(ctx, memberUpdate(100, "kicked")); err != nil {
			t.Fatalf("Route failed: %v", err)
		}
		if len(shared.popped) != 1 || shared.popped[0] != 100 {
			t.Errorf("expected chat 100 to be popped, got %v", shared.popped)
		}
	})

	t.Run("should ignore promotions and other status changes", func(t *testing.T) {
		shared := &mockShared{}
		router := NewRouter(&mockUsers{}, client, renderer, &mockBroadcast{}, shared, &mockMessagePort{}, &mockAnswerer{}, &logger)

		if err := router.Route(ctx, memberUpdate(100, "administrator")); err != nil {
			t.Fatalf("Route failed: %v", err)
		}
		if len(shared.popped) != 0 {
			t.Errorf("expected no pop, got %v", shared.popped)
		}
	})
}
