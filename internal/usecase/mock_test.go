package usecase

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v4"

	"matebot-telegram/internal/domain"
	"matebot-telegram/internal/domain/model"
	"matebot-telegram/internal/domain/ports/adapter"
	"matebot-telegram/internal/domain/ports/repository"
)

// --- repository mocks ---

type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

type mockTelegramUserRepo struct {
	mu    sync.Mutex
	users map[int64]*model.TelegramUser

	SaveFunc        func(ctx context.Context, tx repository.Tx, u *model.TelegramUser) error
	FindByNameFunc  func(ctx context.Context, tx repository.Tx, name string) ([]*model.TelegramUser, error)
	UpdateNamesFunc func(ctx context.Context, tx repository.Tx, telegramID int64, firstName, lastName, username string) error
	DeleteFunc      func(ctx context.Context, tx repository.Tx, telegramID int64) error
}

func newMockTelegramUserRepo() *mockTelegramUserRepo {
	return &mockTelegramUserRepo{users: make(map[int64]*model.TelegramUser)}
}

func (m *mockTelegramUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.TelegramUser) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.TelegramID] = &cp
	return nil
}

func (m *mockTelegramUserRepo) FindByTelegramID(_ context.Context, _ repository.Tx, telegramID int64) (*model.TelegramUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[telegramID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockTelegramUserRepo) FindByUserID(_ context.Context, _ repository.Tx, userID int64) (*model.TelegramUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.UserID == userID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockTelegramUserRepo) FindByName(ctx context.Context, tx repository.Tx, name string) ([]*model.TelegramUser, error) {
	if m.FindByNameFunc != nil {
		return m.FindByNameFunc(ctx, tx, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.TelegramUser
	for _, u := range m.users {
		if u.Username == name || u.FirstName == name {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockTelegramUserRepo) UpdateNames(ctx context.Context, tx repository.Tx, telegramID int64, firstName, lastName, username string) error {
	if m.UpdateNamesFunc != nil {
		return m.UpdateNamesFunc(ctx, tx, telegramID, firstName, lastName, username)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[telegramID]
	if !ok {
		return domain.ErrNotFound
	}
	u.FirstName, u.LastName, u.Username = firstName, lastName, username
	return nil
}

func (m *mockTelegramUserRepo) Delete(ctx context.Context, tx repository.Tx, telegramID int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, tx, telegramID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, telegramID)
	return nil
}

type mockRegistrationRepo struct {
	mu      sync.Mutex
	pending map[int64]*model.RegistrationProcess
}

func newMockRegistrationRepo() *mockRegistrationRepo {
	return &mockRegistrationRepo{pending: make(map[int64]*model.RegistrationProcess)}
}

func (m *mockRegistrationRepo) Save(_ context.Context, _ repository.Tx, r *model.RegistrationProcess) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.pending[r.TelegramID] = &cp
	return nil
}

func (m *mockRegistrationRepo) Find(_ context.Context, _ repository.Tx, telegramID int64) (*model.RegistrationProcess, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.pending[telegramID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockRegistrationRepo) Delete(_ context.Context, _ repository.Tx, telegramID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, telegramID)
	return nil
}

type mockSharedMessageRepo struct {
	mu   sync.Mutex
	rows []model.SharedMessage

	AddFunc func(ctx context.Context, tx repository.Tx, msg model.SharedMessage) (bool, error)
}

func (m *mockSharedMessageRepo) Add(ctx context.Context, tx repository.Tx, msg model.SharedMessage) (bool, error) {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, tx, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r == msg {
			return false, nil
		}
	}
	m.rows = append(m.rows, msg)
	return true, nil
}

func (m *mockSharedMessageRepo) List(_ context.Context, _ repository.Tx, shareType model.ShareType, shareID int64) ([]model.SharedMessage, error) {
	if shareType == "" && shareID != 0 {
		return nil, domain.ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.SharedMessage
	for _, r := range m.rows {
		if shareType != "" && r.ShareType != shareType {
			continue
		}
		if shareID != 0 && r.ShareID != shareID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockSharedMessageRepo) Delete(_ context.Context, _ repository.Tx, msg model.SharedMessage) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r == msg {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSharedMessageRepo) DeleteAll(_ context.Context, _ repository.Tx, shareType model.ShareType, shareID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []model.SharedMessage
	removed := false
	for _, r := range m.rows {
		if r.ShareType == shareType && r.ShareID == shareID {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return removed, nil
}

func (m *mockSharedMessageRepo) PopByChat(_ context.Context, _ repository.Tx, chatID int64) ([]model.SharedMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var popped, kept []model.SharedMessage
	for _, r := range m.rows {
		if r.ChatID == chatID {
			popped = append(popped, r)
		} else {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	return popped, nil
}

// --- adapter mocks ---

type sentMessage struct {
	ChatID int64
	Text   string
	KB     adapter.Keyboard
}

type editedMessage struct {
	ChatID    int64
	MessageID int64
	Text      string
	KB        adapter.Keyboard
}

type mockSender struct {
	mu     sync.Mutex
	nextID int64
	Sent   []sentMessage
	Edited []editedMessage

	SendFunc func(ctx context.Context, chatID int64, text string, kb adapter.Keyboard) (int64, error)
	EditFunc func(ctx context.Context, chatID, messageID int64, text string, kb adapter.Keyboard) error
}

func (m *mockSender) SendMarkdown(ctx context.Context, chatID int64, text string, kb adapter.Keyboard) (int64, error) {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, chatID, text, kb)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.Sent = append(m.Sent, sentMessage{ChatID: chatID, Text: text, KB: kb})
	return m.nextID, nil
}

func (m *mockSender) EditMarkdown(ctx context.Context, chatID, messageID int64, text string, kb adapter.Keyboard) error {
	if m.EditFunc != nil {
		return m.EditFunc(ctx, chatID, messageID, text, kb)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Edited = append(m.Edited, editedMessage{ChatID: chatID, MessageID: messageID, Text: text, KB: kb})
	return nil
}

// mockClient implements adapter.MateBotClient with overridable functions.
// Methods without an override return zero values.
type mockClient struct {
	appID int64

	GetUserFunc        func(ctx context.Context, id int64) (*model.User, error)
	GetUsersFunc       func(ctx context.Context, f adapter.UserFilter) ([]model.User, error)
	GetAliasesFunc     func(ctx context.Context, f adapter.AliasFilter) ([]model.Alias, error)
	GetApplicationFunc func(ctx context.Context, id int64) (*model.Application, error)
	CreateAppUserFunc  func(ctx context.Context, name, appUsername string) (*model.User, error)
	CreateAliasFunc    func(ctx context.Context, userID int64, appUsername string, confirmed bool) (*model.Alias, error)
	GetCommunismsFunc  func(ctx context.Context, f adapter.CollectiveFilter) ([]model.Communism, error)
	GetRefundsFunc     func(ctx context.Context, f adapter.CollectiveFilter) ([]model.Refund, error)
	GetPollsFunc       func(ctx context.Context, f adapter.CollectiveFilter) ([]model.Poll, error)
}

func (m *mockClient) Status(context.Context) (*model.Status, error) { return &model.Status{}, nil }
func (m *mockClient) Settings(context.Context) (*model.GeneralConfig, error) {
	return &model.GeneralConfig{}, nil
}
func (m *mockClient) AppID() int64 { return m.appID }

func (m *mockClient) EnsureCallback(context.Context, string, string) error { return nil }

func (m *mockClient) GetUsers(ctx context.Context, f adapter.UserFilter) ([]model.User, error) {
	if m.GetUsersFunc != nil {
		return m.GetUsersFunc(ctx, f)
	}
	return nil, nil
}

func (m *mockClient) GetUser(ctx context.Context, id int64) (*model.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockClient) GetUsersByAlias(context.Context, adapter.AliasFilter) ([]model.User, error) {
	return nil, nil
}

func (m *mockClient) GetAliases(ctx context.Context, f adapter.AliasFilter) ([]model.Alias, error) {
	if m.GetAliasesFunc != nil {
		return m.GetAliasesFunc(ctx, f)
	}
	return nil, nil
}

func (m *mockClient) GetApplication(ctx context.Context, id int64) (*model.Application, error) {
	if m.GetApplicationFunc != nil {
		return m.GetApplicationFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockClient) CreateAppUser(ctx context.Context, name, appUsername string) (*model.User, error) {
	if m.CreateAppUserFunc != nil {
		return m.CreateAppUserFunc(ctx, name, appUsername)
	}
	return nil, domain.ErrInvalidArgument
}

func (m *mockClient) CreateAlias(ctx context.Context, userID int64, appUsername string, confirmed bool) (*model.Alias, error) {
	if m.CreateAliasFunc != nil {
		return m.CreateAliasFunc(ctx, userID, appUsername, confirmed)
	}
	return nil, domain.ErrInvalidArgument
}

func (m *mockClient) ConfirmAlias(context.Context, int64) (*model.Alias, error) { return nil, nil }
func (m *mockClient) DeleteAlias(context.Context, int64, int64) error           { return nil }

func (m *mockClient) GetCommunisms(ctx context.Context, f adapter.CollectiveFilter) ([]model.Communism, error) {
	if m.GetCommunismsFunc != nil {
		return m.GetCommunismsFunc(ctx, f)
	}
	return nil, nil
}

func (m *mockClient) CreateCommunism(context.Context, int64, int64, string) (*model.Communism, error) {
	return nil, nil
}
func (m *mockClient) IncreaseParticipation(context.Context, int64, int64) (*model.Communism, error) {
	return nil, nil
}
func (m *mockClient) DecreaseParticipation(context.Context, int64, int64) (*model.Communism, error) {
	return nil, nil
}
func (m *mockClient) CloseCommunism(context.Context, int64, int64) (*model.Communism, error) {
	return nil, nil
}
func (m *mockClient) AbortCommunism(context.Context, int64, int64) (*model.Communism, error) {
	return nil, nil
}

func (m *mockClient) GetRefunds(ctx context.Context, f adapter.CollectiveFilter) ([]model.Refund, error) {
	if m.GetRefundsFunc != nil {
		return m.GetRefundsFunc(ctx, f)
	}
	return nil, nil
}

func (m *mockClient) CreateRefund(context.Context, int64, int64, string) (*model.Refund, error) {
	return nil, nil
}
func (m *mockClient) VoteOnRefund(context.Context, int64, int64, bool) (*model.Refund, error) {
	return nil, nil
}
func (m *mockClient) AbortRefund(context.Context, int64, int64) (*model.Refund, error) {
	return nil, nil
}

func (m *mockClient) GetPolls(ctx context.Context, f adapter.CollectiveFilter) ([]model.Poll, error) {
	if m.GetPollsFunc != nil {
		return m.GetPollsFunc(ctx, f)
	}
	return nil, nil
}

func (m *mockClient) CreatePoll(context.Context, int64, int64, model.PollVariant) (*model.Poll, error) {
	return nil, nil
}
func (m *mockClient) VoteOnPoll(context.Context, int64, int64, bool) (*model.Poll, error) {
	return nil, nil
}
func (m *mockClient) AbortPoll(context.Context, int64, int64) (*model.Poll, error) {
	return nil, nil
}

func (m *mockClient) GetTransactions(context.Context, *int64) ([]model.Transaction, error) {
	return nil, nil
}
func (m *mockClient) SendTransaction(context.Context, int64, int64, int64, string) (*model.Transaction, error) {
	return nil, nil
}
func (m *mockClient) GetConsumables(context.Context) ([]model.Consumable, error) { return nil, nil }
func (m *mockClient) Consume(context.Context, int64, string, int64) (*model.Transaction, error) {
	return nil, nil
}
