package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"matebot-telegram/internal/domain"
	"matebot-telegram/internal/domain/model"
	"matebot-telegram/internal/domain/ports/adapter"
	"matebot-telegram/internal/infra/metrics"
	"matebot-telegram/internal/infra/sdk"
	"matebot-telegram/internal/usecase"
)

const helpText = `You are connected to the MateBot core.

/start begins the sign-up conversation for new accounts.
/help shows this message and your current account state.

Communisms, refunds and membership polls appear as shared messages
with inline buttons in the configured group chats. Use the buttons
to join, vote on or close them.`

// callbackAnswerer is the slice of tgbotapi.BotAPI used to answer
// callback queries.
type callbackAnswerer interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Router maps incoming updates to commands, the sign-up conversation and
// inline keyboard callback routes.
type Router struct {
	users     usecase.UserUseCase
	client    adapter.MateBotClient
	renderer  *usecase.TextRenderer
	broadcast usecase.BroadcastUseCase
	shared    usecase.SharedMessageUseCase
	sender    adapter.MessagePort
	answerer  callbackAnswerer
	log       *zerolog.Logger
}

func NewRouter(
	users usecase.UserUseCase,
	client adapter.MateBotClient,
	renderer *usecase.TextRenderer,
	broadcast usecase.BroadcastUseCase,
	shared usecase.SharedMessageUseCase,
	sender adapter.MessagePort,
	answerer callbackAnswerer,
	logger *zerolog.Logger,
) *Router {
	return &Router{
		users:     users,
		client:    client,
		renderer:  renderer,
		broadcast: broadcast,
		shared:    shared,
		sender:    sender,
		answerer:  answerer,
		log:       logger,
	}
}

func (r *Router) Route(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		r.patchNames(ctx, cq.From)
		return r.handleCallback(ctx, cq)
	case update.Message != nil && update.Message.From != nil:
		msg := update.Message
		r.patchNames(ctx, msg.From)
		if msg.IsCommand() {
			metrics.IncTelegramCommand(msg.Command())
			return r.handleCommand(ctx, msg)
		}
		return r.handleText(ctx, msg)
	case update.MyChatMember != nil:
		return r.handleChatMember(ctx, update.MyChatMember)
	default:
		return nil
	}
}

// handleChatMember forgets the shared messages of chats the bot was removed
// from, since those can no longer be edited.
func (r *Router) handleChatMember(ctx context.Context, m *tgbotapi.ChatMemberUpdated) error {
	status := m.NewChatMember.Status
	if status != "left" && status != "kicked" {
		return nil
	}
	popped, err := r.shared.PopChat(ctx, m.Chat.ID)
	if err != nil {
		return err
	}
	if len(popped) > 0 {
		r.log.Info().Int64("chat_id", m.Chat.ID).Int("messages", len(popped)).
			Msg("Dropped shared messages of a left chat")
	}
	return nil
}

// patchNames keeps the stored display names of known accounts fresh.
func (r *Router) patchNames(ctx context.Context, from *tgbotapi.User) {
	if from == nil {
		return
	}
	if err := r.users.PatchFromUpdate(ctx, from.ID, from.FirstName, from.LastName, from.UserName); err != nil {
		r.log.Warn().Err(err).Int64("tg_id", from.ID).Msg("Failed to patch stored names")
	}
}

func (r *Router) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return r.handleStart(ctx, msg)
	case "help":
		return r.handleHelp(ctx, msg)
	default:
		_, err := r.sender.SendMarkdown(ctx, msg.Chat.ID, "Unknown command. Send /help for details.", nil)
		return err
	}
}

func (r *Router) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if !msg.Chat.IsPrivate() {
		_, err := r.sender.SendMarkdown(ctx, msg.Chat.ID, "Please start the sign-up in a private chat with me.", nil)
		return err
	}

	from := msg.From
	user, err := r.users.GetCoreUser(ctx, from.ID)
	switch {
	case err == nil:
		_, err = r.sender.SendMarkdown(ctx, msg.Chat.ID,
			fmt.Sprintf("Welcome back, %s! You are all set. Send /help for details.", user.Name), nil)
		return err
	case errors.Is(err, domain.ErrUserNotVerified):
		_, err = r.sender.SendMarkdown(ctx, msg.Chat.ID,
			"Your account is awaiting confirmation from another frontend. Please be patient.", nil)
		return err
	case errors.Is(err, domain.ErrNoUserFound):
		// Unknown account, begin the sign-up conversation.
	default:
		return err
	}

	selected := from.UserName
	if selected == "" {
		selected = from.FirstName
	}
	if err := r.users.StartRegistration(ctx, &model.RegistrationProcess{
		TelegramID:       from.ID,
		ApplicationID:    r.client.AppID(),
		SelectedUsername: selected,
	}); err != nil {
		return err
	}

	kb := adapter.Keyboard{
		{{Text: "Create a new account", Data: "register new"}},
		{{Text: "Connect to an existing account", Data: "register connect"}},
		{{Text: "Abort", Data: "register abort"}},
	}
	_, err = r.sender.SendMarkdown(ctx, msg.Chat.ID,
		"Nice to meet you! Do you want to create a new MateBot account or connect this chat to an existing one?", kb)
	return err
}

func (r *Router) handleHelp(ctx context.Context, msg *tgbotapi.Message) error {
	text := helpText
	user, err := r.users.GetCoreUser(ctx, msg.From.ID)
	switch {
	case err == nil:
		text += fmt.Sprintf("\n\nYou are signed in as *%s*.", user.Name)
	case errors.Is(err, domain.ErrUserNotVerified):
		text += "\n\nYour account is awaiting confirmation from another frontend."
	case errors.Is(err, domain.ErrNoUserFound):
		text += "\n\nYou don't have an account yet. Send /start to sign up."
	default:
		return err
	}
	_, err = r.sender.SendMarkdown(ctx, msg.Chat.ID, text, nil)
	return err
}

// handleText only matters during the sign-up conversation, where a plain
// message names the existing account the user wants to connect to.
func (r *Router) handleText(ctx context.Context, msg *tgbotapi.Message) error {
	if !msg.Chat.IsPrivate() || strings.TrimSpace(msg.Text) == "" {
		return nil
	}
	reg, err := r.users.GetRegistration(ctx, msg.From.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	name := strings.TrimSpace(msg.Text)
	active := true
	matches, err := r.client.GetUsers(ctx, adapter.UserFilter{Name: &name, Active: &active})
	if err != nil {
		return err
	}
	if len(matches) != 1 {
		_, err := r.sender.SendMarkdown(ctx, msg.Chat.ID,
			fmt.Sprintf("Sorry, %q does not identify exactly one user account. Please try a different name.", name), nil)
		return err
	}

	reg.CoreUserID = &matches[0].ID
	if err := r.users.StartRegistration(ctx, reg); err != nil {
		return err
	}
	kb := adapter.Keyboard{
		{{Text: "Yes, connect me", Data: "register alias"}},
		{{Text: "Abort", Data: "register abort"}},
	}
	_, err = r.sender.SendMarkdown(ctx, msg.Chat.ID,
		fmt.Sprintf("Connect this chat to the account of *%s*? The request must be confirmed from an already verified frontend afterwards.", matches[0].Name), kb)
	return err
}

func (r *Router) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	fields := strings.Fields(cq.Data)
	if len(fields) < 2 {
		return r.answer(cq, "Invalid button.")
	}
	route := fields[0] + " " + fields[1]
	metrics.IncCallbackQuery(route)

	if fields[0] == "register" {
		return r.handleRegisterCallback(ctx, cq, fields[1])
	}
	if len(fields) != 3 {
		return r.answer(cq, "Invalid button.")
	}
	id, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return r.answer(cq, "Invalid button.")
	}

	user, err := r.users.GetCoreUser(ctx, cq.From.ID)
	switch {
	case errors.Is(err, domain.ErrNoUserFound):
		return r.answer(cq, "You don't have an account yet. Send /start to me in a private chat first.")
	case errors.Is(err, domain.ErrUserNotVerified):
		return r.answer(cq, "Your account is not verified yet.")
	case err != nil:
		return err
	}

	switch fields[0] {
	case "communism":
		return r.handleCommunismCallback(ctx, cq, fields[1], id, user.ID)
	case "refund":
		return r.handleVoteCallback(ctx, cq, model.ShareTypeRefund, fields[1], id, user.ID)
	case "poll":
		return r.handleVoteCallback(ctx, cq, model.ShareTypePoll, fields[1], id, user.ID)
	case "alias":
		return r.handleAliasCallback(ctx, cq, fields[1], id, user.ID)
	default:
		return r.answer(cq, "Invalid button.")
	}
}

// handleAliasCallback resolves the accept/deny prompt of a pending alias and
// invalidates the prompt messages afterwards.
func (r *Router) handleAliasCallback(ctx context.Context, cq *tgbotapi.CallbackQuery, action string, id, userID int64) error {
	var text string
	switch action {
	case "accept":
		if _, err := r.client.ConfirmAlias(ctx, id); err != nil {
			return r.answerFailure(cq, err)
		}
		text = "You accepted the sign-up request. The new alias can now be used by its application."
	case "deny":
		if err := r.client.DeleteAlias(ctx, id, userID); err != nil {
			return r.answerFailure(cq, err)
		}
		text = "You denied the sign-up request. The alias has been deleted."
	default:
		return r.answer(cq, "Invalid button.")
	}

	if err := r.broadcast.UpdateSharedMessages(ctx, model.ShareTypeAlias, id, text, nil, true); err != nil {
		return err
	}
	return r.answer(cq, "Done.")
}

func (r *Router) handleRegisterCallback(ctx context.Context, cq *tgbotapi.CallbackQuery, action string) error {
	reg, err := r.users.GetRegistration(ctx, cq.From.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return r.answer(cq, "There is no sign-up in progress. Send /start to begin.")
		}
		return err
	}
	tg := &model.TelegramUser{
		TelegramID: cq.From.ID,
		FirstName:  cq.From.FirstName,
		LastName:   cq.From.LastName,
		Username:   cq.From.UserName,
	}

	switch action {
	case "new":
		user, err := r.users.SignUpNewUser(ctx, tg, reg.SelectedUsername)
		if err != nil {
			return r.answerFailure(cq, err)
		}
		if err := r.answer(cq, "Welcome!"); err != nil {
			return err
		}
		_, err = r.sender.SendMarkdown(ctx, cq.From.ID,
			fmt.Sprintf("Your account *%s* has been created. Send /help for details.", user.Name), nil)
		return err
	case "connect":
		if err := r.answer(cq, ""); err != nil {
			return err
		}
		_, err := r.sender.SendMarkdown(ctx, cq.From.ID,
			"Please reply with the name of the MateBot account you want to connect to.", nil)
		return err
	case "alias":
		if reg.CoreUserID == nil {
			return r.answer(cq, "Please name the account you want to connect to first.")
		}
		user, err := r.users.SignUpAsAlias(ctx, tg, *reg.CoreUserID)
		if err != nil {
			return r.answerFailure(cq, err)
		}
		if err := r.answer(cq, "Almost done!"); err != nil {
			return err
		}
		_, err = r.sender.SendMarkdown(ctx, cq.From.ID,
			fmt.Sprintf("This chat is now attached to *%s*. Confirm the new alias from an already verified frontend to finish the sign-up.", user.Name), nil)
		return err
	case "abort":
		if err := r.users.AbortRegistration(ctx, cq.From.ID); err != nil {
			return err
		}
		return r.answer(cq, "Sign-up aborted.")
	default:
		return r.answer(cq, "Invalid button.")
	}
}

func (r *Router) handleCommunismCallback(ctx context.Context, cq *tgbotapi.CallbackQuery, action string, id, userID int64) error {
	var (
		communism *model.Communism
		err       error
	)
	switch action {
	case "join":
		communism, err = r.client.IncreaseParticipation(ctx, id, userID)
	case "leave":
		communism, err = r.client.DecreaseParticipation(ctx, id, userID)
	case "close":
		communism, err = r.client.CloseCommunism(ctx, id, userID)
	case "abort":
		communism, err = r.client.AbortCommunism(ctx, id, userID)
	default:
		return r.answer(cq, "Invalid button.")
	}
	if err != nil {
		return r.answerFailure(cq, err)
	}

	text, err := r.renderer.CommunismText(ctx, communism)
	if err != nil {
		return err
	}
	kb := r.renderer.CommunismKeyboard(communism)
	if err := r.broadcast.UpdateSharedMessages(ctx, model.ShareTypeCommunism, id, text, kb, !communism.Active); err != nil {
		return err
	}
	return r.answer(cq, "Done.")
}

func (r *Router) handleVoteCallback(ctx context.Context, cq *tgbotapi.CallbackQuery, shareType model.ShareType, action string, id, userID int64) error {
	var (
		active  bool
		text    string
		kb      adapter.Keyboard
		callErr error
	)
	if shareType == model.ShareTypeRefund {
		var refund *model.Refund
		switch action {
		case "approve", "disapprove":
			refunds, err := r.client.GetRefunds(ctx, adapter.CollectiveFilter{ID: &id})
			if err != nil {
				return err
			}
			if len(refunds) != 1 {
				return r.answer(cq, "This refund request does not exist anymore.")
			}
			refund, callErr = r.client.VoteOnRefund(ctx, refunds[0].BallotID, userID, action == "approve")
		case "abort":
			refund, callErr = r.client.AbortRefund(ctx, id, userID)
		default:
			return r.answer(cq, "Invalid button.")
		}
		if callErr != nil {
			return r.answerFailure(cq, callErr)
		}
		active = refund.Active
		if text, callErr = r.renderer.RefundText(ctx, refund); callErr != nil {
			return callErr
		}
		kb = r.renderer.RefundKeyboard(refund)
	} else {
		var poll *model.Poll
		switch action {
		case "approve", "disapprove":
			polls, err := r.client.GetPolls(ctx, adapter.CollectiveFilter{ID: &id})
			if err != nil {
				return err
			}
			if len(polls) != 1 {
				return r.answer(cq, "This poll does not exist anymore.")
			}
			poll, callErr = r.client.VoteOnPoll(ctx, polls[0].BallotID, userID, action == "approve")
		case "abort":
			poll, callErr = r.client.AbortPoll(ctx, id, userID)
		default:
			return r.answer(cq, "Invalid button.")
		}
		if callErr != nil {
			return r.answerFailure(cq, callErr)
		}
		active = poll.Active
		if text, callErr = r.renderer.PollText(ctx, poll); callErr != nil {
			return callErr
		}
		kb = r.renderer.PollKeyboard(poll)
	}

	if err := r.broadcast.UpdateSharedMessages(ctx, shareType, id, text, kb, !active); err != nil {
		return err
	}
	return r.answer(cq, "Done.")
}

func (r *Router) answer(cq *tgbotapi.CallbackQuery, text string) error {
	_, err := r.answerer.Request(tgbotapi.NewCallback(cq.ID, text))
	return err
}

// answerFailure surfaces core API rejections to the pressing user instead of
// failing the whole update.
func (r *Router) answerFailure(cq *tgbotapi.CallbackQuery, err error) error {
	var apiErr *sdk.APIError
	if errors.As(err, &apiErr) {
		return r.answer(cq, apiErr.Message)
	}
	return err
}
