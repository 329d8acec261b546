package usecase

import (
	"context"
	"errors"
	"fmt"

	"matebot-telegram/internal/config"
	"matebot-telegram/internal/currency"
	"matebot-telegram/internal/domain"
	"matebot-telegram/internal/domain/model"
	"matebot-telegram/internal/domain/ports/adapter"
	"matebot-telegram/internal/infra/logging"
	"matebot-telegram/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// EventHandler reacts to one API callback event.
type EventHandler func(ctx context.Context, event model.Event) error

// EventDispatcher routes API callback events to their registered handlers.
// Events without a handler are counted and skipped.
type EventDispatcher struct {
	handlers map[model.EventType][]EventHandler
	log      *zerolog.Logger
}

func NewEventDispatcher(logger *zerolog.Logger) *EventDispatcher {
	return &EventDispatcher{
		handlers: make(map[model.EventType][]EventHandler),
		log:      logger,
	}
}

func (d *EventDispatcher) Register(t model.EventType, h EventHandler) {
	d.handlers[t] = append(d.handlers[t], h)
}

// Dispatch processes the events of one callback notification in order. A
// failing handler is logged and does not stop the remaining events.
func (d *EventDispatcher) Dispatch(ctx context.Context, events []model.Event) {
	for _, event := range events {
		handlers, ok := d.handlers[event.Event]
		if !ok {
			metrics.IncCallbackEvent(string(event.Event), "skipped")
			d.log.Debug().Str("event", string(event.Event)).Msg("No handler registered for event")
			continue
		}
		outcome := "ok"
		for _, h := range handlers {
			if err := h(ctx, event); err != nil {
				outcome = "error"
				d.log.Error().Err(err).Str("event", string(event.Event)).
					Interface("data", event.Data).Msg("Event handler failed")
			}
		}
		metrics.IncCallbackEvent(string(event.Event), outcome)
	}
}

// EventHandlers holds the default reactions to core API events: forwarding
// new collectives, synchronizing their shared messages and notifying the
// affected Telegram users.
type EventHandlers struct {
	client    adapter.MateBotClient
	renderer  *TextRenderer
	broadcast BroadcastUseCase
	users     UserUseCase
	shared    SharedMessageUseCase
	sender    adapter.MessagePort
	fmt       *currency.Formatter
	chats     config.ChatConfig
	log       *zerolog.Logger
}

func NewEventHandlers(
	client adapter.MateBotClient,
	renderer *TextRenderer,
	broadcast BroadcastUseCase,
	users UserUseCase,
	shared SharedMessageUseCase,
	sender adapter.MessagePort,
	formatter *currency.Formatter,
	chats config.ChatConfig,
	logger *zerolog.Logger,
) *EventHandlers {
	return &EventHandlers{
		client:    client,
		renderer:  renderer,
		broadcast: broadcast,
		users:     users,
		shared:    shared,
		sender:    sender,
		fmt:       formatter,
		chats:     chats,
		log:       logger,
	}
}

// RegisterAll wires every default handler into the dispatcher.
func (h *EventHandlers) RegisterAll(d *EventDispatcher) {
	d.Register(model.EventServerStarted, h.serverStarted)

	d.Register(model.EventCommunismCreated, h.communism(true, false))
	d.Register(model.EventCommunismUpdated, h.communism(false, false))
	d.Register(model.EventCommunismClosed, h.communism(false, true))

	d.Register(model.EventRefundCreated, h.refund(true, false))
	d.Register(model.EventRefundUpdated, h.refund(false, false))
	d.Register(model.EventRefundClosed, h.refund(false, true))

	d.Register(model.EventPollCreated, h.poll(true, false))
	d.Register(model.EventPollUpdated, h.poll(false, false))
	d.Register(model.EventPollClosed, h.poll(false, true))

	d.Register(model.EventTransactionCreated, h.transactionCreated)
	d.Register(model.EventAliasConfirmationRequested, h.aliasConfirmationRequested)
	d.Register(model.EventAliasConfirmed, h.aliasConfirmed)
	d.Register(model.EventVoucherUpdated, h.voucherUpdated)
	d.Register(model.EventUserSoftlyDeleted, h.userSoftlyDeleted)
}

func (h *EventHandlers) serverStarted(ctx context.Context, event model.Event) error {
	h.log.Info().Int64("timestamp", event.Timestamp).Msg("Core API server restarted")
	h.broadcast.SendNotification(ctx, h.chats.Notification, "The core API server has restarted.")
	return nil
}

func (h *EventHandlers) communism(created, closed bool) EventHandler {
	return func(ctx context.Context, event model.Event) error {
		id, ok := event.ObjectID()
		if !ok {
			return fmt.Errorf("communism event without object ID")
		}
		communisms, err := h.client.GetCommunisms(ctx, adapter.CollectiveFilter{ID: &id})
		if err != nil {
			return err
		}
		if len(communisms) != 1 {
			return fmt.Errorf("communism %d not found in core", id)
		}
		c := &communisms[0]
		text, err := h.renderer.CommunismText(ctx, c)
		if err != nil {
			return err
		}
		kb := h.renderer.CommunismKeyboard(c)
		if created {
			_, err := h.broadcast.SendAutoShareMessages(ctx, model.ShareTypeCommunism, id, text, kb)
			return err
		}
		return h.broadcast.UpdateSharedMessages(ctx, model.ShareTypeCommunism, id, text, kb, closed)
	}
}

func (h *EventHandlers) refund(created, closed bool) EventHandler {
	return func(ctx context.Context, event model.Event) error {
		id, ok := event.ObjectID()
		if !ok {
			return fmt.Errorf("refund event without object ID")
		}
		refunds, err := h.client.GetRefunds(ctx, adapter.CollectiveFilter{ID: &id})
		if err != nil {
			return err
		}
		if len(refunds) != 1 {
			return fmt.Errorf("refund %d not found in core", id)
		}
		r := &refunds[0]
		text, err := h.renderer.RefundText(ctx, r)
		if err != nil {
			return err
		}
		kb := h.renderer.RefundKeyboard(r)
		if created {
			_, err := h.broadcast.SendAutoShareMessages(ctx, model.ShareTypeRefund, id, text, kb)
			return err
		}
		return h.broadcast.UpdateSharedMessages(ctx, model.ShareTypeRefund, id, text, kb, closed)
	}
}

func (h *EventHandlers) poll(created, closed bool) EventHandler {
	return func(ctx context.Context, event model.Event) error {
		id, ok := event.ObjectID()
		if !ok {
			return fmt.Errorf("poll event without object ID")
		}
		polls, err := h.client.GetPolls(ctx, adapter.CollectiveFilter{ID: &id})
		if err != nil {
			return err
		}
		if len(polls) != 1 {
			return fmt.Errorf("poll %d not found in core", id)
		}
		p := &polls[0]
		text, err := h.renderer.PollText(ctx, p)
		if err != nil {
			return err
		}
		kb := h.renderer.PollKeyboard(p)
		if created {
			_, err := h.broadcast.SendAutoShareMessages(ctx, model.ShareTypePoll, id, text, kb)
			return err
		}
		return h.broadcast.UpdateSharedMessages(ctx, model.ShareTypePoll, id, text, kb, closed)
	}
}

func (h *EventHandlers) transactionCreated(ctx context.Context, event model.Event) error {
	senderID, okS := event.Int64("sender")
	receiverID, okR := event.Int64("receiver")
	amount, okA := event.Int64("amount")
	if !okS || !okR || !okA {
		return fmt.Errorf("transaction event with incomplete payload")
	}

	sender, err := h.client.GetUser(ctx, senderID)
	if err != nil {
		return err
	}
	receiver, err := h.client.GetUser(ctx, receiverID)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("%s sent %s to %s.", sender.Name, h.fmt.Format(amount), receiver.Name)
	h.broadcast.SendNotification(ctx, h.chats.Transactions, text)

	// The receiver additionally gets a private note when reachable.
	if tg, err := h.users.FindTelegramUser(ctx, receiverID); err == nil {
		private := fmt.Sprintf("You received %s from %s. Your new balance is %s.",
			h.fmt.Format(amount), sender.Name, h.fmt.Format(receiver.Balance))
		h.broadcast.SendNotification(ctx, []int64{tg.TelegramID}, private)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// aliasConfirmationRequested delivers an accept/deny prompt for a pending
// alias to the account owner's private chat and registers the prompt as a
// shared message so later events can resolve it.
func (h *EventHandlers) aliasConfirmationRequested(ctx context.Context, event model.Event) error {
	aliasID, ok := event.ObjectID()
	if !ok {
		return fmt.Errorf("alias event without object ID")
	}
	userID, ok := event.Int64("user")
	if !ok {
		return fmt.Errorf("alias event without user")
	}
	ctx = logging.WithCoreUserID(ctx, userID)

	aliases, err := h.client.GetAliases(ctx, adapter.AliasFilter{ID: &aliasID})
	if err != nil {
		return err
	}
	if len(aliases) != 1 {
		return fmt.Errorf("alias %d not found in core", aliasID)
	}
	alias := &aliases[0]
	if alias.Confirmed {
		return nil
	}
	// Requests created by this frontend are confirmed here anyway, so only
	// other applications' requests need a prompt.
	if alias.ApplicationID == h.client.AppID() {
		return nil
	}

	tg, err := h.users.FindTelegramUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	app, err := h.client.GetApplication(ctx, alias.ApplicationID)
	if err != nil {
		return err
	}

	text := h.renderer.AliasConfirmationText(app.Name, alias)
	messageID, err := h.sender.SendMarkdown(ctx, tg.TelegramID, text, h.renderer.AliasKeyboard(alias))
	if err != nil {
		return err
	}
	_, err = h.shared.Register(ctx, model.SharedMessage{
		ShareType: model.ShareTypeAlias,
		ShareID:   alias.ID,
		ChatID:    tg.TelegramID,
		MessageID: messageID,
	})
	return err
}

func (h *EventHandlers) aliasConfirmed(ctx context.Context, event model.Event) error {
	userID, ok := event.Int64("user")
	if !ok {
		return fmt.Errorf("alias event without user")
	}
	appName, _ := event.String("app")
	if appName == "" {
		appName = "another application"
	}
	text := fmt.Sprintf("Your alias for %s has been confirmed. The account can now be used by that application.", appName)
	if err := h.notifyUser(ctx, userID, text); err != nil {
		return err
	}

	// Any outstanding accept/deny prompts for this alias are obsolete now.
	aliasID, ok := event.ObjectID()
	if !ok {
		return nil
	}
	return h.broadcast.UpdateSharedMessages(ctx, model.ShareTypeAlias, aliasID,
		"This sign-up request has been processed.", nil, true)
}

func (h *EventHandlers) voucherUpdated(ctx context.Context, event model.Event) error {
	debtorID, ok := event.Int64("id")
	if !ok {
		return fmt.Errorf("voucher event without debtor")
	}
	if _, vouched := event.Data["voucher"]; vouched {
		return h.notifyUser(ctx, debtorID, "Good news, someone vouches for you now. You can use the bot's payment features.")
	}
	return h.notifyUser(ctx, debtorID, "Nobody vouches for you anymore. Your payment features have been restricted.")
}

// userSoftlyDeleted tears down everything local to a deleted core user: the
// Telegram binding, the registered shared messages of the private chat and
// finally the messages themselves, which get their buttons stripped.
func (h *EventHandlers) userSoftlyDeleted(ctx context.Context, event model.Event) error {
	userID, ok := event.ObjectID()
	if !ok {
		return fmt.Errorf("user event without object ID")
	}
	ctx = logging.WithCoreUserID(ctx, userID)

	tg, err := h.users.FindTelegramUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	popped, err := h.shared.PopChat(ctx, tg.TelegramID)
	if err != nil {
		return err
	}
	if err := h.users.DeleteBinding(ctx, tg.TelegramID); err != nil {
		return err
	}
	h.log.Info().Int64("tg_id", tg.TelegramID).Int64("core_user_id", userID).
		Msg("Removed Telegram binding of deleted core user")

	h.broadcast.SendNotification(ctx, []int64{tg.TelegramID},
		"Your user account has been deleted. Goodbye! Send /start if you want to create a new account in the future.")
	for _, m := range popped {
		if err := h.sender.EditMarkdown(ctx, m.ChatID, m.MessageID,
			"Your user account has been deleted. Access to this message has been blocked.", nil); err != nil {
			h.log.Warn().Err(err).Int64("chat_id", m.ChatID).Int64("message_id", m.MessageID).
				Msg("Failed to invalidate shared message of deleted user")
		}
	}
	return nil
}

func (h *EventHandlers) notifyUser(ctx context.Context, coreUserID int64, text string) error {
	ctx = logging.WithCoreUserID(ctx, coreUserID)
	tg, err := h.users.FindTelegramUser(ctx, coreUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	h.broadcast.SendNotification(ctx, []int64{tg.TelegramID}, text)
	return nil
}
