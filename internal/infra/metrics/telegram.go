package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		telegramCommandsReceivedTotal,
		telegramCallbackQueriesTotal,
		telegramRateLimitTriggeredTotal,
		telegramSendRetriesTotal,
		sharedMessagesEditedTotal,
	)
}

var (
	telegramCommandsReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_commands_received_total",
			Help: "Counts incoming commands and messages from users.",
		},
		[]string{"command"},
	)

	telegramCallbackQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_callback_queries_total",
			Help: "Counts incoming inline keyboard callback queries by route.",
		},
		[]string{"route"},
	)

	telegramRateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_rate_limit_triggered_total",
			Help: "Total number of times users have been rate-limited.",
		},
	)

	telegramSendRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_send_retries_total",
			Help: "Retried outgoing Telegram API calls by reason.",
		},
		[]string{"reason"},
	)

	sharedMessagesEditedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shared_messages_edited_total",
			Help: "Shared message create/edit/delete operations by share type.",
		},
		[]string{"share_type", "op"},
	)
)

func IncTelegramCommand(command string) {
	telegramCommandsReceivedTotal.WithLabelValues(norm(command)).Inc()
}

func IncCallbackQuery(route string) {
	telegramCallbackQueriesTotal.WithLabelValues(norm(route)).Inc()
}

func IncRateLimitTriggered() {
	telegramRateLimitTriggeredTotal.Inc()
}

func IncSendRetry(reason string) {
	telegramSendRetriesTotal.WithLabelValues(reason).Inc()
}

func IncSharedMessageOp(shareType, op string) {
	sharedMessagesEditedTotal.WithLabelValues(shareType, op).Inc()
}
