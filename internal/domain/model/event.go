package model

import "encoding/json"

// EventType enumerates the push notifications the core API delivers to the
// configured callback endpoint.
type EventType string

const (
	EventServerStarted              EventType = "server_started"
	EventAliasConfirmationRequested EventType = "alias_confirmation_requested"
	EventAliasConfirmed             EventType = "alias_confirmed"
	EventCommunismCreated           EventType = "communism_created"
	EventCommunismUpdated           EventType = "communism_updated"
	EventCommunismClosed            EventType = "communism_closed"
	EventPollCreated                EventType = "poll_created"
	EventPollUpdated                EventType = "poll_updated"
	EventPollClosed                 EventType = "poll_closed"
	EventRefundCreated              EventType = "refund_created"
	EventRefundUpdated              EventType = "refund_updated"
	EventRefundClosed               EventType = "refund_closed"
	EventTransactionCreated         EventType = "transaction_created"
	EventVoucherUpdated             EventType = "voucher_updated"
	EventUserSoftlyDeleted          EventType = "user_softly_deleted"
	EventUserUpdated                EventType = "user_updated"
)

// Event is a single callback notification. The data values stay raw since
// the core mixes numeric IDs and strings in the same map.
type Event struct {
	Event     EventType                  `json:"event"`
	Timestamp int64                      `json:"timestamp"`
	Data      map[string]json.RawMessage `json:"data"`
}

// ObjectID returns the numeric "id" field of the event payload.
func (e Event) ObjectID() (int64, bool) {
	return e.Int64("id")
}

// Int64 returns an arbitrary numeric payload field.
func (e Event) Int64(key string) (int64, bool) {
	raw, ok := e.Data[key]
	if !ok {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	v, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return v, true
}

// String returns an arbitrary string payload field.
func (e Event) String(key string) (string, bool) {
	raw, ok := e.Data[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// EventsNotification is the envelope of a callback POST request.
type EventsNotification struct {
	Number int     `json:"number"`
	Events []Event `json:"events"`
}
