package model

import (
	"fmt"
	"time"
)

// ShareType discriminates what a shared message points at.
type ShareType string

const (
	ShareTypeAlias     ShareType = "alias"
	ShareTypeCommunism ShareType = "communism"
	ShareTypePoll      ShareType = "poll"
	ShareTypeRefund    ShareType = "refund"
)

// ParseShareType validates a raw share type string.
func ParseShareType(s string) (ShareType, error) {
	switch t := ShareType(s); t {
	case ShareTypeAlias, ShareTypeCommunism, ShareTypePoll, ShareTypeRefund:
		return t, nil
	default:
		return "", fmt.Errorf("unknown share type %q", s)
	}
}

// TelegramUser binds one Telegram account to a MateBot core user.
type TelegramUser struct {
	TelegramID int64
	UserID     int64
	FirstName  string
	LastName   string
	Username   string
	Created    time.Time
	Modified   time.Time
}

// SharedMessage links a chat message to a communism, refund, poll or alias
// record so it can be edited later from API callback events.
type SharedMessage struct {
	ShareType ShareType
	ShareID   int64
	ChatID    int64
	MessageID int64
}

// RegistrationProcess tracks the sign-up conversation of a not yet bound
// Telegram account.
type RegistrationProcess struct {
	TelegramID       int64
	ApplicationID    int64
	SelectedUsername string
	CoreUserID       *int64
	Created          time.Time
}
