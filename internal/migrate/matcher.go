// Package migrate performs the one-time transfer of legacy bot state into
// the current persistence schema. Legacy rows live in the `original` schema,
// the backend's tables in `core`, and the bot's own tables in the default
// schema.
package migrate

import (
	"fmt"
	"time"

	"matebot-telegram/internal/domain/model"
)

// LegacyUser is one row of `original.users`.
type LegacyUser struct {
	TelegramID int64
	Username   string
	FirstName  string
	Created    int64
}

// LegacyCollective is one row of `original.collectives`. The communistic
// flag discriminates bill splits from refund requests.
type LegacyCollective struct {
	ID          int64
	Active      bool
	Amount      int64
	Description string
	Communistic bool
	Created     int64
}

// LegacyCollectiveMessage is one row of `original.collective_messages`.
type LegacyCollectiveMessage struct {
	CollectiveID int64
	ChatID       int64
	MessageID    int64
}

// CoreUser is the (id, name) projection of `core.users`.
type CoreUser struct {
	ID   int64
	Name string
}

// CoreCollective is the matching projection of `core.communisms` or
// `core.refunds`.
type CoreCollective struct {
	ID          int64
	Active      bool
	Amount      int64
	Description string
	Created     int64
}

// Skip reports one legacy row that could not be migrated and why.
type Skip struct {
	Kind     string
	LegacyID int64
	Reason   string
}

func (s Skip) String() string {
	return fmt.Sprintf("%s %d: %s", s.Kind, s.LegacyID, s.Reason)
}

// MatchUsers links legacy Telegram accounts to core users by exact name
// match. Accounts matching zero or several core users are skipped.
func MatchUsers(legacy []LegacyUser, core []CoreUser) ([]model.TelegramUser, []Skip) {
	byName := make(map[string][]CoreUser, len(core))
	for _, u := range core {
		byName[u.Name] = append(byName[u.Name], u)
	}

	var out []model.TelegramUser
	var skips []Skip
	for _, lu := range legacy {
		candidates := byName[lu.Username]
		switch len(candidates) {
		case 0:
			skips = append(skips, Skip{Kind: "user", LegacyID: lu.TelegramID, Reason: "no core user with this name"})
		case 1:
			created := time.Unix(lu.Created, 0).UTC()
			out = append(out, model.TelegramUser{
				TelegramID: lu.TelegramID,
				UserID:     candidates[0].ID,
				FirstName:  lu.FirstName,
				Username:   lu.Username,
				Created:    created,
				Modified:   created,
			})
		default:
			skips = append(skips, Skip{Kind: "user", LegacyID: lu.TelegramID,
				Reason: fmt.Sprintf("name matches %d core users", len(candidates))})
		}
	}
	return out, skips
}

type matchKey struct {
	Created     int64
	Amount      int64
	Description string
}

// MatchCollectives links the chat messages of active legacy collectives to
// core communisms (communistic flag set) or refunds (flag unset) by exact
// (created, amount, description) match. Inactive, unmatched and ambiguous
// legacy collectives are skipped.
func MatchCollectives(
	legacy []LegacyCollective,
	messages []LegacyCollectiveMessage,
	communisms []CoreCollective,
	refunds []CoreCollective,
) ([]model.SharedMessage, []Skip) {
	index := func(rows []CoreCollective) map[matchKey][]CoreCollective {
		m := make(map[matchKey][]CoreCollective, len(rows))
		for _, r := range rows {
			k := matchKey{Created: r.Created, Amount: r.Amount, Description: r.Description}
			m[k] = append(m[k], r)
		}
		return m
	}
	communismIdx := index(communisms)
	refundIdx := index(refunds)

	messagesByCollective := make(map[int64][]LegacyCollectiveMessage, len(messages))
	for _, msg := range messages {
		messagesByCollective[msg.CollectiveID] = append(messagesByCollective[msg.CollectiveID], msg)
	}

	var out []model.SharedMessage
	var skips []Skip
	for _, lc := range legacy {
		if !lc.Active {
			continue
		}
		kind, idx := "refund", refundIdx
		shareType := model.ShareTypeRefund
		if lc.Communistic {
			kind, idx = "communism", communismIdx
			shareType = model.ShareTypeCommunism
		}
		candidates := idx[matchKey{Created: lc.Created, Amount: lc.Amount, Description: lc.Description}]
		switch len(candidates) {
		case 0:
			skips = append(skips, Skip{Kind: kind, LegacyID: lc.ID, Reason: "no matching core record"})
			continue
		case 1:
		default:
			skips = append(skips, Skip{Kind: kind, LegacyID: lc.ID,
				Reason: fmt.Sprintf("matches %d core records", len(candidates))})
			continue
		}
		if !candidates[0].Active {
			skips = append(skips, Skip{Kind: kind, LegacyID: lc.ID, Reason: "matching core record is closed"})
			continue
		}
		for _, msg := range messagesByCollective[lc.ID] {
			out = append(out, model.SharedMessage{
				ShareType: shareType,
				ShareID:   candidates[0].ID,
				ChatID:    msg.ChatID,
				MessageID: msg.MessageID,
			})
		}
	}
	return out, skips
}
