package adapter

import "context"

// InlineButton describes one inline keyboard button. URL buttons open a
// link, otherwise Data is sent as callback data.
type InlineButton struct {
	Text string
	Data string
	URL  string
}

// Keyboard is a grid of inline buttons.
type Keyboard [][]InlineButton

// MessagePort sends and edits chat messages. Implementations handle
// Telegram-level concerns (markdown fallback, flood-wait retries,
// "message is not modified" tolerance) internally.
type MessagePort interface {
	// SendMarkdown sends a markdown message and returns its message ID.
	SendMarkdown(ctx context.Context, chatID int64, text string, kb Keyboard) (int64, error)
	// EditMarkdown replaces the text and keyboard of an existing message.
	EditMarkdown(ctx context.Context, chatID, messageID int64, text string, kb Keyboard) error
}
