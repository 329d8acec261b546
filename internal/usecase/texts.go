package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"matebot-telegram/internal/currency"
	"matebot-telegram/internal/domain/model"
	"matebot-telegram/internal/domain/ports/adapter"
)

// TextRenderer builds the markdown bodies and inline keyboards of shared
// messages for communisms, refunds and polls.
type TextRenderer struct {
	client adapter.MateBotClient
	fmt    *currency.Formatter
}

func NewTextRenderer(client adapter.MateBotClient, formatter *currency.Formatter) *TextRenderer {
	return &TextRenderer{client: client, fmt: formatter}
}

func (r *TextRenderer) CommunismText(ctx context.Context, c *model.Communism) (string, error) {
	creator, err := r.client.GetUser(ctx, c.CreatorID)
	if err != nil {
		return "", err
	}

	var total int64
	names := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		total += p.Quantity
		names = append(names, fmt.Sprintf("%s (%dx)", p.UserName, p.Quantity))
	}
	joined := strings.Join(names, ", ")
	if joined == "" {
		joined = "None"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Communism by %s*\n\n", creator.Name)
	fmt.Fprintf(&b, "Reason: %s\n", c.Description)
	fmt.Fprintf(&b, "Amount: %s\n", r.fmt.Format(c.Amount))
	fmt.Fprintf(&b, "Joined users (%d): %s\n", total, joined)

	switch {
	case c.Active:
		b.WriteString("\n_The communism is currently active._")
	case c.MultiTx != nil:
		n := len(c.MultiTx.Transactions)
		plural, verb := "s", "have"
		if n == 1 {
			plural, verb = "", "has"
		}
		b.WriteString("\n_The communism has been closed._")
		fmt.Fprintf(
			&b,
			"\n%d transaction%s %s been processed for a total value of %s. Take a look at /history for more details.",
			n, plural, verb, r.fmt.Format(c.MultiTx.TotalAmount),
		)
	default:
		b.WriteString("\n_The communism has been closed._")
		b.WriteString("\nThe communism was aborted. No transactions have been processed.")
	}
	return b.String(), nil
}

func (r *TextRenderer) CommunismKeyboard(c *model.Communism) adapter.Keyboard {
	if !c.Active {
		return nil
	}
	id := c.ID
	return adapter.Keyboard{
		{
			{Text: "JOIN (+)", Data: fmt.Sprintf("communism join %d", id)},
			{Text: "LEAVE (-)", Data: fmt.Sprintf("communism leave %d", id)},
		},
		{
			{Text: "COMPLETE", Data: fmt.Sprintf("communism close %d", id)},
			{Text: "ABORT", Data: fmt.Sprintf("communism abort %d", id)},
		},
	}
}

func (r *TextRenderer) RefundText(_ context.Context, refund *model.Refund) (string, error) {
	var approving, disapproving []string
	for _, v := range refund.Votes {
		if v.Vote {
			approving = append(approving, v.UserName)
		} else {
			disapproving = append(disapproving, v.UserName)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Refund by %s*\n", refund.Creator.Name)
	fmt.Fprintf(&b, "Reason: %s\n", refund.Description)
	fmt.Fprintf(&b, "Amount: %s\n", r.fmt.Format(refund.Amount))
	fmt.Fprintf(&b, "Created: %s\n\n", time.Unix(refund.Created, 0).UTC().Format(time.ANSIC))
	fmt.Fprintf(&b, "*Votes (%d)*\n", len(refund.Votes))
	fmt.Fprintf(&b, "Proponents (%d): %s\n", len(approving), joinOrNone(approving))
	fmt.Fprintf(&b, "Opponents (%d): %s\n", len(disapproving), joinOrNone(disapproving))

	if refund.Active {
		b.WriteString("\n_The refund request is currently active._")
		return b.String(), nil
	}
	if refund.Allowed != nil {
		verdict := "rejected"
		if *refund.Allowed {
			verdict = "allowed"
		}
		fmt.Fprintf(&b, "\n_The request was %s. ", verdict)
	} else {
		b.WriteString("\n_The request has been aborted. ")
	}
	if refund.Transaction != nil {
		b.WriteString("The transaction has been processed. Take a look at your history for more details._")
	} else {
		b.WriteString("No transactions have been processed._")
	}
	return b.String(), nil
}

func (r *TextRenderer) RefundKeyboard(refund *model.Refund) adapter.Keyboard {
	if !refund.Active {
		return nil
	}
	return votingKeyboard("refund", refund.ID)
}

func (r *TextRenderer) PollText(ctx context.Context, poll *model.Poll) (string, error) {
	var approving, disapproving []string
	for _, v := range poll.Votes {
		if v.Vote {
			approving = append(approving, v.UserName)
		} else {
			disapproving = append(disapproving, v.UserName)
		}
	}

	question := map[model.PollVariant]string{
		model.PollGetInternal:    "join the internal group",
		model.PollGetPermission:  "get extended permissions",
		model.PollLoanPermission: "get the permission to vouch for others",
	}[poll.Variant]
	if question == "" {
		question = string(poll.Variant)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Membership poll for %s*\n", poll.User.Name)
	fmt.Fprintf(&b, "Request: %s\n", question)
	fmt.Fprintf(&b, "Created: %s\n\n", time.Unix(poll.Created, 0).UTC().Format(time.ANSIC))
	fmt.Fprintf(&b, "*Votes (%d)*\n", len(poll.Votes))
	fmt.Fprintf(&b, "Proponents (%d): %s\n", len(approving), joinOrNone(approving))
	fmt.Fprintf(&b, "Opponents (%d): %s\n", len(disapproving), joinOrNone(disapproving))

	switch {
	case poll.Active:
		b.WriteString("\n_The poll is currently active._")
	case poll.Accepted != nil && *poll.Accepted:
		b.WriteString("\n_The poll has been accepted._")
	case poll.Accepted != nil:
		b.WriteString("\n_The poll has been rejected._")
	default:
		b.WriteString("\n_The poll has been aborted._")
	}
	return b.String(), nil
}

func (r *TextRenderer) PollKeyboard(poll *model.Poll) adapter.Keyboard {
	if !poll.Active {
		return nil
	}
	return votingKeyboard("poll", poll.ID)
}

// AliasConfirmationText asks the account owner to verify a pending alias
// created by another frontend application.
func (r *TextRenderer) AliasConfirmationText(appName string, alias *model.Alias) string {
	var b strings.Builder
	b.WriteString("*New sign-up request*\n\n")
	fmt.Fprintf(&b, "The application %q wants to connect the alias %q to your user account.\n", appName, alias.Username)
	b.WriteString("Only accept the request if you created it yourself from that application.")
	return b.String()
}

func (r *TextRenderer) AliasKeyboard(alias *model.Alias) adapter.Keyboard {
	if alias.Confirmed {
		return nil
	}
	return adapter.Keyboard{
		{
			{Text: "ACCEPT", Data: fmt.Sprintf("alias accept %d", alias.ID)},
			{Text: "DENY", Data: fmt.Sprintf("alias deny %d", alias.ID)},
		},
	}
}

func votingKeyboard(kind string, id int64) adapter.Keyboard {
	return adapter.Keyboard{
		{
			{Text: "APPROVE", Data: fmt.Sprintf("%s approve %d", kind, id)},
			{Text: "DISAPPROVE", Data: fmt.Sprintf("%s disapprove %d", kind, id)},
		},
		{
			{Text: "ABORT", Data: fmt.Sprintf("%s abort %d", kind, id)},
		},
	}
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, ", ")
}
