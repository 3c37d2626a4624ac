package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/gshashi/mailpilot/internal/llm"
	"github.com/gshashi/mailpilot/internal/mailbox"
)

// actionItemsPayload is the structured object the oracle is asked to embed
// in its reply.
type actionItemsPayload struct {
	ActionItems []string `json:"action_items"`
}

// actionItems fetches the email and asks the oracle to pull out concrete
// tasks from it. A mail that cannot be fetched is an error; an oracle that
// fails or returns nothing usable yields an empty list, since "no action
// items" is a valid answer for any email.
func (a *Assistant) actionItems(ctx context.Context, svc mailbox.Service, emailID string) ([]string, error) {
	email, err := svc.Get(ctx, emailID)
	if err != nil {
		return nil, fmt.Errorf("fetch email for action items: %w", err)
	}

	prompt := fmt.Sprintf(`List the concrete action items this email asks of the reader. Respond with a JSON object of the form {"action_items": ["...", "..."]}. Use an empty array if the email asks for nothing.

From: %s <%s>
Subject: %s

%s`, email.SenderName, email.SenderEmail, email.Subject, truncateText(email.Body, 2000))

	raw, err := a.parser.oracle.Complete(ctx, prompt)
	if err != nil {
		a.logger.Warn("action item extraction failed", "email", emailID, "error", err)
		return []string{}, nil
	}

	var payload actionItemsPayload
	if err := llm.ExtractObject(raw, &payload); err != nil {
		a.logger.Warn("unusable action item output", "email", emailID, "error", err)
		return []string{}, nil
	}

	items := make([]string, 0, len(payload.ActionItems))
	for _, item := range payload.ActionItems {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items, nil
}
