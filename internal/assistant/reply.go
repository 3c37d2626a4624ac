package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/gshashi/mailpilot/internal/mailbox"
)

// ReplyDraft is a suggested reply for a specific email. The user is expected
// to review and edit it before sending; the assistant never sends drafts on
// its own.
type ReplyDraft struct {
	SuggestedReply string `json:"suggested_reply"`
	To             string `json:"to"`
	Subject        string `json:"subject"`
}

// suggestReply fetches the email and asks the oracle for a contextual reply.
// Unlike intent parsing, an oracle failure here is surfaced: there is no
// useful fallback draft.
func (a *Assistant) suggestReply(ctx context.Context, svc mailbox.Service, emailID string) (*ReplyDraft, error) {
	email, err := svc.Get(ctx, emailID)
	if err != nil {
		return nil, fmt.Errorf("fetch email for reply: %w", err)
	}

	prompt := fmt.Sprintf(`Write a short, professional reply to this email. Match its tone. Output only the reply body, no subject line or signature placeholders.

From: %s <%s>
Subject: %s

%s`, email.SenderName, email.SenderEmail, email.Subject, truncateText(email.Body, 2000))

	reply, err := a.parser.oracle.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate reply: %w", err)
	}

	return &ReplyDraft{
		SuggestedReply: strings.TrimSpace(reply),
		To:             email.SenderEmail,
		Subject:        replySubject(email.Subject),
	}, nil
}

// replySubject prefixes "Re: " without doubling it up.
func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}
