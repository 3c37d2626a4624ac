package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gshashi/mailpilot/internal/llm"
	"github.com/gshashi/mailpilot/internal/models"
)

// emptyDigestText is the fixed response for an empty batch.
const emptyDigestText = "There is nothing to summarize right now."

// digestLimit caps how many messages feed one digest.
const digestLimit = 10

// DigestComposer reduces a batch of messages into a bounded summary, using
// the oracle for narrative and a deterministic fallback when it fails.
type DigestComposer struct {
	oracle llm.Oracle
	logger *slog.Logger
}

// NewDigestComposer creates a digest composer. oracle may be nil; the
// deterministic fallback is then always used.
func NewDigestComposer(oracle llm.Oracle, logger *slog.Logger) *DigestComposer {
	if logger == nil {
		logger = slog.Default()
	}
	return &DigestComposer{oracle: oracle, logger: logger}
}

// Compose summarizes messages, assumed most-recent-first; at most the first
// ten are considered. Never fails: oracle errors fall back to a
// deterministic digest built without further external calls.
func (d *DigestComposer) Compose(ctx context.Context, messages []models.Email) string {
	if len(messages) == 0 {
		return emptyDigestText
	}

	if len(messages) > digestLimit {
		messages = messages[:digestLimit]
	}

	if d.oracle != nil {
		digest, err := d.oracle.Complete(ctx, d.buildPrompt(messages))
		if err == nil && strings.TrimSpace(digest) != "" {
			return strings.TrimSpace(digest)
		}
		if err != nil {
			d.logger.Warn("oracle digest failed, using fallback", "error", err)
		}
	}

	return fallbackDigest(messages)
}

func (d *DigestComposer) buildPrompt(messages []models.Email) string {
	var sb strings.Builder

	sb.WriteString("Summarize this inbox snapshot for the user. Give a one-paragraph overview, ")
	sb.WriteString("then the top 3 items needing attention, then suggested actions. Be brief.\n\n")

	for i, msg := range messages {
		fmt.Fprintf(&sb, "%d. %s | %s\n", i+1, msg.SenderName, msg.Subject)
		if msg.Snippet != "" {
			fmt.Fprintf(&sb, "   %s\n", truncateText(msg.Snippet, 120))
		}
	}

	return sb.String()
}

// fallbackDigest builds a minimal deterministic digest: total count plus the
// first three sender names.
func fallbackDigest(messages []models.Email) string {
	senders := make([]string, 0, 3)
	for i, msg := range messages {
		if i == 3 {
			break
		}
		senders = append(senders, msg.SenderName)
	}

	return fmt.Sprintf("You have %d recent emails. Latest senders: %s.",
		len(messages), strings.Join(senders, ", "))
}
