package assistant

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gshashi/mailpilot/internal/llm"
	"github.com/gshashi/mailpilot/internal/models"
)

// categoryRule assigns a bucket when any keyword occurs in the named field.
// Rules are evaluated in order; the first match wins.
type categoryRule struct {
	bucket   string
	field    func(*models.Email) string
	keywords []string
}

var categoryRules = []categoryRule{
	{models.CategoryUrgent, subjectOf, []string{"urgent", "asap", "important", "critical"}},
	{models.CategoryPromotions, subjectOf, []string{"unsubscribe", "promo", "sale", "offer", "deal"}},
	{models.CategoryPromotions, senderOf, []string{"noreply", "notification", "no-reply"}},
	{models.CategoryWork, subjectOf, []string{"project", "meeting", "deadline", "report", "task"}},
}

func subjectOf(e *models.Email) string { return e.Subject }
func senderOf(e *models.Email) string  { return e.SenderEmail }

// Categorizer groups messages into disjoint named buckets. Classification is
// rule-based and deterministic; the oracle is consulted only for messages no
// rule can say anything about, and never on the common path.
type Categorizer struct {
	oracle llm.Oracle
	logger *slog.Logger
}

// NewCategorizer creates a categorizer. oracle may be nil, in which case
// ambiguous messages stay in the personal bucket.
func NewCategorizer(oracle llm.Oracle, logger *slog.Logger) *Categorizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Categorizer{oracle: oracle, logger: logger}
}

// Categorize partitions messages into the fixed bucket set. Every input
// message lands in exactly one bucket; all buckets are present in the
// result even when empty.
func (c *Categorizer) Categorize(messages []models.Email) models.CategoryBuckets {
	buckets := emptyBuckets()

	for _, msg := range messages {
		bucket := categoryFor(&msg)
		buckets[bucket] = append(buckets[bucket], msg)
	}

	return buckets
}

// CategorizeWithOracle behaves like Categorize but asks the oracle to place
// messages that carry no rule signal at all (empty subject and sender give
// the rules nothing to match). Oracle failure falls back to personal, so the
// result is still total.
func (c *Categorizer) CategorizeWithOracle(ctx context.Context, messages []models.Email) models.CategoryBuckets {
	buckets := emptyBuckets()

	for _, msg := range messages {
		bucket := categoryFor(&msg)
		if bucket == models.CategoryPersonal && isAmbiguous(&msg) {
			bucket = c.classifyAmbiguous(ctx, &msg)
		}
		buckets[bucket] = append(buckets[bucket], msg)
	}

	return buckets
}

// categoryFor applies the rule table, first match wins, defaulting to
// personal. Matching is case-insensitive.
func categoryFor(e *models.Email) string {
	for _, rule := range categoryRules {
		haystack := strings.ToLower(rule.field(e))
		for _, kw := range rule.keywords {
			if strings.Contains(haystack, kw) {
				return rule.bucket
			}
		}
	}
	return models.CategoryPersonal
}

// isAmbiguous reports whether the rules had nothing to work with.
func isAmbiguous(e *models.Email) bool {
	return strings.TrimSpace(e.Subject) == "" && strings.TrimSpace(e.SenderEmail) == ""
}

// classifyAmbiguous asks the oracle for a single bucket name. Anything
// unexpected degrades to personal.
func (c *Categorizer) classifyAmbiguous(ctx context.Context, e *models.Email) string {
	if c.oracle == nil {
		return models.CategoryPersonal
	}

	prompt := "Classify this email into exactly one of: urgent, work, personal, promotions, other. " +
		"Reply with the single category word only.\n\n" +
		"Snippet: " + e.Snippet + "\nBody: " + truncateText(e.Body, 500)

	reply, err := c.oracle.Complete(ctx, prompt)
	if err != nil {
		c.logger.Warn("oracle classification failed, defaulting to personal", "email_id", e.ID, "error", err)
		return models.CategoryPersonal
	}

	word := strings.ToLower(strings.TrimSpace(reply))
	for _, category := range models.Categories {
		if word == category {
			return category
		}
	}
	return models.CategoryPersonal
}

func emptyBuckets() models.CategoryBuckets {
	buckets := make(models.CategoryBuckets, len(models.Categories))
	for _, category := range models.Categories {
		buckets[category] = []models.Email{}
	}
	return buckets
}

func truncateText(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
