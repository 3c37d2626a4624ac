package assistant

import (
	"context"
	"fmt"

	"github.com/gshashi/mailpilot/internal/mailbox"
	"github.com/gshashi/mailpilot/internal/models"
)

// suggestionSample is how many recent messages feed the suggestion rules.
const suggestionSample = 20

// suggestions derives inbox hints from categorized recent mail. Purely
// rule-based; no oracle involved.
func (a *Assistant) suggestions(ctx context.Context, svc mailbox.Service) ([]string, error) {
	emails, err := svc.ListRecent(ctx, suggestionSample)
	if err != nil {
		return nil, fmt.Errorf("list recent for suggestions: %w", err)
	}

	categorizer := NewCategorizer(nil, a.logger)
	buckets := categorizer.Categorize(emails)

	var suggestions []string

	if n := len(buckets[models.CategoryUrgent]); n > 0 {
		first := buckets[models.CategoryUrgent][0]
		suggestions = append(suggestions,
			fmt.Sprintf("You have %d urgent emails. The latest is from %s: %q.", n, first.SenderName, first.Subject))
	}

	if n := len(buckets[models.CategoryPromotions]); n >= 3 {
		suggestions = append(suggestions,
			fmt.Sprintf("%d promotional emails could be cleaned up.", n))
	}

	if top, count := topSender(emails); count >= 3 {
		suggestions = append(suggestions,
			fmt.Sprintf("%s has sent you %d recent emails.", top, count))
	}

	if len(suggestions) == 0 {
		suggestions = append(suggestions, "Your inbox looks under control. Nothing needs attention right now.")
	}

	return suggestions, nil
}

// topSender returns the most frequent sender in the batch.
func topSender(emails []models.Email) (string, int) {
	counts := make(map[string]int)
	names := make(map[string]string)

	for _, e := range emails {
		counts[e.SenderEmail]++
		names[e.SenderEmail] = e.SenderName
	}

	best, bestCount := "", 0
	for addr, n := range counts {
		if n > bestCount {
			best, bestCount = addr, n
		}
	}

	if name := names[best]; name != "" {
		best = name
	}
	return best, bestCount
}
