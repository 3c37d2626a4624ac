package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/gshashi/mailpilot/internal/models"
)

func TestCategorizeRuleTable(t *testing.T) {
	tests := []struct {
		name   string
		email  models.Email
		bucket string
	}{
		{"urgent subject", models.Email{Subject: "URGENT: server down"}, models.CategoryUrgent},
		{"asap subject", models.Email{Subject: "need this asap"}, models.CategoryUrgent},
		{"promo subject", models.Email{Subject: "Summer Sale - 50% off"}, models.CategoryPromotions},
		{"unsubscribe footer leak", models.Email{Subject: "unsubscribe now"}, models.CategoryPromotions},
		{"noreply sender", models.Email{Subject: "Your receipt", SenderEmail: "noreply@shop.com"}, models.CategoryPromotions},
		{"work subject", models.Email{Subject: "Project deadline moved"}, models.CategoryWork},
		{"meeting subject", models.Email{Subject: "Meeting notes"}, models.CategoryWork},
		{"plain personal", models.Email{Subject: "Dinner on Friday?", SenderEmail: "friend@example.com"}, models.CategoryPersonal},
		// "urgent" outranks "meeting" when both match.
		{"urgent beats work", models.Email{Subject: "URGENT meeting"}, models.CategoryUrgent},
		// The noreply sender rule runs before the work subject rule.
		{"noreply beats work subject", models.Email{Subject: "project update", SenderEmail: "noreply@corp.com"}, models.CategoryPromotions},
	}

	c := NewCategorizer(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buckets := c.Categorize([]models.Email{tt.email})
			if len(buckets[tt.bucket]) != 1 {
				t.Errorf("email not in %s bucket: %v", tt.bucket, buckets)
			}
		})
	}
}

func TestCategorizeIsTotalPartition(t *testing.T) {
	emails := []models.Email{
		{ID: "1", Subject: "URGENT"},
		{ID: "2", Subject: "big sale"},
		{ID: "3", Subject: "project sync"},
		{ID: "4", Subject: "hey"},
		{ID: "5"},
	}

	c := NewCategorizer(nil, nil)
	buckets := c.Categorize(emails)

	// All buckets are present even when empty.
	for _, category := range models.Categories {
		if _, ok := buckets[category]; !ok {
			t.Errorf("bucket %s missing from result", category)
		}
	}

	// Every message lands in exactly one bucket.
	total := 0
	seen := make(map[string]int)
	for _, bucket := range buckets {
		for _, e := range bucket {
			total++
			seen[e.ID]++
		}
	}
	if total != len(emails) {
		t.Errorf("placed %d messages, want %d", total, len(emails))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("email %s placed %d times", id, n)
		}
	}
}

func TestCategorizeEmptyInput(t *testing.T) {
	c := NewCategorizer(nil, nil)
	buckets := c.Categorize(nil)

	if len(buckets) != len(models.Categories) {
		t.Fatalf("got %d buckets, want %d", len(buckets), len(models.Categories))
	}
	for category, bucket := range buckets {
		if len(bucket) != 0 {
			t.Errorf("bucket %s not empty", category)
		}
	}
}

func TestCategorizeWithOracleOnlyForAmbiguous(t *testing.T) {
	oracle := &fakeOracle{response: "work"}
	c := NewCategorizer(oracle, nil)

	emails := []models.Email{
		{ID: "1", Subject: "meeting", SenderEmail: "a@b.com"},
		{ID: "2", Snippet: "see attached"}, // no subject, no sender
	}
	buckets := c.CategorizeWithOracle(context.Background(), emails)

	if len(oracle.prompts) != 1 {
		t.Fatalf("oracle consulted %d times, want 1", len(oracle.prompts))
	}
	if len(buckets[models.CategoryWork]) != 2 {
		t.Errorf("expected both emails in work, got %v", buckets)
	}
}

func TestClassifyAmbiguousFallsBackToPersonal(t *testing.T) {
	tests := []struct {
		name   string
		oracle *fakeOracle
	}{
		{"oracle error", &fakeOracle{err: errors.New("down")}},
		{"unexpected word", &fakeOracle{response: "spam"}},
		{"rambling reply", &fakeOracle{response: "I'd say this is probably work-related."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCategorizer(tt.oracle, nil)
			buckets := c.CategorizeWithOracle(context.Background(), []models.Email{{ID: "1"}})
			if len(buckets[models.CategoryPersonal]) != 1 {
				t.Errorf("expected fallback to personal, got %v", buckets)
			}
		})
	}
}
