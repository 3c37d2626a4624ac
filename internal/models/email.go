package models

// Email is a normalized mailbox message as returned by the mailbox service.
// The assistant treats it as read-only input; only Summary is annotated when
// composing responses.
type Email struct {
	ID          string   `json:"id"`
	ThreadID    string   `json:"thread_id"`
	MessageID   string   `json:"message_id,omitempty"`
	Subject     string   `json:"subject"`
	SenderName  string   `json:"sender_name"`
	SenderEmail string   `json:"sender_email"`
	Recipient   string   `json:"to,omitempty"`
	Date        string   `json:"date"`
	Snippet     string   `json:"snippet"`
	Body        string   `json:"body"`
	Labels      []string `json:"labels,omitempty"`
	Summary     string   `json:"summary,omitempty"`
}

// SendReceipt is the mailbox service's acknowledgement for a sent message.
type SendReceipt struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id"`
}

// Category names for inbox bucketing. Every categorization result contains
// all of these keys, even when empty.
const (
	CategoryUrgent     = "urgent"
	CategoryWork       = "work"
	CategoryPersonal   = "personal"
	CategoryPromotions = "promotions"
	CategoryOther      = "other"
)

// Categories lists all bucket names in display order.
var Categories = []string{
	CategoryUrgent,
	CategoryWork,
	CategoryPersonal,
	CategoryPromotions,
	CategoryOther,
}

// CategoryBuckets maps a category name to the emails assigned to it.
// Each input email appears in exactly one bucket.
type CategoryBuckets map[string][]Email
