package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Conversation represents a persistent chat session owned by a single user.
// Conversations are append-only: turns are added, never edited or reordered.
type Conversation struct {
	ID        surrealmodels.RecordID `json:"id"`
	Owner     string                 `json:"owner"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// Turn is a single recorded message within a conversation. Immutable once
// appended. Action and Metadata record what the assistant did on that turn
// (e.g. which emails were touched) so follow-up utterances can be grounded.
type Turn struct {
	ID           surrealmodels.RecordID `json:"id"`
	Conversation surrealmodels.RecordID `json:"conversation"`
	Role         string                 `json:"role"`
	Content      string                 `json:"content"`
	Action       string                 `json:"action,omitempty"`
	Metadata     map[string]string      `json:"metadata,omitempty"`
	Seq          int                    `json:"seq"`
	CreatedAt    time.Time              `json:"created_at"`
}

// ConversationWithTurns bundles a conversation with its ordered turns.
type ConversationWithTurns struct {
	Conversation Conversation `json:"conversation"`
	Turns        []Turn       `json:"turns"`
}
