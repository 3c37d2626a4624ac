// Package mailbox provides the mailbox service abstraction and its Gmail
// REST implementation.
package mailbox

import (
	"context"
	"errors"

	"github.com/gshashi/mailpilot/internal/models"
)

// Sentinel errors for mailbox operations.
var (
	// ErrNotFound indicates the message id does not exist in the mailbox.
	ErrNotFound = errors.New("message not found")

	// ErrPermission indicates the credential was rejected or lacks scope.
	ErrPermission = errors.New("mailbox permission denied")
)

// Service executes concrete mailbox operations for one user's mailbox.
// Implementations are bound to a single credential; see Dialer.
type Service interface {
	// ListRecent returns the n most recent inbox messages, newest first.
	ListRecent(ctx context.Context, n int) ([]models.Email, error)

	// Get fetches the full message by id. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*models.Email, error)

	// Search returns up to n messages matching the mailbox query syntax.
	Search(ctx context.Context, query string, n int) ([]models.Email, error)

	// Send delivers a plain-text message and returns its receipt.
	Send(ctx context.Context, to, subject, body string) (*models.SendReceipt, error)

	// Trash moves a message to the trash. Returns ErrNotFound if absent.
	Trash(ctx context.Context, id string) error
}

// Dialer binds a per-request mailbox credential to a Service. The assistant
// core never sees raw credentials beyond passing them through here.
type Dialer interface {
	WithCredential(credential string) Service
}
