package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/gshashi/mailpilot/internal/mailbox"
	"github.com/gshashi/mailpilot/internal/models"
)

// fakeOracle returns a scripted completion, recording prompts.
type fakeOracle struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeOracle) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

// fakeStore records appended turns in memory.
type fakeStore struct {
	turns     []models.Turn
	appends   int
	appendErr error
	history   []models.Turn
	recentErr error
}

func (f *fakeStore) RecentTurns(_ context.Context, id, owner string, limit int) ([]models.Turn, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	return f.history, nil
}

func (f *fakeStore) Append(_ context.Context, id, owner string, turns ...models.Turn) (string, error) {
	if f.appendErr != nil {
		return "", f.appendErr
	}
	f.appends++
	f.turns = append(f.turns, turns...)
	if id == "" {
		id = "conv-new"
	}
	return id, nil
}

// fakeMailbox is a canned mailbox service.
type fakeMailbox struct {
	emails []models.Email

	listCalls   int
	searchCalls int
	sendCalls   int
	trashCalls  int

	lastQuery string
	lastTo    string
	lastSubj  string
	lastBody  string
	trashedID string

	listErr  error
	trashErr error
	sendErr  error
}

func (f *fakeMailbox) ListRecent(_ context.Context, n int) ([]models.Email, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	if n > len(f.emails) {
		n = len(f.emails)
	}
	return f.emails[:n], nil
}

func (f *fakeMailbox) Get(_ context.Context, id string) (*models.Email, error) {
	for i := range f.emails {
		if f.emails[i].ID == id {
			return &f.emails[i], nil
		}
	}
	return nil, mailbox.ErrNotFound
}

func (f *fakeMailbox) Search(_ context.Context, query string, n int) ([]models.Email, error) {
	f.searchCalls++
	f.lastQuery = query
	if n > len(f.emails) {
		n = len(f.emails)
	}
	return f.emails[:n], nil
}

func (f *fakeMailbox) Send(_ context.Context, to, subject, body string) (*models.SendReceipt, error) {
	f.sendCalls++
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.lastTo, f.lastSubj, f.lastBody = to, subject, body
	return &models.SendReceipt{ID: "msg-sent-1", ThreadID: "thread-1"}, nil
}

func (f *fakeMailbox) Trash(_ context.Context, id string) error {
	f.trashCalls++
	if f.trashErr != nil {
		return f.trashErr
	}
	f.trashedID = id
	return nil
}

// fakeDialer hands out the same service regardless of credential.
type fakeDialer struct {
	svc *fakeMailbox
}

func (f *fakeDialer) WithCredential(string) mailbox.Service {
	return f.svc
}

var errStoreDown = errors.New("store unavailable")

func sampleEmails(n int) []models.Email {
	emails := make([]models.Email, n)
	for i := range emails {
		emails[i] = models.Email{
			ID:          fmt.Sprintf("msg%d", i+1),
			Subject:     fmt.Sprintf("Subject %d", i+1),
			SenderName:  fmt.Sprintf("Sender %d", i+1),
			SenderEmail: fmt.Sprintf("sender%d@example.com", i+1),
			Snippet:     "snippet",
		}
	}
	return emails
}
