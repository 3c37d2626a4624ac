package mailbox

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gshashi/mailpilot/internal/models"
)

const (
	// defaultTimeout bounds every Gmail API call so a stuck request cannot
	// stall a dispatch.
	defaultTimeout = 15 * time.Second

	// fetchWorkers bounds concurrent per-message fetches during listing.
	fetchWorkers = 4
)

// GmailClient talks to the Gmail REST API. It is credential-free; call
// WithCredential to obtain a Service bound to one user's access token.
type GmailClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGmailClient creates a Gmail API client against baseURL
// (normally https://gmail.googleapis.com/gmail/v1).
func NewGmailClient(baseURL string, logger *slog.Logger) *GmailClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &GmailClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
}

// WithCredential binds an OAuth2 access token to the client.
func (c *GmailClient) WithCredential(credential string) Service {
	return &gmailSession{client: c, token: credential}
}

// gmailSession is a GmailClient bound to a single access token.
type gmailSession struct {
	client *GmailClient
	token  string
}

// messageRef is the id/threadId pair returned by list and search calls.
type messageRef struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

type listResponse struct {
	Messages []messageRef `json:"messages"`
}

type sendResponse struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *gmailSession) ListRecent(ctx context.Context, n int) ([]models.Email, error) {
	q := url.Values{}
	q.Set("maxResults", strconv.Itoa(n))
	q.Set("labelIds", "INBOX")

	var list listResponse
	if err := s.get(ctx, "/users/me/messages?"+q.Encode(), &list); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	return s.fetchAll(ctx, list.Messages)
}

func (s *gmailSession) Search(ctx context.Context, query string, n int) ([]models.Email, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("maxResults", strconv.Itoa(n))

	var list listResponse
	if err := s.get(ctx, "/users/me/messages?"+q.Encode(), &list); err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}

	return s.fetchAll(ctx, list.Messages)
}

func (s *gmailSession) Get(ctx context.Context, id string) (*models.Email, error) {
	var raw rawMessage
	if err := s.get(ctx, "/users/me/messages/"+url.PathEscape(id)+"?format=full", &raw); err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}

	email := parseMessage(&raw)
	return &email, nil
}

func (s *gmailSession) Send(ctx context.Context, to, subject, body string) (*models.SendReceipt, error) {
	raw := base64.URLEncoding.EncodeToString(buildMIME(to, subject, body))

	payload, err := json.Marshal(map[string]string{"raw": raw})
	if err != nil {
		return nil, fmt.Errorf("marshal send payload: %w", err)
	}

	var sent sendResponse
	if err := s.post(ctx, "/users/me/messages/send", payload, &sent); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	return &models.SendReceipt{ID: sent.ID, ThreadID: sent.ThreadID}, nil
}

func (s *gmailSession) Trash(ctx context.Context, id string) error {
	if err := s.post(ctx, "/users/me/messages/"+url.PathEscape(id)+"/trash", nil, nil); err != nil {
		return fmt.Errorf("trash message %s: %w", id, err)
	}
	return nil
}

// fetchAll resolves message refs to full messages. Fetches run concurrently
// but the output preserves the order of refs, which the API returns newest
// first. A ref that fails to fetch is skipped, not fatal.
func (s *gmailSession) fetchAll(ctx context.Context, refs []messageRef) ([]models.Email, error) {
	if len(refs) == 0 {
		return []models.Email{}, nil
	}

	results := make([]*models.Email, len(refs))
	sem := make(chan struct{}, fetchWorkers)
	var wg sync.WaitGroup

	for i, ref := range refs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			email, err := s.Get(ctx, id)
			if err != nil {
				s.client.logger.Warn("skipping unfetchable message", "id", id, "error", err)
				return
			}
			results[i] = email
		}(i, ref.ID)
	}
	wg.Wait()

	emails := make([]models.Email, 0, len(refs))
	for _, e := range results {
		if e != nil {
			emails = append(emails, *e)
		}
	}
	return emails, nil
}

func (s *gmailSession) get(ctx context.Context, path string, out any) error {
	return s.do(ctx, http.MethodGet, path, nil, out)
}

func (s *gmailSession) post(ctx context.Context, path string, body []byte, out any) error {
	return s.do(ctx, http.MethodPost, path, body, out)
}

func (s *gmailSession) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.client.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling Gmail API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return apiError(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// apiError maps Gmail API status codes to sentinel errors where the caller
// can act on them.
func apiError(status int, body []byte) error {
	msg := string(body)
	var apiErr apiErrorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
	}

	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrPermission, msg)
	default:
		return fmt.Errorf("Gmail API error (%d): %s", status, msg)
	}
}

// buildMIME assembles a minimal RFC 2822 plain-text message. Header values
// come from model output, so line breaks are stripped to keep them from
// injecting extra headers.
func buildMIME(to, subject, body string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "To: %s\r\n", headerValue(to))
	fmt.Fprintf(&buf, "Subject: %s\r\n", headerValue(subject))
	buf.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.Bytes()
}

// headerValue folds a value onto a single header line.
func headerValue(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
