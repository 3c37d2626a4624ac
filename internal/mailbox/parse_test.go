package mailbox

import (
	"encoding/base64"
	"strings"
	"testing"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name      string
		from      string
		wantName  string
		wantEmail string
	}{
		{"name and address", "Alice Smith <alice@example.com>", "Alice Smith", "alice@example.com"},
		{"quoted name", `"Smith, Alice" <alice@example.com>`, "Smith, Alice", "alice@example.com"},
		{"bare address", "bob@example.com", "bob@example.com", "bob@example.com"},
		{"angle brackets only", "<carol@example.com>", "carol@example.com", "carol@example.com"},
		{"empty header", "", "Unknown", "unknown@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, email := parseAddress(tt.from)
			if name != tt.wantName || email != tt.wantEmail {
				t.Errorf("parseAddress(%q) = (%q, %q), want (%q, %q)",
					tt.from, name, email, tt.wantName, tt.wantEmail)
			}
		})
	}
}

func TestHeaderCaseInsensitive(t *testing.T) {
	headers := []rawHeader{
		{Name: "subject", Value: "hello"},
		{Name: "FROM", Value: "a@b.com"},
	}

	if got := header(headers, "Subject"); got != "hello" {
		t.Errorf("Subject = %q", got)
	}
	if got := header(headers, "From"); got != "a@b.com" {
		t.Errorf("From = %q", got)
	}
	if got := header(headers, "Date"); got != "" {
		t.Errorf("missing header = %q, want empty", got)
	}
}

func TestParseMessage(t *testing.T) {
	msg := &rawMessage{
		ID:       "m1",
		ThreadID: "t1",
		Snippet:  "quick look",
		LabelIDs: []string{"INBOX", "UNREAD"},
		Payload: rawPayload{
			MimeType: "text/plain",
			Headers: []rawHeader{
				{Name: "From", Value: "Alice <alice@example.com>"},
				{Name: "Subject", Value: "Lunch?"},
				{Name: "To", Value: "bob@example.com"},
				{Name: "Date", Value: "Fri, 29 Aug 2026 10:00:00 +0000"},
			},
			Body: rawBody{Data: b64("Want to grab lunch?")},
		},
	}

	email := parseMessage(msg)

	if email.ID != "m1" || email.ThreadID != "t1" {
		t.Errorf("ids = %q/%q", email.ID, email.ThreadID)
	}
	if email.SenderName != "Alice" || email.SenderEmail != "alice@example.com" {
		t.Errorf("sender = %q <%s>", email.SenderName, email.SenderEmail)
	}
	if email.Subject != "Lunch?" {
		t.Errorf("subject = %q", email.Subject)
	}
	if email.Body != "Want to grab lunch?" {
		t.Errorf("body = %q", email.Body)
	}
	if len(email.Labels) != 2 {
		t.Errorf("labels = %v", email.Labels)
	}
}

func TestParseMessageDefaultSubject(t *testing.T) {
	msg := &rawMessage{ID: "m1", Payload: rawPayload{}}

	email := parseMessage(msg)
	if email.Subject != "(No Subject)" {
		t.Errorf("subject = %q, want (No Subject)", email.Subject)
	}
	if email.Body != "(No content)" {
		t.Errorf("body = %q, want (No content)", email.Body)
	}
}

func TestExtractBodyPrefersPlainText(t *testing.T) {
	payload := &rawPayload{
		MimeType: "multipart/alternative",
		Parts: []rawPayload{
			{MimeType: "text/html", Body: rawBody{Data: b64("<p>html version</p>")}},
			{MimeType: "text/plain", Body: rawBody{Data: b64("plain version")}},
		},
	}

	if got := extractBody(payload); got != "plain version" {
		t.Errorf("body = %q, want plain version", got)
	}
}

func TestExtractBodyFallsBackToHTML(t *testing.T) {
	payload := &rawPayload{
		MimeType: "multipart/alternative",
		Parts: []rawPayload{
			{MimeType: "text/html", Body: rawBody{Data: b64("<p>Hello<br>world</p>")}},
		},
	}

	got := extractBody(payload)
	if !strings.Contains(got, "Hello") || !strings.Contains(got, "world") {
		t.Errorf("body = %q", got)
	}
}

func TestExtractBodyNestedMultipart(t *testing.T) {
	payload := &rawPayload{
		MimeType: "multipart/mixed",
		Parts: []rawPayload{
			{
				MimeType: "multipart/alternative",
				Parts: []rawPayload{
					{MimeType: "text/plain", Body: rawBody{Data: b64("nested text")}},
				},
			},
		},
	}

	if got := extractBody(payload); got != "nested text" {
		t.Errorf("body = %q, want nested text", got)
	}
}

func TestDecodeBodyToleratesMissingPadding(t *testing.T) {
	raw := base64.RawURLEncoding.EncodeToString([]byte("no padding here"))

	if got := decodeBody(raw); got != "no padding here" {
		t.Errorf("decoded = %q", got)
	}
	if got := decodeBody("!!not base64!!"); got != "" {
		t.Errorf("decoded garbage = %q, want empty", got)
	}
}

func TestHTMLToText(t *testing.T) {
	in := `<div>Hi Bob,</div><p>See the report &amp; let me know.</p><script>alert(1)</script>`

	got := htmlToText(in)
	if strings.Contains(got, "<") {
		t.Errorf("tags survived: %q", got)
	}
	if strings.Contains(got, "alert") {
		t.Errorf("script content survived: %q", got)
	}
	if !strings.Contains(got, "report & let me know") {
		t.Errorf("entities not unescaped: %q", got)
	}
}
