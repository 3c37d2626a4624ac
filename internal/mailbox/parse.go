package mailbox

import (
	"encoding/base64"
	"html"
	"strings"

	"github.com/gshashi/mailpilot/internal/models"
	"github.com/microcosm-cc/bluemonday"
)

// stripPolicy removes all HTML, leaving only text content.
var stripPolicy = bluemonday.StrictPolicy()

// Gmail API message shapes (format=full).
type rawMessage struct {
	ID       string     `json:"id"`
	ThreadID string     `json:"threadId"`
	Snippet  string     `json:"snippet"`
	LabelIDs []string   `json:"labelIds"`
	Payload  rawPayload `json:"payload"`
}

type rawPayload struct {
	MimeType string       `json:"mimeType"`
	Headers  []rawHeader  `json:"headers"`
	Body     rawBody      `json:"body"`
	Parts    []rawPayload `json:"parts"`
}

type rawHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type rawBody struct {
	Data string `json:"data"`
}

// parseMessage normalizes a Gmail API message into the Email shape the
// assistant consumes.
func parseMessage(msg *rawMessage) models.Email {
	from := header(msg.Payload.Headers, "From")
	senderName, senderEmail := parseAddress(from)

	subject := header(msg.Payload.Headers, "Subject")
	if subject == "" {
		subject = "(No Subject)"
	}

	return models.Email{
		ID:          msg.ID,
		ThreadID:    msg.ThreadID,
		MessageID:   header(msg.Payload.Headers, "Message-ID"),
		Subject:     subject,
		SenderName:  senderName,
		SenderEmail: senderEmail,
		Recipient:   header(msg.Payload.Headers, "To"),
		Date:        header(msg.Payload.Headers, "Date"),
		Snippet:     msg.Snippet,
		Body:        extractBody(&msg.Payload),
		Labels:      msg.LabelIDs,
	}
}

// header extracts a header value by name, case-insensitively.
func header(headers []rawHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// parseAddress splits a 'Name <email@example.com>' header into name and
// address. A bare address is used for both.
func parseAddress(from string) (name, email string) {
	if from == "" {
		return "Unknown", "unknown@example.com"
	}

	open := strings.Index(from, "<")
	end := strings.Index(from, ">")
	if open >= 0 && end > open {
		name = strings.Trim(strings.TrimSpace(from[:open]), `"`)
		email = strings.TrimSpace(from[open+1 : end])
		if name == "" {
			name = email
		}
		return name, email
	}
	return from, from
}

// extractBody pulls plain text out of a message payload, preferring
// text/plain parts and falling back to sanitized text/html. Multipart
// payloads are traversed recursively.
func extractBody(p *rawPayload) string {
	if body := bodyOf(p); body != "" {
		return body
	}
	return "(No content)"
}

func bodyOf(p *rawPayload) string {
	if p.Body.Data != "" && len(p.Parts) == 0 {
		text := decodeBody(p.Body.Data)
		if strings.EqualFold(p.MimeType, "text/html") {
			return htmlToText(text)
		}
		return text
	}

	// Prefer a text/plain part over html
	for _, part := range p.Parts {
		if strings.EqualFold(part.MimeType, "text/plain") && part.Body.Data != "" {
			return decodeBody(part.Body.Data)
		}
	}
	for _, part := range p.Parts {
		if strings.EqualFold(part.MimeType, "text/html") && part.Body.Data != "" {
			return htmlToText(decodeBody(part.Body.Data))
		}
	}

	// Nested multiparts
	for i := range p.Parts {
		if len(p.Parts[i].Parts) > 0 {
			if body := bodyOf(&p.Parts[i]); body != "" {
				return body
			}
		}
	}

	return ""
}

// decodeBody decodes Gmail's base64url body data, tolerating missing padding.
func decodeBody(data string) string {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return ""
		}
	}
	return string(decoded)
}

// htmlToText converts an HTML body to readable plain text: breaks are kept
// as newlines, every other tag is stripped, entities are unescaped.
func htmlToText(htmlBody string) string {
	replaced := strings.NewReplacer(
		"<br>", "\n", "<br/>", "\n", "<br />", "\n",
		"</p>", "\n", "</div>", "\n",
	).Replace(htmlBody)

	text := stripPolicy.Sanitize(replaced)
	return strings.TrimSpace(html.UnescapeString(text))
}
