package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gshashi/mailpilot/internal/llm"
	"github.com/gshashi/mailpilot/internal/metrics"
	"github.com/gshashi/mailpilot/internal/models"
)

// Fallback texts for unparseable or failed interpretations.
const (
	rephraseText = "I could not understand that, please rephrase."
	helpText     = "I can read, search, delete, send and summarize your emails. " +
		"Try something like \"show me my last 5 emails\" or \"find emails about invoices\"."
)

// parseFallbackConfidence is the confidence assigned when the oracle replied
// but no usable payload could be extracted.
const parseFallbackConfidence = 0.3

// Parser turns an utterance plus conversation context into a typed Intent.
// It never returns an error: every failure degrades into a low-confidence
// chat intent so the pipeline always has something to dispatch.
type Parser struct {
	oracle    llm.Oracle
	window    int
	collector *metrics.Collector
	logger    *slog.Logger
}

// NewParser creates an intent parser with the given history window.
func NewParser(oracle llm.Oracle, window int, collector *metrics.Collector, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &Parser{oracle: oracle, window: window, collector: collector, logger: logger}
}

// oraclePayload is the structured object the oracle is asked to return,
// embedded somewhere in its free-text response.
type oraclePayload struct {
	Action       string       `json:"action"`
	Parameters   oracleParams `json:"parameters"`
	Confidence   float64      `json:"confidence"`
	ResponseText string       `json:"response_text"`
}

// oracleParams tolerates the loose typing of model output: counts may come
// back as numbers or quoted strings.
type oracleParams struct {
	Count    flexInt `json:"count"`
	Query    string  `json:"query"`
	EmailID  string  `json:"email_id"`
	Position flexInt `json:"position"`
	To       string  `json:"to"`
	Subject  string  `json:"subject"`
	Body     string  `json:"body"`
}

// flexInt unmarshals from a JSON number or a numeric string.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Unparseable counts degrade to "not provided" rather than failing
		// the whole payload.
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

// Parse interprets an utterance. history holds the most recent turns oldest
// first; contextEmails are the messages last shown to the user, used to
// ground references like ordinals or sender names to concrete email ids.
func (p *Parser) Parse(ctx context.Context, utterance string, history []models.Turn, contextEmails []models.Email) models.Intent {
	start := time.Now()
	defer func() {
		if p.collector != nil {
			p.collector.RecordTiming(metrics.OpIntentParse, time.Since(start))
		}
	}()

	prompt := p.buildPrompt(utterance, history, contextEmails)

	oracleStart := time.Now()
	raw, err := p.oracle.Complete(ctx, prompt)
	if p.collector != nil {
		p.collector.RecordTiming(metrics.OpOracleComplete, time.Since(oracleStart))
	}
	if err != nil {
		// Oracle unreachable is recovered locally, never surfaced as a hard
		// failure to the caller.
		p.logger.Warn("oracle call failed, falling back to chat intent", "error", err)
		return models.Intent{Kind: models.IntentChat, Confidence: 0.0, Response: helpText}
	}

	var payload oraclePayload
	if err := llm.ExtractObject(raw, &payload); err != nil {
		p.logger.Warn("no usable payload in oracle output", "error", err, "output_len", len(raw))
		return models.Intent{Kind: models.IntentChat, Confidence: parseFallbackConfidence, Response: rephraseText}
	}

	return p.toIntent(payload, contextEmails)
}

// toIntent converts the untyped oracle payload into a typed Intent. This is
// the untyped-to-typed boundary: anything that does not fit becomes a chat
// fallback or a zero-valued parameter the dispatcher will challenge.
func (p *Parser) toIntent(payload oraclePayload, contextEmails []models.Email) models.Intent {
	kind := models.IntentKind(strings.ToLower(strings.TrimSpace(payload.Action)))
	if !kind.Valid() {
		p.logger.Warn("oracle returned unknown action", "action", payload.Action)
		return models.Intent{Kind: models.IntentChat, Confidence: parseFallbackConfidence, Response: rephraseText}
	}

	confidence := payload.Confidence
	if confidence < 0 || confidence > 1 {
		p.logger.Warn("oracle confidence out of range, clamping", "confidence", confidence)
		confidence = clamp01(confidence)
	}

	intent := models.Intent{
		Kind:       kind,
		Confidence: confidence,
		Response:   payload.ResponseText,
	}

	switch kind {
	case models.IntentRead:
		intent.Read = &models.ReadParams{Count: int(payload.Parameters.Count)}
	case models.IntentSearch:
		intent.Search = &models.SearchParams{Query: strings.TrimSpace(payload.Parameters.Query)}
	case models.IntentDelete:
		id := strings.TrimSpace(payload.Parameters.EmailID)
		if id == "" {
			// The oracle may answer with an ordinal instead of an id; resolve
			// it against the messages last shown to the user.
			if pos := int(payload.Parameters.Position); pos >= 1 && pos <= len(contextEmails) {
				id = contextEmails[pos-1].ID
			}
		}
		intent.Delete = &models.DeleteParams{EmailID: id}
	case models.IntentSend:
		intent.Send = &models.SendParams{
			To:      strings.TrimSpace(payload.Parameters.To),
			Subject: strings.TrimSpace(payload.Parameters.Subject),
			Body:    payload.Parameters.Body,
		}
	case models.IntentSummarize:
		intent.Summarize = &models.SummarizeParams{Count: int(payload.Parameters.Count)}
	}

	return intent
}

// buildPrompt assembles the single oracle prompt: instruction, recent
// context messages, recent history, then the utterance.
func (p *Parser) buildPrompt(utterance string, history []models.Turn, contextEmails []models.Email) string {
	var sb strings.Builder

	sb.WriteString(`You are an email assistant command parser. Classify the user's message into exactly one action and extract its parameters.

Actions and their parameter keys:
- "read": show recent emails. Parameters: count (number, optional, default 5).
- "search": find emails. Parameters: query (string, required).
- "delete": move one email to trash. Parameters: email_id (string) or position (1-based number referring to the recent emails list).
- "send": send an email. Parameters: to (string), subject (string, optional), body (string). Never invent message content the user did not provide.
- "summarize": summarize recent emails. Parameters: count (number, optional, default 10).
- "chat": anything else; respond conversationally.

Reply with a single JSON object and nothing else:
{"action": "...", "parameters": {...}, "confidence": 0.0-1.0, "response_text": "short reply to show the user"}

`)

	if len(contextEmails) > 0 {
		sb.WriteString("Recent emails shown to the user (use these to resolve references like \"the first one\" or a sender name to an email_id):\n")
		for i, e := range contextEmails {
			fmt.Fprintf(&sb, "%d. id=%s from=%s <%s> subject=%q\n", i+1, e.ID, e.SenderName, e.SenderEmail, e.Subject)
		}
		sb.WriteString("\n")
	}

	if len(history) > 0 {
		turns := history
		if len(turns) > p.window {
			turns = turns[len(turns)-p.window:]
		}
		sb.WriteString("Conversation so far:\n")
		for _, t := range turns {
			fmt.Fprintf(&sb, "%s: %s\n", t.Role, t.Content)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "User message: %s\n", utterance)

	return sb.String()
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
