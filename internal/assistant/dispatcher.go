package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gshashi/mailpilot/internal/contextcache"
	"github.com/gshashi/mailpilot/internal/llm"
	"github.com/gshashi/mailpilot/internal/mailbox"
	"github.com/gshashi/mailpilot/internal/metrics"
	"github.com/gshashi/mailpilot/internal/models"
)

// Parameter bounds for mailbox listings.
const (
	defaultReadCount      = 5
	defaultSummarizeCount = 10
	defaultSearchCount    = 10
	minCount              = 1
	maxCount              = 50
)

// Clarification texts. These are normal, successful results: asking is the
// action when confidence or parameters are insufficient.
const (
	clarifySearch    = "Please specify what to search for."
	clarifyDelete    = "Please specify which email you want to delete."
	clarifyRecipient = "Who should I send this email to? Please provide a recipient."
	clarifyBody      = "What should the email say? Please provide the message content."
)

// defaultSubject fills an omitted subject on send.
const defaultSubject = "(no subject)"

// Dispatcher maps a typed intent to exactly one mailbox or summarization
// operation. One dispatch is one transition: it always ends in a single
// terminal ActionResult and appends exactly two turns to the conversation.
type Dispatcher struct {
	store     ConversationStore
	cache     *contextcache.Cache
	digest    *DigestComposer
	threshold float64
	collector *metrics.Collector
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher. threshold is the minimum confidence
// for executing non-chat intents.
func NewDispatcher(
	store ConversationStore,
	cache *contextcache.Cache,
	oracle llm.Oracle,
	threshold float64,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &Dispatcher{
		store:     store,
		cache:     cache,
		digest:    NewDigestComposer(oracle, logger),
		threshold: threshold,
		collector: collector,
		logger:    logger,
	}
}

// Dispatch executes one intent and commits the exchange. The append of the
// user and assistant turns is the single commit point; it happens on every
// outcome, including failed actions, so the log reflects failures too. Only
// a store failure is returned as an error.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	intent models.Intent,
	utterance string,
	conversationID string,
	owner string,
	svc mailbox.Service,
) (models.ActionResult, error) {
	result, outcome := d.execute(ctx, intent, svc)

	if d.collector != nil {
		d.collector.RecordIntent(string(intent.Kind), outcome)
	}

	userTurn := models.Turn{Role: models.RoleUser, Content: utterance}
	assistantTurn := models.Turn{
		Role:     models.RoleAssistant,
		Content:  result.ResponseText,
		Action:   string(intent.Kind),
		Metadata: turnMetadata(intent, &result, outcome),
	}

	appendStart := time.Now()
	id, err := d.store.Append(ctx, conversationID, owner, userTurn, assistantTurn)
	if d.collector != nil {
		d.collector.RecordTiming(metrics.OpStoreAppend, time.Since(appendStart))
	}
	if err != nil {
		// Neither the result nor the audit trail could be committed. This is
		// the only failure class that escapes the core.
		return models.ActionResult{}, fmt.Errorf("commit conversation turns: %w", err)
	}

	result.ConversationID = id
	return result, nil
}

// execute maps the intent to its operation and builds the terminal result.
// It never returns an error: execution failures become user-facing text.
func (d *Dispatcher) execute(ctx context.Context, intent models.Intent, svc mailbox.Service) (models.ActionResult, string) {
	// Confidence gating takes precedence over parameter completeness.
	if intent.Kind != models.IntentChat && intent.Confidence < d.threshold {
		d.logger.Info("low-confidence intent, asking for clarification",
			"kind", intent.Kind, "confidence", intent.Confidence)
		return clarification(intent, lowConfidenceText(intent)), metrics.OutcomeClarification
	}

	switch intent.Kind {
	case models.IntentRead:
		return d.executeRead(ctx, intent, svc)
	case models.IntentSearch:
		return d.executeSearch(ctx, intent, svc)
	case models.IntentDelete:
		return d.executeDelete(ctx, intent, svc)
	case models.IntentSend:
		return d.executeSend(ctx, intent, svc)
	case models.IntentSummarize:
		return d.executeSummarize(ctx, intent, svc)
	default:
		return d.executeChat(intent)
	}
}

func (d *Dispatcher) executeRead(ctx context.Context, intent models.Intent, svc mailbox.Service) (models.ActionResult, string) {
	count := defaultReadCount
	if intent.Read != nil && intent.Read.Count != 0 {
		count = clampCount(intent.Read.Count)
	}

	emails, err := d.mailboxCall(ctx, func() ([]models.Email, error) {
		return svc.ListRecent(ctx, count)
	})
	if err != nil {
		d.logger.Error("list recent failed", "error", err)
		return failure(intent, "I couldn't fetch your emails right now. "+explain(err)), metrics.OutcomeError
	}

	text := fmt.Sprintf("Here are your %d most recent emails.", len(emails))
	if len(emails) == 0 {
		text = "Your inbox has no recent emails."
	}

	return success(intent, text, &models.ActionData{Emails: emails}), metrics.OutcomeExecuted
}

func (d *Dispatcher) executeSearch(ctx context.Context, intent models.Intent, svc mailbox.Service) (models.ActionResult, string) {
	if intent.Search == nil || intent.Search.Query == "" {
		return clarification(intent, clarifySearch), metrics.OutcomeClarification
	}
	query := intent.Search.Query

	emails, err := d.mailboxCall(ctx, func() ([]models.Email, error) {
		return svc.Search(ctx, query, defaultSearchCount)
	})
	if err != nil {
		d.logger.Error("search failed", "query", query, "error", err)
		return failure(intent, "The search didn't go through. "+explain(err)), metrics.OutcomeError
	}

	text := fmt.Sprintf("I found %d emails matching %q.", len(emails), query)
	if len(emails) == 0 {
		text = fmt.Sprintf("I couldn't find any emails matching %q.", query)
	}

	return success(intent, text, &models.ActionData{Emails: emails}), metrics.OutcomeExecuted
}

func (d *Dispatcher) executeDelete(ctx context.Context, intent models.Intent, svc mailbox.Service) (models.ActionResult, string) {
	if intent.Delete == nil || intent.Delete.EmailID == "" {
		return clarification(intent, clarifyDelete), metrics.OutcomeClarification
	}
	id := intent.Delete.EmailID

	// Mutations are attempted exactly once per dispatch; transient-error
	// retry is the mailbox service's concern.
	start := time.Now()
	err := svc.Trash(ctx, id)
	d.recordMailbox(time.Since(start))
	if err != nil {
		d.logger.Error("trash failed", "email_id", id, "error", err)
		return failure(intent, "I couldn't delete that email. "+explain(err)), metrics.OutcomeError
	}

	return success(intent, "Done, I've moved that email to the trash.", nil), metrics.OutcomeExecuted
}

func (d *Dispatcher) executeSend(ctx context.Context, intent models.Intent, svc mailbox.Service) (models.ActionResult, string) {
	params := intent.Send
	if params == nil {
		params = &models.SendParams{}
	}
	// Never invent message content: missing fields are asked for, with the
	// recipient challenged first.
	if params.To == "" {
		return clarification(intent, clarifyRecipient), metrics.OutcomeClarification
	}
	if params.Body == "" {
		return clarification(intent, clarifyBody), metrics.OutcomeClarification
	}

	subject := params.Subject
	if subject == "" {
		subject = defaultSubject
	}

	start := time.Now()
	receipt, err := svc.Send(ctx, params.To, subject, params.Body)
	d.recordMailbox(time.Since(start))
	if err != nil {
		d.logger.Error("send failed", "to", params.To, "error", err)
		return failure(intent, "The email could not be sent. "+explain(err)), metrics.OutcomeError
	}

	text := fmt.Sprintf("Email sent to %s.", params.To)
	return success(intent, text, &models.ActionData{Receipt: receipt}), metrics.OutcomeExecuted
}

func (d *Dispatcher) executeSummarize(ctx context.Context, intent models.Intent, svc mailbox.Service) (models.ActionResult, string) {
	count := defaultSummarizeCount
	if intent.Summarize != nil && intent.Summarize.Count != 0 {
		count = clampCount(intent.Summarize.Count)
	}

	emails, err := d.mailboxCall(ctx, func() ([]models.Email, error) {
		return svc.ListRecent(ctx, count)
	})
	if err != nil {
		d.logger.Error("list for digest failed", "error", err)
		return failure(intent, "I couldn't fetch your emails to summarize. "+explain(err)), metrics.OutcomeError
	}

	digest := d.digest.Compose(ctx, emails)
	for i := range emails {
		if emails[i].Summary == "" {
			emails[i].Summary = emails[i].Snippet
		}
	}
	return success(intent, digest, &models.ActionData{Emails: emails}), metrics.OutcomeExecuted
}

func (d *Dispatcher) executeChat(intent models.Intent) (models.ActionResult, string) {
	text := intent.Response
	if text == "" {
		text = helpText
	}
	return models.ActionResult{
		ResponseText: text,
		Kind:         models.IntentChat,
		Confidence:   intent.Confidence,
	}, metrics.OutcomeExecuted
}

// mailboxCall wraps a listing call with timing.
func (d *Dispatcher) mailboxCall(ctx context.Context, fn func() ([]models.Email, error)) ([]models.Email, error) {
	start := time.Now()
	emails, err := fn()
	d.recordMailbox(time.Since(start))
	return emails, err
}

func (d *Dispatcher) recordMailbox(duration time.Duration) {
	if d.collector != nil {
		d.collector.RecordTiming(metrics.OpMailboxCall, duration)
	}
}

// explain turns a mailbox error into user terms.
func explain(err error) string {
	switch {
	case errors.Is(err, mailbox.ErrNotFound):
		return "That email doesn't seem to exist anymore."
	case errors.Is(err, mailbox.ErrPermission):
		return "Your mailbox access has expired, please sign in again."
	default:
		return "Please try again in a moment."
	}
}

// lowConfidenceText phrases a clarification for a gated intent.
func lowConfidenceText(intent models.Intent) string {
	verb := map[models.IntentKind]string{
		models.IntentRead:      "show your emails",
		models.IntentSearch:    "search your emails",
		models.IntentDelete:    "delete an email",
		models.IntentSend:      "send an email",
		models.IntentSummarize: "summarize your inbox",
	}[intent.Kind]
	if verb == "" {
		verb = "do that"
	}
	return fmt.Sprintf("I think you want me to %s, but I'm not sure I understood correctly. Could you rephrase?", verb)
}

func clarification(intent models.Intent, text string) models.ActionResult {
	return models.ActionResult{
		ResponseText:  text,
		Kind:          intent.Kind,
		Confidence:    intent.Confidence,
		Clarification: true,
	}
}

func success(intent models.Intent, text string, data *models.ActionData) models.ActionResult {
	return models.ActionResult{
		ResponseText: text,
		Kind:         intent.Kind,
		Data:         data,
		Confidence:   intent.Confidence,
	}
}

func failure(intent models.Intent, text string) models.ActionResult {
	return models.ActionResult{
		ResponseText: text,
		Kind:         intent.Kind,
		Confidence:   intent.Confidence,
	}
}

// turnMetadata records what the assistant did for future grounding.
func turnMetadata(intent models.Intent, result *models.ActionResult, outcome string) map[string]string {
	meta := map[string]string{"outcome": outcome}

	switch {
	case intent.Delete != nil && intent.Delete.EmailID != "":
		meta["email_id"] = intent.Delete.EmailID
	case intent.Send != nil && intent.Send.To != "":
		meta["to"] = intent.Send.To
		if result.Data != nil && result.Data.Receipt != nil {
			meta["sent_id"] = result.Data.Receipt.ID
		}
	case result.Data != nil && len(result.Data.Emails) > 0:
		meta["emails"] = strconv.Itoa(len(result.Data.Emails))
	}

	return meta
}

func clampCount(n int) int {
	if n < minCount {
		return minCount
	}
	if n > maxCount {
		return maxCount
	}
	return n
}
