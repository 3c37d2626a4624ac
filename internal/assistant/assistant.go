// Package assistant implements the command interpretation and action
// dispatch core: it turns a free-text utterance plus conversation history
// into a typed intent, decides whether confidence is sufficient to act,
// executes the matching mailbox operation, and records the exchange.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gshashi/mailpilot/internal/contextcache"
	"github.com/gshashi/mailpilot/internal/llm"
	"github.com/gshashi/mailpilot/internal/mailbox"
	"github.com/gshashi/mailpilot/internal/metrics"
	"github.com/gshashi/mailpilot/internal/models"
)

// utterance length bounds enforced at the core boundary.
const (
	minUtteranceLen = 1
	maxUtteranceLen = 1000
)

// ErrInvalidUtterance is returned when a request's utterance is outside the
// accepted length bounds. Callers should treat it as a bad request, not a
// pipeline failure.
var ErrInvalidUtterance = errors.New("invalid utterance")

// ConversationStore is the slice of the conversation store the assistant
// uses: read recent history, append new turns. Appending with an empty id
// creates the conversation and returns its id.
type ConversationStore interface {
	RecentTurns(ctx context.Context, id, owner string, limit int) ([]models.Turn, error)
	Append(ctx context.Context, id, owner string, turns ...models.Turn) (string, error)
}

// Request is one user-facing message into the assistant.
type Request struct {
	Utterance      string
	ConversationID string
	Owner          string
	Credential     string

	// RecentContext optionally carries the messages the caller last showed
	// the user, for resolving references like "the first one". When empty,
	// the assistant falls back to its own snapshot cache.
	RecentContext []models.Email
}

// Assistant wires the parser and dispatcher to their collaborators.
type Assistant struct {
	parser     *Parser
	dispatcher *Dispatcher
	dialer     mailbox.Dialer
	store      ConversationStore
	cache      *contextcache.Cache
	collector  *metrics.Collector
	logger     *slog.Logger
}

// Options tune the assistant's interpretation policy.
type Options struct {
	// ConfidenceThreshold is the minimum confidence at which a non-chat
	// intent is executed rather than answered with a clarification.
	ConfidenceThreshold float64

	// HistoryWindow is how many recent turns are fed back to the oracle.
	HistoryWindow int
}

// New creates an assistant. oracle and dialer are the external
// collaborators; store owns conversation persistence; cache may be nil.
func New(
	oracle llm.Oracle,
	dialer mailbox.Dialer,
	store ConversationStore,
	cache *contextcache.Cache,
	collector *metrics.Collector,
	logger *slog.Logger,
	opts Options,
) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	if opts.ConfidenceThreshold <= 0 {
		opts.ConfidenceThreshold = 0.5
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 5
	}

	parser := NewParser(oracle, opts.HistoryWindow, collector, logger)
	dispatcher := NewDispatcher(store, cache, oracle, opts.ConfidenceThreshold, collector, logger)

	return &Assistant{
		parser:     parser,
		dispatcher: dispatcher,
		dialer:     dialer,
		store:      store,
		cache:      cache,
		collector:  collector,
		logger:     logger,
	}
}

// HandleMessage runs one utterance through the full pipeline: parse,
// dispatch, record. The returned ActionResult always carries the (possibly
// newly created) conversation id.
//
// Interpretation and execution failures are absorbed into the ActionResult;
// the only error returned is a conversation store failure, which means
// neither the result nor the audit trail could be committed.
func (a *Assistant) HandleMessage(ctx context.Context, req Request) (models.ActionResult, error) {
	start := time.Now()
	defer func() {
		a.collector.RecordTiming(metrics.OpDispatch, time.Since(start))
	}()

	if len(req.Utterance) < minUtteranceLen || len(req.Utterance) > maxUtteranceLen {
		return models.ActionResult{}, fmt.Errorf("%w: length must be %d..%d characters", ErrInvalidUtterance, minUtteranceLen, maxUtteranceLen)
	}

	// Load history for referential context. A missing conversation is not
	// fatal here: the append later will surface real store problems.
	var history []models.Turn
	if req.ConversationID != "" {
		turns, err := a.store.RecentTurns(ctx, req.ConversationID, req.Owner, a.parser.window)
		if err != nil {
			a.logger.Warn("failed to load history", "conversation", req.ConversationID, "error", err)
		} else {
			history = turns
		}
	}

	// Caller-supplied context wins over our own snapshot.
	contextEmails := req.RecentContext
	if len(contextEmails) == 0 {
		contextEmails = a.cache.Get(ctx, req.ConversationID)
	}

	intent := a.parser.Parse(ctx, req.Utterance, history, contextEmails)

	svc := a.dialer.WithCredential(req.Credential)
	result, err := a.dispatcher.Dispatch(ctx, intent, req.Utterance, req.ConversationID, req.Owner, svc)
	if err != nil {
		return models.ActionResult{}, err
	}

	// Refresh the snapshot so the next utterance can refer to what was just
	// shown.
	if result.Data != nil && len(result.Data.Emails) > 0 {
		a.cache.Put(ctx, result.ConversationID, result.Data.Emails)
	}

	return result, nil
}

// SuggestReply drafts a reply for the given email id. See reply.go.
func (a *Assistant) SuggestReply(ctx context.Context, credential, emailID string) (*ReplyDraft, error) {
	return a.suggestReply(ctx, a.dialer.WithCredential(credential), emailID)
}

// ActionItems extracts concrete tasks from the given email. See actions.go.
func (a *Assistant) ActionItems(ctx context.Context, credential, emailID string) ([]string, error) {
	return a.actionItems(ctx, a.dialer.WithCredential(credential), emailID)
}

// Suggestions derives inbox suggestions from recent mail. See suggestions.go.
func (a *Assistant) Suggestions(ctx context.Context, credential string) ([]string, error) {
	return a.suggestions(ctx, a.dialer.WithCredential(credential))
}

// Categorize buckets the user's recent mail. count is clamped like any
// other listing count.
func (a *Assistant) Categorize(ctx context.Context, credential string, count int) (models.CategoryBuckets, error) {
	if count <= 0 {
		count = suggestionSample
	}
	svc := a.dialer.WithCredential(credential)

	emails, err := svc.ListRecent(ctx, clampCount(count))
	if err != nil {
		return nil, fmt.Errorf("list recent for categorization: %w", err)
	}

	categorizer := NewCategorizer(a.parser.oracle, a.logger)
	return categorizer.CategorizeWithOracle(ctx, emails), nil
}

// Digest summarizes the user's recent mail without going through intent
// parsing.
func (a *Assistant) Digest(ctx context.Context, credential string, count int) (string, error) {
	if count <= 0 {
		count = defaultSummarizeCount
	}
	svc := a.dialer.WithCredential(credential)

	emails, err := svc.ListRecent(ctx, clampCount(count))
	if err != nil {
		return "", fmt.Errorf("list recent for digest: %w", err)
	}

	return a.dispatcher.digest.Compose(ctx, emails), nil
}

// Stats exposes the assistant's runtime metrics.
func (a *Assistant) Stats() metrics.Snapshot {
	return a.collector.Snapshot()
}
