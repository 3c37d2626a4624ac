package models

// IntentKind identifies the action class extracted from an utterance.
type IntentKind string

// Intent kinds understood by the dispatcher.
const (
	IntentRead      IntentKind = "read"
	IntentSearch    IntentKind = "search"
	IntentDelete    IntentKind = "delete"
	IntentSend      IntentKind = "send"
	IntentSummarize IntentKind = "summarize"
	IntentChat      IntentKind = "chat"
)

// Valid reports whether k is one of the known intent kinds.
func (k IntentKind) Valid() bool {
	switch k {
	case IntentRead, IntentSearch, IntentDelete, IntentSend, IntentSummarize, IntentChat:
		return true
	}
	return false
}

// Intent is the structured interpretation of a single utterance. It is
// produced fresh per utterance and never persisted directly; only its kind
// and outcome end up in the conversation log.
//
// Exactly one of the parameter fields matching Kind is set; the parser owns
// the untyped-to-typed boundary, so downstream code never sees raw maps.
type Intent struct {
	Kind       IntentKind `json:"kind"`
	Confidence float64    `json:"confidence"`

	// Response carries the oracle's conversational text: the chat reply for
	// chat intents, or a clarifying question when parsing fell back.
	Response string `json:"response,omitempty"`

	Read      *ReadParams      `json:"read,omitempty"`
	Search    *SearchParams    `json:"search,omitempty"`
	Delete    *DeleteParams    `json:"delete,omitempty"`
	Send      *SendParams      `json:"send,omitempty"`
	Summarize *SummarizeParams `json:"summarize,omitempty"`
}

// ReadParams parameterizes a "show me my emails" intent.
type ReadParams struct {
	Count int `json:"count"`
}

// SearchParams parameterizes a mailbox search intent.
type SearchParams struct {
	Query string `json:"query"`
}

// DeleteParams parameterizes a trash intent.
type DeleteParams struct {
	EmailID string `json:"email_id"`
}

// SendParams parameterizes a send intent. Subject may be empty; the
// dispatcher fills a default. To and Body are required for execution.
type SendParams struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SummarizeParams parameterizes a digest intent.
type SummarizeParams struct {
	Count int `json:"count"`
}

// ActionData carries the typed payload of a successful action.
type ActionData struct {
	Emails      []Email         `json:"emails,omitempty"`
	Receipt     *SendReceipt    `json:"receipt,omitempty"`
	Buckets     CategoryBuckets `json:"buckets,omitempty"`
	Suggestions []string        `json:"suggestions,omitempty"`
}

// ActionResult is the single terminal outcome of dispatching one intent:
// a success payload, a clarification request, or a user-facing error
// explanation. The dispatcher never returns more than one of these per call.
type ActionResult struct {
	ResponseText   string      `json:"response"`
	Kind           IntentKind  `json:"action,omitempty"`
	Data           *ActionData `json:"data,omitempty"`
	Confidence     float64     `json:"confidence,omitempty"`
	Clarification  bool        `json:"clarification,omitempty"`
	ConversationID string      `json:"conversation_id,omitempty"`
}
