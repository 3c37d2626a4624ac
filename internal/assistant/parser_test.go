package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gshashi/mailpilot/internal/models"
)

func TestParseReadIntent(t *testing.T) {
	oracle := &fakeOracle{response: `{"action":"read","parameters":{"count":10},"confidence":0.9,"response_text":"Here you go"}`}
	p := NewParser(oracle, 5, nil, nil)

	intent := p.Parse(context.Background(), "show me my last 10 emails", nil, nil)

	if intent.Kind != models.IntentRead {
		t.Fatalf("kind = %s, want read", intent.Kind)
	}
	if intent.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", intent.Confidence)
	}
	if intent.Read == nil || intent.Read.Count != 10 {
		t.Errorf("read params = %+v, want count 10", intent.Read)
	}
}

func TestParseToleratesLooseOracleOutput(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantKind models.IntentKind
	}{
		{
			name:     "payload wrapped in prose",
			response: `Sure! {"action":"search","parameters":{"query":"invoices"},"confidence":0.8} Hope that helps.`,
			wantKind: models.IntentSearch,
		},
		{
			name:     "count as string",
			response: `{"action":"read","parameters":{"count":"3"},"confidence":0.9}`,
			wantKind: models.IntentRead,
		},
		{
			name:     "markdown fenced",
			response: "```json\n{\"action\":\"summarize\",\"parameters\":{},\"confidence\":0.85}\n```",
			wantKind: models.IntentSummarize,
		},
		{
			name:     "uppercase action",
			response: `{"action":"SEARCH","parameters":{"query":"x"},"confidence":0.8}`,
			wantKind: models.IntentSearch,
		},
	}

	p := NewParser(nil, 5, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := &fakeOracle{response: tt.response}
			p.oracle = oracle

			intent := p.Parse(context.Background(), "whatever", nil, nil)
			if intent.Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", intent.Kind, tt.wantKind)
			}
		})
	}
}

func TestParseOracleFailureFallsBackToChat(t *testing.T) {
	oracle := &fakeOracle{err: errors.New("connection refused")}
	p := NewParser(oracle, 5, nil, nil)

	intent := p.Parse(context.Background(), "show my emails", nil, nil)

	if intent.Kind != models.IntentChat {
		t.Fatalf("kind = %s, want chat", intent.Kind)
	}
	if intent.Confidence != 0.0 {
		t.Errorf("confidence = %v, want 0.0", intent.Confidence)
	}
	if intent.Response != helpText {
		t.Errorf("response = %q, want help text", intent.Response)
	}
}

func TestParseUnusableOutputFallsBackToChat(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"no json at all", "I'm sorry, I don't understand."},
		{"unknown action", `{"action":"archive","parameters":{},"confidence":0.9}`},
		{"truncated json", `{"action":"read","parameters":{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := &fakeOracle{response: tt.response}
			p := NewParser(oracle, 5, nil, nil)

			intent := p.Parse(context.Background(), "do something", nil, nil)

			if intent.Kind != models.IntentChat {
				t.Fatalf("kind = %s, want chat", intent.Kind)
			}
			if intent.Confidence != parseFallbackConfidence {
				t.Errorf("confidence = %v, want %v", intent.Confidence, parseFallbackConfidence)
			}
			if intent.Response != rephraseText {
				t.Errorf("response = %q, want rephrase text", intent.Response)
			}
		})
	}
}

func TestParseClampsOutOfRangeConfidence(t *testing.T) {
	oracle := &fakeOracle{response: `{"action":"read","parameters":{},"confidence":1.7}`}
	p := NewParser(oracle, 5, nil, nil)

	intent := p.Parse(context.Background(), "show emails", nil, nil)

	if intent.Confidence != 1.0 {
		t.Errorf("confidence = %v, want clamped to 1.0", intent.Confidence)
	}
}

func TestParseResolvesOrdinalDelete(t *testing.T) {
	oracle := &fakeOracle{response: `{"action":"delete","parameters":{"position":2},"confidence":0.9}`}
	p := NewParser(oracle, 5, nil, nil)

	contextEmails := sampleEmails(3)
	intent := p.Parse(context.Background(), "delete the second one", nil, contextEmails)

	if intent.Kind != models.IntentDelete {
		t.Fatalf("kind = %s, want delete", intent.Kind)
	}
	if intent.Delete == nil || intent.Delete.EmailID != "msg2" {
		t.Errorf("delete params = %+v, want email id msg2", intent.Delete)
	}
}

func TestParseOrdinalOutOfRangeLeavesIDEmpty(t *testing.T) {
	oracle := &fakeOracle{response: `{"action":"delete","parameters":{"position":7},"confidence":0.9}`}
	p := NewParser(oracle, 5, nil, nil)

	intent := p.Parse(context.Background(), "delete the seventh one", nil, sampleEmails(3))

	if intent.Delete == nil || intent.Delete.EmailID != "" {
		t.Errorf("delete params = %+v, want empty email id", intent.Delete)
	}
}

func TestBuildPromptIncludesContextAndWindowedHistory(t *testing.T) {
	p := NewParser(nil, 2, nil, nil)

	history := []models.Turn{
		{Role: models.RoleUser, Content: "oldest message"},
		{Role: models.RoleUser, Content: "middle message"},
		{Role: models.RoleAssistant, Content: "latest reply"},
	}
	prompt := p.buildPrompt("delete the first one", history, sampleEmails(2))

	if !strings.Contains(prompt, "1. id=msg1") {
		t.Errorf("prompt missing numbered context emails:\n%s", prompt)
	}
	if !strings.Contains(prompt, "latest reply") {
		t.Errorf("prompt missing recent history")
	}
	if strings.Contains(prompt, "oldest message") {
		t.Errorf("prompt should only include the last 2 turns")
	}
	if !strings.Contains(prompt, "User message: delete the first one") {
		t.Errorf("prompt missing utterance")
	}
}
