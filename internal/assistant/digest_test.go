package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestComposeEmptyBatch(t *testing.T) {
	d := NewDigestComposer(&fakeOracle{response: "should not be called"}, nil)

	got := d.Compose(context.Background(), nil)
	if got != emptyDigestText {
		t.Errorf("digest = %q, want fixed empty text", got)
	}
}

func TestComposeUsesOracle(t *testing.T) {
	oracle := &fakeOracle{response: "  A busy morning: two invoices and a meeting change.  "}
	d := NewDigestComposer(oracle, nil)

	got := d.Compose(context.Background(), sampleEmails(4))
	if got != "A busy morning: two invoices and a meeting change." {
		t.Errorf("digest = %q, want trimmed oracle output", got)
	}
	if len(oracle.prompts) != 1 {
		t.Fatalf("oracle called %d times, want 1", len(oracle.prompts))
	}
	if !strings.Contains(oracle.prompts[0], "Sender 1 | Subject 1") {
		t.Errorf("prompt missing email lines:\n%s", oracle.prompts[0])
	}
}

func TestComposeCapsBatchAtTen(t *testing.T) {
	oracle := &fakeOracle{response: "ok"}
	d := NewDigestComposer(oracle, nil)

	d.Compose(context.Background(), sampleEmails(25))

	if strings.Contains(oracle.prompts[0], "11. ") {
		t.Errorf("prompt covers more than ten messages:\n%s", oracle.prompts[0])
	}
}

func TestComposeFallback(t *testing.T) {
	tests := []struct {
		name   string
		oracle *fakeOracle
	}{
		{"oracle error", &fakeOracle{err: errors.New("timeout")}},
		{"blank output", &fakeOracle{response: "   \n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDigestComposer(tt.oracle, nil)

			got := d.Compose(context.Background(), sampleEmails(5))
			want := "You have 5 recent emails. Latest senders: Sender 1, Sender 2, Sender 3."
			if got != want {
				t.Errorf("digest = %q, want %q", got, want)
			}
		})
	}
}

func TestComposeNilOracle(t *testing.T) {
	d := NewDigestComposer(nil, nil)

	got := d.Compose(context.Background(), sampleEmails(2))
	want := "You have 2 recent emails. Latest senders: Sender 1, Sender 2."
	if got != want {
		t.Errorf("digest = %q, want %q", got, want)
	}
}
