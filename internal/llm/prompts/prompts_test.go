package prompts

import (
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"shorter than max", "hello", 10, "hello"},
		{"exactly max", "hello", 5, "hello"},
		{"clipped", "hello world", 5, "hello"},
		{"empty", "", 5, ""},
		{"zero max", "hello", 0, ""},
		{"multibyte runes", "héllo wörld", 7, "héllo w"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestSystemScreener(t *testing.T) {
	prompt := SystemScreener()
	for _, want := range []string{"HR technical screener", "easy/medium/hard", "ideal_answer", "JSON array only"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("screener prompt should contain %q", want)
		}
	}
}

func TestUserScreenerClipsInputs(t *testing.T) {
	longDoc := strings.Repeat("x", DocMaxLen+500)
	longTickets := strings.Repeat("t", TicketBlockMaxLen+500)

	prompt := UserScreener(longDoc, longDoc, longTickets)

	if strings.Contains(prompt, strings.Repeat("x", DocMaxLen+1)) {
		t.Error("job description not clipped to DocMaxLen")
	}
	if strings.Contains(prompt, strings.Repeat("t", TicketBlockMaxLen+1)) {
		t.Error("ticket block not clipped to TicketBlockMaxLen")
	}
	if !strings.Contains(prompt, "JD:") || !strings.Contains(prompt, "Resume:") {
		t.Error("prompt should label both documents")
	}
}

func TestSystemEvaluator(t *testing.T) {
	t.Run("default threshold", func(t *testing.T) {
		prompt := SystemEvaluator(0)
		if !strings.Contains(prompt, "score < 9/15") {
			t.Error("expected default threshold 9/15 in prompt")
		}
	})

	t.Run("configured threshold", func(t *testing.T) {
		prompt := SystemEvaluator(12)
		if !strings.Contains(prompt, "score < 12/15") {
			t.Error("expected threshold 12/15 in prompt")
		}
	})

	prompt := SystemEvaluator(9)
	for _, want := range []string{"coverage", "correctness", "clarity", "strict HR evaluator"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("evaluator prompt should contain %q", want)
		}
	}
}

func TestUserEvaluator(t *testing.T) {
	prompt := UserEvaluator("Q?", "ideal", "candidate text")
	if !strings.Contains(prompt, "Question: Q?") {
		t.Error("prompt should contain question")
	}
	if !strings.Contains(prompt, "Ideal Answer: ideal") {
		t.Error("prompt should contain ideal answer")
	}
	if !strings.Contains(prompt, "Candidate Answer: candidate text") {
		t.Error("prompt should contain candidate answer")
	}
}
