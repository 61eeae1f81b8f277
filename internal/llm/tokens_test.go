package llm

import (
	"strconv"
	"strings"
	"testing"
)

// wordEncoder counts one token per whitespace-separated word.
type wordEncoder struct{ words []string }

func (e *wordEncoder) Encode(text string, _, _ []string) []int {
	fields := strings.Fields(text)
	out := make([]int, len(fields))
	for i, f := range fields {
		out[i] = len(e.words)
		e.words = append(e.words, f)
	}
	return out
}

func (e *wordEncoder) Decode(tokens []int) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = e.words[tok]
	}
	return strings.Join(parts, " ")
}

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "w" + strconv.Itoa(i)
	}
	return strings.Join(parts, " ")
}

func TestTokenBudgetDisabledKeepsMessages(t *testing.T) {
	b := NewTokenBudget("gpt-4o-mini", 0)
	in := []Message{{Role: "system", Content: "s"}, {Role: "user", Content: "u"}}
	out := b.Trim(in)
	if len(out) != 2 {
		t.Fatalf("expected messages untouched, got %d", len(out))
	}
	if b.Count(in) != 0 {
		t.Fatal("expected zero count without an encoder")
	}
}

func TestTokenBudgetDropsOldestTurns(t *testing.T) {
	b := &TokenBudget{limit: 30, enc: &wordEncoder{}}
	in := []Message{
		{Role: "system", Content: words(5)},
		{Role: "user", Content: words(6)},
		{Role: "assistant", Content: words(6)},
		{Role: "user", Content: words(3)},
		{Role: "assistant", Content: words(3)},
		{Role: "user", Content: words(4)},
	}
	out := b.Trim(in)

	// after two turns go the prompt is still 9+7+7+8 = 31, so a third goes too
	if len(out) != 3 {
		t.Fatalf("expected 3 messages, got %d: %+v", len(out), out)
	}
	if out[0].Role != "system" || out[1].Content != words(3) || out[2].Content != words(4) {
		t.Fatalf("unexpected trimmed prompt %+v", out)
	}
	if b.Count(out) > 30 {
		t.Fatalf("trimmed prompt still over budget: %d", b.Count(out))
	}
	if len(in) != 6 {
		t.Fatal("input slice was modified")
	}
}

func TestTokenBudgetTruncatesNewestMessage(t *testing.T) {
	b := &TokenBudget{limit: 20, enc: &wordEncoder{}}
	in := []Message{
		{Role: "system", Content: words(4)},
		{Role: "user", Content: words(30)},
	}
	out := b.Trim(in)

	if len(out) != 2 {
		t.Fatalf("expected both messages kept, got %d", len(out))
	}
	// 20 - (4+4) - 4 overhead leaves 8 words of the question
	if out[1].Content != words(8) {
		t.Fatalf("unexpected truncation %q", out[1].Content)
	}
	if in[1].Content != words(30) {
		t.Fatal("input message was modified")
	}
}
