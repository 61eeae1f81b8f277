package llm

import (
	"github.com/pkoukk/tiktoken-go"

	"caresync/internal/logger"
)

// perMessageOverhead approximates the framing tokens the chat format adds
// around every message.
const perMessageOverhead = 4

// encoder is the part of *tiktoken.Tiktoken the budget needs.
type encoder interface {
	Encode(text string, allowedSpecial, disallowedSpecial []string) []int
	Decode(tokens []int) string
}

// TokenBudget trims prompts to a maximum token count.  A zero limit or an
// encoding that cannot be loaded disables trimming.
type TokenBudget struct {
	limit int
	enc   encoder
}

// NewTokenBudget resolves the encoding for model.  If the encoding cannot be
// loaded the budget is inert and a warning is logged.
func NewTokenBudget(model string, limit int) *TokenBudget {
	b := &TokenBudget{limit: limit}
	if limit <= 0 {
		return b
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
	}
	if err != nil {
		logger.L().Warn().Err(err).Str("model", model).Msg("token counting disabled")
		return b
	}
	b.enc = enc
	return b
}

// Count returns the approximate prompt size of messages.
func (b *TokenBudget) Count(messages []Message) int {
	if b == nil || b.enc == nil {
		return 0
	}
	n := 0
	for _, m := range messages {
		n += perMessageOverhead + len(b.enc.Encode(m.Content, nil, nil))
	}
	return n
}

// Trim drops the oldest non-system messages until the prompt fits.  If the
// system prompt and the newest message alone are still too long, the
// newest message is cut down to the tokens that fit.
func (b *TokenBudget) Trim(messages []Message) []Message {
	if b == nil || b.enc == nil || b.limit <= 0 || len(messages) == 0 {
		return messages
	}
	out := append([]Message(nil), messages...)
	for b.Count(out) > b.limit {
		idx := -1
		for i := 0; i < len(out)-1; i++ {
			if out[i].Role != "system" {
				idx = i
				break
			}
		}
		if idx < 0 {
			break
		}
		out = append(out[:idx], out[idx+1:]...)
	}

	over := b.Count(out) - b.limit
	last := &out[len(out)-1]
	if over <= 0 || last.Role == "system" {
		return out
	}
	tokens := b.enc.Encode(last.Content, nil, nil)
	keep := len(tokens) - over
	if keep < 0 {
		keep = 0
	}
	last.Content = b.enc.Decode(tokens[:keep])
	return out
}
