package format

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// tokenEncoding is the BPE table used for token estimates.
// https://github.com/pkoukk/tiktoken-go?tab=readme-ov-file#available-models
const tokenEncoding = "o200k_base"

// TokenCounter estimates token counts for conversation turns. The BPE
// encoding loads lazily on first use; when it cannot be loaded (no
// cached table, no network) counts fall back to a character heuristic
// so the view always shows something.
type TokenCounter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewTokenCounter returns a counter with no encoding loaded yet.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{}
}

// Count returns the estimated token count of text.
func (c *TokenCounter) Count(text string) int {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(tokenEncoding)
		if err == nil {
			c.enc = enc
		}
	})
	if c.enc == nil {
		return ApproxTokens(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// ApproxTokens estimates tokens as one per four characters, the usual
// rule of thumb for English text. Never returns 0 for non-empty input.
func ApproxTokens(text string) int {
	if text == "" {
		return 0
	}
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}
