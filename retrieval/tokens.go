package retrieval

import (
	"log/slog"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter measures text against the assembly budget. The budget is
// approximate by nature; any consistent measure works as long as the
// same counter is used for the whole assembly.
type TokenCounter interface {
	Count(text string) int
}

// tiktokenCounter counts with a real BPE encoding.
type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (c *tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// heuristicCounter approximates tokens as runes/4, the usual rule of
// thumb for English prose. Used when the encoding cannot be loaded.
type heuristicCounter struct{}

func (heuristicCounter) Count(text string) int {
	runes := len([]rune(text))
	if runes == 0 {
		return 0
	}
	return (runes + 3) / 4
}

// newTokenCounter loads the named tiktoken encoding, falling back to the
// rune heuristic when the encoding is unavailable (offline hosts).
func newTokenCounter(encoding string, logger *slog.Logger) TokenCounter {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		logger.Warn("tiktoken encoding unavailable, using rune heuristic",
			"encoding", encoding, "err", err)
		return heuristicCounter{}
	}
	return &tiktokenCounter{enc: enc}
}
