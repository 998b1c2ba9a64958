package output

import (
	"fmt"
	"unicode/utf8"
)

// Common context window budgets for clipping results returned to LLM clients.
const (
	Budget8K   = 8000
	Budget16K  = 16000
	Budget32K  = 32000
	Budget64K  = 64000
	Budget128K = 128000
)

// CharsPerToken is the approximate character-to-token ratio. Serialized
// trees are identifier- and punctuation-heavy, so 4 chars/token is a
// conservative estimate.
const CharsPerToken = 4.0

// EstimateTokens returns an approximate token count for the given text,
// using a character-based heuristic over Unicode code points.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := float64(utf8.RuneCountInString(text)) / CharsPerToken
	return int(tokens + 0.5)
}

// FormatTokenCount formats a token count for display.
// Counts >= 1000 are formatted as "X.Xk".
func FormatTokenCount(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("%d", tokens)
	}
	return fmt.Sprintf("%.1fk", float64(tokens)/1000)
}
