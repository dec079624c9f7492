// Package tokens provides a deterministic approximate token counter used to
// enforce the context budget. It intentionally does not call a tokenizer
// service: the count only has to be stable and conservative, not exact.
package tokens

import (
	"strings"
	"unicode/utf8"
)

// runesPerToken approximates the average length of a model token. The value
// matches the common 4-characters-per-token rule of thumb for GPT-family
// tokenizers.
const runesPerToken = 4

// Count returns the approximate token count of s. Each whitespace-delimited
// field contributes at least one token, longer fields contribute one token
// per four runes, rounded up. Count returns 0 only for blank input.
func Count(s string) int {
	total := 0
	for _, field := range strings.Fields(s) {
		n := utf8.RuneCountInString(field)
		total += (n + runesPerToken - 1) / runesPerToken
	}
	return total
}
