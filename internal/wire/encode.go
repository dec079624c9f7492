// Package wire implements the citation wire protocol: a plain-text response
// body carrying exactly one machine-readable citation preamble, the prose
// answer, and exactly one trailer, plus the streaming state machine that
// emits it and the client-side decoder that parses it back apart.
package wire

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"legalrag-ai/internal/rag"
)

// Structural markers. These byte sequences are part of the wire contract and
// must not change; clients pattern-match on them. The prose body must never
// contain them, which is enforced upstream by the prompt instructions rather
// than by escaping here.
const (
	citationsPrefix    = "<!-- CITATIONS: "
	endCitationsPrefix = "<!-- END_CITATIONS: "
	streamErrorPrefix  = "<!-- STREAM_ERROR: "
	commentClose       = " -->"

	// trailerSeparator sits between the prose body and the trailer comment.
	trailerSeparator = "\n\n"
)

// Preamble is the serialized object inside the citation preamble comment.
type Preamble struct {
	Type      string            `json:"type"`
	Sources   []rag.UsedPassage `json:"sources"`
	Query     string            `json:"query"`
	Timestamp string            `json:"timestamp"`
}

// EncodePreamble renders the citation preamble line, newline included.
// A nil source list encodes as an empty array, never null.
func EncodePreamble(sources []rag.UsedPassage, query string, issuedAt time.Time) (string, error) {
	if sources == nil {
		sources = []rag.UsedPassage{}
	}
	payload, err := json.Marshal(Preamble{
		Type:      "citations",
		Sources:   sources,
		Query:     query,
		Timestamp: issuedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode citation preamble: %w", err)
	}
	return citationsPrefix + string(payload) + commentClose + "\n", nil
}

// EncodeTrailer renders the trailer comment including the separator that
// precedes it. No trailing newline.
func EncodeTrailer(sourceCount int) string {
	return fmt.Sprintf("%s%s%d sources used%s", trailerSeparator, endCitationsPrefix, sourceCount, commentClose)
}

// EncodeErrorMarker renders the in-band error marker written when generation
// fails after response headers are already sent.
func EncodeErrorMarker(message string) string {
	// Keep the comment well formed no matter what the message contains.
	message = strings.ReplaceAll(message, "-->", "")
	return "\n" + streamErrorPrefix + message + commentClose
}
