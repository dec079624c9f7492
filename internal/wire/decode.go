package wire

import (
	"encoding/json"
	"fmt"
	"strings"

	"legalrag-ai/internal/rag"
)

// Decoded is the client-side view of a fully reassembled response.
type Decoded struct {
	// Sources are the citations recovered from the preamble.
	Sources []rag.UsedPassage
	// Query and Timestamp echo the preamble payload.
	Query     string
	Timestamp string
	// Prose is the answer text with all structural comments stripped.
	Prose string
	// SourceCount is the count stated by the trailer.
	SourceCount int
	// PreambleSeen and TrailerSeen report whether each marker arrived.
	PreambleSeen bool
	TrailerSeen  bool
	// StreamError carries the in-band error marker message, if any.
	StreamError string
}

const commentOpen = "<!--"

// Decoder incrementally reassembles a streamed response body. Chunks may
// split a structural comment at any byte offset; the decoder buffers until a
// complete comment is observed before stripping it, so feeding a body in
// arbitrary pieces yields the same result as feeding it whole.
type Decoder struct {
	pending         string
	prose           strings.Builder
	decoded         Decoded
	skipNextNewline bool
}

// NewDecoder creates an empty decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed consumes the next chunk of the response body.
func (d *Decoder) Feed(chunk string) {
	d.pending += chunk

	for {
		start := strings.Index(d.pending, commentOpen)
		if start < 0 {
			// No comment opener: emit everything except a trailing partial
			// opener that the next chunk might complete.
			hold := partialOpenerLen(d.pending)
			d.emitProse(d.pending[:len(d.pending)-hold])
			d.pending = d.pending[len(d.pending)-hold:]
			return
		}

		d.emitProse(d.pending[:start])
		d.pending = d.pending[start:]

		end := strings.Index(d.pending, "-->")
		if end < 0 {
			// Comment opened but not yet closed; wait for more input.
			return
		}

		comment := d.pending[:end+3]
		d.pending = d.pending[end+3:]
		d.handleComment(comment)
	}
}

// Result finalizes decoding: any unterminated trailing data is prose, and the
// separators the encoder placed around the trailer and error marker are
// stripped so Prose is the exact body the producer streamed.
func (d *Decoder) Result() Decoded {
	d.emitProse(d.pending)
	d.pending = ""

	result := d.decoded
	result.Prose = d.prose.String()
	if result.TrailerSeen {
		result.Prose = strings.TrimSuffix(result.Prose, trailerSeparator)
	}
	if result.StreamError != "" {
		result.Prose = strings.TrimSuffix(result.Prose, "\n")
	}
	if result.Sources == nil {
		result.Sources = []rag.UsedPassage{}
	}
	return result
}

// handleComment strips a complete structural comment, or passes it through as
// prose when it is not one of the protocol's marker forms.
func (d *Decoder) handleComment(comment string) {
	switch {
	case strings.HasPrefix(comment, citationsPrefix):
		payload := strings.TrimSuffix(strings.TrimPrefix(comment, citationsPrefix), commentClose)
		var preamble Preamble
		if err := json.Unmarshal([]byte(payload), &preamble); err != nil {
			// Malformed preamble payloads fall through as prose.
			d.emitProse(comment)
			return
		}
		d.decoded.Sources = preamble.Sources
		d.decoded.Query = preamble.Query
		d.decoded.Timestamp = preamble.Timestamp
		d.decoded.PreambleSeen = true
		// The encoder terminates the preamble line with one newline that is
		// not part of the prose.
		d.skipNextNewline = true

	case strings.HasPrefix(comment, endCitationsPrefix):
		payload := strings.TrimSuffix(strings.TrimPrefix(comment, endCitationsPrefix), commentClose)
		var count int
		if _, err := fmt.Sscanf(payload, "%d sources used", &count); err != nil {
			d.emitProse(comment)
			return
		}
		d.decoded.SourceCount = count
		d.decoded.TrailerSeen = true

	case strings.HasPrefix(comment, streamErrorPrefix):
		d.decoded.StreamError = strings.TrimSuffix(strings.TrimPrefix(comment, streamErrorPrefix), commentClose)

	default:
		d.emitProse(comment)
	}
}

func (d *Decoder) emitProse(s string) {
	if s == "" {
		return
	}
	if d.skipNextNewline {
		d.skipNextNewline = false
		s = strings.TrimPrefix(s, "\n")
	}
	d.prose.WriteString(s)
}

// partialOpenerLen reports how many trailing bytes of s form a proper prefix
// of the comment opener, and therefore must be held back until more input
// decides whether they start a structural comment.
func partialOpenerLen(s string) int {
	max := len(commentOpen) - 1
	if len(s) < max {
		max = len(s)
	}
	for k := max; k > 0; k-- {
		if strings.HasSuffix(s, commentOpen[:k]) {
			return k
		}
	}
	return 0
}
