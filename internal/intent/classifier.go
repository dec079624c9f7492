// Package intent labels incoming queries so the pipeline can avoid spending
// retrieval and generation cost on non-substantive turns.
package intent

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"legalrag-ai/internal/contextutil"
)

// Intent is the classification label for a user query.
type Intent string

const (
	IntentGreeting      Intent = "greeting"
	IntentLegalQuestion Intent = "legal_question"
	IntentSmalltalk     Intent = "smalltalk"
	IntentNonLegal      Intent = "non_legal"
	IntentOther         Intent = "other"
)

// Result is the outcome of classifying a query.
type Result struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// DefaultResult is the fail-open fallback: when classification cannot be
// completed, the query is treated as a substantive legal question so the
// pipeline never stalls on a classifier outage.
var DefaultResult = Result{Intent: IntentLegalQuestion, Confidence: 0}

// CompletionClient is the language-model call the classifier depends on.
type CompletionClient interface {
	Complete(ctx context.Context, model, system, user string) (string, error)
}

const systemPrompt = `You classify a single user message sent to a legal information assistant.
Respond with exactly one JSON object and no surrounding prose:
{"intent": "<label>", "confidence": <number between 0 and 1>}
Labels:
- "greeting": a greeting or opening pleasantry
- "smalltalk": casual chatter with no information need
- "legal_question": a substantive question about law, rights, contracts, disputes or procedures
- "non_legal": a substantive question outside the legal domain
- "other": anything else`

// jsonObjectPattern extracts the first {...} span from a reply that wraps the
// JSON object in explanatory prose.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// Classifier labels queries with a language model.
type Classifier struct {
	client CompletionClient
	model  string
}

// NewClassifier creates an intent classifier using the given model.
func NewClassifier(client CompletionClient, model string) *Classifier {
	return &Classifier{client: client, model: model}
}

// Classify labels the query. It never fails: on classifier-call failure or an
// unparseable reply it returns DefaultResult, so classification is never a
// hard dependency of the pipeline.
func (c *Classifier) Classify(ctx context.Context, query string) Result {
	logger := contextutil.LoggerFromContext(ctx)

	raw, err := c.client.Complete(ctx, c.model, systemPrompt, query)
	if err != nil {
		logger.WarnContext(ctx, "intent classification call failed, using default", "error", err)
		return DefaultResult
	}

	result, ok := parseResult(raw)
	if !ok {
		logger.WarnContext(ctx, "unparseable intent classification reply, using default", "reply_length", len(raw))
		return DefaultResult
	}

	logger.InfoContext(ctx, "query classified", "intent", result.Intent, "confidence", result.Confidence)
	return result
}

// parseResult decodes the classifier reply. First a direct JSON parse, then a
// parse of the first {...} substring for models that wrap the object in
// explanatory text.
func parseResult(raw string) (Result, bool) {
	raw = strings.TrimSpace(raw)

	if result, ok := decodeResult(raw); ok {
		return result, true
	}
	if match := jsonObjectPattern.FindString(raw); match != "" {
		if result, ok := decodeResult(match); ok {
			return result, true
		}
	}
	return Result{}, false
}

func decodeResult(s string) (Result, bool) {
	var result Result
	if err := json.Unmarshal([]byte(s), &result); err != nil {
		return Result{}, false
	}
	if result.Intent == "" {
		return Result{}, false
	}
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}
	return result, true
}
