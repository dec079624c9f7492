// Package moderation blocks disallowed input before any other pipeline
// resource is spent.
package moderation

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"legalrag-ai/internal/apperr"
	"legalrag-ai/internal/contextutil"
)

// Client is the outbound content-safety call the gate depends on.
type Client interface {
	Moderate(ctx context.Context, model, input string) (openai.ModerationResponse, error)
}

// Gate checks user input against the content-safety classifier.
type Gate struct {
	client Client
	model  string
}

// NewGate creates a moderation gate using the given classifier model.
func NewGate(client Client, model string) *Gate {
	return &Gate{client: client, model: model}
}

// Check validates the normalized query. It returns a UserError carrying the
// flagged category names when the input is disallowed, an AppError when the
// classifier response violates its contract, and nil when the input may
// proceed. No side effects beyond the outbound call.
func (g *Gate) Check(ctx context.Context, query string) error {
	logger := contextutil.LoggerFromContext(ctx)

	resp, err := g.client.Moderate(ctx, g.model, query)
	if err != nil {
		return apperr.WrapApp(err, "moderation call failed")
	}
	if len(resp.Results) == 0 {
		return apperr.Appf("moderation response contained no results")
	}

	result := resp.Results[0]
	if !result.Flagged {
		return nil
	}

	categories := flaggedCategories(result.Categories)
	logger.WarnContext(ctx, "input flagged by moderation", "categories", categories)
	return &apperr.UserError{
		Message: "Your message was flagged by our content policy and cannot be processed.",
		Data:    map[string]any{"categories": categories},
	}
}

// flaggedCategories lists the names of categories the classifier flagged.
func flaggedCategories(c openai.ResultCategories) []string {
	categories := []string{}
	for _, entry := range []struct {
		name    string
		flagged bool
	}{
		{"hate", c.Hate},
		{"hate/threatening", c.HateThreatening},
		{"harassment", c.Harassment},
		{"harassment/threatening", c.HarassmentThreatening},
		{"self-harm", c.SelfHarm},
		{"self-harm/intent", c.SelfHarmIntent},
		{"self-harm/instructions", c.SelfHarmInstructions},
		{"sexual", c.Sexual},
		{"sexual/minors", c.SexualMinors},
		{"violence", c.Violence},
		{"violence/graphic", c.ViolenceGraphic},
	} {
		if entry.flagged {
			categories = append(categories, entry.name)
		}
	}
	return categories
}
