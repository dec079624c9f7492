package llm

import "context"

// Chat binds a Client to a fixed chat model, giving the answer pipeline a
// model-free generation surface.
type Chat struct {
	client *Client
	model  string
}

// NewChat creates a generation adapter for the given model. An empty model
// falls back to the client default.
func NewChat(client *Client, model string) *Chat {
	return &Chat{client: client, model: model}
}

// Complete returns a full reply in one call.
func (c *Chat) Complete(ctx context.Context, system, user string) (string, error) {
	return c.client.Complete(ctx, c.model, system, user)
}

// Stream forwards reply deltas to emit as they are generated.
func (c *Chat) Stream(ctx context.Context, prompt string, emit func(chunk string) error) error {
	return c.client.Stream(ctx, c.model, "", prompt, emit)
}
