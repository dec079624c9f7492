// Package llm wraps the OpenAI-compatible chat, embeddings and moderation
// endpoints behind the narrow surface the pipeline needs.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"legalrag-ai/internal/apperr"
)

// Client is a thin wrapper over the OpenAI API client. A single instance is
// shared by all requests; it is read-only after construction.
type Client struct {
	api            *openai.Client
	chatModel      string
	embeddingModel string
}

// NewClient creates a new LLM client. baseURL may be empty to use the default
// OpenAI endpoint, or point at any OpenAI-compatible server.
func NewClient(apiKey, baseURL, chatModel, embeddingModel string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	return &Client{
		api:            openai.NewClientWithConfig(cfg),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
	}
}

// Complete sends a single chat completion request and returns the full reply.
// system may be empty, in which case only the user message is sent. model may
// be empty to use the client default.
func (c *Client) Complete(ctx context.Context, model, system, user string) (string, error) {
	if model == "" {
		model = c.chatModel
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: buildMessages(system, user),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// Stream sends a streaming chat completion request and invokes emit for each
// non-empty text delta, in order. It returns when the upstream stream
// completes, emit returns an error, or ctx is canceled.
func (c *Client) Stream(ctx context.Context, model, system, user string, emit func(chunk string) error) error {
	if model == "" {
		model = c.chatModel
	}

	stream, err := c.api.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: buildMessages(system, user),
		Stream:   true,
	})
	if err != nil {
		return fmt.Errorf("failed to open completion stream: %w", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("completion stream failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		chunk := resp.Choices[0].Delta.Content
		if chunk == "" {
			continue
		}
		if err := emit(chunk); err != nil {
			return err
		}
	}
}

// Embed returns the embedding vector for a single text. A response without
// vectors is an upstream contract violation.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.embeddingModel),
		Input: []string{text},
	})
	if err != nil {
		return nil, apperr.WrapApp(err, "embedding request failed")
	}
	if len(resp.Data) == 0 {
		return nil, apperr.Appf("embedding service returned zero vectors")
	}

	return resp.Data[0].Embedding, nil
}

// Moderate calls the content-safety classifier for a single input string.
func (c *Client) Moderate(ctx context.Context, model, input string) (openai.ModerationResponse, error) {
	return c.api.Moderations(ctx, openai.ModerationRequest{
		Model: model,
		Input: input,
	})
}

// buildMessages assembles the message list for a completion call.
func buildMessages(system, user string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: user,
	})
	return messages
}
