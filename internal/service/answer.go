// Package service orchestrates the answer pipeline: moderation gate, intent
// classification, retrieval-backed prompt building and answer generation.
package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mocks.go -package=mocks legalrag-ai/internal/service ModerationGate,IntentClassifier,ContextBuilder,Generator,AnswerService

import (
	"context"
	"log/slog"
	"strings"

	"legalrag-ai/internal/apperr"
	"legalrag-ai/internal/config"
	"legalrag-ai/internal/intent"
	"legalrag-ai/internal/rag"
)

// ModerationGate blocks disallowed input before any other work happens.
type ModerationGate interface {
	Check(ctx context.Context, query string) error
}

// IntentClassifier labels the query; it fails open and never errors.
type IntentClassifier interface {
	Classify(ctx context.Context, query string) intent.Result
}

// ContextBuilder runs retrieval and assembles the generation prompt.
type ContextBuilder interface {
	Build(ctx context.Context, query, historyBlock string) (rag.BuildResult, error)
}

// Generator invokes the language model for answer generation.
type Generator interface {
	// Complete returns a full reply in one call.
	Complete(ctx context.Context, system, user string) (string, error)
	// Stream forwards reply deltas to emit as they are generated.
	Stream(ctx context.Context, prompt string, emit func(chunk string) error) error
}

// Turn is one caller-supplied conversation turn.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AnswerRequest is a question plus optional conversation history.
type AnswerRequest struct {
	Prompt string
	// History is the caller-supplied conversation, oldest first.
	History []Turn
	// HistoryLimit overrides the configured default turn count when > 0.
	// It is capped at config.HistoryHardCap.
	HistoryLimit int
}

// Reply is a prepared answer. Templated replies carry the final text in Text;
// generated replies additionally expose StreamFn and CompleteFn, leaving the
// caller to pick streaming or single-shot delivery.
type Reply struct {
	Query   string
	Sources []rag.UsedPassage
	Text    string
	// StreamFn streams the generated answer; nil for templated replies.
	StreamFn func(ctx context.Context, emit func(chunk string) error) error
	// CompleteFn produces the full generated answer; nil for templated replies.
	CompleteFn func(ctx context.Context) (string, error)
}

// Templated reports whether the reply was synthesized without generation.
func (r *Reply) Templated() bool {
	return r.StreamFn == nil
}

// AnswerService prepares answers for incoming questions.
type AnswerService interface {
	// Prepare validates and routes the request and returns a ready reply.
	Prepare(ctx context.Context, req AnswerRequest) (*Reply, error)
}

// answerService implements AnswerService.
type answerService struct {
	gate         ModerationGate
	intents      IntentClassifier
	builder      ContextBuilder
	generator    Generator
	historyLimit int
	logger       *slog.Logger
}

// NewAnswerService creates a new AnswerService. historyLimit is the default
// number of history turns kept when the caller does not specify one.
func NewAnswerService(
	gate ModerationGate,
	intents IntentClassifier,
	builder ContextBuilder,
	generator Generator,
	historyLimit int,
) AnswerService {
	return &answerService{
		gate:         gate,
		intents:      intents,
		builder:      builder,
		generator:    generator,
		historyLimit: historyLimit,
		logger:       slog.Default(),
	}
}

// Prepare runs the pipeline up to (but not including) answer generation.
// Control flow: moderation gate, then intent branch, then retrieval and
// prompt building for substantive questions.
func (s *answerService) Prepare(ctx context.Context, req AnswerRequest) (*Reply, error) {
	query := strings.TrimSpace(req.Prompt)
	if query == "" {
		return nil, apperr.Userf("prompt is required")
	}

	if err := s.gate.Check(ctx, query); err != nil {
		return nil, err
	}

	result := s.intents.Classify(ctx, query)
	switch result.Intent {
	case intent.IntentGreeting, intent.IntentSmalltalk:
		return &Reply{
			Query:   query,
			Sources: []rag.UsedPassage{},
			Text:    greetingReply,
		}, nil
	case intent.IntentNonLegal, intent.IntentOther:
		return s.genericReply(ctx, query), nil
	}

	// legal_question, and any unrecognized label by the fail-open default,
	// proceeds to retrieval.
	historyBlock := compressHistory(truncateHistory(req.History, s.effectiveHistoryLimit(req.HistoryLimit)))

	build, err := s.builder.Build(ctx, query, historyBlock)
	if err != nil {
		return nil, err
	}

	prompt := build.Prompt
	return &Reply{
		Query:   query,
		Sources: build.Used,
		StreamFn: func(ctx context.Context, emit func(chunk string) error) error {
			return s.generator.Stream(ctx, prompt, emit)
		},
		CompleteFn: func(ctx context.Context) (string, error) {
			return s.generator.Complete(ctx, "", prompt)
		},
	}, nil
}

// genericReply answers a non-legal or unclassifiable-but-substantive turn
// with a narrow secondary completion, falling back to a fixed apology when
// that call fails. Either way the reply carries zero citations.
func (s *answerService) genericReply(ctx context.Context, query string) *Reply {
	reply := &Reply{
		Query:   query,
		Sources: []rag.UsedPassage{},
	}

	text, err := s.generator.Complete(ctx, genericSystemPrompt, query)
	if err != nil {
		s.logger.WarnContext(ctx, "generic completion failed, using apology template", "error", err)
		reply.Text = apologyReply
		return reply
	}

	reply.Text = strings.TrimSpace(text) + "\n\n" + consultationHandoff
	return reply
}

// effectiveHistoryLimit resolves the turn count: caller override when given,
// configured default otherwise, hard-capped either way.
func (s *answerService) effectiveHistoryLimit(requested int) int {
	limit := s.historyLimit
	if requested > 0 {
		limit = requested
	}
	if limit > config.HistoryHardCap {
		limit = config.HistoryHardCap
	}
	return limit
}

// truncateHistory keeps the most recent limit turns, discarding oldest first
// and preserving order among the retained turns.
func truncateHistory(turns []Turn, limit int) []Turn {
	if limit <= 0 || len(turns) == 0 {
		return nil
	}
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns
}

// compressHistory flattens turns into the text block the prompt builder
// embeds. Turns with unknown roles or empty content are dropped.
func compressHistory(turns []Turn) string {
	var b strings.Builder
	for _, turn := range turns {
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		var label string
		switch turn.Role {
		case "user":
			label = "User"
		case "assistant":
			label = "Assistant"
		default:
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(content)
	}
	return b.String()
}
