package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"legalrag-ai/internal/apperr"
	"legalrag-ai/internal/intent"
	"legalrag-ai/internal/rag"
	"legalrag-ai/internal/service"
	"legalrag-ai/internal/service/mocks"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type pipeline struct {
	gate      *mocks.MockModerationGate
	intents   *mocks.MockIntentClassifier
	builder   *mocks.MockContextBuilder
	generator *mocks.MockGenerator
	svc       service.AnswerService
}

func newPipeline(t *testing.T, historyLimit int) *pipeline {
	t.Helper()
	ctrl := gomock.NewController(t)
	p := &pipeline{
		gate:      mocks.NewMockModerationGate(ctrl),
		intents:   mocks.NewMockIntentClassifier(ctrl),
		builder:   mocks.NewMockContextBuilder(ctrl),
		generator: mocks.NewMockGenerator(ctrl),
	}
	p.svc = service.NewAnswerService(p.gate, p.intents, p.builder, p.generator, historyLimit)
	return p
}

func TestPrepareEmptyPrompt(t *testing.T) {
	p := newPipeline(t, 3)

	for _, prompt := range []string{"", "   \n\t "} {
		_, err := p.svc.Prepare(context.Background(), service.AnswerRequest{Prompt: prompt})
		var userErr *apperr.UserError
		if !errors.As(err, &userErr) {
			t.Errorf("Prepare(%q) = %v, want *apperr.UserError", prompt, err)
		}
	}
}

func TestPrepareModerationBlocks(t *testing.T) {
	p := newPipeline(t, 3)

	blocked := &apperr.UserError{
		Message: "Your message was flagged by our content policy and cannot be processed.",
		Data:    map[string]any{"categories": []string{"violence"}},
	}
	p.gate.EXPECT().Check(gomock.Any(), "blocked input").Return(blocked)

	_, err := p.svc.Prepare(context.Background(), service.AnswerRequest{Prompt: "blocked input"})
	if !errors.Is(err, blocked) {
		t.Errorf("Prepare() = %v, want the moderation error unchanged", err)
	}
}

func TestPrepareGreeting(t *testing.T) {
	p := newPipeline(t, 3)

	p.gate.EXPECT().Check(gomock.Any(), "안녕하세요").Return(nil)
	p.intents.EXPECT().Classify(gomock.Any(), "안녕하세요").
		Return(intent.Result{Intent: intent.IntentGreeting, Confidence: 0.97})

	reply, err := p.svc.Prepare(context.Background(), service.AnswerRequest{Prompt: "안녕하세요"})
	if err != nil {
		t.Fatalf("Prepare() unexpected error: %v", err)
	}
	if !reply.Templated() {
		t.Error("greeting reply must be templated")
	}
	if reply.Sources == nil || len(reply.Sources) != 0 {
		t.Errorf("Sources = %#v, want empty non-nil slice", reply.Sources)
	}
	if !strings.Contains(reply.Text, "legal information assistant") {
		t.Errorf("Text = %q, want the greeting template", reply.Text)
	}
}

func TestPrepareNonLegal(t *testing.T) {
	p := newPipeline(t, 3)

	p.gate.EXPECT().Check(gomock.Any(), "best pasta recipe?").Return(nil)
	p.intents.EXPECT().Classify(gomock.Any(), "best pasta recipe?").
		Return(intent.Result{Intent: intent.IntentNonLegal, Confidence: 0.9})
	p.generator.EXPECT().Complete(gomock.Any(), gomock.Any(), "best pasta recipe?").
		Return("Carbonara is a popular choice.", nil)

	reply, err := p.svc.Prepare(context.Background(), service.AnswerRequest{Prompt: "best pasta recipe?"})
	if err != nil {
		t.Fatalf("Prepare() unexpected error: %v", err)
	}
	if !reply.Templated() {
		t.Error("non-legal reply must not expose generation closures")
	}
	if !strings.Contains(reply.Text, "Carbonara is a popular choice.") {
		t.Errorf("Text = %q, missing secondary completion", reply.Text)
	}
	if !strings.Contains(reply.Text, "consultation") {
		t.Errorf("Text = %q, missing consultation handoff", reply.Text)
	}
	if len(reply.Sources) != 0 {
		t.Errorf("Sources = %v, non-legal replies carry no citations", reply.Sources)
	}
}

func TestPrepareNonLegalCompletionFails(t *testing.T) {
	p := newPipeline(t, 3)

	p.gate.EXPECT().Check(gomock.Any(), "weather tomorrow?").Return(nil)
	p.intents.EXPECT().Classify(gomock.Any(), "weather tomorrow?").
		Return(intent.Result{Intent: intent.IntentOther, Confidence: 0.6})
	p.generator.EXPECT().Complete(gomock.Any(), gomock.Any(), "weather tomorrow?").
		Return("", errors.New("model overloaded"))

	reply, err := p.svc.Prepare(context.Background(), service.AnswerRequest{Prompt: "weather tomorrow?"})
	if err != nil {
		t.Fatalf("Prepare() must not fail when the secondary completion fails: %v", err)
	}
	if !strings.Contains(reply.Text, "I'm sorry") {
		t.Errorf("Text = %q, want the apology template", reply.Text)
	}
}

func TestPrepareLegalQuestion(t *testing.T) {
	p := newPipeline(t, 3)

	used := []rag.UsedPassage{{ID: "p1", SourcePath: "a.md", Heading: "A", Similarity: 0.8, ContentLength: 40, TokenCount: 10}}

	p.gate.EXPECT().Check(gomock.Any(), "can I end my lease early?").Return(nil)
	p.intents.EXPECT().Classify(gomock.Any(), "can I end my lease early?").
		Return(intent.Result{Intent: intent.IntentLegalQuestion, Confidence: 0.95})
	p.builder.EXPECT().Build(gomock.Any(), "can I end my lease early?", "").
		Return(rag.BuildResult{Prompt: "assembled prompt", Context: "ctx", Used: used}, nil)

	reply, err := p.svc.Prepare(context.Background(), service.AnswerRequest{Prompt: "can I end my lease early?"})
	if err != nil {
		t.Fatalf("Prepare() unexpected error: %v", err)
	}
	if reply.Templated() {
		t.Fatal("legal questions must expose generation closures")
	}
	if len(reply.Sources) != 1 || reply.Sources[0].ID != "p1" {
		t.Errorf("Sources = %+v", reply.Sources)
	}

	// The closures must run the generator with the built prompt.
	p.generator.EXPECT().Stream(gomock.Any(), "assembled prompt", gomock.Any()).Return(nil)
	if err := reply.StreamFn(context.Background(), func(string) error { return nil }); err != nil {
		t.Errorf("StreamFn() unexpected error: %v", err)
	}

	p.generator.EXPECT().Complete(gomock.Any(), "", "assembled prompt").Return("answer", nil)
	if text, err := reply.CompleteFn(context.Background()); err != nil || text != "answer" {
		t.Errorf("CompleteFn() = %q, %v", text, err)
	}
}

func TestPrepareBuildFailure(t *testing.T) {
	p := newPipeline(t, 3)

	buildErr := apperr.Appf("vector search failed")
	p.gate.EXPECT().Check(gomock.Any(), "q").Return(nil)
	p.intents.EXPECT().Classify(gomock.Any(), "q").Return(intent.DefaultResult)
	p.builder.EXPECT().Build(gomock.Any(), "q", "").Return(rag.BuildResult{}, buildErr)

	_, err := p.svc.Prepare(context.Background(), service.AnswerRequest{Prompt: "q"})
	if !errors.Is(err, buildErr) {
		t.Errorf("Prepare() = %v, want the build error", err)
	}
}

func TestPrepareHistoryTruncation(t *testing.T) {
	p := newPipeline(t, 3)

	history := make([]service.Turn, 0, 15)
	for i := 0; i < 7; i++ {
		history = append(history,
			service.Turn{Role: "user", Content: "question " + string(rune('a'+i))},
			service.Turn{Role: "assistant", Content: "answer " + string(rune('a'+i))},
		)
	}
	history = append(history, service.Turn{Role: "user", Content: "latest question"})

	var gotHistory string
	p.gate.EXPECT().Check(gomock.Any(), "follow-up").Return(nil)
	p.intents.EXPECT().Classify(gomock.Any(), "follow-up").Return(intent.DefaultResult)
	p.builder.EXPECT().Build(gomock.Any(), "follow-up", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, historyBlock string) (rag.BuildResult, error) {
			gotHistory = historyBlock
			return rag.BuildResult{Prompt: "p"}, nil
		})

	_, err := p.svc.Prepare(context.Background(), service.AnswerRequest{Prompt: "follow-up", History: history})
	if err != nil {
		t.Fatalf("Prepare() unexpected error: %v", err)
	}

	// Default limit of 3 keeps the last 3 turns only.
	want := "User: question g\nAssistant: answer g\nUser: latest question"
	if gotHistory != want {
		t.Errorf("history block = %q, want %q", gotHistory, want)
	}
}

func TestPrepareHistoryLimitOverride(t *testing.T) {
	p := newPipeline(t, 3)

	history := []service.Turn{
		{Role: "user", Content: "one"},
		{Role: "assistant", Content: "two"},
		{Role: "user", Content: "three"},
		{Role: "system", Content: "ignored role"},
		{Role: "assistant", Content: "   "},
		{Role: "assistant", Content: "four"},
	}

	var gotHistory string
	p.gate.EXPECT().Check(gomock.Any(), "q").Return(nil)
	p.intents.EXPECT().Classify(gomock.Any(), "q").Return(intent.DefaultResult)
	p.builder.EXPECT().Build(gomock.Any(), "q", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, historyBlock string) (rag.BuildResult, error) {
			gotHistory = historyBlock
			return rag.BuildResult{Prompt: "p"}, nil
		})

	req := service.AnswerRequest{Prompt: "q", History: history, HistoryLimit: 50}
	if _, err := p.svc.Prepare(context.Background(), req); err != nil {
		t.Fatalf("Prepare() unexpected error: %v", err)
	}

	// The requested limit is capped at the hard maximum, which covers all six
	// turns here; unknown roles and blank content are dropped.
	want := "User: one\nAssistant: two\nUser: three\nAssistant: four"
	if gotHistory != want {
		t.Errorf("history block = %q, want %q", gotHistory, want)
	}
}
