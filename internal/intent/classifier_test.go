package intent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeCompletionClient returns a canned reply or error for every call.
type fakeCompletionClient struct {
	reply string
	err   error
}

func (f *fakeCompletionClient) Complete(_ context.Context, _, _, _ string) (string, error) {
	return f.reply, f.err
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		err      error
		expected Result
	}{
		{
			name:     "direct json",
			reply:    `{"intent": "greeting", "confidence": 0.93}`,
			expected: Result{Intent: IntentGreeting, Confidence: 0.93},
		},
		{
			name:     "json wrapped in prose",
			reply:    "Sure, here is the classification:\n```json\n{\"intent\": \"legal_question\", \"confidence\": 0.8}\n```\nLet me know if you need anything else.",
			expected: Result{Intent: IntentLegalQuestion, Confidence: 0.8},
		},
		{
			name:     "garbage reply falls back to default",
			reply:    "I cannot classify this message.",
			expected: DefaultResult,
		},
		{
			name:     "empty reply falls back to default",
			reply:    "",
			expected: DefaultResult,
		},
		{
			name:     "call failure falls back to default",
			err:      errors.New("upstream timeout"),
			expected: DefaultResult,
		},
		{
			name:     "confidence clamped to upper bound",
			reply:    `{"intent": "smalltalk", "confidence": 7.5}`,
			expected: Result{Intent: IntentSmalltalk, Confidence: 1},
		},
		{
			name:     "confidence clamped to lower bound",
			reply:    `{"intent": "non_legal", "confidence": -0.3}`,
			expected: Result{Intent: IntentNonLegal, Confidence: 0},
		},
		{
			name:     "missing intent falls back to default",
			reply:    `{"confidence": 0.9}`,
			expected: DefaultResult,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := NewClassifier(&fakeCompletionClient{reply: tt.reply, err: tt.err}, "test-model")

			got := classifier.Classify(context.Background(), "hello")
			if got != tt.expected {
				t.Errorf("Classify() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestClassifyNeverPanicsOnNestedBraces(t *testing.T) {
	reply := `The message {"looks": "odd"} but I would say {"intent": "other", "confidence": 0.5}`
	classifier := NewClassifier(&fakeCompletionClient{reply: reply}, "test-model")

	got := classifier.Classify(context.Background(), "???")
	// The greedy {...} span covers both objects and does not decode, so the
	// classifier falls back to the default rather than guessing.
	if got != DefaultResult {
		t.Errorf("Classify() = %+v, want default %+v", got, DefaultResult)
	}
}
