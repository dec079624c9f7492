package rag

import (
	"strings"
	"testing"
)

func TestBuildPromptDeterministic(t *testing.T) {
	first := BuildPrompt("ctx", "question", "history")
	for i := 0; i < 10; i++ {
		if got := BuildPrompt("ctx", "question", "history"); got != first {
			t.Fatal("BuildPrompt() is not deterministic")
		}
	}
}

func TestBuildPromptContainsParts(t *testing.T) {
	contextText := "A deposit must be returned within 14 days."
	question := "when do I get my deposit back?"

	prompt := BuildPrompt(contextText, question, "")

	if !strings.Contains(prompt, contextText) {
		t.Error("prompt missing reference material")
	}
	if !strings.Contains(prompt, `"when do I get my deposit back?"`) {
		t.Error("prompt missing quoted question")
	}
	if !strings.Contains(prompt, FallbackSentence) {
		t.Error("prompt missing fallback instruction")
	}
	if !strings.Contains(prompt, "<!-- CITATIONS:") || !strings.Contains(prompt, "<!-- END_CITATIONS:") {
		t.Error("prompt missing marker-suppression rule")
	}
}

func TestBuildPromptHistoryConditional(t *testing.T) {
	withHistory := BuildPrompt("ctx", "q", "User: hi\nAssistant: hello")
	withoutHistory := BuildPrompt("ctx", "q", "")

	if !strings.Contains(withHistory, "Previous conversation") {
		t.Error("history block missing when history provided")
	}
	if !strings.Contains(withHistory, "User: hi\nAssistant: hello") {
		t.Error("history content missing from prompt")
	}
	if strings.Contains(withoutHistory, "Previous conversation") {
		t.Error("history section present without history")
	}
}

func TestBuildPromptEmptyContext(t *testing.T) {
	prompt := BuildPrompt("", "an unanswerable question", "")

	if !strings.Contains(prompt, "Reference material:\n\n") {
		t.Error("empty context should leave the reference section empty, not drop it")
	}
	if !strings.Contains(prompt, FallbackSentence) {
		t.Error("fallback instruction must survive an empty context")
	}
}
