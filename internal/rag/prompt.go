package rag

import (
	"fmt"
	"strings"
)

// FallbackSentence is emitted verbatim by the model when the supplied context
// does not contain enough information to answer.
const FallbackSentence = "I don't have enough information in the provided materials to answer that reliably. I'd recommend speaking with a qualified legal professional about your situation."

// BuildPrompt composes the complete model input from the assembled context,
// the normalized question and an optional compressed history block.
//
// This is a pure function: same inputs always produce the same prompt text.
// The history block is included only when non-empty.
func BuildPrompt(contextText, question, historyBlock string) string {
	var b strings.Builder

	b.WriteString("You are a legal information assistant. Answer the user's question using only the reference material provided below. Do not rely on outside knowledge and do not invent facts.\n\n")
	b.WriteString("Style rules:\n")
	b.WriteString("- Answer in plain language a non-lawyer can follow.\n")
	b.WriteString("- Clearly flag any point where professional legal consultation is needed.\n")
	b.WriteString("- End with one short follow-up question.\n")
	b.WriteString("- If the user wants to speak with a human consultant, offer to collect their preferred contact method and availability.\n")
	b.WriteString("- Never output the literal text \"<!-- CITATIONS:\" or \"<!-- END_CITATIONS:\" anywhere in your answer.\n\n")

	if historyBlock != "" {
		b.WriteString("Previous conversation (the latest question below takes priority over anything here):\n")
		b.WriteString(historyBlock)
		b.WriteString("\n\n")
	}

	b.WriteString("Reference material:\n")
	b.WriteString(contextText)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Question: %q\n\n", question)

	fmt.Fprintf(&b, "If the reference material does not contain enough information to answer, reply exactly: %q", FallbackSentence)

	return b.String()
}
