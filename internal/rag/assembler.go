package rag

import (
	"strconv"
	"strings"

	"legalrag-ai/internal/tokens"
)

// passageDelimiter separates passages inside the assembled context text.
const passageDelimiter = "\n\n---\n\n"

// placeholderHeading stands in for passages stored without a heading.
const placeholderHeading = "Untitled section"

// assembleContext walks candidates in the given (similarity-descending) order
// and accumulates their content under the token ceiling.
//
// The loop terminates at the first passage that would reach the ceiling
// instead of skipping it and continuing, so the included passages are always
// a prefix of the candidate list: a later, lower-relevance passage can never
// displace an earlier one. The running total stays strictly below the ceiling
// at every inclusion step.
//
// Passages without content are skipped. Missing metadata never rejects a
// passage; id, path, heading and similarity fall back to defaults.
func assembleContext(candidates []CandidatePassage, ceiling int) (string, []UsedPassage) {
	var builder strings.Builder
	used := make([]UsedPassage, 0, len(candidates))
	total := 0

	for i, candidate := range candidates {
		content := strings.TrimSpace(candidate.Content)
		if content == "" {
			continue
		}

		count := tokens.Count(content)
		if total+count >= ceiling {
			break
		}
		total += count

		builder.WriteString(content)
		builder.WriteString(passageDelimiter)

		used = append(used, UsedPassage{
			ID:            defaultString(candidate.ID, strconv.Itoa(i)),
			SourcePath:    defaultString(candidate.SourcePath, "unknown"),
			Heading:       defaultString(candidate.Heading, placeholderHeading),
			Similarity:    candidate.Similarity,
			ContentLength: len(content),
			TokenCount:    count,
		})
	}

	return builder.String(), used
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
