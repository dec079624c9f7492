// Package rag implements the retrieval engine, the token-budgeted context
// assembler and the prompt builder of the answer pipeline.
package rag

import (
	"context"
	"strings"

	"legalrag-ai/internal/apperr"
	"legalrag-ai/internal/contextutil"
	"legalrag-ai/internal/vectorstore"
)

// Embedder produces a fixed-dimension vector for a normalized text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Params bound retrieval and context assembly.
type Params struct {
	Collection          string
	SimilarityThreshold float32
	RetrievalLimit      int
	MinContentLength    int
	ContextTokenCeiling int
}

// Engine retrieves candidate passages and assembles them into a bounded
// prompt context.
type Engine struct {
	embedder Embedder
	store    vectorstore.VectorStore
	params   Params
}

// NewEngine creates a new retrieval engine.
func NewEngine(embedder Embedder, store vectorstore.VectorStore, params Params) *Engine {
	return &Engine{
		embedder: embedder,
		store:    store,
		params:   params,
	}
}

// Build runs retrieval and context assembly for a query and composes the
// generation prompt. An empty retrieval result is a valid outcome: the
// context stays empty and generation proceeds, letting the model emit its
// insufficient-information fallback answer.
func (e *Engine) Build(ctx context.Context, query, historyBlock string) (BuildResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	candidates, err := e.Retrieve(ctx, query)
	if err != nil {
		return BuildResult{}, err
	}

	contextText, used := assembleContext(candidates, e.params.ContextTokenCeiling)
	logger.InfoContext(ctx, "context assembled",
		"candidates", len(candidates),
		"passages_used", len(used),
		"context_length", len(contextText),
	)

	return BuildResult{
		Prompt:  BuildPrompt(contextText, query, historyBlock),
		Context: contextText,
		Used:    used,
	}, nil
}

// Retrieve embeds the query and returns the top candidate passages above the
// similarity threshold, in the similarity-descending order the store returns
// them. No matches is a valid outcome and yields an empty slice; only a
// malformed store response is an error.
func (e *Engine) Retrieve(ctx context.Context, query string) ([]CandidatePassage, error) {
	logger := contextutil.LoggerFromContext(ctx)

	// The embedding service expects single-line input.
	normalized := strings.Join(strings.Fields(query), " ")

	vector, err := e.embedder.Embed(ctx, normalized)
	if err != nil {
		return nil, err
	}

	results, err := e.store.Search(ctx, e.params.Collection, vector, vectorstore.SearchParams{
		Limit:            e.params.RetrievalLimit,
		ScoreThreshold:   e.params.SimilarityThreshold,
		MinContentLength: e.params.MinContentLength,
	})
	if err != nil {
		return nil, apperr.WrapApp(err, "vector search failed")
	}
	if results == nil {
		return nil, apperr.Appf("vector store returned no result set")
	}

	candidates := make([]CandidatePassage, 0, len(results))
	for _, result := range results {
		candidates = append(candidates, CandidatePassage{
			ID:         result.PointID,
			SourcePath: metaString(result.Meta, "source_path"),
			Heading:    metaString(result.Meta, "heading"),
			Similarity: result.Score,
			Content:    metaString(result.Meta, "content"),
		})
	}

	logger.InfoContext(ctx, "retrieval completed", "candidates", len(candidates))
	return candidates, nil
}

func metaString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	s, _ := meta[key].(string)
	return s
}
