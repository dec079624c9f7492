package vectorstore

import "context"

// SearchResult is a single similarity-search hit.
type SearchResult struct {
	// PointID is the stable identifier of the stored passage.
	PointID string
	// Score is the similarity score in [0,1], cosine distance based.
	Score float32
	// Meta is the payload written by the embedding indexer.
	Meta map[string]any
}

// SearchParams bound a similarity search.
type SearchParams struct {
	// Limit caps the number of results.
	Limit int
	// ScoreThreshold drops results below this similarity.
	ScoreThreshold float32
	// MinContentLength drops passages whose stored content is shorter than
	// this many characters. Zero disables the filter.
	MinContentLength int
}

// VectorStore is the similarity-search boundary. Results are returned
// pre-sorted by the store, similarity descending.
type VectorStore interface {
	Search(ctx context.Context, collection string, query []float32, params SearchParams) ([]SearchResult, error)
}
