package rag

// CandidatePassage is a retrieval hit eligible for context assembly.
// Similarity and Content are read-only once returned by the store.
type CandidatePassage struct {
	ID         string
	SourcePath string
	Heading    string
	Similarity float32
	Content    string
}

// UsedPassage describes a candidate that was actually included in the
// assembled context. It is immutable once the assembler emits it; the JSON
// field names are part of the citation wire protocol.
type UsedPassage struct {
	ID            string  `json:"id"`
	SourcePath    string  `json:"source_path"`
	Heading       string  `json:"heading"`
	Similarity    float32 `json:"similarity"`
	ContentLength int     `json:"content_length"`
	TokenCount    int     `json:"token_count"`
}

// BuildResult is the output of the retrieval-and-assembly stage.
type BuildResult struct {
	// Prompt is the complete model input for answer generation.
	Prompt string
	// Context is the assembled passage text included in Prompt.
	Context string
	// Used lists the passages included in Context, in similarity order.
	Used []UsedPassage
}
