package domain

// Document represents a single source loaded into the system: a text file,
// a PDF, or one row of a CSV.
type Document struct {
	ID      string
	Path    string
	Content string
}

// SourceRef points back to the document (or CSV row) a chunk came from.
// It is a citation reference only; the corpus owns the chunk.
type SourceRef struct {
	DocumentID string `json:"document_id"`
	Path       string `json:"path"`
	Index      int    `json:"index"`
}

// Chunk is the minimal retrievable unit: a text span with its embedding,
// produced once at ingestion and immutable afterwards.
type Chunk struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding"`
	Source    SourceRef `json:"source"`
}

// RankedResult is a chunk scored against a query vector. Produced fresh per
// query, ordered descending by score.
type RankedResult struct {
	Chunk Chunk
	Score float64
}

// Answer is the result of a full pipeline call: the synthesized text plus the
// chunks it was grounded on, so callers can show provenance.
type Answer struct {
	Text      string
	Cited     []RankedResult
	NoContext bool
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(texts []string) error
	Dimension() int
	Embed(text string) ([]float64, error)
	EmbedBatch(texts []string) ([][]float64, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
// Embeddings are filled in later by the corpus build.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Synthesizer produces a grounded answer (or keyword list) from a query and
// a concatenated context block.
type Synthesizer interface {
	Complete(query, contextBlock string) (string, error)
}

// Retriever returns the top-k chunks for a query vector, optionally dropping
// results scoring strictly below cutoff after the top-k truncation.
type Retriever interface {
	Retrieve(queryVec []float64, k int, cutoff *float64) ([]RankedResult, error)
}
