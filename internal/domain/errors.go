package domain

import "errors"

var (
	// ErrInvalidArgument covers bad caller input: k <= 0, empty query strings.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDegenerateVector is returned when a vector has zero magnitude and
	// cosine similarity is undefined.
	ErrDegenerateVector = errors.New("degenerate vector: zero magnitude")

	// ErrEmbedding wraps a failed or dimensionally inconsistent embedding call.
	ErrEmbedding = errors.New("embedding failed")

	// ErrCorpusNotFound is returned by load when nothing exists at the location.
	ErrCorpusNotFound = errors.New("corpus not found")

	// ErrCorpusCorrupt is returned by load when stored records are malformed.
	ErrCorpusCorrupt = errors.New("corpus corrupt")

	// ErrUpstream wraps a failed or timed-out embedder/synthesizer call made
	// during a pipeline run. The underlying cause is attached.
	ErrUpstream = errors.New("upstream service failed")
)
