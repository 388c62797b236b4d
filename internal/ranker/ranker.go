package ranker

import (
	"fmt"
	"math"
	"sort"

	"ragpipe/internal/corpus"
	"ragpipe/internal/domain"
)

// Rank scores every chunk in the corpus against the query vector with cosine
// similarity and returns the top k results in descending score order. Ties
// keep corpus insertion order, so repeated calls are deterministic.
//
// If cutoff is non-nil, results scoring strictly below it are dropped after
// the top-k truncation: the cutoff narrows an already bounded candidate set
// instead of changing which candidates were considered.
//
// The scan is linear in the corpus size. An empty corpus yields an empty
// result, not an error.
func Rank(c *corpus.Corpus, queryVec []float64, k int, cutoff *float64) ([]domain.RankedResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}
	if c == nil || c.Len() == 0 {
		return []domain.RankedResult{}, nil
	}
	qnorm := norm(queryVec)
	if qnorm == 0 {
		return nil, fmt.Errorf("%w: query vector", domain.ErrDegenerateVector)
	}

	chunks := c.Chunks()
	results := make([]domain.RankedResult, 0, len(chunks))
	for _, ch := range chunks {
		score, err := cosine(queryVec, qnorm, ch.Embedding)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", ch.ID, err)
		}
		results = append(results, domain.RankedResult{Chunk: ch, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k < len(results) {
		results = results[:k]
	}
	if cutoff != nil {
		kept := results[:0]
		for _, r := range results {
			if r.Score >= *cutoff {
				kept = append(kept, r)
			}
		}
		results = kept
	}
	return results, nil
}

// cosine computes dot(q, v) / (|q| * |v|). qnorm is the precomputed magnitude
// of q.
func cosine(q []float64, qnorm float64, v []float64) (float64, error) {
	if len(q) != len(v) {
		return 0, fmt.Errorf("%w: query has dimension %d, chunk has %d", domain.ErrInvalidArgument, len(q), len(v))
	}
	var dot, vv float64
	for i := range q {
		dot += q[i] * v[i]
		vv += v[i] * v[i]
	}
	if vv == 0 {
		return 0, domain.ErrDegenerateVector
	}
	return dot / (qnorm * math.Sqrt(vv)), nil
}

func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
