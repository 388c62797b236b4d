package retriever

import (
	"ragpipe/internal/corpus"
	"ragpipe/internal/domain"
	"ragpipe/internal/ranker"
)

// Local retrieves from an in-memory corpus with a linear cosine scan. It is
// the baseline behavior; remote backends implement the same contract.
type Local struct {
	corpus *corpus.Corpus
}

func NewLocal(c *corpus.Corpus) *Local {
	return &Local{corpus: c}
}

func (l *Local) Retrieve(queryVec []float64, k int, cutoff *float64) ([]domain.RankedResult, error) {
	return ranker.Rank(l.corpus, queryVec, k, cutoff)
}
