package ranker

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragpipe/internal/corpus"
	"ragpipe/internal/domain"
)

func buildCorpus(t *testing.T, embeddings ...[]float64) *corpus.Corpus {
	t.Helper()
	chunks := make([]domain.Chunk, len(embeddings))
	for i, e := range embeddings {
		chunks[i] = domain.Chunk{
			ID:        fmt.Sprintf("c%d", i),
			Text:      fmt.Sprintf("chunk %d", i),
			Embedding: e,
			Source:    domain.SourceRef{DocumentID: "doc", Index: i},
		}
	}
	c, err := corpus.New("test", len(embeddings[0]), chunks)
	require.NoError(t, err)
	return c
}

func ptr(f float64) *float64 { return &f }

func TestRank_OrdersByScoreDescending(t *testing.T) {
	c := buildCorpus(t,
		[]float64{0, 1},   // orthogonal to query
		[]float64{1, 0},   // identical direction
		[]float64{1, 1},   // in between
	)

	results, err := Rank(c, []float64{1, 0}, 3, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "c1", results[0].Chunk.ID)
	assert.Equal(t, "c2", results[1].Chunk.ID)
	assert.Equal(t, "c0", results[2].Chunk.ID)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestRank_SelfSimilarityIsOne(t *testing.T) {
	q := []float64{0.3, -0.7, 2.1}
	c := buildCorpus(t, q)

	results, err := Rank(c, q, 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score, 1e-12)
}

func TestRank_KLargerThanCorpus(t *testing.T) {
	c := buildCorpus(t, []float64{1, 0}, []float64{0, 1})

	results, err := Rank(c, []float64{1, 1}, 10, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRank_TiesKeepInsertionOrder(t *testing.T) {
	// all chunks identical, all scores tie
	c := buildCorpus(t, []float64{1, 0}, []float64{1, 0}, []float64{1, 0})

	for run := 0; run < 5; run++ {
		results, err := Rank(c, []float64{1, 0}, 3, nil)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "c0", results[0].Chunk.ID)
		assert.Equal(t, "c1", results[1].Chunk.ID)
		assert.Equal(t, "c2", results[2].Chunk.ID)
	}
}

func TestRank_InvalidK(t *testing.T) {
	c := buildCorpus(t, []float64{1, 0})

	for _, k := range []int{0, -1} {
		_, err := Rank(c, []float64{1, 0}, k, nil)
		require.ErrorIs(t, err, domain.ErrInvalidArgument, "k=%d", k)
	}
}

func TestRank_EmptyCorpus(t *testing.T) {
	c, err := corpus.New("test", 2, nil)
	require.NoError(t, err)

	results, err := Rank(c, []float64{1, 0}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRank_DegenerateQueryVector(t *testing.T) {
	c := buildCorpus(t, []float64{1, 0})

	_, err := Rank(c, []float64{0, 0}, 1, nil)
	require.ErrorIs(t, err, domain.ErrDegenerateVector)
}

func TestRank_DegenerateChunkVector(t *testing.T) {
	c := buildCorpus(t, []float64{1, 0}, []float64{0, 0})

	_, err := Rank(c, []float64{1, 0}, 2, nil)
	require.ErrorIs(t, err, domain.ErrDegenerateVector)
}

func TestRank_CutoffAppliedAfterTruncation(t *testing.T) {
	// Scores against query {1,0}: c0=1.0, c1~0.995, c2~0.97.
	// With k=2 only c0 and c1 are candidates; c2 passes the cutoff on score
	// but must be absent because it was truncated away first.
	c := buildCorpus(t,
		[]float64{1, 0},
		[]float64{1, 0.1},
		[]float64{1, 0.25},
	)

	results, err := Rank(c, []float64{1, 0}, 2, ptr(0.9))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "c0", results[0].Chunk.ID)
	assert.Equal(t, "c1", results[1].Chunk.ID)
}

func TestRank_CutoffDropsStrictlyBelow(t *testing.T) {
	c := buildCorpus(t,
		[]float64{1, 0}, // score 1.0
		[]float64{0, 1}, // score 0.0
	)

	results, err := Rank(c, []float64{1, 0}, 2, ptr(1.0))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c0", results[0].Chunk.ID)
}

func TestRank_DimensionMismatch(t *testing.T) {
	c := buildCorpus(t, []float64{1, 0})

	_, err := Rank(c, []float64{1, 0, 0}, 1, nil)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}
