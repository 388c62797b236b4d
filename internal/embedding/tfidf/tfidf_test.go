package tfidf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedder_PrepareAndEmbed(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{
		"attention is a mechanism in transformers",
		"yolo is an object detector",
	}))
	require.Greater(t, e.Dimension(), 0)

	v, err := e.Embed("what is attention")
	require.NoError(t, err)
	require.Len(t, v, e.Dimension())

	// L2 normalized
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	assert.InDelta(t, 1.0, norm, 1e-9)
}

func TestEmbedder_UnpreparedFails(t *testing.T) {
	e := NewEmbedder()
	_, err := e.Embed("anything")
	require.Error(t, err)
}

func TestEmbedder_OutOfVocabularyIsZero(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{"alpha beta gamma"}))

	v, err := e.Embed("zzzz qqqq")
	require.NoError(t, err)
	for _, x := range v {
		assert.Zero(t, x)
	}
}

func TestEmbedder_EmbedBatchMatchesEmbed(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{"alpha beta", "beta gamma"}))

	single, err := e.Embed("alpha gamma")
	require.NoError(t, err)
	batch, err := e.EmbedBatch([]string{"alpha gamma"})
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, single, batch[0])
}
