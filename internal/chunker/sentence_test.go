package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragpipe/internal/domain"
)

func TestSentenceChunker_SplitsIntoWindows(t *testing.T) {
	c := NewSentenceChunker(2, 0)
	doc := domain.Document{
		ID:      "doc1",
		Path:    "doc1.txt",
		Content: "One. Two. Three. Four. Five.",
	}

	chunks, err := c.Chunk(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, "One. Two.", chunks[0].Text)
	assert.Equal(t, "doc1:0", chunks[0].ID)
	assert.Equal(t, "doc1", chunks[0].Source.DocumentID)
	assert.Equal(t, 2, chunks[2].Source.Index)
}

func TestSentenceChunker_Overlap(t *testing.T) {
	c := NewSentenceChunker(3, 1)
	doc := domain.Document{ID: "d", Content: "A. B. C. D. E."}

	chunks, err := c.Chunk(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	// last sentence of the first window repeats at the start of the second
	assert.Equal(t, "A. B. C.", chunks[0].Text)
	assert.Equal(t, "C. D. E.", chunks[1].Text)
}

func TestSentenceChunker_OverlapClampedToWindow(t *testing.T) {
	// overlap >= window would otherwise stall the cursor and never terminate
	for _, overlap := range []int{2, 5} {
		c := NewSentenceChunker(2, overlap)
		chunks, err := c.Chunk(domain.Document{ID: "d", Content: "One. Two. Three."})
		require.NoError(t, err)
		require.Len(t, chunks, 2, "overlap %d", overlap)
		assert.Equal(t, "One. Two.", chunks[0].Text)
		assert.Equal(t, "Two. Three.", chunks[1].Text)
	}
}

func TestSentenceChunker_NoTerminators(t *testing.T) {
	c := NewSentenceChunker(5, 1)
	chunks, err := c.Chunk(domain.Document{ID: "d", Content: "no punctuation here"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "no punctuation here", chunks[0].Text)
}

func TestSentenceChunker_EmptyDocument(t *testing.T) {
	c := NewSentenceChunker(5, 1)
	chunks, err := c.Chunk(domain.Document{ID: "d", Content: "   "})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
