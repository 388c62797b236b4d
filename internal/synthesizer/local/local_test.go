package local

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerer_PicksQueryRelevantSentences(t *testing.T) {
	s := NewAnswerer(1)
	ctx := "Attention is a mechanism in Transformers. YOLO is an object detector. The weather is nice."

	out, err := s.Complete("What is Attention?", ctx)
	require.NoError(t, err)
	assert.Contains(t, out, "Attention")
	assert.NotContains(t, out, "YOLO")
}

func TestAnswerer_EmptyContext(t *testing.T) {
	s := NewAnswerer(3)
	out, err := s.Complete("Anything?", "   ")
	require.NoError(t, err)
	assert.Equal(t, "I cannot answer from the provided context.", out)
}

func TestKeyworder_ReturnsFrequentTerms(t *testing.T) {
	s := NewKeyworder(3)
	ctx := "Kubernetes experience required. Kubernetes and Go. Go services. Terraform is optional."

	out, err := s.Complete("skills", ctx)
	require.NoError(t, err)
	terms := strings.Split(out, ", ")
	require.Len(t, terms, 3)
	assert.Equal(t, "kubernetes", terms[0])
	assert.Equal(t, "go", terms[1])
}

func TestKeyworder_EmptyContext(t *testing.T) {
	s := NewKeyworder(5)
	out, err := s.Complete("skills", "")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestAnswerer_KeepsOriginalSentenceOrder(t *testing.T) {
	s := NewAnswerer(2)
	ctx := "Go routines are lightweight. Channels connect goroutines. Cats are unrelated."

	out, err := s.Complete("goroutines channels", ctx)
	require.NoError(t, err)
	first := strings.Index(out, "Go routines")
	second := strings.Index(out, "Channels")
	require.GreaterOrEqual(t, first, 0)
	require.Greater(t, second, first)
}
