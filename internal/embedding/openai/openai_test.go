package openai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("TEST_OPENAI_KEY", "test-key")
	c, err := NewClient(Config{BaseURL: srv.URL, APIKeyEnv: "TEST_OPENAI_KEY", BatchSize: 2})
	require.NoError(t, err)
	return c
}

func embeddingResponse(vecs [][]float64) map[string]any {
	data := make([]map[string]any, len(vecs))
	for i, v := range vecs {
		data[i] = map[string]any{"index": i, "embedding": v}
	}
	return map[string]any{"data": data}
}

func TestClient_EmbedBatch(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		vecs := make([][]float64, len(req.Input))
		for i := range req.Input {
			vecs[i] = []float64{float64(i), 1}
		}
		json.NewEncoder(w).Encode(embeddingResponse(vecs))
	})

	out, err := c.EmbedBatch([]string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, 2, c.Dimension())
}

func TestClient_RetriesOn429(t *testing.T) {
	attempts := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(embeddingResponse([][]float64{{0.5, 0.5}}))
	})

	v, err := c.Embed("hello")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5}, v)
	assert.Equal(t, 2, attempts)
}

func TestClient_NoSleepAfterFinalRetry(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c.maxRetries = 0

	start := time.Now()
	_, err := c.Embed("hello")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestClient_FailsOnClientError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := c.Embed("hello")
	require.Error(t, err)
}

func TestClient_DimensionMismatch(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			json.NewEncoder(w).Encode(embeddingResponse([][]float64{{1, 2, 3}, {4, 5, 6}}))
			return
		}
		json.NewEncoder(w).Encode(embeddingResponse([][]float64{{1, 2}}))
	})

	_, err := c.EmbedBatch([]string{"a", "b"})
	require.NoError(t, err)
	_, err = c.Embed("c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension")
}

func TestNewClient_MissingKey(t *testing.T) {
	t.Setenv("TEST_EMPTY_KEY", "")
	_, err := NewClient(Config{APIKeyEnv: "TEST_EMPTY_KEY"})
	require.Error(t, err)
}
