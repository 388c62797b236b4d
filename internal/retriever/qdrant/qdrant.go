package qdrant

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"ragpipe/internal/corpus"
	"ragpipe/internal/domain"
)

// Retriever is a minimal REST client to Qdrant implementing the same
// retrieval contract as the local linear scan. It assumes cosine distance and
// creates the collection if missing.
type Retriever struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func New(cfg Config) *Retriever {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Retriever{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Init creates the collection for the given vector dimension. Qdrant returns
// 200 if the collection already exists with the same schema.
func (r *Retriever) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	r.dimension = dimension
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return r.putJSON(fmt.Sprintf("%s/collections/%s", r.url, r.collection), body)
}

// Index pushes every chunk of the corpus into the collection, replacing the
// collection first so the remote index mirrors the corpus exactly.
func (r *Retriever) Index(c *corpus.Corpus) error {
	if err := r.drop(); err != nil {
		return err
	}
	if err := r.Init(c.Dimension()); err != nil {
		return err
	}
	chunks := c.Chunks()
	points := make([]map[string]any, len(chunks))
	for i, ch := range chunks {
		points[i] = map[string]any{
			// Qdrant point IDs must be UUIDs; derive one from the chunk ID
			"id":     uuid.NewSHA1(uuid.NameSpaceOID, []byte(ch.ID)).String(),
			"vector": ch.Embedding,
			"payload": map[string]any{
				"chunk_id":    ch.ID,
				"text":        ch.Text,
				"document_id": ch.Source.DocumentID,
				"path":        ch.Source.Path,
				"index":       ch.Source.Index,
			},
		}
	}
	body := map[string]any{"points": points}
	return r.putJSON(fmt.Sprintf("%s/collections/%s/points?wait=true", r.url, r.collection), body)
}

// Retrieve returns the top-k chunks for the query vector. The score cutoff is
// applied client-side after the top-k truncation, matching the local ranker.
func (r *Retriever) Retrieve(queryVec []float64, k int, cutoff *float64) ([]domain.RankedResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}
	req := map[string]any{
		"vector":       queryVec,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := r.postJSON(fmt.Sprintf("%s/collections/%s/points/search", r.url, r.collection), req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.RankedResult, 0, len(resp.Result))
	for _, hit := range resp.Result {
		if cutoff != nil && hit.Score < *cutoff {
			continue
		}
		chunk := domain.Chunk{}
		if v, ok := hit.Payload["chunk_id"].(string); ok {
			chunk.ID = v
		}
		if v, ok := hit.Payload["text"].(string); ok {
			chunk.Text = v
		}
		if v, ok := hit.Payload["document_id"].(string); ok {
			chunk.Source.DocumentID = v
		}
		if v, ok := hit.Payload["path"].(string); ok {
			chunk.Source.Path = v
		}
		if v, ok := hit.Payload["index"].(float64); ok {
			chunk.Source.Index = int(v)
		}
		results = append(results, domain.RankedResult{Chunk: chunk, Score: hit.Score})
	}
	return results, nil
}

func (r *Retriever) drop() error {
	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/collections/%s", r.url, r.collection), nil)
	if r.apiKey != "" {
		req.Header.Set("api-key", r.apiKey)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (r *Retriever) putJSON(url string, body any) error {
	data, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPut, url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("api-key", r.apiKey)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (r *Retriever) postJSON(url string, body any, out any) error {
	data, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("api-key", r.apiKey)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		dec := json.NewDecoder(resp.Body)
		return dec.Decode(out)
	}
	return nil
}
