package corpus

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"ragpipe/internal/domain"
)

// Corpus is an immutable, fully embedded collection of chunks. It is built
// once at ingestion time; queries only read from it.
type Corpus struct {
	embedder  string
	dimension int
	chunks    []domain.Chunk
	byID      map[string]int
}

// manifest is the first line of a persisted corpus file.
type manifest struct {
	Embedder  string `json:"embedder"`
	Dimension int    `json:"dimension"`
	Chunks    int    `json:"chunks"`
}

// New assembles a corpus from already embedded chunks. Every chunk must carry
// an embedding of the given dimension.
func New(embedder string, dimension int, chunks []domain.Chunk) (*Corpus, error) {
	byID := make(map[string]int, len(chunks))
	for i, ch := range chunks {
		if len(ch.Embedding) != dimension {
			return nil, fmt.Errorf("%w: chunk %s has dimension %d, want %d",
				domain.ErrCorpusCorrupt, ch.ID, len(ch.Embedding), dimension)
		}
		byID[ch.ID] = i
	}
	return &Corpus{embedder: embedder, dimension: dimension, chunks: chunks, byID: byID}, nil
}

// Build splits the documents into chunks, embeds every chunk, and assembles a
// corpus. The build is atomic: any embedding failure aborts it and nothing is
// kept.
func Build(documents []domain.Document, chunker domain.Chunker, embedder domain.Embedder) (*Corpus, error) {
	var chunks []domain.Chunk
	var texts []string
	for _, d := range documents {
		cs, err := chunker.Chunk(d)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", d.Path, err)
		}
		for _, ch := range cs {
			chunks = append(chunks, ch)
			texts = append(texts, ch.Text)
		}
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks produced from %d documents", len(documents))
	}
	if err := embedder.Prepare(texts); err != nil {
		return nil, fmt.Errorf("%w: prepare: %v", domain.ErrEmbedding, err)
	}
	vectors, err := embedder.EmbedBatch(texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: expected %d vectors, got %d", domain.ErrEmbedding, len(chunks), len(vectors))
	}
	dim := embedder.Dimension()
	for i := range chunks {
		if len(vectors[i]) != dim {
			return nil, fmt.Errorf("%w: chunk %s has dimension %d, want %d",
				domain.ErrEmbedding, chunks[i].ID, len(vectors[i]), dim)
		}
		chunks[i].Embedding = vectors[i]
	}
	log.Info("corpus built", "documents", len(documents), "chunks", len(chunks), "dim", dim, "embedder", embedder.Name())
	return New(embedder.Name(), dim, chunks)
}

// Len returns the number of chunks in the corpus.
func (c *Corpus) Len() int { return len(c.chunks) }

// Dimension returns the embedding dimensionality shared by all chunks.
func (c *Corpus) Dimension() int { return c.dimension }

// EmbedderName returns the name of the embedder that produced the corpus.
func (c *Corpus) EmbedderName() string { return c.embedder }

// Chunks returns the chunks in insertion order. Callers must treat the slice
// as read-only.
func (c *Corpus) Chunks() []domain.Chunk { return c.chunks }

// Get looks up a chunk by ID.
func (c *Corpus) Get(id string) (domain.Chunk, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Chunk{}, false
	}
	return c.chunks[i], true
}

// Persist writes the corpus as line-delimited JSON: a manifest line followed
// by one chunk record per line. The write goes through a temp file and rename
// so an existing corpus is replaced all at once.
func Persist(c *Corpus, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".corpus-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	if err := enc.Encode(manifest{Embedder: c.embedder, Dimension: c.dimension, Chunks: len(c.chunks)}); err != nil {
		tmp.Close()
		return err
	}
	for _, ch := range c.chunks {
		if err := enc.Encode(ch); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	log.Info("corpus persisted", "path", path, "chunks", len(c.chunks))
	return nil
}

// Load reads a corpus persisted by Persist. It fails with ErrCorpusNotFound
// when nothing exists at path and ErrCorpusCorrupt when records are malformed
// or dimensionally inconsistent.
func Load(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCorpusNotFound, path)
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	if !scanner.Scan() {
		return nil, fmt.Errorf("%w: missing manifest in %s", domain.ErrCorpusCorrupt, path)
	}
	var m manifest
	if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
		return nil, fmt.Errorf("%w: bad manifest: %v", domain.ErrCorpusCorrupt, err)
	}
	if m.Dimension <= 0 {
		return nil, fmt.Errorf("%w: manifest dimension %d", domain.ErrCorpusCorrupt, m.Dimension)
	}

	chunks := make([]domain.Chunk, 0, m.Chunks)
	for scanner.Scan() {
		var ch domain.Chunk
		if err := json.Unmarshal(scanner.Bytes(), &ch); err != nil {
			return nil, fmt.Errorf("%w: bad chunk record %d: %v", domain.ErrCorpusCorrupt, len(chunks), err)
		}
		if len(ch.Embedding) != m.Dimension {
			return nil, fmt.Errorf("%w: chunk %s has dimension %d, want %d",
				domain.ErrCorpusCorrupt, ch.ID, len(ch.Embedding), m.Dimension)
		}
		chunks = append(chunks, ch)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(chunks) != m.Chunks {
		return nil, fmt.Errorf("%w: manifest says %d chunks, found %d", domain.ErrCorpusCorrupt, m.Chunks, len(chunks))
	}
	return New(m.Embedder, m.Dimension, chunks)
}
