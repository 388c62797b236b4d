package pipeline

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"ragpipe/internal/domain"
)

// DefaultMaxContextChars bounds the concatenated context block passed to the
// synthesizer.
const DefaultMaxContextChars = 8000

// Pipeline wires embedder, retriever, and synthesizer into the end-to-end
// call: embed query, rank corpus, synthesize a grounded answer.
type Pipeline struct {
	embedder        domain.Embedder
	retriever       domain.Retriever
	synthesizer     domain.Synthesizer
	cutoff          *float64
	maxContextChars int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCutoff drops retrieved chunks scoring strictly below the cutoff, after
// top-k truncation.
func WithCutoff(cutoff float64) Option {
	return func(p *Pipeline) { c := cutoff; p.cutoff = &c }
}

// WithMaxContextChars bounds the context block size.
func WithMaxContextChars(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxContextChars = n
		}
	}
}

func New(embedder domain.Embedder, retriever domain.Retriever, synthesizer domain.Synthesizer, opts ...Option) *Pipeline {
	p := &Pipeline{
		embedder:        embedder,
		retriever:       retriever,
		synthesizer:     synthesizer,
		maxContextChars: DefaultMaxContextChars,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Answer runs the full pipeline for the query: embed, retrieve top k, build a
// bounded context block, and synthesize. The returned answer carries the cited
// chunks so callers can show provenance. When retrieval finds nothing, the
// synthesizer is still called with an empty context and NoContext is set.
func (p *Pipeline) Answer(query string, k int) (domain.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Answer{}, fmt.Errorf("%w: empty query", domain.ErrInvalidArgument)
	}
	if k <= 0 {
		return domain.Answer{}, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}

	queryVec, err := p.embedder.Embed(query)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("%w: embed query: %v", domain.ErrUpstream, err)
	}
	results, err := p.retriever.Retrieve(queryVec, k, p.cutoff)
	if err != nil {
		return domain.Answer{}, err
	}

	cited, contextBlock := p.buildContext(results)
	log.Debug("retrieved context", "query", query, "candidates", len(results), "cited", len(cited))

	text, err := p.synthesizer.Complete(query, contextBlock)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("%w: synthesize: %v", domain.ErrUpstream, err)
	}
	return domain.Answer{
		Text:      text,
		Cited:     cited,
		NoContext: len(cited) == 0,
	}, nil
}

// buildContext concatenates chunk texts, each tagged with its source, bounded
// by the context budget. Lowest-ranked chunks are dropped first; the top
// result is always kept.
func (p *Pipeline) buildContext(results []domain.RankedResult) ([]domain.RankedResult, string) {
	var b strings.Builder
	cited := make([]domain.RankedResult, 0, len(results))
	for _, r := range results {
		tag := fmt.Sprintf("[%s#%d] ", r.Chunk.Source.Path, r.Chunk.Source.Index)
		entry := tag + r.Chunk.Text + "\n\n"
		if len(cited) > 0 && b.Len()+len(entry) > p.maxContextChars {
			break
		}
		b.WriteString(entry)
		cited = append(cited, r)
	}
	return cited, strings.TrimSpace(b.String())
}

// Keywords runs the pipeline with the same retrieval contract as Answer and
// parses the synthesizer response into a term list. The synthesizer is expected
// to produce a keyword-style response (see the keyword prompt variants).
func (p *Pipeline) Keywords(query string, k int) ([]string, domain.Answer, error) {
	ans, err := p.Answer(query, k)
	if err != nil {
		return nil, domain.Answer{}, err
	}
	return SplitTerms(ans.Text), ans, nil
}

// SplitTerms parses a synthesizer keyword response into individual terms.
// Accepts comma- or newline-separated lists, with optional list bullets.
func SplitTerms(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		t := strings.TrimSpace(f)
		t = strings.TrimLeft(t, "-*• \t")
		t = strings.TrimSuffix(t, ".")
		if t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}
