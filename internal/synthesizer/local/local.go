package local

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// Synthesizer is an offline extractive fallback: instead of calling a
// generative model it ranks the context by token frequency. In answer mode it
// returns the best sentences (biased toward query-term overlap); in keyword
// mode it returns the most frequent non-stopword terms.
type Synthesizer struct {
	keywords     bool
	maxSentences int
	maxKeywords  int
	tokenPattern *regexp.Regexp
	sentenceRe   *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewAnswerer creates an extractive answer synthesizer returning up to
// maxSentences sentences.
func NewAnswerer(maxSentences int) *Synthesizer {
	if maxSentences <= 0 {
		maxSentences = 5
	}
	return newSynthesizer(false, maxSentences, 0)
}

// NewKeyworder creates an extractive keyword synthesizer returning up to
// maxKeywords comma-separated terms.
func NewKeyworder(maxKeywords int) *Synthesizer {
	if maxKeywords <= 0 {
		maxKeywords = 10
	}
	return newSynthesizer(true, 0, maxKeywords)
}

func newSynthesizer(keywords bool, maxSentences, maxKeywords int) *Synthesizer {
	return &Synthesizer{
		keywords:     keywords,
		maxSentences: maxSentences,
		maxKeywords:  maxKeywords,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		sentenceRe:   regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
		stopwords:    defaultStopwords(),
	}
}

// Complete produces an extractive answer or keyword list from the context.
func (s *Synthesizer) Complete(query, contextBlock string) (string, error) {
	if strings.TrimSpace(contextBlock) == "" {
		if s.keywords {
			return "", nil
		}
		return "I cannot answer from the provided context.", nil
	}
	if s.keywords {
		return s.extractKeywords(contextBlock), nil
	}
	return s.extractAnswer(query, contextBlock), nil
}

func (s *Synthesizer) extractKeywords(text string) string {
	freq := map[string]int{}
	var order []string
	for _, tok := range s.tokens(text) {
		if _, ok := s.stopwords[tok]; ok {
			continue
		}
		if freq[tok] == 0 {
			order = append(order, tok)
		}
		freq[tok]++
	}
	sort.SliceStable(order, func(i, j int) bool { return freq[order[i]] > freq[order[j]] })
	if len(order) > s.maxKeywords {
		order = order[:s.maxKeywords]
	}
	return strings.Join(order, ", ")
}

func (s *Synthesizer) extractAnswer(query, text string) string {
	sentences := s.sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}
	// Corpus-wide token frequencies
	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range s.tokens(sent) {
			if _, ok := s.stopwords[tok]; ok {
				continue
			}
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		if v > maxF {
			maxF = v
		}
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}
	queryTokens := map[string]struct{}{}
	for _, tok := range s.tokens(query) {
		queryTokens[tok] = struct{}{}
	}
	// Score sentences by normalized frequency plus query overlap
	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(sentences))
	for i, sent := range sentences {
		toks := s.tokens(sent)
		sscore := 0.0
		for _, tok := range toks {
			if v, ok := freq[tok]; ok {
				sscore += v
			}
			if _, ok := queryTokens[tok]; ok {
				sscore += 1.0
			}
		}
		if l := float64(len(toks)); l > 0 {
			sscore /= math.Sqrt(l)
		}
		scores[i] = pair{i, sscore}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	n := s.maxSentences
	if n > len(scores) {
		n = len(scores)
	}
	// Keep original order among selected
	selected := make([]int, n)
	for i := 0; i < n; i++ {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	var out []string
	for _, idx := range selected {
		out = append(out, strings.TrimSpace(sentences[idx]))
	}
	return strings.Join(out, " ")
}

func (s *Synthesizer) tokens(text string) []string {
	return s.tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
