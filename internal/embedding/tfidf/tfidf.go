package tfidf

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"

	"docrag/internal/domain"
)

// Embedder is an unfitted TF-IDF vectorizer. It implements domain.CorpusFitter:
// each document gets its own vocabulary via Fit, which leaves the Embedder
// itself unchanged and safe for concurrent use.
type Embedder struct {
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewEmbedder creates an unfitted TF-IDF embedder.
func NewEmbedder() *Embedder {
	return &Embedder{
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`),
		stopwords:    defaultStopwords(),
	}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "tfidf" }

// Dimension is unknown until the embedder is fitted.
func (e *Embedder) Dimension() int { return 0 }

// Embed fails: an unfitted embedder has no vocabulary.
func (e *Embedder) Embed(context.Context, string) ([]float32, error) {
	return nil, &domain.ProviderError{Op: "tfidf embed", Err: errors.New("tfidf embedder not fitted")}
}

// Fit builds the vocabulary and IDF values from the provided corpus.
func (e *Embedder) Fit(corpus []string) (domain.Embedder, error) {
	if len(corpus) == 0 {
		return nil, domain.InvalidInputf("empty corpus for TF-IDF fit")
	}
	// Build vocabulary and document frequencies
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	// Create stable ordering for vocabulary
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	if len(terms) == 0 {
		return nil, domain.InvalidInputf("no tokens found in corpus; ensure tokenizer supports your language")
	}
	m := &Model{
		parent:     e,
		vocabulary: make(map[string]int, len(terms)),
		idf:        make([]float64, len(terms)),
	}
	n := float64(len(corpus))
	for i, term := range terms {
		m.vocabulary[term] = i
		// Smoothed IDF
		m.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	return m, nil
}

func (e *Embedder) tokenize(text string) []string {
	raw := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(raw) == 0 {
		return nil
	}
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Model is a TF-IDF embedder fitted to one corpus. It is immutable.
type Model struct {
	parent     *Embedder
	vocabulary map[string]int
	idf        []float64
}

// Name returns the identifier of this embedder implementation.
func (m *Model) Name() string { return "tfidf" }

// Dimension is the vocabulary size.
func (m *Model) Dimension() int { return len(m.idf) }

// Embed computes the L2-normalized TF-IDF vector of text. Text with no known
// terms maps to the zero vector.
func (m *Model) Embed(_ context.Context, text string) ([]float32, error) {
	tf := make(map[int]int)
	total := 0
	for _, tok := range m.parent.tokenize(text) {
		if idx, ok := m.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	vec := make([]float32, len(m.idf))
	if total == 0 {
		return vec, nil
	}
	weights := make([]float64, len(m.idf))
	norm := 0.0
	for idx, count := range tf {
		w := float64(count) / float64(total) * m.idf[idx]
		weights[idx] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for idx := range tf {
		vec[idx] = float32(weights[idx] / norm)
	}
	return vec, nil
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"what", "which", "who", "how", "why", "when", "where", "does", "do", "did",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
