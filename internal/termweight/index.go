// Package termweight fits corpus-wide TF-IDF term weights once and scores
// queries against the frozen vocabulary.
package termweight

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"hymnsearch/internal/domain"
	"hymnsearch/internal/text"
)

// Options bound the fitted vocabulary by document frequency.
type Options struct {
	// MaxDocFraction drops terms present in more than this fraction of documents.
	MaxDocFraction float64
	// MinDocCount drops terms present in fewer than this many documents.
	MinDocCount int
}

// DefaultOptions returns the thresholds the corpus was tuned with.
func DefaultOptions() Options {
	return Options{MaxDocFraction: 0.75, MinDocCount: 5}
}

// Index is an immutable fitted vocabulary with smoothed IDF weights.
type Index struct {
	vocabulary map[string]int
	terms      []string
	idf        []float64
	documents  int
}

// Fit preprocesses corpusText, treats every surviving line as a document and
// computes IDF for each term within the configured bounds.
func Fit(corpusText string, opts Options) (*Index, error) {
	if opts.MaxDocFraction <= 0 || opts.MaxDocFraction > 1 {
		return nil, fmt.Errorf("max document fraction must be in (0, 1], got %v", opts.MaxDocFraction)
	}
	if opts.MinDocCount < 1 {
		opts.MinDocCount = 1
	}
	docs := text.Preprocess(corpusText)
	if len(docs) == 0 {
		return nil, errors.New("empty corpus for term weights")
	}
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{}, len(doc))
		for _, tok := range doc {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	n := float64(len(docs))
	maxCount := opts.MaxDocFraction * n
	terms := make([]string, 0, len(df))
	for term, count := range df {
		if count < opts.MinDocCount || float64(count) > maxCount {
			continue
		}
		terms = append(terms, term)
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("no terms left after document frequency bounds (docs=%d, max_df=%v, min_df=%d)",
			len(docs), opts.MaxDocFraction, opts.MinDocCount)
	}
	// Stable ordering for vocabulary
	sort.Strings(terms)
	idx := &Index{
		vocabulary: make(map[string]int, len(terms)),
		terms:      terms,
		idf:        make([]float64, len(terms)),
		documents:  len(docs),
	}
	for i, term := range terms {
		idx.vocabulary[term] = i
		// Smoothed IDF
		idx.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	return idx, nil
}

// Len returns the vocabulary size.
func (x *Index) Len() int { return len(x.terms) }

// Documents returns how many documents the index was fitted over.
func (x *Index) Documents() int { return x.documents }

// Vocabulary returns the fitted terms in sorted order.
func (x *Index) Vocabulary() []string {
	out := make([]string, len(x.terms))
	copy(out, x.terms)
	return out
}

// Weight returns the IDF weight of term, or 0 when it is outside the vocabulary.
func (x *Index) Weight(term string) float64 {
	if i, ok := x.vocabulary[term]; ok {
		return x.idf[i]
	}
	return 0
}

// Score weighs the distinct vocabulary terms of query by count × IDF,
// L2-normalized, sorted by weight descending. Equal weights fall back to
// vocabulary order.
func (x *Index) Score(query string) []domain.TermWeight {
	counts := make(map[string]int)
	var order []string
	for _, tok := range text.Terms(query) {
		if _, ok := x.vocabulary[tok]; !ok {
			continue
		}
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}
	if len(order) == 0 {
		return nil
	}
	out := make([]domain.TermWeight, len(order))
	norm := 0.0
	for i, term := range order {
		w := float64(counts[term]) * x.Weight(term)
		out[i] = domain.TermWeight{Term: term, Weight: w}
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for i := range out {
		out[i].Weight /= norm
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return x.vocabulary[out[i].Term] < x.vocabulary[out[j].Term]
	})
	return out
}
