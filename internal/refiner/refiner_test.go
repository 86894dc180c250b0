package refiner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hymnsearch/internal/domain"
)

type fakeScorer map[string][]domain.TermWeight

func (f fakeScorer) Score(q string) []domain.TermWeight { return f[q] }

func tw(terms ...string) []domain.TermWeight {
	out := make([]domain.TermWeight, len(terms))
	for i, t := range terms {
		out[i] = domain.TermWeight{Term: t, Weight: float64(len(terms) - i)}
	}
	return out
}

func TestRefine(t *testing.T) {
	scorer := fakeScorer{
		"Agni and Indra":   tw("indra", "agni"),
		"Only Soma":        tw("soma"),
		"many words":       tw("a1", "a2", "a3", "a4", "a5", "a6", "a7"),
		"What Is Creation": nil,
	}
	r := New(scorer, Config{})

	tests := []struct {
		name     string
		raw      string
		want     string
		fallback bool
	}{
		{"two terms rewrite", "Agni and Indra", "indra agni", false},
		{"one term falls back", "Only Soma", "only soma", true},
		{"no terms fall back verbatim lowercase", "What Is Creation", "what is creation", true},
		{"caps at five terms", "many words", "a1 a2 a3 a4 a5", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.RefineDetailed(tt.raw)
			assert.Equal(t, tt.want, res.Query)
			assert.Equal(t, tt.fallback, res.Fallback)
			assert.Equal(t, tt.want, r.Refine(tt.raw))
		})
	}
}

func TestRefineCustomConfig(t *testing.T) {
	scorer := fakeScorer{"q": tw("x", "y", "z")}
	r := New(scorer, Config{MinTerms: 4, TopTerms: 2})
	assert.Equal(t, "q", r.Refine("q"))

	r = New(scorer, Config{MinTerms: 1, TopTerms: 2})
	assert.Equal(t, "x y", r.Refine("q"))
}
