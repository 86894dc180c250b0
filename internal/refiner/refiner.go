// Package refiner pivots short modern-vocabulary queries onto the corpus's
// own high-weight terms before they are embedded.
package refiner

import (
	"strings"

	"hymnsearch/internal/domain"
)

// Scorer weighs the vocabulary terms of a query.
type Scorer interface {
	Score(query string) []domain.TermWeight
}

// Config controls when and how a query is rewritten.
type Config struct {
	// MinTerms is the number of distinct weighted terms needed to rewrite.
	MinTerms int
	// TopTerms caps how many terms the rewritten query keeps.
	TopTerms int
}

// DefaultConfig returns MinTerms=2, TopTerms=5.
func DefaultConfig() Config {
	return Config{MinTerms: 2, TopTerms: 5}
}

// Result describes one refinement.
type Result struct {
	Query    string
	Terms    []domain.TermWeight
	Fallback bool
}

// TermRefiner rewrites queries using a fitted term-weight scorer.
type TermRefiner struct {
	scorer Scorer
	cfg    Config
}

// New creates a refiner. Zero config fields take their defaults.
func New(scorer Scorer, cfg Config) *TermRefiner {
	def := DefaultConfig()
	if cfg.MinTerms <= 0 {
		cfg.MinTerms = def.MinTerms
	}
	if cfg.TopTerms <= 0 {
		cfg.TopTerms = def.TopTerms
	}
	return &TermRefiner{scorer: scorer, cfg: cfg}
}

// Refine returns the refined search string for raw.
func (r *TermRefiner) Refine(raw string) string {
	return r.RefineDetailed(raw).Query
}

// RefineDetailed joins the top weighted terms of raw, or falls back to the
// lowercased raw query when too few terms match the vocabulary.
func (r *TermRefiner) RefineDetailed(raw string) Result {
	scored := r.scorer.Score(raw)
	if len(scored) < r.cfg.MinTerms {
		return Result{Query: strings.ToLower(raw), Terms: scored, Fallback: true}
	}
	if len(scored) > r.cfg.TopTerms {
		scored = scored[:r.cfg.TopTerms]
	}
	terms := make([]string, len(scored))
	for i, tw := range scored {
		terms[i] = tw.Term
	}
	return Result{Query: strings.Join(terms, " "), Terms: scored}
}
