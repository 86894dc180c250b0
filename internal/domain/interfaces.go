package domain

import "context"

// PassageID is the stable label of a corpus passage. Labels are opaque and
// need not be contiguous.
type PassageID string

// Display renders the label the way the web client shows hymns ("RV 1.1").
func (id PassageID) Display() string {
	return "RV " + string(id)
}

// Passage is one retrievable unit of corpus text.
type Passage struct {
	Label     PassageID
	Text      string
	Embedding []float32
}

// RankedResult is a passage scored against a search string.
type RankedResult struct {
	Label    PassageID
	Score    float64
	Text     string
	Position int
}

// Context is the deduplicated grounding material handed to the summarizer.
type Context struct {
	Results []RankedResult
	Text    string
}

// TermWeight pairs a vocabulary term with its weight in a query.
type TermWeight struct {
	Term   string
	Weight float64
}

// Answer is the pipeline output for one request.
type Answer struct {
	Context       Context
	Summary       string
	SummaryStatus SummaryStatus
	RefinedQuery  string
}

// SummaryStatus reports what happened to the summarization stage.
type SummaryStatus string

const (
	SummaryOK      SummaryStatus = "ok"
	SummarySkipped SummaryStatus = "skipped"
	SummaryFailed  SummaryStatus = "failed"
)

// Encoder turns a search string into a dense vector of a fixed dimension.
type Encoder interface {
	Name() string
	Encode(ctx context.Context, text string) ([]float32, error)
}

// Ranker orders corpus passages by similarity to a search string.
type Ranker interface {
	Rank(ctx context.Context, search string, topK int) ([]RankedResult, error)
}

// Generator is the external text generation service.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Summarizer produces a summary of passages grounded for a query.
type Summarizer interface {
	Summarize(ctx context.Context, query, passages string) (string, SummaryStatus)
}

// Refiner rewrites a raw query into a search string.
type Refiner interface {
	Refine(raw string) string
}
