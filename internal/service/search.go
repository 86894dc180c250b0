// Package service runs the refine, rank, assemble and summarize pipeline for
// one request under the request guard.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"hymnsearch/internal/assembler"
	"hymnsearch/internal/domain"
	"hymnsearch/internal/guard"
	"hymnsearch/internal/refiner"
)

// DefaultTopK is used by callers that do not choose a result count.
const DefaultTopK = 10

// Request is one pipeline invocation. Each entry of Queries is refined and
// ranked separately; the assembler dedupes across them.
type Request struct {
	Queries        []string `validate:"required,min=1,max=8,dive,max=2000"`
	TopK           int
	IncludeSummary bool
}

// Refiner is the query rewriting stage.
type Refiner interface {
	RefineDetailed(raw string) refiner.Result
}

type Deps struct {
	Refiner    Refiner
	Ranker     domain.Ranker
	Summarizer domain.Summarizer
	// SummaryUnavailable explains why Summarizer is nil, e.g. a missing
	// generation credential.
	SummaryUnavailable error
	Guard              *guard.Guard
	Logger             *slog.Logger
}

type SearchService struct {
	refiner     Refiner
	ranker      domain.Ranker
	summarizer  domain.Summarizer
	unavailable error
	guard       *guard.Guard
	log         *slog.Logger
	validate    *validator.Validate
}

func New(d Deps) *SearchService {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Guard == nil {
		d.Guard = guard.New(guard.Config{}, d.Logger)
	}
	if d.Summarizer == nil && d.SummaryUnavailable == nil {
		d.SummaryUnavailable = errors.New("no generator configured")
	}
	return &SearchService{
		refiner:     d.Refiner,
		ranker:      d.Ranker,
		summarizer:  d.Summarizer,
		unavailable: d.SummaryUnavailable,
		guard:       d.Guard,
		log:         d.Logger,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// SummaryAvailable reports whether requests may ask for a summary.
func (s *SearchService) SummaryAvailable() bool { return s.summarizer != nil }

// Search validates req and runs the pipeline. Input errors are reported before
// any work is scheduled.
func (s *SearchService) Search(ctx context.Context, req Request) (*domain.Answer, error) {
	log := s.log.With("request_id", uuid.New().String())

	queries, err := s.check(req)
	if err != nil {
		log.Info("request rejected", "error", err)
		return nil, err
	}

	start := time.Now()
	ans, err := guard.Run(ctx, s.guard, func(ctx context.Context) (*domain.Answer, error) {
		return s.run(ctx, log, queries, req)
	})
	if err != nil {
		log.Error("search failed", "query", queries, "elapsed", time.Since(start), "error", err)
		return nil, err
	}
	log.Info("search done",
		"query", queries,
		"refined", ans.RefinedQuery,
		"top_k", req.TopK,
		"results", len(ans.Context.Results),
		"summary", ans.SummaryStatus,
		"elapsed", time.Since(start),
	)
	return ans, nil
}

func (s *SearchService) check(req Request) ([]string, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	queries := make([]string, 0, len(req.Queries))
	for _, q := range req.Queries {
		if strings.TrimSpace(q) == "" {
			return nil, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidInput)
		}
		queries = append(queries, q)
	}
	if req.IncludeSummary && s.summarizer == nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigurationMissing, s.unavailable)
	}
	return queries, nil
}

func (s *SearchService) run(ctx context.Context, log *slog.Logger, queries []string, req Request) (*domain.Answer, error) {
	var ranked []domain.RankedResult
	refined := make([]string, 0, len(queries))
	for _, q := range queries {
		r := s.refiner.RefineDetailed(q)
		log.Debug("query refined", "query", q, "refined", r.Query, "fallback", r.Fallback)
		refined = append(refined, r.Query)

		res, err := s.ranker.Rank(ctx, r.Query, req.TopK)
		if err != nil {
			return nil, fmt.Errorf("rank %q: %w", r.Query, err)
		}
		ranked = append(ranked, res...)
	}

	ans := &domain.Answer{
		Context:       assembler.Assemble(ranked),
		RefinedQuery:  strings.Join(refined, " | "),
		SummaryStatus: domain.SummarySkipped,
	}
	if !req.IncludeSummary {
		return ans, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ans.Summary, ans.SummaryStatus = s.summarizer.Summarize(ctx, strings.Join(queries, "; "), ans.Context.Text)
	return ans, nil
}
