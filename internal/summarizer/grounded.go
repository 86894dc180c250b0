// Package summarizer produces the grounded summary of an assembled context and
// an extractive digest used by the console.
package summarizer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"hymnsearch/internal/domain"
)

type Config struct {
	Domain string
	Mode   Mode
}

// Grounded asks a Generator for a summary constrained to the given context.
type Grounded struct {
	gen    domain.Generator
	domain string
	mode   Mode
	log    *slog.Logger
}

func New(gen domain.Generator, cfg Config, log *slog.Logger) *Grounded {
	if cfg.Domain == "" {
		cfg.Domain = DefaultDomain
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeParagraph
	}
	if log == nil {
		log = slog.Default()
	}
	return &Grounded{gen: gen, domain: cfg.Domain, mode: cfg.Mode, log: log}
}

// Summarize never returns an error: a failed generation call or a blank reply
// is logged and replaced with Apology. An empty context yields no summary.
func (g *Grounded) Summarize(ctx context.Context, query, passages string) (string, domain.SummaryStatus) {
	if passages == "" {
		return "", domain.SummarySkipped
	}
	start := time.Now()
	raw, err := g.gen.Generate(ctx, BuildPrompt(g.domain, g.mode, query, passages))
	if err != nil {
		g.log.Error("summary generation failed", "query", query, "elapsed", time.Since(start), "error", err)
		return Apology, domain.SummaryFailed
	}
	if strings.TrimSpace(raw) == "" {
		g.log.Error("summary generation returned no text", "query", query, "elapsed", time.Since(start))
		return Apology, domain.SummaryFailed
	}
	g.log.Debug("summary generated", "query", query, "elapsed", time.Since(start), "chars", len(raw))
	return Format(g.mode, raw), domain.SummaryOK
}

// Refusal returns the refusal sentence for query in this summarizer's domain.
func (g *Grounded) Refusal(query string) string { return Refusal(g.domain, query) }
