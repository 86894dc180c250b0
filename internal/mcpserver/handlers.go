// Package mcpserver exposes hymn search as MCP tools over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"hymnsearch/internal/domain"
	"hymnsearch/internal/refiner"
	"hymnsearch/internal/service"
)

// SearchArgs defines the arguments for the search_hymns tool.
type SearchArgs struct {
	Query          string `json:"query" jsonschema_description:"Natural-language question about the hymns (e.g. 'what is creation')"`
	TopK           int    `json:"top_k,omitempty" jsonschema_description:"Number of passages to retrieve (default 10)"`
	IncludeSummary *bool  `json:"include_summary,omitempty" jsonschema_description:"Generate a grounded summary (default true)"`
}

// RefineArgs defines the arguments for the refine_query tool.
type RefineArgs struct {
	Query string `json:"query" jsonschema_description:"Raw query to rewrite into corpus vocabulary"`
}

type Searcher interface {
	Search(ctx context.Context, req service.Request) (*domain.Answer, error)
}

type Refiner interface {
	RefineDetailed(raw string) refiner.Result
}

// Handlers wraps the pipeline and provides MCP tool handlers.
type Handlers struct {
	search      Searcher
	refiner     Refiner
	defaultTopK int
	logger      *slog.Logger
}

func NewHandlers(s Searcher, r Refiner, defaultTopK int, logger *slog.Logger) *Handlers {
	if defaultTopK <= 0 {
		defaultTopK = service.DefaultTopK
	}
	return &Handlers{search: s, refiner: r, defaultTopK: defaultTopK, logger: logger}
}

// SearchHymns handles the search_hymns tool call.
func (h *Handlers) SearchHymns(ctx context.Context, _ *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Query) == "" {
		h.logger.Error("search_hymns: query is required")
		return nil, nil, fmt.Errorf("query is required")
	}
	req := service.Request{
		Queries:        []string{args.Query},
		TopK:           args.TopK,
		IncludeSummary: true,
	}
	if req.TopK == 0 {
		req.TopK = h.defaultTopK
	}
	if args.IncludeSummary != nil {
		req.IncludeSummary = *args.IncludeSummary
	}

	ans, err := h.search.Search(ctx, req)
	if err != nil {
		h.logger.Error("search_hymns: failed", "query", args.Query, "error", err)
		return nil, nil, err
	}
	h.logger.Info("search_hymns: success", "query", args.Query, "results", len(ans.Context.Results))

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: renderAnswer(ans)}},
	}, nil, nil
}

// RefineQuery handles the refine_query tool call.
func (h *Handlers) RefineQuery(_ context.Context, _ *mcp.CallToolRequest, args RefineArgs) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Query) == "" {
		return nil, nil, fmt.Errorf("query is required")
	}
	res := h.refiner.RefineDetailed(args.Query)

	var b strings.Builder
	fmt.Fprintf(&b, "refined: %s\n", res.Query)
	if res.Fallback {
		b.WriteString("fallback: too few vocabulary terms, query kept as typed\n")
	}
	for _, tw := range res.Terms {
		fmt.Fprintf(&b, "- %s %.4f\n", tw.Term, tw.Weight)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: b.String()}},
	}, nil, nil
}

func renderAnswer(ans *domain.Answer) string {
	var b strings.Builder
	if ans.SummaryStatus != domain.SummarySkipped {
		fmt.Fprintf(&b, "Summary (%s):\n%s\n\n", ans.SummaryStatus, ans.Summary)
	}
	fmt.Fprintf(&b, "Refined query: %s\n\n", ans.RefinedQuery)
	for i, r := range ans.Context.Results {
		fmt.Fprintf(&b, "%d. %s (score %.4f)\n%s\n", i+1, r.Label.Display(), r.Score, strings.TrimRight(r.Text, "\r\n"))
	}
	return b.String()
}
