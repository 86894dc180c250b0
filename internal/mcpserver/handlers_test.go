package mcpserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hymnsearch/internal/domain"
	"hymnsearch/internal/refiner"
	"hymnsearch/internal/service"
)

type mockSearcher struct {
	got service.Request
	err error
}

func (m *mockSearcher) Search(_ context.Context, req service.Request) (*domain.Answer, error) {
	m.got = req
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Answer{
		Context: domain.Context{Results: []domain.RankedResult{
			{Label: "10.129.1", Score: 0.9, Text: "Then was not non-existent nor existent\n"},
		}},
		Summary:       "Creation began in darkness.",
		SummaryStatus: domain.SummaryOK,
		RefinedQuery:  "what is creation",
	}, nil
}

type mockRefiner struct{}

func (mockRefiner) RefineDetailed(raw string) refiner.Result {
	return refiner.Result{
		Query: "agni fire",
		Terms: []domain.TermWeight{{Term: "agni", Weight: 0.8}, {Term: "fire", Weight: 0.6}},
	}
}

func newHandlers(s Searcher) *Handlers {
	return NewHandlers(s, mockRefiner{}, 10, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestSearchHymns(t *testing.T) {
	s := &mockSearcher{}
	h := newHandlers(s)

	res, _, err := h.SearchHymns(context.Background(), nil, SearchArgs{Query: "what is creation"})
	require.NoError(t, err)

	assert.Equal(t, 10, s.got.TopK)
	assert.True(t, s.got.IncludeSummary)
	out := text(t, res)
	assert.Contains(t, out, "Creation began in darkness.")
	assert.Contains(t, out, "1. RV 10.129.1 (score 0.9000)")
}

func TestSearchHymnsWithoutSummary(t *testing.T) {
	s := &mockSearcher{}
	h := newHandlers(s)
	off := false

	_, _, err := h.SearchHymns(context.Background(), nil, SearchArgs{Query: "agni", TopK: 3, IncludeSummary: &off})
	require.NoError(t, err)
	assert.Equal(t, 3, s.got.TopK)
	assert.False(t, s.got.IncludeSummary)
}

func TestSearchHymnsErrors(t *testing.T) {
	h := newHandlers(&mockSearcher{err: domain.ErrPipelineTimeout})

	_, _, err := h.SearchHymns(context.Background(), nil, SearchArgs{Query: "  "})
	assert.Error(t, err)

	_, _, err = h.SearchHymns(context.Background(), nil, SearchArgs{Query: "agni"})
	assert.True(t, errors.Is(err, domain.ErrPipelineTimeout))
}

func TestRefineQuery(t *testing.T) {
	h := newHandlers(&mockSearcher{})

	res, _, err := h.RefineQuery(context.Background(), nil, RefineArgs{Query: "Agni and the fire"})
	require.NoError(t, err)
	assert.Equal(t, "refined: agni fire\n- agni 0.8000\n- fire 0.6000\n", text(t, res))
}

func TestNewServerRegistersTools(t *testing.T) {
	assert.NotNil(t, NewServer(newHandlers(&mockSearcher{})))
}
