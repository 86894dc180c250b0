package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hymnsearch/internal/domain"
	"hymnsearch/internal/service"
)

type fakeSearcher struct {
	got    service.Request
	answer *domain.Answer
	err    error
}

func (f *fakeSearcher) Search(_ context.Context, req service.Request) (*domain.Answer, error) {
	f.got = req
	return f.answer, f.err
}

func newTestServer(f *fakeSearcher) *httptest.Server {
	s := New(f, Config{DefaultTopK: 10, CorpusSize: 1028}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return httptest.NewServer(s.Handler())
}

func post(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url+"/semantic-search", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func creationAnswer() *domain.Answer {
	return &domain.Answer{
		Context: domain.Context{
			Results: []domain.RankedResult{
				{Label: "10.129.1", Score: 0.91, Text: "Then was not non-existent nor existent\n"},
				{Label: "10.121.1", Score: 0.74, Text: "In the beginning rose Hiranyagarbha\n"},
			},
		},
		Summary:       "Creation began in darkness.",
		SummaryStatus: domain.SummaryOK,
		RefinedQuery:  "what is creation",
	}
}

func TestSearchDefaults(t *testing.T) {
	f := &fakeSearcher{answer: creationAnswer()}
	srv := newTestServer(f)
	defer srv.Close()

	resp, out := post(t, srv.URL, `{"query":"what is creation"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, service.Request{Queries: []string{"what is creation"}, TopK: 10, IncludeSummary: true}, f.got)

	results := out["results"].([]any)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)
	assert.Equal(t, "RV 10.129.1", first["sukta"])
	assert.InDelta(t, 0.91, first["score"], 1e-9)
	assert.Equal(t, "Creation began in darkness.", out["rag_summary"])
	assert.Equal(t, "ok", out["summary_status"])
	assert.Equal(t, "what is creation", out["refined_query"])
	assert.NotContains(t, out, "text_dict")
}

func TestSearchOptions(t *testing.T) {
	f := &fakeSearcher{answer: creationAnswer()}
	srv := newTestServer(f)
	defer srv.Close()

	_, out := post(t, srv.URL, `{"query":"agni","top_k":3,"include_rag":false,"debug":true}`)
	assert.Equal(t, 3, f.got.TopK)
	assert.False(t, f.got.IncludeSummary)
	assert.Equal(t, map[string]any{
		"RV 10.129.1": "Then was not non-existent nor existent\n",
		"RV 10.121.1": "In the beginning rose Hiranyagarbha\n",
	}, out["text_dict"])
}

func TestSearchErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: query must not be empty", domain.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: LLM_API_KEY", domain.ErrConfigurationMissing), http.StatusServiceUnavailable},
		{fmt.Errorf("%w after 60s", domain.ErrPipelineTimeout), http.StatusGatewayTimeout},
		{errors.New("qdrant unavailable"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			srv := newTestServer(&fakeSearcher{err: tt.err})
			defer srv.Close()

			resp, out := post(t, srv.URL, `{"query":"q"}`)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Equal(t, tt.err.Error(), out["error"])
		})
	}
}

func TestSearchMalformedBody(t *testing.T) {
	srv := newTestServer(&fakeSearcher{})
	defer srv.Close()

	resp, out := post(t, srv.URL, `{"query":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["error"], "invalid input")
}

func TestSearchGenerationFailureIsPartialSuccess(t *testing.T) {
	ans := creationAnswer()
	ans.Summary = "An error occurred while generating the summary."
	ans.SummaryStatus = domain.SummaryFailed
	srv := newTestServer(&fakeSearcher{answer: ans})
	defer srv.Close()

	resp, out := post(t, srv.URL, `{"query":"what is creation"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "failed", out["summary_status"])
	assert.Len(t, out["results"], 2)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&fakeSearcher{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, float64(1028), out["passages"])
}

func TestSearchRejectsGet(t *testing.T) {
	srv := newTestServer(&fakeSearcher{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/semantic-search")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
