// Package server exposes the search pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"hymnsearch/internal/assembler"
	"hymnsearch/internal/domain"
	"hymnsearch/internal/service"
)

const maxBodyBytes = 1 << 20

// Searcher runs one pipeline invocation.
type Searcher interface {
	Search(ctx context.Context, req service.Request) (*domain.Answer, error)
}

type Config struct {
	Addr        string
	DefaultTopK int
	CorpusSize  int
}

type Server struct {
	search Searcher
	cfg    Config
	log    *slog.Logger
}

func New(s Searcher, cfg Config, log *slog.Logger) *Server {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = service.DefaultTopK
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{search: s, cfg: cfg, log: log}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /semantic-search", s.handleSearch)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type searchRequest struct {
	Query      string `json:"query"`
	TopK       *int   `json:"top_k"`
	IncludeRAG *bool  `json:"include_rag"`
	Debug      bool   `json:"debug"`
}

// Result is one ranked passage in a Response.
type Result struct {
	Sukta string  `json:"sukta"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Response is the JSON body of a successful search.
type Response struct {
	Results       []Result          `json:"results"`
	RAGSummary    string            `json:"rag_summary"`
	SummaryStatus string            `json:"summary_status"`
	RefinedQuery  string            `json:"refined_query"`
	TextDict      map[string]string `json:"text_dict,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var in searchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&in); err != nil {
		s.writeError(w, fmt.Errorf("%w: malformed JSON body: %v", domain.ErrInvalidInput, err))
		return
	}

	req := service.Request{
		Queries:        []string{in.Query},
		TopK:           s.cfg.DefaultTopK,
		IncludeSummary: true,
	}
	if in.TopK != nil {
		req.TopK = *in.TopK
	}
	if in.IncludeRAG != nil {
		req.IncludeSummary = *in.IncludeRAG
	}

	ans, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewResponse(ans, in.Debug))
}

// NewResponse renders ans; debug adds the label to text mapping.
func NewResponse(ans *domain.Answer, debug bool) Response {
	out := Response{
		Results:       make([]Result, 0, len(ans.Context.Results)),
		RAGSummary:    ans.Summary,
		SummaryStatus: string(ans.SummaryStatus),
		RefinedQuery:  ans.RefinedQuery,
	}
	for _, r := range ans.Context.Results {
		out.Results = append(out.Results, Result{Sukta: r.Label.Display(), Text: r.Text, Score: r.Score})
	}
	if debug {
		out.TextDict = make(map[string]string, len(out.Results))
		for label, text := range assembler.TextByLabel(ans.Context) {
			out.TextDict[label.Display()] = text
		}
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "passages": s.cfg.CorpusSize})
}

// StatusFor maps pipeline errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConfigurationMissing):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrPipelineTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("search request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
