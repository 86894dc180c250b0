package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"hymnsearch/internal/config"
	"hymnsearch/internal/corpus"
	"hymnsearch/internal/domain"
	"hymnsearch/internal/encoder"
	"hymnsearch/internal/generation"
	"hymnsearch/internal/guard"
	"hymnsearch/internal/ranker"
	"hymnsearch/internal/ranker/qdrant"
	"hymnsearch/internal/refiner"
	"hymnsearch/internal/service"
	"hymnsearch/internal/summarizer"
	"hymnsearch/internal/termweight"
)

// app holds the components built once at startup and shared read-only by
// every request.
type app struct {
	cfg     *config.AppConfig
	log     *slog.Logger
	store   *corpus.Store
	refiner *refiner.TermRefiner
	service *service.SearchService
	closers []io.Closer
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}

func loadConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		cfg, _, err := config.LoadDefault()
		return cfg, err
	}
	return config.Load(path)
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	_ = level.UnmarshalText([]byte(cfg.Level))
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newApp loads the corpus, fits the term weights and wires the pipeline.
// Data errors are fatal for every command.
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cfg.Log, cmd.ErrOrStderr())

	start := time.Now()
	store, err := corpus.Load(corpus.Paths{
		Embeddings:     cfg.Corpus.Embeddings,
		Labels:         cfg.Corpus.Labels,
		Texts:          cfg.Corpus.Texts,
		LabelDelimiter: cfg.Corpus.LabelRune(),
	})
	if err != nil {
		return nil, err
	}
	fitText, err := corpus.FitText(cfg.Corpus.FitText)
	if err != nil {
		return nil, err
	}
	idx, err := termweight.Fit(fitText, termweight.Options{
		MaxDocFraction: cfg.TermWeights.MaxDocFraction,
		MinDocCount:    cfg.TermWeights.MinDocCount,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: fit term weights: %v", domain.ErrDataLoad, err)
	}
	log.Info("corpus loaded",
		"passages", store.Len(),
		"dimension", store.Dimension(),
		"vocabulary", idx.Len(),
		"elapsed", time.Since(start),
	)

	a := &app{cfg: cfg, log: log, store: store}
	a.refiner = refiner.New(idx, refiner.Config{
		MinTerms: cfg.TermWeights.MinTerms,
		TopTerms: cfg.TermWeights.TopTerms,
	})

	enc, err := newEncoder(cfg.Encoder)
	if err != nil {
		return nil, err
	}
	if o, ok := enc.(*encoder.Ollama); ok && !o.Available(ctx) {
		log.Warn("ollama not reachable, searches will fail until it is", "encoder", o.Name())
	}

	var rk domain.Ranker
	switch cfg.VectorStore.Type {
	case "memory", "":
		rk = ranker.NewMemory(store, enc)
	case "qdrant":
		q, err := newQdrantRanker(cfg, store, enc)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, q)
		rk = q
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	deps := service.Deps{
		Refiner: a.refiner,
		Ranker:  rk,
		Guard: guard.New(guard.Config{
			Workers: cfg.Guard.Workers,
			Timeout: time.Duration(cfg.Guard.TimeoutSecs) * time.Second,
		}, log),
		Logger: log,
	}
	gen, err := generation.NewFantasy(ctx, generation.Config{
		Provider:  cfg.Summarizer.Provider,
		APIKeyEnv: cfg.Summarizer.APIKeyEnv,
		BaseURL:   cfg.Summarizer.BaseURL,
		Model:     cfg.Summarizer.Model,
	})
	if err != nil {
		log.Warn("summaries disabled", "error", err)
		deps.SummaryUnavailable = err
	} else {
		log.Debug("generator ready", "model", gen.Name())
		deps.Summarizer = summarizer.New(gen, summarizer.Config{
			Domain: cfg.Summarizer.Domain,
			Mode:   summarizer.Mode(cfg.Summarizer.Mode),
		}, log)
	}
	a.service = service.New(deps)
	return a, nil
}

func newEncoder(cfg config.EncoderConfig) (domain.Encoder, error) {
	switch cfg.Type {
	case "ollama", "":
		oc := encoder.OllamaConfig{}
		if cfg.Ollama != nil {
			oc = encoder.OllamaConfig{Host: cfg.Ollama.Host, Model: cfg.Ollama.Model}
		}
		return encoder.NewOllama(oc)
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("%w: openai encoder config missing", domain.ErrConfigurationMissing)
		}
		return encoder.NewOpenAI(encoder.OpenAIConfig{
			BaseURL:    cfg.OpenAI.BaseURL,
			APIKeyEnv:  cfg.OpenAI.APIKeyEnv,
			Model:      cfg.OpenAI.Model,
			Timeout:    time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			MaxRetries: cfg.OpenAI.MaxRetries,
		})
	default:
		return nil, fmt.Errorf("unknown encoder: %s", cfg.Type)
	}
}

func newQdrantRanker(cfg *config.AppConfig, store *corpus.Store, enc domain.Encoder) (*qdrant.Ranker, error) {
	q := cfg.VectorStore.Qdrant
	if q == nil {
		return nil, fmt.Errorf("%w: qdrant config missing", domain.ErrConfigurationMissing)
	}
	return qdrant.New(qdrant.Config{
		Host:       q.Host,
		Port:       q.Port,
		APIKey:     q.APIKey,
		UseTLS:     q.UseTLS,
		Collection: q.Collection,
	}, store, enc)
}

// corpusDigest is the extractive overview shown in the console header.
func (a *app) corpusDigest() string {
	var b strings.Builder
	for i := 0; i < a.store.Len() && i < 200; i++ {
		b.WriteString(a.store.TextAt(i))
	}
	return summarizer.Digest(b.String(), a.cfg.Summarizer.DigestSentences)
}
