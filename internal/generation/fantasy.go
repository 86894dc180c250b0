// Package generation talks to the external language model that writes
// grounded summaries.
package generation

import (
	"context"
	"fmt"
	"os"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/anthropic"
	"charm.land/fantasy/providers/openai"
	"charm.land/fantasy/providers/openrouter"

	"hymnsearch/internal/domain"
)

type Config struct {
	Provider  string
	APIKeyEnv string
	BaseURL   string
	Model     string
}

type textModel interface {
	Generate(ctx context.Context, call fantasy.Call) (*fantasy.Response, error)
}

var _ domain.Generator = (*FantasyGenerator)(nil)

// FantasyGenerator sends one user message per call with temperature 0.
type FantasyGenerator struct {
	model textModel
	name  string
}

// NewFantasy resolves the provider and model. A missing API key is reported
// as domain.ErrConfigurationMissing.
func NewFantasy(ctx context.Context, cfg Config) (*FantasyGenerator, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: generation API key env %q is empty", domain.ErrConfigurationMissing, cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: generation model not set", domain.ErrConfigurationMissing)
	}

	var provider fantasy.Provider
	var err error
	switch cfg.Provider {
	case "openai":
		opts := []openai.Option{openai.WithAPIKey(key)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		provider, err = openai.New(opts...)
	case "anthropic":
		opts := []anthropic.Option{anthropic.WithAPIKey(key)}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		provider, err = anthropic.New(opts...)
	case "openrouter":
		provider, err = openrouter.New(openrouter.WithAPIKey(key))
	default:
		return nil, fmt.Errorf("unsupported generation provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}

	model, err := provider.LanguageModel(ctx, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("get language model: %w", err)
	}
	return &FantasyGenerator{model: model, name: cfg.Provider + ":" + cfg.Model}, nil
}

func (g *FantasyGenerator) Name() string { return g.name }

// Generate returns the model's text. Failures wrap domain.ErrUpstreamGeneration
// and are not retried.
func (g *FantasyGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	temperature := 0.0
	resp, err := g.model.Generate(ctx, fantasy.Call{
		Prompt:      fantasy.Prompt{fantasy.NewUserMessage(prompt)},
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamGeneration, err)
	}
	return resp.Content.Text(), nil
}
