// Package encoder turns a search string into a dense vector in the same space
// as the precomputed corpus embeddings.
package encoder

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaConfig configures the Ollama encoder.
type OllamaConfig struct {
	Host  string
	Model string
}

// Ollama encodes text with a locally served sentence-embedding model.
type Ollama struct {
	client *api.Client
	model  string
}

// NewOllama creates an encoder connected to an Ollama server.
func NewOllama(cfg OllamaConfig) (*Ollama, error) {
	if cfg.Host == "" {
		cfg.Host = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "all-minilm"
	}
	u, err := url.Parse(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host: %w", err)
	}
	return &Ollama{client: api.NewClient(u, http.DefaultClient), model: cfg.Model}, nil
}

func (o *Ollama) Name() string { return "ollama:" + o.model }

// Encode returns the embedding of text.
func (o *Ollama) Encode(ctx context.Context, text string) ([]float32, error) {
	resp, err := o.client.Embed(ctx, &api.EmbedRequest{
		Model: o.model,
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("ollama returned no embeddings")
	}
	return resp.Embeddings[0], nil
}

// Available reports whether the Ollama server answers.
func (o *Ollama) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err := o.client.Version(ctx)
	return err == nil
}
