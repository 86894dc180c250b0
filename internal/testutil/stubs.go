// Package testutil provides deterministic Encoder and Generator doubles for
// pipeline tests.
package testutil

import (
	"context"
	"sync"
	"time"
)

// Encoder maps known search strings to fixed vectors. Unknown strings get
// Default.
type Encoder struct {
	Vectors map[string][]float32
	Default []float32
	Err     error
	// Delay blocks Encode until it elapses or ctx is done.
	Delay time.Duration

	mu    sync.Mutex
	calls []string
}

func (e *Encoder) Name() string { return "stub" }

func (e *Encoder) Encode(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls = append(e.calls, text)
	e.mu.Unlock()

	if err := wait(ctx, e.Delay); err != nil {
		return nil, err
	}
	if e.Err != nil {
		return nil, e.Err
	}
	if v, ok := e.Vectors[text]; ok {
		return v, nil
	}
	return e.Default, nil
}

// Calls returns the search strings seen so far.
func (e *Encoder) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

// Generator returns Reply, or Respond(prompt) when set, and records prompts.
type Generator struct {
	Reply   string
	Respond func(prompt string) string
	Err     error
	Delay   time.Duration

	mu      sync.Mutex
	prompts []string
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()

	if err := wait(ctx, g.Delay); err != nil {
		return "", err
	}
	if g.Err != nil {
		return "", g.Err
	}
	if g.Respond != nil {
		return g.Respond(prompt), nil
	}
	return g.Reply, nil
}

// Prompts returns every prompt received so far.
func (g *Generator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
