// Package guard runs pipeline invocations on a small bounded pool under a
// wall-clock deadline.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"hymnsearch/internal/domain"
)

const (
	DefaultTimeout = 60 * time.Second
	MaxWorkers     = 2
)

type Config struct {
	Workers int
	Timeout time.Duration
}

// Guard bounds concurrent pipeline work to Workers slots. The deadline covers
// both waiting for a slot and running the work.
type Guard struct {
	sem      *semaphore.Weighted
	workers  int
	timeout  time.Duration
	inFlight atomic.Int64
	log      *slog.Logger
}

func New(cfg Config, log *slog.Logger) *Guard {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Workers > MaxWorkers {
		cfg.Workers = MaxWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Guard{
		sem:     semaphore.NewWeighted(int64(cfg.Workers)),
		workers: cfg.Workers,
		timeout: cfg.Timeout,
		log:     log,
	}
}

func (g *Guard) Workers() int           { return g.workers }
func (g *Guard) Timeout() time.Duration { return g.timeout }

// InFlight reports how many slots are held, including work abandoned by a
// timed-out caller that has not returned yet.
func (g *Guard) InFlight() int64 { return g.inFlight.Load() }

// Run executes fn on a pool slot. When the deadline passes the caller gets
// domain.ErrPipelineTimeout at once and fn's context is cancelled; the slot is
// released only when fn returns.
func Run[T any](ctx context.Context, g *Guard, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	ctx, cancel := context.WithTimeout(ctx, g.timeout)

	if err := g.sem.Acquire(ctx, 1); err != nil {
		cancel()
		return zero, g.expired(ctx, "waiting for worker")
	}
	g.inFlight.Add(1)

	type outcome struct {
		v   T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			g.inFlight.Add(-1)
			g.sem.Release(1)
			cancel()
		}()
		v, err := fn(ctx)
		done <- outcome{v, err}
	}()

	select {
	case o := <-done:
		return o.v, o.err
	case <-ctx.Done():
		select {
		case o := <-done:
			return o.v, o.err
		default:
		}
		return zero, g.expired(ctx, "running")
	}
}

func (g *Guard) expired(ctx context.Context, stage string) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		g.log.Warn("pipeline timed out", "stage", stage, "timeout", g.timeout, "in_flight", g.InFlight())
		return fmt.Errorf("%w after %s (%s)", domain.ErrPipelineTimeout, g.timeout, stage)
	}
	return err
}
