// Package cleanup deletes hosted images in the background.
//
// Request handlers enqueue a handle and move on; a worker calls the image
// store, retries with backoff and logs every failure instead of dropping it
// silently.
package cleanup

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"shopper/internal/config"
	"shopper/internal/metrics"
)

// ErrQueueFull is returned by Enqueue when the in-process buffer is full.
var ErrQueueFull = errors.New("cleanup: queue full")

// Deleter is the part of an image store the workers need.
type Deleter interface {
	Delete(ctx context.Context, handle string) error
}

// Queue accepts handles of images that are no longer referenced.
type Queue interface {
	Enqueue(ctx context.Context, handle string) error
	// Run processes jobs until ctx is done.
	Run(ctx context.Context)
}

type Options struct {
	Workers     int
	Buffer      int
	MaxAttempts int
	Backoff     time.Duration
	// per Delete call
	Timeout time.Duration
	// how long Run keeps deleting buffered jobs after shutdown starts
	Drain time.Duration
}

func OptionsFrom(cfg config.CleanupConfig) Options {
	return Options{
		Workers:     cfg.Workers,
		Buffer:      cfg.Buffer,
		MaxAttempts: cfg.MaxAttempts,
		Backoff:     cfg.Backoff,
		Timeout:     30 * time.Second,
		Drain:       5 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.Buffer < 1 {
		o.Buffer = 16
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 1
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Drain <= 0 {
		o.Drain = 5 * time.Second
	}
	return o
}

// processor holds the retry policy shared by every queue implementation.
type processor struct {
	del     Deleter
	opts    Options
	log     *slog.Logger
	metrics *metrics.Metrics
}

// try makes one delete attempt and reports whether the job is finished,
// either deleted or given up on.
func (p *processor) try(ctx context.Context, handle string, attempt int) bool {
	callCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	err := p.del.Delete(callCtx, handle)
	cancel()

	if err == nil {
		p.metrics.ImageCleanup.WithLabelValues("deleted").Inc()
		p.log.Debug("image deleted", slog.String("handle", handle), slog.Int("attempt", attempt))
		return true
	}
	if attempt >= p.opts.MaxAttempts {
		p.metrics.ImageCleanup.WithLabelValues("dropped").Inc()
		p.log.Error("giving up on image delete",
			slog.String("handle", handle),
			slog.Int("attempts", attempt),
			slog.String("error", err.Error()),
		)
		return true
	}
	p.metrics.ImageCleanup.WithLabelValues("retried").Inc()
	p.log.Warn("image delete failed, will retry",
		slog.String("handle", handle),
		slog.Int("attempt", attempt),
		slog.String("error", err.Error()),
	)
	return false
}

// wait sleeps for the backoff of the given attempt; false if ctx ended first.
func (p *processor) wait(ctx context.Context, attempt int) bool {
	d := p.opts.Backoff * time.Duration(attempt)
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
