package cleanup

import (
	"context"
	"log/slog"
	"sync"

	"shopper/internal/metrics"
)

// Memory is an in-process queue backed by a buffered channel. When Run's
// context ends, jobs still buffered get one last attempt each within
// Options.Drain; whatever is left after that is logged and counted as dropped.
type Memory struct {
	processor
	jobs chan string
}

var _ Queue = (*Memory)(nil)

func NewMemory(del Deleter, opts Options, log *slog.Logger, m *metrics.Metrics) *Memory {
	opts = opts.withDefaults()
	return &Memory{
		processor: processor{del: del, opts: opts, log: log, metrics: m},
		jobs:      make(chan string, opts.Buffer),
	}
}

// Enqueue never blocks: a full buffer returns ErrQueueFull.
func (q *Memory) Enqueue(_ context.Context, handle string) error {
	if handle == "" {
		return nil
	}
	select {
	case q.jobs <- handle:
		return nil
	default:
		q.metrics.ImageCleanup.WithLabelValues("dropped").Inc()
		q.log.Error("image cleanup queue full", slog.String("handle", handle))
		return ErrQueueFull
	}
}

func (q *Memory) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < q.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.work(ctx)
		}()
	}
	wg.Wait()

	q.drain(ctx)
}

// drain gives every buffered job a final attempt before Run returns.
func (q *Memory) drain(ctx context.Context) {
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.opts.Drain)
	defer cancel()

	for {
		select {
		case handle := <-q.jobs:
			if drainCtx.Err() != nil {
				q.abandon(handle)
				continue
			}
			q.try(drainCtx, handle, q.opts.MaxAttempts)
		default:
			return
		}
	}
}

// requeue puts back a job interrupted by shutdown so drain sees it.
func (q *Memory) requeue(handle string) {
	select {
	case q.jobs <- handle:
	default:
		q.abandon(handle)
	}
}

func (q *Memory) abandon(handle string) {
	q.metrics.ImageCleanup.WithLabelValues("dropped").Inc()
	q.log.Error("image cleanup stopped before delete", slog.String("handle", handle))
}

func (q *Memory) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case handle := <-q.jobs:
			for attempt := 1; !q.try(ctx, handle, attempt); attempt++ {
				if !q.wait(ctx, attempt) {
					q.requeue(handle)
					return
				}
			}
		}
	}
}
