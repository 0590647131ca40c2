package cleanup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"shopper/internal/metrics"
)

const pollTimeout = time.Second

type job struct {
	Handle  string `json:"handle"`
	Attempt int    `json:"attempt"`
}

// Redis keeps jobs in a Redis list so they survive restarts and can be
// shared by several server instances.
type Redis struct {
	processor
	rdb *redis.Client
	key string
}

var _ Queue = (*Redis)(nil)

func NewRedis(rdb *redis.Client, key string, del Deleter, opts Options, log *slog.Logger, m *metrics.Metrics) *Redis {
	return &Redis{
		processor: processor{del: del, opts: opts.withDefaults(), log: log, metrics: m},
		rdb:       rdb,
		key:       key,
	}
}

func (q *Redis) Enqueue(ctx context.Context, handle string) error {
	if handle == "" {
		return nil
	}
	return q.push(ctx, job{Handle: handle, Attempt: 1})
}

func (q *Redis) push(ctx context.Context, j job) error {
	raw, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("cleanup: encoding job: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.key, raw).Err(); err != nil {
		return fmt.Errorf("cleanup: pushing job: %w", err)
	}
	return nil
}

func (q *Redis) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < q.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.work(ctx)
		}()
	}
	wg.Wait()
}

func (q *Redis) work(ctx context.Context) {
	for ctx.Err() == nil {
		res, err := q.rdb.BLPop(ctx, pollTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			q.log.Error("image cleanup: reading queue", slog.String("error", err.Error()))
			if !q.wait(ctx, 1) {
				return
			}
			continue
		}
		// res is [key, value]
		q.handle(ctx, res[1])
	}
}

func (q *Redis) handle(ctx context.Context, raw string) {
	var j job
	if err := json.Unmarshal([]byte(raw), &j); err != nil || j.Handle == "" {
		q.log.Error("image cleanup: discarding malformed job", slog.String("payload", raw))
		return
	}
	if j.Attempt < 1 {
		j.Attempt = 1
	}
	if q.try(ctx, j.Handle, j.Attempt) {
		return
	}
	if !q.wait(ctx, j.Attempt) {
		// shutting down: put it back for the next instance
		j.Attempt++
		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.opts.Timeout)
		defer cancel()
		if err := q.push(pushCtx, j); err != nil {
			q.metrics.ImageCleanup.WithLabelValues("dropped").Inc()
			q.log.Error("image cleanup: requeue on shutdown", slog.String("handle", j.Handle), slog.String("error", err.Error()))
		}
		return
	}
	j.Attempt++
	if err := q.push(ctx, j); err != nil {
		q.log.Error("image cleanup: requeue", slog.String("handle", j.Handle), slog.String("error", err.Error()))
	}
}
