package ratelimit

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/mounirtms/techno-etl/internal/config"
)

// ErrCancelled is returned when the wait is interrupted; in-flight
// requests keep their permits and finish, no new ones are handed out.
var ErrCancelled = errors.New("rate limiter wait cancelled")

// Limiter is the single process-wide pacing gate. Every API call across
// all stages acquires one permit: a token-bucket slot (requests per
// second + burst) followed by a concurrency slot.
type Limiter struct {
	bucket     *rate.Limiter
	sem        chan struct{}
	batchDelay time.Duration
}

func New(requestsPerSecond, burstLimit, maxConcurrent int, batchDelay time.Duration) *Limiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	if burstLimit < 1 {
		burstLimit = 1
	}
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Limiter{
		bucket:     rate.NewLimiter(rate.Limit(requestsPerSecond), burstLimit),
		sem:        make(chan struct{}, maxConcurrent),
		batchDelay: batchDelay,
	}
}

func FromConfig(cfg *config.Config) *Limiter {
	return New(
		cfg.RATELIMIT.RequestsPerSecond,
		cfg.RATELIMIT.BurstLimit,
		cfg.RATELIMIT.MaxConcurrent,
		time.Duration(cfg.RATELIMIT.DelayBetweenBatchesMs)*time.Millisecond,
	)
}

// Acquire blocks until a permit is available and returns its release
// function. The caller must release after the request completes.
func (l *Limiter) Acquire(ctx context.Context) (func(), error) {
	if err := l.bucket.Wait(ctx); err != nil {
		return nil, errors.Wrap(ErrCancelled, err.Error())
	}
	select {
	case l.sem <- struct{}{}:
		return func() { <-l.sem }, nil
	case <-ctx.Done():
		return nil, errors.Wrap(ErrCancelled, ctx.Err().Error())
	}
}

// BatchPause sleeps the configured inter-batch delay.
func (l *Limiter) BatchPause(ctx context.Context) error {
	if l.batchDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(l.batchDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ErrCancelled, ctx.Err().Error())
	}
}

// IsCancelled reports whether err came from an interrupted wait.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
