package resilience

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

type ErrorClassification struct {
	Retryable     bool
	RecordFailure bool
}

type ErrorClassifier func(err error) ErrorClassification

// Executor retries calls to a single dependency and, when enabled, trips a
// circuit breaker once its failure ratio crosses the configured threshold.
type Executor struct {
	name     string
	cfg      Config
	classify ErrorClassifier
	breaker  *gobreaker.CircuitBreaker[struct{}]
	log      zerolog.Logger
}

// NewExecutor guards the dependency called name. A nil classify treats every
// error as a permanent failure.
func NewExecutor(name string, cfg Config, classify ErrorClassifier, log zerolog.Logger) *Executor {
	if classify == nil {
		classify = func(error) ErrorClassification { return ErrorClassification{RecordFailure: true} }
	}
	e := &Executor{
		name:     name,
		cfg:      cfg.normalize(),
		classify: classify,
		log:      log.With().Str("dependency", name).Logger(),
	}
	if e.cfg.Breaker {
		e.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:    name,
			Timeout: e.cfg.BreakerOpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= e.cfg.BreakerMinRequests &&
					float64(counts.TotalFailures)/float64(counts.Requests) >= e.cfg.BreakerFailureRatio
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !e.classify(err).RecordFailure
			},
			OnStateChange: func(_ string, from, to gobreaker.State) {
				e.log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			},
		})
	}
	return e
}

// Do runs fn until it succeeds, returns a non-retryable error, or runs out
// of attempts. The breaker sees the outcome of the whole retry sequence.
func (e *Executor) Do(ctx context.Context, fn func(context.Context) error) error {
	if e.breaker == nil {
		return e.retry(ctx, fn)
	}
	_, err := e.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, e.retry(ctx, fn)
	})
	return err
}

func (e *Executor) retry(ctx context.Context, fn func(context.Context) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return err
			}
			return ctxErr
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == e.cfg.MaxAttempts || !e.classify(err).Retryable {
			return err
		}

		wait := e.jitter(e.cfg.backoff(attempt))
		e.log.Warn().Err(err).Int("attempt", attempt).Dur("backoff", wait).Msg("retrying")
		if !sleep(ctx, wait) {
			return err
		}
	}
}

// jitter spreads wait uniformly over [wait*(1-j), wait].
func (e *Executor) jitter(wait time.Duration) time.Duration {
	if e.cfg.Jitter == 0 || wait <= 0 {
		return wait
	}
	return wait - time.Duration(float64(wait)*e.cfg.Jitter*rand.Float64())
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
