package provider

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/logging"
	"github.com/actuallystonmai/taste-service/internal/metrics"
)

type BreakerConfig struct {
	Name        string
	MaxFailures uint32
	Timeout     time.Duration
}

// Breaker trips after consecutive upstream failures and fails fast until the timeout elapses.
type Breaker struct {
	next Provider
	cb   *gobreaker.CircuitBreaker[any]
	log  zerolog.Logger
}

func WithBreaker(p Provider, cfg BreakerConfig) *Breaker {
	if cfg.Name == "" {
		cfg.Name = "metadata-provider"
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	b := &Breaker{next: p, log: logging.Component("provider")}
	b.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		// Caller cancellations and deadlines say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			var ce *callerError
			return err == nil || errors.As(err, &ce)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			b.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return b
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// callerError marks a failure caused by the caller's own context ending.
type callerError struct {
	err error
}

func (e *callerError) Error() string { return e.err.Error() }
func (e *callerError) Unwrap() error { return e.err }

func guarded[T any](ctx context.Context, b *Breaker, op string, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	res, err := b.cb.Execute(func() (any, error) {
		v, err := fn()
		if err != nil && ctx.Err() != nil {
			return v, &callerError{err: err}
		}
		return v, err
	})
	if err != nil {
		var ce *callerError
		if errors.As(err, &ce) {
			return zero, ctx.Err()
		}
		return zero, &UpstreamError{Op: op, Err: err}
	}
	v, _ := res.(T)
	return v, nil
}

func (b *Breaker) Details(ctx context.Context, id int, t domain.ContentType) (*domain.ItemDetails, error) {
	return guarded(ctx, b, "details", func() (*domain.ItemDetails, error) {
		return b.next.Details(ctx, id, t)
	})
}

func (b *Breaker) Discover(ctx context.Context, t domain.ContentType, f DiscoverFilter) ([]domain.CandidateItem, error) {
	return guarded(ctx, b, "discover", func() ([]domain.CandidateItem, error) {
		return b.next.Discover(ctx, t, f)
	})
}

func (b *Breaker) Recommendations(ctx context.Context, id int, t domain.ContentType, page int) ([]domain.CandidateItem, error) {
	return guarded(ctx, b, "recommendations", func() ([]domain.CandidateItem, error) {
		return b.next.Recommendations(ctx, id, t, page)
	})
}

func (b *Breaker) Similar(ctx context.Context, id int, t domain.ContentType, page int) ([]domain.CandidateItem, error) {
	return guarded(ctx, b, "similar", func() ([]domain.CandidateItem, error) {
		return b.next.Similar(ctx, id, t, page)
	})
}

func (b *Breaker) FindByIMDbID(ctx context.Context, imdbID string, t domain.ContentType) (int, error) {
	return guarded(ctx, b, "find", func() (int, error) {
		return b.next.FindByIMDbID(ctx, imdbID, t)
	})
}

func (b *Breaker) Trending(ctx context.Context, t domain.ContentType, page int) ([]domain.CandidateItem, error) {
	return guarded(ctx, b, "trending", func() ([]domain.CandidateItem, error) {
		return b.next.Trending(ctx, t, page)
	})
}

func (b *Breaker) TopRated(ctx context.Context, t domain.ContentType, page int) ([]domain.CandidateItem, error) {
	return guarded(ctx, b, "top_rated", func() ([]domain.CandidateItem, error) {
		return b.next.TopRated(ctx, t, page)
	})
}
