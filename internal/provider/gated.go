package provider

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/metrics"
)

const DefaultDetailConcurrency = 30

// Gated limits concurrent Details calls. Every other call passes straight through.
type Gated struct {
	Provider
	sem *semaphore.Weighted
}

func NewGated(p Provider, width int) *Gated {
	if width <= 0 {
		width = DefaultDetailConcurrency
	}
	return &Gated{Provider: p, sem: semaphore.NewWeighted(int64(width))}
}

func (g *Gated) Details(ctx context.Context, id int, t domain.ContentType) (*domain.ItemDetails, error) {
	start := time.Now()
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer g.sem.Release(1)
	metrics.DetailGateWait.Observe(time.Since(start).Seconds())

	return g.Provider.Details(ctx, id, t)
}
