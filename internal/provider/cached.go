package provider

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/logging"
	"github.com/actuallystonmai/taste-service/internal/metrics"
)

// DetailsStore is a durable metadata cache. GetDetails returns nil, nil on a miss.
type DetailsStore interface {
	GetDetails(ctx context.Context, id int, t domain.ContentType) (*domain.ItemDetails, error)
	PutDetails(ctx context.Context, d *domain.ItemDetails) error
}

// CrossRefStore is implemented by stores that can answer cross-reference lookups.
type CrossRefStore interface {
	FindByIMDbID(ctx context.Context, imdbID string, t domain.ContentType) (int, error)
}

// Cached serves Details from a store before calling through. Store failures count as misses.
type Cached struct {
	Provider
	store DetailsStore
	log   zerolog.Logger
}

func WithDetailsCache(p Provider, store DetailsStore) *Cached {
	return &Cached{Provider: p, store: store, log: logging.Component("provider")}
}

func (c *Cached) Details(ctx context.Context, id int, t domain.ContentType) (*domain.ItemDetails, error) {
	cached, err := c.store.GetDetails(ctx, id, t)
	if err != nil {
		c.log.Debug().Err(err).Int("id", id).Msg("details cache get failed")
	}
	if cached != nil {
		metrics.RecordCacheLookup("details", true)
		return cached, nil
	}
	metrics.RecordCacheLookup("details", false)

	d, err := c.Provider.Details(ctx, id, t)
	if err != nil || d == nil {
		return d, err
	}
	if d.Type == "" {
		d.Type = t
	}
	if err := c.store.PutDetails(ctx, d); err != nil {
		c.log.Debug().Err(err).Int("id", id).Msg("details cache put failed")
	}
	return d, nil
}

// FindByIMDbID answers from the store when it knows the cross reference.
func (c *Cached) FindByIMDbID(ctx context.Context, imdbID string, t domain.ContentType) (int, error) {
	if xr, ok := c.store.(CrossRefStore); ok {
		id, err := xr.FindByIMDbID(ctx, imdbID, t)
		if err != nil {
			c.log.Debug().Err(err).Str("imdb_id", imdbID).Msg("cross reference lookup failed")
		}
		if id > 0 {
			return id, nil
		}
	}
	return c.Provider.FindByIMDbID(ctx, imdbID, t)
}
