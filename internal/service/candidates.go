package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/actuallystonmai/taste-service/internal/catalog"
	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/metrics"
)

const minEnrich = 40

// RowContext is the per-user state a catalog row is sourced against.
type RowContext struct {
	Profile    *domain.TasteProfile
	Exclusions *domain.Exclusions
	Library    domain.Library
	Seed       string
}

// GetCandidates sources the raw pool for catalogID, then resolves details for the
// most promising head of the pool so ranking sees keywords, creators and countries.
// Unknown catalog ids yield an empty pool.
func (s *Service) GetCandidates(ctx context.Context, catalogID string, ct domain.ContentType, rc RowContext) ([]domain.CandidateItem, error) {
	if !ct.Valid() {
		return nil, fmt.Errorf("candidates for %q: %w", ct, domain.ErrUnsupportedContentType)
	}
	q, ok := catalog.Parse(catalogID)
	if !ok {
		s.log.Debug().Str("catalog", catalogID).Msg("unknown catalog id")
		return nil, nil
	}

	pool, err := s.router.Candidates(ctx, catalogID, catalog.Request{
		ContentType: ct,
		Profile:     rc.Profile,
		Library:     rc.Library,
		Exclusions:  rc.Exclusions,
		Seed:        rc.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", catalogID, err)
	}
	metrics.CandidatePoolSize.WithLabelValues(string(q.Kind)).Observe(float64(len(pool)))
	if len(pool) == 0 {
		return nil, nil
	}

	head, err := s.preRank(pool, q, rc.Profile, ct, rc.Seed)
	if err != nil {
		return nil, err
	}
	return rc.Exclusions.Filter(s.enrich(ctx, head, ct)), nil
}

// preRank orders the pool on list-level features and keeps the head worth enriching.
func (s *Service) preRank(pool []domain.CandidateItem, q catalog.Query, p *domain.TasteProfile, ct domain.ContentType, seed string) ([]domain.CandidateItem, error) {
	ranked, err := s.score(pool, q, p, ct, seed, max(2*s.opts.MaxItems, minEnrich))
	if err != nil {
		return nil, err
	}
	out := make([]domain.CandidateItem, len(ranked))
	for i, r := range ranked {
		out[i] = r.CandidateItem
	}
	return out, nil
}

// enrich fills detail-level features in place. Items whose details cannot be
// resolved keep their list-level features.
func (s *Service) enrich(ctx context.Context, items []domain.CandidateItem, ct domain.ContentType) []domain.CandidateItem {
	g, gctx := errgroup.WithContext(ctx)
	for i := range items {
		g.Go(func() error {
			d, err := s.provider.Details(gctx, items[i].ID, ct)
			if err != nil {
				s.log.Debug().Err(err).Int("id", items[i].ID).Msg("enrichment failed")
				return nil
			}
			if d != nil {
				items[i] = mergeDetails(items[i], d)
			}
			return nil
		})
	}
	_ = g.Wait()
	return items
}

func mergeDetails(c domain.CandidateItem, d *domain.ItemDetails) domain.CandidateItem {
	full := d.AsCandidate()
	c.IMDbID = full.IMDbID
	c.KeywordIDs = full.KeywordIDs
	c.DirectorIDs = full.DirectorIDs
	c.TopCastIDs = full.TopCastIDs
	c.Countries = full.Countries
	c.CollectionID = full.CollectionID
	if len(c.GenreIDs) == 0 {
		c.GenreIDs = full.GenreIDs
	}
	if c.ReleaseDate == "" {
		c.ReleaseDate = full.ReleaseDate
	}
	if c.Title == "" {
		c.Title = full.Title
	}
	return c
}
