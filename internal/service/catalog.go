package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/actuallystonmai/taste-service/internal/catalog"
	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/model"
	"github.com/actuallystonmai/taste-service/internal/sourcing"
)

const (
	padMinVotes  = 100
	padMinRating = 6.2
)

// CatalogRequest asks for rows of one content type for one user.
type CatalogRequest struct {
	UserID         string             `json:"user_id"`
	ContentType    domain.ContentType `json:"content_type"`
	CatalogIDs     []string           `json:"catalog_ids"`
	Library        domain.Library     `json:"library"`
	ExcludedGenres []int              `json:"excluded_genres,omitempty"`
}

// Catalog resolves a single row.
func (s *Service) Catalog(ctx context.Context, req CatalogRequest, catalogID string) ([]domain.RankedItem, error) {
	if !req.ContentType.Valid() {
		return nil, fmt.Errorf("catalog %s for %q: %w", catalogID, req.ContentType, domain.ErrUnsupportedContentType)
	}
	st, err := s.resolveUser(ctx, req.UserID, req.Library, req.ContentType, req.ExcludedGenres)
	if err != nil {
		return nil, err
	}
	return s.row(ctx, req, st, catalogID)
}

// CatalogBatch resolves every requested row concurrently with a bounded pool.
// A failing row is reported with its status and never affects its siblings.
func (s *Service) CatalogBatch(ctx context.Context, req CatalogRequest) (*domain.BatchResponse, error) {
	start := time.Now()
	if !req.ContentType.Valid() {
		return nil, fmt.Errorf("batch for %q: %w", req.ContentType, domain.ErrUnsupportedContentType)
	}
	st, err := s.resolveUser(ctx, req.UserID, req.Library, req.ContentType, req.ExcludedGenres)
	if err != nil {
		return nil, fmt.Errorf("resolve user %s: %w", req.UserID, err)
	}

	concurrency := s.opts.BatchConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	// Process rows concurrently with bounded worker pool
	rows := make([]domain.RowResult, len(req.CatalogIDs))
	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	for i, id := range req.CatalogIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			rows[i] = s.processRowForBatch(ctx, req, st, id)
		}()
	}
	wg.Wait()

	summary := domain.BatchSummary{ProcessingTimeMs: time.Since(start).Milliseconds()}
	for _, r := range rows {
		if r.Status == domain.StatusSuccess {
			summary.SuccessCount++
		} else {
			summary.FailedCount++
		}
	}

	return &domain.BatchResponse{
		UserID:      req.UserID,
		Rows:        rows,
		Summary:     summary,
		GeneratedAt: s.now().UTC().Format(time.RFC3339),
	}, nil
}

func (s *Service) processRowForBatch(ctx context.Context, req CatalogRequest, st *userState, catalogID string) domain.RowResult {
	items, err := s.row(ctx, req, st, catalogID)
	if err != nil {
		s.log.Warn().Err(err).Str("user", req.UserID).Str("catalog", catalogID).Msg("batch row failed")
		return domain.RowResult{CatalogID: catalogID, Status: domain.StatusFailed, Error: categorizeError(err)}
	}
	return domain.RowResult{CatalogID: catalogID, Items: items, Status: domain.StatusSuccess}
}

func (s *Service) row(ctx context.Context, req CatalogRequest, st *userState, catalogID string) ([]domain.RankedItem, error) {
	q, ok := catalog.Parse(catalogID)
	if !ok {
		return nil, nil
	}
	rc := RowContext{
		Profile:    st.profile,
		Exclusions: st.exclusions,
		Library:    req.Library,
		Seed:       req.UserID,
	}
	pool, err := s.GetCandidates(ctx, catalogID, req.ContentType, rc)
	if err != nil {
		return nil, err
	}

	items, err := s.rankRow(pool, q, st.profile, req.ContentType, rc.Seed, s.selectionOptions(q.Kind, st.profile))
	if err != nil {
		return nil, err
	}
	if len(items) < s.opts.MinItems {
		items = s.pad(ctx, items, req.ContentType, rc)
	}
	return items, nil
}

// pad tops a short row up with well-rated trending and top rated titles.
func (s *Service) pad(ctx context.Context, items []domain.RankedItem, ct domain.ContentType, rc RowContext) []domain.RankedItem {
	need := s.opts.MinItems - len(items)
	present := make(map[int]struct{}, len(items))
	for _, it := range items {
		present[it.ID] = struct{}{}
	}

	pool := sourcing.Gather(ctx, s.log, []sourcing.Source{
		{Label: "padding", Pages: []int{1}, Fetch: func(ctx context.Context, page int) ([]domain.CandidateItem, error) {
			return s.provider.Trending(ctx, ct, page)
		}},
		{Label: "padding", Pages: []int{1}, Fetch: func(ctx context.Context, page int) ([]domain.CandidateItem, error) {
			return s.provider.TopRated(ctx, ct, page)
		}},
	})

	var extra []domain.CandidateItem
	for _, c := range rc.Exclusions.Filter(pool) {
		if _, ok := present[c.ID]; ok {
			continue
		}
		if c.VoteCount < padMinVotes || c.VoteAverage < padMinRating {
			continue
		}
		extra = append(extra, c)
		if len(extra) >= need*2 {
			break
		}
	}
	if len(extra) == 0 {
		return items
	}

	extra = rc.Exclusions.Filter(s.enrich(ctx, extra, ct))
	ranked, err := s.modelClient.Score(model.ScoreInput{
		Profile:     rc.Profile,
		Candidates:  extra,
		ContentType: ct,
		Seed:        rc.Seed,
		Limit:       need,
	})
	if err != nil {
		s.log.Debug().Err(err).Msg("padding score failed")
		return items
	}
	return append(items, ranked...)
}
