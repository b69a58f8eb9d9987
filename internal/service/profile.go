package service

import (
	"context"
	"fmt"
	"time"

	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/metrics"
	"github.com/actuallystonmai/taste-service/internal/sourcing"
)

const (
	modeFull        = "full"
	modeIncremental = "incremental"
	modeCached      = "cached"
)

// BuildProfile samples lib and builds a profile from scratch.
func (s *Service) BuildProfile(ctx context.Context, lib domain.Library, ct domain.ContentType) (*domain.TasteProfile, error) {
	if !ct.Valid() {
		return nil, fmt.Errorf("build profile for %q: %w", ct, domain.ErrUnsupportedContentType)
	}
	start := time.Now()
	p, err := s.builder.Build(ctx, s.sampler.Sample(lib, ct), ct)
	if err != nil {
		return nil, fmt.Errorf("build profile: %w", err)
	}
	observeBuild(modeFull, start)
	return p, nil
}

// BuildProfileIncremental extends existing with newly sampled items, rebuilding in
// full when existing is legacy or lost items.
func (s *Service) BuildProfileIncremental(ctx context.Context, lib domain.Library, ct domain.ContentType, existing *domain.TasteProfile) (*domain.TasteProfile, error) {
	if !ct.Valid() {
		return nil, fmt.Errorf("build profile for %q: %w", ct, domain.ErrUnsupportedContentType)
	}
	start := time.Now()
	p, full, err := s.builder.BuildIncremental(ctx, s.sampler.Sample(lib, ct), ct, existing)
	if err != nil {
		return nil, fmt.Errorf("build profile incrementally: %w", err)
	}
	mode := modeIncremental
	if full {
		mode = modeFull
	}
	observeBuild(mode, start)
	return p, nil
}

func observeBuild(mode string, start time.Time) {
	metrics.ProfileBuilds.WithLabelValues(mode).Inc()
	metrics.ProfileBuildDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}

// userState is everything a user's rows share.
type userState struct {
	profile    *domain.TasteProfile
	exclusions *domain.Exclusions
}

// resolveUser loads or rebuilds the cached profile and exclusion set. Store failures
// fall back to recomputing.
func (s *Service) resolveUser(ctx context.Context, userID string, lib domain.Library, ct domain.ContentType, excludedGenres []int) (*userState, error) {
	ids := libraryIDs(lib, ct)

	cached, err := s.store.GetProfile(ctx, userID, ct)
	if err != nil {
		s.log.Warn().Err(err).Str("user", userID).Msg("profile cache read failed")
	}

	changed := true
	if cached != nil {
		if changed, err = s.store.LibraryChanged(ctx, userID, ct, ids); err != nil {
			s.log.Warn().Err(err).Str("user", userID).Msg("library fingerprint read failed")
		}
	}

	var p *domain.TasteProfile
	switch {
	case cached != nil && !changed:
		metrics.ProfileBuilds.WithLabelValues(modeCached).Inc()
		p = cached
	case cached != nil:
		p, err = s.BuildProfileIncremental(ctx, lib, ct, cached)
	default:
		p, err = s.BuildProfile(ctx, lib, ct)
	}
	if err != nil {
		return nil, err
	}

	var ex *domain.Exclusions
	if !changed {
		if ex, err = s.store.GetExclusions(ctx, userID, ct); err != nil {
			s.log.Warn().Err(err).Str("user", userID).Msg("exclusion cache read failed")
		}
	}
	if ex == nil {
		ex = sourcing.BuildExclusions(lib, nil)
	}
	ex.ExcludedGenres = excludedGenres

	if changed {
		s.persist(ctx, userID, ct, p, ex, ids)
	}
	return &userState{profile: p, exclusions: ex}, nil
}

func (s *Service) persist(ctx context.Context, userID string, ct domain.ContentType, p *domain.TasteProfile, ex *domain.Exclusions, ids []string) {
	if err := s.store.SetProfile(ctx, userID, p); err != nil {
		s.log.Warn().Err(err).Str("user", userID).Msg("profile cache write failed")
		return
	}
	if err := s.store.SetExclusions(ctx, userID, ct, ex); err != nil {
		s.log.Warn().Err(err).Str("user", userID).Msg("exclusion cache write failed")
	}
	if err := s.store.SetLibraryHash(ctx, userID, ct, ids); err != nil {
		s.log.Warn().Err(err).Str("user", userID).Msg("library fingerprint write failed")
	}
}

// libraryIDs lists every id that affects a user's profile or exclusions, tagged by
// bucket so an item moving between buckets counts as a change.
func libraryIDs(lib domain.Library, ct domain.ContentType) []string {
	buckets := []struct {
		name  string
		items []domain.LibraryItem
	}{
		{"loved", lib.Loved},
		{"liked", lib.Liked},
		{"watched", lib.Watched},
		{"added", lib.Added},
		{"removed", lib.Removed},
	}
	var ids []string
	for _, b := range buckets {
		for _, it := range b.items {
			if ct == "" || it.Type == ct {
				ids = append(ids, b.name+":"+it.ID)
			}
		}
	}
	return ids
}
