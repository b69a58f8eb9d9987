package sourcing

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/actuallystonmai/taste-service/internal/catalog"
	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/logging"
	"github.com/actuallystonmai/taste-service/internal/provider"
)

const (
	creatorCandidates  = 20
	creatorsPerRole    = 5
	reliableAppearance = 2
	creatorCastDepth   = 5
	// creatorLibraryScan bounds how many library items are resolved to count appearances.
	creatorLibraryScan = 50
)

// Creators sources discover results for the directors and cast a user returns to.
type Creators struct {
	provider provider.Provider
	log      zerolog.Logger
}

func NewCreators(p provider.Provider) *Creators {
	return &Creators{provider: p, log: logging.Component("sourcing.creators")}
}

func (s *Creators) Name() string { return "creators" }

type creatorPick struct {
	id       int
	reliable bool
}

func (s *Creators) Candidates(ctx context.Context, req catalog.Request) ([]domain.CandidateItem, error) {
	if req.Profile == nil || req.Profile.IsEmpty() {
		return nil, nil
	}
	directors, cast := s.appearances(ctx, req)

	dirPicks := pickCreators(req.Profile.TopDirectors(creatorCandidates), directors)
	castPicks := pickCreators(req.Profile.TopCast(creatorCandidates), cast)

	var excluded []int
	if req.Exclusions != nil {
		excluded = req.Exclusions.ExcludedGenres
	}

	var sources []Source
	for _, c := range dirPicks {
		f := provider.DiscoverFilter{Sort: provider.SortPopularity, ExcludeGenres: excluded}
		if req.ContentType == domain.ContentSeries {
			f.WithPeople = []int{c.id}
		} else {
			f.WithCrew = []int{c.id}
		}
		sources = append(sources, s.discover("creators.director", req.ContentType, f, c.reliable))
	}
	for _, c := range castPicks {
		f := provider.DiscoverFilter{Sort: provider.SortPopularity, ExcludeGenres: excluded, WithCast: []int{c.id}}
		sources = append(sources, s.discover("creators.cast", req.ContentType, f, c.reliable))
	}
	if len(sources) == 0 {
		return nil, nil
	}
	return req.Exclusions.Filter(Gather(ctx, s.log, sources)), nil
}

func (s *Creators) discover(label string, ct domain.ContentType, f provider.DiscoverFilter, reliable bool) Source {
	pg := []int{1}
	if reliable {
		pg = pages(3)
	}
	return Source{
		Label: label,
		Pages: pg,
		Fetch: func(ctx context.Context, page int) ([]domain.CandidateItem, error) {
			q := f
			q.Page = page
			return s.provider.Discover(ctx, ct, q)
		},
	}
}

// appearances counts how many library items each director and top-billed cast member appears in.
func (s *Creators) appearances(ctx context.Context, req catalog.Request) (map[int]int, map[int]int) {
	items := req.Library.All(req.ContentType)
	if len(items) > creatorLibraryScan {
		items = items[:creatorLibraryScan]
	}

	var mu sync.Mutex
	directors := make(map[int]int)
	cast := make(map[int]int)

	g, gctx := errgroup.WithContext(ctx)
	for _, it := range items {
		g.Go(func() error {
			id, err := provider.ResolveID(gctx, s.provider, it.ID, req.ContentType)
			if err != nil || id == 0 {
				return nil
			}
			d, err := s.provider.Details(gctx, id, req.ContentType)
			if err != nil || d == nil {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for _, dir := range uniq(d.Directors()) {
				directors[dir]++
			}
			for _, c := range uniq(d.TopCast(creatorCastDepth)) {
				cast[c]++
			}
			return nil
		})
	}
	_ = g.Wait()
	return directors, cast
}

// pickCreators keeps profile order, preferring creators seen at least twice and
// filling the rest with single appearances.
func pickCreators(ranked []int, counts map[int]int) []creatorPick {
	var reliable, single []creatorPick
	for _, id := range ranked {
		switch n := counts[id]; {
		case n >= reliableAppearance:
			reliable = append(reliable, creatorPick{id: id, reliable: true})
		case n == 1:
			single = append(single, creatorPick{id: id})
		}
	}
	out := append(reliable, single...)
	if len(out) > creatorsPerRole {
		out = out[:creatorsPerRole]
	}
	return out
}

func uniq(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
