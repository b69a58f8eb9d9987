package sourcing

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/actuallystonmai/taste-service/internal/catalog"
	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/logging"
	"github.com/actuallystonmai/taste-service/internal/profile"
	"github.com/actuallystonmai/taste-service/internal/provider"
)

const (
	topPickSeeds = 5
	freshLabel   = "trending_popular"
)

// TopPicks blends related titles of the strongest library items, profile-driven
// discover queries and a small fresh slice of trending and top rated titles.
type TopPicks struct {
	provider provider.Provider
	log      zerolog.Logger
}

func NewTopPicks(p provider.Provider) *TopPicks {
	return &TopPicks{provider: p, log: logging.Component("sourcing.top_picks")}
}

func (s *TopPicks) Name() string { return "top_picks" }

func (s *TopPicks) Candidates(ctx context.Context, req catalog.Request) ([]domain.CandidateItem, error) {
	ct := req.ContentType
	var sources []Source

	for _, raw := range seedItems(req.Library, ct, topPickSeeds) {
		sources = append(sources,
			Source{Label: "recommendations", Pages: []int{1}, Ranked: true, Fetch: s.resolving(raw, ct, false)},
			Source{Label: "similar", Pages: []int{1}, Ranked: true, Fetch: s.resolving(raw, ct, true)},
		)
	}

	if p := req.Profile; p != nil && !p.IsEmpty() {
		sources = append(sources, s.profileSources(p, req)...)
	}

	sources = append(sources,
		Source{
			Label: freshLabel,
			Pages: []int{1},
			Fresh: true,
			Fetch: func(ctx context.Context, page int) ([]domain.CandidateItem, error) {
				return s.provider.Trending(ctx, ct, page)
			},
		},
		Source{
			Label: freshLabel,
			Pages: []int{1},
			Fresh: true,
			Fetch: func(ctx context.Context, page int) ([]domain.CandidateItem, error) {
				return s.provider.TopRated(ctx, ct, page)
			},
		},
	)

	return req.Exclusions.Filter(Gather(ctx, s.log, sources)), nil
}

// resolving fetches recommendations or similar titles for a library id resolved inside the task.
func (s *TopPicks) resolving(raw string, ct domain.ContentType, similar bool) PageFunc {
	return func(ctx context.Context, page int) ([]domain.CandidateItem, error) {
		id, err := provider.ResolveID(ctx, s.provider, raw, ct)
		if err != nil || id == 0 {
			return nil, err
		}
		if similar {
			return s.provider.Similar(ctx, id, ct, page)
		}
		return s.provider.Recommendations(ctx, id, ct, page)
	}
}

func (s *TopPicks) profileSources(p *domain.TasteProfile, req catalog.Request) []Source {
	ct := req.ContentType
	var excluded []int
	if req.Exclusions != nil {
		excluded = req.Exclusions.ExcludedGenres
	}
	base := provider.DiscoverFilter{Sort: provider.SortPopularity, ExcludeGenres: excluded}

	var filters []struct {
		label string
		f     provider.DiscoverFilter
	}
	add := func(label string, f provider.DiscoverFilter) {
		filters = append(filters, struct {
			label string
			f     provider.DiscoverFilter
		}{label, f})
	}

	if g := p.TopGenres(2); len(g) > 0 {
		f := base
		f.GenreIDs, f.GenreJoin = g, "|"
		add("top_picks.genre", f)
	}
	if k := p.TopKeywords(2); len(k) > 0 {
		f := base
		f.KeywordIDs = k
		add("top_picks.keyword", f)
	}
	for _, d := range p.TopDirectors(2) {
		f := base
		if ct == domain.ContentSeries {
			f.WithPeople = []int{d}
		} else {
			f.WithCrew = []int{d}
		}
		add("top_picks.director", f)
	}
	for _, c := range p.TopCast(2) {
		f := base
		f.WithCast = []int{c}
		add("top_picks.cast", f)
	}
	if eras := p.TopEras(1); len(eras) > 0 {
		if from, to := eraRange(eras[0]); from > 0 {
			f := base
			f.YearFrom, f.YearTo = from, to
			add("top_picks.era", f)
		}
	}

	out := make([]Source, 0, len(filters))
	for _, q := range filters {
		out = append(out, Source{
			Label: q.label,
			Pages: []int{1},
			Fetch: func(ctx context.Context, page int) ([]domain.CandidateItem, error) {
				f := q.f
				f.Page = page
				return s.provider.Discover(ctx, ct, f)
			},
		})
	}
	return out
}

// seedItems returns up to n library ids in loved, liked, added, watched order.
func seedItems(lib domain.Library, ct domain.ContentType, n int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, bucket := range [][]domain.LibraryItem{lib.Loved, lib.Liked, lib.Added, lib.Watched} {
		for _, it := range bucket {
			if len(out) == n {
				return out
			}
			if ct != "" && it.Type != ct {
				continue
			}
			if _, ok := seen[it.ID]; ok {
				continue
			}
			seen[it.ID] = struct{}{}
			out = append(out, it.ID)
		}
	}
	return out
}

// eraRange maps an era bucket to an inclusive year range.
func eraRange(era string) (int, int) {
	if era == profile.EraPre1970 {
		return 1900, 1969
	}
	d := profile.EraDecade(era)
	if d <= 0 {
		return 0, 0
	}
	return d, d + 9
}
