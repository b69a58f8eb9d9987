package sourcing

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/actuallystonmai/taste-service/internal/catalog"
	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/logging"
	"github.com/actuallystonmai/taste-service/internal/provider"
)

const voteSortMinVotes = 200

// Theme sources discover results for an explicit genre/keyword/country/era combination.
// Only anchor axes reach the discover filter; flavor and fallback axes are left to ranking.
type Theme struct {
	provider provider.Provider
	// Target is the row size the pool should comfortably exceed.
	Target int
	log    zerolog.Logger
}

func NewTheme(p provider.Provider, target int) *Theme {
	return &Theme{provider: p, Target: target, log: logging.Component("sourcing.theme")}
}

func (t *Theme) Name() string { return "theme" }

func (t *Theme) Candidates(ctx context.Context, req catalog.Request) ([]domain.CandidateItem, error) {
	base := themeFilter(req)

	pool := req.Exclusions.Filter(Gather(ctx, t.log, []Source{t.discover("theme", req.ContentType, base, pages(3))}))

	if axes := splitAxes(base); len(pool) < 2*t.Target && len(axes) > 1 {
		var sources []Source
		for _, ax := range axes {
			sources = append(sources, t.discover("theme."+ax.label, req.ContentType, ax.filter, pages(2)))
		}
		pool = Dedupe(pool, req.Exclusions.Filter(Gather(ctx, t.log, sources)))
	}

	if len(pool) < t.Target && len(base.KeywordIDs) > 0 {
		relaxed := base
		relaxed.KeywordIDs = nil
		pool = Dedupe(pool, req.Exclusions.Filter(Gather(ctx, t.log, []Source{t.discover("theme.no_keywords", req.ContentType, relaxed, pages(2))})))
	}
	if len(pool) < t.Target && base.YearFrom > 0 {
		relaxed := base
		relaxed.KeywordIDs = nil
		relaxed.YearFrom, relaxed.YearTo = 0, 0
		pool = Dedupe(pool, req.Exclusions.Filter(Gather(ctx, t.log, []Source{t.discover("theme.no_era", req.ContentType, relaxed, pages(2))})))
	}

	t.log.Debug().Str("catalog", req.Query.Raw).Int("pool", len(pool)).Msg("theme pool gathered")
	return pool, nil
}

func (t *Theme) discover(label string, ct domain.ContentType, f provider.DiscoverFilter, pg []int) Source {
	return Source{
		Label: label,
		Pages: pg,
		Fetch: func(ctx context.Context, page int) ([]domain.CandidateItem, error) {
			q := f
			q.Page = page
			return t.provider.Discover(ctx, ct, q)
		},
	}
}

func themeFilter(req catalog.Request) provider.DiscoverFilter {
	q := req.Query.Anchors()
	f := provider.DiscoverFilter{
		GenreIDs:   q.GenreIDs,
		GenreJoin:  "|",
		KeywordIDs: q.KeywordIDs,
		Country:    q.Country,
		YearFrom:   q.YearFrom,
		YearTo:     q.YearTo,
		Sort:       q.Sort(),
	}
	if q.SortByVote {
		f.MinVoteCount = voteSortMinVotes
	}
	if req.Exclusions != nil {
		f.ExcludeGenres = req.Exclusions.ExcludedGenres
	}
	return f
}

type axis struct {
	label  string
	filter provider.DiscoverFilter
}

// splitAxes returns one single-dimension filter per populated dimension of f.
func splitAxes(f provider.DiscoverFilter) []axis {
	single := provider.DiscoverFilter{
		GenreJoin:     f.GenreJoin,
		ExcludeGenres: f.ExcludeGenres,
		Sort:          f.Sort,
		MinVoteCount:  f.MinVoteCount,
	}
	var out []axis
	if len(f.GenreIDs) > 0 {
		a := single
		a.GenreIDs = f.GenreIDs
		out = append(out, axis{"genre", a})
	}
	if len(f.KeywordIDs) > 0 {
		a := single
		a.KeywordIDs = f.KeywordIDs
		out = append(out, axis{"keyword", a})
	}
	if f.Country != "" {
		a := single
		a.Country = f.Country
		out = append(out, axis{"country", a})
	}
	if f.YearFrom > 0 {
		a := single
		a.YearFrom, a.YearTo = f.YearFrom, f.YearTo
		out = append(out, axis{"era", a})
	}
	return out
}
