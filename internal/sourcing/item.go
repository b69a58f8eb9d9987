package sourcing

import (
	"context"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/actuallystonmai/taste-service/internal/catalog"
	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/logging"
	"github.com/actuallystonmai/taste-service/internal/provider"
)

// recentPick bounds the bucket window a seeded source item is drawn from.
const recentPick = 10

// Item sources recommendations and similar titles for one seed item.
type Item struct {
	provider provider.Provider
	log      zerolog.Logger
}

func NewItem(p provider.Provider) *Item {
	return &Item{provider: p, log: logging.Component("sourcing.item")}
}

func (s *Item) Name() string { return "item" }

func (s *Item) Candidates(ctx context.Context, req catalog.Request) ([]domain.CandidateItem, error) {
	raw := req.Query.ItemID
	if raw == "" {
		raw = pickSeedItem(req)
	}
	if raw == "" {
		return nil, nil
	}

	id, err := provider.ResolveID(ctx, s.provider, raw, req.ContentType)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.log.Warn().Err(err).Str("item", raw).Msg("seed item lookup failed")
		return nil, nil
	}
	if id == 0 {
		s.log.Debug().Str("item", raw).Msg("seed item unresolved")
		return nil, nil
	}

	pool := Gather(ctx, s.log, relatedSources(s.provider, id, req.ContentType, pages(2)))
	out := pool[:0]
	for _, c := range pool {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return req.Exclusions.Filter(out), nil
}

// pickSeedItem chooses a reproducible item from the recent window of the
// bucket the row kind names.
func pickSeedItem(req catalog.Request) string {
	var bucket []domain.LibraryItem
	switch req.Query.Kind {
	case catalog.KindLoved:
		bucket = req.Library.Loved
	case catalog.KindWatched:
		bucket = req.Library.Watched
	default:
		return ""
	}
	var window []domain.LibraryItem
	for _, it := range bucket {
		if req.ContentType != "" && it.Type != req.ContentType {
			continue
		}
		window = append(window, it)
		if len(window) == recentPick {
			break
		}
	}
	if len(window) == 0 {
		return ""
	}
	h := xxhash.Sum64String(req.Seed + ":" + string(req.Query.Kind))
	return window[h%uint64(len(window))].ID
}

// relatedSources pulls recommendations then similar titles for id.
func relatedSources(p provider.Provider, id int, ct domain.ContentType, pg []int) []Source {
	return []Source{
		{
			Label:  "recommendations",
			Pages:  pg,
			Ranked: true,
			Fetch: func(ctx context.Context, page int) ([]domain.CandidateItem, error) {
				return p.Recommendations(ctx, id, ct, page)
			},
		},
		{
			Label:  "similar",
			Pages:  pg,
			Ranked: true,
			Fetch: func(ctx context.Context, page int) ([]domain.CandidateItem, error) {
				return p.Similar(ctx, id, ct, page)
			},
		},
	}
}
