package sourcing

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/actuallystonmai/taste-service/internal/catalog"
	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/logging"
	"github.com/actuallystonmai/taste-service/internal/provider"
)

const allBasedItems = 10

// AllBased pools first-page recommendations across the head of the loved or liked bucket.
type AllBased struct {
	provider provider.Provider
	log      zerolog.Logger
}

func NewAllBased(p provider.Provider) *AllBased {
	return &AllBased{provider: p, log: logging.Component("sourcing.all")}
}

func (s *AllBased) Name() string { return "all" }

func (s *AllBased) Candidates(ctx context.Context, req catalog.Request) ([]domain.CandidateItem, error) {
	bucket := req.Library.Loved
	if req.Query.Kind == catalog.KindLikedAll {
		bucket = req.Library.Liked
	}

	var sources []Source
	for _, it := range bucket {
		if len(sources) == allBasedItems {
			break
		}
		if req.ContentType != "" && it.Type != req.ContentType {
			continue
		}
		raw := it.ID
		sources = append(sources, Source{
			Label:  "recommendations",
			Pages:  []int{1},
			Ranked: true,
			Fetch: func(ctx context.Context, page int) ([]domain.CandidateItem, error) {
				id, err := provider.ResolveID(ctx, s.provider, raw, req.ContentType)
				if err != nil || id == 0 {
					return nil, err
				}
				return s.provider.Recommendations(ctx, id, req.ContentType, page)
			},
		})
	}
	if len(sources) == 0 {
		return nil, nil
	}
	return req.Exclusions.Filter(Gather(ctx, s.log, sources)), nil
}
