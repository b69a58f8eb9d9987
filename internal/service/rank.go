package service

import (
	"sort"

	"github.com/actuallystonmai/taste-service/internal/catalog"
	"github.com/actuallystonmai/taste-service/internal/diversity"
	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/model"
)

const (
	topPicksMinVotes  = 250
	topPicksMinRating = 7.2

	themeMatchWeight   = 0.7
	themeProfileWeight = 0.3
)

// RankAndDiversify scores candidates against p and selects a diverse row under opts.
func (s *Service) RankAndDiversify(candidates []domain.CandidateItem, p *domain.TasteProfile, ct domain.ContentType, seed string, opts diversity.Options) ([]domain.RankedItem, error) {
	return s.rankRow(candidates, catalog.Query{}, p, ct, seed, opts)
}

func (s *Service) rankRow(candidates []domain.CandidateItem, q catalog.Query, p *domain.TasteProfile, ct domain.ContentType, seed string, opts diversity.Options) ([]domain.RankedItem, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	ranked, err := s.score(candidates, q, p, ct, seed, 0)
	if err != nil {
		return nil, err
	}
	return diversity.Select(ranked, opts), nil
}

// score ranks candidates against p. Themed rows blend the theme match into the
// score (0.7 theme, 0.3 profile) before the optional limit is applied.
func (s *Service) score(candidates []domain.CandidateItem, q catalog.Query, p *domain.TasteProfile, ct domain.ContentType, seed string, limit int) ([]domain.RankedItem, error) {
	themed := q.IsThemed()
	in := model.ScoreInput{
		Profile:     p,
		Candidates:  candidates,
		ContentType: ct,
		Seed:        seed,
	}
	if !themed {
		in.Limit = limit
	}
	ranked, err := s.modelClient.Score(in)
	if err != nil || !themed {
		return ranked, err
	}

	for i := range ranked {
		ranked[i].Score = themeMatchWeight*q.ThemeMatch(ranked[i].CandidateItem) + themeProfileWeight*ranked[i].Score
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ID < ranked[j].ID
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// selectionOptions are the diversity settings for a row kind. Top picks add quality floors.
func (s *Service) selectionOptions(kind catalog.Kind, p *domain.TasteProfile) diversity.Options {
	opts := diversity.DefaultOptions(s.opts.MaxItems)
	opts.GenreShare = s.opts.GenreShare
	opts.EraShare = s.opts.EraShare
	opts.FreshShare = s.opts.FreshShare
	opts.CreatorCap = s.opts.CreatorCap
	if s.opts.DecadeApportionment {
		opts.DecadeWeights = model.DecadeWeights(p)
	}
	if kind == catalog.KindRec {
		opts.MinVoteCount = topPicksMinVotes
		opts.MinWeightedRating = topPicksMinRating
	}
	return opts
}
