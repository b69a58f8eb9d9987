package model

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/profile"
)

const (
	similarityShare = 0.6
	qualityShare    = 0.4
)

// Client ranks candidate pools against a taste profile.
type Client struct{}

func NewClient() *Client {
	return &Client{}
}

type ScoreInput struct {
	Profile     *domain.TasteProfile
	Candidates  []domain.CandidateItem
	ContentType domain.ContentType
	// Seed feeds the tie-break epsilon. Empty disables it.
	Seed string
	// Limit truncates the sorted output when positive.
	Limit int
}

// Score ranks candidates by combined score, highest first, ties by id.
func (c *Client) Score(input ScoreInput) ([]domain.RankedItem, error) {
	baseline, err := Baseline(input.ContentType)
	if err != nil {
		return nil, err
	}

	scorer := profile.NewScorer(input.Profile)
	decades := NewDecadePreference(input.Profile, input.Candidates)
	whitelist := GenreWhitelist(input.Profile)

	ranked := make([]domain.RankedItem, 0, len(input.Candidates))
	for _, cand := range input.Candidates {
		sim := scorer.Similarity(cand)
		wr := WeightedRating(cand.VoteAverage, cand.VoteCount, baseline, DefaultMinVotes)
		score := CombinedScore(sim, wr, cand)
		score *= decades.Blend(cand.Year())
		score *= GenreMultiplier(cand.GenreIDs, whitelist)
		score += StableEpsilon(input.Seed, cand.ID)

		ranked = append(ranked, domain.RankedItem{
			CandidateItem:  cand,
			Score:          score,
			Similarity:     sim,
			WeightedRating: wr,
		})
	}

	SortRanked(ranked)
	if input.Limit > 0 && len(ranked) > input.Limit {
		ranked = ranked[:input.Limit]
	}
	return ranked, nil
}

// CombinedScore blends quality-adjusted similarity with normalized weighted rating.
func CombinedScore(similarity, wr float64, c domain.CandidateItem) float64 {
	adjusted := similarity * QualityMultiplier(wr, c.VoteCount, c.Ranked, c.Fresh)
	return adjusted*similarityShare + Normalize(wr, 0, 10)*qualityShare
}

func SortRanked(items []domain.RankedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
}

// StableEpsilon is a reproducible jitter in [0, 0.001) derived from seed and id.
func StableEpsilon(seed string, id int) float64 {
	if seed == "" {
		return 0
	}
	h := xxhash.Sum64String(seed + ":" + strconv.Itoa(id))
	return float64(h%1000) / 1_000_000
}

func Baseline(t domain.ContentType) (float64, error) {
	switch t {
	case domain.ContentMovie, "":
		return BaselineMovie, nil
	case domain.ContentSeries:
		return BaselineSeries, nil
	default:
		return 0, fmt.Errorf("baseline for %q: %w", t, domain.ErrUnsupportedContentType)
	}
}
