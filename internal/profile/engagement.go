package profile

import (
	"math"
	"time"

	"github.com/actuallystonmai/taste-service/internal/domain"
)

const (
	weightCompletion = 0.25
	weightRewatch    = 0.20
	weightRecency    = 0.20
	weightRating     = 0.30
	weightLibrary    = 0.05
)

// ScoreItem annotates a library item with its engagement score (0-100) and signals.
func ScoreItem(item domain.LibraryItem, source domain.SourceType, now time.Time) domain.ScoredItem {
	completionScore, completionRate := completion(item.State)
	rewatchScore, rewatched := rewatch(item.State)

	recencyScore := 0.0
	recent := false
	if item.State.LastWatched != nil {
		days := daysSince(*item.State.LastWatched, now)
		recencyScore = recencyBucket(days)
		recent = days < 30
	}

	ratingScore := 0.0
	if item.IsLoved {
		ratingScore = 100
	} else if item.IsLiked {
		ratingScore = 70
	}

	libraryScore := 0.0
	if !item.Temp && !item.Removed {
		libraryScore = 100
	}

	total := completionScore*weightCompletion +
		rewatchScore*weightRewatch +
		recencyScore*weightRecency +
		ratingScore*weightRating +
		libraryScore*weightLibrary

	return domain.ScoredItem{
		Item:            item,
		EngagementScore: clamp(total, 0, 100),
		CompletionRate:  completionRate,
		IsRewatched:     rewatched,
		IsRecent:        recent,
		Source:          source,
	}
}

// completion prefers the watched/duration ratio. A watched flag with a tiny
// ratio is raised to 50%, and a watched item without duration counts as 80%.
func completion(s domain.InteractionState) (score, rate float64) {
	watched := s.TimesWatched > 0 || s.FlaggedWatched > 0
	switch {
	case s.Duration > 0:
		rate = math.Min(float64(s.TimeWatched)/float64(s.Duration), 1)
		if rate < 0 {
			rate = 0
		}
		score = rate * 100
		if watched && score < 50 {
			score = 50
			rate = math.Max(rate, 0.5)
		}
	case watched:
		score, rate = 80, 0.8
	}
	return score, rate
}

func rewatch(s domain.InteractionState) (float64, bool) {
	if s.TimesWatched <= 1 || s.FlaggedWatched != 0 {
		return 0, false
	}
	times := float64(s.TimesWatched-1) * 50

	ratio := 0.0
	overall := float64(s.OverallTimeWatched)
	switch {
	case s.Duration > 0 && overall > 0:
		ratio = math.Max((overall/float64(s.Duration)-1)*100, 0)
	case s.TimeWatched > 0:
		ratio = math.Max((overall/float64(s.TimeWatched)-1)*100, 0)
	default:
		ratio = math.Max((float64(s.TimesWatched)-1)*20, 0)
	}
	return math.Min(math.Max(times, ratio), 100), true
}

func recencyBucket(days int) float64 {
	switch {
	case days < 7:
		return 150
	case days < 30:
		return 100
	case days < 90:
		return 70
	case days < 180:
		return 40
	case days < 365:
		return 20
	default:
		return 0
	}
}

// daysSince counts whole elapsed days, flooring so future timestamps go negative.
func daysSince(t, now time.Time) int {
	return int(math.Floor(now.Sub(t).Hours() / 24))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
