package profile

import (
	"math"
	"time"

	"github.com/actuallystonmai/taste-service/internal/domain"
)

type InteractionType string

const (
	InteractionLoved         InteractionType = "loved"
	InteractionLiked         InteractionType = "liked"
	InteractionWatchedHigh   InteractionType = "watched_high"
	InteractionWatchedMedium InteractionType = "watched_medium"
	InteractionAdded         InteractionType = "added"
)

var baseWeights = map[InteractionType]float64{
	InteractionLoved:         3.0,
	InteractionLiked:         1.5,
	InteractionWatchedHigh:   1.0,
	InteractionWatchedMedium: 0.5,
	InteractionAdded:         0.3,
}

const (
	recencyHalfLifeDays = 15.0
	recencyFloor        = 0.1
	recencyUnknown      = 0.5
)

func Interaction(s domain.ScoredItem) InteractionType {
	switch {
	case s.Item.IsLoved:
		return InteractionLoved
	case s.Item.IsLiked:
		return InteractionLiked
	case s.CompletionRate >= 0.8:
		return InteractionWatchedHigh
	case s.CompletionRate >= 0.4:
		return InteractionWatchedMedium
	case !s.Item.Temp && !s.Item.Removed:
		return InteractionAdded
	default:
		return InteractionWatchedMedium
	}
}

func BaseWeight(t InteractionType) float64 {
	if w, ok := baseWeights[t]; ok {
		return w
	}
	return baseWeights[InteractionWatchedMedium]
}

// RecencyMultiplier decays exponentially with whole days since the interaction.
func RecencyMultiplier(last *time.Time, now time.Time) float64 {
	if last == nil || last.IsZero() {
		return recencyUnknown
	}
	days := daysSince(*last, now)
	if days < 0 {
		return 1.0
	}
	return math.Max(recencyFloor, math.Exp(-float64(days)/recencyHalfLifeDays))
}

// EvidenceWeight is base weight for the interaction type times recency.
// Added items without a watch timestamp fall back to the library mtime.
func EvidenceWeight(s domain.ScoredItem, now time.Time) float64 {
	kind := Interaction(s)
	last := s.Item.State.LastWatched
	if last == nil && kind == InteractionAdded {
		last = s.Item.MTime
	}
	return BaseWeight(kind) * RecencyMultiplier(last, now)
}
