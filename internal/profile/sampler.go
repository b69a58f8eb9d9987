package profile

import (
	"sort"
	"time"

	"github.com/actuallystonmai/taste-service/internal/domain"
)

const (
	DefaultSampleBudget = 30
	strongSignalShare   = 0.45
	addedShare          = 0.20
)

// Sampler bounds the item set fed into profile building.
type Sampler struct {
	Budget int
	Now    func() time.Time
}

func NewSampler(budget int) *Sampler {
	if budget <= 0 {
		budget = DefaultSampleBudget
	}
	return &Sampler{Budget: budget, Now: time.Now}
}

// Sample keeps loved/liked items (up to 45% of budget) and added items (up to 20%)
// in library order, then fills the rest with watched items by engagement score.
func (s *Sampler) Sample(lib domain.Library, contentType domain.ContentType) []domain.ScoredItem {
	now := s.Now()
	items := flagged(lib).All(contentType)
	if len(items) == 0 {
		return nil
	}

	added := make(map[string]struct{}, len(lib.Added))
	for _, it := range lib.Added {
		added[it.ID] = struct{}{}
	}

	var strong, addedItems, watched []domain.LibraryItem
	for _, it := range items {
		_, isAdded := added[it.ID]
		switch {
		case isAdded:
			addedItems = append(addedItems, it)
		case it.IsLoved || it.IsLiked:
			strong = append(strong, it)
		default:
			watched = append(watched, it)
		}
	}

	strong = head(strong, int(float64(s.Budget)*strongSignalShare))
	addedItems = head(addedItems, int(float64(s.Budget)*addedShare))

	out := make([]domain.ScoredItem, 0, s.Budget)
	for _, it := range strong {
		out = append(out, ScoreItem(it, sourceOf(it), now))
	}
	for _, it := range addedItems {
		out = append(out, ScoreItem(it, domain.SourceAdded, now))
	}

	scoredWatched := make([]domain.ScoredItem, 0, len(watched))
	for _, it := range watched {
		scoredWatched = append(scoredWatched, ScoreItem(it, domain.SourceWatched, now))
	}
	sort.SliceStable(scoredWatched, func(i, j int) bool {
		if scoredWatched[i].EngagementScore != scoredWatched[j].EngagementScore {
			return scoredWatched[i].EngagementScore > scoredWatched[j].EngagementScore
		}
		return scoredWatched[i].Item.ID < scoredWatched[j].Item.ID
	})

	remaining := s.Budget - len(out)
	if remaining > 0 {
		out = append(out, head(scoredWatched, remaining)...)
	}
	return out
}

// flagged copies the library so bucket membership is reflected in the loved/liked flags.
func flagged(lib domain.Library) domain.Library {
	out := lib
	out.Loved = make([]domain.LibraryItem, len(lib.Loved))
	for i, it := range lib.Loved {
		it.IsLoved = true
		out.Loved[i] = it
	}
	out.Liked = make([]domain.LibraryItem, len(lib.Liked))
	for i, it := range lib.Liked {
		it.IsLiked = true
		out.Liked[i] = it
	}
	return out
}

func sourceOf(it domain.LibraryItem) domain.SourceType {
	if it.IsLoved {
		return domain.SourceLoved
	}
	return domain.SourceLiked
}

func head[T any](s []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(s) > n {
		return s[:n]
	}
	return s
}
