package domain

import "time"

type InteractionState struct {
	TimesWatched       int        `json:"times_watched"`
	TimeWatched        int64      `json:"time_watched"`
	OverallTimeWatched int64      `json:"overall_time_watched"`
	Duration           int64      `json:"duration"`
	FlaggedWatched     int        `json:"flagged_watched"`
	LastWatched        *time.Time `json:"last_watched,omitempty"`
}

type LibraryItem struct {
	ID      string           `json:"id"`
	Type    ContentType      `json:"type"`
	Name    string           `json:"name"`
	State   InteractionState `json:"state"`
	MTime   *time.Time       `json:"mtime,omitempty"`
	IsLoved bool             `json:"is_loved"`
	IsLiked bool             `json:"is_liked"`
	Temp    bool             `json:"temp"`
	Removed bool             `json:"removed"`
}

// Library is a point-in-time snapshot of a user's library buckets.
type Library struct {
	Loved   []LibraryItem `json:"loved"`
	Liked   []LibraryItem `json:"liked"`
	Watched []LibraryItem `json:"watched"`
	Added   []LibraryItem `json:"added"`
	Removed []LibraryItem `json:"removed,omitempty"`
}

// All returns every item across buckets once, first bucket wins, optionally filtered by type.
func (l Library) All(contentType ContentType) []LibraryItem {
	seen := make(map[string]struct{})
	var out []LibraryItem
	for _, bucket := range [][]LibraryItem{l.Loved, l.Liked, l.Watched, l.Added} {
		for _, item := range bucket {
			if contentType != "" && item.Type != contentType {
				continue
			}
			if _, ok := seen[item.ID]; ok {
				continue
			}
			seen[item.ID] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

type SourceType string

const (
	SourceLoved   SourceType = "loved"
	SourceLiked   SourceType = "liked"
	SourceWatched SourceType = "watched"
	SourceAdded   SourceType = "added"
)

// ScoredItem is a library item annotated with engagement signals.
type ScoredItem struct {
	Item            LibraryItem `json:"item"`
	EngagementScore float64     `json:"engagement_score"`
	CompletionRate  float64     `json:"completion_rate"`
	IsRewatched     bool        `json:"is_rewatched"`
	IsRecent        bool        `json:"is_recent"`
	Source          SourceType  `json:"source_type"`
}
