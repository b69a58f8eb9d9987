package domain

import "errors"

var ErrUnsupportedContentType = errors.New("unsupported content type")

// CandidateItem is an externally sourced item awaiting ranking.
type CandidateItem struct {
	ID          int         `json:"id"`
	IMDbID      string      `json:"imdb_id,omitempty"`
	Title       string      `json:"title"`
	Type        ContentType `json:"type"`
	GenreIDs    []int       `json:"genre_ids"`
	VoteAverage float64     `json:"vote_average"`
	VoteCount   int         `json:"vote_count"`
	Popularity  float64     `json:"popularity"`
	ReleaseDate string      `json:"release_date"`

	KeywordIDs  []int    `json:"keyword_ids,omitempty"`
	DirectorIDs []int    `json:"director_ids,omitempty"`
	TopCastIDs  []int    `json:"top_cast_ids,omitempty"`
	Countries   []string `json:"countries,omitempty"`

	Ranked       bool   `json:"ranked,omitempty"`
	Fresh        bool   `json:"fresh,omitempty"`
	Source       string `json:"source,omitempty"`
	CollectionID int    `json:"collection_id,omitempty"`
}

func (c CandidateItem) Year() int {
	return ParseYear(c.ReleaseDate)
}

// PrimaryGenre is the first listed genre, or 0.
func (c CandidateItem) PrimaryGenre() int {
	if len(c.GenreIDs) == 0 {
		return 0
	}
	return c.GenreIDs[0]
}

type RankedItem struct {
	CandidateItem
	Score          float64 `json:"score"`
	Similarity     float64 `json:"similarity"`
	WeightedRating float64 `json:"weighted_rating"`
}

type RowStatus string

const (
	StatusSuccess RowStatus = "success"
	StatusFailed  RowStatus = "failed"
)

type RowResult struct {
	CatalogID string       `json:"catalog_id"`
	Items     []RankedItem `json:"items,omitempty"`
	Status    RowStatus    `json:"status"`
	Error     string       `json:"error,omitempty"`
}

type BatchSummary struct {
	SuccessCount     int   `json:"success_count"`
	FailedCount      int   `json:"failed_count"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

type BatchResponse struct {
	UserID      string       `json:"user_id"`
	Rows        []RowResult  `json:"rows"`
	Summary     BatchSummary `json:"summary"`
	GeneratedAt string       `json:"generated_at"`
}
