package domain

import "strconv"

type ContentType string

const (
	ContentMovie  ContentType = "movie"
	ContentSeries ContentType = "series"
)

func (t ContentType) Valid() bool {
	return t == ContentMovie || t == ContentSeries
}

type CastMember struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

type CrewMember struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Job  string `json:"job"`
}

// ItemDetails is resolved metadata for one catalog item.
type ItemDetails struct {
	ID           int          `json:"id"`
	Type         ContentType  `json:"type"`
	IMDbID       string       `json:"imdb_id,omitempty"`
	Title        string       `json:"title"`
	GenreIDs     []int        `json:"genre_ids"`
	KeywordIDs   []int        `json:"keyword_ids"`
	Cast         []CastMember `json:"cast"`
	Crew         []CrewMember `json:"crew"`
	Countries    []string     `json:"countries"`
	ReleaseDate  string       `json:"release_date"`
	VoteAverage  float64      `json:"vote_average"`
	VoteCount    int          `json:"vote_count"`
	Popularity   float64      `json:"popularity"`
	CollectionID int          `json:"collection_id,omitempty"`
}

func (d ItemDetails) Year() int {
	return ParseYear(d.ReleaseDate)
}

// Directors returns crew ids with the Director job, in credit order.
func (d ItemDetails) Directors() []int {
	var ids []int
	for _, c := range d.Crew {
		if c.Job == "Director" {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// TopCast returns the ids of the first n billed cast members.
func (d ItemDetails) TopCast(n int) []int {
	ids := make([]int, 0, n)
	for i, c := range d.Cast {
		if i >= n {
			break
		}
		ids = append(ids, c.ID)
	}
	return ids
}

// AsCandidate projects resolved details onto the candidate shape used for ranking.
func (d ItemDetails) AsCandidate() CandidateItem {
	return CandidateItem{
		ID:           d.ID,
		IMDbID:       d.IMDbID,
		Title:        d.Title,
		Type:         d.Type,
		GenreIDs:     d.GenreIDs,
		VoteAverage:  d.VoteAverage,
		VoteCount:    d.VoteCount,
		Popularity:   d.Popularity,
		ReleaseDate:  d.ReleaseDate,
		KeywordIDs:   d.KeywordIDs,
		DirectorIDs:  d.Directors(),
		TopCastIDs:   d.TopCast(3),
		Countries:    d.Countries,
		CollectionID: d.CollectionID,
	}
}

// ParseYear reads the leading year of a YYYY-MM-DD date. Returns 0 when absent.
func ParseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil || y <= 0 {
		return 0
	}
	return y
}
