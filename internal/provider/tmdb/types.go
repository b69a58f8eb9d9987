package tmdb

import "github.com/actuallystonmai/taste-service/internal/domain"

type idRef struct {
	ID int `json:"id"`
}

type listResult struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	GenreIDs     []int   `json:"genre_ids"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	Popularity   float64 `json:"popularity"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
}

func (r listResult) toDomain(t domain.ContentType) domain.CandidateItem {
	return domain.CandidateItem{
		ID:          r.ID,
		Title:       firstNonEmpty(r.Title, r.Name),
		Type:        t,
		GenreIDs:    r.GenreIDs,
		VoteAverage: r.VoteAverage,
		VoteCount:   r.VoteCount,
		Popularity:  r.Popularity,
		ReleaseDate: firstNonEmpty(r.ReleaseDate, r.FirstAirDate),
	}
}

type listResponse struct {
	Page    int          `json:"page"`
	Results []listResult `json:"results"`
}

type findResponse struct {
	MovieResults []idRef `json:"movie_results"`
	TVResults    []idRef `json:"tv_results"`
}

type detailsResponse struct {
	ID                  int     `json:"id"`
	IMDbID              string  `json:"imdb_id"`
	Title               string  `json:"title"`
	Name                string  `json:"name"`
	ReleaseDate         string  `json:"release_date"`
	FirstAirDate        string  `json:"first_air_date"`
	VoteAverage         float64 `json:"vote_average"`
	VoteCount           int     `json:"vote_count"`
	Popularity          float64 `json:"popularity"`
	Genres              []idRef `json:"genres"`
	ProductionCountries []struct {
		ISO string `json:"iso_3166_1"`
	} `json:"production_countries"`
	OriginCountry       []string `json:"origin_country"`
	BelongsToCollection *idRef   `json:"belongs_to_collection"`
	CreatedBy           []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"created_by"`
	Credits struct {
		Cast []domain.CastMember `json:"cast"`
		Crew []domain.CrewMember `json:"crew"`
	} `json:"credits"`
	Keywords struct {
		Keywords []idRef `json:"keywords"`
		Results  []idRef `json:"results"`
	} `json:"keywords"`
	ExternalIDs struct {
		IMDbID string `json:"imdb_id"`
	} `json:"external_ids"`
}

func (r detailsResponse) toDomain(t domain.ContentType) *domain.ItemDetails {
	d := &domain.ItemDetails{
		ID:          r.ID,
		Type:        t,
		IMDbID:      firstNonEmpty(r.IMDbID, r.ExternalIDs.IMDbID),
		Title:       firstNonEmpty(r.Title, r.Name),
		ReleaseDate: firstNonEmpty(r.ReleaseDate, r.FirstAirDate),
		VoteAverage: r.VoteAverage,
		VoteCount:   r.VoteCount,
		Popularity:  r.Popularity,
		Cast:        r.Credits.Cast,
		Crew:        r.Credits.Crew,
	}
	for _, g := range r.Genres {
		d.GenreIDs = append(d.GenreIDs, g.ID)
	}
	// movies list keywords under "keywords", series under "results"
	for _, k := range append(r.Keywords.Keywords, r.Keywords.Results...) {
		d.KeywordIDs = append(d.KeywordIDs, k.ID)
	}
	for _, c := range r.ProductionCountries {
		d.Countries = append(d.Countries, c.ISO)
	}
	if len(d.Countries) == 0 {
		d.Countries = r.OriginCountry
	}
	// series creators stand in for directors
	for _, c := range r.CreatedBy {
		d.Crew = append(d.Crew, domain.CrewMember{ID: c.ID, Name: c.Name, Job: "Director"})
	}
	if r.BelongsToCollection != nil {
		d.CollectionID = r.BelongsToCollection.ID
	}
	return d
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
