package domain

import (
	"sort"
	"time"
)

// TasteProfile is an additive, capped feature-weight map for one user and content type.
// Scores are never normalized in storage.
type TasteProfile struct {
	ContentType    ContentType        `json:"content_type"`
	GenreScores    map[int]float64    `json:"genre_scores"`
	KeywordScores  map[int]float64    `json:"keyword_scores"`
	DirectorScores map[int]float64    `json:"director_scores"`
	CastScores     map[int]float64    `json:"cast_scores"`
	EraScores      map[string]float64 `json:"era_scores"`
	CountryScores  map[string]float64 `json:"country_scores"`
	LastUpdated    time.Time          `json:"last_updated"`

	// nil marks a profile written before item tracking existed.
	ProcessedItemIDs []string `json:"processed_item_ids"`
}

func NewTasteProfile(contentType ContentType) *TasteProfile {
	return &TasteProfile{
		ContentType:      contentType,
		GenreScores:      make(map[int]float64),
		KeywordScores:    make(map[int]float64),
		DirectorScores:   make(map[int]float64),
		CastScores:       make(map[int]float64),
		EraScores:        make(map[string]float64),
		CountryScores:    make(map[string]float64),
		ProcessedItemIDs: []string{},
	}
}

func (p *TasteProfile) IsLegacy() bool {
	return p.ProcessedItemIDs == nil
}

func (p *TasteProfile) IsEmpty() bool {
	return len(p.GenreScores) == 0 && len(p.KeywordScores) == 0 && len(p.DirectorScores) == 0 &&
		len(p.CastScores) == 0 && len(p.EraScores) == 0 && len(p.CountryScores) == 0
}

func (p *TasteProfile) TopGenres(n int) []int    { return TopInt(p.GenreScores, n) }
func (p *TasteProfile) TopKeywords(n int) []int  { return TopInt(p.KeywordScores, n) }
func (p *TasteProfile) TopDirectors(n int) []int { return TopInt(p.DirectorScores, n) }
func (p *TasteProfile) TopCast(n int) []int      { return TopInt(p.CastScores, n) }
func (p *TasteProfile) TopEras(n int) []string   { return TopString(p.EraScores, n) }
func (p *TasteProfile) TopCountries(n int) []string {
	return TopString(p.CountryScores, n)
}

// TopInt returns up to n keys by descending score, ties broken by ascending key.
func TopInt(m map[int]float64, n int) []int {
	keys := make([]int, 0, len(m))
	for k, v := range m {
		if v > 0 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if n >= 0 && len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func TopString(m map[string]float64, n int) []string {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if v > 0 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if n >= 0 && len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
