package profile

import "github.com/actuallystonmai/taste-service/internal/domain"

const (
	matchWeightGenre    = 1.0
	matchWeightKeyword  = 0.8
	matchWeightCast     = 0.9
	matchWeightDirector = 0.9
	matchWeightEra      = 0.6
	matchWeightCountry  = 0.4

	matchWeightTotal = matchWeightGenre + matchWeightKeyword + matchWeightCast +
		matchWeightDirector + matchWeightEra + matchWeightCountry
)

// Scorer holds a max-normalized view of a profile. The stored profile is left untouched.
type Scorer struct {
	genres, keywords, directors, cast map[int]float64
	eras, countries                   map[string]float64
}

func NewScorer(p *domain.TasteProfile) *Scorer {
	if p == nil {
		p = domain.NewTasteProfile("")
	}
	return &Scorer{
		genres:    normalizeInt(p.GenreScores),
		keywords:  normalizeInt(p.KeywordScores),
		directors: normalizeInt(p.DirectorScores),
		cast:      normalizeInt(p.CastScores),
		eras:      normalizeString(p.EraScores),
		countries: normalizeString(p.CountryScores),
	}
}

// Similarity is the weighted mean of per-category matches in [0,1].
// A category the candidate has no data for scores 0 but still counts in the denominator.
func (s *Scorer) Similarity(c domain.CandidateItem) float64 {
	total := matchWeightGenre*meanInt(s.genres, c.GenreIDs) +
		matchWeightKeyword*meanInt(s.keywords, c.KeywordIDs) +
		matchWeightCast*meanInt(s.cast, c.TopCastIDs) +
		matchWeightDirector*meanInt(s.directors, c.DirectorIDs) +
		matchWeightCountry*meanString(s.countries, c.Countries)

	if era := EraBucket(c.Year()); era != "" {
		total += matchWeightEra * s.eras[era]
	}
	return total / matchWeightTotal
}

func meanInt(norm map[int]float64, ids []int) float64 {
	if len(ids) == 0 {
		return 0
	}
	sum := 0.0
	for _, id := range ids {
		sum += norm[id]
	}
	return sum / float64(len(ids))
}

func meanString(norm map[string]float64, ids []string) float64 {
	if len(ids) == 0 {
		return 0
	}
	sum := 0.0
	for _, id := range ids {
		sum += norm[id]
	}
	return sum / float64(len(ids))
}

func normalizeInt(m map[int]float64) map[int]float64 {
	max := 0.0
	for _, v := range m {
		if v > max {
			max = v
		}
	}
	out := make(map[int]float64, len(m))
	if max <= 0 {
		return out
	}
	for k, v := range m {
		out[k] = v / max
	}
	return out
}

func normalizeString(m map[string]float64) map[string]float64 {
	max := 0.0
	for _, v := range m {
		if v > max {
			max = v
		}
	}
	out := make(map[string]float64, len(m))
	if max <= 0 {
		return out
	}
	for k, v := range m {
		out[k] = v / max
	}
	return out
}
