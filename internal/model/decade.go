package model

import (
	"math"

	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/profile"
)

const intensitySteepness = 2.0

// DecadePreference nudges scores toward the decades a profile leans to.
// Intensity is in [-1,1]: positive for recent (2010+) taste, negative for classic (pre-2000).
type DecadePreference struct {
	Intensity float64
	pUser     map[int]float64
	uniform   float64
}

func NewDecadePreference(p *domain.TasteProfile, candidates []domain.CandidateItem) *DecadePreference {
	weights := DecadeWeights(p)

	var recent, classic, total float64
	for d, w := range weights {
		total += w
		switch {
		case d >= 2010:
			recent += w
		case d < 2000:
			classic += w
		}
	}
	if recent+classic <= 0 {
		return &DecadePreference{}
	}

	score := (recent - classic) / (recent + classic + 1e-6)
	intensity := 2 * (1/(1+math.Exp(-intensitySteepness*score)) - 0.5)

	support := make(map[int]struct{}, len(weights))
	for d := range weights {
		support[d] = struct{}{}
	}
	for _, c := range candidates {
		if d := profile.Decade(c.Year()); d > 0 {
			support[d] = struct{}{}
		}
	}

	pUser := make(map[int]float64, len(support))
	for d := range support {
		if total > 0 {
			pUser[d] = weights[d] / total
		}
	}

	return &DecadePreference{
		Intensity: intensity,
		pUser:     pUser,
		uniform:   1 / float64(len(support)),
	}
}

func (dp *DecadePreference) Alpha() float64 {
	return math.Abs(dp.Intensity)
}

// Multiplier is the raw per-year factor. Unknown years are neutral.
func (dp *DecadePreference) Multiplier(year int) float64 {
	if year <= 0 || dp.pUser == nil {
		return 1
	}
	return 1 + dp.Intensity*(dp.pUser[profile.Decade(year)]-dp.uniform)
}

// Blend applies the multiplier with strength alpha.
func (dp *DecadePreference) Blend(year int) float64 {
	a := dp.Alpha()
	return (1 - a) + a*dp.Multiplier(year)
}

// DecadeWeights folds a profile's era scores into decade keys.
func DecadeWeights(p *domain.TasteProfile) map[int]float64 {
	out := make(map[int]float64)
	if p == nil {
		return out
	}
	for era, w := range p.EraScores {
		if d := profile.EraDecade(era); d > 0 && w > 0 {
			out[d] += w
		}
	}
	return out
}
