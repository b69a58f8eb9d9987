package model

import (
	"math"
	"testing"

	"github.com/actuallystonmai/taste-service/internal/domain"
)

func eraProfile(eras map[string]float64) *domain.TasteProfile {
	p := domain.NewTasteProfile(domain.ContentMovie)
	for k, v := range eras {
		p.EraScores[k] = v
	}
	return p
}

func TestDecadePreferenceNeutral(t *testing.T) {
	dp := NewDecadePreference(eraProfile(map[string]float64{"2000s": 5}), nil)
	if dp.Intensity != 0 || dp.Blend(2001) != 1 || dp.Blend(1975) != 1 {
		t.Errorf("profile without recent or classic weight must be neutral, got %+v", dp)
	}
	if NewDecadePreference(nil, nil).Blend(2020) != 1 {
		t.Error("nil profile must be neutral")
	}
}

func TestDecadePreferenceRecentLeaning(t *testing.T) {
	p := eraProfile(map[string]float64{"2020s": 8, "2010s": 2})
	cands := []domain.CandidateItem{{ReleaseDate: "1985-01-01"}, {ReleaseDate: "2022-01-01"}}
	dp := NewDecadePreference(p, cands)

	wantIntensity := 2 * (1/(1+math.Exp(-2*(10/(10+1e-6)))) - 0.5)
	if math.Abs(dp.Intensity-wantIntensity) > 1e-9 {
		t.Errorf("expected intensity %v, got %v", wantIntensity, dp.Intensity)
	}
	if dp.Blend(2021) <= 1 {
		t.Errorf("preferred decade should be boosted, got %v", dp.Blend(2021))
	}
	if dp.Blend(1985) >= 1 {
		t.Errorf("unseen decade should be dampened, got %v", dp.Blend(1985))
	}
	if dp.Blend(0) != 1 {
		t.Error("unknown year must be neutral")
	}

	// support = {2020, 2010, 1980}; p(2020) = 0.8
	want := 1 + dp.Intensity*(0.8-1.0/3)
	if math.Abs(dp.Multiplier(2024)-want) > 1e-9 {
		t.Errorf("expected multiplier %v, got %v", want, dp.Multiplier(2024))
	}
}

func TestDecadePreferenceClassicLeaning(t *testing.T) {
	p := eraProfile(map[string]float64{"1970s": 6, "pre-1970s": 4})
	dp := NewDecadePreference(p, nil)
	if dp.Intensity >= 0 {
		t.Errorf("classic taste should have negative intensity, got %v", dp.Intensity)
	}
	weights := DecadeWeights(p)
	if weights[1960] != 4 || weights[1970] != 6 {
		t.Errorf("unexpected decade weights %v", weights)
	}
}
