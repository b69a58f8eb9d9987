package catalog

import (
	"slices"
	"strings"

	"github.com/actuallystonmai/taste-service/internal/domain"
)

const (
	anchorMatch   = 1.0
	flavorMatch   = 0.7
	fallbackMatch = 0.3

	// fullAnchorBonus rewards items that hit every anchor of a multi-anchor theme.
	fullAnchorBonus = 2.0
	// partialAnchorBonus scales with the share of anchors matched otherwise.
	partialAnchorBonus = 0.5
)

var axes = []Axis{AxisGenre, AxisKeyword, AxisCountry, AxisEra}

// IsThemed reports whether q carries any theme axis.
func (q Query) IsThemed() bool {
	return len(q.Roles) > 0
}

// ThemeMatch scores how well c fits the theme: 1.0 per matched anchor, 0.7 per
// flavor, 0.3 per fallback, plus a bonus for anchor coverage. Keyword axes match
// items that carry no keyword data yet.
func (q Query) ThemeMatch(c domain.CandidateItem) float64 {
	var score float64
	var anchors, matched int
	for _, a := range axes {
		role := q.Roles[a]
		if role == RoleNone {
			continue
		}
		hit := q.matches(a, c)
		switch role {
		case RoleAnchor:
			anchors++
			if hit {
				matched++
				score += anchorMatch
			}
		case RoleFlavor:
			if hit {
				score += flavorMatch
			}
		case RoleFallback:
			if hit {
				score += fallbackMatch
			}
		}
	}
	switch {
	case anchors > 1 && matched == anchors:
		score += fullAnchorBonus
	case anchors > 0:
		score += float64(matched) / float64(anchors) * partialAnchorBonus
	}
	return score
}

func (q Query) matches(a Axis, c domain.CandidateItem) bool {
	switch a {
	case AxisGenre:
		for _, g := range c.GenreIDs {
			if slices.Contains(q.GenreIDs, g) {
				return true
			}
		}
	case AxisKeyword:
		if len(c.KeywordIDs) == 0 {
			return true
		}
		for _, k := range c.KeywordIDs {
			if slices.Contains(q.KeywordIDs, k) {
				return true
			}
		}
	case AxisCountry:
		for _, code := range c.Countries {
			if strings.EqualFold(code, q.Country) {
				return true
			}
		}
	case AxisEra:
		y := c.Year()
		return y > 0 && y >= q.YearFrom && y <= q.YearTo
	}
	return false
}
