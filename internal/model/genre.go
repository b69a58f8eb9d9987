package model

import "github.com/actuallystonmai/taste-service/internal/domain"

const (
	whitelistSize   = 7
	offGenrePenalty = 0.4
)

// GenreWhitelist is the set of the profile's strongest genres. Empty for an empty profile.
func GenreWhitelist(p *domain.TasteProfile) map[int]struct{} {
	if p == nil {
		return nil
	}
	top := p.TopGenres(whitelistSize)
	out := make(map[int]struct{}, len(top))
	for _, g := range top {
		out[g] = struct{}{}
	}
	return out
}

// GenreMultiplier softly penalizes candidates sharing no genre with the whitelist.
// Untagged candidates and empty whitelists are neutral.
func GenreMultiplier(genreIDs []int, whitelist map[int]struct{}) float64 {
	if len(whitelist) == 0 || len(genreIDs) == 0 {
		return 1
	}
	for _, g := range genreIDs {
		if _, ok := whitelist[g]; ok {
			return 1
		}
	}
	return offGenrePenalty
}
