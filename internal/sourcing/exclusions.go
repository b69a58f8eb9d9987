package sourcing

import (
	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/provider"
)

// BuildExclusions collects ids from the loved, liked, watched and removed buckets.
// Added-only items stay eligible.
func BuildExclusions(lib domain.Library, excludedGenres []int) *domain.Exclusions {
	ex := domain.NewExclusions()
	ex.ExcludedGenres = excludedGenres
	for _, bucket := range [][]domain.LibraryItem{lib.Loved, lib.Liked, lib.Watched, lib.Removed} {
		for _, it := range bucket {
			if imdb := provider.IMDbID(it.ID); imdb != "" {
				ex.IMDbIDs[imdb] = struct{}{}
				continue
			}
			if id := provider.NativeID(it.ID); id > 0 {
				ex.IDs[id] = struct{}{}
			}
		}
	}
	return ex
}
