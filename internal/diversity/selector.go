// Package diversity picks a capped, decade-balanced subset of a ranked pool.
package diversity

import (
	"math"
	"sort"

	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/profile"
)

const creatorCastDepth = 3

// Options configures a selection. Zero-valued limits are disabled.
type Options struct {
	Target            int
	MinVoteCount      int
	MinWeightedRating float64
	GenreShare        float64
	EraShare          float64
	FreshShare        float64
	CreatorCap        int
	// DecadeWeights enables decade apportionment when non-empty.
	DecadeWeights map[int]float64
}

func DefaultOptions(target int) Options {
	return Options{
		Target:     target,
		GenreShare: 0.5,
		EraShare:   0.5,
	}
}

// ShareCap is the slot ceiling for a share of n: max(1, ceil(n*share)).
func ShareCap(n int, share float64) int {
	c := int(math.Ceil(float64(n) * share))
	if c < 1 {
		c = 1
	}
	return c
}

type state struct {
	opts     Options
	genreCap int
	eraCap   int
	freshCap int

	genres   map[int]int
	eras     map[string]int
	creators map[int]int
	fresh    int
	decades  map[int]int
	quotas   map[int]int
}

// Select returns up to opts.Target items in score order. Items that would break a
// cap are skipped but stay eligible for later passes. The first pass also honors
// decade quotas; the second pass drops them. Genre, era, creator and fresh caps
// are never relaxed.
func Select(items []domain.RankedItem, opts Options) []domain.RankedItem {
	if opts.Target <= 0 || len(items) == 0 {
		return nil
	}

	pool := make([]domain.RankedItem, 0, len(items))
	for _, it := range items {
		if it.VoteCount < opts.MinVoteCount || it.WeightedRating < opts.MinWeightedRating {
			continue
		}
		pool = append(pool, it)
	}
	sortByScore(pool)

	st := &state{
		opts:     opts,
		genres:   make(map[int]int),
		eras:     make(map[string]int),
		creators: make(map[int]int),
		decades:  make(map[int]int),
	}
	if opts.GenreShare > 0 {
		st.genreCap = ShareCap(opts.Target, opts.GenreShare)
	}
	if opts.EraShare > 0 {
		st.eraCap = ShareCap(opts.Target, opts.EraShare)
	}
	if opts.FreshShare > 0 {
		st.freshCap = ShareCap(opts.Target, opts.FreshShare)
	}
	if len(opts.DecadeWeights) > 0 {
		st.quotas = Apportion(restrict(opts.DecadeWeights, pool), opts.Target)
	}

	picked := make([]bool, len(pool))
	var out []domain.RankedItem
	for pass := 0; pass < 2 && len(out) < opts.Target; pass++ {
		useQuotas := pass == 0 && st.quotas != nil
		if pass == 1 && st.quotas == nil {
			break
		}
		for i, it := range pool {
			if len(out) >= opts.Target {
				break
			}
			if picked[i] || !st.allows(it, useQuotas) {
				continue
			}
			st.take(it)
			picked[i] = true
			out = append(out, it)
		}
	}

	sortByScore(out)
	return out
}

func (st *state) allows(it domain.RankedItem, useQuotas bool) bool {
	if st.genreCap > 0 {
		if g := it.PrimaryGenre(); g != 0 && st.genres[g] >= st.genreCap {
			return false
		}
	}
	if st.eraCap > 0 {
		if e := profile.EraBucket(it.Year()); e != "" && st.eras[e] >= st.eraCap {
			return false
		}
	}
	if st.freshCap > 0 && it.Fresh && st.fresh >= st.freshCap {
		return false
	}
	if st.opts.CreatorCap > 0 {
		for _, id := range creators(it) {
			if st.creators[id] >= st.opts.CreatorCap {
				return false
			}
		}
	}
	if useQuotas {
		d := profile.Decade(it.Year())
		if st.decades[d] >= st.quotas[d] {
			return false
		}
	}
	return true
}

func (st *state) take(it domain.RankedItem) {
	if g := it.PrimaryGenre(); g != 0 {
		st.genres[g]++
	}
	if e := profile.EraBucket(it.Year()); e != "" {
		st.eras[e]++
	}
	if it.Fresh {
		st.fresh++
	}
	for _, id := range creators(it) {
		st.creators[id]++
	}
	st.decades[profile.Decade(it.Year())]++
}

// creators are the item's directors plus its top-billed cast, deduplicated.
func creators(it domain.RankedItem) []int {
	cast := it.TopCastIDs
	if len(cast) > creatorCastDepth {
		cast = cast[:creatorCastDepth]
	}
	seen := make(map[int]struct{}, len(it.DirectorIDs)+len(cast))
	var ids []int
	for _, list := range [][]int{it.DirectorIDs, cast} {
		for _, id := range list {
			if _, ok := seen[id]; ok || id == 0 {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// restrict keeps weights for decades present in the pool.
func restrict(weights map[int]float64, pool []domain.RankedItem) map[int]float64 {
	present := make(map[int]struct{})
	for _, it := range pool {
		if d := profile.Decade(it.Year()); d > 0 {
			present[d] = struct{}{}
		}
	}
	out := make(map[int]float64)
	for d, w := range weights {
		if _, ok := present[d]; ok && w > 0 {
			out[d] = w
		}
	}
	return out
}

// Apportion splits n slots across decades by weight: truncated shares first, then
// leftover slots by largest fractional remainder (ties to the earlier decade).
// Returns nil when there is nothing to apportion.
func Apportion(weights map[int]float64, n int) map[int]int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 || n <= 0 {
		return nil
	}

	type share struct {
		decade int
		frac   float64
	}
	quotas := make(map[int]int, len(weights))
	shares := make([]share, 0, len(weights))
	assigned := 0
	for d, w := range weights {
		exact := float64(n) * w / total
		whole := int(math.Floor(exact))
		quotas[d] = whole
		assigned += whole
		shares = append(shares, share{decade: d, frac: exact - float64(whole)})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].frac != shares[j].frac {
			return shares[i].frac > shares[j].frac
		}
		return shares[i].decade < shares[j].decade
	})
	for i := 0; assigned < n && len(shares) > 0; i = (i + 1) % len(shares) {
		quotas[shares[i].decade]++
		assigned++
	}
	return quotas
}

func sortByScore(items []domain.RankedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
}
