package diversity

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/actuallystonmai/taste-service/internal/domain"
)

func item(id int, score float64, genre int, year int) domain.RankedItem {
	return domain.RankedItem{
		CandidateItem: domain.CandidateItem{
			ID:          id,
			GenreIDs:    []int{genre},
			ReleaseDate: fmt.Sprintf("%d-01-01", year),
			VoteCount:   1000,
		},
		Score:          score,
		WeightedRating: 7.5,
	}
}

func TestShareCap(t *testing.T) {
	cases := []struct {
		n     int
		share float64
		want  int
	}{{10, 0.5, 5}, {9, 0.5, 5}, {20, 0.15, 3}, {1, 0.15, 1}, {0, 0.5, 1}}
	for _, tc := range cases {
		if got := ShareCap(tc.n, tc.share); got != tc.want {
			t.Errorf("ShareCap(%d, %v) = %d, want %d", tc.n, tc.share, got, tc.want)
		}
	}
}

func TestSelectGenreCap(t *testing.T) {
	var pool []domain.RankedItem
	for i := 0; i < 30; i++ {
		genre := 28
		if i%4 == 3 {
			genre = 18 + i%3
		}
		pool = append(pool, item(i+1, 100-float64(i), genre, 1990+i))
	}

	for _, n := range []int{4, 7, 10} {
		out := Select(pool, Options{Target: n, GenreShare: 0.5})
		counts := map[int]int{}
		for _, it := range out {
			counts[it.PrimaryGenre()]++
		}
		limit := ShareCap(n, 0.5)
		for g, c := range counts {
			if c > limit {
				t.Errorf("n=%d: genre %d occupies %d slots, cap %d", n, g, c, limit)
			}
		}
		if len(out) != n {
			t.Errorf("n=%d: expected full selection, got %d", n, len(out))
		}
	}
}

func TestSelectSkippedItemsStayEligible(t *testing.T) {
	pool := []domain.RankedItem{
		item(1, 0.9, 28, 1995),
		item(2, 0.8, 28, 1996),
		item(3, 0.7, 18, 2005),
		item(4, 0.6, 35, 2012),
	}
	out := Select(pool, Options{Target: 3, GenreShare: 0.3, EraShare: 1})
	ids := []int{}
	for _, it := range out {
		ids = append(ids, it.ID)
	}
	if !reflect.DeepEqual(ids, []int{1, 3, 4}) {
		t.Errorf("expected [1 3 4], got %v", ids)
	}
}

func TestSelectFloors(t *testing.T) {
	low := item(1, 0.99, 28, 2001)
	low.VoteCount = 100
	weak := item(2, 0.98, 18, 2001)
	weak.WeightedRating = 6.9
	ok := item(3, 0.5, 35, 2001)

	out := Select([]domain.RankedItem{low, weak, ok}, Options{Target: 3, MinVoteCount: 250, MinWeightedRating: 7.2})
	if len(out) != 1 || out[0].ID != 3 {
		t.Errorf("expected only item 3 past floors, got %+v", out)
	}
}

func TestSelectCreatorAndFreshCaps(t *testing.T) {
	var pool []domain.RankedItem
	for i := 0; i < 6; i++ {
		it := item(i+1, 1-float64(i)/10, 10+i, 1980+i*5)
		it.DirectorIDs = []int{77}
		pool = append(pool, it)
	}
	out := Select(pool, Options{Target: 6, CreatorCap: 3})
	if len(out) != 3 {
		t.Errorf("creator cap 3 should admit 3 items, got %d", len(out))
	}

	var fresh []domain.RankedItem
	for i := 0; i < 20; i++ {
		it := item(i+1, 1-float64(i)/100, 10+i, 2000)
		it.Fresh = i < 10
		fresh = append(fresh, it)
	}
	out = Select(fresh, Options{Target: 10, FreshShare: 0.15})
	n := 0
	for _, it := range out {
		if it.Fresh {
			n++
		}
	}
	if n != 2 {
		t.Errorf("expected 2 fresh items (ceil 10*0.15), got %d", n)
	}
	if len(out) != 10 {
		t.Errorf("expected 10 items, got %d", len(out))
	}
}

func TestApportion(t *testing.T) {
	got := Apportion(map[int]float64{1990: 5, 2000: 3, 2010: 2}, 7)
	// exact 3.5, 2.1, 1.4 -> 3,2,1 + one slot to 1990
	want := map[int]int{1990: 4, 2000: 2, 2010: 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if Apportion(nil, 5) != nil {
		t.Error("empty weights should disable quotas")
	}
}

func TestSelectDecadeApportionment(t *testing.T) {
	var pool []domain.RankedItem
	id := 1
	// 2010s items score highest, so without quotas they would fill every slot.
	for i := 0; i < 6; i++ {
		pool = append(pool, item(id, 0.9-float64(i)/100, 100+id, 2015))
		id++
	}
	for i := 0; i < 6; i++ {
		pool = append(pool, item(id, 0.5-float64(i)/100, 100+id, 1992))
		id++
	}

	opts := Options{Target: 4, DecadeWeights: map[int]float64{1990: 1, 2010: 1, 1950: 9}}
	out := Select(pool, opts)
	decades := map[int]int{}
	for _, it := range out {
		decades[it.Year()/10*10]++
	}
	if decades[1990] != 2 || decades[2010] != 2 {
		t.Errorf("expected a 2/2 split, got %v", decades)
	}
	if out[0].Score < out[len(out)-1].Score {
		t.Error("output must be score-descending")
	}
}

func TestSelectRelaxesQuotasToFill(t *testing.T) {
	pool := []domain.RankedItem{
		item(1, 0.9, 1, 2015),
		item(2, 0.8, 2, 2016),
		item(3, 0.7, 3, 2017),
		item(4, 0.6, 4, 1995),
	}
	out := Select(pool, Options{Target: 4, DecadeWeights: map[int]float64{1990: 3, 2010: 1}})
	if len(out) != 4 {
		t.Errorf("second pass should fill all slots, got %d", len(out))
	}
}

func TestSelectSmallPool(t *testing.T) {
	out := Select([]domain.RankedItem{item(1, 1, 28, 2000)}, DefaultOptions(10))
	if len(out) != 1 {
		t.Errorf("expected pool exhaustion at 1, got %d", len(out))
	}
	if Select(nil, DefaultOptions(5)) != nil {
		t.Error("empty pool should select nothing")
	}
}
