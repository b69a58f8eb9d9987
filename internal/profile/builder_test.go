package profile

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/provider/providertest"
)

func testMovie(id int, genres ...int) *domain.ItemDetails {
	return &domain.ItemDetails{
		ID:          id,
		Type:        domain.ContentMovie,
		GenreIDs:    genres,
		KeywordIDs:  []int{id * 10},
		Countries:   []string{"US"},
		ReleaseDate: "1995-05-01",
	}
}

func lovedItem(id int) domain.ScoredItem {
	return domain.ScoredItem{
		Item: domain.LibraryItem{
			ID:      fmt.Sprintf("tmdb:%d", id),
			Type:    domain.ContentMovie,
			IsLoved: true,
			State:   domain.InteractionState{LastWatched: daysAgo(0)},
		},
		Source: domain.SourceLoved,
	}
}

func newTestBuilder(fake *providertest.Fake) *Builder {
	b := NewBuilder(NewVectorizer(fake))
	b.Now = func() time.Time { return testNow }
	return b
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBuildAccumulatesWeightedFeatures(t *testing.T) {
	fake := providertest.New()
	d := testMovie(1, 28, 12, 878, 99)
	d.Cast = []domain.CastMember{{ID: 501}, {ID: 502}, {ID: 503}, {ID: 504}, {ID: 505}, {ID: 506}}
	d.Crew = []domain.CrewMember{{ID: 100, Job: "Director"}, {ID: 101, Job: "Writer"}, {ID: 102, Job: "Sound"}}
	fake.AddDetails(d)

	p, err := newTestBuilder(fake).Build(context.Background(), []domain.ScoredItem{lovedItem(1)}, domain.ContentMovie)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	genres := map[int]float64{28: 3.0, 12: 1.8, 878: 0.9}
	for id, want := range genres {
		if !approx(p.GenreScores[id], want) {
			t.Errorf("genre %d: expected %f, got %f", id, want, p.GenreScores[id])
		}
	}
	if _, ok := p.GenreScores[99]; ok {
		t.Error("fourth genre must be ignored")
	}
	if !approx(p.KeywordScores[10], 2.4) {
		t.Errorf("keyword: expected 2.4, got %f", p.KeywordScores[10])
	}
	if !approx(p.EraScores["1990s"], 1.8) {
		t.Errorf("era: expected 1.8, got %f", p.EraScores["1990s"])
	}
	if !approx(p.CountryScores["US"], 1.2) {
		t.Errorf("country: expected 1.2, got %f", p.CountryScores["US"])
	}
	if !approx(p.DirectorScores[100], 2.7) || !approx(p.DirectorScores[101], 1.35) {
		t.Errorf("crew: unexpected scores %v", p.DirectorScores)
	}
	if _, ok := p.DirectorScores[102]; ok {
		t.Error("non-notable crew must be ignored")
	}
	cast := map[int]float64{501: 2.7, 502: 1.35, 503: 1.35, 504: 0.54, 505: 0.54}
	for id, want := range cast {
		if !approx(p.CastScores[id], want) {
			t.Errorf("cast %d: expected %f, got %f", id, want, p.CastScores[id])
		}
	}
	if _, ok := p.CastScores[506]; ok {
		t.Error("cast beyond top 5 must be ignored")
	}
	if !reflect.DeepEqual(p.ProcessedItemIDs, []string{"tmdb:1"}) {
		t.Errorf("unexpected processed ids %v", p.ProcessedItemIDs)
	}
}

func TestBuildFrequencyMultiplier(t *testing.T) {
	fake := providertest.New()
	fake.AddDetails(testMovie(1, 28))
	fake.AddDetails(testMovie(2, 28))

	p, err := newTestBuilder(fake).Build(context.Background(), []domain.ScoredItem{lovedItem(1), lovedItem(2)}, domain.ContentMovie)
	if err != nil {
		t.Fatal(err)
	}
	want := 6.0 * (1 + 0.1*math.Log(2))
	if !approx(p.GenreScores[28], want) {
		t.Errorf("expected %f, got %f", want, p.GenreScores[28])
	}
	if !approx(p.KeywordScores[10], 2.4) {
		t.Errorf("single-occurrence keyword must not be boosted, got %f", p.KeywordScores[10])
	}
}

func TestBuildIdempotent(t *testing.T) {
	fake := providertest.New()
	var items []domain.ScoredItem
	for i := 1; i <= 8; i++ {
		fake.AddDetails(testMovie(i, 28, 18, 35))
		items = append(items, lovedItem(i))
	}
	b := newTestBuilder(fake)

	p1, err := b.Build(context.Background(), items, domain.ContentMovie)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := b.Build(context.Background(), items, domain.ContentMovie)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(p1, p2) {
		t.Error("identical inputs produced different profiles")
	}
}

func TestGenreScoreMonotonicAndCapped(t *testing.T) {
	fake := providertest.New()
	b := newTestBuilder(fake)
	var items []domain.ScoredItem
	prev := 0.0
	for i := 1; i <= 30; i++ {
		fake.AddDetails(testMovie(i, 28))
		items = append(items, lovedItem(i))

		p, err := b.Build(context.Background(), items, domain.ContentMovie)
		if err != nil {
			t.Fatal(err)
		}
		got := p.GenreScores[28]
		if got < prev {
			t.Fatalf("%d items: genre score decreased %f -> %f", i, prev, got)
		}
		if got > CapGenre {
			t.Fatalf("%d items: genre score %f exceeds cap", i, got)
		}
		prev = got
	}
	if prev != CapGenre {
		t.Errorf("expected cap to be reached, got %f", prev)
	}
}

func TestBuildDropsFailedAndUnresolvedItems(t *testing.T) {
	fake := providertest.New()
	fake.AddDetails(testMovie(1, 28))
	fake.AddDetails(testMovie(2, 18))
	fake.FailDetails[2] = true

	items := []domain.ScoredItem{lovedItem(1), lovedItem(2)}
	unknown := lovedItem(0)
	unknown.Item.ID = "tt0000001"
	items = append(items, unknown)
	series := lovedItem(3)
	series.Item.Type = domain.ContentSeries
	items = append(items, series)

	p, err := newTestBuilder(fake).Build(context.Background(), items, domain.ContentMovie)
	if err != nil {
		t.Fatalf("soft failures must not fail the build: %v", err)
	}
	if _, ok := p.GenreScores[18]; ok {
		t.Error("failed item contributed features")
	}
	if !approx(p.GenreScores[28], 3.0) {
		t.Errorf("expected surviving item to count, got %f", p.GenreScores[28])
	}
	if len(p.ProcessedItemIDs) != 3 {
		t.Errorf("expected 3 movie ids tracked, got %v", p.ProcessedItemIDs)
	}
}

func TestBuildEmpty(t *testing.T) {
	p, err := newTestBuilder(providertest.New()).Build(context.Background(), nil, domain.ContentMovie)
	if err != nil {
		t.Fatal(err)
	}
	if !p.IsEmpty() || p.IsLegacy() {
		t.Errorf("expected empty tracked profile, got %+v", p)
	}
}

func TestIncrementalMatchesDeltaBuild(t *testing.T) {
	fake := providertest.New()
	for i := 1; i <= 4; i++ {
		fake.AddDetails(testMovie(i, 28, 18))
	}
	b := newTestBuilder(fake)
	ctx := context.Background()

	base := []domain.ScoredItem{lovedItem(1), lovedItem(2)}
	added := []domain.ScoredItem{lovedItem(3), lovedItem(4)}

	existing, err := b.Build(ctx, base, domain.ContentMovie)
	if err != nil {
		t.Fatal(err)
	}
	delta, err := b.Build(ctx, added, domain.ContentMovie)
	if err != nil {
		t.Fatal(err)
	}
	inc, full, err := b.BuildIncremental(ctx, append(base, added...), domain.ContentMovie, existing)
	if err != nil {
		t.Fatal(err)
	}
	if full {
		t.Fatal("expected incremental path")
	}

	for id, v := range inc.GenreScores {
		if !approx(v, existing.GenreScores[id]+delta.GenreScores[id]) {
			t.Errorf("genre %d: expected %f, got %f", id, existing.GenreScores[id]+delta.GenreScores[id], v)
		}
	}
	for id, v := range inc.KeywordScores {
		if !approx(v, existing.KeywordScores[id]+delta.KeywordScores[id]) {
			t.Errorf("keyword %d: mismatch %f", id, v)
		}
	}
	want := []string{"tmdb:1", "tmdb:2", "tmdb:3", "tmdb:4"}
	if !reflect.DeepEqual(inc.ProcessedItemIDs, want) {
		t.Errorf("expected %v, got %v", want, inc.ProcessedItemIDs)
	}
	if !reflect.DeepEqual(existing.ProcessedItemIDs, []string{"tmdb:1", "tmdb:2"}) {
		t.Error("existing profile must not be mutated")
	}
}

func TestIncrementalForcesFullRebuild(t *testing.T) {
	fake := providertest.New()
	for i := 1; i <= 3; i++ {
		fake.AddDetails(testMovie(i, 28))
	}
	b := newTestBuilder(fake)
	ctx := context.Background()
	all := []domain.ScoredItem{lovedItem(1), lovedItem(2), lovedItem(3)}

	legacy, err := b.Build(ctx, all[:2], domain.ContentMovie)
	if err != nil {
		t.Fatal(err)
	}
	legacy.ProcessedItemIDs = nil
	p, full, err := b.BuildIncremental(ctx, all, domain.ContentMovie, legacy)
	if err != nil || !full {
		t.Fatalf("legacy profile should rebuild in full (full=%v, err=%v)", full, err)
	}
	rebuilt, _ := b.Build(ctx, all, domain.ContentMovie)
	if !reflect.DeepEqual(p, rebuilt) {
		t.Error("legacy rebuild differs from a full build")
	}

	stale, _ := b.Build(ctx, all, domain.ContentMovie)
	_, full, err = b.BuildIncremental(ctx, all[:2], domain.ContentMovie, stale)
	if err != nil || !full {
		t.Errorf("removed item should force full rebuild (full=%v, err=%v)", full, err)
	}
}

func TestIncrementalNoChanges(t *testing.T) {
	fake := providertest.New()
	fake.AddDetails(testMovie(1, 28))
	b := newTestBuilder(fake)
	items := []domain.ScoredItem{lovedItem(1)}

	existing, _ := b.Build(context.Background(), items, domain.ContentMovie)
	calls := fake.CallCount("details")
	p, full, err := b.BuildIncremental(context.Background(), items, domain.ContentMovie, existing)
	if err != nil || full {
		t.Fatalf("unexpected full=%v err=%v", full, err)
	}
	if fake.CallCount("details") != calls {
		t.Error("no new items should mean no fetches")
	}
	if !reflect.DeepEqual(p.GenreScores, existing.GenreScores) {
		t.Error("profile changed without new items")
	}
}
