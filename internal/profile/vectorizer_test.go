package profile

import (
	"context"
	"testing"

	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/provider/providertest"
)

func TestEraBucket(t *testing.T) {
	cases := map[int]string{0: "", 1931: "pre-1970s", 1969: "pre-1970s", 1970: "1970s", 1999: "1990s", 2024: "2020s"}
	for year, want := range cases {
		if got := EraBucket(year); got != want {
			t.Errorf("EraBucket(%d) = %q, want %q", year, got, want)
		}
	}
}

func TestEraDecade(t *testing.T) {
	cases := map[string]int{"pre-1970s": 1960, "1980s": 1980, "2020s": 2020, "": 0, "junk": 0}
	for era, want := range cases {
		if got := EraDecade(era); got != want {
			t.Errorf("EraDecade(%q) = %d, want %d", era, got, want)
		}
	}
	if Decade(1955) != 1960 || Decade(2013) != 2010 || Decade(0) != 0 {
		t.Error("Decade disagrees with era buckets")
	}
}

func TestExtractResolvesCrossReference(t *testing.T) {
	fake := providertest.New()
	d := testMovie(550, 18)
	d.IMDbID = "tt0137523"
	fake.AddDetails(d)
	v := NewVectorizer(fake)

	f, err := v.Extract(context.Background(), domain.LibraryItem{ID: "tt0137523", Type: domain.ContentMovie})
	if err != nil || f == nil {
		t.Fatalf("expected features, got %+v (%v)", f, err)
	}
	if f.Era != "1990s" || len(f.Genres) != 1 || f.Genres[0] != 18 {
		t.Errorf("unexpected features %+v", f)
	}

	missing, err := v.Extract(context.Background(), domain.LibraryItem{ID: "tmdb:404", Type: domain.ContentMovie})
	if err != nil || missing != nil {
		t.Errorf("missing metadata should be skipped softly, got %+v (%v)", missing, err)
	}
}
