// Package providertest offers an in-memory provider.Provider for tests.
package providertest

import (
	"context"
	"errors"
	"sync"

	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/provider"
)

var ErrInjected = errors.New("injected failure")

// Fake answers from in-memory tables. Lists keyed by source id are served
// from page 1 only unless Pages has an entry.
type Fake struct {
	mu sync.Mutex

	DetailsByID     map[int]*domain.ItemDetails
	IMDb            map[string]int
	Recs            map[int][]domain.CandidateItem
	Similars        map[int][]domain.CandidateItem
	TrendingItems   []domain.CandidateItem
	TopRatedItems   []domain.CandidateItem
	DiscoverFunc    func(f provider.DiscoverFilter) []domain.CandidateItem
	FailDetails     map[int]bool
	FailDiscover    bool
	FailFind        bool
	FailRecommended map[int]bool

	Calls     map[string]int
	Discovers []provider.DiscoverFilter
}

func New() *Fake {
	return &Fake{
		DetailsByID:     make(map[int]*domain.ItemDetails),
		IMDb:            make(map[string]int),
		Recs:            make(map[int][]domain.CandidateItem),
		Similars:        make(map[int][]domain.CandidateItem),
		FailDetails:     make(map[int]bool),
		FailRecommended: make(map[int]bool),
		Calls:           make(map[string]int),
	}
}

func (f *Fake) AddDetails(d *domain.ItemDetails) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DetailsByID[d.ID] = d
	if d.IMDbID != "" {
		f.IMDb[d.IMDbID] = d.ID
	}
}

func (f *Fake) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[op]
}

func (f *Fake) DiscoverCalls() []provider.DiscoverFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]provider.DiscoverFilter(nil), f.Discovers...)
}

func (f *Fake) record(op string) {
	f.mu.Lock()
	f.Calls[op]++
	f.mu.Unlock()
}

func (f *Fake) Details(ctx context.Context, id int, t domain.ContentType) (*domain.ItemDetails, error) {
	f.record("details")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailDetails[id] {
		return nil, ErrInjected
	}
	d, ok := f.DetailsByID[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (f *Fake) Discover(ctx context.Context, t domain.ContentType, filter provider.DiscoverFilter) ([]domain.CandidateItem, error) {
	f.record("discover")
	f.mu.Lock()
	f.Discovers = append(f.Discovers, filter)
	fail, fn := f.FailDiscover, f.DiscoverFunc
	f.mu.Unlock()
	if fail {
		return nil, ErrInjected
	}
	if fn == nil {
		return nil, nil
	}
	return fn(filter), nil
}

func (f *Fake) Recommendations(ctx context.Context, id int, t domain.ContentType, page int) ([]domain.CandidateItem, error) {
	f.record("recommendations")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailRecommended[id] {
		return nil, ErrInjected
	}
	if page != 1 {
		return nil, nil
	}
	return f.Recs[id], nil
}

func (f *Fake) Similar(ctx context.Context, id int, t domain.ContentType, page int) ([]domain.CandidateItem, error) {
	f.record("similar")
	f.mu.Lock()
	defer f.mu.Unlock()
	if page != 1 {
		return nil, nil
	}
	return f.Similars[id], nil
}

func (f *Fake) FindByIMDbID(ctx context.Context, imdbID string, t domain.ContentType) (int, error) {
	f.record("find")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailFind {
		return 0, ErrInjected
	}
	return f.IMDb[imdbID], nil
}

func (f *Fake) Trending(ctx context.Context, t domain.ContentType, page int) ([]domain.CandidateItem, error) {
	f.record("trending")
	f.mu.Lock()
	defer f.mu.Unlock()
	if page != 1 {
		return nil, nil
	}
	return f.TrendingItems, nil
}

func (f *Fake) TopRated(ctx context.Context, t domain.ContentType, page int) ([]domain.CandidateItem, error) {
	f.record("top_rated")
	f.mu.Lock()
	defer f.mu.Unlock()
	if page != 1 {
		return nil, nil
	}
	return f.TopRatedItems, nil
}
