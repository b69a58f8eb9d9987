package provider_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/provider"
	"github.com/actuallystonmai/taste-service/internal/provider/providertest"
)

func TestIMDbID(t *testing.T) {
	cases := map[string]string{
		"tt0903747":     "tt0903747",
		"tt0903747:1:2": "tt0903747",
		"tmdb:1396":     "",
		"1396":          "",
	}
	for in, want := range cases {
		if got := provider.IMDbID(in); got != want {
			t.Errorf("IMDbID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNativeID(t *testing.T) {
	cases := map[string]int{
		"tmdb:1396":   1396,
		"1396":        1396,
		"tmdb:abc":    0,
		"tt0903747":   0,
		"tmdb:42:1:3": 42,
	}
	for in, want := range cases {
		if got := provider.NativeID(in); got != want {
			t.Errorf("NativeID(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestResolveID(t *testing.T) {
	fake := providertest.New()
	fake.IMDb["tt0903747"] = 1396
	ctx := context.Background()

	id, err := provider.ResolveID(ctx, fake, "tt0903747:2:1", domain.ContentSeries)
	if err != nil || id != 1396 {
		t.Fatalf("expected 1396, got %d (%v)", id, err)
	}
	if fake.CallCount("find") != 1 {
		t.Errorf("expected exactly one cross-reference lookup, got %d", fake.CallCount("find"))
	}

	id, err = provider.ResolveID(ctx, fake, "tmdb:550", domain.ContentMovie)
	if err != nil || id != 550 {
		t.Errorf("expected 550, got %d (%v)", id, err)
	}
	if fake.CallCount("find") != 1 {
		t.Error("native ids must not trigger a lookup")
	}

	id, err = provider.ResolveID(ctx, fake, "tt9999999", domain.ContentMovie)
	if err != nil || id != 0 {
		t.Errorf("unknown cross reference should resolve to 0, got %d (%v)", id, err)
	}
}

type slowProvider struct {
	*providertest.Fake
	inFlight int32
	peak     int32
}

func (s *slowProvider) Details(ctx context.Context, id int, t domain.ContentType) (*domain.ItemDetails, error) {
	n := atomic.AddInt32(&s.inFlight, 1)
	for {
		p := atomic.LoadInt32(&s.peak)
		if n <= p || atomic.CompareAndSwapInt32(&s.peak, p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	atomic.AddInt32(&s.inFlight, -1)
	return &domain.ItemDetails{ID: id}, nil
}

func TestGatedBoundsDetailConcurrency(t *testing.T) {
	slow := &slowProvider{Fake: providertest.New()}
	gated := provider.NewGated(slow, 3)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if _, err := gated.Details(context.Background(), id, domain.ContentMovie); err != nil {
				t.Errorf("details %d: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	if peak := atomic.LoadInt32(&slow.peak); peak > 3 {
		t.Errorf("expected at most 3 concurrent fetches, saw %d", peak)
	}
}

func TestGatedRespectsCancellation(t *testing.T) {
	gated := provider.NewGated(providertest.New(), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := gated.Details(ctx, 1, domain.ContentMovie); err == nil {
		t.Error("expected context error from cancelled acquire")
	}
}

func TestBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	fake := providertest.New()
	fake.FailDetails[7] = true
	b := provider.WithBreaker(fake, provider.BreakerConfig{Name: "test-trip", MaxFailures: 2, Timeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := b.Details(ctx, 7, domain.ContentMovie)
		if !provider.IsUpstreamError(err) {
			t.Fatalf("expected upstream error, got %v", err)
		}
		if !errors.Is(err, providertest.ErrInjected) {
			t.Errorf("expected wrapped injected error, got %v", err)
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %s", b.State())
	}

	before := fake.CallCount("details")
	_, err := b.Details(ctx, 1, domain.ContentMovie)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected open-state error, got %v", err)
	}
	if fake.CallCount("details") != before {
		t.Error("open breaker must not call through")
	}
}

func TestBreakerPassesResults(t *testing.T) {
	fake := providertest.New()
	fake.AddDetails(&domain.ItemDetails{ID: 550, Title: "Fight Club"})
	b := provider.WithBreaker(fake, provider.BreakerConfig{Name: "test-pass"})

	d, err := b.Details(context.Background(), 550, domain.ContentMovie)
	if err != nil || d == nil || d.Title != "Fight Club" {
		t.Fatalf("unexpected result %+v (%v)", d, err)
	}

	missing, err := b.Details(context.Background(), 1, domain.ContentMovie)
	if err != nil || missing != nil {
		t.Errorf("expected empty not-found result, got %+v (%v)", missing, err)
	}
}

// cancellingProvider ends the caller's context mid-request, like a client disconnect.
type cancellingProvider struct {
	*providertest.Fake
	cancel context.CancelFunc
}

func (c *cancellingProvider) Discover(ctx context.Context, t domain.ContentType, f provider.DiscoverFilter) ([]domain.CandidateItem, error) {
	c.cancel()
	return nil, ctx.Err()
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	fake := providertest.New()
	fake.AddDetails(&domain.ItemDetails{ID: 550})
	cp := &cancellingProvider{Fake: fake}
	b := provider.WithBreaker(cp, provider.BreakerConfig{Name: "test-cancel", MaxFailures: 2, Timeout: time.Minute})

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 5; i++ {
		if _, err := b.Details(cancelled, 550, domain.ContentMovie); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	}

	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cp.cancel = cancel
		_, err := b.Discover(ctx, domain.ContentMovie, provider.DiscoverFilter{})
		if !errors.Is(err, context.Canceled) || provider.IsUpstreamError(err) {
			t.Fatalf("expected a plain cancellation, got %v", err)
		}
	}

	if b.State() != gobreaker.StateClosed {
		t.Fatalf("caller cancellations must not trip the breaker, state %s", b.State())
	}
	if d, err := b.Details(context.Background(), 550, domain.ContentMovie); err != nil || d == nil {
		t.Errorf("expected healthy call to pass, got %+v (%v)", d, err)
	}
	if n := fake.CallCount("details"); n != 1 {
		t.Errorf("pre-cancelled calls must not reach upstream, got %d calls", n)
	}
}

type memoryStore struct {
	mu    sync.Mutex
	items map[int]*domain.ItemDetails
	fail  bool
}

func (m *memoryStore) GetDetails(ctx context.Context, id int, t domain.ContentType) (*domain.ItemDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return nil, errors.New("store down")
	}
	return m.items[id], nil
}

func (m *memoryStore) PutDetails(ctx context.Context, d *domain.ItemDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("store down")
	}
	m.items[d.ID] = d
	return nil
}

func TestCachedDetails(t *testing.T) {
	fake := providertest.New()
	fake.AddDetails(&domain.ItemDetails{ID: 550, Title: "Fight Club"})
	store := &memoryStore{items: make(map[int]*domain.ItemDetails)}
	cached := provider.WithDetailsCache(fake, store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := cached.Details(ctx, 550, domain.ContentMovie)
		if err != nil || d == nil {
			t.Fatalf("details: %+v (%v)", d, err)
		}
	}
	if n := fake.CallCount("details"); n != 1 {
		t.Errorf("expected one upstream call, got %d", n)
	}
	if store.items[550].Type != domain.ContentMovie {
		t.Errorf("expected stored type movie, got %q", store.items[550].Type)
	}
}

func TestCachedToleratesStoreFailure(t *testing.T) {
	fake := providertest.New()
	fake.AddDetails(&domain.ItemDetails{ID: 550})
	cached := provider.WithDetailsCache(fake, &memoryStore{fail: true})

	d, err := cached.Details(context.Background(), 550, domain.ContentMovie)
	if err != nil || d == nil {
		t.Fatalf("store failure should fall through, got %+v (%v)", d, err)
	}
}

func (m *memoryStore) FindByIMDbID(ctx context.Context, imdbID string, t domain.ContentType) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, d := range m.items {
		if d.IMDbID == imdbID {
			return id, nil
		}
	}
	return 0, nil
}

func TestCachedCrossReference(t *testing.T) {
	fake := providertest.New()
	fake.IMDb["tt0903747"] = 1396
	store := &memoryStore{items: map[int]*domain.ItemDetails{550: {ID: 550, IMDbID: "tt0137523"}}}
	cached := provider.WithDetailsCache(fake, store)
	ctx := context.Background()

	if id, _ := cached.FindByIMDbID(ctx, "tt0137523", domain.ContentMovie); id != 550 {
		t.Errorf("expected stored cross reference 550, got %d", id)
	}
	if n := fake.CallCount("find"); n != 0 {
		t.Errorf("expected no upstream lookup, got %d", n)
	}
	if id, _ := cached.FindByIMDbID(ctx, "tt0903747", domain.ContentSeries); id != 1396 {
		t.Errorf("expected upstream fallback 1396, got %d", id)
	}
}
