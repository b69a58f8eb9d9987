// Package tmdb is an HTTP provider.Provider backed by The Movie Database v3 API.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/logging"
	"github.com/actuallystonmai/taste-service/internal/provider"
)

const maxRetries = 3

var errNotFound = errors.New("not found")

type Config struct {
	BaseURL string
	APIKey  string
	// RequestsPerSecond bounds outgoing calls; burst equals the rounded rate.
	RequestsPerSecond float64
	Timeout           time.Duration
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	baseDelay  time.Duration
	log        zerolog.Logger
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 40
	}
	burst := int(cfg.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		baseDelay:  time.Second,
		log:        logging.Component("tmdb"),
	}
}

var _ provider.Provider = (*Client)(nil)

func mediaPath(t domain.ContentType) string {
	if t == domain.ContentSeries {
		return "tv"
	}
	return "movie"
}

func (c *Client) Details(ctx context.Context, id int, t domain.ContentType) (*domain.ItemDetails, error) {
	var resp detailsResponse
	q := url.Values{"append_to_response": {"credits,keywords,external_ids"}}
	err := c.getJSON(ctx, fmt.Sprintf("/%s/%d", mediaPath(t), id), q, &resp)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &provider.UpstreamError{Op: "details", Err: err}
	}
	return resp.toDomain(t), nil
}

func (c *Client) Discover(ctx context.Context, t domain.ContentType, f provider.DiscoverFilter) ([]domain.CandidateItem, error) {
	return c.list(ctx, "discover", "/discover/"+mediaPath(t), discoverQuery(t, f), t)
}

func (c *Client) Recommendations(ctx context.Context, id int, t domain.ContentType, page int) ([]domain.CandidateItem, error) {
	return c.list(ctx, "recommendations", fmt.Sprintf("/%s/%d/recommendations", mediaPath(t), id), pageQuery(page), t)
}

func (c *Client) Similar(ctx context.Context, id int, t domain.ContentType, page int) ([]domain.CandidateItem, error) {
	return c.list(ctx, "similar", fmt.Sprintf("/%s/%d/similar", mediaPath(t), id), pageQuery(page), t)
}

func (c *Client) Trending(ctx context.Context, t domain.ContentType, page int) ([]domain.CandidateItem, error) {
	return c.list(ctx, "trending", "/trending/"+mediaPath(t)+"/week", pageQuery(page), t)
}

func (c *Client) TopRated(ctx context.Context, t domain.ContentType, page int) ([]domain.CandidateItem, error) {
	return c.list(ctx, "top_rated", "/"+mediaPath(t)+"/top_rated", pageQuery(page), t)
}

func (c *Client) FindByIMDbID(ctx context.Context, imdbID string, t domain.ContentType) (int, error) {
	var resp findResponse
	err := c.getJSON(ctx, "/find/"+url.PathEscape(imdbID), url.Values{"external_source": {"imdb_id"}}, &resp)
	if errors.Is(err, errNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, &provider.UpstreamError{Op: "find", Err: err}
	}
	results := resp.MovieResults
	if t == domain.ContentSeries {
		results = resp.TVResults
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].ID, nil
}

func (c *Client) list(ctx context.Context, op, path string, q url.Values, t domain.ContentType) ([]domain.CandidateItem, error) {
	var resp listResponse
	err := c.getJSON(ctx, path, q, &resp)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &provider.UpstreamError{Op: op, Err: err}
	}
	out := make([]domain.CandidateItem, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, r.toDomain(t))
	}
	return out, nil
}

func pageQuery(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{"page": {strconv.Itoa(page)}}
}

func discoverQuery(t domain.ContentType, f provider.DiscoverFilter) url.Values {
	q := pageQuery(f.Page)
	join := f.GenreJoin
	if join == "" {
		join = "|"
	}
	setInts(q, "with_genres", f.GenreIDs, join)
	setInts(q, "with_keywords", f.KeywordIDs, "|")
	setInts(q, "without_genres", f.ExcludeGenres, ",")
	setInts(q, "with_crew", f.WithCrew, "|")
	setInts(q, "with_cast", f.WithCast, "|")
	setInts(q, "with_people", f.WithPeople, "|")
	if f.Country != "" {
		q.Set("with_origin_country", f.Country)
	}

	dateField := "primary_release_date"
	if t == domain.ContentSeries {
		dateField = "first_air_date"
	}
	if f.YearFrom > 0 {
		q.Set(dateField+".gte", fmt.Sprintf("%d-01-01", f.YearFrom))
	}
	if f.YearTo > 0 {
		q.Set(dateField+".lte", fmt.Sprintf("%d-12-31", f.YearTo))
	}

	sort := f.Sort
	if sort == "" {
		sort = provider.SortPopularity
	}
	q.Set("sort_by", sort)
	if f.MinVoteCount > 0 {
		q.Set("vote_count.gte", strconv.Itoa(f.MinVoteCount))
	}
	return q
}

func setInts(q url.Values, key string, ids []int, sep string) {
	if len(ids) == 0 {
		return
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	q.Set(key, strings.Join(parts, sep))
}

// getJSON issues a rate-limited GET and decodes the body into result.
// 404 maps to errNotFound; 429 is retried with exponential backoff.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, result any) error {
	if q == nil {
		q = url.Values{}
	}
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}
	reqURL := c.baseURL + path + "?" + q.Encode()

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("execute request: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			defer resp.Body.Close()
			if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return nil
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return errNotFound
		case resp.StatusCode == http.StatusTooManyRequests && attempt < maxRetries:
			resp.Body.Close()
			delay := c.baseDelay * (1 << attempt)
			if s, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && s >= 0 {
				delay = time.Duration(s) * time.Second
			}
			c.log.Warn().Dur("retry_delay", delay).Int("attempt", attempt+1).Str("path", path).Msg("rate limited, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		default:
			resp.Body.Close()
			return fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}
	}
}
