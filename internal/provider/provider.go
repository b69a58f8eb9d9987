// Package provider defines the metadata provider contract consumed by the
// ranking pipeline, plus decorators that gate, guard and cache it.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/actuallystonmai/taste-service/internal/domain"
)

const (
	SortPopularity  = "popularity.desc"
	SortVoteAverage = "vote_average.desc"
)

// DiscoverFilter is a parameterized discover query. Zero values mean unset.
type DiscoverFilter struct {
	GenreIDs []int
	// GenreJoin is "|" for any-of or "," for all-of. Defaults to any-of.
	GenreJoin     string
	KeywordIDs    []int
	ExcludeGenres []int
	Country       string
	YearFrom      int
	YearTo        int
	Sort          string
	MinVoteCount  int
	WithCrew      []int
	WithCast      []int
	WithPeople    []int
	Page          int
}

// Provider is an external metadata source. Not-found is reported as empty, not as an error.
type Provider interface {
	Details(ctx context.Context, id int, t domain.ContentType) (*domain.ItemDetails, error)
	Discover(ctx context.Context, t domain.ContentType, f DiscoverFilter) ([]domain.CandidateItem, error)
	Recommendations(ctx context.Context, id int, t domain.ContentType, page int) ([]domain.CandidateItem, error)
	Similar(ctx context.Context, id int, t domain.ContentType, page int) ([]domain.CandidateItem, error)
	// FindByIMDbID returns 0 when the cross reference is unknown.
	FindByIMDbID(ctx context.Context, imdbID string, t domain.ContentType) (int, error)
	Trending(ctx context.Context, t domain.ContentType, page int) ([]domain.CandidateItem, error)
	TopRated(ctx context.Context, t domain.ContentType, page int) ([]domain.CandidateItem, error)
}

// UpstreamError wraps a failed provider call.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func IsUpstreamError(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}
