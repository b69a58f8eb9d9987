// Package service orchestrates profile building, candidate sourcing, ranking and
// diversification for catalog rows.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/actuallystonmai/taste-service/internal/catalog"
	"github.com/actuallystonmai/taste-service/internal/config"
	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/logging"
	"github.com/actuallystonmai/taste-service/internal/model"
	"github.com/actuallystonmai/taste-service/internal/profile"
	"github.com/actuallystonmai/taste-service/internal/provider"
	"github.com/actuallystonmai/taste-service/internal/sourcing"
)

// ProfileStore persists profiles, exclusion sets and library fingerprints per user and content type.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string, ct domain.ContentType) (*domain.TasteProfile, error)
	SetProfile(ctx context.Context, userID string, p *domain.TasteProfile) error
	GetExclusions(ctx context.Context, userID string, ct domain.ContentType) (*domain.Exclusions, error)
	SetExclusions(ctx context.Context, userID string, ct domain.ContentType, ex *domain.Exclusions) error
	LibraryChanged(ctx context.Context, userID string, ct domain.ContentType, ids []string) (bool, error)
	SetLibraryHash(ctx context.Context, userID string, ct domain.ContentType, ids []string) error
	ClearUser(ctx context.Context, userID string) error
}

type Options struct {
	SampleBudget      int
	DetailConcurrency int
	// MinItems is the row size padding tops up to; MaxItems is the selection size.
	MinItems            int
	MaxItems            int
	GenreShare          float64
	EraShare            float64
	FreshShare          float64
	CreatorCap          int
	DecadeApportionment bool
	BatchConcurrency    int
}

func DefaultOptions() Options {
	return Options{
		SampleBudget:        profile.DefaultSampleBudget,
		DetailConcurrency:   provider.DefaultDetailConcurrency,
		MinItems:            20,
		MaxItems:            32,
		GenreShare:          0.5,
		EraShare:            0.5,
		FreshShare:          0.15,
		CreatorCap:          3,
		DecadeApportionment: true,
		BatchConcurrency:    10,
	}
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SampleBudget:        cfg.SampleBudget,
		DetailConcurrency:   cfg.DetailConcurrency,
		MinItems:            cfg.TargetItems,
		MaxItems:            cfg.MaxItems,
		GenreShare:          cfg.GenreShare,
		EraShare:            cfg.EraShare,
		FreshShare:          cfg.FreshShare,
		CreatorCap:          cfg.CreatorCap,
		DecadeApportionment: cfg.DecadeApportionment,
		BatchConcurrency:    cfg.BatchConcurrency,
	}
}

type Service struct {
	provider    provider.Provider
	store       ProfileStore
	sampler     *profile.Sampler
	builder     *profile.Builder
	router      *catalog.Router
	modelClient *model.Client
	opts        Options
	now         func() time.Time
	log         zerolog.Logger
}

// NewService gates detail lookups on p and wires every strategy against it.
func NewService(p provider.Provider, store ProfileStore, opts Options) *Service {
	gated := provider.NewGated(p, opts.DetailConcurrency)
	s := &Service{
		provider:    gated,
		store:       store,
		sampler:     profile.NewSampler(opts.SampleBudget),
		builder:     profile.NewBuilder(profile.NewVectorizer(gated)),
		router:      sourcing.NewRouter(gated, opts.MaxItems),
		modelClient: model.NewClient(),
		opts:        opts,
		now:         time.Now,
		log:         logging.Component("service"),
	}
	clock := func() time.Time { return s.now() }
	s.sampler.Now = clock
	s.builder.Now = clock
	return s
}

// InvalidateUser drops every cached entry for a user.
func (s *Service) InvalidateUser(ctx context.Context, userID string) error {
	return s.store.ClearUser(ctx, userID)
}

// categorizeError maps a row failure to a stable code.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnsupportedContentType):
		return "unsupported_content_type"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "request_timeout"
	case provider.IsUpstreamError(err):
		return "upstream_error"
	default:
		return "internal_error"
	}
}
