package catalog

import (
	"context"

	"github.com/actuallystonmai/taste-service/internal/domain"
)

// Request carries everything a strategy may draw on for one row.
type Request struct {
	Query       Query
	ContentType domain.ContentType
	Profile     *domain.TasteProfile
	Library     domain.Library
	Exclusions  *domain.Exclusions
	// Seed drives any seeded choice a strategy makes.
	Seed string
}

// Strategy produces a raw candidate pool for a request.
type Strategy interface {
	Name() string
	Candidates(ctx context.Context, req Request) ([]domain.CandidateItem, error)
}

type Router struct {
	routes map[Kind]Strategy
}

func NewRouter() *Router {
	return &Router{routes: make(map[Kind]Strategy)}
}

func (r *Router) Handle(kind Kind, s Strategy) {
	r.routes[kind] = s
}

// Resolve returns the strategy for kind, if one is registered.
func (r *Router) Resolve(kind Kind) (Strategy, bool) {
	s, ok := r.routes[kind]
	return s, ok
}

// Candidates parses id and runs the matching strategy. Unknown ids yield an empty pool.
func (r *Router) Candidates(ctx context.Context, id string, req Request) ([]domain.CandidateItem, error) {
	q, ok := Parse(id)
	if !ok {
		return nil, nil
	}
	s, ok := r.routes[q.Kind]
	if !ok {
		return nil, nil
	}
	req.Query = q
	return s.Candidates(ctx, req)
}
