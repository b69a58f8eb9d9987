// Package sourcing builds raw candidate pools for catalog rows by fanning out
// parameterized provider queries and merging the results.
package sourcing

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/metrics"
)

// PageFunc fetches one page of a source.
type PageFunc func(ctx context.Context, page int) ([]domain.CandidateItem, error)

// Source describes one query dimension and the pages to pull from it.
type Source struct {
	Label  string
	Pages  []int
	Fetch  PageFunc
	Ranked bool
	Fresh  bool
}

// Gather fetches every (source, page) pair concurrently. A failed task contributes
// nothing and never affects its siblings. Results are deduplicated by id keeping the
// first occurrence in source order, then page order.
func Gather(ctx context.Context, log zerolog.Logger, sources []Source) []domain.CandidateItem {
	type task struct {
		src  int
		page int
	}
	var tasks []task
	for i, s := range sources {
		for _, p := range s.Pages {
			tasks = append(tasks, task{src: i, page: p})
		}
	}
	results := make([][]domain.CandidateItem, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tasks {
		g.Go(func() error {
			src := sources[t.src]
			items, err := src.Fetch(gctx, t.page)
			if err != nil {
				metrics.SourcingFailures.WithLabelValues(src.Label).Inc()
				log.Warn().Err(err).Str("source", src.Label).Int("page", t.page).Msg("sourcing task failed")
				return nil
			}
			tagged := make([]domain.CandidateItem, len(items))
			for j, it := range items {
				it.Ranked = it.Ranked || src.Ranked
				it.Fresh = it.Fresh || src.Fresh
				if it.Source == "" {
					it.Source = src.Label
				}
				tagged[j] = it
			}
			results[i] = tagged
			return nil
		})
	}
	_ = g.Wait()

	return Dedupe(results...)
}

// Dedupe merges lists keeping the first occurrence of each id.
func Dedupe(lists ...[]domain.CandidateItem) []domain.CandidateItem {
	seen := make(map[int]struct{})
	var out []domain.CandidateItem
	for _, list := range lists {
		for _, it := range list {
			if it.ID == 0 {
				continue
			}
			if _, ok := seen[it.ID]; ok {
				continue
			}
			seen[it.ID] = struct{}{}
			out = append(out, it)
		}
	}
	return out
}

func pages(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
