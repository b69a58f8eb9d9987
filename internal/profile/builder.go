package profile

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/logging"
)

const (
	featureWeightGenre   = 1.0
	featureWeightKeyword = 0.8
	featureWeightCreator = 0.9
	featureWeightEra     = 0.6
	featureWeightCountry = 0.4

	crewJobDirector = 1.0
	crewJobOther    = 0.5

	genreMaxPositions = 3

	frequencyLogFactor = 0.1

	CapGenre    = 50.0
	CapKeyword  = 40.0
	CapDirector = 30.0
	CapCast     = 30.0
	CapEra      = 25.0
	CapCountry  = 20.0
)

var genrePositionWeights = []float64{1.0, 0.6, 0.3}

type Builder struct {
	vectorizer *Vectorizer
	// FrequencyBoost applies 1 + 0.1 ln(f) to features seen on more than one item.
	FrequencyBoost bool
	Now            func() time.Time
	log            zerolog.Logger
}

func NewBuilder(v *Vectorizer) *Builder {
	return &Builder{
		vectorizer:     v,
		FrequencyBoost: true,
		Now:            time.Now,
		log:            logging.Component("profile"),
	}
}

type extracted struct {
	features *Features
	evidence float64
}

type frequencies struct {
	genres, keywords, directors, cast map[int]int
	eras, countries                   map[string]int
}

func newFrequencies() *frequencies {
	return &frequencies{
		genres:    make(map[int]int),
		keywords:  make(map[int]int),
		directors: make(map[int]int),
		cast:      make(map[int]int),
		eras:      make(map[string]int),
		countries: make(map[string]int),
	}
}

// Build builds a profile from scratch. Items of other content types are ignored
// and items that fail extraction are dropped.
func (b *Builder) Build(ctx context.Context, items []domain.ScoredItem, contentType domain.ContentType) (*domain.TasteProfile, error) {
	typed := filterType(items, contentType)
	p, err := b.accumulate(ctx, typed, contentType)
	if err != nil {
		return nil, err
	}
	p.ProcessedItemIDs = itemIDs(typed)
	return p, nil
}

// BuildIncremental extends existing with items not yet processed. A legacy profile,
// or one whose processed items are no longer all present, is rebuilt in full.
// The second return value reports whether a full rebuild happened.
func (b *Builder) BuildIncremental(ctx context.Context, items []domain.ScoredItem, contentType domain.ContentType, existing *domain.TasteProfile) (*domain.TasteProfile, bool, error) {
	if existing == nil || existing.IsLegacy() {
		p, err := b.Build(ctx, items, contentType)
		return p, true, err
	}

	typed := filterType(items, contentType)
	current := make(map[string]struct{}, len(typed))
	for _, it := range typed {
		current[it.Item.ID] = struct{}{}
	}
	processed := make(map[string]struct{}, len(existing.ProcessedItemIDs))
	for _, id := range existing.ProcessedItemIDs {
		if _, ok := current[id]; !ok {
			b.log.Debug().Str("item", id).Msg("processed item no longer in library, rebuilding")
			p, err := b.Build(ctx, items, contentType)
			return p, true, err
		}
		processed[id] = struct{}{}
	}

	var fresh []domain.ScoredItem
	for _, it := range typed {
		if _, ok := processed[it.Item.ID]; !ok {
			fresh = append(fresh, it)
		}
	}

	merged := clone(existing)
	if len(fresh) == 0 {
		return merged, false, nil
	}

	delta, err := b.accumulate(ctx, fresh, contentType)
	if err != nil {
		return nil, false, err
	}
	merge(merged, delta)
	applyCaps(merged)
	merged.ProcessedItemIDs = mergeIDs(existing.ProcessedItemIDs, itemIDs(fresh))
	merged.LastUpdated = delta.LastUpdated
	return merged, false, nil
}

func (b *Builder) accumulate(ctx context.Context, items []domain.ScoredItem, contentType domain.ContentType) (*domain.TasteProfile, error) {
	now := b.Now()
	results := make([]*extracted, len(items))

	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		g.Go(func() error {
			features, err := b.vectorizer.Extract(gctx, item.Item)
			if err != nil {
				b.log.Debug().Err(err).Str("item", item.Item.ID).Msg("feature extraction failed")
				return nil
			}
			if features == nil {
				return nil
			}
			results[i] = &extracted{features: features, evidence: EvidenceWeight(item, now)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := domain.NewTasteProfile(contentType)
	freq := newFrequencies()
	for _, r := range results {
		if r == nil {
			continue
		}
		accumulateFeatures(p, r.features, r.evidence, freq)
	}
	if b.FrequencyBoost {
		applyFrequency(p, freq)
	}
	applyCaps(p)
	p.LastUpdated = now
	return p, nil
}

func accumulateFeatures(p *domain.TasteProfile, f *Features, evidence float64, freq *frequencies) {
	genres := f.Genres
	if len(genres) > genreMaxPositions {
		genres = genres[:genreMaxPositions]
	}
	for i, id := range genres {
		if id == 0 {
			continue
		}
		pos := 0.1
		if i < len(genrePositionWeights) {
			pos = genrePositionWeights[i]
		}
		p.GenreScores[id] += evidence * featureWeightGenre * pos
		freq.genres[id]++
	}

	for _, id := range f.Keywords {
		if id == 0 {
			continue
		}
		p.KeywordScores[id] += evidence * featureWeightKeyword
		freq.keywords[id]++
	}

	if f.Era != "" {
		p.EraScores[f.Era] += evidence * featureWeightEra
		freq.eras[f.Era]++
	}

	for _, code := range f.Countries {
		if code == "" {
			continue
		}
		p.CountryScores[code] += evidence * featureWeightCountry
		freq.countries[code]++
	}

	for _, c := range f.Crew {
		if c.ID == 0 {
			continue
		}
		job := crewJobOther
		if strings.EqualFold(c.Job, "director") {
			job = crewJobDirector
		}
		p.DirectorScores[c.ID] += evidence * featureWeightCreator * job
		freq.directors[c.ID]++
	}

	for _, c := range f.Cast {
		if c.ID == 0 {
			continue
		}
		p.CastScores[c.ID] += evidence * featureWeightCreator * c.Weight
		freq.cast[c.ID]++
	}
}

func frequencyMultiplier(n int) float64 {
	return 1.0 + math.Log(float64(n))*frequencyLogFactor
}

func applyFrequency(p *domain.TasteProfile, freq *frequencies) {
	boostInt := func(scores map[int]float64, counts map[int]int) {
		for id, n := range counts {
			if n > 1 {
				scores[id] *= frequencyMultiplier(n)
			}
		}
	}
	boostString := func(scores map[string]float64, counts map[string]int) {
		for id, n := range counts {
			if n > 1 {
				scores[id] *= frequencyMultiplier(n)
			}
		}
	}
	boostInt(p.GenreScores, freq.genres)
	boostInt(p.KeywordScores, freq.keywords)
	boostInt(p.DirectorScores, freq.directors)
	boostInt(p.CastScores, freq.cast)
	boostString(p.EraScores, freq.eras)
	boostString(p.CountryScores, freq.countries)
}

func applyCaps(p *domain.TasteProfile) {
	capInt(p.GenreScores, CapGenre)
	capInt(p.KeywordScores, CapKeyword)
	capInt(p.DirectorScores, CapDirector)
	capInt(p.CastScores, CapCast)
	capString(p.EraScores, CapEra)
	capString(p.CountryScores, CapCountry)
}

func capInt(m map[int]float64, limit float64) {
	for k, v := range m {
		if v > limit {
			m[k] = limit
		}
	}
}

func capString(m map[string]float64, limit float64) {
	for k, v := range m {
		if v > limit {
			m[k] = limit
		}
	}
}

func merge(dst, delta *domain.TasteProfile) {
	for k, v := range delta.GenreScores {
		dst.GenreScores[k] += v
	}
	for k, v := range delta.KeywordScores {
		dst.KeywordScores[k] += v
	}
	for k, v := range delta.DirectorScores {
		dst.DirectorScores[k] += v
	}
	for k, v := range delta.CastScores {
		dst.CastScores[k] += v
	}
	for k, v := range delta.EraScores {
		dst.EraScores[k] += v
	}
	for k, v := range delta.CountryScores {
		dst.CountryScores[k] += v
	}
}

func clone(p *domain.TasteProfile) *domain.TasteProfile {
	out := domain.NewTasteProfile(p.ContentType)
	merge(out, p)
	out.LastUpdated = p.LastUpdated
	out.ProcessedItemIDs = append([]string{}, p.ProcessedItemIDs...)
	return out
}

func filterType(items []domain.ScoredItem, contentType domain.ContentType) []domain.ScoredItem {
	if contentType == "" {
		return items
	}
	out := make([]domain.ScoredItem, 0, len(items))
	for _, it := range items {
		if it.Item.Type == contentType {
			out = append(out, it)
		}
	}
	return out
}

func itemIDs(items []domain.ScoredItem) []string {
	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, ok := seen[it.Item.ID]; ok {
			continue
		}
		seen[it.Item.ID] = struct{}{}
		ids = append(ids, it.Item.ID)
	}
	sort.Strings(ids)
	return ids
}

func mergeIDs(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
