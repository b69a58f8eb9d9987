package domain

// Exclusions are ids a user has already consumed or dismissed, plus genres they opted out of.
type Exclusions struct {
	IDs            map[int]struct{}    `json:"-"`
	IMDbIDs        map[string]struct{} `json:"-"`
	ExcludedGenres []int               `json:"excluded_genres,omitempty"`
}

func NewExclusions() *Exclusions {
	return &Exclusions{
		IDs:     make(map[int]struct{}),
		IMDbIDs: make(map[string]struct{}),
	}
}

// Excludes reports whether a candidate must be dropped from a pool.
func (e *Exclusions) Excludes(c CandidateItem) bool {
	if e == nil {
		return false
	}
	if _, ok := e.IDs[c.ID]; ok {
		return true
	}
	if c.IMDbID != "" {
		if _, ok := e.IMDbIDs[c.IMDbID]; ok {
			return true
		}
	}
	for _, g := range c.GenreIDs {
		for _, ex := range e.ExcludedGenres {
			if g == ex {
				return true
			}
		}
	}
	return false
}

// Filter drops excluded candidates, keeping order.
func (e *Exclusions) Filter(items []CandidateItem) []CandidateItem {
	if e == nil {
		return items
	}
	out := make([]CandidateItem, 0, len(items))
	for _, it := range items {
		if !e.Excludes(it) {
			out = append(out, it)
		}
	}
	return out
}
