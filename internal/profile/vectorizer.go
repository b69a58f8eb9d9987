package profile

import (
	"context"
	"fmt"

	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/provider"
)

const topCastLimit = 5

// notableJobs are crew jobs that carry taste signal. Other crew is ignored.
var notableJobs = map[string]bool{
	"Director":   true,
	"Screenplay": true,
	"Writer":     true,
	"Story":      true,
	"Novel":      true,
	"Creator":    true,
}

type WeightedID struct {
	ID     int
	Weight float64
}

type CrewCredit struct {
	ID  int
	Job string
}

// Features is the sparse feature set of one item.
type Features struct {
	Genres    []int
	Keywords  []int
	Cast      []WeightedID
	Crew      []CrewCredit
	Countries []string
	Era       string
}

type Vectorizer struct {
	provider provider.Provider
}

func NewVectorizer(p provider.Provider) *Vectorizer {
	return &Vectorizer{provider: p}
}

// Extract resolves the item and returns its features, or nil when the id
// cannot be resolved or no metadata exists.
func (v *Vectorizer) Extract(ctx context.Context, item domain.LibraryItem) (*Features, error) {
	id, err := provider.ResolveID(ctx, v.provider, item.ID, item.Type)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, nil
	}

	details, err := v.provider.Details(ctx, id, item.Type)
	if err != nil {
		return nil, fmt.Errorf("details %d: %w", id, err)
	}
	if details == nil {
		return nil, nil
	}
	return Vectorize(details), nil
}

func Vectorize(d *domain.ItemDetails) *Features {
	f := &Features{
		Genres:    d.GenreIDs,
		Keywords:  d.KeywordIDs,
		Countries: d.Countries,
		Era:       EraBucket(d.Year()),
	}
	for i, c := range d.Cast {
		if i >= topCastLimit {
			break
		}
		f.Cast = append(f.Cast, WeightedID{ID: c.ID, Weight: castPositionWeight(i)})
	}
	for _, c := range d.Crew {
		if notableJobs[c.Job] {
			f.Crew = append(f.Crew, CrewCredit{ID: c.ID, Job: c.Job})
		}
	}
	return f
}

func castPositionWeight(pos int) float64 {
	switch {
	case pos == 0:
		return 1.0
	case pos <= 2:
		return 0.5
	default:
		return 0.2
	}
}

// EraBucket maps a release year to its era label. Empty for unknown years.
func EraBucket(year int) string {
	switch {
	case year <= 0:
		return ""
	case year < 1970:
		return EraPre1970
	default:
		return fmt.Sprintf("%ds", year/10*10)
	}
}

const EraPre1970 = "pre-1970s"

// EraDecade is the decade an era label stands for; pre-1970s maps to 1960.
func EraDecade(era string) int {
	if era == EraPre1970 {
		return 1960
	}
	var decade int
	if _, err := fmt.Sscanf(era, "%ds", &decade); err != nil {
		return 0
	}
	return decade
}

// Decade is the decade bucket used for ranking, consistent with EraBucket.
// Every year before 1970 shares the 1960 key.
func Decade(year int) int {
	return EraDecade(EraBucket(year))
}
