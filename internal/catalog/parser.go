// Package catalog decodes catalog identifiers and dispatches them to sourcing strategies.
//
// Identifiers follow watchly.<kind>[.<token>]*:
//
//	watchly.rec
//	watchly.theme.g28-12.k850.ctUS.y1990.sort-vote
//	watchly.theme.a:g28.f:k850.b:y1990
//	watchly.item.tt0137523
//
// A bare tt... or tmdb:... id is shorthand for watchly.item.<id>.
package catalog

import (
	"strconv"
	"strings"

	"github.com/actuallystonmai/taste-service/internal/provider"
)

const prefix = "watchly."

type Kind string

const (
	KindRec      Kind = "rec"
	KindTheme    Kind = "theme"
	KindItem     Kind = "item"
	KindLoved    Kind = "loved"
	KindWatched  Kind = "watched"
	KindCreators Kind = "creators"
	KindAllLoved Kind = "all.loved"
	KindLikedAll Kind = "liked.all"
)

// kinds in match order; dotted kinds first so "all.loved" is not read as "all".
var kinds = []Kind{KindAllLoved, KindLikedAll, KindRec, KindTheme, KindItem, KindLoved, KindWatched, KindCreators}

// Axis is one theme dimension.
type Axis string

const (
	AxisGenre   Axis = "genre"
	AxisKeyword Axis = "keyword"
	AxisCountry Axis = "country"
	AxisEra     Axis = "era"
)

// Role says how a theme axis is used: anchors drive discovery, flavors and
// fallbacks only shape ranking. Lower values are stronger.
type Role int

const (
	RoleNone Role = iota
	RoleAnchor
	RoleFlavor
	RoleFallback
)

// Query is a decoded catalog identifier.
type Query struct {
	Raw        string
	Kind       Kind
	ItemID     string
	GenreIDs   []int
	KeywordIDs []int
	Country    string
	YearFrom   int
	YearTo     int
	SortByVote bool
	// Roles holds the role of each populated theme axis. Unprefixed tokens are anchors.
	Roles map[Axis]Role
}

// RoleOf returns the role of axis, RoleNone when the axis is absent.
func (q Query) RoleOf(a Axis) Role {
	return q.Roles[a]
}

// Anchors returns a copy of q that keeps only anchor axes.
func (q Query) Anchors() Query {
	out := q
	out.Roles = make(map[Axis]Role, len(q.Roles))
	for a, r := range q.Roles {
		if r == RoleAnchor {
			out.Roles[a] = r
		}
	}
	if out.Roles[AxisGenre] == RoleNone {
		out.GenreIDs = nil
	}
	if out.Roles[AxisKeyword] == RoleNone {
		out.KeywordIDs = nil
	}
	if out.Roles[AxisCountry] == RoleNone {
		out.Country = ""
	}
	if out.Roles[AxisEra] == RoleNone {
		out.YearFrom, out.YearTo = 0, 0
	}
	return out
}

// Sort is the discover sort mode, popularity unless the id asked for vote sorting.
func (q Query) Sort() string {
	if q.SortByVote {
		return provider.SortVoteAverage
	}
	return provider.SortPopularity
}

// GenreFilter joins genre ids as an any-of filter ("28|12").
func (q Query) GenreFilter() string {
	return joinInts(q.GenreIDs, "|")
}

func (q Query) KeywordFilter() string {
	return joinInts(q.KeywordIDs, "|")
}

// Parse decodes id. The boolean is false when the kind is not recognized.
func Parse(id string) (Query, bool) {
	id = strings.TrimSpace(id)
	q := Query{Raw: id}

	if strings.HasPrefix(id, "tt") || strings.HasPrefix(id, "tmdb:") {
		q.Kind = KindItem
		q.ItemID = id
		return q, true
	}
	if !strings.HasPrefix(id, prefix) {
		return q, false
	}
	rest := strings.TrimPrefix(id, prefix)

	for _, k := range kinds {
		s := string(k)
		if rest != s && !strings.HasPrefix(rest, s+".") {
			continue
		}
		q.Kind = k
		rest = strings.TrimPrefix(strings.TrimPrefix(rest, s), ".")
		break
	}
	if q.Kind == "" {
		return q, false
	}

	switch q.Kind {
	case KindItem, KindLoved, KindWatched:
		q.ItemID = rest
	case KindTheme:
		for _, tok := range strings.Split(rest, ".") {
			role, tok := splitRole(tok)
			q.applyToken(tok, role)
		}
	}
	return q, true
}

func (q *Query) applyToken(tok string, role Role) {
	switch {
	case tok == "":
	case tok == "sort-vote":
		q.SortByVote = true
	case strings.HasPrefix(tok, "ct"):
		if code := strings.ToUpper(tok[2:]); code != "" {
			q.Country = code
			q.setRole(AxisCountry, role)
		}
	case strings.HasPrefix(tok, "g"):
		if ids := splitInts(tok[1:]); len(ids) > 0 {
			q.GenreIDs = append(q.GenreIDs, ids...)
			q.setRole(AxisGenre, role)
		}
	case strings.HasPrefix(tok, "k"):
		if ids := splitInts(tok[1:]); len(ids) > 0 {
			q.KeywordIDs = append(q.KeywordIDs, ids...)
			q.setRole(AxisKeyword, role)
		}
	case strings.HasPrefix(tok, "y"):
		if q.applyYear(tok[1:]) {
			q.setRole(AxisEra, role)
		}
	}
}

// setRole keeps the strongest role seen for an axis.
func (q *Query) setRole(a Axis, r Role) {
	if q.Roles == nil {
		q.Roles = make(map[Axis]Role)
	}
	if cur := q.Roles[a]; cur == RoleNone || r < cur {
		q.Roles[a] = r
	}
}

// applyYear reads "1990" as the 1990-1999 decade and "1985-1994" as an explicit range.
func (q *Query) applyYear(s string) bool {
	from, to, isRange := strings.Cut(s, "-")
	start, err := strconv.Atoi(from)
	if err != nil || start <= 0 {
		return false
	}
	if isRange {
		end, err := strconv.Atoi(to)
		if err != nil || end < start {
			return false
		}
		q.YearFrom, q.YearTo = start, end
		return true
	}
	start = start / 10 * 10
	q.YearFrom, q.YearTo = start, start+9
	return true
}

// splitRole reads a single-letter role prefix such as "f:" off a token.
func splitRole(tok string) (Role, string) {
	if len(tok) > 2 && tok[1] == ':' {
		switch tok[0] {
		case 'a':
			return RoleAnchor, tok[2:]
		case 'f':
			return RoleFlavor, tok[2:]
		case 'b':
			return RoleFallback, tok[2:]
		}
	}
	return RoleAnchor, tok
}

func splitInts(s string) []int {
	var out []int
	for _, part := range strings.Split(s, "-") {
		if n, err := strconv.Atoi(part); err == nil && n > 0 {
			out = append(out, n)
		}
	}
	return out
}

func joinInts(ids []int, sep string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, sep)
}
