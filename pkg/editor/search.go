package editor

import (
	"cmp"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/matzehuels/flowmodel/pkg/model"
)

// Match is a search hit. Lower distances are better; substring hits have
// distance 0.
type Match struct {
	Element  *model.Element
	Distance int
}

// Search finds elements by id or name.
type Search struct {
	view model.View
}

// NewSearch creates a search over view.
func NewSearch(view model.View) *Search {
	return &Search{view: view}
}

// Find returns elements whose id or name contains query, followed by those
// within a small edit distance of it, best first. The root is never
// returned.
func (s *Search) Find(query string) []Match {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	tolerance := len(q)/3 + 1

	var out []Match
	for el := range s.view.All() {
		if el.Kind == model.KindRoot {
			continue
		}
		if d, ok := distance(q, el, tolerance); ok {
			out = append(out, Match{Element: el, Distance: d})
		}
	}
	slices.SortStableFunc(out, func(a, b Match) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Element.ID, b.Element.ID)
	})
	return out
}

func distance(q string, el *model.Element, tolerance int) (int, bool) {
	best, found := 0, false
	for _, field := range []string{el.ID, el.Name()} {
		f := strings.ToLower(field)
		if f == "" {
			continue
		}
		if strings.Contains(f, q) {
			return 0, true
		}
		if d := levenshtein.ComputeDistance(q, f); d <= tolerance && (!found || d < best) {
			best, found = d, true
		}
	}
	return best, found
}
