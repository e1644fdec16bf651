// Package policy decides whether a film may be shown at all.
package policy

import "strings"

// Filter rejects films whose text matches a denylist term or whose
// release year is unknown or below the floor. Matching is a plain
// case-insensitive substring check with no word boundaries, so a term
// embedded in a longer unrelated word still rejects; that mirrors the
// shipped behavior and is not treated as a bug here.
type Filter struct {
	terms     []string
	yearFloor int
}

func New(denylist []string, yearFloor int) *Filter {
	terms := make([]string, 0, len(denylist))
	for _, t := range denylist {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			terms = append(terms, t)
		}
	}
	return &Filter{terms: terms, yearFloor: yearFloor}
}

// Allow reports whether a film with the given title, overview and
// release year passes the content policy. Year 0 means unknown and is
// always rejected.
func (f *Filter) Allow(title, overview string, year int) bool {
	if year <= 0 || year < f.yearFloor {
		return false
	}
	return !f.matches(title) && !f.matches(overview)
}

// AllowText checks only the denylist, for re-screening after a detail
// lookup reveals a longer overview.
func (f *Filter) AllowText(text string) bool {
	return !f.matches(text)
}

func (f *Filter) matches(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, term := range f.terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func (f *Filter) YearFloor() int { return f.yearFloor }
