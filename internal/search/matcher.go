// Package search implements the case-insensitive substring matching used
// by entry, connection and cross-domain queries.
package search

import (
	"iter"
	"strings"

	"github.com/coregx/ahocorasick"
	"golang.org/x/text/cases"

	"github.com/phrazzld/dream-diary/internal/domain"
)

// Fold applies Unicode full case folding, so "STRASSE" and "straße"
// compare equal.
func Fold(s string) string {
	// A Caser keeps state and must not be shared between goroutines.
	return cases.Fold().String(s)
}

// Matcher tests fields for a folded search term. It is compiled once per
// query and reused for every candidate field.
type Matcher struct {
	needle string
	ac     *ahocorasick.Automaton
}

// Compile prepares term for matching. An empty term matches everything.
func Compile(term string) *Matcher {
	if term == "" {
		return &Matcher{}
	}
	m := &Matcher{needle: Fold(term)}
	ac, err := ahocorasick.NewBuilder().
		AddStrings([]string{m.needle}).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err == nil {
		m.ac = ac
	}
	return m
}

// MatchesAll reports whether the matcher was built from an empty term.
func (m *Matcher) MatchesAll() bool {
	return m.needle == ""
}

// Match reports whether any single field contains the term. Fields are
// tested separately; a term never spans two fields.
func (m *Matcher) Match(fields ...string) bool {
	if m.MatchesAll() {
		return true
	}
	for _, f := range fields {
		if m.contains(Fold(f)) {
			return true
		}
	}
	return false
}

func (m *Matcher) contains(haystack string) bool {
	if len(haystack) < len(m.needle) {
		return false
	}
	if m.ac == nil {
		return strings.Contains(haystack, m.needle)
	}
	return m.ac.IsMatch([]byte(haystack))
}

// MatchEntry reports whether the title, content or any tag of e contains
// the term.
func (m *Matcher) MatchEntry(e *domain.Entry) bool {
	if m.MatchesAll() {
		return true
	}
	if m.Match(e.Title, e.Content) {
		return true
	}
	return m.Match(e.Tags...)
}

// Entries yields the entries matching term in slice order. The sequence
// is lazy, finite and can be ranged over any number of times.
func Entries(entries []*domain.Entry, term string) iter.Seq[*domain.Entry] {
	m := Compile(term)
	return func(yield func(*domain.Entry) bool) {
		for _, e := range entries {
			if e == nil || !m.MatchEntry(e) {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}
