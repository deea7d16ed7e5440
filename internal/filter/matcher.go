// Package filter selects which source paths qualify for backup.
package filter

import (
	"fmt"
	"regexp"
)

// Matcher wraps a compiled regular expression and decides whether a
// path qualifies for backup. Matching is case-sensitive, unanchored,
// and runs against the full textual path, not just the base name.
type Matcher struct {
	re       *regexp.Regexp
	original string
}

// New compiles expr into a Matcher. An invalid expression is a
// configuration error; the run must not proceed.
func New(expr string) (*Matcher, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", expr, err)
	}
	return &Matcher{re: re, original: expr}, nil
}

// Matches reports whether path qualifies under the pattern.
func (m *Matcher) Matches(path string) bool {
	return m.re.MatchString(path)
}

// Pattern returns the original expression the matcher was built from.
func (m *Matcher) Pattern() string {
	return m.original
}
