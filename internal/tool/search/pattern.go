package search

import (
	"regexp"

	"github.com/Cyclone1070/codeshell/internal/tool/helper/content"
)

// Matcher is a compiled search term.
type Matcher struct {
	re *regexp.Regexp
}

// Compile turns a term and its options into a Matcher. The first rule that
// applies wins:
//
//  1. UseRegex: the term is compiled verbatim. CaseSensitive is not consulted,
//     so regex searches are case-sensitive unless the term carries (?i).
//  2. WholeWord: the escaped term is wrapped in \b anchors, case-insensitive
//     unless CaseSensitive is set.
//  3. !CaseSensitive: the escaped term, case-insensitive.
//  4. The escaped term, case-sensitive.
func Compile(term string, opts Options) (*Matcher, error) {
	if term == "" {
		return nil, &QueryRequiredError{}
	}

	var pattern string
	switch {
	case opts.UseRegex:
		pattern = term
	case opts.WholeWord:
		pattern = `\b` + regexp.QuoteMeta(term) + `\b`
		if !opts.CaseSensitive {
			pattern = "(?i)" + pattern
		}
	case !opts.CaseSensitive:
		pattern = "(?i)" + regexp.QuoteMeta(term)
	default:
		pattern = regexp.QuoteMeta(term)
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &InvalidPatternError{Pattern: term, Cause: err}
	}
	return &Matcher{re: re}, nil
}

// MatchString reports whether line contains at least one match.
func (m *Matcher) MatchString(line string) bool {
	return m.re.MatchString(line)
}

// FindAll returns the character offset of every non-overlapping match in
// line, left to right.
func (m *Matcher) FindAll(line string) []int {
	locs := m.re.FindAllStringIndex(line, -1)
	if len(locs) == 0 {
		return nil
	}
	offsets := make([]int, len(locs))
	for i, loc := range locs {
		offsets[i] = content.RuneOffset(line, loc[0])
	}
	return offsets
}

// String returns the compiled expression.
func (m *Matcher) String() string {
	return m.re.String()
}
