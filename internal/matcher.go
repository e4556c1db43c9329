package internal

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/sirupsen/logrus"
)

// ErrInvalidPattern marks an expression that is not valid regex syntax.
var ErrInvalidPattern = errors.New("invalid pattern")

// Matcher is a compiled search expression. It is immutable once built and
// shared read-only by every scanner.
type Matcher struct {
	expr        string
	insensitive bool
	literal     bool
	re          *regexp.Regexp
}

// CompilePattern builds a Matcher. In literal mode every metacharacter is
// escaped so the expression matches as exact text.
func CompilePattern(expr string, insensitive, literal bool) (*Matcher, error) {
	src := expr
	if literal {
		src = regexp.QuoteMeta(src)
	}
	if insensitive {
		src = "(?i)" + src
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, expr, err)
	}
	m := &Matcher{expr: expr, insensitive: insensitive, literal: literal, re: re}
	logrus.Debugf("Compiled pattern %s", m.Desc())
	return m, nil
}

func (m *Matcher) Match(s string) bool { return m.re.MatchString(s) }

// FirstSpan returns the byte range of the leftmost match.
func (m *Matcher) FirstSpan(s string) (int, int, bool) {
	loc := m.re.FindStringIndex(s)
	if loc == nil {
		return 0, 0, false
	}
	return loc[0], loc[1], true
}

// Spans returns every non-overlapping, non-empty match in s.
func (m *Matcher) Spans(s string) [][2]int {
	locs := m.re.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return nil
	}
	out := make([][2]int, 0, len(locs))
	for _, loc := range locs {
		if loc[1] > loc[0] {
			out = append(out, [2]int{loc[0], loc[1]})
		}
	}
	return out
}

func (m *Matcher) Desc() string {
	switch {
	case m.literal && m.insensitive:
		return "fixed:i:" + m.expr
	case m.literal:
		return "fixed:" + m.expr
	case m.insensitive:
		return "re:i:" + m.expr
	}
	return "re:" + m.expr
}
