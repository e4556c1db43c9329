package termcolor

import "strings"

// Spanner reports the byte ranges of every non-overlapping match in a line.
type Spanner interface {
	Spans(line string) [][2]int
}

// Highlighter wraps matched spans of a line in SGR markup.
type Highlighter struct {
	spans   Spanner
	style   Style
	enabled bool
}

func NewHighlighter(s Spanner, enabled bool) *Highlighter {
	return &Highlighter{spans: s, style: Red, enabled: enabled}
}

func (h *Highlighter) Enabled() bool { return h != nil && h.enabled }

// Apply returns line with every match wrapped, or line unchanged when
// highlighting is off. Text outside the spans is copied verbatim.
func (h *Highlighter) Apply(line string) string {
	if !h.Enabled() || h.spans == nil || line == "" {
		return line
	}
	spans := h.spans.Spans(line)
	if len(spans) == 0 {
		return line
	}
	var b strings.Builder
	b.Grow(len(line) + len(spans)*9)
	last := 0
	for _, sp := range spans {
		if sp[0] < last || sp[1] <= sp[0] || sp[1] > len(line) {
			continue
		}
		b.WriteString(line[last:sp[0]])
		b.WriteString(Apply(h.style, line[sp[0]:sp[1]], true))
		last = sp[1]
	}
	b.WriteString(line[last:])
	return b.String()
}
