package internal

import (
	"context"
	"io"
	"sync/atomic"
)

// Highlighter decorates the text of a matched line.
type Highlighter interface {
	Apply(line string) string
}

// LineScanner runs the context-window scan over one source at a time. It holds
// no per-source state, so one LineScanner may serve many goroutines.
type LineScanner struct {
	Matcher   *Matcher
	Before    int
	After     int
	Highlight Highlighter
	Sink      Sink

	matches atomic.Int64
}

func NewLineScanner(m *Matcher, opts ScanOptions, hl Highlighter, sink Sink) *LineScanner {
	return &LineScanner{Matcher: m, Before: opts.Before, After: opts.After, Highlight: hl, Sink: sink}
}

// Scan reads decoded text from r line by line and emits matches with their
// context under the given source label. Lines are handled strictly in order.
func (s *LineScanner) Scan(ctx context.Context, r io.Reader, source string) error {
	win := newWindow(s.Before, s.After)
	emit := s.emitter(source)
	return readLines(ctx, r, func(line string) error {
		return win.feed(line, s.Matcher.Match(line), emit)
	})
}

// Matches returns the number of match lines emitted so far.
func (s *LineScanner) Matches() int64 { return s.matches.Load() }

func (s *LineScanner) emitter(source string) func(Role, string) error {
	return func(role Role, text string) error {
		if role == RoleMatch {
			s.matches.Add(1)
			if s.Highlight != nil {
				text = s.Highlight.Apply(text)
			}
		}
		return s.Sink.Emit(OutputLine{Source: source, Role: role, Text: text})
	}
}
