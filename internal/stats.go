package internal

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// AppStats atomic counters for totals
type AppStats struct {
	start          time.Time
	FilesFound     atomic.Int64
	FilesSkipped   atomic.Int64
	FilesProcessed atomic.Int64
	Matches        atomic.Int64
	Errors         atomic.Int64
}

func (s *AppStats) Start() {
	s.start = time.Now()
}

func (s *AppStats) Elapsed() time.Duration {
	if s.start.IsZero() {
		return 0
	}
	return time.Since(s.start)
}

// WriteSummary renders the totals as a small table.
func (s *AppStats) WriteSummary(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Stat", "Value"})
	t.AppendRows([]table.Row{
		{"Files selected", s.FilesFound.Load()},
		{"Files skipped", s.FilesSkipped.Load()},
		{"Files scanned", s.FilesProcessed.Load()},
		{"Matching lines", s.Matches.Load()},
		{"Errors", s.Errors.Load()},
		{"Elapsed", s.Elapsed().Round(time.Millisecond)},
	})
	t.Render()
}
