package internal

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func scanString(t *testing.T, input, expr string, before, after int, hl Highlighter) []OutputLine {
	t.Helper()
	sink := &memSink{}
	sc := &LineScanner{Matcher: mustMatcher(t, expr), Before: before, After: after, Highlight: hl, Sink: sink}
	if err := sc.Scan(context.Background(), strings.NewReader(input), "f.log"); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return sink.all()
}

func TestLineScanner_ErrorScenario(t *testing.T) {
	got := scanString(t, "a\nERROR b\nc\nd\n", "ERROR", 1, 1, nil)
	want := []OutputLine{
		{Source: "f.log", Role: RoleBefore, Text: "a"},
		{Source: "f.log", Role: RoleMatch, Text: "ERROR b"},
		{Source: "f.log", Role: RoleAfter, Text: "c"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d lines %v, want %v", len(got), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestLineScanner_PreservesFileOrder(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 200; i++ {
		if i%7 == 0 {
			b.WriteString("hit ")
		}
		b.WriteString("line\n")
	}
	got := scanString(t, b.String(), "hit", 2, 2, nil)
	// emitted lines must form a subsequence of the input
	lines := strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
	pos := 0
	for _, l := range got {
		for pos < len(lines) && lines[pos] != l.Text {
			pos++
		}
		if pos == len(lines) {
			t.Fatalf("emitted line %q out of file order", l.Text)
		}
		pos++
	}
}

func TestLineScanner_CRLFAndMissingFinalNewline(t *testing.T) {
	got := scanString(t, "x\r\nneedle one\r\nneedle two", "needle", 1, 0, nil)
	if len(got) != 3 {
		t.Fatalf("expected 3 lines, got %v", got)
	}
	if got[0].Text != "x" || got[1].Text != "needle one" || got[2].Text != "needle two" {
		t.Fatalf("terminators not stripped: %q", got)
	}
}

type upper struct{}

func (upper) Apply(s string) string { return strings.ToUpper(s) }

func TestLineScanner_HighlightsMatchesOnly(t *testing.T) {
	got := scanString(t, "ctx\nhit\nafter\n", "hit", 1, 1, upper{})
	if got[0].Text != "ctx" || got[2].Text != "after" {
		t.Fatalf("context lines must not be highlighted: %v", got)
	}
	if got[1].Text != "HIT" {
		t.Fatalf("match line not highlighted: %v", got[1])
	}
}

func TestLineScanner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sc := &LineScanner{Matcher: mustMatcher(t, "x"), Sink: &memSink{}}
	err := sc.Scan(ctx, strings.NewReader("x\nx\n"), "f")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLineScanner_ReadError(t *testing.T) {
	sc := &LineScanner{Matcher: mustMatcher(t, "x"), Sink: &memSink{}}
	if err := sc.Scan(context.Background(), errReader{}, "f"); err == nil {
		t.Fatal("expected read error")
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func BenchmarkLineScanner(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 5000; i++ {
		if i%50 == 0 {
			sb.WriteString("ERROR something failed\n")
		} else {
			sb.WriteString("INFO all good here\n")
		}
	}
	input := sb.String()
	sc := &LineScanner{Matcher: mustMatcher(b, "ERROR"), Before: 2, After: 2, Sink: SinkFunc(func(OutputLine) error { return nil })}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := sc.Scan(context.Background(), strings.NewReader(input), "bench"); err != nil {
			b.Fatal(err)
		}
	}
}
