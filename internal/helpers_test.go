package internal

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
)

// memSink collects emitted lines for assertions.
type memSink struct {
	mu    sync.Mutex
	lines []OutputLine
}

func (m *memSink) Emit(l OutputLine) error {
	m.mu.Lock()
	m.lines = append(m.lines, l)
	m.mu.Unlock()
	return nil
}

func (m *memSink) all() []OutputLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]OutputLine(nil), m.lines...)
}

func (m *memSink) forSource(src string) []OutputLine {
	var out []OutputLine
	for _, l := range m.all() {
		if l.Source == src {
			out = append(out, l)
		}
	}
	return out
}

// sorted returns the lines as "source|role|text" strings in stable order,
// for multiset comparisons.
func (m *memSink) sorted() []string {
	var out []string
	for _, l := range m.all() {
		out = append(out, l.Source+"|"+l.Role.String()+"|"+l.Text)
	}
	sort.Strings(out)
	return out
}

func mustMatcher(t testing.TB, expr string) *Matcher {
	t.Helper()
	m, err := CompilePattern(expr, false, false)
	if err != nil {
		t.Fatalf("compile %q: %v", expr, err)
	}
	return m
}

func writeFile(t testing.TB, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func preparedOptions(t testing.TB, o ScanOptions) ScanOptions {
	t.Helper()
	if err := o.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	o.Prepare()
	return o
}
