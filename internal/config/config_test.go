package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "minigrep.toml", `
recursive = true
max-bytes = "1KB"
include = ["log", "txt"]

[search]
context = 2
after = 5
color = "never"
poll_interval = "50ms"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Recursive == nil || !*cfg.Recursive {
		t.Fatalf("recursive not set: %+v", cfg.Recursive)
	}
	if cfg.MaxBytes == nil || *cfg.MaxBytes != 1000 {
		t.Fatalf("max_bytes = %v", cfg.MaxBytes)
	}
	if cfg.Include == nil || len(*cfg.Include) != 2 {
		t.Fatalf("include = %v", cfg.Include)
	}
	if *cfg.Before != 2 || *cfg.After != 5 {
		t.Fatalf("before/after = %d/%d, want 2/5", *cfg.Before, *cfg.After)
	}
	if *cfg.Color != "never" {
		t.Fatalf("color = %q", *cfg.Color)
	}
	if *cfg.PollInterval != 50*time.Millisecond {
		t.Fatalf("poll = %v", *cfg.PollInterval)
	}
}

func TestLoadYAMLAndJSON(t *testing.T) {
	y := writeFile(t, "c.yaml", "ignore-case: true\nexclude: sql, json\nthreads: 3\nmax_bytes: 150\n")
	cfg, err := Load(y)
	if err != nil {
		t.Fatalf("Load yaml: %v", err)
	}
	if !*cfg.IgnoreCase || *cfg.Threads != 3 || *cfg.MaxBytes != 150 {
		t.Fatalf("unexpected yaml config: %+v", cfg)
	}
	if got := *cfg.Exclude; len(got) != 2 || got[0] != "sql" || got[1] != "json" {
		t.Fatalf("exclude = %v", got)
	}

	j := writeFile(t, "c.json", `{"fixed": true, "before": 1, "encoding": "latin1"}`)
	cfg, err = Load(j)
	if err != nil {
		t.Fatalf("Load json: %v", err)
	}
	if !*cfg.Fixed || *cfg.Before != 1 || *cfg.Encoding != "latin1" {
		t.Fatalf("unexpected json config: %+v", cfg)
	}
}

func TestLoadRejectsUnknownKeysAndBadValues(t *testing.T) {
	cases := map[string]string{
		"unknown.toml":  "colour = \"always\"\n",
		"badint.yaml":   "before: many\n",
		"negative.json": `{"after": -1}`,
		"badsize.toml":  "max_bytes = \"huge\"\n",
		"hugesize.toml": "max_bytes = \"10EiB\"\n",
		"ext.ini":       "recursive=true\n",
	}
	for name, body := range cases {
		if _, err := Load(writeFile(t, name, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Recursive != nil || cfg.MaxBytes != nil {
		t.Fatalf("empty path must yield zero config: %+v", cfg)
	}
}

func TestParseSize(t *testing.T) {
	if n, err := ParseSize(" 100MB "); err != nil || n != 100_000_000 {
		t.Fatalf("ParseSize(100MB) = %d, %v", n, err)
	}
	if n, err := ParseSize("150"); err != nil || n != 150 {
		t.Fatalf("ParseSize(150) = %d, %v", n, err)
	}
	// 10EiB fits in uint64 but not in int64
	for _, s := range []string{"10EiB", "lots"} {
		if _, err := ParseSize(s); err == nil {
			t.Fatalf("ParseSize(%q): expected error", s)
		}
	}
}
