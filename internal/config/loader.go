package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var keyMap = map[string]string{
	"recursive":     "recursive",
	"depth":         "depth",
	"ignore_case":   "ignore_case",
	"fixed":         "fixed",
	"literal":       "fixed",
	"include":       "include",
	"exclude":       "exclude",
	"max_bytes":     "max_bytes",
	"before":        "before",
	"after":         "after",
	"context":       "context",
	"encoding":      "encoding",
	"color":         "color",
	"threads":       "threads",
	"archives":      "archives",
	"skip_binary":   "skip_binary",
	"poll_interval": "poll_interval",
	"log_level":     "log_level",
}

// Load reads a .toml, .yaml/.yml or .json file. Keys may sit at the top level
// or under a [search] table; unknown keys are errors.
func Load(path string) (Config, error) {
	var cfg Config
	path = strings.TrimSpace(path)
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var raw map[string]any
	switch ext {
	case ".yaml", ".yml":
		if decodeErr := yaml.Unmarshal(data, &raw); decodeErr != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, decodeErr)
		}
	case ".toml":
		if decodeErr := toml.Unmarshal(data, &raw); decodeErr != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, decodeErr)
		}
	case ".json":
		if decodeErr := json.Unmarshal(data, &raw); decodeErr != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, decodeErr)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if raw == nil {
		return cfg, nil
	}
	decoded, err := decodeConfigMap(raw)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return decoded, nil
}

func decodeConfigMap(raw map[string]any) (Config, error) {
	var cfg Config
	section := make(map[string]any)

	for key, value := range raw {
		norm := normalizeKey(key)
		if norm == "search" {
			sub, err := toStringKeyMap(value)
			if err != nil {
				return cfg, fmt.Errorf("search: %w", err)
			}
			for k, v := range sub {
				canonical, ok := keyMap[normalizeKey(k)]
				if !ok {
					return cfg, fmt.Errorf("unknown search key: %s", k)
				}
				section[canonical] = v
			}
			continue
		}
		canonical, ok := keyMap[norm]
		if !ok {
			return cfg, fmt.Errorf("unknown config key: %s", key)
		}
		section[canonical] = value
	}

	if err := assign(section, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func assign(section map[string]any, dst *Config) error {
	// "context" sets both sides; explicit before/after below override it.
	if raw, ok := section["context"]; ok {
		n, err := expectInt(raw, "context")
		if err != nil {
			return err
		}
		b, a := n, n
		dst.Before, dst.After = &b, &a
	}

	for key, value := range section {
		switch key {
		case "context":
			continue
		case "recursive", "ignore_case", "fixed", "archives", "skip_binary":
			b, err := expectBool(value, key)
			if err != nil {
				return err
			}
			switch key {
			case "recursive":
				dst.Recursive = &b
			case "ignore_case":
				dst.IgnoreCase = &b
			case "fixed":
				dst.Fixed = &b
			case "archives":
				dst.Archives = &b
			case "skip_binary":
				dst.SkipBinary = &b
			}
		case "depth", "before", "after", "threads":
			n, err := expectInt(value, key)
			if err != nil {
				return err
			}
			if n < 0 {
				return fmt.Errorf("%s must not be negative", key)
			}
			switch key {
			case "depth":
				dst.Depth = &n
			case "before":
				dst.Before = &n
			case "after":
				dst.After = &n
			case "threads":
				dst.Threads = &n
			}
		case "include", "exclude":
			list, err := expectStringList(value, key)
			if err != nil {
				return err
			}
			if key == "include" {
				dst.Include = &list
			} else {
				dst.Exclude = &list
			}
		case "max_bytes":
			n, err := expectSize(value, key)
			if err != nil {
				return err
			}
			dst.MaxBytes = &n
		case "encoding", "color", "log_level":
			str, err := expectString(value, key)
			if err != nil {
				return err
			}
			switch key {
			case "encoding":
				dst.Encoding = &str
			case "color":
				dst.Color = &str
			case "log_level":
				dst.LogLevel = &str
			}
		case "poll_interval":
			str, err := expectString(value, key)
			if err != nil {
				return err
			}
			d, err := time.ParseDuration(strings.TrimSpace(str))
			if err != nil {
				return fmt.Errorf("invalid duration for %s: %q", key, str)
			}
			dst.PollInterval = &d
		}
	}
	return nil
}

func expectString(value any, field string) (string, error) {
	if value == nil {
		return "", fmt.Errorf("%s cannot be null", field)
	}
	if s, ok := value.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("expected string for %s, got %T", field, value)
}

func expectBool(value any, field string) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("invalid boolean value for %s: %q", field, v)
		}
		return b, nil
	default:
		return false, fmt.Errorf("expected bool for %s, got %T", field, value)
	}
}

func expectInt(value any, field string) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		if v > math.MaxInt {
			return 0, fmt.Errorf("%s is out of range: %d", field, v)
		}
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("expected integer for %s, got %v", field, value)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("invalid integer value for %s: %q", field, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected integer for %s, got %T", field, value)
	}
}

// ParseSize reads a byte count or a humanized size such as "100MB".
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %v", s, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("size %q is too large", s)
	}
	return int64(n), nil
}

// expectSize accepts a plain byte count or a humanized size such as "100MB".
func expectSize(value any, field string) (int64, error) {
	if s, ok := value.(string); ok {
		n, err := ParseSize(s)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", field, err)
		}
		return n, nil
	}
	n, err := expectInt(value, field)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must not be negative", field)
	}
	return int64(n), nil
}

func expectStringList(value any, field string) ([]string, error) {
	switch v := value.(type) {
	case string:
		return normalizeList(strings.Split(v, ",")), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, err := expectString(item, field)
			if err != nil {
				return nil, err
			}
			out = append(out, str)
		}
		return normalizeList(out), nil
	case []string:
		return normalizeList(v), nil
	default:
		return nil, fmt.Errorf("expected string or list for %s, got %T", field, value)
	}
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func toStringKeyMap(v any) (map[string]any, error) {
	switch typed := v.(type) {
	case map[string]any:
		return typed, nil
	case map[any]any:
		out := make(map[string]any, len(typed))
		for k, value := range typed {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key: %v", k)
			}
			out[key] = value
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected map, got %T", v)
	}
}

func normalizeKey(key string) string {
	norm := strings.ToLower(strings.TrimSpace(key))
	norm = strings.ReplaceAll(norm, "-", "_")
	return norm
}
