package internal

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"golang.org/x/text/encoding"

	"MiniGrep/internal/termcolor"
)

// DefaultPollInterval is how long follow mode sleeps when no new line exists.
const DefaultPollInterval = 200 * time.Millisecond

// ScanOptions is the configuration of one run. It is filled from flags and
// the optional config file, then validated and prepared once; scanners only
// read it.
type ScanOptions struct {
	Recursive    bool
	Depth        int
	IgnoreCase   bool
	Literal      bool
	Include      []string
	Exclude      []string
	MaxBytes     int64 // <= 0 means no ceiling
	Before       int
	After        int
	Encoding     string
	Color        termcolor.ColorMode
	Threads      int
	Follow       bool
	Archives     bool
	SkipBinary   bool
	PollInterval time.Duration

	incMap map[string]struct{}
	excMap map[string]struct{}
	enc    encoding.Encoding
}

// Validate checks invariants and resolves the text encoding.
func (o *ScanOptions) Validate() error {
	if o.Before < 0 || o.After < 0 {
		return errors.New("context line counts must not be negative")
	}
	if o.Depth < 0 {
		return errors.New("depth must not be negative")
	}
	if o.PollInterval < 0 {
		return errors.New("poll-interval must not be negative")
	}
	enc, err := LookupEncoding(o.Encoding)
	if err != nil {
		return err
	}
	o.enc = enc
	return nil
}

// Prepare builds fast lookup structures and sensible defaults.
func (o *ScanOptions) Prepare() {
	o.Include = NormalizeExts(o.Include)
	o.Exclude = NormalizeExts(o.Exclude)
	o.incMap = toSet(o.Include)
	o.excMap = toSet(o.Exclude)
	if o.Threads <= 0 {
		o.Threads = runtime.NumCPU()
	}
	if o.PollInterval == 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.enc == nil {
		o.enc, _ = LookupEncoding("")
	}
}

func (o *ScanOptions) TextEncoding() encoding.Encoding { return o.enc }

// NormalizeExts turns "log, .TXT" style lists into {".log", ".txt"}.
func NormalizeExts(s []string) []string {
	out := make([]string, 0, len(s))
	for _, ext := range s {
		for _, v := range strings.Split(ext, ",") {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			v = strings.TrimPrefix(v, ".")
			out = append(out, "."+strings.ToLower(v))
		}
	}
	return out
}

func toSet(s []string) map[string]struct{} {
	if len(s) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(s))
	for _, x := range s {
		m[x] = struct{}{}
	}
	return m
}

func (o *ScanOptions) excludedExt(ext string) bool {
	_, blocked := o.excMap[ext]
	return blocked
}

// allowedExt expects a lower-cased ".ext". Exclude wins over include.
func (o *ScanOptions) allowedExt(ext string) bool {
	if o.excludedExt(ext) {
		return false
	}
	if len(o.incMap) > 0 {
		_, ok := o.incMap[ext]
		return ok
	}
	return true
}

func (o *ScanOptions) String() string {
	return fmt.Sprintf("recursive=%t include=%v exclude=%v max-bytes=%d before=%d after=%d encoding=%s color=%s threads=%d follow=%t",
		o.Recursive, o.Include, o.Exclude, o.MaxBytes, o.Before, o.After, o.Encoding, o.Color, o.Threads, o.Follow)
}
