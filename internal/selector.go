package internal

import (
	"context"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// StdinMarker is the target string meaning "read standard input".
const StdinMarker = "-"

const stdinLabel = "<stdin>"

// Target is one resolved unit of work.
type Target struct {
	Path  string // file path, archive path, or StdinMarker
	Inner string // member path inside an archive, empty otherwise
	Size  int64
	Ext   string
}

func StdinTarget() Target { return Target{Path: StdinMarker} }

func (t Target) IsStdin() bool { return t.Path == StdinMarker && t.Inner == "" }

// Label is the source name printed in front of every output line.
func (t Target) Label() string {
	switch {
	case t.IsStdin():
		return stdinLabel
	case t.Inner != "":
		return t.Path + "!" + t.Inner
	default:
		return t.Path
	}
}

// Selector resolves command line targets into the filtered file set.
type Selector struct {
	opts  ScanOptions
	stats *AppStats
	log   logrus.FieldLogger
}

func NewSelector(opts ScanOptions, stats *AppStats) *Selector {
	if stats == nil {
		stats = &AppStats{}
	}
	return &Selector{opts: opts, stats: stats, log: logrus.StandardLogger()}
}

// WithLogger swaps the diagnostics logger.
func (s *Selector) WithLogger(l logrus.FieldLogger) *Selector {
	s.log = l
	return s
}

// Select walks targets in order and calls emit for every candidate. Rejected
// targets are reported and skipped; only cancellation stops the walk.
func (s *Selector) Select(ctx context.Context, targets []string, emit func(Target)) error {
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if t == StdinMarker {
			s.found(emit, StdinTarget())
			continue
		}
		st, err := os.Stat(t)
		if err != nil {
			s.skipped()
			s.log.WithFields(logrus.Fields{"file": t, "err": err}).Warn("Skip: not a file or directory")
			continue
		}
		switch {
		case st.Mode().IsRegular():
			s.consider(ctx, t, st.Size(), emit)
		case st.IsDir():
			if err := s.walkDir(ctx, t, emit); err != nil {
				return err
			}
		default:
			s.skipped()
			s.log.WithField("file", t).Warnf("Skip: %s is not a regular file or directory", t)
		}
	}
	return nil
}

// SelectAll collects the candidates of Select.
func (s *Selector) SelectAll(ctx context.Context, targets []string) ([]Target, error) {
	var out []Target
	err := s.Select(ctx, targets, func(t Target) { out = append(out, t) })
	return out, err
}

func (s *Selector) walkDir(ctx context.Context, dir string, emit func(Target)) error {
	if !s.opts.Recursive {
		ents, err := os.ReadDir(dir)
		if err != nil {
			s.skipped()
			s.log.WithFields(logrus.Fields{"file": dir, "err": err}).Error("Read dir failed")
			return nil
		}
		for _, e := range ents {
			if err := ctx.Err(); err != nil {
				return err
			}
			if e.IsDir() {
				continue
			}
			s.statAndConsider(ctx, filepath.Join(dir, e.Name()), emit)
		}
		return nil
	}

	err := WalkWithDepth(ctx, dir, s.opts.Depth, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			s.skipped()
			s.log.WithFields(logrus.Fields{"file": path, "err": err}).Warn("Walk error")
			return nil
		}
		if d.IsDir() {
			return nil
		}
		s.statAndConsider(ctx, path, emit)
		return nil
	})
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// statAndConsider follows symlinks so that links to regular files count as files.
func (s *Selector) statAndConsider(ctx context.Context, path string, emit func(Target)) {
	st, err := os.Stat(path)
	if err != nil {
		s.skipped()
		s.log.WithFields(logrus.Fields{"file": path, "err": err}).Error("Stat failed")
		return
	}
	if !st.Mode().IsRegular() {
		return
	}
	s.consider(ctx, path, st.Size(), emit)
}

// consider applies the filter predicate: include set, exclude set, size
// ceiling, then the optional binary sniff.
func (s *Selector) consider(ctx context.Context, path string, size int64, emit func(Target)) {
	ext := extOf(path)
	if s.opts.Archives && IsArchive(path) && !s.opts.excludedExt(ext) {
		s.expandArchive(ctx, path, emit)
		return
	}
	if !s.opts.allowedExt(ext) {
		s.log.WithField("file", path).Debug("Skip: extension filtered")
		return
	}
	if s.overCeiling(path, size) {
		return
	}
	if s.opts.SkipBinary {
		bin, err := isBinaryFile(path)
		if err != nil {
			s.skipped()
			s.log.WithFields(logrus.Fields{"file": path, "err": err}).Error("Open failed")
			return
		}
		if bin {
			s.log.WithField("file", path).Debug("Skip: binary file")
			return
		}
	}
	s.found(emit, Target{Path: path, Size: size, Ext: ext})
}

func (s *Selector) overCeiling(path string, size int64) bool {
	if s.opts.MaxBytes <= 0 || size <= s.opts.MaxBytes {
		return false
	}
	s.skipped()
	s.log.WithFields(logrus.Fields{"file": path, "size": size}).
		Warnf("Skip large: %s (%d bytes, %s > %s)", path, size,
			humanize.Bytes(uint64(size)), humanize.Bytes(uint64(s.opts.MaxBytes)))
	return true
}

func (s *Selector) found(emit func(Target), t Target) {
	s.stats.FilesFound.Add(1)
	emit(t)
}

func (s *Selector) skipped() { s.stats.FilesSkipped.Add(1) }
