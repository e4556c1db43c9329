package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"
	"github.com/sirupsen/logrus"
)

const maxArchiveMembers = 10000 // zip-bomb protection

var errArchiveLimit = errors.New("archive member limit reached")

// expandArchive feeds the regular members of an archive as targets. Members go
// through the same extension and size filter as plain files.
func (s *Selector) expandArchive(ctx context.Context, archivePath string, emit func(Target)) {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		s.skipped()
		s.log.WithFields(logrus.Fields{"file": archivePath, "err": err}).Error("Open archive failed")
		return
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer closer.Close()
	}

	count := 0
	err = iofs.WalkDir(fsys, ".", func(inner string, d iofs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			s.log.WithFields(logrus.Fields{"file": archivePath, "inner": inner, "err": err}).Warn("Archive walk error")
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if count >= maxArchiveMembers {
			return errArchiveLimit
		}
		if inner == "." {
			inner = singleFileName(archivePath)
		}
		ext := extOf(inner)
		if !s.opts.allowedExt(ext) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			s.skipped()
			s.log.WithFields(logrus.Fields{"file": archivePath, "inner": inner, "err": err}).Error("Stat archive member failed")
			return nil
		}
		if s.overCeiling(archivePath+"!"+inner, info.Size()) {
			return nil
		}
		count++
		s.found(emit, Target{Path: archivePath, Inner: inner, Size: info.Size(), Ext: ext})
		return nil
	})
	if errors.Is(err, errArchiveLimit) {
		s.log.WithField("file", archivePath).Warnf("Archive %s truncated: more than %d members", archivePath, maxArchiveMembers)
	}
}

// extractMembers scans the wanted members of one archive in a single pass over
// the archive stream. A single compressed file (app.log.gz) has exactly one
// member, the decompressed content. fn handles its own errors; the returned
// error is about the archive as a whole.
func extractMembers(ctx context.Context, archivePath string, members []Target, fn func(Target, io.Reader)) error {
	want := make(map[string]Target, len(members))
	for _, m := range members {
		want[m.Inner] = m
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	format, stream, err := archives.Identify(ctx, filepath.Base(archivePath), f)
	if err != nil && !errors.Is(err, archives.NoMatch) {
		return fmt.Errorf("identify %s: %w", archivePath, err)
	}

	ex, isArchive := format.(archives.Extractor)
	if !isArchive {
		if len(members) != 1 {
			return fmt.Errorf("%s holds a single file, %d members requested", archivePath, len(members))
		}
		r := stream
		if d, ok := format.(archives.Decompressor); ok {
			rc, err := d.OpenReader(stream)
			if err != nil {
				return fmt.Errorf("decompress %s: %w", archivePath, err)
			}
			defer rc.Close()
			r = rc
		}
		fn(members[0], r)
		return nil
	}

	// zip and 7z need random access, so hand them the file itself
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	return ex.Extract(ctx, f, func(ctx context.Context, info archives.FileInfo) error {
		if info.IsDir() {
			return nil
		}
		t, ok := want[path.Clean(info.NameInArchive)]
		if !ok {
			return nil
		}
		rc, err := info.Open()
		if err != nil {
			return fmt.Errorf("open %s: %w", t.Label(), err)
		}
		defer rc.Close()
		fn(t, rc)
		return nil
	})
}

// singleFileName is the name of the decompressed content of a compressed
// file: the container name with its compression suffix removed.
func singleFileName(archivePath string) string {
	base := filepath.Base(archivePath)
	if name := strings.TrimSuffix(base, filepath.Ext(base)); name != "" {
		return name
	}
	return base
}
