package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
)

// ErrFollowTarget rejects follow mode on anything but exactly one regular file.
var ErrFollowTarget = errors.New("follow mode needs exactly one regular file (no stdin, no directory)")

// ValidateFollowArgs checks the raw command line targets before selection.
func ValidateFollowArgs(targets []string) error {
	if len(targets) != 1 {
		return fmt.Errorf("%w: got %d targets", ErrFollowTarget, len(targets))
	}
	if targets[0] == StdinMarker {
		return fmt.Errorf("%w: stdin cannot be followed", ErrFollowTarget)
	}
	st, err := os.Stat(targets[0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFollowTarget, err)
	}
	if !st.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrFollowTarget, targets[0])
	}
	return nil
}

// ValidateFollow checks the selected set: exactly one plain file.
func ValidateFollow(targets []Target) error {
	if len(targets) != 1 {
		return fmt.Errorf("%w: %d files selected", ErrFollowTarget, len(targets))
	}
	if t := targets[0]; t.IsStdin() || t.Inner != "" {
		return fmt.Errorf("%w: %s", ErrFollowTarget, t.Label())
	}
	return nil
}

// Follower tails one growing file. It starts at the current end of the file
// and emits matches from appended lines until ctx is cancelled.
type Follower struct {
	scanner *LineScanner
	poll    time.Duration
	enc     encoding.Encoding
	log     logrus.FieldLogger
}

func NewFollower(opts ScanOptions, sc *LineScanner) *Follower {
	poll := opts.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Follower{scanner: sc, poll: poll, enc: opts.TextEncoding(), log: logrus.StandardLogger()}
}

// Follow blocks until ctx is done (returns nil) or a read or decode error
// occurs (returned). When no complete line is available it waits for a write
// notification or the poll interval, whichever comes first, then retries from
// the recorded offset. Appended bytes are decoded before they are split into
// lines, so UTF-16 input works too. A shrinking file is treated as truncated
// and re-read from the start.
func (f *Follower) Follow(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("follow %s: %w", path, err)
	}
	defer file.Close()

	st, err := file.Stat()
	if err != nil {
		return fmt.Errorf("follow %s: %w", path, err)
	}
	offset := st.Size()

	events, errs, stop := f.watch(path)
	defer stop()

	win := newWindow(f.scanner.Before, f.scanner.After)
	emit := f.scanner.emitter(path)
	dec := f.enc.NewDecoder()
	buf := make([]byte, readBufSize)
	var raw, pending []byte

	f.log.WithFields(logrus.Fields{"file": path, "offset": offset}).Debug("Following")
	for {
		if ctx.Err() != nil {
			return nil
		}
		n, rerr := file.ReadAt(buf, offset)
		if n > 0 {
			offset += int64(n)
			raw = append(raw, buf[:n]...)
			text, used, err := decodeChunk(dec, raw)
			if err != nil {
				return fmt.Errorf("follow %s: decode: %w", path, err)
			}
			// an incomplete multi-byte sequence stays raw until the rest arrives
			raw = append(raw[:0], raw[used:]...)
			pending = append(pending, text...)
			for {
				i := bytes.IndexByte(pending, '\n')
				if i < 0 {
					break
				}
				line := string(trimEOL(pending[:i+1]))
				pending = pending[i+1:]
				if err := win.feed(line, f.scanner.Matcher.Match(line), emit); err != nil {
					return fmt.Errorf("follow %s: %w", path, err)
				}
			}
			pending = append([]byte(nil), pending...)
			continue
		}
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return fmt.Errorf("follow %s: %w", path, rerr)
		}

		if st, err := file.Stat(); err == nil && st.Size() < offset {
			f.log.WithField("file", path).Info("File truncated, reading from start")
			offset = 0
			raw, pending = raw[:0], pending[:0]
			dec.Reset()
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(f.poll):
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				f.log.WithField("file", path).Warn("Followed file was moved or removed")
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			f.log.WithFields(logrus.Fields{"file": path, "err": err}).Warn("Watcher error")
		}
	}
}

// watch subscribes to change events for path. When the watcher cannot be set
// up, both channels are nil and Follow falls back to plain polling.
func (f *Follower) watch(path string) (<-chan fsnotify.Event, <-chan error, func()) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		f.log.WithError(err).Debug("fsnotify unavailable, polling only")
		return nil, nil, func() {}
	}
	if err := w.Add(path); err != nil {
		f.log.WithFields(logrus.Fields{"file": path, "err": err}).Debug("Watch failed, polling only")
		w.Close()
		return nil, nil, func() {}
	}
	return w.Events, w.Errors, func() { w.Close() }
}
