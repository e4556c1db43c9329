package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
)

// Dispatcher runs the LineScanner over a selected target set. Standard input
// is scanned first on the calling goroutine; files then go through an ants
// pool, one whole file or one whole archive per task.
type Dispatcher struct {
	scanner *LineScanner
	threads int
	enc     encoding.Encoding
	stdin   io.Reader
	stats   *AppStats
	log     logrus.FieldLogger
}

func NewDispatcher(opts ScanOptions, sc *LineScanner, stdin io.Reader, stats *AppStats) *Dispatcher {
	if stdin == nil {
		stdin = os.Stdin
	}
	if stats == nil {
		stats = &AppStats{}
	}
	return &Dispatcher{
		scanner: sc,
		threads: max(opts.Threads, 1),
		enc:     opts.TextEncoding(),
		stdin:   stdin,
		stats:   stats,
		log:     logrus.StandardLogger(),
	}
}

// WithLogger swaps the diagnostics logger.
func (d *Dispatcher) WithLogger(l logrus.FieldLogger) *Dispatcher {
	d.log = l
	return d
}

// task is one unit of pool work: a plain file, or every selected member of
// one archive so the archive is read only once.
type task struct {
	target  Target
	members []Target
}

// groupTasks keeps target order, folding archive members into the task of
// their archive's first member.
func groupTasks(files []Target) []task {
	tasks := make([]task, 0, len(files))
	byArchive := make(map[string]int)
	for _, t := range files {
		if t.Inner == "" {
			tasks = append(tasks, task{target: t})
			continue
		}
		if i, ok := byArchive[t.Path]; ok {
			tasks[i].members = append(tasks[i].members, t)
			continue
		}
		byArchive[t.Path] = len(tasks)
		tasks = append(tasks, task{target: Target{Path: t.Path}, members: []Target{t}})
	}
	return tasks
}

// Run scans every target. Per-source failures are logged and counted; the
// returned error is non-nil only for cancellation or pool setup failures.
func (d *Dispatcher) Run(ctx context.Context, targets []Target) error {
	files := make([]Target, 0, len(targets))
	hasStdin := false
	for _, t := range targets {
		if t.IsStdin() {
			hasStdin = true
			continue
		}
		files = append(files, t)
	}

	if hasStdin {
		d.scanTarget(ctx, StdinTarget())
	}
	tasks := groupTasks(files)
	if len(tasks) == 0 {
		return ctx.Err()
	}

	if d.threads == 1 || len(tasks) == 1 {
		for _, t := range tasks {
			if err := ctx.Err(); err != nil {
				return err
			}
			d.runTask(ctx, t)
		}
		return ctx.Err()
	}

	var wg sync.WaitGroup
	pool, err := ants.NewPoolWithFunc(min(d.threads, len(tasks)), func(i interface{}) {
		defer wg.Done()
		if ctx.Err() != nil {
			return
		}
		d.runTask(ctx, i.(task))
	})
	if err != nil {
		return fmt.Errorf("pool: %w", err)
	}
	defer pool.Release()

	for _, t := range tasks {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		if err := pool.Invoke(t); err != nil {
			wg.Done()
			d.log.WithError(err).Error("submit task")
			d.stats.Errors.Add(1)
		}
	}
	wg.Wait()
	return ctx.Err()
}

func (d *Dispatcher) runTask(ctx context.Context, t task) {
	if t.members == nil {
		d.scanTarget(ctx, t.target)
		return
	}
	err := extractMembers(ctx, t.target.Path, t.members, func(m Target, r io.Reader) {
		d.stats.FilesProcessed.Add(1)
		d.scan(ctx, m, r)
	})
	if err != nil && !isCancel(err) {
		d.fail(t.target, err)
	}
}

func (d *Dispatcher) scanTarget(ctx context.Context, t Target) {
	d.stats.FilesProcessed.Add(1)
	rc, err := d.open(t)
	if err != nil {
		d.fail(t, err)
		return
	}
	defer rc.Close()
	d.scan(ctx, t, rc)
}

func (d *Dispatcher) scan(ctx context.Context, t Target, r io.Reader) {
	if err := d.scanner.Scan(ctx, DecodeReader(r, d.enc), t.Label()); err != nil && !isCancel(err) {
		d.fail(t, err)
	}
}

func (d *Dispatcher) open(t Target) (io.ReadCloser, error) {
	if t.IsStdin() {
		return io.NopCloser(d.stdin), nil
	}
	return os.Open(t.Path)
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (d *Dispatcher) fail(t Target, err error) {
	d.stats.Errors.Add(1)
	d.log.WithFields(logrus.Fields{"file": t.Label(), "err": err}).Error("Scan failed")
}
