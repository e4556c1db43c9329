package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"MiniGrep/internal"
	"MiniGrep/internal/config"
	"MiniGrep/internal/termcolor"
)

func main() {
	app := newApp(os.Stdin, os.Stdout, os.Stderr, termcolor.EnvMap(os.Environ()))
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "minigrep:", err)
		var ec cli.ExitCoder
		if errors.As(err, &ec) {
			os.Exit(ec.ExitCode())
		}
		os.Exit(1)
	}
}

func newApp(stdin io.Reader, stdout, stderr io.Writer, env map[string]string) *cli.App {
	return &cli.App{
		Name:            "minigrep",
		Usage:           "Search files, directory trees or stdin for a pattern, with context lines",
		ArgsUsage:       "PATTERN [PATH...]  ('-' or no PATH reads stdin)",
		UsageText:       "minigrep [flags] PATTERN [PATH...]\n\nFlags must come before PATTERN; anything after it is read as a path.",
		Reader:          stdin,
		Writer:          stdout,
		ErrWriter:       stderr,
		HideHelpCommand: true,
		ExitErrHandler:  func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "recursive",
				Aliases: []string{"R"},
				Usage:   "Descend into directories recursively",
			},
			&cli.IntFlag{
				Name:  "depth",
				Usage: "Max directory depth with --recursive (0 - unlimited)",
			},
			&cli.BoolFlag{
				Name:    "ignore-case",
				Aliases: []string{"i"},
				Usage:   "Case-insensitive match",
			},
			&cli.BoolFlag{
				Name:    "fixed",
				Aliases: []string{"F"},
				Usage:   "Treat PATTERN as literal text, not a regex",
			},
			&cli.IntFlag{
				Name:    "before",
				Aliases: []string{"B"},
				Usage:   "Lines of context before each match",
			},
			&cli.IntFlag{
				Name:    "after",
				Aliases: []string{"A"},
				Usage:   "Lines of context after each match",
			},
			&cli.StringFlag{
				Name:    "encoding",
				Aliases: []string{"e"},
				Usage:   "Text encoding of the input; undecodable bytes become U+FFFD",
				Value:   "utf-8",
			},
			&cli.StringFlag{
				Name:  "color",
				Usage: "Highlight matches: auto, always, never",
				Value: "auto",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Only scan these extensions (comma separated, e.g. log,txt)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Skip these extensions (comma separated). Wins over --include",
			},
			&cli.StringFlag{
				Name:  "max-bytes",
				Usage: "Skip files larger than this (bytes, or sizes like 100MB)",
			},
			&cli.IntFlag{
				Name:  "threads",
				Usage: "Concurrent file workers",
				Value: runtime.NumCPU(),
			},
			&cli.BoolFlag{
				Name:    "follow",
				Aliases: []string{"f"},
				Usage:   "Follow one growing file, like tail -f",
			},
			&cli.DurationFlag{
				Name:  "poll-interval",
				Usage: "Wait between reads in --follow mode when no new line is available",
				Value: internal.DefaultPollInterval,
			},
			&cli.BoolFlag{
				Name:  "archives",
				Usage: "Also scan text members of archives (.zip,.tar,.gz,.7z,...)",
			},
			&cli.BoolFlag{
				Name:  "skip-binary",
				Usage: "Skip files whose first 512 bytes contain NUL",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Stop after this long (e.g. 30s, 10m); also ends --follow",
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Defaults file (.toml, .yaml, .json); flags on the command line win",
				EnvVars: []string{"MINIGREP_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "logfile",
				Usage: "Write diagnostics into file instead of stderr",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
				Value: "info",
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "Print a summary table to stderr when done",
			},
		},
		Action: func(c *cli.Context) error {
			return run(c, env)
		},
	}
}

func run(c *cli.Context, env map[string]string) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("config: %v", err), 1)
	}

	level := c.String("log-level")
	if !c.IsSet("log-level") && cfg.LogLevel != nil {
		level = *cfg.LogLevel
	}
	if err := internal.InitLogger(c.App.ErrWriter, c.String("logfile"), level); err != nil {
		return cli.Exit(fmt.Sprintf("log-level: %v", err), 1)
	}

	if c.NArg() < 1 {
		return cli.Exit("missing PATTERN", 1)
	}
	pattern := c.Args().First()
	targets := c.Args().Tail()
	if len(targets) == 0 {
		targets = []string{internal.StdinMarker}
	}

	opts, err := buildOptions(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if err := opts.Validate(); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	opts.Prepare()
	logrus.Debugf("Options: %s", opts.String())

	matcher, err := internal.CompilePattern(pattern, opts.IgnoreCase, opts.Literal)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if opts.Follow {
		if err := internal.ValidateFollowArgs(targets); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	// ctx with timeout + OS signals
	base := context.Background()
	var cancel context.CancelFunc
	if t := c.Duration("timeout"); t > 0 {
		base, cancel = context.WithTimeout(base, t)
	} else {
		base, cancel = context.WithCancel(base)
	}
	defer cancel()

	ctx, stop := signal.NotifyContext(base, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var stats internal.AppStats
	stats.Start()

	stdoutFile, _ := c.App.Writer.(*os.File)
	hl := termcolor.NewHighlighter(matcher, termcolor.Enabled(opts.Color, stdoutFile, env))
	scanner := internal.NewLineScanner(matcher, opts, hl, internal.NewWriterSink(c.App.Writer))

	selected, err := internal.NewSelector(opts, &stats).SelectAll(ctx, targets)
	if err != nil {
		logrus.Warn("Selection cancelled")
		return nil
	}

	if opts.Follow {
		if err := internal.ValidateFollow(selected); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		if err := internal.NewFollower(opts, scanner).Follow(ctx, selected[0].Path); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		return nil
	}

	if err := internal.NewDispatcher(opts, scanner, c.App.Reader, &stats).Run(ctx, selected); err != nil {
		if ctx.Err() != nil {
			logrus.Warn("Scan cancelled")
		} else {
			logrus.WithError(err).Error("Scan failed")
		}
	}
	stats.Matches.Store(scanner.Matches())

	if c.Bool("stats") {
		stats.WriteSummary(c.App.ErrWriter)
	}
	return nil
}

// buildOptions layers command line flags over config file values: a flag the
// user set explicitly always wins.
func buildOptions(c *cli.Context, cfg config.Config) (internal.ScanOptions, error) {
	opts := internal.ScanOptions{
		Recursive:    c.Bool("recursive"),
		Depth:        c.Int("depth"),
		IgnoreCase:   c.Bool("ignore-case"),
		Literal:      c.Bool("fixed"),
		Include:      c.StringSlice("include"),
		Exclude:      c.StringSlice("exclude"),
		Before:       c.Int("before"),
		After:        c.Int("after"),
		Encoding:     c.String("encoding"),
		Threads:      c.Int("threads"),
		Follow:       c.Bool("follow"),
		Archives:     c.Bool("archives"),
		SkipBinary:   c.Bool("skip-binary"),
		PollInterval: c.Duration("poll-interval"),
	}

	overlay := func(flag string, apply func()) {
		if !c.IsSet(flag) {
			apply()
		}
	}
	if cfg.Recursive != nil {
		overlay("recursive", func() { opts.Recursive = *cfg.Recursive })
	}
	if cfg.Depth != nil {
		overlay("depth", func() { opts.Depth = *cfg.Depth })
	}
	if cfg.IgnoreCase != nil {
		overlay("ignore-case", func() { opts.IgnoreCase = *cfg.IgnoreCase })
	}
	if cfg.Fixed != nil {
		overlay("fixed", func() { opts.Literal = *cfg.Fixed })
	}
	if cfg.Include != nil {
		overlay("include", func() { opts.Include = *cfg.Include })
	}
	if cfg.Exclude != nil {
		overlay("exclude", func() { opts.Exclude = *cfg.Exclude })
	}
	if cfg.Before != nil {
		overlay("before", func() { opts.Before = *cfg.Before })
	}
	if cfg.After != nil {
		overlay("after", func() { opts.After = *cfg.After })
	}
	if cfg.Encoding != nil {
		overlay("encoding", func() { opts.Encoding = *cfg.Encoding })
	}
	if cfg.Threads != nil {
		overlay("threads", func() { opts.Threads = *cfg.Threads })
	}
	if cfg.Archives != nil {
		overlay("archives", func() { opts.Archives = *cfg.Archives })
	}
	if cfg.SkipBinary != nil {
		overlay("skip-binary", func() { opts.SkipBinary = *cfg.SkipBinary })
	}
	if cfg.PollInterval != nil {
		overlay("poll-interval", func() { opts.PollInterval = *cfg.PollInterval })
	}
	if cfg.MaxBytes != nil {
		overlay("max-bytes", func() { opts.MaxBytes = *cfg.MaxBytes })
	}

	color := c.String("color")
	if !c.IsSet("color") && cfg.Color != nil {
		color = *cfg.Color
	}
	mode, err := termcolor.ParseMode(color)
	if err != nil {
		return opts, err
	}
	opts.Color = mode

	if c.IsSet("max-bytes") {
		n, err := config.ParseSize(c.String("max-bytes"))
		if err != nil {
			return opts, fmt.Errorf("--max-bytes: %w", err)
		}
		opts.MaxBytes = n
	}
	return opts, nil
}
