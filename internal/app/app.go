// Package app wires the walker, the searchers and the printer into one run.
package app

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bethropolis/needle/internal/config"
	serrors "github.com/bethropolis/needle/internal/errors"
	"github.com/bethropolis/needle/internal/ignore"
	"github.com/bethropolis/needle/internal/logger"
	"github.com/bethropolis/needle/internal/matcher"
	"github.com/bethropolis/needle/internal/printer"
	"github.com/bethropolis/needle/internal/search"
	"github.com/bethropolis/needle/internal/setup"
	"github.com/bethropolis/needle/internal/summary"
	"github.com/bethropolis/needle/internal/walker"
)

// Exit statuses.
const (
	ExitMatch   = 0
	ExitNoMatch = 1
	ExitError   = 2
)

// App encapsulates the main application functionality
type App struct {
	cfg    *config.Config
	log    *logger.Logger
	Output io.Writer
	Errout io.Writer
}

// New creates a new App instance
func New(cfg *config.Config, stdout, stderr io.Writer) *App {
	// Set up logger
	log := logger.New(stderr, cfg.Verbose, useColors(cfg, stderr))

	// Apply log level if specified (overrides the verbose flag)
	if cfg.LogLevel != "" {
		log.SetLevel(cfg.LogLevel)
	}
	log.SuppressMessages(cfg.NoMessages)

	return &App{
		cfg:    cfg,
		log:    log,
		Output: stdout,
		Errout: stderr,
	}
}

// Logger returns the run's logger.
func (a *App) Logger() *logger.Logger { return a.log }

func useColors(cfg *config.Config, w io.Writer) bool {
	f, _ := w.(*os.File)
	return cfg.UseColors(f)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && config.IsTerminal(f)
}

// Run executes the search and returns the process exit status.
func (a *App) Run(ctx context.Context) int {
	startTime := time.Now()
	cfg := a.cfg

	if cfg.ShowVersion {
		fmt.Fprintf(a.Output, "needle version %s\n", cfg.Version)
		return ExitMatch
	}

	// --- File types ---
	typeBuilder, err := setup.BuildTypes(setup.TypeConfig{
		Clear:  cfg.TypeClear,
		Add:    cfg.TypeAdd,
		Select: cfg.Types,
		Negate: cfg.TypesNot,
	})
	if err != nil {
		return a.fatal(err)
	}
	if cfg.TypeList {
		for _, def := range typeBuilder.Definitions() {
			fmt.Fprintf(a.Output, "%s: %s\n", def.Name, strings.Join(def.Globs, ", "))
		}
		return ExitMatch
	}
	typeMatcher, err := typeBuilder.Build()
	if err != nil {
		return a.fatal(err)
	}

	// --- Pattern ---
	var re *matcher.Regex
	if !cfg.ListFiles {
		if re, err = a.compile(); err != nil {
			return a.fatal(err)
		}
	}

	// --- Roots ---
	paths := cfg.Paths
	if len(paths) == 0 {
		paths = []string{"."}
	}
	explicitFiles := allRegularFiles(paths)

	// --- Cancellation ---
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var stop atomic.Bool
	stopOnDone := context.AfterFunc(ctx, func() { stop.Store(true) })
	defer stopOnDone()

	collector := serrors.NewCollector(
		serrors.WithLogger(a.log),
		serrors.WithOnReport(func(*serrors.SearchError) {
			if cfg.ErrorsFatal {
				cancel()
			}
		}),
	)

	// --- Printer ---
	stdoutTTY := isTerminal(a.Output)
	p := printer.New(a.Output,
		printer.WithLogger(a.log),
		printer.WithMode(outputMode(cfg)),
		printer.WithColors(useColors(cfg, a.Output)),
		printer.WithHeading(cfg.ShowHeading(stdoutTTY)),
		printer.WithLineNumbers(cfg.ShowLineNumbers(stdoutTTY)),
		printer.WithColumn(cfg.Column),
		printer.WithFilename(cfg.ShowFilename(len(paths) == 1 && explicitFiles)),
		printer.WithContext(cfg.Before() > 0 || cfg.After() > 0),
	)
	agg := printer.NewAggregator(p, cfg.Sorted())

	// --- Walker ---
	threads := cfg.Threads
	if threads <= 0 {
		threads = walker.DefaultThreads()
	}
	maxFileSize, err := cfg.MaxFilesizeBytes()
	if err != nil {
		return a.fatal(err)
	}
	var tracker *walker.SkippedTracker
	if cfg.ShowSkipped {
		tracker = walker.NewSkippedTracker(100)
	}
	infoLog := func(format string, args ...interface{}) {
		if !cfg.Quiet {
			a.log.Info(format, args...)
		}
	}
	_, walkOptions, err := setup.ConfigureWalker(setup.WalkerConfig{
		Threads:     threads,
		MaxDepth:    cfg.MaxDepth,
		MaxFileSize: maxFileSize,
		FollowLinks: cfg.FollowLinks,
		Sorted:      cfg.Sorted(),
		NoFilters:   explicitFiles,
		Ignore: ignore.Config{
			SearchHidden: cfg.Hidden,
			NoIgnore:     cfg.NoIgnore,
			NoIgnoreVCS:  cfg.NoIgnoreVCS,
			NoIgnoreDot:  cfg.NoIgnoreDot,
			NoParents:    cfg.NoIgnoreParent,
			NoGlobal:     cfg.NoIgnoreGlobal || cfg.NoIgnore,
			IgnoreFiles:  cfg.IgnoreFiles,
			Globs:        cfg.Globs,
			IGlobs:       cfg.IGlobs,
			Types:        typeMatcher,
		},
		Tracker:      tracker,
		ShowProgress: cfg.ShowProgress,
		Progress:     a.Errout,
		Quiet:        cfg.Quiet,
		Logger:       a.log,
	}, infoLog)
	if err != nil {
		return a.fatal(err)
	}
	w := walker.New(paths, walkOptions...)

	// --- Search ---
	var visit walker.VisitFunc
	if cfg.ListFiles {
		visit = func(ent *walker.DirEntry, err error) walker.Action {
			if err != nil {
				collector.Report(err)
				return a.next(&stop)
			}
			agg.File(&search.FileResult{Path: ent.Path(), Root: ent.Root()})
			return a.next(&stop)
		}
	} else {
		opts := searchOptions(cfg, threads, len(paths), explicitFiles, &stop)
		opts.Logger = a.log
		visit = a.searchVisitor(ctx, re, opts, agg, collector, &stop)
	}

	a.log.Debug("Roots: %v, threads: %d, sorted: %v", paths, threads, cfg.Sorted())
	walkErr := w.Run(ctx, visit)
	closeErr := agg.Close()

	// --- Results ---
	totals := agg.Totals()
	duration := time.Since(startTime)
	a.log.Debug("Searched %d files in %v.", totals.Files, duration.Round(time.Millisecond))

	failed := collector.Count() > 0
	switch {
	case stderrors.Is(walkErr, context.DeadlineExceeded):
		a.log.Error("Timeout of %v reached. Exiting.", cfg.Timeout)
		failed = true
	case walkErr != nil && !cfg.ErrorsFatal:
		a.log.Error("%v", walkErr)
		failed = true
	}
	if closeErr != nil {
		a.log.Error("%v", closeErr)
		failed = true
	}

	if cfg.Stats && !cfg.Quiet {
		summary.DisplayStats(a.Output, summary.Stats{
			Totals:   totals,
			Walk:     w.Stats(),
			Errors:   collector.ByKind(),
			Duration: duration,
		})
	}
	if cfg.ShowSkipped {
		summary.DisplaySkippedItems(a.log, tracker.Items(), a.Errout, cfg.Quiet)
	}

	matched := totals.FilesMatched > 0
	switch {
	case cfg.ListFiles:
		matched = totals.Files > 0
	case cfg.FilesWithoutMatch:
		matched = totals.Files > totals.FilesMatched
	}
	return exitStatus(matched, failed, cfg.Quiet)
}

// searchVisitor returns the walk callback that searches each file. Each
// worker borrows a Searcher, and its buffer, from a pool.
func (a *App) searchVisitor(
	ctx context.Context,
	re *matcher.Regex,
	opts search.Options,
	sink search.Sink,
	collector *serrors.Collector,
	stop *atomic.Bool,
) walker.VisitFunc {
	searcherPool := sync.Pool{
		New: func() any { return search.New(re, opts) },
	}
	return func(ent *walker.DirEntry, err error) walker.Action {
		if err != nil {
			collector.Report(err)
			return a.next(stop)
		}
		if stop.Load() {
			return walker.Quit
		}
		s := searcherPool.Get().(*search.Searcher)
		res, err := s.Search(ctx, ent.Path(), ent.Root(), sink)
		searcherPool.Put(s)
		switch {
		case err != nil && ctx.Err() == nil:
			collector.Report(err)
		case res != nil && res.Binary:
			a.log.Debug("Skipping binary file %s", ent.Path())
		}
		return a.next(stop)
	}
}

func (a *App) next(stop *atomic.Bool) walker.Action {
	if stop.Load() {
		return walker.Quit
	}
	return walker.Continue
}

// compile gathers the patterns from -e and -f and compiles them.
func (a *App) compile() (*matcher.Regex, error) {
	cfg := a.cfg
	patterns := append([]string(nil), cfg.Patterns...)
	for _, path := range cfg.PatternFiles {
		lines, err := readPatternFile(path)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, lines...)
	}
	limit, err := cfg.RegexSizeLimitBytes()
	if err != nil {
		return nil, err
	}
	return matcher.Compile(patterns, matcher.Options{
		CaseInsensitive: cfg.IgnoreCase,
		SmartCase:       cfg.SmartCase,
		Fixed:           cfg.FixedStrings,
		Word:            cfg.WordRegexp,
		SizeLimit:       limit,
	})
}

func readPatternFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, serrors.IO("open", path, err)
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(nil, 1<<20)
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, serrors.IO("read", path, err)
	}
	return lines, nil
}

// fatal reports a startup error and returns the error status.
func (a *App) fatal(err error) int {
	var se *serrors.SearchError
	if stderrors.As(err, &se) && se.Suggestion != "" {
		a.log.Fatal("%v (%s)", err, se.Suggestion)
	} else {
		a.log.Fatal("%v", err)
	}
	return ExitError
}

func outputMode(cfg *config.Config) printer.Mode {
	switch {
	case cfg.Quiet:
		return printer.ModeQuiet
	case cfg.ListFiles, cfg.FilesWithoutMatch:
		return printer.ModeFilesWithoutMatch
	case cfg.FilesWithMatches:
		return printer.ModeFilesWithMatches
	case cfg.Count:
		return printer.ModeCount
	case cfg.JSONOutput:
		return printer.ModeJSON
	}
	return printer.ModeLines
}

func searchOptions(cfg *config.Config, threads, roots int, explicitFiles bool, stop *atomic.Bool) search.Options {
	mode := search.MmapAuto
	switch {
	case cfg.Mmap:
		mode = search.MmapAlways
	case cfg.NoMmap:
		mode = search.MmapNever
	}
	return search.Options{
		Threads:           threads,
		Sorted:            cfg.Sorted(),
		Mmap:              mode,
		ExplicitFilesOnly: explicitFiles && roots <= search.MaxMmapRoots,
		Text:              cfg.Text,
		BeforeContext:     cfg.Before(),
		AfterContext:      cfg.After(),
		InvertMatch:       cfg.InvertMatch,
		MaxCount:          cfg.MaxCount,
		Column:            cfg.Column || cfg.JSONOutput,
		Quiet:             cfg.Quiet,
		Count:             cfg.Count,
		FilesWithMatches:  cfg.FilesWithMatches,
		FilesWithoutMatch: cfg.FilesWithoutMatch,
		Stop:              stop,
	}
}

// allRegularFiles reports whether every path names an existing regular
// file.
func allRegularFiles(paths []string) bool {
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil || !fi.Mode().IsRegular() {
			return false
		}
	}
	return len(paths) > 0
}

// exitStatus maps a run's outcome to 0 (match), 1 (no match) or 2 (error).
// A match settles a quiet run even when errors occurred.
func exitStatus(matched, failed, quiet bool) int {
	switch {
	case quiet && matched:
		return ExitMatch
	case failed:
		return ExitError
	case matched:
		return ExitMatch
	}
	return ExitNoMatch
}
