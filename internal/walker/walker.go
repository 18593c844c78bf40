package walker

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Walker traverses one or more roots. A Walker runs once.
type Walker struct {
	paths []string
	roots []*rootState
	opts  WalkOptions

	stats struct {
		filesVisited atomic.Int64
		filesSkipped atomic.Int64
		dirsRead     atomic.Int64
		dirsSkipped  atomic.Int64
		errors       atomic.Int64
	}
}

// rootState is shared by every worker walking under one root.
type rootState struct {
	cycleReported atomic.Bool
}

// New creates a walker over roots, walked in the order given.
func New(roots []string, opts ...Option) *Walker {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	w := &Walker{opts: options}
	for _, r := range roots {
		w.paths = append(w.paths, filepath.Clean(r))
		w.roots = append(w.roots, &rootState{})
	}
	return w
}

// Run walks every root, calling visit for each eligible file and each
// error. It returns when the walk is complete, when visit returns Quit,
// or when ctx is done; only the last case is an error.
func (w *Walker) Run(ctx context.Context, visit VisitFunc) error {
	startTime := time.Now()

	if w.opts.ProgressFn != nil {
		progressCtx, progressCancel := context.WithCancel(ctx)
		defer progressCancel()
		go w.reportProgress(progressCtx)
	}

	sequential := w.opts.Sort || w.opts.Threads <= 1
	w.opts.Logger.Debug("walker.Run started. Roots: %v, Threads: %d, Sorted: %v",
		w.paths, w.opts.Threads, w.opts.Sort)

	var err error
	if sequential {
		err = w.runSequential(ctx, visit)
	} else {
		err = w.runParallel(ctx, visit)
	}

	w.opts.Logger.Debug("walker: walked %d dirs, visited %d files in %s",
		w.stats.dirsRead.Load(), w.stats.filesVisited.Load(), time.Since(startTime))
	return err
}

// runSequential walks depth-first on the calling goroutine. Entries come
// out of os.ReadDir sorted by name, so the order is deterministic.
func (w *Walker) runSequential(ctx context.Context, visit VisitFunc) error {
	var walk func(item *work) Action
	walk = func(item *work) Action {
		return w.process(ctx, item, visit, walk)
	}
	for i, root := range w.paths {
		if ctx.Err() != nil {
			break
		}
		item, act := w.seed(i, root, visit)
		if act == Quit {
			return nil
		}
		if item == nil {
			continue
		}
		if walk(item) == Quit {
			break
		}
	}
	return ctx.Err()
}

// runParallel shares one LIFO stack between a fixed pool of workers.
func (w *Walker) runParallel(ctx context.Context, visit VisitFunc) error {
	st := newStack()
	var seeds []*work
	for i, root := range w.paths {
		item, act := w.seed(i, root, visit)
		if act == Quit {
			return nil
		}
		if item != nil {
			seeds = append(seeds, item)
		}
	}
	// Reversed so the first root is popped first.
	for i := len(seeds) - 1; i >= 0; i-- {
		st.push(seeds[i])
	}

	g, gctx := errgroup.WithContext(ctx)
	// Quit from any worker or cancellation of ctx ends the walk.
	stop := context.AfterFunc(gctx, st.close)
	defer stop()

	for i := 0; i < w.opts.Threads; i++ {
		id := i + 1
		g.Go(func() error {
			return w.worker(gctx, id, st, visit)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return ctx.Err()
}

// errQuit is returned by a worker whose visit asked to end the walk.
var errQuit = errors.New("walker: quit")

func (w *Walker) worker(ctx context.Context, id int, st *stack, visit VisitFunc) error {
	w.opts.Logger.Debug("Worker %d: Started", id)
	defer w.opts.Logger.Debug("Worker %d: Finished", id)
	push := func(item *work) Action {
		st.push(item)
		return Continue
	}
	for {
		item, ok := st.pop()
		if !ok {
			return nil
		}
		act := w.process(ctx, item, visit, push)
		st.done()
		if act == Quit {
			w.opts.Logger.Debug("Worker %d: quitting the walk", id)
			return errQuit
		}
	}
}

func (w *Walker) reportProgress(ctx context.Context) {
	ticker := time.NewTicker(w.opts.ProgressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.opts.ProgressFn(w.Stats())
		}
	}
}

// Stats returns a snapshot of the walk counters.
func (w *Walker) Stats() Stats {
	return Stats{
		FilesVisited: w.stats.filesVisited.Load(),
		FilesSkipped: w.stats.filesSkipped.Load(),
		DirsRead:     w.stats.dirsRead.Load(),
		DirsSkipped:  w.stats.dirsSkipped.Load(),
		Errors:       w.stats.errors.Load(),
	}
}
