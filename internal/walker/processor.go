package walker

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	serrors "github.com/bethropolis/needle/internal/errors"
	"github.com/bethropolis/needle/internal/ignore"
)

// pushFunc hands a discovered file or directory to the scheduler.
type pushFunc func(*work) Action

// seed stats a root and turns it into a work item. A nil item means the
// root was reported as an error.
func (w *Walker) seed(i int, root string, visit VisitFunc) (*work, Action) {
	fi, err := os.Stat(root)
	if err != nil {
		w.opts.Tracker.Track(root, reasonFor(err), false)
		return nil, w.report(nil, serrors.IO("stat", root, err), visit)
	}
	ent := newEntry(root, 0, fi.Mode(), i, w.opts.FollowLinks)
	ent.explicit = true
	ent.info, ent.statted = fi, true
	item := &work{ent: ent}
	if fi.IsDir() && w.opts.FollowLinks {
		if id, err := identify(root); err == nil {
			item.ancestors = &ancestor{id: id}
		}
	}
	return item, Continue
}

// process handles one work item: a file is visited, a directory is
// listed. Every eligible child goes to push.
func (w *Walker) process(ctx context.Context, item *work, visit VisitFunc, push pushFunc) Action {
	ent := item.ent
	if !ent.IsDir() {
		return w.visitFile(ent, visit)
	}
	if w.tooDeep(ent.depth) {
		return Continue
	}

	frame, act := w.enter(item, visit)
	if act == Quit {
		return Quit
	}

	entries, err := os.ReadDir(ent.path)
	w.stats.dirsRead.Add(1)
	if err != nil {
		w.opts.Logger.Debug("walker: reading %s: %v", ent.path, err)
		w.opts.Tracker.Track(ent.path, reasonFor(err), true)
		if w.report(ent, serrors.IO("readdir", ent.path, err), visit) == Quit {
			return Quit
		}
	}

	for _, de := range entries {
		if ctx.Err() != nil {
			return Quit
		}
		switch w.handleChild(item, frame, de, visit, push) {
		case Quit:
			return Quit
		case Skip:
			return Continue
		}
	}
	return Continue
}

// enter returns the ignore frame for a directory about to be listed.
func (w *Walker) enter(item *work, visit VisitFunc) (*ignore.Dir, Action) {
	m := w.opts.Ignore
	if m == nil {
		return nil, Continue
	}
	var (
		frame *ignore.Dir
		errs  []error
	)
	if item.frame == nil {
		frame, errs = m.Root(item.ent.path)
	} else {
		frame, errs = item.frame.AddChild(item.ent.path)
	}
	for _, err := range errs {
		if w.report(item.ent, err, visit) == Quit {
			return frame, Quit
		}
	}
	return frame, Continue
}

func (w *Walker) handleChild(item *work, frame *ignore.Dir, de fs.DirEntry, visit VisitFunc, push pushFunc) Action {
	parent := item.ent
	path := filepath.Join(parent.path, de.Name())
	typ := de.Type()
	follow := false
	if typ&fs.ModeSymlink != 0 {
		if !w.opts.FollowLinks {
			w.opts.Logger.Debug("walker: not following symlink %s", path)
			return Continue
		}
		fi, err := os.Stat(path)
		if err != nil {
			w.opts.Tracker.Track(path, ReasonSkippedInfoError, false)
			return w.report(nil, serrors.IO("stat", path, err), visit)
		}
		typ = fi.Mode().Type()
		follow = true
	}
	ent := newEntry(path, parent.depth+1, typ, parent.root, follow)
	isDir := ent.IsDir()

	if frame != nil {
		if m := frame.Matched(path, isDir); m.Eligibility(isDir) != ignore.Include {
			w.opts.Logger.Debug("walker: ignored %s by %s", path, m.Rule)
			w.opts.Tracker.Track(path, reasonForMatch(m), isDir)
			w.countSkipped(isDir)
			return Continue
		}
	}

	if !isDir {
		return push(&work{ent: ent})
	}
	if w.tooDeep(ent.depth) {
		w.opts.Tracker.Track(path, ReasonSkippedDepth, true)
		w.countSkipped(true)
		return Continue
	}
	child := &work{ent: ent, frame: frame}
	if w.opts.FollowLinks {
		if id, err := identify(path); err == nil {
			if item.ancestors.contains(id) {
				w.opts.Tracker.Track(path, ReasonSkippedCycle, true)
				w.countSkipped(true)
				return w.reportCycle(ent, visit)
			}
			child.ancestors = &ancestor{id: id, parent: item.ancestors}
		}
	}
	return push(child)
}

// visitFile applies the per-file filters and hands the file to visit.
func (w *Walker) visitFile(ent *DirEntry, visit VisitFunc) Action {
	if !ent.IsRegular() && !ent.explicit {
		w.opts.Logger.Debug("walker: skipping %s: not a regular file", ent.path)
		w.opts.Tracker.Track(ent.path, ReasonSkippedNotRegular, false)
		w.countSkipped(false)
		return Continue
	}
	if w.opts.MaxFileSize > 0 {
		info, err := ent.Info()
		if err != nil {
			w.opts.Tracker.Track(ent.path, ReasonSkippedInfoError, false)
			return w.report(ent, serrors.IO("stat", ent.path, err), visit)
		}
		if info.Size() > w.opts.MaxFileSize {
			w.opts.Logger.Debug("walker: skipping %s: exceeds size limit (%d > %d bytes)",
				ent.path, info.Size(), w.opts.MaxFileSize)
			w.opts.Tracker.Track(ent.path, ReasonSkippedSizeLimit, false)
			w.countSkipped(false)
			return Continue
		}
	}
	w.stats.filesVisited.Add(1)
	return visit(ent, nil)
}

func (w *Walker) report(ent *DirEntry, err error, visit VisitFunc) Action {
	w.stats.errors.Add(1)
	return visit(ent, err)
}

// reportCycle reports the first loop found under a root; later ones are
// only logged.
func (w *Walker) reportCycle(ent *DirEntry, visit VisitFunc) Action {
	target, err := filepath.EvalSymlinks(ent.path)
	if err != nil {
		target = ent.path
	}
	if !w.roots[ent.root].cycleReported.CompareAndSwap(false, true) {
		w.opts.Logger.Debug("walker: skipping %s: already visited %s", ent.path, target)
		return Continue
	}
	return w.report(ent, serrors.Cycle(ent.path, target), visit)
}

func (w *Walker) tooDeep(depth int) bool {
	return w.opts.MaxDepth >= 0 && depth >= w.opts.MaxDepth
}

func (w *Walker) countSkipped(isDir bool) {
	if isDir {
		w.stats.dirsSkipped.Add(1)
	} else {
		w.stats.filesSkipped.Add(1)
	}
}

func reasonFor(err error) SkippedReason {
	if os.IsPermission(err) {
		return ReasonSkippedPermError
	}
	return ReasonSkippedWalkError
}

func reasonForMatch(m ignore.Match) SkippedReason {
	switch m.Source() {
	case ignore.HiddenSource:
		return ReasonIgnoredHidden
	case ignore.TypeSource:
		return ReasonFilteredType
	case ignore.OverrideSource:
		return ReasonIgnoredOverride
	default:
		return ReasonIgnoredRule
	}
}
