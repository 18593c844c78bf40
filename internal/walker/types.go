// Package walker handles directory traversal for the search workers
package walker

import (
	"io/fs"
	"os"
	"sync"
)

// Action tells the walker how to proceed after a visit.
type Action int

const (
	// Continue proceeds normally.
	Continue Action = iota
	// Skip abandons the rest of the directory listing the entry came from.
	// In a parallel walk the siblings of a file are already queued, so
	// Skip only takes effect in sequential walks.
	Skip
	// Quit stops the whole walk as soon as every worker notices.
	Quit
)

func (a Action) String() string {
	switch a {
	case Skip:
		return "skip"
	case Quit:
		return "quit"
	default:
		return "continue"
	}
}

// VisitFunc is called once per eligible file and once per error. For an
// error, ent may be nil when the failing path is not a single entry.
// Calls happen concurrently from every worker.
type VisitFunc func(ent *DirEntry, err error) Action

// DirEntry is a file or directory produced by the walk. It is owned by the
// goroutine it was handed to.
type DirEntry struct {
	path     string
	depth    int
	typ      fs.FileMode
	root     int
	explicit bool
	follow   bool

	info    fs.FileInfo
	infoErr error
	statted bool
}

func newEntry(path string, depth int, typ fs.FileMode, root int, follow bool) *DirEntry {
	return &DirEntry{path: path, depth: depth, typ: typ.Type(), root: root, follow: follow}
}

// Path returns the entry's path, joined onto the root as given.
func (e *DirEntry) Path() string { return e.path }

// Depth is 0 for a root and grows by one per directory level.
func (e *DirEntry) Depth() int { return e.depth }

// Type returns the file type bits; for a followed symlink, the target's.
func (e *DirEntry) Type() fs.FileMode { return e.typ }

// IsDir reports whether the entry is (or points to) a directory.
func (e *DirEntry) IsDir() bool { return e.typ.IsDir() }

// IsRegular reports whether the entry is (or points to) a regular file.
func (e *DirEntry) IsRegular() bool { return e.typ.IsRegular() }

// Root is the index of the root the entry was found under.
func (e *DirEntry) Root() int { return e.root }

// Explicit reports whether the entry was named on the command line.
func (e *DirEntry) Explicit() bool { return e.explicit }

// Info returns the entry's metadata, read on first use and cached.
func (e *DirEntry) Info() (fs.FileInfo, error) {
	if !e.statted {
		e.statted = true
		if e.follow || e.explicit {
			e.info, e.infoErr = os.Stat(e.path)
		} else {
			e.info, e.infoErr = os.Lstat(e.path)
		}
	}
	return e.info, e.infoErr
}

// SkippedReason clarifies why a file/directory was not processed.
type SkippedReason string

const (
	ReasonIgnoredHidden     SkippedReason = "Ignored (Hidden Rule)"
	ReasonIgnoredRule       SkippedReason = "Ignored (Ignore File Rule)"
	ReasonIgnoredOverride   SkippedReason = "Ignored (Glob Override)"
	ReasonFilteredType      SkippedReason = "Filtered (File Type)"
	ReasonSkippedSizeLimit  SkippedReason = "Skipped (Size Limit Exceeded)"
	ReasonSkippedNotRegular SkippedReason = "Skipped (Not a Regular File)"
	ReasonSkippedPermError  SkippedReason = "Skipped (Permission Error)"
	ReasonSkippedWalkError  SkippedReason = "Skipped (Walk Error)"
	ReasonSkippedInfoError  SkippedReason = "Skipped (File Info Error)"
	ReasonSkippedDepth      SkippedReason = "Skipped (Max Depth)"
	ReasonSkippedCycle      SkippedReason = "Skipped (Symlink Loop)"
)

// SkippedItem holds information about a skipped path.
type SkippedItem struct {
	Path   string        `json:"path"`
	Reason SkippedReason `json:"reason"`
	IsDir  bool          `json:"is_dir"`
}

// SkippedTracker is a struct to track skipped items. A nil tracker
// discards everything.
type SkippedTracker struct {
	items []SkippedItem
	mutex sync.Mutex
}

// NewSkippedTracker creates a new SkippedTracker
func NewSkippedTracker(capacity int) *SkippedTracker {
	return &SkippedTracker{
		items: make([]SkippedItem, 0, capacity),
	}
}

// Track adds a skipped item to the tracker
func (st *SkippedTracker) Track(path string, reason SkippedReason, isDir bool) {
	if st == nil {
		return
	}
	st.mutex.Lock()
	defer st.mutex.Unlock()
	st.items = append(st.items, SkippedItem{Path: path, Reason: reason, IsDir: isDir})
}

// Items returns a copy of the tracked skipped items
func (st *SkippedTracker) Items() []SkippedItem {
	if st == nil {
		return nil
	}
	st.mutex.Lock()
	defer st.mutex.Unlock()
	return append([]SkippedItem(nil), st.items...)
}

// Len returns the number of tracked items.
func (st *SkippedTracker) Len() int {
	if st == nil {
		return 0
	}
	st.mutex.Lock()
	defer st.mutex.Unlock()
	return len(st.items)
}

// Stats holds counters about a walk.
type Stats struct {
	FilesVisited int64 // Files handed to the visit function
	FilesSkipped int64 // Files excluded by rules, size or type
	DirsRead     int64 // Directories whose entries were listed
	DirsSkipped  int64 // Directories pruned
	Errors       int64 // Errors handed to the visit function
}

// ProgressCallback is a function that receives progress updates
type ProgressCallback func(stats Stats)
