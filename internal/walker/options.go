package walker

import (
	"runtime"
	"time"

	"github.com/bethropolis/needle/internal/ignore"
	"github.com/bethropolis/needle/internal/utils"
)

// MaxDefaultThreads caps the default worker count.
const MaxDefaultThreads = 12

// WalkOptions configures the behavior of a Walker
type WalkOptions struct {
	Logger           utils.Logger
	Threads          int
	MaxDepth         int   // -1 for no limit; 0 visits only the roots
	MaxFileSize      int64 // 0 for no limit
	FollowLinks      bool
	Sort             bool
	Ignore           *ignore.Matcher
	Tracker          *SkippedTracker
	ProgressFn       ProgressCallback
	ProgressInterval time.Duration
}

// DefaultThreads returns min(NumCPU, MaxDefaultThreads).
func DefaultThreads() int {
	return min(runtime.NumCPU(), MaxDefaultThreads)
}

// defaultOptions returns the default walk options
func defaultOptions() WalkOptions {
	return WalkOptions{
		Logger:           utils.NoopLogger{},
		Threads:          DefaultThreads(),
		MaxDepth:         -1,
		ProgressInterval: 300 * time.Millisecond,
	}
}

// Option is a functional option for configuring WalkOptions
type Option func(*WalkOptions)

// WithLogger sets a custom logger for the walker
func WithLogger(logger utils.Logger) Option {
	return func(opts *WalkOptions) {
		if logger != nil {
			opts.Logger = logger
		}
	}
}

// WithThreads sets the number of workers. One worker walks on the calling
// goroutine.
func WithThreads(n int) Option {
	return func(opts *WalkOptions) {
		if n > 0 {
			opts.Threads = n
		}
	}
}

// WithMaxDepth limits descent; negative means unlimited.
func WithMaxDepth(depth int) Option {
	return func(opts *WalkOptions) {
		opts.MaxDepth = depth
	}
}

// WithMaxFileSize sets the maximum file size to visit in bytes
func WithMaxFileSize(maxBytes int64) Option {
	return func(opts *WalkOptions) {
		opts.MaxFileSize = maxBytes
	}
}

// WithFollowLinks follows symbolic links, guarding against cycles.
func WithFollowLinks(follow bool) Option {
	return func(opts *WalkOptions) {
		opts.FollowLinks = follow
	}
}

// WithSort walks single-threaded in lexicographic order.
func WithSort(sorted bool) Option {
	return func(opts *WalkOptions) {
		opts.Sort = sorted
	}
}

// WithIgnore sets the ignore matcher. Without one every entry is visited.
func WithIgnore(m *ignore.Matcher) Option {
	return func(opts *WalkOptions) {
		opts.Ignore = m
	}
}

// WithSkippedTracker records every skipped path.
func WithSkippedTracker(t *SkippedTracker) Option {
	return func(opts *WalkOptions) {
		opts.Tracker = t
	}
}

// WithProgress adds a progress callback function
func WithProgress(fn ProgressCallback) Option {
	return func(o *WalkOptions) {
		o.ProgressFn = fn
	}
}
