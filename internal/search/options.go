package search

import (
	"sync/atomic"

	"github.com/bethropolis/needle/internal/utils"
)

const (
	// DefaultBinaryScanLimit is how many leading bytes are checked for NUL.
	DefaultBinaryScanLimit = 10240
	// DefaultBufferSize is the initial size of a searcher's read buffer.
	DefaultBufferSize = 64 << 10
	// mmapStride is how much of a mapped file is scanned between checks of
	// the stop flag.
	mmapStride = 64 << 10
)

// Options configures a Searcher. The zero value searches every file with
// one buffered reader and batches records per file.
type Options struct {
	Threads int
	// Sorted batches records even with one thread so they can be ordered.
	Sorted bool
	Mmap   MmapMode
	// ExplicitFilesOnly is set when every root is a regular file named on
	// the command line and there are at most MaxMmapRoots of them.
	ExplicitFilesOnly bool

	// Text searches binary files too.
	Text            bool
	BinaryScanLimit int
	BufferSize      int

	BeforeContext int
	AfterContext  int
	InvertMatch   bool
	// MaxCount stops a file after this many matching lines; 0 is no limit.
	MaxCount int64
	Column   bool

	Quiet             bool
	Count             bool
	FilesWithMatches  bool
	FilesWithoutMatch bool

	// Stop is raised by quiet mode on the first match and checked before
	// and during every file.
	Stop *atomic.Bool

	Logger utils.Logger
}

func (o Options) streaming() bool {
	return o.Threads == 1 && !o.Sorted
}

// stopAtFirst reports whether one match settles a file.
func (o Options) stopAtFirst() bool {
	return o.Quiet || o.FilesWithMatches || o.FilesWithoutMatch
}

// lineByLine reports whether every line must be examined, rather than
// jumping from match to match.
func (o Options) lineByLine() bool {
	return o.InvertMatch || o.BeforeContext > 0 || o.AfterContext > 0
}

func (o Options) binaryLimit() int {
	if o.BinaryScanLimit > 0 {
		return o.BinaryScanLimit
	}
	return DefaultBinaryScanLimit
}

func (o Options) bufferSize() int {
	return max(o.BufferSize, DefaultBufferSize, o.binaryLimit())
}
