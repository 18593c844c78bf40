package search

import (
	"runtime"
	"strings"
)

// Strategy is how a file's bytes reach the matcher.
type Strategy int

const (
	// BufferedMultiFile reads incrementally and hands the file's records
	// to the sink as one batch.
	BufferedMultiFile Strategy = iota
	// BufferedSingleFile reads incrementally and streams each record.
	BufferedSingleFile
	// MemoryMapped maps the whole file and scans it in place.
	MemoryMapped
)

func (s Strategy) String() string {
	switch s {
	case BufferedSingleFile:
		return "buffered-single"
	case MemoryMapped:
		return "mmap"
	default:
		return "buffered-multi"
	}
}

// MmapMode is the --mmap/--no-mmap choice.
type MmapMode int

const (
	MmapAuto MmapMode = iota
	MmapAlways
	MmapNever
)

// ParseMmapMode accepts "auto", "always" and "never".
func ParseMmapMode(s string) (MmapMode, bool) {
	switch strings.ToLower(s) {
	case "", "auto":
		return MmapAuto, true
	case "always", "on", "true":
		return MmapAlways, true
	case "never", "off", "false":
		return MmapNever, true
	}
	return MmapAuto, false
}

// MaxMmapRoots is the largest number of file roots for which automatic
// mode maps files.
const MaxMmapRoots = 10

// mmapUnsafe lists platforms where mapped files misbehave when they are
// truncated during a search.
var mmapUnsafe = map[string]bool{"darwin": true}

// Choose picks the strategy for a file of the given size.
func Choose(o Options, size int64, hasUTF16BOM bool) Strategy {
	if o.mmapAllowed() && !mmapUnsafe[runtime.GOOS] && size > 0 &&
		o.BeforeContext == 0 && o.AfterContext == 0 && !hasUTF16BOM {
		return MemoryMapped
	}
	if o.streaming() {
		return BufferedSingleFile
	}
	return BufferedMultiFile
}

func (o Options) mmapAllowed() bool {
	switch o.Mmap {
	case MmapAlways:
		return true
	case MmapNever:
		return false
	}
	return o.ExplicitFilesOnly
}
