package printer

import (
	"bytes"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/bethropolis/needle/internal/search"
	"github.com/bethropolis/needle/internal/utils"
)

// Totals counts what the aggregator has seen.
type Totals struct {
	Files        int64
	FilesMatched int64
	Matches      int64
}

// Aggregator collects search results from every worker and writes them
// through a Printer. A batched file is written as one unit under the
// lock, so the lines of two files never interleave. In sorted mode the
// batches are held until Close and written in path order.
type Aggregator struct {
	p      *Printer
	sorted bool

	mu         sync.Mutex
	wroteAny   bool
	streamPath string
	stream     fileState
	pending    []*search.FileResult
	err        error

	files        atomic.Int64
	filesMatched atomic.Int64
	matches      atomic.Int64
}

// NewAggregator creates an aggregator writing through p.
func NewAggregator(p *Printer, sorted bool) *Aggregator {
	return &Aggregator{p: p, sorted: sorted}
}

// Record writes a streamed record immediately.
func (a *Aggregator) Record(rec *search.Record) {
	if a.p.mode != ModeLines && a.p.mode != ModeJSON {
		return
	}
	var buf bytes.Buffer
	a.mu.Lock()
	defer a.mu.Unlock()
	newFile := rec.Path != a.streamPath
	if newFile {
		a.streamPath = rec.Path
		a.stream = fileState{}
	}
	a.p.writeRecord(&buf, &a.stream, rec)
	if newFile {
		a.writeBatch(buf.Bytes())
	} else {
		a.write(buf.Bytes())
	}
}

// File accounts for a searched file and writes its batch.
func (a *Aggregator) File(res *search.FileResult) {
	a.files.Add(1)
	if res.Matched() {
		a.filesMatched.Add(1)
		a.matches.Add(res.Matches)
	}

	switch {
	case res.Streamed:
		var buf bytes.Buffer
		a.p.writeSummary(&buf, res)
		a.mu.Lock()
		a.streamPath = ""
		a.writeBatch(buf.Bytes())
		a.mu.Unlock()
	case a.sorted:
		a.mu.Lock()
		a.pending = append(a.pending, res)
		a.mu.Unlock()
	default:
		out := a.p.FormatFile(res)
		a.mu.Lock()
		a.writeBatch(out)
		a.mu.Unlock()
	}
}

// Close writes the held batches in sorted mode and returns the first write
// error, if any.
func (a *Aggregator) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sorted {
		slices.SortStableFunc(a.pending, func(x, y *search.FileResult) int {
			if x.Root != y.Root {
				return x.Root - y.Root
			}
			return utils.ComparePaths(x.Path, y.Path)
		})
		for _, res := range a.pending {
			a.writeBatch(a.p.FormatFile(res))
		}
		a.pending = nil
	}
	return a.err
}

// Totals returns the counters so far.
func (a *Aggregator) Totals() Totals {
	return Totals{
		Files:        a.files.Load(),
		FilesMatched: a.filesMatched.Load(),
		Matches:      a.matches.Load(),
	}
}

// writeBatch writes the output of one file, separated from the previous
// file. Callers hold mu.
func (a *Aggregator) writeBatch(b []byte) {
	if len(b) == 0 {
		return
	}
	if a.wroteAny && a.p.mode == ModeLines {
		switch {
		case a.p.heading:
			a.write([]byte{'\n'})
		case a.p.context:
			var sep bytes.Buffer
			a.p.writeSeparator(&sep)
			a.write(sep.Bytes())
		}
	}
	a.write(b)
	a.wroteAny = true
}

func (a *Aggregator) write(b []byte) {
	if a.err != nil {
		return
	}
	if _, err := a.p.output.Write(b); err != nil {
		a.err = fmt.Errorf("printer: writing output: %w", err)
		a.p.logger.Debug("%v", a.err)
	}
}
