package search

import (
	"bytes"
	"slices"
)

var newline = []byte{'\n'}

// scan is the per-file line state machine. It is fed chunks of whole
// lines, the last of which may lack a terminator at end of file.
type scan struct {
	s    *Searcher
	res  *FileResult
	sink Sink

	// lineNo is the number of the line last consumed.
	lineNo    uint64
	before    []Line
	pending   *Record
	afterLeft int
	limitHit  bool
	done      bool
}

func newScan(s *Searcher, res *FileResult, sink Sink) *scan {
	return &scan{s: s, res: res, sink: sink}
}

func (sc *scan) feed(chunk []byte) {
	if sc.s.opts.lineByLine() || sc.limitHit {
		sc.feedLines(chunk)
		return
	}
	sc.feedJumping(chunk)
}

func (sc *scan) feedLines(chunk []byte) {
	invert := sc.s.opts.InvertMatch
	for len(chunk) > 0 && !sc.done {
		var line []byte
		if i := bytes.IndexByte(chunk, '\n'); i >= 0 {
			line, chunk = chunk[:i], chunk[i+1:]
		} else {
			line, chunk = chunk, nil
		}
		sc.lineNo++
		if !sc.limitHit && sc.s.re.Match(line) != invert {
			sc.matched(line)
		} else {
			sc.unmatched(line)
		}
	}
}

// feedJumping runs the matcher over the whole chunk and only splits out
// the lines that contain a match.
func (sc *scan) feedJumping(chunk []byte) {
	pos := 0
	for pos < len(chunk) && !sc.done {
		start, end, ok := sc.s.re.FindLeftmost(chunk[pos:])
		if !ok {
			break
		}
		start += pos
		end += pos
		lineStart := pos + bytes.LastIndexByte(chunk[pos:start], '\n') + 1
		// An empty match after the final terminator is not a line.
		if lineStart == len(chunk) {
			break
		}
		lineEnd := len(chunk)
		if i := bytes.IndexByte(chunk[start:], '\n'); i >= 0 {
			lineEnd = start + i
		}
		sc.lineNo += uint64(bytes.Count(chunk[pos:lineStart], newline)) + 1
		line := chunk[lineStart:lineEnd]
		// A match running past the line end may not exist within the line.
		if end <= lineEnd || sc.s.re.Match(line) {
			sc.matched(line)
		}
		pos = lineEnd + 1
	}
	if pos < len(chunk) {
		sc.lineNo += uint64(bytes.Count(chunk[pos:], newline))
	}
}

func (sc *scan) matched(line []byte) {
	o := sc.s.opts
	sc.res.Matches++
	if o.stopAtFirst() {
		if o.Quiet && o.Stop != nil {
			o.Stop.Store(true)
		}
		sc.done = true
		return
	}
	limit := o.MaxCount > 0 && sc.res.Matches >= o.MaxCount
	if o.Count {
		sc.done = limit
		return
	}

	sc.flushPending()
	rec := &Record{
		Path:   sc.res.Path,
		Line:   sc.lineNo,
		Text:   slices.Clone(line),
		Before: sc.before,
	}
	sc.before = nil
	if !o.InvertMatch {
		rec.Spans = sc.s.re.FindAll(line)
		if o.Column && len(rec.Spans) > 0 {
			rec.Column = uint64(rec.Spans[0][0]) + 1
		}
	}
	if o.AfterContext > 0 {
		sc.pending = rec
		sc.afterLeft = o.AfterContext
	} else {
		sc.emit(rec)
	}
	if limit {
		sc.limitHit = true
		sc.done = sc.pending == nil
	}
}

func (sc *scan) unmatched(line []byte) {
	if sc.pending != nil {
		sc.pending.After = append(sc.pending.After, Line{Number: sc.lineNo, Text: slices.Clone(line)})
		sc.afterLeft--
		if sc.afterLeft == 0 {
			sc.flushPending()
			sc.done = sc.limitHit
		}
		return
	}
	if sc.limitHit {
		sc.done = true
		return
	}
	n := sc.s.opts.BeforeContext
	if n == 0 {
		return
	}
	if len(sc.before) == n {
		sc.before = append(sc.before[:0], sc.before[1:]...)
	}
	sc.before = append(sc.before, Line{Number: sc.lineNo, Text: slices.Clone(line)})
}

func (sc *scan) flushPending() {
	if sc.pending != nil {
		sc.emit(sc.pending)
		sc.pending = nil
		sc.afterLeft = 0
	}
}

func (sc *scan) emit(rec *Record) {
	if sc.res.Streamed {
		sc.sink.Record(rec)
		return
	}
	sc.res.Records = append(sc.res.Records, *rec)
}

func (sc *scan) finish() {
	sc.flushPending()
}
