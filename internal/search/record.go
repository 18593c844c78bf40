package search

// Line is a context line.
type Line struct {
	Number uint64 `json:"line_number"`
	Text   []byte `json:"-"`
}

// Record is one matching line (or, with --invert-match, one non-matching
// line) together with its surrounding context.
type Record struct {
	Path string
	// Line is the 1-based line number.
	Line uint64
	// Column is the 1-based byte column of the first match, or 0.
	Column uint64
	// Text is the line without its terminator.
	Text []byte
	// Spans are the byte ranges of every match within Text.
	Spans  [][2]int
	Before []Line
	After  []Line
}

// FirstLine returns the number of the first line the record prints.
func (r *Record) FirstLine() uint64 {
	if len(r.Before) > 0 {
		return r.Before[0].Number
	}
	return r.Line
}

// LastLine returns the number of the last line the record prints.
func (r *Record) LastLine() uint64 {
	if n := len(r.After); n > 0 {
		return r.After[n-1].Number
	}
	return r.Line
}

// FileResult is everything found in one file.
type FileResult struct {
	Path string
	// Root is the index of the search root the file was found under.
	Root int
	// Records is empty when they were streamed to the sink.
	Records []Record
	// Matches counts matching lines, bounded by --max-count.
	Matches  int64
	Binary   bool
	Strategy Strategy
	Streamed bool
}

// Matched reports whether the file had at least one match.
func (r *FileResult) Matched() bool { return r.Matches > 0 }

// Sink receives search output.
type Sink interface {
	// Record receives records one at a time when results are streamed.
	Record(rec *Record)
	// File receives the result of a file once it has been searched; the
	// records are included unless they were streamed.
	File(res *FileResult)
}
