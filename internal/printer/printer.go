// Package printer handles output formatting and display
package printer

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/bethropolis/needle/internal/search"
	"github.com/bethropolis/needle/internal/utils"
	"github.com/fatih/color"
)

// Mode selects what is written for each searched file.
type Mode int

const (
	// ModeLines writes matching lines with their context.
	ModeLines Mode = iota
	// ModeCount writes one "path:count" line per matching file.
	ModeCount
	// ModeFilesWithMatches writes the path of every matching file.
	ModeFilesWithMatches
	// ModeFilesWithoutMatch writes the path of every file with no match.
	ModeFilesWithoutMatch
	// ModeJSON writes one JSON object per line.
	ModeJSON
	// ModeQuiet writes nothing.
	ModeQuiet
)

// Printer formats search results. It holds no per-run state and is safe
// for concurrent use; the Aggregator serializes its output.
type Printer struct {
	output       io.Writer
	mode         Mode
	useColors    bool
	heading      bool
	lineNumbers  bool
	column       bool
	withFilename bool
	context      bool
	logger       utils.Logger
	pal          palette
}

// Option is a functional option for configuring the Printer
type Option func(*Printer)

// WithColors enables or disables colored output
func WithColors(enabled bool) Option {
	return func(p *Printer) {
		p.useColors = enabled
	}
}

// WithMode sets the output mode.
func WithMode(m Mode) Option {
	return func(p *Printer) {
		p.mode = m
	}
}

// WithHeading groups matches under the file name instead of prefixing
// every line with it.
func WithHeading(enabled bool) Option {
	return func(p *Printer) {
		p.heading = enabled
	}
}

// WithLineNumbers prefixes lines with their number.
func WithLineNumbers(enabled bool) Option {
	return func(p *Printer) {
		p.lineNumbers = enabled
	}
}

// WithColumn prefixes matching lines with the column of the first match.
func WithColumn(enabled bool) Option {
	return func(p *Printer) {
		p.column = enabled
	}
}

// WithFilename controls whether file names are shown at all.
func WithFilename(enabled bool) Option {
	return func(p *Printer) {
		p.withFilename = enabled
	}
}

// WithContext marks that context lines were requested, so "--" separates
// non-adjacent groups.
func WithContext(enabled bool) Option {
	return func(p *Printer) {
		p.context = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(logger utils.Logger) Option {
	return func(p *Printer) {
		p.logger = utils.OrNoop(logger)
	}
}

// New creates a Printer writing to output (stdout when nil).
func New(output io.Writer, opts ...Option) *Printer {
	if output == nil {
		output = os.Stdout
	}
	p := &Printer{
		output:       output,
		withFilename: true,
		lineNumbers:  true,
		logger:       utils.NoopLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.mode == ModeJSON {
		// Colors in JSON would corrupt the strings.
		p.useColors = false
	}
	p.pal = newPalette(p.useColors)
	return p
}

// Mode returns the output mode.
func (p *Printer) Mode() Mode { return p.mode }

type palette struct {
	path  *color.Color
	line  *color.Color
	match *color.Color
	sep   *color.Color
}

func newPalette(enabled bool) palette {
	pal := palette{
		path:  color.New(color.FgMagenta),
		line:  color.New(color.FgGreen),
		match: color.New(color.FgRed, color.Bold),
		sep:   color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{pal.path, pal.line, pal.match, pal.sep} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return pal
}

// fileState tracks what has been written for the file being printed.
type fileState struct {
	started bool
	last    uint64
}

// writeRecord formats rec into buf. The first record of a file carries the
// heading; later ones are preceded by "--" when they do not continue the
// previous group.
func (p *Printer) writeRecord(buf *bytes.Buffer, st *fileState, rec *search.Record) {
	if p.mode == ModeJSON {
		p.writeJSON(buf, recordJSON(rec))
		return
	}
	if !st.started {
		st.started = true
		if p.heading && p.withFilename {
			buf.WriteString(p.pal.path.Sprint(rec.Path))
			buf.WriteByte('\n')
		}
	} else if p.context && rec.FirstLine() > st.last+1 {
		p.writeSeparator(buf)
	}
	for _, l := range rec.Before {
		p.writeLine(buf, rec.Path, l.Number, 0, l.Text, nil, '-')
	}
	p.writeLine(buf, rec.Path, rec.Line, rec.Column, rec.Text, rec.Spans, ':')
	for _, l := range rec.After {
		p.writeLine(buf, rec.Path, l.Number, 0, l.Text, nil, '-')
	}
	st.last = rec.LastLine()
}

func (p *Printer) writeLine(buf *bytes.Buffer, path string, num, col uint64, text []byte, spans [][2]int, sep byte) {
	if !p.heading && p.withFilename {
		buf.WriteString(p.pal.path.Sprint(path))
		buf.WriteByte(sep)
	}
	if p.lineNumbers {
		buf.WriteString(p.pal.line.Sprint(strconv.FormatUint(num, 10)))
		buf.WriteByte(sep)
	}
	if p.column && col > 0 {
		buf.WriteString(p.pal.line.Sprint(strconv.FormatUint(col, 10)))
		buf.WriteByte(sep)
	}
	p.writeHighlighted(buf, text, spans)
	buf.WriteByte('\n')
}

func (p *Printer) writeHighlighted(buf *bytes.Buffer, text []byte, spans [][2]int) {
	if !p.useColors || len(spans) == 0 {
		buf.Write(text)
		return
	}
	pos := 0
	for _, sp := range spans {
		if sp[0] < pos || sp[1] > len(text) || sp[0] == sp[1] {
			continue
		}
		buf.Write(text[pos:sp[0]])
		buf.WriteString(p.pal.match.Sprint(string(text[sp[0]:sp[1]])))
		pos = sp[1]
	}
	buf.Write(text[pos:])
}

func (p *Printer) writeSeparator(buf *bytes.Buffer) {
	buf.WriteString(p.pal.sep.Sprint("--"))
	buf.WriteByte('\n')
}

// writeSummary formats the per-file output of the modes that print one
// line per file, and the JSON end-of-file object.
func (p *Printer) writeSummary(buf *bytes.Buffer, res *search.FileResult) {
	switch p.mode {
	case ModeCount:
		if !res.Matched() {
			return
		}
		if p.withFilename {
			buf.WriteString(p.pal.path.Sprint(res.Path))
			buf.WriteByte(':')
		}
		buf.WriteString(strconv.FormatInt(res.Matches, 10))
		buf.WriteByte('\n')
	case ModeFilesWithMatches:
		if res.Matched() {
			buf.WriteString(p.pal.path.Sprint(res.Path))
			buf.WriteByte('\n')
		}
	case ModeFilesWithoutMatch:
		if !res.Matched() {
			buf.WriteString(p.pal.path.Sprint(res.Path))
			buf.WriteByte('\n')
		}
	case ModeJSON:
		if res.Matched() {
			p.writeJSON(buf, jsonEnd{Type: "end", Path: res.Path, Matches: res.Matches})
		}
	}
}

// FormatFile renders a complete file result, as the Aggregator would write
// it for a batched file.
func (p *Printer) FormatFile(res *search.FileResult) []byte {
	var buf bytes.Buffer
	p.formatFile(&buf, res)
	return buf.Bytes()
}

func (p *Printer) formatFile(buf *bytes.Buffer, res *search.FileResult) {
	if p.mode == ModeQuiet {
		return
	}
	if p.mode == ModeLines || p.mode == ModeJSON {
		var st fileState
		for i := range res.Records {
			p.writeRecord(buf, &st, &res.Records[i])
		}
	}
	p.writeSummary(buf, res)
}

// JSONLine is a context line in JSON output.
type JSONLine struct {
	Number uint64 `json:"line_number"`
	Text   string `json:"text"`
}

// JSONMatch is the JSON form of a record.
type JSONMatch struct {
	Type   string     `json:"type"`
	Path   string     `json:"path"`
	Line   uint64     `json:"line_number"`
	Column uint64     `json:"column,omitempty"`
	Text   string     `json:"text"`
	Spans  [][2]int   `json:"submatches,omitempty"`
	Before []JSONLine `json:"before,omitempty"`
	After  []JSONLine `json:"after,omitempty"`
}

type jsonEnd struct {
	Type    string `json:"type"`
	Path    string `json:"path"`
	Matches int64  `json:"matches"`
}

func recordJSON(rec *search.Record) JSONMatch {
	m := JSONMatch{
		Type:   "match",
		Path:   rec.Path,
		Line:   rec.Line,
		Column: rec.Column,
		Text:   string(rec.Text),
		Spans:  rec.Spans,
	}
	for _, l := range rec.Before {
		m.Before = append(m.Before, JSONLine{Number: l.Number, Text: string(l.Text)})
	}
	for _, l := range rec.After {
		m.After = append(m.After, JSONLine{Number: l.Number, Text: string(l.Text)})
	}
	return m
}

func (p *Printer) writeJSON(buf *bytes.Buffer, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		p.logger.Error("printer: marshaling JSON: %v", err)
		return
	}
	buf.Write(data)
	buf.WriteByte('\n')
}
