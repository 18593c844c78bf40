// Package search searches one file at a time for lines matching a regex.
package search

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"

	serrors "github.com/bethropolis/needle/internal/errors"
	"github.com/bethropolis/needle/internal/matcher"
	"github.com/bethropolis/needle/internal/utils"
	"github.com/blevesearch/mmap-go"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// errStopped abandons a file because another file settled the run.
var errStopped = stderrors.New("search: stopped")

// Searcher searches files with one regex. It owns its read buffer, so a
// Searcher must not be used by two goroutines at once.
type Searcher struct {
	re     *matcher.Regex
	opts   Options
	buf    []byte
	logger utils.Logger
}

// New creates a Searcher.
func New(re *matcher.Regex, opts Options) *Searcher {
	return &Searcher{re: re, opts: opts, logger: utils.OrNoop(opts.Logger)}
}

// Options returns the searcher's options.
func (s *Searcher) Options() Options { return s.opts }

// Search searches the file at path, delivers its records to sink and
// returns the file's result. A nil result with a nil error means the file
// was abandoned because the run is already settled. Unreadable files are
// IoErrors.
func (s *Searcher) Search(ctx context.Context, path string, root int, sink Sink) (*FileResult, error) {
	if s.stopped() {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, serrors.IO("open", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, serrors.IO("stat", path, err)
	}
	var head [2]byte
	n, _ := f.ReadAt(head[:], 0)
	bom := hasUTF16BOM(head[:n])

	strategy := Choose(s.opts, fi.Size(), bom)
	res := &FileResult{Path: path, Root: root, Strategy: strategy, Streamed: s.opts.streaming()}
	sc := newScan(s, res, sink)

	if strategy == MemoryMapped {
		err = s.searchMapped(ctx, f, sc)
		if stderrors.Is(err, errMapFailed) {
			s.logger.Debug("search: %s: %v, reading instead", path, err)
			res.Strategy = BufferedMultiFile
			if res.Streamed {
				res.Strategy = BufferedSingleFile
			}
			err = s.searchReader(ctx, f, sc)
		}
	} else {
		var r io.Reader = f
		if bom {
			r = transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
		}
		err = s.searchReader(ctx, r, sc)
	}

	switch {
	case stderrors.Is(err, errStopped):
		return nil, nil
	case err != nil:
		return nil, err
	}
	if res.Binary {
		s.logger.Debug("search: skipping binary file %s", path)
		return res, nil
	}
	sc.finish()
	sink.File(res)
	return res, nil
}

var errMapFailed = stderrors.New("memory map failed")

func (s *Searcher) searchMapped(ctx context.Context, f *os.File, sc *scan) error {
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return stderrors.Join(errMapFailed, err)
	}
	defer m.Unmap()

	data := []byte(m)
	if s.isBinary(data) {
		sc.res.Binary = true
		return nil
	}
	for pos := 0; pos < len(data) && !sc.done; {
		if err := s.interrupted(ctx); err != nil {
			return err
		}
		end := pos + mmapStride
		if end >= len(data) {
			end = len(data)
		} else if i := bytes.IndexByte(data[end:], '\n'); i >= 0 {
			end += i + 1
		} else {
			end = len(data)
		}
		sc.feed(data[pos:end])
		pos = end
	}
	return nil
}

// searchReader scans r through the searcher's buffer, keeping only the
// unfinished last line between reads.
func (s *Searcher) searchReader(ctx context.Context, r io.Reader, sc *scan) error {
	path := sc.res.Path
	if s.buf == nil {
		s.buf = make([]byte, s.opts.bufferSize())
	}
	buf := s.buf

	n, err := io.ReadAtLeast(r, buf, min(s.opts.binaryLimit(), len(buf)))
	eof := err == io.EOF || err == io.ErrUnexpectedEOF
	if err != nil && !eof {
		return serrors.IO("read", path, err)
	}
	if s.isBinary(buf[:n]) {
		sc.res.Binary = true
		return nil
	}

	for {
		if eof {
			if n > 0 {
				sc.feed(buf[:n])
			}
			return nil
		}
		if last := bytes.LastIndexByte(buf[:n], '\n'); last >= 0 {
			sc.feed(buf[:last+1])
			if sc.done {
				return nil
			}
			n = copy(buf, buf[last+1:n])
		}
		if err := s.interrupted(ctx); err != nil {
			return err
		}
		if n == len(buf) {
			grown := make([]byte, 2*len(buf))
			copy(grown, buf)
			buf = grown
			s.buf = grown
		}
		m, err := r.Read(buf[n:])
		n += m
		switch {
		case err == io.EOF:
			eof = true
		case err != nil:
			return serrors.IO("read", path, err)
		}
	}
}

func (s *Searcher) isBinary(data []byte) bool {
	if s.opts.Text {
		return false
	}
	limit := min(len(data), s.opts.binaryLimit())
	return bytes.IndexByte(data[:limit], 0) >= 0
}

func (s *Searcher) stopped() bool {
	return s.opts.Stop != nil && s.opts.Stop.Load()
}

func (s *Searcher) interrupted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.stopped() {
		return errStopped
	}
	return nil
}

func hasUTF16BOM(head []byte) bool {
	return len(head) >= 2 &&
		((head[0] == 0xFF && head[1] == 0xFE) || (head[0] == 0xFE && head[1] == 0xFF))
}
