package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"

	serrors "github.com/bethropolis/needle/internal/errors"
	"github.com/bethropolis/needle/internal/matcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSink struct {
	streamed []Record
	files    []*FileResult
}

func (m *memSink) Record(rec *Record)   { m.streamed = append(m.streamed, *rec) }
func (m *memSink) File(res *FileResult) { m.files = append(m.files, res) }

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func search(t *testing.T, pattern, content string, opts Options) (*FileResult, *memSink) {
	t.Helper()
	re, err := matcher.Compile([]string{pattern}, matcher.Options{})
	require.NoError(t, err)
	sink := &memSink{}
	res, err := New(re, opts).Search(context.Background(), writeFile(t, content), 0, sink)
	require.NoError(t, err)
	return res, sink
}

func lineNumbers(recs []Record) []uint64 {
	var out []uint64
	for _, r := range recs {
		out = append(out, r.Line)
	}
	return out
}

func TestSearchBatched(t *testing.T) {
	res, sink := search(t, "foo", "a\nfoo bar\nb\nbar foo foo\n", Options{Threads: 4, Column: true})
	require.NotNil(t, res)
	assert.Equal(t, int64(2), res.Matches)
	assert.False(t, res.Streamed)
	require.Len(t, res.Records, 2)
	assert.Equal(t, []uint64{2, 4}, lineNumbers(res.Records))
	assert.Equal(t, "foo bar", string(res.Records[0].Text))
	assert.Equal(t, uint64(1), res.Records[0].Column)
	assert.Equal(t, uint64(5), res.Records[1].Column)
	assert.Equal(t, [][2]int{{4, 7}, {8, 11}}, res.Records[1].Spans)
	assert.Empty(t, sink.streamed)
	require.Len(t, sink.files, 1)
	assert.Same(t, res, sink.files[0])
}

func TestSearchStreamed(t *testing.T) {
	res, sink := search(t, "x", "x1\ny\nx2", Options{Threads: 1})
	assert.True(t, res.Streamed)
	assert.Equal(t, BufferedSingleFile, res.Strategy)
	assert.Empty(t, res.Records)
	assert.Equal(t, []uint64{1, 3}, lineNumbers(sink.streamed))
	assert.Equal(t, "x2", string(sink.streamed[1].Text), "last line without newline")
	require.Len(t, sink.files, 1)

	res, _ = search(t, "x", "x", Options{Threads: 1, Sorted: true})
	assert.False(t, res.Streamed)
}

func TestSearchContext(t *testing.T) {
	content := "l1\nl2\nm3\nl4\nm5\nl6\nl7\nl8\nm9\nl10\n"
	res, _ := search(t, "^m", content, Options{Threads: 2, BeforeContext: 1, AfterContext: 1})
	require.Len(t, res.Records, 3)

	r := res.Records[0]
	assert.Equal(t, uint64(3), r.Line)
	require.Len(t, r.Before, 1)
	assert.Equal(t, uint64(2), r.Before[0].Number)
	require.Len(t, r.After, 1)
	assert.Equal(t, uint64(4), r.After[0].Number)

	r = res.Records[1]
	assert.Equal(t, uint64(5), r.Line)
	assert.Empty(t, r.Before, "line 4 was already printed as context")
	require.Len(t, r.After, 1)
	assert.Equal(t, "l6", string(r.After[0].Text))

	r = res.Records[2]
	assert.Equal(t, uint64(9), r.Line)
	assert.Equal(t, uint64(8), r.FirstLine())
	assert.Equal(t, uint64(10), r.LastLine())
}

func TestSearchMaxCountKeepsTrailingContext(t *testing.T) {
	res, _ := search(t, "m", "m1\nx2\nm3\nm4\n", Options{Threads: 2, MaxCount: 1, AfterContext: 2})
	assert.Equal(t, int64(1), res.Matches)
	require.Len(t, res.Records, 1)
	require.Len(t, res.Records[0].After, 2)
	assert.Equal(t, "m3", string(res.Records[0].After[1].Text))
}

func TestSearchMaxCount(t *testing.T) {
	res, _ := search(t, "m", "m\nm\nm\nm\n", Options{Threads: 2, MaxCount: 2})
	assert.Equal(t, int64(2), res.Matches)
	assert.Len(t, res.Records, 2)
}

func TestSearchInvert(t *testing.T) {
	res, _ := search(t, "skip", "keep1\nskip\nkeep2\n", Options{Threads: 2, InvertMatch: true})
	assert.Equal(t, []uint64{1, 3}, lineNumbers(res.Records))
	assert.Empty(t, res.Records[0].Spans)
}

func TestSearchCount(t *testing.T) {
	res, sink := search(t, "a", "a\nb\na\na\n", Options{Threads: 2, Count: true})
	assert.Equal(t, int64(3), res.Matches)
	assert.Empty(t, res.Records)
	require.Len(t, sink.files, 1)

	res, _ = search(t, "a", "a\nb\na\na\n", Options{Threads: 2, Count: true, InvertMatch: true})
	assert.Equal(t, int64(1), res.Matches)
}

func TestSearchFilesWithMatchesStopsEarly(t *testing.T) {
	res, _ := search(t, "a", "a\na\na\n", Options{Threads: 2, FilesWithMatches: true})
	assert.Equal(t, int64(1), res.Matches)
	assert.Empty(t, res.Records)
}

func TestSearchBinary(t *testing.T) {
	content := "match\x00\nmatch\n"
	res, sink := search(t, "match", content, Options{Threads: 2})
	assert.True(t, res.Binary)
	assert.Zero(t, res.Matches)
	assert.Empty(t, sink.files)

	res, _ = search(t, "match", content, Options{Threads: 2, Text: true})
	assert.False(t, res.Binary)
	assert.Equal(t, int64(2), res.Matches)

	// A NUL past the scan limit does not make the file binary.
	late := strings.Repeat("x\n", 20) + "\x00match\n"
	res, _ = search(t, "match", late, Options{Threads: 2, BinaryScanLimit: 8})
	assert.False(t, res.Binary)
	assert.Equal(t, int64(1), res.Matches)
}

func TestSearchUTF16(t *testing.T) {
	text := "hello\nneedle here\n"
	data := []byte{0xFF, 0xFE}
	for _, r := range text {
		data = append(data, byte(r), 0)
	}
	path := filepath.Join(t.TempDir(), "utf16.txt")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	re := matcher.MustCompile([]string{"needle"}, matcher.Options{})
	res, err := New(re, Options{Threads: 2, Mmap: MmapAlways}).Search(context.Background(), path, 0, &memSink{})
	require.NoError(t, err)
	assert.NotEqual(t, MemoryMapped, res.Strategy)
	require.Len(t, res.Records, 1)
	assert.Equal(t, uint64(2), res.Records[0].Line)
	assert.Equal(t, "needle here", string(res.Records[0].Text))
}

func TestSearchQuietRaisesStop(t *testing.T) {
	var stop atomic.Bool
	res, _ := search(t, "x", "x\nx\n", Options{Threads: 2, Quiet: true, Stop: &stop})
	assert.True(t, stop.Load())
	assert.Equal(t, int64(1), res.Matches)

	re := matcher.MustCompile([]string{"x"}, matcher.Options{})
	res, err := New(re, Options{Stop: &stop}).Search(context.Background(), writeFile(t, "x\n"), 0, &memSink{})
	assert.NoError(t, err)
	assert.Nil(t, res, "later files are abandoned")
}

func TestSearchMapped(t *testing.T) {
	if mmapUnsafe[runtime.GOOS] {
		t.Skip("memory maps are disabled on this platform")
	}
	var b strings.Builder
	for i := 1; i <= 20000; i++ {
		if i%997 == 0 {
			fmt.Fprintf(&b, "line %d needle\n", i)
		} else {
			fmt.Fprintf(&b, "line %d hay\n", i)
		}
	}
	content := b.String()

	mapped, _ := search(t, "needle", content, Options{Threads: 2, Mmap: MmapAlways})
	assert.Equal(t, MemoryMapped, mapped.Strategy)
	buffered, _ := search(t, "needle", content, Options{Threads: 2, Mmap: MmapNever})
	assert.Equal(t, BufferedMultiFile, buffered.Strategy)

	assert.Equal(t, lineNumbers(buffered.Records), lineNumbers(mapped.Records))
	require.Len(t, mapped.Records, 20)
	assert.Equal(t, uint64(997), mapped.Records[0].Line)
	assert.Equal(t, uint64(19940), mapped.Records[19].Line)
}

func TestSearchEmptyLinePatterns(t *testing.T) {
	for _, mode := range []MmapMode{MmapNever, MmapAlways} {
		res, _ := search(t, "^$", "a\nb\n", Options{Threads: 2, Mmap: mode})
		assert.Equal(t, int64(0), res.Matches, "no line after the last terminator")

		res, _ = search(t, "^$", "a\n\nb\n", Options{Threads: 2, Mmap: mode})
		assert.Equal(t, []uint64{2}, lineNumbers(res.Records))

		res, _ = search(t, "^$", "a\n\nb\n", Options{Threads: 2, Mmap: mode, BeforeContext: 1})
		assert.Equal(t, []uint64{2}, lineNumbers(res.Records))
	}
}

func TestSearchEmptyLinePatternsAcrossChunks(t *testing.T) {
	if mmapUnsafe[runtime.GOOS] {
		t.Skip("memory maps are disabled on this platform")
	}
	var b strings.Builder
	for i := 1; i <= 30000; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	b.WriteString("\ntail\n")
	content := b.String()
	require.Greater(t, len(content), 64*1024)

	for _, pattern := range []string{`^$`, `^\s*$`} {
		mapped, _ := search(t, pattern, content, Options{Threads: 2, Mmap: MmapAlways})
		require.Equal(t, MemoryMapped, mapped.Strategy)
		buffered, _ := search(t, pattern, content, Options{Threads: 2, Mmap: MmapNever})
		assert.Equal(t, []uint64{30001}, lineNumbers(mapped.Records), pattern)
		assert.Equal(t, lineNumbers(mapped.Records), lineNumbers(buffered.Records), pattern)
	}
}

func TestSearchLongLineGrowsBuffer(t *testing.T) {
	long := strings.Repeat("a", 3*DefaultBufferSize) + "needle"
	res, _ := search(t, "needle", "first\n"+long+"\nlast\n", Options{Threads: 2})
	require.Len(t, res.Records, 1)
	assert.Equal(t, uint64(2), res.Records[0].Line)
	assert.Len(t, res.Records[0].Text, len(long))
}

func TestSearchMatchDoesNotSpanLines(t *testing.T) {
	res, _ := search(t, `a\s+b`, "a\nb\na b\n", Options{Threads: 2})
	assert.Equal(t, []uint64{3}, lineNumbers(res.Records))
}

func TestSearchMissingFile(t *testing.T) {
	re := matcher.MustCompile([]string{"x"}, matcher.Options{})
	_, err := New(re, Options{}).Search(context.Background(), filepath.Join(t.TempDir(), "missing"), 0, &memSink{})
	require.Error(t, err)
	assert.True(t, serrors.IsKind(err, serrors.KindIO))
}

func TestChoose(t *testing.T) {
	if mmapUnsafe[runtime.GOOS] {
		t.Skip("memory maps are disabled on this platform")
	}
	tests := []struct {
		name string
		opts Options
		size int64
		bom  bool
		want Strategy
	}{
		{"auto with directories", Options{Threads: 4}, 10, false, BufferedMultiFile},
		{"auto with explicit files", Options{Threads: 4, ExplicitFilesOnly: true}, 10, false, MemoryMapped},
		{"forced", Options{Threads: 4, Mmap: MmapAlways}, 10, false, MemoryMapped},
		{"disabled", Options{Threads: 4, Mmap: MmapNever, ExplicitFilesOnly: true}, 10, false, BufferedMultiFile},
		{"empty file", Options{Threads: 4, Mmap: MmapAlways}, 0, false, BufferedMultiFile},
		{"context", Options{Threads: 4, Mmap: MmapAlways, AfterContext: 1}, 10, false, BufferedMultiFile},
		{"bom", Options{Threads: 4, Mmap: MmapAlways}, 10, true, BufferedMultiFile},
		{"single thread", Options{Threads: 1}, 10, false, BufferedSingleFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Choose(tt.opts, tt.size, tt.bom))
		})
	}
}

func TestParseMmapMode(t *testing.T) {
	m, ok := ParseMmapMode("never")
	assert.True(t, ok)
	assert.Equal(t, MmapNever, m)
	_, ok = ParseMmapMode("sometimes")
	assert.False(t, ok)
}
