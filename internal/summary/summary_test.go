package summary

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	serrors "github.com/bethropolis/needle/internal/errors"
	"github.com/bethropolis/needle/internal/printer"
	"github.com/bethropolis/needle/internal/walker"
	"github.com/stretchr/testify/assert"
)

type infoRecorder struct{ lines []string }

func (r *infoRecorder) Info(format string, args ...interface{}) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

func TestDisplayStats(t *testing.T) {
	var out bytes.Buffer
	DisplayStats(&out, Stats{
		Totals:   printer.Totals{Files: 10, FilesMatched: 2, Matches: 5},
		Walk:     walker.Stats{FilesSkipped: 3, DirsRead: 4, DirsSkipped: 1},
		Errors:   map[serrors.Kind]int{serrors.KindIO: 2, serrors.KindCycle: 1},
		Duration: 1500 * time.Millisecond,
	})
	got := out.String()
	assert.Contains(t, got, "5 matches\n")
	assert.Contains(t, got, "2 files contained matches\n")
	assert.Contains(t, got, "10 files searched\n")
	assert.Contains(t, got, "3 files skipped\n")
	assert.Contains(t, got, "4 directories read, 1 pruned\n")
	assert.Contains(t, got, "2 errors (IoError)\n1 errors (CycleDetected)\n")
	assert.Contains(t, got, "1.500000 seconds\n")
}

func TestDisplaySkippedItems(t *testing.T) {
	var out bytes.Buffer
	log := &infoRecorder{}
	DisplaySkippedItems(log, []walker.SkippedItem{
		{Path: "z.log", Reason: walker.ReasonIgnoredRule},
		{Path: "build", Reason: walker.ReasonIgnoredRule, IsDir: true},
	}, &out, false)

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	assert.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "Skipped DIR : build")
	assert.Contains(t, string(lines[1]), "Skipped FILE: z.log")
	assert.Equal(t, "--- Skipped Items (2) ---", log.lines[0])

	log = &infoRecorder{}
	DisplaySkippedItems(log, nil, &out, true)
	assert.Empty(t, log.lines)
}
