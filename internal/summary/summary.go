// Package summary handles display of search statistics and skipped items
package summary

import (
	"fmt"
	"io"
	"sort"
	"time"

	serrors "github.com/bethropolis/needle/internal/errors"
	"github.com/bethropolis/needle/internal/printer"
	"github.com/bethropolis/needle/internal/walker"
)

// Logger defines the minimal logging interface required
type Logger interface {
	Info(format string, args ...interface{})
}

// Stats is everything --stats reports about a run.
type Stats struct {
	Totals   printer.Totals
	Walk     walker.Stats
	Errors   map[serrors.Kind]int
	Duration time.Duration
}

// DisplayStats writes the --stats block to output.
func DisplayStats(output io.Writer, s Stats) {
	fmt.Fprintln(output)
	fmt.Fprintf(output, "%d matches\n", s.Totals.Matches)
	fmt.Fprintf(output, "%d files contained matches\n", s.Totals.FilesMatched)
	fmt.Fprintf(output, "%d files searched\n", s.Totals.Files)
	fmt.Fprintf(output, "%d files skipped\n", s.Walk.FilesSkipped)
	fmt.Fprintf(output, "%d directories read, %d pruned\n", s.Walk.DirsRead, s.Walk.DirsSkipped)

	if len(s.Errors) > 0 {
		kinds := make([]serrors.Kind, 0, len(s.Errors))
		for k := range s.Errors {
			kinds = append(kinds, k)
		}
		sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
		for _, k := range kinds {
			fmt.Fprintf(output, "%d errors (%s)\n", s.Errors[k], k)
		}
	}
	fmt.Fprintf(output, "%.6f seconds\n", s.Duration.Seconds())
}

// DisplaySkippedItems formats and prints information about skipped items
func DisplaySkippedItems(
	logger Logger,
	skippedItems []walker.SkippedItem,
	output io.Writer,
	quiet bool,
) {
	infoLog := func(format string, args ...interface{}) {
		if !quiet {
			logger.Info(format, args...)
		}
	}

	infoLog("--- Skipped Items (%d) ---", len(skippedItems))
	if len(skippedItems) > 0 {
		// Sort for consistent output
		sort.Slice(skippedItems, func(i, j int) bool {
			return skippedItems[i].Path < skippedItems[j].Path
		})
		for _, item := range skippedItems {
			typeStr := "FILE"
			if item.IsDir {
				typeStr = "DIR " // Add space for alignment
			}
			fmt.Fprintf(output, "Skipped %s: %-50s [%s]\n",
				typeStr,
				item.Path,
				item.Reason,
			)
		}
	} else {
		infoLog("No items were skipped.")
	}
	infoLog("--- End Skipped Items ---")
}
