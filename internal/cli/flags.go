package cli

import (
	"fmt"

	"github.com/bethropolis/needle/internal/config"
	"github.com/spf13/cobra"
)

func bindFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	f.SortFlags = false

	// Patterns
	f.StringArrayVarP(&cfg.Patterns, "regexp", "e", nil, "A pattern to search for; may be repeated")
	f.StringArrayVarP(&cfg.PatternFiles, "file", "f", nil, "Read patterns from a file, one per line")
	f.BoolVarP(&cfg.IgnoreCase, "ignore-case", "i", false, "Search case insensitively")
	f.BoolVarP(&cfg.SmartCase, "smart-case", "S", false, "Search case insensitively unless the pattern has an uppercase letter")
	f.BoolVarP(&cfg.FixedStrings, "fixed-strings", "F", false, "Treat patterns as literal strings")
	f.BoolVarP(&cfg.WordRegexp, "word-regexp", "w", false, "Only match whole words")
	f.BoolVarP(&cfg.InvertMatch, "invert-match", "v", false, "Print lines that do not match")
	f.Int64VarP(&cfg.MaxCount, "max-count", "m", 0, "Stop searching a file after this many matching lines")
	f.StringVar(&cfg.RegexSizeLimit, "regex-size-limit", "", "Size limit of the compiled regex (e.g. 10M)")
	f.BoolVarP(&cfg.Text, "text", "a", false, "Search binary files as if they were text")

	// Output
	f.BoolVarP(&cfg.LineNumber, "line-number", "n", false, "Show line numbers")
	f.BoolVarP(&cfg.NoLineNumber, "no-line-number", "N", false, "Never show line numbers")
	f.BoolVar(&cfg.Heading, "heading", false, "Print the file name above its matches")
	f.BoolVar(&cfg.NoHeading, "no-heading", false, "Print the file name on every line")
	f.BoolVarP(&cfg.WithFilename, "with-filename", "H", false, "Always show file names")
	f.BoolVarP(&cfg.NoFilename, "no-filename", "I", false, "Never show file names")
	f.BoolVar(&cfg.Column, "column", false, "Show the column of the first match")
	f.IntVarP(&cfg.Context, "context", "C", 0, "Show NUM lines before and after each match")
	f.IntVarP(&cfg.BeforeContext, "before-context", "B", 0, "Show NUM lines before each match")
	f.IntVarP(&cfg.AfterContext, "after-context", "A", 0, "Show NUM lines after each match")
	f.BoolVarP(&cfg.Count, "count", "c", false, "Print the number of matching lines per file")
	f.BoolVarP(&cfg.FilesWithMatches, "files-with-matches", "l", false, "Print only the names of files with a match")
	f.BoolVar(&cfg.FilesWithoutMatch, "files-without-match", false, "Print only the names of files without a match")
	f.BoolVarP(&cfg.Quiet, "quiet", "q", false, "Print nothing; exit 0 on the first match")
	f.BoolVar(&cfg.JSONOutput, "json", false, "Print results as JSON lines")
	f.StringVar(&cfg.Color, "color", cfg.Color, "When to use colors: auto, always or never")
	f.StringVar(&cfg.Sort, "sort", "", "Sort results: path or none (path searches with one thread)")
	f.BoolVar(&cfg.Stats, "stats", false, "Print statistics after the search")
	f.BoolVar(&cfg.ShowSkipped, "show-skipped", false, "Show a list of skipped files/directories and reasons at the end")
	f.BoolVar(&cfg.ListFiles, "files", false, "Print the files that would be searched and exit")
	f.BoolVar(&cfg.TypeList, "type-list", false, "Show all known file types and exit")

	// Filtering
	f.BoolVar(&cfg.Hidden, "hidden", false, "Search hidden files and directories")
	f.BoolVar(&cfg.NoIgnore, "no-ignore", false, "Do not read ignore files")
	f.BoolVar(&cfg.NoIgnoreVCS, "no-ignore-vcs", false, "Do not read .gitignore and .git/info/exclude")
	f.BoolVar(&cfg.NoIgnoreDot, "no-ignore-dot", false, "Do not read .ignore files")
	f.BoolVar(&cfg.NoIgnoreParent, "no-ignore-parent", false, "Do not read ignore files above the search roots")
	f.BoolVar(&cfg.NoIgnoreGlobal, "no-ignore-global", false, "Do not read the global git excludes file")
	f.CountP("unrestricted", "u", "Reduce filtering; repeat up to three times")
	f.BoolVarP(&cfg.FollowLinks, "follow", "L", false, "Follow symbolic links")
	f.IntVarP(&cfg.MaxDepth, "max-depth", "d", cfg.MaxDepth, "Descend at most NUM directories (-1 for no limit)")
	f.StringVar(&cfg.MaxFilesize, "max-filesize", "", "Skip files larger than this (e.g. 10M)")
	f.StringArrayVarP(&cfg.Globs, "glob", "g", nil, "Include or, with a leading !, exclude files matching a glob")
	f.StringArrayVar(&cfg.IGlobs, "iglob", nil, "Like --glob but case insensitive")
	f.StringArrayVar(&cfg.IgnoreFiles, "ignore-file", nil, "Read ignore rules from this file")
	f.StringArrayVarP(&cfg.Types, "type", "t", nil, "Only search files of this type")
	f.StringArrayVarP(&cfg.TypesNot, "type-not", "T", nil, "Do not search files of this type")
	f.StringArrayVar(&cfg.TypeAdd, "type-add", nil, "Add a file type definition (name:glob)")
	f.StringArrayVar(&cfg.TypeClear, "type-clear", nil, "Clear the globs of a file type")

	// Processing
	f.IntVarP(&cfg.Threads, "threads", "j", 0, "Number of search threads (0 = choose automatically)")
	f.BoolVar(&cfg.Mmap, "mmap", false, "Search files through memory maps when possible")
	f.BoolVar(&cfg.NoMmap, "no-mmap", false, "Never use memory maps")
	f.DurationVar(&cfg.Timeout, "timeout", 0, "Maximum execution time (e.g., '30s', '5m')")
	f.BoolVar(&cfg.ShowProgress, "progress", false, "Show progress information")

	// Diagnostics
	f.BoolVar(&cfg.Verbose, "verbose", false, "Enable verbose logging (DEBUG, WARN, ERROR)")
	f.StringVar(&cfg.LogLevel, "log-level", "", "Set the logging level (DEBUG, INFO, WARN, ERROR)")
	f.BoolVar(&cfg.NoMessages, "no-messages", false, "Suppress messages about files that could not be read")
	f.BoolVar(&cfg.ErrorsFatal, "errors-fatal", false, "Stop at the first error")
	f.StringVar(&cfg.ConfigFile, "config", "", "Read default flags from this YAML file")
	f.BoolVar(&cfg.NoConfig, "no-config", false, "Do not read a defaults file")
	f.BoolVarP(&cfg.ShowVersion, "version", "V", false, "Print the version and exit")
}

// applyDefaults sets every flag named in the defaults file that was not
// given on the command line.
func applyDefaults(cmd *cobra.Command, cfg *config.Config) error {
	if cfg.NoConfig {
		return nil
	}
	path, err := config.FindFile(cfg.ConfigFile)
	if err != nil || path == "" {
		return err
	}
	defaults, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	for _, name := range defaults.Keys() {
		switch name {
		case "config", "no-config", "version":
			return fmt.Errorf("config: %s: %q cannot be set in a defaults file", path, name)
		}
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("config: %s: unknown flag %q", path, name)
		}
		if flag.Changed {
			continue
		}
		for _, v := range defaults[name] {
			if err := flags.Set(name, v); err != nil {
				return fmt.Errorf("config: %s: %s: %w", path, name, err)
			}
		}
	}
	return nil
}
