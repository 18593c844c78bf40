// Package setup provides initialization and configuration functions
package setup

import (
	"fmt"
	"io"

	"github.com/bethropolis/needle/internal/ignore"
	"github.com/bethropolis/needle/internal/types"
	"github.com/bethropolis/needle/internal/utils"
	"github.com/bethropolis/needle/internal/walker"
)

// InfoLogger wraps the Info method for status updates
type InfoLogger func(format string, args ...interface{})

// WalkerConfig holds all parameters needed to configure a directory walker
type WalkerConfig struct {
	Threads     int
	MaxDepth    int
	MaxFileSize int64
	FollowLinks bool
	Sorted      bool

	// NoFilters walks every file, ignoring all rule sources; used when
	// the command line has only explicit files.
	NoFilters bool
	Ignore    ignore.Config

	Tracker      *walker.SkippedTracker
	ShowProgress bool
	Progress     io.Writer
	Quiet        bool
	Logger       utils.Logger
}

// TypeConfig lists the --type family of flags.
type TypeConfig struct {
	Clear  []string
	Add    []string
	Select []string
	Negate []string
}

// BuildTypes builds the file type builder with the built-in definitions
// and the --type-clear and --type-add changes applied, plus the selections.
func BuildTypes(cfg TypeConfig) (*types.Builder, error) {
	b := types.NewBuilder().AddDefaults()
	for _, name := range cfg.Clear {
		b.Clear(name)
	}
	for _, def := range cfg.Add {
		if err := b.AddDef(def); err != nil {
			return nil, err
		}
	}
	for _, name := range cfg.Select {
		b.Select(name)
	}
	for _, name := range cfg.Negate {
		b.Negate(name)
	}
	return b, nil
}

// ConfigureWalker sets up an ignore matcher and walker options based on the config
func ConfigureWalker(cfg WalkerConfig, infoLog InfoLogger) (
	*ignore.Matcher,
	[]walker.Option,
	error,
) {
	logger := utils.OrNoop(cfg.Logger)

	var matcher *ignore.Matcher
	if !cfg.NoFilters {
		cfg.Ignore.Logger = logger
		m, err := ignore.NewFromConfig(cfg.Ignore)
		if err != nil {
			return nil, nil, fmt.Errorf("error initializing ignore rules: %w", err)
		}
		matcher = m

		if cfg.Ignore.SearchHidden {
			infoLog("Including hidden files/directories.")
		} else {
			infoLog("Ignoring hidden files/directories (starting with '.').")
		}
		if !m.HasFileRules() {
			infoLog("Not reading .gitignore or .ignore files.")
		}
		if len(cfg.Ignore.Globs)+len(cfg.Ignore.IGlobs) > 0 {
			infoLog("Using glob overrides: %v %v", cfg.Ignore.Globs, cfg.Ignore.IGlobs)
		}
	}

	walkOptions := []walker.Option{
		walker.WithLogger(logger),
		walker.WithThreads(cfg.Threads),
		walker.WithMaxDepth(cfg.MaxDepth),
		walker.WithFollowLinks(cfg.FollowLinks),
		walker.WithSort(cfg.Sorted),
		walker.WithIgnore(matcher),
		walker.WithSkippedTracker(cfg.Tracker),
	}

	if cfg.MaxFileSize > 0 {
		walkOptions = append(walkOptions, walker.WithMaxFileSize(cfg.MaxFileSize))
		infoLog("Ignoring files larger than %d bytes.", cfg.MaxFileSize)
	}

	if cfg.ShowProgress && cfg.Progress != nil && !cfg.Quiet {
		logger.Debug("Progress display enabled")
		out := cfg.Progress
		walkOptions = append(walkOptions, walker.WithProgress(func(stats walker.Stats) {
			// Carriage return overwrites the previous status line.
			fmt.Fprintf(out, "\rSearching... | Files: %d | Skipped: %d | Dirs: %d",
				stats.FilesVisited,
				stats.FilesSkipped,
				stats.DirsRead)
		}))
	}

	return matcher, walkOptions, nil
}
