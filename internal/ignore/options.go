package ignore

import (
	"github.com/bethropolis/needle/internal/types"
	"github.com/bethropolis/needle/internal/utils"
)

// Option functions for configuration
type Option func(*Matcher)

// WithHidden includes hidden files and directories (--hidden).
func WithHidden(search bool) Option {
	return func(m *Matcher) {
		m.hidden = search
	}
}

// WithIgnoreFiles toggles .ignore files.
func WithIgnoreFiles(read bool) Option {
	return func(m *Matcher) {
		m.readIgnore = read
	}
}

// WithVCSIgnore toggles .gitignore files, .git/info/exclude and the global
// excludes file.
func WithVCSIgnore(read bool) Option {
	return func(m *Matcher) {
		m.readVCS = read
	}
}

// WithParents toggles reading ignore files above the search roots.
func WithParents(read bool) Option {
	return func(m *Matcher) {
		m.readParents = read
	}
}

// WithGlobal toggles the global git excludes file.
func WithGlobal(read bool) Option {
	return func(m *Matcher) {
		m.readGlobal = read
	}
}

// WithExplicitFiles adds --ignore-file paths; later files take precedence.
func WithExplicitFiles(paths []string) Option {
	return func(m *Matcher) {
		m.explicitFiles = append(m.explicitFiles, paths...)
	}
}

// WithOverrides adds -g/--glob rules.
func WithOverrides(globs []string) Option {
	return func(m *Matcher) {
		m.overrideGlobs = append(m.overrideGlobs, globs...)
	}
}

// WithCaseInsensitiveOverrides adds --iglob rules.
func WithCaseInsensitiveOverrides(globs []string) Option {
	return func(m *Matcher) {
		m.overrideIGlobs = append(m.overrideIGlobs, globs...)
	}
}

// WithTypes narrows files to a type selection.
func WithTypes(t *types.Matcher) Option {
	return func(m *Matcher) {
		m.typeMatcher = t
	}
}

// WithSizeLimit bounds every compiled rule set.
func WithSizeLimit(limit int64) Option {
	return func(m *Matcher) {
		m.sizeLimit = limit
	}
}

// WithParentCacheSize bounds the number of cached frames above the roots.
func WithParentCacheSize(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.parentCacheSize = n
		}
	}
}

func WithLogger(logger utils.Logger) Option {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}
