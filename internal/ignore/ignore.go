// Package ignore decides which files and directories a search visits.
//
// Rules come from command line globs, .ignore and .gitignore files found
// while walking (and above the search roots), files named with
// --ignore-file, .git/info/exclude, the global git excludes file, file
// type selections and the hidden-file convention. A Matcher holds the
// run-wide configuration; the walker threads an immutable Dir frame per
// directory and asks it about each entry.
package ignore

// NewFromConfig creates a Matcher from a Config struct
func NewFromConfig(cfg Config) (*Matcher, error) {
	readIgnore := !cfg.NoIgnore && !cfg.NoIgnoreDot
	readVCS := !cfg.NoIgnore && !cfg.NoIgnoreVCS
	options := []Option{
		WithHidden(cfg.SearchHidden),
		WithIgnoreFiles(readIgnore),
		WithVCSIgnore(readVCS),
		WithParents(!cfg.NoIgnore && !cfg.NoParents),
		WithGlobal(!cfg.NoGlobal),
		WithSizeLimit(cfg.GlobSizeLimit),
	}

	if len(cfg.IgnoreFiles) > 0 {
		options = append(options, WithExplicitFiles(cfg.IgnoreFiles))
	}
	if len(cfg.Globs) > 0 {
		options = append(options, WithOverrides(cfg.Globs))
	}
	if len(cfg.IGlobs) > 0 {
		options = append(options, WithCaseInsensitiveOverrides(cfg.IGlobs))
	}
	if cfg.Types != nil && !cfg.Types.IsEmpty() {
		options = append(options, WithTypes(cfg.Types))
	}
	if cfg.Logger != nil {
		options = append(options, WithLogger(cfg.Logger))
	}

	return New(options...)
}

// HasFileRules reports whether any per-directory rule source is honored.
func (m *Matcher) HasFileRules() bool {
	return m.readIgnore || m.readVCS
}
