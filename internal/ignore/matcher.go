package ignore

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bethropolis/needle/internal/utils"
	lru "github.com/hashicorp/golang-lru/v2"
)

// New creates and initializes a Matcher. Malformed command line globs,
// explicit ignore files and the global excludes file are PatternErrors.
func New(opts ...Option) (*Matcher, error) {
	matcher := &Matcher{
		readIgnore:      true,
		readVCS:         true,
		readParents:     true,
		readGlobal:      true,
		parentCacheSize: 256,
		logger:          utils.NoopLogger{},
	}

	// Apply functional options
	for _, opt := range opts {
		opt(matcher)
	}

	if err := matcher.init(); err != nil {
		return nil, err
	}
	return matcher, nil
}

// init compiles the rule sources shared by every root.
func (m *Matcher) init() error {
	m.logger.Debug("ignore.New: hidden=%v ignore=%v vcs=%v parents=%v global=%v",
		m.hidden, m.readIgnore, m.readVCS, m.readParents, m.readGlobal)

	ob := NewOverrideBuilder("").SizeLimit(m.sizeLimit)
	for _, g := range m.overrideGlobs {
		if err := ob.Add(g); err != nil {
			return err
		}
	}
	for _, g := range m.overrideIGlobs {
		if err := ob.AddCaseInsensitive(g); err != nil {
			return err
		}
	}
	overrides, err := ob.Build()
	if err != nil {
		return fmt.Errorf("ignore: compiling overrides: %w", err)
	}
	m.overrides = overrides

	if len(m.explicitFiles) > 0 {
		gb := NewGitignoreBuilder("").SizeLimit(m.sizeLimit)
		for _, path := range m.explicitFiles {
			if err := gb.AddFile(path); err != nil {
				return err
			}
		}
		if errs := gb.LineErrors(); len(errs) > 0 {
			return errs[0]
		}
		if m.explicit, err = gb.Build(); err != nil {
			return fmt.Errorf("ignore: compiling ignore files: %w", err)
		}
		m.logger.Debug("ignore.New: %d rules from %d explicit ignore files", m.explicit.Len(), len(m.explicitFiles))
	}

	if m.readVCS && m.readGlobal {
		if err := m.loadGlobal(); err != nil {
			return err
		}
	}

	m.parents, err = lru.New[string, *Dir](m.parentCacheSize)
	if err != nil {
		return fmt.Errorf("ignore: creating parent cache: %w", err)
	}
	return nil
}

func (m *Matcher) loadGlobal() error {
	path, err := GlobalExcludesFile()
	if err != nil {
		m.logger.Warn("ignore.New: cannot locate global excludes file: %v", err)
		return nil
	}
	if path == "" {
		return nil
	}
	gb := NewGitignoreBuilder("").SizeLimit(m.sizeLimit)
	if err := gb.AddFile(path); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if errs := gb.LineErrors(); len(errs) > 0 {
		return errs[0]
	}
	if m.global, err = gb.Build(); err != nil {
		return fmt.Errorf("ignore: compiling %s: %w", path, err)
	}
	m.logger.Debug("ignore.New: %d rules from global excludes %s", m.global.Len(), path)
	return nil
}

// Root returns the frame for a search root, chained to frames for its
// ancestors when parent ignore files are honored. Errors reading the
// root's own ignore files are returned alongside a usable frame.
func (m *Matcher) Root(path string) (*Dir, []error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		abs = real
	}

	var parent *Dir
	if m.readParents && (m.readIgnore || m.readVCS) {
		parent = m.parentChain(abs)
	}

	d, errs := m.load(parent, path, abs, m.readVCS)
	d.root = d
	if !d.repo && m.global != nil && !parent.inRepo() {
		d.global = m.global
	}
	return d, errs
}

type ancestor struct {
	abs       string
	gitignore bool
}

// parentChain returns the frame of abs's parent directory, building and
// caching frames from the filesystem root down.
func (m *Matcher) parentChain(abs string) *Dir {
	var chain []ancestor
	sawGit := hasGitDir(abs)
	for dir := filepath.Dir(abs); ; dir = filepath.Dir(dir) {
		useGitignore := m.readVCS && !sawGit
		if !sawGit {
			sawGit = hasGitDir(dir)
		}
		chain = append(chain, ancestor{abs: dir, gitignore: useGitignore})
		if dir == filepath.Dir(dir) {
			break
		}
	}

	var parent *Dir
	for i := len(chain) - 1; i >= 0; i-- {
		a := chain[i]
		key := fmt.Sprintf("%s\x00%v", a.abs, a.gitignore)
		if d, ok := m.parents.Get(key); ok {
			parent = d
			continue
		}
		d, errs := m.load(parent, "", a.abs, a.gitignore)
		for _, err := range errs {
			m.logger.Debug("ignore: parent %s: %v", a.abs, err)
		}
		if d.empty() {
			d = parent
		}
		m.parents.Add(key, d)
		parent = d
	}
	return parent
}

// hasGitDir reports whether dir holds a .git directory or worktree file.
func hasGitDir(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}
