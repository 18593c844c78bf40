package ignore

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bethropolis/needle/internal/utils"
)

// Names of the per-directory ignore files, by tier.
const (
	IgnoreFileName    = ".ignore"
	GitignoreFileName = ".gitignore"
	gitExcludePath    = ".git/info/exclude"
)

// Dir is one immutable frame of the ignore stack: the rules read from a
// single directory plus a pointer to the frame of the nearest ancestor
// that had rules. A frame is never modified after it is returned, so
// sibling subtrees share their parent frame without locking.
type Dir struct {
	m      *Matcher
	parent *Dir
	// root is the frame of the search root this frame descends from; nil
	// for frames above the roots.
	root *Dir

	// dir is the directory as the walker names it; empty above the roots.
	dir string
	abs string

	ignore    *Gitignore
	gitignore *Gitignore
	exclude   *Gitignore
	global    *Gitignore
	repo      bool
}

// Path returns the directory the frame was read from.
func (d *Dir) Path() string {
	if d.dir != "" {
		return d.dir
	}
	return d.abs
}

// Parent returns the next frame up the stack, or nil.
func (d *Dir) Parent() *Dir { return d.parent }

// Depth returns the number of frames in the stack.
func (d *Dir) Depth() int {
	n := 0
	for f := d; f != nil; f = f.parent {
		n++
	}
	return n
}

// AddChild returns the frame for dir, a subdirectory being descended into.
// When dir holds no ignore files the receiver itself is returned. The
// receiver is never modified. Errors reading dir's ignore files are
// returned with a frame holding whatever could be read.
func (d *Dir) AddChild(dir string) (*Dir, []error) {
	abs := d.root.absOf(dir)
	child, errs := d.m.load(d, dir, abs, d.m.readVCS)
	if child.empty() {
		return d, errs
	}
	child.root = d.root
	return child, errs
}

// absOf maps a path under the search root to an absolute path.
func (d *Dir) absOf(path string) string {
	rel, ok := utils.RelativeTo(d.dir, path)
	if !ok {
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return filepath.Join(d.abs, rel)
}

func (d *Dir) empty() bool {
	return d.ignore == nil && d.gitignore == nil && d.exclude == nil && d.global == nil
}

// inRepo reports whether d or a frame above it is a repository root.
func (d *Dir) inRepo() bool {
	for f := d; f != nil; f = f.parent {
		if f.repo {
			return true
		}
	}
	return false
}

// load reads the ignore files of one directory into a new frame.
func (m *Matcher) load(parent *Dir, dir, abs string, gitignore bool) (*Dir, []error) {
	d := &Dir{m: m, parent: parent, dir: dir, abs: abs}
	base := dir
	if base == "" {
		base = abs
	}

	var errs []error
	read := func(name string) *Gitignore {
		gb := NewGitignoreBuilder(base).SizeLimit(m.sizeLimit)
		if err := gb.AddFile(filepath.Join(base, name)); err != nil {
			if !stderrors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
			return nil
		}
		errs = append(errs, gb.LineErrors()...)
		gi, err := gb.Build()
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		if gi.Len() == 0 {
			return nil
		}
		m.logger.Debug("ignore: %d rules from %s", gi.Len(), filepath.Join(base, name))
		return gi
	}

	if m.readIgnore {
		d.ignore = read(IgnoreFileName)
	}
	if gitignore {
		d.gitignore = read(GitignoreFileName)
		if hasGitDir(base) {
			d.repo = true
			if fi, err := os.Stat(filepath.Join(base, ".git")); err == nil && fi.IsDir() {
				d.exclude = read(gitExcludePath)
			}
			d.global = m.global
		}
	}
	return d, errs
}
