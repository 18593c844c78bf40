package utils

import (
	"path/filepath"
	"strings"
)

// HiddenPrefix marks a hidden file or directory name.
const HiddenPrefix = "."

// IsHidden reports whether the final component of path is hidden.
// The special names "." and ".." are never hidden.
func IsHidden(path string) bool {
	name := filepath.Base(path)
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, HiddenPrefix)
}

// StripDotSlash removes any leading "./" components from path.
func StripDotSlash(path string) string {
	for strings.HasPrefix(path, "./") || strings.HasPrefix(path, "."+string(filepath.Separator)) {
		path = path[2:]
	}
	return path
}

// RelativeTo returns path relative to dir when path lies below dir.
// The second result is false when path is not below dir.
// dir "." (or "") accepts every relative path.
func RelativeTo(dir, path string) (string, bool) {
	dir = StripDotSlash(dir)
	path = StripDotSlash(path)
	if dir == "" || dir == "." {
		if filepath.IsAbs(path) {
			return "", false
		}
		return path, true
	}
	if path == dir {
		return "", true
	}
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	return path[len(prefix):], true
}

// ComparePaths orders two paths component by component, so that the
// contents of directory "a" sort before the file "a.txt". This is the order
// a depth-first walk over name-sorted directories produces.
func ComparePaths(a, b string) int {
	as := strings.Split(filepath.ToSlash(a), "/")
	bs := strings.Split(filepath.ToSlash(b), "/")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := strings.Compare(as[i], bs[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}
