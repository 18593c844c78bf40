//go:build !unix

package walker

import "path/filepath"

// fileID identifies a directory independently of the path used to reach it.
// Without device and inode numbers the resolved path stands in.
type fileID struct {
	dev, ino uint64
	path     string
}

func identify(path string) (fileID, error) {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		return fileID{}, err
	}
	abs, err := filepath.Abs(real)
	if err != nil {
		return fileID{}, err
	}
	return fileID{path: abs}, nil
}
