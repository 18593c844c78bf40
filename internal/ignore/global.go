package ignore

import (
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strings"
)

// GlobalExcludesFile returns the path of the user's global git excludes
// file, resolved in order:
//
//  1. git config --global core.excludesFile (if git is available)
//  2. $XDG_CONFIG_HOME/git/ignore (if XDG_CONFIG_HOME is set)
//  3. ~/.config/git/ignore
//
// The file may not exist. An empty path means no location could be
// determined.
func GlobalExcludesFile() (string, error) {
	path, err := gitConfigExcludesFile()
	if err != nil {
		return "", err
	}
	if path != "" {
		return path, nil
	}
	return xdgGlobalIgnorePath()
}

// gitConfigExcludesFile reads core.excludesFile from the global git config.
// A missing git binary or unset key yields "".
func gitConfigExcludesFile() (string, error) {
	out, err := exec.Command("git", "config", "--global", "core.excludesFile").Output()
	if err != nil {
		return "", nil
	}
	path := strings.TrimSpace(string(out))
	if path == "" {
		return "", nil
	}
	return expandTilde(path)
}

func xdgGlobalIgnorePath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "git", "ignore"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("ignore: determining home directory: %w", err)
	}
	return filepath.Join(home, ".config", "git", "ignore"), nil
}

// expandTilde expands ~ and ~user prefixes in a path.
func expandTilde(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	userPart, rest := path, ""
	if i := strings.IndexByte(path, '/'); i >= 0 {
		userPart, rest = path[:i], path[i:]
	}
	if userPart == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("ignore: expanding ~: %w", err)
		}
		return home + rest, nil
	}
	u, err := user.Lookup(userPart[1:])
	if err != nil {
		return "", fmt.Errorf("ignore: expanding %s: %w", userPart, err)
	}
	return u.HomeDir + rest, nil
}
