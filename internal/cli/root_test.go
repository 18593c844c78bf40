package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bethropolis/needle/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps the user's defaults file and git excludes out of a test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("NEEDLE_CONFIG", "")
	return home
}

func tree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestSearchTree(t *testing.T) {
	isolate(t)
	root := tree(t, map[string]string{
		".gitignore":  "*.log\n",
		"a.txt":       "hello world\nbye\n",
		"sub/b.go":    "package b\n// hello\n",
		"skip.log":    "hello\n",
		".hidden/x":   "hello\n",
		"bin.dat":     "hello\x00\n",
		"sub/nope.md": "nothing\n",
	})

	out, _, code := run(t, "hello", root, "--sort", "path", "-n")
	assert.Equal(t, app.ExitMatch, code)
	want := filepath.Join(root, "a.txt") + ":1:hello world\n" +
		filepath.Join(root, "sub", "b.go") + ":2:// hello\n"
	assert.Equal(t, want, out)

	out, _, code = run(t, "absent", root)
	assert.Equal(t, app.ExitNoMatch, code)
	assert.Empty(t, out)

	out, _, _ = run(t, "hello", root, "-uu", "--sort", "path", "-l")
	assert.Equal(t, []string{
		filepath.Join(root, ".hidden", "x"),
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "skip.log"),
		filepath.Join(root, "sub", "b.go"),
	}, strings.Fields(out), "binary files stay skipped below -uuu")
}

func TestFiltersAndModes(t *testing.T) {
	isolate(t)
	root := tree(t, map[string]string{
		"a.go":  "x\nx\n",
		"b.rs":  "x\n",
		"c.txt": "y\n",
	})

	out, _, _ := run(t, "x", root, "-t", "go", "-c")
	assert.Equal(t, filepath.Join(root, "a.go")+":2\n", out)

	out, _, _ = run(t, "x", root, "-g", "!*.go", "-l")
	assert.Equal(t, filepath.Join(root, "b.rs")+"\n", out)

	out, _, code := run(t, "x", root, "--files-without-match")
	assert.Equal(t, filepath.Join(root, "c.txt")+"\n", out)
	assert.Equal(t, app.ExitMatch, code)

	out, _, _ = run(t, "--files", root, "--sort", "path")
	assert.Equal(t, 3, len(strings.Fields(out)))

	_, _, code = run(t, "-q", "x", root)
	assert.Equal(t, app.ExitMatch, code)
}

func TestSingleFileHasNoFilename(t *testing.T) {
	isolate(t)
	root := tree(t, map[string]string{"f": "a\nneedle\n"})
	out, _, code := run(t, "-n", "needle", filepath.Join(root, "f"))
	assert.Equal(t, app.ExitMatch, code)
	assert.Equal(t, "2:needle\n", out)
}

func TestErrorsGiveStatusTwo(t *testing.T) {
	isolate(t)
	root := tree(t, map[string]string{"f": "x\n"})

	_, stderr, code := run(t, "a(b", root)
	assert.Equal(t, app.ExitError, code)
	assert.Contains(t, stderr, "a(b")

	_, _, code = run(t, "x", filepath.Join(root, "missing"))
	assert.Equal(t, app.ExitError, code)

	_, _, code = run(t, "-q", "x", root, filepath.Join(root, "missing"))
	assert.Equal(t, app.ExitMatch, code, "a quiet match wins over errors")

	_, _, code = run(t, "x", root, "-t", "nosuchtype")
	assert.Equal(t, app.ExitError, code)

	_, stderr, code = run(t)
	assert.Equal(t, app.ExitError, code)
	assert.Contains(t, stderr, "no pattern")
}

func TestDefaultsFile(t *testing.T) {
	home := isolate(t)
	root := tree(t, map[string]string{"a.go": "Needle\n", "b.txt": "needle\n"})
	cfgPath := filepath.Join(home, ".config", "needle", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(cfgPath), 0o755))
	require.NoError(t, os.WriteFile(cfgPath, []byte("ignore-case: true\ntype:\n  - go\n"), 0o644))

	out, _, _ := run(t, "needle", root, "-l")
	assert.Equal(t, filepath.Join(root, "a.go")+"\n", out)

	out, _, _ = run(t, "needle", root, "-l", "--no-config", "--sort", "path")
	assert.Equal(t, filepath.Join(root, "b.txt")+"\n", out)

	require.NoError(t, os.WriteFile(cfgPath, []byte("bogus-flag: 1\n"), 0o644))
	_, stderr, code := run(t, "needle", root)
	assert.Equal(t, app.ExitError, code)
	assert.Contains(t, stderr, "bogus-flag")
}

func TestTypeList(t *testing.T) {
	isolate(t)
	out, _, code := run(t, "--type-list", "--type-add", "zzz:*.zzz")
	assert.Equal(t, app.ExitMatch, code)
	assert.Contains(t, out, "go: *.go\n")
	assert.True(t, strings.HasSuffix(out, "zzz: *.zzz\n"))
}

func TestHelp(t *testing.T) {
	out, _, code := run(t, "--help")
	assert.Equal(t, app.ExitMatch, code)
	assert.Contains(t, out, "needle")
	assert.Contains(t, out, "--smart-case")
}

func TestVersion(t *testing.T) {
	isolate(t)
	out, _, code := run(t, "-V")
	assert.Equal(t, app.ExitMatch, code)
	assert.Contains(t, out, "needle")
}
