package ignore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	serrors "github.com/bethropolis/needle/internal/errors"
	"github.com/bethropolis/needle/internal/types"
	gitignore "github.com/denormal/go-gitignore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// isolated returns options that keep the environment out of a test.
func isolated(opts ...Option) []Option {
	return append([]Option{WithParents(false), WithGlobal(false)}, opts...)
}

func newRoot(t *testing.T, root string, opts ...Option) *Dir {
	t.Helper()
	m, err := New(isolated(opts...)...)
	require.NoError(t, err)
	d, errs := m.Root(root)
	require.Empty(t, errs)
	return d
}

func TestGitignoreLines(t *testing.T) {
	gb := NewGitignoreBuilder("")
	lines := []string{
		"# comment",
		"# trailing blanks \t ",
		"",
		"  \t",
		"*.log",
		"!keep.log",
		"/root.txt",
		"build/",
		`\#hash`,
		`\!bang`,
		"docs/**",
		"trailing   ",
	}
	for i, l := range lines {
		require.NoError(t, gb.AddLine("test", i+1, l))
	}
	gi, err := gb.Build()
	require.NoError(t, err)
	assert.Equal(t, 8, gi.Len())
	assert.Equal(t, 1, gi.NumWhitelists())

	tests := []struct {
		path  string
		isDir bool
		want  Decision
	}{
		{"a.log", false, Ignore},
		{"deep/a.log", false, Ignore},
		{"keep.log", false, Whitelist},
		{"sub/keep.log", false, Whitelist},
		{"root.txt", false, Ignore},
		{"sub/root.txt", false, None},
		{"build", true, Ignore},
		{"build", false, None},
		{"x/build", true, Ignore},
		{"#hash", false, Ignore},
		{"!bang", false, Ignore},
		{"docs", true, None},
		{"docs/a.md", false, Ignore},
		{"trailing", false, Ignore},
		{"main.go", false, None},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, gi.Matched(tt.path, tt.isDir).Decision)
		})
	}
}

func TestGitignoreRuleReported(t *testing.T) {
	gb := NewGitignoreBuilder("")
	require.NoError(t, gb.AddLine("/r/.gitignore", 3, "*.tmp"))
	gi, err := gb.Build()
	require.NoError(t, err)

	mat := gi.Matched("x.tmp", false)
	require.NotNil(t, mat.Rule)
	assert.Equal(t, "/r/.gitignore:3:*.tmp", mat.Rule.String())
}

func TestGitignoreLineError(t *testing.T) {
	gb := NewGitignoreBuilder("")
	err := gb.AddLine(".gitignore", 2, "a[")
	require.Error(t, err)
	assert.True(t, serrors.IsKind(err, serrors.KindPattern))
	assert.Contains(t, err.Error(), ".gitignore:2")
}

func TestScenarioLogFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "*.log\n!keep.log\n")
	writeFile(t, filepath.Join(root, "a.log"), "")
	writeFile(t, filepath.Join(root, "keep.log"), "")
	writeFile(t, filepath.Join(root, "src", "b.log"), "")

	d := newRoot(t, root)
	assert.Equal(t, Exclude, d.Eligible(filepath.Join(root, "a.log"), false))
	assert.Equal(t, Include, d.Eligible(filepath.Join(root, "keep.log"), false))
	assert.Equal(t, Include, d.Eligible(filepath.Join(root, "src"), true))

	child, errs := d.AddChild(filepath.Join(root, "src"))
	require.Empty(t, errs)
	assert.Equal(t, Exclude, child.Eligible(filepath.Join(root, "src", "b.log"), false))
}

func TestNestedFrameAppliesToGrandchildren(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", ".gitignore"), "*.log\n!keep.log\n")
	writeFile(t, filepath.Join(root, "a", "x.log"), "")
	writeFile(t, filepath.Join(root, "a", "keep.log"), "")
	writeFile(t, filepath.Join(root, "a", "b", "y.log"), "")

	d := newRoot(t, root)
	a, errs := d.AddChild(filepath.Join(root, "a"))
	require.Empty(t, errs)
	assert.Equal(t, Exclude, a.Eligible(filepath.Join(root, "a", "x.log"), false))
	assert.Equal(t, Include, a.Eligible(filepath.Join(root, "a", "keep.log"), false))

	b, errs := a.AddChild(filepath.Join(root, "a", "b"))
	require.Empty(t, errs)
	assert.Equal(t, Exclude, b.Eligible(filepath.Join(root, "a", "b", "y.log"), false))
}

func TestRootNeverIgnored(t *testing.T) {
	root := filepath.Join(t.TempDir(), ".hidden")
	writeFile(t, filepath.Join(root, ".gitignore"), "*\n")

	d := newRoot(t, root)
	assert.Equal(t, Include, d.Eligible(root, true))
}

func TestOverrides(t *testing.T) {
	root := t.TempDir()

	d := newRoot(t, root, WithOverrides([]string{"!*.min.js"}))
	assert.Equal(t, Exclude, d.Eligible(filepath.Join(root, "app.min.js"), false))
	assert.Equal(t, Include, d.Eligible(filepath.Join(root, "app.js"), false))

	d = newRoot(t, root, WithOverrides([]string{"*.go"}))
	assert.Equal(t, Include, d.Eligible(filepath.Join(root, "main.go"), false))
	assert.Equal(t, Exclude, d.Eligible(filepath.Join(root, "README.md"), false))
	assert.Equal(t, Include, d.Eligible(filepath.Join(root, "pkg"), true), "unmatched dirs are still walked")

	mat := d.Matched(filepath.Join(root, "README.md"), false)
	assert.Equal(t, "<none>", mat.Rule.Original)
}

func TestCaseInsensitiveOverrides(t *testing.T) {
	root := t.TempDir()
	d := newRoot(t, root, WithCaseInsensitiveOverrides([]string{"*.MD"}))
	assert.Equal(t, Include, d.Eligible(filepath.Join(root, "readme.md"), false))
	assert.Equal(t, Exclude, d.Eligible(filepath.Join(root, "main.go"), false))
}

func TestOverrideSyntaxErrorIsFatal(t *testing.T) {
	_, err := New(isolated(WithOverrides([]string{"a[b"}))...)
	require.Error(t, err)
	assert.True(t, serrors.IsKind(err, serrors.KindPattern))
}

func TestOverrideBeatsIgnoreFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "*.gen.go\n")

	d := newRoot(t, root, WithOverrides([]string{"*.gen.go"}))
	assert.Equal(t, Include, d.Eligible(filepath.Join(root, "x.gen.go"), false))
}

func TestPruneDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "build/\nvendor\n")

	d := newRoot(t, root)
	assert.Equal(t, ExcludeAndPrune, d.Eligible(filepath.Join(root, "build"), true))
	assert.Equal(t, Include, d.Eligible(filepath.Join(root, "build"), false))
	assert.Equal(t, ExcludeAndPrune, d.Eligible(filepath.Join(root, "vendor"), true))
	assert.Equal(t, Exclude, d.Eligible(filepath.Join(root, "vendor"), false))
}

func TestHidden(t *testing.T) {
	root := t.TempDir()

	d := newRoot(t, root)
	assert.Equal(t, Exclude, d.Eligible(filepath.Join(root, ".env"), false))
	assert.Equal(t, ExcludeAndPrune, d.Eligible(filepath.Join(root, ".cache"), true))

	d = newRoot(t, root, WithHidden(true))
	assert.Equal(t, Include, d.Eligible(filepath.Join(root, ".env"), false))

	writeFile(t, filepath.Join(root, ".ignore"), "!.env\n")
	d = newRoot(t, root)
	assert.Equal(t, Include, d.Eligible(filepath.Join(root, ".env"), false), "whitelisted hidden files are searched")
}

func TestTypes(t *testing.T) {
	root := t.TempDir()
	tm, err := types.NewBuilder().AddDefaults().Select("go").Build()
	require.NoError(t, err)

	d := newRoot(t, root, WithTypes(tm))
	assert.Equal(t, Include, d.Eligible(filepath.Join(root, "main.go"), false))
	assert.Equal(t, Exclude, d.Eligible(filepath.Join(root, "README.md"), false))
	assert.Equal(t, Include, d.Eligible(filepath.Join(root, "docs"), true))

	tm, err = types.NewBuilder().AddDefaults().Negate("markdown").Build()
	require.NoError(t, err)
	d = newRoot(t, root, WithTypes(tm))
	assert.Equal(t, Exclude, d.Eligible(filepath.Join(root, "README.md"), false))
	assert.Equal(t, Include, d.Eligible(filepath.Join(root, "main.go"), false))
}

func TestTypeRejectionBeatsGitignoreWhitelist(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "!README.md\n")
	tm, err := types.NewBuilder().AddDefaults().Select("go").Build()
	require.NoError(t, err)

	d := newRoot(t, root, WithTypes(tm))
	assert.Equal(t, Exclude, d.Eligible(filepath.Join(root, "README.md"), false))
}

func TestIgnoreTierBeatsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "*.log\n")
	writeFile(t, filepath.Join(root, ".ignore"), "!debug.log\n")

	d := newRoot(t, root)
	assert.Equal(t, Include, d.Eligible(filepath.Join(root, "debug.log"), false))
	assert.Equal(t, Exclude, d.Eligible(filepath.Join(root, "other.log"), false))

	d = newRoot(t, root, WithIgnoreFiles(false))
	assert.Equal(t, Exclude, d.Eligible(filepath.Join(root, "debug.log"), false))

	d = newRoot(t, root, WithVCSIgnore(false))
	assert.Equal(t, Include, d.Eligible(filepath.Join(root, "other.log"), false))
}

func TestDeeperFrameWins(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "*.txt\n")
	writeFile(t, filepath.Join(root, "sub", ".gitignore"), "!keep.txt\n")

	d := newRoot(t, root)
	sub, errs := d.AddChild(filepath.Join(root, "sub"))
	require.Empty(t, errs)
	require.NotSame(t, d, sub)

	assert.Equal(t, Exclude, d.Eligible(filepath.Join(root, "keep.txt"), false))
	assert.Equal(t, Include, sub.Eligible(filepath.Join(root, "sub", "keep.txt"), false))
	assert.Equal(t, Exclude, sub.Eligible(filepath.Join(root, "sub", "other.txt"), false))
}

func TestAddChildPassThroughAndImmutable(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "*.o\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "plain"), 0o755))
	writeFile(t, filepath.Join(root, "rules", ".gitignore"), "*.c\n")

	d := newRoot(t, root)
	depth := d.Depth()

	plain, errs := d.AddChild(filepath.Join(root, "plain"))
	require.Empty(t, errs)
	assert.Same(t, d, plain)

	rules, errs := d.AddChild(filepath.Join(root, "rules"))
	require.Empty(t, errs)
	assert.Same(t, d, rules.Parent())
	assert.Equal(t, depth+1, rules.Depth())
	assert.Equal(t, depth, d.Depth())

	assert.Equal(t, Include, d.Eligible(filepath.Join(root, "x.c"), false))
	assert.Equal(t, Exclude, rules.Eligible(filepath.Join(root, "rules", "x.c"), false))
	assert.Equal(t, Exclude, rules.Eligible(filepath.Join(root, "rules", "x.o"), false))
}

func TestAddChildReportsLineErrors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sub", ".gitignore"), "a[\n*.tmp\n")

	d := newRoot(t, root)
	sub, errs := d.AddChild(filepath.Join(root, "sub"))
	require.Len(t, errs, 1)
	assert.True(t, serrors.IsKind(errs[0], serrors.KindPattern))
	assert.Equal(t, Exclude, sub.Eligible(filepath.Join(root, "sub", "x.tmp"), false), "valid lines still apply")
}

func TestParentIgnoreFiles(t *testing.T) {
	top := t.TempDir()
	writeFile(t, filepath.Join(top, ".gitignore"), "*.tmp\n")
	root := filepath.Join(top, "project")
	require.NoError(t, os.MkdirAll(root, 0o755))

	m, err := New(WithGlobal(false))
	require.NoError(t, err)
	d, errs := m.Root(root)
	require.Empty(t, errs)
	assert.Equal(t, Exclude, d.Eligible(filepath.Join(root, "x.tmp"), false))

	// The cached chain serves a second root.
	d, _ = m.Root(root)
	assert.Equal(t, Exclude, d.Eligible(filepath.Join(root, "y.tmp"), false))

	m, err = New(WithGlobal(false), WithParents(false))
	require.NoError(t, err)
	d, _ = m.Root(root)
	assert.Equal(t, Include, d.Eligible(filepath.Join(root, "x.tmp"), false))
}

func TestParentGitignoreStopsAtRepository(t *testing.T) {
	top := t.TempDir()
	writeFile(t, filepath.Join(top, ".gitignore"), "*.tmp\n")
	root := filepath.Join(top, "repo")
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "info"), 0o755))
	writeFile(t, filepath.Join(root, ".git", "info", "exclude"), "*.secret\n")

	m, err := New(WithGlobal(false))
	require.NoError(t, err)
	d, errs := m.Root(root)
	require.Empty(t, errs)
	assert.Equal(t, Include, d.Eligible(filepath.Join(root, "x.tmp"), false))
	assert.Equal(t, Exclude, d.Eligible(filepath.Join(root, "k.secret"), false))
}

func TestExplicitIgnoreFiles(t *testing.T) {
	root := t.TempDir()
	dir := t.TempDir()
	first := filepath.Join(dir, "first")
	second := filepath.Join(dir, "second")
	writeFile(t, first, "*.bak\n")
	writeFile(t, second, "!keep.bak\n")

	d := newRoot(t, root, WithExplicitFiles([]string{first, second}))
	assert.Equal(t, Exclude, d.Eligible(filepath.Join(root, "x.bak"), false))
	assert.Equal(t, Include, d.Eligible(filepath.Join(root, "keep.bak"), false))

	_, err := New(isolated(WithExplicitFiles([]string{filepath.Join(dir, "missing")}))...)
	require.Error(t, err)
	assert.True(t, serrors.IsKind(err, serrors.KindIO))
}

func TestNewFromConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "*.log\n")
	writeFile(t, filepath.Join(root, ".ignore"), "*.tmp\n")

	m, err := NewFromConfig(Config{NoParents: true, NoGlobal: true})
	require.NoError(t, err)
	d, _ := m.Root(root)
	assert.Equal(t, Exclude, d.Eligible(filepath.Join(root, "a.log"), false))
	assert.Equal(t, Exclude, d.Eligible(filepath.Join(root, "a.tmp"), false))

	m, err = NewFromConfig(Config{NoIgnore: true, NoGlobal: true})
	require.NoError(t, err)
	assert.False(t, m.HasFileRules())
	d, _ = m.Root(root)
	assert.Equal(t, Include, d.Eligible(filepath.Join(root, "a.log"), false))
	assert.Equal(t, Include, d.Eligible(filepath.Join(root, "a.tmp"), false))

	m, err = NewFromConfig(Config{NoIgnoreDot: true, NoParents: true, NoGlobal: true})
	require.NoError(t, err)
	d, _ = m.Root(root)
	assert.Equal(t, Exclude, d.Eligible(filepath.Join(root, "a.log"), false))
	assert.Equal(t, Include, d.Eligible(filepath.Join(root, "a.tmp"), false))
}

// TestAgreesWithGoGitignore cross-checks single-component rules against an
// independent gitignore implementation.
func TestAgreesWithGoGitignore(t *testing.T) {
	rules := "*.log\n!keep.log\nbuild/\n/root.txt\n*.o\ntmp\n"

	gb := NewGitignoreBuilder("")
	for i, l := range strings.Split(rules, "\n") {
		require.NoError(t, gb.AddLine("oracle", i+1, l))
	}
	ours, err := gb.Build()
	require.NoError(t, err)

	base := t.TempDir()
	theirs := gitignore.New(strings.NewReader(rules), base, nil)

	paths := []struct {
		path  string
		isDir bool
	}{
		{"a.log", false},
		{"sub/a.log", false},
		{"keep.log", false},
		{"sub/keep.log", false},
		{"build", true},
		{"sub/build", true},
		{"root.txt", false},
		{"sub/root.txt", false},
		{"main.o", false},
		{"a/b/c.o", false},
		{"tmp", true},
		{"tmp", false},
		{"x/tmp", false},
		{"main.go", false},
	}
	for _, p := range paths {
		t.Run(p.path, func(t *testing.T) {
			want := None
			if m := theirs.Relative(p.path, p.isDir); m != nil {
				if m.Ignore() {
					want = Ignore
				} else {
					want = Whitelist
				}
			}
			assert.Equal(t, want, ours.Matched(p.path, p.isDir).Decision)
		})
	}
}
