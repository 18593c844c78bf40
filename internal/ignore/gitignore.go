package ignore

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	serrors "github.com/bethropolis/needle/internal/errors"
	"github.com/bethropolis/needle/internal/glob"
)

// Decision is what a rule source says about a path.
type Decision int

const (
	// None means no rule matched.
	None Decision = iota
	// Ignore means the path is excluded.
	Ignore
	// Whitelist means the path is explicitly re-included.
	Whitelist
)

func (d Decision) String() string {
	switch d {
	case Ignore:
		return "ignore"
	case Whitelist:
		return "whitelist"
	default:
		return "none"
	}
}

// Rule is one parsed ignore line.
type Rule struct {
	// File is where the rule came from ("<argv>" for command line globs).
	File string
	// Line is the 1-based line in File, or 0.
	Line int
	// Original is the line as written.
	Original string
	// Negated is set for '!' rules.
	Negated bool
	// DirOnly is set for rules with a trailing '/'.
	DirOnly bool
}

func (r *Rule) String() string {
	if r.Line > 0 {
		return fmt.Sprintf("%s:%d:%s", r.File, r.Line, r.Original)
	}
	return fmt.Sprintf("%s:%s", r.File, r.Original)
}

// Match is a decision plus the rule that produced it.
type Match struct {
	Decision Decision
	Rule     *Rule
}

// IsNone reports whether no rule matched.
func (m Match) IsNone() bool { return m.Decision == None }

// invert swaps Ignore and Whitelist; used for overrides and type
// selections where a plain glob means "include".
func (m Match) invert() Match {
	switch m.Decision {
	case Ignore:
		m.Decision = Whitelist
	case Whitelist:
		m.Decision = Ignore
	}
	return m
}

// Gitignore is a compiled set of ignore rules rooted at one directory.
// Immutable and safe for concurrent use.
type Gitignore struct {
	root          string
	set           *glob.Set
	rules         []*Rule
	numIgnores    int
	numWhitelists int
}

// Root returns the directory the rules are relative to.
func (g *Gitignore) Root() string { return g.root }

// Len returns the number of rules.
func (g *Gitignore) Len() int {
	if g == nil {
		return 0
	}
	return len(g.rules)
}

// NumIgnores returns the number of non-negated rules.
func (g *Gitignore) NumIgnores() int { return g.numIgnores }

// NumWhitelists returns the number of negated rules.
func (g *Gitignore) NumWhitelists() int { return g.numWhitelists }

// Matched decides rel, a slash separated path relative to Root. The last
// matching rule wins.
func (g *Gitignore) Matched(rel string, isDir bool) Match {
	if g == nil || len(g.rules) == 0 || rel == "" {
		return Match{}
	}
	i := g.set.LastMatch(rel, isDir)
	if i < 0 {
		return Match{}
	}
	r := g.rules[i]
	if r.Negated {
		return Match{Decision: Whitelist, Rule: r}
	}
	return Match{Decision: Ignore, Rule: r}
}

// GitignoreBuilder accumulates rules from lines and files.
type GitignoreBuilder struct {
	root            string
	caseInsensitive bool
	sizeLimit       int64
	patterns        []*glob.Pattern
	rules           []*Rule
	lineErrs        []error
}

// NewGitignoreBuilder starts a rule set rooted at root.
func NewGitignoreBuilder(root string) *GitignoreBuilder {
	return &GitignoreBuilder{root: root}
}

// CaseInsensitive makes rules added afterwards match regardless of case.
func (gb *GitignoreBuilder) CaseInsensitive(yes bool) *GitignoreBuilder {
	gb.caseInsensitive = yes
	return gb
}

// SizeLimit bounds the compiled set; see glob.WithSizeLimit.
func (gb *GitignoreBuilder) SizeLimit(limit int64) *GitignoreBuilder {
	gb.sizeLimit = limit
	return gb
}

// AddFile reads every line of path. Malformed lines are skipped and kept
// for LineErrors; the returned error is an IoError for an unreadable file.
func (gb *GitignoreBuilder) AddFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return serrors.IO("open", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if err := gb.AddLine(path, lineNo, sc.Text()); err != nil {
			gb.lineErrs = append(gb.lineErrs, err)
		}
	}
	if err := sc.Err(); err != nil {
		return serrors.IO("read", path, err)
	}
	return nil
}

// LineErrors returns the PatternErrors of lines skipped by AddFile.
func (gb *GitignoreBuilder) LineErrors() []error {
	return gb.lineErrs
}

// AddLine parses one line in gitignore syntax. Blank lines and comments
// are accepted and produce no rule.
func (gb *GitignoreBuilder) AddLine(from string, lineNo int, line string) error {
	line = strings.TrimSuffix(line, "\r")
	if !strings.HasSuffix(line, `\ `) {
		line = strings.TrimRight(line, " \t")
	}
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	rule := &Rule{File: from, Line: lineNo, Original: line}
	pat := line
	anchored := false
	if strings.HasPrefix(pat, `\!`) || strings.HasPrefix(pat, `\#`) {
		pat = pat[1:]
	} else {
		if strings.HasPrefix(pat, "!") {
			rule.Negated = true
			pat = pat[1:]
		}
		if strings.HasPrefix(pat, "/") {
			anchored = true
			pat = pat[1:]
		}
	}
	if strings.HasSuffix(pat, "/") {
		rule.DirOnly = true
		pat = strings.TrimSuffix(pat, "/")
	}
	if pat == "" {
		return nil
	}
	// A slash anywhere keeps wildcards within one path component.
	literalSep := anchored || strings.Contains(pat, "/")
	if !anchored && !strings.HasPrefix(pat, "**/") {
		pat = "**/" + pat
	}
	// "dir/**" matches everything inside dir but not dir itself.
	if strings.HasSuffix(pat, "/**") {
		pat += "/*"
	}

	p, err := glob.New(pat,
		glob.WithLiteralSeparator(literalSep),
		glob.WithCaseInsensitive(gb.caseInsensitive),
		glob.WithNegated(rule.Negated),
		glob.WithDirOnly(rule.DirOnly),
		glob.WithAnchored(anchored))
	if err != nil {
		e := serrors.New(serrors.ErrCodeIgnoreSyntax, fmt.Sprintf("invalid ignore rule %q", line), stripGlobPrefix(err))
		e.Path = from
		return e.WithLine(lineNo)
	}
	gb.patterns = append(gb.patterns, p)
	gb.rules = append(gb.rules, rule)
	return nil
}

// stripGlobPrefix keeps only the syntax cause of a glob parse error.
func stripGlobPrefix(err error) error {
	if se, ok := err.(*serrors.SearchError); ok && se.Cause != nil {
		return se.Cause
	}
	return err
}

// Build compiles the accumulated rules.
func (gb *GitignoreBuilder) Build() (*Gitignore, error) {
	b := glob.NewBuilder(glob.WithSizeLimit(gb.sizeLimit))
	g := &Gitignore{root: gb.root, rules: gb.rules}
	for i, p := range gb.patterns {
		b.Add(p)
		if gb.rules[i].Negated {
			g.numWhitelists++
		} else {
			g.numIgnores++
		}
	}
	set, err := b.Build()
	if err != nil {
		return nil, err
	}
	g.set = set
	return g, nil
}
