// Package matcher compiles the search patterns into one line matcher.
package matcher

import (
	"fmt"
	"regexp"
	"regexp/syntax"
	"strings"
	"unicode"
	"unsafe"

	serrors "github.com/bethropolis/needle/internal/errors"
)

// DefaultSizeLimit bounds the compiled program of the search regex.
const DefaultSizeLimit = 10 << 20

const instBytes = int64(unsafe.Sizeof(syntax.Inst{}))

// Options controls how patterns are interpreted.
type Options struct {
	CaseInsensitive bool
	// SmartCase matches case-insensitively unless a pattern contains an
	// uppercase letter.
	SmartCase bool
	// Fixed treats patterns as literal strings.
	Fixed bool
	// Word only matches at word boundaries.
	Word bool
	// SizeLimit in bytes; zero means DefaultSizeLimit.
	SizeLimit int64
}

// Regex matches lines. It runs in multi-line mode so that it can also
// scan a buffer of many lines at once; '^' and '$' match at line breaks.
// Safe for concurrent use.
type Regex struct {
	re              *regexp.Regexp
	source          string
	caseInsensitive bool
}

// Compile joins patterns into one alternation. An empty pattern matches
// every line.
func Compile(patterns []string, opts Options) (*Regex, error) {
	if len(patterns) == 0 {
		return nil, serrors.New(serrors.ErrCodeRegexSyntax, "no pattern given", nil)
	}

	parts := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if opts.Fixed {
			p = regexp.QuoteMeta(p)
		} else if _, err := syntax.Parse(p, syntax.Perl); err != nil {
			return nil, serrors.Pattern(serrors.ErrCodeRegexSyntax, p, syntaxReason(err))
		}
		if opts.Word {
			p = `\b(?:` + p + `)\b`
		}
		parts = append(parts, "(?:"+p+")")
	}

	ci := opts.CaseInsensitive || (opts.SmartCase && !hasUppercase(patterns, opts.Fixed))
	flags := "(?m)"
	if ci {
		flags = "(?mi)"
	}
	expr := flags + strings.Join(parts, "|")

	limit := opts.SizeLimit
	if limit <= 0 {
		limit = DefaultSizeLimit
	}
	if err := checkSize(expr, limit); err != nil {
		return nil, err
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, serrors.New(serrors.ErrCodeRegexSyntax, "invalid combined pattern", err)
	}
	return &Regex{re: re, source: expr, caseInsensitive: ci}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(patterns []string, opts Options) *Regex {
	r, err := Compile(patterns, opts)
	if err != nil {
		panic(err)
	}
	return r
}

func checkSize(expr string, limit int64) error {
	parsed, err := syntax.Parse(expr, syntax.Perl)
	if err != nil {
		return serrors.New(serrors.ErrCodeRegexSyntax, "invalid combined pattern", err)
	}
	prog, err := syntax.Compile(parsed.Simplify())
	if err != nil {
		return serrors.New(serrors.ErrCodeRegexSyntax, "invalid combined pattern", err)
	}
	if size := int64(len(prog.Inst)) * instBytes; size > limit {
		return serrors.Capacity(serrors.ErrCodeRegexTooLarge, "regex", size, limit, "--regex-size-limit")
	}
	return nil
}

func syntaxReason(err error) string {
	if se, ok := err.(*syntax.Error); ok {
		return fmt.Sprintf("%s: `%s`", se.Code, se.Expr)
	}
	return err.Error()
}

// hasUppercase reports whether any pattern mentions an uppercase letter
// as a literal or inside a character class.
func hasUppercase(patterns []string, fixed bool) bool {
	for _, p := range patterns {
		if fixed {
			if strings.IndexFunc(p, unicode.IsUpper) >= 0 {
				return true
			}
			continue
		}
		re, err := syntax.Parse(p, syntax.Perl)
		if err != nil {
			continue
		}
		if upperIn(re) {
			return true
		}
	}
	return false
}

func upperIn(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpLiteral:
		for _, r := range re.Rune {
			if unicode.IsUpper(r) {
				return true
			}
		}
	case syntax.OpCharClass:
		for i := 0; i+1 < len(re.Rune); i += 2 {
			if unicode.IsUpper(re.Rune[i]) || unicode.IsUpper(re.Rune[i+1]) {
				return true
			}
		}
	}
	for _, sub := range re.Sub {
		if upperIn(sub) {
			return true
		}
	}
	return false
}

// String returns the compiled expression.
func (r *Regex) String() string { return r.source }

// CaseInsensitive reports whether the expression ignores case.
func (r *Regex) CaseInsensitive() bool { return r.caseInsensitive }

// Match reports whether b contains a match.
func (r *Regex) Match(b []byte) bool { return r.re.Match(b) }

// FindLeftmost returns the first match in b.
func (r *Regex) FindLeftmost(b []byte) (start, end int, ok bool) {
	loc := r.re.FindIndex(b)
	if loc == nil {
		return 0, 0, false
	}
	return loc[0], loc[1], true
}

// FindAll returns the spans of every non-overlapping match in b.
func (r *Regex) FindAll(b []byte) [][2]int {
	locs := r.re.FindAllIndex(b, -1)
	if len(locs) == 0 {
		return nil
	}
	spans := make([][2]int, len(locs))
	for i, loc := range locs {
		spans[i] = [2]int{loc[0], loc[1]}
	}
	return spans
}
