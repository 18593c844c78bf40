// Package glob parses shell glob patterns and matches paths against ordered
// sets of them.
package glob

import (
	stderrors "errors"
	"fmt"
	"regexp"
	"sync"

	serrors "github.com/bethropolis/needle/internal/errors"
)

// Syntax errors. Parse failures wrap one of these in a PatternError.
var (
	ErrInvalidRecursive   = stderrors.New("invalid use of **; must be one path component")
	ErrUnclosedClass      = stderrors.New("unclosed character class; missing ']'")
	ErrInvalidRange       = stderrors.New("invalid character range")
	ErrUnopenedAlternates = stderrors.New("unopened alternate group; missing '{'")
	ErrUnclosedAlternates = stderrors.New("unclosed alternate group; missing '}'")
	ErrNestedAlternates   = stderrors.New("nested alternate groups are not allowed")
)

type tokenKind int

const (
	tokLiteral tokenKind = iota
	tokAny
	tokZeroOrMore
	tokRecursivePrefix
	tokRecursiveSuffix
	tokRecursiveZeroOrMore
	tokClass
	tokAlternates
)

type charRange struct {
	lo, hi rune
}

type token struct {
	kind     tokenKind
	lit      rune
	negated  bool
	ranges   []charRange
	branches [][]token
}

// Pattern is one parsed glob. It is immutable once returned by New.
type Pattern struct {
	glob   string
	tokens []token

	caseInsensitive  bool
	literalSeparator bool
	negated          bool
	dirOnly          bool
	anchored         bool

	once sync.Once
	re   *regexp.Regexp
}

// Option configures a Pattern.
type Option func(*Pattern)

// WithCaseInsensitive makes the pattern match regardless of case.
func WithCaseInsensitive(yes bool) Option {
	return func(p *Pattern) {
		p.caseInsensitive = yes
	}
}

// WithLiteralSeparator forbids * and ? from matching '/'.
func WithLiteralSeparator(yes bool) Option {
	return func(p *Pattern) {
		p.literalSeparator = yes
	}
}

// WithNegated marks the pattern as a negation ('!' prefix in ignore files,
// a whitelist). Matching itself is unaffected.
func WithNegated(yes bool) Option {
	return func(p *Pattern) {
		p.negated = yes
	}
}

// WithDirOnly restricts the pattern to directories (trailing '/').
func WithDirOnly(yes bool) Option {
	return func(p *Pattern) {
		p.dirOnly = yes
	}
}

// WithAnchored records that the pattern was anchored by a leading '/'.
func WithAnchored(yes bool) Option {
	return func(p *Pattern) {
		p.anchored = yes
	}
}

// New parses glob. Errors are PatternErrors wrapping one of the Err*
// syntax errors of this package.
func New(glob string, opts ...Option) (*Pattern, error) {
	p := &Pattern{glob: glob}
	for _, opt := range opts {
		opt(p)
	}
	tokens, err := parse(glob)
	if err != nil {
		return nil, serrors.New(serrors.ErrCodeGlobSyntax, fmt.Sprintf("invalid glob %q", glob), err)
	}
	p.tokens = tokens
	return p, nil
}

// MustNew is like New but panics on error. Used for built-in tables.
func MustNew(glob string, opts ...Option) *Pattern {
	p, err := New(glob, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Glob returns the source text the pattern was parsed from.
func (p *Pattern) Glob() string { return p.glob }

// Negated reports whether the pattern is a whitelist.
func (p *Pattern) Negated() bool { return p.negated }

// DirOnly reports whether the pattern only applies to directories.
func (p *Pattern) DirOnly() bool { return p.dirOnly }

// Anchored reports whether the pattern was anchored with a leading '/'.
func (p *Pattern) Anchored() bool { return p.anchored }

func (p *Pattern) String() string { return p.glob }

// Match reports whether path matches the pattern on its own. Sets should be
// preferred for matching many patterns at once.
func (p *Pattern) Match(path string) bool {
	p.once.Do(func() {
		p.re = regexp.MustCompile(p.Regex())
	})
	return p.re.MatchString(normalize(path))
}

type parser struct {
	runes []rune
	pos   int
	prev  rune
	cur   rune

	tokens []token
	// alts is non-nil while inside {...}; the last branch receives tokens.
	alts [][]token
}

const noRune = -1

func parse(glob string) ([]token, error) {
	ps := &parser{runes: []rune(glob), prev: noRune, cur: noRune}
	for {
		c, ok := ps.bump()
		if !ok {
			break
		}
		var err error
		switch c {
		case '?':
			ps.push(token{kind: tokAny})
		case '*':
			err = ps.parseStar()
		case '[':
			err = ps.parseClass()
		case '{':
			err = ps.openAlternates()
		case '}':
			err = ps.closeAlternates()
		case ',':
			if ps.alts != nil {
				ps.alts = append(ps.alts, nil)
			} else {
				ps.push(token{kind: tokLiteral, lit: c})
			}
		case '\\':
			if next, ok := ps.bump(); ok {
				ps.push(token{kind: tokLiteral, lit: next})
			} else {
				ps.push(token{kind: tokLiteral, lit: '\\'})
			}
		default:
			ps.push(token{kind: tokLiteral, lit: c})
		}
		if err != nil {
			return nil, err
		}
	}
	if ps.alts != nil {
		return nil, ErrUnclosedAlternates
	}
	return ps.tokens, nil
}

func (ps *parser) bump() (rune, bool) {
	ps.prev = ps.cur
	if ps.pos >= len(ps.runes) {
		ps.cur = noRune
		return noRune, false
	}
	ps.cur = ps.runes[ps.pos]
	ps.pos++
	return ps.cur, true
}

func (ps *parser) peek() rune {
	if ps.pos >= len(ps.runes) {
		return noRune
	}
	return ps.runes[ps.pos]
}

// current returns the token list being appended to.
func (ps *parser) current() *[]token {
	if ps.alts != nil {
		return &ps.alts[len(ps.alts)-1]
	}
	return &ps.tokens
}

func (ps *parser) push(t token) {
	cur := ps.current()
	*cur = append(*cur, t)
}

func (ps *parser) parseStar() error {
	prev := ps.prev
	if ps.peek() != '*' {
		ps.push(token{kind: tokZeroOrMore})
		return nil
	}
	ps.bump()
	cur := ps.current()
	if len(*cur) == 0 {
		ps.push(token{kind: tokRecursivePrefix})
		switch {
		case ps.peek() == '/':
			ps.bump()
		case !ps.atComponentEnd():
			return ErrInvalidRecursive
		}
		return nil
	}
	// The previous token is the '/' literal that the recursive token
	// absorbs.
	if prev != '/' {
		return ErrInvalidRecursive
	}
	*cur = (*cur)[:len(*cur)-1]
	switch {
	case ps.peek() == '/':
		ps.bump()
		ps.push(token{kind: tokRecursiveZeroOrMore})
	case ps.atComponentEnd():
		ps.push(token{kind: tokRecursiveSuffix})
	default:
		return ErrInvalidRecursive
	}
	return nil
}

// atComponentEnd reports whether the next rune ends the glob or the current
// alternate branch.
func (ps *parser) atComponentEnd() bool {
	next := ps.peek()
	if next == noRune {
		return true
	}
	return ps.alts != nil && (next == ',' || next == '}')
}

func (ps *parser) parseClass() error {
	var ranges []charRange
	negated := false
	if c := ps.peek(); c == '!' || c == '^' {
		ps.bump()
		negated = true
	}
	first := true
	inRange := false
	for {
		c, ok := ps.bump()
		if !ok {
			return ErrUnclosedClass
		}
		switch {
		case c == ']':
			if !first {
				if inRange {
					ranges = append(ranges, charRange{'-', '-'})
				}
				ps.push(token{kind: tokClass, negated: negated, ranges: ranges})
				return nil
			}
			ranges = append(ranges, charRange{']', ']'})
		case c == '-':
			switch {
			case first:
				ranges = append(ranges, charRange{'-', '-'})
			case inRange:
				if err := extendRange(&ranges[len(ranges)-1], '-'); err != nil {
					return err
				}
				inRange = false
			default:
				inRange = true
			}
		default:
			if c == '\\' {
				if next, ok := ps.bump(); ok {
					c = next
				}
			}
			if inRange {
				if err := extendRange(&ranges[len(ranges)-1], c); err != nil {
					return err
				}
			} else {
				ranges = append(ranges, charRange{c, c})
			}
			inRange = false
		}
		first = false
	}
}

func extendRange(r *charRange, hi rune) error {
	r.hi = hi
	if r.hi < r.lo {
		return fmt.Errorf("%w: '%c' > '%c'", ErrInvalidRange, r.lo, r.hi)
	}
	return nil
}

func (ps *parser) openAlternates() error {
	if ps.alts != nil {
		return ErrNestedAlternates
	}
	ps.alts = [][]token{nil}
	return nil
}

func (ps *parser) closeAlternates() error {
	if ps.alts == nil {
		return ErrUnopenedAlternates
	}
	branches := ps.alts
	ps.alts = nil
	ps.push(token{kind: tokAlternates, branches: branches})
	return nil
}
