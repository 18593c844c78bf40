package glob

import (
	"fmt"
	"path/filepath"
	"regexp"
	"regexp/syntax"
	"sort"
	"strings"
	"unsafe"

	serrors "github.com/bethropolis/needle/internal/errors"
)

// DefaultSizeLimit bounds the compiled program of a set's combined
// expressions, in bytes.
const DefaultSizeLimit = 10 << 20

// instBytes approximates the memory of one compiled instruction.
const instBytes = int64(unsafe.Sizeof(syntax.Inst{}))

// strategy is how a single pattern is matched inside a Set.
type strategy int

const (
	strategyLiteral strategy = iota
	strategyBasenameLiteral
	strategyExtension
	strategyPrefix
	strategySuffix
	strategyRequiredExtension
	strategyRegex
)

func (s strategy) String() string {
	return [...]string{"literal", "basename", "extension", "prefix", "suffix", "required-extension", "regex"}[s]
}

// Builder accumulates patterns for a Set.
type Builder struct {
	patterns  []*Pattern
	sizeLimit int64
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithSizeLimit sets the compiled size limit in bytes. Zero or less means
// DefaultSizeLimit.
func WithSizeLimit(limit int64) BuilderOption {
	return func(b *Builder) {
		if limit > 0 {
			b.sizeLimit = limit
		}
	}
}

// NewBuilder creates an empty builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{sizeLimit: DefaultSizeLimit}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add appends p. Its index in the built set is the number of patterns added
// before it.
func (b *Builder) Add(p *Pattern) *Builder {
	b.patterns = append(b.patterns, p)
	return b
}

// AddGlob parses glob and appends it.
func (b *Builder) AddGlob(glob string, opts ...Option) error {
	p, err := New(glob, opts...)
	if err != nil {
		return err
	}
	b.Add(p)
	return nil
}

// Len returns the number of patterns added so far.
func (b *Builder) Len() int { return len(b.patterns) }

type indexed struct {
	index int
	re    *regexp.Regexp
}

// Set is an immutable ordered collection of patterns matched together.
type Set struct {
	patterns []*Pattern

	literals  map[string][]int
	basenames map[string][]int
	exts      map[string][]int
	prefixes  []prefixEntry
	suffixes  []prefixEntry
	required  map[string][]indexed

	// general holds the indices of regex-strategy patterns, ascending.
	general []int
	// all and files are the combined expressions over general patterns in
	// descending index order; files leaves out directory-only patterns.
	all      *combined
	files    *combined
	maxRegex int
}

type prefixEntry struct {
	lit   string
	index int
}

type combined struct {
	re *regexp.Regexp
	// groups maps capture group n (1-based) to a pattern index.
	groups []int
}

// Build compiles the set. It fails with a CapacityExceeded error when the
// combined expressions outgrow the size limit.
func (b *Builder) Build() (*Set, error) {
	s := &Set{
		patterns:  append([]*Pattern(nil), b.patterns...),
		literals:  make(map[string][]int),
		basenames: make(map[string][]int),
		exts:      make(map[string][]int),
		required:  make(map[string][]indexed),
		maxRegex:  -1,
	}
	var general, generalFiles []int
	for i, p := range s.patterns {
		strat, lit := classify(p)
		switch strat {
		case strategyLiteral:
			s.literals[lit] = append(s.literals[lit], i)
		case strategyBasenameLiteral:
			s.basenames[lit] = append(s.basenames[lit], i)
		case strategyExtension:
			s.exts[lit] = append(s.exts[lit], i)
		case strategyPrefix:
			s.prefixes = append(s.prefixes, prefixEntry{lit, i})
		case strategySuffix:
			s.suffixes = append(s.suffixes, prefixEntry{lit, i})
		case strategyRequiredExtension:
			re, err := compileLimited(p.Regex(), b.sizeLimit)
			if err != nil {
				return nil, err
			}
			s.required[lit] = append(s.required[lit], indexed{i, re})
		default:
			general = append(general, i)
			if !p.dirOnly {
				generalFiles = append(generalFiles, i)
			}
			s.maxRegex = i
		}
	}

	var err error
	if len(general) > 0 {
		if s.all, err = s.combine(general, b.sizeLimit); err != nil {
			return nil, err
		}
		if len(generalFiles) == len(general) {
			s.files = s.all
		} else if len(generalFiles) > 0 {
			if s.files, err = s.combine(generalFiles, b.sizeLimit); err != nil {
				return nil, err
			}
		}
		s.general = general
	}
	return s, nil
}

func (s *Set) combine(indices []int, limit int64) (*combined, error) {
	var sb strings.Builder
	sb.WriteString("(?s)^(?:")
	c := &combined{groups: make([]int, 0, len(indices))}
	for n := len(indices) - 1; n >= 0; n-- {
		if n != len(indices)-1 {
			sb.WriteByte('|')
		}
		sb.WriteByte('(')
		sb.WriteString(s.patterns[indices[n]].regexBody())
		sb.WriteByte(')')
		c.groups = append(c.groups, indices[n])
	}
	sb.WriteString(")$")
	re, err := compileLimited(sb.String(), limit)
	if err != nil {
		return nil, err
	}
	c.re = re
	return c, nil
}

// highest returns the pattern index of the first alternative that matches,
// which is the highest index because alternatives are in descending order.
func (c *combined) highest(path string) int {
	loc := c.re.FindStringSubmatchIndex(path)
	if loc == nil {
		return -1
	}
	for g := range c.groups {
		if loc[2*(g+1)] >= 0 {
			return c.groups[g]
		}
	}
	return -1
}

func compileLimited(expr string, limit int64) (*regexp.Regexp, error) {
	parsed, err := syntax.Parse(expr, syntax.Perl)
	if err != nil {
		return nil, serrors.New(serrors.ErrCodeGlobSyntax, "glob produced an invalid expression", err)
	}
	prog, err := syntax.Compile(parsed.Simplify())
	if err != nil {
		return nil, serrors.New(serrors.ErrCodeGlobSyntax, "glob produced an invalid expression", err)
	}
	if size := int64(len(prog.Inst)) * instBytes; size > limit {
		return nil, serrors.Capacity(serrors.ErrCodeGlobSetTooLarge, "glob set", size, limit, "--glob-size-limit")
	}
	return regexp.Compile(expr)
}

// Len returns the number of patterns in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.patterns)
}

// IsEmpty reports whether the set has no patterns.
func (s *Set) IsEmpty() bool { return s.Len() == 0 }

// Pattern returns the pattern at index i.
func (s *Set) Pattern(i int) *Pattern { return s.patterns[i] }

// LastMatch returns the highest index of a pattern matching path, or -1.
// Directory-only patterns are considered only when isDir is true.
func (s *Set) LastMatch(path string, isDir bool) int {
	if s == nil || len(s.patterns) == 0 {
		return -1
	}
	c := newCandidate(path)
	best := -1
	consider := func(hits []int) {
		for n := len(hits) - 1; n >= 0; n-- {
			i := hits[n]
			if i <= best {
				return
			}
			if isDir || !s.patterns[i].dirOnly {
				best = i
				return
			}
		}
	}
	consider(s.literals[c.path])
	if c.base != "" {
		consider(s.basenames[c.base])
	}
	if c.ext != "" {
		consider(s.exts[c.ext])
		reqs := s.required[c.ext]
		for n := len(reqs) - 1; n >= 0 && reqs[n].index > best; n-- {
			if (isDir || !s.patterns[reqs[n].index].dirOnly) && reqs[n].re.MatchString(c.path) {
				best = reqs[n].index
				break
			}
		}
	}
	for _, e := range s.prefixes {
		if e.index > best && strings.HasPrefix(c.path, e.lit) && (isDir || !s.patterns[e.index].dirOnly) {
			best = e.index
		}
	}
	for _, e := range s.suffixes {
		if e.index > best && strings.HasSuffix(c.path, e.lit) && (isDir || !s.patterns[e.index].dirOnly) {
			best = e.index
		}
	}
	if s.maxRegex > best {
		re := s.files
		if isDir {
			re = s.all
		}
		if re != nil {
			if i := re.highest(c.path); i > best {
				best = i
			}
		}
	}
	return best
}

// IsMatch reports whether any pattern matches path, directory-only patterns
// included.
func (s *Set) IsMatch(path string) bool {
	return s.LastMatch(path, true) >= 0
}

// Matches returns the indices of every pattern matching path in ascending
// order. General patterns are evaluated one by one.
func (s *Set) Matches(path string) []int {
	if s.IsEmpty() {
		return nil
	}
	c := newCandidate(path)
	var out []int
	out = append(out, s.literals[c.path]...)
	if c.base != "" {
		out = append(out, s.basenames[c.base]...)
	}
	if c.ext != "" {
		out = append(out, s.exts[c.ext]...)
		for _, r := range s.required[c.ext] {
			if r.re.MatchString(c.path) {
				out = append(out, r.index)
			}
		}
	}
	for _, e := range s.prefixes {
		if strings.HasPrefix(c.path, e.lit) {
			out = append(out, e.index)
		}
	}
	for _, e := range s.suffixes {
		if strings.HasSuffix(c.path, e.lit) {
			out = append(out, e.index)
		}
	}
	for _, i := range s.general {
		if s.patterns[i].Match(c.path) {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}

// Describe summarizes how the set is split across strategies, for debug
// logging.
func (s *Set) Describe() string {
	req := 0
	for _, r := range s.required {
		req += len(r)
	}
	return fmt.Sprintf("%d literals, %d basenames, %d extensions, %d prefixes, %d suffixes, %d required extensions, %d regexes",
		countLists(s.literals), countLists(s.basenames), countLists(s.exts),
		len(s.prefixes), len(s.suffixes), req, len(s.general))
}

func countLists(m map[string][]int) int {
	n := 0
	for _, v := range m {
		n += len(v)
	}
	return n
}

type candidate struct {
	path string
	base string
	ext  string
}

func normalize(path string) string {
	path = filepath.ToSlash(path)
	for strings.HasPrefix(path, "./") {
		path = path[2:]
	}
	return path
}

func newCandidate(path string) candidate {
	path = normalize(path)
	base := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		base = path[i+1:]
	}
	ext := ""
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		ext = base[i:]
	}
	return candidate{path: path, base: base, ext: ext}
}

// classify picks the cheapest strategy with the same semantics as the
// pattern's regex, returning the literal the strategy keys on.
func classify(p *Pattern) (strategy, string) {
	if p.caseInsensitive {
		return strategyRegex, ""
	}
	toks := p.tokens
	if lit, ok := literalRun(toks, false); ok {
		return strategyLiteral, lit
	}
	if len(toks) > 0 && toks[0].kind == tokRecursivePrefix {
		rest := toks[1:]
		if lit, ok := literalRun(rest, true); ok && lit != "" {
			return strategyBasenameLiteral, lit
		}
		if len(rest) > 2 && rest[0].kind == tokZeroOrMore && isLit(rest[1], '.') {
			if lit, ok := literalRun(rest[2:], true); ok && lit != "" && !strings.Contains(lit, ".") {
				return strategyExtension, "." + lit
			}
		}
		if len(rest) > 1 && rest[0].kind == tokZeroOrMore {
			if lit, ok := literalRun(rest[1:], p.literalSeparator); ok && lit != "" {
				return strategySuffix, lit
			}
		}
	}
	if !p.literalSeparator && len(toks) > 1 && toks[len(toks)-1].kind == tokZeroOrMore {
		if lit, ok := literalRun(toks[:len(toks)-1], false); ok && lit != "" {
			return strategyPrefix, lit
		}
	}
	if ext, ok := requiredExtension(toks); ok {
		return strategyRequiredExtension, ext
	}
	return strategyRegex, ""
}

// literalRun concatenates toks when all of them are literals. With noSep, a
// '/' literal disqualifies the run.
func literalRun(toks []token, noSep bool) (string, bool) {
	var sb strings.Builder
	for _, t := range toks {
		if t.kind != tokLiteral || (noSep && t.lit == '/') {
			return "", false
		}
		sb.WriteRune(t.lit)
	}
	return sb.String(), true
}

func isLit(t token, r rune) bool {
	return t.kind == tokLiteral && t.lit == r
}

// requiredExtension returns ".ext" when every match must end in that
// extension, i.e. the pattern ends with a '.' literal followed by
// literals containing neither '/' nor '.'.
func requiredExtension(toks []token) (string, bool) {
	var sb []rune
	for n := len(toks) - 1; n >= 0; n-- {
		t := toks[n]
		if t.kind != tokLiteral || t.lit == '/' {
			return "", false
		}
		if t.lit == '.' {
			if len(sb) == 0 || n == 0 {
				return "", false
			}
			for i, j := 0, len(sb)-1; i < j; i, j = i+1, j-1 {
				sb[i], sb[j] = sb[j], sb[i]
			}
			return "." + string(sb), true
		}
		sb = append(sb, t.lit)
	}
	return "", false
}
