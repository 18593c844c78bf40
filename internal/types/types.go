// Package types maps file names to named file types and narrows a search to
// selected types.
package types

import (
	"fmt"
	"sort"
	"strings"

	serrors "github.com/bethropolis/needle/internal/errors"
	"github.com/bethropolis/needle/internal/glob"
)

// Decision is the outcome of matching a path against type selections.
type Decision int

const (
	// Unmatched means type selection has no opinion about the path.
	Unmatched Decision = iota
	// Selected means the path belongs to a selected type.
	Selected
	// Rejected means the path belongs to a negated type, or types were
	// selected and the path belongs to none of them.
	Rejected
)

func (d Decision) String() string {
	switch d {
	case Selected:
		return "selected"
	case Rejected:
		return "rejected"
	default:
		return "unmatched"
	}
}

// Definition is a named file type and the globs recognizing it.
type Definition struct {
	Name  string
	Globs []string
}

// Builder collects definitions and selections.
type Builder struct {
	defs     map[string][]string
	selected []string
	negated  []string
}

// NewBuilder returns a builder with no definitions.
func NewBuilder() *Builder {
	return &Builder{defs: make(map[string][]string)}
}

// AddDefaults adds the built-in definitions.
func (b *Builder) AddDefaults() *Builder {
	for name, globs := range defaultTypes {
		for _, g := range globs {
			b.Add(name, g)
		}
	}
	return b
}

// Add appends glob to the definition of name.
func (b *Builder) Add(name, glob string) *Builder {
	b.defs[name] = append(b.defs[name], glob)
	return b
}

// AddDef parses a "name:glob" definition as given to --type-add. Several
// globs may be separated by commas.
func (b *Builder) AddDef(def string) error {
	name, globs, ok := strings.Cut(def, ":")
	if !ok || name == "" || globs == "" {
		return serrors.New(serrors.ErrCodeTypeSyntax,
			fmt.Sprintf("invalid type definition %q (format is name:glob, e.g. html:*.html)", def), nil)
	}
	for _, g := range strings.Split(globs, ",") {
		if g = strings.TrimSpace(g); g != "" {
			b.Add(name, g)
		}
	}
	return nil
}

// Clear removes every glob of name.
func (b *Builder) Clear(name string) *Builder {
	delete(b.defs, name)
	return b
}

// Select narrows the search to name. Several selections are unioned.
func (b *Builder) Select(name string) *Builder {
	b.selected = append(b.selected, name)
	return b
}

// Negate excludes files of type name.
func (b *Builder) Negate(name string) *Builder {
	b.negated = append(b.negated, name)
	return b
}

// Definitions returns the current definitions sorted by name, each with
// sorted globs.
func (b *Builder) Definitions() []Definition {
	defs := make([]Definition, 0, len(b.defs))
	for name, globs := range b.defs {
		g := append([]string(nil), globs...)
		sort.Strings(g)
		defs = append(defs, Definition{Name: name, Globs: g})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Matcher answers type questions about paths. It is immutable and safe for
// concurrent use.
type Matcher struct {
	// selection holds globs of selected types followed by globs of negated
	// types; negated reports which is which.
	selection   *glob.Set
	negated     []bool
	hasSelected bool

	// all holds every definition for Classify; owners maps an index to its
	// type name.
	all    *glob.Set
	owners []string
}

// Build compiles the selections. An unknown type name is a PatternError.
func (b *Builder) Build() (*Matcher, error) {
	m := &Matcher{hasSelected: len(b.selected) > 0}

	sel := glob.NewBuilder()
	addSelection := func(names []string, negated bool) error {
		for _, name := range names {
			globs, ok := b.defs[name]
			if !ok {
				e := serrors.New(serrors.ErrCodeUnknownType, fmt.Sprintf("unrecognized file type: %s", name), nil)
				return e.WithSuggestion("list the known types with --type-list")
			}
			for _, g := range globs {
				p, err := compile(g)
				if err != nil {
					return err
				}
				sel.Add(p)
				m.negated = append(m.negated, negated)
			}
		}
		return nil
	}
	if err := addSelection(b.selected, false); err != nil {
		return nil, err
	}
	if err := addSelection(b.negated, true); err != nil {
		return nil, err
	}
	var err error
	if m.selection, err = sel.Build(); err != nil {
		return nil, fmt.Errorf("types: %w", err)
	}

	all := glob.NewBuilder()
	for _, def := range b.Definitions() {
		for _, g := range def.Globs {
			p, err := compile(g)
			if err != nil {
				return nil, err
			}
			all.Add(p)
			m.owners = append(m.owners, def.Name)
		}
	}
	if m.all, err = all.Build(); err != nil {
		return nil, fmt.Errorf("types: %w", err)
	}
	return m, nil
}

// compile treats a glob without '/' as matching the file name at any depth.
func compile(g string) (*glob.Pattern, error) {
	if !strings.Contains(g, "/") {
		g = "**/" + g
	}
	return glob.New(g, glob.WithLiteralSeparator(true))
}

// IsEmpty reports whether no type was selected or negated.
func (m *Matcher) IsEmpty() bool {
	return m == nil || m.selection.IsEmpty()
}

// Matched decides path against the selections. Directories are always
// Unmatched; type filters never prune the walk.
func (m *Matcher) Matched(path string, isDir bool) Decision {
	if isDir || m.IsEmpty() {
		return Unmatched
	}
	i := m.selection.LastMatch(path, false)
	switch {
	case i < 0 && m.hasSelected:
		return Rejected
	case i < 0:
		return Unmatched
	case m.negated[i]:
		return Rejected
	default:
		return Selected
	}
}

// Classify returns the sorted names of every defined type path belongs to.
func (m *Matcher) Classify(path string) []string {
	if m == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var names []string
	for _, i := range m.all.Matches(path) {
		name := m.owners[i]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
