package ignore

import "fmt"

// unmatchedOverride is reported for files that no positive glob selected.
var unmatchedOverride = &Rule{File: OverrideSource, Original: "<none>"}

// Overrides are the -g/--glob and --iglob rules. A plain glob includes, a
// '!' glob excludes, and once any plain glob is given, files matching none
// of them are excluded.
type Overrides struct {
	gi *Gitignore
}

// OverrideBuilder collects override globs in command line order.
type OverrideBuilder struct {
	gb *GitignoreBuilder
	n  int
}

// NewOverrideBuilder starts an override set relative to root.
func NewOverrideBuilder(root string) *OverrideBuilder {
	return &OverrideBuilder{gb: NewGitignoreBuilder(root)}
}

// Add appends a case-sensitive glob.
func (ob *OverrideBuilder) Add(glob string) error {
	return ob.add(glob, false)
}

// AddCaseInsensitive appends a glob matched regardless of case (--iglob).
func (ob *OverrideBuilder) AddCaseInsensitive(glob string) error {
	return ob.add(glob, true)
}

func (ob *OverrideBuilder) add(glob string, ci bool) error {
	ob.n++
	ob.gb.CaseInsensitive(ci)
	if err := ob.gb.AddLine(OverrideSource, 0, glob); err != nil {
		return fmt.Errorf("ignore: override %d: %w", ob.n, err)
	}
	return nil
}

// SizeLimit bounds the compiled set.
func (ob *OverrideBuilder) SizeLimit(limit int64) *OverrideBuilder {
	ob.gb.SizeLimit(limit)
	return ob
}

// Build compiles the overrides.
func (ob *OverrideBuilder) Build() (*Overrides, error) {
	gi, err := ob.gb.Build()
	if err != nil {
		return nil, err
	}
	return &Overrides{gi: gi}, nil
}

// IsEmpty reports whether there are no override globs.
func (o *Overrides) IsEmpty() bool {
	return o == nil || o.gi.Len() == 0
}

// Matched decides rel, relative to the search root.
func (o *Overrides) Matched(rel string, isDir bool) Match {
	if o.IsEmpty() {
		return Match{}
	}
	m := o.gi.Matched(rel, isDir).invert()
	if m.IsNone() && !isDir && o.gi.NumIgnores() > 0 {
		return Match{Decision: Ignore, Rule: unmatchedOverride}
	}
	return m
}
