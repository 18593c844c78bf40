package ignore

import (
	"github.com/bethropolis/needle/internal/types"
	"github.com/bethropolis/needle/internal/utils"
)

// Pseudo file names carried by rules that do not come from a file.
const (
	OverrideSource = "<argv>"
	TypeSource     = "<type>"
	HiddenSource   = "<hidden>"
)

var (
	typeRule   = &Rule{File: TypeSource, Original: "--type"}
	hiddenRule = &Rule{File: HiddenSource, Original: "."}
)

// Eligible reports what the walker should do with path, an entry at or
// below the frame's directory. The search root itself is always included.
func (d *Dir) Eligible(path string, isDir bool) Eligibility {
	return d.Matched(path, isDir).Eligibility(isDir)
}

// Eligibility converts a decision into the walker's verdict.
func (m Match) Eligibility(isDir bool) Eligibility {
	switch {
	case m.Decision != Ignore:
		return Include
	case isDir:
		return ExcludeAndPrune
	default:
		return Exclude
	}
}

// Source returns the file the deciding rule came from, or "".
func (m Match) Source() string {
	if m.Rule == nil {
		return ""
	}
	return m.Rule.File
}

// Matched returns the decision for path and the rule that produced it.
//
// Rule sources are consulted in tiers: command line globs, .ignore files,
// .gitignore files, --ignore-file files, then .git/info/exclude and the
// global excludes file. Within a tier the deepest directory wins, and
// the first tier with an opinion decides. A type rejection overrides a
// whitelist from any tier but the command line, and hidden entries are
// skipped unless something whitelisted them.
func (d *Dir) Matched(path string, isDir bool) Match {
	if d == nil {
		return Match{}
	}
	m := d.m
	rel, ok := utils.RelativeTo(d.root.dir, path)
	if !ok || rel == "" {
		return Match{}
	}

	if mat := m.overrides.Matched(rel, isDir); !mat.IsNone() {
		m.logDecision(path, mat)
		return mat
	}

	whitelisted := d.matchedRules(path, rel, isDir)
	if whitelisted.Decision == Ignore {
		m.logDecision(path, whitelisted)
		return whitelisted
	}

	if m.typeMatcher != nil {
		switch m.typeMatcher.Matched(rel, isDir) {
		case types.Rejected:
			mat := Match{Decision: Ignore, Rule: typeRule}
			m.logDecision(path, mat)
			return mat
		case types.Selected:
			if whitelisted.IsNone() {
				whitelisted = Match{Decision: Whitelist, Rule: typeRule}
			}
		}
	}

	if whitelisted.IsNone() && !m.hidden && utils.IsHidden(path) {
		mat := Match{Decision: Ignore, Rule: hiddenRule}
		m.logDecision(path, mat)
		return mat
	}
	return whitelisted
}

// matchedRules evaluates the file based tiers.
func (d *Dir) matchedRules(path, rel string, isDir bool) Match {
	m := d.m
	var abs string
	frameRel := func(f *Dir) (string, bool) {
		if f.dir != "" {
			return utils.RelativeTo(f.dir, path)
		}
		if abs == "" {
			abs = d.root.absOf(path)
		}
		return utils.RelativeTo(f.abs, abs)
	}
	tier := func(pick func(f *Dir) *Gitignore) Match {
		for f := d; f != nil; f = f.parent {
			gi := pick(f)
			if gi == nil {
				continue
			}
			r, ok := frameRel(f)
			if !ok {
				continue
			}
			if mat := gi.Matched(r, isDir); !mat.IsNone() {
				return mat
			}
		}
		return Match{}
	}

	if mat := tier(func(f *Dir) *Gitignore { return f.ignore }); !mat.IsNone() {
		return mat
	}
	if mat := tier(func(f *Dir) *Gitignore { return f.gitignore }); !mat.IsNone() {
		return mat
	}
	if mat := m.explicit.Matched(rel, isDir); !mat.IsNone() {
		return mat
	}
	for f := d; f != nil; f = f.parent {
		if f.exclude == nil && f.global == nil {
			continue
		}
		r, ok := frameRel(f)
		if !ok {
			continue
		}
		if mat := f.exclude.Matched(r, isDir); !mat.IsNone() {
			return mat
		}
		if mat := f.global.Matched(r, isDir); !mat.IsNone() {
			return mat
		}
	}
	return Match{}
}

func (m *Matcher) logDecision(path string, mat Match) {
	if mat.Decision == Ignore {
		m.logger.Debug("ignore: %s ignored by %s", path, mat.Rule)
	} else {
		m.logger.Debug("ignore: %s whitelisted by %s", path, mat.Rule)
	}
}
