package glob

import (
	"regexp"
	"strings"
)

// Regex returns an anchored regular expression with the matching semantics
// of the pattern.
func (p *Pattern) Regex() string {
	return "(?s)^" + p.regexBody() + "$"
}

// regexBody is the unanchored, flag-scoped body, suitable for embedding as
// one alternative of a combined expression.
func (p *Pattern) regexBody() string {
	var sb strings.Builder
	if p.caseInsensitive {
		sb.WriteString("(?i:")
	}
	// A lone ** matches everything.
	if len(p.tokens) == 1 && p.tokens[0].kind == tokRecursivePrefix {
		sb.WriteString(".*")
	} else {
		writeTokens(&sb, p.tokens, p.literalSeparator)
	}
	if p.caseInsensitive {
		sb.WriteString(")")
	}
	return sb.String()
}

func writeTokens(sb *strings.Builder, tokens []token, literalSep bool) {
	for _, t := range tokens {
		switch t.kind {
		case tokLiteral:
			sb.WriteString(regexp.QuoteMeta(string(t.lit)))
		case tokAny:
			if literalSep {
				sb.WriteString("[^/]")
			} else {
				sb.WriteString(".")
			}
		case tokZeroOrMore:
			if literalSep {
				sb.WriteString("[^/]*")
			} else {
				sb.WriteString(".*")
			}
		case tokRecursivePrefix:
			sb.WriteString("(?:/?|.*/)")
		case tokRecursiveSuffix:
			sb.WriteString("(?:/?|/.*)")
		case tokRecursiveZeroOrMore:
			sb.WriteString("(?:/|/.*/)")
		case tokClass:
			sb.WriteByte('[')
			if t.negated {
				sb.WriteByte('^')
				if literalSep {
					sb.WriteByte('/')
				}
			}
			for _, r := range t.ranges {
				writeClassRune(sb, r.lo)
				if r.hi != r.lo {
					sb.WriteByte('-')
					writeClassRune(sb, r.hi)
				}
			}
			sb.WriteByte(']')
		case tokAlternates:
			sb.WriteString("(?:")
			for i, branch := range t.branches {
				if i > 0 {
					sb.WriteByte('|')
				}
				writeTokens(sb, branch, literalSep)
			}
			sb.WriteByte(')')
		}
	}
}

func writeClassRune(sb *strings.Builder, r rune) {
	switch r {
	case '\\', ']', '[', '^', '-':
		sb.WriteByte('\\')
	}
	sb.WriteRune(r)
}
