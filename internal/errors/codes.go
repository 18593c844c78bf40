// Package errors provides the structured errors reported by needle.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: pattern errors (globs, ignore files, regexes, file types)
//   - 2XX: I/O errors (open, stat, read, directory listing)
//   - 3XX: symbolic link cycles
//   - 4XX: capacity limits
package errors

// Kind classifies an error by how the run must react to it.
type Kind int

const (
	// KindUnknown is reported for errors that did not originate in needle.
	KindUnknown Kind = iota
	// KindPattern is a malformed glob, ignore line, regex or type definition.
	KindPattern
	// KindIO is a failure to open, stat or read a path.
	KindIO
	// KindCycle is a symbolic link loop found while following links.
	KindCycle
	// KindCapacity is a compiled matcher that outgrew its size limit.
	KindCapacity
)

func (k Kind) String() string {
	switch k {
	case KindPattern:
		return "PatternError"
	case KindIO:
		return "IoError"
	case KindCycle:
		return "CycleDetected"
	case KindCapacity:
		return "CapacityExceeded"
	default:
		return "Unknown"
	}
}

// Error codes organized by kind.
const (
	// Pattern errors (100-199)
	ErrCodeGlobSyntax   = "ERR_101_GLOB_SYNTAX"
	ErrCodeIgnoreSyntax = "ERR_102_IGNORE_SYNTAX"
	ErrCodeRegexSyntax  = "ERR_103_REGEX_SYNTAX"
	ErrCodeUnknownType  = "ERR_104_UNKNOWN_TYPE"
	ErrCodeTypeSyntax   = "ERR_105_TYPE_DEFINITION"

	// IO errors (200-299)
	ErrCodeOpen       = "ERR_201_OPEN"
	ErrCodeStat       = "ERR_202_STAT"
	ErrCodeRead       = "ERR_203_READ"
	ErrCodeReadDir    = "ERR_204_READ_DIR"
	ErrCodeIgnoreFile = "ERR_205_IGNORE_FILE"

	// Cycle errors (300-399)
	ErrCodeSymlinkLoop = "ERR_301_SYMLINK_LOOP"

	// Capacity errors (400-499)
	ErrCodeGlobSetTooLarge = "ERR_401_GLOB_SET_TOO_LARGE"
	ErrCodeRegexTooLarge   = "ERR_402_REGEX_TOO_LARGE"
)

// kindFromCode derives the kind from the hundreds digit of a code.
func kindFromCode(code string) Kind {
	if len(code) < 5 {
		return KindUnknown
	}
	switch code[4] {
	case '1':
		return KindPattern
	case '2':
		return KindIO
	case '3':
		return KindCycle
	case '4':
		return KindCapacity
	default:
		return KindUnknown
	}
}
