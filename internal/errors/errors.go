package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"strconv"
)

// SearchError is the structured error type for needle.
type SearchError struct {
	// Code is the unique error code (e.g., "ERR_201_OPEN").
	Code string

	// Kind is derived from Code.
	Kind Kind

	// Message is the human-readable error message.
	Message string

	// Path is the file the error refers to, if any.
	Path string

	// Line is the 1-based line in Path, or 0.
	Line int

	// Cause is the underlying error.
	Cause error

	// Suggestion is an actionable hint for the user.
	Suggestion string
}

// Error renders "path:line: message: cause", omitting empty parts.
func (e *SearchError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		if msg == "" {
			msg = e.Cause.Error()
		} else {
			msg += ": " + e.Cause.Error()
		}
	}
	switch {
	case e.Path != "" && e.Line > 0:
		return e.Path + ":" + strconv.Itoa(e.Line) + ": " + msg
	case e.Path != "":
		return e.Path + ": " + msg
	}
	return msg
}

// Unwrap returns the underlying cause for error chain support.
func (e *SearchError) Unwrap() error {
	return e.Cause
}

// Is matches another *SearchError by code, so errors.Is works against the
// sentinels below.
func (e *SearchError) Is(target error) bool {
	if t, ok := target.(*SearchError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *SearchError) WithSuggestion(suggestion string) *SearchError {
	e.Suggestion = suggestion
	return e
}

// WithLine records the line of Path the error refers to.
func (e *SearchError) WithLine(line int) *SearchError {
	e.Line = line
	return e
}

// Sentinels for errors.Is comparisons.
var (
	ErrSymlinkLoop     = &SearchError{Code: ErrCodeSymlinkLoop}
	ErrGlobSetTooLarge = &SearchError{Code: ErrCodeGlobSetTooLarge}
	ErrRegexTooLarge   = &SearchError{Code: ErrCodeRegexTooLarge}
	ErrUnknownType     = &SearchError{Code: ErrCodeUnknownType}
)

// New creates a SearchError whose kind is derived from code.
func New(code, message string, cause error) *SearchError {
	return &SearchError{
		Code:    code,
		Kind:    kindFromCode(code),
		Message: message,
		Cause:   cause,
	}
}

// Pattern creates a PatternError for the pattern source text.
func Pattern(code, pattern, reason string) *SearchError {
	return New(code, fmt.Sprintf("invalid pattern %q: %s", pattern, reason), nil)
}

// IO creates an IoError for path. The code is chosen from the failing
// operation name: "open", "stat", "read" or "readdir".
func IO(op, path string, cause error) *SearchError {
	code := ErrCodeRead
	switch op {
	case "open":
		code = ErrCodeOpen
	case "stat", "lstat":
		code = ErrCodeStat
	case "readdir":
		code = ErrCodeReadDir
	}
	e := New(code, "", stripPathError(cause))
	e.Path = path
	return e
}

// Cycle creates a CycleDetected error for a link at path that leads back to
// the ancestor target.
func Cycle(path, target string) *SearchError {
	e := New(ErrCodeSymlinkLoop, fmt.Sprintf("symbolic link loop to %s", target), nil)
	e.Path = path
	return e
}

// Capacity creates a CapacityExceeded error.
func Capacity(code, what string, size, limit int64, flag string) *SearchError {
	e := New(code, fmt.Sprintf("compiled %s is %d bytes, exceeding the limit of %d bytes", what, size, limit), nil)
	if flag != "" {
		e.Suggestion = fmt.Sprintf("raise the limit with %s", flag)
	}
	return e
}

// KindOf returns the kind of the first SearchError in err's chain.
func KindOf(err error) Kind {
	var se *SearchError
	if stderrors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// stripPathError drops the *fs.PathError wrapper; the SearchError already
// carries the path.
func stripPathError(err error) error {
	var pe *fs.PathError
	if stderrors.As(err, &pe) {
		return pe.Err
	}
	return err
}
