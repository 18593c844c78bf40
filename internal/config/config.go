package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

// Config holds all application configuration settings
type Config struct {
	// Search input
	Patterns     []string
	PatternFiles []string
	Paths        []string

	// Matching settings
	IgnoreCase     bool
	SmartCase      bool
	FixedStrings   bool
	WordRegexp     bool
	InvertMatch    bool
	MaxCount       int64
	RegexSizeLimit string
	Text           bool

	// Output settings
	LineNumber        bool
	NoLineNumber      bool
	Heading           bool
	NoHeading         bool
	WithFilename      bool
	NoFilename        bool
	Column            bool
	Context           int
	BeforeContext     int
	AfterContext      int
	Count             bool
	FilesWithMatches  bool
	FilesWithoutMatch bool
	Quiet             bool
	JSONOutput        bool
	Color             string
	Sort              string
	Stats             bool
	ShowSkipped       bool
	ListFiles         bool
	TypeList          bool

	// Filtering settings
	Hidden         bool
	NoIgnore       bool
	NoIgnoreVCS    bool
	NoIgnoreDot    bool
	NoIgnoreParent bool
	NoIgnoreGlobal bool
	FollowLinks    bool
	MaxDepth       int
	MaxFilesize    string
	Globs          []string
	IGlobs         []string
	IgnoreFiles    []string
	Types          []string
	TypesNot       []string
	TypeAdd        []string
	TypeClear      []string

	// Processing settings
	Threads      int
	Mmap         bool
	NoMmap       bool
	Timeout      time.Duration
	ShowProgress bool

	// Logging settings
	Verbose     bool
	LogLevel    string
	NoMessages  bool
	ErrorsFatal bool

	// Config file
	ConfigFile string
	NoConfig   bool

	// Version info
	ShowVersion bool
	Version     string
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		MaxDepth: -1,
		Color:    "auto",
		LogLevel: "",
		Version:  "0.4.0",
	}
}

// Validate checks settings that flags alone cannot constrain.
func (c *Config) Validate() error {
	switch c.Color {
	case "auto", "always", "never", "ansi":
	default:
		return fmt.Errorf("config: --color must be auto, always or never, got %q", c.Color)
	}
	switch c.Sort {
	case "", "none", "path":
	default:
		return fmt.Errorf("config: --sort must be path or none, got %q", c.Sort)
	}
	if c.Context < 0 || c.BeforeContext < 0 || c.AfterContext < 0 {
		return fmt.Errorf("config: context line counts must not be negative")
	}
	if c.Mmap && c.NoMmap {
		return fmt.Errorf("config: --mmap and --no-mmap are mutually exclusive")
	}
	if _, err := c.MaxFilesizeBytes(); err != nil {
		return err
	}
	if _, err := c.RegexSizeLimitBytes(); err != nil {
		return err
	}
	return nil
}

// MaxFilesizeBytes parses --max-filesize ("10M", "512KiB"). Zero means no
// limit.
func (c *Config) MaxFilesizeBytes() (int64, error) {
	return parseSize("--max-filesize", c.MaxFilesize)
}

// RegexSizeLimitBytes parses --regex-size-limit. Zero means the default.
func (c *Config) RegexSizeLimitBytes() (int64, error) {
	return parseSize("--regex-size-limit", c.RegexSizeLimit)
}

func parseSize(flag, s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("config: invalid size for %s: %w", flag, err)
	}
	return int64(n), nil
}

// Before and After resolve -C against -B and -A; the specific flags win.
func (c *Config) Before() int {
	if c.BeforeContext > 0 {
		return c.BeforeContext
	}
	return c.Context
}

func (c *Config) After() int {
	if c.AfterContext > 0 {
		return c.AfterContext
	}
	return c.Context
}

// Sorted reports whether output must be in path order.
func (c *Config) Sorted() bool {
	return c.Sort == "path"
}

// UseColors decides color output for the given stream.
func (c *Config) UseColors(out *os.File) bool {
	switch c.Color {
	case "always", "ansi":
		return true
	case "never":
		return false
	}
	return IsTerminal(out) && os.Getenv("NO_COLOR") == ""
}

// ShowLineNumbers applies -n/-N over the terminal default.
func (c *Config) ShowLineNumbers(tty bool) bool {
	switch {
	case c.NoLineNumber:
		return false
	case c.LineNumber:
		return true
	}
	return tty
}

// ShowHeading applies --heading/--no-heading over the terminal default.
func (c *Config) ShowHeading(tty bool) bool {
	switch {
	case c.NoHeading:
		return false
	case c.Heading:
		return true
	}
	return tty
}

// ShowFilename applies -H/-I; by default names are shown unless the only
// thing searched is a single file.
func (c *Config) ShowFilename(singleFile bool) bool {
	switch {
	case c.NoFilename:
		return false
	case c.WithFilename:
		return true
	}
	return !singleFile
}

// IsTerminal reports whether f is a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
