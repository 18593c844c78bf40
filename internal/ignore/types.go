package ignore

import (
	"github.com/bethropolis/needle/internal/types"
	"github.com/bethropolis/needle/internal/utils"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Eligibility is the verdict the walker acts on.
type Eligibility int

const (
	// Include means the path is searched (files) or descended (dirs).
	Include Eligibility = iota
	// Exclude means the file is skipped.
	Exclude
	// ExcludeAndPrune means the directory is never read.
	ExcludeAndPrune
)

func (e Eligibility) String() string {
	switch e {
	case Exclude:
		return "exclude"
	case ExcludeAndPrune:
		return "exclude-and-prune"
	default:
		return "include"
	}
}

// Matcher holds the run-wide ignore configuration: which rule sources are
// honored, the compiled command line and explicit rules, and the cache of
// frames above the search roots. Per-directory state lives in Dir frames
// created from it.
type Matcher struct {
	// Configuration flags
	hidden          bool
	readIgnore      bool
	readVCS         bool
	readParents     bool
	readGlobal      bool
	explicitFiles   []string
	overrideGlobs   []string
	overrideIGlobs  []string
	typeMatcher     *types.Matcher
	sizeLimit       int64
	parentCacheSize int
	logger          utils.Logger

	// Compiled at New
	overrides *Overrides
	explicit  *Gitignore
	global    *Gitignore
	parents   *lru.Cache[string, *Dir]
}

// Config holds configuration options for the ignore matcher
type Config struct {
	SearchHidden  bool
	NoIgnore      bool
	NoIgnoreVCS   bool
	NoIgnoreDot   bool
	NoParents     bool
	NoGlobal      bool
	IgnoreFiles   []string
	Globs         []string
	IGlobs        []string
	Types         *types.Matcher
	GlobSizeLimit int64
	Logger        utils.Logger
}
