package errors

import (
	stderrors "errors"
	"sync"
	"sync/atomic"

	"github.com/bethropolis/needle/internal/utils"
)

// Collector counts and keeps the per-path errors of a run. Workers report
// into it concurrently; the count is lock-free and the list is guarded.
type Collector struct {
	count    atomic.Int64
	mu       sync.Mutex
	errs     []*SearchError
	keep     int
	logger   utils.Logger
	onReport func(*SearchError)
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithLogger logs every reported error at Error level.
func WithLogger(logger utils.Logger) CollectorOption {
	return func(c *Collector) {
		c.logger = utils.OrNoop(logger)
	}
}

// WithKeep bounds how many errors are retained for the summary. Errors
// past the bound are still counted.
func WithKeep(n int) CollectorOption {
	return func(c *Collector) {
		c.keep = n
	}
}

// WithOnReport registers a hook run after every report, e.g. to stop the
// run under --errors-fatal.
func WithOnReport(fn func(*SearchError)) CollectorOption {
	return func(c *Collector) {
		c.onReport = fn
	}
}

// NewCollector creates an empty collector.
func NewCollector(opts ...CollectorOption) *Collector {
	c := &Collector{keep: 1000, logger: utils.NoopLogger{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Report records err. Errors that are not SearchErrors are kept as
// KindUnknown. A nil err is ignored.
func (c *Collector) Report(err error) {
	if err == nil {
		return
	}
	var se *SearchError
	if !stderrors.As(err, &se) {
		se = &SearchError{Kind: KindUnknown, Cause: err}
	}
	c.count.Add(1)
	c.logger.Error("%v", se)

	c.mu.Lock()
	if c.keep <= 0 || len(c.errs) < c.keep {
		c.errs = append(c.errs, se)
	}
	c.mu.Unlock()

	if c.onReport != nil {
		c.onReport(se)
	}
}

// Count returns the number of errors reported so far.
func (c *Collector) Count() int64 {
	return c.count.Load()
}

// Errors returns a copy of the retained errors in report order.
func (c *Collector) Errors() []*SearchError {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*SearchError, len(c.errs))
	copy(out, c.errs)
	return out
}

// ByKind counts the retained errors per kind.
func (c *Collector) ByKind() map[Kind]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := make(map[Kind]int)
	for _, e := range c.errs {
		m[e.Kind]++
	}
	return m
}
