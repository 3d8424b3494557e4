// internal/rules/cache.go
package rules

import (
	"regexp"
	"sync"
)

// RegexCache memoizes compiled patterns. Owned by the batch processor's
// lifetime and injected into the evaluator, so tests get a fresh cache and
// no process-global mutable state exists. Safe for concurrent readers
// during intra-chunk parallel evaluation.
type RegexCache struct {
	mu       sync.RWMutex
	compiled map[string]*regexp.Regexp
}

// NewRegexCache returns an empty cache.
func NewRegexCache() *RegexCache {
	return &RegexCache{compiled: make(map[string]*regexp.Regexp)}
}

// Get returns the compiled form of pattern, compiling and caching on first
// use. Compilation failures are not cached; they are rare and cheap.
func (c *RegexCache) Get(pattern string) (*regexp.Regexp, error) {
	c.mu.RLock()
	re, ok := c.compiled[pattern]
	c.mu.RUnlock()
	if ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.compiled[pattern] = re
	c.mu.Unlock()
	return re, nil
}
