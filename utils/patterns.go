package utils

import (
	"path/filepath"
	"regexp"
)

// PatternMatcher filters paths by include/exclude patterns. Each
// pattern is tried both as a glob against the base name and as a
// regular expression against the full path; patterns that fail to
// compile as regexes are glob-only.
type PatternMatcher struct {
	include clauses
	exclude clauses
}

type clauses struct {
	globs   []string
	regexes []*regexp.Regexp
}

func newClauses(patterns []string) clauses {
	c := clauses{globs: append([]string(nil), patterns...)}
	for _, pattern := range patterns {
		if re, err := regexp.Compile(pattern); err == nil {
			c.regexes = append(c.regexes, re)
		}
	}
	return c
}

func (c clauses) empty() bool {
	return len(c.globs) == 0 && len(c.regexes) == 0
}

func (c clauses) match(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range c.globs {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	for _, re := range c.regexes {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// NewPatternMatcher builds a matcher; nil slices impose no filter.
func NewPatternMatcher(includePatterns, excludePatterns []string) *PatternMatcher {
	return &PatternMatcher{
		include: newClauses(includePatterns),
		exclude: newClauses(excludePatterns),
	}
}

// ShouldInclude reports whether a path passes the include filter (when
// present) and is not caught by the exclude filter.
func (m *PatternMatcher) ShouldInclude(path string) bool {
	if m == nil {
		return true
	}
	if !m.include.empty() && !m.include.match(path) {
		return false
	}
	if !m.exclude.empty() && m.exclude.match(path) {
		return false
	}
	return true
}
