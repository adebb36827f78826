// Package filter decides whether a key passes the --include/--exclude globs.
package filter

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"example.com/ss3/pkg/errs"
)

// Inex is the outcome of the include/exclude gate.
type Inex int

const (
	// Include means the key passed the include gate and is not excluded.
	Include Inex = iota
	// ExcludeInExclude means the key matched an exclude glob. Callers report it.
	ExcludeInExclude
	// ExcludeNotInInclude means an include set exists and the key matched none
	// of it. Callers stay quiet about it.
	ExcludeNotInInclude
)

func (i Inex) String() string {
	switch i {
	case Include:
		return "include"
	case ExcludeInExclude:
		return "exclude"
	case ExcludeNotInInclude:
		return "not-included"
	}
	return "unknown"
}

// Globs is a compiled, read-only set of glob patterns. A nil *Globs is an
// absent set.
//
// Patterns are matched against the whole key with doublestar semantics. A
// pattern with no '/' also matches the last key element at any depth, so
// "*.txt" selects "docs/a.txt".
type Globs struct {
	patterns []string
}

// NewGlobs validates patterns and returns nil when there are none.
func NewGlobs(patterns []string) (*Globs, error) {
	var kept []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, errs.Newf(errs.KindConfiguration, "invalid glob pattern '%s'", p)
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return nil, nil
	}
	return &Globs{patterns: kept}, nil
}

// MustGlobs is NewGlobs for literal patterns; it panics on an invalid one.
func MustGlobs(patterns ...string) *Globs {
	g, err := NewGlobs(patterns)
	if err != nil {
		panic(err)
	}
	return g
}

// Patterns returns a copy of the compiled patterns.
func (g *Globs) Patterns() []string {
	if g == nil {
		return nil
	}
	return append([]string(nil), g.patterns...)
}

// Match reports whether key matches at least one pattern.
func (g *Globs) Match(key string) bool {
	if g == nil {
		return false
	}
	base := key
	if idx := strings.LastIndex(strings.TrimSuffix(key, "/"), "/"); idx >= 0 {
		base = key[idx+1:]
	}
	for _, p := range g.patterns {
		if doublestar.MatchUnvalidated(p, key) {
			return true
		}
		if !strings.Contains(p, "/") && doublestar.MatchUnvalidated(p, base) {
			return true
		}
	}
	return false
}

// Classify runs key through the include gate and then the exclude set.
func Classify(key string, includes, excludes *Globs) Inex {
	if includes != nil && !includes.Match(key) {
		return ExcludeNotInInclude
	}
	if excludes != nil && excludes.Match(key) {
		return ExcludeInExclude
	}
	return Include
}

// Allowed reports whether Classify returns Include.
func Allowed(key string, includes, excludes *Globs) bool {
	return Classify(key, includes, excludes) == Include
}
