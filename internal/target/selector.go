// Package target evaluates target selectors and effective-target
// capabilities against the configured toolchain.
package target

import (
	"path"
	"strings"

	"github.com/compilertools/dgcheck/internal/directive"
)

// Match reports whether the target triple matches the selector glob.
// Globs use the usual *, ? and [...] forms ("sh*-*-*", "x86_64-*-linux*").
func Match(glob, triple string) bool {
	if glob == "" || glob == "*" {
		return true
	}
	ok, err := path.Match(glob, triple)
	if err != nil {
		// Malformed glob: fall back to literal comparison.
		return glob == triple
	}
	return ok
}

// MatchAny reports whether any selector glob matches the triple.
// An empty selector list matches every target.
func MatchAny(globs []string, triple string) bool {
	if len(globs) == 0 {
		return true
	}
	for _, g := range globs {
		if Match(g, triple) {
			return true
		}
	}
	return false
}

// optionAlternativeMatches reports whether one include/exclude alternative
// matches the effective option list. An alternative is a space-separated
// conjunction of option globs; every glob must match some option. The empty
// alternative and "*" match unconditionally.
func optionAlternativeMatches(alt string, opts []string) bool {
	alt = strings.TrimSpace(alt)
	if alt == "" || alt == "*" {
		return true
	}
	for _, glob := range strings.Fields(alt) {
		matched := false
		for _, opt := range opts {
			if Match(glob, opt) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// anyAlternativeMatches reports whether any alternative in the list matches
// the options. The empty string alternative in an exclude list means
// "no options excluded" and never matches a non-empty requirement, so it is
// only treated as match-all in include position; callers pass emptyMatches
// accordingly.
func anyAlternativeMatches(alts []string, opts []string, emptyMatches bool) bool {
	for _, alt := range alts {
		if strings.TrimSpace(alt) == "" {
			if emptyMatches {
				return true
			}
			continue
		}
		if optionAlternativeMatches(alt, opts) {
			return true
		}
	}
	return false
}

// SkipMatches reports whether a dg-skip-if directive applies: the triple
// matches a selector, one include alternative matches the options, and no
// exclude alternative matches.
func SkipMatches(s directive.SkipIf, triple string, opts []string) bool {
	if !MatchAny(s.Selectors, triple) {
		return false
	}
	if len(s.IncludeOpts) > 0 && !anyAlternativeMatches(s.IncludeOpts, opts, true) {
		return false
	}
	if len(s.ExcludeOpts) > 0 && anyAlternativeMatches(s.ExcludeOpts, opts, false) {
		return false
	}
	return true
}
