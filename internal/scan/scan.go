// Package scan evaluates dg-final scan-assembler checks against captured
// assembly output.
package scan

import (
	"fmt"
	"regexp"

	"github.com/compilertools/dgcheck/internal/directive"
)

// Compile translates a directive pattern into a Go regexp.
//
// Directive patterns are Tcl AREs. The syntaxes agree for everything the
// testsuites use, with one default that differs: in Tcl, `.` matches
// newlines, so the pattern is compiled in single-line mode. Back-references
// are not supported by RE2; a pattern using them fails to compile and the
// check reports UNRESOLVED upstream.
func Compile(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?s)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid scan pattern %q: %w", pattern, err)
	}
	return re, nil
}

// Count returns the number of non-overlapping matches of pattern in asm.
func Count(re *regexp.Regexp, asm string) int {
	return len(re.FindAllStringIndex(asm, -1))
}

// Outcome is the result of one dg-final check.
type Outcome struct {
	Ok bool
	// Detail describes a failure in pass/fail log terms; empty on success.
	Detail string
}

// Evaluate runs a single final check against the assembly text.
func Evaluate(check directive.FinalCheck, asm string) (Outcome, error) {
	re, err := Compile(check.Pattern)
	if err != nil {
		return Outcome{}, err
	}

	n := Count(re, asm)
	switch check.Kind {
	case directive.ScanAssembler:
		if n > 0 {
			return Outcome{Ok: true}, nil
		}
		return Outcome{Detail: fmt.Sprintf("scan-assembler %s: pattern not found", check.Pattern)}, nil
	case directive.ScanAssemblerNot:
		if n == 0 {
			return Outcome{Ok: true}, nil
		}
		return Outcome{Detail: fmt.Sprintf("scan-assembler-not %s: pattern found %d time(s)", check.Pattern, n)}, nil
	case directive.ScanAssemblerTimes:
		if n == check.Count {
			return Outcome{Ok: true}, nil
		}
		return Outcome{Detail: fmt.Sprintf("scan-assembler-times %s: found %d time(s), expected %d", check.Pattern, n, check.Count)}, nil
	default:
		return Outcome{}, fmt.Errorf("unknown scan kind %q", check.Kind)
	}
}
