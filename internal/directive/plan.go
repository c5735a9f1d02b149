package directive

import "time"

// Action is the dg-do action for a test.
type Action string

const (
	ActionPreprocess Action = "preprocess"
	ActionCompile    Action = "compile"
	ActionAssemble   Action = "assemble"
	ActionLink       Action = "link"
	ActionRun        Action = "run"
)

// ValidAction reports whether s names a known dg-do action.
func ValidAction(s string) bool {
	switch Action(s) {
	case ActionPreprocess, ActionCompile, ActionAssemble, ActionLink, ActionRun:
		return true
	}
	return false
}

// ScanKind identifies a dg-final check variant.
type ScanKind string

const (
	ScanAssembler      ScanKind = "scan-assembler"
	ScanAssemblerTimes ScanKind = "scan-assembler-times"
	ScanAssemblerNot   ScanKind = "scan-assembler-not"
)

// FinalCheck is one parsed dg-final directive.
type FinalCheck struct {
	Kind    ScanKind
	Pattern string
	// Count is the required match count for scan-assembler-times.
	Count int
	Line  int
}

// SkipIf is one parsed dg-skip-if directive.
//
// IncludeOpts and ExcludeOpts are lists of alternatives; each alternative is
// a space-separated conjunction of option globs.
type SkipIf struct {
	Comment     string
	Selectors   []string
	IncludeOpts []string
	ExcludeOpts []string
	Line        int
}

// Plan is the fully parsed directive set of one test file.
type Plan struct {
	// Path is the file the plan was parsed from.
	Path string

	Action Action
	// ActionSelector holds the optional target globs on the dg-do directive.
	ActionSelector []string

	// Options replaces the harness default options when HasOptions is set.
	// An explicit empty dg-options "" still replaces the defaults.
	Options    []string
	HasOptions bool
	// AdditionalOptions are appended after the effective options.
	AdditionalOptions []string

	RequiredTargets []string
	SkipIfs         []SkipIf
	Finals          []FinalCheck

	// Timeout overrides the harness per-test timeout when non-zero.
	Timeout time.Duration
}
