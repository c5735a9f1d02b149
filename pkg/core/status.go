// Package core defines the shared domain types for dgcheck: test statuses,
// run records, per-test results, and the state store contract.
package core

// Status is the outcome of a single test, following DejaGnu conventions.
type Status string

const (
	// StatusPass indicates the test compiled and every final check matched.
	StatusPass Status = "PASS"
	// StatusFail indicates a compile failure or a failed final check.
	StatusFail Status = "FAIL"
	// StatusXFail is a failure listed in the expected-failure baseline.
	StatusXFail Status = "XFAIL"
	// StatusXPass is a pass for a test listed in the baseline. Unexpected
	// passes are treated as suite failures so stale baselines get cleaned up.
	StatusXPass Status = "XPASS"
	// StatusUnresolved indicates the test could not produce a usable result
	// (malformed directives, missing assembly for a scan).
	StatusUnresolved Status = "UNRESOLVED"
	// StatusUnsupported indicates the test was skipped by dg-skip-if or a
	// missing effective-target capability.
	StatusUnsupported Status = "UNSUPPORTED"
	// StatusUntested indicates the test was discovered but never attempted.
	StatusUntested Status = "UNTESTED"
)

// Bad reports whether the status should cause a non-zero suite exit.
func (s Status) Bad() bool {
	switch s {
	case StatusFail, StatusXPass, StatusUnresolved:
		return true
	}
	return false
}

// Summary holds per-status counts for a run.
type Summary struct {
	Pass        int `json:"pass"`
	Fail        int `json:"fail"`
	XFail       int `json:"xfail"`
	XPass       int `json:"xpass"`
	Unresolved  int `json:"unresolved"`
	Unsupported int `json:"unsupported"`
	Untested    int `json:"untested"`
}

// Add increments the counter for the given status.
func (s *Summary) Add(st Status) {
	switch st {
	case StatusPass:
		s.Pass++
	case StatusFail:
		s.Fail++
	case StatusXFail:
		s.XFail++
	case StatusXPass:
		s.XPass++
	case StatusUnresolved:
		s.Unresolved++
	case StatusUnsupported:
		s.Unsupported++
	case StatusUntested:
		s.Untested++
	}
}

// Total returns the number of counted results.
func (s Summary) Total() int {
	return s.Pass + s.Fail + s.XFail + s.XPass + s.Unresolved + s.Unsupported + s.Untested
}

// Clean reports whether the run had no suite-failing results.
func (s Summary) Clean() bool {
	return s.Fail == 0 && s.XPass == 0 && s.Unresolved == 0
}
