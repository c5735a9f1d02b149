package directive

import "fmt"

// ParseError is a positioned directive parse error.
type ParseError struct {
	File    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		if e.Line > 0 {
			return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
		}
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// UnknownDirectiveError reports a dg- directive this harness does not know.
// Unknown directives are errors rather than warnings so a typo cannot
// silently turn a check off.
type UnknownDirectiveError struct {
	File      string
	Line      int
	Directive string
}

func (e *UnknownDirectiveError) Error() string {
	return fmt.Sprintf("%s:%d: unknown directive %q", e.File, e.Line, e.Directive)
}
