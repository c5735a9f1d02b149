// Package directive extracts and parses dg- directives from testsuite source
// files. Directives are structured comments of the form { dg-... args }
// interpreted with Tcl quoting rules.
package directive

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// directiveStart matches the opening of a dg- directive anywhere in a line.
var directiveStart = regexp.MustCompile(`\{\s*dg-`)

// rawDirective is an extracted but not yet interpreted directive.
type rawDirective struct {
	body string // content between the outer braces
	line int
}

// Parse extracts and interprets all directives in content. The path is used
// for error positions only; content is the file text.
func Parse(path, content string) (*Plan, error) {
	plan := &Plan{
		Path:   path,
		Action: ActionCompile,
	}

	raw, err := extract(path, content)
	if err != nil {
		return nil, err
	}

	seenDo := false
	for _, d := range raw {
		words, err := SplitList(d.body)
		if err != nil {
			return nil, &ParseError{File: path, Line: d.line, Message: err.Error()}
		}
		if len(words) == 0 {
			return nil, &ParseError{File: path, Line: d.line, Message: "empty directive"}
		}

		name := words[0].Text
		args := words[1:]

		switch name {
		case "dg-do":
			if seenDo {
				return nil, &ParseError{File: path, Line: d.line, Message: "duplicate dg-do directive"}
			}
			seenDo = true
			if err := parseDo(plan, args, path, d.line); err != nil {
				return nil, err
			}
		case "dg-options":
			if plan.HasOptions {
				return nil, &ParseError{File: path, Line: d.line, Message: "duplicate dg-options directive"}
			}
			opts, err := singleOptionList(args, path, d.line, name)
			if err != nil {
				return nil, err
			}
			plan.Options = opts
			plan.HasOptions = true
		case "dg-additional-options":
			opts, err := singleOptionList(args, path, d.line, name)
			if err != nil {
				return nil, err
			}
			plan.AdditionalOptions = append(plan.AdditionalOptions, opts...)
		case "dg-require-effective-target":
			if len(args) != 1 {
				return nil, &ParseError{File: path, Line: d.line, Message: "dg-require-effective-target takes exactly one target name"}
			}
			plan.RequiredTargets = append(plan.RequiredTargets, args[0].Text)
		case "dg-skip-if":
			skip, err := parseSkipIf(args, path, d.line)
			if err != nil {
				return nil, err
			}
			plan.SkipIfs = append(plan.SkipIfs, *skip)
		case "dg-final":
			final, err := parseFinal(args, path, d.line)
			if err != nil {
				return nil, err
			}
			plan.Finals = append(plan.Finals, *final)
		case "dg-timeout":
			if len(args) != 1 {
				return nil, &ParseError{File: path, Line: d.line, Message: "dg-timeout takes exactly one argument"}
			}
			secs, err := strconv.Atoi(args[0].Text)
			if err != nil || secs <= 0 {
				return nil, &ParseError{File: path, Line: d.line, Message: fmt.Sprintf("invalid dg-timeout value %q", args[0].Text)}
			}
			plan.Timeout = time.Duration(secs) * time.Second
		default:
			return nil, &UnknownDirectiveError{File: path, Line: d.line, Directive: name}
		}
	}

	return plan, nil
}

// extract finds every { dg-... } group in content. Directives never span
// lines, matching the original harness, so an unbalanced brace on a line is
// an error rather than a continuation.
func extract(path, content string) ([]rawDirective, error) {
	var out []rawDirective
	for i, line := range strings.Split(content, "\n") {
		rest := line
		for {
			loc := directiveStart.FindStringIndex(rest)
			if loc == nil {
				break
			}
			body, next, err := matchBrace(rest, loc[0])
			if err != nil {
				return nil, &ParseError{File: path, Line: i + 1, Message: "unterminated directive"}
			}
			out = append(out, rawDirective{body: body, line: i + 1})
			rest = rest[next:]
		}
	}
	return out, nil
}

func parseDo(plan *Plan, args []Word, path string, line int) error {
	if len(args) < 1 {
		return &ParseError{File: path, Line: line, Message: "dg-do requires an action"}
	}
	action := args[0].Text
	if !ValidAction(action) {
		return &ParseError{File: path, Line: line, Message: fmt.Sprintf("unknown dg-do action %q", action)}
	}
	plan.Action = Action(action)

	if len(args) == 1 {
		return nil
	}
	if len(args) > 2 || !args[1].Braced {
		return &ParseError{File: path, Line: line, Message: "dg-do takes at most one { target ... } selector"}
	}

	sel, err := parseTargetSelector(args[1].Text)
	if err != nil {
		return &ParseError{File: path, Line: line, Message: err.Error()}
	}
	plan.ActionSelector = sel
	return nil
}

// parseTargetSelector parses "target glob..." or "target { glob... }".
func parseTargetSelector(body string) ([]string, error) {
	words, err := SplitList(body)
	if err != nil {
		return nil, err
	}
	if len(words) < 2 || words[0].Text != "target" {
		return nil, fmt.Errorf("selector must be of the form { target ... }")
	}
	var globs []string
	for _, w := range words[1:] {
		if w.Braced {
			inner, err := SplitList(w.Text)
			if err != nil {
				return nil, err
			}
			for _, iw := range inner {
				globs = append(globs, iw.Text)
			}
			continue
		}
		globs = append(globs, w.Text)
	}
	if len(globs) == 0 {
		return nil, fmt.Errorf("empty target selector")
	}
	return globs, nil
}

// singleOptionList handles dg-options / dg-additional-options arguments:
// exactly one quoted word split on whitespace.
func singleOptionList(args []Word, path string, line int, name string) ([]string, error) {
	if len(args) != 1 {
		return nil, &ParseError{File: path, Line: line, Message: fmt.Sprintf("%s takes exactly one quoted flag string", name)}
	}
	return strings.Fields(args[0].Text), nil
}

func parseSkipIf(args []Word, path string, line int) (*SkipIf, error) {
	if len(args) < 2 || len(args) > 4 {
		return nil, &ParseError{File: path, Line: line, Message: "dg-skip-if requires a comment and one to three brace lists"}
	}
	skip := &SkipIf{Comment: args[0].Text, Line: line}

	lists := make([][]string, 0, 3)
	for _, a := range args[1:] {
		if !a.Braced {
			return nil, &ParseError{File: path, Line: line, Message: "dg-skip-if arguments after the comment must be brace lists"}
		}
		words, err := SplitList(a.Text)
		if err != nil {
			return nil, &ParseError{File: path, Line: line, Message: err.Error()}
		}
		list := make([]string, len(words))
		for i, w := range words {
			list[i] = w.Text
		}
		lists = append(lists, list)
	}

	skip.Selectors = lists[0]
	// Defaults mirror the original harness: any options included, none
	// excluded.
	skip.IncludeOpts = []string{"*"}
	skip.ExcludeOpts = nil
	if len(lists) > 1 {
		skip.IncludeOpts = lists[1]
	}
	if len(lists) > 2 {
		skip.ExcludeOpts = lists[2]
	}
	return skip, nil
}

func parseFinal(args []Word, path string, line int) (*FinalCheck, error) {
	if len(args) != 1 || !args[0].Braced {
		return nil, &ParseError{File: path, Line: line, Message: "dg-final requires a single brace-quoted check"}
	}
	words, err := SplitList(args[0].Text)
	if err != nil {
		return nil, &ParseError{File: path, Line: line, Message: err.Error()}
	}
	if len(words) == 0 {
		return nil, &ParseError{File: path, Line: line, Message: "empty dg-final check"}
	}

	kind := ScanKind(words[0].Text)
	rest := words[1:]
	switch kind {
	case ScanAssembler, ScanAssemblerNot:
		if len(rest) != 1 {
			return nil, &ParseError{File: path, Line: line, Message: fmt.Sprintf("%s takes exactly one pattern", kind)}
		}
		return &FinalCheck{Kind: kind, Pattern: rest[0].Text, Line: line}, nil
	case ScanAssemblerTimes:
		if len(rest) != 2 {
			return nil, &ParseError{File: path, Line: line, Message: "scan-assembler-times takes a pattern and a count"}
		}
		count, err := strconv.Atoi(rest[1].Text)
		if err != nil || count < 0 {
			return nil, &ParseError{File: path, Line: line, Message: fmt.Sprintf("invalid scan-assembler-times count %q", rest[1].Text)}
		}
		return &FinalCheck{Kind: kind, Pattern: rest[0].Text, Count: count, Line: line}, nil
	default:
		return nil, &ParseError{File: path, Line: line, Message: fmt.Sprintf("unsupported dg-final check %q", words[0].Text)}
	}
}
