// Package toolchain drives the compiler under test.
package toolchain

import (
	"context"
	"time"

	"github.com/compilertools/dgcheck/internal/directive"
)

// Request describes one compiler invocation for a test file.
type Request struct {
	// Source is the path of the test file.
	Source string
	// Action selects the compilation mode (dg-do).
	Action directive.Action
	// Options are the effective compiler options, in order.
	Options []string
	// Timeout bounds the invocation; zero means no bound beyond ctx.
	Timeout time.Duration
}

// Stage names the phase an invocation stopped in.
type Stage string

const (
	StageCompile Stage = "compile"
	StageExecute Stage = "execute"
)

// Result is the captured outcome of a Request.
type Result struct {
	// ExitCode is the exit status of the stage that ran last.
	ExitCode int
	// Stage is the phase ExitCode belongs to. Execute only occurs for
	// dg-do run tests whose link step succeeded.
	Stage Stage
	// Assembly is the emitted assembly text for compile actions.
	Assembly string
	Stdout   string
	Stderr   string
	// Command is the rendered compiler command line, for diagnostics.
	Command string
	// TimedOut is set when the invocation was killed by its deadline.
	TimedOut bool
}

// Toolchain abstracts the compiler so the harness can be exercised against
// a fake in tests.
type Toolchain interface {
	// Triple returns the target triple the compiler generates code for.
	Triple() string
	// Version returns a one-line compiler version description.
	Version() string
	// Compile performs the requested action on a test file.
	Compile(ctx context.Context, req Request) (*Result, error)
	// CheckCompile reports whether a source snippet compiles with the given
	// extra flags. Used by effective-target probes.
	CheckCompile(ctx context.Context, source string, flags []string) (bool, error)
}
