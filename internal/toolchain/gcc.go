package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/compilertools/dgcheck/internal/directive"
)

// GCC drives a gcc-compatible compiler (gcc, clang, and cross builds of
// either accept the same driver flags this package uses).
type GCC struct {
	path    string
	triple  string
	version string
	logger  *slog.Logger
}

// NewGCC resolves the compiler binary and queries its target triple and
// version. An explicit tripleOverride skips the -dumpmachine query, which
// matters for wrappers that do not forward it.
func NewGCC(ctx context.Context, compiler, tripleOverride string, logger *slog.Logger) (*GCC, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	path, err := exec.LookPath(compiler)
	if err != nil {
		return nil, fmt.Errorf("compiler %q not found: %w", compiler, err)
	}

	g := &GCC{path: path, triple: tripleOverride, logger: logger}

	if g.triple == "" {
		out, err := exec.CommandContext(ctx, path, "-dumpmachine").Output()
		if err != nil {
			return nil, fmt.Errorf("failed to query target triple from %s: %w", path, err)
		}
		g.triple = strings.TrimSpace(string(out))
	}

	if out, err := exec.CommandContext(ctx, path, "--version").Output(); err == nil {
		if line, _, _ := strings.Cut(string(out), "\n"); line != "" {
			g.version = strings.TrimSpace(line)
		}
	}
	if g.version == "" {
		g.version = "unknown"
	}

	logger.Debug("toolchain initialized", "path", path, "triple", g.triple, "version", g.version)
	return g, nil
}

// Path returns the resolved compiler binary path.
func (g *GCC) Path() string { return g.path }

func (g *GCC) Triple() string { return g.triple }

func (g *GCC) Version() string { return g.version }

// Compile implements Toolchain. Each invocation gets a private scratch
// directory so parallel tests never collide on output names.
func (g *GCC) Compile(ctx context.Context, req Request) (*Result, error) {
	workDir, err := os.MkdirTemp("", "dgcheck-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	args, output := g.buildArgs(req, workDir)
	res, err := g.exec(ctx, g.path, args)
	if err != nil {
		return nil, err
	}

	if res.ExitCode == 0 && req.Action == directive.ActionCompile {
		asm, err := os.ReadFile(output)
		if err != nil {
			return nil, fmt.Errorf("compiler succeeded but produced no assembly: %w", err)
		}
		res.Assembly = string(asm)
	}

	if res.ExitCode == 0 && req.Action == directive.ActionRun {
		runRes, err := g.exec(ctx, output, nil)
		if err != nil {
			return nil, err
		}
		runRes.Stage = StageExecute
		runRes.Command = res.Command + " && " + runRes.Command
		res = runRes
	}

	return res, nil
}

// buildArgs renders the driver arguments for an action and returns them with
// the path of the primary output artifact.
func (g *GCC) buildArgs(req Request, workDir string) ([]string, string) {
	base := strings.TrimSuffix(filepath.Base(req.Source), filepath.Ext(req.Source))

	var args []string
	var output string
	switch req.Action {
	case directive.ActionPreprocess:
		output = filepath.Join(workDir, base+".i")
		args = []string{"-E", req.Source, "-o", output}
	case directive.ActionAssemble:
		output = filepath.Join(workDir, base+".o")
		args = []string{"-c", req.Source, "-o", output}
	case directive.ActionLink, directive.ActionRun:
		output = filepath.Join(workDir, base+".exe")
		args = []string{req.Source, "-o", output}
	default: // compile
		output = filepath.Join(workDir, base+".s")
		args = []string{"-S", req.Source, "-o", output}
	}

	// Options go first so a test's -o style flags could not be clobbered;
	// gcc takes the last -o, and tests never pass one.
	return append(append([]string{}, req.Options...), args...), output
}

// exec runs one command and captures its outcome without treating non-zero
// exit as a Go-level error.
func (g *GCC) exec(ctx context.Context, bin string, args []string) (*Result, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	res := &Result{
		Stage:   StageCompile,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Command: bin + " " + strings.Join(args, " "),
	}

	if ctx.Err() != nil {
		res.TimedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)
		res.ExitCode = -1
		return res, nil
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return nil, fmt.Errorf("failed to run %s: %w", bin, runErr)
	}

	return res, nil
}

// CheckCompile implements the effective-target probe contract: write the
// snippet to a scratch file and see whether it compiles.
func (g *GCC) CheckCompile(ctx context.Context, source string, flags []string) (bool, error) {
	workDir, err := os.MkdirTemp("", "dgcheck-probe-*")
	if err != nil {
		return false, fmt.Errorf("failed to create probe directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	src := filepath.Join(workDir, "probe.c")
	if err := os.WriteFile(src, []byte(source), 0o644); err != nil {
		return false, fmt.Errorf("failed to write probe source: %w", err)
	}

	args := append(append([]string{}, flags...), "-S", src, "-o", filepath.Join(workDir, "probe.s"))
	res, err := g.exec(ctx, g.path, args)
	if err != nil {
		return false, err
	}
	return res.ExitCode == 0, nil
}
