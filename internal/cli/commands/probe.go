package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/compilertools/dgcheck/internal/directive"
	"github.com/compilertools/dgcheck/internal/harness"
	"github.com/compilertools/dgcheck/internal/scan"
	"github.com/compilertools/dgcheck/internal/toolchain"
)

// NewProbeCommand creates the probe command.
func NewProbeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "probe <test>",
		Short: "Interactively scan a test's assembly",
		Long: `Compile one test and drop into a REPL where each input line is treated
as a scan-assembler pattern and matched against the emitted assembly. Useful
for developing dg-final checks: iterate on the pattern until the match count
is what the test should assert.

Patterns use the same syntax as scan-assembler directives. Dot-commands
inspect the compilation; .recompile accepts replacement options.`,
		Example: `  dgcheck probe arm/neon-vshl-imm-1.c`,
		Args:    cobra.ExactArgs(1),
		RunE:    runProbe,
	}
}

// probeSession holds the compiled state the REPL iterates on.
type probeSession struct {
	cmdCtx *CommandContext
	test   *harness.TestFile
	opts   []string
	asm    string
}

func runProbe(cmd *cobra.Command, args []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	tests, err := cmdCtx.Harness.Discover()
	if err != nil {
		return err
	}
	tests = harness.Filter(tests, args[:1])
	if len(tests) != 1 {
		return fmt.Errorf("%q must match exactly one test, matched %d", args[0], len(tests))
	}
	tf := tests[0]
	if tf.ParseErr != nil {
		return fmt.Errorf("test %s: %w", tf.Name, tf.ParseErr)
	}

	sess := &probeSession{
		cmdCtx: cmdCtx,
		test:   tf,
		opts:   effectiveProbeOptions(cmdCtx, tf.Plan),
	}
	if err := sess.compile(cmd); err != nil {
		return err
	}

	historyFile := filepath.Join(filepath.Dir(cmdCtx.Cfg.StatePath), "probe_history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "probe> ",
		HistoryFile:     historyFile,
		AutoComplete:    probeCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Probing %s with options %v\n", tf.Name, sess.opts)
	_, _ = fmt.Fprintf(out, "%d assembly lines captured. Type a pattern, or .help for commands\n\n",
		strings.Count(sess.asm, "\n"))

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if quit := sess.handleDotCommand(cmd, line); quit {
				break
			}
			continue
		}

		sess.scanPattern(cmd, line)
	}

	return nil
}

// effectiveProbeOptions mirrors the option resolution used during a run.
func effectiveProbeOptions(cmdCtx *CommandContext, plan *directive.Plan) []string {
	base := cmdCtx.Cfg.DefaultFlags()
	if plan.HasOptions {
		base = plan.Options
	}
	opts := make([]string, 0, len(base)+len(plan.AdditionalOptions))
	opts = append(opts, base...)
	opts = append(opts, plan.AdditionalOptions...)
	return opts
}

// compile recompiles the probed test with the current session options.
func (s *probeSession) compile(cmd *cobra.Command) error {
	res, err := s.cmdCtx.Harness.Toolchain().Compile(cmd.Context(), toolchain.Request{
		Source:  s.test.Path,
		Action:  directive.ActionCompile,
		Options: s.opts,
	})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("compilation failed (exit %d): %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	s.asm = res.Assembly
	return nil
}

// scanPattern compiles the pattern and reports matches against the assembly.
func (s *probeSession) scanPattern(cmd *cobra.Command, pattern string) {
	out := cmd.OutOrStdout()

	re, err := scan.Compile(pattern)
	if err != nil {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	matches := re.FindAllString(s.asm, -1)
	_, _ = fmt.Fprintf(out, "%d matches\n", len(matches))
	for i, m := range matches {
		if i >= 5 {
			_, _ = fmt.Fprintf(out, "  ... and %d more\n", len(matches)-5)
			break
		}
		_, _ = fmt.Fprintf(out, "  %q\n", m)
	}
}

func (s *probeSession) handleDotCommand(cmd *cobra.Command, line string) (quit bool) {
	out := cmd.OutOrStdout()
	errW := cmd.ErrOrStderr()
	parts := strings.Fields(line)

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		printProbeHelp(out)

	case ".opts":
		_, _ = fmt.Fprintf(out, "%v\n", s.opts)

	case ".asm":
		lines := strings.Split(s.asm, "\n")
		limit := len(lines)
		if len(parts) > 1 {
			n, err := strconv.Atoi(parts[1])
			if err != nil {
				_, _ = fmt.Fprintln(errW, "Usage: .asm [lines]")
				return false
			}
			if n < limit {
				limit = n
			}
		}
		for _, l := range lines[:limit] {
			_, _ = fmt.Fprintln(out, l)
		}

	case ".recompile":
		if len(parts) > 1 {
			s.opts = parts[1:]
		}
		if err := s.compile(cmd); err != nil {
			_, _ = fmt.Fprintf(errW, "Error: %v\n", err)
			return false
		}
		_, _ = fmt.Fprintf(out, "Recompiled with %v, %d assembly lines\n", s.opts, strings.Count(s.asm, "\n"))

	case ".checks":
		for _, check := range s.test.Plan.Finals {
			outcome, err := scan.Evaluate(check, s.asm)
			if err != nil {
				_, _ = fmt.Fprintf(errW, "line %d: %v\n", check.Line, err)
				continue
			}
			status := "ok"
			if !outcome.Ok {
				status = outcome.Detail
			}
			_, _ = fmt.Fprintf(out, "line %d %s %q: %s\n", check.Line, check.Kind, check.Pattern, status)
		}

	case ".clear":
		fmt.Print("\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(errW, "Unknown command: %s (type .help for commands)\n", parts[0])
	}
	return false
}

func printProbeHelp(w io.Writer) {
	help := `
Commands:
  <pattern>            Scan the assembly with a scan-assembler pattern
  .checks              Evaluate the test's own dg-final checks
  .asm [lines]         Print the captured assembly
  .opts                Show the current compile options
  .recompile [opt...]  Recompile, optionally with replacement options
  .clear               Clear the screen
  .quit / .exit        Exit

Tips:
  - Patterns are matched with . spanning newlines, like scan-assembler
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}

// probeCompleter completes the dot-commands.
func probeCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".checks"),
		readline.PcItem(".asm"),
		readline.PcItem(".opts"),
		readline.PcItem(".recompile"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
