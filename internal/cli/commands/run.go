package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/compilertools/dgcheck/internal/cli/output"
	"github.com/compilertools/dgcheck/pkg/core"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Select     string
	JSONOutput bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run [glob...]",
		Short: "Run the testsuite or a subset of tests",
		Long: `Compile every discovered test, evaluate its scan checks, and record
the results in the state database.

By default the whole tests directory runs. Positional arguments and --select
restrict the run; globs match both the test name (the path relative to the
tests directory) and the base filename.

The command exits non-zero when any test finishes FAIL, XPASS, or UNRESOLVED.`,
		Example: `  # Run everything
  dgcheck run

  # Run one test by name
  dgcheck run arm/neon-vshl-imm-1.c

  # Run every NEON test
  dgcheck run 'neon-*'

  # JSON lines for CI consumption
  dgcheck run --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.Select, "select", "s", "", "Comma-separated test globs to run")
	cmd.Flags().BoolVar(&opts.JSONOutput, "json", false, "Output as JSON lines for progress tracking")

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions, args []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	selects := append([]string{}, args...)
	if opts.Select != "" {
		for _, sel := range strings.Split(opts.Select, ",") {
			if sel = strings.TrimSpace(sel); sel != "" {
				selects = append(selects, sel)
			}
		}
	}

	if opts.JSONOutput {
		return runWithJSON(cmd, cmdCtx, selects)
	}
	return runWithText(cmd, cmdCtx, selects)
}

// runWithText executes the suite with a result table and summary line.
func runWithText(cmd *cobra.Command, cmdCtx *CommandContext, selects []string) error {
	r := cmdCtx.Renderer
	tc := cmdCtx.Harness.Toolchain()
	r.Printf("Target %s (%s)\n", tc.Triple(), tc.Version())

	report, err := cmdCtx.Harness.Run(cmd.Context(), selects)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(report.Results))
	for _, res := range report.Results {
		rows = append(rows, []string{r.Status(res.Status), res.Test, res.Detail})
	}
	r.Table([]string{"Status", "Test", "Detail"}, rows)

	r.Printf("\n%s\n", summaryLine(report.Summary))
	r.Printf("Completed in %s\n", report.Elapsed.Round(time.Millisecond))
	if report.Run != nil {
		r.Printf("Run %s recorded\n", report.Run.ID)
	}

	if !report.Summary.Clean() {
		return fmt.Errorf("testsuite has failures")
	}
	return nil
}

// runWithJSON executes the suite emitting one JSON object per line.
func runWithJSON(cmd *cobra.Command, cmdCtx *CommandContext, selects []string) error {
	started := time.Now()

	report, err := cmdCtx.Harness.Run(cmd.Context(), selects)
	if err != nil {
		return err
	}

	runID := ""
	if report.Run != nil {
		runID = report.Run.ID
	}

	names := make([]string, 0, len(report.Results))
	for _, res := range report.Results {
		names = append(names, res.Test)
	}
	emitRunEvent(cmd, output.RunEvent{
		Event: "run_start",
		RunID: runID,
		Tests: names,
	})

	for _, res := range report.Results {
		emitRunEvent(cmd, output.RunEvent{
			Event:      "test_complete",
			RunID:      runID,
			Test:       res.Test,
			File:       res.File,
			Status:     string(res.Status),
			Detail:     res.Detail,
			DurationMS: res.DurationMS,
		})
	}

	status := "completed"
	if !report.Summary.Clean() {
		status = "failed"
	}
	emitRunEvent(cmd, output.RunEvent{
		Event:       "run_complete",
		RunID:       runID,
		Status:      status,
		TotalTests:  report.Summary.Total(),
		Pass:        report.Summary.Pass,
		Fail:        report.Summary.Fail,
		XFail:       report.Summary.XFail,
		XPass:       report.Summary.XPass,
		Unresolved:  report.Summary.Unresolved,
		Unsupported: report.Summary.Unsupported,
		TotalMS:     time.Since(started).Milliseconds(),
	})

	if !report.Summary.Clean() {
		return fmt.Errorf("testsuite has failures")
	}
	return nil
}

// emitRunEvent outputs a run event as a JSON line.
func emitRunEvent(cmd *cobra.Command, event output.RunEvent) {
	event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	data, _ := json.Marshal(event)
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
}

// summaryLine formats a summary the way compiler testsuites report totals.
func summaryLine(s core.Summary) string {
	parts := []string{fmt.Sprintf("%d pass", s.Pass)}
	if s.Fail > 0 {
		parts = append(parts, fmt.Sprintf("%d fail", s.Fail))
	}
	if s.XFail > 0 {
		parts = append(parts, fmt.Sprintf("%d expected failures", s.XFail))
	}
	if s.XPass > 0 {
		parts = append(parts, fmt.Sprintf("%d unexpected passes", s.XPass))
	}
	if s.Unresolved > 0 {
		parts = append(parts, fmt.Sprintf("%d unresolved", s.Unresolved))
	}
	if s.Unsupported > 0 {
		parts = append(parts, fmt.Sprintf("%d unsupported", s.Unsupported))
	}
	if s.Untested > 0 {
		parts = append(parts, fmt.Sprintf("%d untested", s.Untested))
	}
	return strings.Join(parts, ", ")
}
