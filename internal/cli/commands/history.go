package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/compilertools/dgcheck/internal/cli/output"
	"github.com/compilertools/dgcheck/pkg/core"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

// NewHistoryCommand creates the history command and its show subcommand.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past testsuite runs",
		Long: `List recent runs from the state database with their target, status, and
result counts. Use "history show <run-id>" for the per-test results of one
run.`,
		Example: `  # Last 20 runs
  dgcheck history

  # Results of one run
  dgcheck history show 3f8a...`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.AddCommand(newHistoryShowCommand())

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cmdCtx := NewCommandContextWithoutHarness(cmd)
	r := cmdCtx.Renderer

	store, err := openStore(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(opts.Limit)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(runs)
	}

	if len(runs) == 0 {
		r.Println("No runs recorded")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Target,
			string(run.Status),
			summaryLine(run.Summary),
		})
	}
	r.Table([]string{"Run", "Started", "Target", "Status", "Results"}, rows)

	return nil
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the per-test results of one run",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShow,
	}
}

// HistoryShowOutput is the JSON output for history show.
type HistoryShowOutput struct {
	Run     *core.Run      `json:"run"`
	Results []*core.Result `json:"results"`
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	cmdCtx := NewCommandContextWithoutHarness(cmd)
	r := cmdCtx.Renderer

	store, err := openStore(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(args[0])
	if err != nil {
		return err
	}
	results, err := store.ResultsForRun(run.ID)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(HistoryShowOutput{Run: run, Results: results})
	}

	r.Printf("Run %s on %s (%s)\n", run.ID, run.Target, run.Compiler)
	r.Printf("Started %s, status %s\n", run.StartedAt.Local().Format(time.RFC1123), run.Status)
	if run.Error != "" {
		r.Printf("Error: %s\n", run.Error)
	}
	r.Println()

	rows := make([][]string, 0, len(results))
	for _, res := range results {
		rows = append(rows, []string{
			r.Status(res.Status),
			res.Test,
			fmt.Sprintf("%dms", res.DurationMS),
			res.Detail,
		})
	}
	r.Table([]string{"Status", "Test", "Duration", "Detail"}, rows)
	r.Printf("\n%s\n", summaryLine(run.Summary))

	return nil
}
