package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/compilertools/dgcheck/internal/cli/output"
	"github.com/compilertools/dgcheck/internal/harness"
)

// ListOptions holds options for the list command.
type ListOptions struct {
	Select string
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	opts := &ListOptions{}

	cmd := &cobra.Command{
		Use:   "list [glob...]",
		Short: "List discovered tests and their directives",
		Long: `Walk the tests directory and show every test file with its parsed
directive summary: the dg-do action, required effective targets, and the
number of scan checks. Tests whose directives fail to parse are listed with
the parse error.`,
		Example: `  # List all tests
  dgcheck list

  # List NEON tests only
  dgcheck list 'neon-*'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.Select, "select", "s", "", "Comma-separated test globs")

	return cmd
}

// ListEntry is the JSON output row for one test.
type ListEntry struct {
	Name     string   `json:"name"`
	Action   string   `json:"action"`
	Options  []string `json:"options,omitempty"`
	Requires []string `json:"requires,omitempty"`
	Scans    int      `json:"scans"`
	Error    string   `json:"error,omitempty"`
}

func runList(cmd *cobra.Command, opts *ListOptions, args []string) error {
	cmdCtx := NewCommandContextWithoutHarness(cmd)
	r := cmdCtx.Renderer

	tests, err := harness.Discover(cmdCtx.Cfg.TestsDir, cmdCtx.Logger)
	if err != nil {
		return err
	}

	selects := append([]string{}, args...)
	if opts.Select != "" {
		for _, sel := range strings.Split(opts.Select, ",") {
			if sel = strings.TrimSpace(sel); sel != "" {
				selects = append(selects, sel)
			}
		}
	}
	tests = harness.Filter(tests, selects)

	entries := make([]ListEntry, 0, len(tests))
	for _, tf := range tests {
		entry := ListEntry{Name: tf.Name}
		if tf.ParseErr != nil {
			entry.Error = tf.ParseErr.Error()
		} else {
			entry.Action = string(tf.Plan.Action)
			entry.Options = tf.Plan.Options
			entry.Requires = tf.Plan.RequiredTargets
			entry.Scans = len(tf.Plan.Finals)
		}
		entries = append(entries, entry)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(entries)
	}

	if len(entries) == 0 {
		r.Println("No tests found")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		if e.Error != "" {
			rows = append(rows, []string{e.Name, "-", "-", "-", e.Error})
			continue
		}
		rows = append(rows, []string{
			e.Name,
			e.Action,
			strings.Join(e.Requires, " "),
			fmt.Sprintf("%d", e.Scans),
			strings.Join(e.Options, " "),
		})
	}
	r.Table([]string{"Test", "Action", "Requires", "Scans", "Options"}, rows)
	r.Printf("\n%d tests\n", len(entries))

	return nil
}
