package commands

import (
	"github.com/spf13/cobra"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/compilertools/dgcheck/internal/tui"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [glob...]",
		Short: "Rerun tests whenever a test file changes",
		Long: `Start an interactive screen that watches the tests directory and reruns
the suite (or the selected subset) on every change. Results update in place;
press r to rerun manually and q to quit.`,
		Example: `  # Watch the whole suite
  dgcheck watch

  # Watch one test while editing it
  dgcheck watch arm/neon-vshl-imm-1.c`,
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	model, err := tui.New(cmdCtx.Harness, cmdCtx.Cfg.TestsDir, args)
	if err != nil {
		return err
	}
	defer func() { _ = model.Close() }()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithOutput(cmd.OutOrStdout()))
	_, err = p.Run()
	return err
}
