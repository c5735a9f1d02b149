// Package cli provides the command-line interface for dgcheck.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/compilertools/dgcheck/internal/cli/commands"
	"github.com/compilertools/dgcheck/internal/cli/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dgcheck",
		Short: "dgcheck - compiler testsuite harness",
		Long: `dgcheck runs DejaGnu-style compiler tests: C sources annotated with
dg- directives that declare how to compile the file, which targets it
applies to, and which patterns the emitted assembly must contain.

Results are recorded in a local SQLite database so regressions can be
compared across runs.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			// Create the logger and store it in context for commands.
			logger := newLogger(cfg.Verbose)
			ctx := context.WithValue(cmd.Context(), config.LoggerKey(), logger)
			cmd.SetContext(ctx)

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Compiler testsuite harness
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./dgcheck.yaml)")
	rootCmd.PersistentFlags().String("tests-dir", "", "Path to the tests directory")
	rootCmd.PersistentFlags().String("state", "", "Path to the state database")
	rootCmd.PersistentFlags().String("compiler", "", "Compiler binary name or path")
	rootCmd.PersistentFlags().String("flags", "", "Default compiler options for tests without dg-options")
	rootCmd.PersistentFlags().StringP("target", "t", "", "Override the target triple reported by the compiler")
	rootCmd.PersistentFlags().IntP("jobs", "j", 0, "Concurrent tests (default: number of CPUs)")
	rootCmd.PersistentFlags().Int("timeout", 0, "Per-test timeout in seconds")
	rootCmd.PersistentFlags().String("baseline", "", "Path to the expected-failure manifest")
	rootCmd.PersistentFlags().String("targets", "", "Path to the Starlark effective-target probes")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|text|markdown|json)")

	// Register completion for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewShowCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(commands.NewDoctorCommand())
	rootCmd.AddCommand(commands.NewProbeCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// newLogger creates the CLI logger: structured text on stderr when verbose,
// discard otherwise.
func newLogger(verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for dgcheck.

To load completions:

Bash:
  $ source <(dgcheck completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ dgcheck completion bash > /etc/bash_completion.d/dgcheck
  # macOS:
  $ dgcheck completion bash > $(brew --prefix)/etc/bash_completion.d/dgcheck

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ dgcheck completion zsh > "${fpath[1]}/_dgcheck"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ dgcheck completion fish | source

  # To load completions for each session, execute once:
  $ dgcheck completion fish > ~/.config/fish/completions/dgcheck.fish

PowerShell:
  PS> dgcheck completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> dgcheck completion powershell > dgcheck.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}
	return cmd
}
