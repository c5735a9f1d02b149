package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/compilertools/dgcheck/internal/cli/config"
	"github.com/compilertools/dgcheck/internal/cli/output"
	"github.com/compilertools/dgcheck/internal/harness"
	"github.com/compilertools/dgcheck/internal/state"
	"github.com/compilertools/dgcheck/internal/toolchain"
	"github.com/compilertools/dgcheck/pkg/core"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Harness  *harness.Harness
	Store    core.Store
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with a live toolchain, state
// store, and harness. Returns the context and a cleanup function that must
// be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	tc, err := toolchain.NewGCC(cmd.Context(), cfg.Compiler, cfg.Target, logger)
	if err != nil {
		return nil, nil, err
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	h, err := harness.New(harness.Config{
		TestsDir:       cfg.TestsDir,
		DefaultOptions: cfg.DefaultFlags(),
		Jobs:           cfg.Jobs,
		Timeout:        time.Duration(cfg.Timeout) * time.Second,
		BaselinePath:   cfg.Baseline,
		TargetsFile:    cfg.TargetsFile,
		Store:          store,
		Toolchain:      tc,
		Logger:         logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	cleanup := func() {
		_ = store.Close()
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Harness:  h,
		Store:    store,
		Renderer: newRenderer(cmd, cfg),
	}, cleanup, nil
}

// NewCommandContextWithoutHarness creates a CommandContext for commands that
// only read test files or the state store and never invoke the compiler.
func NewCommandContextWithoutHarness(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: newRenderer(cmd, cfg),
	}
}

func newRenderer(cmd *cobra.Command, cfg *config.Config) *output.Renderer {
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output))
}

// getConfig returns the current configuration, falling back to defaults if
// the root command's config load did not run (direct command construction in
// tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		TestsDir:  config.DefaultTestsDir,
		StatePath: config.DefaultStateFile,
		Compiler:  config.DefaultCompiler,
		Timeout:   config.DefaultTimeout,
		Output:    config.DefaultOutput,
	}
}

// openStore opens and migrates the state database, creating its directory
// when needed.
func openStore(cfg *config.Config, logger *slog.Logger) (core.Store, error) {
	if dir := filepath.Dir(cfg.StatePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
