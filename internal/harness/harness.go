// Package harness orchestrates testsuite runs: it discovers annotated test
// files, drives the toolchain, evaluates scan checks, and records results.
package harness

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/compilertools/dgcheck/internal/target"
	"github.com/compilertools/dgcheck/internal/toolchain"
	"github.com/compilertools/dgcheck/pkg/core"
)

// DefaultTimeout is the per-test timeout when neither the configuration nor
// a dg-timeout directive sets one. Matches the DejaGnu default.
const DefaultTimeout = 300 * time.Second

// Config holds harness configuration.
type Config struct {
	// TestsDir is the root of the testsuite tree.
	TestsDir string
	// DefaultOptions are the compiler options used when a test carries no
	// dg-options directive.
	DefaultOptions []string
	// Jobs bounds test concurrency; zero means GOMAXPROCS.
	Jobs int
	// Timeout is the per-test timeout; zero means DefaultTimeout.
	Timeout time.Duration
	// BaselinePath points at the expected-failure manifest (optional).
	BaselinePath string
	// TargetsFile points at a Starlark file with user effective-target
	// probes (optional).
	TargetsFile string
	// Store receives run records; nil disables persistence.
	Store core.Store
	// Toolchain drives the compiler under test.
	Toolchain toolchain.Toolchain
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Harness executes a testsuite against one toolchain.
type Harness struct {
	testsDir    string
	defaultOpts []string
	jobs        int
	timeout     time.Duration
	baseline    map[string]bool
	store       core.Store
	tc          toolchain.Toolchain
	targets     *target.Registry
	logger      *slog.Logger
}

// New creates a harness, loading the baseline and any user target probes.
func New(cfg Config) (*Harness, error) {
	if cfg.Toolchain == nil {
		return nil, fmt.Errorf("harness requires a toolchain")
	}
	if cfg.TestsDir == "" {
		return nil, fmt.Errorf("harness requires a tests directory")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	jobs := cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	baseline, err := loadBaseline(cfg.BaselinePath)
	if err != nil {
		return nil, err
	}

	targets := target.NewRegistry(cfg.Toolchain, logger)
	if cfg.TargetsFile != "" {
		if _, err := os.Stat(cfg.TargetsFile); err == nil {
			if err := targets.LoadStarlark(cfg.TargetsFile); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat targets file: %w", err)
		}
	}

	logger.Debug("harness initialized",
		"tests_dir", cfg.TestsDir,
		"target", cfg.Toolchain.Triple(),
		"jobs", jobs,
		"baseline_entries", len(baseline))

	return &Harness{
		testsDir:    cfg.TestsDir,
		defaultOpts: cfg.DefaultOptions,
		jobs:        jobs,
		timeout:     timeout,
		baseline:    baseline,
		store:       cfg.Store,
		tc:          cfg.Toolchain,
		targets:     targets,
		logger:      logger,
	}, nil
}

// Toolchain returns the toolchain under test.
func (h *Harness) Toolchain() toolchain.Toolchain { return h.tc }

// Targets returns the effective-target registry.
func (h *Harness) Targets() *target.Registry { return h.targets }

// Store returns the state store, or nil when persistence is disabled.
func (h *Harness) Store() core.Store { return h.store }
