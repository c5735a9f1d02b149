// Package config provides configuration management for the dgcheck CLI.
package config

import "strings"

// Defaults for configuration values.
const (
	DefaultTestsDir  = "tests"
	DefaultStateFile = ".dgcheck/state.db"
	DefaultCompiler  = "gcc"
	DefaultTimeout   = 300
	DefaultOutput    = "auto"
)

// Config holds the resolved CLI configuration.
type Config struct {
	// ProjectRoot is the directory all relative paths resolve against.
	ProjectRoot string `koanf:"-"`

	// TestsDir is the root of the testsuite tree.
	TestsDir string `koanf:"tests_dir"`
	// StatePath is the path of the SQLite run-history database.
	StatePath string `koanf:"state_path"`
	// Compiler is the compiler binary name or path.
	Compiler string `koanf:"compiler"`
	// Flags is the default option string used when a test has no
	// dg-options directive.
	Flags string `koanf:"flags"`
	// Target overrides the triple queried from the compiler.
	Target string `koanf:"target"`
	// Jobs bounds test concurrency; zero means one worker per CPU.
	Jobs int `koanf:"jobs"`
	// Timeout is the per-test timeout in seconds.
	Timeout int `koanf:"timeout"`
	// Baseline is the expected-failure manifest path.
	Baseline string `koanf:"baseline"`
	// TargetsFile is the Starlark file with user effective-target probes.
	TargetsFile string `koanf:"targets_file"`

	Verbose bool   `koanf:"verbose"`
	Output  string `koanf:"output"`
}

// DefaultFlags returns the configured default options as a slice.
func (c *Config) DefaultFlags() []string {
	return strings.Fields(c.Flags)
}
