package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("tests-dir", "", "")
	flags.String("state", "", "")
	flags.String("compiler", "", "")
	flags.String("flags", "", "")
	flags.String("target", "", "")
	flags.Int("jobs", 0, "")
	flags.Int("timeout", 0, "")
	flags.String("baseline", "", "")
	flags.String("targets", "", "")
	flags.Bool("verbose", false, "")
	flags.String("output", "", "")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	chdir(t, dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, DefaultTestsDir), cfg.TestsDir)
	assert.Equal(t, filepath.Join(dir, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, DefaultCompiler, cfg.Compiler)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Empty(t, cfg.Flags)
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	content := `tests_dir: suite
compiler: arm-none-eabi-gcc
flags: "-O2 -mfpu=neon"
jobs: 4
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dgcheck.yaml"), []byte(content), 0o644))
	chdir(t, dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "suite"), cfg.TestsDir)
	assert.Equal(t, "arm-none-eabi-gcc", cfg.Compiler)
	assert.Equal(t, []string{"-O2", "-mfpu=neon"}, cfg.DefaultFlags())
	assert.Equal(t, 4, cfg.Jobs)
	assert.Equal(t, filepath.Join(dir, "dgcheck.yaml"), GetConfigFileUsed())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dgcheck.yaml"), []byte("compiler: gcc-12\n"), 0o644))
	chdir(t, dir)
	t.Setenv("DGCHECK_COMPILER", "clang")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "clang", cfg.Compiler)
}

func TestLoadConfig_FlagsOverrideEverything(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dgcheck.yaml"), []byte("compiler: gcc-12\njobs: 2\n"), 0o644))
	chdir(t, dir)
	t.Setenv("DGCHECK_COMPILER", "clang")

	flags := testFlags()
	require.NoError(t, flags.Set("compiler", "sh-elf-gcc"))
	require.NoError(t, flags.Set("state", "custom/state.db"))
	require.NoError(t, flags.Set("targets", "probes.star"))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, "sh-elf-gcc", cfg.Compiler)
	assert.Equal(t, 2, cfg.Jobs) // file value survives untouched flags
	// --state and --targets map to their config keys and resolve against
	// the project root.
	assert.Equal(t, filepath.Join(dir, "custom/state.db"), cfg.StatePath)
	assert.Equal(t, filepath.Join(dir, "probes.star"), cfg.TargetsFile)
}

func TestLoadConfig_ExplicitConfigPath(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	sub := filepath.Join(dir, "proj")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	cfgPath := filepath.Join(sub, "custom.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("tests_dir: mytests\n"), 0o644))
	chdir(t, dir)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	// Relative paths resolve against the config file's directory.
	assert.Equal(t, filepath.Join(sub, "mytests"), cfg.TestsDir)
	assert.Equal(t, sub, cfg.ProjectRoot)
}

func TestLoadConfig_UpwardSearch(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "dgcheck.yaml"), []byte("compiler: cross-gcc\n"), 0o644))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	chdir(t, nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "cross-gcc", cfg.Compiler)
	assert.Equal(t, root, cfg.ProjectRoot)
}

func TestLoadConfig_TargetsStarPickup(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "targets.star"), []byte("# probes\n"), 0o644))
	chdir(t, dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "targets.star"), cfg.TargetsFile)
}

func TestLoadConfig_InvalidOutput(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dgcheck.yaml"), []byte("output: xml\n"), 0o644))
	chdir(t, dir)

	_, err := LoadConfig("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output mode")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Compiler: "gcc", Output: "auto"}, false},
		{"empty output ok", Config{Compiler: "gcc"}, false},
		{"missing compiler", Config{Output: "auto"}, true},
		{"negative jobs", Config{Compiler: "gcc", Jobs: -1}, true},
		{"negative timeout", Config{Compiler: "gcc", Timeout: -5}, true},
		{"bad output", Config{Compiler: "gcc", Output: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
