package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/compilertools/dgcheck/internal/cli/output"
	"github.com/compilertools/dgcheck/internal/harness"
	"github.com/compilertools/dgcheck/internal/toolchain"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the environment can run the testsuite",
		Long: `Verify the pieces a run depends on: the compiler resolves and reports a
target triple, a trivial source file compiles, the tests directory exists,
the state database opens, and the builtin effective-target probes answer.

Each check reports ok or a failure detail; the command exits non-zero when
any check fails.`,
		Example: `  dgcheck doctor`,
		RunE:    runDoctor,
	}
}

// HealthCheck is one doctor check result.
type HealthCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok" or "fail"
	Detail string `json:"detail,omitempty"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cmdCtx := NewCommandContextWithoutHarness(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer
	ctx := cmd.Context()

	var checks []HealthCheck
	ok := func(name, detail string) {
		checks = append(checks, HealthCheck{Name: name, Status: "ok", Detail: detail})
	}
	fail := func(name string, err error) {
		checks = append(checks, HealthCheck{Name: name, Status: "fail", Detail: err.Error()})
	}

	// Compiler resolves and reports a triple.
	tc, err := toolchain.NewGCC(ctx, cfg.Compiler, cfg.Target, cmdCtx.Logger)
	if err != nil {
		fail("compiler", err)
	} else {
		ok("compiler", fmt.Sprintf("%s, %s", cfg.Compiler, tc.Version()))
		ok("target triple", tc.Triple())

		// A trivial translation unit compiles with the default flags.
		compiled, err := tc.CheckCompile(ctx, "int main(void) { return 0; }\n", cfg.DefaultFlags())
		switch {
		case err != nil:
			fail("trivial compile", err)
		case !compiled:
			fail("trivial compile", fmt.Errorf("compiler rejected an empty main with flags %v", cfg.DefaultFlags()))
		default:
			ok("trivial compile", "")
		}
	}

	// Tests directory exists and contains tests.
	tests, err := harness.Discover(cfg.TestsDir, cmdCtx.Logger)
	if err != nil {
		fail("tests directory", err)
	} else {
		parseErrs := 0
		for _, tf := range tests {
			if tf.ParseErr != nil {
				parseErrs++
			}
		}
		detail := fmt.Sprintf("%d tests", len(tests))
		if parseErrs > 0 {
			detail += fmt.Sprintf(", %d with directive errors", parseErrs)
		}
		ok("tests directory", detail)
	}

	// State database opens and migrates.
	store, err := openStore(cfg, cmdCtx.Logger)
	if err != nil {
		fail("state database", err)
	} else {
		ok("state database", cfg.StatePath)
		_ = store.Close()
	}

	// Baseline and targets files parse when configured.
	if cfg.TargetsFile != "" {
		if _, err := os.Stat(cfg.TargetsFile); err != nil {
			fail("targets file", err)
		} else {
			ok("targets file", cfg.TargetsFile)
		}
	}

	// Sample effective-target probes, only when the compiler works.
	if tc != nil {
		h, err := harness.New(harness.Config{
			TestsDir:    cfg.TestsDir,
			TargetsFile: cfg.TargetsFile,
			Toolchain:   tc,
			Logger:      cmdCtx.Logger,
		})
		if err != nil {
			fail("probes", err)
		} else {
			for _, name := range []string{"lp64", "fpic"} {
				supported, err := h.Targets().Check(ctx, name)
				if err != nil {
					fail("probe "+name, err)
					continue
				}
				ok("probe "+name, fmt.Sprintf("%v", supported))
			}
		}
	}

	failed := 0
	for _, check := range checks {
		if check.Status == "fail" {
			failed++
		}
	}

	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(checks); err != nil {
			return err
		}
	} else {
		rows := make([][]string, 0, len(checks))
		for _, check := range checks {
			rows = append(rows, []string{check.Name, check.Status, check.Detail})
		}
		r.Table([]string{"Check", "Status", "Detail"}, rows)
		if failed == 0 {
			r.Printf("\nAll %d checks passed\n", len(checks))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(checks))
	}
	return nil
}
