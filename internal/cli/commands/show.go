package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/compilertools/dgcheck/internal/cli/output"
	"github.com/compilertools/dgcheck/internal/directive"
	"github.com/compilertools/dgcheck/internal/harness"
)

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <test>",
		Short: "Show the parsed directives of one test",
		Long: `Display the full directive plan of a single test: the dg-do action and
selector, effective options, required targets, skip conditions, scan checks,
and timeout override.`,
		Example: `  dgcheck show arm/neon-vshl-imm-1.c`,
		Args:    cobra.ExactArgs(1),
		RunE:    runShow,
	}
	return cmd
}

// ShowOutput is the JSON form of a directive plan.
type ShowOutput struct {
	Name              string      `json:"name"`
	File              string      `json:"file"`
	Action            string      `json:"action"`
	ActionSelector    []string    `json:"action_selector,omitempty"`
	Options           []string    `json:"options,omitempty"`
	AdditionalOptions []string    `json:"additional_options,omitempty"`
	RequiredTargets   []string    `json:"required_targets,omitempty"`
	SkipIfs           []ShowSkip  `json:"skip_ifs,omitempty"`
	Scans             []ShowCheck `json:"scans,omitempty"`
	TimeoutSeconds    int         `json:"timeout_seconds,omitempty"`
}

// ShowSkip is one dg-skip-if condition.
type ShowSkip struct {
	Comment     string   `json:"comment"`
	Selectors   []string `json:"selectors,omitempty"`
	IncludeOpts []string `json:"include_opts,omitempty"`
	ExcludeOpts []string `json:"exclude_opts,omitempty"`
	Line        int      `json:"line"`
}

// ShowCheck is one dg-final scan check.
type ShowCheck struct {
	Kind    string `json:"kind"`
	Pattern string `json:"pattern"`
	Count   int    `json:"count,omitempty"`
	Line    int    `json:"line"`
}

func runShow(cmd *cobra.Command, args []string) error {
	cmdCtx := NewCommandContextWithoutHarness(cmd)
	r := cmdCtx.Renderer

	tests, err := harness.Discover(cmdCtx.Cfg.TestsDir, cmdCtx.Logger)
	if err != nil {
		return err
	}
	tests = harness.Filter(tests, args[:1])
	if len(tests) == 0 {
		return fmt.Errorf("test %q not found", args[0])
	}
	if len(tests) > 1 {
		names := make([]string, 0, len(tests))
		for _, tf := range tests {
			names = append(names, tf.Name)
		}
		return fmt.Errorf("%q matches %d tests: %s", args[0], len(tests), strings.Join(names, ", "))
	}

	tf := tests[0]
	if tf.ParseErr != nil {
		return fmt.Errorf("test %s: %w", tf.Name, tf.ParseErr)
	}

	out := buildShowOutput(tf.Name, tf.Plan)
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	r.Printf("Test:    %s\n", out.Name)
	r.Printf("File:    %s\n", out.File)
	r.Printf("Action:  %s", out.Action)
	if len(out.ActionSelector) > 0 {
		r.Printf(" { target %s }", strings.Join(out.ActionSelector, " "))
	}
	r.Println()
	if len(out.Options) > 0 {
		r.Printf("Options: %s\n", strings.Join(out.Options, " "))
	}
	if len(out.AdditionalOptions) > 0 {
		r.Printf("Additional options: %s\n", strings.Join(out.AdditionalOptions, " "))
	}
	if len(out.RequiredTargets) > 0 {
		r.Printf("Requires: %s\n", strings.Join(out.RequiredTargets, " "))
	}
	if out.TimeoutSeconds > 0 {
		r.Printf("Timeout: %ds\n", out.TimeoutSeconds)
	}
	for _, skip := range out.SkipIfs {
		r.Printf("Skip-if (line %d): %s targets=%v include=%v exclude=%v\n",
			skip.Line, skip.Comment, skip.Selectors, skip.IncludeOpts, skip.ExcludeOpts)
	}
	if len(out.Scans) > 0 {
		rows := make([][]string, 0, len(out.Scans))
		for _, check := range out.Scans {
			count := ""
			if check.Kind == string(directive.ScanAssemblerTimes) {
				count = fmt.Sprintf("%d", check.Count)
			}
			rows = append(rows, []string{fmt.Sprintf("%d", check.Line), check.Kind, check.Pattern, count})
		}
		r.Println()
		r.Table([]string{"Line", "Check", "Pattern", "Count"}, rows)
	}

	return nil
}

func buildShowOutput(name string, plan *directive.Plan) *ShowOutput {
	out := &ShowOutput{
		Name:              name,
		File:              plan.Path,
		Action:            string(plan.Action),
		ActionSelector:    plan.ActionSelector,
		Options:           plan.Options,
		AdditionalOptions: plan.AdditionalOptions,
		RequiredTargets:   plan.RequiredTargets,
		TimeoutSeconds:    int(plan.Timeout.Seconds()),
	}
	for _, skip := range plan.SkipIfs {
		out.SkipIfs = append(out.SkipIfs, ShowSkip{
			Comment:     skip.Comment,
			Selectors:   skip.Selectors,
			IncludeOpts: skip.IncludeOpts,
			ExcludeOpts: skip.ExcludeOpts,
			Line:        skip.Line,
		})
	}
	for _, check := range plan.Finals {
		out.Scans = append(out.Scans, ShowCheck{
			Kind:    string(check.Kind),
			Pattern: check.Pattern,
			Count:   check.Count,
			Line:    check.Line,
		})
	}
	return out
}
