package harness

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/compilertools/dgcheck/internal/directive"
	"github.com/compilertools/dgcheck/internal/scan"
	"github.com/compilertools/dgcheck/internal/target"
	"github.com/compilertools/dgcheck/internal/toolchain"
	"github.com/compilertools/dgcheck/pkg/core"
)

// maxDetailLen bounds the stderr excerpt stored with a failing result.
const maxDetailLen = 2000

// Report is the outcome of one suite run.
type Report struct {
	// Run is nil when persistence is disabled.
	Run     *core.Run
	Results []*core.Result
	Summary core.Summary
	Elapsed time.Duration
}

// Run executes the suite, or the subset matching selects, and returns the
// aggregated report. Tests execute concurrently up to the configured job
// limit; result order is deterministic regardless.
func (h *Harness) Run(ctx context.Context, selects []string) (*Report, error) {
	started := time.Now()

	tests, err := h.Discover()
	if err != nil {
		return nil, err
	}
	tests = Filter(tests, selects)
	if len(tests) == 0 {
		return nil, fmt.Errorf("no tests matched")
	}

	h.logger.Info("starting run",
		"tests", len(tests),
		"target", h.tc.Triple(),
		"jobs", h.jobs)

	var run *core.Run
	runID := ""
	if h.store != nil {
		run, err = h.store.CreateRun(h.tc.Triple(), h.tc.Version())
		if err != nil {
			return nil, fmt.Errorf("failed to create run: %w", err)
		}
		runID = run.ID
	}

	results := make([]*core.Result, len(tests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.jobs)
	for i, tf := range tests {
		g.Go(func() error {
			var res *core.Result
			if gctx.Err() != nil {
				// Tests never started still get a recorded outcome.
				res = &core.Result{
					Test:   tf.Name,
					File:   tf.Path,
					Status: core.StatusUntested,
					Detail: "run cancelled before test started",
				}
			} else {
				res = h.execute(gctx, tf)
			}
			res.RunID = runID
			results[i] = res

			if h.store != nil {
				// Recording failures must not change test outcomes.
				if err := h.store.RecordResult(res); err != nil {
					h.logger.Error("failed to record result", "test", res.Test, "error", err)
				}
			}
			h.logger.Debug("test finished", "test", res.Test, "status", res.Status, "ms", res.DurationMS)
			return gctx.Err()
		})
	}
	runErr := g.Wait()

	var summary core.Summary
	for _, res := range results {
		summary.Add(res.Status)
	}

	if h.store != nil {
		status := core.RunStatusCompleted
		errMsg := ""
		if runErr != nil {
			status = core.RunStatusFailed
			errMsg = runErr.Error()
		} else if !summary.Clean() {
			status = core.RunStatusFailed
		}
		if err := h.store.CompleteRun(runID, status, summary, errMsg); err != nil {
			h.logger.Error("failed to complete run", "run_id", runID, "error", err)
		}
		run, _ = h.store.GetRun(runID)
	}

	if runErr != nil {
		return nil, runErr
	}

	h.logger.Info("run completed",
		"pass", summary.Pass,
		"fail", summary.Fail,
		"unsupported", summary.Unsupported,
		"unresolved", summary.Unresolved,
		"elapsed", time.Since(started).Round(time.Millisecond))

	return &Report{
		Run:     run,
		Results: results,
		Summary: summary,
		Elapsed: time.Since(started),
	}, nil
}

// execute runs a single test through the full lifecycle and applies the
// baseline to its raw status.
func (h *Harness) execute(ctx context.Context, tf *TestFile) *core.Result {
	started := time.Now()
	res := &core.Result{Test: tf.Name, File: tf.Path}
	defer func() {
		res.DurationMS = time.Since(started).Milliseconds()
		res.Status = h.applyBaseline(tf.Name, res.Status)
	}()

	if tf.ParseErr != nil {
		res.Status = core.StatusUnresolved
		res.Detail = tf.ParseErr.Error()
		return res
	}
	plan := tf.Plan

	opts := h.effectiveOptions(plan)

	if skipped, detail := h.checkSupported(ctx, plan, opts); skipped != "" {
		res.Status = skipped
		res.Detail = detail
		return res
	}

	timeout := h.timeout
	if plan.Timeout > 0 {
		timeout = plan.Timeout
	}
	cres, err := h.tc.Compile(ctx, toolchain.Request{
		Source:  tf.Path,
		Action:  plan.Action,
		Options: opts,
		Timeout: timeout,
	})
	if err != nil {
		res.Status = core.StatusUnresolved
		res.Detail = err.Error()
		return res
	}

	if cres.TimedOut {
		res.Status = core.StatusFail
		res.Detail = fmt.Sprintf("timeout after %s", timeout)
		return res
	}
	if cres.ExitCode != 0 {
		res.Status = core.StatusFail
		res.Detail = truncate(fmt.Sprintf("%s failed (exit %d): %s", cres.Stage, cres.ExitCode, strings.TrimSpace(cres.Stderr)))
		return res
	}

	if len(plan.Finals) == 0 {
		res.Status = core.StatusPass
		return res
	}
	if plan.Action != directive.ActionCompile {
		// No assembly was captured, so the scans cannot run.
		res.Status = core.StatusUnresolved
		res.Detail = fmt.Sprintf("scan-assembler checks require dg-do compile, test uses %s", plan.Action)
		return res
	}

	var failures []string
	for _, check := range plan.Finals {
		outcome, err := scan.Evaluate(check, cres.Assembly)
		if err != nil {
			res.Status = core.StatusUnresolved
			res.Detail = err.Error()
			return res
		}
		if !outcome.Ok {
			failures = append(failures, outcome.Detail)
		}
	}
	if len(failures) > 0 {
		res.Status = core.StatusFail
		res.Detail = truncate(strings.Join(failures, "; "))
		return res
	}

	res.Status = core.StatusPass
	return res
}

// effectiveOptions applies dg-options / dg-additional-options semantics.
func (h *Harness) effectiveOptions(plan *directive.Plan) []string {
	base := h.defaultOpts
	if plan.HasOptions {
		base = plan.Options
	}
	opts := make([]string, 0, len(base)+len(plan.AdditionalOptions))
	opts = append(opts, base...)
	opts = append(opts, plan.AdditionalOptions...)
	return opts
}

// checkSupported evaluates the skip directives. It returns a non-empty
// status when the test must not compile: UNSUPPORTED for skips and missing
// capabilities, UNRESOLVED when a probe itself fails.
func (h *Harness) checkSupported(ctx context.Context, plan *directive.Plan, opts []string) (core.Status, string) {
	triple := h.tc.Triple()

	if len(plan.ActionSelector) > 0 && !target.MatchAny(plan.ActionSelector, triple) {
		return core.StatusUnsupported, fmt.Sprintf("target %s does not match dg-do selector", triple)
	}

	for _, skip := range plan.SkipIfs {
		if target.SkipMatches(skip, triple, opts) {
			detail := skip.Comment
			if detail == "" {
				detail = fmt.Sprintf("skipped by dg-skip-if at line %d", skip.Line)
			}
			return core.StatusUnsupported, detail
		}
	}

	for _, name := range plan.RequiredTargets {
		ok, err := h.targets.Check(ctx, name)
		if err != nil {
			return core.StatusUnresolved, err.Error()
		}
		if !ok {
			return core.StatusUnsupported, fmt.Sprintf("effective target %s not supported", name)
		}
	}

	return "", ""
}

// applyBaseline converts raw FAIL/PASS into XFAIL/XPASS for tests listed in
// the expected-failure manifest.
func (h *Harness) applyBaseline(name string, status core.Status) core.Status {
	if !h.baseline[name] {
		return status
	}
	switch status {
	case core.StatusFail:
		return core.StatusXFail
	case core.StatusPass:
		return core.StatusXPass
	}
	return status
}

func truncate(s string) string {
	if len(s) <= maxDetailLen {
		return s
	}
	return s[:maxDetailLen] + " [...]"
}
