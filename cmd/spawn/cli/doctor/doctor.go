// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

// Package doctor provides the checklist workflow behind `spawn doctor`.
//
// Each check produces a [Result] with a status, a message, and for
// repairable failures a fix closure. [ExecuteFixes] runs the fixes in
// --fix mode, [PrintChecklist] renders the human-readable checklist,
// and [BuildJSON] the machine-readable form. What to check lives in the
// command; this package only runs the workflow.
package doctor

import "context"

// Status is the outcome of a single health check.
type Status string

const (
	StatusPass  Status = "pass"
	StatusFail  Status = "fail"
	StatusWarn  Status = "warn"
	StatusSkip  Status = "skip"
	StatusFixed Status = "fixed"
)

// FixAction repairs a failed check. Dependencies are captured in the
// closure when the check is constructed.
type FixAction func(ctx context.Context) error

// Result holds the outcome of a single health check. Fixable failures
// carry a FixHint and an unexported fix function.
type Result struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message"`
	FixHint string `json:"fix_hint,omitempty"`
	fix     FixAction
}

// HasFix reports whether this result carries a fix action.
func (r *Result) HasFix() bool {
	return r.fix != nil
}

// Pass creates a passing check result.
func Pass(name, message string) Result {
	return Result{Name: name, Status: StatusPass, Message: message}
}

// Fail creates a failing check result with no automatic fix.
func Fail(name, message string) Result {
	return Result{Name: name, Status: StatusFail, Message: message}
}

// FailWithFix creates a failing check result with an automatic fix.
func FailWithFix(name, message, fixHint string, fix FixAction) Result {
	return Result{Name: name, Status: StatusFail, Message: message, FixHint: fixHint, fix: fix}
}

// Warn creates a warning check result. Warnings do not cause the doctor
// command to exit with a non-zero status.
func Warn(name, message string) Result {
	return Result{Name: name, Status: StatusWarn, Message: message}
}

// Skip creates a skipped check result, used when a prerequisite check
// failed.
func Skip(name, message string) Result {
	return Result{Name: name, Status: StatusSkip, Message: message}
}

// JSONOutput is the JSON output structure for doctor.
type JSONOutput struct {
	Checks []Result `json:"checks"`
	OK     bool     `json:"ok"`
	Fixed  int      `json:"fixed,omitempty"`
}

// ExecuteFixes runs the fix action for each fixable failure, updating
// results in place, and returns the number of successful fixes.
func ExecuteFixes(ctx context.Context, results []Result) int {
	fixed := 0
	for i := range results {
		if results[i].Status != StatusFail || results[i].fix == nil {
			continue
		}
		if err := results[i].fix(ctx); err != nil {
			results[i].Message = results[i].Message + " (fix failed: " + err.Error() + ")"
			continue
		}
		results[i].Status = StatusFixed
		fixed++
	}
	return fixed
}

// AnyFailed reports whether any result is a failure.
func AnyFailed(results []Result) bool {
	for _, result := range results {
		if result.Status == StatusFail {
			return true
		}
	}
	return false
}

// BuildJSON builds the JSON output struct from results.
func BuildJSON(results []Result, fixed int) JSONOutput {
	if results == nil {
		results = []Result{}
	}
	return JSONOutput{Checks: results, OK: !AnyFailed(results), Fixed: fixed}
}
