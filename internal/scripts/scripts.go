// Package scripts runs the post-creation scripts of a template inside a
// freshly created project.
package scripts

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/conneroisu/quickstart/internal/exec"
	"github.com/conneroisu/quickstart/internal/logging"
	"github.com/conneroisu/quickstart/internal/types"
)

// Options configures Run.
type Options struct {
	// Dir is the project directory scripts run in
	Dir string
	// Selected limits execution to the named scripts; nil runs all of them
	Selected []string
	// Stdout and Stderr receive script output as it is produced
	Stdout io.Writer
	Stderr io.Writer
}

// Failure is a script that did not complete.
type Failure struct {
	Script types.Script
	Result exec.CmdResult
	Err    error
}

// Error describes the failure.
func (f Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("script %s: %v", f.Script.Name, f.Err)
	}
	msg := fmt.Sprintf("script %s exited with status %d", f.Script.Name, f.Result.ExitCode)
	if stderr := strings.TrimSpace(f.Result.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// Report lists the outcome of every script that was attempted.
type Report struct {
	Succeeded []string
	Failed    []Failure
}

// OK reports whether every attempted script succeeded.
func (r *Report) OK() bool {
	return len(r.Failed) == 0
}

// Run executes the selected scripts in order with "sh -c". A failing script
// is logged and recorded; the remaining scripts still run. Only context
// cancellation stops the sequence early.
func Run(ctx context.Context, runner exec.CommandRunner, list []types.Script, opts Options, logger logging.Logger) (*Report, error) {
	logger = logging.OrNop(logger).WithComponent("scripts")
	report := &Report{}

	for _, script := range filter(list, opts.Selected) {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		logger.Info(ctx, "Running script", "script", script.Name, "command", script.Command)
		result, err := runner.Run(ctx, "sh", []string{"-c", script.Command}, exec.RunOpts{
			Dir:    opts.Dir,
			Stdout: opts.Stdout,
			Stderr: opts.Stderr,
		})

		if err != nil || !result.Success() {
			failure := Failure{Script: script, Result: result, Err: err}
			report.Failed = append(report.Failed, failure)
			logger.Warn(ctx, failure, "Script failed", "script", script.Name)
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			continue
		}

		report.Succeeded = append(report.Succeeded, script.Name)
		logger.Info(ctx, "Script completed", "script", script.Name)
	}

	return report, nil
}

func filter(list []types.Script, selected []string) []types.Script {
	if selected == nil {
		return list
	}
	want := make(map[string]bool, len(selected))
	for _, name := range selected {
		want[name] = true
	}
	var out []types.Script
	for _, s := range list {
		if want[s.Name] {
			out = append(out, s)
		}
	}
	return out
}
