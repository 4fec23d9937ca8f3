package scripts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/quickstart/internal/exec"
	"github.com/conneroisu/quickstart/internal/types"
)

// stubRunner implements exec.CommandRunner, answering by script command.
type stubRunner struct {
	results map[string]exec.CmdResult
	errs    map[string]error
	calls   []stubCall
}

type stubCall struct {
	Name string
	Args []string
	Dir  string
}

func (s *stubRunner) Run(ctx context.Context, name string, args []string, opts exec.RunOpts) (exec.CmdResult, error) {
	s.calls = append(s.calls, stubCall{Name: name, Args: args, Dir: opts.Dir})
	command := args[len(args)-1]
	if err, ok := s.errs[command]; ok {
		return exec.CmdResult{}, err
	}
	return s.results[command], nil
}

var testScripts = []types.Script{
	{Name: "install", Command: "npm install", RunByDefault: true},
	{Name: "lint", Command: "npm run lint"},
	{Name: "git", Command: "git init", RunByDefault: true},
}

func TestRunAll(t *testing.T) {
	runner := &stubRunner{results: map[string]exec.CmdResult{}}

	report, err := Run(context.Background(), runner, testScripts, Options{Dir: "/proj"}, nil)
	require.NoError(t, err)

	assert.True(t, report.OK())
	assert.Equal(t, []string{"install", "lint", "git"}, report.Succeeded)
	require.Len(t, runner.calls, 3)
	assert.Equal(t, stubCall{Name: "sh", Args: []string{"-c", "npm install"}, Dir: "/proj"}, runner.calls[0])
}

func TestRunSelected(t *testing.T) {
	runner := &stubRunner{results: map[string]exec.CmdResult{}}

	report, err := Run(context.Background(), runner, testScripts, Options{Selected: []string{"git"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"git"}, report.Succeeded)

	report, err = Run(context.Background(), runner, testScripts, Options{Selected: []string{}}, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Succeeded)
}

func TestRunContinuesAfterFailure(t *testing.T) {
	runner := &stubRunner{
		results: map[string]exec.CmdResult{
			"npm install": {ExitCode: 1, Stderr: "npm: not found\n"},
		},
		errs: map[string]error{
			"npm run lint": errors.New("exec failed"),
		},
	}

	report, err := Run(context.Background(), runner, testScripts, Options{}, nil)
	require.NoError(t, err)

	assert.False(t, report.OK())
	assert.Equal(t, []string{"git"}, report.Succeeded)
	require.Len(t, report.Failed, 2)
	assert.Equal(t, "script install exited with status 1: npm: not found", report.Failed[0].Error())
	assert.Equal(t, "script lint: exec failed", report.Failed[1].Error())
}

func TestRunStopsWhenCanceled(t *testing.T) {
	runner := &stubRunner{results: map[string]exec.CmdResult{}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := Run(ctx, runner, testScripts, Options{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Succeeded)
	assert.Empty(t, runner.calls)
}
