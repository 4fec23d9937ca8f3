package github

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qserrors "github.com/conneroisu/quickstart/internal/errors"
	"github.com/conneroisu/quickstart/internal/exec"
)

type stubRunner struct {
	result exec.CmdResult
	err    error
	name   string
	args   []string
}

func (s *stubRunner) Run(ctx context.Context, name string, args []string, opts exec.RunOpts) (exec.CmdResult, error) {
	s.name = name
	s.args = args
	return s.result, s.err
}

func TestClone(t *testing.T) {
	testCases := []struct {
		name     string
		branch   string
		expected []string
	}{
		{
			name:     "default branch",
			expected: []string{"clone", "--depth", "1", "https://github.com/acme/starter.git", "/tmp/dest"},
		},
		{
			name:     "explicit branch",
			branch:   "develop",
			expected: []string{"clone", "--depth", "1", "--branch", "develop", "https://github.com/acme/starter.git", "/tmp/dest"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			runner := &stubRunner{}
			require.NoError(t, Clone(context.Background(), runner, "acme/starter", tc.branch, "/tmp/dest", nil))
			assert.Equal(t, "git", runner.name)
			assert.Equal(t, tc.expected, runner.args)
		})
	}
}

func TestCloneRejectsInvalidInput(t *testing.T) {
	runner := &stubRunner{}

	err := Clone(context.Background(), runner, "not-a-repo", "", "/tmp/dest", nil)
	require.Error(t, err)
	assert.True(t, qserrors.HasCode(err, qserrors.ErrCodeInvalidRepo))

	err = Clone(context.Background(), runner, "acme/starter", "--upload-pack=evil", "/tmp/dest", nil)
	require.Error(t, err)
	assert.True(t, qserrors.HasCode(err, qserrors.ErrCodeInvalidRepo))

	assert.Empty(t, runner.name, "git must not run for invalid input")
}

func TestCloneFailures(t *testing.T) {
	err := Clone(context.Background(), &stubRunner{result: exec.CmdResult{ExitCode: 128, Stderr: "repository not found"}},
		"acme/missing", "", "/tmp/dest", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repository not found")

	err = Clone(context.Background(), &stubRunner{err: errors.New("git: executable file not found")},
		"acme/starter", "", "/tmp/dest", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to run git")
}

func TestRepoName(t *testing.T) {
	assert.Equal(t, "starter", RepoName("acme/starter"))
	assert.Equal(t, "plain", RepoName("plain"))
}
