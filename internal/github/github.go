// Package github clones GitHub repositories so they can become templates.
package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/conneroisu/quickstart/internal/errors"
	"github.com/conneroisu/quickstart/internal/exec"
	"github.com/conneroisu/quickstart/internal/logging"
	"github.com/conneroisu/quickstart/internal/validation"
)

// CloneURL returns the https clone URL of an owner/repo reference.
func CloneURL(repo string) string {
	return "https://github.com/" + repo + ".git"
}

// RepoName returns the repository part of an owner/repo reference.
func RepoName(repo string) string {
	if i := strings.LastIndex(repo, "/"); i >= 0 {
		return repo[i+1:]
	}
	return repo
}

// Clone performs a shallow clone of repo into dest, optionally of one branch.
func Clone(ctx context.Context, runner exec.CommandRunner, repo, branch, dest string, logger logging.Logger) error {
	logger = logging.OrNop(logger).WithComponent("github")

	if err := validation.ValidateRepo(repo); err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, errors.ErrCodeInvalidRepo, "invalid repository")
	}
	if err := validation.ValidateBranch(branch); err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, errors.ErrCodeInvalidRepo, "invalid branch")
	}

	args := []string{"clone", "--depth", "1"}
	if branch != "" {
		args = append(args, "--branch", branch)
	}
	args = append(args, CloneURL(repo), dest)

	logger.Info(ctx, "Cloning repository", "repo", repo, "branch", branch)
	result, err := runner.Run(ctx, "git", args, exec.RunOpts{})
	if err != nil {
		return errors.NewIOError(errors.ErrCodeInternalError, "failed to run git", err).WithContext("repo", repo)
	}
	if !result.Success() {
		return errors.NewIOError(errors.ErrCodeInternalError,
			fmt.Sprintf("git clone failed with status %d; make sure the repository exists and is accessible", result.ExitCode),
			fmt.Errorf("%s", strings.TrimSpace(result.Stderr)),
		).WithContext("repo", repo)
	}

	logger.Info(ctx, "Repository cloned", "repo", repo, "dest", dest)
	return nil
}
