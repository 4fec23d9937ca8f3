package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conneroisu/quickstart/internal/errors"
	"github.com/conneroisu/quickstart/internal/exec"
	"github.com/conneroisu/quickstart/internal/github"
	"github.com/conneroisu/quickstart/internal/store"
	"github.com/conneroisu/quickstart/internal/validation"
)

// newRunner returns the runner used for git and post-creation scripts.
var newRunner = func() exec.CommandRunner {
	return exec.NewRealRunner()
}

func newGitHubCmd() *cobra.Command {
	var (
		flags        templateFlags
		branch       string
		subdirectory string
	)

	cmd := &cobra.Command{
		Use:   "github <owner/repo>",
		Short: "Store a GitHub repository as a template",
		Long: `Shallow-clone a GitHub repository and store it (or one of its
subdirectories) as a template. The .git directory is never copied.

Examples:
  quickstart github acme/service-skeleton
  quickstart github acme/monorepo -s templates/api -n api -b develop`,
		Args: cobra.ExactArgs(1),
	}
	addTemplateFlags(cmd, &flags)
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "Branch to clone (default: the repository default branch)")
	cmd.Flags().StringVarP(&subdirectory, "subdirectory", "s", "", "Use only a subdirectory of the repository")
	AddFlagValidation(cmd, "branch", validation.ValidateBranch)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		repo := args[0]
		if err := validation.ValidateRepo(repo); err != nil {
			return errors.Wrap(err, errors.ErrorTypeValidation, errors.ErrCodeInvalidRepo, "invalid repository")
		}
		if subdirectory != "" {
			if err := validation.ValidateEntryPath(subdirectory); err != nil {
				return errors.Wrap(err, errors.ErrorTypeValidation, errors.ErrCodeUnsafePath, "invalid subdirectory")
			}
		}

		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}

		name := flags.Name
		if name == "" {
			name = github.RepoName(repo)
		}
		description := flags.Description
		if description == "" {
			description = "Template from " + repo
		}
		meta, err := flags.metadata(name, description)
		if err != nil {
			return err
		}

		tmp, err := env.store.TempDir("github-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tmp)

		fmt.Fprintf(cmd.OutOrStdout(), "Cloning %s...\n", repo)
		if err := github.Clone(cmd.Context(), newRunner(), repo, branch, tmp, env.logger); err != nil {
			return err
		}

		src := tmp
		if subdirectory != "" {
			src = filepath.Join(tmp, filepath.FromSlash(subdirectory))
			if info, err := os.Stat(src); err != nil || !info.IsDir() {
				return errors.NewIOError(errors.ErrCodeFileNotFound,
					fmt.Sprintf("subdirectory %q not found in repository", subdirectory), err)
			}
		}

		ignore := ignorePatterns(flags.Ignore)
		if ignore != nil {
			ignore = append(ignore, ".git")
		}
		tmpl, err := env.store.CreateFromDir(cmd.Context(), src, store.CreateOptions{
			Metadata: meta,
			Ignore:   ignore,
			Force:    flags.Force,
		})
		if err != nil {
			return err
		}

		printCreated(cmd, tmpl)
		return nil
	}

	return cmd
}
