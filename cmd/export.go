package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/quickstart/internal/watcher"
)

func newExportCmd() *cobra.Command {
	var (
		output   string
		watch    bool
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "export <template>",
		Short: "Export a template to a .qst archive",
		Long: `Pack a template into a single .qst archive that can be shared and
imported elsewhere. The archive is written to <template>.qst in the current
directory unless --output is given.

With --watch the archive is written again after every change to the
template until the command is interrupted.

Examples:
  quickstart export api
  quickstart export api -o dist/api.qst
  quickstart export api --watch --debounce 500ms`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-export whenever the template changes")
	cmd.Flags().DurationVar(&debounce, "debounce", 300*time.Millisecond, "Quiet period before re-exporting in --watch mode")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		name := args[0]

		if output != "" {
			if output, err = filepath.Abs(output); err != nil {
				return fmt.Errorf("failed to resolve output path: %w", err)
			}
		}

		written, err := env.store.Export(ctx, name, output)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Template %q exported to %s\n", name, written)

		if !watch {
			return nil
		}

		tmpl, err := env.store.Get(name)
		if err != nil {
			return err
		}
		dir, err := filepath.Abs(tmpl.Path)
		if err != nil {
			return fmt.Errorf("failed to resolve template path: %w", err)
		}

		fw, err := watcher.NewFileWatcher(debounce, env.logger)
		if err != nil {
			return err
		}
		defer fw.Stop()

		fw.AddFilter(watcher.NoTempFileFilter)
		fw.AddFilter(watcher.NoGitFilter)
		fw.AddFilter(watcher.NoNodeModulesFilter)
		fw.AddFilter(watcher.ExcludePathFilter(written))
		fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
			if _, err := env.store.Export(ctx, name, written); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Re-exported %q after %s\n", name, plural(len(events), "change"))
			return nil
		})
		if err := fw.AddRecursive(dir); err != nil {
			return err
		}
		if err := fw.Start(ctx); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes (press Ctrl+C to stop)\n", dir)
		<-ctx.Done()
		return nil
	}

	return cmd
}
