package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove <template>",
		Aliases: []string{"rm"},
		Short:   "Remove a template",
		Long: `Delete a stored template and all of its files. The removal must be
confirmed with --yes.

Examples:
  quickstart remove api --yes
  quickstart rm api -y`,
		Args: cobra.ExactArgs(1),
	}
	flags := AddStandardFlags(cmd, "confirm")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}

		tmpl, err := env.store.Get(args[0])
		if err != nil {
			return err
		}
		if !flags.Yes {
			return fmt.Errorf("refusing to remove template %q at %s without --yes", tmpl.Name, tmpl.Path)
		}

		if err := env.store.Remove(cmd.Context(), tmpl.Name); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Template %q removed\n", tmpl.Name)
		return nil
	}

	return cmd
}
