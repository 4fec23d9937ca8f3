package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "import <file.qst>",
		Short: "Import a template from a .qst archive",
		Long: `Store the template held in a .qst archive. The template name comes
from the archive; an existing template of that name is only replaced with
--force.

Examples:
  quickstart import api.qst
  quickstart import ~/Downloads/api.qst --force`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing template of the same name")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}

		tmpl, err := env.store.Import(cmd.Context(), args[0], force)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Template %q imported to %s\n", tmpl.Name, tmpl.Path)
		fmt.Fprintf(out, "Use 'quickstart create %s' to use this template\n", tmpl.Name)
		return nil
	}

	return cmd
}
