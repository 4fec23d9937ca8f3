package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/quickstart/internal/store"
	"github.com/conneroisu/quickstart/internal/validation"
)

func newUpdateCmd() *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "update <template>",
		Short: "Rename a template or change its description",
		Long: `Update the metadata of a stored template. Renaming moves the template
directory; the new name must not be taken.

Examples:
  quickstart update api --name service
  quickstart update api -d "REST service skeleton"`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "New template name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New template description")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("name") && !cmd.Flags().Changed("description") {
			return fmt.Errorf("nothing to update, use --name or --description")
		}
		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}

		var opts store.UpdateOptions
		if cmd.Flags().Changed("name") {
			opts.Name = &name
		}
		if cmd.Flags().Changed("description") {
			description = validation.SanitizeInput(description)
			opts.Description = &description
		}

		tmpl, err := env.store.Update(cmd.Context(), args[0], opts)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Template %q updated\n", tmpl.Name)
		return nil
	}

	return cmd
}
