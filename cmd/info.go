package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <template>",
		Short: "Show detailed information about a template",
		Long: `Show the metadata of a template: description, file count, declared
variables and post-creation scripts.

Examples:
  quickstart info api
  quickstart info api -f json`,
		Args: cobra.ExactArgs(1),
	}
	flags := AddStandardFlags(cmd, "output")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := flags.ValidateFlags(); err != nil {
			return fmt.Errorf("invalid flags: %w", err)
		}
		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}

		tmpl, err := env.store.Get(args[0])
		if err != nil {
			return err
		}
		count, err := env.store.FileCount(args[0])
		if err != nil {
			return err
		}

		detail := templateDetail{
			Name:                tmpl.Metadata.Name,
			Description:         tmpl.Metadata.Description,
			CreatedAt:           tmpl.Metadata.CreatedAt,
			Path:                tmpl.Path,
			FileCount:           count,
			Variables:           tmpl.Metadata.Variables,
			PostCreationScripts: tmpl.Metadata.PostCreationScripts,
		}

		out := cmd.OutOrStdout()
		if done, err := writeStructured(out, flags.Format, detail); done {
			return err
		}

		fmt.Fprintf(out, "Template: %s\n", detail.Name)
		if err := writeFields(out, "", [][2]string{
			{"path", detail.Path},
			{"description", detail.Description},
			{"created", formatDate(detail.CreatedAt)},
			{"files", fmt.Sprint(detail.FileCount)},
		}); err != nil {
			return err
		}

		if len(detail.Variables) > 0 {
			fmt.Fprintln(out, "\nVariables:")
			for _, v := range detail.Variables {
				fmt.Fprintf(out, "  - %s\n", v.Name)
				fields := [][2]string{
					{"description", v.Description},
					{"required", yesNo(v.Required)},
				}
				if v.HasDefault() {
					fields = append(fields, [2]string{"default", fmt.Sprintf("%q", v.DefaultValue())})
				}
				if err := writeFields(out, "    ", fields); err != nil {
					return err
				}
			}
		}

		if len(detail.PostCreationScripts) > 0 {
			fmt.Fprintln(out, "\nPost-creation scripts:")
			for _, s := range detail.PostCreationScripts {
				fmt.Fprintf(out, "  - %s\n", s.Name)
				if err := writeFields(out, "    ", [][2]string{
					{"description", s.Description},
					{"command", s.Command},
					{"run by default", yesNo(s.RunByDefault)},
				}); err != nil {
					return err
				}
			}
		}
		return nil
	}

	return cmd
}
