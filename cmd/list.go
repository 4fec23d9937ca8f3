package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var detailed bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all available templates",
		Long: `List every template in the templates directory.

Examples:
  quickstart list                 # List template names and descriptions
  quickstart ls -d                # Include creation date, counts and path
  quickstart list -f json         # Output as JSON
  quickstart list --format yaml   # Output as YAML`,
		Args: cobra.NoArgs,
	}
	flags := AddStandardFlags(cmd, "output")
	cmd.Flags().BoolVarP(&detailed, "detailed", "d", false, "Show detailed information for each template")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := flags.ValidateFlags(); err != nil {
			return fmt.Errorf("invalid flags: %w", err)
		}
		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}

		templates, err := env.store.List()
		if err != nil {
			return err
		}

		summaries := make([]templateSummary, len(templates))
		for i, t := range templates {
			summaries[i] = summarize(t)
		}

		out := cmd.OutOrStdout()
		if done, err := writeStructured(out, flags.Format, summaries); done {
			return err
		}

		if len(summaries) == 0 {
			fmt.Fprintln(out, `No templates found. Create one first with "quickstart init" or "quickstart github".`)
			return nil
		}

		fmt.Fprintf(out, "Found %s:\n\n", plural(len(summaries), "template"))
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		if detailed {
			fmt.Fprintln(w, "NAME\tDESCRIPTION\tCREATED\tVARIABLES\tSCRIPTS\tPATH")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
					s.Name, s.Description, formatDate(s.CreatedAt), s.Variables, s.Scripts, s.Path)
			}
		} else {
			fmt.Fprintln(w, "NAME\tDESCRIPTION")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%s\n", s.Name, s.Description)
			}
		}
		return w.Flush()
	}

	return cmd
}
