package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conneroisu/quickstart/internal/store"
)

func newInitCmd() *cobra.Command {
	var flags templateFlags

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Store a directory as a new template",
		Long: `Copy a directory (the current one by default) into the templates
directory as a new template. The metadata declares the {{variables}} used in
file names and contents and the scripts offered after a project is created.

Examples:
  quickstart init --name api
  quickstart init ./skeleton -n api --variable author! --variable license=MIT
  quickstart init -n web --script install="npm install" --ignore node_modules,.env
  quickstart init -n api --meta-file meta.json --force`,
		Args: cobra.MaximumNArgs(1),
	}
	addTemplateFlags(cmd, &flags)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}

		src := "."
		if len(args) == 1 {
			src = args[0]
		}
		src, err = filepath.Abs(src)
		if err != nil {
			return fmt.Errorf("failed to resolve source directory: %w", err)
		}

		name := flags.Name
		if name == "" {
			name = filepath.Base(src)
		}
		description := flags.Description
		if description == "" {
			description = fmt.Sprintf("Template for %s projects", name)
		}

		meta, err := flags.metadata(name, description)
		if err != nil {
			return err
		}

		tmpl, err := env.store.CreateFromDir(cmd.Context(), src, store.CreateOptions{
			Metadata: meta,
			Ignore:   ignorePatterns(flags.Ignore),
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

// ignorePatterns returns nil for an empty list so the store defaults apply.
func ignorePatterns(list string) []string {
	if list == "" {
		return nil
	}
	return store.ParseIgnoreList(list)
}

func printCreated(cmd *cobra.Command, tmpl *store.Template) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Template %q created at %s\n", tmpl.Name, tmpl.Path)
	fmt.Fprintf(out, "Use 'quickstart create %s' to use this template\n", tmpl.Name)

	if vars := tmpl.Metadata.Variables; len(vars) > 0 {
		fmt.Fprintf(out, "\nTemplate variables: %d\n", len(vars))
		for _, v := range vars {
			kind := "optional"
			if v.Required {
				kind = "required"
			}
			fmt.Fprintf(out, "  - %s (%s)\n", v.Name, kind)
		}
	}
	if scripts := tmpl.Metadata.PostCreationScripts; len(scripts) > 0 {
		fmt.Fprintf(out, "\nPost-creation scripts: %d\n", len(scripts))
		for _, s := range scripts {
			fmt.Fprintf(out, "  - %s: %s\n", s.Name, s.Command)
		}
	}
}
