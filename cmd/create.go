package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/quickstart/internal/config"
	qserrors "github.com/conneroisu/quickstart/internal/errors"
	"github.com/conneroisu/quickstart/internal/scaffolding"
	"github.com/conneroisu/quickstart/internal/scripts"
	"github.com/conneroisu/quickstart/internal/types"
)

func newCreateCmd() *cobra.Command {
	var (
		directory   string
		yes         bool
		merge       bool
		skipScripts bool
		scriptNames []string
		varsJSON    string
		values      = valuesFlag{}
	)

	cmd := &cobra.Command{
		Use:   "create [template]",
		Short: "Create a new project from a template",
		Long: `Create a new project from a stored template. Every {{variable}} token in
file names and file contents is replaced with its value.

Values come from --vars and --var (the latter wins), then from the
configured default_author and default_license for variables named author
and license, then from declared defaults. projectName and currentYear are
always available.

Examples:
  quickstart create api
  quickstart create api -d ./billing --var author=Ada --var license=MIT
  quickstart create api --vars '{"port": 8080}' --skip-scripts
  quickstart create -y                 # use the first template`,
		Args: cobra.MaximumNArgs(1),
	}
	cmd.Flags().StringVarP(&directory, "directory", "d", "", "Target directory for the new project (default my-<template>-project)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Use the first template when none is named")
	cmd.Flags().BoolVar(&merge, "force", false, "Write into an existing, non-empty directory")
	cmd.Flags().BoolVarP(&skipScripts, "skip-scripts", "s", false, "Skip running post-creation scripts")
	cmd.Flags().StringSliceVar(&scriptNames, "scripts", nil, "Run only these post-creation scripts")
	cmd.Flags().StringVar(&varsJSON, "vars", "", "Variable values as a JSON object")
	cmd.Flags().Var(values, "var", "Variable value as key=value (repeatable)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		name, err := selectTemplate(env, args, yes)
		if err != nil {
			return err
		}
		tmpl, err := env.store.Get(name)
		if err != nil {
			return err
		}

		supplied, err := ParseVarsJSON(varsJSON)
		if err != nil {
			return err
		}
		for k, v := range configValues(env.cfg, tmpl.Metadata) {
			if _, ok := supplied[k]; !ok {
				supplied[k] = v
			}
		}
		for k, v := range values {
			supplied[k] = v
		}

		var requested []string
		if cmd.Flags().Changed("scripts") {
			requested = scriptNames
		}
		selected, err := scaffolding.SelectScripts(tmpl.Metadata.PostCreationScripts, requested)
		if err != nil {
			return err
		}

		target := directory
		if target == "" {
			target = scaffolding.DefaultTargetDir(name)
		}

		fmt.Fprintf(out, "Creating a new project from template %q\n", name)
		result, err := scaffolding.NewProjectGenerator(env.logger).Generate(cmd.Context(), scaffolding.GenerateOptions{
			TemplateDir: tmpl.Path,
			Metadata:    tmpl.Metadata,
			Target:      target,
			Values:      supplied,
			Merge:       merge,
		})
		if err != nil {
			return err
		}

		warnings := qserrors.NewCollector()
		for _, s := range result.Rewrite.Skipped {
			warnings.Add(fmt.Errorf("%s was not renamed: %w", s.Path, s.Err))
		}

		if !skipScripts && len(selected) > 0 {
			report, err := scripts.Run(cmd.Context(), newRunner(), tmpl.Metadata.PostCreationScripts, scripts.Options{
				Dir:      result.Target,
				Selected: selected,
				Stdout:   out,
				Stderr:   cmd.ErrOrStderr(),
			}, env.logger)
			if err != nil {
				return err
			}
			for _, f := range report.Failed {
				warnings.Add(f)
			}
		}

		for _, w := range warnings.Errors() {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", w)
		}
		if warnings.HasErrors() {
			fmt.Fprintf(out, "Completed with %s\n", plural(warnings.Len(), "warning"))
		}
		fmt.Fprintf(out, "Project created successfully at %s\n", result.Target)
		return nil
	}

	return cmd
}

// selectTemplate returns the template named in args. Without a name, --yes
// picks the first stored template.
func selectTemplate(env *environment, args []string, yes bool) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	templates, err := env.store.List()
	if err != nil {
		return "", err
	}
	if len(templates) == 0 {
		return "", fmt.Errorf(`no templates found, create one first with "quickstart init"`)
	}
	if yes {
		return templates[0].Name, nil
	}

	names := make([]string, len(templates))
	for i, t := range templates {
		names[i] = t.Name
	}
	return "", fmt.Errorf("template name required (available: %s)", strings.Join(names, ", "))
}

// configValues supplies configured defaults for declared author and license
// variables that carry no default of their own.
func configValues(cfg *config.Config, meta types.Metadata) map[string]string {
	configured := map[string]string{
		"author":  cfg.DefaultAuthor,
		"license": cfg.DefaultLicense,
	}

	values := make(map[string]string)
	for name, value := range configured {
		v, ok := meta.FindVariable(name)
		if ok && !v.HasDefault() && value != "" {
			values[name] = value
		}
	}
	return values
}
