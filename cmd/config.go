package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/quickstart/internal/config"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage quickstart configuration",
		Long: `Read and write the quickstart configuration file.

Keys:
  templates_dir     Directory holding the stored templates
  default_author    Value for templates declaring an "author" variable
  default_license   Value for templates declaring a "license" variable
  log.level         debug, info, warn or error
  log.format        text or json

Examples:
  quickstart config list
  quickstart config get templates_dir
  quickstart config set default_author "Ada Lovelace"
  quickstart config set log.level=debug
  quickstart config reset`,
	}

	configCmd.AddCommand(
		newConfigGetCmd(),
		newConfigSetCmd(),
		newConfigListCmd(),
		newConfigResetCmd(),
		newConfigPathCmd(),
	)
	return configCmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the effective value of a configuration key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(); err != nil {
				return err
			}
			value, err := config.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value> | set <key>=<value>",
		Short: "Store a configuration value in the config file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value, err := splitSetArgs(args)
			if err != nil {
				return err
			}
			path := viper.ConfigFileUsed()
			if err := config.Set(path, key, value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
			return nil
		},
	}
}

func splitSetArgs(args []string) (string, string, error) {
	if len(args) == 2 {
		return args[0], args[1], nil
	}
	key, value, ok := strings.Cut(args[0], "=")
	if !ok || key == "" || value == "" {
		return "", "", fmt.Errorf("invalid format %q, use: key=value", args[0])
	}
	return key, value, nil
}

func newConfigListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"show"},
		Short:   "List every configuration value in effect",
		Args:    cobra.NoArgs,
	}
	flags := AddStandardFlags(cmd, "output")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := flags.ValidateFlags(); err != nil {
			return fmt.Errorf("invalid flags: %w", err)
		}
		if _, err := config.Load(); err != nil {
			return err
		}

		settings := config.AllSettings()
		out := cmd.OutOrStdout()
		if done, err := writeStructured(out, flags.Format, settings); done {
			return err
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, key := range config.Keys() {
			fmt.Fprintf(w, "%s\t%s\n", key, settings[key])
		}
		return w.Flush()
	}

	return cmd
}

func newConfigResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Remove the config file so every key returns to its default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Reset(viper.ConfigFileUsed()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration reset to defaults")
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the path of the config file in effect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), viper.ConfigFileUsed())
			return nil
		},
	}
}
