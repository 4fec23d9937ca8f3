package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/quickstart/internal/config"
	"github.com/conneroisu/quickstart/internal/logging"
	"github.com/conneroisu/quickstart/internal/store"
)

// Execute runs the quickstart command line with os.Args.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd builds the root command and all of its subcommands.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "quickstart",
		Short: "Initialize projects from reusable templates",
		Long: `quickstart stores project skeletons as templates and creates new
projects from them, replacing {{variable}} tokens in file names and contents.

Quick Start:
  quickstart init --name api          Store the current directory as a template
  quickstart create api               Create ./my-api-project from it
  quickstart export api               Write api.qst to share the template
  quickstart import api.qst           Store a shared template

Command Aliases:
  list (ls), remove (rm)`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, cfgFile)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.quickstart/config.yaml, can also use QUICKSTART_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().String("templates-dir", "", "templates directory (default is ~/.quickstart/templates)")

	rootCmd.AddCommand(
		newInitCmd(),
		newCreateCmd(),
		newGitHubCmd(),
		newListCmd(),
		newInfoCmd(),
		newUpdateCmd(),
		newRemoveCmd(),
		newExportCmd(),
		newImportCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// initConfig initializes the configuration system.
//
// Config file priority (highest to lowest):
//  1. --config flag
//  2. QUICKSTART_CONFIG_FILE environment variable
//  3. ~/.quickstart/config.yaml
//
// A missing config file is not an error; defaults apply.
func initConfig(cmd *cobra.Command, cfgFile string) error {
	flags := cmd.Root().PersistentFlags()
	bindings := map[string]string{
		config.KeyLogLevel:  "log-level",
		config.KeyLogFormat: "log-format",
	}
	for key, name := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return err
		}
	}
	if flag := flags.Lookup("templates-dir"); flag != nil && flag.Changed {
		viper.Set(config.KeyTemplatesDir, flag.Value.String())
	}

	path, err := configFilePath(cfgFile)
	if err != nil {
		return err
	}
	viper.SetConfigFile(path)
	config.BindEnv()

	if _, err := os.Stat(path); err == nil {
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	return nil
}

// configFilePath returns the config file in effect.
func configFilePath(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	if env := os.Getenv(config.EnvPrefix + "_CONFIG_FILE"); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return config.DefaultFile(home), nil
}

// environment bundles what a command needs to operate on the templates root.
type environment struct {
	cfg    *config.Config
	logger logging.Logger
	store  *store.Store
}

// loadEnvironment resolves configuration and builds the logger and store.
// Log records go to the command's error stream.
func loadEnvironment(cmd *cobra.Command) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})

	return &environment{
		cfg:    cfg,
		logger: logger,
		store:  store.New(cfg.TemplatesDir, logger),
	}, nil
}
