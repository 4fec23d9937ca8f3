// Package config provides configuration management for quickstart using
// Viper for loading from a config file, environment variables and
// command-line flags.
//
// The config file lives at ~/.quickstart/config.yaml by default. Every key
// can be overridden with a QUICKSTART_ environment variable, for example
// QUICKSTART_TEMPLATES_DIR or QUICKSTART_LOG_LEVEL.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	qserrors "github.com/conneroisu/quickstart/internal/errors"
	"github.com/conneroisu/quickstart/internal/logging"
	"github.com/conneroisu/quickstart/internal/validation"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "QUICKSTART"

// Configuration keys.
const (
	KeyTemplatesDir   = "templates_dir"
	KeyDefaultAuthor  = "default_author"
	KeyDefaultLicense = "default_license"
	KeyLogLevel       = "log.level"
	KeyLogFormat      = "log.format"
)

type Config struct {
	TemplatesDir   string    `mapstructure:"templates_dir" yaml:"templates_dir" json:"templates_dir"`
	DefaultAuthor  string    `mapstructure:"default_author" yaml:"default_author" json:"default_author"`
	DefaultLicense string    `mapstructure:"default_license" yaml:"default_license" json:"default_license"`
	Log            LogConfig `mapstructure:"log" yaml:"log" json:"log"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// Dir returns the quickstart directory below home.
func Dir(home string) string {
	return filepath.Join(home, ".quickstart")
}

// DefaultFile returns the default config file path below home.
func DefaultFile(home string) string {
	return filepath.Join(Dir(home), "config.yaml")
}

// Keys returns every configuration key in sorted order.
func Keys() []string {
	keys := []string{KeyTemplatesDir, KeyDefaultAuthor, KeyDefaultLicense, KeyLogLevel, KeyLogFormat}
	sort.Strings(keys)
	return keys
}

// IsKey reports whether key is a known configuration key.
func IsKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}

func defaults(home string) map[string]interface{} {
	return map[string]interface{}{
		KeyTemplatesDir:   filepath.Join(Dir(home), "templates"),
		KeyDefaultAuthor:  "",
		KeyDefaultLicense: "MIT",
		KeyLogLevel:       "info",
		KeyLogFormat:      "text",
	}
}

// SetDefaults registers the default of every key with viper. home anchors
// the default templates directory.
func SetDefaults(home string) {
	for k, v := range defaults(home) {
		viper.SetDefault(k, v)
	}
}

// BindEnv enables QUICKSTART_ environment overrides.
func BindEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// Load returns the configuration for the current user.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return LoadWithHome(home)
}

// LoadWithHome returns the configuration with defaults anchored at home.
func LoadWithHome(home string) (*Config, error) {
	SetDefaults(home)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, qserrors.Wrap(err, qserrors.ErrorTypeConfig, qserrors.ErrCodeConfigInvalid, "failed to decode configuration")
	}

	config.TemplatesDir = expandHome(config.TemplatesDir, home)

	if err := validateConfig(&config); err != nil {
		return nil, qserrors.Wrap(err, qserrors.ErrorTypeConfig, qserrors.ErrCodeConfigInvalid, "invalid configuration")
	}

	return &config, nil
}

// Get returns the effective value of key.
func Get(key string) (string, error) {
	if !IsKey(key) {
		return "", unknownKey(key)
	}
	return viper.GetString(key), nil
}

// AllSettings returns the effective value of every key.
func AllSettings() map[string]string {
	out := make(map[string]string)
	for _, k := range Keys() {
		out[k] = viper.GetString(k)
	}
	return out
}

// Set stores key=value in the config file at path. Only values present in
// the file are written back, never defaults or environment overrides.
func Set(path, key, value string) error {
	if !IsKey(key) {
		return unknownKey(key)
	}
	if err := validateValue(key, value); err != nil {
		return qserrors.Wrap(err, qserrors.ErrorTypeConfig, qserrors.ErrCodeConfigInvalid, "invalid value")
	}

	file := viper.New()
	file.SetConfigFile(path)
	if _, err := os.Stat(path); err == nil {
		if err := file.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	file.Set(key, value)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := file.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	viper.Set(key, value)
	return nil
}

// Reset removes the config file at path so every key returns to its default.
func Reset(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

func unknownKey(key string) error {
	return qserrors.NewConfigError(
		qserrors.ErrCodeConfigInvalid,
		fmt.Sprintf("unknown configuration key %q (known keys: %s)", key, strings.Join(Keys(), ", ")),
	).WithContext("key", key)
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateValue(KeyTemplatesDir, config.TemplatesDir); err != nil {
		return err
	}
	if err := validateValue(KeyLogLevel, config.Log.Level); err != nil {
		return err
	}
	return validateValue(KeyLogFormat, config.Log.Format)
}

func validateValue(key, value string) error {
	switch key {
	case KeyTemplatesDir:
		if err := validation.ValidatePath(value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	case KeyLogLevel:
		if _, err := logging.ParseLevel(value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	case KeyLogFormat:
		if value != "text" && value != "json" {
			return fmt.Errorf("%s: must be text or json, got %q", key, value)
		}
	}
	return nil
}
