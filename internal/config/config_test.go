package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qserrors "github.com/conneroisu/quickstart/internal/errors"
)

func TestLoadWithHome(t *testing.T) {
	tests := []struct {
		name        string
		setup       func()
		expectError bool
		check       func(t *testing.T, cfg *Config, home string)
	}{
		{
			name:  "defaults",
			setup: func() {},
			check: func(t *testing.T, cfg *Config, home string) {
				assert.Equal(t, filepath.Join(home, ".quickstart", "templates"), cfg.TemplatesDir)
				assert.Equal(t, "MIT", cfg.DefaultLicense)
				assert.Equal(t, "", cfg.DefaultAuthor)
				assert.Equal(t, "info", cfg.Log.Level)
				assert.Equal(t, "text", cfg.Log.Format)
			},
		},
		{
			name: "explicit values",
			setup: func() {
				viper.Set(KeyTemplatesDir, "~/tmpl")
				viper.Set(KeyDefaultAuthor, "Ada")
				viper.Set(KeyLogLevel, "debug")
				viper.Set(KeyLogFormat, "json")
			},
			check: func(t *testing.T, cfg *Config, home string) {
				assert.Equal(t, filepath.Join(home, "tmpl"), cfg.TemplatesDir)
				assert.Equal(t, "Ada", cfg.DefaultAuthor)
				assert.Equal(t, "debug", cfg.Log.Level)
				assert.Equal(t, "json", cfg.Log.Format)
			},
		},
		{
			name:        "invalid log level",
			setup:       func() { viper.Set(KeyLogLevel, "chatty") },
			expectError: true,
		},
		{
			name:        "invalid log format",
			setup:       func() { viper.Set(KeyLogFormat, "xml") },
			expectError: true,
		},
		{
			name:        "dangerous templates dir",
			setup:       func() { viper.Set(KeyTemplatesDir, "/tmp/$(rm -rf)") },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			defer viper.Reset()
			home := t.TempDir()
			tt.setup()

			cfg, err := LoadWithHome(home)
			if tt.expectError {
				assert.True(t, qserrors.HasCode(err, qserrors.ErrCodeConfigInvalid), "got %v", err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg, home)
		})
	}
}

func TestEnvOverride(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	dir := t.TempDir()
	t.Setenv("QUICKSTART_TEMPLATES_DIR", dir)
	t.Setenv("QUICKSTART_LOG_LEVEL", "warn")
	BindEnv()

	cfg, err := LoadWithHome(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.TemplatesDir)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestConfigFile(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	home := t.TempDir()
	path := DefaultFile(home)

	require.NoError(t, Set(path, KeyDefaultAuthor, "Grace"))
	require.NoError(t, Set(path, KeyLogFormat, "json"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "default_author: Grace")
	assert.NotContains(t, string(raw), "templates_dir", "defaults must not be persisted")

	viper.Reset()
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())
	cfg, err := LoadWithHome(home)
	require.NoError(t, err)
	assert.Equal(t, "Grace", cfg.DefaultAuthor)
	assert.Equal(t, "json", cfg.Log.Format)

	value, err := Get(KeyDefaultAuthor)
	require.NoError(t, err)
	assert.Equal(t, "Grace", value)

	require.NoError(t, Reset(path))
	assert.NoFileExists(t, path)
	require.NoError(t, Reset(path), "resetting twice is fine")
}

func TestSetRejectsBadInput(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	path := filepath.Join(t.TempDir(), "config.yaml")

	err := Set(path, "server.port", "8080")
	assert.True(t, qserrors.HasCode(err, qserrors.ErrCodeConfigInvalid))
	err = Set(path, KeyLogLevel, "loud")
	assert.True(t, qserrors.HasCode(err, qserrors.ErrCodeConfigInvalid))
	assert.NoFileExists(t, path)

	_, err = Get("nope")
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, []string{"default_author", "default_license", "log.format", "log.level", "templates_dir"}, Keys())
	assert.True(t, IsKey(KeyLogLevel))
	assert.False(t, IsKey("log"))

	viper.Reset()
	defer viper.Reset()
	SetDefaults("/home/u")
	settings := AllSettings()
	assert.Len(t, settings, 5)
	assert.Equal(t, "MIT", settings[KeyDefaultLicense])
}
