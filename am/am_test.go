package am

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/harvest/errors"
)

// isolate points HOME and the working directory at fresh temp dirs and
// clears cached config. It returns the working directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	work := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(work)
	for _, name := range []string{"URL_ARIBA", "ARIBA_LOGIN", "ARIBA_PASSWORD",
		"HARVEST_PORTAL_URL", "HARVEST_PORTAL_LOGIN", "HARVEST_PORTAL_PASSWORD", "HARVEST_RUN_QUANTITY"} {
		unsetEnv(t, name)
	}
	Reset()
	t.Cleanup(func() {
		SetConfigFile("")
	})
	return work
}

// unsetEnv removes name for the duration of the test
func unsetEnv(t *testing.T, name string) {
	t.Helper()
	t.Setenv(name, "")
	os.Unsetenv(name)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadWithViper(v)
	require.NoError(t, err)
	cfg.Portal = PortalConfig{URL: "https://portal.example", Login: "op", Password: "secret"}
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, DefaultQuantity, cfg.Run.Quantity)
	assert.Equal(t, 35000, cfg.Run.Quantity)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 15*time.Second, cfg.Browser.StepTimeout)
	assert.Equal(t, 120*time.Second, cfg.Browser.DownloadTimeout)
	assert.Equal(t, 3*time.Second, cfg.Settle())
	assert.Equal(t, time.Duration(0), cfg.MinInterval())
	assert.Equal(t, "checkpoint", cfg.Resume.Mode)
	assert.True(t, cfg.Resume.LegacyFallback)
	assert.True(t, cfg.Process.HomeOnNotFound)
	assert.Equal(t, "xlsx", cfg.Report.Format)
	assert.Equal(t, DefaultDBPath, cfg.Database.Path)
	assert.Empty(t, cfg.Portal.Password)

	assert.NoError(t, cfg.ValidateSettings(), "defaults must be valid apart from credentials")
}

func TestValidateCredentials(t *testing.T) {
	cfg := validConfig(t)
	require.NoError(t, cfg.Validate())

	cfg.Portal = PortalConfig{URL: "https://portal.example"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingCredentials))
	assert.Contains(t, err.Error(), "portal.login, portal.password")
	assert.NotContains(t, err.Error(), "portal.url")

	hints := errors.FlattenHints(err)
	assert.Contains(t, hints, "ARIBA_LOGIN")
	assert.Contains(t, hints, "HARVEST_PORTAL_PASSWORD")
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"zero quantity", func(c *Config) { c.Run.Quantity = 0 }, "run.quantity"},
		{"negative interval", func(c *Config) { c.Run.MinIntervalMS = -1 }, "run.min_interval_ms"},
		{"empty stop word", func(c *Config) { c.Run.StopWord = "" }, "run.stop_word"},
		{"blank stop word", func(c *Config) { c.Run.StopWord = "  " }, "run.stop_word"},
		{"zero step timeout", func(c *Config) { c.Browser.StepTimeout = 0 }, "browser.step_timeout"},
		{"no window", func(c *Config) { c.Browser.WindowWidth = 0 }, "window"},
		{"empty input", func(c *Config) { c.Paths.Input = "" }, "paths.input"},
		{"empty reports", func(c *Config) { c.Paths.Reports = "" }, "paths.reports"},
		{"resume mode", func(c *Config) { c.Resume.Mode = "newest" }, "resume.mode"},
		{"report format", func(c *Config) { c.Report.Format = "ods" }, "report.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("zero interval and memory check are valid", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Run.MinIntervalMS = 0
		cfg.Browser.MinFreeMemoryMB = 0
		assert.NoError(t, cfg.Validate())
	})
}

func TestLoadPrecedence(t *testing.T) {
	work := isolate(t)

	writeFile(t, filepath.Join(os.Getenv("HOME"), ".harvest", "am.toml"), `
[run]
quantity = 10
stop_word = "halt"
`)
	writeFile(t, filepath.Join(work, "am.toml"), `
[run]
quantity = 20
`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Run.Quantity, "project file wins over user file")
	assert.Equal(t, "halt", cfg.Run.StopWord, "user file still fills other keys")
	assert.Equal(t, SourceProject, ConfigSources["run.quantity"].Source)
	assert.Equal(t, SourceUser, ConfigSources["run.stop_word"].Source)

	t.Setenv("HARVEST_RUN_QUANTITY", "30")
	Reset()
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Run.Quantity, "environment wins over every file")
}

func TestLoadExplicitFile(t *testing.T) {
	work := isolate(t)
	writeFile(t, filepath.Join(work, "am.toml"), "[run]\nquantity = 20\n")
	explicit := filepath.Join(t.TempDir(), "other.toml")
	writeFile(t, explicit, "[run]\nquantity = 5\n")

	SetConfigFile(explicit)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Run.Quantity)

	SetConfigFile(filepath.Join(work, "missing.toml"))
	_, err = Load()
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestLegacyEnv(t *testing.T) {
	isolate(t)
	t.Setenv("URL_ARIBA", "https://legacy.example")
	t.Setenv("ARIBA_LOGIN", "legacy-user")
	t.Setenv("ARIBA_PASSWORD", "legacy-pass")
	t.Setenv("HARVEST_PORTAL_LOGIN", "new-user")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://legacy.example", cfg.Portal.URL)
	assert.Equal(t, "new-user", cfg.Portal.Login, "HARVEST_* wins over the legacy name")
	assert.Equal(t, "legacy-pass", cfg.Portal.Password)
	assert.NoError(t, cfg.Validate())
}

func TestDotEnv(t *testing.T) {
	work := isolate(t)
	writeFile(t, filepath.Join(work, ".env"), "ARIBA_LOGIN=from-dotenv\nARIBA_PASSWORD=from-dotenv\n")
	t.Setenv("ARIBA_PASSWORD", "from-env")

	// gotenv sets process variables; restore them afterwards
	t.Setenv("ARIBA_LOGIN", "")
	os.Unsetenv("ARIBA_LOGIN")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Portal.Login)
	assert.Equal(t, "from-env", cfg.Portal.Password, ".env never overrides the environment")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "am.toml")
	writeFile(t, path, "[browser]\nheadless = false\nstep_timeout = \"5s\"\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 5*time.Second, cfg.Browser.StepTimeout)
	assert.Equal(t, 60*time.Second, cfg.Browser.NavigationTimeout)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "none.toml"))
	assert.Error(t, err)
}
