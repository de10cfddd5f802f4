package am

import (
	"github.com/spf13/viper"
)

// Default values that other packages also refer to
const (
	DefaultQuantity   = 35000
	DefaultDBPath     = "harvest.db"
	DefaultStopWord   = "stop"
	DefaultConfigName = "am.toml"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Browser
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("browser.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36")
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.extra_args", "")
	v.SetDefault("browser.step_timeout", "15s")
	v.SetDefault("browser.navigation_timeout", "60s")
	v.SetDefault("browser.login_timeout", "30s")
	v.SetDefault("browser.download_timeout", "120s")
	v.SetDefault("browser.settle_ms", 3000)
	v.SetDefault("browser.min_free_memory_mb", 1024)

	// Paths
	v.SetDefault("paths.input", "contracts.xlsx")
	v.SetDefault("paths.contracts", "contracts")
	v.SetDefault("paths.reports", "reports")
	v.SetDefault("paths.logs", "logs")
	v.SetDefault("paths.screenshots", "screenshots")

	v.SetDefault("database.path", DefaultDBPath)

	// Run
	v.SetDefault("run.quantity", DefaultQuantity)
	v.SetDefault("run.min_interval_ms", 0)
	v.SetDefault("run.stop_word", DefaultStopWord)
	v.SetDefault("run.stop_file", "STOP")

	v.SetDefault("resume.mode", "checkpoint")
	v.SetDefault("resume.legacy_fallback", true)

	v.SetDefault("report.format", "xlsx")

	v.SetDefault("process.home_on_not_found", true)
	v.SetDefault("process.screenshots", true)

	v.SetDefault("log.theme", "everforest")

	// Credentials have no default; listed so they show up in introspection
	v.SetDefault("portal.url", "")
	v.SetDefault("portal.login", "")
	v.SetDefault("portal.password", "")
}

// legacyEnv maps config keys to the environment variables earlier
// deployments set. The HARVEST_* name is consulted first.
var legacyEnv = map[string]string{
	"portal.url":      "URL_ARIBA",
	"portal.login":    "ARIBA_LOGIN",
	"portal.password": "ARIBA_PASSWORD",
}

// BindSensitiveEnvVars explicitly binds credentials to environment variables
func BindSensitiveEnvVars(v *viper.Viper) {
	for key, legacy := range legacyEnv {
		v.BindEnv(key, envName(key), legacy)
	}
	v.BindEnv("database.path", envName("database.path"))
}
