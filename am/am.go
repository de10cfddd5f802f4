// Package am loads harvest's configuration: defaults, TOML files, a .env file
// and environment variables, merged with viper.
package am

import "time"

// Config represents the harvest configuration
type Config struct {
	Portal   PortalConfig   `mapstructure:"portal"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	Paths    PathsConfig    `mapstructure:"paths"`
	Database DatabaseConfig `mapstructure:"database"`
	Run      RunConfig      `mapstructure:"run"`
	Resume   ResumeConfig   `mapstructure:"resume"`
	Report   ReportConfig   `mapstructure:"report"`
	Process  ProcessConfig  `mapstructure:"process"`
	Log      LogConfig      `mapstructure:"log"`
}

// PortalConfig holds the procurement portal address and credentials.
// All three are required for a run.
type PortalConfig struct {
	URL      string `mapstructure:"url"`      // legacy env: URL_ARIBA
	Login    string `mapstructure:"login"`    // legacy env: ARIBA_LOGIN
	Password string `mapstructure:"password"` // legacy env: ARIBA_PASSWORD
}

// BrowserConfig configures the automated browser session
type BrowserConfig struct {
	Headless     bool   `mapstructure:"headless"`
	WindowWidth  int    `mapstructure:"window_width"`
	WindowHeight int    `mapstructure:"window_height"`
	UserAgent    string `mapstructure:"user_agent"`
	ExecPath     string `mapstructure:"exec_path"`  // empty = let chromedp find Chrome
	ExtraArgs    string `mapstructure:"extra_args"` // shell-quoted, e.g. "--proxy-server='http://p:3128'"

	StepTimeout       time.Duration `mapstructure:"step_timeout"`       // one UI wait
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"` // page loads
	LoginTimeout      time.Duration `mapstructure:"login_timeout"`
	DownloadTimeout   time.Duration `mapstructure:"download_timeout"` // one archive download

	SettleMS        int    `mapstructure:"settle_ms"`          // pause after a search is submitted
	MinFreeMemoryMB uint64 `mapstructure:"min_free_memory_mb"` // warn below this, 0 = off
}

// PathsConfig locates inputs and outputs
type PathsConfig struct {
	Input       string `mapstructure:"input"`       // contract list, .xlsx or .csv
	Contracts   string `mapstructure:"contracts"`   // one folder per downloaded contract
	Reports     string `mapstructure:"reports"`     // report_*.xlsx
	Logs        string `mapstructure:"logs"`        // daily process_log_*.txt
	Screenshots string `mapstructure:"screenshots"` // failure screenshots
}

// DatabaseConfig configures the SQLite checkpoint database
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// RunConfig configures one batch
type RunConfig struct {
	Quantity      int    `mapstructure:"quantity"`        // contracts per run when no argument is given
	MinIntervalMS int    `mapstructure:"min_interval_ms"` // minimum spacing between contract starts, 0 = off
	StopWord      string `mapstructure:"stop_word"`       // typed on stdin to stop after the current contract
	StopFile      string `mapstructure:"stop_file"`       // created to stop after the current contract, empty = off
}

// ResumeConfig selects how the starting point of a run is found
type ResumeConfig struct {
	Mode           string `mapstructure:"mode"`            // checkpoint | folder
	LegacyFallback bool   `mapstructure:"legacy_fallback"` // consult contract folders when no checkpoint exists
}

// ReportConfig configures the per-run report
type ReportConfig struct {
	Format string `mapstructure:"format"` // xlsx | csv
}

// ProcessConfig tunes the per-contract state machine
type ProcessConfig struct {
	HomeOnNotFound bool `mapstructure:"home_on_not_found"`
	Screenshots    bool `mapstructure:"screenshots"`
}

// LogConfig configures console logging
type LogConfig struct {
	Theme string `mapstructure:"theme"` // everforest, gruvbox
}

// MinInterval returns run.min_interval_ms as a duration
func (c *Config) MinInterval() time.Duration {
	return time.Duration(c.Run.MinIntervalMS) * time.Millisecond
}

// Settle returns browser.settle_ms as a duration
func (c *Config) Settle() time.Duration {
	return time.Duration(c.Browser.SettleMS) * time.Millisecond
}

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)
