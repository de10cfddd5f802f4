package am

import (
	"strings"

	"github.com/teranos/harvest/errors"
)

// ErrMissingCredentials is wrapped by Validate when portal credentials are absent
var ErrMissingCredentials = errors.New("missing portal credentials")

// Validate checks that the configuration is complete enough for a run
func (c *Config) Validate() error {
	if err := c.ValidateSettings(); err != nil {
		return err
	}
	return c.ValidateCredentials()
}

// ValidateCredentials reports every missing portal setting in one error
func (c *Config) ValidateCredentials() error {
	var missing []string
	if c.Portal.URL == "" {
		missing = append(missing, "portal.url")
	}
	if c.Portal.Login == "" {
		missing = append(missing, "portal.login")
	}
	if c.Portal.Password == "" {
		missing = append(missing, "portal.password")
	}
	if len(missing) == 0 {
		return nil
	}

	envs := make([]string, len(missing))
	for i, key := range missing {
		envs[i] = envName(key) + " or " + legacyEnv[key]
	}
	return errors.WithHintf(
		errors.Wrapf(ErrMissingCredentials, "%s not set", strings.Join(missing, ", ")),
		"set them in the [portal] section of am.toml, or export %s (a .env file works too)",
		strings.Join(envs, ", "))
}

// ValidateSettings checks everything except credentials; commands that never
// open the portal use it alone
func (c *Config) ValidateSettings() error {
	// Zero means zero: 0 disables pacing and the memory check, negatives are invalid
	if c.Run.Quantity <= 0 {
		return errors.Newf("run.quantity must be > 0, got %d", c.Run.Quantity)
	}
	if strings.TrimSpace(c.Run.StopWord) == "" {
		return errors.WithHint(errors.New("run.stop_word must not be empty"),
			"an empty stop word would stop the batch on a bare Enter")
	}
	if c.Run.MinIntervalMS < 0 {
		return errors.Newf("run.min_interval_ms must be >= 0, got %d", c.Run.MinIntervalMS)
	}
	if c.Browser.SettleMS < 0 {
		return errors.Newf("browser.settle_ms must be >= 0, got %d", c.Browser.SettleMS)
	}
	if c.Browser.WindowWidth <= 0 || c.Browser.WindowHeight <= 0 {
		return errors.Newf("browser window must be positive, got %dx%d",
			c.Browser.WindowWidth, c.Browser.WindowHeight)
	}

	timeouts := []struct {
		key   string
		value int64
	}{
		{"browser.step_timeout", int64(c.Browser.StepTimeout)},
		{"browser.navigation_timeout", int64(c.Browser.NavigationTimeout)},
		{"browser.login_timeout", int64(c.Browser.LoginTimeout)},
		{"browser.download_timeout", int64(c.Browser.DownloadTimeout)},
	}
	for _, t := range timeouts {
		if t.value <= 0 {
			return errors.WithHint(errors.Newf("%s must be > 0", t.key), `use a duration such as "15s"`)
		}
	}

	if c.Paths.Input == "" {
		return errors.New("paths.input cannot be empty")
	}
	for _, p := range []struct{ key, value string }{
		{"paths.contracts", c.Paths.Contracts},
		{"paths.reports", c.Paths.Reports},
		{"paths.logs", c.Paths.Logs},
		{"database.path", c.Database.Path},
	} {
		if p.value == "" {
			return errors.Newf("%s cannot be empty", p.key)
		}
	}

	switch c.Resume.Mode {
	case "checkpoint", "folder":
	default:
		return errors.WithHint(errors.Newf("unknown resume.mode %q", c.Resume.Mode),
			"use checkpoint or folder")
	}
	switch c.Report.Format {
	case "xlsx", "csv":
	default:
		return errors.WithHint(errors.Newf("unknown report.format %q", c.Report.Format),
			"use xlsx or csv")
	}
	return nil
}
