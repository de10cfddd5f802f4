package portal

import (
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/kballard/go-shellquote"

	"github.com/teranos/harvest/am"
	"github.com/teranos/harvest/errors"
)

// Options configures a browser session.
type Options struct {
	URL      string
	Login    string
	Password string

	Headless  bool
	Width     int
	Height    int
	UserAgent string
	ExecPath  string
	ExtraArgs string // shell-quoted chrome flags

	StepTimeout       time.Duration
	NavigationTimeout time.Duration
	LoginTimeout      time.Duration
	DownloadTimeout   time.Duration
	Settle            time.Duration // pause after submitting a search

	ContractsDir   string // downloads land in <ContractsDir>/<id>/
	ScreenshotsDir string

	Selectors Selectors
}

// OptionsFromConfig maps the browser, portal and path settings.
func OptionsFromConfig(cfg *am.Config) Options {
	return Options{
		URL:               cfg.Portal.URL,
		Login:             cfg.Portal.Login,
		Password:          cfg.Portal.Password,
		Headless:          cfg.Browser.Headless,
		Width:             cfg.Browser.WindowWidth,
		Height:            cfg.Browser.WindowHeight,
		UserAgent:         cfg.Browser.UserAgent,
		ExecPath:          cfg.Browser.ExecPath,
		ExtraArgs:         cfg.Browser.ExtraArgs,
		StepTimeout:       cfg.Browser.StepTimeout,
		NavigationTimeout: cfg.Browser.NavigationTimeout,
		LoginTimeout:      cfg.Browser.LoginTimeout,
		DownloadTimeout:   cfg.Browser.DownloadTimeout,
		Settle:            cfg.Settle(),
		ContractsDir:      cfg.Paths.Contracts,
		ScreenshotsDir:    cfg.Paths.Screenshots,
		Selectors:         DefaultSelectors(),
	}
}

// flag is one chrome command-line switch. Value is a string, or true for a
// bare switch.
type flag struct {
	Name  string
	Value interface{}
}

// parseExtraArgs splits a shell-quoted flag list such as
// `--proxy-server="http://p:3128" --lang=pt-BR --mute-audio`.
func parseExtraArgs(s string) ([]flag, error) {
	words, err := shellquote.Split(s)
	if err != nil {
		return nil, errors.WithHint(errors.Wrapf(err, "invalid browser.extra_args %q", s),
			"quote values containing spaces")
	}

	flags := make([]flag, 0, len(words))
	for _, w := range words {
		if !strings.HasPrefix(w, "--") || len(w) == 2 {
			return nil, errors.WithHint(errors.Newf("browser.extra_args: %q is not a flag", w),
				"every argument must look like --name or --name=value")
		}
		name, value, hasValue := strings.Cut(strings.TrimPrefix(w, "--"), "=")
		if hasValue {
			flags = append(flags, flag{Name: name, Value: value})
		} else {
			flags = append(flags, flag{Name: name, Value: true})
		}
	}
	return flags, nil
}

// allocatorOptions builds the exec allocator options: chromedp's defaults,
// then harvest's fixed flags, then the configured extra flags, which win.
func allocatorOptions(o Options) ([]chromedp.ExecAllocatorOption, error) {
	extra, err := parseExtraArgs(o.ExtraArgs)
	if err != nil {
		return nil, err
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", o.Headless),
		chromedp.WindowSize(o.Width, o.Height),
		chromedp.IgnoreCertErrors,
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if o.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(o.UserAgent))
	}
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}
	for _, f := range extra {
		opts = append(opts, chromedp.Flag(f.Name, f.Value))
	}
	return opts, nil
}
