// Package portal drives the procurement portal in a headless Chrome through
// chromedp. A Session is the process.Gateway used for a whole run.
package portal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/teranos/harvest/contract"
	"github.com/teranos/harvest/errors"
	"github.com/teranos/harvest/logger"
	"github.com/teranos/harvest/process"
)

// Fixed pauses the portal needs between UI actions.
const (
	postLoginPause    = 3 * time.Second
	interstitialPause = 2 * time.Second
	homePause         = 2 * time.Second
	menuPause         = 1500 * time.Millisecond
	openPause         = 3 * time.Second
	tabPause          = 2 * time.Second
	actionsPause      = time.Second
	documentsPause    = 3 * time.Second
	selectAllPause    = 2 * time.Second
	titleWait         = 10 * time.Second
	shortWait         = 5 * time.Second
	pollInterval      = 250 * time.Millisecond
)

const hideWebdriver = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`

// Session is one logged-in browser tab.
type Session struct {
	opts    Options
	sel     Selectors
	staging string

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	downloads *downloadTracker
	logger    *zap.SugaredLogger
	now       func() time.Time
}

var (
	_ process.Gateway     = (*Session)(nil)
	_ process.Snapshotter = (*Session)(nil)
)

// Launch starts Chrome, enables downloads into a staging folder and returns
// the session. It does not log in.
func Launch(ctx context.Context, opts Options) (*Session, error) {
	if opts.Selectors.SearchInput == "" {
		opts.Selectors = DefaultSelectors()
	}
	allocOpts, err := allocatorOptions(opts)
	if err != nil {
		return nil, err
	}

	staging, err := filepath.Abs(filepath.Join(opts.ContractsDir, stagingDirName))
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve download staging folder")
	}
	if err := os.MkdirAll(staging, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create download staging folder %s", staging)
	}

	log := logger.AddBrowserSymbol(logger.ComponentLogger("portal.session"))

	// The browser outlives any single call; Close ends it.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(log.Debugf),
		chromedp.WithErrorf(log.Debugf),
	)

	s := &Session{
		opts:          opts,
		sel:           opts.Selectors,
		staging:       staging,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		downloads:     newDownloadTracker(log.Named("downloads")),
		logger:        log,
		now:           time.Now,
	}
	chromedp.ListenTarget(browserCtx, s.downloads.handle)
	chromedp.ListenBrowser(browserCtx, s.downloads.handle)

	// The first Run starts the browser. It gets the browser context itself:
	// a timeout on it would kill the browser when it fires.
	if err := chromedp.Run(browserCtx); err != nil {
		s.Close()
		return nil, errors.WithHint(errors.Wrap(err, "failed to launch browser"),
			"check that Chrome or Chromium is installed, or set browser.exec_path")
	}

	err = s.run(ctx, opts.NavigationTimeout,
		browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllowAndName).
			WithDownloadPath(staging).
			WithEventsEnabled(true),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(hideWebdriver).Do(ctx)
			return err
		}),
	)
	if err != nil {
		s.Close()
		return nil, errors.Wrap(err, "failed to enable downloads")
	}

	log.Infow("Browser launched",
		"headless", opts.Headless,
		logger.FieldPath, staging,
	)
	return s, nil
}

// Close ends the browser. It is safe to call more than once.
func (s *Session) Close() {
	if s.browserCancel != nil {
		s.browserCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}

// run executes actions on the tab, bounded by timeout and by ctx.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	tctx, cancel := context.WithTimeout(s.browserCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(tctx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Wrap(ctxErr, "browser action interrupted")
		}
		return err
	}
	return nil
}

// count returns how many nodes match an XPath expression, without waiting.
func (s *Session) count(ctx context.Context, xpath string) (int, error) {
	var nodes []*cdp.Node
	err := s.run(ctx, s.opts.StepTimeout, chromedp.Nodes(xpath, &nodes, chromedp.BySearch, chromedp.AtLeast(0)))
	return len(nodes), err
}

// bodyText returns the visible text of the page.
func (s *Session) bodyText(ctx context.Context) (string, error) {
	var body string
	err := s.run(ctx, s.opts.StepTimeout,
		chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &body))
	return body, err
}

// pause sleeps for d unless ctx ends first.
func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Login opens the portal and signs in. Any failure is a session error.
func (s *Session) Login(ctx context.Context) error {
	s.logger.Infow("Logging in", logger.FieldURL, s.opts.URL)

	err := s.run(ctx, s.opts.NavigationTimeout, chromedp.Navigate(s.opts.URL))
	if err != nil {
		return errors.WithHint(errors.Wrapf(err, "failed to open %s", s.opts.URL), "check portal.url")
	}

	err = s.run(ctx, s.opts.StepTimeout,
		chromedp.WaitVisible(s.sel.UserInput, chromedp.ByQuery),
		chromedp.SetValue(s.sel.UserInput, "", chromedp.ByQuery),
		chromedp.SendKeys(s.sel.UserInput, s.opts.Login, chromedp.ByQuery),
		chromedp.SetValue(s.sel.PasswordInput, "", chromedp.ByQuery),
		chromedp.SendKeys(s.sel.PasswordInput, s.opts.Password, chromedp.ByQuery),
		chromedp.Click(s.sel.LogonButton, chromedp.ByQuery),
	)
	if err != nil {
		return errors.Wrap(err, "failed to fill the login form")
	}

	err = s.run(ctx, s.opts.LoginTimeout, chromedp.WaitVisible(s.sel.UserInitials, chromedp.ByQuery))
	if err != nil {
		return errors.WithHint(errors.Wrap(err, "login was not accepted"),
			"check portal.login and portal.password")
	}
	if err := pause(ctx, postLoginPause); err != nil {
		return err
	}

	// Optional notice shown after some logins
	if err := s.run(ctx, shortWait, chromedp.Click(s.sel.InterstitialButton, chromedp.ByQuery)); err == nil {
		s.logger.Debugw("Dismissed post-login notice")
		if err := pause(ctx, interstitialPause); err != nil {
			return err
		}
	}

	if err := s.run(ctx, shortWait, chromedp.WaitVisible(s.sel.HomeMarker, chromedp.ByQuery)); err != nil {
		return errors.WithHint(errors.Wrap(err, "home page did not load after login"),
			"the login may have partially failed; try again with browser.headless = false")
	}

	s.logger.Infow("Logged in")
	return nil
}

// Search submits id in the search field.
func (s *Session) Search(ctx context.Context, id contract.ID) error {
	err := s.run(ctx, s.opts.StepTimeout,
		chromedp.WaitVisible(s.sel.SearchInput, chromedp.ByQuery),
		chromedp.Click(s.sel.SearchInput, chromedp.ByQuery),
		chromedp.SetValue(s.sel.SearchInput, "", chromedp.ByQuery),
		chromedp.SendKeys(s.sel.SearchInput, string(id)+kb.Enter, chromedp.ByQuery),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to search for %s", id)
	}
	return pause(ctx, s.opts.Settle)
}

// Open selects the matching result row and opens the record.
func (s *Session) Open(ctx context.Context, id contract.ID) error {
	var tableHTML string
	err := s.run(ctx, s.opts.StepTimeout,
		chromedp.WaitVisible(s.sel.resultsTable(), chromedp.BySearch),
		chromedp.OuterHTML(s.sel.resultsTable(), &tableHTML, chromedp.BySearch),
	)
	if err != nil {
		return errors.Wrapf(err, "results table for %s did not load", id)
	}

	link, err := findRowLink(tableHTML, id, s.sel)
	if err != nil {
		return err
	}
	s.logger.Debugw("Result row found", logger.FieldContractID, string(id), "menu", link.MenuID, "title", link.Title)

	if err := s.run(ctx, s.opts.StepTimeout, chromedp.Click(s.sel.rowLink(link.MenuID), chromedp.BySearch)); err != nil {
		return errors.Wrapf(err, "failed to click result row for %s", id)
	}
	if err := pause(ctx, menuPause); err != nil {
		return err
	}

	n, err := s.count(ctx, s.sel.openOption(link.MenuID))
	if err != nil {
		return errors.Wrapf(err, "failed to read row menu for %s", id)
	}
	if n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "row menu for %s has no %q entry", id, s.sel.OpenLabel)
	}
	if err := s.run(ctx, shortWait, chromedp.Click(s.sel.openOption(link.MenuID), chromedp.BySearch)); err != nil {
		return errors.Wrapf(err, "failed to open %s", id)
	}
	if err := pause(ctx, openPause); err != nil {
		return err
	}

	if !s.waitOpened(ctx, link.Title) {
		return errors.Wrapf(errors.ErrNotFound, "record %s did not show after opening", id)
	}
	return nil
}

// waitOpened polls the page text until it shows an opened record.
func (s *Session) waitOpened(ctx context.Context, title string) bool {
	deadline := s.now().Add(titleWait)
	for {
		if body, err := s.bodyText(ctx); err == nil && pageShowsOpened(body, title, s.sel) {
			return true
		}
		if ctx.Err() != nil || s.now().After(deadline) {
			return false
		}
		if pause(ctx, pollInterval) != nil {
			return false
		}
	}
}

// AccessDocuments switches to the documents tab and opens the download page.
func (s *Session) AccessDocuments(ctx context.Context, id contract.ID) error {
	selected, err := s.count(ctx, s.sel.tab(s.sel.SelectedTabClass))
	if err != nil {
		return errors.Wrap(err, "failed to read tabs")
	}
	if selected == 0 {
		n, err := s.count(ctx, s.sel.tab(s.sel.TabClass))
		if err != nil {
			return errors.Wrap(err, "failed to read tabs")
		}
		if n == 0 {
			return errors.Newf("%s has no %q tab", id, s.sel.DocumentsLabel)
		}
		if err := s.clickThenPause(ctx, s.sel.tab(s.sel.TabClass), tabPause); err != nil {
			return errors.Wrap(err, "failed to select documents tab")
		}
	}

	if err := s.clickIfPresent(ctx, s.sel.actionsButton(), actionsPause); err != nil {
		return errors.Wrapf(err, "actions button on %s", id)
	}
	if err := s.clickIfPresent(ctx, s.sel.documentsMenuItem(), documentsPause); err != nil {
		return errors.Wrapf(err, "documents menu entry on %s", id)
	}

	if err := s.run(ctx, s.opts.StepTimeout, chromedp.WaitVisible(text(s.sel.DocumentsPageLabel), chromedp.BySearch)); err != nil {
		return errors.Wrapf(err, "download page for %s did not load", id)
	}
	return nil
}

func (s *Session) clickIfPresent(ctx context.Context, xpath string, after time.Duration) error {
	n, err := s.count(ctx, xpath)
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("not on page")
	}
	return s.clickThenPause(ctx, xpath, after)
}

func (s *Session) clickThenPause(ctx context.Context, xpath string, after time.Duration) error {
	if err := s.run(ctx, s.opts.StepTimeout, chromedp.Click(xpath, chromedp.BySearch)); err != nil {
		return err
	}
	return pause(ctx, after)
}

// DownloadDocuments selects every document and downloads them as one archive
// into the contract folder.
func (s *Session) DownloadDocuments(ctx context.Context, id contract.ID) (string, error) {
	if err := s.run(ctx, s.opts.StepTimeout, chromedp.WaitVisible(text(s.sel.DocumentsPageLabel), chromedp.BySearch)); err != nil {
		return "", errors.Wrapf(err, "download page for %s is not showing", id)
	}

	if err := s.run(ctx, shortWait, chromedp.Click(s.sel.SelectAll, chromedp.ByQuery)); err != nil {
		// The container can be covered; click the checkbox itself
		s.logger.Debugw("Select-all click failed, clicking the input directly", logger.FieldError, err.Error())
		script := `(function(){var el=document.querySelector(` + jsString(s.sel.SelectAll+" input") + `);if(el){el.click();}return !!el;})()`
		var clicked bool
		if err := s.run(ctx, s.opts.StepTimeout, chromedp.Evaluate(script, &clicked)); err != nil || !clicked {
			return "", s.noFilesOr(ctx, id, errors.Newf("no document checkbox for %s", id))
		}
	}
	if err := pause(ctx, selectAllPause); err != nil {
		return "", err
	}

	pending := s.downloads.arm()
	defer s.downloads.disarm(pending)

	if err := s.run(ctx, s.opts.StepTimeout, chromedp.Click(s.sel.downloadButton(), chromedp.BySearch)); err != nil {
		return "", s.noFilesOr(ctx, id, errors.Wrapf(err, "download button for %s", id))
	}

	timer := time.NewTimer(s.opts.DownloadTimeout)
	defer timer.Stop()

	var guid string
	select {
	case guid = <-pending.began:
	case <-timer.C:
		return "", s.noFilesOr(ctx, id, errors.Newf("download for %s never started", id))
	case <-ctx.Done():
		return "", errors.Wrap(ctx.Err(), "download interrupted")
	}
	s.logger.Debugw("Download started", logger.FieldContractID, string(id), "guid", guid)

	select {
	case res := <-pending.done:
		if res.Err != nil {
			return "", errors.Wrapf(res.Err, "download for %s failed", id)
		}
		path, err := moveDownload(s.staging, s.opts.ContractsDir, id, res)
		if err != nil {
			return "", err
		}
		s.logger.Infow("Documents downloaded", logger.FieldContractID, string(id), logger.FieldPath, path)
		return path, nil
	case <-timer.C:
		return "", errors.Newf("download for %s did not finish within %s", id, s.opts.DownloadTimeout)
	case <-ctx.Done():
		return "", errors.Wrap(ctx.Err(), "download interrupted")
	}
}

// noFilesOr maps a download that never started to ErrNoFiles, keeping err
// as detail. A record without documents never starts one.
func (s *Session) noFilesOr(ctx context.Context, id contract.ID, err error) error {
	if ctx.Err() != nil {
		return err
	}
	if n, cerr := s.count(ctx, text(s.sel.NoDocumentsLabel)); cerr == nil && n > 0 {
		return errors.Wrapf(errors.ErrNoFiles, "%s: %s", id, s.sel.NoDocumentsLabel)
	}
	return errors.WithDetail(errors.Wrapf(errors.ErrNoFiles, "%s: nothing was downloaded", id), err.Error())
}

// NavigateHome reloads the portal start page.
func (s *Session) NavigateHome(ctx context.Context) error {
	if err := s.run(ctx, s.opts.NavigationTimeout, chromedp.Navigate(s.opts.URL)); err != nil {
		return errors.Wrap(err, "failed to navigate home")
	}
	if err := s.run(ctx, s.opts.LoginTimeout, chromedp.WaitVisible(s.sel.UserInitials, chromedp.ByQuery)); err != nil {
		return errors.Wrap(err, "home page did not load")
	}
	return pause(ctx, homePause)
}

// Screenshot saves the current page as a PNG under the screenshots folder.
func (s *Session) Screenshot(ctx context.Context, id contract.ID, step process.Step) (string, error) {
	var buf []byte
	if err := s.run(ctx, s.opts.StepTimeout, chromedp.CaptureScreenshot(&buf)); err != nil {
		return "", errors.Wrap(err, "failed to capture screenshot")
	}
	if err := os.MkdirAll(s.opts.ScreenshotsDir, 0755); err != nil {
		return "", errors.Wrapf(err, "failed to create %s", s.opts.ScreenshotsDir)
	}
	path := filepath.Join(s.opts.ScreenshotsDir, screenshotName(id, step.String(), s.now()))
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", path)
	}
	return path, nil
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`).Replace(s) + "'"
}
