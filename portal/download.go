package portal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/browser"
	"go.uber.org/zap"

	"github.com/teranos/harvest/contract"
	"github.com/teranos/harvest/errors"
	"github.com/teranos/harvest/logger"
)

// stagingDirName is where the browser writes downloads before they are moved
// into a contract folder. Hidden, so the folder resume heuristic skips it.
const stagingDirName = ".downloads"

// downloadResult is a finished (or cancelled) browser download.
type downloadResult struct {
	GUID              string
	SuggestedFilename string
	Err               error
}

// pendingDownload is armed before the download button is clicked. guid is
// set by the first download that begins while it is armed; only that
// download's completion is delivered to done.
type pendingDownload struct {
	guid  string
	began chan string
	done  chan downloadResult
}

// downloadTracker turns browser download events into per-click results.
// Only one download is expected at a time.
type downloadTracker struct {
	mu      sync.Mutex
	names   map[string]string // GUID -> suggested filename
	pending *pendingDownload
	logger  *zap.SugaredLogger
}

func newDownloadTracker(log *zap.SugaredLogger) *downloadTracker {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &downloadTracker{names: make(map[string]string), logger: log}
}

// arm registers interest in the next download.
func (t *downloadTracker) arm() *pendingDownload {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = &pendingDownload{
		began: make(chan string, 1),
		done:  make(chan downloadResult, 1),
	}
	return t.pending
}

// disarm drops the pending download, if it is still p.
func (t *downloadTracker) disarm(p *pendingDownload) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == p {
		t.pending = nil
	}
}

// handle is a chromedp target listener; it must not block.
func (t *downloadTracker) handle(ev interface{}) {
	switch e := ev.(type) {
	case *browser.EventDownloadWillBegin:
		t.mu.Lock()
		t.names[e.GUID] = e.SuggestedFilename
		if t.pending != nil && t.pending.guid == "" {
			t.pending.guid = e.GUID
			select {
			case t.pending.began <- e.GUID:
			default:
			}
		}
		t.mu.Unlock()
	case *browser.EventDownloadProgress:
		switch e.State {
		case browser.DownloadProgressStateCompleted:
			t.finish(e.GUID, nil)
		case browser.DownloadProgressStateCanceled:
			t.finish(e.GUID, errors.Newf("download %s was canceled", e.GUID))
		}
	}
}

func (t *downloadTracker) finish(guid string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	name := t.names[guid]
	delete(t.names, guid)
	if t.pending == nil || t.pending.guid != guid {
		// A transfer that outlived its contract's timeout; its file stays in staging
		t.logger.Warnw("Dropped download event for a contract no longer waiting",
			"guid", guid, logger.FieldFile, name)
		return
	}
	select {
	case t.pending.done <- downloadResult{GUID: guid, SuggestedFilename: name, Err: err}:
	default:
	}
	t.pending = nil
}

// sanitizeFilename keeps the base name of a browser-suggested filename and
// removes characters that are unsafe in a path.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, strings.ContainsRune(`<>:"|?*`, r):
			return '_'
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

// contractDir returns the folder for id under root. Path separators in the
// id are replaced so the folder stays directly under root.
func contractDir(root string, id contract.ID) string {
	return filepath.Join(root, strings.NewReplacer("/", "_", `\`, "_").Replace(string(id)))
}

// moveDownload moves the staged file for guid into the contract folder under
// its suggested name and returns the final path.
func moveDownload(staging, root string, id contract.ID, res downloadResult) (string, error) {
	name := sanitizeFilename(res.SuggestedFilename)
	if name == "" {
		name = "documents.zip"
	}

	dir := contractDir(root, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, "failed to create contract folder %s", dir)
	}

	dst := filepath.Join(dir, name)
	if err := os.Rename(filepath.Join(staging, res.GUID), dst); err != nil {
		return "", errors.Wrapf(err, "failed to move download %s to %s", res.GUID, dst)
	}
	return dst, nil
}

// screenshotName is <id>_<step>_<YYYYmmdd_HHMMSS>.png
func screenshotName(id contract.ID, step string, at time.Time) string {
	safe := strings.NewReplacer("/", "_", `\`, "_").Replace(string(id))
	return fmt.Sprintf("%s_%s_%s.png", safe, step, at.Format("20060102_150405"))
}
