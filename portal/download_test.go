package portal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadTrackerCompleted(t *testing.T) {
	tr := newDownloadTracker(nil)
	p := tr.arm()

	tr.handle(&browser.EventDownloadWillBegin{GUID: "g1", SuggestedFilename: "CW1_docs.zip"})
	tr.handle(&browser.EventDownloadProgress{GUID: "g1", State: browser.DownloadProgressStateInProgress})

	select {
	case guid := <-p.began:
		assert.Equal(t, "g1", guid)
	default:
		t.Fatal("begin not reported")
	}
	select {
	case <-p.done:
		t.Fatal("in-progress event must not finish the download")
	default:
	}

	tr.handle(&browser.EventDownloadProgress{GUID: "g1", State: browser.DownloadProgressStateCompleted})
	res := <-p.done
	assert.Equal(t, downloadResult{GUID: "g1", SuggestedFilename: "CW1_docs.zip"}, res)

	// A late duplicate event never blocks
	tr.handle(&browser.EventDownloadProgress{GUID: "g1", State: browser.DownloadProgressStateCompleted})
}

func TestDownloadTrackerIgnoresEarlierTransfer(t *testing.T) {
	tr := newDownloadTracker(nil)

	// CW1 began but timed out before its transfer finished
	first := tr.arm()
	tr.handle(&browser.EventDownloadWillBegin{GUID: "g-cw1", SuggestedFilename: "CW1.zip"})
	tr.disarm(first)

	second := tr.arm()
	tr.handle(&browser.EventDownloadWillBegin{GUID: "g-cw2", SuggestedFilename: "CW2.zip"})
	assert.Equal(t, "g-cw2", <-second.began)

	tr.handle(&browser.EventDownloadProgress{GUID: "g-cw1", State: browser.DownloadProgressStateCompleted})
	select {
	case res := <-second.done:
		t.Fatalf("CW2 received the result of %s", res.GUID)
	default:
	}

	tr.handle(&browser.EventDownloadProgress{GUID: "g-cw2", State: browser.DownloadProgressStateCompleted})
	res := <-second.done
	assert.Equal(t, downloadResult{GUID: "g-cw2", SuggestedFilename: "CW2.zip"}, res)
}

func TestDownloadTrackerCanceled(t *testing.T) {
	tr := newDownloadTracker(nil)
	p := tr.arm()
	tr.handle(&browser.EventDownloadWillBegin{GUID: "g2", SuggestedFilename: "x.zip"})
	tr.handle(&browser.EventDownloadProgress{GUID: "g2", State: browser.DownloadProgressStateCanceled})

	res := <-p.done
	assert.Error(t, res.Err)
}

func TestDownloadTrackerUnarmed(t *testing.T) {
	tr := newDownloadTracker(nil)
	p := tr.arm()
	tr.disarm(p)

	assert.NotPanics(t, func() {
		tr.handle(&browser.EventDownloadWillBegin{GUID: "g3"})
		tr.handle(&browser.EventDownloadProgress{GUID: "g3", State: browser.DownloadProgressStateCompleted})
		tr.handle("unrelated event")
	})
	assert.Empty(t, tr.names)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"CW1_docs.zip":          "CW1_docs.zip",
		"../../etc/passwd":      "passwd",
		`C:\temp\file.zip`:      "file.zip",
		`what?:"x".zip`:         "what___x_.zip",
		"":                      "",
		"..":                    "",
		"  spaced name.zip  ":   "spaced name.zip",
		"Documentos (1).zip":    "Documentos (1).zip",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeFilename(in), in)
	}
}

func TestMoveDownload(t *testing.T) {
	root := t.TempDir()
	staging := filepath.Join(root, stagingDirName)
	require.NoError(t, os.MkdirAll(staging, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(staging, "g1"), []byte("zip"), 0644))

	path, err := moveDownload(staging, root, "CW1", downloadResult{GUID: "g1", SuggestedFilename: "docs.zip"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "CW1", "docs.zip"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "zip", string(data))
	_, err = os.Stat(filepath.Join(staging, "g1"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, os.WriteFile(filepath.Join(staging, "g2"), []byte("zip"), 0644))
	path, err = moveDownload(staging, root, "A/B", downloadResult{GUID: "g2"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "A_B", "documents.zip"), path)

	_, err = moveDownload(staging, root, "CW3", downloadResult{GUID: "missing"})
	assert.Error(t, err)
}

func TestScreenshotName(t *testing.T) {
	at := time.Date(2026, 3, 4, 17, 45, 9, 0, time.UTC)
	assert.Equal(t, "CW1_OPEN_20260304_174509.png", screenshotName("CW1", "OPEN", at))
	assert.Equal(t, "a_b_SEARCH_20260304_174509.png", screenshotName("a/b", "SEARCH", at))
}
