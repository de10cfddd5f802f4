// Package process drives one contract through the portal:
// search, open, access documents, download, then navigate home.
package process

import (
	"context"

	"github.com/teranos/harvest/contract"
)

// Gateway is the browser session as the processor sees it. Every call is
// bounded by the implementation's own UI timeouts; a timeout is an ordinary
// error.
type Gateway interface {
	// Search filters the record list by id.
	Search(ctx context.Context, id contract.ID) error

	// Open selects the record. It returns an error wrapping
	// errors.ErrNotFound when no row matches id, and any other error when a
	// row exists but could not be opened.
	Open(ctx context.Context, id contract.ID) error

	// AccessDocuments switches the open record to its documents view.
	AccessDocuments(ctx context.Context, id contract.ID) error

	// DownloadDocuments downloads all attachments as one archive and returns
	// where it was saved. It returns an error wrapping errors.ErrNoFiles when
	// the record has no documents or the download never started.
	DownloadDocuments(ctx context.Context, id contract.ID) (string, error)

	// NavigateHome returns the session to the portal start page.
	NavigateHome(ctx context.Context) error
}

// Snapshotter is implemented by gateways that can capture the current page.
// It returns the path of the saved image.
type Snapshotter interface {
	Screenshot(ctx context.Context, id contract.ID, step Step) (string, error)
}

// Step is one stage of contract processing.
type Step int

const (
	StepSearch Step = iota
	StepOpen
	StepAccessDocuments
	StepDownload
	StepNavigateHome
)

var stepNames = [...]string{"SEARCH", "OPEN", "ACCESS_DOCUMENTS", "DOWNLOAD", "NAVIGATE_HOME"}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return "UNKNOWN"
	}
	return stepNames[s]
}

// failure is the status a step produces when it fails normally.
func (s Step) failure() contract.Status {
	switch s {
	case StepSearch:
		return contract.SearchFailed
	case StepOpen:
		return contract.OpenFailed
	case StepAccessDocuments:
		return contract.DocumentsAccessFailed
	case StepDownload:
		return contract.DownloadFailed
	default:
		return contract.Error
	}
}
