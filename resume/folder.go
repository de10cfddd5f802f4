package resume

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/harvest/contract"
	"github.com/teranos/harvest/logger"
)

// FolderTracker infers the resume marker from the contracts output tree: the
// name of the most recently modified subdirectory that has at least one
// entry.
//
// It is best effort. A missing root or any I/O error means "no prior
// progress" and is never surfaced, so it cannot block a run from starting.
// Hidden directories (the download staging area) are ignored.
type FolderTracker struct {
	Root   string
	logger *zap.SugaredLogger
}

// NewFolderTracker returns a tracker over root.
func NewFolderTracker(root string) *FolderTracker {
	return &FolderTracker{Root: root, logger: logger.ComponentLogger("resume.folder")}
}

func (f *FolderTracker) LastProcessed(ctx context.Context) (contract.ID, error) {
	log := f.logger
	if log == nil {
		log = logger.Logger
	}

	entries, err := os.ReadDir(f.Root)
	if err != nil {
		log.Debugw("No readable contracts root, starting fresh", logger.FieldPath, f.Root, logger.FieldError, err)
		return "", nil
	}

	var (
		latest     string
		latestTime time.Time
	)
	for _, e := range entries {
		if ctx.Err() != nil {
			return "", nil
		}
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dir := filepath.Join(f.Root, e.Name())
		if !hasEntries(dir) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			log.Debugw("Skipping unreadable folder", logger.FieldPath, dir, logger.FieldError, err)
			continue
		}
		if latest == "" || info.ModTime().After(latestTime) {
			latest = e.Name()
			latestTime = info.ModTime()
		}
	}

	if latest != "" {
		log.Debugw("Resume marker from folders", logger.FieldContractID, latest, "modified", latestTime)
	}
	return contract.ID(latest), nil
}

func hasEntries(dir string) bool {
	d, err := os.Open(dir)
	if err != nil {
		return false
	}
	defer d.Close()
	names, _ := d.Readdirnames(1)
	return len(names) > 0
}
