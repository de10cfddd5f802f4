// Package resume answers "which contract did the last run finish with?" so
// the planner can continue after it.
//
// The default answer comes from the SQLite checkpoint written after every
// contract. The legacy folder heuristic (latest non-empty contract folder)
// is kept as a fallback for output trees produced before checkpoints existed.
package resume

import (
	"context"

	"github.com/teranos/harvest/contract"
	"github.com/teranos/harvest/errors"
)

// Tracker reports the last processed contract. An empty ID means fresh start.
type Tracker interface {
	LastProcessed(ctx context.Context) (contract.ID, error)
}

// Mode selects which tracker drives resumption.
type Mode string

const (
	ModeCheckpoint Mode = "checkpoint"
	ModeFolder     Mode = "folder"
)

// chain asks each tracker in turn; the first non-empty answer wins.
type chain []Tracker

// Chain combines trackers in priority order. An error from a tracker is
// returned immediately; later trackers are not consulted.
func Chain(trackers ...Tracker) Tracker {
	return chain(trackers)
}

func (c chain) LastProcessed(ctx context.Context) (contract.ID, error) {
	for _, t := range c {
		id, err := t.LastProcessed(ctx)
		if err != nil {
			return "", err
		}
		if !id.IsZero() {
			return id, nil
		}
	}
	return "", nil
}

// ParseMode validates a resume.mode setting.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCheckpoint, ModeFolder:
		return Mode(s), nil
	case "":
		return ModeCheckpoint, nil
	default:
		return "", errors.WithHint(
			errors.Newf("unknown resume mode %q", s),
			"resume.mode must be \"checkpoint\" or \"folder\"")
	}
}

// Select builds the tracker for mode. In checkpoint mode with legacyFallback
// an empty checkpoint falls back to the folder heuristic, so output trees from
// before checkpoints existed keep resuming.
func Select(mode Mode, cp *Checkpoint, folder *FolderTracker, legacyFallback bool) Tracker {
	if mode == ModeFolder {
		return folder
	}
	if legacyFallback {
		return Chain(cp, folder)
	}
	return cp
}
