package contract

import (
	"strings"

	"github.com/teranos/harvest/errors"
)

// Status is the terminal state of one contract attempt.
//
// The set is closed. A step status may additionally carry the fault bit,
// meaning the step did not fail normally but hit an unexpected error; it then
// renders as ERROR_<status>.
type Status uint8

const (
	StatusUnknown Status = iota
	Processed
	NoFiles
	SearchFailed
	NotFound
	OpenFailed
	DocumentsAccessFailed
	DownloadFailed
	// Error is the runner-level fault: the processor itself failed.
	Error
)

const faultBit Status = 1 << 7

const faultPrefix = "ERROR_"

var statusNames = map[Status]string{
	Processed:             "PROCESSED",
	NoFiles:               "NO_FILES",
	SearchFailed:          "SEARCH_FAILED",
	NotFound:              "NOT_FOUND",
	OpenFailed:            "OPEN_FAILED",
	DocumentsAccessFailed: "DOCUMENTS_ACCESS_FAILED",
	DownloadFailed:        "DOWNLOAD_FAILED",
	Error:                 "ERROR",
}

// Statuses lists every base status in display order.
var Statuses = []Status{
	Processed, NoFiles, SearchFailed, NotFound, OpenFailed,
	DocumentsAccessFailed, DownloadFailed, Error,
}

// AsFault returns the fault variant of s. Error and StatusUnknown have none
// and are returned unchanged.
func (s Status) AsFault() Status {
	if s == Error || s.Base() == StatusUnknown {
		return s
	}
	return s | faultBit
}

// IsFault reports whether s is an ERROR_<status> variant, or the runner-level
// Error.
func (s Status) IsFault() bool {
	return s&faultBit != 0 || s == Error
}

// Base strips the fault bit.
func (s Status) Base() Status {
	return s &^ faultBit
}

// Succeeded is true for PROCESSED and NO_FILES only.
func (s Status) Succeeded() bool {
	return s == Processed || s == NoFiles
}

// Valid reports whether s is a known status, fault variants included.
func (s Status) Valid() bool {
	_, ok := statusNames[s.Base()]
	if !ok {
		return false
	}
	return s&faultBit == 0 || s.Base() != Error
}

func (s Status) String() string {
	name, ok := statusNames[s.Base()]
	if !ok {
		return "UNKNOWN"
	}
	if s&faultBit != 0 {
		return faultPrefix + name
	}
	return name
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, errors.Newf("invalid status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus is the inverse of String.
func ParseStatus(text string) (Status, error) {
	for st, name := range statusNames {
		if text == name {
			return st, nil
		}
	}
	if rest, ok := strings.CutPrefix(text, faultPrefix); ok {
		for st, name := range statusNames {
			if st != Error && rest == name {
				return st.AsFault(), nil
			}
		}
	}
	return StatusUnknown, errors.Newf("unknown status %q", text)
}
