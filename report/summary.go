package report

import (
	"fmt"
	"io"
	"time"

	"github.com/teranos/harvest/contract"
)

// Summary aggregates the outcomes of one run.
type Summary struct {
	Total     int                     `json:"total"`
	Succeeded int                     `json:"succeeded"` // PROCESSED
	NoFiles   int                     `json:"no_files"`
	Failures  int                     `json:"failures"` // everything else
	ByStatus  map[contract.Status]int `json:"by_status"`
	Elapsed   time.Duration           `json:"elapsed"`
	// Busy is the sum of per-contract durations
	Busy time.Duration `json:"busy"`
}

// Summarize counts outcomes. NO_FILES is neither a success nor a failure.
func Summarize(outcomes []contract.Outcome, elapsed time.Duration) Summary {
	s := Summary{
		Total:    len(outcomes),
		ByStatus: make(map[contract.Status]int),
		Elapsed:  elapsed,
	}
	for _, o := range outcomes {
		s.ByStatus[o.Status]++
		s.Busy += o.Duration
		switch o.Status {
		case contract.Processed:
			s.Succeeded++
		case contract.NoFiles:
			s.NoFiles++
		default:
			s.Failures++
		}
	}
	return s
}

// Average is the mean per-contract duration, or zero for an empty run.
func (s Summary) Average() time.Duration {
	if s.Total == 0 {
		return 0
	}
	return s.Busy / time.Duration(s.Total)
}

// Render writes the human-readable summary block.
func (s Summary) Render(w io.Writer) error {
	lines := []string{
		fmt.Sprintf("Contracts processed: %d", s.Total),
		fmt.Sprintf("  Successful:        %d", s.Succeeded),
		fmt.Sprintf("  No files:          %d", s.NoFiles),
		fmt.Sprintf("  Failures:          %d", s.Failures),
	}
	for _, st := range contract.Statuses {
		if !st.Succeeded() {
			lines = appendCount(lines, st, s.ByStatus[st])
		}
		if fault := st.AsFault(); fault != st {
			lines = appendCount(lines, fault, s.ByStatus[fault])
		}
	}
	lines = append(lines,
		fmt.Sprintf("Total time:          %s", FormatDuration(s.Elapsed)),
		fmt.Sprintf("Average per contract: %.2fs", s.Average().Seconds()),
	)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func appendCount(lines []string, st contract.Status, n int) []string {
	if n == 0 {
		return lines
	}
	return append(lines, fmt.Sprintf("    %-28s %d", st.String(), n))
}
