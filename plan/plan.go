// Package plan computes the batch of contracts a run will attempt and loads
// the ordered identifier list it is computed from.
package plan

import (
	"slices"

	"github.com/teranos/harvest/contract"
)

// DefaultQuantity is the batch size used when none (or an invalid one) is
// given on the command line.
const DefaultQuantity = 35000

// Next returns up to quantity identifiers to attempt in this run.
//
// With no resume marker, or one that is not in full, the batch starts from
// the top of the list. Otherwise it is the identifiers immediately after the
// first occurrence of last. The result never aliases full.
func Next(full []contract.ID, last contract.ID, quantity int) []contract.ID {
	if quantity <= 0 || len(full) == 0 {
		return []contract.ID{}
	}

	start := 0
	if !last.IsZero() {
		if i := slices.Index(full, last); i >= 0 {
			start = i + 1
		}
	}

	end := min(start+quantity, len(full))
	return slices.Clone(full[start:end])
}

// Remaining is how many identifiers follow the resume marker; the full length
// when the marker is absent or unknown.
func Remaining(full []contract.ID, last contract.ID) int {
	if last.IsZero() {
		return len(full)
	}
	i := slices.Index(full, last)
	if i < 0 {
		return len(full)
	}
	return len(full) - i - 1
}

// Position reports whether last was found in full. A marker that is set but
// not found means the batch restarts from the top.
func Position(full []contract.ID, last contract.ID) (index int, found bool) {
	if last.IsZero() {
		return -1, false
	}
	i := slices.Index(full, last)
	return i, i >= 0
}
