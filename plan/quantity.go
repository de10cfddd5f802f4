package plan

import (
	"strconv"
	"strings"
)

// ParseQuantity reads the optional batch size argument. A missing,
// unparseable, or non-positive value falls back; ok is false whenever the
// fallback was used for a value that was actually given, so callers can warn.
func ParseQuantity(args []string, fallback int) (quantity int, ok bool) {
	if len(args) == 0 {
		return fallback, true
	}
	n, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil || n <= 0 {
		return fallback, false
	}
	return n, true
}
