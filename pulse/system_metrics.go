package pulse

import (
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/teranos/harvest/errors"
)

const mib = 1024 * 1024

// MemoryStatus is a snapshot of system memory before the browser launches.
type MemoryStatus struct {
	TotalMB     uint64  `json:"total_mb"`
	AvailableMB uint64  `json:"available_mb"`
	UsedPercent float64 `json:"used_percent"`
	// Low is true when available memory is under the configured minimum
	Low bool `json:"low"`
}

// memoryStats is replaceable in tests.
var memoryStats = func() (total, available uint64, usedPercent float64, err error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, 0, errors.Wrap(err, "failed to get memory stats")
	}
	return v.Total, v.Available, v.UsedPercent, nil
}

// CheckMemory reports system memory and whether it is below minFreeMB.
// minFreeMB of 0 disables the check.
func CheckMemory(minFreeMB uint64) (MemoryStatus, error) {
	total, available, used, err := memoryStats()
	if err != nil {
		return MemoryStatus{}, err
	}
	st := MemoryStatus{
		TotalMB:     total / mib,
		AvailableMB: available / mib,
		UsedPercent: used,
	}
	st.Low = minFreeMB > 0 && st.AvailableMB < minFreeMB
	return st, nil
}
