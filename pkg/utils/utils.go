package utils

import "log/slog"

// fdMargin keeps headroom for the log file, stdio and the runtime.
const fdMargin = 100

// CheckFileDescriptorLimit warns when the peak number of concurrent probes
// might exceed the open file limit. It returns the soft limit, or 0 when it
// is unknown on this platform.
func CheckFileDescriptorLimit(logger *slog.Logger, footprint int) uint64 {
	limit, ok := openFileLimit()
	if !ok {
		return 0
	}
	if exceedsLimit(footprint, limit) {
		logger.Warn("Concurrent probe count is close to the file descriptor limit.",
			"footprint", footprint, "limit", limit)
	}
	return limit
}

func exceedsLimit(footprint int, limit uint64) bool {
	if footprint <= 0 {
		return false
	}
	if limit <= fdMargin {
		return true
	}
	return uint64(footprint) >= limit-fdMargin
}
