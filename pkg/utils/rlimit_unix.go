//go:build linux || darwin || freebsd || netbsd || openbsd

package utils

import "golang.org/x/sys/unix"

func openFileLimit() (uint64, bool) {
	var rLimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, false
	}
	return uint64(rLimit.Cur), true
}
