//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package utils

func openFileLimit() (uint64, bool) { return 0, false }
