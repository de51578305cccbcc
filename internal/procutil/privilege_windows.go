//go:build windows

package procutil

import "golang.org/x/sys/windows"

// IsElevated reports whether the current process token is elevated
// (started with "Run as administrator").
func IsElevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}
