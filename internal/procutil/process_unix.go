//go:build !windows

package procutil

import (
	"os"
	"syscall"
)

// GracefulTerminate asks a launched game process to exit with SIGTERM.
func GracefulTerminate(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}

// TerminateByPID sends SIGTERM to a launcher service found through its pid
// file. Non-positive pids and the calling process are refused: kill(2)
// would treat them as process groups or signal ourselves.
func TerminateByPID(pid int) error {
	if err := checkTarget(pid); err != nil {
		return err
	}
	return syscall.Kill(pid, syscall.SIGTERM)
}

// IsProcessAlive reports whether pid names a running process. Unreaped
// children still count as alive.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
