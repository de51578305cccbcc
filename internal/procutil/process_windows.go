//go:build windows

package procutil

import (
	"os"
	"syscall"
)

const processQueryLimitedInformation = 0x1000

// GracefulTerminate ends a launched game process. Windows has no SIGTERM
// equivalent reachable through os.Process, so this is TerminateProcess.
func GracefulTerminate(p *os.Process) error {
	return p.Kill()
}

// TerminateByPID ends a launcher service found through its pid file.
func TerminateByPID(pid int) error {
	if err := checkTarget(pid); err != nil {
		return err
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	defer p.Release()
	return p.Kill()
}

// IsProcessAlive reports whether a process handle can still be opened
// for pid.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	h, err := syscall.OpenProcess(processQueryLimitedInformation, false, uint32(pid))
	if err != nil {
		return false
	}
	_ = syscall.CloseHandle(h)
	return true
}
