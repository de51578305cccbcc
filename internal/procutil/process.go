package procutil

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrInvalidPID is returned by TerminateByPID for pids that must never be
// signalled.
var ErrInvalidPID = errors.New("procutil: invalid pid")

const exitPollInterval = 50 * time.Millisecond

func checkTarget(pid int) error {
	if pid <= 0 || pid == os.Getpid() {
		return fmt.Errorf("%w: %d", ErrInvalidPID, pid)
	}
	return nil
}

// WaitForExit polls until pid is gone or timeout elapses. It reports
// whether the process exited.
func WaitForExit(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if !IsProcessAlive(pid) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(exitPollInterval)
	}
}
