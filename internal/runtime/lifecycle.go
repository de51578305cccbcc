// Package runtime holds process-level lifecycle helpers shared by the
// launcher service and the foreground CLI commands.
package runtime

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/hylauncher/hylauncher/internal/procutil"
)

// Lifecycle coordinates shutdown signalling across goroutines.
type Lifecycle struct {
	shutdownOnce sync.Once
	shutdownChan chan struct{}
}

// NewLifecycle creates a lifecycle controller with its own shutdown channel.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{shutdownChan: make(chan struct{})}
}

// Done returns a channel that is closed when the lifecycle is shutting down.
func (l *Lifecycle) Done() <-chan struct{} {
	return l.shutdownChan
}

// Shutdown signals all listeners. Safe to call more than once.
func (l *Lifecycle) Shutdown() {
	l.shutdownOnce.Do(func() { close(l.shutdownChan) })
}

// WritePIDFile writes pid into pidFile with owner-only permissions.
func WritePIDFile(pidFile string, pid int) error {
	if pidFile == "" {
		return fmt.Errorf("pid file path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(pidFile), 0o755); err != nil {
		return fmt.Errorf("failed to create pid directory: %w", err)
	}

	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(pid)), 0o600); err != nil {
		return fmt.Errorf("failed to write pid file: %w", err)
	}
	return nil
}

// ReadPIDFile returns the pid stored in pidFile.
func ReadPIDFile(pidFile string) (int, error) {
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("malformed pid file %s: %w", pidFile, err)
	}
	return pid, nil
}

// RemovePIDFile removes the pid file if it exists.
func RemovePIDFile(pidFile string) {
	if pidFile == "" {
		return
	}
	_ = os.Remove(pidFile)
}

// LivePID reports the pid recorded in pidFile when that process is still
// alive. Stale or malformed files are removed.
func LivePID(pidFile string) (int, bool) {
	pid, err := ReadPIDFile(pidFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			RemovePIDFile(pidFile)
		}
		return 0, false
	}
	if pid == os.Getpid() || !procutil.IsProcessAlive(pid) {
		if pid != os.Getpid() {
			RemovePIDFile(pidFile)
		}
		return 0, false
	}
	return pid, true
}
