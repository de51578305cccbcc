package procutil

import (
	"errors"
	"os"
	"os/exec"
	"runtime"
	"testing"
	"time"
)

func TestIsProcessAlive_Self(t *testing.T) {
	if !IsProcessAlive(os.Getpid()) {
		t.Fatal("IsProcessAlive should return true for own process")
	}
}

func TestIsProcessAlive_InvalidPID(t *testing.T) {
	// Use a very large PID that is well beyond any realistic pid_max on any OS.
	if IsProcessAlive(1<<30 - 1) {
		t.Fatal("IsProcessAlive should return false for non-existent PID")
	}
}

// longRunningCmd returns a cross-platform exec.Cmd that blocks until killed.
func longRunningCmd() *exec.Cmd {
	if runtime.GOOS == "windows" {
		// "waitfor" blocks indefinitely (signal name will never arrive).
		return exec.Command("waitfor", "HyLauncherTestSignalNeverSent", "/T", "300")
	}
	return exec.Command("sleep", "300")
}

func TestGracefulTerminate(t *testing.T) {
	cmd := longRunningCmd()
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start subprocess: %v", err)
	}

	if err := GracefulTerminate(cmd.Process); err != nil {
		t.Fatalf("GracefulTerminate returned error: %v", err)
	}

	// Wait for the process to exit so we don't leave zombies.
	_ = cmd.Wait()

	// Give OS a moment to reap the process.
	time.Sleep(50 * time.Millisecond)

	if IsProcessAlive(cmd.Process.Pid) {
		t.Fatal("process should not be alive after GracefulTerminate")
	}
}

func TestTerminateByPID(t *testing.T) {
	cmd := longRunningCmd()
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start subprocess: %v", err)
	}
	pid := cmd.Process.Pid

	// Reap concurrently so the pid disappears once the process exits.
	waited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(waited)
	}()

	if err := TerminateByPID(pid); err != nil {
		t.Fatalf("TerminateByPID returned error: %v", err)
	}
	if !WaitForExit(pid, 5*time.Second) {
		t.Fatal("process should not be alive after TerminateByPID")
	}
	<-waited
}

func TestTerminateByPIDRefusesUnsafeTargets(t *testing.T) {
	for _, pid := range []int{0, -1, os.Getpid()} {
		if err := TerminateByPID(pid); !errors.Is(err, ErrInvalidPID) {
			t.Errorf("TerminateByPID(%d) = %v, want ErrInvalidPID", pid, err)
		}
	}
}

func TestWaitForExitTimesOutForLiveProcess(t *testing.T) {
	start := time.Now()
	if WaitForExit(os.Getpid(), 120*time.Millisecond) {
		t.Fatal("WaitForExit reported our own process as exited")
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Fatalf("WaitForExit returned after %v, before the timeout", elapsed)
	}
}

func TestIsElevatedMatchesEUID(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("euid is not meaningful on windows")
	}
	if got, want := IsElevated(), os.Geteuid() == 0; got != want {
		t.Fatalf("IsElevated() = %v, want %v", got, want)
	}
}
