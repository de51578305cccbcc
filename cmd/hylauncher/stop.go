package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hylauncher/hylauncher/internal/procutil"
	daemonruntime "github.com/hylauncher/hylauncher/internal/runtime"
)

const serviceStopTimeout = 10 * time.Second

func newStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop a running launcher service",
		Long: `Signals the launcher service recorded in the pid file of the launcher
home and waits for it to exit. The service stops its emulator and any game
processes it launched.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runStop,
	}
}

func runStop(cmd *cobra.Command, _ []string) error {
	out := newOutputFormatter(cmd)
	env, err := loadEnv(cmd)
	if err != nil {
		return out.Error("Failed to read environment", err)
	}
	paths := env.Paths()

	pid, ok := daemonruntime.LivePID(paths.PIDFile)
	if !ok {
		return out.Error("Launcher service is not running", nil)
	}

	if err := procutil.TerminateByPID(pid); err != nil {
		return out.Error("Failed to signal launcher service", err)
	}
	if !procutil.WaitForExit(pid, serviceStopTimeout) {
		return out.Error(fmt.Sprintf("Launcher service (PID %d) did not exit within %s", pid, serviceStopTimeout), nil)
	}

	return out.Success(fmt.Sprintf("Launcher service stopped (PID %d)", pid), map[string]any{
		"pid": pid,
	})
}
