//go:build windows

package main

import (
	"os"
	"os/signal"
	"syscall"
)

// notifyShutdownSignals registers the signals that stop the launcher.
// Windows has no SIGHUP.
func notifyShutdownSignals(ch chan<- os.Signal) {
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
}
