package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hylauncher/hylauncher/internal/config"
	"github.com/hylauncher/hylauncher/internal/daemon"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the session emulator and control API until interrupted",
		Long: `Runs the loopback session emulator together with the control API used by
graphical shells, printing the launcher console to stdout.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	env, err := loadEnv(cmd)
	if err != nil {
		return fmt.Errorf("load environment: %w", err)
	}
	paths := env.Paths()

	if err := setupLogging(paths); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialise logging: %v\n", err)
	}

	if daemon.IsRunning(paths) {
		return fmt.Errorf("launcher service is already running (pid file %s)", paths.PIDFile)
	}

	store, paths, err := openStore(cmd)
	if err != nil {
		return fmt.Errorf("failed to open config store: %w", err)
	}
	defer store.Close()

	stdout := cmd.OutOrStdout()
	d, err := daemon.New(daemon.Options{
		Store:        store,
		Paths:        paths,
		ControlAddr:  env.ControlAddr,
		EmulatorAddr: env.EmulatorAddr,
		Console:      stdout,
		Color:        colorEnabled(stdout),
	})
	if err != nil {
		return fmt.Errorf("failed to create launcher service: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	notifyShutdownSignals(sigChan)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- d.Start()
	}()

	log.Printf("HyLauncher service started (PID: %d)", os.Getpid())

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %s, shutting down...", sig)
		if err := d.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
		if err := <-errChan; err != nil {
			return err
		}
	case err := <-errChan:
		if err != nil {
			log.Printf("Service error: %v", err)
			return err
		}
	}

	log.Println("HyLauncher service stopped")
	return nil
}

// setupLogging sends the process log to stderr and logs/daemon.log.
func setupLogging(paths config.Paths) error {
	if err := os.MkdirAll(paths.Logs, 0o755); err != nil {
		return fmt.Errorf("create logs directory: %w", err)
	}

	logPath := filepath.Join(paths.Logs, "daemon.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	log.Printf("=== HyLauncher Service Starting (PID: %d) ===", os.Getpid())
	log.Printf("Log file: %s", logPath)
	return nil
}
