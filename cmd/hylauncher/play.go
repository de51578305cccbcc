package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/hylauncher/hylauncher/internal/config"
	configstore "github.com/hylauncher/hylauncher/internal/config/store"
	"github.com/hylauncher/hylauncher/internal/emulator"
	"github.com/hylauncher/hylauncher/internal/launcher"
	"github.com/hylauncher/hylauncher/internal/logsink"
)

const (
	emulatorReadyWait = 2 * time.Second
	childStopTimeout  = 5 * time.Second
)

func newPlayCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Launch the game client with the active profile",
		Long: `Starts the session emulator and launches the game client in the
foreground, relaying its console until the client exits.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			connect, _ := cmd.Flags().GetString("connect")
			return runClientForeground(cmd, connect)
		},
	}
	cmd.Flags().String("connect", "", "Join this server address directly")
	cmd.Flags().Bool("offline", false, "Launch in offline mode for this run only")
	cmd.Flags().Bool("pty", false, "Run the client on a pseudo terminal (Unix only)")
	return cmd
}

func newHostCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "host",
		Short:         "Run the dedicated server in the foreground",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runHost,
	}
	cmd.Flags().Bool("pty", false, "Run the server on a pseudo terminal (Unix only)")
	return cmd
}

// modeOverride forces a launch mode while delegating everything else to the
// store.
type modeOverride struct {
	launcher.ConfigSource
	mode string
}

func (m modeOverride) LaunchMode(context.Context) (string, error) {
	return m.mode, nil
}

// foreground runs one launch with a private console relay and, for clients,
// a private session emulator.
type foreground struct {
	sink     *logsink.Sink
	sub      *logsink.Subscription
	pumped   chan struct{}
	emulator *emulator.Server
	launcher *launcher.Launcher
}

func startForeground(cmd *cobra.Command, store *configstore.Store, paths config.Paths, withEmulator bool) (*foreground, error) {
	env, err := loadEnv(cmd)
	if err != nil {
		return nil, err
	}

	usePTY, _ := cmd.Flags().GetBool("pty")
	var source launcher.ConfigSource = store
	if offline, _ := cmd.Flags().GetBool("offline"); offline {
		source = modeOverride{ConfigSource: store, mode: configstore.LaunchModeOffline}
	}

	stdout := cmd.OutOrStdout()
	fg := &foreground{
		sink:   logsink.New(),
		pumped: make(chan struct{}),
	}
	fg.sub = fg.sink.Subscribe(logsink.WithName("stdout"))
	go func() {
		defer close(fg.pumped)
		logsink.Pump(fg.sub, stdout, colorEnabled(stdout))
	}()

	if withEmulator {
		fg.emulator = emulator.New(emulator.Options{Profiles: store, Sink: fg.sink, Addr: env.EmulatorAddr})
		fg.emulator.Start()
		select {
		case <-fg.emulator.Ready():
		case <-time.After(emulatorReadyWait):
		}
		st := fg.emulator.Status()
		log.Printf("[Emulator] %s on %s", st.State, st.Addr)
	}

	fg.launcher = launcher.New(launcher.Options{
		Config:  source,
		Sink:    fg.sink,
		UserDir: paths.UserData,
		PTY:     usePTY,
	})
	return fg, nil
}

// wait blocks until run finishes, forwarding interrupts to the child.
func (fg *foreground) wait(run *launcher.Run) error {
	sigChan := make(chan os.Signal, 1)
	notifyShutdownSignals(sigChan)
	defer signal.Stop(sigChan)

	select {
	case <-run.Done():
	case sig := <-sigChan:
		log.Printf("Received signal %s, stopping %s...", sig, run.Kind)
		fg.launcher.TerminateAll(childStopTimeout)
		<-run.Done()
	}
	return run.Err()
}

func (fg *foreground) close() {
	if fg.emulator != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = fg.emulator.Shutdown(ctx)
		cancel()
	}
	fg.sub.Close()
	<-fg.pumped
}

func runClientForeground(cmd *cobra.Command, connect string) error {
	out := newOutputFormatter(cmd)
	store, paths, err := openStore(cmd)
	if err != nil {
		return out.Error("Failed to open launcher configuration", err)
	}
	defer store.Close()

	fg, err := startForeground(cmd, store, paths, true)
	if err != nil {
		return out.Error("Failed to prepare launch", err)
	}

	runErr := fg.wait(fg.launcher.LaunchClient(connect))
	fg.close()
	if runErr != nil {
		return fmt.Errorf("client launch failed: %w", runErr)
	}
	return nil
}

func runHost(cmd *cobra.Command, _ []string) error {
	out := newOutputFormatter(cmd)
	store, paths, err := openStore(cmd)
	if err != nil {
		return out.Error("Failed to open launcher configuration", err)
	}
	defer store.Close()

	fg, err := startForeground(cmd, store, paths, false)
	if err != nil {
		return out.Error("Failed to prepare launch", err)
	}

	runErr := fg.wait(fg.launcher.LaunchServer())
	fg.close()
	if runErr != nil {
		return fmt.Errorf("server launch failed: %w", runErr)
	}
	return nil
}
