// Package daemon runs the long-lived launcher service: the session emulator,
// the control API and the console relay, sharing one log sink and one
// configuration store.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hylauncher/hylauncher/internal/config"
	configstore "github.com/hylauncher/hylauncher/internal/config/store"
	"github.com/hylauncher/hylauncher/internal/control"
	"github.com/hylauncher/hylauncher/internal/emulator"
	"github.com/hylauncher/hylauncher/internal/launcher"
	"github.com/hylauncher/hylauncher/internal/logsink"
	daemonruntime "github.com/hylauncher/hylauncher/internal/runtime"
)

const (
	serviceOpTimeout  = 5 * time.Second
	childStopTimeout  = 5 * time.Second
	emulatorReadyWait = 2 * time.Second
)

// Options configures a Daemon.
type Options struct {
	Store *configstore.Store
	Paths config.Paths
	// ControlAddr is the control API listen address. Empty uses
	// config.DefaultControlAddr.
	ControlAddr string
	// EmulatorAddr overrides the emulator's privilege-based default.
	EmulatorAddr string
	// Console receives formatted log records. Nil disables the relay.
	Console io.Writer
	Color   bool
}

// Daemon owns the launcher services.
type Daemon struct {
	store       *configstore.Store
	paths       config.Paths
	controlAddr string
	console     io.Writer
	color       bool

	sink     *logsink.Sink
	emulator *emulator.Server
	launcher *launcher.Launcher
	control  *control.Server

	lifecycle *daemonruntime.Lifecycle
	ready     chan struct{}

	mu           sync.Mutex
	boundControl string
}

// New wires the services together without starting them.
func New(opts Options) (*Daemon, error) {
	if opts.Store == nil {
		return nil, errors.New("daemon: store is required")
	}
	controlAddr := opts.ControlAddr
	if controlAddr == "" {
		controlAddr = config.DefaultControlAddr
	}

	sink := logsink.New()
	emu := emulator.New(emulator.Options{
		Profiles: opts.Store,
		Sink:     sink,
		Addr:     opts.EmulatorAddr,
	})
	launch := launcher.New(launcher.Options{
		Config:  opts.Store,
		Sink:    sink,
		UserDir: opts.Paths.UserData,
	})

	return &Daemon{
		store:       opts.Store,
		paths:       opts.Paths,
		controlAddr: controlAddr,
		console:     opts.Console,
		color:       opts.Color,
		sink:        sink,
		emulator:    emu,
		launcher:    launch,
		control: control.New(control.Options{
			Store:    opts.Store,
			Launcher: launch,
			Emulator: emu,
			Sink:     sink,
		}),
		lifecycle: daemonruntime.NewLifecycle(),
		ready:     make(chan struct{}),
	}, nil
}

// Start runs the services and blocks until Shutdown is called or the control
// API fails. The store is not closed; it belongs to the caller.
func (d *Daemon) Start() error {
	if d.paths.PIDFile != "" {
		if err := daemonruntime.WritePIDFile(d.paths.PIDFile, os.Getpid()); err != nil {
			return fmt.Errorf("daemon: write pid file: %w", err)
		}
		defer daemonruntime.RemovePIDFile(d.paths.PIDFile)
	}

	ln, err := net.Listen("tcp", d.controlAddr)
	if err != nil {
		return fmt.Errorf("daemon: listen on %s: %w", d.controlAddr, err)
	}
	d.mu.Lock()
	d.boundControl = ln.Addr().String()
	d.mu.Unlock()

	var consoleSub *logsink.Subscription
	if d.console != nil {
		consoleSub = d.sink.Subscribe(logsink.WithName("stdout"))
	}

	d.emulator.Start()
	select {
	case <-d.emulator.Ready():
	case <-time.After(emulatorReadyWait):
	}

	g, ctx := errgroup.WithContext(context.Background())

	if consoleSub != nil {
		g.Go(func() error {
			logsink.Pump(consoleSub, d.console, d.color)
			return nil
		})
	}

	g.Go(func() error {
		if err := d.control.Serve(ln); err != nil {
			return fmt.Errorf("daemon: control api: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-d.lifecycle.Done():
		case <-ctx.Done():
		}
		d.stopServices(consoleSub)
		return nil
	})

	d.announce()
	close(d.ready)

	return g.Wait()
}

func (d *Daemon) announce() {
	where := d.paths.Home
	if where == "" {
		where = "Documents"
	}
	d.sink.Emit(fmt.Sprintf("System: HyLauncher initialized. Data stored in %s.", where), logsink.TagInfo)

	st := d.emulator.Status()
	log.Printf("[Daemon] emulator %s on %s", st.State, st.Addr)
	log.Printf("[Daemon] control api on %s", d.ControlAddr())

	ctx, cancel := context.WithTimeout(context.Background(), serviceOpTimeout)
	defer cancel()
	d.launcher.CheckInstall(ctx)
}

func (d *Daemon) stopServices(consoleSub *logsink.Subscription) {
	ctx, cancel := context.WithTimeout(context.Background(), serviceOpTimeout)
	defer cancel()

	if err := d.control.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[Daemon] control api shutdown error: %v", err)
	}
	if err := d.emulator.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[Daemon] emulator shutdown error: %v", err)
	}
	d.launcher.TerminateAll(childStopTimeout)

	if consoleSub != nil {
		consoleSub.Close()
	}
}

// Shutdown signals Start to stop the services and return.
func (d *Daemon) Shutdown() error {
	d.lifecycle.Shutdown()
	return nil
}

// Ready is closed once every service has been started.
func (d *Daemon) Ready() <-chan struct{} {
	return d.ready
}

// ControlAddr returns the bound control API address once started, and the
// configured address before.
func (d *Daemon) ControlAddr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.boundControl != "" {
		return d.boundControl
	}
	return d.controlAddr
}

// Sink returns the shared log sink.
func (d *Daemon) Sink() *logsink.Sink { return d.sink }

// Emulator returns the session emulator.
func (d *Daemon) Emulator() *emulator.Server { return d.emulator }

// Launcher returns the process launcher.
func (d *Daemon) Launcher() *launcher.Launcher { return d.launcher }

// IsRunning reports whether another launcher service owns the pid file.
func IsRunning(paths config.Paths) bool {
	_, ok := daemonruntime.LivePID(paths.PIDFile)
	return ok
}
