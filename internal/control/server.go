// Package control exposes a loopback JSON API through which a local shell
// drives the launcher: switching profiles, starting launches and following
// the console.
package control

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	configstore "github.com/hylauncher/hylauncher/internal/config/store"
	"github.com/hylauncher/hylauncher/internal/emulator"
	"github.com/hylauncher/hylauncher/internal/launcher"
	"github.com/hylauncher/hylauncher/internal/logsink"
)

// ConfigStore is the subset of the configuration store the API needs.
type ConfigStore interface {
	ActiveProfile(ctx context.Context) (configstore.Profile, error)
	Profiles(ctx context.Context) ([]configstore.Profile, error)
	ActivateProfile(ctx context.Context, id string) error
	Servers(ctx context.Context) ([]configstore.ServerEntry, error)
}

// Launcher starts game processes in the background.
type Launcher interface {
	LaunchClient(serverAddress string) *launcher.Run
	LaunchServer() *launcher.Run
}

// EmulatorStatus reports the session emulator's lifecycle.
type EmulatorStatus interface {
	Status() emulator.Status
}

// Options wires the API to the rest of the launcher.
type Options struct {
	Store    ConfigStore
	Launcher Launcher
	Emulator EmulatorStatus
	Sink     *logsink.Sink
}

// Server is the control API.
type Server struct {
	store    ConfigStore
	launcher Launcher
	emulator EmulatorStatus
	sink     *logsink.Sink
	console  *consoleHub

	mu         sync.Mutex
	httpServer *http.Server
}

// New constructs the API. Serve must be called to accept connections.
func New(opts Options) *Server {
	return &Server{
		store:    opts.Store,
		launcher: opts.Launcher,
		emulator: opts.Emulator,
		sink:     opts.Sink,
		console:  newConsoleHub(opts.Sink),
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/profiles", s.handleProfiles)
	mux.HandleFunc("/profiles/active", s.handleActivateProfile)
	mux.HandleFunc("/launch/client", s.handleLaunchClient)
	mux.HandleFunc("/launch/server", s.handleLaunchServer)
	mux.HandleFunc("/servers", s.handleServers)
	mux.HandleFunc("/console", s.console.handle)
	return mux
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	log.Printf("[Control] listening on %s", ln.Addr())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and closes console streams.
func (s *Server) Shutdown(ctx context.Context) error {
	s.console.closeAll()

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
