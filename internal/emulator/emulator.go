// Package emulator answers the game client's identity/session backend calls
// on a local HTTP listener with fabricated JSON.
package emulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	configstore "github.com/hylauncher/hylauncher/internal/config/store"
	"github.com/hylauncher/hylauncher/internal/procutil"
)

// ServiceName is reported by the fallback route.
const ServiceName = "HyLauncher-Emulator"

// Ports chosen by DefaultPort.
const (
	PrivilegedPort   = 80
	UnprivilegedPort = 8080

	profileReadTimeout = 5 * time.Second
)

// ErrBindFailure marks a listener that could not acquire its port.
var ErrBindFailure = errors.New("emulator: bind failure")

// ProfileSource yields the active profile. It is queried on every request.
type ProfileSource interface {
	ActiveProfile(ctx context.Context) (configstore.Profile, error)
}

// Emitter receives visible log records.
type Emitter interface {
	Emit(text, tag string)
}

// State is the lifecycle position of the emulator.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateListening
	// StateFailed is internal: Start never reports it to callers.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateListening:
		return "listening"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status is a diagnostic snapshot of the emulator.
type Status struct {
	State State
	Addr  string // bound address once listening, configured address otherwise
	Err   error  // bind error when State is StateFailed
}

// Options configures a Server.
type Options struct {
	Profiles ProfileSource
	Sink     Emitter
	// Addr overrides the listen address. Empty selects DefaultAddr().
	Addr string
}

// Server is the session emulator.
type Server struct {
	profiles ProfileSource
	sink     Emitter
	addr     string

	state     atomic.Int32
	startOnce sync.Once
	ready     chan struct{}

	mu         sync.Mutex
	httpServer *http.Server
	boundAddr  string
	bindErr    error
	stopping   bool
}

// DefaultPort returns 80 when the process is elevated and 8080 otherwise.
func DefaultPort() int {
	if procutil.IsElevated() {
		return PrivilegedPort
	}
	return UnprivilegedPort
}

// DefaultAddr is the loopback address on DefaultPort.
func DefaultAddr() string {
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(DefaultPort()))
}

// New constructs a stopped emulator. The listen address is fixed here and
// cannot change afterwards.
func New(opts Options) *Server {
	addr := opts.Addr
	if addr == "" {
		addr = DefaultAddr()
	}
	return &Server{
		profiles: opts.Profiles,
		sink:     opts.Sink,
		addr:     addr,
		ready:    make(chan struct{}),
	}
}

// Start binds the listener and serves on a background goroutine. It never
// fails: a bind failure leaves the emulator inert, observable only through
// Status and the process log. Calling Start more than once has no effect.
func (s *Server) Start() {
	s.startOnce.Do(func() {
		s.state.Store(int32(StateStarting))
		go s.run()
	})
}

func (s *Server) run() {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.mu.Lock()
		s.bindErr = fmt.Errorf("%w: %v", ErrBindFailure, err)
		s.mu.Unlock()
		s.state.Store(int32(StateFailed))
		close(s.ready)
		log.Printf("[Emulator] listen on %s failed, emulator inactive: %v", s.addr, err)
		return
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          log.New(io.Discard, "", 0),
	}

	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		_ = ln.Close()
		s.state.Store(int32(StateStopped))
		close(s.ready)
		log.Printf("[Emulator] shut down before listening on %s", s.addr)
		return
	}
	s.httpServer = srv
	s.boundAddr = ln.Addr().String()
	s.state.Store(int32(StateListening))
	s.mu.Unlock()
	close(s.ready)

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("[Emulator] serve on %s stopped: %v", s.boundAddr, err)
	}
	s.state.Store(int32(StateStopped))
}

// Ready is closed once Start has either bound its listener or given up.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Status returns the current lifecycle snapshot.
func (s *Server) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{State: State(s.state.Load()), Addr: s.addr, Err: s.bindErr}
	if s.boundAddr != "" {
		st.Addr = s.boundAddr
	}
	return st
}

// Shutdown stops the listener. In-flight requests are not drained beyond
// what ctx allows. A Shutdown issued while the listener is still binding
// waits for the bind and closes it; the emulator never serves afterwards.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.stopping = true
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		if State(s.state.Load()) != StateStarting {
			return nil
		}
		select {
		case <-s.ready:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	}
	err := srv.Shutdown(ctx)
	s.state.Store(int32(StateStopped))
	return err
}
