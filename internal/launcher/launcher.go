// Package launcher starts the game client and the dedicated server and relays
// their console output into the log sink.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	configstore "github.com/hylauncher/hylauncher/internal/config/store"
	"github.com/hylauncher/hylauncher/internal/logsink"
	"github.com/hylauncher/hylauncher/internal/procutil"
	"github.com/hylauncher/hylauncher/internal/token"
)

// Launch kinds. Each doubles as the log tag for the child's output.
const (
	KindClient = logsink.TagClient
	KindServer = logsink.TagServer
)

const configReadTimeout = 5 * time.Second

var (
	// ErrMissingExecutable means the client or server binary is absent from
	// the game root. Nothing is spawned.
	ErrMissingExecutable = errors.New("launcher: missing executable")
	// ErrSpawnFailure means the child process could not be started.
	ErrSpawnFailure = errors.New("launcher: spawn failure")
	// ErrStreamFailure means reading the child's output failed.
	ErrStreamFailure = errors.New("launcher: stream failure")
	// ErrPTYUnsupported is returned by pty mode on platforms without ptys.
	ErrPTYUnsupported = errors.New("launcher: pty mode not supported on this platform")
)

// ConfigSource is the configuration the launcher reads on every launch.
type ConfigSource interface {
	ActiveProfile(ctx context.Context) (configstore.Profile, error)
	GameRoot(ctx context.Context) (string, error)
	LaunchMode(ctx context.Context) (string, error)
}

// Emitter receives visible log records.
type Emitter interface {
	Emit(text, tag string)
}

// Options configures a Launcher.
type Options struct {
	Config ConfigSource
	Sink   Emitter
	// UserDir is passed to the client as --user-dir and created on demand.
	UserDir string
	// PTY runs children on a pseudo terminal instead of a pipe.
	PTY bool
}

// Launcher spawns and supervises game processes. Launches are independent:
// nothing prevents several clients or servers from running at once.
type Launcher struct {
	cfg     ConfigSource
	sink    Emitter
	userDir string
	usePTY  bool

	mu   sync.Mutex
	runs map[*Run]struct{}
}

type discardEmitter struct{}

func (discardEmitter) Emit(string, string) {}

// New constructs a Launcher.
func New(opts Options) *Launcher {
	sink := opts.Sink
	if sink == nil {
		sink = discardEmitter{}
	}
	return &Launcher{
		cfg:     opts.Config,
		sink:    sink,
		userDir: opts.UserDir,
		usePTY:  opts.PTY,
		runs:    make(map[*Run]struct{}),
	}
}

// LaunchClient starts the game client on a background goroutine. A non-empty
// serverAddress makes the client connect to it directly.
func (l *Launcher) LaunchClient(serverAddress string) *Run {
	run := l.track(KindClient)
	go func() {
		defer l.finish(run)
		run.setErr(l.launchClient(run, serverAddress))
	}()
	return run
}

// LaunchServer starts the dedicated server on a background goroutine.
func (l *Launcher) LaunchServer() *Run {
	run := l.track(KindServer)
	go func() {
		defer l.finish(run)
		run.setErr(l.launchServer(run))
	}()
	return run
}

func (l *Launcher) launchClient(run *Run, serverAddress string) error {
	ctx, cancel := context.WithTimeout(context.Background(), configReadTimeout)
	defer cancel()

	root, err := l.gameRoot(ctx)
	if err != nil {
		return l.report(err)
	}

	exe := ClientPath(root)
	if !fileExists(exe) {
		l.sink.Emit(fmt.Sprintf("Error: %s not found at %s. Check Settings.", ClientBinary, exe), logsink.TagError)
		return fmt.Errorf("%w: %s", ErrMissingExecutable, exe)
	}

	profile, err := l.cfg.ActiveProfile(ctx)
	if err != nil {
		return l.report(err)
	}
	mode, err := l.cfg.LaunchMode(ctx)
	if err != nil {
		return l.report(err)
	}
	if !configstore.ValidLaunchMode(mode) {
		mode = configstore.LaunchModeSimulated
	}

	if l.userDir != "" {
		if err := os.MkdirAll(l.userDir, 0o755); err != nil {
			return l.report(fmt.Errorf("create user dir: %w", err))
		}
	}

	launch := ClientLaunch{
		Executable: exe,
		UserDir:    l.userDir,
		Username:   profile.Username,
		UUID:       profile.UUID,
		Mode:       mode,
		Server:     serverAddress,
		Runtime:    ResolveRuntime(root),
	}
	if mode == configstore.LaunchModeSimulated {
		launch.Token = token.Mint(profile)
	}
	argv := ClientArgs(launch)

	if serverAddress != "" {
		l.sink.Emit(fmt.Sprintf("Connecting to %s...", serverAddress), logsink.TagClient)
	}

	log.Printf("[Launcher] starting client for %s (%s mode)", profile.Username, mode)
	return l.supervise(run, argv)
}

func (l *Launcher) launchServer(run *Run) error {
	ctx, cancel := context.WithTimeout(context.Background(), configReadTimeout)
	defer cancel()

	root, err := l.gameRoot(ctx)
	if err != nil {
		return l.report(err)
	}

	jar := ServerPath(root)
	if !fileExists(jar) {
		l.sink.Emit(fmt.Sprintf("Error: %s not found at %s. Check Settings.", ServerBinary, jar), logsink.TagError)
		return fmt.Errorf("%w: %s", ErrMissingExecutable, jar)
	}

	argv := ServerArgs(ResolveRuntime(root), jar)
	log.Printf("[Launcher] starting dedicated server with %s", argv[0])
	return l.supervise(run, argv)
}

func (l *Launcher) gameRoot(ctx context.Context) (string, error) {
	if l.cfg == nil {
		return "", errors.New("launcher: no configuration source")
	}
	return l.cfg.GameRoot(ctx)
}

// supervise spawns argv in the executable's directory and relays its output
// until EOF.
func (l *Launcher) supervise(run *Run, argv []string) error {
	dir := filepath.Dir(argv[0])
	if run.Kind == KindServer {
		dir = filepath.Dir(argv[2])
	}

	proc, err := l.spawn(argv, dir)
	if err != nil {
		return l.report(fmt.Errorf("%w: %v", ErrSpawnFailure, err))
	}
	run.setProcess(proc.cmd.Process)

	streamErr := relay(proc.output, run.Kind, l.sink)
	_ = proc.output.Close()
	waitErr := proc.cmd.Wait()

	if streamErr != nil {
		return l.report(streamErr)
	}
	if waitErr != nil {
		log.Printf("[Launcher] %s (pid %d) exited: %v", run.Kind, run.PID(), waitErr)
	} else {
		log.Printf("[Launcher] %s (pid %d) exited cleanly", run.Kind, run.PID())
	}
	return nil
}

// report emits err once as a visible error record and returns it.
func (l *Launcher) report(err error) error {
	l.sink.Emit(fmt.Sprintf("Error: %v", err), logsink.TagError)
	return err
}

// CheckInstall warns through the sink when the client binary is missing from
// the configured game root. It reports whether the client was found.
func (l *Launcher) CheckInstall(ctx context.Context) bool {
	root, err := l.gameRoot(ctx)
	if err == nil && fileExists(ClientPath(root)) {
		return true
	}
	l.sink.Emit(fmt.Sprintf("Warning: %s not found at current path. Update in Settings.", ClientBinary), logsink.TagWarn)
	return false
}

func (l *Launcher) track(kind string) *Run {
	run := newRun(kind)
	l.mu.Lock()
	l.runs[run] = struct{}{}
	l.mu.Unlock()
	return run
}

func (l *Launcher) finish(run *Run) {
	l.mu.Lock()
	delete(l.runs, run)
	l.mu.Unlock()
	close(run.done)
}

// Active returns the runs that have not finished yet.
func (l *Launcher) Active() []*Run {
	l.mu.Lock()
	defer l.mu.Unlock()

	runs := make([]*Run, 0, len(l.runs))
	for run := range l.runs {
		runs = append(runs, run)
	}
	return runs
}

// TerminateAll asks every live child to exit and kills those still running
// after timeout.
func (l *Launcher) TerminateAll(timeout time.Duration) {
	runs := l.Active()
	for _, run := range runs {
		if proc := run.process(); proc != nil {
			if err := procutil.GracefulTerminate(proc); err != nil && !errors.Is(err, os.ErrProcessDone) {
				log.Printf("[Launcher] terminate %s (pid %d): %v", run.Kind, proc.Pid, err)
			}
		}
	}

	deadline := time.After(timeout)
	for _, run := range runs {
		select {
		case <-run.Done():
		case <-deadline:
			for _, r := range runs {
				if proc := r.process(); proc != nil {
					_ = proc.Kill()
				}
			}
			return
		}
	}
}
