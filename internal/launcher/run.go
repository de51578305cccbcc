package launcher

import (
	"os"
	"sync"
	"time"
)

// Run is the handle of one launch. It never surfaces the child's exit code;
// failures are reported through the sink and kept in Err for diagnostics.
type Run struct {
	Kind    string
	Started time.Time

	done chan struct{}

	mu   sync.Mutex
	proc *os.Process
	err  error
}

func newRun(kind string) *Run {
	return &Run{
		Kind:    kind,
		Started: time.Now(),
		done:    make(chan struct{}),
	}
}

// Done is closed once the child exited and its output was drained, or the
// launch was aborted before spawning.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Err returns the launch failure, if any. Only meaningful after Done.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// PID returns the child's process id, or 0 before spawn.
func (r *Run) PID() int {
	if proc := r.process(); proc != nil {
		return proc.Pid
	}
	return 0
}

func (r *Run) process() *os.Process {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.proc
}

func (r *Run) setProcess(p *os.Process) {
	r.mu.Lock()
	r.proc = p
	r.mu.Unlock()
}

func (r *Run) setErr(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}
