package launcher

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// MaxLineSize bounds a single line of child output.
const MaxLineSize = 1 << 20

type childProcess struct {
	cmd    *exec.Cmd
	output io.ReadCloser
}

func (l *Launcher) spawn(argv []string, dir string) (*childProcess, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = os.Environ()

	if l.usePTY {
		out, err := startPTY(cmd)
		if err != nil {
			return nil, err
		}
		return &childProcess{cmd: cmd, output: out}, nil
	}

	// stdout and stderr share one pipe so lines keep their relative order.
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	cmd.Stdout = w
	cmd.Stderr = w
	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return nil, err
	}
	// The child holds its own copy; EOF arrives once it exits.
	w.Close()
	return &childProcess{cmd: cmd, output: r}, nil
}

// relay forwards each trimmed, non-empty line of r to sink under tag. It
// returns after EOF. On a read error the rest of r is discarded so the
// child never blocks on a full pipe.
func relay(r io.Reader, tag string, sink Emitter) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	scanner.Split(scanConsoleLines)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		sink.Emit(line, tag)
	}

	if err := scanner.Err(); err != nil {
		_, _ = io.Copy(io.Discard, r)
		return fmt.Errorf("%w: %v", ErrStreamFailure, err)
	}
	return nil
}

// scanConsoleLines splits on "\n", "\r\n" and a lone "\r", so progress
// output that rewrites the current line arrives as separate lines.
func scanConsoleLines(data []byte, atEOF bool) (advance int, line []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		// A trailing '\r' may be the first half of "\r\n".
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
