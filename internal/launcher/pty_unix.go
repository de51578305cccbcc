//go:build !windows

package launcher

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"

	ptyDevice "github.com/creack/pty"
)

const (
	ptyRows = 50
	ptyCols = 200
)

// startPTY starts cmd attached to a fresh pseudo terminal and returns the
// master side for reading.
func startPTY(cmd *exec.Cmd) (io.ReadCloser, error) {
	termSet, langSet := false, false
	for _, env := range cmd.Env {
		if strings.HasPrefix(env, "TERM=") {
			termSet = true
		}
		if strings.HasPrefix(env, "LANG=") || strings.HasPrefix(env, "LC_ALL=") {
			langSet = true
		}
	}
	if !termSet {
		cmd.Env = append(cmd.Env, "TERM=xterm-256color")
	}
	if !langSet {
		cmd.Env = append(cmd.Env, "LANG=C.UTF-8")
	}

	master, err := ptyDevice.StartWithSize(cmd, &ptyDevice.Winsize{Rows: ptyRows, Cols: ptyCols})
	if err != nil {
		return nil, err
	}
	return ptyReader{master}, nil
}

// ptyReader reports the EIO Linux returns once the slave side is gone as EOF.
type ptyReader struct {
	*os.File
}

func (r ptyReader) Read(p []byte) (int, error) {
	n, err := r.File.Read(p)
	if err != nil && errors.Is(err, syscall.EIO) {
		err = io.EOF
	}
	return n, err
}
