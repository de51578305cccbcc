//go:build windows

package launcher

import (
	"io"
	"os/exec"
)

func startPTY(*exec.Cmd) (io.ReadCloser, error) {
	return nil, ErrPTYUnsupported
}
