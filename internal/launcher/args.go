package launcher

import (
	"os"
	"path/filepath"

	configstore "github.com/hylauncher/hylauncher/internal/config/store"
)

// Layout of a game installation below its root.
const (
	ClientBinary = "HytaleClient.exe"
	ServerBinary = "HytaleServer.jar"

	clientDir = "Client"
	serverDir = "Server"

	// DefaultServerPort is fixed; the dedicated server is always started on it.
	DefaultServerPort = "25565"

	// fallbackRuntime is resolved through PATH when no bundled runtime exists.
	fallbackRuntime = "java"
)

// runtimeRelPath is the bundled Java runtime below the install base.
var runtimeRelPath = filepath.Join("jre", "latest", "bin", "java.exe")

// ClientPath returns the client executable for a game root.
func ClientPath(root string) string {
	return filepath.Join(root, clientDir, ClientBinary)
}

// ServerPath returns the dedicated server archive for a game root.
func ServerPath(root string) string {
	return filepath.Join(root, serverDir, ServerBinary)
}

// RuntimeCandidate is where the bundled runtime lives for a game root: three
// directories above the root.
func RuntimeCandidate(root string) string {
	base := filepath.Clean(root)
	for i := 0; i < 3; i++ {
		base = filepath.Dir(base)
	}
	return filepath.Join(base, runtimeRelPath)
}

// ResolveRuntime returns the bundled runtime when it exists, or "".
func ResolveRuntime(root string) string {
	candidate := RuntimeCandidate(root)
	if fileExists(candidate) {
		return candidate
	}
	return ""
}

// ClientLaunch carries everything the client command line is built from.
type ClientLaunch struct {
	Executable string
	UserDir    string
	Username   string
	UUID       string
	Mode       string
	Token      string
	Server     string
	Runtime    string
}

// ClientArgs assembles the client argv. The order is significant to the
// client's argument parser.
func ClientArgs(l ClientLaunch) []string {
	args := []string{
		l.Executable,
		"--user-dir", l.UserDir,
		"--name", l.Username,
		"--uuid", l.UUID,
	}

	if l.Mode == configstore.LaunchModeOffline {
		args = append(args, "--auth-mode=offline")
	} else {
		args = append(args, "--identity-token", l.Token, "--session-token", l.Token)
	}

	if l.Server != "" {
		args = append(args, "--connect", l.Server)
	}
	if l.Runtime != "" {
		args = append(args, "--java-exec", l.Runtime)
	}
	return args
}

// ServerArgs assembles the dedicated server argv. An empty runtime falls
// back to "java" on PATH.
func ServerArgs(runtime, jar string) []string {
	if runtime == "" {
		runtime = fallbackRuntime
	}
	return []string{runtime, "-jar", jar, "--auth-mode", "unauthenticated", "--port", DefaultServerPort}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
