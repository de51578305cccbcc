package config

import (
	"os"
	"path/filepath"
)

const (
	// DefaultControlAddr is the loopback address of the control API.
	DefaultControlAddr = "127.0.0.1:47310"

	legacyDataFile = "launcher_data.json"
)

// Paths contains all paths used by a launcher installation.
type Paths struct {
	Home       string // Launcher home directory
	ConfigDB   string // SQLite configuration store path
	UserData   string // Directory handed to the game client as --user-dir
	Logs       string // Logs directory
	LegacyData string // launcher_data.json written by older launcher builds
	PIDFile    string // Written while `hylauncher serve` runs
}

// GetPaths returns the directory layout rooted at home.
// Empty home defaults to GetLauncherHome().
func GetPaths(home string) Paths {
	if home == "" {
		home = GetLauncherHome()
	}
	home = ExpandPath(home)

	return Paths{
		Home:       home,
		ConfigDB:   filepath.Join(home, "config.db"),
		UserData:   filepath.Join(home, "UserData"),
		Logs:       filepath.Join(home, "logs"),
		LegacyData: filepath.Join(home, "UserData", legacyDataFile),
		PIDFile:    filepath.Join(home, "hylauncher.pid"),
	}
}

// GetLauncherHome returns the default launcher home (~/Documents/HyLauncher).
func GetLauncherHome() string {
	userHome, _ := os.UserHomeDir()
	return filepath.Join(userHome, "Documents", "HyLauncher")
}

// ExpandPath expands ~ to the user home directory.
func ExpandPath(path string) string {
	if len(path) == 0 {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) == 1 {
			return home
		}
		if path[1] == '/' || path[1] == os.PathSeparator {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// EnsureDirs creates the directory structure for the given home if it does not exist.
func EnsureDirs(home string) (Paths, error) {
	paths := GetPaths(home)

	dirs := []string{
		paths.Home,
		paths.UserData,
		paths.Logs,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return paths, err
		}
	}

	return paths, nil
}
