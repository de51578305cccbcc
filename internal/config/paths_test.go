package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetLauncherHome(t *testing.T) {
	home := GetLauncherHome()

	userHome, _ := os.UserHomeDir()
	expected := filepath.Join(userHome, "Documents", "HyLauncher")

	if home != expected {
		t.Errorf("GetLauncherHome() = %s; want %s", home, expected)
	}
}

func TestGetPaths(t *testing.T) {
	paths := GetPaths("")

	if !strings.HasSuffix(paths.ConfigDB, filepath.Join("HyLauncher", "config.db")) {
		t.Errorf("ConfigDB path incorrect: %s", paths.ConfigDB)
	}
	if !strings.HasSuffix(paths.UserData, filepath.Join("HyLauncher", "UserData")) {
		t.Errorf("UserData path incorrect: %s", paths.UserData)
	}
	if !strings.HasSuffix(paths.LegacyData, filepath.Join("UserData", "launcher_data.json")) {
		t.Errorf("LegacyData path incorrect: %s", paths.LegacyData)
	}
}

func TestGetPathsCustomHome(t *testing.T) {
	root := t.TempDir()
	paths := GetPaths(root)

	if paths.Home != root {
		t.Errorf("Home = %s; want %s", paths.Home, root)
	}
	if paths.Logs != filepath.Join(root, "logs") {
		t.Errorf("Logs = %s", paths.Logs)
	}
	if paths.PIDFile != filepath.Join(root, "hylauncher.pid") {
		t.Errorf("PIDFile = %s", paths.PIDFile)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input    string
		expected string
	}{
		{"~", home},
		{"~/test", filepath.Join(home, "test")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"", ""},
	}

	for _, tt := range tests {
		result := ExpandPath(tt.input)
		if result != tt.expected {
			t.Errorf("ExpandPath(%s) = %s; want %s", tt.input, result, tt.expected)
		}
	}
}

func TestEnsureDirs(t *testing.T) {
	root := filepath.Join(t.TempDir(), "launcher")

	paths, err := EnsureDirs(root)
	if err != nil {
		t.Fatalf("EnsureDirs failed: %v", err)
	}

	for _, dir := range []string{paths.Home, paths.UserData, paths.Logs} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected %s to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %s to be a directory", dir)
		}
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("HYLAUNCHER_HOME", " /tmp/hy ")
	t.Setenv("HYLAUNCHER_CONTROL_ADDR", "")
	t.Setenv("HYLAUNCHER_EMULATOR_ADDR", "127.0.0.1:0")

	cfg, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if cfg.Home != "/tmp/hy" {
		t.Errorf("Home = %q", cfg.Home)
	}
	if cfg.ControlAddr != DefaultControlAddr {
		t.Errorf("ControlAddr = %q; want %q", cfg.ControlAddr, DefaultControlAddr)
	}
	if cfg.EmulatorAddr != "127.0.0.1:0" {
		t.Errorf("EmulatorAddr = %q", cfg.EmulatorAddr)
	}
	if cfg.Paths().Home != "/tmp/hy" {
		t.Errorf("Paths().Home = %q", cfg.Paths().Home)
	}
}
