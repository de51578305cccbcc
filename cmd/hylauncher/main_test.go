package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	configstore "github.com/hylauncher/hylauncher/internal/config/store"
	"github.com/hylauncher/hylauncher/internal/control"
	daemonruntime "github.com/hylauncher/hylauncher/internal/runtime"
	"github.com/hylauncher/hylauncher/internal/token"
	hlversion "github.com/hylauncher/hylauncher/internal/version"
)

type cliResult struct {
	stdout string
	stderr string
	err    error
}

// runCLI executes the root command against an isolated launcher home.
func runCLI(t *testing.T, home string, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--home=" + home}, args...))
	err := root.Execute()
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func mustRun(t *testing.T, home string, args ...string) string {
	t.Helper()
	res := runCLI(t, home, args...)
	if res.err != nil {
		t.Fatalf("%v failed: %v\nstderr:\n%s", args, res.err, res.stderr)
	}
	return res.stdout
}

func decodeJSON(t *testing.T, raw string, dst any) {
	t.Helper()
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), dst); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, raw)
	}
}

type profileListing struct {
	Profiles []configstore.Profile `json:"profiles"`
	Active   string                `json:"active"`
}

func TestProfileCommands(t *testing.T) {
	home := t.TempDir()

	var created struct {
		Success bool                `json:"success"`
		Profile configstore.Profile `json:"profile"`
	}
	decodeJSON(t, mustRun(t, home, "profile", "create", "--name", "Alt", "--username", "Kaworu", "--uuid", "u-1", "--activate", "--json"), &created)
	if !created.Success || created.Profile.ID == "" {
		t.Fatalf("unexpected create output: %+v", created)
	}

	var listing profileListing
	decodeJSON(t, mustRun(t, home, "profile", "list", "--json"), &listing)
	if len(listing.Profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(listing.Profiles))
	}
	if listing.Active != created.Profile.ID {
		t.Fatalf("active = %q, want %q", listing.Active, created.Profile.ID)
	}

	out := mustRun(t, home, "profile", "use", configstore.DefaultProfileName)
	if !strings.Contains(out, "Active profile: Default (ReiAyanami)") {
		t.Fatalf("unexpected use output: %q", out)
	}

	out = mustRun(t, home, "profile", "edit", "--username", "Shinji")
	if strings.TrimSpace(out) != "Changes applied and profile updated." {
		t.Fatalf("unexpected edit output: %q", out)
	}

	listing = profileListing{}
	decodeJSON(t, mustRun(t, home, "profile", "list", "--json"), &listing)
	if listing.Active != configstore.DefaultProfileID || listing.Profiles[0].Username != "Shinji" {
		t.Fatalf("edit not applied to active profile: %+v", listing)
	}

	mustRun(t, home, "profile", "delete", created.Profile.ID)
	res := runCLI(t, home, "profile", "delete", configstore.DefaultProfileID)
	if res.err == nil {
		t.Fatal("expected deleting the last profile to fail")
	}
	if !strings.Contains(res.stderr, "Cannot delete the last profile") {
		t.Fatalf("unexpected stderr: %q", res.stderr)
	}
}

func TestProfileCreateActivatesByDefault(t *testing.T) {
	home := t.TempDir()

	var created struct {
		Profile configstore.Profile `json:"profile"`
	}
	decodeJSON(t, mustRun(t, home, "profile", "create", "--json"), &created)

	var listing profileListing
	decodeJSON(t, mustRun(t, home, "profile", "list", "--json"), &listing)
	if listing.Active != created.Profile.ID {
		t.Fatalf("active = %q, want new profile %q", listing.Active, created.Profile.ID)
	}
	if created.Profile.Name != "New Profile 1" || created.Profile.Username != "NewPlayer" {
		t.Fatalf("unexpected defaults: %+v", created.Profile)
	}

	mustRun(t, home, "profile", "create", "--activate=false")
	listing = profileListing{}
	decodeJSON(t, mustRun(t, home, "profile", "list", "--json"), &listing)
	if len(listing.Profiles) != 3 || listing.Active != created.Profile.ID {
		t.Fatalf("--activate=false changed the active profile: %+v", listing)
	}
}

func TestProfileEditRequiresChange(t *testing.T) {
	res := runCLI(t, t.TempDir(), "profile", "edit")
	if res.err == nil {
		t.Fatal("expected edit without flags to fail")
	}
}

func TestProfileRegenUUID(t *testing.T) {
	home := t.TempDir()
	mustRun(t, home, "profile", "regen-uuid")

	var listing profileListing
	decodeJSON(t, mustRun(t, home, "profile", "list", "--json"), &listing)
	if got := listing.Profiles[0].UUID; got == configstore.DefaultUUID || got == "" {
		t.Fatalf("uuid was not regenerated: %q", got)
	}
}

func TestSettingsSetRootValidatesClientBinary(t *testing.T) {
	home := t.TempDir()
	root := t.TempDir()

	res := runCLI(t, home, "settings", "set-root", root)
	if res.err == nil {
		t.Fatal("expected set-root to reject a directory without the client")
	}
	want := "Error: Invalid game directory. HytaleClient.exe not found in 'Client' subfolder."
	if strings.TrimSpace(res.stderr) != want {
		t.Fatalf("stderr = %q, want %q", res.stderr, want)
	}

	if err := os.MkdirAll(filepath.Join(root, "Client"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "Client", "HytaleClient.exe"), nil, 0o755); err != nil {
		t.Fatal(err)
	}

	out := mustRun(t, home, "settings", "set-root", root)
	if strings.TrimSpace(out) != "Settings saved. Game path updated." {
		t.Fatalf("unexpected set-root output: %q", out)
	}

	var shown map[string]any
	decodeJSON(t, mustRun(t, home, "settings", "show", "--json"), &shown)
	if shown["game_root"] != root {
		t.Fatalf("game_root = %v, want %q", shown["game_root"], root)
	}

	out = mustRun(t, home, "settings", "check")
	if !strings.Contains(out, "Client found at ") {
		t.Fatalf("unexpected check output: %q", out)
	}
}

func TestSettingsSetRootForce(t *testing.T) {
	home := t.TempDir()
	root := filepath.Join(t.TempDir(), "missing")
	mustRun(t, home, "settings", "set-root", "--force", root)

	out := mustRun(t, home, "settings", "check")
	want := "[WARN] Warning: HytaleClient.exe not found at current path. Update in Settings."
	if strings.TrimSpace(out) != want {
		t.Fatalf("check output = %q, want %q", out, want)
	}
}

func TestSettingsSetMode(t *testing.T) {
	home := t.TempDir()

	if res := runCLI(t, home, "settings", "set-mode", "online"); res.err == nil {
		t.Fatal("expected unknown mode to be rejected")
	}
	mustRun(t, home, "settings", "set-mode", "OFFLINE")

	var shown map[string]any
	decodeJSON(t, mustRun(t, home, "settings", "show", "--json"), &shown)
	if shown["launch_mode"] != configstore.LaunchModeOffline {
		t.Fatalf("launch_mode = %v", shown["launch_mode"])
	}
}

func TestServersCommands(t *testing.T) {
	home := t.TempDir()

	out := mustRun(t, home, "servers", "list")
	if strings.TrimSpace(out) != "No saved servers" {
		t.Fatalf("unexpected empty listing: %q", out)
	}

	mustRun(t, home, "servers", "add", "Home", "192.168.1.10:25565")
	mustRun(t, home, "servers", "add", "Friend", "play.example.net:25565")

	var listing struct {
		Servers []configstore.ServerEntry `json:"servers"`
	}
	decodeJSON(t, mustRun(t, home, "servers", "list", "--json"), &listing)
	want := []configstore.ServerEntry{
		{Name: "Home", Address: "192.168.1.10:25565"},
		{Name: "Friend", Address: "play.example.net:25565"},
	}
	if diff := cmp.Diff(want, listing.Servers); diff != "" {
		t.Fatalf("servers mismatch (-want +got):\n%s", diff)
	}

	mustRun(t, home, "servers", "remove", "0")
	if res := runCLI(t, home, "servers", "remove", "5"); res.err == nil {
		t.Fatal("expected removing an unknown index to fail")
	}
	if res := runCLI(t, home, "servers", "join", "3"); res.err == nil {
		t.Fatal("expected joining an unknown index to fail")
	}

	listing.Servers = nil
	decodeJSON(t, mustRun(t, home, "servers", "list", "--json"), &listing)
	if diff := cmp.Diff(want[1:], listing.Servers); diff != "" {
		t.Fatalf("servers after remove mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenCommand(t *testing.T) {
	home := t.TempDir()
	seeded := configstore.Profile{Username: configstore.DefaultUsername, UUID: configstore.DefaultUUID}

	out := mustRun(t, home, "token")
	if strings.TrimSpace(out) != token.Mint(seeded) {
		t.Fatalf("token = %q, want %q", strings.TrimSpace(out), token.Mint(seeded))
	}

	var claims token.Claims
	decodeJSON(t, mustRun(t, home, "token", "--decode", "--json"), &claims)
	if diff := cmp.Diff(token.ClaimsFor(seeded), claims); diff != "" {
		t.Fatalf("claims mismatch (-want +got):\n%s", diff)
	}

	out = mustRun(t, home, "token", "inspect", token.Mint(seeded))
	if !strings.Contains(out, "scope: client:session") {
		t.Fatalf("unexpected inspect output: %q", out)
	}
	if res := runCLI(t, home, "token", "inspect", "not-a-token"); res.err == nil {
		t.Fatal("expected a malformed token to be rejected")
	}
}

const legacyDocument = `{
    // exported by an older launcher
    "active_profile_id": "b-second",
    "game_root": "D:\\Games\\Hytale\\game\\latest",
    "profiles": {
        "z-first": {"name": "First", "username": "Rei", "uuid": "abc", "avatar_data": {}},
        "b-second": {"name": "Second", "username": "Kaworu", "uuid": "def", "avatar_data": {"hat": "none"}},
    },
    "servers": [{"name": "Home", "address": "192.168.1.10:25565"}]
}`

func TestConfigImportAndExport(t *testing.T) {
	home := t.TempDir()
	legacy := filepath.Join(t.TempDir(), "launcher_data.json")
	if err := os.WriteFile(legacy, []byte(legacyDocument), 0o644); err != nil {
		t.Fatal(err)
	}

	out := mustRun(t, home, "config", "import", legacy)
	if !strings.Contains(out, "Imported 2 profiles and 1 servers") {
		t.Fatalf("unexpected import output: %q", out)
	}

	var exported configstore.LauncherConfig
	if err := yaml.Unmarshal([]byte(mustRun(t, home, "config", "export")), &exported); err != nil {
		t.Fatalf("export is not valid YAML: %v", err)
	}
	if exported.ActiveProfileID != "b-second" || exported.GameRoot != `D:\Games\Hytale\game\latest` {
		t.Fatalf("unexpected export: %+v", exported)
	}
	if exported.LaunchMode != configstore.LaunchModeSimulated || len(exported.Profiles) != 3 || len(exported.Servers) != 1 {
		t.Fatalf("unexpected export: %+v", exported)
	}

	target := filepath.Join(t.TempDir(), "out", "config.yaml")
	mustRun(t, home, "config", "export", "-o", target)
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "username: Kaworu") {
		t.Fatalf("export file missing profile:\n%s", data)
	}
}

func TestLegacyDataImportedOnFirstOpen(t *testing.T) {
	home := t.TempDir()
	if err := os.MkdirAll(filepath.Join(home, "UserData"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(home, "UserData", "launcher_data.json"), []byte(legacyDocument), 0o644); err != nil {
		t.Fatal(err)
	}

	var listing profileListing
	decodeJSON(t, mustRun(t, home, "profile", "list", "--json"), &listing)
	if len(listing.Profiles) != 3 || listing.Active != "b-second" {
		t.Fatalf("legacy data not imported: %+v", listing)
	}

	// A later switch must survive reopening the store.
	mustRun(t, home, "profile", "use", configstore.DefaultProfileID)
	listing = profileListing{}
	decodeJSON(t, mustRun(t, home, "profile", "list", "--json"), &listing)
	if listing.Active != configstore.DefaultProfileID {
		t.Fatalf("legacy data re-imported on second open: active = %q", listing.Active)
	}
}

func TestVersionCommandServiceUnavailable(t *testing.T) {
	t.Setenv("HYLAUNCHER_CONTROL_ADDR", "127.0.0.1:1")

	out := mustRun(t, t.TempDir(), "version")
	clientLine := "Client: " + hlversion.FormatVersion(hlversion.String())
	if !strings.Contains(out, clientLine) {
		t.Errorf("output missing client version line %q, got:\n%s", clientLine, out)
	}
	if !strings.Contains(out, "Service: unavailable (") {
		t.Errorf("output missing service status line, got:\n%s", out)
	}

	var result map[string]any
	decodeJSON(t, mustRun(t, t.TempDir(), "version", "--json"), &result)
	if result["client"] != hlversion.String() {
		t.Errorf("client = %v, want %q", result["client"], hlversion.String())
	}
	if v, ok := result["service"]; !ok || v != nil {
		t.Errorf("service = %v, want null", v)
	}
	if _, ok := result["service_error"]; !ok {
		t.Error("JSON output missing service_error")
	}
}

func TestStatusAndVersionAgainstService(t *testing.T) {
	t.Cleanup(hlversion.ForTesting("1.0.0"))

	srv := httptest.NewServer(control.New(control.Options{}).Handler())
	t.Cleanup(srv.Close)
	t.Setenv("HYLAUNCHER_CONTROL_ADDR", strings.TrimPrefix(srv.URL, "http://"))

	out := mustRun(t, t.TempDir(), "version")
	if !strings.Contains(out, "Client: v1.0.0") || !strings.Contains(out, "Service: v1.0.0") {
		t.Fatalf("unexpected version output:\n%s", out)
	}
	if strings.Contains(out, "WARNING") {
		t.Fatalf("unexpected mismatch warning:\n%s", out)
	}

	var status control.StatusResponse
	decodeJSON(t, mustRun(t, t.TempDir(), "status", "--json"), &status)
	if status.Version != "1.0.0" || status.Emulator != nil || status.ActiveProfile != nil {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestStatusServiceUnavailable(t *testing.T) {
	t.Setenv("HYLAUNCHER_CONTROL_ADDR", "127.0.0.1:1")
	res := runCLI(t, t.TempDir(), "status")
	if res.err == nil {
		t.Fatal("expected status to fail without a service")
	}
	if !strings.Contains(res.stderr, "Launcher service unavailable at 127.0.0.1:1") {
		t.Fatalf("unexpected stderr: %q", res.stderr)
	}
}

// newForegroundRoot lays out a game root whose client, server jar and
// bundled runtime are shell scripts.
func newForegroundRoot(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("foreground launch tests use /bin/sh scripts")
	}

	base := t.TempDir()
	root := filepath.Join(base, "install", "release", "package", "game", "latest")
	write := func(path, body string) {
		t.Helper()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	write(filepath.Join(root, "Client", "HytaleClient.exe"), `echo "client booted as $4"`)
	write(filepath.Join(root, "Server", "HytaleServer.jar"), `exit 0`)
	write(filepath.Join(base, "install", "release", "jre", "latest", "bin", "java.exe"), `echo "server up $1"`)
	return root
}

func TestPlayRunsClientInForeground(t *testing.T) {
	root := newForegroundRoot(t)
	home := t.TempDir()
	t.Setenv("HYLAUNCHER_EMULATOR_ADDR", "127.0.0.1:0")

	mustRun(t, home, "settings", "set-root", root)
	out := mustRun(t, home, "play", "--connect", "10.0.0.5:25565")

	for _, want := range []string{
		"[CLIENT] Connecting to 10.0.0.5:25565...",
		"[CLIENT] client booted as ReiAyanami",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q, got:\n%s", want, out)
		}
	}
}

func TestHostRunsServerInForeground(t *testing.T) {
	root := newForegroundRoot(t)
	home := t.TempDir()

	mustRun(t, home, "settings", "set-root", root)
	out := mustRun(t, home, "host")
	if !strings.Contains(out, "[SERVER] server up -jar") {
		t.Fatalf("output missing server line, got:\n%s", out)
	}
}

func TestPlayMissingClientFails(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HYLAUNCHER_EMULATOR_ADDR", "127.0.0.1:0")
	mustRun(t, home, "settings", "set-root", "--force", filepath.Join(t.TempDir(), "nowhere"))

	res := runCLI(t, home, "play")
	if res.err == nil {
		t.Fatal("expected play to fail without a client binary")
	}
	if !strings.Contains(res.stdout, "[ERROR] Error: HytaleClient.exe not found at ") {
		t.Fatalf("missing error record, got:\n%s", res.stdout)
	}
}

func TestStopSignalsRecordedService(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sleep(1) as a stand-in service")
	}
	home := t.TempDir()

	service := exec.Command("sleep", "30")
	if err := service.Start(); err != nil {
		t.Fatalf("start stand-in service: %v", err)
	}
	waited := make(chan error, 1)
	go func() { waited <- service.Wait() }()
	t.Cleanup(func() { _ = service.Process.Kill() })

	pid := service.Process.Pid
	if err := daemonruntime.WritePIDFile(filepath.Join(home, "hylauncher.pid"), pid); err != nil {
		t.Fatalf("write pid file: %v", err)
	}

	out := mustRun(t, home, "stop")
	if want := fmt.Sprintf("Launcher service stopped (PID %d)", pid); strings.TrimSpace(out) != want {
		t.Fatalf("stop output = %q, want %q", out, want)
	}
	if err := <-waited; err == nil {
		t.Fatal("stand-in service exited cleanly, want termination by signal")
	}
}

func TestStopWithoutService(t *testing.T) {
	res := runCLI(t, t.TempDir(), "stop")
	if res.err == nil {
		t.Fatal("expected stop to fail when no service is running")
	}
	if strings.TrimSpace(res.stderr) != "Launcher service is not running" {
		t.Fatalf("unexpected stderr: %q", res.stderr)
	}
}
