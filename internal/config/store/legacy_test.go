package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const legacyDocument = `{
    // written by the original launcher
    "active_profile_id": "b-second",
    "game_root": "D:\\Games\\Hytale\\game\\latest",
    "profiles": {
        "z-first": {"name": "First", "username": "Rei", "uuid": "abc", "avatar_data": {}},
        "b-second": {"name": "Second", "username": "Kaworu", "uuid": "def", "avatar_data": {"hat": "none"}},
    },
    "servers": [
        {"name": "Home", "address": "192.168.1.10:25565"},
        {"name": "Home", "address": "192.168.1.10:25565"}
    ]
}`

func TestImportLegacy(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	result, err := store.ImportLegacy(ctx, []byte(legacyDocument))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Profiles != 2 || result.Servers != 1 || !result.GameRoot || result.Active != "b-second" {
		t.Fatalf("unexpected result: %+v", result)
	}

	active, err := store.ActiveProfile(ctx)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if active.Username != "Kaworu" || active.AvatarData["hat"] != "none" {
		t.Fatalf("unexpected active profile: %+v", active)
	}

	profiles, err := store.Profiles(ctx)
	if err != nil {
		t.Fatalf("profiles: %v", err)
	}
	var order []string
	for _, p := range profiles {
		order = append(order, p.ID)
	}
	if len(order) != 3 || order[0] != DefaultProfileID || order[1] != "z-first" || order[2] != "b-second" {
		t.Fatalf("profiles not imported in document order: %v", order)
	}

	root, _ := store.GameRoot(ctx)
	if root != `D:\Games\Hytale\game\latest` {
		t.Fatalf("game root = %q", root)
	}
}

func TestImportLegacyIsIdempotentForServers(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.ImportLegacy(ctx, []byte(legacyDocument)); err != nil {
		t.Fatalf("first import: %v", err)
	}
	result, err := store.ImportLegacy(ctx, []byte(legacyDocument))
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if result.Servers != 0 {
		t.Fatalf("expected no new servers, got %d", result.Servers)
	}
	servers, _ := store.Servers(ctx)
	if len(servers) != 1 {
		t.Fatalf("servers = %v", servers)
	}
}

func TestImportLegacyFile(t *testing.T) {
	store := openTestStore(t)
	path := filepath.Join(t.TempDir(), "launcher_data.json")
	if err := os.WriteFile(path, []byte(`{"profiles": {}, "servers": []}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	result, err := store.ImportLegacyFile(context.Background(), path)
	if err != nil {
		t.Fatalf("import file: %v", err)
	}
	if result.Profiles != 0 || result.GameRoot || result.Active != "" {
		t.Fatalf("unexpected result: %+v", result)
	}

	if _, err := store.ImportLegacyFile(context.Background(), filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestImportLegacyRejectsGarbage(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.ImportLegacy(context.Background(), []byte(`{"profiles": [1, 2]}`)); err == nil {
		t.Fatal("expected error for non-object profiles")
	}
}
