package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
)

// ImportResult reports what ImportLegacy changed.
type ImportResult struct {
	Profiles int
	Servers  int
	GameRoot bool
	Active   string
}

type legacyData struct {
	ActiveProfileID string          `json:"active_profile_id"`
	GameRoot        string          `json:"game_root"`
	Profiles        json.RawMessage `json:"profiles"`
	Servers         []ServerEntry   `json:"servers"`
}

type legacyProfile struct {
	Name       string         `json:"name"`
	Username   string         `json:"username"`
	UUID       string         `json:"uuid"`
	AvatarData map[string]any `json:"avatar_data"`
}

// ImportLegacyFile reads a launcher_data.json document from disk and merges
// it into the store.
func (s *Store) ImportLegacyFile(ctx context.Context, path string) (ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("config: read legacy data: %w", err)
	}
	return s.ImportLegacy(ctx, data)
}

// ImportLegacy merges a launcher_data.json document into the store. The
// document is parsed leniently (comments and trailing commas are accepted).
// Profiles are upserted by id in document order, servers not already saved
// are appended, and the game root and active profile are taken over when set.
func (s *Store) ImportLegacy(ctx context.Context, raw []byte) (ImportResult, error) {
	var result ImportResult
	if s.readOnly {
		return result, fmt.Errorf("config: import legacy data: %w", ErrReadOnly)
	}

	var doc legacyData
	if err := json.Unmarshal(jsonc.ToJSON(raw), &doc); err != nil {
		return result, fmt.Errorf("config: parse legacy data: %w", err)
	}

	ids, profiles, err := decodeLegacyProfiles(doc.Profiles)
	if err != nil {
		return result, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var nextPos int
		if err := tx.QueryRowContext(ctx, `
			SELECT IFNULL(MAX(position), -1) + 1 FROM profiles
		`).Scan(&nextPos); err != nil {
			return fmt.Errorf("config: next profile position: %w", err)
		}

		for _, id := range ids {
			lp := profiles[id]
			avatar, err := encodeJSON(lp.AvatarData, nullWhenEmptyMap[string, any])
			if err != nil {
				return fmt.Errorf("config: encode avatar data: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO profiles (id, name, username, uuid, avatar_data, position, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
				ON CONFLICT(id) DO UPDATE SET
					name = excluded.name,
					username = excluded.username,
					uuid = excluded.uuid,
					avatar_data = excluded.avatar_data,
					updated_at = CURRENT_TIMESTAMP
			`, id, lp.Name, lp.Username, lp.UUID, avatar, nextPos); err != nil {
				return fmt.Errorf("config: import profile %q: %w", id, err)
			}
			nextPos++
			result.Profiles++
		}

		for _, entry := range doc.Servers {
			entry.Name = strings.TrimSpace(entry.Name)
			entry.Address = strings.TrimSpace(entry.Address)
			if entry.Name == "" || entry.Address == "" {
				continue
			}
			res, err := tx.ExecContext(ctx, `
				INSERT INTO servers (name, address, created_at)
				SELECT ?, ?, CURRENT_TIMESTAMP
				WHERE NOT EXISTS (SELECT 1 FROM servers WHERE name = ? AND address = ?)
			`, entry.Name, entry.Address, entry.Name, entry.Address)
			if err != nil {
				return fmt.Errorf("config: import server %q: %w", entry.Name, err)
			}
			if rows, _ := res.RowsAffected(); rows > 0 {
				result.Servers++
			}
		}

		if root := strings.TrimSpace(doc.GameRoot); root != "" {
			if err := saveSetting(ctx, tx, SettingGameRoot, root); err != nil {
				return err
			}
			result.GameRoot = true
		}

		if _, ok := profiles[doc.ActiveProfileID]; ok {
			if err := saveSetting(ctx, tx, SettingActiveProfile, doc.ActiveProfileID); err != nil {
				return err
			}
			result.Active = doc.ActiveProfileID
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return result, nil
}

// decodeLegacyProfiles decodes the profiles object keeping key order, which
// decides the fallback profile when the active id is missing.
func decodeLegacyProfiles(raw json.RawMessage) ([]string, map[string]legacyProfile, error) {
	profiles := make(map[string]legacyProfile)
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, profiles, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("config: parse legacy profiles: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("config: parse legacy profiles: expected object")
	}

	var ids []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("config: parse legacy profile key: %w", err)
		}
		id, _ := keyTok.(string)

		var lp legacyProfile
		if err := dec.Decode(&lp); err != nil {
			return nil, nil, fmt.Errorf("config: parse legacy profile %q: %w", id, err)
		}
		if strings.TrimSpace(id) == "" {
			continue
		}
		if _, seen := profiles[id]; !seen {
			ids = append(ids, id)
		}
		profiles[id] = lp
	}
	return ids, profiles, nil
}
