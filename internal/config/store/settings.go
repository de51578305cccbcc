package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// LoadSettings returns key/value settings. Optional keys limit the selection
// to specific entries.
func (s *Store) LoadSettings(ctx context.Context, keys ...string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadSettings(ctx, keys...)
}

func (s *Store) loadSettings(ctx context.Context, keys ...string) (map[string]string, error) {
	query := `SELECT key, value FROM settings`
	var args []any

	if len(keys) > 0 {
		placeholders := strings.TrimRight(strings.Repeat("?,", len(keys)), ",")
		query += fmt.Sprintf(" WHERE key IN (%s)", placeholders)
		for _, key := range keys {
			args = append(args, key)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("config: load settings: %w", err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("config: scan settings row: %w", err)
		}
		result[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("config: iterate settings rows: %w", err)
	}

	return result, nil
}

// SaveSettings upserts the provided key/value pairs.
func (s *Store) SaveSettings(ctx context.Context, values map[string]string) error {
	if s.readOnly {
		return fmt.Errorf("config: save settings: %w", ErrReadOnly)
	}
	if len(values) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for key, value := range values {
			if err := saveSetting(ctx, tx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

func saveSetting(ctx context.Context, tx *sql.Tx, key, value string) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value); err != nil {
		return fmt.Errorf("config: exec save setting %q: %w", key, err)
	}
	return nil
}

// GameRoot returns the configured game installation root (the directory
// containing the Client and Server folders).
func (s *Store) GameRoot(ctx context.Context) (string, error) {
	settings, err := s.LoadSettings(ctx, SettingGameRoot)
	if err != nil {
		return "", err
	}
	return settings[SettingGameRoot], nil
}

// SetGameRoot persists a new game installation root.
func (s *Store) SetGameRoot(ctx context.Context, root string) error {
	root = strings.TrimSpace(root)
	if root == "" {
		return fmt.Errorf("config: game root must not be empty")
	}
	return s.SaveSettings(ctx, map[string]string{SettingGameRoot: root})
}

// LaunchMode returns the configured client launch mode. Unknown or missing
// values read as LaunchModeSimulated.
func (s *Store) LaunchMode(ctx context.Context) (string, error) {
	settings, err := s.LoadSettings(ctx, SettingLaunchMode)
	if err != nil {
		return "", err
	}
	return normalizeLaunchMode(settings[SettingLaunchMode]), nil
}

// SetLaunchMode persists the client launch mode.
func (s *Store) SetLaunchMode(ctx context.Context, mode string) error {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if !ValidLaunchMode(mode) {
		return fmt.Errorf("config: invalid launch mode %q (want %s or %s)", mode, LaunchModeSimulated, LaunchModeOffline)
	}
	return s.SaveSettings(ctx, map[string]string{SettingLaunchMode: mode})
}

func normalizeLaunchMode(mode string) string {
	if ValidLaunchMode(mode) {
		return mode
	}
	return LaunchModeSimulated
}
