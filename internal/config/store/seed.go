package store

import (
	"context"
	"database/sql"
	"fmt"
)

var defaultSettings = []struct {
	key   string
	value string
}{
	{SettingActiveProfile, DefaultProfileID},
	{SettingGameRoot, DefaultGameRoot},
	{SettingLaunchMode, LaunchModeSimulated},
}

// seedDefaults writes first-run values. Existing rows are never touched, and
// the default profile is only created when no profile exists at all.
func seedDefaults(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("config: begin seed transaction: %w", err)
	}

	for _, setting := range defaultSettings {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO settings (key, value, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO NOTHING
		`, setting.key, setting.value); err != nil {
			tx.Rollback()
			return fmt.Errorf("config: seed setting %s: %w", setting.key, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (id, name, username, uuid, avatar_data, position)
		SELECT ?, ?, ?, ?, NULL, 0
		WHERE NOT EXISTS (SELECT 1 FROM profiles)
	`, DefaultProfileID, DefaultProfileName, DefaultUsername, DefaultUUID); err != nil {
		tx.Rollback()
		return fmt.Errorf("config: seed profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("config: commit seed transaction: %w", err)
	}

	return nil
}
