package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
)

const profileColumns = `id, name, username, uuid, avatar_data, created_at, updated_at`

// RecoveryProfile is served when the profile table is empty. It is never
// persisted, so every call yields a fresh uuid.
func RecoveryProfile() Profile {
	return Profile{
		Name:       "Recovery",
		Username:   "Player",
		UUID:       uuid.NewString(),
		AvatarData: map[string]any{},
	}
}

// ActiveProfile returns the currently selected profile. When the stored
// active id is dangling it is healed to the first profile in creation order.
func (s *Store) ActiveProfile(ctx context.Context) (Profile, error) {
	s.mu.RLock()
	profile, err := s.selectActiveProfile(ctx)
	s.mu.RUnlock()

	switch {
	case err == nil:
		return profile, nil
	case !errors.Is(err, sql.ErrNoRows):
		return Profile{}, fmt.Errorf("config: load active profile: %w", err)
	}

	return s.healActiveProfile(ctx)
}

// selectActiveProfile reads the active id and its row in one statement.
func (s *Store) selectActiveProfile(ctx context.Context) (Profile, error) {
	return scanProfile(s.db.QueryRowContext(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE id = (SELECT value FROM settings WHERE key = ?)
	`, SettingActiveProfile))
}

func (s *Store) healActiveProfile(ctx context.Context) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have healed or re-activated while we waited.
	if profile, err := s.selectActiveProfile(ctx); err == nil {
		return profile, nil
	}

	profile, err := scanProfile(s.db.QueryRowContext(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		ORDER BY position, created_at, id
		LIMIT 1
	`))
	if errors.Is(err, sql.ErrNoRows) {
		return RecoveryProfile(), nil
	}
	if err != nil {
		return Profile{}, fmt.Errorf("config: load first profile: %w", err)
	}

	if s.readOnly {
		return profile, nil
	}

	if err := s.withTx(ctx, func(tx *sql.Tx) error {
		return saveSetting(ctx, tx, SettingActiveProfile, profile.ID)
	}); err != nil {
		log.Printf("[Config] failed to persist healed active profile %s: %v", profile.ID, err)
	}
	return profile, nil
}

// Profiles returns all profiles in creation order.
func (s *Store) Profiles(ctx context.Context) ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listProfiles(ctx)
}

func (s *Store) listProfiles(ctx context.Context) ([]Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		ORDER BY position, created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("config: list profiles: %w", err)
	}
	return scanList(rows, scanProfile, "config: scan profile", "config: iterate profiles")
}

// GetProfile returns the profile with the given id.
func (s *Store) GetProfile(ctx context.Context, id string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, err := scanProfile(s.db.QueryRowContext(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, NotFoundError{Entity: "profile", Key: id}
	}
	if err != nil {
		return Profile{}, fmt.Errorf("config: get profile %q: %w", id, err)
	}
	return profile, nil
}

// FindProfileByName returns the first profile whose display name matches.
func (s *Store) FindProfileByName(ctx context.Context, name string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, err := scanProfile(s.db.QueryRowContext(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE name = ?
		ORDER BY position, created_at, id
		LIMIT 1
	`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, NotFoundError{Entity: "profile", Key: name}
	}
	if err != nil {
		return Profile{}, fmt.Errorf("config: find profile %q: %w", name, err)
	}
	return profile, nil
}

// CreateProfile inserts a new profile. Blank fields receive the same
// defaults the launcher has always used for "+ New": a random id and uuid,
// the name "New Profile <n>" and the username NewPlayer.
func (s *Store) CreateProfile(ctx context.Context, profile Profile) (Profile, error) {
	if s.readOnly {
		return Profile{}, fmt.Errorf("config: create profile: %w", ErrReadOnly)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var count, nextPos int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(1), IFNULL(MAX(position), -1) + 1 FROM profiles
		`).Scan(&count, &nextPos); err != nil {
			return fmt.Errorf("config: count profiles: %w", err)
		}

		if strings.TrimSpace(profile.ID) == "" {
			profile.ID = uuid.NewString()
		}
		if strings.TrimSpace(profile.Name) == "" {
			profile.Name = fmt.Sprintf("New Profile %d", count)
		}
		if strings.TrimSpace(profile.Username) == "" {
			profile.Username = newProfileUsername
		}
		if strings.TrimSpace(profile.UUID) == "" {
			profile.UUID = uuid.NewString()
		}

		return insertProfile(ctx, tx, profile, nextPos)
	})
	if err != nil {
		return Profile{}, err
	}

	if profile.AvatarData == nil {
		profile.AvatarData = map[string]any{}
	}
	return profile, nil
}

func insertProfile(ctx context.Context, tx *sql.Tx, profile Profile, position int) error {
	avatar, err := encodeJSON(profile.AvatarData, nullWhenEmptyMap[string, any])
	if err != nil {
		return fmt.Errorf("config: encode avatar data: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (id, name, username, uuid, avatar_data, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, profile.ID, profile.Name, profile.Username, profile.UUID, avatar, position); err != nil {
		return fmt.Errorf("config: insert profile %q: %w", profile.ID, err)
	}
	return nil
}

// UpdateProfile replaces the editable fields of an existing profile.
func (s *Store) UpdateProfile(ctx context.Context, profile Profile) error {
	if s.readOnly {
		return fmt.Errorf("config: update profile: %w", ErrReadOnly)
	}

	avatar, err := encodeJSON(profile.AvatarData, nullWhenEmptyMap[string, any])
	if err != nil {
		return fmt.Errorf("config: encode avatar data: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE profiles
		SET name = ?, username = ?, uuid = ?, avatar_data = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, profile.Name, profile.Username, profile.UUID, avatar, profile.ID)
	if err != nil {
		return fmt.Errorf("config: update profile %q: %w", profile.ID, err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return NotFoundError{Entity: "profile", Key: profile.ID}
	}
	return nil
}

// DeleteProfile removes a profile. The last remaining profile cannot be
// deleted; removing the active profile activates the first remaining one.
func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	if s.readOnly {
		return fmt.Errorf("config: delete profile: %w", ErrReadOnly)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM profiles`).Scan(&count); err != nil {
			return fmt.Errorf("config: count profiles: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("config: delete profile %q: %w", id, err)
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return NotFoundError{Entity: "profile", Key: id}
		}
		if count <= 1 {
			return ErrLastProfile
		}

		var first string
		if err := tx.QueryRowContext(ctx, `
			SELECT id FROM profiles ORDER BY position, created_at, id LIMIT 1
		`).Scan(&first); err != nil {
			return fmt.Errorf("config: select replacement profile: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE settings
			SET value = ?, updated_at = CURRENT_TIMESTAMP
			WHERE key = ? AND value = ?
		`, first, SettingActiveProfile, id); err != nil {
			return fmt.Errorf("config: reassign active profile: %w", err)
		}
		return nil
	})
}

// ActivateProfile marks the profile with the given id as active.
func (s *Store) ActivateProfile(ctx context.Context, id string) error {
	if s.readOnly {
		return fmt.Errorf("config: activate profile: %w", ErrReadOnly)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM profiles WHERE id = ?)
		`, id).Scan(&exists); err != nil {
			return fmt.Errorf("config: check profile %q: %w", id, err)
		}
		if !exists {
			return NotFoundError{Entity: "profile", Key: id}
		}
		return saveSetting(ctx, tx, SettingActiveProfile, id)
	})
}
