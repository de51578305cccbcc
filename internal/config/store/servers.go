package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Servers returns saved servers in insertion order.
func (s *Store) Servers(ctx context.Context) ([]ServerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listServers(ctx)
}

func (s *Store) listServers(ctx context.Context) ([]ServerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, address FROM servers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("config: list servers: %w", err)
	}
	return scanList(rows, scanServer, "config: scan server", "config: iterate servers")
}

// AddServer appends a server to the saved list. Both name and address are
// required; the address is stored verbatim.
func (s *Store) AddServer(ctx context.Context, entry ServerEntry) error {
	if s.readOnly {
		return fmt.Errorf("config: add server: %w", ErrReadOnly)
	}
	entry.Name = strings.TrimSpace(entry.Name)
	entry.Address = strings.TrimSpace(entry.Address)
	if entry.Name == "" || entry.Address == "" {
		return fmt.Errorf("config: add server: name and address are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO servers (name, address, created_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
	`, entry.Name, entry.Address); err != nil {
		return fmt.Errorf("config: insert server %q: %w", entry.Name, err)
	}
	return nil
}

// RemoveServer deletes the server at the given zero-based list index.
func (s *Store) RemoveServer(ctx context.Context, index int) error {
	if s.readOnly {
		return fmt.Errorf("config: remove server: %w", ErrReadOnly)
	}
	if index < 0 {
		return NotFoundError{Entity: "server", Key: strconv.Itoa(index)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var rowID int64
		err := tx.QueryRowContext(ctx, `
			SELECT id FROM servers ORDER BY id LIMIT 1 OFFSET ?
		`, index).Scan(&rowID)
		if errors.Is(err, sql.ErrNoRows) {
			return NotFoundError{Entity: "server", Key: strconv.Itoa(index)}
		}
		if err != nil {
			return fmt.Errorf("config: select server %d: %w", index, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM servers WHERE id = ?`, rowID); err != nil {
			return fmt.Errorf("config: delete server %d: %w", index, err)
		}
		return nil
	})
}
