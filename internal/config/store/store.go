package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hylauncher/hylauncher/internal/config"
)

const (
	defaultBusyTimeout        = 5 * time.Second
	defaultConnectionLifetime = 0 // unlimited
)

// Options describes parameters for opening a configuration store.
type Options struct {
	Home     string // Launcher home (defaults to config.GetLauncherHome())
	DBPath   string // Optional override for config.db path (primarily for tests)
	ReadOnly bool   // Open database in read-only mode
}

// Store provides access to the launcher configuration database.
//
// mu serialises writers against readers so a profile edit can never be
// observed half-applied (username of one profile, uuid of another).
type Store struct {
	mu       sync.RWMutex
	db       *sql.DB
	dbPath   string
	readOnly bool
}

// NotFoundError indicates a requested record does not exist.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

// IsNotFound returns true when err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

var (
	// ErrLastProfile is returned when deleting the only remaining profile.
	ErrLastProfile = errors.New("config: cannot delete the last profile")
	// ErrReadOnly is returned by mutating calls on a read-only store.
	ErrReadOnly = errors.New("config: store opened read-only")
)

// Open initialises the configuration store.
func Open(opts Options) (*Store, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		paths, err := config.EnsureDirs(opts.Home)
		if err != nil {
			return nil, fmt.Errorf("config: ensure directories: %w", err)
		}
		dbPath = paths.ConfigDB
	}
	dbPath = filepath.Clean(dbPath)

	dsn := dbPath
	if opts.ReadOnly {
		dsn = fmt.Sprintf("file:%s?mode=ro", dbPath)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("config: open sqlite store: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(defaultConnectionLifetime)
	db.SetConnMaxIdleTime(defaultConnectionLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := applyPragmas(ctx, db, opts.ReadOnly); err != nil {
		db.Close()
		return nil, err
	}

	if !opts.ReadOnly {
		if err := applySchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		if err := seedDefaults(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Store{
		db:       db,
		dbPath:   dbPath,
		readOnly: opts.ReadOnly,
	}, nil
}

// Close finalises the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying sql.DB handle for internal usage.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the filesystem path of the backing database.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("config: rollback failed after %v: %w", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

// Snapshot returns the complete launcher configuration as of now.
func (s *Store) Snapshot(ctx context.Context) (LauncherConfig, error) {
	active, err := s.ActiveProfile(ctx)
	if err != nil {
		return LauncherConfig{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	settings, err := s.loadSettings(ctx, SettingGameRoot, SettingLaunchMode)
	if err != nil {
		return LauncherConfig{}, err
	}
	profiles, err := s.listProfiles(ctx)
	if err != nil {
		return LauncherConfig{}, err
	}
	servers, err := s.listServers(ctx)
	if err != nil {
		return LauncherConfig{}, err
	}

	return LauncherConfig{
		ActiveProfileID: active.ID,
		GameRoot:        settings[SettingGameRoot],
		LaunchMode:      normalizeLaunchMode(settings[SettingLaunchMode]),
		Profiles:        profiles,
		Servers:         servers,
	}, nil
}
