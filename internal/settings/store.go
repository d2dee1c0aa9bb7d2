package settings

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"golang.org/x/text/cases"

	"winnow/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// Setting keys understood by the filtering pipeline.
const (
	KeyTopics        = "topics"
	KeyDisplayAction = "display_action"
	KeySensitivity   = "sensitivity"

	versionKey = "version"
)

// DisplayAction selects what happens to tiles that match an excluded topic.
type DisplayAction string

const (
	DisplayHide   DisplayAction = "hide"
	DisplayDelete DisplayAction = "delete"
)

// ErrDuplicateTopic is returned when an added or edited topic already exists
// (comparison is case-insensitive).
var ErrDuplicateTopic = errors.New("topic already exists")

// ErrTopicNotFound is returned when a removed or edited topic is absent.
var ErrTopicNotFound = errors.New("topic not found")

// Snapshot is one consistent read of everything the pipeline needs.
type Snapshot struct {
	Topics        []string
	DisplayAction DisplayAction
	Sensitivity   float64
	Version       int64
}

// Store persists user settings and excluded topics in SQLite and notifies
// in-process listeners when they change.
type Store struct {
	db   *sql.DB
	path string

	notifier notifier
}

// Open initializes or connects to the settings database and seeds defaults
// from the supplied config for keys that have never been written.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("settings: config required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.SettingsDBPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	ctx := context.Background()
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if err := store.seedDefaults(ctx, cfg); err != nil {
		_ = db.Close()
		return nil, err
	}
	version, err := store.Version(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	store.notifier.lastSeen = version
	return store, nil
}

func (s *Store) seedDefaults(ctx context.Context, cfg *config.Config) error {
	defaults := map[string]string{
		KeyDisplayAction: cfg.Filter.DisplayAction,
		KeySensitivity:   strconv.FormatFloat(cfg.Filter.Sensitivity, 'f', -1, 64),
	}
	for key, value := range defaults {
		if _, err := s.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("seed default %s: %w", key, err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Get reads the requested setting keys. Missing keys are omitted from the result.
func (s *Store) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		var value string
		err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get setting %s: %w", key, err)
		}
		values[key] = value
	}
	return values, nil
}

// Set writes the supplied settings in one transaction, bumps the change
// version, and notifies listeners.
func (s *Store) Set(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	version, err := s.inTx(ctx, func(tx *sql.Tx) error {
		for key, value := range values {
			if key == versionKey {
				return fmt.Errorf("set setting: %q is reserved", versionKey)
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
				key, value); err != nil {
				return fmt.Errorf("set setting %s: %w", key, err)
			}
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notifier.notify(Change{Keys: keys, Version: version})
	return nil
}

// Topics returns the excluded topics in insertion order.
func (s *Store) Topics(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT topic FROM topics ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var topics []string
	for rows.Next() {
		var topic string
		if err := rows.Scan(&topic); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, topic)
	}
	return topics, rows.Err()
}

// AddTopic appends a topic to the excluded set. The stored form is trimmed;
// uniqueness is case-insensitive.
func (s *Store) AddTopic(ctx context.Context, topic string) error {
	trimmed, fold, err := normalizeTopic(topic)
	if err != nil {
		return err
	}
	version, err := s.inTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM topics WHERE topic_fold = ?", fold).Scan(&count); err != nil {
			return fmt.Errorf("check topic: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: %s", ErrDuplicateTopic, trimmed)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO topics (topic, topic_fold) VALUES (?, ?)", trimmed, fold); err != nil {
			return fmt.Errorf("insert topic: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notifier.notify(Change{Keys: []string{KeyTopics}, Version: version})
	return nil
}

// RemoveTopic deletes a topic (matched case-insensitively).
func (s *Store) RemoveTopic(ctx context.Context, topic string) error {
	_, fold, err := normalizeTopic(topic)
	if err != nil {
		return err
	}
	version, err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM topics WHERE topic_fold = ?", fold)
		if err != nil {
			return fmt.Errorf("delete topic: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s", ErrTopicNotFound, strings.TrimSpace(topic))
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notifier.notify(Change{Keys: []string{KeyTopics}, Version: version})
	return nil
}

// EditTopic replaces a topic in place, keeping its position in the set.
func (s *Store) EditTopic(ctx context.Context, oldTopic, newTopic string) error {
	_, oldFold, err := normalizeTopic(oldTopic)
	if err != nil {
		return err
	}
	newTrimmed, newFold, err := normalizeTopic(newTopic)
	if err != nil {
		return err
	}
	version, err := s.inTx(ctx, func(tx *sql.Tx) error {
		if oldFold != newFold {
			var count int
			if err := tx.QueryRowContext(ctx,
				"SELECT COUNT(1) FROM topics WHERE topic_fold = ?", newFold).Scan(&count); err != nil {
				return fmt.Errorf("check topic: %w", err)
			}
			if count > 0 {
				return fmt.Errorf("%w: %s", ErrDuplicateTopic, newTrimmed)
			}
		}
		res, err := tx.ExecContext(ctx,
			"UPDATE topics SET topic = ?, topic_fold = ? WHERE topic_fold = ?",
			newTrimmed, newFold, oldFold)
		if err != nil {
			return fmt.Errorf("update topic: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s", ErrTopicNotFound, strings.TrimSpace(oldTopic))
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notifier.notify(Change{Keys: []string{KeyTopics}, Version: version})
	return nil
}

// Snapshot reads topics, display action, and sensitivity in one pass. The
// pipeline treats the result as immutable for the duration of a scan cycle.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	topics, err := s.Topics(ctx)
	if err != nil {
		return snap, err
	}
	values, err := s.Get(ctx, KeyDisplayAction, KeySensitivity)
	if err != nil {
		return snap, err
	}
	version, err := s.Version(ctx)
	if err != nil {
		return snap, err
	}

	snap.Topics = topics
	snap.Version = version
	snap.DisplayAction = DisplayHide
	if action := DisplayAction(values[KeyDisplayAction]); action == DisplayDelete {
		snap.DisplayAction = DisplayDelete
	}
	snap.Sensitivity = 0.3
	if raw, ok := values[KeySensitivity]; ok {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed >= 0 && parsed <= 1 {
			snap.Sensitivity = parsed
		}
	}
	return snap, nil
}

// Version returns the monotonically increasing change counter. It advances on
// every mutation, including ones made by other processes sharing the file.
func (s *Store) Version(ctx context.Context) (int64, error) {
	var raw string
	if err := s.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?", versionKey).Scan(&raw); err != nil {
		return 0, fmt.Errorf("read version: %w", err)
	}
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version: %w", err)
	}
	return version, nil
}

// inTx runs fn in a transaction that also bumps the change version, and
// returns the new version.
func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE settings SET value = CAST(value AS INTEGER) + 1 WHERE key = ?", versionKey); err != nil {
		return 0, fmt.Errorf("bump version: %w", err)
	}
	var raw string
	if err := tx.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?", versionKey).Scan(&raw); err != nil {
		return 0, fmt.Errorf("read version: %w", err)
	}
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	s.notifier.markSeen(version)
	return version, nil
}

func normalizeTopic(topic string) (trimmed, fold string, err error) {
	trimmed = strings.TrimSpace(topic)
	if trimmed == "" {
		return "", "", errors.New("topic must not be empty")
	}
	fold = cases.Fold().String(trimmed)
	return trimmed, fold, nil
}
