package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"enfoque/internal/model"
	"enfoque/internal/storage"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

func NewSQLiteStore(dbPath string) storage.Storage {
	return &SQLiteStore{dbPath: dbPath}
}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS activities (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	category TEXT,
	emoji TEXT,
	created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS sound_options (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	uri TEXT,
	is_default INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	task_label TEXT NOT NULL,
	planned_seconds INTEGER NOT NULL,
	actual_seconds INTEGER NOT NULL,
	completed INTEGER NOT NULL,
	started_at DATETIME NOT NULL,
	ended_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions (started_at);
`

// DefaultSoundID is the built-in catalog entry with no URI; the notifier
// interprets it as "play the bundled tone".
const DefaultSoundID = "default"

func (s *SQLiteStore) Init(ctx context.Context) error {
	// Ensure directory exists
	dir := filepath.Dir(s.dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create db directory %s: %w", dir, err)
	}

	log.Printf("Initializing SQLite database at: %s", s.dbPath)
	db, err := sql.Open("sqlite3", s.dbPath+"?_journal=WAL&_timeout=5000&_fk=true")
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	s.db = db

	// SQLite is often best with a single writer connection
	s.db.SetMaxOpenConns(1)
	s.db.SetMaxIdleConns(1)
	s.db.SetConnMaxLifetime(time.Minute * 5)

	if err := s.db.PingContext(ctx); err != nil {
		s.db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, createTablesSQL); err != nil {
		s.db.Close()
		return fmt.Errorf("failed to create tables: %w", err)
	}

	if err := s.migrate(ctx); err != nil {
		s.db.Close()
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Println("Database initialized successfully.")
	return nil
}

// migrate runs the versioned schema upgrades, tracked via PRAGMA
// user_version so old shapes are transformed exactly once and old keys are
// never re-checked afterwards.
func (s *SQLiteStore) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if version < 1 {
		if err := s.migrateLegacyCustomSound(ctx); err != nil {
			return err
		}
		if err := s.seedDefaultSound(ctx); err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, "PRAGMA user_version = 1"); err != nil {
			return fmt.Errorf("failed to bump schema version: %w", err)
		}
		log.Println("Database migrated to schema version 1.")
	}
	return nil
}

// migrateLegacyCustomSound upgrades storage written before the structured
// sound catalog existed: a single URI under the old settings key becomes a
// proper catalog row and the current selection, and the old key is removed.
func (s *SQLiteStore) migrateLegacyCustomSound(ctx context.Context) error {
	legacyURI, err := s.GetSetting(ctx, model.SettingLegacyCustomSound)
	if err != nil {
		return err
	}
	if legacyURI == "" {
		return nil
	}

	log.Printf("Migrating legacy custom sound URI into the sound catalog: %s", legacyURI)
	opt := model.SoundOption{
		ID:        uuid.NewString(),
		Name:      filepath.Base(legacyURI),
		URI:       legacyURI,
		IsDefault: false,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.AddSoundOption(ctx, opt); err != nil {
		return err
	}
	if err := s.SetSetting(ctx, model.SettingSelectedSound, opt.ID); err != nil {
		return err
	}
	return s.DeleteSetting(ctx, model.SettingLegacyCustomSound)
}

func (s *SQLiteStore) seedDefaultSound(ctx context.Context) error {
	query := `INSERT OR IGNORE INTO sound_options (id, name, uri, is_default, created_at)
	          VALUES (?, ?, '', 1, ?)`
	if _, err := s.db.ExecContext(ctx, query, DefaultSoundID, "Tono clásico", time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to seed default sound: %w", err)
	}
	return nil
}

// --- Activities ---

func (s *SQLiteStore) AddActivity(ctx context.Context, a model.Activity) error {
	query := `INSERT INTO activities (id, name, category, emoji, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, a.ID, a.Name, a.Category, a.Emoji, a.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListActivities(ctx context.Context) ([]model.Activity, error) {
	query := `SELECT id, name, category, emoji, created_at FROM activities ORDER BY created_at ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []model.Activity
	for rows.Next() {
		var a model.Activity
		var category, emoji sql.NullString
		if err := rows.Scan(&a.ID, &a.Name, &category, &emoji, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		a.Category = category.String
		a.Emoji = emoji.String
		activities = append(activities, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return activities, nil
}

func (s *SQLiteStore) RemoveActivity(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("activity %s not found", id)
	}
	return nil
}

// --- Sound options ---

func (s *SQLiteStore) AddSoundOption(ctx context.Context, opt model.SoundOption) error {
	query := `INSERT INTO sound_options (id, name, uri, is_default, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, opt.ID, opt.Name, opt.URI, opt.IsDefault, opt.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert sound option: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListSoundOptions(ctx context.Context) ([]model.SoundOption, error) {
	query := `SELECT id, name, uri, is_default, created_at FROM sound_options ORDER BY is_default DESC, created_at ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sound options: %w", err)
	}
	defer rows.Close()

	var options []model.SoundOption
	for rows.Next() {
		var opt model.SoundOption
		var uri sql.NullString
		if err := rows.Scan(&opt.ID, &opt.Name, &uri, &opt.IsDefault, &opt.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sound option row: %w", err)
		}
		opt.URI = uri.String
		options = append(options, opt)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sound option rows: %w", err)
	}
	return options, nil
}

func (s *SQLiteStore) GetSoundOption(ctx context.Context, id string) (*model.SoundOption, error) {
	query := `SELECT id, name, uri, is_default, created_at FROM sound_options WHERE id = ?`
	var opt model.SoundOption
	var uri sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(&opt.ID, &opt.Name, &uri, &opt.IsDefault, &opt.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sound option: %w", err)
	}
	opt.URI = uri.String
	return &opt, nil
}

func (s *SQLiteStore) RemoveSoundOption(ctx context.Context, id string) error {
	if id == DefaultSoundID {
		return fmt.Errorf("the default sound cannot be removed")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM sound_options WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sound option: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sound option %s not found", id)
	}
	return nil
}

// --- Settings ---

func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query setting %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) SetSetting(ctx context.Context, key, value string) error {
	query := `INSERT INTO settings (key, value) VALUES (?, ?)
	          ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteSetting(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}

// --- Sessions ---

func (s *SQLiteStore) SaveSession(ctx context.Context, rec model.SessionRecord) (int64, error) {
	query := `INSERT INTO sessions (task_label, planned_seconds, actual_seconds, completed, started_at, ended_at)
	          VALUES (?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, query, rec.TaskLabel, rec.PlannedSeconds, rec.ActualSeconds, rec.Completed, rec.StartedAt, rec.EndedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) GetSessions(ctx context.Context, start, end time.Time) ([]model.SessionRecord, error) {
	query := `SELECT id, task_label, planned_seconds, actual_seconds, completed, started_at, ended_at
	          FROM sessions
	          WHERE started_at >= ? AND started_at <= ?
	          ORDER BY started_at ASC`
	rows, err := s.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var records []model.SessionRecord
	for rows.Next() {
		var rec model.SessionRecord
		if err := rows.Scan(&rec.ID, &rec.TaskLabel, &rec.PlannedSeconds, &rec.ActualSeconds, &rec.Completed, &rec.StartedAt, &rec.EndedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}
	return records, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		log.Println("Closing database connection.")
		return s.db.Close()
	}
	return nil
}
