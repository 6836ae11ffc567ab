// Package photo_store is the sqlite persistence layer for rolls, photos and
// settings.
package photo_store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type Roll struct {
	ID        int64
	Name      string
	Path      string
	FilmStock string
	Camera    string
	Lens      string
	ShootDate string
	LabInfo   string
	Notes     string
	City      string
	Country   string
	Lat       sql.NullFloat64
	Lon       sql.NullFloat64
	CreatedAt string
	UpdatedAt string
}

type Photo struct {
	ID              int64
	RollID          int64
	Filename        string
	FilePath        string
	ThumbnailPath   string
	PreviewPath     string
	Rating          int
	IsCover         bool
	IsFavorite      bool
	Lat             sql.NullFloat64
	Lon             sql.NullFloat64
	City            string
	Country         string
	ExifSynced      bool
	ExifWrittenAt   string
	ExifDataHash    string
	ExifUserComment string
	ExifDescription string
	CreatedAt       string
}

type NewRoll struct {
	Name      string
	Path      string
	FilmStock string
	Camera    string
	Lens      string
	ShootDate string
	LabInfo   string
	Notes     string
	City      string
	Country   string
	Lat       sql.NullFloat64
	Lon       sql.NullFloat64
}

type NewPhoto struct {
	RollID        int64
	Filename      string
	FilePath      string
	ThumbnailPath string
	PreviewPath   string
}

// sqlExecutor is satisfied by both *sql.DB and *sql.Tx so record operations
// can run inside or outside a transaction.
type sqlExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

func OpenDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	return db, nil
}

func EnsureSchema(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("database is nil")
	}

	createSQL := `
	CREATE TABLE IF NOT EXISTS rolls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		path TEXT NOT NULL DEFAULT '',
		film_stock TEXT NOT NULL DEFAULT '',
		camera TEXT NOT NULL DEFAULT '',
		lens TEXT NOT NULL DEFAULT '',
		shoot_date TEXT NOT NULL,
		lab_info TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		lat REAL NULL,
		lon REAL NULL,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS photos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		roll_id INTEGER NOT NULL REFERENCES rolls(id) ON DELETE CASCADE,
		filename TEXT NOT NULL,
		file_path TEXT NOT NULL,
		thumbnail_path TEXT NOT NULL DEFAULT '',
		preview_path TEXT NOT NULL DEFAULT '',
		rating INTEGER NOT NULL DEFAULT 0,
		is_cover INTEGER NOT NULL DEFAULT 0,
		is_favorite INTEGER NOT NULL DEFAULT 0,
		lat REAL NULL,
		lon REAL NULL,
		city TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		exif_synced INTEGER NOT NULL DEFAULT 0,
		exif_written_at TEXT NOT NULL DEFAULT '',
		exif_data_hash TEXT NOT NULL DEFAULT '',
		exif_user_comment TEXT NOT NULL DEFAULT '',
		exif_description TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_photos_roll ON photos(roll_id);
	CREATE INDEX IF NOT EXISTS idx_photos_roll_cover ON photos(roll_id, is_cover);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY NOT NULL,
		value TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := db.Exec(createSQL); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}
