package library

import "database/sql"

// InitSchema creates the library tables. Called by the state manager on
// open; safe to call repeatedly.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS library_tracks (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL UNIQUE,
			mtime INTEGER NOT NULL,
			title TEXT NOT NULL,
			artist TEXT NOT NULL DEFAULT '',
			album TEXT NOT NULL DEFAULT '',
			track_number INTEGER,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			origin TEXT NOT NULL DEFAULT '',
			external_id TEXT NOT NULL DEFAULT '',
			added_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_library_tracks_origin
			ON library_tracks(origin, external_id);
		CREATE INDEX IF NOT EXISTS idx_library_tracks_artist
			ON library_tracks(artist);
	`)
	return err
}
