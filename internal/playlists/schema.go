package playlists

import "database/sql"

// InitSchema creates the playlist tables and the reserved favorites
// playlist. Called by the state manager on open; safe to call
// repeatedly.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS playlists (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			last_used_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS playlist_tracks (
			playlist_id INTEGER NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
			track_key TEXT NOT NULL,
			position INTEGER NOT NULL,
			track_id TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			origin TEXT NOT NULL DEFAULT '',
			external_id TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			artist TEXT NOT NULL DEFAULT '',
			album TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL DEFAULT 0,
			path TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (playlist_id, track_key)
		);

		CREATE INDEX IF NOT EXISTS idx_playlist_tracks_key
			ON playlist_tracks(track_key);

		INSERT OR IGNORE INTO playlists (id, name, created_at, last_used_at)
		VALUES (1, 'Favorites', unixepoch(), unixepoch());
	`)
	return err
}
