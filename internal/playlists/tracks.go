package playlists

import (
	"database/sql"
	"time"

	dbutil "github.com/lnicolet/cadence/internal/db"
	"github.com/lnicolet/cadence/internal/track"
)

// AddTrack appends a track to a playlist. Adding a composite key that
// is already a member is a no-op, so membership stays idempotent.
func (s *Store) AddTrack(playlistID int64, t track.Track) error {
	return dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		var next int
		err := tx.QueryRow(`
			SELECT COALESCE(MAX(position), -1) + 1 FROM playlist_tracks
			WHERE playlist_id = ?
		`, playlistID).Scan(&next)
		if err != nil {
			return err
		}

		_, err = tx.Exec(`
			INSERT OR IGNORE INTO playlist_tracks
				(playlist_id, track_key, position, track_id, source, origin,
				 external_id, title, artist, album, duration_ms, path)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, playlistID, t.Key(), next, t.ID, t.Source, t.Origin,
			t.ExternalID, t.Title, t.Artist, t.Album,
			t.Duration.Milliseconds(), t.Path)
		if err != nil {
			return err
		}

		_, err = tx.Exec(`UPDATE playlists SET last_used_at = ? WHERE id = ?`,
			time.Now().Unix(), playlistID)
		return err
	})
}

// RemoveTrack removes a composite key from a playlist.
func (s *Store) RemoveTrack(playlistID int64, key string) error {
	_, err := s.db.Exec(`
		DELETE FROM playlist_tracks
		WHERE playlist_id = ? AND track_key = ?
	`, playlistID, key)
	return err
}

// Contains reports whether a composite key belongs to a playlist.
func (s *Store) Contains(playlistID int64, key string) (bool, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM playlist_tracks
		WHERE playlist_id = ? AND track_key = ?
	`, playlistID, key).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Tracks returns a playlist's tracks in position order.
func (s *Store) Tracks(playlistID int64) ([]track.Track, error) {
	rows, err := s.db.Query(`
		SELECT track_id, source, origin, external_id, title, artist, album,
		       duration_ms, path
		FROM playlist_tracks
		WHERE playlist_id = ?
		ORDER BY position
	`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTracks(rows)
}

func scanTracks(rows *sql.Rows) ([]track.Track, error) {
	var out []track.Track
	for rows.Next() {
		var t track.Track
		var durationMS int64
		err := rows.Scan(&t.ID, &t.Source, &t.Origin, &t.ExternalID,
			&t.Title, &t.Artist, &t.Album, &durationMS, &t.Path)
		if err != nil {
			return nil, err
		}
		t.Duration = time.Duration(durationMS) * time.Millisecond
		t.Local = t.Source == track.SourceLocal && t.Path != ""
		out = append(out, t)
	}
	return out, rows.Err()
}
