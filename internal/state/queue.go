package state

import (
	"database/sql"
	"time"

	dbutil "github.com/lnicolet/cadence/internal/db"
	"github.com/lnicolet/cadence/internal/track"
)

// GetQueue returns the saved queue contents in order.
func (m *Manager) GetQueue() ([]track.Track, error) {
	rows, err := m.db.Query(`
		SELECT track_id, source, origin, external_id, title, artist, album, duration_ms, path
		FROM queue_tracks
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []track.Track
	for rows.Next() {
		var t track.Track
		var source, origin, externalID, artist, album, path sql.NullString
		var durationMS int64

		err := rows.Scan(&t.ID, &source, &origin, &externalID, &t.Title, &artist, &album, &durationMS, &path)
		if err != nil {
			return nil, err
		}

		t.Source = track.Source(source.String)
		t.Origin = track.Source(origin.String)
		t.ExternalID = externalID.String
		t.Artist = artist.String
		t.Album = album.String
		t.Duration = time.Duration(durationMS) * time.Millisecond
		t.Path = path.String
		t.Local = t.Source == track.SourceLocal && t.Path != ""
		tracks = append(tracks, t)
	}

	return tracks, rows.Err()
}

// SaveQueue replaces the saved queue with the given tracks. Called on
// shutdown and after queue edits, not on every tick.
func (m *Manager) SaveQueue(tracks []track.Track) error {
	return dbutil.WithTx(m.db, func(tx *sql.Tx) error {
		// Clear existing queue
		_, err := tx.Exec(`DELETE FROM queue_tracks`)
		if err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO queue_tracks (position, track_id, source, origin, external_id, title, artist, album, duration_ms, path)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, t := range tracks {
			_, err = stmt.Exec(i, t.ID, string(t.Source), string(t.Origin), t.ExternalID,
				t.Title, t.Artist, t.Album, t.Duration.Milliseconds(), t.Path)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
