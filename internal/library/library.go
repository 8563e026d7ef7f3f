// Package library maintains the local track index in SQLite: scanned
// files, their tags, and the remote origin of imported downloads. It is
// the authoritative, lowest-latency search source.
package library

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lnicolet/cadence/internal/track"
)

// Library wraps the local index tables. The schema is created by the
// state manager that owns the database handle.
type Library struct {
	db *sql.DB
}

// New creates a Library over an open database.
func New(db *sql.DB) *Library {
	return &Library{db: db}
}

// Search returns local tracks matching the query against title, artist
// and album, best matches first.
func (l *Library) Search(query string) ([]track.Track, error) {
	pattern := "%" + query + "%"
	rows, err := l.db.Query(`
		SELECT id, path, title, artist, album, track_number, duration_ms, origin, external_id
		FROM library_tracks
		WHERE title LIKE ? OR artist LIKE ? OR album LIKE ?
		ORDER BY
			CASE WHEN title LIKE ? THEN 0 ELSE 1 END,
			artist COLLATE NOCASE, album COLLATE NOCASE, track_number
		LIMIT 50
	`, pattern, pattern, pattern, query+"%")
	if err != nil {
		return nil, fmt.Errorf("search library: %w", err)
	}
	defer rows.Close()

	return scanTracks(rows)
}

// TrackByKey returns the local track with the given composite key, or nil.
func (l *Library) TrackByKey(key string) (*track.Track, error) {
	rows, err := l.db.Query(`
		SELECT id, path, title, artist, album, track_number, duration_ms, origin, external_id
		FROM library_tracks
		WHERE id = ? OR (external_id != '' AND origin || ':' || external_id = ?)
		LIMIT 1
	`, key, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks, err := scanTracks(rows)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, nil
	}
	return &tracks[0], nil
}

// IsDownloaded reports whether a composite key has a local copy.
func (l *Library) IsDownloaded(key string) bool {
	t, err := l.TrackByKey(key)
	return err == nil && t != nil
}

// KeySet returns the composite keys of every local track, for search
// deduplication against remote results.
func (l *Library) KeySet() (map[string]struct{}, error) {
	rows, err := l.db.Query(`SELECT id, origin, external_id FROM library_tracks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var id, origin, externalID string
		if err := rows.Scan(&id, &origin, &externalID); err != nil {
			return nil, err
		}
		if externalID != "" {
			keys[origin+":"+externalID] = struct{}{}
		} else {
			keys[id] = struct{}{}
		}
	}
	return keys, rows.Err()
}

// ImportRemote records a downloaded remote track at path, preserving its
// origin so the composite key survives the import.
func (l *Library) ImportRemote(t track.Track, path string) error {
	now := time.Now().Unix()
	_, err := l.db.Exec(`
		INSERT INTO library_tracks (id, path, mtime, title, artist, album, track_number, duration_ms, origin, external_id, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			origin = excluded.origin,
			external_id = excluded.external_id,
			updated_at = excluded.updated_at
	`, t.ID, path, now, t.Title, t.Artist, t.Album, t.TrackNum,
		t.Duration.Milliseconds(), string(t.Source), t.ExternalID, now, now)
	if err != nil {
		return fmt.Errorf("import track: %w", err)
	}
	return nil
}

// Len returns the number of indexed tracks.
func (l *Library) Len() (int, error) {
	var n int
	err := l.db.QueryRow(`SELECT COUNT(*) FROM library_tracks`).Scan(&n)
	return n, err
}

func scanTracks(rows *sql.Rows) ([]track.Track, error) {
	var tracks []track.Track
	for rows.Next() {
		var (
			t          track.Track
			trackNum   sql.NullInt64
			durationMS int64
			origin     string
		)
		err := rows.Scan(&t.ID, &t.Path, &t.Title, &t.Artist, &t.Album,
			&trackNum, &durationMS, &origin, &t.ExternalID)
		if err != nil {
			return nil, err
		}
		t.Source = track.SourceLocal
		t.Origin = track.Source(origin)
		t.TrackNum = int(trackNum.Int64)
		t.Duration = time.Duration(durationMS) * time.Millisecond
		t.Quality = track.QualityLocal
		t.Local = true
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}
