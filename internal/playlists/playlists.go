// Package playlists stores favorites and playlist membership keyed by
// composite track key, so the same logical track reached through any
// source shares one membership state.
package playlists

import (
	"database/sql"
	"time"
)

// FavoritesPlaylistID is the reserved playlist holding liked tracks.
const FavoritesPlaylistID int64 = 1

// Playlist is playlist metadata without its tracks.
type Playlist struct {
	ID         int64
	Name       string
	CreatedAt  int64
	LastUsedAt int64
}

// Store provides database operations for playlists and favorites.
type Store struct {
	db *sql.DB
}

// New creates a store over an initialized database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create creates a new playlist and returns its id.
func (s *Store) Create(name string) (int64, error) {
	now := time.Now().Unix()
	result, err := s.db.Exec(`
		INSERT INTO playlists (name, created_at, last_used_at)
		VALUES (?, ?, ?)
	`, name, now, now)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// Rename renames a playlist.
func (s *Store) Rename(id int64, name string) error {
	_, err := s.db.Exec(`UPDATE playlists SET name = ? WHERE id = ?`, name, id)
	return err
}

// Delete deletes a playlist and its memberships. The favorites playlist
// cannot be deleted.
func (s *Store) Delete(id int64) error {
	if id == FavoritesPlaylistID {
		return nil
	}
	_, err := s.db.Exec(`DELETE FROM playlists WHERE id = ?`, id)
	return err
}

// List returns all user playlists, favorites excluded, most recently
// used first.
func (s *Store) List() ([]Playlist, error) {
	rows, err := s.db.Query(`
		SELECT id, name, created_at, last_used_at FROM playlists
		WHERE id != ?
		ORDER BY last_used_at DESC
	`, FavoritesPlaylistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Playlist
	for rows.Next() {
		var p Playlist
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.LastUsedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Touch bumps a playlist's last-used timestamp.
func (s *Store) Touch(id int64) error {
	_, err := s.db.Exec(`UPDATE playlists SET last_used_at = ? WHERE id = ?`, time.Now().Unix(), id)
	return err
}
