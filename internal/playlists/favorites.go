package playlists

import "github.com/lnicolet/cadence/internal/track"

// ToggleFavorite flips a track's favorite state and returns the new
// state. Toggling is idempotent per composite key: the library copy of
// an imported track and the live remote search result share one
// favorite state because they share one key.
func (s *Store) ToggleFavorite(t track.Track) (bool, error) {
	key := t.Key()
	isFav, err := s.Contains(FavoritesPlaylistID, key)
	if err != nil {
		return false, err
	}

	if isFav {
		if err := s.RemoveTrack(FavoritesPlaylistID, key); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := s.AddTrack(FavoritesPlaylistID, t); err != nil {
		return false, err
	}
	return true, nil
}

// IsFavorite reports favorite membership by composite key. Lookup
// failures read as not-favorite; this feeds render-time flags where an
// error has nowhere useful to go.
func (s *Store) IsFavorite(key string) bool {
	fav, err := s.Contains(FavoritesPlaylistID, key)
	if err != nil {
		return false
	}
	return fav
}

// Favorites returns the liked tracks in the order they were added.
func (s *Store) Favorites() ([]track.Track, error) {
	return s.Tracks(FavoritesPlaylistID)
}

// FavoriteKeys returns all liked composite keys for efficient lookup.
func (s *Store) FavoriteKeys() (map[string]bool, error) {
	rows, err := s.db.Query(`
		SELECT track_key FROM playlist_tracks
		WHERE playlist_id = ?
	`, FavoritesPlaylistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys[key] = true
	}
	return keys, rows.Err()
}
