package state

import (
	"database/sql"
	"errors"
	"time"
)

// PlayerState is the restorable part of the transport: volume, modes and
// the queue cursor. Playback position is intentionally not saved.
type PlayerState struct {
	Volume       float64
	RepeatMode   int
	Shuffle      bool
	Crossfade    bool
	CrossfadeDur time.Duration
	CurrentIndex int
}

// GetPlayer returns the saved player state, or sane defaults when the
// database is fresh.
func (m *Manager) GetPlayer() (*PlayerState, error) {
	var s PlayerState
	var crossfadeMS int64

	row := m.db.QueryRow(`
		SELECT volume, repeat_mode, shuffle, crossfade, crossfade_ms, current_index
		FROM player_state WHERE id = 1
	`)
	err := row.Scan(&s.Volume, &s.RepeatMode, &s.Shuffle, &s.Crossfade, &crossfadeMS, &s.CurrentIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return &PlayerState{Volume: 1.0, CurrentIndex: -1}, nil
	}
	if err != nil {
		return nil, err
	}

	s.CrossfadeDur = time.Duration(crossfadeMS) * time.Millisecond
	return &s, nil
}

func savePlayer(db *sql.DB, s PlayerState) error {
	_, err := db.Exec(`
		INSERT INTO player_state (id, volume, repeat_mode, shuffle, crossfade, crossfade_ms, current_index)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			volume = excluded.volume,
			repeat_mode = excluded.repeat_mode,
			shuffle = excluded.shuffle,
			crossfade = excluded.crossfade,
			crossfade_ms = excluded.crossfade_ms,
			current_index = excluded.current_index
	`, s.Volume, s.RepeatMode, s.Shuffle, s.Crossfade, s.CrossfadeDur.Milliseconds(), s.CurrentIndex)
	return err
}
