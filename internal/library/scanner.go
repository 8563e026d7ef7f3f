package library

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/google/uuid"
)

// audioExtensions are the file types the scanner indexes.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".wav":  true,
	".m4a":  true,
	".opus": true,
}

// ScanResult summarizes a scan pass.
type ScanResult struct {
	Added   int
	Updated int
	Skipped int
	Errors  []string
}

// Scan walks the source directories and indexes audio files. Files whose
// mtime is unchanged since the last scan are skipped.
func (l *Library) Scan(sources []string) (ScanResult, error) {
	var result ScanResult

	for _, source := range sources {
		err := filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if !audioExtensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
				return nil
			}

			switch added, err := l.indexFile(path, info.ModTime()); {
			case err != nil:
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
			case added == indexAdded:
				result.Added++
			case added == indexUpdated:
				result.Updated++
			default:
				result.Skipped++
			}
			return nil
		})
		if err != nil {
			return result, fmt.Errorf("scan %s: %w", source, err)
		}
	}
	return result, nil
}

type indexOutcome int

const (
	indexSkipped indexOutcome = iota
	indexAdded
	indexUpdated
)

func (l *Library) indexFile(path string, modTime time.Time) (indexOutcome, error) {
	mtime := modTime.Unix()

	var existingMtime int64
	known := true
	err := l.db.QueryRow(`SELECT mtime FROM library_tracks WHERE path = ?`, path).
		Scan(&existingMtime)
	if err != nil {
		known = false
	}
	if known && existingMtime == mtime {
		return indexSkipped, nil
	}

	title, artist, album, trackNum := readTags(path)
	now := time.Now().Unix()

	if known {
		_, err = l.db.Exec(`
			UPDATE library_tracks
			SET mtime = ?, title = ?, artist = ?, album = ?, track_number = ?, updated_at = ?
			WHERE path = ?
		`, mtime, title, artist, album, trackNum, now, path)
		if err != nil {
			return indexSkipped, err
		}
		return indexUpdated, nil
	}

	_, err = l.db.Exec(`
		INSERT INTO library_tracks (id, path, mtime, title, artist, album, track_number, duration_ms, origin, external_id, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, '', '', ?, ?)
	`, uuid.NewString(), path, mtime, title, artist, album, trackNum, now, now)
	if err != nil {
		return indexSkipped, err
	}
	return indexAdded, nil
}

// readTags extracts metadata, falling back to the filename when the file
// has no usable tags.
func readTags(path string) (title, artist, album string, trackNum int) {
	title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	f, err := os.Open(path)
	if err != nil {
		return title, "", "", 0
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return title, "", "", 0
	}

	if t := strings.TrimSpace(m.Title()); t != "" {
		title = t
	}
	artist = strings.TrimSpace(m.Artist())
	album = strings.TrimSpace(m.Album())
	trackNum, _ = m.Track()
	return title, artist, album, trackNum
}
