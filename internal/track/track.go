// Package track defines the unified track model shared by every source.
package track

import "time"

// Source identifies where a track comes from.
type Source string

const (
	SourceLocal     Source = "local"
	SourceStreaming Source = "streaming"
	SourceSubsonic  Source = "subsonic"
	SourceJellyfin  Source = "jellyfin"
)

// Valid returns true for a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceLocal, SourceStreaming, SourceSubsonic, SourceJellyfin:
		return true
	}
	return false
}

// Quality describes the audio quality of a playable stream.
type Quality int

const (
	QualityUnknown Quality = iota
	QualityLow
	QualityHigh
	QualityLossless
	// QualityLocal overrides the remote quality for tracks played from disk.
	QualityLocal
)

// String returns the quality name.
func (q Quality) String() string {
	switch q {
	case QualityLow:
		return "Low"
	case QualityHigh:
		return "High"
	case QualityLossless:
		return "Lossless"
	case QualityLocal:
		return "Local"
	default:
		return "Unknown"
	}
}

// Track is the canonical representation of a track regardless of origin.
// Values are constructed by per-source adapters and never mutated.
type Track struct {
	ID     string // source-local or synthetic id
	Source Source
	// Origin is the source that first issued ExternalID. It differs from
	// Source for tracks imported into the local library from a remote
	// catalog, so the composite key survives the import.
	Origin     Source
	ExternalID string // source-native id, empty for local-only tracks
	Title      string
	Artist     string
	Album      string
	TrackNum   int
	Duration   time.Duration
	CoverArt   string // URL or local path
	Path       string // filesystem path, local tracks only
	Quality    Quality
	Local      bool // playable from disk without any network call
}

// Key returns the composite key used for favorites, playlist membership
// and cross-source deduplication: "origin:externalID" when an external id
// exists, otherwise the raw id. A track imported locally from a remote
// source keeps its origin and external id, so the library copy and a live
// search result from the remote catalog yield the same key.
func (t Track) Key() string {
	if t.ExternalID != "" {
		origin := t.Origin
		if origin == "" {
			origin = t.Source
		}
		return string(origin) + ":" + t.ExternalID
	}
	return t.ID
}

// SameIdentity reports whether two tracks denote the same logical track.
func (t Track) SameIdentity(other Track) bool {
	return t.Key() == other.Key()
}
