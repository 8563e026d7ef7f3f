package subsonic

import (
	"context"
	"time"

	"github.com/lnicolet/cadence/internal/provider"
	"github.com/lnicolet/cadence/internal/track"
)

const searchLimit = 30

// Stream URLs carry a one-shot auth token; treat them as short-lived so
// the transport always resolves fresh.
const streamURLTTL = 10 * time.Minute

// Provider adapts a Subsonic server to the provider interface.
type Provider struct {
	client *Client
}

// New creates the Subsonic provider.
func New(client *Client) *Provider {
	return &Provider{client: client}
}

func (p *Provider) Source() track.Source {
	return track.SourceSubsonic
}

func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		Searchable:     true,
		NetworkResolve: true,
		DualStream:     true,
	}
}

func (p *Provider) Search(ctx context.Context, query string) ([]track.Track, error) {
	songs, err := p.client.Search3(ctx, query, searchLimit)
	if err != nil {
		return nil, &provider.Error{Source: track.SourceSubsonic, Err: err}
	}

	tracks := make([]track.Track, 0, len(songs))
	for _, s := range songs {
		tracks = append(tracks, track.Track{
			ID:         s.ID,
			Source:     track.SourceSubsonic,
			ExternalID: s.ID,
			Title:      s.Title,
			Artist:     s.Artist,
			Album:      s.Album,
			TrackNum:   s.Track,
			Duration:   time.Duration(s.Duration) * time.Second,
			CoverArt:   s.CoverArt,
			Quality:    qualityOf(s),
		})
	}
	return tracks, nil
}

// Resolve builds a stream URL with a fresh auth token. No round-trip is
// needed, but the URL is still minted per attempt and never reused.
func (p *Provider) Resolve(_ context.Context, externalID string, pref track.Quality) (provider.Stream, error) {
	return provider.Stream{
		URL:       p.client.StreamURL(externalID, maxBitRate(pref)),
		Quality:   pref,
		ExpiresAt: time.Now().Add(streamURLTTL),
	}, nil
}

func qualityOf(s child) track.Quality {
	switch {
	case s.Suffix == "flac" || s.Suffix == "alac":
		return track.QualityLossless
	case s.BitRate >= 256:
		return track.QualityHigh
	case s.BitRate > 0:
		return track.QualityLow
	default:
		return track.QualityUnknown
	}
}

// maxBitRate maps the preference to the server-side transcode cap; 0
// means no cap (raw stream).
func maxBitRate(pref track.Quality) int {
	switch pref {
	case track.QualityLossless:
		return 0
	case track.QualityHigh:
		return 320
	case track.QualityLow:
		return 128
	default:
		return 0
	}
}

// Verify Provider implements provider.Provider at compile time.
var _ provider.Provider = (*Provider)(nil)
