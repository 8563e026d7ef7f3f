package jellyfin

import (
	"context"
	"strings"
	"time"

	"github.com/lnicolet/cadence/internal/provider"
	"github.com/lnicolet/cadence/internal/track"
)

const searchLimit = 30

const streamURLTTL = 10 * time.Minute

// Provider adapts a Jellyfin server to the provider interface.
type Provider struct {
	client *Client
}

// New creates the Jellyfin provider.
func New(client *Client) *Provider {
	return &Provider{client: client}
}

func (p *Provider) Source() track.Source {
	return track.SourceJellyfin
}

func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		Searchable:     true,
		NetworkResolve: true,
		DualStream:     true,
	}
}

func (p *Provider) Search(ctx context.Context, query string) ([]track.Track, error) {
	items, err := p.client.SearchAudio(ctx, query, searchLimit)
	if err != nil {
		return nil, &provider.Error{Source: track.SourceJellyfin, Err: err}
	}

	tracks := make([]track.Track, 0, len(items))
	for _, it := range items {
		artist := it.AlbumArtist
		if len(it.Artists) > 0 {
			artist = strings.Join(it.Artists, ", ")
		}
		tracks = append(tracks, track.Track{
			ID:         it.ID,
			Source:     track.SourceJellyfin,
			ExternalID: it.ID,
			Title:      it.Name,
			Artist:     artist,
			Album:      it.Album,
			TrackNum:   it.IndexNumber,
			// RunTimeTicks are 100ns units.
			Duration:   time.Duration(it.RunTimeTicks) * 100 * time.Nanosecond,
			CoverArt:   it.ImageTags.Primary,
			Quality:    track.QualityUnknown,
		})
	}
	return tracks, nil
}

func (p *Provider) Resolve(_ context.Context, externalID string, pref track.Quality) (provider.Stream, error) {
	maxBitRate := 0
	switch pref {
	case track.QualityHigh:
		maxBitRate = 320
	case track.QualityLow:
		maxBitRate = 128
	}

	return provider.Stream{
		URL:       p.client.AudioStreamURL(externalID, maxBitRate),
		Quality:   pref,
		ExpiresAt: time.Now().Add(streamURLTTL),
	}, nil
}

// Verify Provider implements provider.Provider at compile time.
var _ provider.Provider = (*Provider)(nil)
