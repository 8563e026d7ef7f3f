// Package resolve turns a unified track into something the audio session
// can open, immediately before playback. Remote URLs are time-limited, so
// resolution runs fresh on every (re)load and is never cached.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lnicolet/cadence/internal/provider"
	"github.com/lnicolet/cadence/internal/track"
)

// ErrSourceUnavailable means a local file has gone missing. Fatal to that
// track; the transport skips it.
var ErrSourceUnavailable = errors.New("source unavailable")

// PlayableRef is a concrete reference the audio session can open.
type PlayableRef struct {
	URI       string // filesystem path or stream URL
	Local     bool
	Quality   track.Quality
	ExpiresAt time.Time // zero for local files
}

// Expired reports whether the reference has outlived its expiry hint.
func (r PlayableRef) Expired(now time.Time) bool {
	return !r.Local && !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// Resolver resolves tracks against the provider registry.
type Resolver struct {
	registry *provider.Registry
	quality  track.Quality
}

// New creates a resolver with the user's quality preference.
func New(registry *provider.Registry, quality track.Quality) *Resolver {
	return &Resolver{registry: registry, quality: quality}
}

// Resolve obtains a playable reference for a track. Local tracks resolve
// to their path with at most a stat; remote tracks get a freshly issued
// stream URL from their provider.
func (r *Resolver) Resolve(ctx context.Context, t track.Track) (PlayableRef, error) {
	if t.Local || t.Source == track.SourceLocal {
		if t.Path == "" {
			return PlayableRef{}, fmt.Errorf("%w: track %q has no path", ErrSourceUnavailable, t.ID)
		}
		if _, err := os.Stat(t.Path); err != nil {
			return PlayableRef{}, fmt.Errorf("%w: %s", ErrSourceUnavailable, t.Path)
		}
		return PlayableRef{URI: t.Path, Local: true, Quality: track.QualityLocal}, nil
	}

	p, ok := r.registry.Get(t.Source)
	if !ok {
		return PlayableRef{}, &provider.Error{
			Source: t.Source,
			Err:    errors.New("source not configured"),
		}
	}

	stream, err := p.Resolve(ctx, t.ExternalID, r.quality)
	if err != nil {
		var perr *provider.Error
		if errors.As(err, &perr) {
			return PlayableRef{}, err
		}
		return PlayableRef{}, &provider.Error{Source: t.Source, Err: err}
	}

	return PlayableRef{
		URI:       stream.URL,
		Quality:   stream.Quality,
		ExpiresAt: stream.ExpiresAt,
	}, nil
}
