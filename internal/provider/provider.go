// Package provider defines the source abstraction behind search and
// playback: each configured backend implements Provider, and the Registry
// tracks which ones are enabled and what they are capable of.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/lnicolet/cadence/internal/track"
)

// Capabilities describes what a source supports. The core never branches
// on the concrete source type past this descriptor.
type Capabilities struct {
	// Searchable indicates the source answers free-text queries.
	Searchable bool
	// NetworkResolve indicates resolving a play reference requires a
	// network round-trip and the returned URL is time-limited.
	NetworkResolve bool
	// DualStream indicates the source tolerates two concurrent streams,
	// which crossfade transitions require.
	DualStream bool
}

// Stream is a freshly resolved playable reference for a remote track.
type Stream struct {
	URL       string
	Quality   track.Quality
	ExpiresAt time.Time // zero when the source gave no expiry hint
}

// Provider is implemented by each configured source adapter.
type Provider interface {
	Source() track.Source
	Capabilities() Capabilities

	// Search returns tracks matching the query, already normalized to
	// track.Track by the adapter. Honors ctx cancellation.
	Search(ctx context.Context, query string) ([]track.Track, error)

	// Resolve issues a fresh stream reference for the given source-native
	// id. Results must never be cached across playback attempts.
	Resolve(ctx context.Context, externalID string, pref track.Quality) (Stream, error)
}

// Error wraps a failure from a specific source so callers can surface
// which backend misbehaved without unwinding playback.
type Error struct {
	Source track.Source
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
