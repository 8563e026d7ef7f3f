// Package local exposes the local library as a provider. It is always
// configured and never touches the network.
package local

import (
	"context"
	"errors"

	"github.com/lnicolet/cadence/internal/library"
	"github.com/lnicolet/cadence/internal/provider"
	"github.com/lnicolet/cadence/internal/track"
)

// Provider adapts the library to the provider interface.
type Provider struct {
	lib *library.Library
}

// New creates the local provider.
func New(lib *library.Library) *Provider {
	return &Provider{lib: lib}
}

func (p *Provider) Source() track.Source {
	return track.SourceLocal
}

func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		Searchable:     true,
		NetworkResolve: false,
		DualStream:     true,
	}
}

func (p *Provider) Search(_ context.Context, query string) ([]track.Track, error) {
	return p.lib.Search(query)
}

// Resolve is never called for local tracks: the resolver plays them by
// path directly. Kept to satisfy the interface.
func (p *Provider) Resolve(context.Context, string, track.Quality) (provider.Stream, error) {
	return provider.Stream{}, errors.New("local tracks resolve by path")
}

// Verify Provider implements provider.Provider at compile time.
var _ provider.Provider = (*Provider)(nil)
