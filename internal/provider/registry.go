package provider

import (
	"sync"

	"github.com/lnicolet/cadence/internal/track"
)

// defaultOrder is the merge order used until the user configures one.
var defaultOrder = []track.Source{
	track.SourceLocal,
	track.SourceStreaming,
	track.SourceSubsonic,
	track.SourceJellyfin,
}

// Registry holds the set of configured sources. The local source is always
// present; remote sources are registered only once their credentials
// checked out. Registration happens during startup, lookups afterwards.
type Registry struct {
	mu        sync.RWMutex
	providers map[track.Source]Provider
	order     []track.Source
}

// NewRegistry creates an empty registry with the default source order.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[track.Source]Provider),
		order:     append([]track.Source(nil), defaultOrder...),
	}
}

// Register adds a configured provider. Registering the same source twice
// replaces the earlier instance.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Source()] = p
}

// Get returns the provider for a source, if configured.
func (r *Registry) Get(s track.Source) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[s]
	return p, ok
}

// IsConfigured reports whether a source has a registered provider.
func (r *Registry) IsConfigured(s track.Source) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[s]
	return ok
}

// ListEnabled returns the configured sources in the user's preferred order.
func (r *Registry) ListEnabled() []track.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	enabled := make([]track.Source, 0, len(r.providers))
	for _, s := range r.order {
		if _, ok := r.providers[s]; ok {
			enabled = append(enabled, s)
		}
	}
	// Sources registered but absent from the order preference go last.
	for s := range r.providers {
		if !containsSource(r.order, s) {
			enabled = append(enabled, s)
		}
	}
	return enabled
}

// SetOrder replaces the user's source-order preference. Unknown sources
// are ignored; sources missing from the list keep a slot after it.
func (r *Registry) SetOrder(order []track.Source) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cleaned := make([]track.Source, 0, len(order))
	for _, s := range order {
		if s.Valid() && !containsSource(cleaned, s) {
			cleaned = append(cleaned, s)
		}
	}
	r.order = cleaned
}

// Order returns a copy of the current source-order preference.
func (r *Registry) Order() []track.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]track.Source(nil), r.order...)
}

// Capabilities returns the capability descriptor for a source. Unregistered
// sources report the zero descriptor.
func (r *Registry) Capabilities(s track.Source) Capabilities {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.providers[s]; ok {
		return p.Capabilities()
	}
	return Capabilities{}
}

func containsSource(list []track.Source, s track.Source) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
