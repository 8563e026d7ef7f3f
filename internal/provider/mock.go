package provider

import (
	"context"
	"sync"

	"github.com/lnicolet/cadence/internal/track"
)

// Mock is a test double for Provider.
type Mock struct {
	mu sync.Mutex

	source track.Source
	caps   Capabilities

	searchResults []track.Track
	searchErr     error
	searchDelay   func(ctx context.Context) error // optional block until ctx done
	searchCalls   []string

	stream       Stream
	resolveErr   error
	resolveGate  <-chan struct{} // optional block until released
	resolveCalls []string
}

// NewMock creates a mock provider for the given source.
func NewMock(source track.Source) *Mock {
	return &Mock{
		source: source,
		caps:   Capabilities{Searchable: true, NetworkResolve: true, DualStream: true},
	}
}

func (m *Mock) Source() track.Source { return m.source }

func (m *Mock) Capabilities() Capabilities {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.caps
}

func (m *Mock) Search(ctx context.Context, query string) ([]track.Track, error) {
	m.mu.Lock()
	m.searchCalls = append(m.searchCalls, query)
	delay := m.searchDelay
	results, err := m.searchResults, m.searchErr
	m.mu.Unlock()

	if delay != nil {
		if err := delay(ctx); err != nil {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (m *Mock) Resolve(ctx context.Context, externalID string, _ track.Quality) (Stream, error) {
	m.mu.Lock()
	m.resolveCalls = append(m.resolveCalls, externalID)
	gate := m.resolveGate
	stream, err := m.stream, m.resolveErr
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Stream{}, ctx.Err()
		}
	}
	if err != nil {
		return Stream{}, err
	}
	return stream, nil
}

// Test helpers

func (m *Mock) SetCapabilities(c Capabilities) {
	m.mu.Lock()
	m.caps = c
	m.mu.Unlock()
}

func (m *Mock) SetSearchResults(tracks []track.Track) {
	m.mu.Lock()
	m.searchResults = tracks
	m.mu.Unlock()
}

func (m *Mock) SetSearchError(err error) {
	m.mu.Lock()
	m.searchErr = err
	m.mu.Unlock()
}

// BlockSearchUntilCancel makes Search block until its context is done.
func (m *Mock) BlockSearchUntilCancel() {
	m.mu.Lock()
	m.searchDelay = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	m.mu.Unlock()
}

// BlockResolveUntil makes Resolve wait until release is closed (or the
// context is cancelled).
func (m *Mock) BlockResolveUntil(release <-chan struct{}) {
	m.mu.Lock()
	m.resolveGate = release
	m.mu.Unlock()
}

func (m *Mock) SetStream(s Stream) {
	m.mu.Lock()
	m.stream = s
	m.mu.Unlock()
}

func (m *Mock) SetResolveError(err error) {
	m.mu.Lock()
	m.resolveErr = err
	m.mu.Unlock()
}

func (m *Mock) SearchCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.searchCalls...)
}

func (m *Mock) ResolveCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.resolveCalls...)
}

// Verify Mock implements Provider at compile time.
var _ Provider = (*Mock)(nil)
