// Package search fans a query out to every enabled provider and merges
// the results into one deduplicated, ranked list. Responses are tagged
// with a generation counter so anything arriving for a superseded query
// is discarded silently.
package search

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/lnicolet/cadence/internal/provider"
	"github.com/lnicolet/cadence/internal/track"
)

const (
	// defaultDebounce is how long the query must stay stable before any
	// provider is queried.
	defaultDebounce = 150 * time.Millisecond
	// minQueryLen is the shortest query, in runes, worth searching for.
	// Below it, results are cleared and no provider is contacted.
	minQueryLen = 2
)

// Local is the local-library side of a search, assumed low-latency.
type Local interface {
	Search(query string) ([]track.Track, error)
}

// FavoriteChecker reports favorite membership by composite key.
type FavoriteChecker interface {
	IsFavorite(key string) bool
}

// DownloadStatus reports download state by composite key.
type DownloadStatus interface {
	IsDownloaded(key string) bool
	ProgressOf(key string) (float64, bool)
}

// Result is one entry in the merged list. The membership flags are
// joined in at render time, not stored with the buffers, so they stay
// live without re-running the search.
type Result struct {
	Track        track.Track
	IsFavorite   bool
	IsDownloaded bool
	Downloading  bool
	Progress     float64
}

// Snapshot is the merged view of one search session at a point in time.
type Snapshot struct {
	Query      string
	Generation uint64
	Results    []Result
	// Loading lists providers still in flight; Failed carries providers
	// that returned an error instead of results.
	Loading []track.Source
	Failed  map[track.Source]error
}

// Aggregator owns the search session lifecycle: debounce, fan-out,
// staleness filtering, merge and render.
type Aggregator struct {
	mu sync.Mutex

	registry  *provider.Registry
	local     Local
	favorites FavoriteChecker
	downloads DownloadStatus

	debounce time.Duration
	timer    *time.Timer
	pending  string

	gen     uint64
	query   string
	cancel  context.CancelFunc
	buffers map[track.Source][]track.Track
	loading map[track.Source]bool
	failed  map[track.Source]error
	// localKeys holds the composite keys of the local buffer; remote
	// results matching one are dropped before merge.
	localKeys map[string]struct{}

	updates chan Snapshot
	closed  bool
}

// New creates an aggregator. favorites and downloads may be nil, in
// which case the corresponding flags render as false.
func New(reg *provider.Registry, local Local, favorites FavoriteChecker, downloads DownloadStatus) *Aggregator {
	return &Aggregator{
		registry:  reg,
		local:     local,
		favorites: favorites,
		downloads: downloads,
		debounce:  defaultDebounce,
		buffers:   make(map[track.Source][]track.Track),
		loading:   make(map[track.Source]bool),
		failed:    make(map[track.Source]error),
		localKeys: make(map[string]struct{}),
		updates:   make(chan Snapshot, 1),
	}
}

// SetDebounce overrides the debounce interval. Zero disables debouncing
// (queries fire immediately).
func (a *Aggregator) SetDebounce(d time.Duration) {
	a.mu.Lock()
	a.debounce = d
	a.mu.Unlock()
}

// Updates returns a channel carrying the latest snapshot after every
// buffer change. Only the most recent snapshot is retained.
func (a *Aggregator) Updates() <-chan Snapshot {
	return a.updates
}

// SetQuery schedules a search for q after the debounce interval. A
// query below the minimum length clears everything immediately and
// queries nothing.
func (a *Aggregator) SetQuery(q string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}

	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}

	if utf8.RuneCountInString(q) < minQueryLen {
		a.supersedeLocked(q)
		a.emitLocked()
		return
	}

	a.pending = q
	if a.debounce <= 0 {
		a.startLocked(q)
		return
	}
	a.timer = time.AfterFunc(a.debounce, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.closed || a.pending != q {
			return
		}
		a.startLocked(q)
	})
}

// Cancel invalidates the current session and clears all buffers, e.g.
// when the search surface closes.
func (a *Aggregator) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.supersedeLocked("")
	a.emitLocked()
}

// Render computes the merged snapshot on demand: provider buffers are
// concatenated in the registry's configured order (never arrival
// order), and the live membership flags are joined in. Changing the
// provider order re-renders without re-querying.
func (a *Aggregator) Render() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.renderLocked()
}

// Close shuts the aggregator down.
func (a *Aggregator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	a.supersedeLocked("")
}

// supersedeLocked bumps the generation, cancels in-flight provider
// calls and clears all buffers.
func (a *Aggregator) supersedeLocked(query string) {
	a.gen++
	a.query = query
	a.pending = query
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.buffers = make(map[track.Source][]track.Track)
	a.loading = make(map[track.Source]bool)
	a.failed = make(map[track.Source]error)
	a.localKeys = make(map[string]struct{})
}

// startLocked begins a new search session for q.
func (a *Aggregator) startLocked(q string) {
	a.supersedeLocked(q)
	gen := a.gen

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	// Local results come first: lowest latency and authoritative for
	// dedup. The library is synchronous-feeling, so query it inline.
	if a.local != nil {
		if results, err := a.local.Search(q); err == nil {
			a.buffers[track.SourceLocal] = results
			for _, t := range results {
				a.localKeys[t.Key()] = struct{}{}
			}
		} else {
			a.failed[track.SourceLocal] = err
		}
	}

	for _, src := range a.registry.ListEnabled() {
		if src == track.SourceLocal {
			continue
		}
		p, ok := a.registry.Get(src)
		if !ok || !p.Capabilities().Searchable {
			continue
		}
		a.loading[src] = true
		go a.queryProvider(ctx, p, q, gen)
	}

	a.emitLocked()
}

// queryProvider runs one provider call and stores its buffer only if
// the session generation still matches on arrival.
func (a *Aggregator) queryProvider(ctx context.Context, p provider.Provider, q string, gen uint64) {
	results, err := p.Search(ctx, q)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || gen != a.gen {
		// Superseded; discard silently.
		return
	}

	src := p.Source()
	delete(a.loading, src)
	if err != nil {
		if ctx.Err() == nil {
			a.failed[src] = err
		}
		a.emitLocked()
		return
	}

	// Drop remote entries the local library already answered for.
	kept := results[:0]
	for _, t := range results {
		if _, dup := a.localKeys[t.Key()]; dup {
			continue
		}
		kept = append(kept, t)
	}
	a.buffers[src] = rankTracks(q, kept)
	a.emitLocked()
}

func (a *Aggregator) renderLocked() Snapshot {
	snap := Snapshot{
		Query:      a.query,
		Generation: a.gen,
		Failed:     make(map[track.Source]error, len(a.failed)),
	}
	for src, err := range a.failed {
		snap.Failed[src] = err
	}
	for src := range a.loading {
		snap.Loading = append(snap.Loading, src)
	}

	order := a.registry.Order()
	for _, src := range order {
		for _, t := range a.buffers[src] {
			snap.Results = append(snap.Results, a.resultFor(t))
		}
	}
	// Buffers for sources dropped from the order preference still render,
	// after the ordered ones.
	for src, buf := range a.buffers {
		if containsSource(order, src) {
			continue
		}
		for _, t := range buf {
			snap.Results = append(snap.Results, a.resultFor(t))
		}
	}
	return snap
}

func containsSource(list []track.Source, s track.Source) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// resultFor joins the live membership flags onto a buffered track.
func (a *Aggregator) resultFor(t track.Track) Result {
	r := Result{Track: t}
	key := t.Key()
	if a.favorites != nil {
		r.IsFavorite = a.favorites.IsFavorite(key)
	}
	if a.downloads != nil {
		r.IsDownloaded = a.downloads.IsDownloaded(key)
		if p, ok := a.downloads.ProgressOf(key); ok {
			r.Downloading = true
			r.Progress = p
		}
	}
	return r
}

// emitLocked pushes the latest snapshot, replacing any unread one.
func (a *Aggregator) emitLocked() {
	snap := a.renderLocked()
	select {
	case a.updates <- snap:
	default:
		select {
		case <-a.updates:
		default:
		}
		select {
		case a.updates <- snap:
		default:
		}
	}
}
