package scrobble

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/lnicolet/cadence/internal/playback"
	"github.com/lnicolet/cadence/internal/state"
	"github.com/lnicolet/cadence/internal/track"
)

const (
	// Last.fm scrobbling rules: tracks shorter than this never scrobble,
	// longer ones scrobble at the halfway point or after four minutes,
	// whichever comes first.
	minTrackLength    = 30 * time.Second
	scrobbleCap       = 4 * time.Minute
	retryInterval     = 5 * time.Minute
	maxRetryAttempts  = 10
	pendingMaxAge     = 14 * 24 * time.Hour
	submissionsPerSec = 1
)

// Submitter is the Last.fm API surface the scrobbler needs.
type Submitter interface {
	UpdateNowPlaying(t Track) error
	Scrobble(t Track) error
}

// PendingStore queues failed scrobbles for retry. *state.Manager satisfies it.
type PendingStore interface {
	AddPendingScrobble(s state.PendingScrobble) error
	GetPendingScrobbles() ([]state.PendingScrobble, error)
	DeletePendingScrobble(id int64) error
	UpdatePendingScrobbleAttempt(id int64, errMsg string) error
	DeleteOldPendingScrobbles(maxAge time.Duration) error
}

// Scrobbler watches playback events and submits plays to Last.fm.
type Scrobbler struct {
	client  Submitter
	store   PendingStore
	limiter *rate.Limiter

	current   *track.Track
	startedAt time.Time
	scrobbled bool

	stop chan struct{}
}

// New creates a scrobbler. Call Start to attach it to a playback service.
func New(client Submitter, store PendingStore) *Scrobbler {
	return &Scrobbler{
		client:  client,
		store:   store,
		limiter: rate.NewLimiter(rate.Limit(submissionsPerSec), 3),
		stop:    make(chan struct{}),
	}
}

// Start subscribes to the service and runs until Stop or service close.
func (s *Scrobbler) Start(svc playback.Service) {
	sub := svc.Subscribe()
	go s.run(sub)
}

// Stop halts event processing. Safe to call once.
func (s *Scrobbler) Stop() {
	close(s.stop)
}

func (s *Scrobbler) run(sub *playback.Subscription) {
	retry := time.NewTicker(retryInterval)
	defer retry.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-sub.Done:
			return
		case e := <-sub.TrackChanged:
			s.onTrackChange(e.Current)
		case e := <-sub.PositionChanged:
			s.onTick(e.Position, e.Duration)
		case <-retry.C:
			s.retryPending()
		}
	}
}

func (s *Scrobbler) onTrackChange(t *track.Track) {
	s.current = t
	s.startedAt = time.Now()
	s.scrobbled = false

	if t == nil {
		return
	}
	if s.limiter.Allow() {
		// Now-playing is best effort, failures are not queued.
		_ = s.client.UpdateNowPlaying(scrobbleTrack(*t, s.startedAt))
	}
}

func (s *Scrobbler) onTick(pos, dur time.Duration) {
	if s.current == nil || s.scrobbled {
		return
	}
	if !shouldScrobble(pos, dur) {
		return
	}
	s.scrobbled = true

	st := scrobbleTrack(*s.current, s.startedAt)
	if err := s.client.Scrobble(st); err != nil {
		_ = s.store.AddPendingScrobble(state.PendingScrobble{
			Artist:       st.Artist,
			Track:        st.Name,
			Album:        st.Album,
			DurationSecs: int(st.Duration.Seconds()),
			Timestamp:    st.Timestamp,
		})
	}
}

// shouldScrobble applies the half-or-four-minutes rule.
func shouldScrobble(pos, dur time.Duration) bool {
	if dur < minTrackLength {
		return false
	}
	threshold := dur / 2
	if threshold > scrobbleCap {
		threshold = scrobbleCap
	}
	return pos >= threshold
}

func (s *Scrobbler) retryPending() {
	_ = s.store.DeleteOldPendingScrobbles(pendingMaxAge)

	pending, err := s.store.GetPendingScrobbles()
	if err != nil {
		return
	}

	for i := range pending {
		p := &pending[i]
		if p.Attempts >= maxRetryAttempts {
			continue
		}

		err := s.client.Scrobble(Track{
			Artist:    p.Artist,
			Name:      p.Track,
			Album:     p.Album,
			Duration:  time.Duration(p.DurationSecs) * time.Second,
			Timestamp: p.Timestamp,
		})
		if err != nil {
			_ = s.store.UpdatePendingScrobbleAttempt(p.ID, err.Error())
			continue
		}
		_ = s.store.DeletePendingScrobble(p.ID)
	}
}

func scrobbleTrack(t track.Track, startedAt time.Time) Track {
	return Track{
		Artist:    t.Artist,
		Name:      t.Title,
		Album:     t.Album,
		Duration:  t.Duration,
		Timestamp: startedAt,
	}
}
