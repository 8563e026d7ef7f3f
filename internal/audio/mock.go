package audio

import (
	"sync"
	"time"
)

// MockSession is a test double for Session.
type MockSession struct {
	mu sync.Mutex

	state    State
	position time.Duration
	duration time.Duration
	gain     float64
	closed   bool

	loadErr   error
	loadCalls []string
	seekCalls []time.Duration
	gainCalls []float64

	ticks    chan time.Duration
	finished chan struct{}
	errs     chan error
}

// NewMockSession creates a mock session for testing.
func NewMockSession() *MockSession {
	return &MockSession{
		gain:     1.0,
		ticks:    make(chan time.Duration, 64),
		finished: make(chan struct{}, 1),
		errs:     make(chan error, 4),
	}
}

// SessionLog records the sessions a mock factory handed out.
type SessionLog struct {
	mu       sync.Mutex
	sessions []*MockSession
}

func (l *SessionLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}

// At returns the i-th created session, or nil if out of range.
func (l *SessionLog) At(i int) *MockSession {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 || i >= len(l.sessions) {
		return nil
	}
	return l.sessions[i]
}

// Latest returns the most recently created session, or nil.
func (l *SessionLog) Latest() *MockSession {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.sessions) == 0 {
		return nil
	}
	return l.sessions[len(l.sessions)-1]
}

// MockFactory returns a Factory producing the given sessions in order
// (fresh ones once they run out), recording them for inspection.
func MockFactory(sessions ...*MockSession) (Factory, *SessionLog) {
	log := &SessionLog{}
	i := 0
	return func() (Session, error) {
		log.mu.Lock()
		defer log.mu.Unlock()
		var s *MockSession
		if i < len(sessions) {
			s = sessions[i]
		} else {
			s = NewMockSession()
		}
		i++
		log.sessions = append(log.sessions, s)
		return s, nil
	}, log
}

func (m *MockSession) Load(uri string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCalls = append(m.loadCalls, uri)
	if m.loadErr != nil {
		return m.loadErr
	}
	m.state = Paused
	return nil
}

func (m *MockSession) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.state = Playing
	}
}

func (m *MockSession) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Playing {
		m.state = Paused
	}
}

func (m *MockSession) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *MockSession) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *MockSession) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *MockSession) SeekTo(pos time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekCalls = append(m.seekCalls, pos)
	m.position = pos
	return nil
}

func (m *MockSession) SetGain(g float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gain = g
	m.gainCalls = append(m.gainCalls, g)
}

func (m *MockSession) Gain() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gain
}

func (m *MockSession) Ticks() <-chan time.Duration { return m.ticks }
func (m *MockSession) Finished() <-chan struct{}   { return m.finished }
func (m *MockSession) Errors() <-chan error        { return m.errs }

func (m *MockSession) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.state = Stopped
	return nil
}

// Test helpers

func (m *MockSession) SetLoadError(err error) {
	m.mu.Lock()
	m.loadErr = err
	m.mu.Unlock()
}

func (m *MockSession) SetDuration(d time.Duration) {
	m.mu.Lock()
	m.duration = d
	m.mu.Unlock()
}

func (m *MockSession) SetPosition(p time.Duration) {
	m.mu.Lock()
	m.position = p
	m.mu.Unlock()
}

func (m *MockSession) LoadCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loadCalls...)
}

func (m *MockSession) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seekCalls...)
}

func (m *MockSession) GainCalls() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.gainCalls...)
}

func (m *MockSession) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// EmitTick pushes a position update, also recording it as the position.
func (m *MockSession) EmitTick(pos time.Duration) {
	m.SetPosition(pos)
	select {
	case m.ticks <- pos:
	default:
	}
}

// EmitFinished simulates the stream playing to its end.
func (m *MockSession) EmitFinished() {
	select {
	case m.finished <- struct{}{}:
	default:
	}
}

// EmitError simulates an asynchronous backend failure.
func (m *MockSession) EmitError(err error) {
	select {
	case m.errs <- err:
	default:
	}
}

// Verify MockSession implements Session at compile time.
var _ Session = (*MockSession)(nil)
