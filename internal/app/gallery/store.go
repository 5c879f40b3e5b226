package gallery

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/oklog/ulid/v2"
)

var ErrSessionExpired = errors.New("gallery session expired")

// DefaultTimeout matches the idle lifetime of the platform's buttons.
const DefaultTimeout = 120 * time.Second

// Store keeps the live sessions of the process. A session expires after
// timeout without interaction.
type Store struct {
	clock   clockwork.Clock
	timeout time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
	onExpire func(View)
}

func NewStore(clock clockwork.Clock, timeout time.Duration) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Store{clock: clock, timeout: timeout, sessions: map[string]*Session{}}
}

// OnExpire registers fn to run with the last view of every session removed
// by Sweep or found stale on access. Closed sessions don't fire it.
func (st *Store) OnExpire(fn func(View)) {
	st.mu.Lock()
	st.onExpire = fn
	st.mu.Unlock()
}

func (st *Store) Timeout() time.Duration { return st.timeout }

// Create starts a session over media and returns it with its first view.
func (st *Store) Create(title string, media []Attachment, order Order) (*Session, View, error) {
	pages := BuildPages(title, media, order)
	s, err := NewSession(ulid.Make().String(), pages, InitialCursor(order, len(pages)))
	if err != nil {
		return nil, View{}, err
	}
	s.touched = st.clock.Now()

	st.mu.Lock()
	st.sessions[s.id] = s
	st.mu.Unlock()
	return s, s.Current(), nil
}

func (st *Store) Transition(id string, n Nav) (View, error) {
	return st.with(id, func(s *Session) (View, error) { return s.navigate(n) })
}

// JumpTo moves session id to the 0-based page target.
func (st *Store) JumpTo(id string, target int) (View, error) {
	return st.with(id, func(s *Session) (View, error) { return s.jump(target) })
}

func (st *Store) Current(id string) (View, error) {
	return st.with(id, func(s *Session) (View, error) { return s.view(), nil })
}

// Close dismisses a session and returns its final view. A session already idle
// past the timeout expires instead, like any other access.
func (st *Store) Close(id string) (View, error) {
	s := st.lookup(id)
	if s == nil {
		return View{}, ErrSessionExpired
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return View{}, ErrSessionExpired
	}
	s.closed = true
	v := s.view()
	stale := st.clock.Now().Sub(s.touched) >= st.timeout
	s.mu.Unlock()
	if stale {
		st.expire(s, v)
		return View{}, ErrSessionExpired
	}

	st.mu.Lock()
	if st.sessions[id] == s {
		delete(st.sessions, id)
	}
	st.mu.Unlock()
	return v, nil
}

// Sweep removes idle sessions and reports how many expired.
func (st *Store) Sweep() int {
	st.mu.RLock()
	live := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		live = append(live, s)
	}
	st.mu.RUnlock()

	now := st.clock.Now()
	n := 0
	for _, s := range live {
		s.mu.Lock()
		stale := !s.closed && now.Sub(s.touched) >= st.timeout
		if stale {
			s.closed = true
		}
		v := s.view()
		s.mu.Unlock()
		if stale && st.expire(s, v) {
			n++
		}
	}
	return n
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func (st *Store) lookup(id string) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[id]
}

// with runs fn under the session lock after checking expiry and refreshes the
// idle timer on success.
func (st *Store) with(id string, fn func(*Session) (View, error)) (View, error) {
	s := st.lookup(id)
	if s == nil {
		return View{}, ErrSessionExpired
	}

	now := st.clock.Now()
	s.mu.Lock()
	if s.closed || now.Sub(s.touched) >= st.timeout {
		wasOpen := !s.closed
		s.closed = true
		v := s.view()
		s.mu.Unlock()
		if wasOpen {
			st.expire(s, v)
		}
		return View{}, ErrSessionExpired
	}
	v, err := fn(s)
	if err == nil {
		s.touched = now
	}
	s.mu.Unlock()
	return v, err
}

func (st *Store) expire(s *Session, last View) bool {
	st.mu.Lock()
	removed := st.sessions[s.id] == s
	if removed {
		delete(st.sessions, s.id)
	}
	hook := st.onExpire
	st.mu.Unlock()

	if removed && hook != nil {
		hook(last)
	}
	return removed
}
