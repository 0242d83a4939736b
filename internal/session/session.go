// Package session keeps per-browser editing state: one slide list per
// session id, expired after a period of inactivity.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ivlev/ecard2video/internal/slide"
)

var ErrNotFound = errors.New("session not found")

// Session owns one slide list. Handlers hold Lock for the whole action so a
// session sees one action at a time.
type Session struct {
	ID string

	mu       sync.Mutex
	list     *slide.List
	lastSeen time.Time
	flash    string
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// List must be used under Lock.
func (s *Session) List() *slide.List {
	return s.list
}

// SetFlash stores a one-shot message for the next page render (under Lock).
func (s *Session) SetFlash(msg string) {
	s.flash = msg
}

// TakeFlash returns and clears the pending message (under Lock).
func (s *Session) TakeFlash() string {
	msg := s.flash
	s.flash = ""
	return msg
}

// Store maps session ids to sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time

	stop chan struct{}
	done chan struct{}
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (st *Store) Create() *Session {
	s := &Session{
		ID:       uuid.NewString(),
		list:     slide.NewList(),
		lastSeen: st.now(),
	}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	slog.Debug("session created", "session", s.ID)
	return s
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	st.touch(s)
	return s, nil
}

// GetOrCreate returns the session for id, or a fresh one when id is unknown
// or expired. created reports which case happened.
func (st *Store) GetOrCreate(id string) (s *Session, created bool) {
	if id != "" {
		if s, err := st.Get(id); err == nil {
			return s, false
		}
	}
	return st.Create(), true
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func (st *Store) touch(s *Session) {
	st.mu.Lock()
	s.lastSeen = st.now()
	st.mu.Unlock()
}

// Expire drops sessions idle longer than the TTL and returns how many went.
func (st *Store) Expire() int {
	if st.ttl <= 0 {
		return 0
	}
	cutoff := st.now().Add(-st.ttl)

	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for id, s := range st.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}

// Start runs the janitor until ctx is done or Stop is called.
func (st *Store) Start(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		return
	}
	st.stop = make(chan struct{})
	st.done = make(chan struct{})

	go func() {
		defer close(st.done)
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-st.stop:
				return
			case <-ticker.C:
				if n := st.Expire(); n > 0 {
					slog.Info("expired idle sessions", "count", n, "remaining", st.Len())
				}
			}
		}
	}()
}

func (st *Store) Stop() {
	if st.stop == nil {
		return
	}
	close(st.stop)
	<-st.done
	st.stop = nil
}
