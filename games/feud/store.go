/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package feud

import (
	"bytes"
	"sync"

	"github.com/rs/zerolog"
)

type listenerEntry struct {
	id int
	fn func(snapshot []byte)
}

// Store holds one context's copy of the match. Local dispatches and
// remote replacements both go through commit, so listeners cannot tell
// them apart.
type Store struct {
	mu        sync.Mutex
	state     GameState
	snapshot  []byte
	listeners []listenerEntry
	nextID    int
	log       zerolog.Logger
}

type StoreOption func(*Store)

func WithStoreLogger(l zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.log = l
	}
}

// WithInitialState seeds the store, e.g. from a restored snapshot.
func WithInitialState(state GameState) StoreOption {
	return func(s *Store) {
		s.state = canonical(state.Clone())
	}
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		state: NewGameState(),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	snapshot, err := Encode(s.state)
	if err != nil {
		s.log.Error().Err(err).Msg("encode initial state")
	}
	s.snapshot = snapshot

	return s
}

// State returns a deep copy of the current state.
func (s *Store) State() GameState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.Clone()
}

// Encode returns the current canonical snapshot.
func (s *Store) Encode() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return bytes.Clone(s.snapshot), nil
}

// Dispatch applies an action and returns the resulting state.
func (s *Store) Dispatch(a Action) GameState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commitLocked(Apply(s.state, a))

	return s.state.Clone()
}

// Replace decodes a snapshot received from another context and installs
// it if it differs from the local state. It reports whether anything
// changed; malformed snapshots leave the state untouched.
func (s *Store) Replace(data []byte) (bool, error) {
	next, err := Decode(data)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commitLocked(next), nil
}

// Canonical decodes and re-encodes a snapshot without applying it.
func (s *Store) Canonical(data []byte) ([]byte, error) {
	state, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Encode(state)
}

// View runs fn with the current snapshot while holding the store lock, so
// no change can be committed or delivered until fn returns.
func (s *Store) View(fn func(snapshot []byte)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(bytes.Clone(s.snapshot))
}

// Subscribe registers fn to receive the canonical snapshot after every
// change, local or remote. Listeners run while the store is locked and
// must not call back into it on the same goroutine.
func (s *Store) Subscribe(fn func(snapshot []byte)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) commitLocked(next GameState) bool {
	snapshot, err := Encode(next)
	if err != nil {
		s.log.Error().Err(err).Msg("encode state")
		return false
	}
	if bytes.Equal(snapshot, s.snapshot) {
		return false
	}

	s.state = next
	s.snapshot = snapshot

	s.log.Debug().
		Str("phase", string(next.Phase)).
		Int("round", next.CurrentRoundIndex).
		Int("pot", next.CurrentRoundScore).
		Int("strikes", next.Strikes).
		Msg("state changed")

	for _, l := range s.listeners {
		l.fn(bytes.Clone(snapshot))
	}

	return true
}
