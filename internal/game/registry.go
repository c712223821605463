package game

import (
	"fmt"
	"slices"
	"sync"
)

// StateRegistry holds one GameState per game identity. Repeated lookups of the
// same identity return the same instance; a lookup whose players disagree with
// the cached state is refused instead of silently returning it.
type StateRegistry struct {
	mu     sync.Mutex
	states map[string]*GameState
}

// NewStateRegistry creates an empty registry.
func NewStateRegistry() *StateRegistry {
	return &StateRegistry{states: make(map[string]*GameState)}
}

// Acquire returns the state for id, creating it in Setup on first use.
func (r *StateRegistry) Acquire(id string, players []string, rules Rules) (*GameState, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.states[id]; ok {
		if !slices.Equal(s.players, players) {
			return nil, false, fmt.Errorf("game %s: %w: have players %v, asked for %v",
				id, ErrCorruptState, s.players, players)
		}
		return s, false, nil
	}

	s, err := NewGameState(id, players, rules)
	if err != nil {
		return nil, false, err
	}
	r.states[id] = s
	return s, true, nil
}

// Get returns the cached state for id.
func (r *StateRegistry) Get(id string) (*GameState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[id]
	return s, ok
}

// Release drops the state for id.
func (r *StateRegistry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, id)
}

// Len returns how many games are cached.
func (r *StateRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}
