package game

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EngineConfig configures an Engine.
type EngineConfig struct {
	Registry ActionRegistry
	Rules    Rules
	Logger   *zap.Logger
	Journal  Journal
	// NewSupply builds the supply for each new game. Nil uses the default store.
	NewSupply func() Supply
}

// Engine owns every running game. Games are keyed by identity and share one
// StateRegistry, so opening the same identity twice yields the same game.
type Engine struct {
	cfg    EngineConfig
	states *StateRegistry

	mu    sync.Mutex
	games map[string]*Game
	log   *zap.Logger
}

// NewEngine creates an engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("%w: no action registry", ErrInvalidConfig)
	}
	if cfg.Rules.Rounds == 0 {
		cfg.Rules = DefaultRules()
	}
	if err := cfg.Rules.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Journal == nil {
		cfg.Journal = NopJournal{}
	}
	return &Engine{
		cfg:    cfg,
		states: NewStateRegistry(),
		games:  make(map[string]*Game),
		log:    cfg.Logger,
	}, nil
}

// Rules returns the rules new games start with.
func (e *Engine) Rules() Rules { return e.cfg.Rules }

// Create starts a new game under a fresh identity.
func (e *Engine) Create(players []string) (*Game, error) {
	return e.Open(uuid.New().String(), players)
}

// CreateWith starts a new game under a fresh identity with its own rules.
func (e *Engine) CreateWith(players []string, rules Rules) (*Game, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return e.open(uuid.New().String(), players, rules)
}

// Open returns the game with the given identity, creating it in Setup when it
// does not exist yet. Asking for a known identity with different players fails
// with ErrCorruptState.
func (e *Engine) Open(id string, players []string) (*Game, error) {
	return e.open(id, players, e.cfg.Rules)
}

func (e *Engine) open(id string, players []string, rules Rules) (*Game, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, created, err := e.states.Acquire(id, players, rules)
	if err != nil {
		return nil, err
	}
	if !created {
		g, ok := e.games[id]
		if !ok || g.state != state {
			return nil, fmt.Errorf("game %s: %w: state has no game", id, ErrCorruptState)
		}
		return g, nil
	}

	cfg := Config{
		ID:       id,
		Players:  players,
		Registry: e.cfg.Registry,
		Rules:    rules,
		Logger:   e.log,
		Journal:  e.cfg.Journal,
	}
	if e.cfg.NewSupply != nil {
		cfg.Supply = e.cfg.NewSupply()
	}
	g, err := newGame(state, cfg)
	if err != nil {
		e.states.Release(id)
		return nil, err
	}
	e.games[id] = g
	return g, nil
}

// Lookup returns a running game.
func (e *Engine) Lookup(id string) (*Game, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, ok := e.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, id)
	}
	return g, nil
}

// Discard forgets a game.
func (e *Engine) Discard(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.games, id)
	e.states.Release(id)
}

// Games returns the identities of every running game, sorted.
func (e *Engine) Games() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.games))
	for id := range e.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Seated reports whether player sits in game id.
func (e *Engine) Seated(id, player string) bool {
	g, err := e.Lookup(id)
	if err != nil {
		return false
	}
	return slices.Contains(g.Players(), player)
}
