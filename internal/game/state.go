// Package game contains the rules engine for the homestead farming game:
// the phase machine, the farmyard and action boards, move validation and
// the per-player decision queues, driven through the Game facade.
package game

import (
	"fmt"
)

// Phase represents the current phase of the game.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseStartRound
	PhaseWorkPlacement
	PhaseReturnPeople
	PhaseHarvest
	PhaseGameEnd
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "Setup"
	case PhaseStartRound:
		return "StartRound"
	case PhaseWorkPlacement:
		return "WorkPlacement"
	case PhaseReturnPeople:
		return "ReturnPeople"
	case PhaseHarvest:
		return "Harvest"
	case PhaseGameEnd:
		return "GameEnd"
	default:
		return "Unknown"
	}
}

// IsTerminal returns true once no further operation can change the game.
func (p Phase) IsTerminal() bool {
	return p == PhaseGameEnd
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(b []byte) error {
	for c := PhaseSetup; c <= PhaseGameEnd; c++ {
		if c.String() == string(b) {
			*p = c
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", string(b))
}

// GameState is the phase machine of one game. It owns the round counter,
// the active-player cursor and each player's worker counts.
type GameState struct {
	id      string
	rules   Rules
	phase   Phase
	round   int
	stage   int
	players []string

	active         int
	startingPlayer int
	nextStarting   int
	placedThisTurn bool

	workersLeft  map[string]int
	workersTotal map[string]int
	newborns     map[string]int
	passed       map[string]bool
}

// NewGameState creates the phase machine for a game in Setup.
func NewGameState(id string, players []string, rules Rules) (*GameState, error) {
	if len(players) == 0 {
		return nil, fmt.Errorf("%w: need at least 1 player", ErrInvalidConfig)
	}
	if rules.MaxPlayers > 0 && len(players) > rules.MaxPlayers {
		return nil, fmt.Errorf("%w: max %d players", ErrInvalidConfig, rules.MaxPlayers)
	}
	seen := make(map[string]bool, len(players))
	for _, p := range players {
		if p == "" || seen[p] {
			return nil, fmt.Errorf("%w: player ids must be unique and non-empty", ErrInvalidConfig)
		}
		seen[p] = true
	}

	s := &GameState{
		id:           id,
		rules:        rules,
		phase:        PhaseSetup,
		players:      append([]string(nil), players...),
		workersLeft:  make(map[string]int, len(players)),
		workersTotal: make(map[string]int, len(players)),
		newborns:     make(map[string]int, len(players)),
		passed:       make(map[string]bool, len(players)),
	}
	for _, p := range players {
		s.workersTotal[p] = rules.StartingWorkers
	}
	return s, nil
}

// ID returns the game identity.
func (s *GameState) ID() string { return s.id }

// Phase returns the current phase.
func (s *GameState) Phase() Phase { return s.phase }

// Round returns the current round, 0 before the first round.
func (s *GameState) Round() int { return s.round }

// Stage returns the current stage, 0 before the first round.
func (s *GameState) Stage() int { return s.stage }

// Players returns the seating order.
func (s *GameState) Players() []string {
	return append([]string(nil), s.players...)
}

// HasPlayer reports whether the player sits at this game.
func (s *GameState) HasPlayer(player string) bool {
	_, ok := s.workersTotal[player]
	return ok
}

// ActivePlayer returns the player whose turn it is, or "" outside WorkPlacement.
func (s *GameState) ActivePlayer() string {
	if s.phase != PhaseWorkPlacement {
		return ""
	}
	return s.players[s.active]
}

// StartingPlayer returns the player who opens the current round.
func (s *GameState) StartingPlayer() string {
	return s.players[s.startingPlayer]
}

// Workers returns the unplaced and total workers of a player.
func (s *GameState) Workers(player string) (left, total int) {
	return s.workersLeft[player], s.workersTotal[player]
}

// Newborns returns the family members added this round.
func (s *GameState) Newborns(player string) int {
	return s.newborns[player]
}

// PlacedThisTurn reports whether the active player already placed a worker this turn.
func (s *GameState) PlacedThisTurn() bool { return s.placedThisTurn }

// CheckPhase is the uniform gate every operation goes through. It fails with an
// IllegalStateError when the current phase is not in required, or when
// activePlayer is set and is not the player holding the turn.
func (s *GameState) CheckPhase(op string, required []Phase, activePlayer string) error {
	allowed := false
	for _, p := range required {
		if p == s.phase {
			allowed = true
			break
		}
	}
	if !allowed {
		return &IllegalStateError{
			Op:       op,
			Expected: append([]Phase(nil), required...),
			Actual:   s.phase,
		}
	}

	if activePlayer != "" {
		if !s.HasPlayer(activePlayer) {
			return fmt.Errorf("%s: %w: %s", op, ErrUnknownPlayer, activePlayer)
		}
		if s.phase == PhaseWorkPlacement && s.ActivePlayer() != activePlayer {
			return &IllegalStateError{
				Op:             op,
				Expected:       []Phase{s.phase},
				Actual:         s.phase,
				ExpectedPlayer: s.ActivePlayer(),
				ActualPlayer:   activePlayer,
				Reason:         "not your turn",
			}
		}
	}
	return nil
}

// Advance performs the next phase transition. WorkPlacement only advances once
// every player has placed or passed; use NextTurn to move the cursor inside it.
func (s *GameState) Advance() (Phase, error) {
	switch s.phase {
	case PhaseSetup:
		s.enterStartRound()

	case PhaseStartRound:
		s.phase = PhaseWorkPlacement
		s.active = s.startingPlayer
		s.placedThisTurn = false
		if !s.canPlace(s.players[s.active]) {
			s.moveCursor()
		}

	case PhaseWorkPlacement:
		if s.nextWithWorkers(s.active) >= 0 {
			return s.phase, &IllegalStateError{
				Op:       "advance",
				Expected: []Phase{PhaseSetup, PhaseStartRound, PhaseReturnPeople, PhaseHarvest},
				Actual:   s.phase,
				Reason:   "players still have workers to place",
			}
		}
		s.phase = PhaseReturnPeople

	case PhaseReturnPeople:
		if s.rules.IsHarvestRound(s.round) {
			s.phase = PhaseHarvest
		} else {
			s.endRound()
		}

	case PhaseHarvest:
		s.endRound()

	case PhaseGameEnd:
		return s.phase, &IllegalStateError{
			Op:     "advance",
			Actual: s.phase,
			Reason: "game is over",
		}
	}
	return s.phase, nil
}

// PlaceWorker consumes one of the active player's workers.
func (s *GameState) PlaceWorker(player string) error {
	if err := s.CheckPhase("place worker", []Phase{PhaseWorkPlacement}, player); err != nil {
		return err
	}
	if s.placedThisTurn {
		return &IllegalStateError{
			Op:       "place worker",
			Expected: []Phase{PhaseWorkPlacement},
			Actual:   s.phase,
			Reason:   "already placed a worker this turn",
		}
	}
	if s.workersLeft[player] <= 0 {
		return &IllegalStateError{
			Op:       "place worker",
			Expected: []Phase{PhaseWorkPlacement},
			Actual:   s.phase,
			Reason:   "no workers left",
		}
	}
	s.workersLeft[player]--
	s.placedThisTurn = true
	return nil
}

// NextTurn hands the turn to the next player with workers left, wrapping around
// the seating order. When nobody can place, WorkPlacement ends.
func (s *GameState) NextTurn() Phase {
	if s.phase != PhaseWorkPlacement {
		return s.phase
	}
	s.moveCursor()
	return s.phase
}

// Pass gives up the player's remaining workers for this round.
func (s *GameState) Pass(player string) error {
	if err := s.CheckPhase("pass", []Phase{PhaseWorkPlacement}, player); err != nil {
		return err
	}
	s.passed[player] = true
	s.workersLeft[player] = 0
	return nil
}

// AddNewborn grows the player's family. The newborn does not work this round.
func (s *GameState) AddNewborn(player string) {
	s.workersTotal[player]++
	s.newborns[player]++
}

// SetStartingPlayer makes player open the next round.
func (s *GameState) SetStartingPlayer(player string) {
	for i, p := range s.players {
		if p == player {
			s.nextStarting = i
			return
		}
	}
}

// NextStartingPlayer returns who will open the next round.
func (s *GameState) NextStartingPlayer() string {
	return s.players[s.nextStarting]
}

// Stop ends the game early.
func (s *GameState) Stop() {
	s.phase = PhaseGameEnd
}

func (s *GameState) enterStartRound() {
	s.round++
	s.stage = s.rules.StageOf(s.round)
	s.phase = PhaseStartRound
	s.startingPlayer = s.nextStarting
	for _, p := range s.players {
		s.workersLeft[p] = s.workersTotal[p]
		s.newborns[p] = 0
		s.passed[p] = false
	}
}

func (s *GameState) endRound() {
	if s.round >= s.rules.Rounds {
		s.phase = PhaseGameEnd
		return
	}
	s.enterStartRound()
}

func (s *GameState) canPlace(player string) bool {
	return !s.passed[player] && s.workersLeft[player] > 0
}

// nextWithWorkers returns the index of the next player after from who can
// still place, including from itself last. -1 when nobody can.
func (s *GameState) nextWithWorkers(from int) int {
	n := len(s.players)
	for step := 1; step <= n; step++ {
		i := (from + step) % n
		if s.canPlace(s.players[i]) {
			return i
		}
	}
	return -1
}

func (s *GameState) moveCursor() {
	s.placedThisTurn = false
	next := s.nextWithWorkers(s.active)
	if next < 0 {
		s.phase = PhaseReturnPeople
		return
	}
	s.active = next
}

// StateSnapshot is an immutable copy of the phase machine.
type StateSnapshot struct {
	ID             string          `json:"id"`
	Phase          Phase           `json:"phase"`
	Round          int             `json:"round"`
	Stage          int             `json:"stage"`
	Players        []string        `json:"players"`
	ActivePlayer   string          `json:"activePlayer,omitempty"`
	StartingPlayer string          `json:"startingPlayer"`
	WorkersLeft    map[string]int  `json:"workersLeft"`
	WorkersTotal   map[string]int  `json:"workersTotal"`
	Newborns       map[string]int  `json:"newborns"`
	Passed         map[string]bool `json:"passed"`
}

// Snapshot copies the current state.
func (s *GameState) Snapshot() StateSnapshot {
	snap := StateSnapshot{
		ID:             s.id,
		Phase:          s.phase,
		Round:          s.round,
		Stage:          s.stage,
		Players:        s.Players(),
		ActivePlayer:   s.ActivePlayer(),
		StartingPlayer: s.StartingPlayer(),
		WorkersLeft:    make(map[string]int, len(s.players)),
		WorkersTotal:   make(map[string]int, len(s.players)),
		Newborns:       make(map[string]int, len(s.players)),
		Passed:         make(map[string]bool, len(s.players)),
	}
	for _, p := range s.players {
		snap.WorkersLeft[p] = s.workersLeft[p]
		snap.WorkersTotal[p] = s.workersTotal[p]
		snap.Newborns[p] = s.newborns[p]
		snap.Passed[p] = s.passed[p]
	}
	return snap
}
