package protocol

import (
	"encoding/json"
	"time"

	"homestead/internal/game"
	"homestead/internal/goods"
)

// ==================== Session Payloads ====================

// CreateGamePayload is sent to create a new game. The sender is seated as
// Player, which must be one of Players.
type CreateGamePayload struct {
	Players       []string `json:"players"`
	Player        string   `json:"player"`
	Seed          int64    `json:"seed,omitempty"`
	FeedingPolicy string   `json:"feedingPolicy,omitempty"`
	Layout        string   `json:"layout,omitempty"`
}

// GameCreatedPayload is the response when a game is created.
type GameCreatedPayload struct {
	GameID   string   `json:"gameId"`
	JoinCode string   `json:"joinCode,omitempty"`
	Players  []string `json:"players"`
}

// JoinGamePayload binds the connection to a seat. Either GameID or JoinCode
// identifies the game.
type JoinGamePayload struct {
	GameID   string `json:"gameId,omitempty"`
	JoinCode string `json:"joinCode,omitempty"`
	Player   string `json:"player"`
}

// JoinedGamePayload is the response when successfully joining a game.
type JoinedGamePayload struct {
	GameID string `json:"gameId"`
	Player string `json:"player"`
}

// GameStatePayload carries a full snapshot of the joined game.
type GameStatePayload struct {
	Game game.GameSnapshot `json:"game"`
	You  string            `json:"you"`
}

// GetHistoryPayload asks for the joined game's journal after AfterID.
type GetHistoryPayload struct {
	AfterID int64 `json:"afterId,omitempty"`
}

// GameHistoryPayload carries journal entries after AfterID.
type GameHistoryPayload struct {
	GameID  string         `json:"gameId"`
	AfterID int64          `json:"afterId,omitempty"`
	Events  []HistoryEntry `json:"events"`
}

// HistoryEntry is one journal entry.
type HistoryEntry struct {
	ID        int64           `json:"id"`
	Round     int             `json:"round"`
	Phase     string          `json:"phase"`
	Player    string          `json:"player,omitempty"`
	Type      string          `json:"type"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ==================== Game Flow Payloads ====================

// MovePayload is a wire move request. Kind uses the engine move names
// (place-worker, build-room, build-stable, build-fences, plow, sow, convert).
type MovePayload struct {
	Kind    game.MoveKind     `json:"kind"`
	Space   string            `json:"space,omitempty"`
	Targets []game.Coordinate `json:"targets,omitempty"`
	Good    goods.Good        `json:"good,omitempty"`
	Amount  int               `json:"amount,omitempty"`
}

// Request turns the payload into an engine move for player.
func (p MovePayload) Request(player string) game.MoveRequest {
	return game.NewMoveRequest(player, p.Kind, p.Space, p.Targets, p.Good, p.Amount)
}

// MoveResultPayload is the response to an accepted move.
type MoveResultPayload struct {
	Outcome game.MoveOutcome `json:"outcome"`
}

// ResolveDecisionPayload binds arguments to the sender's head decision.
type ResolveDecisionPayload struct {
	Args map[string]any `json:"args"`
}

// DecisionResultPayload is the response to a resolve_decision request.
type DecisionResultPayload struct {
	Outcome game.EffectOutcome `json:"outcome"`
}

// PhaseChangedPayload is broadcast to every seat after a phase transition.
type PhaseChangedPayload struct {
	Phase        game.Phase           `json:"phase"`
	Round        int                  `json:"round"`
	Stage        int                  `json:"stage"`
	ActivePlayer string               `json:"activePlayer,omitempty"`
	Harvest      []game.HarvestReport `json:"harvest,omitempty"`
}

// TurnChangedPayload is broadcast when the active player changes.
type TurnChangedPayload struct {
	ActivePlayer string `json:"activePlayer"`
	Round        int    `json:"round"`
}

// ==================== System Payloads ====================

// WelcomePayload is sent when a connection is accepted.
type WelcomePayload struct {
	ClientID string `json:"clientId"`
}
