package game

import "time"

// EventKind classifies journal events.
type EventKind string

const (
	EventGameCreated  EventKind = "game_created"
	EventPhaseChanged EventKind = "phase_changed"
	EventMove         EventKind = "move"
	EventDecision     EventKind = "decision"
	EventForfeit      EventKind = "forfeit"
	EventHarvest      EventKind = "harvest"
	EventGameEnded    EventKind = "game_ended"
)

// Event is one entry of a game's audit trail.
type Event struct {
	GameID  string         `json:"gameId"`
	Kind    EventKind      `json:"kind"`
	Player  string         `json:"player,omitempty"`
	Round   int            `json:"round"`
	Phase   Phase          `json:"phase"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
	At      time.Time      `json:"at"`
}

// Journal receives events as they happen. It is write-only: games are never
// rebuilt from it.
type Journal interface {
	Record(ev Event) error
}

// NopJournal discards every event.
type NopJournal struct{}

// Record implements Journal.
func (NopJournal) Record(Event) error { return nil }
