package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"homestead/internal/game"
)

// HistoryEvent is one stored journal entry.
type HistoryEvent struct {
	ID        int64           `json:"id"`
	GameID    string          `json:"gameId"`
	Round     int             `json:"round"`
	Phase     string          `json:"phase"`
	PlayerID  string          `json:"player,omitempty"`
	EventType string          `json:"type"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

var _ game.Journal = (*DB)(nil)

// Record implements game.Journal. Besides appending to the history it keeps
// the games row in step: a created event stores the game, leaving Setup
// marks it started and a game-ended event marks it finished.
func (db *DB) Record(ev game.Event) error {
	switch ev.Kind {
	case game.EventGameCreated:
		players, _ := ev.Data["players"].([]string)
		rules, ok := ev.Data["rules"].(game.Rules)
		if !ok {
			rules = game.DefaultRules()
		}
		if _, err := db.CreateGame(ev.GameID, players, rules); err != nil && !errors.Is(err, ErrGameExists) {
			return fmt.Errorf("failed to store game %s: %w", ev.GameID, err)
		}
	case game.EventPhaseChanged:
		if from, _ := ev.Data["from"].(string); from == game.PhaseSetup.String() {
			if err := db.StartGame(ev.GameID); err != nil {
				return err
			}
		}
	case game.EventGameEnded:
		if err := db.EndGame(ev.GameID); err != nil {
			return err
		}
	}
	return db.AddHistoryEvent(ev)
}

// AddHistoryEvent appends an event to the game history.
func (db *DB) AddHistoryEvent(ev game.Event) error {
	var data []byte
	if len(ev.Data) > 0 {
		var err error
		if data, err = json.Marshal(ev.Data); err != nil {
			return fmt.Errorf("failed to encode %s event data: %w", ev.Kind, err)
		}
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := db.conn.Exec(`
		INSERT INTO game_history (game_id, round, phase, player_id, event_type, message, data_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.GameID, ev.Round, ev.Phase.String(), ev.Player, string(ev.Kind), ev.Message, nullable(data), at)
	return err
}

// GetGameHistory retrieves all history events for a game, ordered chronologically.
func (db *DB) GetGameHistory(gameID string) ([]*HistoryEvent, error) {
	return db.GetGameHistorySince(gameID, 0)
}

// GetGameHistorySince retrieves history events after a given ID (for incremental updates).
func (db *DB) GetGameHistorySince(gameID string, afterID int64) ([]*HistoryEvent, error) {
	rows, err := db.conn.Query(`
		SELECT id, game_id, round, phase, player_id, event_type, message, COALESCE(data_json, ''), created_at
		FROM game_history
		WHERE game_id = ? AND id > ?
		ORDER BY id ASC
	`, gameID, afterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*HistoryEvent
	for rows.Next() {
		e := &HistoryEvent{}
		var data string
		if err := rows.Scan(&e.ID, &e.GameID, &e.Round, &e.Phase, &e.PlayerID, &e.EventType, &e.Message, &data, &e.CreatedAt); err != nil {
			return nil, err
		}
		if data != "" {
			e.Data = json.RawMessage(data)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ClearGameHistory deletes all history for a game.
func (db *DB) ClearGameHistory(gameID string) error {
	_, err := db.conn.Exec(`DELETE FROM game_history WHERE game_id = ?`, gameID)
	return err
}

func nullable(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
