package database

import (
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"homestead/internal/game"
)

// GameStatus represents the lifecycle of a stored game.
type GameStatus string

const (
	GameStatusWaiting  GameStatus = "waiting"  // created, still in Setup
	GameStatusStarted  GameStatus = "started"  // left Setup
	GameStatusFinished GameStatus = "finished" // reached GameEnd
)

// GameInfo contains the stored record of one game identity.
type GameInfo struct {
	ID        string
	JoinCode  string
	Status    GameStatus
	Players   []string
	Rules     game.Rules
	CreatedAt time.Time
	StartedAt *time.Time
	EndedAt   *time.Time
}

var (
	ErrGameNotFound     = errors.New("game not found")
	ErrJoinCodeNotFound = errors.New("invalid join code")
	ErrGameExists       = errors.New("game already exists")
)

// CreateGame stores a new game with its seated players.
func (db *DB) CreateGame(id string, players []string, rules game.Rules) (*GameInfo, error) {
	rulesJSON, err := json.Marshal(rules)
	if err != nil {
		return nil, err
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM games WHERE id = ?`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, fmt.Errorf("%w: %s", ErrGameExists, id)
	}

	now := time.Now().UTC()
	joinCode := generateJoinCode()
	_, err = tx.Exec(`
		INSERT INTO games (id, join_code, status, rules_json, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, joinCode, GameStatusWaiting, string(rulesJSON), now)
	if err != nil {
		return nil, err
	}
	for seat, p := range players {
		_, err = tx.Exec(`
			INSERT INTO game_players (game_id, player_id, seat, joined_at)
			VALUES (?, ?, ?, ?)
		`, id, p, seat, now)
		if err != nil {
			return nil, fmt.Errorf("failed to seat %s: %w", p, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &GameInfo{
		ID:        id,
		JoinCode:  joinCode,
		Status:    GameStatusWaiting,
		Players:   append([]string(nil), players...),
		Rules:     rules,
		CreatedAt: now,
	}, nil
}

// GetGame retrieves a game by ID.
func (db *DB) GetGame(id string) (*GameInfo, error) {
	var g GameInfo
	var rulesJSON string
	var joinCode sql.NullString
	var startedAt, endedAt sql.NullTime

	err := db.conn.QueryRow(`
		SELECT id, join_code, status, rules_json, created_at, started_at, ended_at
		FROM games WHERE id = ?
	`, id).Scan(&g.ID, &joinCode, &g.Status, &rulesJSON, &g.CreatedAt, &startedAt, &endedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}

	if joinCode.Valid {
		g.JoinCode = joinCode.String
	}
	if startedAt.Valid {
		g.StartedAt = &startedAt.Time
	}
	if endedAt.Valid {
		g.EndedAt = &endedAt.Time
	}
	if err := json.Unmarshal([]byte(rulesJSON), &g.Rules); err != nil {
		return nil, fmt.Errorf("failed to decode rules of %s: %w", id, err)
	}

	seats, err := db.GetGamePlayers(id)
	if err != nil {
		return nil, err
	}
	for _, s := range seats {
		g.Players = append(g.Players, s.PlayerID)
	}
	return &g, nil
}

// GetGameByJoinCode retrieves a game by its join code.
func (db *DB) GetGameByJoinCode(code string) (*GameInfo, error) {
	var id string
	err := db.conn.QueryRow(`SELECT id FROM games WHERE join_code = ?`, strings.ToUpper(strings.TrimSpace(code))).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJoinCodeNotFound
	}
	if err != nil {
		return nil, err
	}
	return db.GetGame(id)
}

// ListGames returns the ids of stored games, newest first. An empty status
// lists every game.
func (db *DB) ListGames(status GameStatus) ([]string, error) {
	query := `SELECT id FROM games ORDER BY created_at DESC, id`
	args := []any{}
	if status != "" {
		query = `SELECT id FROM games WHERE status = ? ORDER BY created_at DESC, id`
		args = append(args, status)
	}
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// StartGame marks a game as started.
func (db *DB) StartGame(gameID string) error {
	_, err := db.conn.Exec(`
		UPDATE games SET status = ?, started_at = ? WHERE id = ? AND status = ?
	`, GameStatusStarted, time.Now().UTC(), gameID, GameStatusWaiting)
	return err
}

// EndGame marks a game as finished.
func (db *DB) EndGame(gameID string) error {
	_, err := db.conn.Exec(`
		UPDATE games SET status = ?, ended_at = ? WHERE id = ?
	`, GameStatusFinished, time.Now().UTC(), gameID)
	return err
}

// DeleteGame permanently deletes a game and all associated data.
func (db *DB) DeleteGame(gameID string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM game_history WHERE game_id = ?`, gameID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM game_players WHERE game_id = ?`, gameID); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM games WHERE id = ?`, gameID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGameNotFound
	}
	return tx.Commit()
}

// generateJoinCode creates a human-readable join code.
func generateJoinCode() string {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no 0, O, 1 or I
	bytes := make([]byte, 8)
	rand.Read(bytes)

	code := make([]byte, 8)
	for i := range code {
		code[i] = chars[bytes[i]%byte(len(chars))]
	}
	return string(code[:4]) + "-" + string(code[4:])
}
