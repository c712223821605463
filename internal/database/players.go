package database

import (
	"errors"
	"time"
)

// GamePlayer is one seat of a stored game.
type GamePlayer struct {
	GameID      string
	PlayerID    string
	Seat        int
	IsConnected bool
	JoinedAt    time.Time
}

// ErrPlayerNotSeated is returned when a player has no seat in the game.
var ErrPlayerNotSeated = errors.New("player not seated in game")

// GetGamePlayers returns the seats of a game in turn order.
func (db *DB) GetGamePlayers(gameID string) ([]*GamePlayer, error) {
	rows, err := db.conn.Query(`
		SELECT game_id, player_id, seat, is_connected, joined_at
		FROM game_players
		WHERE game_id = ?
		ORDER BY seat
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []*GamePlayer
	for rows.Next() {
		var gp GamePlayer
		if err := rows.Scan(&gp.GameID, &gp.PlayerID, &gp.Seat, &gp.IsConnected, &gp.JoinedAt); err != nil {
			return nil, err
		}
		players = append(players, &gp)
	}
	return players, rows.Err()
}

// SetPlayerConnected records whether a seated player has a live connection.
func (db *DB) SetPlayerConnected(gameID, playerID string, connected bool) error {
	res, err := db.conn.Exec(`
		UPDATE game_players SET is_connected = ? WHERE game_id = ? AND player_id = ?
	`, connected, gameID, playerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPlayerNotSeated
	}
	return nil
}
