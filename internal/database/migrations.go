package database

type migration struct {
	id   int
	name string
	sql  string
}

var migrations = []migration{
	{
		id:   1,
		name: "initial_schema",
		sql: `
			-- Games: one row per game identity
			CREATE TABLE games (
				id TEXT PRIMARY KEY,
				join_code TEXT UNIQUE,
				status TEXT NOT NULL DEFAULT 'waiting',
				rules_json TEXT NOT NULL DEFAULT '{}',
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				started_at DATETIME,
				ended_at DATETIME
			);
			CREATE INDEX idx_games_join_code ON games(join_code);
			CREATE INDEX idx_games_status ON games(status);

			-- Seats: the ordered player list a game was created with
			CREATE TABLE game_players (
				game_id TEXT NOT NULL,
				player_id TEXT NOT NULL,
				seat INTEGER NOT NULL,
				is_connected BOOLEAN DEFAULT FALSE,
				joined_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (game_id, player_id),
				FOREIGN KEY (game_id) REFERENCES games(id) ON DELETE CASCADE
			);
			CREATE INDEX idx_game_players_game ON game_players(game_id);
		`,
	},
	{
		id:   2,
		name: "add_game_history",
		sql: `
			-- Journal: write-only audit trail of engine events
			CREATE TABLE game_history (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				game_id TEXT NOT NULL,
				round INTEGER NOT NULL DEFAULT 0,
				phase TEXT NOT NULL,
				player_id TEXT NOT NULL DEFAULT '',
				event_type TEXT NOT NULL,
				message TEXT NOT NULL,
				data_json TEXT,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX idx_game_history_game ON game_history(game_id, id);
		`,
	},
}
