package database

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homestead/internal/catalog"
	"homestead/internal/game"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "data", "homestead.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNew_MigratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "homestead.db")

	db, err := New(path)
	require.NoError(t, err)
	ids, err := db.AppliedMigrations()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ids)
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()
	ids, err = db.AppliedMigrations()
	require.NoError(t, err)
	assert.Len(t, ids, len(migrations))
	assert.Equal(t, path, db.Path())
}

func TestNew_InMemory(t *testing.T) {
	db, err := New(Memory)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.CreateGame("g1", []string{"anna"}, game.DefaultRules())
	require.NoError(t, err)
	info, err := db.GetGame("g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"anna"}, info.Players)
}

func TestCreateGame(t *testing.T) {
	db := openTestDB(t)
	rules := game.DefaultRules()
	rules.Seed = 7

	created, err := db.CreateGame("g1", []string{"anna", "ben"}, rules)
	require.NoError(t, err)
	assert.Len(t, created.JoinCode, 9)

	got, err := db.GetGame("g1")
	require.NoError(t, err)
	assert.Equal(t, GameStatusWaiting, got.Status)
	assert.Equal(t, []string{"anna", "ben"}, got.Players)
	assert.Equal(t, int64(7), got.Rules.Seed)
	assert.Equal(t, rules.HarvestRounds, got.Rules.HarvestRounds)
	assert.Nil(t, got.StartedAt)

	byCode, err := db.GetGameByJoinCode(" " + created.JoinCode + " ")
	require.NoError(t, err)
	assert.Equal(t, "g1", byCode.ID)

	_, err = db.CreateGame("g1", []string{"anna"}, rules)
	assert.ErrorIs(t, err, ErrGameExists)

	_, err = db.GetGame("missing")
	assert.ErrorIs(t, err, ErrGameNotFound)
	_, err = db.GetGameByJoinCode("NOPE-NOPE")
	assert.ErrorIs(t, err, ErrJoinCodeNotFound)
}

func TestGameStatusTransitions(t *testing.T) {
	db := openTestDB(t)
	_, err := db.CreateGame("a", []string{"p1"}, game.DefaultRules())
	require.NoError(t, err)
	_, err = db.CreateGame("b", []string{"p1"}, game.DefaultRules())
	require.NoError(t, err)

	require.NoError(t, db.StartGame("a"))
	require.NoError(t, db.StartGame("b"))
	require.NoError(t, db.EndGame("b"))

	started, err := db.ListGames(GameStatusStarted)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, started)

	all, err := db.ListGames("")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, all)

	b, err := db.GetGame("b")
	require.NoError(t, err)
	assert.Equal(t, GameStatusFinished, b.Status)
	assert.NotNil(t, b.StartedAt)
	assert.NotNil(t, b.EndedAt)
}

func TestSetPlayerConnected(t *testing.T) {
	db := openTestDB(t)
	_, err := db.CreateGame("g1", []string{"p1", "p2"}, game.DefaultRules())
	require.NoError(t, err)

	require.NoError(t, db.SetPlayerConnected("g1", "p2", true))
	assert.ErrorIs(t, db.SetPlayerConnected("g1", "p9", true), ErrPlayerNotSeated)

	seats, err := db.GetGamePlayers("g1")
	require.NoError(t, err)
	require.Len(t, seats, 2)
	assert.Equal(t, "p1", seats[0].PlayerID)
	assert.False(t, seats[0].IsConnected)
	assert.Equal(t, 1, seats[1].Seat)
	assert.True(t, seats[1].IsConnected)
}

func TestDeleteGame(t *testing.T) {
	db := openTestDB(t)
	_, err := db.CreateGame("g1", []string{"p1"}, game.DefaultRules())
	require.NoError(t, err)
	require.NoError(t, db.AddHistoryEvent(game.Event{GameID: "g1", Kind: game.EventMove, Message: "m"}))

	require.NoError(t, db.DeleteGame("g1"))
	_, err = db.GetGame("g1")
	assert.ErrorIs(t, err, ErrGameNotFound)
	events, err := db.GetGameHistory("g1")
	require.NoError(t, err)
	assert.Empty(t, events)

	assert.ErrorIs(t, db.DeleteGame("g1"), ErrGameNotFound)
}

func TestHistorySince(t *testing.T) {
	db := openTestDB(t)
	for _, msg := range []string{"one", "two", "three"} {
		require.NoError(t, db.AddHistoryEvent(game.Event{GameID: "g1", Kind: game.EventMove, Phase: game.PhaseWorkPlacement, Message: msg}))
	}
	require.NoError(t, db.AddHistoryEvent(game.Event{GameID: "other", Kind: game.EventMove, Message: "x"}))

	all, err := db.GetGameHistory("g1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "WorkPlacement", all[0].Phase)

	later, err := db.GetGameHistorySince("g1", all[0].ID)
	require.NoError(t, err)
	require.Len(t, later, 2)
	assert.Equal(t, "two", later[0].Message)

	require.NoError(t, db.ClearGameHistory("g1"))
	all, err = db.GetGameHistory("g1")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestJournal_TracksEngineGame(t *testing.T) {
	db := openTestDB(t)
	reg, err := catalog.Default()
	require.NoError(t, err)

	rules := game.DefaultRules()
	rules.Seed = 3
	g, err := game.New(game.Config{
		ID:       "g1",
		Players:  []string{"p1", "p2"},
		Registry: reg,
		Rules:    rules,
		Journal:  db,
	})
	require.NoError(t, err)

	stored, err := db.GetGame("g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, stored.Players)
	assert.Equal(t, int64(3), stored.Rules.Seed)
	assert.Equal(t, GameStatusWaiting, stored.Status)

	for g.Phase() != game.PhaseWorkPlacement {
		_, err := g.AdvancePhase()
		require.NoError(t, err)
	}
	active := g.State().ActivePlayer
	_, err = g.RequestMove(game.PlaceWorker(active, "dayLaborer"))
	require.NoError(t, err)

	stored, err = db.GetGame("g1")
	require.NoError(t, err)
	assert.Equal(t, GameStatusStarted, stored.Status)

	events, err := db.GetGameHistory("g1")
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, string(game.EventGameCreated), events[0].EventType)

	last := events[len(events)-1]
	assert.Equal(t, string(game.EventMove), last.EventType)
	assert.Equal(t, active, last.PlayerID)
	assert.Equal(t, 1, last.Round)

	var data map[string]any
	require.NoError(t, json.Unmarshal(last.Data, &data))
	assert.Equal(t, "dayLaborer", data["action"])

	g.Stop()
	stored, err = db.GetGame("g1")
	require.NoError(t, err)
	assert.Equal(t, GameStatusFinished, stored.Status)
}
