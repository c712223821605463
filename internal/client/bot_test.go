package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homestead/internal/catalog"
	"homestead/internal/game"
	"homestead/internal/protocol"
	"homestead/internal/server"
)

func newCatalogGame(t *testing.T, players ...string) *game.Game {
	t.Helper()
	reg, err := catalog.Default()
	require.NoError(t, err)
	rules := game.DefaultRules()
	rules.Seed = 11
	g, err := game.New(game.Config{Players: players, Registry: reg, Rules: rules})
	require.NoError(t, err)
	return g
}

func TestWebSocketURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"localhost:30000", "ws://localhost:30000/ws"},
		{"http://localhost:30000/", "ws://localhost:30000/ws"},
		{"https://farm.example.com", "wss://farm.example.com/ws"},
		{"wss://farm.example.com/ws", "wss://farm.example.com/ws"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WebSocketURL(tt.addr), tt.addr)
	}
}

func TestDecide(t *testing.T) {
	g := newCatalogGame(t, "a", "b")

	action, ok := Decide(g.Snapshot(), "a", nil)
	require.True(t, ok)
	assert.Equal(t, protocol.TypeStartGame, action.Type)

	_, ok = Decide(g.Snapshot(), "b", nil)
	assert.False(t, ok, "only the first seat drives phases")

	for g.Phase() != game.PhaseWorkPlacement {
		_, err := g.AdvancePhase()
		require.NoError(t, err)
	}
	active := g.State().ActivePlayer

	action, ok = Decide(g.Snapshot(), active, nil)
	require.True(t, ok)
	require.Equal(t, protocol.TypeRequestMove, action.Type)
	first := action.Space
	assert.NotEmpty(t, first)

	action, ok = Decide(g.Snapshot(), active, map[string]bool{first: true})
	require.True(t, ok)
	assert.NotEqual(t, first, action.Space)

	avoid := make(map[string]bool)
	for _, s := range g.ActionBoard().Cells(game.KindAction) {
		avoid[s.Action] = true
	}
	action, ok = Decide(g.Snapshot(), active, avoid)
	require.True(t, ok)
	assert.Equal(t, protocol.TypePass, action.Type)

	other := "a"
	if active == "a" {
		other = "b"
	}
	_, ok = Decide(g.Snapshot(), other, nil)
	assert.False(t, ok)
}

func TestDecide_ForfeitsPendingDecisions(t *testing.T) {
	g := newCatalogGame(t, "a", "b")
	for g.Phase() != game.PhaseWorkPlacement {
		_, err := g.AdvancePhase()
		require.NoError(t, err)
	}
	active := g.State().ActivePlayer
	_, err := g.RequestMove(game.PlaceWorker(active, "farmExpansion"))
	require.NoError(t, err)

	action, ok := Decide(g.Snapshot(), active, nil)
	require.True(t, ok)
	assert.Equal(t, protocol.TypeEndTurn, action.Type)

	action, ok = Decide(g.Snapshot(), active, map[string]bool{endTurnKey: true})
	require.True(t, ok)
	assert.NotEqual(t, protocol.TypeEndTurn, action.Type)
}

func TestBots_PlayFullGame(t *testing.T) {
	reg, err := catalog.Default()
	require.NoError(t, err)
	rules := game.DefaultRules()
	rules.Seed = 4
	srv, err := server.New(server.Config{Registry: reg, Rules: rules})
	require.NoError(t, err)
	hs := httptest.NewServer(srv.Handler())
	defer hs.Close()

	g, err := srv.Engine().Create([]string{"red", "blue"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	url := WebSocketURL(strings.TrimPrefix(hs.URL, "http://"))
	errs := make(chan error, 2)
	bots := make([]*Bot, 0, 2)
	for _, seat := range []string{"red", "blue"} {
		conn, err := Dial(ctx, url, nil)
		require.NoError(t, err)
		defer conn.Close()

		bot := NewBot(conn, BotOptions{Player: seat, GameID: g.ID()}, nil)
		bots = append(bots, bot)
		go func() { errs <- bot.Run(ctx) }()
	}
	for range bots {
		require.NoError(t, <-errs)
	}

	assert.Equal(t, game.PhaseGameEnd, g.Phase())
	assert.Equal(t, 14, g.State().Round)
	for _, b := range bots {
		assert.Equal(t, g.ID(), b.GameID())
		assert.Positive(t, b.Actions())
	}
}
