package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homestead/internal/catalog"
	"homestead/internal/database"
	"homestead/internal/game"
	"homestead/internal/goods"
	"homestead/internal/protocol"
	"homestead/pkg/layouts"
)

type testServer struct {
	*Server
	http *httptest.Server
}

func newTestServer(t *testing.T, withDB bool) *testServer {
	t.Helper()
	reg, err := catalog.Default()
	require.NoError(t, err)

	cfg := Config{Registry: reg, Rules: game.DefaultRules()}
	if withDB {
		db, err := database.New(filepath.Join(t.TempDir(), "homestead.db"))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		cfg.DB = db
	}
	s, err := New(cfg)
	require.NoError(t, err)

	hs := httptest.NewServer(s.Handler())
	t.Cleanup(hs.Close)
	return &testServer{Server: s, http: hs}
}

type wsConn struct {
	t    *testing.T
	conn *websocket.Conn
}

func (ts *testServer) dial(t *testing.T) *wsConn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })

	c := &wsConn{t: t, conn: conn}
	c.expect(protocol.TypeWelcome)
	return c
}

func (c *wsConn) send(msgType protocol.MessageType, payload any) string {
	c.t.Helper()
	msg, err := protocol.NewMessage(msgType, payload)
	require.NoError(c.t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(c.t, wsjson.Write(ctx, c.conn, msg))
	return msg.ID
}

// expect reads until a message of the given type arrives, skipping
// broadcasts of other types.
func (c *wsConn) expect(msgType protocol.MessageType) *protocol.Message {
	c.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		var msg protocol.Message
		require.NoError(c.t, wsjson.Read(ctx, c.conn, &msg))
		if msg.Type == msgType {
			return &msg
		}
		if msg.Type == protocol.TypeError {
			var p protocol.ErrorPayload
			require.NoError(c.t, msg.ParsePayload(&p))
			c.t.Fatalf("expected %s, got error %s: %s", msgType, p.Code, p.Message)
		}
	}
}

func (c *wsConn) expectError(code protocol.ErrorCode) {
	c.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		var msg protocol.Message
		require.NoError(c.t, wsjson.Read(ctx, c.conn, &msg))
		if msg.Type != protocol.TypeError {
			continue
		}
		var p protocol.ErrorPayload
		require.NoError(c.t, msg.ParsePayload(&p))
		assert.Equal(c.t, code, p.Code, p.Message)
		return
	}
}

func decode[T any](t *testing.T, msg *protocol.Message) T {
	t.Helper()
	var v T
	require.NoError(t, msg.ParsePayload(&v))
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, false)

	resp, err := http.Get(ts.http.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestPlayRound(t *testing.T) {
	ts := newTestServer(t, true)
	anna := ts.dial(t)
	ben := ts.dial(t)

	id := anna.send(protocol.TypeCreateGame, protocol.CreateGamePayload{
		Players: []string{"anna", "ben"},
		Player:  "anna",
		Seed:    5,
	})
	reply := anna.expect(protocol.TypeGameCreated)
	assert.Equal(t, id, reply.ID)
	created := decode[protocol.GameCreatedPayload](t, reply)
	require.NotEmpty(t, created.GameID)
	assert.NotEmpty(t, created.JoinCode)

	state := decode[protocol.GameStatePayload](t, anna.expect(protocol.TypeGameState))
	assert.Equal(t, game.PhaseSetup, state.Game.State.Phase)
	assert.Equal(t, "anna", state.You)

	ben.send(protocol.TypeJoinGame, protocol.JoinGamePayload{JoinCode: strings.ToLower(created.JoinCode), Player: "ben"})
	joined := decode[protocol.JoinedGamePayload](t, ben.expect(protocol.TypeJoinedGame))
	assert.Equal(t, created.GameID, joined.GameID)

	anna.send(protocol.TypeStartGame, nil)
	state = decode[protocol.GameStatePayload](t, anna.expect(protocol.TypeGameState))
	require.Equal(t, game.PhaseWorkPlacement, state.Game.State.Phase)
	assert.Equal(t, 1, state.Game.State.Round)

	changed := decode[protocol.PhaseChangedPayload](t, ben.expect(protocol.TypePhaseChanged))
	assert.Equal(t, game.PhaseWorkPlacement, changed.Phase)

	first, second := anna, ben
	if state.Game.State.ActivePlayer == "ben" {
		first, second = ben, anna
	}

	second.send(protocol.TypeRequestMove, protocol.MovePayload{Kind: game.MovePlaceWorker, Space: "dayLaborer"})
	second.expectError(protocol.ErrorCode(game.CodeIllegalState))

	first.send(protocol.TypeRequestMove, protocol.MovePayload{Kind: game.MovePlaceWorker, Space: "dayLaborer"})
	result := decode[protocol.MoveResultPayload](t, first.expect(protocol.TypeMoveResult))
	assert.Equal(t, "dayLaborer", result.Outcome.Action)
	assert.Equal(t, goods.Goods{goods.Food: 2}, result.Outcome.Gained)

	turn := decode[protocol.TurnChangedPayload](t, second.expect(protocol.TypeTurnChanged))
	assert.Equal(t, result.Outcome.ActivePlayer, turn.ActivePlayer)

	second.send(protocol.TypeRequestMove, protocol.MovePayload{Kind: game.MovePlaceWorker, Space: "dayLaborer"})
	second.expectError(protocol.ErrorCode(game.CodeAlreadyOccupied))

	second.send(protocol.TypeGetHistory, nil)
	history := decode[protocol.GameHistoryPayload](t, second.expect(protocol.TypeGameHistory))
	require.NotEmpty(t, history.Events)
	assert.Equal(t, string(game.EventGameCreated), history.Events[0].Type)

	resp, err := http.Get(ts.http.URL + "/api/games/" + created.GameID + "/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var api protocol.GameHistoryPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&api))
	assert.Len(t, api.Events, len(history.Events))
	last := api.Events[len(api.Events)-1]
	assert.Equal(t, string(game.EventMove), last.Type)
}

func TestRequestErrors(t *testing.T) {
	ts := newTestServer(t, false)
	c := ts.dial(t)

	c.send(protocol.TypeRequestMove, protocol.MovePayload{Kind: game.MovePlaceWorker, Space: "forest"})
	c.expectError(protocol.ErrCodeNotJoined)

	c.send("teleport", nil)
	c.expectError(protocol.ErrCodeUnknownType)

	c.send(protocol.TypeJoinGame, protocol.JoinGamePayload{GameID: "nope", Player: "anna"})
	c.expectError(protocol.ErrorCode(game.CodeUnknownGame))

	c.send(protocol.TypeCreateGame, protocol.CreateGamePayload{Players: []string{"anna"}, Player: "zoe"})
	c.expectError(protocol.ErrCodeNotSeated)

	c.send(protocol.TypeCreateGame, protocol.CreateGamePayload{Players: []string{"anna"}, FeedingPolicy: "weekly"})
	c.expectError(protocol.ErrCodeBadRequest)

	c.send(protocol.TypeCreateGame, protocol.CreateGamePayload{Players: []string{"anna"}, Layout: "swamp"})
	c.expectError(protocol.ErrCodeBadRequest)

	c.send(protocol.TypeCreateGame, protocol.CreateGamePayload{Players: []string{"anna"}})
	created := decode[protocol.GameCreatedPayload](t, c.expect(protocol.TypeGameCreated))
	assert.Empty(t, created.JoinCode)

	other := ts.dial(t)
	other.send(protocol.TypeJoinGame, protocol.JoinGamePayload{GameID: created.GameID, Player: "mallory"})
	other.expectError(protocol.ErrCodeNotSeated)

	c.send(protocol.TypeEndTurn, nil)
	c.expectError(protocol.ErrorCode(game.CodeIllegalState))

	c.send(protocol.TypeGetHistory, nil)
	c.expectError(protocol.ErrCodeBadRequest)

	c.send(protocol.TypePing, nil)
	c.expect(protocol.TypePong)
}

func TestHistoryEndpoint(t *testing.T) {
	ts := newTestServer(t, false)
	resp, err := http.Get(ts.http.URL + "/api/games/x/history")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	ts = newTestServer(t, true)
	resp, err = http.Get(ts.http.URL + "/api/games/x/history")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListGames(t *testing.T) {
	ts := newTestServer(t, false)
	g, err := ts.Engine().Create([]string{"anna"})
	require.NoError(t, err)

	resp, err := http.Get(ts.http.URL + "/api/games")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{g.ID()}, body["games"])
}

func TestCreateGameWithLayout(t *testing.T) {
	ts := newTestServer(t, false)
	c := ts.dial(t)

	c.send(protocol.TypeCreateGame, protocol.CreateGamePayload{Players: []string{"anna"}, Layout: "riverside"})
	c.expect(protocol.TypeGameCreated)
	state := decode[protocol.GameStatePayload](t, c.expect(protocol.TypeGameState))
	require.Len(t, state.Game.Players, 1)
	farm := state.Game.Players[0].Farmyard
	assert.Equal(t, 6, farm.Cols)
	assert.Len(t, farm.Rooms(), 2)
}

func TestListLayouts(t *testing.T) {
	ts := newTestServer(t, false)
	resp, err := http.Get(ts.http.URL + "/api/layouts")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string][]layouts.Info
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	var ids []string
	for _, l := range body["layouts"] {
		ids = append(ids, l.ID)
	}
	assert.Contains(t, ids, "classic")
	assert.Contains(t, ids, "riverside")
}

func TestHubShutdownClosesClients(t *testing.T) {
	ts := newTestServer(t, false)
	c := ts.dial(t)
	require.Eventually(t, func() bool { return ts.Hub().Clients() == 1 }, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ts.Hub().Run(ctx) }()
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	readCtx, readCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer readCancel()
	_, _, err := c.conn.Read(readCtx)
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))
	assert.False(t, ts.Hub().Register(&Client{}))
}
