package server

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"homestead/internal/database"
	"homestead/internal/game"
	"homestead/internal/protocol"
	"homestead/pkg/layouts"
)

// Handlers processes incoming messages.
type Handlers struct {
	s *Server
}

// NewHandlers creates a new handler set.
func NewHandlers(s *Server) *Handlers {
	return &Handlers{s: s}
}

// Handle routes a message to the appropriate handler.
func (h *Handlers) Handle(ctx context.Context, client *Client, msg *protocol.Message) {
	var err error

	switch msg.Type {
	case protocol.TypePing:
		client.Send(mustMessage(protocol.TypePong, msg.ID, nil))
	case protocol.TypeCreateGame:
		err = h.handleCreateGame(client, msg)
	case protocol.TypeJoinGame:
		err = h.handleJoinGame(client, msg)
	case protocol.TypeGetState:
		err = h.handleGetState(client, msg)
	case protocol.TypeGetHistory:
		err = h.handleGetHistory(client, msg)
	case protocol.TypeStartGame:
		err = h.handleStartGame(client, msg)
	case protocol.TypeRequestMove:
		err = h.handleRequestMove(client, msg)
	case protocol.TypeResolveDecision:
		err = h.handleResolveDecision(client, msg)
	case protocol.TypeAdvancePhase:
		err = h.handleAdvancePhase(client, msg)
	case protocol.TypeEndTurn:
		err = h.handleEndTurn(client, msg)
	case protocol.TypePass:
		err = h.handlePass(client, msg)
	default:
		err = protocol.Errorf(protocol.ErrCodeUnknownType, fmt.Sprintf("unknown message type %q", msg.Type))
	}

	if err != nil {
		h.sendError(client, msg, err)
	}
}

func (h *Handlers) sendError(client *Client, msg *protocol.Message, err error) {
	payload := protocol.ErrorFrom(err)
	payload.RequestID = msg.ID
	if payload.Code == protocol.ErrCodeInternal {
		h.s.log.Error("request failed", zap.String("type", string(msg.Type)), zap.Error(err))
	} else {
		h.s.log.Debug("request rejected",
			zap.String("type", string(msg.Type)),
			zap.String("code", string(payload.Code)),
			zap.Error(err),
		)
	}
	client.Send(mustMessage(protocol.TypeError, msg.ID, payload))
}

func parse(msg *protocol.Message, v any) error {
	if err := msg.ParsePayload(v); err != nil {
		return protocol.Errorf(protocol.ErrCodeBadRequest, "invalid payload: "+err.Error())
	}
	return nil
}

// joined returns the game and seat the client is bound to.
func (h *Handlers) joined(client *Client) (*game.Game, string, error) {
	gameID := client.GameID()
	if gameID == "" {
		return nil, "", protocol.Errorf(protocol.ErrCodeNotJoined, "join a game first")
	}
	g, err := h.s.engine.Lookup(gameID)
	if err != nil {
		return nil, "", err
	}
	return g, client.PlayerID(), nil
}

// handleCreateGame starts a game in Setup and seats the sender.
func (h *Handlers) handleCreateGame(client *Client, msg *protocol.Message) error {
	var payload protocol.CreateGamePayload
	if err := parse(msg, &payload); err != nil {
		return err
	}
	if payload.Player == "" && len(payload.Players) > 0 {
		payload.Player = payload.Players[0]
	}
	if !slices.Contains(payload.Players, payload.Player) {
		return protocol.Errorf(protocol.ErrCodeNotSeated, fmt.Sprintf("%q is not one of the players", payload.Player))
	}

	rules := h.s.engine.Rules()
	if payload.Seed != 0 {
		rules.Seed = payload.Seed
	}
	if payload.FeedingPolicy != "" {
		policy, err := game.ParseFeedingPolicy(payload.FeedingPolicy)
		if err != nil {
			return protocol.Errorf(protocol.ErrCodeBadRequest, err.Error())
		}
		rules.FeedingPolicy = policy
	}
	if payload.Layout != "" {
		var err error
		if rules, err = layouts.Rules(payload.Layout, rules); err != nil {
			return protocol.Errorf(protocol.ErrCodeBadRequest, err.Error())
		}
	}

	g, err := h.s.engine.CreateWith(payload.Players, rules)
	if err != nil {
		return err
	}

	response := protocol.GameCreatedPayload{GameID: g.ID(), Players: g.Players()}
	if h.s.db != nil {
		if stored, err := h.s.db.GetGame(g.ID()); err == nil {
			response.JoinCode = stored.JoinCode
		}
	}

	h.bind(client, g.ID(), payload.Player)
	h.s.log.Info("game created",
		zap.String("game", g.ID()),
		zap.Strings("players", g.Players()),
		zap.String("by", payload.Player),
	)

	client.Send(mustMessage(protocol.TypeGameCreated, msg.ID, response))
	client.Send(mustMessage(protocol.TypeGameState, "", h.state(g, payload.Player)))
	return nil
}

// handleJoinGame seats the client in a running game.
func (h *Handlers) handleJoinGame(client *Client, msg *protocol.Message) error {
	var payload protocol.JoinGamePayload
	if err := parse(msg, &payload); err != nil {
		return err
	}

	gameID := payload.GameID
	if gameID == "" {
		if payload.JoinCode == "" || h.s.db == nil {
			return protocol.Errorf(protocol.ErrCodeBadRequest, "gameId is required")
		}
		stored, err := h.s.db.GetGameByJoinCode(payload.JoinCode)
		if errors.Is(err, database.ErrJoinCodeNotFound) {
			return fmt.Errorf("%w: join code %s", game.ErrUnknownGame, payload.JoinCode)
		}
		if err != nil {
			return err
		}
		gameID = stored.ID
	}

	g, err := h.s.engine.Lookup(gameID)
	if err != nil {
		return err
	}
	if !h.s.engine.Seated(gameID, payload.Player) {
		return protocol.Errorf(protocol.ErrCodeNotSeated, fmt.Sprintf("%q has no seat in %s", payload.Player, gameID))
	}

	h.bind(client, gameID, payload.Player)
	client.Send(mustMessage(protocol.TypeJoinedGame, msg.ID, protocol.JoinedGamePayload{GameID: gameID, Player: payload.Player}))
	client.Send(mustMessage(protocol.TypeGameState, "", h.state(g, payload.Player)))
	return nil
}

func (h *Handlers) bind(client *Client, gameID, player string) {
	h.s.hub.Join(client, gameID, player)
	if h.s.db == nil {
		return
	}
	if err := h.s.db.SetPlayerConnected(gameID, player, true); err != nil {
		h.s.log.Debug("failed to record connection", zap.String("game", gameID), zap.Error(err))
	}
}

func (h *Handlers) state(g *game.Game, player string) protocol.GameStatePayload {
	return protocol.GameStatePayload{Game: g.Snapshot(), You: player}
}

func (h *Handlers) handleGetState(client *Client, msg *protocol.Message) error {
	g, player, err := h.joined(client)
	if err != nil {
		return err
	}
	lock := h.s.session(g.ID())
	lock.Lock()
	defer lock.Unlock()
	client.Send(mustMessage(protocol.TypeGameState, msg.ID, h.state(g, player)))
	return nil
}

func (h *Handlers) handleGetHistory(client *Client, msg *protocol.Message) error {
	g, _, err := h.joined(client)
	if err != nil {
		return err
	}
	if h.s.db == nil {
		return protocol.Errorf(protocol.ErrCodeBadRequest, "history is not recorded")
	}
	var payload protocol.GetHistoryPayload
	if err := parse(msg, &payload); err != nil {
		return err
	}
	entries, err := h.s.history(g.ID(), payload.AfterID)
	if err != nil {
		return err
	}
	client.Send(mustMessage(protocol.TypeGameHistory, msg.ID, protocol.GameHistoryPayload{
		GameID:  g.ID(),
		AfterID: payload.AfterID,
		Events:  entries,
	}))
	return nil
}

// mutate runs fn under the game's session lock and broadcasts any phase or
// turn change it caused.
func (h *Handlers) mutate(client *Client, fn func(g *game.Game, player string) error) error {
	g, player, err := h.joined(client)
	if err != nil {
		return err
	}
	lock := h.s.session(g.ID())
	lock.Lock()
	defer lock.Unlock()

	before := g.State()
	if err := fn(g, player); err != nil {
		return err
	}
	after := g.State()

	if after.Phase != before.Phase || after.Round != before.Round {
		payload := protocol.PhaseChangedPayload{
			Phase:        after.Phase,
			Round:        after.Round,
			Stage:        after.Stage,
			ActivePlayer: after.ActivePlayer,
		}
		if after.Phase == game.PhaseHarvest {
			payload.Harvest = g.LastHarvest()
		}
		h.s.hub.Broadcast(g.ID(), protocol.TypePhaseChanged, payload)
	}
	if after.ActivePlayer != before.ActivePlayer && after.Phase == game.PhaseWorkPlacement {
		h.s.hub.Broadcast(g.ID(), protocol.TypeTurnChanged, protocol.TurnChangedPayload{
			ActivePlayer: after.ActivePlayer,
			Round:        after.Round,
		})
	}
	return nil
}

// handleStartGame leaves Setup and runs the machine into the first
// WorkPlacement.
func (h *Handlers) handleStartGame(client *Client, msg *protocol.Message) error {
	return h.mutate(client, func(g *game.Game, player string) error {
		if err := g.Start(); err != nil {
			return err
		}
		h.s.log.Info("game started", zap.String("game", g.ID()), zap.String("by", player))
		client.Send(mustMessage(protocol.TypeGameState, msg.ID, h.state(g, player)))
		return nil
	})
}

func (h *Handlers) handleRequestMove(client *Client, msg *protocol.Message) error {
	var payload protocol.MovePayload
	if err := parse(msg, &payload); err != nil {
		return err
	}
	return h.mutate(client, func(g *game.Game, player string) error {
		out, err := g.RequestMove(payload.Request(player))
		if err != nil {
			return err
		}
		client.Send(mustMessage(protocol.TypeMoveResult, msg.ID, protocol.MoveResultPayload{Outcome: out}))
		return nil
	})
}

func (h *Handlers) handleResolveDecision(client *Client, msg *protocol.Message) error {
	var payload protocol.ResolveDecisionPayload
	if err := parse(msg, &payload); err != nil {
		return err
	}
	return h.mutate(client, func(g *game.Game, player string) error {
		out, err := g.ResolveDecision(player, payload.Args)
		if err != nil {
			return err
		}
		client.Send(mustMessage(protocol.TypeDecisionResult, msg.ID, protocol.DecisionResultPayload{Outcome: out}))
		return nil
	})
}

func (h *Handlers) handleAdvancePhase(client *Client, msg *protocol.Message) error {
	return h.mutate(client, func(g *game.Game, player string) error {
		if _, err := g.AdvancePhase(); err != nil {
			return err
		}
		s := g.State()
		client.Send(mustMessage(protocol.TypePhaseChanged, msg.ID, protocol.PhaseChangedPayload{
			Phase:        s.Phase,
			Round:        s.Round,
			Stage:        s.Stage,
			ActivePlayer: s.ActivePlayer,
		}))
		return nil
	})
}

func (h *Handlers) handleEndTurn(client *Client, msg *protocol.Message) error {
	return h.mutate(client, func(g *game.Game, player string) error {
		if err := g.EndTurn(player); err != nil {
			return err
		}
		client.Send(mustMessage(protocol.TypeGameState, msg.ID, h.state(g, player)))
		return nil
	})
}

func (h *Handlers) handlePass(client *Client, msg *protocol.Message) error {
	return h.mutate(client, func(g *game.Game, player string) error {
		if err := g.Pass(player); err != nil {
			return err
		}
		client.Send(mustMessage(protocol.TypeGameState, msg.ID, h.state(g, player)))
		return nil
	})
}
