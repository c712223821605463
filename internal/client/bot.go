package client

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"homestead/internal/game"
	"homestead/internal/protocol"
	"homestead/pkg/layouts"
)

// endTurnKey marks a failed end_turn in the avoid set.
const endTurnKey = "#end-turn"

// Action is one request the bot wants to send.
type Action struct {
	Type    protocol.MessageType
	Payload any
	// Space is the action space a placement targets.
	Space string
}

// Decide picks the bot's next request from a snapshot. The first seated
// player drives the phases that need no input. On its turn a player forfeits
// decisions it holds, otherwise places a worker on the first open action
// space not in avoid, and passes when none is left.
func Decide(snap game.GameSnapshot, me string, avoid map[string]bool) (Action, bool) {
	st := snap.State
	driver := len(st.Players) > 0 && st.Players[0] == me

	switch st.Phase {
	case game.PhaseSetup:
		if driver {
			return Action{Type: protocol.TypeStartGame}, true
		}
	case game.PhaseStartRound, game.PhaseReturnPeople, game.PhaseHarvest:
		if driver {
			return Action{Type: protocol.TypeAdvancePhase}, true
		}
	case game.PhaseWorkPlacement:
		if st.ActivePlayer != me {
			return Action{}, false
		}
		for _, p := range snap.Players {
			if p.ID == me && len(p.Pending) > 0 && !avoid[endTurnKey] {
				return Action{Type: protocol.TypeEndTurn}, true
			}
		}
		for _, s := range snap.ActionBoard.Cells(game.KindAction) {
			if s.Action == "" || s.IsFull() || avoid[s.Action] {
				continue
			}
			return Action{
				Type:    protocol.TypeRequestMove,
				Payload: protocol.MovePayload{Kind: game.MovePlaceWorker, Space: s.Action},
				Space:   s.Action,
			}, true
		}
		return Action{Type: protocol.TypePass}, true
	}
	return Action{}, false
}

// BotOptions selects the game a bot plays.
type BotOptions struct {
	Player string
	// GameID or JoinCode joins a running game. Without either the bot
	// creates a game for Players.
	GameID   string
	JoinCode string
	Players  []string
	Seed     int64
	Layout   string
}

// Bot plays one seat through a NetworkClient.
type Bot struct {
	opts BotOptions
	net  *NetworkClient
	log  *zap.Logger

	gameID   string
	stateReq string
	inflight string
	last     Action
	avoid    map[string]bool
	round    int
	actions  int
}

// NewBot creates a bot.
func NewBot(net *NetworkClient, opts BotOptions, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{
		opts:  opts,
		net:   net,
		log:   log.With(zap.String("player", opts.Player)),
		avoid: make(map[string]bool),
	}
}

// GameID returns the game the bot plays, once known.
func (b *Bot) GameID() string { return b.gameID }

// Actions returns the number of accepted requests.
func (b *Bot) Actions() int { return b.actions }

// Run joins or creates the game and plays until it ends.
func (b *Bot) Run(ctx context.Context) error {
	var err error
	if b.opts.GameID != "" || b.opts.JoinCode != "" {
		_, err = b.net.Send(protocol.TypeJoinGame, protocol.JoinGamePayload{
			GameID:   b.opts.GameID,
			JoinCode: b.opts.JoinCode,
			Player:   b.opts.Player,
		})
	} else {
		_, err = b.net.Send(protocol.TypeCreateGame, protocol.CreateGamePayload{
			Players: b.opts.Players,
			Player:  b.opts.Player,
			Seed:    b.opts.Seed,
			Layout:  b.opts.Layout,
		})
	}
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-b.net.Recv():
			if !ok {
				if err := b.net.Err(); err != nil {
					return err
				}
				return errors.New("connection closed before the game ended")
			}
			done, err := b.handle(msg)
			if err != nil || done {
				return err
			}
		}
	}
}

func (b *Bot) handle(msg *protocol.Message) (bool, error) {
	switch msg.Type {
	case protocol.TypeGameCreated:
		var p protocol.GameCreatedPayload
		if err := msg.ParsePayload(&p); err != nil {
			return false, err
		}
		b.gameID = p.GameID
		b.log.Info("created game", zap.String("game", p.GameID), zap.String("join_code", p.JoinCode))
		return false, b.refresh()

	case protocol.TypeJoinedGame:
		var p protocol.JoinedGamePayload
		if err := msg.ParsePayload(&p); err != nil {
			return false, err
		}
		b.gameID = p.GameID
		b.log.Info("joined game", zap.String("game", p.GameID))
		return false, b.refresh()

	case protocol.TypeGameState:
		if msg.ID == b.inflight {
			b.accepted()
			return false, b.refresh()
		}
		if msg.ID != b.stateReq {
			return false, nil
		}
		var p protocol.GameStatePayload
		if err := msg.ParsePayload(&p); err != nil {
			return false, err
		}
		return b.act(p.Game)

	case protocol.TypeMoveResult, protocol.TypeDecisionResult:
		if msg.ID == b.inflight {
			b.accepted()
		}
		return false, b.refresh()

	case protocol.TypePhaseChanged, protocol.TypeTurnChanged:
		if msg.ID == b.inflight {
			b.accepted()
		}
		return false, b.refresh()

	case protocol.TypeError:
		var p protocol.ErrorPayload
		if err := msg.ParsePayload(&p); err != nil {
			return false, err
		}
		if b.gameID == "" {
			return false, fmt.Errorf("%s: %s", p.Code, p.Message)
		}
		if msg.ID == b.inflight {
			b.rejected(p)
		}
		return false, b.refresh()
	}
	return false, nil
}

func (b *Bot) refresh() error {
	id, err := b.net.Send(protocol.TypeGetState, nil)
	if err != nil {
		return err
	}
	b.stateReq = id
	return nil
}

func (b *Bot) act(snap game.GameSnapshot) (bool, error) {
	if snap.State.Phase == game.PhaseGameEnd {
		b.log.Info("game over", zap.String("game", b.gameID), zap.Int("actions", b.actions))
		for _, p := range snap.Players {
			if p.ID == b.opts.Player {
				b.log.Debug("final farmyard", zap.String("board", layouts.Render(p.Farmyard)))
			}
		}
		return true, nil
	}
	if snap.State.Round != b.round {
		b.round = snap.State.Round
		clear(b.avoid)
	}
	if b.inflight != "" {
		return false, nil
	}

	action, ok := Decide(snap, b.opts.Player, b.avoid)
	if !ok {
		return false, nil
	}
	id, err := b.net.Send(action.Type, action.Payload)
	if err != nil {
		return false, err
	}
	b.inflight, b.last = id, action
	b.log.Debug("sent", zap.String("type", string(action.Type)), zap.String("space", action.Space))
	return false, nil
}

func (b *Bot) accepted() {
	b.actions++
	b.inflight = ""
	clear(b.avoid)
}

func (b *Bot) rejected(p protocol.ErrorPayload) {
	b.inflight = ""
	switch b.last.Type {
	case protocol.TypeRequestMove:
		b.avoid[b.last.Space] = true
	case protocol.TypeEndTurn:
		b.avoid[endTurnKey] = true
	}
	b.log.Debug("request rejected",
		zap.String("type", string(b.last.Type)),
		zap.String("code", string(p.Code)),
		zap.String("message", p.Message),
	)
}
