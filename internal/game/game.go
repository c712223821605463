package game

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"homestead/internal/goods"
)

// Phase sets for the operation gate.
var (
	setupPhases     = []Phase{PhaseSetup}
	placementPhases = []Phase{PhaseWorkPlacement}
	advancePhases   = []Phase{PhaseSetup, PhaseStartRound, PhaseReturnPeople, PhaseHarvest}
	convertPhases   = []Phase{PhaseStartRound, PhaseWorkPlacement, PhaseReturnPeople, PhaseHarvest}
)

// Game is the single entry point a driver talks to. Every call is checked
// against the phase machine before anything is validated or changed.
// A Game is not safe for concurrent use.
type Game struct {
	state     *GameState
	rules     Rules
	registry  ActionRegistry
	validator *Validator
	supply    Supply

	farms   map[string]*Board
	actions *Board
	queues  map[string]*DecisionQueue

	reveal   []ActionDef
	revealed int

	cards       map[string]string // card id -> player who played it
	occupations map[string]int
	hands       map[string][]string
	lastHarvest []HarvestReport

	log     *zap.Logger
	journal Journal
}

// MoveOutcome reports a committed move.
type MoveOutcome struct {
	Player       string      `json:"player"`
	Kind         MoveKind    `json:"kind"`
	Action       string      `json:"action,omitempty"`
	Paid         goods.Goods `json:"paid,omitempty"`
	Gained       goods.Goods `json:"gained,omitempty"`
	Pending      []FrameView `json:"pending,omitempty"`
	Phase        Phase       `json:"phase"`
	ActivePlayer string      `json:"activePlayer,omitempty"`
}

// EffectOutcome reports a ResolveDecision call.
type EffectOutcome struct {
	Resolution
	Pending      []FrameView `json:"pending,omitempty"`
	Phase        Phase       `json:"phase"`
	ActivePlayer string      `json:"activePlayer,omitempty"`
}

// ID returns the game identity.
func (g *Game) ID() string { return g.state.ID() }

// Phase returns the current phase.
func (g *Game) Phase() Phase { return g.state.Phase() }

// State returns a copy of the phase machine.
func (g *Game) State() StateSnapshot { return g.state.Snapshot() }

// Players returns the seating order.
func (g *Game) Players() []string { return g.state.Players() }

// Rules returns the rules the game runs with.
func (g *Game) Rules() Rules { return g.rules }

// Farmyard returns a copy of a player's farmyard.
func (g *Game) Farmyard(player string) (BoardView, error) {
	farm, ok := g.farms[player]
	if !ok {
		return BoardView{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, player)
	}
	return farm.View(), nil
}

// ActionBoard returns a copy of the shared action board.
func (g *Game) ActionBoard() BoardView { return g.actions.View() }

// PendingDecisions returns copies of a player's pending frames, head first.
func (g *Game) PendingDecisions(player string) ([]FrameView, error) {
	q, ok := g.queues[player]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, player)
	}
	return q.Pending(), nil
}

// RequestMove validates and commits a move. Worker placements and farmyard
// moves belong to the active player during WorkPlacement; a farmyard move must
// be authorized by the player's head decision and resolves it.
func (g *Game) RequestMove(req MoveRequest) (MoveOutcome, error) {
	player := req.player

	switch {
	case req.kind == MoveConvert:
		if err := g.state.CheckPhase("convert", convertPhases, ""); err != nil {
			return MoveOutcome{}, err
		}
		return g.commitMove(req)

	case req.kind == MovePlaceWorker:
		if err := g.state.CheckPhase("place worker", placementPhases, player); err != nil {
			return MoveOutcome{}, err
		}
		if g.state.PlacedThisTurn() {
			return MoveOutcome{}, &IllegalStateError{
				Op:       "place worker",
				Expected: placementPhases,
				Actual:   g.state.Phase(),
				Reason:   "already placed a worker this turn",
			}
		}
		return g.placeWorker(req)

	case req.kind.isFarmMove():
		op := req.kind.String()
		if err := g.state.CheckPhase(op, placementPhases, player); err != nil {
			return MoveOutcome{}, err
		}
		if len(req.targets) == 0 {
			return MoveOutcome{}, &InvalidArgumentError{Name: ArgSpace, Reason: "missing target coordinate"}
		}
		head, ok := g.queues[player].Head()
		if !ok || !head.Authorizes(req.kind) {
			return MoveOutcome{}, &IllegalStateError{
				Op:       op,
				Expected: placementPhases,
				Actual:   g.state.Phase(),
				Reason:   "no pending decision allows " + op,
			}
		}
		before := g.supply.Holdings(player)
		res, err := g.resolve(player, moveArgs(req))
		if err != nil {
			return MoveOutcome{}, err
		}
		out := g.moveOutcome(req, "")
		out.Action = res.Frame.Source
		out.Paid, out.Gained = diffHoldings(before, g.supply.Holdings(player))
		return out, nil
	}

	return MoveOutcome{}, &InvalidArgumentError{Name: "kind", Reason: fmt.Sprintf("unsupported move %s", req.kind)}
}

// ResolveDecision binds arguments to the player's head frame, running it once
// every required argument is present.
func (g *Game) ResolveDecision(player string, args map[string]any) (EffectOutcome, error) {
	if err := g.state.CheckPhase("resolve decision", placementPhases, player); err != nil {
		return EffectOutcome{}, err
	}
	res, err := g.resolve(player, args)
	if err != nil {
		return EffectOutcome{}, err
	}
	return EffectOutcome{
		Resolution:   res,
		Pending:      g.queues[player].Pending(),
		Phase:        g.state.Phase(),
		ActivePlayer: g.state.ActivePlayer(),
	}, nil
}

// AdvancePhase moves the game out of a phase that needs no player input.
// WorkPlacement ends by itself once every worker is placed.
func (g *Game) AdvancePhase() (Phase, error) {
	if err := g.state.CheckPhase("advance", advancePhases, ""); err != nil {
		return g.state.Phase(), err
	}
	return g.advance()
}

// Start leaves Setup and runs the machine through round preparation into the
// first WorkPlacement.
func (g *Game) Start() error {
	if err := g.state.CheckPhase("start", setupPhases, ""); err != nil {
		return err
	}
	for g.state.Phase() != PhaseWorkPlacement && !g.state.Phase().IsTerminal() {
		if _, err := g.advance(); err != nil {
			return err
		}
	}
	return nil
}

// EndTurn forfeits the active player's remaining decisions and passes the turn on.
func (g *Game) EndTurn(player string) error {
	if err := g.state.CheckPhase("end turn", placementPhases, player); err != nil {
		return err
	}
	if !g.state.PlacedThisTurn() {
		return &IllegalStateError{
			Op:       "end turn",
			Expected: placementPhases,
			Actual:   g.state.Phase(),
			Reason:   "place a worker before ending the turn",
		}
	}
	g.closeTurn(player)
	return nil
}

// Pass gives up the player's remaining workers this round.
func (g *Game) Pass(player string) error {
	if err := g.state.Pass(player); err != nil {
		return err
	}
	g.log.Info("player passed", zap.String("player", player), zap.Int("round", g.state.Round()))
	g.closeTurn(player)
	return nil
}

// Stop ends the game early.
func (g *Game) Stop() {
	if g.state.Phase().IsTerminal() {
		return
	}
	for _, p := range g.state.Players() {
		g.forfeit(p, g.queues[p].Clear(ExpireRound))
	}
	from := g.state.Phase()
	g.state.Stop()
	g.phaseChanged(from)
}

func (g *Game) advance() (Phase, error) {
	from := g.state.Phase()
	next, err := g.state.Advance()
	if err != nil {
		return next, err
	}
	g.phaseChanged(from)
	return g.state.Phase(), nil
}

// phaseChanged runs the entry hook of the phase the machine landed in.
func (g *Game) phaseChanged(from Phase) {
	to := g.state.Phase()
	g.log.Info("phase changed",
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.Int("round", g.state.Round()),
		zap.Int("stage", g.state.Stage()),
	)
	g.record(EventPhaseChanged, "", fmt.Sprintf("%s -> %s", from, to), map[string]any{
		"from": from.String(), "to": to.String(),
	})

	switch to {
	case PhaseStartRound:
		g.prepareRound()
	case PhaseReturnPeople:
		g.returnHome()
	case PhaseHarvest:
		g.harvest()
	case PhaseGameEnd:
		g.record(EventGameEnded, "", "game ended", nil)
	}
}

func (g *Game) placeWorker(req MoveRequest) (MoveOutcome, error) {
	player := req.player
	effect, err := g.validator.Validate(req, g.snapshotFor(player))
	if err != nil {
		return MoveOutcome{}, err
	}
	if err := g.commit(effect); err != nil {
		return MoveOutcome{}, err
	}
	if err := g.state.PlaceWorker(player); err != nil {
		return MoveOutcome{}, err
	}

	for _, f := range g.begin(player, effect.Action) {
		g.queues[player].Push(f)
	}

	g.log.Debug("worker placed",
		zap.String("player", player),
		zap.String("action", effect.Action.ID),
		zap.String("effect", effect.Action.Effect.String()),
		zap.Int("pending", g.queues[player].Len()),
	)
	g.record(EventMove, player, "placed worker on "+effect.Action.ID, map[string]any{
		"action": effect.Action.ID, "gained": effect.Grant, "paid": effect.Cost,
	})

	out := g.moveOutcome(req, effect.Action.ID)
	out.Paid, out.Gained = effect.Cost, effect.Grant
	g.afterAction(player)
	out.Phase = g.state.Phase()
	out.ActivePlayer = g.state.ActivePlayer()
	return out, nil
}

func (g *Game) commitMove(req MoveRequest) (MoveOutcome, error) {
	if !g.state.HasPlayer(req.player) {
		return MoveOutcome{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, req.player)
	}
	effect, err := g.validator.Validate(req, g.snapshotFor(req.player))
	if err != nil {
		return MoveOutcome{}, err
	}
	if err := g.commit(effect); err != nil {
		return MoveOutcome{}, err
	}
	g.record(EventMove, req.player, req.kind.String(), map[string]any{"paid": effect.Cost, "gained": effect.Grant})
	out := g.moveOutcome(req, "")
	out.Paid, out.Gained = effect.Cost, effect.Grant
	return out, nil
}

// resolve runs the shared decision path used by ResolveDecision and by
// farmyard moves.
func (g *Game) resolve(player string, args map[string]any) (Resolution, error) {
	q := g.queues[player]
	res, err := q.Resolve(args, g.invoke)
	if err != nil {
		return Resolution{}, err
	}
	if res.Complete {
		g.log.Debug("decision resolved",
			zap.String("player", player),
			zap.String("frame_id", res.Frame.ID),
			zap.String("effect", res.Frame.Effect.String()),
			zap.Int("follow_ups", len(res.FollowUps)),
		)
		g.record(EventDecision, player, "resolved "+res.Frame.Effect.String(), map[string]any{
			"frame": res.Frame.ID, "source": res.Frame.Source, "args": res.Frame.Bound,
		})
		g.afterAction(player)
	}
	return res, nil
}

// commit applies a validated effect to the boards and the supply, all or
// nothing. Board changes are staged on copies and every supply check runs
// before the first write.
func (g *Game) commit(effect MoveEffect) error {
	player := effect.Player
	actions, farm := g.actions.clone(), g.farms[player].clone()
	if err := actions.apply(effect.Actions); err != nil {
		return err
	}
	if err := farm.apply(effect.Farm); err != nil {
		return err
	}
	if missing := g.supply.Holdings(player).Missing(effect.Cost); !missing.IsEmpty() {
		return &InsufficientResourcesError{Player: player, Missing: missing}
	}
	for p, n := range effect.Pieces {
		if g.supply.LimitedLeft(player, p) < n {
			return &InsufficientResourcesError{Player: player, Piece: p}
		}
	}

	if err := g.supply.Spend(player, effect.Cost); err != nil {
		return &InsufficientResourcesError{Player: player, Missing: g.supply.Holdings(player).Missing(effect.Cost)}
	}
	for p, n := range effect.Pieces {
		if err := g.supply.TakeLimited(player, p, n); err != nil {
			g.log.Error("piece supply changed during commit", zap.String("player", player), zap.Error(err))
		}
	}
	*g.actions = *actions
	*g.farms[player] = *farm
	grantAll(g.supply, player, effect.Grant)
	return nil
}

// afterAction ends the turn once the active player has placed and has no
// turn-scoped decisions left.
func (g *Game) afterAction(player string) {
	if g.state.Phase() != PhaseWorkPlacement || g.state.ActivePlayer() != player {
		return
	}
	if !g.state.PlacedThisTurn() || g.queues[player].blocking() {
		return
	}
	g.closeTurn(player)
}

func (g *Game) closeTurn(player string) {
	g.forfeit(player, g.queues[player].Clear(ExpireTurn))
	from := g.state.Phase()
	if to := g.state.NextTurn(); to != from {
		g.phaseChanged(from)
	}
}

func (g *Game) forfeit(player string, dropped []DecisionFrame) {
	for _, f := range dropped {
		g.log.Info("decision forfeited",
			zap.String("player", player),
			zap.String("frame_id", f.ID),
			zap.String("effect", f.Effect.String()),
			zap.Strings("missing", f.Missing()),
		)
		g.record(EventForfeit, player, "forfeited "+f.Effect.String(), map[string]any{"frame": f.ID, "source": f.Source})
	}
}

// snapshotFor collects what the validator needs to judge a player's move.
func (g *Game) snapshotFor(player string) Snapshot {
	played := make(map[string]string, len(g.cards))
	for id, p := range g.cards {
		played[id] = p
	}
	snap := Snapshot{
		State:       g.state.Snapshot(),
		Actions:     g.actions.View(),
		Holdings:    g.supply.Holdings(player),
		Pieces:      limitedLeft(g.supply, player),
		Occupations: g.occupations[player],
		PlayedCards: played,
	}
	if farm, ok := g.farms[player]; ok {
		snap.Farmyard = farm.View()
	}
	return snap
}

func (g *Game) moveOutcome(req MoveRequest, action string) MoveOutcome {
	return MoveOutcome{
		Player:       req.player,
		Kind:         req.kind,
		Action:       action,
		Pending:      g.queues[req.player].Pending(),
		Phase:        g.state.Phase(),
		ActivePlayer: g.state.ActivePlayer(),
	}
}

func (g *Game) record(kind EventKind, player, message string, data map[string]any) {
	ev := Event{
		GameID:  g.state.ID(),
		Kind:    kind,
		Player:  player,
		Round:   g.state.Round(),
		Phase:   g.state.Phase(),
		Message: message,
		Data:    data,
		At:      time.Now().UTC(),
	}
	if err := g.journal.Record(ev); err != nil {
		g.log.Warn("journal write failed", zap.String("event", string(kind)), zap.Error(err))
	}
}

func (g *Game) actionBoardSpaces() []SpaceView {
	var out []SpaceView
	for _, s := range g.actions.View().Spaces {
		if s.Action != "" {
			out = append(out, s)
		}
	}
	return out
}

// diffHoldings splits the change between two holdings into paid and gained goods.
func diffHoldings(before, after goods.Goods) (paid, gained goods.Goods) {
	paid, gained = goods.Goods{}, goods.Goods{}
	for _, g := range before.Add(after).Kinds() {
		switch d := after[g] - before[g]; {
		case d < 0:
			paid[g] = -d
		case d > 0:
			gained[g] = d
		}
	}
	return paid, gained
}
