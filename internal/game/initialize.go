package game

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"homestead/internal/goods"
	"homestead/internal/random"
	"homestead/internal/supply"
)

// Config contains everything needed to set up one game.
type Config struct {
	ID       string
	Players  []string
	Registry ActionRegistry
	Supply   Supply
	Rules    Rules
	Logger   *zap.Logger
	Journal  Journal
}

// New creates a game in Setup with its own phase machine.
func New(cfg Config) (*Game, error) {
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	if cfg.Rules.Rounds == 0 {
		cfg.Rules = DefaultRules()
	}
	state, err := NewGameState(cfg.ID, cfg.Players, cfg.Rules)
	if err != nil {
		return nil, err
	}
	return newGame(state, cfg)
}

// newGame builds the boards and supply around an existing phase machine.
func newGame(state *GameState, cfg Config) (*Game, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("%w: no action registry", ErrInvalidConfig)
	}
	rules := state.rules
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if rules.Seed == 0 {
		seed, err := random.NewSeed()
		if err != nil {
			return nil, err
		}
		rules.Seed = seed
	}
	if cfg.Supply == nil {
		cfg.Supply = supply.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Journal == nil {
		cfg.Journal = NopJournal{}
	}

	players := state.Players()
	g := &Game{
		state:       state,
		rules:       rules,
		registry:    cfg.Registry,
		validator:   NewValidator(cfg.Registry, rules),
		supply:      cfg.Supply,
		farms:       make(map[string]*Board, len(players)),
		queues:      make(map[string]*DecisionQueue, len(players)),
		cards:       make(map[string]string),
		occupations: make(map[string]int, len(players)),
		log:         cfg.Logger.With(zap.String("game_id", state.ID())),
		journal:     cfg.Journal,
	}

	// Create action board
	actions, err := NewActionBoard(cfg.Registry, len(players))
	if err != nil {
		return nil, err
	}
	g.actions = actions
	g.reveal = revealOrder(cfg.Registry, len(players), rules.Seed)
	g.hands = dealHands(cfg.Registry, players, rules)

	// Create farmyards and hand out starting goods
	for i, p := range players {
		farm, err := NewFarmyard(p, rules)
		if err != nil {
			return nil, err
		}
		g.farms[p] = farm
		g.queues[p] = NewDecisionQueue(p)

		if err := g.supply.TakeLimited(p, goods.Person, rules.StartingWorkers); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		food := rules.StartingFood
		if i == 0 {
			food = rules.StartingPlayerFood
		}
		g.supply.Grant(p, goods.Food, food)
	}

	g.log.Info("game created",
		zap.Strings("players", players),
		zap.Int64("seed", rules.Seed),
		zap.Int("action_spaces", len(g.actionBoardSpaces())),
	)
	g.record(EventGameCreated, "", "game created", map[string]any{"players": players, "rules": rules})
	return g, nil
}

// NewFarmyard creates a farmyard with the starting wooden rooms.
func NewFarmyard(owner string, rules Rules) (*Board, error) {
	b, err := NewBoard(FarmyardCapabilities(), owner, rules.FarmRows, rules.FarmCols, KindEmpty)
	if err != nil {
		return nil, err
	}
	for _, c := range rules.StartingRooms {
		if err := b.setup(c, KindWoodRoom, "", 0); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// NewActionBoard lays out every action space available at this player count.
// Stage spaces start blocked and are revealed one per round.
func NewActionBoard(registry ActionRegistry, players int) (*Board, error) {
	defs := spacesFor(registry, players)
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: no action spaces for %d players", ErrInvalidConfig, players)
	}

	rows, cols := 0, 0
	for _, d := range defs {
		if d.At.Row < 0 || d.At.Col < 0 {
			return nil, fmt.Errorf("%w: action %s at %s", ErrInvalidConfig, d.ID, d.At)
		}
		rows = max(rows, d.At.Row+1)
		cols = max(cols, d.At.Col+1)
	}

	b, err := NewBoard(ActionBoardCapabilities(), "", rows, cols, KindBlocked)
	if err != nil {
		return nil, err
	}
	for _, d := range defs {
		kind := KindAction
		if d.Stage > 0 {
			kind = KindBlocked
		}
		if err := b.setup(d.At, kind, d.ID, d.Capacity); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func spacesFor(registry ActionRegistry, players int) []ActionDef {
	var out []ActionDef
	for _, d := range registry.Spaces() {
		if d.MinPlayers <= players && (d.MaxPlayers == 0 || players <= d.MaxPlayers) {
			out = append(out, d)
		}
	}
	return out
}

// revealOrder returns the stage spaces grouped by stage, shuffled within each
// stage by seed.
func revealOrder(registry ActionRegistry, players int, seed int64) []ActionDef {
	byStage := make(map[int][]ActionDef)
	var stages []int
	for _, d := range spacesFor(registry, players) {
		if d.Stage == 0 {
			continue
		}
		if _, ok := byStage[d.Stage]; !ok {
			stages = append(stages, d.Stage)
		}
		byStage[d.Stage] = append(byStage[d.Stage], d)
	}
	sort.Ints(stages)

	var out []ActionDef
	for i, s := range stages {
		group := byStage[s]
		sort.Slice(group, func(a, b int) bool { return group[a].ID < group[b].ID })
		random.Shuffle(seed+int64(i), group)
		out = append(out, group...)
	}
	return out
}
