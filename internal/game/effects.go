package game

import (
	"fmt"

	"github.com/google/uuid"

	"homestead/internal/goods"
)

// Decision argument names.
const (
	ArgBuild        = "build"
	ArgSpace        = "space"
	ArgSpaces       = "spaces"
	ArgCrop         = "crop"
	ArgGrain        = "grain"
	ArgResourceKind = "resourceKind"
	ArgAmount       = "amount"
	ArgCard         = "card"
	ArgAcquire      = "acquire"
)

// Farm expansion choices.
const (
	BuildChoiceRoom   = "room"
	BuildChoiceStable = "stable"
)

// Ways to acquire an improvement that replaces one already owned.
const (
	AcquireBuy    = "buy"
	AcquireReturn = "return"
)

func newFrame(player string, effect EffectKind, source string, args ...ArgSpec) DecisionFrame {
	return DecisionFrame{
		ID:     uuid.New().String(),
		Player: player,
		Effect: effect,
		Source: source,
		Args:   args,
		Bound:  make(map[string]any),
		Expiry: ExpireTurn,
	}
}

func farmExpansionFrame(player, source string) DecisionFrame {
	f := newFrame(player, EffectFarmExpansion, source,
		ArgSpec{Name: ArgBuild, Type: ArgString, Choices: []string{BuildChoiceRoom, BuildChoiceStable}},
		ArgSpec{Name: ArgSpace, Type: ArgCoordinate},
	)
	f.Moves = []MoveKind{MoveBuildRoom, MoveBuildStable}
	f.Optional = true
	return f
}

func plowFrame(player, source string) DecisionFrame {
	f := newFrame(player, EffectPlow, source, ArgSpec{Name: ArgSpace, Type: ArgCoordinate})
	f.Moves = []MoveKind{MovePlow}
	return f
}

func sowFrame(player, source string) DecisionFrame {
	f := newFrame(player, EffectSow, source,
		ArgSpec{Name: ArgSpace, Type: ArgCoordinate},
		ArgSpec{Name: ArgCrop, Type: ArgGood, Choices: []string{goods.Grain.String(), goods.Vegetable.String()}},
	)
	f.Moves = []MoveKind{MoveSow}
	f.Optional = true
	return f
}

func fencingFrame(player, source string) DecisionFrame {
	f := newFrame(player, EffectFencing, source, ArgSpec{Name: ArgSpaces, Type: ArgCoordinates})
	f.Moves = []MoveKind{MoveBuildFences}
	f.Optional = true
	return f
}

func bakeFrame(player, source string, limit int) DecisionFrame {
	f := newFrame(player, EffectBakeBread, source, ArgSpec{Name: ArgGrain, Type: ArgInt, Min: 1, Max: limit})
	f.Optional = true
	return f
}

func chooseResourceFrame(player string, def ActionDef) DecisionFrame {
	options := make([]string, len(def.Options))
	for i, o := range def.Options {
		options[i] = o.String()
	}
	return newFrame(player, EffectChooseResource, def.ID,
		ArgSpec{Name: ArgResourceKind, Type: ArgGood, Choices: options},
		ArgSpec{Name: ArgAmount, Type: ArgInt, Min: 1, Max: def.MaxAmount},
	)
}

func cardFrame(player, source string, kind CardKind, payment goods.Goods) DecisionFrame {
	f := newFrame(player, EffectPlayCard, source, ArgSpec{Name: ArgCard, Type: ArgString})
	f.CardKind = kind
	f.Payment = payment
	f.Optional = true
	return f
}

// acquireFrame asks whether an upgrade is paid for or traded against an
// improvement the player already owns.
func acquireFrame(player, card string, payment goods.Goods) DecisionFrame {
	f := newFrame(player, EffectReturnOrBuy, card,
		ArgSpec{Name: ArgAcquire, Type: ArgString, Choices: []string{AcquireBuy, AcquireReturn}})
	f.Payment = payment
	f.Optional = true
	return f
}

// begin runs the part of an action that follows a committed placement and
// returns the frames the player must resolve next.
func (g *Game) begin(player string, def ActionDef) []DecisionFrame {
	switch def.Effect {
	case EffectStartingPlayer:
		g.state.SetStartingPlayer(player)
		return []DecisionFrame{cardFrame(player, def.ID, CardMinor, nil)}

	case EffectFarmExpansion:
		return []DecisionFrame{farmExpansionFrame(player, def.ID)}

	case EffectPlow:
		return []DecisionFrame{plowFrame(player, def.ID)}

	case EffectSow:
		return []DecisionFrame{sowFrame(player, def.ID)}

	case EffectBakeBread:
		limit := def.MaxAmount
		if limit == 0 {
			limit = g.supply.Count(player, goods.Grain)
		}
		return []DecisionFrame{bakeFrame(player, def.ID, limit)}

	case EffectFencing:
		return []DecisionFrame{fencingFrame(player, def.ID)}

	case EffectChooseResource:
		return []DecisionFrame{chooseResourceFrame(player, def)}

	case EffectLessons:
		var fee goods.Goods
		if g.occupations[player] > 0 {
			fee = def.Cost.Clone()
		}
		return []DecisionFrame{cardFrame(player, def.ID, CardOccupation, fee)}

	case EffectMajorImprovement:
		return []DecisionFrame{cardFrame(player, def.ID, CardMajor, nil)}

	case EffectFamilyGrowth:
		g.state.AddNewborn(player)
	}
	return nil
}

// invoke runs a complete frame. It is the only place frame procedures execute
// and is called at most once per frame.
func (g *Game) invoke(f DecisionFrame) ([]DecisionFrame, error) {
	player := f.Player

	switch f.Effect {
	case EffectFarmExpansion:
		c := f.Bound[ArgSpace].(Coordinate)
		req := BuildRoom(player, c)
		if f.Bound[ArgBuild].(string) == BuildChoiceStable {
			req = BuildStable(player, c)
		}
		if err := g.validateAndCommit(req); err != nil {
			return nil, err
		}
		return []DecisionFrame{farmExpansionFrame(player, f.Source)}, nil

	case EffectPlow:
		if err := g.validateAndCommit(Plow(player, f.Bound[ArgSpace].(Coordinate))); err != nil {
			return nil, err
		}
		return nil, nil

	case EffectSow:
		req := Sow(player, f.Bound[ArgSpace].(Coordinate), f.Bound[ArgCrop].(goods.Good))
		if err := g.validateAndCommit(req); err != nil {
			return nil, err
		}
		farm := g.farms[player].View()
		if len(sowable(farm)) > 0 && (g.supply.Has(player, goods.Grain, 1) || g.supply.Has(player, goods.Vegetable, 1)) {
			return []DecisionFrame{sowFrame(player, f.Source)}, nil
		}
		return nil, nil

	case EffectFencing:
		if err := g.validateAndCommit(BuildFences(player, f.Bound[ArgSpaces].([]Coordinate)...)); err != nil {
			return nil, err
		}
		if g.supply.HasLimited(player, goods.Fence) && g.supply.Has(player, goods.Wood, 1) {
			return []DecisionFrame{fencingFrame(player, f.Source)}, nil
		}
		return nil, nil

	case EffectBakeBread:
		n := f.Bound[ArgGrain].(int)
		cost := goods.Goods{goods.Grain: n}
		if missing := g.supply.Holdings(player).Missing(cost); !missing.IsEmpty() {
			return nil, &InsufficientResourcesError{Player: player, Missing: missing}
		}
		if err := g.supply.Spend(player, cost); err != nil {
			return nil, err
		}
		g.supply.Grant(player, goods.Food, n*BakeFoodPerGrain)
		return nil, nil

	case EffectChooseResource:
		g.supply.Grant(player, f.Bound[ArgResourceKind].(goods.Good), f.Bound[ArgAmount].(int))
		return nil, nil

	case EffectPlayCard:
		return g.playCard(player, f)

	case EffectReturnOrBuy:
		return g.acquireImprovement(player, f)
	}

	return nil, fmt.Errorf("%w: no procedure for %s", ErrUnknownAction, f.Effect)
}

// validateAndCommit runs a farmyard move through the validator and commits it.
func (g *Game) validateAndCommit(req MoveRequest) error {
	effect, err := g.validator.Validate(req, g.snapshotFor(req.player))
	if err != nil {
		return err
	}
	return g.commit(effect)
}

// moveArgs translates a farmyard move into the arguments of the frame it resolves.
func moveArgs(req MoveRequest) map[string]any {
	c, _ := req.Target()
	switch req.kind {
	case MoveBuildRoom:
		return map[string]any{ArgBuild: BuildChoiceRoom, ArgSpace: c}
	case MoveBuildStable:
		return map[string]any{ArgBuild: BuildChoiceStable, ArgSpace: c}
	case MoveBuildFences:
		return map[string]any{ArgSpaces: req.Targets()}
	case MoveSow:
		return map[string]any{ArgSpace: c, ArgCrop: req.good}
	default:
		return map[string]any{ArgSpace: c}
	}
}
