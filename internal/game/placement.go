package game

import (
	"fmt"

	"homestead/internal/goods"
)

// validatePlacement checks a worker placement on the action board.
func (v *Validator) validatePlacement(req MoveRequest, snap Snapshot) (MoveEffect, error) {
	board := snap.Actions

	// Locate space
	var (
		sp SpaceView
		ok bool
	)
	if req.space != "" {
		sp, ok = board.Find(req.space)
		if !ok {
			return MoveEffect{}, fmt.Errorf("place worker on %q: %w", req.space, ErrUnknownAction)
		}
	} else {
		c, has := req.Target()
		if !has {
			return MoveEffect{}, &InvalidArgumentError{Name: "space", Reason: "missing action space"}
		}
		sp, ok = board.At(c)
		if !ok {
			return MoveEffect{}, &OutOfBoundsError{Board: board.Name, At: c, Rows: board.Rows, Cols: board.Cols}
		}
	}

	// Check it is revealed and has room
	if sp.Kind != KindAction || sp.Action == "" {
		return MoveEffect{}, &StructuralIneligibilityError{Move: MovePlaceWorker, At: sp.At, Reason: "not an active action space"}
	}
	if sp.IsFull() {
		return MoveEffect{}, &AlreadyOccupiedError{Space: sp.Action, At: sp.At, Occupants: sp.Workers}
	}

	// Check the player has a worker
	if snap.State.WorkersLeft[req.player] <= 0 {
		return MoveEffect{}, &IllegalStateError{
			Op:       "place worker",
			Expected: []Phase{PhaseWorkPlacement},
			Actual:   snap.State.Phase,
			Reason:   "no workers left",
		}
	}

	def, ok := v.registry.Lookup(sp.Action)
	if !ok {
		return MoveEffect{}, fmt.Errorf("space %s: %w: %s", sp.At, ErrUnknownAction, sp.Action)
	}

	effect := MoveEffect{
		Action:  def,
		Actions: []Mutation{{Op: OpOccupy, At: sp.At, Player: req.player}},
		Cost:    def.Cost.Clone(),
	}
	if err := v.actionLegality(req.player, def, sp, snap, &effect); err != nil {
		return MoveEffect{}, err
	}
	return effect, nil
}

// actionLegality applies each effect's own precondition and fills in the
// immediate part of its effect.
func (v *Validator) actionLegality(player string, def ActionDef, sp SpaceView, snap Snapshot, effect *MoveEffect) error {
	farm := snap.Farmyard

	switch def.Effect {
	case EffectTakeGoods:
		effect.Grant = def.Goods.Clone()

	case EffectAccumulate, EffectStartingPlayer:
		if !sp.Goods.IsEmpty() {
			effect.Actions = append(effect.Actions, Mutation{Op: OpTakeGoods, At: sp.At, Goods: sp.Goods.Clone()})
			effect.Grant = sp.Goods.Clone()
		}

	case EffectFarmExpansion:
		if len(emptyCells(farm)) == 0 {
			return &StructuralIneligibilityError{Move: MovePlaceWorker, At: sp.At, Reason: "no free farmyard space"}
		}

	case EffectPlow:
		if len(plowable(farm)) == 0 {
			return &StructuralIneligibilityError{Move: MovePlaceWorker, At: sp.At, Reason: "nowhere to plow"}
		}

	case EffectSow:
		if len(sowable(farm)) == 0 {
			return &StructuralIneligibilityError{Move: MovePlaceWorker, At: sp.At, Reason: "no empty field"}
		}
		if snap.Holdings[goods.Grain] == 0 && snap.Holdings[goods.Vegetable] == 0 {
			return &InsufficientResourcesError{Player: player, Missing: goods.Goods{goods.Grain: 1}}
		}

	case EffectBakeBread:
		if snap.Holdings[goods.Grain] == 0 {
			return &InsufficientResourcesError{Player: player, Missing: goods.Goods{goods.Grain: 1}}
		}

	case EffectFencing:
		if snap.Pieces[goods.Fence] == 0 {
			return &InsufficientResourcesError{Player: player, Piece: goods.Fence}
		}
		if snap.Holdings[goods.Wood] == 0 {
			return &InsufficientResourcesError{Player: player, Missing: goods.Goods{goods.Wood: 1}}
		}

	case EffectRenovation:
		mutations, cost, err := renovation(farm)
		if err != nil {
			return err
		}
		effect.Farm = mutations
		effect.Cost = effect.Cost.Add(cost)

	case EffectFamilyGrowth:
		family := snap.State.WorkersTotal[player]
		if len(farm.Rooms()) <= family {
			return &StructuralIneligibilityError{Move: MovePlaceWorker, At: sp.At, Reason: "no free room for a newborn"}
		}
		effect.Pieces = map[goods.Piece]int{goods.Person: 1}

	case EffectLessons:
		if snap.Occupations > 0 {
			if missing := snap.Holdings.Missing(def.Cost); !missing.IsEmpty() {
				return &InsufficientResourcesError{Player: player, Missing: missing}
			}
		}
		// the lesson fee is charged when the occupation is chosen
		effect.Cost = goods.Goods{}

	case EffectMajorImprovement:
		left := 0
		for _, id := range v.registry.Cards(CardMajor) {
			if _, played := snap.PlayedCards[id]; !played {
				left++
			}
		}
		if left == 0 {
			return &StructuralIneligibilityError{Move: MovePlaceWorker, At: sp.At, Reason: "no major improvement left"}
		}

	case EffectChooseResource:
		if len(def.Options) == 0 || def.MaxAmount < 1 {
			return fmt.Errorf("action %s: %w: no resource options", def.ID, ErrInvalidConfig)
		}

	default:
		return fmt.Errorf("action %s: %w: effect %s cannot be placed on", def.ID, ErrUnknownAction, def.Effect)
	}
	return nil
}

func emptyCells(farm BoardView) []SpaceView {
	var out []SpaceView
	for _, s := range farm.Cells(KindEmpty) {
		if !s.Stable {
			out = append(out, s)
		}
	}
	return out
}

func plowable(farm BoardView) []SpaceView {
	fields := farm.Cells(KindField)
	if len(fields) == 0 {
		return emptyCells(farm)
	}
	var out []SpaceView
	for _, s := range emptyCells(farm) {
		for _, f := range fields {
			if s.At.IsAdjacent(f.At) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

func sowable(farm BoardView) []SpaceView {
	var out []SpaceView
	for _, f := range farm.Cells(KindField) {
		if f.Goods.IsEmpty() {
			out = append(out, f)
		}
	}
	return out
}
