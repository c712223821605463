package game

import (
	"fmt"

	"homestead/internal/goods"
)

// Snapshot is the read-only world a move is validated against.
type Snapshot struct {
	State       StateSnapshot
	Farmyard    BoardView
	Actions     BoardView
	Holdings    goods.Goods
	Pieces      map[goods.Piece]int
	Occupations int
	PlayedCards map[string]string
}

// Validator decides whether a move is legal and what it changes. It never
// mutates anything: the same request against the same snapshot always yields
// the same effect or the same error.
type Validator struct {
	registry ActionRegistry
	rules    Rules
}

// NewValidator creates a validator over an action registry.
func NewValidator(registry ActionRegistry, rules Rules) *Validator {
	return &Validator{registry: registry, rules: rules}
}

// Validate checks req against snap and returns the effect to commit.
func (v *Validator) Validate(req MoveRequest, snap Snapshot) (MoveEffect, error) {
	var (
		effect MoveEffect
		err    error
	)
	switch req.kind {
	case MovePlaceWorker:
		effect, err = v.validatePlacement(req, snap)
	case MoveBuildRoom:
		effect, err = v.validateRoom(req, snap)
	case MoveBuildStable:
		effect, err = v.validateStable(req, snap)
	case MoveBuildFences:
		effect, err = v.validateFences(req, snap)
	case MovePlow:
		effect, err = v.validatePlow(req, snap)
	case MoveSow:
		effect, err = v.validateSow(req, snap)
	case MoveConvert:
		effect, err = v.validateConvert(req, snap)
	default:
		return MoveEffect{}, &InvalidArgumentError{Name: "kind", Reason: fmt.Sprintf("unsupported move %s", req.kind)}
	}
	if err != nil {
		return MoveEffect{}, err
	}

	effect.Player = req.player
	effect.Kind = req.kind
	if err := checkAffordable(req.player, snap, effect.Cost, effect.Pieces); err != nil {
		return MoveEffect{}, err
	}
	return effect, nil
}

// checkAffordable verifies goods and limited pieces are available.
func checkAffordable(player string, snap Snapshot, cost goods.Goods, pieces map[goods.Piece]int) error {
	if missing := snap.Holdings.Missing(cost); !missing.IsEmpty() {
		return &InsufficientResourcesError{Player: player, Missing: missing}
	}
	for p, n := range pieces {
		if snap.Pieces[p] < n {
			return &InsufficientResourcesError{Player: player, Piece: p}
		}
	}
	return nil
}

// farmCell returns the farmyard space at the request's first target.
func farmCell(req MoveRequest, snap Snapshot) (SpaceView, error) {
	c, ok := req.Target()
	if !ok {
		return SpaceView{}, &InvalidArgumentError{Name: "space", Reason: "missing target coordinate"}
	}
	sp, ok := snap.Farmyard.At(c)
	if !ok {
		return SpaceView{}, &OutOfBoundsError{Board: snap.Farmyard.Name, At: c, Rows: snap.Farmyard.Rows, Cols: snap.Farmyard.Cols}
	}
	return sp, nil
}

func (v *Validator) validateConvert(req MoveRequest, snap Snapshot) (MoveEffect, error) {
	if !req.good.IsCrop() {
		return MoveEffect{}, &InvalidArgumentError{Name: "good", Reason: fmt.Sprintf("%s cannot be eaten raw", req.good)}
	}
	if req.amount < 1 {
		return MoveEffect{}, &InvalidArgumentError{Name: "amount", Reason: "must be at least 1"}
	}
	return MoveEffect{
		Cost:  goods.Goods{req.good: req.amount},
		Grant: goods.Goods{goods.Food: req.amount},
	}, nil
}
