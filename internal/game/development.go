package game

import (
	"fmt"

	"homestead/internal/goods"
)

// Building costs
var (
	RoomMaterialCost = 5
	RoomReedCost     = 2
	StableCost       = goods.Goods{goods.Wood: 2}
)

// SowYield is how many crops one sown seed puts on a field.
var SowYield = map[goods.Good]int{
	goods.Grain:     3,
	goods.Vegetable: 2,
}

// RoomCost returns the cost of one room in a house of the given material.
func RoomCost(material goods.Good) goods.Goods {
	return goods.Goods{material: RoomMaterialCost, goods.Reed: RoomReedCost}
}

// validateRoom checks a new room: an empty cell next to the house, built from
// the house material.
func (v *Validator) validateRoom(req MoveRequest, snap Snapshot) (MoveEffect, error) {
	sp, err := farmCell(req, snap)
	if err != nil {
		return MoveEffect{}, err
	}
	if sp.Kind.IsRoom() {
		return MoveEffect{}, &AlreadyOccupiedError{At: sp.At}
	}
	if sp.Kind != KindEmpty || sp.Stable {
		return MoveEffect{}, &StructuralIneligibilityError{Move: MoveBuildRoom, At: sp.At, Reason: "cell holds a " + occupantName(sp)}
	}
	if !adjacentTo(sp.At, snap.Farmyard.Rooms()) {
		return MoveEffect{}, &StructuralIneligibilityError{Move: MoveBuildRoom, At: sp.At, Reason: "room must touch the house"}
	}

	material := snap.Farmyard.HouseMaterial()
	return MoveEffect{
		Farm: []Mutation{{Op: OpConvert, At: sp.At, Kind: RoomOf(material)}},
		Cost: RoomCost(material),
	}, nil
}

// validateStable checks a stable on an empty cell or inside a pasture.
func (v *Validator) validateStable(req MoveRequest, snap Snapshot) (MoveEffect, error) {
	sp, err := farmCell(req, snap)
	if err != nil {
		return MoveEffect{}, err
	}
	if sp.Stable {
		return MoveEffect{}, &AlreadyOccupiedError{At: sp.At, Occupants: []string{"stable"}}
	}
	if sp.Kind != KindEmpty && sp.Kind != KindPasture {
		return MoveEffect{}, &StructuralIneligibilityError{Move: MoveBuildStable, At: sp.At, Reason: "cell holds a " + occupantName(sp)}
	}
	return MoveEffect{
		Farm:   []Mutation{{Op: OpStable, At: sp.At}},
		Cost:   StableCost.Clone(),
		Pieces: map[goods.Piece]int{goods.Stable: 1},
	}, nil
}

// validateFences checks a new pasture. The cells must be unused, connected,
// and touch an existing pasture once the player has one. Every border edge not
// already fenced costs one wood and one fence piece.
func (v *Validator) validateFences(req MoveRequest, snap Snapshot) (MoveEffect, error) {
	farm := snap.Farmyard
	if len(req.targets) == 0 {
		return MoveEffect{}, &InvalidArgumentError{Name: "spaces", Reason: "no cells to fence"}
	}

	seen := make(map[Coordinate]bool, len(req.targets))
	cells := make([]Coordinate, 0, len(req.targets))
	for _, c := range req.targets {
		if seen[c] {
			continue
		}
		seen[c] = true
		sp, ok := farm.At(c)
		if !ok {
			return MoveEffect{}, &OutOfBoundsError{Board: farm.Name, At: c, Rows: farm.Rows, Cols: farm.Cols}
		}
		switch sp.Kind {
		case KindEmpty:
		case KindPasture:
			return MoveEffect{}, &AlreadyOccupiedError{At: c, Occupants: []string{fmt.Sprintf("pasture %d", sp.Pasture)}}
		default:
			return MoveEffect{}, &StructuralIneligibilityError{Move: MoveBuildFences, At: c, Reason: "cell holds a " + occupantName(sp)}
		}
		cells = append(cells, c)
	}

	if !contiguous(cells) {
		return MoveEffect{}, &StructuralIneligibilityError{Move: MoveBuildFences, At: cells[0], Reason: "pasture cells must be connected"}
	}

	pastures := farm.Cells(KindPasture)
	if len(pastures) > 0 {
		touching := false
		for _, c := range cells {
			if adjacentTo(c, pastures) {
				touching = true
				break
			}
		}
		if !touching {
			return MoveEffect{}, &StructuralIneligibilityError{Move: MoveBuildFences, At: cells[0], Reason: "new pasture must border an existing one"}
		}
	}

	var muts []Mutation
	for _, e := range perimeter(cells) {
		if !farm.HasFence(e) {
			muts = append(muts, Mutation{Op: OpFence, Edge: e})
		}
	}
	fences := len(muts)
	muts = append(muts, Mutation{Op: OpEnclose, Cells: cells})

	return MoveEffect{
		Farm:   muts,
		Cost:   goods.Goods{goods.Wood: fences},
		Pieces: map[goods.Piece]int{goods.Fence: fences},
	}, nil
}

// validatePlow checks a new field next to the existing ones.
func (v *Validator) validatePlow(req MoveRequest, snap Snapshot) (MoveEffect, error) {
	sp, err := farmCell(req, snap)
	if err != nil {
		return MoveEffect{}, err
	}
	if sp.Kind == KindField {
		return MoveEffect{}, &AlreadyOccupiedError{At: sp.At, Occupants: []string{"field"}}
	}
	if sp.Kind != KindEmpty || sp.Stable {
		return MoveEffect{}, &StructuralIneligibilityError{Move: MovePlow, At: sp.At, Reason: "cell holds a " + occupantName(sp)}
	}
	fields := snap.Farmyard.Cells(KindField)
	if len(fields) > 0 && !adjacentTo(sp.At, fields) {
		return MoveEffect{}, &StructuralIneligibilityError{Move: MovePlow, At: sp.At, Reason: "field must touch an existing field"}
	}
	return MoveEffect{
		Farm: []Mutation{{Op: OpConvert, At: sp.At, Kind: KindField}},
	}, nil
}

// validateSow checks planting one crop on an empty field.
func (v *Validator) validateSow(req MoveRequest, snap Snapshot) (MoveEffect, error) {
	yield, ok := SowYield[req.good]
	if !ok {
		return MoveEffect{}, &InvalidArgumentError{Name: "crop", Reason: fmt.Sprintf("%s cannot be sown", req.good)}
	}
	sp, err := farmCell(req, snap)
	if err != nil {
		return MoveEffect{}, err
	}
	if sp.Kind != KindField {
		return MoveEffect{}, &StructuralIneligibilityError{Move: MoveSow, At: sp.At, Reason: "only fields can be sown"}
	}
	if !sp.Goods.IsEmpty() {
		return MoveEffect{}, &AlreadyOccupiedError{At: sp.At, Occupants: []string{sp.Goods.String()}}
	}
	return MoveEffect{
		Farm: []Mutation{{Op: OpPutGoods, At: sp.At, Goods: goods.Goods{req.good: yield}}},
		Cost: goods.Goods{req.good: 1},
	}, nil
}

// renovation upgrades every room one material step. Each room costs one of
// the new material, plus one reed for the whole house.
func renovation(farm BoardView) ([]Mutation, goods.Goods, error) {
	rooms := farm.Rooms()
	if len(rooms) == 0 {
		return nil, nil, &StructuralIneligibilityError{Reason: "no house to renovate"}
	}
	var next SpaceKind
	switch farm.HouseMaterial() {
	case goods.Wood:
		next = KindClayRoom
	case goods.Clay:
		next = KindStoneRoom
	default:
		return nil, nil, &StructuralIneligibilityError{At: rooms[0].At, Reason: "stone house cannot be renovated"}
	}
	muts := make([]Mutation, 0, len(rooms))
	for _, r := range rooms {
		muts = append(muts, Mutation{Op: OpConvert, At: r.At, Kind: next})
	}
	cost := goods.Goods{next.Material(): len(rooms), goods.Reed: 1}
	return muts, cost, nil
}

func adjacentTo(c Coordinate, cells []SpaceView) bool {
	for _, s := range cells {
		if c.IsAdjacent(s.At) {
			return true
		}
	}
	return false
}

func occupantName(sp SpaceView) string {
	if sp.Stable && sp.Kind == KindEmpty {
		return "stable"
	}
	return sp.Kind.String()
}
