package game

import (
	"homestead/internal/goods"
)

// MoveKind enumerates the moves a client can request.
type MoveKind int

const (
	MoveNone MoveKind = iota
	MovePlaceWorker
	MoveBuildRoom
	MoveBuildStable
	MoveBuildFences
	MovePlow
	MoveSow
	MoveConvert
)

var moveNames = map[MoveKind]string{
	MovePlaceWorker: "place-worker",
	MoveBuildRoom:   "build-room",
	MoveBuildStable: "build-stable",
	MoveBuildFences: "build-fences",
	MovePlow:        "plow",
	MoveSow:         "sow",
	MoveConvert:     "convert",
}

func (m MoveKind) String() string {
	if n, ok := moveNames[m]; ok {
		return n
	}
	return "move"
}

// MarshalText encodes the move kind by name.
func (m MoveKind) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a move kind name.
func (m *MoveKind) UnmarshalText(b []byte) error {
	for k, n := range moveNames {
		if n == string(b) {
			*m = k
			return nil
		}
	}
	*m = MoveNone
	return &InvalidArgumentError{Name: "kind", Reason: "unknown move " + string(b)}
}

// isFarmMove reports whether the move changes the player's farmyard and so
// must be authorized by a pending decision.
func (m MoveKind) isFarmMove() bool {
	switch m {
	case MoveBuildRoom, MoveBuildStable, MoveBuildFences, MovePlow, MoveSow:
		return true
	}
	return false
}

// MoveRequest is an immutable move packet. Build one with the constructors below.
type MoveRequest struct {
	player  string
	kind    MoveKind
	space   string
	targets []Coordinate
	good    goods.Good
	amount  int
}

// PlaceWorker requests a worker on the action space with the given id.
func PlaceWorker(player, space string) MoveRequest {
	return MoveRequest{player: player, kind: MovePlaceWorker, space: space}
}

// PlaceWorkerAt requests a worker on the action space at c.
func PlaceWorkerAt(player string, c Coordinate) MoveRequest {
	return MoveRequest{player: player, kind: MovePlaceWorker, targets: []Coordinate{c}}
}

// BuildRoom requests a room at c.
func BuildRoom(player string, c Coordinate) MoveRequest {
	return MoveRequest{player: player, kind: MoveBuildRoom, targets: []Coordinate{c}}
}

// BuildStable requests a stable at c.
func BuildStable(player string, c Coordinate) MoveRequest {
	return MoveRequest{player: player, kind: MoveBuildStable, targets: []Coordinate{c}}
}

// BuildFences requests a new pasture enclosing cells.
func BuildFences(player string, cells ...Coordinate) MoveRequest {
	return MoveRequest{player: player, kind: MoveBuildFences, targets: append([]Coordinate(nil), cells...)}
}

// Plow requests a field at c.
func Plow(player string, c Coordinate) MoveRequest {
	return MoveRequest{player: player, kind: MovePlow, targets: []Coordinate{c}}
}

// Sow requests planting crop on the field at c.
func Sow(player string, c Coordinate, crop goods.Good) MoveRequest {
	return MoveRequest{player: player, kind: MoveSow, targets: []Coordinate{c}, good: crop}
}

// Convert requests turning n raw crops into food.
func Convert(player string, crop goods.Good, n int) MoveRequest {
	return MoveRequest{player: player, kind: MoveConvert, good: crop, amount: n}
}

// NewMoveRequest builds a request from decoded fields. Drivers decoding wire
// messages use it; code should prefer the named constructors.
func NewMoveRequest(player string, kind MoveKind, space string, targets []Coordinate, good goods.Good, amount int) MoveRequest {
	return MoveRequest{
		player:  player,
		kind:    kind,
		space:   space,
		targets: append([]Coordinate(nil), targets...),
		good:    good,
		amount:  amount,
	}
}

// Player returns the requesting player.
func (r MoveRequest) Player() string { return r.player }

// Kind returns the move kind.
func (r MoveRequest) Kind() MoveKind { return r.kind }

// Space returns the action space id, if the move names one.
func (r MoveRequest) Space() string { return r.space }

// Targets returns a copy of the target coordinates.
func (r MoveRequest) Targets() []Coordinate {
	return append([]Coordinate(nil), r.targets...)
}

// Target returns the first target coordinate.
func (r MoveRequest) Target() (Coordinate, bool) {
	if len(r.targets) == 0 {
		return Coordinate{}, false
	}
	return r.targets[0], true
}

// Good returns the good the move names.
func (r MoveRequest) Good() goods.Good { return r.good }

// Amount returns the quantity the move names.
func (r MoveRequest) Amount() int { return r.amount }

// MutationOp is one primitive board change.
type MutationOp int

const (
	OpOccupy MutationOp = iota + 1
	OpVacate
	OpConvert
	OpPutGoods
	OpTakeGoods
	OpStable
	OpFence
	OpEnclose
)

// Mutation is a single change to a board, produced by validation and
// committed by Board.apply.
type Mutation struct {
	Op     MutationOp
	At     Coordinate
	Kind   SpaceKind
	Player string
	Goods  goods.Goods
	Edge   Edge
	Cells  []Coordinate
}

// MoveEffect is the outcome of a successful validation: the board mutations to
// apply and the resource changes to commit with them.
type MoveEffect struct {
	Player  string
	Kind    MoveKind
	Actions []Mutation // changes to the shared action board
	Farm    []Mutation // changes to the player's farmyard
	Cost    goods.Goods
	Grant   goods.Goods
	Pieces  map[goods.Piece]int
	Action  ActionDef
}
