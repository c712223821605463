package game

import (
	"fmt"

	"homestead/internal/goods"
)

// Coordinate identifies a grid cell.
type Coordinate struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// At is shorthand for a Coordinate literal.
func At(row, col int) Coordinate {
	return Coordinate{Row: row, Col: col}
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Neighbors returns the orthogonally adjacent coordinates. Some may lie off the board.
func (c Coordinate) Neighbors() []Coordinate {
	return []Coordinate{
		{c.Row - 1, c.Col},
		{c.Row + 1, c.Col},
		{c.Row, c.Col - 1},
		{c.Row, c.Col + 1},
	}
}

// IsAdjacent reports orthogonal adjacency.
func (c Coordinate) IsAdjacent(o Coordinate) bool {
	dr, dc := c.Row-o.Row, c.Col-o.Col
	return (dr == 0 && (dc == 1 || dc == -1)) || (dc == 0 && (dr == 1 || dr == -1))
}

// Edge is a fence position. A horizontal edge (r,c) runs along the top of
// cell (r,c); a vertical edge (r,c) runs along its left side.
type Edge struct {
	Row      int  `json:"row"`
	Col      int  `json:"col"`
	Vertical bool `json:"vertical"`
}

func (e Edge) String() string {
	if e.Vertical {
		return fmt.Sprintf("v(%d,%d)", e.Row, e.Col)
	}
	return fmt.Sprintf("h(%d,%d)", e.Row, e.Col)
}

// cellEdges returns the four borders of a cell: top, bottom, left, right.
func cellEdges(c Coordinate) [4]Edge {
	return [4]Edge{
		{Row: c.Row, Col: c.Col},
		{Row: c.Row + 1, Col: c.Col},
		{Row: c.Row, Col: c.Col, Vertical: true},
		{Row: c.Row, Col: c.Col + 1, Vertical: true},
	}
}

// SpaceKind is what a board cell currently holds.
type SpaceKind int

const (
	KindEmpty SpaceKind = iota
	KindBlocked
	KindWoodRoom
	KindClayRoom
	KindStoneRoom
	KindField
	KindPasture
	KindAction
)

var kindNames = map[SpaceKind]string{
	KindEmpty:     "empty",
	KindBlocked:   "blocked",
	KindWoodRoom:  "wood-room",
	KindClayRoom:  "clay-room",
	KindStoneRoom: "stone-room",
	KindField:     "field",
	KindPasture:   "pasture",
	KindAction:    "action",
}

func (k SpaceKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// MarshalText encodes the kind by name.
func (k SpaceKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *SpaceKind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown space kind %q", string(b))
}

// IsRoom reports whether the kind is part of the house.
func (k SpaceKind) IsRoom() bool {
	return k == KindWoodRoom || k == KindClayRoom || k == KindStoneRoom
}

// Material returns the building material of a room kind.
func (k SpaceKind) Material() goods.Good {
	switch k {
	case KindWoodRoom:
		return goods.Wood
	case KindClayRoom:
		return goods.Clay
	case KindStoneRoom:
		return goods.Stone
	default:
		return goods.None
	}
}

// RoomOf returns the room kind built from a material.
func RoomOf(material goods.Good) SpaceKind {
	switch material {
	case goods.Wood:
		return KindWoodRoom
	case goods.Clay:
		return KindClayRoom
	case goods.Stone:
		return KindStoneRoom
	default:
		return KindEmpty
	}
}

// Capabilities describes what a board permits: which kinds may appear, which
// kind changes are legal, and whether workers, fences and stables exist on it.
type Capabilities struct {
	Name        string
	Kinds       []SpaceKind
	Transitions map[SpaceKind][]SpaceKind
	Workers     bool
	Fences      bool
	Stables     bool
}

// FarmyardCapabilities returns the descriptor for a player's farmyard.
func FarmyardCapabilities() Capabilities {
	return Capabilities{
		Name:  "farmyard",
		Kinds: []SpaceKind{KindEmpty, KindWoodRoom, KindClayRoom, KindStoneRoom, KindField, KindPasture},
		Transitions: map[SpaceKind][]SpaceKind{
			KindEmpty:    {KindWoodRoom, KindClayRoom, KindStoneRoom, KindField, KindPasture},
			KindWoodRoom: {KindClayRoom},
			KindClayRoom: {KindStoneRoom},
		},
		Fences:  true,
		Stables: true,
	}
}

// ActionBoardCapabilities returns the descriptor for the shared action board.
func ActionBoardCapabilities() Capabilities {
	return Capabilities{
		Name:  "action board",
		Kinds: []SpaceKind{KindBlocked, KindAction},
		Transitions: map[SpaceKind][]SpaceKind{
			KindBlocked: {KindAction},
		},
		Workers: true,
	}
}

func (c Capabilities) permits(k SpaceKind) bool {
	for _, kind := range c.Kinds {
		if kind == k {
			return true
		}
	}
	return false
}

func (c Capabilities) canTransition(from, to SpaceKind) bool {
	for _, k := range c.Transitions[from] {
		if k == to {
			return true
		}
	}
	return false
}

// space is the mutable cell behind a SpaceView.
type space struct {
	kind     SpaceKind
	capacity int
	workers  []string
	goods    goods.Goods
	action   string
	stable   bool
	pasture  int
}

func (s space) clone() space {
	s.workers = append([]string(nil), s.workers...)
	s.goods = s.goods.Clone()
	return s
}

// Board is a rectangular grid of spaces. The same type serves the farmyard and
// the action board; its Capabilities decide which changes are legal.
// Boards are only changed through apply, which is all-or-nothing.
type Board struct {
	caps     Capabilities
	owner    string
	rows     int
	cols     int
	cells    []space
	hFences  [][]bool
	vFences  [][]bool
	pastures int
}

// NewBoard creates a board with every cell set to fill.
func NewBoard(caps Capabilities, owner string, rows, cols int, fill SpaceKind) (*Board, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: %s must be at least 1x1", ErrInvalidConfig, caps.Name)
	}
	if !caps.permits(fill) {
		return nil, fmt.Errorf("%w: %s does not permit %s", ErrInvalidConfig, caps.Name, fill)
	}
	b := &Board{
		caps:  caps,
		owner: owner,
		rows:  rows,
		cols:  cols,
		cells: make([]space, rows*cols),
	}
	for i := range b.cells {
		b.cells[i] = space{kind: fill, capacity: 1, goods: goods.Goods{}}
	}
	if caps.Fences {
		b.hFences = make([][]bool, rows+1)
		for r := range b.hFences {
			b.hFences[r] = make([]bool, cols)
		}
		b.vFences = make([][]bool, rows)
		for r := range b.vFences {
			b.vFences[r] = make([]bool, cols+1)
		}
	}
	return b, nil
}

// Rows returns the number of rows.
func (b *Board) Rows() int { return b.rows }

// Cols returns the number of columns.
func (b *Board) Cols() int { return b.cols }

// Owner returns the owning player, "" for shared boards.
func (b *Board) Owner() string { return b.owner }

func (b *Board) inBounds(c Coordinate) bool {
	return c.Row >= 0 && c.Row < b.rows && c.Col >= 0 && c.Col < b.cols
}

func (b *Board) cell(c Coordinate) *space {
	return &b.cells[c.Row*b.cols+c.Col]
}

// setup places a kind without transition checks. Only used while building a board.
func (b *Board) setup(c Coordinate, kind SpaceKind, action string, capacity int) error {
	if !b.inBounds(c) {
		return b.outOfBounds(c)
	}
	if !b.caps.permits(kind) {
		return fmt.Errorf("%w: %s does not permit %s", ErrInvalidConfig, b.caps.Name, kind)
	}
	sp := b.cell(c)
	if action != "" && sp.action != "" {
		return fmt.Errorf("%w: %s already holds action %s", ErrInvalidConfig, c, sp.action)
	}
	sp.kind = kind
	if action != "" {
		sp.action = action
	}
	if capacity > 0 {
		sp.capacity = capacity
	}
	return nil
}

func (b *Board) outOfBounds(c Coordinate) error {
	return &OutOfBoundsError{Board: b.caps.Name, At: c, Rows: b.rows, Cols: b.cols}
}

func (b *Board) clone() *Board {
	out := *b
	out.cells = make([]space, len(b.cells))
	for i, s := range b.cells {
		out.cells[i] = s.clone()
	}
	out.hFences = cloneGrid(b.hFences)
	out.vFences = cloneGrid(b.vFences)
	return &out
}

func cloneGrid(g [][]bool) [][]bool {
	if g == nil {
		return nil
	}
	out := make([][]bool, len(g))
	for i := range g {
		out[i] = append([]bool(nil), g[i]...)
	}
	return out
}

// apply commits a list of mutations. Either every mutation is applied or the
// board is left untouched.
func (b *Board) apply(muts []Mutation) error {
	work := b.clone()
	for _, m := range muts {
		if err := work.applyOne(m); err != nil {
			return err
		}
	}
	*b = *work
	return nil
}

func (b *Board) applyOne(m Mutation) error {
	if m.Op == OpFence {
		return b.fence(m.Edge)
	}
	if m.Op == OpEnclose {
		return b.enclose(m.Cells)
	}
	if !b.inBounds(m.At) {
		return b.outOfBounds(m.At)
	}
	sp := b.cell(m.At)

	switch m.Op {
	case OpOccupy:
		if !b.caps.Workers || sp.kind != KindAction {
			return &StructuralIneligibilityError{Move: MovePlaceWorker, At: m.At, Reason: "not an active action space"}
		}
		if len(sp.workers) >= sp.capacity {
			return &AlreadyOccupiedError{Space: sp.action, At: m.At, Occupants: append([]string(nil), sp.workers...)}
		}
		sp.workers = append(sp.workers, m.Player)

	case OpVacate:
		sp.workers = nil

	case OpConvert:
		if !b.caps.canTransition(sp.kind, m.Kind) {
			return &StructuralIneligibilityError{
				At:     m.At,
				Reason: fmt.Sprintf("%s cannot become %s on %s", sp.kind, m.Kind, b.caps.Name),
			}
		}
		sp.kind = m.Kind

	case OpPutGoods:
		sp.goods = sp.goods.Add(m.Goods)

	case OpTakeGoods:
		left, ok := sp.goods.Subtract(m.Goods)
		if !ok {
			return fmt.Errorf("take %s from %s holding %s: %w", m.Goods, m.At, sp.goods, ErrInsufficientResources)
		}
		sp.goods = left

	case OpStable:
		if !b.caps.Stables || sp.stable || (sp.kind != KindEmpty && sp.kind != KindPasture) {
			return &StructuralIneligibilityError{Move: MoveBuildStable, At: m.At, Reason: "cell cannot hold a stable"}
		}
		sp.stable = true

	default:
		return fmt.Errorf("unknown mutation %d", m.Op)
	}
	return nil
}

func (b *Board) fence(e Edge) error {
	if !b.caps.Fences {
		return &StructuralIneligibilityError{Move: MoveBuildFences, Reason: b.caps.Name + " has no fences"}
	}
	if !edgeInRange(e, b.rows, b.cols) {
		return &OutOfBoundsError{Board: b.caps.Name, At: At(e.Row, e.Col), Rows: b.rows, Cols: b.cols}
	}
	if e.Vertical {
		if b.vFences[e.Row][e.Col] {
			return &AlreadyOccupiedError{Space: "fence " + e.String()}
		}
		b.vFences[e.Row][e.Col] = true
		return nil
	}
	if b.hFences[e.Row][e.Col] {
		return &AlreadyOccupiedError{Space: "fence " + e.String()}
	}
	b.hFences[e.Row][e.Col] = true
	return nil
}

func (b *Board) enclose(cells []Coordinate) error {
	b.pastures++
	id := b.pastures
	for _, c := range cells {
		if !b.inBounds(c) {
			return b.outOfBounds(c)
		}
		sp := b.cell(c)
		if !b.caps.canTransition(sp.kind, KindPasture) {
			return &StructuralIneligibilityError{Move: MoveBuildFences, At: c, Reason: sp.kind.String() + " cannot be fenced"}
		}
		sp.kind = KindPasture
		sp.pasture = id
	}
	return nil
}

func edgeInRange(e Edge, rows, cols int) bool {
	if e.Vertical {
		return e.Row >= 0 && e.Row < rows && e.Col >= 0 && e.Col <= cols
	}
	return e.Row >= 0 && e.Row <= rows && e.Col >= 0 && e.Col < cols
}

// View returns an immutable copy of the board.
func (b *Board) View() BoardView {
	v := BoardView{
		Name:    b.caps.Name,
		Owner:   b.owner,
		Rows:    b.rows,
		Cols:    b.cols,
		Spaces:  make([]SpaceView, len(b.cells)),
		HFences: cloneGrid(b.hFences),
		VFences: cloneGrid(b.vFences),
	}
	for i, s := range b.cells {
		v.Spaces[i] = SpaceView{
			At:       At(i/b.cols, i%b.cols),
			Kind:     s.kind,
			Capacity: s.capacity,
			Workers:  append([]string(nil), s.workers...),
			Goods:    s.goods.Clone(),
			Action:   s.action,
			Stable:   s.stable,
			Pasture:  s.pasture,
		}
	}
	return v
}
