package game

import (
	"sort"

	"homestead/internal/goods"
)

// SpaceView is a read-only copy of one board cell.
type SpaceView struct {
	At       Coordinate  `json:"at"`
	Kind     SpaceKind   `json:"kind"`
	Capacity int         `json:"capacity"`
	Workers  []string    `json:"workers,omitempty"`
	Goods    goods.Goods `json:"goods,omitempty"`
	Action   string      `json:"action,omitempty"`
	Stable   bool        `json:"stable,omitempty"`
	Pasture  int         `json:"pasture,omitempty"`
}

// IsFull reports whether no more workers fit.
func (s SpaceView) IsFull() bool {
	return len(s.Workers) >= s.Capacity
}

// BoardView is a read-only copy of a board. Spaces are stored row-major.
type BoardView struct {
	Name    string      `json:"name"`
	Owner   string      `json:"owner,omitempty"`
	Rows    int         `json:"rows"`
	Cols    int         `json:"cols"`
	Spaces  []SpaceView `json:"spaces"`
	HFences [][]bool    `json:"hFences,omitempty"`
	VFences [][]bool    `json:"vFences,omitempty"`
}

// InBounds reports whether c lies on the grid.
func (v BoardView) InBounds(c Coordinate) bool {
	return c.Row >= 0 && c.Row < v.Rows && c.Col >= 0 && c.Col < v.Cols
}

// At returns the space at c.
func (v BoardView) At(c Coordinate) (SpaceView, bool) {
	if !v.InBounds(c) {
		return SpaceView{}, false
	}
	return v.Spaces[c.Row*v.Cols+c.Col], true
}

// Find returns the space bound to an action id.
func (v BoardView) Find(action string) (SpaceView, bool) {
	for _, s := range v.Spaces {
		if s.Action == action {
			return s, true
		}
	}
	return SpaceView{}, false
}

// Cells returns every space of the given kinds in row-major order.
func (v BoardView) Cells(kinds ...SpaceKind) []SpaceView {
	var out []SpaceView
	for _, s := range v.Spaces {
		for _, k := range kinds {
			if s.Kind == k {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// Rooms returns the house cells.
func (v BoardView) Rooms() []SpaceView {
	return v.Cells(KindWoodRoom, KindClayRoom, KindStoneRoom)
}

// HouseMaterial returns the material of the house, goods.None without rooms.
func (v BoardView) HouseMaterial() goods.Good {
	rooms := v.Rooms()
	if len(rooms) == 0 {
		return goods.None
	}
	return rooms[0].Kind.Material()
}

// HasFence reports whether a fence stands on e.
func (v BoardView) HasFence(e Edge) bool {
	if e.Vertical {
		if e.Row < 0 || e.Row >= len(v.VFences) || e.Col < 0 || e.Col >= len(v.VFences[e.Row]) {
			return false
		}
		return v.VFences[e.Row][e.Col]
	}
	if e.Row < 0 || e.Row >= len(v.HFences) || e.Col < 0 || e.Col >= len(v.HFences[e.Row]) {
		return false
	}
	return v.HFences[e.Row][e.Col]
}

// FenceCount returns the number of fences on the board.
func (v BoardView) FenceCount() int {
	n := 0
	for _, grid := range [][][]bool{v.HFences, v.VFences} {
		for _, row := range grid {
			for _, f := range row {
				if f {
					n++
				}
			}
		}
	}
	return n
}

// Pastures groups pasture cells by pasture id.
func (v BoardView) Pastures() map[int][]SpaceView {
	out := make(map[int][]SpaceView)
	for _, s := range v.Spaces {
		if s.Kind == KindPasture {
			out[s.Pasture] = append(out[s.Pasture], s)
		}
	}
	return out
}

// AnimalCapacity returns how many animals the farm can hold: one pet in the
// house, one per unfenced stable, and two per pasture cell doubled for every
// stable inside the pasture.
func (v BoardView) AnimalCapacity() int {
	capacity := 0
	if len(v.Rooms()) > 0 {
		capacity = 1
	}
	for _, s := range v.Spaces {
		if s.Stable && s.Kind != KindPasture {
			capacity++
		}
	}
	for _, cells := range v.Pastures() {
		size := 2 * len(cells)
		for _, c := range cells {
			if c.Stable {
				size *= 2
			}
		}
		capacity += size
	}
	return capacity
}

// perimeter returns the border edges of a cell set: every cell edge not shared
// by two cells of the set, sorted for deterministic output.
func perimeter(cells []Coordinate) []Edge {
	count := make(map[Edge]int)
	for _, c := range cells {
		for _, e := range cellEdges(c) {
			count[e]++
		}
	}
	var out []Edge
	for e, n := range count {
		if n == 1 {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Vertical != b.Vertical {
			return !a.Vertical
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Col < b.Col
	})
	return out
}

// contiguous reports whether cells form one orthogonally connected group.
func contiguous(cells []Coordinate) bool {
	if len(cells) == 0 {
		return false
	}
	set := make(map[Coordinate]bool, len(cells))
	for _, c := range cells {
		set[c] = true
	}
	seen := map[Coordinate]bool{cells[0]: true}
	stack := []Coordinate{cells[0]}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range c.Neighbors() {
			if set[n] && !seen[n] {
				seen[n] = true
				stack = append(stack, n)
			}
		}
	}
	return len(seen) == len(set)
}
