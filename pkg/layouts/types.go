// Package layouts handles farmyard layout loading and board rendering.
package layouts

import "homestead/internal/game"

// RawLayout is the format stored in JSON files. Each grid row is a string
// with one character per cell: '.' for empty land, 'W' for a wooden room.
type RawLayout struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Grid []string `json:"grid"`
}

const (
	cellEmpty = '.'
	cellRoom  = 'W'
)

// Layout is a processed farmyard shape.
type Layout struct {
	ID    string
	Name  string
	Rows  int
	Cols  int
	Rooms []game.Coordinate
}

// Apply returns a copy of rules that builds farmyards with this layout.
func (l *Layout) Apply(rules game.Rules) game.Rules {
	rules.FarmRows = l.Rows
	rules.FarmCols = l.Cols
	rules.StartingRooms = append([]game.Coordinate(nil), l.Rooms...)
	return rules
}

// Info contains basic layout information for listing.
type Info struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Rows  int    `json:"rows"`
	Cols  int    `json:"cols"`
	Rooms int    `json:"rooms"`
}

func (l *Layout) info() Info {
	return Info{ID: l.ID, Name: l.Name, Rows: l.Rows, Cols: l.Cols, Rooms: len(l.Rooms)}
}

func process(raw *RawLayout) *Layout {
	l := &Layout{
		ID:   raw.ID,
		Name: raw.Name,
		Rows: len(raw.Grid),
		Cols: len(raw.Grid[0]),
	}
	for r, row := range raw.Grid {
		for c, ch := range row {
			if ch == cellRoom {
				l.Rooms = append(l.Rooms, game.At(r, c))
			}
		}
	}
	return l
}
