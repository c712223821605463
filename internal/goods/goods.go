// Package goods holds the resource vocabulary shared by the engine and its supply.
package goods

import (
	"fmt"
	"sort"
	"strings"
)

// Good is an unlimited resource kind.
type Good int

const (
	None Good = iota
	Wood
	Clay
	Reed
	Stone
	Grain
	Vegetable
	Food
	Sheep
	Boar
	Cattle
	Begging
)

var goodNames = map[Good]string{
	Wood:      "wood",
	Clay:      "clay",
	Reed:      "reed",
	Stone:     "stone",
	Grain:     "grain",
	Vegetable: "vegetable",
	Food:      "food",
	Sheep:     "sheep",
	Boar:      "boar",
	Cattle:    "cattle",
	Begging:   "begging",
}

// String returns the good name.
func (g Good) String() string {
	if name, ok := goodNames[g]; ok {
		return name
	}
	return "none"
}

// IsAnimal returns true for goods that live on the farmyard.
func (g Good) IsAnimal() bool {
	return g == Sheep || g == Boar || g == Cattle
}

// IsCrop returns true for goods that can be sown.
func (g Good) IsCrop() bool {
	return g == Grain || g == Vegetable
}

// IsBuildingMaterial returns true for goods rooms can be built from.
func (g Good) IsBuildingMaterial() bool {
	return g == Wood || g == Clay || g == Stone
}

// ParseGood maps a name to its Good.
func ParseGood(name string) (Good, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for g, s := range goodNames {
		if s == n {
			return g, nil
		}
	}
	return None, fmt.Errorf("unknown good %q", name)
}

// MarshalText encodes the good by name so multisets serialize as readable maps.
func (g Good) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText decodes a good name.
func (g *Good) UnmarshalText(b []byte) error {
	parsed, err := ParseGood(string(b))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// Animals lists the animal kinds in a stable order.
var Animals = []Good{Sheep, Boar, Cattle}

// Piece is a limited component each player owns a fixed number of.
type Piece int

const (
	PieceNone Piece = iota
	Person
	Fence
	Stable
)

// String returns the piece name.
func (p Piece) String() string {
	switch p {
	case Person:
		return "person"
	case Fence:
		return "fence"
	case Stable:
		return "stable"
	default:
		return "none"
	}
}

// ParsePiece maps a name to its Piece.
func ParsePiece(name string) (Piece, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "person":
		return Person, nil
	case "fence":
		return Fence, nil
	case "stable":
		return Stable, nil
	}
	return PieceNone, fmt.Errorf("unknown piece %q", name)
}

// MarshalText encodes the piece by name.
func (p Piece) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a piece name.
func (p *Piece) UnmarshalText(b []byte) error {
	parsed, err := ParsePiece(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// LimitedStock is the number of each piece a player owns.
var LimitedStock = map[Piece]int{
	Person: 5,
	Fence:  15,
	Stable: 4,
}

// Goods is a multiset of goods. A nil Goods is empty.
type Goods map[Good]int

// Get returns the amount of a good.
func (gs Goods) Get(g Good) int {
	return gs[g]
}

// Add returns gs plus other. Neither input is modified.
func (gs Goods) Add(other Goods) Goods {
	out := gs.Clone()
	for g, n := range other {
		out[g] += n
	}
	return out.compact()
}

// Covers reports whether gs holds at least every amount in cost.
func (gs Goods) Covers(cost Goods) bool {
	for g, n := range cost {
		if gs[g] < n {
			return false
		}
	}
	return true
}

// Missing returns the part of cost gs cannot cover.
func (gs Goods) Missing(cost Goods) Goods {
	out := Goods{}
	for g, n := range cost {
		if short := n - gs[g]; short > 0 {
			out[g] = short
		}
	}
	return out
}

// Subtract returns gs minus cost, or false when gs does not cover it.
func (gs Goods) Subtract(cost Goods) (Goods, bool) {
	if !gs.Covers(cost) {
		return gs, false
	}
	out := gs.Clone()
	for g, n := range cost {
		out[g] -= n
	}
	return out.compact(), true
}

// Scale multiplies every amount by k.
func (gs Goods) Scale(k int) Goods {
	out := Goods{}
	for g, n := range gs {
		out[g] = n * k
	}
	return out.compact()
}

// Total returns the number of items across all goods.
func (gs Goods) Total() int {
	total := 0
	for _, n := range gs {
		total += n
	}
	return total
}

// IsEmpty reports whether the multiset has no items.
func (gs Goods) IsEmpty() bool {
	return gs.Total() == 0
}

// Clone creates a copy of the multiset.
func (gs Goods) Clone() Goods {
	out := make(Goods, len(gs))
	for g, n := range gs {
		out[g] = n
	}
	return out
}

// Kinds returns the goods present, sorted.
func (gs Goods) Kinds() []Good {
	kinds := make([]Good, 0, len(gs))
	for g, n := range gs {
		if n != 0 {
			kinds = append(kinds, g)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func (gs Goods) String() string {
	parts := make([]string, 0, len(gs))
	for _, g := range gs.Kinds() {
		parts = append(parts, fmt.Sprintf("%d %s", gs[g], g))
	}
	if len(parts) == 0 {
		return "nothing"
	}
	return strings.Join(parts, ", ")
}

func (gs Goods) compact() Goods {
	for g, n := range gs {
		if n == 0 {
			delete(gs, g)
		}
	}
	return gs
}
