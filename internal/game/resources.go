package game

import (
	"homestead/internal/goods"
)

// Supply is the resource container the engine reads and commits through.
// Queries are side-effect free; Spend and TakeLimited change nothing on error.
type Supply interface {
	Has(player string, g goods.Good, n int) bool
	Grant(player string, g goods.Good, n int)
	HasLimited(player string, p goods.Piece) bool

	Count(player string, g goods.Good) int
	Holdings(player string) goods.Goods
	Spend(player string, cost goods.Goods) error
	TakeLimited(player string, p goods.Piece, n int) error
	ReturnLimited(player string, p goods.Piece, n int)
	LimitedLeft(player string, p goods.Piece) int
}

// grantAll gives every good in gs to the player.
func grantAll(s Supply, player string, gs goods.Goods) {
	for _, g := range gs.Kinds() {
		s.Grant(player, g, gs[g])
	}
}

// limitedLeft returns the player's remaining limited pieces.
func limitedLeft(s Supply, player string) map[goods.Piece]int {
	out := make(map[goods.Piece]int, len(goods.LimitedStock))
	for p := range goods.LimitedStock {
		out[p] = s.LimitedLeft(player, p)
	}
	return out
}

// BakeFoodPerGrain is the food one grain yields when baked.
const BakeFoodPerGrain = 2
