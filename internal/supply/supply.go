// Package supply is the in-memory resource container backing a game.
package supply

import (
	"errors"
	"fmt"
	"sync"

	"homestead/internal/goods"
)

// Supply errors
var (
	ErrInsufficientGoods = errors.New("insufficient goods")
	ErrNoPiecesLeft      = errors.New("no pieces left in supply")
	ErrNegativeAmount    = errors.New("amount must not be negative")
)

// stockpile is one player's holdings.
type stockpile struct {
	goods  goods.Goods
	pieces map[goods.Piece]int
}

func newStockpile(limits map[goods.Piece]int) *stockpile {
	pieces := make(map[goods.Piece]int, len(limits))
	for p, n := range limits {
		pieces[p] = n
	}
	return &stockpile{goods: goods.Goods{}, pieces: pieces}
}

// Store keeps unlimited goods and limited pieces per player. It is safe for
// concurrent use. A player gets a stockpile with the full limited stock on
// the first write; reads of an unknown player see that empty stockpile.
type Store struct {
	mu      sync.Mutex
	limits  map[goods.Piece]int
	players map[string]*stockpile
}

// New creates a store using the standard limited stock.
func New() *Store {
	return NewWithLimits(goods.LimitedStock)
}

// NewWithLimits creates a store with custom limited stock counts.
func NewWithLimits(limits map[goods.Piece]int) *Store {
	l := make(map[goods.Piece]int, len(limits))
	for p, n := range limits {
		l[p] = n
	}
	return &Store{limits: l, players: make(map[string]*stockpile)}
}

// lookup returns the player's stockpile without creating it.
func (s *Store) lookup(id string) (*stockpile, bool) {
	sp, ok := s.players[id]
	return sp, ok
}

func (s *Store) player(id string) *stockpile {
	sp, ok := s.players[id]
	if !ok {
		sp = newStockpile(s.limits)
		s.players[id] = sp
	}
	return sp
}

// Has reports whether the player holds at least n of a good.
func (s *Store) Has(player string, g goods.Good, n int) bool {
	return s.Count(player, g) >= n
}

// Count returns how many of a good the player holds.
func (s *Store) Count(player string, g goods.Good) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.lookup(player)
	if !ok {
		return 0
	}
	return sp.goods[g]
}

// Holdings returns a copy of the player's goods.
func (s *Store) Holdings(player string) goods.Goods {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.lookup(player)
	if !ok {
		return goods.Goods{}
	}
	return sp.goods.Clone()
}

// Grant gives the player n of a good.
func (s *Store) Grant(player string, g goods.Good, n int) {
	if n <= 0 || g == goods.None {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sp := s.player(player)
	sp.goods = sp.goods.Add(goods.Goods{g: n})
}

// Spend removes a cost from the player's goods. Nothing is removed on error.
func (s *Store) Spend(player string, cost goods.Goods) error {
	for g, n := range cost {
		if n < 0 {
			return fmt.Errorf("spend %s: %w", g, ErrNegativeAmount)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sp := s.player(player)
	left, ok := sp.goods.Subtract(cost)
	if !ok {
		return fmt.Errorf("spend %s (missing %s): %w", cost, sp.goods.Missing(cost), ErrInsufficientGoods)
	}
	sp.goods = left
	return nil
}

// HasLimited reports whether at least one piece is left.
func (s *Store) HasLimited(player string, p goods.Piece) bool {
	return s.LimitedLeft(player, p) > 0
}

// LimitedLeft returns how many pieces the player still has in supply.
func (s *Store) LimitedLeft(player string, p goods.Piece) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.lookup(player)
	if !ok {
		return s.limits[p]
	}
	return sp.pieces[p]
}

// TakeLimited moves n pieces out of the supply.
func (s *Store) TakeLimited(player string, p goods.Piece, n int) error {
	if n < 0 {
		return ErrNegativeAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sp := s.player(player)
	if sp.pieces[p] < n {
		return fmt.Errorf("take %d %s: %w", n, p, ErrNoPiecesLeft)
	}
	sp.pieces[p] -= n
	return nil
}

// ReturnLimited puts n pieces back, never above the configured limit.
func (s *Store) ReturnLimited(player string, p goods.Piece, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp := s.player(player)
	sp.pieces[p] += n
	if max, ok := s.limits[p]; ok && sp.pieces[p] > max {
		sp.pieces[p] = max
	}
}
