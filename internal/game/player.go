package game

import (
	"homestead/internal/goods"
)

// PlayerSnapshot is everything a client needs to show one player.
type PlayerSnapshot struct {
	ID           string              `json:"id"`
	WorkersLeft  int                 `json:"workersLeft"`
	WorkersTotal int                 `json:"workersTotal"`
	Newborns     int                 `json:"newborns"`
	Passed       bool                `json:"passed"`
	Holdings     goods.Goods         `json:"holdings"`
	Pieces       map[goods.Piece]int `json:"pieces"`
	Occupations  int                 `json:"occupations"`
	Cards        []string            `json:"cards,omitempty"`
	Hand         []string            `json:"hand,omitempty"`
	Pending      []FrameView         `json:"pending,omitempty"`
	Farmyard     BoardView           `json:"farmyard"`
}

// GameSnapshot is a full read-only copy of a game.
type GameSnapshot struct {
	State       StateSnapshot    `json:"state"`
	Players     []PlayerSnapshot `json:"players"`
	ActionBoard BoardView        `json:"actionBoard"`
	Revealed    []string         `json:"revealed,omitempty"`
	LastHarvest []HarvestReport  `json:"lastHarvest,omitempty"`
}

// Player returns a copy of one player's situation.
func (g *Game) Player(id string) (PlayerSnapshot, bool) {
	if !g.state.HasPlayer(id) {
		return PlayerSnapshot{}, false
	}
	left, total := g.state.Workers(id)
	snap := g.state.Snapshot()
	return PlayerSnapshot{
		ID:           id,
		WorkersLeft:  left,
		WorkersTotal: total,
		Newborns:     g.state.Newborns(id),
		Passed:       snap.Passed[id],
		Holdings:     g.supply.Holdings(id),
		Pieces:       limitedLeft(g.supply, id),
		Occupations:  g.occupations[id],
		Cards:        g.PlayedCards(id),
		Hand:         g.Hand(id),
		Pending:      g.queues[id].Pending(),
		Farmyard:     g.farms[id].View(),
	}, true
}

// Snapshot copies the whole game.
func (g *Game) Snapshot() GameSnapshot {
	out := GameSnapshot{
		State:       g.state.Snapshot(),
		ActionBoard: g.actions.View(),
		LastHarvest: g.LastHarvest(),
	}
	for _, p := range g.state.Players() {
		ps, _ := g.Player(p)
		out.Players = append(out.Players, ps)
	}
	for _, d := range g.reveal[:g.revealed] {
		out.Revealed = append(out.Revealed, d.ID)
	}
	return out
}
