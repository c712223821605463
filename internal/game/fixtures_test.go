package game

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"homestead/internal/goods"
)

// staticRegistry is a small hand-built board used across the package tests.
type staticRegistry struct {
	spaces []ActionDef
	cards  map[string]CardDef
}

func (r *staticRegistry) Lookup(id string) (ActionDef, bool) {
	for _, d := range r.spaces {
		if d.ID == id {
			return d, true
		}
	}
	return ActionDef{}, false
}

func (r *staticRegistry) Spaces() []ActionDef {
	return append([]ActionDef(nil), r.spaces...)
}

func (r *staticRegistry) Card(id string) (CardDef, bool) {
	c, ok := r.cards[id]
	return c, ok
}

func (r *staticRegistry) Cards(kind CardKind) []string {
	var ids []string
	for id, c := range r.cards {
		if c.Kind == kind {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func testRegistry() *staticRegistry {
	return &staticRegistry{
		spaces: []ActionDef{
			{ID: "getWood", Effect: EffectTakeGoods, At: At(0, 0), Goods: goods.Goods{goods.Wood: 1}},
			{ID: "forest", Effect: EffectAccumulate, At: At(0, 1), Goods: goods.Goods{goods.Wood: 3}},
			{ID: "resourceMarket", Effect: EffectChooseResource, At: At(0, 2), MaxAmount: 3,
				Options: []goods.Good{goods.Wood, goods.Clay, goods.Reed, goods.Stone}},
			{ID: "farmExpansion", Effect: EffectFarmExpansion, At: At(0, 3)},
			{ID: "grainSeeds", Effect: EffectTakeGoods, At: At(0, 4), Goods: goods.Goods{goods.Grain: 1}},
			{ID: "plowField", Effect: EffectPlow, At: At(0, 5)},
			{ID: "meetingPlace", Effect: EffectStartingPlayer, At: At(1, 0), Goods: goods.Goods{goods.Food: 1}},
			{ID: "lessons", Effect: EffectLessons, At: At(1, 1), Cost: goods.Goods{goods.Food: 1}},
			{ID: "improvements", Effect: EffectMajorImprovement, At: At(2, 1)},
			{ID: "quarry", Effect: EffectTakeGoods, At: At(1, 6), MinPlayers: 3, Goods: goods.Goods{goods.Stone: 1}},

			{ID: "sowing", Effect: EffectSow, Stage: 1, At: At(1, 2)},
			{ID: "fencing", Effect: EffectFencing, Stage: 1, At: At(1, 3)},
			{ID: "familyGrowth", Effect: EffectFamilyGrowth, Stage: 2, At: At(1, 4)},
			{ID: "renovation", Effect: EffectRenovation, Stage: 2, At: At(1, 5)},
			{ID: "bakery", Effect: EffectBakeBread, Stage: 3, At: At(2, 0)},
		},
		cards: map[string]CardDef{
			"woodcutter": {ID: "woodcutter", Kind: CardOccupation, Grant: goods.Goods{goods.Wood: 2}},
			"fieldHand":  {ID: "fieldHand", Kind: CardOccupation},
			"basket":     {ID: "basket", Kind: CardMinor, Cost: goods.Goods{goods.Wood: 1}, Grant: goods.Goods{goods.Grain: 1}},
			"trough":     {ID: "trough", Kind: CardMinor, Grant: goods.Goods{goods.Food: 1}, PassLeft: true},
			"loom":       {ID: "loom", Kind: CardMinor, Cost: goods.Goods{goods.Wood: 1}, MinOccupations: 1},
			"fireplace":  {ID: "fireplace", Kind: CardMajor, Cost: goods.Goods{goods.Clay: 2}},
			"hearth":     {ID: "hearth", Kind: CardMajor, Cost: goods.Goods{goods.Clay: 4}, Replaces: []string{"fireplace"}},
			"oven":       {ID: "oven", Kind: CardMajor, Cost: goods.Goods{goods.Clay: 3}, Bakes: true},
		},
	}
}

func testRules() Rules {
	r := DefaultRules()
	r.Seed = 42
	return r
}

func newTestGame(t *testing.T, players ...string) *Game {
	t.Helper()
	if len(players) == 0 {
		players = []string{"p1", "p2"}
	}
	g, err := New(Config{ID: "g1", Players: players, Registry: testRegistry(), Rules: testRules()})
	require.NoError(t, err)
	return g
}

// startPlacement advances a fresh game into the first WorkPlacement.
func startPlacement(t *testing.T, g *Game) {
	t.Helper()
	for g.Phase() != PhaseWorkPlacement {
		_, err := g.AdvancePhase()
		require.NoError(t, err)
	}
}

// finishRound passes every remaining player and advances into the next
// WorkPlacement, or to GameEnd after the last round.
func finishRound(t *testing.T, g *Game) {
	t.Helper()
	for g.Phase() == PhaseWorkPlacement {
		require.NoError(t, g.Pass(g.State().ActivePlayer))
	}
	for g.Phase() != PhaseWorkPlacement && g.Phase() != PhaseGameEnd {
		_, err := g.AdvancePhase()
		require.NoError(t, err)
	}
}

func grant(g *Game, player string, gs goods.Goods) {
	grantAll(g.supply, player, gs)
}

// deal replaces a player's dealt hand.
func deal(g *Game, player string, ids ...string) {
	g.hands[player] = append([]string{}, ids...)
}
