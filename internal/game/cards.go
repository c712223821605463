package game

import (
	"fmt"
	"slices"
	"sort"

	"go.uber.org/zap"

	"homestead/internal/goods"
	"homestead/internal/random"
)

// dealHands shuffles the occupation and minor improvement decks with the
// game seed and deals up to rules.HandSize of each to every player.
func dealHands(registry ActionRegistry, players []string, rules Rules) map[string][]string {
	hands := make(map[string][]string, len(players))
	for _, p := range players {
		hands[p] = []string{}
	}
	for i, kind := range []CardKind{CardOccupation, CardMinor} {
		deck := registry.Cards(kind)
		random.Shuffle(rules.Seed+int64(i)+1, deck)
		for j, id := range deck {
			if j >= rules.HandSize*len(players) {
				break
			}
			p := players[j%len(players)]
			hands[p] = append(hands[p], id)
		}
	}
	return hands
}

// playCard resolves a card frame. Occupations and minor improvements must be
// in the player's hand, major improvements in the shared supply. Every check
// runs before anything is paid.
func (g *Game) playCard(player string, f DecisionFrame) ([]DecisionFrame, error) {
	id := f.Bound[ArgCard].(string)

	card, ok := g.registry.Card(id)
	if !ok {
		return nil, &InvalidArgumentError{Name: ArgCard, Reason: fmt.Sprintf("unknown card %q", id)}
	}
	if card.Kind != f.CardKind {
		return nil, &InvalidArgumentError{Name: ArgCard, Reason: fmt.Sprintf("%s is a %s, expected %s", id, card.Kind, f.CardKind)}
	}
	if owner, played := g.cards[id]; played {
		return nil, &AlreadyOccupiedError{Space: "card " + id, Occupants: []string{owner}}
	}
	if card.Kind != CardMajor && !slices.Contains(g.hands[player], id) {
		return nil, &InvalidArgumentError{Name: ArgCard, Reason: fmt.Sprintf("%s is not in %s's hand", id, player)}
	}
	if g.occupations[player] < card.MinOccupations {
		return nil, &InvalidArgumentError{Name: ArgCard, Reason: fmt.Sprintf("%s needs %d occupations", id, card.MinOccupations)}
	}

	cost := card.Cost.Add(f.Payment)
	if len(g.returnable(player, card)) > 0 {
		return []DecisionFrame{acquireFrame(player, id, cost)}, nil
	}
	if err := g.pay(player, cost); err != nil {
		return nil, err
	}
	return g.acquire(player, card), nil
}

// acquireImprovement resolves the buy-or-return choice for an upgrade.
func (g *Game) acquireImprovement(player string, f DecisionFrame) ([]DecisionFrame, error) {
	card, ok := g.registry.Card(f.Source)
	if !ok {
		return nil, fmt.Errorf("%w: card %s", ErrUnknownAction, f.Source)
	}
	if owner, played := g.cards[card.ID]; played {
		return nil, &AlreadyOccupiedError{Space: "card " + card.ID, Occupants: []string{owner}}
	}

	if f.Bound[ArgAcquire].(string) == AcquireBuy {
		if err := g.pay(player, f.Payment); err != nil {
			return nil, err
		}
		return g.acquire(player, card), nil
	}

	returnable := g.returnable(player, card)
	if len(returnable) == 0 {
		return nil, &InvalidArgumentError{Name: ArgAcquire, Reason: "nothing to return for " + card.ID}
	}
	delete(g.cards, returnable[0])
	g.log.Debug("improvement returned",
		zap.String("player", player),
		zap.String("card", returnable[0]),
		zap.String("for", card.ID),
	)
	return g.acquire(player, card), nil
}

// returnable lists the improvements the player owns that card can replace.
func (g *Game) returnable(player string, card CardDef) []string {
	var out []string
	for _, id := range card.Replaces {
		if g.cards[id] == player {
			out = append(out, id)
		}
	}
	return out
}

func (g *Game) pay(player string, cost goods.Goods) error {
	if missing := g.supply.Holdings(player).Missing(cost); !missing.IsEmpty() {
		return &InsufficientResourcesError{Player: player, Missing: missing}
	}
	return g.supply.Spend(player, cost)
}

// acquire hands a paid-for card to the player and returns any frame it opens.
func (g *Game) acquire(player string, card CardDef) []DecisionFrame {
	g.hands[player] = slices.DeleteFunc(g.hands[player], func(id string) bool { return id == card.ID })
	grantAll(g.supply, player, card.Grant)
	if card.Kind == CardOccupation {
		g.occupations[player]++
	}

	if card.PassLeft {
		if next := g.leftOf(player); next != player {
			g.hands[next] = append(g.hands[next], card.ID)
		}
	} else {
		g.cards[card.ID] = player
	}
	g.log.Debug("card played",
		zap.String("player", player),
		zap.String("card", card.ID),
		zap.String("kind", card.Kind.String()),
		zap.Bool("passed_left", card.PassLeft),
	)

	if card.Bakes {
		if grain := g.supply.Count(player, goods.Grain); grain > 0 {
			return []DecisionFrame{bakeFrame(player, card.ID, grain)}
		}
	}
	return nil
}

// leftOf returns the player seated after player.
func (g *Game) leftOf(player string) string {
	players := g.state.Players()
	i := slices.Index(players, player)
	return players[(i+1)%len(players)]
}

// PlayedCards returns the cards a player has played, sorted.
func (g *Game) PlayedCards(player string) []string {
	var out []string
	for id, p := range g.cards {
		if p == player {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Hand returns the cards a player still holds, sorted.
func (g *Game) Hand(player string) []string {
	out := slices.Clone(g.hands[player])
	sort.Strings(out)
	return out
}
