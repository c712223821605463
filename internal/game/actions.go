package game

import (
	"fmt"
	"strings"

	"homestead/internal/goods"
)

// EffectKind is the closed set of things an action space or card can do.
// Dispatch over it is a switch; there is no dynamic lookup of procedures.
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectTakeGoods
	EffectAccumulate
	EffectFarmExpansion
	EffectPlow
	EffectSow
	EffectBakeBread
	EffectFencing
	EffectRenovation
	EffectStartingPlayer
	EffectChooseResource
	EffectLessons
	EffectFamilyGrowth
	EffectMajorImprovement
	EffectPlayCard
	EffectReturnOrBuy
)

var effectNames = map[EffectKind]string{
	EffectTakeGoods:        "take-goods",
	EffectAccumulate:       "accumulate",
	EffectFarmExpansion:    "farm-expansion",
	EffectPlow:             "plow",
	EffectSow:              "sow",
	EffectBakeBread:        "bake-bread",
	EffectFencing:          "fencing",
	EffectRenovation:       "renovation",
	EffectStartingPlayer:   "starting-player",
	EffectChooseResource:   "choose-resource",
	EffectLessons:          "lessons",
	EffectFamilyGrowth:     "family-growth",
	EffectMajorImprovement: "major-improvement",
	EffectPlayCard:         "play-card",
	EffectReturnOrBuy:      "return-or-buy",
}

func (e EffectKind) String() string {
	if n, ok := effectNames[e]; ok {
		return n
	}
	return "none"
}

// MarshalText encodes the effect by name.
func (e EffectKind) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText decodes an effect name.
func (e *EffectKind) UnmarshalText(b []byte) error {
	if string(b) == "none" {
		*e = EffectNone
		return nil
	}
	k, err := ParseEffectKind(string(b))
	if err != nil {
		return err
	}
	*e = k
	return nil
}

// ParseEffectKind maps a name to its EffectKind.
func ParseEffectKind(name string) (EffectKind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for k, s := range effectNames {
		if s == n {
			return k, nil
		}
	}
	return EffectNone, fmt.Errorf("%w: effect %q", ErrUnknownAction, name)
}

// ActionDef describes one action space.
type ActionDef struct {
	ID         string
	Name       string
	Effect     EffectKind
	Stage      int // 0 for spaces available from the first round
	MinPlayers int
	MaxPlayers int // 0 means no upper bound
	At         Coordinate
	Capacity   int
	Goods      goods.Goods // taken directly, or restocked every round when accumulating
	Cost       goods.Goods
	Options    []goods.Good
	MaxAmount  int
}

// Accumulates reports whether the space gains goods every round.
func (d ActionDef) Accumulates() bool {
	return d.Effect == EffectAccumulate || (d.Effect == EffectStartingPlayer && !d.Goods.IsEmpty())
}

// CardKind separates occupations and minor improvements, which are dealt to
// hands, from the shared major improvements.
type CardKind int

const (
	CardOccupation CardKind = iota + 1
	CardMinor
	CardMajor
)

func (k CardKind) String() string {
	switch k {
	case CardOccupation:
		return "occupation"
	case CardMinor:
		return "minor"
	case CardMajor:
		return "major"
	default:
		return "none"
	}
}

// ParseCardKind maps a name to its CardKind.
func ParseCardKind(name string) (CardKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "occupation":
		return CardOccupation, nil
	case "minor", "minor-improvement":
		return CardMinor, nil
	case "major", "major-improvement":
		return CardMajor, nil
	}
	return 0, fmt.Errorf("unknown card kind %q", name)
}

// CardDef describes a playable card.
type CardDef struct {
	ID    string
	Name  string
	Kind  CardKind
	Cost  goods.Goods
	Grant goods.Goods

	MinOccupations int      // occupations the player must have played first
	PassLeft       bool     // a minor that moves to the next player's hand once played
	Replaces       []string // improvements that can be handed back instead of paying
	Bakes          bool     // buying it allows an immediate bake
}

// ActionRegistry resolves action and card identifiers to their definitions.
type ActionRegistry interface {
	Lookup(id string) (ActionDef, bool)
	Spaces() []ActionDef
	Card(id string) (CardDef, bool)
	// Cards lists the ids of every card of a kind in a stable order.
	Cards(kind CardKind) []string
}
