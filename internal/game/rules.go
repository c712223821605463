package game

import (
	"fmt"
)

// FeedingPolicy decides when families must be fed.
type FeedingPolicy int

const (
	// FeedAtHarvest feeds only during harvest rounds.
	FeedAtHarvest FeedingPolicy = iota
	// FeedEveryRound feeds at the end of every round; harvest rounds also run fields and breeding.
	FeedEveryRound
)

// String returns the policy name.
func (f FeedingPolicy) String() string {
	switch f {
	case FeedAtHarvest:
		return "harvest"
	case FeedEveryRound:
		return "every-round"
	default:
		return "unknown"
	}
}

// ParseFeedingPolicy maps a configuration value to a policy.
func ParseFeedingPolicy(s string) (FeedingPolicy, error) {
	switch s {
	case "", "harvest":
		return FeedAtHarvest, nil
	case "every-round", "round":
		return FeedEveryRound, nil
	}
	return FeedAtHarvest, fmt.Errorf("unknown feeding policy %q", s)
}

// Rules contains the configurable game parameters.
type Rules struct {
	Rounds          int
	HarvestRounds   []int
	StageEnds       []int // last round of each stage
	StartingWorkers int
	MaxPlayers      int

	FeedingPolicy    FeedingPolicy
	FoodPerAdult     int
	FoodPerAdultSolo int
	FoodPerNewborn   int

	StartingFood       int
	StartingPlayerFood int

	FarmRows      int
	FarmCols      int
	StartingRooms []Coordinate

	// HandSize is how many occupations and how many minor improvements each
	// player is dealt.
	HandSize int

	// Seed orders the stage action spaces. Zero means a random seed is drawn.
	Seed int64
}

// DefaultRules returns the standard family game rules.
func DefaultRules() Rules {
	return Rules{
		Rounds:             14,
		HarvestRounds:      []int{4, 7, 9, 11, 13, 14},
		StageEnds:          []int{4, 7, 9, 11, 13, 14},
		StartingWorkers:    2,
		MaxPlayers:         4,
		FeedingPolicy:      FeedAtHarvest,
		FoodPerAdult:       2,
		FoodPerAdultSolo:   3,
		FoodPerNewborn:     1,
		StartingFood:       3,
		StartingPlayerFood: 2,
		FarmRows:           3,
		FarmCols:           5,
		StartingRooms:      []Coordinate{{Row: 1, Col: 0}, {Row: 2, Col: 0}},
		HandSize:           7,
	}
}

// Validate checks the rules are internally consistent.
func (r Rules) Validate() error {
	if r.Rounds < 1 {
		return fmt.Errorf("%w: rounds must be positive", ErrInvalidConfig)
	}
	if r.StartingWorkers < 1 {
		return fmt.Errorf("%w: starting workers must be positive", ErrInvalidConfig)
	}
	if r.FarmRows < 1 || r.FarmCols < 1 {
		return fmt.Errorf("%w: farmyard must have at least one cell", ErrInvalidConfig)
	}
	if r.HandSize < 0 {
		return fmt.Errorf("%w: hand size must not be negative", ErrInvalidConfig)
	}
	if len(r.StartingRooms) == 0 {
		return fmt.Errorf("%w: farmyard needs a starting room", ErrInvalidConfig)
	}
	for _, c := range r.StartingRooms {
		if c.Row < 0 || c.Row >= r.FarmRows || c.Col < 0 || c.Col >= r.FarmCols {
			return fmt.Errorf("%w: starting room %s outside farmyard", ErrInvalidConfig, c)
		}
	}
	for i := 1; i < len(r.StageEnds); i++ {
		if r.StageEnds[i] <= r.StageEnds[i-1] {
			return fmt.Errorf("%w: stage ends must increase", ErrInvalidConfig)
		}
	}
	return nil
}

// IsHarvestRound reports whether a harvest follows the given round.
func (r Rules) IsHarvestRound(round int) bool {
	for _, h := range r.HarvestRounds {
		if h == round {
			return true
		}
	}
	return false
}

// StageOf returns the 1-based stage a round belongs to.
func (r Rules) StageOf(round int) int {
	for i, end := range r.StageEnds {
		if round <= end {
			return i + 1
		}
	}
	return len(r.StageEnds)
}

// FoodPerAdultFor returns the feeding cost per adult for a player count.
func (r Rules) FoodPerAdultFor(players int) int {
	if players == 1 && r.FoodPerAdultSolo > 0 {
		return r.FoodPerAdultSolo
	}
	return r.FoodPerAdult
}
