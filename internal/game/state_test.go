package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T, players ...string) *GameState {
	t.Helper()
	s, err := NewGameState("g1", players, testRules())
	require.NoError(t, err)
	return s
}

func TestNewGameState_RejectsBadPlayers(t *testing.T) {
	tests := []struct {
		name    string
		players []string
	}{
		{"none", nil},
		{"duplicate", []string{"p1", "p1"}},
		{"empty id", []string{"p1", ""}},
		{"too many", []string{"a", "b", "c", "d", "e"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGameState("g1", tt.players, testRules())
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestAdvance_PhaseSequence(t *testing.T) {
	s := newTestState(t, "p1", "p2")
	assert.Equal(t, PhaseSetup, s.Phase())
	assert.Equal(t, 0, s.Round())

	next, err := s.Advance()
	require.NoError(t, err)
	assert.Equal(t, PhaseStartRound, next)
	assert.Equal(t, 1, s.Round())
	assert.Equal(t, 1, s.Stage())

	next, err = s.Advance()
	require.NoError(t, err)
	assert.Equal(t, PhaseWorkPlacement, next)
	assert.Equal(t, "p1", s.ActivePlayer())

	// Cannot leave WorkPlacement while workers remain
	_, err = s.Advance()
	assert.ErrorIs(t, err, ErrIllegalState)

	for s.Phase() == PhaseWorkPlacement {
		require.NoError(t, s.PlaceWorker(s.ActivePlayer()))
		s.NextTurn()
	}
	assert.Equal(t, PhaseReturnPeople, s.Phase())

	// Round 1 has no harvest
	next, err = s.Advance()
	require.NoError(t, err)
	assert.Equal(t, PhaseStartRound, next)
	assert.Equal(t, 2, s.Round())
}

func TestAdvance_HarvestRound(t *testing.T) {
	s := newTestState(t, "p1")
	for s.Round() < 4 || s.Phase() != PhaseReturnPeople {
		switch s.Phase() {
		case PhaseWorkPlacement:
			require.NoError(t, s.Pass("p1"))
			s.NextTurn()
		default:
			_, err := s.Advance()
			require.NoError(t, err)
		}
	}
	next, err := s.Advance()
	require.NoError(t, err)
	assert.Equal(t, PhaseHarvest, next)

	next, err = s.Advance()
	require.NoError(t, err)
	assert.Equal(t, PhaseStartRound, next)
	assert.Equal(t, 5, s.Round())
	assert.Equal(t, 2, s.Stage())
}

func TestAdvance_GameEndIsTerminal(t *testing.T) {
	s := newTestState(t, "p1")
	s.Stop()
	assert.True(t, s.Phase().IsTerminal())

	_, err := s.Advance()
	var ise *IllegalStateError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, PhaseGameEnd, ise.Actual)
}

func TestCheckPhase(t *testing.T) {
	s := newTestState(t, "p1", "p2")

	err := s.CheckPhase("place worker", []Phase{PhaseWorkPlacement}, "p1")
	var ise *IllegalStateError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, []Phase{PhaseWorkPlacement}, ise.Expected)
	assert.Equal(t, PhaseSetup, ise.Actual)
	assert.Equal(t, CodeIllegalState, CodeOf(err))

	_, _ = s.Advance()
	_, _ = s.Advance()

	assert.NoError(t, s.CheckPhase("place worker", []Phase{PhaseWorkPlacement}, "p1"))

	err = s.CheckPhase("place worker", []Phase{PhaseWorkPlacement}, "p2")
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, "p1", ise.ExpectedPlayer)
	assert.Equal(t, "p2", ise.ActualPlayer)

	err = s.CheckPhase("place worker", []Phase{PhaseWorkPlacement}, "ghost")
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestPlaceWorker_OncePerTurn(t *testing.T) {
	s := newTestState(t, "p1", "p2")
	_, _ = s.Advance()
	_, _ = s.Advance()

	require.NoError(t, s.PlaceWorker("p1"))
	assert.ErrorIs(t, s.PlaceWorker("p1"), ErrIllegalState)

	s.NextTurn()
	assert.Equal(t, "p2", s.ActivePlayer())
	assert.False(t, s.PlacedThisTurn())
}

func TestNextTurn_SkipsPlayersWithoutWorkers(t *testing.T) {
	s := newTestState(t, "p1", "p2", "p3")
	_, _ = s.Advance()
	_, _ = s.Advance()

	// p2 passes on their first turn and is skipped from then on
	require.NoError(t, s.PlaceWorker("p1"))
	s.NextTurn()
	require.NoError(t, s.Pass("p2"))
	s.NextTurn()
	assert.Equal(t, "p3", s.ActivePlayer())

	require.NoError(t, s.PlaceWorker("p3"))
	s.NextTurn()
	assert.Equal(t, "p1", s.ActivePlayer())

	require.NoError(t, s.PlaceWorker("p1"))
	s.NextTurn()
	assert.Equal(t, "p3", s.ActivePlayer())

	require.NoError(t, s.PlaceWorker("p3"))
	s.NextTurn()
	assert.Equal(t, PhaseReturnPeople, s.Phase())
	assert.Equal(t, "", s.ActivePlayer())
}

func TestStartingPlayer_TakesEffectNextRound(t *testing.T) {
	s := newTestState(t, "p1", "p2")
	_, _ = s.Advance()
	_, _ = s.Advance()

	s.SetStartingPlayer("p2")
	assert.Equal(t, "p1", s.StartingPlayer())
	assert.Equal(t, "p2", s.NextStartingPlayer())

	for s.Phase() == PhaseWorkPlacement {
		require.NoError(t, s.Pass(s.ActivePlayer()))
		s.NextTurn()
	}
	_, _ = s.Advance() // StartRound
	_, _ = s.Advance() // WorkPlacement
	assert.Equal(t, "p2", s.StartingPlayer())
	assert.Equal(t, "p2", s.ActivePlayer())
}

func TestAddNewborn(t *testing.T) {
	s := newTestState(t, "p1")
	_, _ = s.Advance()
	_, _ = s.Advance()

	s.AddNewborn("p1")
	left, total := s.Workers("p1")
	assert.Equal(t, 2, left, "newborn does not work in its birth round")
	assert.Equal(t, 3, total)
	assert.Equal(t, 1, s.Newborns("p1"))

	for s.Phase() == PhaseWorkPlacement {
		require.NoError(t, s.Pass("p1"))
		s.NextTurn()
	}
	_, _ = s.Advance()
	left, _ = s.Workers("p1")
	assert.Equal(t, 3, left)
	assert.Equal(t, 0, s.Newborns("p1"))
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := newTestState(t, "p1", "p2")
	snap := s.Snapshot()
	snap.Players[0] = "changed"
	snap.WorkersTotal["p1"] = 99

	assert.Equal(t, []string{"p1", "p2"}, s.Players())
	_, total := s.Workers("p1")
	assert.Equal(t, 2, total)
}

func TestRules(t *testing.T) {
	r := DefaultRules()
	require.NoError(t, r.Validate())

	assert.True(t, r.IsHarvestRound(4))
	assert.False(t, r.IsHarvestRound(5))
	assert.True(t, r.IsHarvestRound(14))

	assert.Equal(t, 1, r.StageOf(1))
	assert.Equal(t, 1, r.StageOf(4))
	assert.Equal(t, 2, r.StageOf(5))
	assert.Equal(t, 6, r.StageOf(14))

	assert.Equal(t, 3, r.FoodPerAdultFor(1))
	assert.Equal(t, 2, r.FoodPerAdultFor(3))

	bad := DefaultRules()
	bad.StartingRooms = []Coordinate{At(9, 9)}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)

	policy, err := ParseFeedingPolicy("every-round")
	require.NoError(t, err)
	assert.Equal(t, FeedEveryRound, policy)
	_, err = ParseFeedingPolicy("never")
	assert.Error(t, err)
}
