package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homestead/internal/goods"
)

// farmSnapshot builds a validation snapshot around a fresh farmyard.
func farmSnapshot(t *testing.T, holdings goods.Goods, muts ...Mutation) Snapshot {
	t.Helper()
	farm, err := NewFarmyard("p1", DefaultRules())
	require.NoError(t, err)
	require.NoError(t, farm.apply(muts))
	return Snapshot{
		Farmyard: farm.View(),
		Holdings: holdings,
		Pieces:   map[goods.Piece]int{goods.Fence: 15, goods.Stable: 4, goods.Person: 3},
	}
}

func newTestValidator() *Validator {
	return NewValidator(testRegistry(), testRules())
}

func TestValidateRoom(t *testing.T) {
	v := newTestValidator()
	rich := goods.Goods{goods.Wood: 10, goods.Reed: 4}

	tests := []struct {
		name string
		at   Coordinate
		have goods.Goods
		want error
	}{
		{"next to house", At(0, 0), rich, nil},
		{"not touching house", At(0, 4), rich, ErrStructuralIneligibility},
		{"on a room", At(1, 0), rich, ErrAlreadyOccupied},
		{"off the farm", At(3, 0), rich, ErrOutOfBounds},
		{"negative", At(-1, 0), rich, ErrOutOfBounds},
		{"too poor", At(0, 0), goods.Goods{goods.Wood: 3, goods.Reed: 2}, ErrInsufficientResources},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			effect, err := v.Validate(BuildRoom("p1", tt.at), farmSnapshot(t, tt.have))
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, goods.Goods{goods.Wood: 5, goods.Reed: 2}, effect.Cost)
			require.Len(t, effect.Farm, 1)
			assert.Equal(t, KindWoodRoom, effect.Farm[0].Kind)
		})
	}
}

func TestValidateRoom_ReportsMissing(t *testing.T) {
	_, err := newTestValidator().Validate(BuildRoom("p1", At(0, 0)), farmSnapshot(t, goods.Goods{goods.Wood: 3, goods.Reed: 2}))
	var ire *InsufficientResourcesError
	require.True(t, errors.As(err, &ire))
	assert.Equal(t, goods.Goods{goods.Wood: 2}, ire.Missing)
	assert.Equal(t, CodeInsufficient, CodeOf(err))
}

func TestValidate_IsPure(t *testing.T) {
	v := newTestValidator()
	snap := farmSnapshot(t, goods.Goods{goods.Wood: 10})
	before := snap.Farmyard.Spaces[0]

	req := BuildFences("p1", At(0, 3), At(0, 4))
	first, err := v.Validate(req, snap)
	require.NoError(t, err)
	second, err := v.Validate(req, snap)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, snap.Farmyard.Spaces[0])
	assert.Equal(t, 0, snap.Farmyard.FenceCount())
}

func TestValidateFences(t *testing.T) {
	v := newTestValidator()

	t.Run("two cell pasture", func(t *testing.T) {
		effect, err := v.Validate(BuildFences("p1", At(0, 3), At(0, 4), At(0, 3)), farmSnapshot(t, goods.Goods{goods.Wood: 10}))
		require.NoError(t, err)
		assert.Equal(t, goods.Goods{goods.Wood: 6}, effect.Cost)
		assert.Equal(t, map[goods.Piece]int{goods.Fence: 6}, effect.Pieces)
		last := effect.Farm[len(effect.Farm)-1]
		assert.Equal(t, OpEnclose, last.Op)
		assert.Equal(t, []Coordinate{At(0, 3), At(0, 4)}, last.Cells)
	})

	t.Run("shared edges are free", func(t *testing.T) {
		muts := []Mutation{}
		for _, e := range perimeter([]Coordinate{At(0, 4)}) {
			muts = append(muts, Mutation{Op: OpFence, Edge: e})
		}
		muts = append(muts, Mutation{Op: OpEnclose, Cells: []Coordinate{At(0, 4)}})
		snap := farmSnapshot(t, goods.Goods{goods.Wood: 10}, muts...)

		effect, err := v.Validate(BuildFences("p1", At(1, 4)), snap)
		require.NoError(t, err)
		assert.Equal(t, goods.Goods{goods.Wood: 3}, effect.Cost)
	})

	t.Run("pastures are not subdivided", func(t *testing.T) {
		cells := []Coordinate{At(0, 3), At(0, 4)}
		muts := []Mutation{}
		for _, e := range perimeter(cells) {
			muts = append(muts, Mutation{Op: OpFence, Edge: e})
		}
		muts = append(muts, Mutation{Op: OpEnclose, Cells: cells})
		snap := farmSnapshot(t, goods.Goods{goods.Wood: 10}, muts...)

		_, err := v.Validate(BuildFences("p1", At(0, 4)), snap)
		assert.ErrorIs(t, err, ErrAlreadyOccupied)
	})

	t.Run("not connected", func(t *testing.T) {
		_, err := v.Validate(BuildFences("p1", At(0, 1), At(0, 4)), farmSnapshot(t, goods.Goods{goods.Wood: 10}))
		assert.ErrorIs(t, err, ErrStructuralIneligibility)
	})

	t.Run("over a room", func(t *testing.T) {
		_, err := v.Validate(BuildFences("p1", At(1, 0)), farmSnapshot(t, goods.Goods{goods.Wood: 10}))
		assert.ErrorIs(t, err, ErrStructuralIneligibility)
	})

	t.Run("not enough fences", func(t *testing.T) {
		snap := farmSnapshot(t, goods.Goods{goods.Wood: 10})
		snap.Pieces[goods.Fence] = 3
		_, err := v.Validate(BuildFences("p1", At(0, 4)), snap)
		var ire *InsufficientResourcesError
		require.True(t, errors.As(err, &ire))
		assert.Equal(t, goods.Fence, ire.Piece)
	})
}

func TestValidatePlowAndSow(t *testing.T) {
	v := newTestValidator()
	field := Mutation{Op: OpConvert, At: At(0, 2), Kind: KindField}

	_, err := v.Validate(Plow("p1", At(0, 4)), farmSnapshot(t, nil, field))
	assert.ErrorIs(t, err, ErrStructuralIneligibility, "new field must touch the old one")

	_, err = v.Validate(Plow("p1", At(0, 3)), farmSnapshot(t, nil, field))
	assert.NoError(t, err)

	_, err = v.Validate(Plow("p1", At(0, 2)), farmSnapshot(t, nil, field))
	assert.ErrorIs(t, err, ErrAlreadyOccupied)

	effect, err := v.Validate(Sow("p1", At(0, 2), goods.Grain), farmSnapshot(t, goods.Goods{goods.Grain: 1}, field))
	require.NoError(t, err)
	assert.Equal(t, goods.Goods{goods.Grain: 3}, effect.Farm[0].Goods)

	_, err = v.Validate(Sow("p1", At(0, 3), goods.Grain), farmSnapshot(t, goods.Goods{goods.Grain: 1}, field))
	assert.ErrorIs(t, err, ErrStructuralIneligibility)

	_, err = v.Validate(Sow("p1", At(0, 2), goods.Wood), farmSnapshot(t, goods.Goods{goods.Wood: 1}, field))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestValidateStable(t *testing.T) {
	v := newTestValidator()
	effect, err := v.Validate(BuildStable("p1", At(0, 4)), farmSnapshot(t, goods.Goods{goods.Wood: 2}))
	require.NoError(t, err)
	assert.Equal(t, map[goods.Piece]int{goods.Stable: 1}, effect.Pieces)

	_, err = v.Validate(BuildStable("p1", At(0, 4)), farmSnapshot(t, goods.Goods{goods.Wood: 2}, Mutation{Op: OpStable, At: At(0, 4)}))
	assert.ErrorIs(t, err, ErrAlreadyOccupied)
}

func TestValidatePlacement_FamilyGrowth(t *testing.T) {
	reg := testRegistry()
	v := NewValidator(reg, testRules())

	actions, err := NewActionBoard(reg, 2)
	require.NoError(t, err)
	require.NoError(t, actions.apply([]Mutation{{Op: OpConvert, At: At(1, 4), Kind: KindAction}}))

	state := newTestState(t, "p1", "p2")
	_, _ = state.Advance()
	_, _ = state.Advance()

	snap := farmSnapshot(t, nil)
	snap.State = state.Snapshot()
	snap.Actions = actions.View()

	_, err = v.Validate(PlaceWorker("p1", "familyGrowth"), snap)
	assert.ErrorIs(t, err, ErrStructuralIneligibility, "two rooms for two people")

	snap = farmSnapshot(t, nil, Mutation{Op: OpConvert, At: At(0, 0), Kind: KindWoodRoom})
	snap.State = state.Snapshot()
	snap.Actions = actions.View()
	effect, err := v.Validate(PlaceWorker("p1", "familyGrowth"), snap)
	require.NoError(t, err)
	assert.Equal(t, map[goods.Piece]int{goods.Person: 1}, effect.Pieces)
	assert.Equal(t, EffectFamilyGrowth, effect.Action.Effect)

	// Stage spaces stay closed until revealed
	_, err = v.Validate(PlaceWorker("p1", "renovation"), snap)
	assert.ErrorIs(t, err, ErrStructuralIneligibility)

	_, err = v.Validate(PlaceWorker("p1", "nowhere"), snap)
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = v.Validate(PlaceWorkerAt("p1", At(7, 7)), snap)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestValidateConvert(t *testing.T) {
	v := newTestValidator()
	effect, err := v.Validate(Convert("p1", goods.Vegetable, 2), farmSnapshot(t, goods.Goods{goods.Vegetable: 2}))
	require.NoError(t, err)
	assert.Equal(t, goods.Goods{goods.Food: 2}, effect.Grant)

	_, err = v.Validate(Convert("p1", goods.Wood, 1), farmSnapshot(t, goods.Goods{goods.Wood: 2}))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = v.Validate(Convert("p1", goods.Grain, 3), farmSnapshot(t, goods.Goods{goods.Grain: 1}))
	assert.ErrorIs(t, err, ErrInsufficientResources)
}

func TestRenovation(t *testing.T) {
	farm, err := NewFarmyard("p1", DefaultRules())
	require.NoError(t, err)

	muts, cost, err := renovation(farm.View())
	require.NoError(t, err)
	assert.Equal(t, goods.Goods{goods.Clay: 2, goods.Reed: 1}, cost)
	require.NoError(t, farm.apply(muts))
	assert.Equal(t, goods.Clay, farm.View().HouseMaterial())

	muts, _, err = renovation(farm.View())
	require.NoError(t, err)
	require.NoError(t, farm.apply(muts))

	_, _, err = renovation(farm.View())
	assert.ErrorIs(t, err, ErrStructuralIneligibility)
}

func TestBoardApply_AllOrNothing(t *testing.T) {
	farm, err := NewFarmyard("p1", DefaultRules())
	require.NoError(t, err)
	before := farm.View()

	err = farm.apply([]Mutation{
		{Op: OpConvert, At: At(0, 0), Kind: KindField},
		{Op: OpConvert, At: At(1, 0), Kind: KindField}, // rooms never become fields
	})
	assert.ErrorIs(t, err, ErrStructuralIneligibility)
	assert.Equal(t, before, farm.View())
}

func TestBoardView_AnimalCapacity(t *testing.T) {
	farm, err := NewFarmyard("p1", DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, 1, farm.View().AnimalCapacity())

	cells := []Coordinate{At(0, 3), At(0, 4)}
	var muts []Mutation
	for _, e := range perimeter(cells) {
		muts = append(muts, Mutation{Op: OpFence, Edge: e})
	}
	muts = append(muts,
		Mutation{Op: OpEnclose, Cells: cells},
		Mutation{Op: OpStable, At: At(0, 4)},
		Mutation{Op: OpStable, At: At(2, 4)},
	)
	require.NoError(t, farm.apply(muts))

	view := farm.View()
	assert.Equal(t, 6, view.FenceCount())
	assert.Len(t, view.Pastures(), 1)
	// pet + free stable + (2 cells * 2) doubled by the stable inside
	assert.Equal(t, 1+1+8, view.AnimalCapacity())
}
