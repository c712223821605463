package game

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homestead/internal/goods"
)

func marketFrame() DecisionFrame {
	return chooseResourceFrame("p1", ActionDef{
		ID:        "resourceMarket",
		Options:   []goods.Good{goods.Clay, goods.Reed},
		MaxAmount: 3,
	})
}

// countingInvoker records how often it runs and what it saw.
type countingInvoker struct {
	calls     int
	seen      []DecisionFrame
	err       error
	followUps []DecisionFrame
}

func (c *countingInvoker) invoke(f DecisionFrame) ([]DecisionFrame, error) {
	c.calls++
	c.seen = append(c.seen, f)
	if c.err != nil {
		return nil, c.err
	}
	return c.followUps, nil
}

func TestResolve_NoPendingDecision(t *testing.T) {
	q := NewDecisionQueue("p1")
	inv := &countingInvoker{}

	_, err := q.Resolve(map[string]any{"amount": 1}, inv.invoke)
	assert.ErrorIs(t, err, ErrNoPendingDecision)
	assert.Equal(t, 0, inv.calls)
}

func TestResolve_PartialThenComplete(t *testing.T) {
	q := NewDecisionQueue("p1")
	q.Push(marketFrame())
	inv := &countingInvoker{}

	res, err := q.Resolve(map[string]any{ArgResourceKind: "clay"}, inv.invoke)
	require.NoError(t, err)
	assert.False(t, res.Complete)
	assert.Equal(t, []string{ArgAmount}, res.Frame.Missing)
	assert.Equal(t, 0, inv.calls)
	assert.Equal(t, 1, q.Len())

	// JSON numbers arrive as float64
	res, err = q.Resolve(map[string]any{ArgAmount: float64(2)}, inv.invoke)
	require.NoError(t, err)
	assert.True(t, res.Complete)
	assert.Equal(t, 1, inv.calls)
	assert.Equal(t, 0, q.Len())

	f := inv.seen[0]
	assert.Equal(t, goods.Clay, f.Bound[ArgResourceKind])
	assert.Equal(t, 2, f.Bound[ArgAmount])
}

func TestResolve_InvokesExactlyOnce(t *testing.T) {
	q := NewDecisionQueue("p1")
	q.Push(marketFrame())
	inv := &countingInvoker{}

	_, err := q.Resolve(map[string]any{ArgResourceKind: "reed", ArgAmount: 1}, inv.invoke)
	require.NoError(t, err)

	_, err = q.Resolve(map[string]any{ArgAmount: 1}, inv.invoke)
	assert.ErrorIs(t, err, ErrNoPendingDecision)
	assert.Equal(t, 1, inv.calls)
}

func TestResolve_UnknownArgumentLeavesFrame(t *testing.T) {
	q := NewDecisionQueue("p1")
	q.Push(marketFrame())
	before := q.Pending()

	_, err := q.Resolve(map[string]any{ArgResourceKind: "clay", "colour": "red"}, (&countingInvoker{}).invoke)
	var uae *UnknownArgumentError
	require.True(t, errors.As(err, &uae))
	assert.Equal(t, "colour", uae.Name)
	assert.Equal(t, []string{ArgResourceKind, ArgAmount}, uae.Expected)
	assert.Equal(t, before, q.Pending())
}

func TestResolve_InvalidArgument(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
	}{
		{"amount above max", map[string]any{ArgAmount: 4}},
		{"amount below min", map[string]any{ArgAmount: 0}},
		{"fractional amount", map[string]any{ArgAmount: 1.5}},
		{"good not offered", map[string]any{ArgResourceKind: "stone"}},
		{"unknown good", map[string]any{ArgResourceKind: "gold"}},
		{"wrong type", map[string]any{ArgResourceKind: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewDecisionQueue("p1")
			q.Push(marketFrame())
			before := q.Pending()

			_, err := q.Resolve(tt.args, (&countingInvoker{}).invoke)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Equal(t, CodeInvalidArgument, CodeOf(err))
			assert.Equal(t, before, q.Pending())
		})
	}
}

func TestResolve_FailingInvokeLeavesQueue(t *testing.T) {
	q := NewDecisionQueue("p1")
	q.Push(marketFrame())
	_, err := q.Resolve(map[string]any{ArgResourceKind: "clay"}, nil)
	require.NoError(t, err)
	before := q.Pending()

	inv := &countingInvoker{err: &InsufficientResourcesError{Player: "p1", Missing: goods.Goods{goods.Wood: 1}}}
	_, err = q.Resolve(map[string]any{ArgAmount: 2}, inv.invoke)
	assert.ErrorIs(t, err, ErrInsufficientResources)
	assert.Equal(t, 1, inv.calls)
	assert.Equal(t, before, q.Pending(), "the failed binding must not stick")

	// A later retry still works
	inv.err = nil
	res, err := q.Resolve(map[string]any{ArgAmount: 1}, inv.invoke)
	require.NoError(t, err)
	assert.True(t, res.Complete)
}

func TestResolve_FollowUpsGoFirst(t *testing.T) {
	q := NewDecisionQueue("p1")
	q.Push(plowFrame("p1", "plowField"))
	q.Push(marketFrame())

	next := sowFrame("p1", "plowField")
	inv := &countingInvoker{followUps: []DecisionFrame{next}}
	res, err := q.Resolve(map[string]any{ArgSpace: []any{float64(0), float64(1)}}, inv.invoke)
	require.NoError(t, err)
	require.Len(t, res.FollowUps, 1)
	assert.Equal(t, At(0, 1), inv.seen[0].Bound[ArgSpace])

	pending := q.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, next.ID, pending[0].ID)
	assert.Equal(t, EffectChooseResource, pending[1].Effect)
}

func TestClear_ByExpiry(t *testing.T) {
	q := NewDecisionQueue("p1")
	turn := marketFrame()
	round := marketFrame()
	round.Expiry = ExpireRound
	q.Push(turn)
	q.Push(round)
	assert.True(t, q.blocking())

	dropped := q.Clear(ExpireTurn)
	require.Len(t, dropped, 1)
	assert.Equal(t, turn.ID, dropped[0].ID)
	assert.False(t, q.blocking())
	assert.Equal(t, 1, q.Len())

	q.Clear(ExpireRound)
	assert.Equal(t, 0, q.Len())
}

func TestHead_ReturnsCopy(t *testing.T) {
	q := NewDecisionQueue("p1")
	q.Push(marketFrame())
	head, ok := q.Head()
	require.True(t, ok)
	head.Bound[ArgAmount] = 3

	head2, _ := q.Head()
	assert.Empty(t, head2.Bound)
}

func TestCoerceCoordinates(t *testing.T) {
	spec := ArgSpec{Name: ArgSpaces, Type: ArgCoordinates}

	var raw any
	require.NoError(t, json.Unmarshal([]byte(`[[0,1],{"row":0,"col":2}]`), &raw))
	v, err := spec.coerce(raw)
	require.NoError(t, err)
	assert.Equal(t, []Coordinate{At(0, 1), At(0, 2)}, v)

	_, err = spec.coerce([]any{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = spec.coerce("0,1")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
