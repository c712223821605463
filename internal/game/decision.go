package game

import (
	"slices"
	"sort"

	"homestead/internal/goods"
)

// Expiry says when an unresolved frame is forfeited.
type Expiry int

const (
	ExpireTurn Expiry = iota
	ExpireRound
)

func (e Expiry) String() string {
	if e == ExpireRound {
		return "round"
	}
	return "turn"
}

// MarshalText encodes the expiry by name.
func (e Expiry) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText decodes an expiry name.
func (e *Expiry) UnmarshalText(b []byte) error {
	switch string(b) {
	case "turn":
		*e = ExpireTurn
	case "round":
		*e = ExpireRound
	default:
		return &InvalidArgumentError{Name: "expiry", Reason: "unknown expiry " + string(b)}
	}
	return nil
}

// DecisionFrame is a suspended effect waiting for player input. Arguments
// are bound by name until every required one is present, then the effect runs.
type DecisionFrame struct {
	ID       string
	Player   string
	Effect   EffectKind
	Source   string
	Args     []ArgSpec
	Bound    map[string]any
	Payment  goods.Goods
	Moves    []MoveKind
	CardKind CardKind
	Optional bool
	Expiry   Expiry
}

// Required returns the argument names in declaration order.
func (f DecisionFrame) Required() []string {
	names := make([]string, len(f.Args))
	for i, a := range f.Args {
		names[i] = a.Name
	}
	return names
}

// Missing returns the required names not bound yet.
func (f DecisionFrame) Missing() []string {
	var out []string
	for _, a := range f.Args {
		if _, ok := f.Bound[a.Name]; !ok {
			out = append(out, a.Name)
		}
	}
	return out
}

// Complete reports whether every required argument is bound.
func (f DecisionFrame) Complete() bool {
	return len(f.Missing()) == 0
}

// Authorizes reports whether the frame can be resolved by a move of kind m.
func (f DecisionFrame) Authorizes(m MoveKind) bool {
	return slices.Contains(f.Moves, m)
}

func (f DecisionFrame) spec(name string) (ArgSpec, bool) {
	for _, a := range f.Args {
		if a.Name == name {
			return a, true
		}
	}
	return ArgSpec{}, false
}

func (f DecisionFrame) clone() DecisionFrame {
	out := f
	out.Args = slices.Clone(f.Args)
	out.Bound = make(map[string]any, len(f.Bound))
	for k, v := range f.Bound {
		if list, ok := v.([]Coordinate); ok {
			v = slices.Clone(list)
		}
		out.Bound[k] = v
	}
	out.Payment = f.Payment.Clone()
	out.Moves = slices.Clone(f.Moves)
	return out
}

// FrameView is the read-only form of a frame handed to callers.
type FrameView struct {
	ID       string         `json:"id"`
	Player   string         `json:"player"`
	Effect   EffectKind     `json:"effect"`
	Source   string         `json:"source"`
	Required []string       `json:"required"`
	Args     []ArgSpec      `json:"args"`
	Bound    map[string]any `json:"bound,omitempty"`
	Missing  []string       `json:"missing,omitempty"`
	Payment  goods.Goods    `json:"payment,omitempty"`
	Moves    []MoveKind     `json:"moves,omitempty"`
	Optional bool           `json:"optional"`
	Expiry   Expiry         `json:"expiry"`
}

// View copies the frame for callers.
func (f DecisionFrame) View() FrameView {
	c := f.clone()
	return FrameView{
		ID:       c.ID,
		Player:   c.Player,
		Effect:   c.Effect,
		Source:   c.Source,
		Required: c.Required(),
		Args:     c.Args,
		Bound:    c.Bound,
		Missing:  c.Missing(),
		Payment:  c.Payment,
		Moves:    c.Moves,
		Optional: c.Optional,
		Expiry:   c.Expiry,
	}
}

// Invoker runs a complete frame and returns any follow-up frames.
type Invoker func(frame DecisionFrame) ([]DecisionFrame, error)

// Resolution reports what a Resolve call did.
type Resolution struct {
	Frame     FrameView   `json:"frame"`
	Complete  bool        `json:"complete"`
	FollowUps []FrameView `json:"followUps,omitempty"`
}

// DecisionQueue is one player's ordered list of pending frames. The head frame
// is the one arguments are bound to.
type DecisionQueue struct {
	player string
	frames []DecisionFrame
}

// NewDecisionQueue creates an empty queue for a player.
func NewDecisionQueue(player string) *DecisionQueue {
	return &DecisionQueue{player: player}
}

// Len returns the number of pending frames.
func (q *DecisionQueue) Len() int { return len(q.frames) }

// blocking reports whether a frame that must be settled this turn is pending.
func (q *DecisionQueue) blocking() bool {
	for _, f := range q.frames {
		if f.Expiry == ExpireTurn {
			return true
		}
	}
	return false
}

// Push appends a frame behind the pending ones.
func (q *DecisionQueue) Push(f DecisionFrame) {
	if f.Bound == nil {
		f.Bound = make(map[string]any)
	}
	q.frames = append(q.frames, f.clone())
}

// pushFront inserts frames ahead of the pending ones, keeping their order.
func (q *DecisionQueue) pushFront(frames []DecisionFrame) {
	head := make([]DecisionFrame, 0, len(frames)+len(q.frames))
	for _, f := range frames {
		if f.Bound == nil {
			f.Bound = make(map[string]any)
		}
		head = append(head, f.clone())
	}
	q.frames = append(head, q.frames...)
}

// Head returns the frame arguments are bound to.
func (q *DecisionQueue) Head() (DecisionFrame, bool) {
	if len(q.frames) == 0 {
		return DecisionFrame{}, false
	}
	return q.frames[0].clone(), true
}

// Pending returns copies of every frame in order.
func (q *DecisionQueue) Pending() []FrameView {
	out := make([]FrameView, len(q.frames))
	for i, f := range q.frames {
		out[i] = f.View()
	}
	return out
}

// Resolve binds args to the head frame. When the frame becomes complete it is
// invoked exactly once: on success it is removed and its follow-ups are put at
// the front; on failure the queue is left exactly as it was.
func (q *DecisionQueue) Resolve(args map[string]any, invoke Invoker) (Resolution, error) {
	if len(q.frames) == 0 {
		return Resolution{}, &NoPendingDecisionError{Player: q.player}
	}

	frame := q.frames[0].clone()

	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		spec, ok := frame.spec(name)
		if !ok {
			return Resolution{}, &UnknownArgumentError{Name: name, Expected: frame.Required()}
		}
		v, err := spec.coerce(args[name])
		if err != nil {
			return Resolution{}, err
		}
		frame.Bound[name] = v
	}

	if !frame.Complete() {
		q.frames[0] = frame
		return Resolution{Frame: frame.View()}, nil
	}

	followUps, err := invoke(frame.clone())
	if err != nil {
		return Resolution{}, err
	}

	q.frames = q.frames[1:]
	q.pushFront(followUps)

	res := Resolution{Frame: frame.View(), Complete: true}
	for _, f := range followUps {
		res.FollowUps = append(res.FollowUps, f.View())
	}
	return res, nil
}

// Clear forfeits every frame with the given expiry or a shorter one and
// returns what was dropped.
func (q *DecisionQueue) Clear(expiry Expiry) []DecisionFrame {
	var kept, dropped []DecisionFrame
	for _, f := range q.frames {
		if f.Expiry <= expiry {
			dropped = append(dropped, f)
		} else {
			kept = append(kept, f)
		}
	}
	q.frames = kept
	return dropped
}
