package game

import (
	"errors"
	"fmt"
	"strings"

	"homestead/internal/goods"
)

// Code is a machine-readable error category returned to drivers.
type Code string

const (
	CodeIllegalState      Code = "ILLEGAL_STATE"
	CodeOutOfBounds       Code = "OUT_OF_BOUNDS"
	CodeAlreadyOccupied   Code = "ALREADY_OCCUPIED"
	CodeStructural        Code = "STRUCTURAL_INELIGIBILITY"
	CodeInsufficient      Code = "INSUFFICIENT_RESOURCES"
	CodeUnknownArgument   Code = "UNKNOWN_ARGUMENT"
	CodeInvalidArgument   Code = "INVALID_ARGUMENT"
	CodeNoPendingDecision Code = "NO_PENDING_DECISION"
	CodeUnknownAction     Code = "UNKNOWN_ACTION"
	CodeUnknownPlayer     Code = "UNKNOWN_PLAYER"
	CodeUnknownGame       Code = "UNKNOWN_GAME"
	CodeCorruptState      Code = "CORRUPT_STATE"
	CodeInvalidConfig     Code = "INVALID_CONFIG"
	CodeInternal          Code = "INTERNAL"
)

// Game errors
var (
	ErrIllegalState            = errors.New("operation not allowed in current phase")
	ErrOutOfBounds             = errors.New("coordinate outside board")
	ErrAlreadyOccupied         = errors.New("space already occupied")
	ErrStructuralIneligibility = errors.New("move not allowed by board structure")
	ErrInsufficientResources   = errors.New("insufficient resources")
	ErrUnknownArgument         = errors.New("unknown decision argument")
	ErrInvalidArgument         = errors.New("invalid decision argument")
	ErrNoPendingDecision       = errors.New("no pending decision")
	ErrUnknownAction           = errors.New("unknown action")
	ErrUnknownPlayer           = errors.New("unknown player")
	ErrUnknownGame             = errors.New("unknown game")
	ErrCorruptState            = errors.New("cached game state does not match request")
	ErrInvalidConfig           = errors.New("invalid game configuration")
)

var sentinelCodes = map[error]Code{
	ErrIllegalState:            CodeIllegalState,
	ErrOutOfBounds:             CodeOutOfBounds,
	ErrAlreadyOccupied:         CodeAlreadyOccupied,
	ErrStructuralIneligibility: CodeStructural,
	ErrInsufficientResources:   CodeInsufficient,
	ErrUnknownArgument:         CodeUnknownArgument,
	ErrInvalidArgument:         CodeInvalidArgument,
	ErrNoPendingDecision:       CodeNoPendingDecision,
	ErrUnknownAction:           CodeUnknownAction,
	ErrUnknownPlayer:           CodeUnknownPlayer,
	ErrUnknownGame:             CodeUnknownGame,
	ErrCorruptState:            CodeCorruptState,
	ErrInvalidConfig:           CodeInvalidConfig,
}

// CodeOf returns the code for any error produced by this package.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var coded interface{ Code() Code }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	for sentinel, code := range sentinelCodes {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return CodeInternal
}

// IllegalStateError reports an operation called in the wrong phase or by the wrong player.
type IllegalStateError struct {
	Op             string
	Expected       []Phase
	Actual         Phase
	ExpectedPlayer string
	ActualPlayer   string
	Reason         string
}

func (e *IllegalStateError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: ", e.Op)
	if len(e.Expected) > 0 {
		names := make([]string, len(e.Expected))
		for i, p := range e.Expected {
			names[i] = p.String()
		}
		fmt.Fprintf(&b, "expected phase %s, actual %s", strings.Join(names, "|"), e.Actual)
	} else {
		fmt.Fprintf(&b, "phase %s", e.Actual)
	}
	if e.ExpectedPlayer != "" || e.ActualPlayer != "" {
		fmt.Fprintf(&b, ", expected player %q, actual %q", e.ExpectedPlayer, e.ActualPlayer)
	}
	if e.Reason != "" {
		b.WriteString(": " + e.Reason)
	}
	return b.String()
}

func (e *IllegalStateError) Is(target error) bool { return target == ErrIllegalState }
func (e *IllegalStateError) Code() Code            { return CodeIllegalState }

// OutOfBoundsError reports a coordinate outside the board grid.
type OutOfBoundsError struct {
	Board      string
	At         Coordinate
	Rows, Cols int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("%s %s outside %dx%d grid", e.Board, e.At, e.Rows, e.Cols)
}

func (e *OutOfBoundsError) Is(target error) bool { return target == ErrOutOfBounds }
func (e *OutOfBoundsError) Code() Code            { return CodeOutOfBounds }

// AlreadyOccupiedError reports a space at capacity.
type AlreadyOccupiedError struct {
	Space     string
	At        Coordinate
	Occupants []string
}

func (e *AlreadyOccupiedError) Error() string {
	name := e.Space
	if name == "" {
		name = e.At.String()
	}
	if len(e.Occupants) == 0 {
		return fmt.Sprintf("space %s already occupied", name)
	}
	return fmt.Sprintf("space %s already occupied by %s", name, strings.Join(e.Occupants, ", "))
}

func (e *AlreadyOccupiedError) Is(target error) bool { return target == ErrAlreadyOccupied }
func (e *AlreadyOccupiedError) Code() Code            { return CodeAlreadyOccupied }

// StructuralIneligibilityError reports a move the board topology does not allow.
type StructuralIneligibilityError struct {
	Move   MoveKind
	At     Coordinate
	Reason string
}

func (e *StructuralIneligibilityError) Error() string {
	return fmt.Sprintf("%s at %s not allowed: %s", e.Move, e.At, e.Reason)
}

func (e *StructuralIneligibilityError) Is(target error) bool {
	return target == ErrStructuralIneligibility
}
func (e *StructuralIneligibilityError) Code() Code { return CodeStructural }

// InsufficientResourcesError reports a cost the player cannot pay.
type InsufficientResourcesError struct {
	Player  string
	Missing goods.Goods
	Piece   goods.Piece
}

func (e *InsufficientResourcesError) Error() string {
	if e.Piece != goods.PieceNone {
		return fmt.Sprintf("player %s has no %s left in supply", e.Player, e.Piece)
	}
	return fmt.Sprintf("player %s is missing %s", e.Player, e.Missing)
}

func (e *InsufficientResourcesError) Is(target error) bool {
	return target == ErrInsufficientResources
}
func (e *InsufficientResourcesError) Code() Code { return CodeInsufficient }

// UnknownArgumentError reports an argument name the pending frame does not require.
type UnknownArgumentError struct {
	Name     string
	Expected []string
}

func (e *UnknownArgumentError) Error() string {
	return fmt.Sprintf("unknown argument %q (expected one of %s)", e.Name, strings.Join(e.Expected, ", "))
}

func (e *UnknownArgumentError) Is(target error) bool { return target == ErrUnknownArgument }
func (e *UnknownArgumentError) Code() Code            { return CodeUnknownArgument }

// InvalidArgumentError reports an argument value of the wrong type or out of range.
type InvalidArgumentError struct {
	Name   string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("argument %q: %s", e.Name, e.Reason)
}

func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }
func (e *InvalidArgumentError) Code() Code            { return CodeInvalidArgument }

// NoPendingDecisionError reports a resolve call with an empty queue.
type NoPendingDecisionError struct {
	Player string
}

func (e *NoPendingDecisionError) Error() string {
	return fmt.Sprintf("player %s has no pending decision", e.Player)
}

func (e *NoPendingDecisionError) Is(target error) bool { return target == ErrNoPendingDecision }
func (e *NoPendingDecisionError) Code() Code            { return CodeNoPendingDecision }
