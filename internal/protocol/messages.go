// Package protocol defines the websocket message types spoken between the
// server and its clients.
package protocol

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"homestead/internal/game"
)

// MessageType identifies the type of message.
type MessageType string

// Session message types
const (
	TypeCreateGame  MessageType = "create_game"
	TypeGameCreated MessageType = "game_created"
	TypeJoinGame    MessageType = "join_game"
	TypeJoinedGame  MessageType = "joined_game"
	TypeStartGame   MessageType = "start_game"
	TypeGetState    MessageType = "get_state"
	TypeGameState   MessageType = "game_state"
	TypeGetHistory  MessageType = "get_history"
	TypeGameHistory MessageType = "game_history"
)

// Game flow message types
const (
	TypeRequestMove     MessageType = "request_move"
	TypeMoveResult      MessageType = "move_result"
	TypeResolveDecision MessageType = "resolve_decision"
	TypeDecisionResult  MessageType = "decision_result"
	TypeAdvancePhase    MessageType = "advance_phase"
	TypePhaseChanged    MessageType = "phase_changed"
	TypeEndTurn         MessageType = "end_turn"
	TypePass            MessageType = "pass"
	TypeTurnChanged     MessageType = "turn_changed"
)

// System message types
const (
	TypeWelcome MessageType = "welcome"
	TypeError   MessageType = "error"
	TypePing    MessageType = "ping"
	TypePong    MessageType = "pong"
)

// Message is the envelope for all messages.
type Message struct {
	Type      MessageType     `json:"type"`
	ID        string          `json:"id"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NewMessage creates a new message with the given type and payload.
func NewMessage(msgType MessageType, payload any) (*Message, error) {
	var data json.RawMessage
	if payload != nil {
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return nil, err
		}
	}
	return &Message{
		Type:      msgType,
		ID:        uuid.New().String(),
		Timestamp: time.Now().UnixMilli(),
		Payload:   data,
	}, nil
}

// ParsePayload unmarshals the payload into the given type. An empty payload
// leaves v untouched.
func (m *Message) ParsePayload(v any) error {
	if len(m.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}

// ErrorCode represents an error type. Engine failures carry the engine's own
// code; the rest are protocol level.
type ErrorCode string

const (
	ErrCodeBadRequest  ErrorCode = "BAD_REQUEST"
	ErrCodeUnknownType ErrorCode = "UNKNOWN_TYPE"
	ErrCodeNotJoined   ErrorCode = "NOT_JOINED"
	ErrCodeNotSeated   ErrorCode = "NOT_SEATED"
	ErrCodeInternal    ErrorCode = ErrorCode(game.CodeInternal)
)

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	RequestID string    `json:"requestId,omitempty"`
}

// RequestError is a protocol-level failure with its own code.
type RequestError struct {
	Code    ErrorCode
	Message string
}

func (e *RequestError) Error() string { return e.Message }

// Errorf builds a RequestError.
func Errorf(code ErrorCode, msg string) error {
	return &RequestError{Code: code, Message: msg}
}

// ErrorFrom converts any error into an error payload, keeping the engine
// code when there is one.
func ErrorFrom(err error) ErrorPayload {
	var re *RequestError
	if errors.As(err, &re) {
		return ErrorPayload{Code: re.Code, Message: re.Message}
	}
	return ErrorPayload{Code: ErrorCode(game.CodeOf(err)), Message: err.Error()}
}
