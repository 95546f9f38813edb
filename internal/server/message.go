package server

import (
	"encoding/json"
	"time"

	"github.com/lox/klondike/internal/game"
)

// MessageType names a WebSocket message
type MessageType string

func (t MessageType) String() string { return string(t) }

// Client → Server
const (
	MessageTypeNewGame        MessageType = "new_game"
	MessageTypeDraw           MessageType = "draw"
	MessageTypeRedeal         MessageType = "redeal"
	MessageTypeUndo           MessageType = "undo"
	MessageTypeSelect         MessageType = "select"
	MessageTypeClearSelection MessageType = "clear_selection"
	MessageTypeMove           MessageType = "move"
	MessageTypeClick          MessageType = "click"
	MessageTypeHints          MessageType = "hints"
)

// Server → Client
const (
	MessageTypeState MessageType = "state"
	MessageTypeMoved MessageType = "moved"
	MessageTypeWon   MessageType = "won"
	MessageTypeError MessageType = "error"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server payloads

type NewGameData struct {
	Seed *int64 `json:"seed,omitempty"`
}

// CardRefData names a card: a pile and, for tableau columns, an index.
// A missing index means the top card. Source is required.
type CardRefData struct {
	Source    *game.PileRef `json:"source"`
	CardIndex *int          `json:"cardIndex,omitempty"`
}

// MoveData moves a run onto Dest. Without a Source the pending selection
// moves. Dest is required.
type MoveData struct {
	Source    *game.PileRef `json:"source,omitempty"`
	CardIndex *int          `json:"cardIndex,omitempty"`
	Dest      *game.PileRef `json:"dest"`
}

type HintsData struct {
	Show bool `json:"show"`
}

// Server → Client payloads

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes shared by the REST and WebSocket surfaces
const (
	CodeIllegalMove    = "illegal_move"
	CodeNothingToDraw  = "nothing_to_draw"
	CodeRedealRefused  = "redeal_refused"
	CodeNothingToUndo  = "nothing_to_undo"
	CodeNotFound       = "not_found"
	CodeInvalidMessage = "invalid_message"
	CodeInvalidRequest = "invalid_request"
	CodeUnknownType    = "unknown_message_type"
)

var (
	errNothingToDraw = &ErrorData{Code: CodeNothingToDraw, Message: "Stock and waste are both empty"}
	errRedealRefused = &ErrorData{Code: CodeRedealRefused, Message: "Redeal needs an empty stock and cards in the waste"}
	errNothingToUndo = &ErrorData{Code: CodeNothingToUndo, Message: "Nothing to undo"}
	errIllegalMove   = &ErrorData{Code: CodeIllegalMove, Message: "That move is not allowed"}
	errNothingThere  = &ErrorData{Code: CodeIllegalMove, Message: "Nothing to select there"}
)

func invalid(what string) *ErrorData {
	return &ErrorData{Code: CodeInvalidMessage, Message: "Failed to parse " + what + " data"}
}

func missing(field string) *ErrorData {
	return &ErrorData{Code: CodeInvalidMessage, Message: "Missing " + field}
}

// selection turns a card reference into a concrete selection, resolving a
// missing tableau index to the top card.
func selection(s game.State, source game.PileRef, idx *int) game.Selection {
	sel := game.Selection{Source: source}
	switch {
	case idx != nil:
		sel.CardIndex = *idx
	case source.Kind == game.Tableau:
		sel.CardIndex = len(s.Tableau[source.Index]) - 1
	}
	return sel
}
