package server

import (
	"encoding/json"
)

type MessageType string

const (
	MessageTypeMove      MessageType = "move"
	MessageTypeResign    MessageType = "resign"
	MessageTypeGameState MessageType = "gameState"
	MessageTypeResult    MessageType = "moveResult"
	MessageTypeError     MessageType = "error"
)

// Message is the websocket envelope in both directions.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MoveRequest is the body of POST /api/game/:id/move and the payload of a
// "move" or "resign" message.
type MoveRequest struct {
	Player string `json:"player"`
	Move   string `json:"move"`
}

type CreateRequest struct {
	Black string `json:"black"`
	White string `json:"white"`
}

func newMessage(t MessageType, payload interface{}) Message {
	data, err := json.Marshal(payload)
	if err != nil {
		data, _ = json.Marshal(err.Error())
		t = MessageTypeError
	}
	return Message{Type: t, Payload: data}
}
