package websocket

import (
	"time"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/internal/reader"
)

type MessageType string

const (
	// client -> server
	MessageTypeAdvance      MessageType = "advance"
	MessageTypeRetreat      MessageType = "retreat"
	MessageTypeKey          MessageType = "key"
	MessageTypeTap          MessageType = "tap"
	MessageTypeJump         MessageType = "jump"
	MessageTypeDismissGuide MessageType = "dismiss_guide"
	MessageTypeLibrary      MessageType = "library"

	// server -> client
	MessageTypeView    MessageType = "view"
	MessageTypeRefresh MessageType = "refresh"
	MessageTypeError   MessageType = "error"
)

type ClientMessage struct {
	Type      MessageType `json:"type"`
	Key       string      `json:"key,omitempty"`
	X         float64     `json:"x,omitempty"`
	ChapterID string      `json:"chapter_id,omitempty"`
}

type ServerMessage struct {
	ID        string       `json:"id"`
	Type      MessageType  `json:"type"`
	View      *reader.View `json:"view,omitempty"`
	Error     string       `json:"error,omitempty"`
	Code      apperr.Code  `json:"code,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}
