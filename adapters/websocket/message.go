package websocket

import (
	"time"

	"github.com/satriahrh/confidant/domain"
)

// Actions a chat client may send.
const (
	ActionSubmit = "submit"
	ActionUndo   = "undo"
	ActionRetry  = "retry"
)

// Frame types sent by the server.
const (
	TypeSession     = "session"
	TypeTranscript  = "transcript"
	TypeSafetyAlert = "safety_alert"
	TypeError       = "error"
)

// Action is a frame from a chat client. Image is base64 in JSON.
type Action struct {
	Action string `json:"action"`
	Text   string `json:"text,omitempty"`
	Image  []byte `json:"image,omitempty"`
}

// Message is a frame sent to a client.
type Message struct {
	Type      string              `json:"type"`
	SessionID string              `json:"session_id,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
	History   []domain.Turn       `json:"history,omitempty"`
	Streaming bool                `json:"streaming,omitempty"`
	Alert     *domain.SafetyAlert `json:"alert,omitempty"`
	Error     *ErrorResponse      `json:"error,omitempty"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
