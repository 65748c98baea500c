package server

import (
	"github.com/NextMind-AI/dashsync/chat"
	"github.com/NextMind-AI/dashsync/connection"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ConnectionResponse is a connection session plus the published QR link.
type ConnectionResponse struct {
	connection.Session
	QRCodeURL string `json:"qrCodeUrl,omitempty"`
}

type CreatePlaygroundRequest struct {
	Channel        string `json:"channel"`
	AssistantID    string `json:"assistantId"`
	ConversationID string `json:"conversationId"`
}

type SelectConversationRequest struct {
	ConversationID string `json:"conversationId"`
}

type SendMessageRequest struct {
	Text string        `json:"text"`
	Mode chat.SendMode `json:"mode"`
}

type AutoReplyRequest struct {
	Enabled bool `json:"enabled"`
}

// RefreshRequest turns a playground's background refresh on or off.
type RefreshRequest struct {
	Enabled bool `json:"enabled"`
}

type DraftRequest struct {
	Text string `json:"text"`
}

type PlaygroundResponse struct {
	ID      string `json:"id"`
	Channel string `json:"channel"`
	chat.Snapshot
}
