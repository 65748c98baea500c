package connection

import (
	"strings"
	"time"
)

type Status string

const (
	StatusInactive     Status = "INACTIVE"
	StatusInitializing Status = "INITIALIZING"
	StatusConnecting   Status = "CONNECTING"
	StatusActive       Status = "ACTIVE"
	StatusReady        Status = "READY"
	StatusAuthFailure  Status = "AUTH_FAILURE"
	StatusError        Status = "ERROR"
	StatusDisconnected Status = "DISCONNECTED"
)

// NormalizeStatus maps a server status string onto a Status. Unknown values
// are kept verbatim and treated as non-terminal.
func NormalizeStatus(raw string) Status {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return StatusInactive
	}
	return Status(s)
}

// Connected reports a terminal-success status.
func (s Status) Connected() bool {
	return s == StatusActive || s == StatusReady
}

// Failed reports a terminal-failure status.
func (s Status) Failed() bool {
	return s == StatusAuthFailure || s == StatusError
}

func (s Status) Terminal() bool {
	return s.Connected() || s.Failed()
}

type Mode string

const (
	ModeConnect Mode = "connect"
	ModeRestart Mode = "restart"
)

// Session is the observable state of one pairing attempt.
type Session struct {
	SettingID string    `json:"settingId"`
	Status    Status    `json:"status"`
	QRCode    string    `json:"qrCode,omitempty"`
	Message   string    `json:"message,omitempty"`
	IsPolling bool      `json:"isPolling"`
	Connected bool      `json:"connected"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var defaultMessages = map[Status]string{
	StatusInactive:     "Not connected",
	StatusInitializing: "Initializing connection...",
	StatusConnecting:   "Scan the QR code with WhatsApp to connect",
	StatusActive:       "Connected",
	StatusReady:        "Connected",
	StatusAuthFailure:  "Authentication failed",
	StatusError:        "Connection error",
	StatusDisconnected: "Disconnected, waiting to reconnect",
}

func statusMessage(status Status, message string) string {
	if message != "" {
		return message
	}
	return defaultMessages[status]
}
