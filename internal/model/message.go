package model

import "time"

// WebSocket message types.
const (
	WSMessageTypeSnapshot = "ledger_snapshot"
	WSMessageTypeChanged  = "ledger_changed"
	WSMessageTypeError    = "error"
)

// LedgerState is the payload pushed to WebSocket clients.
type LedgerState struct {
	Materials []Material `json:"materials"`
	LastID    int        `json:"lastId"`
	Summary   Summary    `json:"summary"`
}

// WebSocketMessage represents a message sent over WebSocket connection.
type WebSocketMessage struct {
	Type      string       `json:"type"`
	State     *LedgerState `json:"state,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewLedgerMessage creates a message carrying the given ledger state.
func NewLedgerMessage(msgType string, snap Snapshot, summary Summary) WebSocketMessage {
	return WebSocketMessage{
		Type: msgType,
		State: &LedgerState{
			Materials: snap.Materials,
			LastID:    snap.LastID,
			Summary:   summary,
		},
		Timestamp: time.Now().UTC(),
	}
}
