package models

import "time"

// DeviceEvent is a single scale lifecycle log entry.
type DeviceEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // CONNECT | MOCK_FALLBACK | RECONNECT | DISCONNECT
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
