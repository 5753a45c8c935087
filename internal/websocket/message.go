package websocket

import (
	"encoding/json"
	"time"
)

// Notification types pushed to UI and observability collaborators.
const (
	TypeSensorAlert         = "sensor_alert"
	TypeRuleTriggered       = "rule_triggered"
	TypeDeviceStatusChanged = "device_status_changed"
	TypePredictionGenerated = "prediction_generated"
)

// Message is one hub broadcast.
type Message struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// ToJSON serializes the message for the wire. Serialization of our own
// payloads does not fail; a zero-length result signals a programming error
// upstream.
func (m Message) ToJSON() []byte {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return data
}
