package entity

import "time"

// StateMessage is the wire format for canonical state updates pushed to
// MQTT and the WebSocket stream.
type StateMessage struct {
	EntityID   string         `json:"entity_id"`
	Name       string         `json:"name,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	State      State          `json:"state"`
	Unit       string         `json:"unit,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// NewStateMessage snapshots an entity into its wire representation.
func NewStateMessage(e Entity) StateMessage {
	return StateMessage{
		EntityID:   e.ID(),
		Name:       e.Name(),
		Timestamp:  time.Now().UTC(),
		State:      e.State(),
		Unit:       e.Unit(),
		Attributes: e.Attributes(),
	}
}
