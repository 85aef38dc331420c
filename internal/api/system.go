package api

import (
	"net/http"
	"time"
)

// SystemStatus reports the runtime state of the core and its connections.
type SystemStatus struct {
	Status           string    `json:"status"`
	Version          string    `json:"version"`
	Time             time.Time `json:"time"`
	Devices          int       `json:"devices"`
	WebSocketClients int       `json:"websocket_clients"`
	MQTTConnected    bool      `json:"mqtt_connected"`
}

// handleSystemStatus returns a snapshot of the running system: device count,
// connected WebSocket clients, and MQTT broker connectivity.
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	status := SystemStatus{
		Status:  "ok",
		Version: s.version,
		Time:    time.Now().UTC(),
		Devices: s.registry.GetDeviceCount(),
	}

	if s.hub != nil {
		status.WebSocketClients = s.hub.ClientCount()
	}

	if s.mqtt != nil {
		status.MQTTConnected = s.mqtt.HealthCheck(r.Context()) == nil
	}

	writeJSON(w, http.StatusOK, status)
}
