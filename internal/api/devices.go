package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hearthwave/hearthwave-core/internal/device"
	"github.com/hearthwave/hearthwave-core/internal/infrastructure/mqtt"
)

// handleListDevices returns all devices, with optional query filters.
//
// Query parameters:
//   - protocol: filter by protocol (zwave, wemo, mqtt)
//   - type: filter by device type (trigger_sensor, insight_switch, etc.)
//   - health: filter by health status (online, offline, degraded, unknown)
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if protocolStr := r.URL.Query().Get("protocol"); protocolStr != "" {
		devices, err := s.registry.GetDevicesByProtocol(ctx, device.Protocol(protocolStr))
		if err != nil {
			writeInternalError(w, "failed to list devices")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
		return
	}

	if typeStr := r.URL.Query().Get("type"); typeStr != "" {
		devices, err := s.registry.GetDevicesByType(ctx, device.DeviceType(typeStr))
		if err != nil {
			writeInternalError(w, "failed to list devices")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
		return
	}

	if healthStr := r.URL.Query().Get("health"); healthStr != "" {
		devices, err := s.registry.GetDevicesByHealthStatus(ctx, device.HealthStatus(healthStr))
		if err != nil {
			writeInternalError(w, "failed to list devices")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
		return
	}

	// No filter: return all devices
	devices, err := s.registry.ListDevices(ctx)
	if err != nil {
		writeInternalError(w, "failed to list devices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns a single device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dev, err := s.registry.GetDevice(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	writeJSON(w, http.StatusOK, dev)
}

// handleCreateDevice creates a new device.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var dev device.Device
	if err := json.NewDecoder(r.Body).Decode(&dev); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.registry.CreateDevice(r.Context(), &dev); err != nil {
		if isValidationError(err) {
			writeBadRequest(w, err.Error())
			return
		}
		if errors.Is(err, device.ErrDeviceExists) {
			writeError(w, http.StatusConflict, ErrCodeConflict, "device already exists")
			return
		}
		writeInternalError(w, "failed to create device")
		return
	}

	writeJSON(w, http.StatusCreated, dev)
}

// handleUpdateDevice partially updates a device.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Get existing device
	existing, err := s.registry.GetDevice(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	// Decode partial update onto existing device
	if err := json.NewDecoder(r.Body).Decode(existing); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	existing.ID = id // Ensure ID cannot be changed

	if err := s.registry.UpdateDevice(r.Context(), existing); err != nil {
		if isValidationError(err) {
			writeBadRequest(w, err.Error())
			return
		}
		writeInternalError(w, "failed to update device")
		return
	}

	writeJSON(w, http.StatusOK, existing)
}

// handleDeleteDevice removes a device by ID.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.registry.DeleteDevice(r.Context(), id); err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to delete device")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDeviceStats returns device registry statistics.
func (s *Server) handleDeviceStats(w http.ResponseWriter, _ *http.Request) {
	stats := s.registry.GetStats()
	writeJSON(w, http.StatusOK, stats)
}

// handleGetDeviceState returns the current state of a device.
func (s *Server) handleGetDeviceState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dev, err := s.registry.GetDevice(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id":        dev.ID,
		"state":            dev.State,
		"state_updated_at": dev.StateUpdatedAt,
		"health_status":    dev.HealthStatus,
	})
}

// DeviceCommand represents a command to send to a device via MQTT.
type DeviceCommand struct {
	Command    string         `json:"command"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// handleSetDeviceState sends a command to a device via MQTT.
// This is an asynchronous operation: the command is published to MQTT and the
// response is 202 Accepted. The actual state change arrives via WebSocket once
// the bridge confirms it.
func (s *Server) handleSetDeviceState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Verify device exists and get protocol info for routing
	dev, err := s.registry.GetDevice(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	// Decode command
	var cmd DeviceCommand
	if decodeErr := json.NewDecoder(r.Body).Decode(&cmd); decodeErr != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if cmd.Command == "" {
		writeBadRequest(w, "command field is required")
		return
	}

	if s.mqtt == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeInternal, "command transport unavailable")
		return
	}

	commandID := generateRequestID()
	mqttPayload := map[string]any{
		"id":         commandID,
		"device_id":  id,
		"command":    cmd.Command,
		"parameters": cmd.Parameters,
		"source":     "api",
	}

	payload, marshalErr := json.Marshal(mqttPayload)
	if marshalErr != nil {
		writeInternalError(w, "failed to encode command")
		return
	}

	// The protocol bridge subscribes to this topic and executes the command.
	topic := mqtt.Topics{}.BridgeCommand(string(dev.Protocol), commandAddress(dev))
	if pubErr := s.mqtt.Publish(topic, payload, 1, false); pubErr != nil {
		s.logger.Warn("command publish failed", "device_id", id, "error", pubErr)
		writeError(w, http.StatusServiceUnavailable, ErrCodeInternal, "failed to publish command")
		return
	}

	s.logger.Info("device command sent",
		"device_id", id,
		"command", cmd.Command,
		"parameters", cmd.Parameters,
		"command_id", commandID,
	)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"command_id": commandID,
		"status":     "accepted",
		"message":    "command published, state update will follow via WebSocket",
	})
}

// commandAddress returns the bridge-level address a command topic should
// target. Bridges address switches by their protocol serial, not the entity
// ID, so prefer the serial from the device's address document.
func commandAddress(dev *device.Device) string {
	if serial, ok := dev.Address["serial"].(string); ok && serial != "" {
		return serial
	}
	return dev.ID
}

// isValidationError checks whether an error is a device validation error.
// ValidateDevice wraps several sentinel errors so we check all of them rather
// than just ErrInvalidDevice.
func isValidationError(err error) bool {
	return errors.Is(err, device.ErrInvalidDevice) ||
		errors.Is(err, device.ErrInvalidName) ||
		errors.Is(err, device.ErrInvalidDeviceType) ||
		errors.Is(err, device.ErrInvalidProtocol)
}
