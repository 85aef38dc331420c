package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/hearthwave/hearthwave-core/internal/bridges/zwave"
	"github.com/hearthwave/hearthwave-core/internal/infrastructure/logging"
	"github.com/hearthwave/hearthwave-core/internal/infrastructure/mqtt"
)

// zwaveAnnouncement is the driver daemon's description of one reported
// value and the node it belongs to. Published retained on
// hearthwave/driver/zwave/announce/{value_id}.
type zwaveAnnouncement struct {
	Value struct {
		ID           string `json:"id"`
		Index        int    `json:"index"`
		CommandClass uint8  `json:"command_class"`
		Type         string `json:"type"`
		Label        string `json:"label"`
		Units        string `json:"units"`
	} `json:"value"`
	Node struct {
		ID               int            `json:"id"`
		ManufacturerID   string         `json:"manufacturer_id"`
		ProductID        string         `json:"product_id"`
		ManufacturerName string         `json:"manufacturer_name"`
		ProductName      string         `json:"product_name"`
		Name             string         `json:"name"`
		Location         string         `json:"location"`
		BatteryLevel     *int           `json:"battery_level,omitempty"`
		Config           map[string]int `json:"config,omitempty"`
	} `json:"node"`
}

// zwaveDriverEvent is a value-change notification from the driver daemon,
// published on hearthwave/driver/zwave/event.
type zwaveDriverEvent struct {
	ValueID string `json:"value_id"`
	NodeID  int    `json:"node_id"`
	Data    any    `json:"data"`
}

// zwaveFeed adapts the driver daemon's MQTT topics to the bridge's
// NotificationSource interface. Announcements register values with the
// bridge; events flow to the handler installed by the bridge's
// subscription registry.
type zwaveFeed struct {
	mqtt *mqtt.Client
	log  *logging.Logger

	mu      sync.Mutex
	handler func(zwave.Notification)
	seen    map[string]struct{} // value IDs already announced
	bridge  *zwave.Bridge
}

func newZWaveFeed(client *mqtt.Client, log *logging.Logger) *zwaveFeed {
	return &zwaveFeed{
		mqtt: client,
		log:  log,
		seen: make(map[string]struct{}),
	}
}

// SetOnValueChanged implements zwave.NotificationSource.
func (f *zwaveFeed) SetOnValueChanged(handler func(zwave.Notification)) {
	f.mu.Lock()
	f.handler = handler
	f.mu.Unlock()
}

// Start subscribes to the driver daemon's topics. The bridge must already
// be started so that announcements land in a live subscription registry.
func (f *zwaveFeed) Start(ctx context.Context, bridge *zwave.Bridge) error {
	f.mu.Lock()
	f.bridge = bridge
	f.mu.Unlock()

	topics := mqtt.Topics{}
	if err := f.mqtt.Subscribe(topics.AllDriverAnnouncements("zwave"), 1, func(topic string, payload []byte) error {
		return f.handleAnnouncement(ctx, payload)
	}); err != nil {
		return fmt.Errorf("subscribing to announcements: %w", err)
	}

	if err := f.mqtt.Subscribe(topics.DriverEvent("zwave"), 1, func(topic string, payload []byte) error {
		return f.handleEvent(payload)
	}); err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}

	return nil
}

// handleAnnouncement registers a newly announced value with the bridge.
// Retained re-deliveries and daemon restarts repeat announcements, so
// already-seen value IDs are skipped.
func (f *zwaveFeed) handleAnnouncement(ctx context.Context, payload []byte) error {
	var ann zwaveAnnouncement
	if err := json.Unmarshal(payload, &ann); err != nil {
		return fmt.Errorf("parsing announcement: %w", err)
	}
	if ann.Value.ID == "" {
		return fmt.Errorf("announcement missing value id")
	}

	f.mu.Lock()
	if _, dup := f.seen[ann.Value.ID]; dup {
		f.mu.Unlock()
		return nil
	}
	f.seen[ann.Value.ID] = struct{}{}
	bridge := f.bridge
	f.mu.Unlock()

	value := zwave.Value{
		ID:           ann.Value.ID,
		Index:        ann.Value.Index,
		CommandClass: zwave.CommandClass(ann.Value.CommandClass),
		Type:         zwave.ValueType(ann.Value.Type),
		Label:        ann.Value.Label,
		Units:        ann.Value.Units,
	}
	node := zwave.Node{
		ID:               ann.Node.ID,
		ManufacturerID:   ann.Node.ManufacturerID,
		ProductID:        ann.Node.ProductID,
		ManufacturerName: ann.Node.ManufacturerName,
		ProductName:      ann.Node.ProductName,
		Name:             ann.Node.Name,
		Location:         ann.Node.Location,
		BatteryLevel:     ann.Node.BatteryLevel,
		Config:           toNodeConfig(ann.Node.Config),
	}

	if _, ok := bridge.AddValue(ctx, value, node); !ok {
		f.log.Debug("driver value not bridged", "value_id", value.ID)
	}
	return nil
}

// handleEvent forwards a value-change notification to the bridge.
func (f *zwaveFeed) handleEvent(payload []byte) error {
	var ev zwaveDriverEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("parsing event: %w", err)
	}

	f.mu.Lock()
	handler := f.handler
	f.mu.Unlock()
	if handler == nil {
		return nil
	}

	handler(zwave.Notification{
		ValueID: ev.ValueID,
		NodeID:  ev.NodeID,
		Data:    ev.Data,
	})
	return nil
}

// toNodeConfig narrows JSON string keys back to parameter indices.
// Unparseable keys are dropped.
func toNodeConfig(in map[string]int) map[int]int {
	if len(in) == 0 {
		return nil
	}
	out := make(map[int]int, len(in))
	for k, v := range in {
		idx, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		out[idx] = v
	}
	return out
}
