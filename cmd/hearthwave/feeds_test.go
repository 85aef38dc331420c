package main

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/hearthwave/hearthwave-core/internal/bridges/wemo"
	"github.com/hearthwave/hearthwave-core/internal/device"
)

func TestToNodeConfig(t *testing.T) {
	got := toNodeConfig(map[string]int{"9": 2, "bogus": 7, "3": 1})
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (unparseable key dropped)", len(got))
	}
	if got[9] != 2 || got[3] != 1 {
		t.Errorf("config = %v", got)
	}
}

func TestToNodeConfig_Empty(t *testing.T) {
	if got := toNodeConfig(nil); got != nil {
		t.Errorf("toNodeConfig(nil) = %v, want nil", got)
	}
}

func TestToAddress(t *testing.T) {
	addr := toAddress(map[string]string{"serial": "221448K1100085"})
	if addr["serial"] != "221448K1100085" {
		t.Errorf("addr = %v", addr)
	}
	if toAddress(nil) != nil {
		t.Error("toAddress(nil) should be nil")
	}

	var _ device.Address = addr
}

func TestZWaveAnnouncementDecoding(t *testing.T) {
	payload := []byte(`{
		"value": {
			"id": "72057594093060096",
			"index": 0,
			"command_class": 48,
			"type": "bool",
			"label": "Motion"
		},
		"node": {
			"id": 12,
			"manufacturer_id": "013c",
			"product_id": "0002",
			"product_name": "PSM02",
			"name": "landing",
			"config": {"9": 2}
		}
	}`)

	var ann zwaveAnnouncement
	if err := json.Unmarshal(payload, &ann); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ann.Value.CommandClass != 0x30 {
		t.Errorf("command class = 0x%02X, want 0x30", ann.Value.CommandClass)
	}
	if got := toNodeConfig(ann.Node.Config); got[9] != 2 {
		t.Errorf("config[9] = %d, want 2", got[9])
	}
}

func TestWemoDriverDevice_StateLifecycle(t *testing.T) {
	dev := &wemoDriverDevice{serial: "221448K1100085", name: "heater", model: wemo.ModelInsight}

	if _, err := dev.GetState(false); err == nil {
		t.Error("GetState before first snapshot should fail")
	}
	if _, err := dev.InsightParams(); !errors.Is(err, wemo.ErrParamsUnavailable) {
		t.Errorf("InsightParams error = %v, want ErrParamsUnavailable", err)
	}

	on := true
	dev.apply(wemoSnapshot{Serial: "221448K1100085", State: &on})

	state, err := dev.GetState(true)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if !state {
		t.Error("state = false, want true")
	}
}

func TestWemoDriverDevice_PartialSnapshotKeepsSections(t *testing.T) {
	dev := &wemoDriverDevice{serial: "s1", model: wemo.ModelInsight}

	full := wemoSnapshot{Serial: "s1"}
	full.Insight = &struct {
		CurrentPowerMW int64  `json:"current_power_mw"`
		TodayMW        int64  `json:"today_mw"`
		State          string `json:"state"`
	}{CurrentPowerMW: 12500, State: "8"}
	dev.apply(full)

	// A later snapshot without the insight section keeps the old reading.
	off := false
	dev.apply(wemoSnapshot{Serial: "s1", State: &off})

	params, err := dev.InsightParams()
	if err != nil {
		t.Fatalf("InsightParams: %v", err)
	}
	if params.CurrentPowerMW != 12500 {
		t.Errorf("CurrentPowerMW = %d, want 12500", params.CurrentPowerMW)
	}
	if params.State != "8" {
		t.Errorf("State = %q, want 8", params.State)
	}
}

func TestWemoDriverDevice_NameUpdates(t *testing.T) {
	dev := &wemoDriverDevice{serial: "s1", name: "old name"}

	dev.apply(wemoSnapshot{Serial: "s1"})
	if dev.Name() != "old name" {
		t.Errorf("empty snapshot name overwrote handle: %q", dev.Name())
	}

	dev.apply(wemoSnapshot{Serial: "s1", Name: "new name"})
	if dev.Name() != "new name" {
		t.Errorf("Name() = %q, want new name", dev.Name())
	}
}
