package main

import (
	"time"

	"github.com/smarthome-ai/diagnostic-core/internal/deviceservice"
	"github.com/smarthome-ai/diagnostic-core/internal/domain"
	"github.com/smarthome-ai/diagnostic-core/internal/registry"
)

// seedDemoFleet populates reg and svc with a small fixed fleet so `diagcore
// ask` is runnable standalone, without a live platform connection. Every
// device here exercises a different diagnostic path (offline, low battery,
// rapid automation activity) so the demo fleet doubles as a smoke
// test of the whole pipeline.
func seedDemoFleet(reg *registry.Registry, svc *deviceservice.FakeDeviceService) {
	battery := 12

	kitchenLight := domain.UnifiedDevice{
		ID:           domain.NewUniversalDeviceId("smartthings", "kitchen-light-1"),
		Platform:     "smartthings",
		Name:         "kitchen light",
		Label:        "Kitchen Light",
		Room:         "Kitchen",
		Manufacturer: "Sengled",
		Model:        "E11-G13",
		Online:       true,
		Capabilities: domain.CapabilitySet(domain.CapabilitySwitch, domain.CapabilityDimmer),
	}

	frontDoorLock := domain.UnifiedDevice{
		ID:           domain.NewUniversalDeviceId("smartthings", "front-door-lock-1"),
		Platform:     "smartthings",
		Name:         "front door lock",
		Label:        "Front Door Lock",
		Room:         "Entryway",
		Manufacturer: "Yale",
		Model:        "YRD256",
		Online:       false,
		Capabilities: domain.CapabilitySet(domain.CapabilityLock),
	}

	motionSensor := domain.UnifiedDevice{
		ID:           domain.NewUniversalDeviceId("smartthings", "hallway-motion-1"),
		Platform:     "smartthings",
		Name:         "hallway motion sensor",
		Label:        "Hallway Motion Sensor",
		Room:         "Hallway",
		Manufacturer: "SmartThings",
		Model:        "IM6001-MTP01",
		Online:       true,
		BatteryLevel: &battery,
		Capabilities: domain.CapabilitySet(domain.CapabilityMotionSensor, domain.CapabilityBattery),
	}

	for _, d := range []domain.UnifiedDevice{kitchenLight, frontDoorLock, motionSensor} {
		_ = reg.AddDevice(d)
	}

	svc.AddDevice(kitchenLight, domain.HealthData{Online: true}, rapidSwitchEvents(kitchenLight.ID))
	svc.AddDevice(frontDoorLock, domain.HealthData{Online: false}, nil)
	svc.AddDevice(motionSensor, domain.HealthData{Online: true, BatteryLevel: &battery}, nil)
}

// rapidSwitchEvents manufactures a dozen rapid on/off toggles, 2s apart, so
// the automation-conflict pattern has something to find for the demo.
func rapidSwitchEvents(id domain.UniversalDeviceId) []domain.DeviceEvent {
	values := []string{"off", "on", "off", "on", "off", "on", "off", "on", "off", "on", "off", "on"}
	base := time.Now().Add(-time.Minute).UnixMilli()

	events := make([]domain.DeviceEvent, 0, len(values))
	for i, v := range values {
		ms := base + int64(i)*2000
		events = append(events, domain.DeviceEvent{
			DeviceID:    id,
			Time:        time.UnixMilli(ms),
			EpochMillis: ms,
			Capability:  "switch",
			Attribute:   "switch",
			Value:       v,
		})
	}
	return events
}
