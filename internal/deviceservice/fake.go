package deviceservice

import (
	"context"
	"sort"

	"github.com/smarthome-ai/diagnostic-core/internal/common/apperrors"
	"github.com/smarthome-ai/diagnostic-core/internal/domain"
)

// FakeDeviceService is an in-memory DeviceService used by tests and
// cmd/diagcore's demo wiring. It never talks to a concrete SDK, so the
// universal/platform id boundary invariant is a documentation concern here
// rather than a correctness one — real adapters must still honour it.
type FakeDeviceService struct {
	Devices map[domain.UniversalDeviceId]domain.UnifiedDevice
	Health  map[domain.UniversalDeviceId]domain.HealthData
	Events  map[domain.UniversalDeviceId][]domain.DeviceEvent
	Battery map[domain.UniversalDeviceId]int

	// Err, if set, is returned by every method (simulates a dead adapter).
	Err error
}

// NewFakeDeviceService builds an empty FakeDeviceService ready for devices
// to be registered via AddDevice.
func NewFakeDeviceService() *FakeDeviceService {
	return &FakeDeviceService{
		Devices: make(map[domain.UniversalDeviceId]domain.UnifiedDevice),
		Health:  make(map[domain.UniversalDeviceId]domain.HealthData),
		Events:  make(map[domain.UniversalDeviceId][]domain.DeviceEvent),
		Battery: make(map[domain.UniversalDeviceId]int),
	}
}

// AddDevice registers a device plus its health snapshot and event history.
func (f *FakeDeviceService) AddDevice(d domain.UnifiedDevice, health domain.HealthData, events []domain.DeviceEvent) {
	f.Devices[d.ID] = d
	f.Health[d.ID] = health
	f.Events[d.ID] = events
	if health.BatteryLevel != nil {
		f.Battery[d.ID] = *health.BatteryLevel
	}
}

func (f *FakeDeviceService) ListDevices(_ context.Context) ([]domain.UnifiedDevice, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]domain.UnifiedDevice, 0, len(f.Devices))
	for _, d := range f.Devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *FakeDeviceService) GetDevice(_ context.Context, id domain.UniversalDeviceId) (domain.UnifiedDevice, error) {
	if f.Err != nil {
		return domain.UnifiedDevice{}, f.Err
	}
	d, ok := f.Devices[id]
	if !ok {
		return domain.UnifiedDevice{}, apperrors.NotFound("device not found: " + string(id))
	}
	return d, nil
}

func (f *FakeDeviceService) GetDeviceStatus(_ context.Context, id domain.UniversalDeviceId) (domain.HealthData, error) {
	if f.Err != nil {
		return domain.HealthData{}, f.Err
	}
	h, ok := f.Health[id]
	if !ok {
		return domain.HealthData{}, apperrors.NotFound("no status for device: " + string(id))
	}
	return h, nil
}

func (f *FakeDeviceService) GetDeviceEvents(_ context.Context, id domain.UniversalDeviceId, query domain.EventQuery) (domain.DeviceEventResult, error) {
	if f.Err != nil {
		return domain.DeviceEventResult{}, f.Err
	}
	events := f.Events[id]

	sorted := make([]domain.DeviceEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		if query.OldestFirst {
			return sorted[i].EpochMillis < sorted[j].EpochMillis
		}
		return sorted[i].EpochMillis > sorted[j].EpochMillis
	})

	if query.Limit > 0 && len(sorted) > query.Limit {
		sorted = sorted[:query.Limit]
	}

	return domain.DeviceEventResult{
		Events: sorted,
		Metadata: domain.EventMetadata{
			TotalCount: len(events),
			HasMore:    query.Limit > 0 && len(events) > query.Limit,
		},
	}, nil
}

func (f *FakeDeviceService) GetBatteryLevel(_ context.Context, id domain.UniversalDeviceId) (int, bool, error) {
	if f.Err != nil {
		return 0, false, f.Err
	}
	level, ok := f.Battery[id]
	return level, ok, nil
}

// FakeAutomationService is an in-memory AutomationService keyed by device.
type FakeAutomationService struct {
	Rules map[domain.UniversalDeviceId][]domain.IdentifiedAutomation
}

// NewFakeAutomationService builds an empty FakeAutomationService.
func NewFakeAutomationService() *FakeAutomationService {
	return &FakeAutomationService{Rules: make(map[domain.UniversalDeviceId][]domain.IdentifiedAutomation)}
}

// FindRulesForDevice returns the rules registered for deviceID (an empty
// list when none are), never an error, per contract.
func (f *FakeAutomationService) FindRulesForDevice(_ context.Context, deviceID domain.UniversalDeviceId, _ string) ([]domain.IdentifiedAutomation, error) {
	return f.Rules[deviceID], nil
}
