// Package deviceservice defines the outbound contracts the diagnostic core
// assumes of its platform-adapter collaborators (DeviceService and
// AutomationService), plus in-memory fakes used to exercise the workflow in
// tests and in cmd/diagcore without a live platform connection.
//
// The core trades exclusively in universal device ids
// ("<platform>:<platform-id>"). A real adapter implementation MUST extract
// the platform-specific id at this boundary before calling into a concrete
// platform SDK — see UniversalDeviceId.PlatformDeviceId. Skipping that
// extraction on even one of the methods below produces 400-class errors
// from the concrete SDK that look, to the workflow, like "no data", and
// silently breaks pattern detection for that call path.
package deviceservice

import (
	"context"

	"github.com/smarthome-ai/diagnostic-core/internal/domain"
)

// DeviceService is the platform-adapter façade the workflow calls for
// device inventory, live status and event history.
type DeviceService interface {
	ListDevices(ctx context.Context) ([]domain.UnifiedDevice, error)
	GetDevice(ctx context.Context, id domain.UniversalDeviceId) (domain.UnifiedDevice, error)
	GetDeviceStatus(ctx context.Context, id domain.UniversalDeviceId) (domain.HealthData, error)
	GetDeviceEvents(ctx context.Context, id domain.UniversalDeviceId, query domain.EventQuery) (domain.DeviceEventResult, error)

	// GetBatteryLevel narrows GetDeviceStatus for the pattern detector's
	// battery-degradation algorithm (see patterns.BatteryReader).
	GetBatteryLevel(ctx context.Context, id domain.UniversalDeviceId) (int, bool, error)
}

// AutomationService reports automation rules touching a device. Optional:
// implementations return an empty list on failure and never error out to
// the workflow.
type AutomationService interface {
	FindRulesForDevice(ctx context.Context, deviceID domain.UniversalDeviceId, locationID string) ([]domain.IdentifiedAutomation, error)
}
