package patterns

import (
	"context"
	"fmt"

	"github.com/smarthome-ai/diagnostic-core/internal/domain"
)

// batteryDegradation reads the device's current battery level via the
// wired BatteryReader. Any error or absent reading is treated as "nothing
// to report" (graceful degradation, not a detector failure).
func (d *Detector) batteryDegradation(ctx context.Context, deviceID domain.UniversalDeviceId, _ []domain.DeviceEvent) algoResult {
	if d.battery == nil {
		return algoResult{}
	}

	level, ok, err := d.battery.GetBatteryLevel(ctx, deviceID)
	if err != nil || !ok {
		return algoResult{}
	}

	severity, score, confidence, matched := batterySeverity(level, d.thresholds)
	if !matched {
		return algoResult{}
	}

	return algoResult{pattern: &domain.IssuePattern{
		Type:        domain.PatternBatteryDegradation,
		Description: fmt.Sprintf("battery at %d%%", level),
		Occurrences: 1,
		Confidence:  confidence,
		Severity:    severity,
		Score:       score,
	}}
}

func batterySeverity(level int, t Thresholds) (domain.Severity, float64, float64, bool) {
	switch {
	case level < t.BatteryCritical:
		return domain.SeverityCritical, 1.0, 1.0, true
	case level < t.BatteryLow:
		return domain.SeverityHigh, 0.7, 0.95, true
	case level < 30:
		return domain.SeverityMedium, 0.4, 0.9, true
	default:
		return domain.SeverityLow, 0, 0, false
	}
}
