package patterns

import (
	"context"
	"fmt"
	"time"

	"github.com/smarthome-ai/diagnostic-core/internal/domain"
)

// connectivityGap finds the single largest gap between consecutive events
// (any capability) and severity-scores it.
func (d *Detector) connectivityGap(_ context.Context, _ domain.UniversalDeviceId, events []domain.DeviceEvent) algoResult {
	if len(events) < 2 {
		return algoResult{}
	}

	sorted := sortByEpochAsc(events)

	gapMs := d.thresholds.ConnectivityGapMs

	var largestGap int64
	occurrences := 0

	for i := 1; i < len(sorted); i++ {
		gap := sorted[i].EpochMillis - sorted[i-1].EpochMillis
		if gap >= gapMs {
			occurrences++
		}
		if gap > largestGap {
			largestGap = gap
		}
	}

	if largestGap < gapMs {
		return algoResult{}
	}

	severity, score, confidence := connectivitySeverity(largestGap, d.thresholds)

	return algoResult{pattern: &domain.IssuePattern{
		Type:        domain.PatternConnectivityGap,
		Description: fmt.Sprintf("%s gap in events", humanDuration(largestGap)),
		Occurrences: occurrences,
		Confidence:  confidence,
		Severity:    severity,
		Score:       score,
	}}
}

// connectivitySeverity scales its tiers off t.ConnectivityGapMs (the
// "baseline" gap) rather than a fixed hour, so a deployment that overrides
// the threshold also gets proportionally shifted severity bands.
func connectivitySeverity(gapMs int64, t Thresholds) (domain.Severity, float64, float64) {
	base := t.ConnectivityGapMs
	switch {
	case gapMs >= 24*base:
		return domain.SeverityCritical, 1.0, 0.85
	case gapMs >= 12*base:
		return domain.SeverityHigh, 0.8, 0.82
	case gapMs >= 6*base:
		return domain.SeverityMedium, 0.6, 0.8
	default: // base <= gap < 6*base
		return domain.SeverityLow, 0.3, 0.75
	}
}

// humanDuration renders a millisecond duration as "<n>h", "<n>d", a
// combined "<n>d<n>h", or "<n>m" under an hour.
func humanDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond

	days := int64(d / (24 * time.Hour))
	remainder := d - time.Duration(days)*24*time.Hour
	hours := int64(remainder / time.Hour)
	remainder -= time.Duration(hours) * time.Hour
	minutes := int64(remainder / time.Minute)

	switch {
	case days > 0 && hours > 0:
		return fmt.Sprintf("%dd%dh", days, hours)
	case days > 0:
		return fmt.Sprintf("%dd", days)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
