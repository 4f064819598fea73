package patterns

import (
	"context"
	"fmt"

	"github.com/smarthome-ai/diagnostic-core/internal/domain"
)

// automationConflictCapabilities gates which capabilities the algorithm
// considers state-changing for the purposes of this pattern.
var automationConflictCapabilities = map[string]bool{
	"switch":  true,
	"lock":    true,
	"contact": true,
}

// onLikeValues defines the "off→on" style transition the hasImmediate signal
// looks for (any value not listed here counts as off-like), generalised
// across switch/lock/contact.
var onLikeValues = map[string]bool{"on": true, "open": true, "unlocked": true}

// automationConflict looks for runs of rapid, same-attribute state changes
// that suggest an automation loop.
func (d *Detector) automationConflict(_ context.Context, _ domain.UniversalDeviceId, events []domain.DeviceEvent) algoResult {
	var relevant []domain.DeviceEvent
	for _, e := range events {
		if automationConflictCapabilities[e.Capability] {
			relevant = append(relevant, e)
		}
	}
	if len(relevant) < 2 {
		return algoResult{}
	}

	sorted := sortByEpochAsc(relevant)

	type delta struct {
		ms        int64
		hour      int
		fromValue string
		toValue   string
	}

	var rapid []delta
	for i := 1; i < len(sorted); i++ {
		prev, curr := sorted[i-1], sorted[i]
		if prev.Attribute != curr.Attribute {
			continue
		}
		gapMs := curr.EpochMillis - prev.EpochMillis
		if gapMs < d.thresholds.RapidGapMs {
			rapid = append(rapid, delta{
				ms:        gapMs,
				hour:      curr.Time.Local().Hour(),
				fromValue: fmt.Sprint(prev.Value),
				toValue:   fmt.Sprint(curr.Value),
			})
		}
	}

	n := len(rapid)
	if n < 2 {
		return algoResult{}
	}

	hasImmediate := false
	isOddHour := false
	for _, r := range rapid {
		if r.ms < d.thresholds.AutomationGapMs && !onLikeValues[r.fromValue] && onLikeValues[r.toValue] {
			hasImmediate = true
		}
		if r.hour >= 1 && r.hour < 5 {
			isOddHour = true
		}
	}

	severity := automationSeverity(n)

	confidence := 0.88
	switch {
	case isOddHour && hasImmediate:
		confidence = 0.98
	case hasImmediate:
		confidence = 0.95
	}

	var score float64
	switch {
	case n >= 10:
		score = 0.9
	case n >= 5:
		score = 0.7
	default:
		score = 0.5
	}

	desc := fmt.Sprintf("%d rapid state changes detected", n)
	if isOddHour {
		desc += ", including odd-hour activity"
	}

	return algoResult{pattern: &domain.IssuePattern{
		Type:        domain.PatternAutomationConflict,
		Description: desc,
		Occurrences: n,
		Confidence:  confidence,
		Severity:    severity,
		Score:       score,
	}}
}

func automationSeverity(n int) domain.Severity {
	switch {
	case n > 10:
		return domain.SeverityHigh
	case n >= 5:
		return domain.SeverityMedium
	case n >= 2:
		return domain.SeverityLow
	default:
		return domain.SeverityLow
	}
}
