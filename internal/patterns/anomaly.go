package patterns

import (
	"context"
	"fmt"
	"regexp"

	"github.com/smarthome-ai/diagnostic-core/internal/domain"
)

var failureIndicative = regexp.MustCompile(`(?i)\b(offline|unavailable|error|fail)\b`)

// eventAnomaly evaluates two sub-signals (repeated failures, event storm) on
// the same event list and emits whichever scores higher.
func (d *Detector) eventAnomaly(_ context.Context, _ domain.UniversalDeviceId, events []domain.DeviceEvent) algoResult {
	sorted := sortByEpochAsc(events)

	repeated := detectRepeatedFailures(sorted, d.thresholds.FailureRun)
	storm := detectEventStorm(sorted, d.thresholds.StormWindowMs, d.thresholds.StormCount)

	switch {
	case repeated != nil && storm != nil:
		if storm.Score >= repeated.Score {
			return algoResult{pattern: storm}
		}
		return algoResult{pattern: repeated}
	case storm != nil:
		return algoResult{pattern: storm}
	case repeated != nil:
		return algoResult{pattern: repeated}
	default:
		return algoResult{}
	}
}

// detectRepeatedFailures groups events by attribute and looks for a run of
// ≥ failureRun consecutive identical, failure-indicative values.
func detectRepeatedFailures(sorted []domain.DeviceEvent, failureRun int) *domain.IssuePattern {
	byAttribute := make(map[string][]domain.DeviceEvent)
	for _, e := range sorted {
		key := e.Capability + "." + e.Attribute
		byAttribute[key] = append(byAttribute[key], e)
	}

	best := 0
	for _, group := range byAttribute {
		run := 0
		maxRun := 0
		var lastValue string
		for _, e := range group {
			val := fmt.Sprint(e.Value)
			if !failureIndicative.MatchString(val) {
				run = 0
				continue
			}
			if val == lastValue {
				run++
			} else {
				run = 1
			}
			lastValue = val
			if run > maxRun {
				maxRun = run
			}
		}
		if maxRun > best {
			best = maxRun
		}
	}

	if best < failureRun {
		return nil
	}

	return &domain.IssuePattern{
		Type:        domain.PatternRepeatedFailures,
		Description: fmt.Sprintf("%d consecutive failure-indicative readings on the same attribute", best),
		Occurrences: best,
		Confidence:  0.9,
		Severity:    domain.SeverityHigh,
		Score:       0.8,
	}
}

// detectEventStorm slides a window over the sorted event list looking for
// any stormWindowMs-wide span containing ≥ stormCount events.
func detectEventStorm(sorted []domain.DeviceEvent, windowMs int64, stormCount int) *domain.IssuePattern {
	if len(sorted) < stormCount {
		return nil
	}

	peak := 0
	left := 0
	for right := 0; right < len(sorted); right++ {
		for sorted[right].EpochMillis-sorted[left].EpochMillis > windowMs {
			left++
		}
		count := right - left + 1
		if count > peak {
			peak = count
		}
	}

	if peak < stormCount {
		return nil
	}

	return &domain.IssuePattern{
		Type:        domain.PatternEventAnomaly,
		Description: fmt.Sprintf("%d events observed within a %s window", peak, humanDuration(windowMs)),
		Occurrences: peak,
		Confidence:  0.95,
		Severity:    domain.SeverityHigh,
		Score:       0.85,
	}
}
