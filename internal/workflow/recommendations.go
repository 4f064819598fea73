package workflow

import (
	"fmt"
	"strings"

	"github.com/smarthome-ai/diagnostic-core/internal/domain"
)

// manufacturerApps maps a proprietary manufacturer (lower-cased) to the
// first-party app the recommendation engine should point the user at
// before trusting anything this core inferred from telemetry alone.
var manufacturerApps = map[string]string{
	"sengled": "Sengled Home",
	"philips": "Philips Hue",
	"lifx":    "LIFX",
	"wyze":    "Wyze",
	"tp-link": "Kasa Smart",
}

// buildRecommendations runs rules R1-R8 in order against the gathered
// context and returns an ordered, evidence-only recommendation list. Every
// emitted string embeds an explicit Evidence:/Observable pattern:/
// Observation: clause and never the forbidden speculation vocabulary
// ("may be", "possibly", "might", "could be", "likely").
func buildRecommendations(intent domain.IntentType, dctx domain.DiagnosticContext) []string {
	var recs []string
	matchedAny := false

	// R2: offline health.
	if dctx.HealthData != nil && !dctx.HealthData.Online {
		recs = append(recs, "Action: Check device power supply and network connectivity. Evidence: device reports offline.")
		matchedAny = true
	}

	// R3: low battery.
	if dctx.HealthData != nil && dctx.HealthData.BatteryLevel != nil && *dctx.HealthData.BatteryLevel < 20 {
		recs = append(recs, fmt.Sprintf("Action: Replace battery (%d%% remaining). Evidence: battery reading from device status.", *dctx.HealthData.BatteryLevel))
		matchedAny = true
	}

	// R4: rapid-change / automation-conflict pattern.
	for _, p := range dctx.RelatedIssues {
		if (p.Type == domain.PatternRapidChanges || p.Type == domain.PatternAutomationConflict) && p.Confidence >= 0.85 {
			recs = append(recs, fmt.Sprintf(
				"Observable pattern: %d rapid state changes, confidence %d%%. Action: Check SmartThings app → Automations for rules affecting this device.",
				p.Occurrences, percent(p.Confidence)))
			matchedAny = true
			if p.Occurrences >= 5 {
				recs = append(recs, "ALERT: Multiple rapid changes suggest an automation loop. Review automation conditions.")
			}
		}
	}

	// R5: motion-sensor guidance — iff an identified automation names a
	// motion sensor among its device roles, regardless of whether the
	// diagnosed device itself has CapabilityMotionSensor (a switch
	// triggered by a separate motion-sensor automation still qualifies).
	if rec, ok := motionSensorGuidance(dctx.IdentifiedAutomations); ok {
		recs = append(recs, rec)
		matchedAny = true
	}

	// R6: connectivity gap.
	for _, p := range dctx.RelatedIssues {
		if p.Type == domain.PatternConnectivityGap {
			recs = append(recs, fmt.Sprintf("Evidence: %s. Action: Check device range to hub and network stability.", p.Description))
			matchedAny = true
		}
	}

	// R7: API limitation — ISSUE_DIAGNOSIS with no automation evidence.
	if intent == domain.IntentIssueDiagnosis && len(dctx.IdentifiedAutomations) == 0 {
		recs = append(recs, "API Limitation: automation list is not accessible for this device. Manual step: open the SmartThings app → Automations to inspect rules.")
		matchedAny = true
	}

	// R8: normal path — only reachable when nothing else matched and the
	// only detected pattern is the "normal" placeholder.
	if !matchedAny && onlyNormalPattern(dctx.RelatedIssues) {
		recs = append(recs, "No unusual patterns detected in recent activity.")
	}

	// R1: manufacturer-app priority, prepended last so it never counts
	// toward "matchedAny" for R8's purposes.
	if dctx.Device != nil {
		if appName, ok := manufacturerApps[strings.ToLower(dctx.Device.Manufacturer)]; ok {
			anySignal := len(dctx.RelatedIssues) > 0 || len(dctx.RecentEvents) > 0
			if anySignal {
				priority := fmt.Sprintf("PRIORITY — Open %s to check device-native automations. Evidence: device manufacturer is %s.", appName, dctx.Device.Manufacturer)
				recs = append([]string{priority}, recs...)
			}
		}
	}

	return recs
}

func motionSensorGuidance(automations []domain.IdentifiedAutomation) (string, bool) {
	for _, a := range automations {
		for _, role := range a.DeviceRoles {
			normalized := strings.ToLower(strings.ReplaceAll(role, "_", " "))
			if strings.Contains(normalized, "motion") {
				return fmt.Sprintf("Observation: automation %q includes this motion sensor among its triggers. Action: review motion-based automation timing.", a.RuleName), true
			}
		}
	}
	return "", false
}

func onlyNormalPattern(issues []domain.IssuePattern) bool {
	return len(issues) == 1 && issues[0].Type == domain.PatternNormal
}

func percent(confidence float64) int {
	return int(confidence*100 + 0.5)
}
