package intent

import (
	"regexp"

	"github.com/smarthome-ai/diagnostic-core/internal/domain"
)

// keywordRule is one (regex, intent, confidence) entry in the ordered
// keyword matcher, modelled on the teacher's RuleBasedRecognizer priority
// list but with our six intents and their exact trigger phrases.
type keywordRule struct {
	pattern    *regexp.Regexp
	intent     domain.IntentType
	confidence float64
}

// deviceNounPattern matches a noun that signals the message is about a
// specific device, used to gate ISSUE_DIAGNOSIS/DEVICE_HEALTH matches.
var deviceNounPattern = regexp.MustCompile(`(?i)\b(light|switch|lock|sensor|thermostat|outlet|plug|shade|camera|device)\b`)

var keywordRules = []keywordRule{
	{regexp.MustCompile(`(?i)^/?(troubleshoot|diag)\b`), domain.IntentModeManagement, 0.95},
	{regexp.MustCompile(`(?i)enter troubleshoot|troubleshoot mode`), domain.IntentModeManagement, 0.9},
	{regexp.MustCompile(`(?i)how is my system|system (status|doing|overview)|show.*system`), domain.IntentSystemStatus, 0.9},
	{regexp.MustCompile(`(?i)\b(find|show|list) (devices? like|similar|all)\b|similar to`), domain.IntentDiscovery, 0.85},
	{regexp.MustCompile(`(?i)\b(why|what'?s wrong|not working|broken|stopped|issue)\b`), domain.IntentIssueDiagnosis, 0.85},
	{regexp.MustCompile(`(?i)\b(check|status of|is .* (ok|working)|how is)\b`), domain.IntentDeviceHealth, 0.85},
}

// keywordResult is the keyword matcher's output before entity extraction.
type keywordResult struct {
	matched    bool
	intent     domain.IntentType
	confidence float64
}

// matchKeywords runs the ordered regex list, first match wins. The two
// device-gated rules (ISSUE_DIAGNOSIS, DEVICE_HEALTH) only count as a match
// when a device noun is also present, per the specification.
func matchKeywords(message string) keywordResult {
	for _, rule := range keywordRules {
		if !rule.pattern.MatchString(message) {
			continue
		}

		if (rule.intent == domain.IntentIssueDiagnosis || rule.intent == domain.IntentDeviceHealth) &&
			!deviceNounPattern.MatchString(message) {
			continue
		}

		return keywordResult{matched: true, intent: rule.intent, confidence: rule.confidence}
	}
	return keywordResult{}
}

// shortCircuitThreshold is the confidence at which a keyword hit skips the
// LLM tier entirely.
const shortCircuitThreshold = 0.85
