package intent

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/smarthome-ai/diagnostic-core/internal/domain"
	"github.com/smarthome-ai/diagnostic-core/internal/llm"
)

const systemPrompt = `You are an intent classifier for a smart-home troubleshooting assistant.
Classify the user's message into exactly one of these intents:
- MODE_MANAGEMENT: entering or leaving troubleshooting mode
- DEVICE_HEALTH: asking whether a specific device is working correctly
- ISSUE_DIAGNOSIS: reporting or asking about a device problem
- DISCOVERY: asking to find or list devices similar to something
- SYSTEM_STATUS: asking about overall system health
- NORMAL_QUERY: anything else

Reply with ONLY a strict JSON object of the form:
{"intent": "INTENT_NAME", "confidence": 0.0-1.0, "entities": {"deviceId": "", "deviceName": "", "roomName": "", "timeframe": "", "issueType": ""}, "requiresDiagnostics": true, "reasoning": "short reason"}`

var codeFencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// stripCodeFences removes a leading/trailing Markdown code fence around a
// JSON payload, tolerating models that wrap their reply in ```json ... ```.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

var nonAlphaPattern = regexp.MustCompile(`[^a-z]`)

// normalizeIntentToken lowercases and strips non-alphabetic characters so
// "SystemStatus" / "system_status" / "system-status" all map onto the same
// lookup key as domain.IntentSystemStatus's own normalized form.
func normalizeIntentToken(raw string) domain.IntentType {
	key := nonAlphaPattern.ReplaceAllString(strings.ToLower(raw), "")

	for _, candidate := range []domain.IntentType{
		domain.IntentModeManagement,
		domain.IntentDeviceHealth,
		domain.IntentIssueDiagnosis,
		domain.IntentDiscovery,
		domain.IntentSystemStatus,
		domain.IntentNormalQuery,
	} {
		candidateKey := nonAlphaPattern.ReplaceAllString(strings.ToLower(string(candidate)), "")
		if candidateKey == key {
			return candidate
		}
	}
	return domain.IntentNormalQuery
}

type llmResponseBody struct {
	Intent              string `json:"intent"`
	Confidence          float64 `json:"confidence"`
	Entities            struct {
		DeviceID   string `json:"deviceId"`
		DeviceName string `json:"deviceName"`
		RoomName   string `json:"roomName"`
		Timeframe  string `json:"timeframe"`
		IssueType  string `json:"issueType"`
	} `json:"entities"`
	RequiresDiagnostics bool   `json:"requiresDiagnostics"`
	Reasoning           string `json:"reasoning"`
}

// fallbackClassification is returned whenever the LLM tier cannot produce a
// usable result: call error, or parse failure after fence-stripping.
func fallbackClassification() domain.IntentClassification {
	return domain.IntentClassification{
		Intent:     domain.IntentNormalQuery,
		Confidence: 0.3,
	}
}

// classifyWithLLM runs the single chat call described by the specification:
// strict JSON reply, tolerant fence-stripped parse, normalized intent
// token, safe fallback on any failure.
func classifyWithLLM(ctx context.Context, client llm.Client, message string, conversationContext []string, timeout time.Duration) domain.IntentClassification {
	if client == nil {
		return fallbackClassification()
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	messages := []llm.Message{{Role: "system", Content: systemPrompt}}
	for _, turn := range conversationContext {
		messages = append(messages, llm.Message{Role: "user", Content: turn})
	}
	messages = append(messages, llm.Message{Role: "user", Content: message})

	result, err := client.Chat(ctx, messages, llm.ChatOptions{})
	if err != nil {
		return fallbackClassification()
	}

	cleaned := stripCodeFences(result.Content)

	var body llmResponseBody
	if err := json.Unmarshal([]byte(cleaned), &body); err != nil {
		return fallbackClassification()
	}

	classification := domain.IntentClassification{
		Intent:     normalizeIntentToken(body.Intent),
		Confidence: body.Confidence,
		Entities: domain.Entities{
			DeviceID:   domain.UniversalDeviceId(body.Entities.DeviceID),
			DeviceName: body.Entities.DeviceName,
			RoomName:   body.Entities.RoomName,
			Timeframe:  body.Entities.Timeframe,
			IssueType:  body.Entities.IssueType,
		},
		RequiresDiagnostics: body.RequiresDiagnostics,
		Reasoning:           body.Reasoning,
	}
	return classification
}
