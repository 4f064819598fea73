package patterns_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarthome-ai/diagnostic-core/internal/domain"
	"github.com/smarthome-ai/diagnostic-core/internal/patterns"
)

const testDeviceID = domain.UniversalDeviceId("smartthings:abc")

func evt(epochMs int64, capability, attribute string, value interface{}) domain.DeviceEvent {
	return domain.DeviceEvent{
		DeviceID:    testDeviceID,
		Time:        time.UnixMilli(epochMs),
		EpochMillis: epochMs,
		Capability:  capability,
		Attribute:   attribute,
		Value:       value,
	}
}

func TestDetectAll_EmptyEventsAndNoBattery_ReturnsNormal(t *testing.T) {
	d := patterns.New(patterns.DefaultThresholds(), nil)
	result := d.DetectAll(context.Background(), testDeviceID, nil)

	require.Len(t, result.Patterns, 1)
	assert.Equal(t, domain.PatternNormal, result.Patterns[0].Type)
	assert.True(t, result.AllAlgorithmsSucceeded)
}

func TestDetectAll_ConnectivityGap_Critical(t *testing.T) {
	d := patterns.New(patterns.DefaultThresholds(), nil)
	events := []domain.DeviceEvent{
		evt(0, "switch", "switch", "on"),
		evt(25*60*60*1000, "switch", "switch", "off"), // 25h gap
	}

	result := d.DetectAll(context.Background(), testDeviceID, events)

	found := findPattern(result.Patterns, domain.PatternConnectivityGap)
	require.NotNil(t, found)
	assert.Equal(t, domain.SeverityCritical, found.Severity)
	assert.Equal(t, 1.0, found.Score)
}

func TestDetectAll_AutomationConflict_HighSeverity(t *testing.T) {
	d := patterns.New(patterns.DefaultThresholds(), nil)

	var events []domain.DeviceEvent
	base := int64(1_000_000)
	values := []string{"off", "on", "off", "on", "off", "on", "off", "on", "off", "on", "off", "on"}
	for i, v := range values {
		events = append(events, evt(base+int64(i)*2000, "switch", "switch", v))
	}

	result := d.DetectAll(context.Background(), testDeviceID, events)

	found := findPattern(result.Patterns, domain.PatternAutomationConflict)
	require.NotNil(t, found)
	assert.Equal(t, domain.SeverityHigh, found.Severity)
}

func TestDetectAll_RepeatedFailures(t *testing.T) {
	d := patterns.New(patterns.DefaultThresholds(), nil)

	var events []domain.DeviceEvent
	for i := 0; i < 6; i++ {
		events = append(events, evt(int64(i)*100000, "switch", "status", "offline"))
	}

	result := d.DetectAll(context.Background(), testDeviceID, events)

	found := findPattern(result.Patterns, domain.PatternRepeatedFailures)
	require.NotNil(t, found)
	assert.GreaterOrEqual(t, found.Occurrences, 5)
}

func TestDetectAll_EventStorm(t *testing.T) {
	d := patterns.New(patterns.DefaultThresholds(), nil)

	var events []domain.DeviceEvent
	for i := 0; i < 25; i++ {
		events = append(events, evt(int64(i)*1000, "motionSensor", "motion", "active"))
	}

	result := d.DetectAll(context.Background(), testDeviceID, events)

	found := findPattern(result.Patterns, domain.PatternEventAnomaly)
	require.NotNil(t, found)
	assert.Equal(t, domain.SeverityHigh, found.Severity)
}

type fakeBatteryReader struct {
	level int
	ok    bool
	err   error
}

func (f fakeBatteryReader) GetBatteryLevel(_ context.Context, _ domain.UniversalDeviceId) (int, bool, error) {
	return f.level, f.ok, f.err
}

func TestDetectAll_BatteryDegradation_Critical(t *testing.T) {
	d := patterns.New(patterns.DefaultThresholds(), fakeBatteryReader{level: 5, ok: true})
	result := d.DetectAll(context.Background(), testDeviceID, nil)

	found := findPattern(result.Patterns, domain.PatternBatteryDegradation)
	require.NotNil(t, found)
	assert.Equal(t, domain.SeverityCritical, found.Severity)
}

func TestDetectAll_BatteryAboveThreshold_NoPattern(t *testing.T) {
	d := patterns.New(patterns.DefaultThresholds(), fakeBatteryReader{level: 80, ok: true})
	result := d.DetectAll(context.Background(), testDeviceID, nil)

	assert.Nil(t, findPattern(result.Patterns, domain.PatternBatteryDegradation))
	require.Len(t, result.Patterns, 1)
	assert.Equal(t, domain.PatternNormal, result.Patterns[0].Type)
}

func TestDetectAll_SortedBySeverityThenScore(t *testing.T) {
	d := patterns.New(patterns.DefaultThresholds(), fakeBatteryReader{level: 5, ok: true})

	events := []domain.DeviceEvent{
		evt(0, "switch", "switch", "on"),
		evt(25*60*60*1000, "switch", "switch", "off"),
	}

	result := d.DetectAll(context.Background(), testDeviceID, events)
	require.True(t, len(result.Patterns) >= 2)

	for i := 1; i < len(result.Patterns); i++ {
		prev, curr := result.Patterns[i-1], result.Patterns[i]
		assert.True(t, prev.Severity >= curr.Severity)
	}
}

func findPattern(issues []domain.IssuePattern, t domain.PatternType) *domain.IssuePattern {
	for i := range issues {
		if issues[i].Type == t {
			return &issues[i]
		}
	}
	return nil
}
