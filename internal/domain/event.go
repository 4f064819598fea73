package domain

import "time"

// DeviceEvent is one observation of an attribute change on a device.
type DeviceEvent struct {
	DeviceID    UniversalDeviceId
	LocationID  string
	Time        time.Time
	EpochMillis int64
	Component   string
	Capability  string
	Attribute   string
	Value       interface{}
	Unit        string
	Text        string
	Hash        string
}

// DateRange describes the span covered by a set of events.
type DateRange struct {
	Earliest    time.Time
	Latest      time.Time
	DurationMs  int64
}

// EventMetadata carries the bookkeeping returned alongside a DeviceEvent
// slice: pagination, retention and gap information.
type EventMetadata struct {
	TotalCount          int
	HasMore             bool
	DateRange           DateRange
	AppliedFilters      map[string]interface{}
	ReachedRetentionLimit bool
	GapDetected         bool
	Gaps                []int64 // gap durations in ms, if computed by the caller
	LargestGapMs        int64
}

// DeviceEventResult is the bundle returned by a telemetry fetch: the events
// themselves (newest-first unless OldestFirst was requested) plus metadata
// and a short human summary.
type DeviceEventResult struct {
	Events   []DeviceEvent
	Metadata EventMetadata
	Summary  string
}

// EventQuery mirrors the options accepted by DeviceService.GetDeviceEvents.
type EventQuery struct {
	StartTime       *time.Time
	EndTime         *time.Time
	Limit           int
	Capabilities    []string
	Attributes      []string
	OldestFirst     bool
	IncludeMetadata bool
	HumanReadable   bool
}
