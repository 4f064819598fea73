// Package domain holds the data model shared by every subsystem of the
// diagnostic core: devices, events, intents, patterns and the diagnostic
// report itself. Nothing in this package talks to an external system.
package domain

import "strings"

// CapabilityTag is a closed enum of device capabilities. Unknown platform
// capabilities are mapped to CapabilityOther rather than dropped, so callers
// never silently lose information about a device.
type CapabilityTag string

const (
	CapabilitySwitch            CapabilityTag = "SWITCH"
	CapabilityDimmer            CapabilityTag = "DIMMER"
	CapabilityMotionSensor      CapabilityTag = "MOTION_SENSOR"
	CapabilityContactSensor     CapabilityTag = "CONTACT_SENSOR"
	CapabilityLock              CapabilityTag = "LOCK"
	CapabilityTemperatureSensor CapabilityTag = "TEMPERATURE_SENSOR"
	CapabilityBattery           CapabilityTag = "BATTERY"
	CapabilityWindowShade       CapabilityTag = "WINDOW_SHADE"
	CapabilityOther             CapabilityTag = "OTHER"
)

// knownCapabilities is used to map arbitrary platform capability strings
// onto the closed enum above.
var knownCapabilities = map[string]CapabilityTag{
	"switch":             CapabilitySwitch,
	"dimmer":             CapabilityDimmer,
	"motionsensor":        CapabilityMotionSensor,
	"motion_sensor":       CapabilityMotionSensor,
	"contactsensor":       CapabilityContactSensor,
	"contact_sensor":      CapabilityContactSensor,
	"lock":                CapabilityLock,
	"temperaturesensor":   CapabilityTemperatureSensor,
	"temperature_sensor":  CapabilityTemperatureSensor,
	"battery":             CapabilityBattery,
	"windowshade":         CapabilityWindowShade,
	"window_shade":        CapabilityWindowShade,
}

// NormalizeCapability maps a raw, platform-specific capability string onto
// the closed CapabilityTag enum, falling back to CapabilityOther for
// anything unrecognised.
func NormalizeCapability(raw string) CapabilityTag {
	key := strings.ToLower(strings.TrimSpace(raw))
	if tag, ok := knownCapabilities[key]; ok {
		return tag
	}
	return CapabilityOther
}

// UniversalDeviceId is the "<platform>:<platform-specific-id>" form used
// throughout the core. Platform-specific IDs are extracted from it only at
// the DeviceService adapter boundary (see internal/deviceservice).
type UniversalDeviceId string

// Platform returns the platform segment of the id, or "" if malformed.
func (id UniversalDeviceId) Platform() string {
	platform, _, ok := id.split()
	if !ok {
		return ""
	}
	return platform
}

// PlatformDeviceId returns the platform-specific id segment, or "" if
// malformed. This is the ONLY place outside the adapter boundary that
// should ever need the bare native id, and even here it is exposed purely
// for diagnostics/logging, never passed to a concrete SDK.
func (id UniversalDeviceId) PlatformDeviceId() string {
	_, native, ok := id.split()
	if !ok {
		return ""
	}
	return native
}

func (id UniversalDeviceId) split() (platform, native string, ok bool) {
	s := string(id)
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

// NewUniversalDeviceId builds a UniversalDeviceId from its parts.
func NewUniversalDeviceId(platform, platformDeviceId string) UniversalDeviceId {
	return UniversalDeviceId(platform + ":" + platformDeviceId)
}

// UnifiedDevice is an immutable snapshot of one device as known to the core.
// Values are copied in and out of the registry; mutation happens only
// through Registry.UpdateDevice.
type UnifiedDevice struct {
	ID               UniversalDeviceId
	Platform         string
	PlatformDeviceID string
	Name             string
	Capabilities     map[CapabilityTag]struct{}
	Online           bool

	Label        string
	Room         string
	Manufacturer string
	Model        string
	LastSeen     *int64 // epoch millis, optional
	BatteryLevel *int   // percent [0,100], optional
}

// HasCapability reports whether the device advertises the given capability.
func (d UnifiedDevice) HasCapability(tag CapabilityTag) bool {
	_, ok := d.Capabilities[tag]
	return ok
}

// DisplayName returns the label if set, else the name — the convention used
// for every human-facing rendering of a device (semantic content, rich
// context, recommendations).
func (d UnifiedDevice) DisplayName() string {
	if d.Label != "" {
		return d.Label
	}
	return d.Name
}

// CapabilitySet builds a capability map from a slice, for convenient
// construction by callers (device service adapters, tests).
func CapabilitySet(tags ...CapabilityTag) map[CapabilityTag]struct{} {
	set := make(map[CapabilityTag]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}
