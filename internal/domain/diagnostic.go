package domain

import "time"

// HealthData is the subset of a device's live status relevant to diagnosis.
type HealthData struct {
	Online       bool
	BatteryLevel *int
	LastSeen     *time.Time
}

// SimilarDevice is one hit from a semantic-index device search, carried into
// the diagnostic context for rich-context rendering.
type SimilarDevice struct {
	Device     UnifiedDevice
	Similarity float64 // [0,1]
}

// IdentifiedAutomation is one automation rule AutomationService reports as
// touching the device under diagnosis.
type IdentifiedAutomation struct {
	RuleID      string
	RuleName    string
	DeviceRoles []string
	Status      string
	TriggeredAt *time.Time
	Confidence  *float64
}

// SystemStatusBucket counts devices by health bucket for SYSTEM_STATUS.
type SystemStatusBucket struct {
	Total    int
	Healthy  int
	Warning  int
	Critical int
}

// SystemStatus is the aggregate view assembled for the SYSTEM_STATUS intent.
type SystemStatus struct {
	Buckets        SystemStatusBucket
	RecentIssues   []IssuePattern
	WidePatterns   []IssuePattern
}

// DiagnosticContext is the set of evidence the workflow managed to gather.
// Every field is optional: a zero value or nil means "that data source
// failed or was not planned for this intent", never an error in itself.
type DiagnosticContext struct {
	Device                *UnifiedDevice
	HealthData            *HealthData
	RecentEvents          []DeviceEvent
	SimilarDevices        []SimilarDevice
	RelatedIssues         []IssuePattern
	IdentifiedAutomations []IdentifiedAutomation
	SystemStatus          *SystemStatus
}

// DiagnosticReport is the final artifact returned by the workflow: a short
// summary, the full evidence context, the rendered Markdown block for
// prompt injection, and an ordered, evidence-only recommendation list.
type DiagnosticReport struct {
	Summary         string
	Context         DiagnosticContext
	RichContext     string
	Recommendations []string
	Confidence      float64
	Timestamp       time.Time
}

// MetadataDocument is the indexing unit consumed by the semantic index: a
// natural-language description of a device plus its structured metadata.
type MetadataDocument struct {
	DeviceID UniversalDeviceId
	Content  string
	Metadata DeviceDocMetadata
}

// DeviceDocMetadata is the flat (string/number/bool/nil only) metadata
// stored alongside a MetadataDocument's content in the index.
type DeviceDocMetadata struct {
	Name         string
	Label        string
	Room         string
	Capabilities []string
	Platform     string
	Online       bool
	Manufacturer string
	Model        string
	Tags         []string
}
