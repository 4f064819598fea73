package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/smarthome-ai/diagnostic-core/internal/domain"
)

const recentEventsDisplayLimit = 10

// renderRichContext renders the gathered DiagnosticContext as Markdown with
// the fixed section order the specification requires — sections appear iff
// their underlying data is present, regardless of the order their
// gathering tasks happened to fulfil in.
func renderRichContext(dctx domain.DiagnosticContext) string {
	var b strings.Builder

	if dctx.Device != nil {
		renderDeviceInformation(&b, *dctx.Device)
	}
	if dctx.HealthData != nil {
		renderHealthStatus(&b, *dctx.HealthData)
	}
	if len(dctx.RecentEvents) > 0 {
		renderRecentEvents(&b, dctx.RecentEvents)
	}
	if len(dctx.RelatedIssues) > 0 {
		renderDetectedPatterns(&b, dctx.RelatedIssues)
	}
	if len(dctx.SimilarDevices) > 0 {
		renderSimilarDevices(&b, dctx.SimilarDevices)
	}
	if len(dctx.IdentifiedAutomations) > 0 {
		renderIdentifiedAutomations(&b, dctx.IdentifiedAutomations)
	}
	if dctx.SystemStatus != nil {
		renderSystemStatus(&b, *dctx.SystemStatus)
	}

	return b.String()
}

func renderDeviceInformation(b *strings.Builder, d domain.UnifiedDevice) {
	b.WriteString("## Device Information\n")
	fmt.Fprintf(b, "- Name: %s\n", d.DisplayName())
	fmt.Fprintf(b, "- ID: %s\n", d.ID)
	fmt.Fprintf(b, "- Room: %s\n", valueOrUnknown(d.Room))
	fmt.Fprintf(b, "- Platform: %s\n", d.Platform)
	fmt.Fprintf(b, "- Manufacturer: %s\n", valueOrUnknown(d.Manufacturer))
	fmt.Fprintf(b, "- Model: %s\n", valueOrUnknown(d.Model))
	fmt.Fprintf(b, "- Capabilities: %s\n\n", strings.Join(capabilityNames(d), ", "))
}

func renderHealthStatus(b *strings.Builder, h domain.HealthData) {
	b.WriteString("## Health Status\n")
	fmt.Fprintf(b, "- Online: %t\n", h.Online)
	if h.BatteryLevel != nil {
		fmt.Fprintf(b, "- Battery level: %d%%\n", *h.BatteryLevel)
	}
	if h.LastSeen != nil {
		fmt.Fprintf(b, "- Last seen: %s\n", h.LastSeen.UTC().Format("2006-01-02T15:04:05Z"))
	}
	b.WriteString("\n")
}

func renderRecentEvents(b *strings.Builder, events []domain.DeviceEvent) {
	sorted := append([]domain.DeviceEvent(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].EpochMillis > sorted[j].EpochMillis })
	if len(sorted) > recentEventsDisplayLimit {
		sorted = sorted[:recentEventsDisplayLimit]
	}

	b.WriteString("## Recent Events\n")
	for _, e := range sorted {
		fmt.Fprintf(b, "- %s: %s.%s = %v\n", e.Time.UTC().Format("2006-01-02T15:04:05Z"), e.Capability, e.Attribute, e.Value)
	}
	b.WriteString("\n")
}

func renderDetectedPatterns(b *strings.Builder, issues []domain.IssuePattern) {
	b.WriteString("## Detected Patterns\n")
	for _, p := range issues {
		fmt.Fprintf(b, "- %s (%s, %d%%): %s\n", p.Type, p.Severity, int(p.Confidence*100), p.Description)
	}
	b.WriteString("\n")
}

func renderSimilarDevices(b *strings.Builder, similar []domain.SimilarDevice) {
	b.WriteString("## Similar Devices\n")
	for _, s := range similar {
		fmt.Fprintf(b, "- %s (similarity %d%%)\n", s.Device.DisplayName(), int(s.Similarity*100))
	}
	b.WriteString("\n")
}

func renderIdentifiedAutomations(b *strings.Builder, automations []domain.IdentifiedAutomation) {
	b.WriteString("## Identified Automations\n")
	for _, a := range automations {
		when := "unknown time"
		if a.TriggeredAt != nil {
			when = a.TriggeredAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		fmt.Fprintf(b, "- %s (%s, triggered %s)\n", a.RuleName, strings.Join(a.DeviceRoles, ", "), when)
	}
	b.WriteString("\n")
}

func renderSystemStatus(b *strings.Builder, status domain.SystemStatus) {
	b.WriteString("## System Status Overview\n")
	fmt.Fprintf(b, "- Total: %d / Healthy: %d / Warning: %d / Critical: %d\n\n",
		status.Buckets.Total, status.Buckets.Healthy, status.Buckets.Warning, status.Buckets.Critical)

	if len(status.RecentIssues) > 0 {
		b.WriteString("### Recent Issues\n")
		for _, p := range status.RecentIssues {
			fmt.Fprintf(b, "- %s (%s, %d%%): %s\n", p.Type, p.Severity, int(p.Confidence*100), p.Description)
		}
		b.WriteString("\n")
	}

	if len(status.WidePatterns) > 0 {
		b.WriteString("### System-Wide Patterns\n")
		for _, p := range status.WidePatterns {
			fmt.Fprintf(b, "- %s (%s, %d%%): %s\n", p.Type, p.Severity, int(p.Confidence*100), p.Description)
		}
		b.WriteString("\n")
	}
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func capabilityNames(d domain.UnifiedDevice) []string {
	tags := make([]string, 0, len(d.Capabilities))
	for tag := range d.Capabilities {
		tags = append(tags, string(tag))
	}
	sort.Strings(tags)
	if len(tags) == 0 {
		return []string{"none"}
	}
	return tags
}
