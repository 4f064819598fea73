package workflow

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/smarthome-ai/diagnostic-core/internal/domain"
)

// systemWideConnectivityThreshold is the number of devices that must share
// a connectivity_gap pattern before the aggregate view calls it out as a
// system-wide pattern rather than N independent per-device ones.
const systemWideConnectivityThreshold = 3

// recentIssuesLimit caps how many per-device issues the aggregate view
// surfaces, so a large fleet doesn't produce an unbounded report section.
const recentIssuesLimit = 10

// buildSystemStatus derives the SYSTEM_STATUS aggregate: a healthy/warning/
// critical bucket count from the registry snapshot (no external calls —
// Online/BatteryLevel are already cached there), plus a bounded sweep of
// per-device pattern detection to surface system-wide issues.
func (w *Workflow) buildSystemStatus(ctx context.Context) *domain.SystemStatus {
	if w.deps.Registry == nil {
		return nil
	}

	devices := w.deps.Registry.GetAllDevices()

	buckets := domain.SystemStatusBucket{Total: len(devices)}
	for _, d := range devices {
		switch {
		case !d.Online:
			buckets.Critical++
		case d.BatteryLevel != nil && *d.BatteryLevel < 20:
			buckets.Warning++
		default:
			buckets.Healthy++
		}
	}

	status := &domain.SystemStatus{Buckets: buckets}

	if w.deps.DeviceService == nil || w.deps.Detector == nil {
		return status
	}

	type deviceIssues struct {
		patterns []domain.IssuePattern
	}

	results := make([]deviceIssues, len(devices))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for i, d := range devices {
		i, d := i, d
		g.Go(func() error {
			events, err := w.deps.DeviceService.GetDeviceEvents(gctx, d.ID, domain.EventQuery{Limit: 50})
			if err != nil {
				return nil
			}
			result := w.deps.Detector.DetectAll(gctx, d.ID, events.Events)
			results[i] = deviceIssues{patterns: result.Patterns}
			return nil
		})
	}
	_ = g.Wait()

	connectivityGapDevices := 0
	for _, r := range results {
		for _, p := range r.patterns {
			if p.Type == domain.PatternNormal {
				continue
			}
			if p.Type == domain.PatternConnectivityGap {
				connectivityGapDevices++
			}
			if len(status.RecentIssues) < recentIssuesLimit {
				status.RecentIssues = append(status.RecentIssues, p)
			}
		}
	}

	if connectivityGapDevices >= systemWideConnectivityThreshold {
		status.WidePatterns = append(status.WidePatterns, domain.IssuePattern{
			Type:        domain.PatternSystemWideConn,
			Description: "connectivity gaps observed across multiple devices",
			Occurrences: connectivityGapDevices,
			Confidence:  0.9,
			Severity:    domain.SeverityHigh,
			Score:       0.8,
		})
	}

	return status
}
