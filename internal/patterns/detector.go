// Package patterns implements the Pattern Detector (C4): four concurrent
// event-analysis algorithms producing severity-scored IssuePattern values.
package patterns

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/smarthome-ai/diagnostic-core/internal/common/logger"
	"github.com/smarthome-ai/diagnostic-core/internal/domain"
)

// BatteryReader is the narrow slice of DeviceService the battery-degradation
// algorithm depends on.
type BatteryReader interface {
	GetBatteryLevel(ctx context.Context, deviceID domain.UniversalDeviceId) (int, bool, error)
}

// Thresholds carries the tunable cutoffs for each algorithm, sourced from
// config.PatternConfig/config.BatteryConfig.
type Thresholds struct {
	ConnectivityGapMs int64
	RapidGapMs        int64
	AutomationGapMs   int64
	StormWindowMs     int64
	StormCount        int
	FailureRun        int
	BatteryLow        int
	BatteryCritical   int
}

// DefaultThresholds mirrors the specification's literal default values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ConnectivityGapMs: 3_600_000,
		RapidGapMs:        10_000,
		AutomationGapMs:   5_000,
		StormWindowMs:     60_000,
		StormCount:        20,
		FailureRun:        5,
		BatteryLow:        20,
		BatteryCritical:   10,
	}
}

// Result is the output of DetectAll.
type Result struct {
	Patterns              []domain.IssuePattern
	EventsAnalyzed        int
	AllAlgorithmsSucceeded bool
	Errors                []error
}

// Detector runs the four pattern-detection algorithms.
type Detector struct {
	log        logger.Logger
	thresholds Thresholds
	battery    BatteryReader
}

// New builds a Detector. battery may be nil — the battery-degradation
// algorithm degrades to "emit nothing" when unset, same as on API error.
func New(thresholds Thresholds, battery BatteryReader) *Detector {
	return &Detector{
		log:        logger.NewLogger("patterns"),
		thresholds: thresholds,
		battery:    battery,
	}
}

// algoResult is one algorithm's settle-all outcome.
type algoResult struct {
	pattern *domain.IssuePattern
	err     error
}

// DetectAll runs the four algorithms concurrently and joins them with
// settle-all semantics: an individual algorithm's failure is recorded but
// never aborts the others. Each goroutine always returns nil to the
// errgroup regardless of its own algorithm's outcome, the same
// never-cancel-siblings shape used by the workflow orchestrator's fan-outs
// (internal/workflow/plan.go, system_status.go), itself grounded on the
// teacher's ParallelExecutor.
func (d *Detector) DetectAll(ctx context.Context, deviceID domain.UniversalDeviceId, events []domain.DeviceEvent) Result {
	algorithms := []func(context.Context, domain.UniversalDeviceId, []domain.DeviceEvent) algoResult{
		d.connectivityGap,
		d.automationConflict,
		d.eventAnomaly,
		d.batteryDegradation,
	}

	results := make([]algoResult, len(algorithms))

	g, gctx := errgroup.WithContext(ctx)
	for i, algo := range algorithms {
		i, algo := i, algo
		g.Go(func() error {
			results[i] = algo(gctx, deviceID, events)
			return nil
		})
	}
	_ = g.Wait()

	var patterns []domain.IssuePattern
	var errs []error
	succeeded := true

	for _, r := range results {
		if r.err != nil {
			succeeded = false
			errs = append(errs, r.err)
			continue
		}
		if r.pattern != nil {
			patterns = append(patterns, *r.pattern)
		}
	}

	if len(patterns) == 0 {
		patterns = append(patterns, domain.IssuePattern{
			Type:        domain.PatternNormal,
			Description: "No unusual patterns detected in recent activity.",
			Confidence:  0.95,
			Severity:    domain.SeverityLow,
			Score:       0,
		})
	}

	sortPatterns(patterns)

	return Result{
		Patterns:               patterns,
		EventsAnalyzed:         len(events),
		AllAlgorithmsSucceeded: succeeded,
		Errors:                 errs,
	}
}

// sortPatterns orders by severity (critical > high > medium > low), then
// descending score, then by type for determinism.
func sortPatterns(patterns []domain.IssuePattern) {
	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].Severity != patterns[j].Severity {
			return patterns[i].Severity > patterns[j].Severity
		}
		if patterns[i].Score != patterns[j].Score {
			return patterns[i].Score > patterns[j].Score
		}
		return patterns[i].Type < patterns[j].Type
	})
}

func sortByEpochAsc(events []domain.DeviceEvent) []domain.DeviceEvent {
	out := append([]domain.DeviceEvent(nil), events...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].EpochMillis < out[j].EpochMillis })
	return out
}
