package workflow

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/smarthome-ai/diagnostic-core/internal/domain"
	"github.com/smarthome-ai/diagnostic-core/internal/patterns"
	"github.com/smarthome-ai/diagnostic-core/internal/semanticindex"
)

var errNoDeviceService = errors.New("device service not configured")

const (
	similarDevicesDefaultLimit = 5
	discoveryLimit             = 10
)

// taskFunc is one independently-awaited data-gathering operation.
type taskFunc func(ctx context.Context) (interface{}, error)

// taskOutcome is one task's settle-all result: exactly one of value/err is
// meaningful.
type taskOutcome struct {
	value interface{}
	err   error
}

// runTasks launches every task concurrently and joins them with settle-all
// semantics: a task's failure is recorded in its own outcome and never
// aborts its siblings. Modelled on the teacher's ParallelExecutor
// (internal/planning/executor.go) — each goroutine always returns nil to
// the errgroup so a failing task can never cancel the shared context.
func runTasks(ctx context.Context, tasks map[string]taskFunc) map[string]taskOutcome {
	results := make(map[string]taskOutcome, len(tasks))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for name, fn := range tasks {
		name, fn := name, fn
		g.Go(func() error {
			value, err := fn(gctx)
			mu.Lock()
			results[name] = taskOutcome{value: value, err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// gather builds the DiagnosticContext for classification.Intent, launching
// every planned task concurrently and populating only the fields whose
// task fulfilled.
func (w *Workflow) gather(ctx context.Context, intent domain.IntentType, device *domain.UnifiedDevice, userMessage string) domain.DiagnosticContext {
	dctx := domain.DiagnosticContext{Device: device}

	switch intent {
	case domain.IntentDeviceHealth:
		if device == nil {
			return dctx
		}
		w.gatherDeviceCentric(ctx, device, 50, false, &dctx)

	case domain.IntentIssueDiagnosis:
		if device == nil {
			return dctx
		}
		w.gatherDeviceCentric(ctx, device, 100, true, &dctx)

	case domain.IntentDiscovery:
		query := userMessage
		if device != nil {
			query = device.DisplayName()
		}
		dctx.SimilarDevices = w.searchSimilar(ctx, query, discoveryLimit)

	case domain.IntentSystemStatus:
		dctx.SystemStatus = w.buildSystemStatus(ctx)

	case domain.IntentModeManagement, domain.IntentNormalQuery:
		// Nothing to gather: minimal report with empty context.
	}

	return dctx
}

// gatherDeviceCentric runs the DEVICE_HEALTH/ISSUE_DIAGNOSIS task set: device
// status, recent events, patterns (derived from an independently-fetched
// event window, so every task stays self-contained and launchable in any
// order), similar devices, and — for ISSUE_DIAGNOSIS — automation evidence.
func (w *Workflow) gatherDeviceCentric(ctx context.Context, device *domain.UnifiedDevice, eventLimit int, includeAutomations bool, dctx *domain.DiagnosticContext) {
	tasks := map[string]taskFunc{
		"status": func(ctx context.Context) (interface{}, error) {
			if w.deps.DeviceService == nil {
				return nil, errNoDeviceService
			}
			return w.deps.DeviceService.GetDeviceStatus(ctx, device.ID)
		},
		"events": func(ctx context.Context) (interface{}, error) {
			if w.deps.DeviceService == nil {
				return nil, errNoDeviceService
			}
			return w.deps.DeviceService.GetDeviceEvents(ctx, device.ID, domain.EventQuery{Limit: eventLimit})
		},
		"patterns": func(ctx context.Context) (interface{}, error) {
			if w.deps.DeviceService == nil || w.deps.Detector == nil {
				return nil, errNoDeviceService
			}
			result, err := w.deps.DeviceService.GetDeviceEvents(ctx, device.ID, domain.EventQuery{Limit: eventLimit})
			if err != nil {
				return nil, err
			}
			return w.deps.Detector.DetectAll(ctx, device.ID, result.Events), nil
		},
		"similar": func(ctx context.Context) (interface{}, error) {
			return w.searchSimilar(ctx, device.DisplayName(), similarDevicesDefaultLimit), nil
		},
	}

	if includeAutomations {
		tasks["automations"] = func(ctx context.Context) (interface{}, error) {
			if w.deps.AutomationService == nil {
				return nil, nil
			}
			return w.deps.AutomationService.FindRulesForDevice(ctx, device.ID, "")
		}
	}

	results := runTasks(ctx, tasks)

	if r, ok := results["status"]; ok && r.err == nil {
		if h, ok := r.value.(domain.HealthData); ok {
			dctx.HealthData = &h
		}
	}
	if r, ok := results["events"]; ok && r.err == nil {
		if er, ok := r.value.(domain.DeviceEventResult); ok {
			dctx.RecentEvents = er.Events
		}
	}
	if r, ok := results["patterns"]; ok && r.err == nil {
		if pr, ok := r.value.(patterns.Result); ok {
			dctx.RelatedIssues = pr.Patterns
		}
	}
	if r, ok := results["similar"]; ok && r.err == nil {
		if sd, ok := r.value.([]domain.SimilarDevice); ok {
			dctx.SimilarDevices = sd
		}
	}
	if r, ok := results["automations"]; ok && r.err == nil {
		if au, ok := r.value.([]domain.IdentifiedAutomation); ok {
			dctx.IdentifiedAutomations = au
		}
	}
}

// searchSimilar wraps the semantic index search, returning an empty slice
// (never erroring the caller) when the index is unset or the search fails.
func (w *Workflow) searchSimilar(ctx context.Context, query string, limit int) []domain.SimilarDevice {
	if w.deps.Index == nil || query == "" {
		return nil
	}
	hits, err := w.deps.Index.SearchDevices(query, semanticindex.SearchOptions{Limit: limit})
	if err != nil {
		return nil
	}
	out := make([]domain.SimilarDevice, 0, len(hits))
	for _, h := range hits {
		out = append(out, domain.SimilarDevice{Device: h.Device, Similarity: h.Score})
	}
	return out
}

