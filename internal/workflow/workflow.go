// Package workflow implements the Diagnostic Workflow Orchestrator (C5):
// three-stage device resolution, a per-intent data-gathering plan fanned
// out with settle-all semantics, rich-context Markdown synthesis and the
// evidence-based recommendation engine.
package workflow

import (
	"context"
	"time"

	"github.com/smarthome-ai/diagnostic-core/internal/common/logger"
	"github.com/smarthome-ai/diagnostic-core/internal/deviceservice"
	"github.com/smarthome-ai/diagnostic-core/internal/domain"
	"github.com/smarthome-ai/diagnostic-core/internal/patterns"
	"github.com/smarthome-ai/diagnostic-core/internal/registry"
	"github.com/smarthome-ai/diagnostic-core/internal/semanticindex"
)

// Deps wires the workflow's external collaborators. Only Registry is
// required for the workflow to do anything useful; every other field may
// be left nil and the corresponding data-gathering tasks are skipped,
// never fail the workflow.
type Deps struct {
	Registry           *registry.Registry
	Index              *semanticindex.Index
	Detector           *patterns.Detector
	DeviceService      deviceservice.DeviceService
	AutomationService  deviceservice.AutomationService
	Clock              func() time.Time
}

// Workflow is the orchestrator. Build one with New and reuse it across
// requests — it holds no per-request mutable state.
type Workflow struct {
	deps Deps
	log  logger.Logger
}

// New builds a Workflow. deps.Clock defaults to time.Now.
func New(deps Deps) *Workflow {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Workflow{deps: deps, log: logger.NewLogger("workflow")}
}

// ExecuteDiagnosticWorkflow never errors: every failure mode downgrades to
// a narrower report rather than propagating, per the specification's
// "always produces a report" contract.
func (w *Workflow) ExecuteDiagnosticWorkflow(ctx context.Context, classification domain.IntentClassification, userMessage string) domain.DiagnosticReport {
	device := w.resolveDevice(ctx, classification.Entities, userMessage)

	dctx := w.gather(ctx, classification.Intent, device, userMessage)

	recommendations := buildRecommendations(classification.Intent, dctx)
	rich := renderRichContext(dctx)

	return domain.DiagnosticReport{
		Summary:         buildSummary(dctx.Device, recommendations),
		Context:         dctx,
		RichContext:     rich,
		Recommendations: recommendations,
		Confidence:      classification.Confidence,
		Timestamp:       w.deps.Clock().UTC(),
	}
}

// resolveDevice runs the three-stage resolution, stopping at first success.
// Total failure is non-fatal: it returns nil and the workflow proceeds with
// an empty device context.
func (w *Workflow) resolveDevice(ctx context.Context, entities domain.Entities, userMessage string) *domain.UnifiedDevice {
	if w.deps.Registry == nil {
		return nil
	}

	if entities.DeviceID != "" {
		if d, ok := w.deps.Registry.GetDevice(entities.DeviceID); ok {
			return &d
		}
	}

	if entities.DeviceName != "" && w.deps.Index != nil {
		hits, err := w.deps.Index.SearchDevices(entities.DeviceName, semanticindex.SearchOptions{
			Limit:         1,
			MinSimilarity: 0.7,
		})
		if err == nil && len(hits) > 0 {
			if d, ok := w.deps.Registry.GetDevice(hits[0].DeviceID); ok {
				return &d
			}
		}
	}

	if d, ok := w.deps.Registry.ResolveDevice(userMessage); ok {
		return &d
	}

	return nil
}

// buildSummary renders the one-line synthesis. Modelled on the teacher's
// DiagnosisEngine.generateSummary: a short, generic fallback when there is
// nothing to report, otherwise a single derived sentence.
func buildSummary(device *domain.UnifiedDevice, recommendations []string) string {
	if device == nil {
		return "No specific device identified for this request."
	}
	if len(recommendations) == 0 {
		return "Diagnosis for " + device.DisplayName() + ": no actionable findings."
	}
	return "Diagnosis for " + device.DisplayName() + ": " + recommendations[0]
}
