package evaluation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meditriage/triage-core/internal/application/services"
	"github.com/meditriage/triage-core/internal/domain/entities"
	"github.com/meditriage/triage-core/internal/domain/providers"
	"github.com/meditriage/triage-core/internal/infrastructure/observability"
)

// ErrRunInProgress is returned by Start when a run is already active.
var ErrRunInProgress = errors.New("benchmark run already in progress")

// WorkflowExecutor abstracts the workflow engine for the harness so tests
// can substitute a stub backend.
type WorkflowExecutor interface {
	Execute(ctx context.Context, intake *entities.PatientIntake, onProgress services.ProgressFunc) (*entities.MedicalWorkflowResult, error)
}

// RunState is a snapshot of harness progress.
type RunState struct {
	Running      bool
	CurrentIndex int
	CurrentName  string
	Completed    int
	Total        int
}

// Runner replays the vignette corpus through the workflow engine and scores
// each run. Vignettes execute strictly one at a time: results accumulate
// into a single confusion matrix, so there is no cross-vignette parallelism.
// Cancellation is cooperative and observed at vignette boundaries only; an
// in-flight vignette is never interrupted mid-stage.
type Runner struct {
	executor  WorkflowExecutor
	store     providers.DocumentStore
	bus       providers.EventBus
	vignettes []entities.BenchmarkVignette

	mu         sync.Mutex
	state      RunState
	cancelRun  context.CancelFunc
	lastReport *entities.BenchmarkReport
}

// NewRunner creates a runner over the fixed corpus. store may be nil to skip
// report persistence.
func NewRunner(executor WorkflowExecutor, store providers.DocumentStore) *Runner {
	return &Runner{
		executor:  executor,
		store:     store,
		vignettes: Corpus(),
	}
}

// SetVignettes replaces the corpus, e.g. with supplemental loaded vignettes.
func (r *Runner) SetVignettes(vignettes []entities.BenchmarkVignette) {
	r.vignettes = vignettes
}

// SetEventBus sets the optional bus for vignette progress events.
func (r *Runner) SetEventBus(bus providers.EventBus) {
	r.bus = bus
}

// Start launches the run in the background. It returns ErrRunInProgress if a
// run is already active.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state.Running {
		r.mu.Unlock()
		return ErrRunInProgress
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancelRun = cancel
	r.state = RunState{Running: true, Total: len(r.vignettes)}
	r.mu.Unlock()

	go r.run(runCtx)
	return nil
}

// Cancel requests cancellation. The active vignette finishes; no report is
// produced for a cancelled run.
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelRun != nil {
		r.cancelRun()
	}
}

// Status returns a snapshot of the run state.
func (r *Runner) Status() RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// LastReport returns the report of the most recent completed run, or nil.
func (r *Runner) LastReport() *entities.BenchmarkReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastReport
}

func (r *Runner) run(ctx context.Context) {
	logger := observability.LoggerFromContext(ctx)
	report := &entities.BenchmarkReport{
		ID:              uuid.NewString(),
		StartedAt:       time.Now(),
		VignetteCount:   len(r.vignettes),
		ConfusionMatrix: make(map[entities.TriageLevel]map[entities.TriageLevel]int),
	}

	for i, vignette := range r.vignettes {
		// Cancellation checkpoint, once per vignette.
		if ctx.Err() != nil {
			r.finishCancelled(ctx)
			return
		}

		r.mu.Lock()
		r.state.CurrentIndex = i
		r.state.CurrentName = vignette.Name
		r.mu.Unlock()

		r.publish(ctx, entities.ProgressVignetteStarted, i, vignette.Name)

		result := r.runVignette(ctx, &vignette)
		r.updateReport(report, result)

		r.mu.Lock()
		r.state.Completed = i + 1
		r.mu.Unlock()

		r.publish(ctx, entities.ProgressVignetteCompleted, i, vignette.Name)
	}

	if ctx.Err() != nil {
		r.finishCancelled(ctx)
		return
	}

	finalizeReport(report)
	report.CompletedAt = time.Now()

	if r.store != nil {
		if err := r.store.Write(ctx, report.ID, report); err != nil {
			logger.Error().Err(err).Str("report_id", report.ID).Msg("failed to persist benchmark report")
		}
	}

	r.mu.Lock()
	r.lastReport = report
	r.state.Running = false
	r.cancelRun = nil
	r.mu.Unlock()

	r.publish(ctx, entities.ProgressRunCompleted, len(r.vignettes), "")
	logger.Info().
		Str("report_id", report.ID).
		Int("vignettes", report.VignetteCount).
		Float64("pass_rate", report.PassRate).
		Msg("benchmark run completed")
}

func (r *Runner) runVignette(ctx context.Context, vignette *entities.BenchmarkVignette) entities.VignetteResult {
	start := time.Now()
	vr := entities.VignetteResult{
		VignetteName:       vignette.Name,
		Category:           vignette.Category,
		ExpectedTriage:     vignette.ExpectedTriage,
		ExpectedCategories: vignette.ExpectedSafetyCategories,
	}

	result, err := r.executor.Execute(ctx, &vignette.Intake, nil)
	vr.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		// A failed execution scores zero; the run continues.
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("vignette", vignette.Name).Msg("vignette execution failed")
		vr.ExecutionError = err.Error()
		return vr
	}

	vr.ActualTriage = result.TriageLevel
	vr.TriageScore = TriageScore(vignette.ExpectedTriage, result.TriageLevel)
	vr.DiagnosisRecall, vr.MatchedKeywords = DiagnosisRecall(vignette.ExpectedKeywords, result)
	vr.SafetyCoverage, vr.TriggeredCategories = SafetyCoverage(vignette.ExpectedSafetyCategories, result.SafetyAlerts)
	vr.CompositeScore = CompositeScore(vr.TriageScore, vr.DiagnosisRecall, vr.SafetyCoverage)
	vr.Passed = vr.CompositeScore >= PassThreshold
	return vr
}

func (r *Runner) updateReport(report *entities.BenchmarkReport, vr entities.VignetteResult) {
	report.Results = append(report.Results, vr)
	report.MeanTriageScore += vr.TriageScore
	report.MeanDiagnosisRecall += vr.DiagnosisRecall
	report.MeanSafetyCoverage += vr.SafetyCoverage
	report.MeanCompositeScore += vr.CompositeScore
	if vr.Passed {
		report.PassRate++
	}

	if vr.ActualTriage != "" {
		row := report.ConfusionMatrix[vr.ExpectedTriage]
		if row == nil {
			row = make(map[entities.TriageLevel]int)
			report.ConfusionMatrix[vr.ExpectedTriage] = row
		}
		row[vr.ActualTriage]++
	}
}

func finalizeReport(report *entities.BenchmarkReport) {
	if len(report.Results) == 0 {
		return
	}
	n := float64(len(report.Results))
	report.MeanTriageScore /= n
	report.MeanDiagnosisRecall /= n
	report.MeanSafetyCoverage /= n
	report.MeanCompositeScore /= n
	report.PassRate /= n
}

func (r *Runner) finishCancelled(ctx context.Context) {
	r.mu.Lock()
	r.state.Running = false
	r.cancelRun = nil
	r.mu.Unlock()

	r.publish(ctx, entities.ProgressRunCancelled, 0, "")
	observability.LoggerFromContext(ctx).Info().Msg("benchmark run cancelled, no report produced")
}

func (r *Runner) publish(ctx context.Context, kind entities.ProgressEventKind, index int, name string) {
	if r.bus == nil {
		return
	}
	event := entities.NewProgressEvent(kind)
	event.VignetteIndex = index
	event.VignetteName = name
	if err := r.bus.Publish(ctx, providers.EventChannelBenchmark, event); err != nil {
		observability.LoggerFromContext(ctx).Debug().Err(err).Msg("failed to publish benchmark event")
	}
}

// LoadLatestReport returns the most recently modified report in the store.
func LoadLatestReport(ctx context.Context, store providers.DocumentStore) (*entities.BenchmarkReport, error) {
	infos, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, providers.ErrDocumentNotFound
	}

	latest := infos[0]
	for _, info := range infos[1:] {
		if info.ModTime.After(latest.ModTime) {
			latest = info
		}
	}

	var report entities.BenchmarkReport
	if err := store.Read(ctx, latest.ID, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
