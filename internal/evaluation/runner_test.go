package evaluation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/meditriage/triage-core/internal/application/services"
	"github.com/meditriage/triage-core/internal/domain/entities"
	"github.com/meditriage/triage-core/internal/domain/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// perfectExecutor echoes back exactly what each vignette expects, so every
// vignette scores a composite of 1.0.
type perfectExecutor struct {
	byPatient map[string]entities.BenchmarkVignette
	failFor   string // PatientID whose execution fails
	delay     time.Duration
	mu        sync.Mutex
	executed  []string
}

func newPerfectExecutor(vignettes []entities.BenchmarkVignette) *perfectExecutor {
	byPatient := make(map[string]entities.BenchmarkVignette, len(vignettes))
	for _, v := range vignettes {
		byPatient[v.Intake.PatientID] = v
	}
	return &perfectExecutor{byPatient: byPatient}
}

func (e *perfectExecutor) Execute(ctx context.Context, intake *entities.PatientIntake, onProgress services.ProgressFunc) (*entities.MedicalWorkflowResult, error) {
	e.mu.Lock()
	e.executed = append(e.executed, intake.PatientID)
	e.mu.Unlock()

	if e.delay > 0 {
		time.Sleep(e.delay)
	}

	v, ok := e.byPatient[intake.PatientID]
	if !ok {
		return nil, errors.New("unknown vignette")
	}
	if e.failFor == intake.PatientID {
		return nil, errors.New("backend down")
	}

	var diagnoses []entities.Diagnosis
	for _, kw := range v.ExpectedKeywords {
		diagnoses = append(diagnoses, entities.Diagnosis{Condition: kw, Probability: 0.8})
	}
	var alerts []entities.SafetyAlert
	for _, cat := range v.ExpectedSafetyCategories {
		alerts = append(alerts, entities.SafetyAlert{Severity: entities.AlertWarning, Category: cat, Title: "t", Message: "m"})
	}

	return &entities.MedicalWorkflowResult{
		CaseID:       intake.PatientID,
		TriageLevel:  v.ExpectedTriage,
		Diagnoses:    diagnoses,
		SafetyAlerts: alerts,
	}, nil
}

func (e *perfectExecutor) executedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.executed)
}

// runnerStore is a minimal in-memory DocumentStore.
type runnerStore struct {
	mu      sync.Mutex
	reports map[string]entities.BenchmarkReport
	modTime map[string]time.Time
}

func newRunnerStore() *runnerStore {
	return &runnerStore{
		reports: make(map[string]entities.BenchmarkReport),
		modTime: make(map[string]time.Time),
	}
}

func (s *runnerStore) Write(ctx context.Context, id string, doc any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	report, ok := doc.(*entities.BenchmarkReport)
	if !ok {
		return errors.New("unexpected document type")
	}
	s.reports[id] = *report
	s.modTime[id] = time.Now()
	return nil
}

func (s *runnerStore) Read(ctx context.Context, id string, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	report, ok := s.reports[id]
	if !ok {
		return providers.ErrDocumentNotFound
	}
	*out.(*entities.BenchmarkReport) = report
	return nil
}

func (s *runnerStore) List(ctx context.Context) ([]providers.DocumentInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	infos := make([]providers.DocumentInfo, 0, len(s.reports))
	for id := range s.reports {
		infos = append(infos, providers.DocumentInfo{ID: id, ModTime: s.modTime[id]})
	}
	return infos, nil
}

func (s *runnerStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}

func waitForRun(t *testing.T, r *Runner) {
	t.Helper()
	require.Eventually(t, func() bool {
		return !r.Status().Running
	}, 10*time.Second, 10*time.Millisecond)
}

func TestRunner_FullCorpus(t *testing.T) {
	vignettes := Corpus()
	executor := newPerfectExecutor(vignettes)
	store := newRunnerStore()
	runner := NewRunner(executor, store)

	require.NoError(t, runner.Start(context.Background()))
	waitForRun(t, runner)

	report := runner.LastReport()
	require.NotNil(t, report)

	assert.Equal(t, len(vignettes), report.VignetteCount)
	assert.Len(t, report.Results, len(vignettes))
	assert.Equal(t, 1.0, report.PassRate)
	assert.Equal(t, 1.0, report.MeanTriageScore)
	assert.Equal(t, 1.0, report.MeanDiagnosisRecall)
	assert.Equal(t, 1.0, report.MeanSafetyCoverage)
	assert.Equal(t, 1.0, report.MeanCompositeScore)

	// A perfect run puts every count on the confusion matrix diagonal.
	for expected, row := range report.ConfusionMatrix {
		for actual, count := range row {
			assert.Equal(t, expected, actual)
			assert.Positive(t, count)
		}
	}

	// Vignettes ran strictly in corpus order.
	executor.mu.Lock()
	defer executor.mu.Unlock()
	require.Len(t, executor.executed, len(vignettes))
	for i, v := range vignettes {
		assert.Equal(t, v.Intake.PatientID, executor.executed[i])
	}

	// The report was persisted and is loadable as the latest.
	assert.Equal(t, 1, store.count())
	loaded, err := LoadLatestReport(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, report.ID, loaded.ID)
}

// recordingBus captures event kinds published on the benchmark channel.
type recordingBus struct {
	mu    sync.Mutex
	kinds []entities.ProgressEventKind
}

func (b *recordingBus) Publish(ctx context.Context, channel string, event *entities.ProgressEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if channel == providers.EventChannelBenchmark {
		b.kinds = append(b.kinds, event.Kind)
	}
	return nil
}

func (b *recordingBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ProgressEvent, error) {
	return nil, errors.New("not supported")
}

func (b *recordingBus) Unsubscribe(ctx context.Context, channel string) error { return nil }

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) recorded() []entities.ProgressEventKind {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]entities.ProgressEventKind(nil), b.kinds...)
}

func TestRunner_PublishesVignetteProgressEvents(t *testing.T) {
	vignettes := Corpus()
	executor := newPerfectExecutor(vignettes)
	bus := &recordingBus{}
	runner := NewRunner(executor, newRunnerStore())
	runner.SetEventBus(bus)

	require.NoError(t, runner.Start(context.Background()))
	waitForRun(t, runner)

	// started + completed per vignette, then the run-completed marker,
	// which is published just after the run state flips.
	require.Eventually(t, func() bool {
		return len(bus.recorded()) == 2*len(vignettes)+1
	}, time.Second, 10*time.Millisecond)

	kinds := bus.recorded()
	assert.Equal(t, entities.ProgressVignetteStarted, kinds[0])
	assert.Equal(t, entities.ProgressVignetteCompleted, kinds[1])
	assert.Equal(t, entities.ProgressRunCompleted, kinds[len(kinds)-1])
}

func TestRunner_FailedVignetteScoresZeroAndRunContinues(t *testing.T) {
	vignettes := Corpus()
	executor := newPerfectExecutor(vignettes)
	executor.failFor = vignettes[0].Intake.PatientID
	runner := NewRunner(executor, newRunnerStore())

	require.NoError(t, runner.Start(context.Background()))
	waitForRun(t, runner)

	report := runner.LastReport()
	require.NotNil(t, report)
	require.Len(t, report.Results, len(vignettes))

	failed := report.Results[0]
	assert.NotEmpty(t, failed.ExecutionError)
	assert.Equal(t, 0.0, failed.CompositeScore)
	assert.False(t, failed.Passed)
	assert.Empty(t, failed.ActualTriage)

	// The remaining vignettes still scored.
	assert.Equal(t, 1.0, report.Results[1].CompositeScore)
	expectedPassRate := float64(len(vignettes)-1) / float64(len(vignettes))
	assert.InDelta(t, expectedPassRate, report.PassRate, 1e-9)
}

func TestRunner_RejectsConcurrentRuns(t *testing.T) {
	executor := newPerfectExecutor(Corpus())
	executor.delay = 50 * time.Millisecond
	runner := NewRunner(executor, newRunnerStore())

	require.NoError(t, runner.Start(context.Background()))
	err := runner.Start(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	waitForRun(t, runner)

	// After completion a new run is accepted again.
	require.NoError(t, runner.Start(context.Background()))
	waitForRun(t, runner)
}

func TestRunner_CancelPersistsNothing(t *testing.T) {
	executor := newPerfectExecutor(Corpus())
	executor.delay = 100 * time.Millisecond
	store := newRunnerStore()
	runner := NewRunner(executor, store)

	require.NoError(t, runner.Start(context.Background()))
	runner.Cancel()
	waitForRun(t, runner)

	assert.Nil(t, runner.LastReport())
	assert.Equal(t, 0, store.count())
	// At most the in-flight vignette finished; the rest never started.
	assert.Less(t, executor.executedCount(), len(Corpus()))
}

func TestRunner_StatusProgresses(t *testing.T) {
	executor := newPerfectExecutor(Corpus())
	executor.delay = 20 * time.Millisecond
	runner := NewRunner(executor, newRunnerStore())

	require.NoError(t, runner.Start(context.Background()))
	state := runner.Status()
	assert.True(t, state.Running)
	assert.Equal(t, len(Corpus()), state.Total)

	waitForRun(t, runner)
	final := runner.Status()
	assert.Equal(t, len(Corpus()), final.Completed)
}

func TestLoadLatestReport_Empty(t *testing.T) {
	_, err := LoadLatestReport(context.Background(), newRunnerStore())
	assert.ErrorIs(t, err, providers.ErrDocumentNotFound)
}
