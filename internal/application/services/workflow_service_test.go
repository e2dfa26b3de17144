package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/meditriage/triage-core/internal/domain/entities"
	"github.com/meditriage/triage-core/internal/domain/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGenerator replays canned stage outputs in call order.
type scriptedGenerator struct {
	outputs  []string
	calls    int
	failAt   int // 1-based call index that fails, 0 for never
	readyErr error
}

func (g *scriptedGenerator) Generate(ctx context.Context, systemPrompt, prompt string, temperature float64) (string, error) {
	g.calls++
	if g.failAt != 0 && g.calls == g.failAt {
		return "", errors.New("backend down")
	}
	if g.calls > len(g.outputs) {
		return "", fmt.Errorf("unexpected call %d", g.calls)
	}
	return g.outputs[g.calls-1], nil
}

func (g *scriptedGenerator) Ready(ctx context.Context) error {
	if g.readyErr != nil {
		return g.readyErr
	}
	return nil
}

func (g *scriptedGenerator) ModelID() string { return "stub/test-model" }

func emergencyScript() []string {
	return []string{
		"Acute chest pain with autonomic symptoms, concerning for a cardiac event.",
		"EMERGENCY. This presentation is potentially life-threatening, call 911.",
		"1. Myocardial infarction: most likely given the presentation\n2. Unstable angina: possible\n3. Aortic dissection: unlikely but cannot be excluded",
		"Very high short-term risk. Time-critical intervention window.",
		"1. Call 911 immediately\n2. Chew aspirin if not allergic\n3. Do not drive yourself",
	}
}

func emergencyIntake() *entities.PatientIntake {
	hr := 112
	return &entities.PatientIntake{
		PatientID:      "p-100",
		Age:            58,
		Sex:            entities.SexMale,
		ChiefComplaint: "Crushing chest pain radiating to the left arm",
		Symptoms:       []string{"chest pain", "sweating", "nausea"},
		Severity:       entities.SeveritySevere,
		Vitals:         &entities.VitalSigns{HeartRate: &hr},
		ConsentToStore: true,
	}
}

func TestWorkflowService_Execute_Emergency(t *testing.T) {
	gen := &scriptedGenerator{outputs: emergencyScript()}
	store := newMemoryStore()
	svc := NewWorkflowService(gen, NewSafetyGuard())
	svc.SetAuditService(NewAuditService(store, nil))

	var progress []string
	result, err := svc.Execute(context.Background(), emergencyIntake(), func(n int, title string) {
		progress = append(progress, fmt.Sprintf("%d:%s", n, title))
	})
	require.NoError(t, err)

	assert.Equal(t, entities.TriageEmergency, result.TriageLevel)
	assert.NotEmpty(t, result.CaseID)
	assert.Equal(t, 5, gen.calls)

	require.Len(t, result.Steps, 5)
	assert.Equal(t, "Symptom Analysis", result.Steps[0].Title)
	assert.Equal(t, "Recommendations", result.Steps[4].Title)

	require.Len(t, result.Diagnoses, 3)
	assert.Equal(t, "Myocardial infarction", result.Diagnoses[0].Condition)
	assert.Equal(t, 0.8, result.Diagnoses[0].Probability)

	require.NotEmpty(t, result.Actions)
	for _, a := range result.Actions {
		assert.Equal(t, entities.PriorityImmediate, a.Priority)
	}

	require.NotEmpty(t, result.SafetyAlerts)
	assert.Equal(t, entities.AlertCritical, result.SafetyAlerts[0].Severity)
	assert.Equal(t, "Call 911", result.SafetyAlerts[0].Action)

	assert.Equal(t, "stub/test-model", result.Metrics.ModelID)
	assert.Len(t, result.Metrics.StepDurationsMS, 5)
	assert.NotEmpty(t, result.Disclaimer)

	assert.Equal(t, []string{
		"1:Symptom Analysis",
		"2:Triage Assessment",
		"3:Differential Diagnosis",
		"4:Risk Stratification",
		"5:Recommendations",
	}, progress)

	// The audit entry was persisted under the case id.
	entry := &entities.AuditEntry{}
	require.NoError(t, store.Read(context.Background(), result.CaseID, entry))
	assert.Equal(t, entities.TriageEmergency, entry.TriageLevel)
	assert.Len(t, entry.Steps, 5)
}

// captureBus records published events per channel.
type captureBus struct {
	events map[string][]*entities.ProgressEvent
}

func (b *captureBus) Publish(ctx context.Context, channel string, event *entities.ProgressEvent) error {
	if b.events == nil {
		b.events = make(map[string][]*entities.ProgressEvent)
	}
	b.events[channel] = append(b.events[channel], event)
	return nil
}

func (b *captureBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ProgressEvent, error) {
	return nil, errors.New("not supported")
}

func (b *captureBus) Unsubscribe(ctx context.Context, channel string) error { return nil }

func (b *captureBus) Close() error { return nil }

func TestWorkflowService_Execute_PublishesProgressToWorkflowAndCaseChannels(t *testing.T) {
	gen := &scriptedGenerator{outputs: emergencyScript()}
	bus := &captureBus{}
	svc := NewWorkflowService(gen, NewSafetyGuard())
	svc.SetEventBus(bus)

	result, err := svc.Execute(context.Background(), emergencyIntake(), nil)
	require.NoError(t, err)

	// workflow_started + 5 x (step_started, step_completed) + workflow_completed.
	workflowEvents := bus.events[providers.EventChannelWorkflow]
	require.Len(t, workflowEvents, 12)
	assert.Equal(t, entities.ProgressWorkflowStarted, workflowEvents[0].Kind)
	assert.Equal(t, entities.ProgressWorkflowCompleted, workflowEvents[11].Kind)

	caseEvents := bus.events[providers.GetCaseChannel(result.CaseID)]
	require.Len(t, caseEvents, 12)
	for i, event := range caseEvents {
		assert.Equal(t, result.CaseID, event.CaseID)
		assert.Equal(t, workflowEvents[i].Kind, event.Kind)
	}
}

func TestWorkflowService_Execute_NotReadyFailsFast(t *testing.T) {
	gen := &scriptedGenerator{readyErr: fmt.Errorf("loading: %w", providers.ErrModelNotReady)}
	svc := NewWorkflowService(gen, NewSafetyGuard())

	result, err := svc.Execute(context.Background(), emergencyIntake(), nil)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, providers.ErrModelNotReady)
	assert.Zero(t, gen.calls)
}

func TestWorkflowService_Execute_BackendFailureAborts(t *testing.T) {
	gen := &scriptedGenerator{outputs: emergencyScript(), failAt: 3}
	svc := NewWorkflowService(gen, NewSafetyGuard())

	result, err := svc.Execute(context.Background(), emergencyIntake(), nil)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage 3")
	// No retry: the failing stage is called exactly once and nothing follows.
	assert.Equal(t, 3, gen.calls)
}

func TestWorkflowService_Execute_CancelledContext(t *testing.T) {
	gen := &scriptedGenerator{outputs: emergencyScript()}
	svc := NewWorkflowService(gen, NewSafetyGuard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.Execute(ctx, emergencyIntake(), nil)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, gen.calls)
}

func TestWorkflowService_Execute_DefaultTriageWhenUnparseable(t *testing.T) {
	script := emergencyScript()
	script[1] = "The assessment could not be completed in the requested format."
	gen := &scriptedGenerator{outputs: script}
	svc := NewWorkflowService(gen, NewSafetyGuard())

	result, err := svc.Execute(context.Background(), emergencyIntake(), nil)
	require.NoError(t, err)
	assert.Equal(t, entities.TriageSemiUrgent, result.TriageLevel)
}

func TestWorkflowService_Execute_AuditFailureDoesNotFailWorkflow(t *testing.T) {
	gen := &scriptedGenerator{outputs: emergencyScript()}
	store := newMemoryStore()
	store.failAll = true
	svc := NewWorkflowService(gen, NewSafetyGuard())
	svc.SetAuditService(NewAuditService(store, nil))

	result, err := svc.Execute(context.Background(), emergencyIntake(), nil)
	require.NoError(t, err)
	assert.NotNil(t, result)
}
