package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/meditriage/triage-core/internal/domain/entities"
	"github.com/meditriage/triage-core/internal/domain/providers"
	"github.com/meditriage/triage-core/internal/infrastructure/observability"
	"go.opentelemetry.io/otel/attribute"
)

// ProgressFunc is invoked at the start of every pipeline stage.
type ProgressFunc func(stepNumber int, stepTitle string)

// Stage temperatures. Triage classification runs coldest; the differential
// benefits from slightly more spread.
const (
	tempSymptomAnalysis = 0.3
	tempTriage          = 0.2
	tempDifferential    = 0.4
	tempRisk            = 0.3
	tempRecommendations = 0.3
)

const generationCacheTTLSeconds = 86400 // 24 hours

// WorkflowService runs the five-step clinical reasoning pipeline against a
// patient intake. Stages execute strictly sequentially: each stage's prompt
// includes part of the previous stage's output, so there is nothing to
// parallelize. One in-flight workflow holds the backend exclusively;
// concurrent executions need independent service instances.
type WorkflowService struct {
	generator providers.TextGenerator
	guard     *SafetyGuard
	analyzer  providers.ImageAnalyzer
	audit     *AuditService
	cache     providers.CacheProvider
	bus       providers.EventBus
	metrics   *observability.Metrics
}

// NewWorkflowService creates a new workflow service.
func NewWorkflowService(generator providers.TextGenerator, guard *SafetyGuard) *WorkflowService {
	return &WorkflowService{
		generator: generator,
		guard:     guard,
	}
}

// SetImageAnalyzer sets the optional image-description collaborator.
func (s *WorkflowService) SetImageAnalyzer(analyzer providers.ImageAnalyzer) {
	s.analyzer = analyzer
}

// SetAuditService sets the optional audit logger invoked after validation.
func (s *WorkflowService) SetAuditService(audit *AuditService) {
	s.audit = audit
}

// SetCache sets the optional cache for backend completions.
func (s *WorkflowService) SetCache(cache providers.CacheProvider) {
	s.cache = cache
}

// SetEventBus sets the optional bus for stage progress events.
func (s *WorkflowService) SetEventBus(bus providers.EventBus) {
	s.bus = bus
}

// SetMetrics sets the optional metrics recorder.
func (s *WorkflowService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// Execute runs the full pipeline for one intake. It fails fast with a
// wrapped providers.ErrModelNotReady if the backend cannot be prepared;
// afterwards it fails only when a backend call itself errors, aborting the
// remaining stages without retry and without a partial result. Image
// analysis failures are logged and skipped. The safety guard and the audit
// logger run before the result is returned.
func (s *WorkflowService) Execute(ctx context.Context, intake *entities.PatientIntake, onProgress ProgressFunc) (*entities.MedicalWorkflowResult, error) {
	if err := s.generator.Ready(ctx); err != nil {
		return nil, fmt.Errorf("cannot start workflow: %w", err)
	}

	caseID := uuid.NewString()
	logger := observability.LoggerFromContext(ctx).With().Str("case_id", caseID).Logger()
	started := time.Now()

	s.publish(ctx, caseID, entities.ProgressWorkflowStarted, 0, "")

	patientContext := buildPatientContext(intake)
	imagePerformed := false
	var imageDurationMS *int64

	if len(intake.ImagePaths) > 0 && s.analyzer != nil {
		imageStart := time.Now()
		for _, path := range intake.ImagePaths {
			description, err := s.analyzer.Analyze(ctx, path)
			if err != nil {
				logger.Warn().Err(err).Str("image", path).Msg("image analysis failed, skipping")
				continue
			}
			imagePerformed = true
			patientContext += fmt.Sprintf("Image finding (%s): %s\n", filepath.Base(path), description)
		}
		if imagePerformed {
			d := time.Since(imageStart).Milliseconds()
			imageDurationMS = &d
		}
	}

	var steps []entities.ReasoningStep
	stepDurations := make(map[string]int64)

	runStage := func(number int, title, prompt string, temperature float64) (string, error) {
		// Cancellation checkpoint: observed at stage boundaries only, never
		// mid-backend-call.
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if onProgress != nil {
			onProgress(number, title)
		}
		s.publish(ctx, caseID, entities.ProgressStepStarted, number, title)

		stageCtx, span := observability.StartSpan(ctx, "workflow.stage")
		observability.SetSpanAttributes(span,
			attribute.Int("workflow.step", number),
			attribute.String("workflow.title", title),
		)
		defer span.End()

		stageStart := time.Now()
		output, err := s.generate(stageCtx, prompt, temperature)
		elapsed := time.Since(stageStart)
		if err != nil {
			observability.RecordError(span, err)
			return "", fmt.Errorf("stage %d (%s) failed: %w", number, title, err)
		}

		steps = append(steps, entities.ReasoningStep{
			Number:     number,
			Title:      title,
			Content:    output,
			DurationMS: elapsed.Milliseconds(),
			Timestamp:  time.Now(),
		})
		stepDurations[title] = elapsed.Milliseconds()
		if s.metrics != nil {
			observability.RecordStageMetric(ctx, s.metrics, title, elapsed)
		}
		s.publish(ctx, caseID, entities.ProgressStepCompleted, number, title)
		return output, nil
	}

	symptomAnalysis, err := runStage(1, "Symptom Analysis", buildSymptomAnalysisPrompt(patientContext), tempSymptomAnalysis)
	if err != nil {
		return nil, err
	}

	triageOutput, err := runStage(2, "Triage Assessment", buildTriageAssessmentPrompt(patientContext, symptomAnalysis), tempTriage)
	if err != nil {
		return nil, err
	}
	triageLevel, matched := ParseTriageLevel(triageOutput)
	if !matched {
		logger.Info().Msg("no triage keyword in assessment output, defaulting to semi-urgent")
	}

	differentialOutput, err := runStage(3, "Differential Diagnosis", buildDifferentialPrompt(patientContext, triageLevel, symptomAnalysis), tempDifferential)
	if err != nil {
		return nil, err
	}
	diagnoses := ParseDiagnoses(differentialOutput)

	riskOutput, err := runStage(4, "Risk Stratification", buildRiskStratificationPrompt(patientContext, diagnoses), tempRisk)
	if err != nil {
		return nil, err
	}

	recommendationsOutput, err := runStage(5, "Recommendations", buildRecommendationsPrompt(patientContext, triageLevel, riskOutput), tempRecommendations)
	if err != nil {
		return nil, err
	}
	actions := ParseActions(recommendationsOutput, triageLevel)

	result := &entities.MedicalWorkflowResult{
		CaseID:      caseID,
		TriageLevel: triageLevel,
		Diagnoses:   diagnoses,
		Actions:     actions,
		Steps:       steps,
		Metrics: entities.PerformanceMetrics{
			TotalDurationMS:         time.Since(started).Milliseconds(),
			StepDurationsMS:         stepDurations,
			ModelID:                 s.generator.ModelID(),
			ThermalState:            "nominal",
			ImageAnalysisDurationMS: imageDurationMS,
		},
		Disclaimer:  resultDisclaimer,
		GeneratedAt: time.Now(),
	}

	result.SafetyAlerts = s.guard.Validate(result, intake)

	if s.audit != nil {
		s.audit.Record(ctx, intake, result, imagePerformed)
	}

	if s.metrics != nil {
		observability.RecordWorkflowMetric(ctx, s.metrics, string(result.TriageLevel))
	}

	s.publish(ctx, caseID, entities.ProgressWorkflowCompleted, 0, "")
	logger.Info().
		Str("triage_level", string(result.TriageLevel)).
		Int("diagnoses", len(result.Diagnoses)).
		Int("alerts", len(result.SafetyAlerts)).
		Int64("duration_ms", result.Metrics.TotalDurationMS).
		Msg("workflow completed")

	return result, nil
}

// generate calls the backend, consulting the completion cache first when one
// is configured.
func (s *WorkflowService) generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	var cacheKey string
	if s.cache != nil {
		cacheKey = generationCacheKey(triageSystemPrompt, prompt)
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			if s.metrics != nil {
				observability.RecordCacheHit(ctx, s.metrics, "generation")
			}
			return string(data), nil
		}
		if s.metrics != nil {
			observability.RecordCacheMiss(ctx, s.metrics, "generation")
		}
	}

	output, err := s.generator.Generate(ctx, triageSystemPrompt, prompt, temperature)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, []byte(output), generationCacheTTLSeconds); err != nil {
			observability.LoggerFromContext(ctx).Debug().Err(err).Msg("failed to cache completion")
		}
	}
	return output, nil
}

// publish emits a progress event on the shared workflow channel and on the
// per-case channel, so a consumer can follow one case without filtering.
func (s *WorkflowService) publish(ctx context.Context, caseID string, kind entities.ProgressEventKind, step int, title string) {
	if s.bus == nil {
		return
	}
	event := entities.NewProgressEvent(kind)
	event.CaseID = caseID
	event.StepNumber = step
	event.StepTitle = title
	for _, channel := range []string{providers.EventChannelWorkflow, providers.GetCaseChannel(caseID)} {
		if err := s.bus.Publish(ctx, channel, event); err != nil {
			observability.LoggerFromContext(ctx).Debug().Err(err).Str("channel", channel).Msg("failed to publish progress event")
		}
	}
}

func generationCacheKey(systemPrompt, prompt string) string {
	sum := sha256.Sum256([]byte(systemPrompt + "\x00" + prompt))
	return "generation:" + hex.EncodeToString(sum[:])
}
