package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/meditriage/triage-core/internal/domain/entities"
	"github.com/meditriage/triage-core/internal/domain/providers"
	"github.com/meditriage/triage-core/internal/domain/repositories"
	"github.com/meditriage/triage-core/internal/infrastructure/observability"
)

// hashPrefixLen is the number of hex characters kept from each SHA-256
// digest. Long enough to be collision-safe for audit volumes, short enough to
// keep entries compact.
const hashPrefixLen = 16

// AuditService persists a hashed, privacy-preserving trace of each workflow
// execution. Entries are one JSON document per case id, append-create-only.
// Persistence failures are logged and swallowed: compliance logging must
// never block or fail clinical functionality.
type AuditService struct {
	store   providers.DocumentStore
	archive repositories.AuditArchiveRepository // optional SQL mirror
}

// NewAuditService creates a new audit service. archive may be nil.
func NewAuditService(store providers.DocumentStore, archive repositories.AuditArchiveRepository) *AuditService {
	return &AuditService{store: store, archive: archive}
}

// Record builds and persists the audit entry for one completed workflow.
func (s *AuditService) Record(ctx context.Context, intake *entities.PatientIntake, result *entities.MedicalWorkflowResult, imageAnalysisPerformed bool) {
	entry := BuildAuditEntry(intake, result, imageAnalysisPerformed)
	logger := observability.LoggerFromContext(ctx)

	if err := s.store.Write(ctx, entry.CaseID, entry); err != nil {
		logger.Error().Err(err).Str("case_id", entry.CaseID).Msg("failed to persist audit entry")
	}

	if s.archive != nil {
		if err := s.archive.Insert(ctx, entry); err != nil {
			logger.Warn().Err(err).Str("case_id", entry.CaseID).Msg("failed to archive audit entry")
		}
	}
}

// Load returns the audit entry for a case id, or ErrDocumentNotFound.
func (s *AuditService) Load(ctx context.Context, caseID string) (*entities.AuditEntry, error) {
	var entry entities.AuditEntry
	if err := s.store.Read(ctx, caseID, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// LoadAll returns every readable audit entry, newest first. Unreadable or
// malformed documents are skipped.
func (s *AuditService) LoadAll(ctx context.Context) ([]entities.AuditEntry, error) {
	infos, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	logger := observability.LoggerFromContext(ctx)
	entries := make([]entities.AuditEntry, 0, len(infos))
	for _, info := range infos {
		var entry entities.AuditEntry
		if err := s.store.Read(ctx, info.ID, &entry); err != nil {
			logger.Warn().Err(err).Str("document_id", info.ID).Msg("skipping unreadable audit entry")
			continue
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// BuildAuditEntry derives the privacy-preserving audit entry from a workflow
// result. Every free-text field is reduced to a fixed-length hash.
func BuildAuditEntry(intake *entities.PatientIntake, result *entities.MedicalWorkflowResult, imageAnalysisPerformed bool) *entities.AuditEntry {
	steps := make([]entities.AuditStepRecord, len(result.Steps))
	for i, step := range result.Steps {
		steps[i] = entities.AuditStepRecord{
			Number:      step.Number,
			TitleHash:   HashText(step.Title),
			ContentHash: HashText(step.Content),
			DurationMS:  step.DurationMS,
		}
	}

	summary := entities.AlertSummary{}
	seen := make(map[entities.AlertCategory]struct{})
	for _, alert := range result.SafetyAlerts {
		switch alert.Severity {
		case entities.AlertCritical:
			summary.CriticalCount++
		case entities.AlertWarning:
			summary.WarningCount++
		case entities.AlertInfo:
			summary.InfoCount++
		}
		if _, ok := seen[alert.Category]; !ok {
			seen[alert.Category] = struct{}{}
			summary.Categories = append(summary.Categories, alert.Category)
		}
	}

	return &entities.AuditEntry{
		CaseID:                 result.CaseID,
		ModelID:                result.Metrics.ModelID,
		ModelVersion:           modelVersion(result.Metrics.ModelID),
		Steps:                  steps,
		TriageLevel:            result.TriageLevel,
		Alerts:                 summary,
		Performance:            result.Metrics,
		PatientDataHash:        HashText(intake.PatientID + "|" + intake.ChiefComplaint + "|" + strings.Join(intake.Symptoms, ",")),
		ImageAnalysisPerformed: imageAnalysisPerformed,
		Consent: entities.ConsentFlags{
			StoreRecord:   intake.ConsentToStore,
			ImageAnalysis: imageAnalysisPerformed,
		},
		CreatedAt: time.Now(),
	}
}

// modelVersion extracts the model segment of a "provider/model" backend id.
// Backends without a provider prefix have no separate version.
func modelVersion(modelID string) string {
	if i := strings.IndexByte(modelID, '/'); i >= 0 {
		return modelID[i+1:]
	}
	return ""
}

// HashText returns the truncated hex SHA-256 digest of text. The digest is
// deterministic, so identical text always hashes identically, but the
// original text cannot be reconstructed from the entry.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:hashPrefixLen]
}
