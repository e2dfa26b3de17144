// Package database implements SQL persistence adapters on PostgreSQL.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/meditriage/triage-core/internal/domain/entities"
	"github.com/meditriage/triage-core/internal/infrastructure/clients/postgres"
	"github.com/meditriage/triage-core/internal/infrastructure/observability"
	apperrors "github.com/meditriage/triage-core/pkg/errors"
)

const auditTable = "audit_entries"

// AuditArchiveAdapter mirrors audit entries into Postgres for long-term
// retention. Structured fields are stored as JSONB; no raw patient text is
// ever written.
type AuditArchiveAdapter struct {
	client  *postgres.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

// NewAuditArchiveAdapter creates a new audit archive adapter.
func NewAuditArchiveAdapter(client *postgres.Client) *AuditArchiveAdapter {
	return &AuditArchiveAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// SetMetrics sets the optional recorder for query durations.
func (a *AuditArchiveAdapter) SetMetrics(metrics *observability.Metrics) {
	a.metrics = metrics
}

func (a *AuditArchiveAdapter) recordQuery(ctx context.Context, operation string, started time.Time) {
	if a.metrics == nil {
		return
	}
	observability.RecordDBMetric(ctx, a.metrics, operation, time.Since(started))
}

// Insert appends an audit entry to the archive.
func (a *AuditArchiveAdapter) Insert(ctx context.Context, entry *entities.AuditEntry) error {
	if entry == nil {
		return apperrors.NewInternalError("audit entry is nil", fmt.Errorf("audit entry is nil"))
	}
	defer a.recordQuery(ctx, "audit_insert", time.Now())

	steps, err := json.Marshal(entry.Steps)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal audit steps", err)
	}
	alerts, err := json.Marshal(entry.Alerts)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal alert summary", err)
	}
	performance, err := json.Marshal(entry.Performance)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal performance metrics", err)
	}

	record := goqu.Record{
		"case_id":                  entry.CaseID,
		"model_id":                 entry.ModelID,
		"model_version":            sql.NullString{String: entry.ModelVersion, Valid: entry.ModelVersion != ""},
		"triage_level":             string(entry.TriageLevel),
		"steps":                    steps,
		"alerts":                   alerts,
		"performance":              performance,
		"patient_data_hash":        entry.PatientDataHash,
		"image_analysis_performed": entry.ImageAnalysisPerformed,
		"consent_store_record":     entry.Consent.StoreRecord,
		"consent_image_analysis":   entry.Consent.ImageAnalysis,
		"created_at":               entry.CreatedAt,
	}

	query, args, err := a.db.Insert(auditTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build audit insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to archive audit entry", err)
	}

	return nil
}

// GetByCaseID retrieves the archived entry for a case.
func (a *AuditArchiveAdapter) GetByCaseID(ctx context.Context, caseID string) (*entities.AuditEntry, error) {
	defer a.recordQuery(ctx, "audit_get_by_case", time.Now())

	query, args, err := a.selectColumns().
		Where(goqu.Ex{"case_id": caseID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build audit query", err)
	}

	entry, err := a.scanEntry(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("audit entry not found for case %s", caseID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read audit entry", err)
	}
	return entry, nil
}

// ListRecent retrieves the most recent archived entries, newest first.
func (a *AuditArchiveAdapter) ListRecent(ctx context.Context, limit int) ([]entities.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	defer a.recordQuery(ctx, "audit_list_recent", time.Now())

	query, args, err := a.selectColumns().
		Order(goqu.I("created_at").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build audit list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list audit entries", err)
	}
	defer rows.Close()

	var entries []entities.AuditEntry
	for rows.Next() {
		entry, err := a.scanEntry(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan audit entry", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate audit entries", err)
	}

	return entries, nil
}

func (a *AuditArchiveAdapter) selectColumns() *goqu.SelectDataset {
	return a.db.Select(
		"case_id", "model_id", "model_version", "triage_level",
		"steps", "alerts", "performance", "patient_data_hash",
		"image_analysis_performed", "consent_store_record",
		"consent_image_analysis", "created_at",
	).From(auditTable)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (a *AuditArchiveAdapter) scanEntry(row rowScanner) (*entities.AuditEntry, error) {
	var (
		entry        entities.AuditEntry
		modelVersion sql.NullString
		triageLevel  string
		steps        []byte
		alerts       []byte
		performance  []byte
		createdAt    time.Time
	)

	err := row.Scan(
		&entry.CaseID, &entry.ModelID, &modelVersion, &triageLevel,
		&steps, &alerts, &performance, &entry.PatientDataHash,
		&entry.ImageAnalysisPerformed, &entry.Consent.StoreRecord,
		&entry.Consent.ImageAnalysis, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	entry.ModelVersion = modelVersion.String
	entry.TriageLevel = entities.TriageLevel(triageLevel)
	entry.CreatedAt = createdAt

	if err := json.Unmarshal(steps, &entry.Steps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal audit steps: %w", err)
	}
	if err := json.Unmarshal(alerts, &entry.Alerts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert summary: %w", err)
	}
	if err := json.Unmarshal(performance, &entry.Performance); err != nil {
		return nil, fmt.Errorf("failed to unmarshal performance metrics: %w", err)
	}

	return &entry, nil
}
