package repositories

import (
	"context"

	"github.com/meditriage/triage-core/internal/domain/entities"
)

// AuditArchiveRepository mirrors audit entries into long-term SQL storage.
// The archive holds the same hashed fields as the file store; it never
// receives raw patient text. Writes are best-effort from the caller's
// perspective.
type AuditArchiveRepository interface {
	Insert(ctx context.Context, entry *entities.AuditEntry) error
	GetByCaseID(ctx context.Context, caseID string) (*entities.AuditEntry, error)
	ListRecent(ctx context.Context, limit int) ([]entities.AuditEntry, error)
}
